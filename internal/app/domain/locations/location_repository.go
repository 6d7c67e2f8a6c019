package locations

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ormeapp/orme/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the persistence contract for the location directory.
type Repository interface {
	CreateLocation(ctx context.Context, loc *models.Location) error
	GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	// UpdateLocation fully replaces the stored record.
	UpdateLocation(ctx context.Context, loc *models.Location) error
	DeleteLocation(ctx context.Context, id uuid.UUID) error
	ListLocations(ctx context.Context, filter models.LocationFilter) ([]models.Location, error)
}

type RepositoryImpl struct {
	pgpool *pgxpool.Pool
	logger *zap.Logger
}

func NewRepository(pgpool *pgxpool.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{pgpool: pgpool, logger: logger}
}

const locationColumns = `
	id, name, region, province, commune, address, contacts, activities,
	quick_note, coordinates, beds, bathrooms,
	has_tents, has_refectory, has_rover_service, has_church, has_green_space,
	has_equipped_kitchen, has_poles,
	has_pastures, has_insects, has_diseases, has_little_shade, has_very_busy_area,
	other_attention, other_logistics, rover_service_description,
	restrictions, other_restrictions, website, email, description, pricing,
	google_maps_link, last_updated_at, last_updated_by
`

// Querier is the statement executor the single-row helpers run on. Both
// *pgxpool.Pool and pgx.Tx satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func scanLocation(row pgx.Row) (*models.Location, error) {
	var loc models.Location
	err := row.Scan(
		&loc.ID, &loc.Name, &loc.Region, &loc.Province, &loc.Commune, &loc.Address,
		&loc.Contacts, &loc.Activities,
		&loc.QuickNote, &loc.Coordinates, &loc.Beds, &loc.Bathrooms,
		&loc.HasTents, &loc.HasRefectory, &loc.HasRoverService, &loc.HasChurch, &loc.HasGreenSpace,
		&loc.HasEquippedKitchen, &loc.HasPoles,
		&loc.HasPastures, &loc.HasInsects, &loc.HasDiseases, &loc.HasLittleShade, &loc.HasVeryBusyArea,
		&loc.OtherAttention, &loc.OtherLogistics, &loc.RoverServiceDescription,
		&loc.Restrictions, &loc.OtherRestrictions, &loc.Website, &loc.Email, &loc.Description, &loc.Pricing,
		&loc.GoogleMapsLink, &loc.LastUpdatedAt, &loc.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan location: %w", err)
	}
	return &loc, nil
}

func (r *RepositoryImpl) CreateLocation(ctx context.Context, loc *models.Location) error {
	query := `
		INSERT INTO locations (` + locationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30, $31, $32, $33, $34, $35, $36)
	`
	_, err := r.pgpool.Exec(ctx, query,
		loc.ID, loc.Name, loc.Region, loc.Province, loc.Commune, loc.Address,
		loc.Contacts, loc.Activities,
		loc.QuickNote, loc.Coordinates, loc.Beds, loc.Bathrooms,
		loc.HasTents, loc.HasRefectory, loc.HasRoverService, loc.HasChurch, loc.HasGreenSpace,
		loc.HasEquippedKitchen, loc.HasPoles,
		loc.HasPastures, loc.HasInsects, loc.HasDiseases, loc.HasLittleShade, loc.HasVeryBusyArea,
		loc.OtherAttention, loc.OtherLogistics, loc.RoverServiceDescription,
		loc.Restrictions, loc.OtherRestrictions, loc.Website, loc.Email, loc.Description, loc.Pricing,
		loc.GoogleMapsLink, loc.LastUpdatedAt, loc.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	return GetLocationIn(ctx, r.pgpool, id)
}

// GetLocationIn runs the lookup on the given executor, so a caller holding a
// transaction can read through it.
func GetLocationIn(ctx context.Context, q Querier, id uuid.UUID) (*models.Location, error) {
	query := `SELECT ` + locationColumns + ` FROM locations WHERE id = $1`
	return scanLocation(q.QueryRow(ctx, query, id))
}

func (r *RepositoryImpl) UpdateLocation(ctx context.Context, loc *models.Location) error {
	return UpdateLocationIn(ctx, r.pgpool, loc)
}

// UpdateLocationIn writes the full row on the given executor.
func UpdateLocationIn(ctx context.Context, q Querier, loc *models.Location) error {
	query := `
		UPDATE locations SET
			name = $2, region = $3, province = $4, commune = $5, address = $6,
			contacts = $7, activities = $8, quick_note = $9, coordinates = $10,
			beds = $11, bathrooms = $12,
			has_tents = $13, has_refectory = $14, has_rover_service = $15,
			has_church = $16, has_green_space = $17, has_equipped_kitchen = $18,
			has_poles = $19,
			has_pastures = $20, has_insects = $21, has_diseases = $22,
			has_little_shade = $23, has_very_busy_area = $24,
			other_attention = $25, other_logistics = $26,
			rover_service_description = $27, restrictions = $28,
			other_restrictions = $29, website = $30, email = $31,
			description = $32, pricing = $33, google_maps_link = $34,
			last_updated_at = $35, last_updated_by = $36
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		loc.ID, loc.Name, loc.Region, loc.Province, loc.Commune, loc.Address,
		loc.Contacts, loc.Activities, loc.QuickNote, loc.Coordinates,
		loc.Beds, loc.Bathrooms,
		loc.HasTents, loc.HasRefectory, loc.HasRoverService,
		loc.HasChurch, loc.HasGreenSpace, loc.HasEquippedKitchen,
		loc.HasPoles,
		loc.HasPastures, loc.HasInsects, loc.HasDiseases,
		loc.HasLittleShade, loc.HasVeryBusyArea,
		loc.OtherAttention, loc.OtherLogistics,
		loc.RoverServiceDescription, loc.Restrictions,
		loc.OtherRestrictions, loc.Website, loc.Email,
		loc.Description, loc.Pricing, loc.GoogleMapsLink,
		loc.LastUpdatedAt, loc.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	return DeleteLocationIn(ctx, r.pgpool, id)
}

// DeleteLocationIn removes the row on the given executor.
func DeleteLocationIn(ctx context.Context, q Querier, id uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// foldAccents strips diacritics so "Forlì" matches a "Forli" query.
func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

func (r *RepositoryImpl) ListLocations(ctx context.Context, filter models.LocationFilter) ([]models.Location, error) {
	builder := sq.Select(strings.TrimSpace(locationColumns)).
		From("locations").
		OrderBy("name ASC").
		PlaceholderFormat(sq.Dollar)

	if filter.Region != "" {
		builder = builder.Where(sq.Eq{"region": filter.Region})
	}
	if filter.Province != "" {
		builder = builder.Where(sq.Eq{"province": filter.Province})
	}
	if filter.NameQuery != "" {
		q := "%" + foldAccents(strings.ToLower(filter.NameQuery)) + "%"
		builder = builder.Where(sq.Expr("lower(translate(name, 'àèéìòùÀÈÉÌÒÙ', 'aeeiouAEEIOU')) LIKE ?", q))
	}
	if filter.HasTents != nil {
		builder = builder.Where(sq.Eq{"has_tents": *filter.HasTents})
	}
	if filter.HasRoverService != nil {
		builder = builder.Where(sq.Eq{"has_rover_service": *filter.HasRoverService})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build location query: %w", err)
	}

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	defer rows.Close()

	var locs []models.Location
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locs = append(locs, *loc)
	}

	return locs, rows.Err()
}
