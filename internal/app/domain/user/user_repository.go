package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the persistence contract for user accounts and their
// gamification state.
type Repository interface {
	GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// AddPoints atomically adds delta (possibly negative) to the user's
	// points, clamped at zero, and returns the new total.
	AddPoints(ctx context.Context, userID uuid.UUID, delta int) (int, error)
	SetLevel(ctx context.Context, userID uuid.UUID, level int) error
	// IncrementStats adds each non-zero counter of delta to the stored
	// counters and returns the new values.
	IncrementStats(ctx context.Context, userID uuid.UUID, delta models.UserStats) (*models.UserStats, error)
	// UpdateBadgeCache overwrites the denormalized badge array. Callers
	// refresh it after every counter write; reads never trust it.
	UpdateBadgeCache(ctx context.Context, userID uuid.UUID, badges []string) error
	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

type RepositoryImpl struct {
	pgpool *pgxpool.Pool
	logger *zap.Logger
}

func NewRepository(pgpool *pgxpool.Pool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{pgpool: pgpool, logger: logger}
}

const userColumns = `
	id, first_name, last_name, nickname, email, scout_code, points, level,
	locations_added, contributions_approved, validations_given,
	rs_locations_added, pricing_info_added, coordinate_info_added,
	website_info_added, created_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Nickname, &u.Email, &u.ScoutCode,
		&u.Points, &u.Level,
		&u.Stats.LocationsAdded, &u.Stats.ContributionsApproved, &u.Stats.ValidationsGiven,
		&u.Stats.RSLocationsAdded, &u.Stats.PricingInfoAdded, &u.Stats.CoordinateInfoAdded,
		&u.Stats.WebsiteInfoAdded, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (r *RepositoryImpl) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pgpool.QueryRow(ctx, query, userID))
}

func (r *RepositoryImpl) AddPoints(ctx context.Context, userID uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE users
		SET points = GREATEST(0, points + $2)
		WHERE id = $1
		RETURNING points
	`
	var points int
	err := r.pgpool.QueryRow(ctx, query, userID, delta).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, models.ErrNotFound
		}
		return 0, fmt.Errorf("failed to add points: %w", err)
	}
	return points, nil
}

func (r *RepositoryImpl) SetLevel(ctx context.Context, userID uuid.UUID, level int) error {
	tag, err := r.pgpool.Exec(ctx, `UPDATE users SET level = $2 WHERE id = $1`, userID, level)
	if err != nil {
		return fmt.Errorf("failed to set level: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *RepositoryImpl) IncrementStats(ctx context.Context, userID uuid.UUID, delta models.UserStats) (*models.UserStats, error) {
	query := `
		UPDATE users SET
			locations_added        = locations_added + $2,
			contributions_approved = contributions_approved + $3,
			validations_given      = validations_given + $4,
			rs_locations_added     = rs_locations_added + $5,
			pricing_info_added     = pricing_info_added + $6,
			coordinate_info_added  = coordinate_info_added + $7,
			website_info_added     = website_info_added + $8
		WHERE id = $1
		RETURNING locations_added, contributions_approved, validations_given,
			rs_locations_added, pricing_info_added, coordinate_info_added,
			website_info_added
	`
	var stats models.UserStats
	err := r.pgpool.QueryRow(ctx, query, userID,
		delta.LocationsAdded, delta.ContributionsApproved, delta.ValidationsGiven,
		delta.RSLocationsAdded, delta.PricingInfoAdded, delta.CoordinateInfoAdded,
		delta.WebsiteInfoAdded,
	).Scan(
		&stats.LocationsAdded, &stats.ContributionsApproved, &stats.ValidationsGiven,
		&stats.RSLocationsAdded, &stats.PricingInfoAdded, &stats.CoordinateInfoAdded,
		&stats.WebsiteInfoAdded,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to increment stats: %w", err)
	}
	return &stats, nil
}

func (r *RepositoryImpl) UpdateBadgeCache(ctx context.Context, userID uuid.UUID, badges []string) error {
	_, err := r.pgpool.Exec(ctx, `UPDATE users SET badges = $2 WHERE id = $1`, userID, badges)
	if err != nil {
		return fmt.Errorf("failed to update badge cache: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT id, nickname, points, level
		FROM users
		ORDER BY points DESC, nickname ASC
		LIMIT $1
	`
	rows, err := r.pgpool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	rank := 0
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Nickname, &e.Points, &e.Level); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		rank++
		e.Rank = rank
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
