package locations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/domain/user"
	"github.com/ormeapp/orme/internal/app/gamification"
	"github.com/ormeapp/orme/internal/app/models"
	"github.com/ormeapp/orme/internal/pkg/cache"
)

const listCacheTTL = time.Minute

var _ LocationService = (*ServiceLocationImpl)(nil)

// CreateResult is the outcome of adding a location: the stored record plus
// the points the creator earned for it.
type CreateResult struct {
	Location *models.Location
	Award    *user.PointsAward
	Earned   int
}

// LocationService defines the business logic contract for the directory.
type LocationService interface {
	// CreateLocation stores a new location and rewards the creator. The
	// award depends on which optional details the record carries.
	CreateLocation(ctx context.Context, creatorID uuid.UUID, loc *models.Location) (*CreateResult, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	ListLocations(ctx context.Context, filter models.LocationFilter) ([]models.Location, error)
}

// ServiceLocationImpl provides the implementation for LocationService.
type ServiceLocationImpl struct {
	logger    *zap.Logger
	repo      Repository
	users     user.UserService
	listCache *cache.UnifiedCache[[]models.Location]
}

func NewLocationService(repo Repository, users user.UserService, logger *zap.Logger) *ServiceLocationImpl {
	return &ServiceLocationImpl{
		logger:    logger,
		repo:      repo,
		users:     users,
		listCache: cache.NewUnifiedCache[[]models.Location](listCacheTTL, "locations", logger),
	}
}

func validateNewLocation(loc *models.Location) error {
	if strings.TrimSpace(loc.Name) == "" {
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	if strings.TrimSpace(loc.Region) == "" {
		return fmt.Errorf("%w: region is required", models.ErrValidation)
	}
	if strings.TrimSpace(loc.Province) == "" {
		return fmt.Errorf("%w: province is required", models.ErrValidation)
	}
	if strings.TrimSpace(loc.Commune) == "" {
		return fmt.Errorf("%w: commune is required", models.ErrValidation)
	}
	return nil
}

// contributionDelta maps the optional details of a new location to the
// counters they advance.
func contributionDelta(loc *models.Location) models.UserStats {
	delta := models.UserStats{LocationsAdded: 1}
	if loc.HasRoverService {
		delta.RSLocationsAdded = 1
	}
	if p := loc.Pricing; p != nil && (p.BasePrice > 0 || p.Description != "") {
		delta.PricingInfoAdded = 1
	}
	if loc.Coordinates != nil {
		delta.CoordinateInfoAdded = 1
	}
	if loc.Website != "" {
		delta.WebsiteInfoAdded = 1
	}
	return delta
}

// CreateLocation stores the location, then applies the creator's reward and
// counters. The reward is computed before the insert so the stored record
// and the award are consistent.
func (s *ServiceLocationImpl) CreateLocation(ctx context.Context, creatorID uuid.UUID, loc *models.Location) (*CreateResult, error) {
	l := s.logger.With(zap.String("method", "CreateLocation"), zap.String("creatorID", creatorID.String()))

	if err := validateNewLocation(loc); err != nil {
		return nil, err
	}

	loc.ID = uuid.New()
	loc.LastUpdatedAt = time.Now().UTC()
	loc.LastUpdatedBy = creatorID

	if err := s.repo.CreateLocation(ctx, loc); err != nil {
		l.Error("Failed to store location", zap.Error(err))
		return nil, fmt.Errorf("error creating location: %w", err)
	}

	earned := gamification.PointsForNewLocation(loc)
	award, err := s.users.AwardPoints(ctx, creatorID, earned)
	if err != nil {
		l.Error("Failed to award creation points", zap.Error(err))
		return nil, fmt.Errorf("error rewarding creator: %w", err)
	}

	if err := s.users.RecordContribution(ctx, creatorID, contributionDelta(loc)); err != nil {
		l.Error("Failed to record contribution counters", zap.Error(err))
		return nil, fmt.Errorf("error recording contribution: %w", err)
	}

	s.listCache.Clear()
	l.Info("Location created",
		zap.String("locationID", loc.ID.String()),
		zap.Int("points_earned", earned))

	return &CreateResult{Location: loc, Award: award, Earned: earned}, nil
}

func (s *ServiceLocationImpl) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	loc, err := s.repo.GetLocation(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error fetching location: %w", err)
	}
	return loc, nil
}

func (s *ServiceLocationImpl) ListLocations(ctx context.Context, filter models.LocationFilter) ([]models.Location, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}

	key, err := cache.Key(filter)
	if err == nil {
		if cached, ok := s.listCache.Get(key); ok {
			return cached, nil
		}
	}

	locs, err := s.repo.ListLocations(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error listing locations: %w", err)
	}

	if key != "" {
		s.listCache.Set(key, locs)
	}
	return locs, nil
}
