package locations

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/domain/user"
	"github.com/ormeapp/orme/internal/app/gamification"
	"github.com/ormeapp/orme/internal/app/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateLocation(ctx context.Context, loc *models.Location) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *MockRepository) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockRepository) UpdateLocation(ctx context.Context, loc *models.Location) error {
	args := m.Called(ctx, loc)
	return args.Error(0)
}

func (m *MockRepository) DeleteLocation(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) ListLocations(ctx context.Context, filter models.LocationFilter) ([]models.Location, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Location), args.Error(1)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUserProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserProfile), args.Error(1)
}

func (m *MockUserService) AwardPoints(ctx context.Context, userID uuid.UUID, delta int) (*user.PointsAward, error) {
	args := m.Called(ctx, userID, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.PointsAward), args.Error(1)
}

func (m *MockUserService) RecordContribution(ctx context.Context, userID uuid.UUID, delta models.UserStats) error {
	args := m.Called(ctx, userID, delta)
	return args.Error(0)
}

func (m *MockUserService) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LeaderboardEntry), args.Error(1)
}

func newTestService(repo *MockRepository, users *MockUserService) *ServiceLocationImpl {
	return NewLocationService(repo, users, zap.NewNop())
}

func TestCreateLocation(t *testing.T) {
	ctx := context.Background()
	creatorID := uuid.New()

	baseLocation := func() *models.Location {
		return &models.Location{
			Name:     "Base San Giorgio",
			Region:   "Veneto",
			Province: "VR",
			Commune:  "Bosco Chiesanuova",
		}
	}

	t.Run("success awards base points", func(t *testing.T) {
		repo := new(MockRepository)
		users := new(MockUserService)
		service := newTestService(repo, users)

		loc := baseLocation()
		repo.On("CreateLocation", ctx, loc).Return(nil)
		users.On("AwardPoints", ctx, creatorID, gamification.BaseLocationPoints).
			Return(&user.PointsAward{Points: gamification.BaseLocationPoints}, nil)
		users.On("RecordContribution", ctx, creatorID, models.UserStats{LocationsAdded: 1}).Return(nil)

		result, err := service.CreateLocation(ctx, creatorID, loc)

		require.NoError(t, err)
		assert.Equal(t, gamification.BaseLocationPoints, result.Earned)
		assert.NotEqual(t, uuid.Nil, result.Location.ID)
		assert.Equal(t, creatorID, result.Location.LastUpdatedBy)
		assert.False(t, result.Location.LastUpdatedAt.IsZero())
		repo.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("rich record earns every bonus and counter", func(t *testing.T) {
		repo := new(MockRepository)
		users := new(MockUserService)
		service := newTestService(repo, users)

		loc := baseLocation()
		loc.Website = "https://example.org"
		loc.Coordinates = &models.Coordinates{Lat: 45.6, Lng: 11.0}
		loc.Pricing = &models.PricingInfo{BasePrice: 7, Unit: "per_night"}
		loc.HasRoverService = true

		wantPoints := gamification.BaseLocationPoints +
			gamification.WebsiteBonus +
			gamification.ReachabilityBonus +
			gamification.PricingBonus

		repo.On("CreateLocation", ctx, loc).Return(nil)
		users.On("AwardPoints", ctx, creatorID, wantPoints).
			Return(&user.PointsAward{Points: wantPoints, LeveledUp: false}, nil)
		users.On("RecordContribution", ctx, creatorID, models.UserStats{
			LocationsAdded:      1,
			RSLocationsAdded:    1,
			PricingInfoAdded:    1,
			CoordinateInfoAdded: 1,
			WebsiteInfoAdded:    1,
		}).Return(nil)

		result, err := service.CreateLocation(ctx, creatorID, loc)

		require.NoError(t, err)
		assert.Equal(t, wantPoints, result.Earned)
		users.AssertExpectations(t)
	})

	t.Run("empty pricing earns no pricing bonus", func(t *testing.T) {
		repo := new(MockRepository)
		users := new(MockUserService)
		service := newTestService(repo, users)

		loc := baseLocation()
		loc.Pricing = &models.PricingInfo{}

		repo.On("CreateLocation", ctx, loc).Return(nil)
		users.On("AwardPoints", ctx, creatorID, gamification.BaseLocationPoints).
			Return(&user.PointsAward{Points: gamification.BaseLocationPoints}, nil)
		users.On("RecordContribution", ctx, creatorID, models.UserStats{LocationsAdded: 1}).Return(nil)

		_, err := service.CreateLocation(ctx, creatorID, loc)
		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("missing required field", func(t *testing.T) {
		repo := new(MockRepository)
		users := new(MockUserService)
		service := newTestService(repo, users)

		loc := baseLocation()
		loc.Region = "  "

		_, err := service.CreateLocation(ctx, creatorID, loc)

		assert.ErrorIs(t, err, models.ErrValidation)
		repo.AssertNotCalled(t, "CreateLocation", mock.Anything, mock.Anything)
	})

	t.Run("repository error", func(t *testing.T) {
		repo := new(MockRepository)
		users := new(MockUserService)
		service := newTestService(repo, users)

		loc := baseLocation()
		repo.On("CreateLocation", ctx, loc).Return(assert.AnError)

		_, err := service.CreateLocation(ctx, creatorID, loc)

		assert.Error(t, err)
		users.AssertNotCalled(t, "AwardPoints", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestListLocations(t *testing.T) {
	ctx := context.Background()

	t.Run("applies default limit", func(t *testing.T) {
		repo := new(MockRepository)
		users := new(MockUserService)
		service := newTestService(repo, users)

		want := models.LocationFilter{Region: "Lazio", Limit: 50}
		repo.On("ListLocations", ctx, want).Return([]models.Location{}, nil)

		_, err := service.ListLocations(ctx, models.LocationFilter{Region: "Lazio"})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("caps oversized limit", func(t *testing.T) {
		repo := new(MockRepository)
		users := new(MockUserService)
		service := newTestService(repo, users)

		want := models.LocationFilter{Limit: 50}
		repo.On("ListLocations", ctx, want).Return([]models.Location{}, nil)

		_, err := service.ListLocations(ctx, models.LocationFilter{Limit: 5000})

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}

func TestGetLocation(t *testing.T) {
	ctx := context.Background()

	t.Run("not found passes through", func(t *testing.T) {
		repo := new(MockRepository)
		users := new(MockUserService)
		service := newTestService(repo, users)

		id := uuid.New()
		repo.On("GetLocation", ctx, id).Return(nil, models.ErrNotFound)

		_, err := service.GetLocation(ctx, id)

		assert.ErrorIs(t, err, models.ErrNotFound)
	})
}
