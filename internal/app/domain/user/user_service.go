package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/gamification"
	"github.com/ormeapp/orme/internal/app/models"
)

// Ensure implementation satisfies the interface
var _ UserService = (*ServiceUserImpl)(nil)

// PointsAward is the observable outcome of a points change. LeveledUp lets
// the presentation layer notify the user; the core only signals it.
type PointsAward struct {
	Points    int
	Level     gamification.Level
	LeveledUp bool
}

// UserService defines the business logic contract for user operations.
type UserService interface {
	// GetUserProfile returns the stored user with level name, badge set and
	// points-to-next recomputed from points and counters.
	GetUserProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)

	// AwardPoints applies a (possibly negative) points delta, clamped at
	// zero, and reports whether the user leveled up.
	AwardPoints(ctx context.Context, userID uuid.UUID, delta int) (*PointsAward, error)

	// RecordContribution bumps stat counters and refreshes the badge cache.
	RecordContribution(ctx context.Context, userID uuid.UUID, delta models.UserStats) error

	GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

const (
	leaderboardCacheKey = "leaderboard"
	leaderboardTTL      = time.Minute
)

// ServiceUserImpl provides the implementation for UserService.
type ServiceUserImpl struct {
	logger *zap.Logger
	repo   Repository
	cache  *cache.Cache
}

// NewUserService creates a new user service instance.
func NewUserService(repo Repository, logger *zap.Logger) *ServiceUserImpl {
	return &ServiceUserImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(leaderboardTTL, 5*time.Minute),
	}
}

// GetUserProfile retrieves a user and derives the gamification read model.
func (s *ServiceUserImpl) GetUserProfile(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	l := s.logger.With(zap.String("method", "GetUserProfile"), zap.String("userID", userID.String()))
	l.Debug("Fetching user profile")

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to fetch user", zap.Error(err))
		return nil, fmt.Errorf("error fetching user profile: %w", err)
	}

	level := gamification.LevelForPoints(u.Points)
	u.Level = level.Ordinal

	return &models.UserProfile{
		User:         *u,
		LevelName:    level.Name,
		PointsToNext: gamification.PointsToNextLevel(u.Points),
		Badges:       gamification.EarnedBadges(u.Stats),
	}, nil
}

// AwardPoints changes the user's points balance and recomputes the level.
func (s *ServiceUserImpl) AwardPoints(ctx context.Context, userID uuid.UUID, delta int) (*PointsAward, error) {
	l := s.logger.With(zap.String("method", "AwardPoints"), zap.String("userID", userID.String()), zap.Int("delta", delta))

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to fetch user before points change", zap.Error(err))
		return nil, fmt.Errorf("error awarding points: %w", err)
	}

	points, err := s.repo.AddPoints(ctx, userID, delta)
	if err != nil {
		l.Error("Failed to apply points delta", zap.Error(err))
		return nil, fmt.Errorf("error awarding points: %w", err)
	}

	award := &PointsAward{
		Points: points,
		Level:  gamification.LevelForPoints(points),
	}
	if award.Level.Ordinal > u.Level {
		award.LeveledUp = true
		if err := s.repo.SetLevel(ctx, userID, award.Level.Ordinal); err != nil {
			l.Error("Failed to store new level", zap.Error(err))
			return nil, fmt.Errorf("error storing level: %w", err)
		}
		l.Info("User leveled up", zap.Int("level", award.Level.Ordinal), zap.String("level_name", award.Level.Name))
	}

	s.cache.Delete(leaderboardCacheKey)
	return award, nil
}

// RecordContribution bumps the counters and keeps the badge cache in sync.
func (s *ServiceUserImpl) RecordContribution(ctx context.Context, userID uuid.UUID, delta models.UserStats) error {
	l := s.logger.With(zap.String("method", "RecordContribution"), zap.String("userID", userID.String()))

	stats, err := s.repo.IncrementStats(ctx, userID, delta)
	if err != nil {
		l.Error("Failed to increment stats", zap.Error(err))
		return fmt.Errorf("error recording contribution: %w", err)
	}

	// The stored badge array is only a cache of the derived set.
	if err := s.repo.UpdateBadgeCache(ctx, userID, gamification.EarnedBadges(*stats)); err != nil {
		l.Warn("Failed to refresh badge cache", zap.Error(err))
	}
	return nil
}

// GetLeaderboard returns the points ranking, cached briefly.
func (s *ServiceUserImpl) GetLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	l := s.logger.With(zap.String("method", "GetLeaderboard"))

	if cached, found := s.cache.Get(leaderboardCacheKey); found {
		if entries, ok := cached.([]models.LeaderboardEntry); ok && len(entries) >= limit {
			return entries[:limit], nil
		}
	}

	entries, err := s.repo.GetLeaderboard(ctx, limit)
	if err != nil {
		l.Error("Failed to fetch leaderboard", zap.Error(err))
		return nil, fmt.Errorf("error fetching leaderboard: %w", err)
	}

	s.cache.Set(leaderboardCacheKey, entries, cache.DefaultExpiration)
	return entries, nil
}
