package statistics

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ormeapp/orme/internal/app/models"
)

var _ Service = (*ServiceImpl)(nil)

// CommunityStatistics is the landing-page summary of the directory.
type CommunityStatistics struct {
	Locations        int `json:"locations"`
	Regions          int `json:"regions"`
	Users            int `json:"users"`
	PendingProposals int `json:"pending_proposals"`
}

type Service interface {
	GetCommunityStatistics(ctx context.Context) (*CommunityStatistics, error)
}

type ServiceImpl struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger *zap.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

// GetCommunityStatistics gathers the four counters concurrently.
func (s *ServiceImpl) GetCommunityStatistics(ctx context.Context) (*CommunityStatistics, error) {
	l := s.logger.With(zap.String("method", "GetCommunityStatistics"))

	var stats CommunityStatistics
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountLocations(gctx)
		stats.Locations = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountRegions(gctx)
		stats.Regions = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountUsers(gctx)
		stats.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.repo.CountProposalsByStatus(gctx, models.ProposalPending)
		stats.PendingProposals = n
		return err
	})

	if err := g.Wait(); err != nil {
		l.Error("Failed to gather community statistics", zap.Error(err))
		return nil, err
	}

	return &stats, nil
}
