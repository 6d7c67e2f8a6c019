package statistics

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

type Repository interface {
	CountLocations(ctx context.Context) (int, error)
	CountUsers(ctx context.Context) (int, error)
	CountProposalsByStatus(ctx context.Context, status models.ProposalStatus) (int, error)
	CountRegions(ctx context.Context) (int, error)
}

// rowQuerier is satisfied by *pgxpool.Pool.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type RepositoryImpl struct {
	pgpool rowQuerier
	logger *zap.Logger
}

func NewRepository(pgpool rowQuerier, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{pgpool: pgpool, logger: logger}
}

func (r *RepositoryImpl) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.pgpool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count: %w", err)
	}
	return n, nil
}

func (r *RepositoryImpl) CountLocations(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM locations`)
}

func (r *RepositoryImpl) CountUsers(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM users`)
}

func (r *RepositoryImpl) CountProposalsByStatus(ctx context.Context, status models.ProposalStatus) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM proposals WHERE status = $1`, status)
}

func (r *RepositoryImpl) CountRegions(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(DISTINCT region) FROM locations`)
}
