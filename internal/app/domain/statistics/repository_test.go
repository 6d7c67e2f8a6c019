package statistics

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/models"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewRepository(pool, zap.NewNop()), pool
}

func TestCountLocations(t *testing.T) {
	repo, pool := newMockRepo(t)

	pool.ExpectQuery(`SELECT COUNT\(\*\) FROM locations`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))

	n, err := repo.CountLocations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestCountProposalsByStatus(t *testing.T) {
	repo, pool := newMockRepo(t)

	pool.ExpectQuery(`SELECT COUNT\(\*\) FROM proposals WHERE status = \$1`).
		WithArgs(models.ProposalPending).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountProposalsByStatus(context.Background(), models.ProposalPending)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestCountRegions(t *testing.T) {
	repo, pool := newMockRepo(t)

	pool.ExpectQuery(`SELECT COUNT\(DISTINCT region\) FROM locations`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(12))

	n, err := repo.CountRegions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestCountUsersError(t *testing.T) {
	repo, pool := newMockRepo(t)

	pool.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.CountUsers(context.Background())
	assert.Error(t, err)
	assert.NoError(t, pool.ExpectationsWereMet())
}
