package proposals

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/gamification"
	"github.com/ormeapp/orme/internal/app/models"
)

func newMockRepo(t *testing.T) (*RepositoryImpl, pgxmock.PgxPoolIface) {
	t.Helper()
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return NewRepository(pool, zap.NewNop()), pool
}

func proposalRow(p *models.Proposal) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "type", "location_id", "location_name", "proposer_id",
		"changes", "status", "created_at", "resolved_at",
	}).AddRow(p.ID, p.Type, p.LocationID, p.LocationName, p.ProposerID,
		p.Changes, p.Status, p.CreatedAt, p.ResolvedAt)
}

func locationRow(loc *models.Location) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "name", "region", "province", "commune", "address", "contacts", "activities",
		"quick_note", "coordinates", "beds", "bathrooms",
		"has_tents", "has_refectory", "has_rover_service", "has_church", "has_green_space",
		"has_equipped_kitchen", "has_poles",
		"has_pastures", "has_insects", "has_diseases", "has_little_shade", "has_very_busy_area",
		"other_attention", "other_logistics", "rover_service_description",
		"restrictions", "other_restrictions", "website", "email", "description", "pricing",
		"google_maps_link", "last_updated_at", "last_updated_by",
	}).AddRow(
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
}

// anyArgs builds n AnyArg matchers; pgxmock requires the expected argument
// count to match even when the values are not asserted on.
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

// expectCredit lines up the two statements creditUser issues: the balance
// and counter update, then the derived level and badge refresh.
func expectCredit(pool pgxmock.PgxPoolIface, userID uuid.UUID, points int, delta models.UserStats, newPoints int, stats models.UserStats) {
	pool.ExpectQuery(`UPDATE users SET`).
		WithArgs(userID, points,
			delta.LocationsAdded, delta.ContributionsApproved, delta.ValidationsGiven,
			delta.RSLocationsAdded, delta.PricingInfoAdded, delta.CoordinateInfoAdded,
			delta.WebsiteInfoAdded).
		WillReturnRows(pgxmock.NewRows([]string{
			"points", "locations_added", "contributions_approved", "validations_given",
			"rs_locations_added", "pricing_info_added", "coordinate_info_added", "website_info_added",
		}).AddRow(newPoints, stats.LocationsAdded, stats.ContributionsApproved, stats.ValidationsGiven,
			stats.RSLocationsAdded, stats.PricingInfoAdded, stats.CoordinateInfoAdded,
			stats.WebsiteInfoAdded))
	pool.ExpectExec(`UPDATE users SET level`).
		WithArgs(userID, gamification.LevelForPoints(newPoints).Ordinal, gamification.EarnedBadges(stats)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
}

func TestRecordVote(t *testing.T) {
	ctx := context.Background()
	proposerID := uuid.New()
	voterID := uuid.New()
	otherVoter := uuid.New()
	locationID := uuid.New()

	pendingProposal := func(pType models.ProposalType, changes *models.LocationChanges) *models.Proposal {
		return &models.Proposal{
			ID:           uuid.New(),
			Type:         pType,
			LocationID:   locationID,
			LocationName: "Rifugio Aquila",
			ProposerID:   proposerID,
			Changes:      changes,
			Status:       models.ProposalPending,
			CreatedAt:    time.Now().UTC(),
		}
	}

	selectForUpdate := `SELECT (.+) FROM proposals WHERE id = \$1 FOR UPDATE`
	insertVote := `INSERT INTO proposal_votes`
	selectVotes := `SELECT voter_id, vote FROM proposal_votes`
	resolveProposal := `UPDATE proposals SET status = \$2, resolved_at = \$3`

	t.Run("first vote stays pending and rewards the reviewer", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		p := pendingProposal(models.ProposalDelete, nil)

		pool.ExpectBegin()
		pool.ExpectQuery(selectForUpdate).WithArgs(p.ID).WillReturnRows(proposalRow(p))
		pool.ExpectExec(insertVote).WithArgs(p.ID, voterID, models.VoteApprove).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		pool.ExpectQuery(selectVotes).WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows([]string{"voter_id", "vote"}).
				AddRow(voterID, models.VoteApprove))
		expectCredit(pool, voterID, gamification.ReviewerReward, models.UserStats{ValidationsGiven: 1},
			5, models.UserStats{ValidationsGiven: 1})
		pool.ExpectCommit()

		result, err := repo.RecordVote(ctx, p.ID, voterID, models.VoteApprove)

		require.NoError(t, err)
		assert.False(t, result.Resolved)
		assert.False(t, result.Applied)
		assert.Equal(t, models.ProposalPending, result.Proposal.Status)
		assert.Len(t, result.Proposal.Approvals, 1)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("second approval resolves and applies the update in one transaction", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		p := pendingProposal(models.ProposalUpdate, &models.LocationChanges{QuickNote: strPtr("nuova nota")})
		stored := &models.Location{
			ID: locationID, Name: "Rifugio Aquila", Region: "Veneto", Province: "VR",
			Contacts: []models.LocationContact{}, Activities: []string{}, Restrictions: []string{},
			QuickNote: "vecchia nota", LastUpdatedAt: time.Now().UTC(), LastUpdatedBy: proposerID,
		}

		pool.ExpectBegin()
		pool.ExpectQuery(selectForUpdate).WithArgs(p.ID).WillReturnRows(proposalRow(p))
		pool.ExpectExec(insertVote).WithArgs(p.ID, voterID, models.VoteApprove).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		pool.ExpectQuery(selectVotes).WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows([]string{"voter_id", "vote"}).
				AddRow(otherVoter, models.VoteApprove).
				AddRow(voterID, models.VoteApprove))
		expectCredit(pool, voterID, gamification.ReviewerReward, models.UserStats{ValidationsGiven: 1},
			5, models.UserStats{ValidationsGiven: 1})
		pool.ExpectQuery(`FROM locations WHERE id = \$1`).WithArgs(locationID).
			WillReturnRows(locationRow(stored))
		pool.ExpectExec(`UPDATE locations SET`).WithArgs(anyArgs(36)...).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		expectCredit(pool, proposerID, gamification.ProposerUpdateReward,
			models.UserStats{ContributionsApproved: 1},
			30, models.UserStats{ContributionsApproved: 1})
		pool.ExpectExec(resolveProposal).
			WithArgs(p.ID, models.ProposalApproved, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectCommit()

		result, err := repo.RecordVote(ctx, p.ID, voterID, models.VoteApprove)

		require.NoError(t, err)
		assert.True(t, result.Resolved)
		assert.True(t, result.Applied)
		assert.Equal(t, models.ProposalApproved, result.Proposal.Status)
		require.NotNil(t, result.Proposal.ResolvedAt)
		assert.Len(t, result.Proposal.Approvals, 2)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("approved delete removes the location and rewards the smaller amount", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		p := pendingProposal(models.ProposalDelete, nil)

		pool.ExpectBegin()
		pool.ExpectQuery(selectForUpdate).WithArgs(p.ID).WillReturnRows(proposalRow(p))
		pool.ExpectExec(insertVote).WithArgs(p.ID, voterID, models.VoteApprove).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		pool.ExpectQuery(selectVotes).WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows([]string{"voter_id", "vote"}).
				AddRow(otherVoter, models.VoteApprove).
				AddRow(voterID, models.VoteApprove))
		expectCredit(pool, voterID, gamification.ReviewerReward, models.UserStats{ValidationsGiven: 1},
			5, models.UserStats{ValidationsGiven: 1})
		pool.ExpectExec(`DELETE FROM locations`).WithArgs(locationID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		expectCredit(pool, proposerID, gamification.ProposerDeleteReward,
			models.UserStats{ContributionsApproved: 1},
			15, models.UserStats{ContributionsApproved: 1})
		pool.ExpectExec(resolveProposal).
			WithArgs(p.ID, models.ProposalApproved, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectCommit()

		result, err := repo.RecordVote(ctx, p.ID, voterID, models.VoteApprove)

		require.NoError(t, err)
		assert.True(t, result.Applied)
		assert.Equal(t, models.ProposalApproved, result.Proposal.Status)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("missing target goes stale without a proposer reward", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		p := pendingProposal(models.ProposalUpdate, &models.LocationChanges{QuickNote: strPtr("x")})

		pool.ExpectBegin()
		pool.ExpectQuery(selectForUpdate).WithArgs(p.ID).WillReturnRows(proposalRow(p))
		pool.ExpectExec(insertVote).WithArgs(p.ID, voterID, models.VoteApprove).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		pool.ExpectQuery(selectVotes).WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows([]string{"voter_id", "vote"}).
				AddRow(otherVoter, models.VoteApprove).
				AddRow(voterID, models.VoteApprove))
		expectCredit(pool, voterID, gamification.ReviewerReward, models.UserStats{ValidationsGiven: 1},
			5, models.UserStats{ValidationsGiven: 1})
		pool.ExpectQuery(`FROM locations WHERE id = \$1`).WithArgs(locationID).
			WillReturnError(pgx.ErrNoRows)
		pool.ExpectExec(resolveProposal).
			WithArgs(p.ID, models.ProposalApprovedStale, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectCommit()

		result, err := repo.RecordVote(ctx, p.ID, voterID, models.VoteApprove)

		require.NoError(t, err)
		assert.True(t, result.Resolved)
		assert.False(t, result.Applied)
		assert.Equal(t, models.ProposalApprovedStale, result.Proposal.Status)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("second rejection penalizes the proposer", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		p := pendingProposal(models.ProposalUpdate, &models.LocationChanges{QuickNote: strPtr("x")})

		pool.ExpectBegin()
		pool.ExpectQuery(selectForUpdate).WithArgs(p.ID).WillReturnRows(proposalRow(p))
		pool.ExpectExec(insertVote).WithArgs(p.ID, voterID, models.VoteReject).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		pool.ExpectQuery(selectVotes).WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows([]string{"voter_id", "vote"}).
				AddRow(otherVoter, models.VoteReject).
				AddRow(voterID, models.VoteReject))
		expectCredit(pool, voterID, gamification.ReviewerReward, models.UserStats{ValidationsGiven: 1},
			5, models.UserStats{ValidationsGiven: 1})
		expectCredit(pool, proposerID, -gamification.RejectionPenalty, models.UserStats{},
			0, models.UserStats{})
		pool.ExpectExec(resolveProposal).
			WithArgs(p.ID, models.ProposalRejected, pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectCommit()

		result, err := repo.RecordVote(ctx, p.ID, voterID, models.VoteReject)

		require.NoError(t, err)
		assert.True(t, result.Resolved)
		assert.False(t, result.Applied)
		assert.Equal(t, models.ProposalRejected, result.Proposal.Status)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("terminal proposal rejects further votes", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		p := pendingProposal(models.ProposalDelete, nil)
		p.Status = models.ProposalApproved

		pool.ExpectBegin()
		pool.ExpectQuery(selectForUpdate).WithArgs(p.ID).WillReturnRows(proposalRow(p))
		pool.ExpectRollback()

		_, err := repo.RecordVote(ctx, p.ID, voterID, models.VoteApprove)

		assert.ErrorIs(t, err, models.ErrAlreadyResolved)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("proposer cannot review their own proposal", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		p := pendingProposal(models.ProposalDelete, nil)

		pool.ExpectBegin()
		pool.ExpectQuery(selectForUpdate).WithArgs(p.ID).WillReturnRows(proposalRow(p))
		pool.ExpectRollback()

		_, err := repo.RecordVote(ctx, p.ID, proposerID, models.VoteApprove)

		assert.ErrorIs(t, err, models.ErrSelfReview)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("duplicate vote maps the unique violation", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		p := pendingProposal(models.ProposalDelete, nil)

		pool.ExpectBegin()
		pool.ExpectQuery(selectForUpdate).WithArgs(p.ID).WillReturnRows(proposalRow(p))
		pool.ExpectExec(insertVote).WithArgs(p.ID, voterID, models.VoteApprove).
			WillReturnError(&pgconn.PgError{Code: "23505"})
		pool.ExpectRollback()

		_, err := repo.RecordVote(ctx, p.ID, voterID, models.VoteApprove)

		assert.ErrorIs(t, err, models.ErrDuplicateVote)
		assert.NoError(t, pool.ExpectationsWereMet())
	})

	t.Run("settlement failure rolls back the vote and the transition", func(t *testing.T) {
		repo, pool := newMockRepo(t)
		p := pendingProposal(models.ProposalDelete, nil)

		pool.ExpectBegin()
		pool.ExpectQuery(selectForUpdate).WithArgs(p.ID).WillReturnRows(proposalRow(p))
		pool.ExpectExec(insertVote).WithArgs(p.ID, voterID, models.VoteApprove).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		pool.ExpectQuery(selectVotes).WithArgs(p.ID).
			WillReturnRows(pgxmock.NewRows([]string{"voter_id", "vote"}).
				AddRow(otherVoter, models.VoteApprove).
				AddRow(voterID, models.VoteApprove))
		expectCredit(pool, voterID, gamification.ReviewerReward, models.UserStats{ValidationsGiven: 1},
			5, models.UserStats{ValidationsGiven: 1})
		pool.ExpectExec(`DELETE FROM locations`).WithArgs(locationID).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))
		pool.ExpectQuery(`UPDATE users SET`).WithArgs(anyArgs(9)...).
			WillReturnError(errors.New("connection reset"))
		pool.ExpectRollback()

		// No status update and no commit: the deletion, the vote and the
		// reviewer reward all unwind, so a retry starts from a clean slate.
		_, err := repo.RecordVote(ctx, p.ID, voterID, models.VoteApprove)

		require.Error(t, err)
		assert.NoError(t, pool.ExpectationsWereMet())
	})
}
