package proposals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/domain/locations"
	"github.com/ormeapp/orme/internal/app/gamification"
	"github.com/ormeapp/orme/internal/app/models"
)

var _ Repository = (*RepositoryImpl)(nil)

// Repository is the persistence contract for the review workflow.
type Repository interface {
	CreateProposal(ctx context.Context, p *models.Proposal) error
	GetProposal(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	// ListProposals returns proposals filtered by status; an empty status
	// means all of them. Newest first.
	ListProposals(ctx context.Context, status models.ProposalStatus, limit, offset int) ([]models.Proposal, error)
	// RecordVote stores one vote and, when it carries the proposal over a
	// threshold, resolves it in the same transaction: the status flip, the
	// location mutation and every point settlement commit together or roll
	// back together. Resolved is true for exactly one vote per proposal:
	// the row is locked, so concurrent voters serialize and the losers see
	// either a pending proposal (vote recorded, no transition) or
	// ErrAlreadyResolved.
	RecordVote(ctx context.Context, proposalID, voterID uuid.UUID, vote models.VoteKind) (*models.VoteResult, error)
}

// pgPool is the pool subset the repository needs. *pgxpool.Pool satisfies it.
type pgPool interface {
	rowQuerier
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type RepositoryImpl struct {
	pgpool pgPool
	logger *zap.Logger
}

func NewRepository(pgpool pgPool, logger *zap.Logger) *RepositoryImpl {
	return &RepositoryImpl{pgpool: pgpool, logger: logger}
}

const proposalColumns = `id, type, location_id, location_name, proposer_id, changes, status, created_at, resolved_at`

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanProposal(row pgx.Row) (*models.Proposal, error) {
	var p models.Proposal
	err := row.Scan(&p.ID, &p.Type, &p.LocationID, &p.LocationName, &p.ProposerID,
		&p.Changes, &p.Status, &p.CreatedAt, &p.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan proposal: %w", err)
	}
	p.Approvals = []uuid.UUID{}
	p.Rejections = []uuid.UUID{}
	return &p, nil
}

func loadVotes(ctx context.Context, q rowQuerier, p *models.Proposal) error {
	rows, err := q.Query(ctx,
		`SELECT voter_id, vote FROM proposal_votes WHERE proposal_id = $1 ORDER BY created_at`,
		p.ID)
	if err != nil {
		return fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var voterID uuid.UUID
		var vote models.VoteKind
		if err := rows.Scan(&voterID, &vote); err != nil {
			return fmt.Errorf("failed to scan vote: %w", err)
		}
		if vote == models.VoteApprove {
			p.Approvals = append(p.Approvals, voterID)
		} else {
			p.Rejections = append(p.Rejections, voterID)
		}
	}
	return rows.Err()
}

func (r *RepositoryImpl) CreateProposal(ctx context.Context, p *models.Proposal) error {
	query := `
		INSERT INTO proposals (` + proposalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.pgpool.Exec(ctx, query,
		p.ID, p.Type, p.LocationID, p.LocationName, p.ProposerID,
		p.Changes, p.Status, p.CreatedAt, p.ResolvedAt)
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) GetProposal(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1`
	p, err := scanProposal(r.pgpool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := loadVotes(ctx, r.pgpool, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *RepositoryImpl) ListProposals(ctx context.Context, status models.ProposalStatus, limit, offset int) ([]models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposals`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pgpool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	var list []models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range list {
		if err := loadVotes(ctx, r.pgpool, &list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (r *RepositoryImpl) RecordVote(ctx context.Context, proposalID, voterID uuid.UUID, vote models.VoteKind) (*models.VoteResult, error) {
	tx, err := r.pgpool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin vote transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the proposal row so concurrent votes on it serialize.
	query := `SELECT ` + proposalColumns + ` FROM proposals WHERE id = $1 FOR UPDATE`
	p, err := scanProposal(tx.QueryRow(ctx, query, proposalID))
	if err != nil {
		return nil, err
	}

	if p.Status.Terminal() {
		return nil, models.ErrAlreadyResolved
	}
	if p.ProposerID == voterID {
		return nil, models.ErrSelfReview
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO proposal_votes (proposal_id, voter_id, vote) VALUES ($1, $2, $3)`,
		proposalID, voterID, vote)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, models.ErrDuplicateVote
		}
		return nil, fmt.Errorf("failed to insert vote: %w", err)
	}

	if err := loadVotes(ctx, tx, p); err != nil {
		return nil, err
	}

	// Every recorded vote rewards the reviewer. A rollback takes the vote
	// and the reward away together.
	if err := creditUser(ctx, tx, voterID, gamification.ReviewerReward, models.UserStats{ValidationsGiven: 1}); err != nil {
		return nil, fmt.Errorf("failed to credit reviewer: %w", err)
	}

	result := &models.VoteResult{Proposal: p}
	switch {
	case vote == models.VoteApprove && len(p.Approvals) >= gamification.ApprovalThreshold:
		result.Resolved = true
		applied, err := applyApproved(ctx, tx, p)
		if err != nil {
			return nil, err
		}
		result.Applied = applied
		if applied {
			p.Status = models.ProposalApproved
			if err := creditUser(ctx, tx, p.ProposerID, proposerReward(p.Type), proposerDelta(p.Changes)); err != nil {
				return nil, fmt.Errorf("failed to credit proposer: %w", err)
			}
		} else {
			// The target vanished before the change could be applied.
			// The consensus stays on record but the proposer reward is
			// withheld.
			p.Status = models.ProposalApprovedStale
		}
	case vote == models.VoteReject && len(p.Rejections) >= gamification.RejectionThreshold:
		result.Resolved = true
		p.Status = models.ProposalRejected
		if err := creditUser(ctx, tx, p.ProposerID, -gamification.RejectionPenalty, models.UserStats{}); err != nil {
			return nil, fmt.Errorf("failed to apply rejection penalty: %w", err)
		}
	}

	if result.Resolved {
		now := time.Now().UTC()
		p.ResolvedAt = &now
		_, err = tx.Exec(ctx,
			`UPDATE proposals SET status = $2, resolved_at = $3 WHERE id = $1 AND status = 'pending'`,
			proposalID, p.Status, now)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve proposal: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit vote: %w", err)
	}
	return result, nil
}

// applyApproved performs the approved mutation inside the vote transaction.
// A missing target is not an error; applied=false tells the caller to
// downgrade the proposal instead.
func applyApproved(ctx context.Context, tx pgx.Tx, p *models.Proposal) (bool, error) {
	switch p.Type {
	case models.ProposalDelete:
		err := locations.DeleteLocationIn(ctx, tx, p.LocationID)
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to delete location: %w", err)
		}
		return true, nil

	case models.ProposalUpdate:
		loc, err := locations.GetLocationIn(ctx, tx, p.LocationID)
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to fetch location for merge: %w", err)
		}
		p.Changes.ApplyTo(loc, p.ProposerID, time.Now().UTC())
		err = locations.UpdateLocationIn(ctx, tx, loc)
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("failed to store merged location: %w", err)
		}
		return true, nil
	}
	return false, fmt.Errorf("unknown proposal type %q", p.Type)
}

func proposerReward(t models.ProposalType) int {
	if t == models.ProposalDelete {
		return gamification.ProposerDeleteReward
	}
	return gamification.ProposerUpdateReward
}

// proposerDelta maps an applied change-set to the counters it advances.
func proposerDelta(c *models.LocationChanges) models.UserStats {
	delta := models.UserStats{ContributionsApproved: 1}
	if c == nil {
		return delta
	}
	if c.Coordinates != nil {
		delta.CoordinateInfoAdded = 1
	}
	if c.Pricing != nil {
		delta.PricingInfoAdded = 1
	}
	if c.Website != nil && *c.Website != "" {
		delta.WebsiteInfoAdded = 1
	}
	return delta
}

// creditUser applies a point delta (clamped at zero) and counter bumps, then
// refreshes the stored level and badge cache from the new values.
func creditUser(ctx context.Context, tx pgx.Tx, userID uuid.UUID, points int, delta models.UserStats) error {
	query := `
		UPDATE users SET
			points                 = GREATEST(0, points + $2),
			locations_added        = locations_added + $3,
			contributions_approved = contributions_approved + $4,
			validations_given      = validations_given + $5,
			rs_locations_added     = rs_locations_added + $6,
			pricing_info_added     = pricing_info_added + $7,
			coordinate_info_added  = coordinate_info_added + $8,
			website_info_added     = website_info_added + $9
		WHERE id = $1
		RETURNING points, locations_added, contributions_approved, validations_given,
			rs_locations_added, pricing_info_added, coordinate_info_added, website_info_added
	`
	var newPoints int
	var stats models.UserStats
	err := tx.QueryRow(ctx, query, userID,
		points, delta.LocationsAdded, delta.ContributionsApproved, delta.ValidationsGiven,
		delta.RSLocationsAdded, delta.PricingInfoAdded, delta.CoordinateInfoAdded,
		delta.WebsiteInfoAdded,
	).Scan(
		&newPoints, &stats.LocationsAdded, &stats.ContributionsApproved, &stats.ValidationsGiven,
		&stats.RSLocationsAdded, &stats.PricingInfoAdded, &stats.CoordinateInfoAdded,
		&stats.WebsiteInfoAdded,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to update user balance: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE users SET level = $2, badges = $3 WHERE id = $1`,
		userID, gamification.LevelForPoints(newPoints).Ordinal, gamification.EarnedBadges(stats))
	if err != nil {
		return fmt.Errorf("failed to refresh level and badges: %w", err)
	}
	return nil
}
