package proposals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/domain/locations"
	"github.com/ormeapp/orme/internal/app/models"
)

var _ ProposalService = (*ServiceProposalImpl)(nil)

// ProposalService defines the business logic contract for the review
// workflow: creating change requests and driving them to consensus.
type ProposalService interface {
	// CreateUpdateProposal opens a change request carrying a typed
	// change-set. Unknown fields and empty change-sets are rejected.
	CreateUpdateProposal(ctx context.Context, proposerID, locationID uuid.UUID, rawChanges json.RawMessage) (*models.Proposal, error)
	// CreateDeleteProposal opens a request to remove a location.
	CreateDeleteProposal(ctx context.Context, proposerID, locationID uuid.UUID) (*models.Proposal, error)
	// Vote records one review vote. The voter is always rewarded; the vote
	// that reaches a threshold also resolves the proposal, applies or
	// discards the change, and settles the proposer's reward or penalty.
	Vote(ctx context.Context, voterID, proposalID uuid.UUID, vote models.VoteKind) (*models.VoteResult, error)
	GetProposal(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	ListProposals(ctx context.Context, status models.ProposalStatus, limit, offset int) ([]models.Proposal, error)
}

// ServiceProposalImpl provides the implementation for ProposalService.
type ServiceProposalImpl struct {
	logger    *zap.Logger
	repo      Repository
	locations locations.Repository
}

func NewProposalService(repo Repository, locRepo locations.Repository, logger *zap.Logger) *ServiceProposalImpl {
	return &ServiceProposalImpl{
		logger:    logger,
		repo:      repo,
		locations: locRepo,
	}
}

func (s *ServiceProposalImpl) CreateUpdateProposal(ctx context.Context, proposerID, locationID uuid.UUID, rawChanges json.RawMessage) (*models.Proposal, error) {
	l := s.logger.With(zap.String("method", "CreateUpdateProposal"),
		zap.String("proposerID", proposerID.String()),
		zap.String("locationID", locationID.String()))

	changes, err := models.DecodeLocationChanges(rawChanges)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown or malformed change fields", models.ErrValidation)
	}
	if changes.IsEmpty() {
		return nil, models.ErrEmptyChanges
	}

	return s.create(ctx, l, models.ProposalUpdate, proposerID, locationID, changes)
}

func (s *ServiceProposalImpl) CreateDeleteProposal(ctx context.Context, proposerID, locationID uuid.UUID) (*models.Proposal, error) {
	l := s.logger.With(zap.String("method", "CreateDeleteProposal"),
		zap.String("proposerID", proposerID.String()),
		zap.String("locationID", locationID.String()))

	return s.create(ctx, l, models.ProposalDelete, proposerID, locationID, nil)
}

func (s *ServiceProposalImpl) create(ctx context.Context, l *zap.Logger, pType models.ProposalType, proposerID, locationID uuid.UUID, changes *models.LocationChanges) (*models.Proposal, error) {
	loc, err := s.locations.GetLocation(ctx, locationID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		l.Error("Failed to fetch target location", zap.Error(err))
		return nil, fmt.Errorf("error creating proposal: %w", err)
	}

	p := &models.Proposal{
		ID:           uuid.New(),
		Type:         pType,
		LocationID:   locationID,
		LocationName: loc.Name,
		ProposerID:   proposerID,
		Changes:      changes,
		Approvals:    []uuid.UUID{},
		Rejections:   []uuid.UUID{},
		Status:       models.ProposalPending,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.repo.CreateProposal(ctx, p); err != nil {
		l.Error("Failed to store proposal", zap.Error(err))
		return nil, fmt.Errorf("error creating proposal: %w", err)
	}

	l.Info("Proposal created", zap.String("proposalID", p.ID.String()), zap.String("type", string(pType)))
	return p, nil
}

// Vote is the consensus step. The repository settles it atomically: the
// vote, any status transition, the location mutation and every reward or
// penalty commit together or not at all, so a failed call leaves no partial
// state behind and a retry starts clean.
func (s *ServiceProposalImpl) Vote(ctx context.Context, voterID, proposalID uuid.UUID, vote models.VoteKind) (*models.VoteResult, error) {
	l := s.logger.With(zap.String("method", "Vote"),
		zap.String("voterID", voterID.String()),
		zap.String("proposalID", proposalID.String()),
		zap.String("vote", string(vote)))

	result, err := s.repo.RecordVote(ctx, proposalID, voterID, vote)
	if err != nil {
		return nil, err
	}

	if result.Resolved {
		l.Info("Proposal resolved",
			zap.String("status", string(result.Proposal.Status)),
			zap.Bool("applied", result.Applied))
	}
	return result, nil
}

func (s *ServiceProposalImpl) GetProposal(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	p, err := s.repo.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ServiceProposalImpl) ListProposals(ctx context.Context, status models.ProposalStatus, limit, offset int) ([]models.Proposal, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	list, err := s.repo.ListProposals(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("error listing proposals: %w", err)
	}
	return list, nil
}
