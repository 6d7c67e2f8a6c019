package proposals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/middleware"
	"github.com/ormeapp/orme/internal/app/models"
	"github.com/ormeapp/orme/internal/app/observability/metrics"
)

type Handler struct {
	service ProposalService
	logger  *zap.Logger
}

func NewHandler(service ProposalService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

type createProposalRequest struct {
	Type       models.ProposalType `json:"type" binding:"required"`
	LocationID uuid.UUID           `json:"location_id" binding:"required"`
	Changes    json.RawMessage     `json:"changes,omitempty"`
}

// Create opens a new change request.
func (h *Handler) Create(c *gin.Context) {
	proposerID, ok := middleware.ActingUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var req createProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal payload"})
		return
	}

	var (
		p   *models.Proposal
		err error
	)
	switch req.Type {
	case models.ProposalUpdate:
		p, err = h.service.CreateUpdateProposal(c.Request.Context(), proposerID, req.LocationID, req.Changes)
	case models.ProposalDelete:
		p, err = h.service.CreateDeleteProposal(c.Request.Context(), proposerID, req.LocationID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown proposal type"})
		return
	}

	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
		case errors.Is(err, models.ErrEmptyChanges), errors.Is(err, models.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to create proposal", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create proposal"})
		}
		return
	}

	c.JSON(http.StatusCreated, p)
}

type voteRequest struct {
	Vote models.VoteKind `json:"vote" binding:"required"`
}

// Vote records a review vote on a pending proposal.
func (h *Handler) Vote(c *gin.Context) {
	voterID, ok := middleware.ActingUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	proposalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vote payload"})
		return
	}
	if req.Vote != models.VoteApprove && req.Vote != models.VoteReject {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vote must be approve or reject"})
		return
	}

	result, err := h.service.Vote(c.Request.Context(), voterID, proposalID, req.Vote)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
		case errors.Is(err, models.ErrSelfReview):
			c.JSON(http.StatusForbidden, gin.H{"error": "you cannot review your own proposal"})
		case errors.Is(err, models.ErrDuplicateVote):
			c.JSON(http.StatusConflict, gin.H{"error": "you already voted on this proposal"})
		case errors.Is(err, models.ErrAlreadyResolved):
			c.JSON(http.StatusConflict, gin.H{"error": "proposal already resolved"})
		default:
			h.logger.Error("Failed to record vote", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record vote"})
		}
		return
	}

	m := metrics.Get()
	m.VotesRecordedTotal.Add(c.Request.Context(), 1,
		metric.WithAttributes(attribute.String("vote", string(req.Vote))))
	if result.Resolved {
		m.ProposalsResolvedTotal.Add(c.Request.Context(), 1,
			metric.WithAttributes(attribute.String("status", string(result.Proposal.Status))))
	}

	c.JSON(http.StatusOK, result)
}

// Get returns a single proposal with its votes.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid proposal id"})
		return
	}

	p, err := h.service.GetProposal(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
			return
		}
		h.logger.Error("Failed to fetch proposal", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch proposal"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// List returns proposals, optionally filtered by status.
func (h *Handler) List(c *gin.Context) {
	status := models.ProposalStatus(c.Query("status"))
	switch status {
	case "", models.ProposalPending, models.ProposalApproved, models.ProposalRejected, models.ProposalApprovedStale:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status filter"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	offset := 0
	if raw := c.Query("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	list, err := h.service.ListProposals(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list proposals", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list proposals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": list, "count": len(list)})
}
