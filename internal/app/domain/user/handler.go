package user

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ormeapp/orme/internal/app/gamification"
	"github.com/ormeapp/orme/internal/app/middleware"
	"github.com/ormeapp/orme/internal/app/models"
)

const defaultLeaderboardSize = 20

type Handler struct {
	service UserService
	logger  *zap.Logger
}

func NewHandler(service UserService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Me returns the profile of the acting user.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.ActingUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	h.renderProfile(c, userID)
}

// GetByID returns any user's public profile.
func (h *Handler) GetByID(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	h.renderProfile(c, userID)
}

func (h *Handler) renderProfile(c *gin.Context, userID uuid.UUID) {
	profile, err := h.service.GetUserProfile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error("Failed to fetch profile", zap.String("userID", userID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch profile"})
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Leaderboard returns the points ranking.
func (h *Handler) Leaderboard(c *gin.Context) {
	limit := defaultLeaderboardSize
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := h.service.GetLeaderboard(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to fetch leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}

// Levels exposes the level ladder.
func (h *Handler) Levels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": gamification.Levels})
}

// Badges exposes the badge catalog.
func (h *Handler) Badges(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"badges": gamification.BadgeList()})
}
