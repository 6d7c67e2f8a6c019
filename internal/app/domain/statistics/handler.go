package statistics

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Community returns directory-wide counters.
func (h *Handler) Community(c *gin.Context) {
	stats, err := h.service.GetCommunityStatistics(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to fetch community statistics", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
