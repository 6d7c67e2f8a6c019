package locations

import (
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
	service LocationService
	logger  *zap.Logger
}

func NewHandler(service LocationService, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Create adds a location to the directory. Direct creation is the only
// mutation that skips the proposal workflow.
func (h *Handler) Create(c *gin.Context) {
	userID, ok := middleware.ActingUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var loc models.Location
	if err := c.ShouldBindJSON(&loc); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location payload"})
		return
	}

	result, err := h.service.CreateLocation(c.Request.Context(), userID, &loc)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to create location", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create location"})
		return
	}

	m := metrics.Get()
	m.LocationsCreatedTotal.Add(c.Request.Context(), 1)
	m.PointsAwardedTotal.Add(c.Request.Context(), int64(result.Earned),
		metric.WithAttributes(attribute.String("reason", "location_created")))

	c.JSON(http.StatusCreated, gin.H{
		"location":      result.Location,
		"points_earned": result.Earned,
		"points":        result.Award.Points,
		"leveled_up":    result.Award.LeveledUp,
	})
}

// Get returns a single location.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location id"})
		return
	}

	loc, err := h.service.GetLocation(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
			return
		}
		h.logger.Error("Failed to fetch location", zap.String("locationID", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}
	c.JSON(http.StatusOK, loc)
}

// List returns directory entries matching the query filters.
func (h *Handler) List(c *gin.Context) {
	filter := models.LocationFilter{
		Region:    c.Query("region"),
		Province:  c.Query("province"),
		NameQuery: c.Query("q"),
	}
	if raw := c.Query("has_tents"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.HasTents = &v
		}
	}
	if raw := c.Query("has_rover_service"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			filter.HasRoverService = &v
		}
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			filter.Limit = n
		}
	}
	if raw := c.Query("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	locs, err := h.service.ListLocations(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list locations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list locations"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locations": locs, "count": len(locs)})
}
