// Package handlers contains the gin HTTP handlers for the API surface.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/earnwise/earnwise-go/internal/models"
	"github.com/earnwise/earnwise-go/internal/services"
	"github.com/earnwise/earnwise-go/internal/utils"
)

// OptimizationHandler serves earnings recommendations and surge zone data.
type OptimizationHandler struct {
	service *services.OptimizationService
	logger  *logrus.Logger
}

func NewOptimizationHandler(service *services.OptimizationService, logger *logrus.Logger) *OptimizationHandler {
	return &OptimizationHandler{
		service: service,
		logger:  logger,
	}
}

// recommendationItem augments a recommendation with the platform name
// formatted for UI labels.
type recommendationItem struct {
	models.Recommendation
	PlatformDisplay string `json:"platformDisplay"`
}

type surgeZoneItem struct {
	models.SurgeZone
	PlatformDisplay string `json:"platformDisplay"`
}

type recommendationsResponse struct {
	Recommendations []recommendationItem `json:"recommendations"`
	Count           int                  `json:"count"`
	Timestamp       time.Time            `json:"timestamp"`
}

type surgeZonesResponse struct {
	SurgeZones []surgeZoneItem `json:"surgeZones"`
	Count      int             `json:"count"`
	Timestamp  time.Time       `json:"timestamp"`
}

func toRecommendationItems(recs []models.Recommendation) []recommendationItem {
	items := make([]recommendationItem, len(recs))
	for i, rec := range recs {
		items[i] = recommendationItem{
			Recommendation:  rec,
			PlatformDisplay: models.PlatformDisplayName(rec.Platform),
		}
	}
	return items
}

func toSurgeZoneItems(zones []models.SurgeZone) []surgeZoneItem {
	items := make([]surgeZoneItem, len(zones))
	for i, zone := range zones {
		items[i] = surgeZoneItem{
			SurgeZone:       zone,
			PlatformDisplay: models.PlatformDisplayName(zone.Platform),
		}
	}
	return items
}

// GetRecommendations handles GET /optimization/recommendations.
// Query params: type, platform, min_confidence, high_confidence, limit.
func (h *OptimizationHandler) GetRecommendations(c *gin.Context) {
	var query services.RecommendationQuery

	if raw := c.Query("type"); raw != "" {
		recType := models.RecommendationType(raw)
		if !recType.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recommendation type: " + raw})
			return
		}
		query.Type = recType
	}

	query.Platform = c.Query("platform")

	if raw := c.Query("min_confidence"); raw != "" {
		minConf, err := decimal.NewFromString(raw)
		if err != nil || minConf.IsNegative() || minConf.GreaterThan(decimal.NewFromInt(1)) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "min_confidence must be a number between 0 and 1"})
			return
		}
		query.MinConfidence = &minConf
	}

	if raw := c.Query("high_confidence"); raw != "" {
		highConf, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "high_confidence must be a boolean"})
			return
		}
		query.HighConfidence = highConf
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		query.Limit = limit
	}

	recs, err := h.service.GetRecommendations(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err, "Failed to get recommendations")
		return
	}

	c.JSON(http.StatusOK, recommendationsResponse{
		Recommendations: toRecommendationItems(recs),
		Count:           len(recs),
		Timestamp:       time.Now().UTC(),
	})
}

// GetSurgeZones handles GET /optimization/surge-zones.
// Query params: platform.
func (h *OptimizationHandler) GetSurgeZones(c *gin.Context) {
	zones, err := h.service.GetSurgeZones(c.Request.Context(), c.Query("platform"))
	if err != nil {
		h.respondError(c, err, "Failed to get surge zones")
		return
	}

	c.JSON(http.StatusOK, surgeZonesResponse{
		SurgeZones: toSurgeZoneItems(zones),
		Count:      len(zones),
		Timestamp:  time.Now().UTC(),
	})
}

// GetSurgeData handles GET /optimization/current and returns the full
// validated dataset.
func (h *OptimizationHandler) GetSurgeData(c *gin.Context) {
	dataset, err := h.service.GetSurgeData(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to get optimization data")
		return
	}

	c.JSON(http.StatusOK, dataset)
}

// respondError maps pipeline errors onto HTTP statuses. Integrity failures
// are the upstream's fault (502), transport failures are transient (503),
// a superseded fetch is a client-visible conflict (409).
func (h *OptimizationHandler) respondError(c *gin.Context, err error, logMsg string) {
	h.logger.WithError(err).Error(logMsg)

	var integrityErr *utils.DataIntegrityError
	var fetchErr *utils.FetchError

	switch {
	case errors.As(err, &integrityErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Upstream returned invalid data", "detail": integrityErr.Error()})
	case errors.As(err, &fetchErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Optimization data temporarily unavailable"})
	case errors.Is(err, services.ErrStaleRequest):
		c.JSON(http.StatusConflict, gin.H{"error": "Request superseded by a newer one"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
