package oracle

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/domain"
	"bluetrust/registry-backend/pkg/geospatial"
)

// Handler exposes the evidence oracle for previews and dashboards. Project
// verification goes through the projects service, not these routes.
type Handler struct {
	simulator *Simulator
	logger    *zap.Logger
}

// NewHandler creates a new oracle handler
func NewHandler(simulator *Simulator, logger *zap.Logger) *Handler {
	return &Handler{
		simulator: simulator,
		logger:    logger,
	}
}

// RegisterRoutes registers oracle routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	oracleGroup := router.Group("/oracle")
	{
		oracleGroup.GET("/assess", h.assess)
		oracleGroup.GET("/timeseries", h.timeSeries)
	}
}

// assess handles GET /api/v1/oracle/assess
func (h *Handler) assess(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lng"})
		return
	}
	area, err := strconv.ParseFloat(c.DefaultQuery("area", "1"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid area"})
		return
	}
	if !geospatial.ValidCoordinates(lat, lng) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	assessment, err := h.simulator.Assess(c.Request.Context(), lat, lng, area)
	if err != nil {
		h.logger.Warn("Assessment preview failed", zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, assessment)
}

// timeSeries handles GET /api/v1/oracle/timeseries
func (h *Handler) timeSeries(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", "12"))
	if err != nil || months < 1 || months > 120 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "months must be between 1 and 120"})
		return
	}

	series := h.simulator.TimeSeries(months)
	c.JSON(http.StatusOK, gin.H{"series": series, "months": months})
}
