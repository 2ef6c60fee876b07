package projects

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/domain"
	"bluetrust/registry-backend/internal/notifications"
	"bluetrust/registry-backend/pkg/geospatial"
	"bluetrust/registry-backend/pkg/workflows"
)

// Handler handles HTTP requests for project lifecycle operations
type Handler struct {
	service *Service
	catalog *geospatial.Catalog
	events  *notifications.Service
	logger  *zap.Logger
}

// NewHandler creates a new projects handler
func NewHandler(service *Service, catalog *geospatial.Catalog, events *notifications.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		catalog: catalog,
		events:  events,
		logger:  logger,
	}
}

// RegisterRoutes registers project routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	projects := router.Group("/projects")
	{
		projects.POST("", h.register)
		projects.GET("", h.list)
		projects.GET("/pending", h.pending)
		projects.GET("/:id", h.get)
		projects.GET("/:id/history", h.history)
		projects.POST("/:id/request-verification", h.requestVerification)
		projects.POST("/:id/decide", h.decide)
	}
	router.GET("/sites/suitability", h.siteSuitability)
}

// register handles POST /api/v1/projects
func (h *Handler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("Failed to register project", zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.events.Publish(notifications.EventProjectRegistered, project.Name, gin.H{
		"project_id": project.ID,
		"issuer_id":  project.IssuerID,
	})
	c.JSON(http.StatusCreated, project)
}

// list handles GET /api/v1/projects
func (h *Handler) list(c *gin.Context) {
	var filter Filter
	if issuer := c.Query("issuer_id"); issuer != "" {
		id, err := uuid.Parse(issuer)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issuer_id"})
			return
		}
		filter.IssuerID = &id
	}
	if status := c.Query("status"); status != "" {
		s := workflows.Status(status)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		filter.Status = &s
	}

	list, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list projects", zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list, "count": len(list)})
}

// pending handles GET /api/v1/projects/pending
func (h *Handler) pending(c *gin.Context) {
	list, err := h.service.PendingVerifications(c.Request.Context())
	if err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": list, "count": len(list)})
}

// get handles GET /api/v1/projects/:id
func (h *Handler) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	project, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, project)
}

// history handles GET /api/v1/projects/:id/history
func (h *Handler) history(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	history, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// requestVerification handles POST /api/v1/projects/:id/request-verification
func (h *Handler) requestVerification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	assessment, err := h.service.RequestVerification(c.Request.Context(), id)
	if err != nil {
		h.logger.Warn("Verification request failed",
			zap.String("project_id", id.String()), zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": id, "assessment": assessment})
}

// decide handles POST /api/v1/projects/:id/decide
func (h *Handler) decide(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req DecideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.service.Decide(c.Request.Context(), id, req)
	if err != nil {
		h.logger.Warn("Decision failed",
			zap.String("project_id", id.String()), zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	eventType := notifications.EventProjectVerified
	if project.Status == workflows.StatusRejected {
		eventType = notifications.EventProjectRejected
	}
	h.events.Publish(eventType, project.Name, gin.H{
		"project_id":     project.ID,
		"status":         project.Status,
		"credits_issued": project.CreditsIssued,
	})
	c.JSON(http.StatusOK, project)
}

// siteSuitability handles GET /api/v1/sites/suitability
func (h *Handler) siteSuitability(c *gin.Context) {
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
	if !geospatial.ValidCoordinates(lat, lng) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return
	}

	c.JSON(http.StatusOK, h.catalog.ValidateRestorationSite(lat, lng))
}
