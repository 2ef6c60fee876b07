package participants

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/domain"
	"bluetrust/registry-backend/internal/marketplace"
)

// Handler handles HTTP requests for the participant directory
type Handler struct {
	service *Service
	market  *marketplace.Service
	logger  *zap.Logger
}

// NewHandler creates a new participants handler
func NewHandler(service *Service, market *marketplace.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		market:  market,
		logger:  logger,
	}
}

// RegisterRoutes registers participant routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	participants := router.Group("/participants")
	{
		participants.POST("/ngos", h.registerNGO)
		participants.GET("/ngos", h.listNGOs)
		participants.GET("/ngos/:id", h.getNGO)
		participants.POST("/companies", h.registerCompany)
		participants.GET("/companies", h.listCompanies)
		participants.GET("/companies/:id", h.getCompany)
		participants.GET("/companies/:id/progress", h.companyProgress)
		participants.POST("/verifiers", h.registerVerifier)
		participants.GET("/verifiers", h.listVerifiers)
	}
}

// registerNGO handles POST /api/v1/participants/ngos
func (h *Handler) registerNGO(c *gin.Context) {
	var req RegisterNGORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ngo, err := h.service.RegisterNGO(req)
	if err != nil {
		h.logger.Error("Failed to register NGO", zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ngo)
}

// listNGOs handles GET /api/v1/participants/ngos
func (h *Handler) listNGOs(c *gin.Context) {
	ngos := h.service.NGOs()
	c.JSON(http.StatusOK, gin.H{"ngos": ngos, "count": len(ngos)})
}

// getNGO handles GET /api/v1/participants/ngos/:id
func (h *Handler) getNGO(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ngo id"})
		return
	}
	ngo, err := h.service.NGO(id)
	if err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, ngo)
}

// registerCompany handles POST /api/v1/participants/companies
func (h *Handler) registerCompany(c *gin.Context) {
	var req RegisterCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	company, err := h.service.RegisterCompany(req)
	if err != nil {
		h.logger.Error("Failed to register company", zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, company)
}

// listCompanies handles GET /api/v1/participants/companies
func (h *Handler) listCompanies(c *gin.Context) {
	companies := h.service.Companies()
	c.JSON(http.StatusOK, gin.H{"companies": companies, "count": len(companies)})
}

// getCompany handles GET /api/v1/participants/companies/:id
func (h *Handler) getCompany(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return
	}
	company, err := h.service.Company(id)
	if err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, company)
}

// companyProgress handles GET /api/v1/participants/companies/:id/progress
func (h *Handler) companyProgress(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid company id"})
		return
	}
	if _, err := h.service.Company(id); err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	progress, err := h.market.Progress(id)
	if err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

type registerVerifierRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email"`
	Department string `json:"department"`
}

// registerVerifier handles POST /api/v1/participants/verifiers
func (h *Handler) registerVerifier(c *gin.Context) {
	var req registerVerifierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	verifier, err := h.service.RegisterVerifier(req.Name, req.Email, req.Department)
	if err != nil {
		h.logger.Error("Failed to register verifier", zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, verifier)
}

// listVerifiers handles GET /api/v1/participants/verifiers
func (h *Handler) listVerifiers(c *gin.Context) {
	verifiers := h.service.Verifiers()
	c.JSON(http.StatusOK, gin.H{"verifiers": verifiers, "count": len(verifiers)})
}
