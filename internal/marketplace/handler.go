package marketplace

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/domain"
	"bluetrust/registry-backend/internal/notifications"
)

// Handler handles HTTP requests for marketplace operations
type Handler struct {
	service *Service
	events  *notifications.Service
	logger  *zap.Logger
}

// NewHandler creates a new marketplace handler
func NewHandler(service *Service, events *notifications.Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		events:  events,
		logger:  logger,
	}
}

// RegisterRoutes registers marketplace routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	market := router.Group("/marketplace")
	{
		market.GET("/listings", h.listings)
		market.POST("/purchase", h.purchase)
		market.PUT("/price", h.setPrice)
		market.POST("/retire", h.retire)
		market.GET("/progress/:holderId", h.progress)
	}
}

// listings handles GET /api/v1/marketplace/listings
func (h *Handler) listings(c *gin.Context) {
	list := h.service.Listings()
	c.JSON(http.StatusOK, gin.H{"listings": list, "count": len(list)})
}

type purchaseRequest struct {
	HolderID uuid.UUID `json:"holder_id" binding:"required"`
	IssuerID uuid.UUID `json:"issuer_id" binding:"required"`
	Quantity int64     `json:"quantity" binding:"required"`
}

// purchase handles POST /api/v1/marketplace/purchase
func (h *Handler) purchase(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	receipt, err := h.service.Purchase(c.Request.Context(), req.HolderID, req.IssuerID, req.Quantity)
	if err != nil {
		h.logger.Warn("Purchase failed",
			zap.String("holder_id", req.HolderID.String()),
			zap.String("issuer_id", req.IssuerID.String()),
			zap.Int64("quantity", req.Quantity),
			zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.events.Publish(notifications.EventCreditsPurchased, "credits purchased", gin.H{
		"holder_id":  req.HolderID,
		"issuer_id":  req.IssuerID,
		"quantity":   req.Quantity,
		"total_cost": receipt.TotalCost,
	})
	c.JSON(http.StatusOK, receipt)
}

type setPriceRequest struct {
	IssuerID uuid.UUID `json:"issuer_id" binding:"required"`
	Price    int64     `json:"price" binding:"required"`
}

// setPrice handles PUT /api/v1/marketplace/price
func (h *Handler) setPrice(c *gin.Context) {
	var req setPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.SetUnitPrice(req.IssuerID, req.Price); err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.events.Publish(notifications.EventPriceUpdated, "unit price updated", gin.H{
		"issuer_id": req.IssuerID,
		"price":     req.Price,
	})
	c.JSON(http.StatusOK, gin.H{"issuer_id": req.IssuerID, "price": req.Price})
}

type retireRequest struct {
	HolderID uuid.UUID `json:"holder_id" binding:"required"`
	Amount   int64     `json:"amount" binding:"required"`
	Reason   string    `json:"reason"`
}

// retire handles POST /api/v1/marketplace/retire
func (h *Handler) retire(c *gin.Context) {
	var req retireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.service.Retire(c.Request.Context(), req.HolderID, req.Amount, req.Reason)
	if err != nil {
		h.logger.Warn("Retirement failed",
			zap.String("holder_id", req.HolderID.String()),
			zap.Int64("amount", req.Amount),
			zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	h.events.Publish(notifications.EventCreditsRetired, "credits retired", gin.H{
		"holder_id": req.HolderID,
		"amount":    req.Amount,
		"entry_id":  entry.ID,
	})
	c.JSON(http.StatusOK, entry)
}

// progress handles GET /api/v1/marketplace/progress/:holderId
func (h *Handler) progress(c *gin.Context) {
	holderID, err := uuid.Parse(c.Param("holderId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holder id"})
		return
	}

	progress, err := h.service.Progress(holderID)
	if err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}
