package notifications

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Upgrader upgrades an HTTP request into an event subscription.
type Upgrader interface {
	HandleConnection(w http.ResponseWriter, r *http.Request) error
}

// Handler exposes the live event stream
type Handler struct {
	upgrader Upgrader
	logger   *zap.Logger
}

// NewHandler creates a new notifications handler
func NewHandler(upgrader Upgrader, logger *zap.Logger) *Handler {
	return &Handler{
		upgrader: upgrader,
		logger:   logger,
	}
}

// RegisterRoutes registers the websocket route
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", h.subscribe)
}

// subscribe handles GET /api/v1/ws
func (h *Handler) subscribe(c *gin.Context) {
	if err := h.upgrader.HandleConnection(c.Writer, c.Request); err != nil {
		h.logger.Warn("Websocket upgrade failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "websocket upgrade failed"})
	}
}
