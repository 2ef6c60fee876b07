package export

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/ledger"
	"bluetrust/registry-backend/internal/marketplace"
)

// Handler handles HTTP requests for ledger exports
type Handler struct {
	ledger *ledger.Ledger
	market *marketplace.Service
	logger *zap.Logger
}

// NewHandler creates a new export handler
func NewHandler(l *ledger.Ledger, market *marketplace.Service, logger *zap.Logger) *Handler {
	return &Handler{
		ledger: l,
		market: market,
		logger: logger,
	}
}

// RegisterRoutes registers export routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	exports := router.Group("/export")
	{
		exports.GET("/ledger.csv", h.ledgerCSV)
		exports.GET("/ledger.xlsx", h.ledgerWorkbook)
	}
}

// ledgerCSV handles GET /api/v1/export/ledger.csv
func (h *Handler) ledgerCSV(c *gin.Context) {
	options := DefaultCSVOptions()
	if c.Query("delimiter") == "semicolon" {
		options.Delimiter = ';'
	}

	var buf bytes.Buffer
	if err := WriteEntriesCSV(&buf, h.ledger.Entries(), options); err != nil {
		h.logger.Error("Failed to export CSV", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ledger-%s.csv", time.Now().Format("20060102")))
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}

// ledgerWorkbook handles GET /api/v1/export/ledger.xlsx
func (h *Handler) ledgerWorkbook(c *gin.Context) {
	var buf bytes.Buffer
	if err := WriteLedgerWorkbook(&buf, h.ledger.Entries(), h.market.Listings()); err != nil {
		h.logger.Error("Failed to export workbook", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=ledger-%s.xlsx", time.Now().Format("20060102")))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
