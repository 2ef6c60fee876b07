package ledger

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"bluetrust/registry-backend/internal/certificates"
	"bluetrust/registry-backend/internal/domain"
)

// Handler handles HTTP requests for ledger queries and audits
type Handler struct {
	ledger *Ledger
	certs  *certificates.Generator
	logger *zap.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(l *Ledger, certs *certificates.Generator, logger *zap.Logger) *Handler {
	return &Handler{
		ledger: l,
		certs:  certs,
		logger: logger,
	}
}

// RegisterRoutes registers ledger routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	ledgerGroup := router.Group("/ledger")
	{
		ledgerGroup.GET("/entries", h.entries)
		ledgerGroup.GET("/entries/:id/certificate", h.certificate)
		ledgerGroup.GET("/audit", h.audit)
		ledgerGroup.GET("/stats", h.stats)
		ledgerGroup.GET("/issuers", h.issuers)
		ledgerGroup.GET("/issuers/:id", h.issuer)
		ledgerGroup.GET("/holders", h.holders)
		ledgerGroup.GET("/holders/:id", h.holder)
	}
}

// entries handles GET /api/v1/ledger/entries
func (h *Handler) entries(c *gin.Context) {
	entries := h.ledger.Entries()
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// certificate handles GET /api/v1/ledger/entries/:id/certificate
//
// Only retirement entries have certificates.
func (h *Handler) certificate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry id"})
		return
	}

	var entry *Entry
	for _, e := range h.ledger.Entries() {
		if e.ID == id {
			entry = &e
			break
		}
	}
	if entry == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	if entry.Kind != EntryRetire || entry.Source == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entry is not a retirement"})
		return
	}

	holderName := entry.Source.String()
	if holder, err := h.ledger.Holder(*entry.Source); err == nil {
		holderName = holder.Name
	}

	pdf, err := h.certs.Generate(certificates.RetirementCertificate{
		CertificateID: entry.ID,
		HolderName:    holderName,
		Amount:        entry.Amount,
		Reason:        entry.Reason,
		RetiredAt:     entry.RecordedAt,
	})
	if err != nil {
		h.logger.Error("Failed to render certificate", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render certificate"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=retirement-%s.pdf", entry.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// audit handles GET /api/v1/ledger/audit
func (h *Handler) audit(c *gin.Context) {
	totals, err := h.ledger.AuditConservation()
	if err != nil {
		h.logger.Error("Conservation audit failed", zap.Error(err))
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error(), "totals": totals})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conserved": true, "totals": totals})
}

// stats handles GET /api/v1/ledger/stats
func (h *Handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Stats())
}

// issuers handles GET /api/v1/ledger/issuers
func (h *Handler) issuers(c *gin.Context) {
	issuers := h.ledger.Issuers()
	c.JSON(http.StatusOK, gin.H{"issuers": issuers, "count": len(issuers)})
}

// issuer handles GET /api/v1/ledger/issuers/:id
func (h *Handler) issuer(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid issuer id"})
		return
	}
	account, err := h.ledger.Issuer(id)
	if err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, account)
}

// holders handles GET /api/v1/ledger/holders
func (h *Handler) holders(c *gin.Context) {
	holders := h.ledger.Holders()
	c.JSON(http.StatusOK, gin.H{"holders": holders, "count": len(holders)})
}

// holder handles GET /api/v1/ledger/holders/:id
func (h *Handler) holder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid holder id"})
		return
	}
	account, err := h.ledger.Holder(id)
	if err != nil {
		c.JSON(domain.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, account)
}
