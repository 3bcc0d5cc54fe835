package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/moneypenny/pennygate/internal/middleware"
	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/pkg/apperrors"
	"github.com/moneypenny/pennygate/internal/repository"
)

type AuditHandler struct {
	store repository.Store
}

func NewAuditHandler(store repository.Store) *AuditHandler {
	return &AuditHandler{store: store}
}

// ListReceipts is GET /v1/receipts?intent_id=... — the decision ledger
// read side.
func (h *AuditHandler) ListReceipts(c *gin.Context) {
	intentID := c.Query("intent_id")
	if intentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "intent_id_required"})
		return
	}

	receipts, err := h.store.ListReceipts(c.Request.Context(), intentID)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	if receipts == nil {
		receipts = []*model.PolicyReceipt{}
	}

	c.JSON(http.StatusOK, gin.H{"intent_id": intentID, "receipts": receipts})
}

// ListGovernance is GET /v1/governance — the administrative trail,
// scoped to the caller's tenant.
func (h *AuditHandler) ListGovernance(c *gin.Context) {
	tenant := c.MustGet(middleware.ContextTenantKey).(*model.Tenant)

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	entries, err := h.store.ListGovernance(c.Request.Context(), tenant.ID, limit)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}
	if entries == nil {
		entries = []*model.GovernanceEntry{}
	}

	c.JSON(http.StatusOK, gin.H{"tenant_id": tenant.ID, "entries": entries})
}
