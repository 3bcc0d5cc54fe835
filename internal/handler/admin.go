package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/moneypenny/pennygate/internal/service"
)

type AdminHandler struct {
	audit *service.AuditService
}

func NewAdminHandler(audit *service.AuditService) *AdminHandler {
	return &AdminHandler{audit: audit}
}

// AuditTrail is GET /admin/audit: the recent request log from the ring
// buffer, optionally filtered by tenant.
func (h *AdminHandler) AuditTrail(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	entries := h.audit.List(c.Query("tenant_id"), limit)
	c.JSON(http.StatusOK, gin.H{"count": len(entries), "entries": entries})
}
