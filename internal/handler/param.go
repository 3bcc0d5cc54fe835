package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moneypenny/pennygate/internal/middleware"
	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/pkg/apperrors"
	"github.com/moneypenny/pennygate/internal/policy"
	"github.com/moneypenny/pennygate/internal/service"
)

type ParamHandler struct {
	params   *service.ParamService
	policies *policy.Store
}

func NewParamHandler(params *service.ParamService, policies *policy.Store) *ParamHandler {
	return &ParamHandler{params: params, policies: policies}
}

// SetParam is POST /v1/set_param: upsert one runtime override.
func (h *ParamHandler) SetParam(c *gin.Context) {
	tenant := c.MustGet(middleware.ContextTenantKey).(*model.Tenant)

	var req service.SetParamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schema_invalid", "details": err.Error()})
		return
	}

	override, err := h.params.SetParam(c.Request.Context(), tenant.ID, req)
	if err != nil {
		var paramErr *service.ParamError
		if errors.As(err, &paramErr) {
			status := http.StatusBadRequest
			body := gin.H{"error": paramErr.Code}
			switch paramErr.Code {
			case "tenant_id_mismatch":
				status = http.StatusForbidden
			case "invalid_key":
				body["allowed_keys"] = policy.AllowedParamKeys
			case "policy_violation":
				body["reason"] = paramErr.Reason
			}
			c.JSON(status, body)
			return
		}
		c.Error(apperrors.Wrap(err))
		return
	}

	middleware.AddAuditContext(c, "action", "set_param")
	middleware.AddAuditContext(c, "key", override.Key)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"tenant_id":  override.TenantID,
		"key":        override.Key,
		"value":      override.Value,
		"updated_at": override.UpdatedAt,
	})
}

// GetConfig is GET /v1/config: the caller tenant's effective view of
// the policy after runtime overrides.
func (h *ParamHandler) GetConfig(c *gin.Context) {
	tenant := c.MustGet(middleware.ContextTenantKey).(*model.Tenant)

	cfg, err := h.policies.Effective(c.Request.Context(), tenant.ID)
	if err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}

	c.JSON(http.StatusOK, gin.H{"tenant_id": tenant.ID, "effective": cfg})
}
