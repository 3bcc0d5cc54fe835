package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moneypenny/pennygate/internal/middleware"
	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/pkg/apperrors"
	"github.com/moneypenny/pennygate/internal/service"
)

type IntentHandler struct {
	evaluator *service.Evaluator
}

func NewIntentHandler(evaluator *service.Evaluator) *IntentHandler {
	return &IntentHandler{evaluator: evaluator}
}

// ProposeIntent is POST /v1/propose_intent: structural validation at
// bind time, then the policy pipeline.
func (h *IntentHandler) ProposeIntent(c *gin.Context) {
	tenantVal, exists := c.Get(middleware.ContextTenantKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_tenant_context"})
		return
	}
	tenant := tenantVal.(*model.Tenant)

	var intent model.Intent
	if err := c.ShouldBindJSON(&intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schema_invalid", "details": err.Error()})
		return
	}

	result, err := h.evaluator.Evaluate(c.Request.Context(), &intent, tenant.ID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			switch appErr.Type {
			case apperrors.ErrCrossTenant:
				middleware.AddAuditContext(c, "reject", "cross_tenant")
				c.JSON(http.StatusForbidden, gin.H{"error": "cross_tenant_intent_forbidden"})
				return
			case apperrors.ErrDuplicateIntent:
				c.JSON(http.StatusConflict, gin.H{"error": "duplicate_intent", "intent_id": intent.IntentID})
				return
			}
		}
		middleware.AddAuditContext(c, "error", err.Error())
		c.Error(apperrors.Wrap(err))
		return
	}

	if !result.Accepted {
		middleware.AddAuditContext(c, "reject", result.Rejection.Code)
		c.JSON(http.StatusBadRequest, rejectionBody(result.Rejection))
		return
	}

	middleware.AddAuditContext(c, "intent_id", intent.IntentID)
	middleware.AddAuditContext(c, "decision", model.DecisionPolicyOK)

	var forwardStatus interface{}
	if result.ForwardStatus != 0 {
		forwardStatus = result.ForwardStatus
	}
	c.JSON(http.StatusAccepted, gin.H{
		"accepted":               true,
		"requires_human_confirm": result.RequiresHumanConfirm,
		"policy_floor_bps":       result.PolicyFloorBps,
		"forwarded":              result.Forwarded,
		"forward_status":         forwardStatus,
	})
}

func rejectionBody(rej *service.Rejection) gin.H {
	body := gin.H{"error": rej.Code}
	switch rej.Code {
	case service.RejectEdgeTooLow:
		body["floor_bps"] = rej.FloorBps
		body["fees_bps"] = rej.FeesBps
		body["gas_bps"] = rej.GasBps
	case service.RejectSlippageTooHigh:
		body["max"] = rej.MaxSlippageBps
	case service.RejectNotionalExceedsCeiling:
		body["ceiling_usd"] = rej.CeilingUsd
	}
	return body
}
