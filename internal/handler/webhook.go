package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moneypenny/pennygate/internal/middleware"
	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/pkg/apperrors"
	"github.com/moneypenny/pennygate/internal/pkg/logger"
	"github.com/moneypenny/pennygate/internal/repository"
)

type WebhookHandler struct {
	store repository.Store
}

func NewWebhookHandler(store repository.Store) *WebhookHandler {
	return &WebhookHandler{store: store}
}

// ExecutionCallback is POST /webhooks/execution. The HMAC middleware
// has already verified the signature and stashed the raw body.
func (h *WebhookHandler) ExecutionCallback(c *gin.Context) {
	rawVal, exists := c.Get(middleware.ContextRawBody)
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "raw_body_required"})
		return
	}
	rawBody := rawVal.([]byte)

	var payload model.ExecutionWebhook
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "schema_invalid"})
		return
	}
	if payload.IntentID == "" || payload.Status == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_required_fields"})
		return
	}

	ctx := c.Request.Context()
	event := &model.IntentEvent{
		IntentID: payload.IntentID,
		Status:   payload.Status,
		TxHash:   payload.TxHash,
		Raw:      string(rawBody),
	}
	if err := h.store.InsertIntentEvent(ctx, event); err != nil {
		c.Error(apperrors.Wrap(err))
		return
	}

	if payload.Fill != nil && payload.Status == model.StatusFilled {
		fill := *payload.Fill
		fill.IntentID = payload.IntentID
		if fill.TxHash == "" {
			fill.TxHash = payload.TxHash
		}
		if err := h.store.InsertFill(ctx, &fill); err != nil {
			c.Error(apperrors.Wrap(err))
			return
		}
		logger.Info("fill recorded", "intent_id", payload.IntentID, "venue", fill.Venue, "qty_qct", fill.QtyQct)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "intent_id": payload.IntentID, "status": payload.Status})
}
