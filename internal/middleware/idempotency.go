package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/repository"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

// IdempotencyMiddleware replays the cached response for a repeated
// X-Idempotency-Key, scoped per tenant. Distinct from intent_id
// uniqueness: this protects against transport-level retries.
func IdempotencyMiddleware(store repository.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := c.GetHeader(HeaderIdempotencyKey)
		if idemKey == "" {
			c.Next()
			return
		}

		tenantVal, exists := c.Get(ContextTenantKey)
		if !exists {
			c.Next()
			return
		}
		tenant := tenantVal.(*model.Tenant)

		fullKey := tenant.ID + ":" + idemKey

		record, hit := store.GetOrLock(fullKey)
		if hit {
			if record.Processing {
				c.JSON(http.StatusConflict, gin.H{"error": "request_in_progress"})
				c.Abort()
				return
			}
			c.Data(record.Status, "application/json; charset=utf-8", record.Body)
			c.Abort()
			return
		}

		w := &responseBodyWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// 5xx 时解锁不缓存，允许客户端重试
		if c.Writer.Status() < 500 {
			store.Save(fullKey, c.Writer.Status(), w.body)
		} else {
			store.Unlock(fullKey)
		}
	}
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body []byte
}

func (w *responseBodyWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return w.ResponseWriter.Write(b)
}
