package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/moneypenny/pennygate/internal/config"
	"github.com/moneypenny/pennygate/internal/service"
)

const (
	HeaderApiKey     = "X-Api-Key"
	ContextTenantKey = "tenant"
)

func AuthMiddleware(cfg *config.Config, tm *service.TenantManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderApiKey)
		if apiKey == "" {
			// SSE/EventSource 场景无法设置 Header，允许 query 参数
			apiKey = c.Query("k")
		}
		if apiKey == "" {
			if cfg != nil && !cfg.Auth.RequireAPIKey {
				if tenant := tm.DefaultTenant(); tenant != nil {
					c.Set(ContextTenantKey, tenant)
					c.Next()
					return
				}
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing_api_key"})
			c.Abort()
			return
		}

		tenant, ok := tm.GetTenantByApiKey(apiKey)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "invalid_api_key"})
			c.Abort()
			return
		}

		c.Set(ContextTenantKey, tenant)
		c.Next()
	}
}
