package service

import (
	"sync"

	"github.com/moneypenny/pennygate/internal/config"
	"github.com/moneypenny/pennygate/internal/model"
	"golang.org/x/time/rate"
)

// TenantManager 管理租户信息与限流器
type TenantManager struct {
	mu            sync.RWMutex
	tenants       map[string]*model.Tenant // Key: API Key
	limiters      map[string]*rate.Limiter // Key: TenantID
	defaultTenant *model.Tenant
}

func NewTenantManager(cfg *config.Config) *TenantManager {
	tm := &TenantManager{
		tenants:  make(map[string]*model.Tenant),
		limiters: make(map[string]*rate.Limiter),
	}
	if cfg == nil {
		return tm
	}

	for _, tc := range cfg.Tenants {
		tm.RegisterTenant(&model.Tenant{
			ID:     tc.ID,
			Name:   tc.Name,
			ApiKey: tc.APIKey,
			Rate: model.RateLimitConfig{
				QPS:   chooseFloat(10, tc.QPS),
				Burst: chooseInt(20, tc.Burst),
			},
		})
	}

	// 单租户兼容模式
	if len(cfg.Tenants) == 0 && cfg.Auth.APIKey != "" {
		defaultTenant := &model.Tenant{
			ID:     "default-tenant",
			Name:   "Default Tenant",
			ApiKey: cfg.Auth.APIKey,
			Rate:   model.RateLimitConfig{QPS: 10, Burst: 20},
		}
		tm.RegisterTenant(defaultTenant)
		tm.defaultTenant = defaultTenant
	}

	return tm
}

func (tm *TenantManager) RegisterTenant(t *model.Tenant) {
	if t == nil {
		return
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.tenants[t.ApiKey] = t

	limit := rate.Limit(t.Rate.QPS)
	if limit == 0 {
		limit = rate.Inf
	}
	burst := t.Rate.Burst
	if burst == 0 {
		burst = 1
	}
	tm.limiters[t.ID] = rate.NewLimiter(limit, burst)
}

func (tm *TenantManager) GetTenantByApiKey(apiKey string) (*model.Tenant, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	t, ok := tm.tenants[apiKey]
	return t, ok
}

func (tm *TenantManager) GetTenantByID(id string) (*model.Tenant, bool) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	for _, tenant := range tm.tenants {
		if tenant != nil && tenant.ID == id {
			return tenant, true
		}
	}
	return nil, false
}

func (tm *TenantManager) DefaultTenant() *model.Tenant {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.defaultTenant
}

// GetLimiterForTenant 获取租户的限流器
func (tm *TenantManager) GetLimiterForTenant(tenantID string) *rate.Limiter {
	tm.mu.RLock()
	defer tm.mu.RUnlock()
	return tm.limiters[tenantID]
}

func chooseFloat(base, override float64) float64 {
	if override > 0 {
		return override
	}
	return base
}

func chooseInt(base, override int) int {
	if override > 0 {
		return override
	}
	return base
}
