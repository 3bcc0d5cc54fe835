package service

import (
	"testing"

	"github.com/moneypenny/pennygate/internal/config"
)

func TestTenantManagerFromConfig(t *testing.T) {
	cfg := &config.Config{Tenants: []config.TenantConfig{
		{ID: "tenant-1", Name: "One", APIKey: "sk-1", QPS: 5, Burst: 10},
		{ID: "tenant-2", Name: "Two", APIKey: "sk-2"},
	}}
	tm := NewTenantManager(cfg)

	tenant, ok := tm.GetTenantByApiKey("sk-1")
	if !ok || tenant.ID != "tenant-1" {
		t.Fatalf("lookup by key failed: %+v %v", tenant, ok)
	}
	if tenant.Rate.QPS != 5 || tenant.Rate.Burst != 10 {
		t.Fatalf("rate config not carried: %+v", tenant.Rate)
	}

	// Unset rate fields fall back to defaults.
	tenant2, _ := tm.GetTenantByApiKey("sk-2")
	if tenant2.Rate.QPS != 10 || tenant2.Rate.Burst != 20 {
		t.Fatalf("defaults not applied: %+v", tenant2.Rate)
	}

	if _, ok := tm.GetTenantByApiKey("sk-unknown"); ok {
		t.Fatalf("unknown key must miss")
	}
	if _, ok := tm.GetTenantByID("tenant-2"); !ok {
		t.Fatalf("lookup by id failed")
	}
	if tm.GetLimiterForTenant("tenant-1") == nil {
		t.Fatalf("limiter missing")
	}
}

func TestTenantManagerSingleTenantMode(t *testing.T) {
	cfg := &config.Config{Auth: config.AuthConfig{APIKey: "sk-legacy"}}
	tm := NewTenantManager(cfg)

	tenant := tm.DefaultTenant()
	if tenant == nil || tenant.ApiKey != "sk-legacy" {
		t.Fatalf("default tenant missing: %+v", tenant)
	}
	if byKey, ok := tm.GetTenantByApiKey("sk-legacy"); !ok || byKey.ID != tenant.ID {
		t.Fatalf("default tenant not registered by key")
	}
}
