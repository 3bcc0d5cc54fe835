package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/moneypenny/pennygate/internal/middleware"
)

func TestSetParamThenConfigReflectsOverride(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(router, "/v1/set_param", map[string]interface{}{
		"tenant_id": "tenant-1",
		"key":       "min_edge_bps",
		"value":     6.0,
		"actor":     "operator",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set_param: %d %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["success"] != true || resp["value"] != 6.0 {
		t.Fatalf("unexpected response: %v", resp)
	}

	req := httptest.NewRequest(http.MethodGet, "/v1/config", nil)
	req.Header.Set(middleware.HeaderApiKey, testApiKey)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("config: %d", rec2.Code)
	}

	var cfg struct {
		TenantID  string `json:"tenant_id"`
		Effective struct {
			Risk struct {
				MinEdgeBps float64 `json:"min_edge_bps"`
			} `json:"risk"`
		} `json:"effective"`
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("invalid config response: %v", err)
	}
	if cfg.TenantID != "tenant-1" {
		t.Fatalf("config must be tenant-scoped, got %q", cfg.TenantID)
	}
	if cfg.Effective.Risk.MinEdgeBps != 6.0 {
		t.Fatalf("override not reflected, got %v", cfg.Effective.Risk.MinEdgeBps)
	}

	// The change lands in the governance trail.
	req3 := httptest.NewRequest(http.MethodGet, "/v1/governance", nil)
	req3.Header.Set(middleware.HeaderApiKey, testApiKey)
	rec3 := httptest.NewRecorder()
	router.ServeHTTP(rec3, req3)
	if rec3.Code != http.StatusOK {
		t.Fatalf("governance: %d", rec3.Code)
	}
	var gov struct {
		Entries []map[string]interface{} `json:"entries"`
	}
	if err := json.Unmarshal(rec3.Body.Bytes(), &gov); err != nil {
		t.Fatalf("invalid governance response: %v", err)
	}
	if len(gov.Entries) != 1 || gov.Entries[0]["action"] != "SET_PARAM" {
		t.Fatalf("expected one SET_PARAM entry, got %+v", gov.Entries)
	}
}

func TestSetParamInvalidKey(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(router, "/v1/set_param", map[string]interface{}{
		"tenant_id": "tenant-1",
		"key":       "kill_switch",
		"value":     1.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "invalid_key" {
		t.Fatalf("expected invalid_key, got %v", resp["error"])
	}
	if _, ok := resp["allowed_keys"]; !ok {
		t.Fatalf("response must list the allowed keys")
	}
}

func TestSetParamTenantMismatchForbidden(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(router, "/v1/set_param", map[string]interface{}{
		"tenant_id": "tenant-2",
		"key":       "min_edge_bps",
		"value":     1.0,
	})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestSetParamSlippageCap(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(router, "/v1/set_param", map[string]interface{}{
		"tenant_id": "tenant-1",
		"key":       "max_slippage_bps",
		"value":     11.0,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "policy_violation" {
		t.Fatalf("expected policy_violation, got %v", resp["error"])
	}
}

func TestReceiptsRequiresIntentID(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/receipts", nil)
	req.Header.Set(middleware.HeaderApiKey, testApiKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without intent_id, got %d", rec.Code)
	}
}
