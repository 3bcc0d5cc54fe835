package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/moneypenny/pennygate/internal/config"
	"github.com/moneypenny/pennygate/internal/middleware"
	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/policy"
	"github.com/moneypenny/pennygate/internal/repository"
	"github.com/moneypenny/pennygate/internal/service"
)

const testApiKey = "sk-test"

func testRouterPolicy() *policy.Policy {
	return &policy.Policy{Risk: policy.RiskConfig{
		MaxSlippageBps: 8,
		MinEdgeBps:     2.5,
		GasCeilingUsd:  map[string]float64{"ethereum": 1.2},
		NotionalCeilingUsd: policy.NotionalCeilings{
			Canary: 1000,
			Prod:   250000,
		},
		VenuesAllowed:       map[string][]string{"ethereum": {"univ3", "curve"}},
		RequireHumanConfirm: []string{"SET_PARAM", "REBALANCE"},
	}}
}

func newTestRouter(t *testing.T) (*gin.Engine, *repository.Memory) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Auth: config.AuthConfig{RequireAPIKey: true},
		Tenants: []config.TenantConfig{
			{ID: "tenant-1", Name: "Tenant One", APIKey: testApiKey, QPS: 1000, Burst: 1000},
		},
	}

	mem := repository.NewMemory()
	base := testRouterPolicy()
	tm := service.NewTenantManager(cfg)
	policies := policy.NewStore(base, mem)
	estimator := service.NewCostEstimator(2.0, base, mem)
	forwarder := service.NewHTTPForwarder("", time.Second)
	evaluator := service.NewEvaluator(mem, policies, estimator, forwarder)
	paramSvc := service.NewParamService(mem, policies)

	intentHandler := NewIntentHandler(evaluator)
	paramHandler := NewParamHandler(paramSvc, policies)
	auditHandler := NewAuditHandler(mem)

	r := gin.New()
	r.Use(middleware.ErrorHandler())
	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(cfg, tm))
	v1.POST("/propose_intent", intentHandler.ProposeIntent)
	v1.POST("/set_param", paramHandler.SetParam)
	v1.GET("/config", paramHandler.GetConfig)
	v1.GET("/receipts", auditHandler.ListReceipts)
	v1.GET("/governance", auditHandler.ListGovernance)
	return r, mem
}

func wireIntent(minEdge float64) *model.Intent {
	return &model.Intent{
		IntentID:  uuid.New().String(),
		TenantID:  "tenant-1",
		CreatedAt: time.Now().UTC(),
		Actor:     model.Actor{Type: "agent", Name: "MoneyPenny"},
		Kind:      model.KindPlaceOrder,
		Details: model.IntentDetails{
			Chain:  "ethereum",
			Venue:  "univ3",
			Symbol: "QCT/USDC",
			Side:   "BUY",
			Size:   &model.Size{Notional: 1000, Currency: "USDc"},
			Limits: &model.Limits{MaxSlippageBps: 5, MinEdgeBps: minEdge, DeadlineS: 30},
		},
		Policy: model.PolicyMeta{RiskProfile: model.ProfileProd},
		Meta:   model.IntentMeta{Source: "MoneyPenny"},
	}
}

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderApiKey, testApiKey)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestProposeIntentAccepted(t *testing.T) {
	router, mem := newTestRouter(t)
	intent := wireIntent(5.0)

	rec := postJSON(router, "/v1/propose_intent", intent)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if resp["accepted"] != true {
		t.Fatalf("expected accepted=true: %v", resp)
	}
	// gas fallback: ceiling 1.2 * 0.1 on 1000 notional = 1.2 bps; floor 3.7
	if resp["policy_floor_bps"] != 3.7 {
		t.Fatalf("expected floor 3.7, got %v", resp["policy_floor_bps"])
	}
	if resp["forwarded"] != false {
		t.Fatalf("no endpoint configured, forwarded must be false")
	}

	// The decision ledger is queryable right away.
	req := httptest.NewRequest(http.MethodGet, "/v1/receipts?intent_id="+intent.IntentID, nil)
	req.Header.Set(middleware.HeaderApiKey, testApiKey)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("receipts endpoint: %d", rec2.Code)
	}
	var receipts struct {
		Receipts []model.PolicyReceipt `json:"receipts"`
	}
	if err := json.Unmarshal(rec2.Body.Bytes(), &receipts); err != nil {
		t.Fatalf("invalid receipts response: %v", err)
	}
	if len(receipts.Receipts) != 1 || receipts.Receipts[0].Decision != model.DecisionPolicyOK {
		t.Fatalf("expected one POLICY_OK receipt, got %+v", receipts.Receipts)
	}

	if _, ok := mem.GetIntent(intent.IntentID); !ok {
		t.Fatalf("intent not persisted")
	}
}

func TestProposeIntentSchemaInvalid(t *testing.T) {
	router, _ := newTestRouter(t)
	intent := wireIntent(5.0)
	intent.Kind = "LIQUIDATE_EVERYTHING"

	rec := postJSON(router, "/v1/propose_intent", intent)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "schema_invalid" {
		t.Fatalf("expected schema_invalid, got %v", resp["error"])
	}
}

func TestProposeIntentCrossTenant(t *testing.T) {
	router, mem := newTestRouter(t)
	intent := wireIntent(5.0)
	intent.TenantID = "tenant-2"

	rec := postJSON(router, "/v1/propose_intent", intent)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "cross_tenant_intent_forbidden" {
		t.Fatalf("unexpected error code %v", resp["error"])
	}
	receipts, _ := mem.ListReceipts(nil, intent.IntentID)
	if len(receipts) != 0 {
		t.Fatalf("cross-tenant refusals must not write receipts")
	}
}

func TestProposeIntentEdgeTooLow(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := postJSON(router, "/v1/propose_intent", wireIntent(1.0))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["error"] != "edge_too_low" {
		t.Fatalf("expected edge_too_low, got %v", resp["error"])
	}
	if resp["floor_bps"] != 3.7 || resp["fees_bps"] != 2.0 || resp["gas_bps"] != 1.2 {
		t.Fatalf("unexpected priced fields: %v", resp)
	}
}

func TestProposeIntentDuplicate(t *testing.T) {
	router, _ := newTestRouter(t)
	intent := wireIntent(5.0)

	if rec := postJSON(router, "/v1/propose_intent", intent); rec.Code != http.StatusAccepted {
		t.Fatalf("first submit: %d", rec.Code)
	}
	rec := postJSON(router, "/v1/propose_intent", intent)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for replay, got %d", rec.Code)
	}
	var resp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["error"] != "duplicate_intent" {
		t.Fatalf("unexpected error code %v", resp["error"])
	}
}

func TestProposeIntentAuth(t *testing.T) {
	router, _ := newTestRouter(t)
	body, _ := json.Marshal(wireIntent(5.0))

	req := httptest.NewRequest(http.MethodPost, "/v1/propose_intent", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without api key, got %d", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/v1/propose_intent", bytes.NewReader(body))
	req2.Header.Set(middleware.HeaderApiKey, "sk-wrong")
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for unknown key, got %d", rec2.Code)
	}
}
