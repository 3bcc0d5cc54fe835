package service

import (
	"context"
	"errors"
	"testing"

	"github.com/moneypenny/pennygate/internal/policy"
	"github.com/moneypenny/pennygate/internal/repository"
)

func newParamService(mem *repository.Memory) *ParamService {
	return NewParamService(mem, policy.NewStore(testPolicy(), mem))
}

func float(v float64) *float64 { return &v }

func TestSetParamUpsertAndGovernance(t *testing.T) {
	mem := repository.NewMemory()
	svc := newParamService(mem)
	ctx := context.Background()

	override, err := svc.SetParam(ctx, "tenant-1", SetParamRequest{
		TenantID: "tenant-1",
		Key:      "min_edge_bps",
		Value:    float(4.5),
		Actor:    "operator",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if override.Value != 4.5 {
		t.Fatalf("expected 4.5, got %v", override.Value)
	}

	v, ok, err := mem.GetRuntimeOverride(ctx, "tenant-1", "min_edge_bps")
	if err != nil || !ok || v != 4.5 {
		t.Fatalf("override not stored: %v %v %v", v, ok, err)
	}

	entries, err := mem.ListGovernance(ctx, "tenant-1", 10)
	if err != nil {
		t.Fatalf("governance list: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != "SET_PARAM" || entries[0].Actor != "operator" {
		t.Fatalf("expected one SET_PARAM entry, got %+v", entries)
	}
}

func TestSetParamTenantMismatch(t *testing.T) {
	svc := newParamService(repository.NewMemory())

	_, err := svc.SetParam(context.Background(), "tenant-1", SetParamRequest{
		TenantID: "tenant-2",
		Key:      "min_edge_bps",
		Value:    float(1),
	})
	var paramErr *ParamError
	if !errors.As(err, &paramErr) || paramErr.Code != "tenant_id_mismatch" {
		t.Fatalf("expected tenant_id_mismatch, got %v", err)
	}
}

func TestSetParamRejectsUnknownKey(t *testing.T) {
	svc := newParamService(repository.NewMemory())

	_, err := svc.SetParam(context.Background(), "tenant-1", SetParamRequest{
		TenantID: "tenant-1",
		Key:      "daily_loss_limit_bps",
		Value:    float(1),
	})
	var paramErr *ParamError
	if !errors.As(err, &paramErr) || paramErr.Code != "invalid_key" {
		t.Fatalf("expected invalid_key, got %v", err)
	}
}

func TestSetParamRejectsNegativeValue(t *testing.T) {
	svc := newParamService(repository.NewMemory())

	_, err := svc.SetParam(context.Background(), "tenant-1", SetParamRequest{
		TenantID: "tenant-1",
		Key:      "min_edge_bps",
		Value:    float(-1),
	})
	var paramErr *ParamError
	if !errors.As(err, &paramErr) || paramErr.Code != "value_must_be_non_negative_number" {
		t.Fatalf("expected negative value rejection, got %v", err)
	}
}

func TestSetParamSlippageHardCap(t *testing.T) {
	svc := newParamService(repository.NewMemory())

	_, err := svc.SetParam(context.Background(), "tenant-1", SetParamRequest{
		TenantID: "tenant-1",
		Key:      "max_slippage_bps",
		Value:    float(11),
	})
	var paramErr *ParamError
	if !errors.As(err, &paramErr) || paramErr.Code != "policy_violation" {
		t.Fatalf("expected policy_violation, got %v", err)
	}
}

func TestSetParamChainScopedGasCeiling(t *testing.T) {
	mem := repository.NewMemory()
	svc := newParamService(mem)
	ctx := context.Background()

	if _, err := svc.SetParam(ctx, "tenant-1", SetParamRequest{
		TenantID: "tenant-1",
		Key:      "gas_ceiling:arbitrum",
		Value:    float(0.5),
	}); err != nil {
		t.Fatalf("chain-scoped key must be accepted: %v", err)
	}

	if _, err := svc.SetParam(ctx, "tenant-1", SetParamRequest{
		TenantID: "tenant-1",
		Key:      "gas_ceiling:unknownchain",
		Value:    float(0.5),
	}); err == nil {
		t.Fatalf("unknown chain scope must be rejected")
	}
}
