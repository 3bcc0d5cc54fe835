package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/policy"
	"github.com/moneypenny/pennygate/internal/repository"
)

// SetParamRequest is the body of POST /v1/set_param.
type SetParamRequest struct {
	TenantID string   `json:"tenant_id" binding:"required"`
	Key      string   `json:"key" binding:"required"`
	Value    *float64 `json:"value" binding:"required"`
	Actor    string   `json:"actor,omitempty"`
}

// ParamError is a validation refusal with its wire code.
type ParamError struct {
	Code   string
	Reason string
}

func (e *ParamError) Error() string {
	if e.Reason != "" {
		return e.Code + ": " + e.Reason
	}
	return e.Code
}

// ParamService upserts runtime overrides and records every change in
// the governance log.
type ParamService struct {
	store    repository.Store
	policies *policy.Store
}

func NewParamService(store repository.Store, policies *policy.Store) *ParamService {
	return &ParamService{store: store, policies: policies}
}

// SetParam validates and applies one override. callerTenant must match
// the body's tenant_id; an override for someone else is forbidden.
func (s *ParamService) SetParam(ctx context.Context, callerTenant string, req SetParamRequest) (*model.RuntimeOverride, error) {
	if callerTenant != "" && req.TenantID != callerTenant {
		return nil, &ParamError{Code: "tenant_id_mismatch"}
	}

	if _, _, ok := policy.SplitParamKey(req.Key); !ok {
		return nil, &ParamError{Code: "invalid_key"}
	}
	value := *req.Value
	if value < 0 {
		return nil, &ParamError{Code: "value_must_be_non_negative_number"}
	}
	// Sanity bound, mirrors the static policy's hard cap.
	if req.Key == "max_slippage_bps" && value > 10 {
		return nil, &ParamError{Code: "policy_violation", Reason: "max_slippage_bps cannot exceed 10"}
	}

	if err := s.store.UpsertRuntimeOverride(ctx, req.TenantID, req.Key, value); err != nil {
		return nil, fmt.Errorf("upsert override: %w", err)
	}

	actor := req.Actor
	if actor == "" {
		actor = "system"
	}
	details, _ := json.Marshal(map[string]interface{}{"key": req.Key, "value": value})
	entry := &model.GovernanceEntry{
		ID:        uuid.New().String(),
		TenantID:  req.TenantID,
		Actor:     actor,
		Action:    "SET_PARAM",
		Details:   string(details),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.InsertGovernance(ctx, entry); err != nil {
		return nil, fmt.Errorf("governance log: %w", err)
	}

	return &model.RuntimeOverride{
		TenantID:  req.TenantID,
		Key:       req.Key,
		Value:     value,
		UpdatedAt: entry.CreatedAt,
	}, nil
}
