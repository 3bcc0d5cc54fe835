package service

import (
	"context"
	"fmt"

	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/pkg/apperrors"
	"github.com/moneypenny/pennygate/internal/pkg/logger"
	"github.com/moneypenny/pennygate/internal/pkg/metrics"
	"github.com/moneypenny/pennygate/internal/policy"
	"github.com/moneypenny/pennygate/internal/repository"
	"github.com/shopspring/decimal"
)

// Rejection codes, the wire-level error strings of a policy refusal.
const (
	RejectVenueNotAllowed        = "venue_not_allowed"
	RejectLimitsRequired         = "limits_required"
	RejectEdgeTooLow             = "edge_too_low"
	RejectSlippageTooHigh        = "slippage_too_high"
	RejectNotionalExceedsCeiling = "notional_exceeds_ceiling"
)

// safetyBufferBps is added on top of fees and gas; the minimum edge a
// trade must clear to be worth executing once costs are paid.
const safetyBufferBps = 0.5

// confirmNotionalUsd: above this size an accept always requires a human
// sign-off regardless of kind.
const confirmNotionalUsd = 25_000

// Rejection is a policy refusal. It is data, not an error: the request
// was handled, the answer was no.
type Rejection struct {
	Code string
	// Populated for rejections that reached cost computation.
	FloorBps float64
	FeesBps  float64
	GasBps   float64
	// Populated per rejection code.
	CeilingUsd     float64
	MaxSlippageBps float64
}

// Result is one evaluation outcome. Exactly one of Rejection or the
// accept fields is meaningful.
type Result struct {
	Accepted             bool
	RequiresHumanConfirm bool
	PolicyFloorBps       float64
	Forwarded            bool
	ForwardStatus        int
	Rejection            *Rejection
}

// Evaluator is the sole locus of business-rule enforcement: it decides
// accept or reject for a structurally valid intent, writes exactly one
// decision receipt per economic evaluation, persists accepted intents
// and hands them to the forwarder.
type Evaluator struct {
	store     repository.Store
	policies  *policy.Store
	estimator Estimator
	forwarder Forwarder
}

func NewEvaluator(store repository.Store, policies *policy.Store, estimator Estimator, forwarder Forwarder) *Evaluator {
	return &Evaluator{
		store:     store,
		policies:  policies,
		estimator: estimator,
		forwarder: forwarder,
	}
}

// Evaluate runs the policy pipeline. callerTenant may be empty for
// unauthenticated internal calls. Authorization and pre-economic
// failures return before any receipt is written.
func (e *Evaluator) Evaluate(ctx context.Context, intent *model.Intent, callerTenant string) (*Result, error) {
	// 1. Cross-tenant authorization. Not a policy decision, no receipt.
	if callerTenant != "" && callerTenant != intent.TenantID {
		metrics.PolicyRejects.WithLabelValues("cross_tenant").Inc()
		return nil, apperrors.New(apperrors.ErrCrossTenant, "cross_tenant_intent_forbidden", nil)
	}

	eff, err := e.policies.Effective(ctx, intent.TenantID)
	if err != nil {
		return nil, fmt.Errorf("effective config: %w", err)
	}

	// 2. Venue whitelist. Malformed relative to policy configuration,
	// still upstream of economic evaluation: no receipt.
	if intent.Details.Chain != "" && intent.Details.Venue != "" {
		if !e.policies.Base().IsVenueAllowed(intent.Details.Chain, intent.Details.Venue) {
			return e.reject(intent, &Rejection{Code: RejectVenueNotAllowed}, false)
		}
	}

	// 3. Limits are mandatory for anything we price.
	limits := intent.Details.Limits
	if limits == nil {
		return e.reject(intent, &Rejection{Code: RejectLimitsRequired}, false)
	}

	// 4. Cost computation.
	feesBps := e.estimator.FeesBps(ctx, intent)
	gasUsd := e.estimator.GasUsd(ctx, intent)
	notional := intent.Notional()
	gasBps := 0.0
	if notional > 0 {
		gasBps = (gasUsd / notional) * 10_000
	}

	// 5. The floor: fees + gas + safety buffer.
	floor := feesBps + gasBps + safetyBufferBps

	// 6. Floor check.
	if limits.MinEdgeBps < floor {
		rej := &Rejection{
			Code:     RejectEdgeTooLow,
			FloorBps: floor,
			FeesBps:  feesBps,
			GasBps:   gasBps,
		}
		if err := e.writeReceipt(ctx, intent, model.DecisionRejected, "min_edge_bps below policy floor", feesBps, gasBps, floor); err != nil {
			return nil, err
		}
		return e.reject(intent, rej, true)
	}

	// 7. Slippage against the tenant's effective ceiling.
	if limits.MaxSlippageBps > eff.Risk.MaxSlippageBps {
		rej := &Rejection{
			Code:           RejectSlippageTooHigh,
			FloorBps:       floor,
			FeesBps:        feesBps,
			GasBps:         gasBps,
			MaxSlippageBps: eff.Risk.MaxSlippageBps,
		}
		if err := e.writeReceipt(ctx, intent, model.DecisionRejected, "max_slippage_bps above policy limit", feesBps, gasBps, floor); err != nil {
			return nil, err
		}
		return e.reject(intent, rej, true)
	}

	// 8. Notional ceiling by risk profile.
	ceiling := eff.Risk.NotionalCeilingUsd.Prod
	if intent.Policy.RiskProfile == model.ProfileCanary {
		ceiling = eff.Risk.NotionalCeilingUsd.Canary
	}
	if notional > ceiling {
		rej := &Rejection{
			Code:       RejectNotionalExceedsCeiling,
			FloorBps:   floor,
			FeesBps:    feesBps,
			GasBps:     gasBps,
			CeilingUsd: ceiling,
		}
		if err := e.writeReceipt(ctx, intent, model.DecisionRejected, "notional above ceiling", feesBps, gasBps, floor); err != nil {
			return nil, err
		}
		return e.reject(intent, rej, true)
	}

	// 9. Accept: persist, receipt, best-effort forward.
	mustConfirm := e.mustConfirm(intent)
	if err := e.store.InsertIntent(ctx, intent, mustConfirm); err != nil {
		if err == repository.ErrDuplicateIntent {
			metrics.PolicyRejects.WithLabelValues("duplicate_intent").Inc()
			return nil, apperrors.New(apperrors.ErrDuplicateIntent, "duplicate_intent", err)
		}
		return nil, fmt.Errorf("persist intent: %w", err)
	}
	if err := e.writeReceipt(ctx, intent, model.DecisionPolicyOK, "limits >= floor", feesBps, gasBps, floor); err != nil {
		return nil, err
	}

	forward := e.forwarder.Forward(ctx, intent)
	if !forward.Forwarded {
		logger.Warn("intent forward failed",
			"intent_id", intent.IntentID,
			"tenant_id", intent.TenantID,
			"reason", forward.Reason,
			"status", forward.Status)
	}

	metrics.IntentsTotal.WithLabelValues(model.DecisionPolicyOK, intent.Kind).Inc()
	return &Result{
		Accepted:             true,
		RequiresHumanConfirm: mustConfirm,
		PolicyFloorBps:       Round4(floor),
		Forwarded:            forward.Forwarded,
		ForwardStatus:        forward.Status,
	}, nil
}

func (e *Evaluator) reject(intent *model.Intent, rej *Rejection, priced bool) (*Result, error) {
	metrics.PolicyRejects.WithLabelValues(rej.Code).Inc()
	metrics.IntentsTotal.WithLabelValues(model.DecisionRejected, intent.Kind).Inc()
	if priced {
		rej.FloorBps = Round4(rej.FloorBps)
		rej.FeesBps = Round4(rej.FeesBps)
		rej.GasBps = Round4(rej.GasBps)
	}
	return &Result{Accepted: false, Rejection: rej}, nil
}

func (e *Evaluator) writeReceipt(ctx context.Context, intent *model.Intent, decision, reason string, feesBps, gasBps, floor float64) error {
	receipt := &model.PolicyReceipt{
		IntentID:      intent.IntentID,
		Decision:      decision,
		Reason:        reason,
		FeesBps:       feesBps,
		GasBps:        gasBps,
		ComputedFloor: floor,
	}
	if err := e.store.InsertReceipt(ctx, receipt); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	return nil
}

func (e *Evaluator) mustConfirm(intent *model.Intent) bool {
	if e.policies.Base().MustConfirmKind(intent.Kind) {
		return true
	}
	return intent.Notional() > confirmNotionalUsd || intent.Policy.RequiresHumanConfirm
}

// Round4 rounds a bps value at the response boundary. Internal
// computation stays full precision.
func Round4(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(4).Float64()
	return f
}
