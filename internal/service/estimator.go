package service

import (
	"context"

	"github.com/moneypenny/pennygate/internal/model"
	"github.com/moneypenny/pennygate/internal/policy"
)

// GlobalTenant is the pseudo-tenant the gas oracle publishes medians
// under.
const GlobalTenant = "__global__"

// Estimator prices the cost side of an intent.
type Estimator interface {
	// FeesBps returns the estimated venue fee in bps.
	FeesBps(ctx context.Context, intent *model.Intent) float64
	// GasUsd returns the estimated end-to-end USD gas cost for one swap.
	GasUsd(ctx context.Context, intent *model.Intent) float64
}

// MedianReader is the slice of the repository the estimator needs to
// read oracle medians.
type MedianReader interface {
	GetRuntimeOverride(ctx context.Context, tenantID, key string) (float64, bool, error)
}

// CostEstimator uses the gas oracle's rolling median when one is
// available and falls back to a fixed fraction of the per-chain gas
// ceiling. Fees are a flat configured estimate; a live implementation
// would source them from venue quotes.
type CostEstimator struct {
	feesBps float64
	base    *policy.Policy
	medians MedianReader
}

func NewCostEstimator(feesBps float64, base *policy.Policy, medians MedianReader) *CostEstimator {
	if feesBps <= 0 {
		feesBps = 2.0
	}
	return &CostEstimator{feesBps: feesBps, base: base, medians: medians}
}

func (e *CostEstimator) FeesBps(_ context.Context, _ *model.Intent) float64 {
	return e.feesBps
}

func (e *CostEstimator) GasUsd(ctx context.Context, intent *model.Intent) float64 {
	chain := intent.Details.Chain
	if chain == "" {
		chain = "ethereum"
	}
	if e.medians != nil {
		if v, ok, err := e.medians.GetRuntimeOverride(ctx, GlobalTenant, "gas_usd_median_"+chain); err == nil && ok && v > 0 {
			return v
		}
	}
	return e.base.GasCeiling(chain) * 0.1
}
