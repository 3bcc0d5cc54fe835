package policy

import (
	"context"

	"github.com/moneypenny/pennygate/internal/model"
)

// EffectiveRisk is the static baseline after tenant overrides.
type EffectiveRisk struct {
	MaxSlippageBps        float64            `json:"max_slippage_bps"`
	MinEdgeBps            float64            `json:"min_edge_bps"`
	GasCeilingUsd         map[string]float64 `json:"gas_ceiling_usd"`
	NotionalCeilingUsd    NotionalCeilings   `json:"notional_ceiling_usd"`
	HaltOnPegDeviationBps float64            `json:"halt_on_peg_deviation_bps"`
}

// EffectiveConfig is a tenant's merged view of the policy. InventoryBand
// is advisory only, never a risk limit.
type EffectiveConfig struct {
	Risk          EffectiveRisk `json:"risk"`
	InventoryBand *float64      `json:"inventory_band,omitempty"`
}

// Merge applies runtime override rows onto the baseline. A bare
// gas_ceiling override applies to every chain; gas_ceiling:<chain> rows
// are applied afterwards and win for their chain.
func Merge(base *Policy, rows []model.RuntimeOverride) *EffectiveConfig {
	out := &EffectiveConfig{
		Risk: EffectiveRisk{
			MaxSlippageBps:        base.Risk.MaxSlippageBps,
			MinEdgeBps:            base.Risk.MinEdgeBps,
			GasCeilingUsd:         make(map[string]float64, len(base.Risk.GasCeilingUsd)),
			NotionalCeilingUsd:    base.Risk.NotionalCeilingUsd,
			HaltOnPegDeviationBps: base.Risk.HaltOnPegDeviationBps,
		},
	}
	for chain, v := range base.Risk.GasCeilingUsd {
		out.Risk.GasCeilingUsd[chain] = v
	}

	for _, r := range rows {
		switch r.Key {
		case "min_edge_bps":
			out.Risk.MinEdgeBps = r.Value
		case "max_slippage_bps":
			out.Risk.MaxSlippageBps = r.Value
		case "gas_ceiling":
			for chain := range out.Risk.GasCeilingUsd {
				out.Risk.GasCeilingUsd[chain] = r.Value
			}
		case "inventory_band":
			v := r.Value
			out.InventoryBand = &v
		}
	}
	// Chain-scoped ceilings win over the uniform override.
	for _, r := range rows {
		if base, chain, ok := SplitParamKey(r.Key); ok && base == "gas_ceiling" && chain != "" {
			out.Risk.GasCeilingUsd[chain] = r.Value
		}
	}

	return out
}

// OverrideReader is the slice of the repository the policy store needs.
type OverrideReader interface {
	GetRuntimeOverrides(ctx context.Context, tenantID string) ([]model.RuntimeOverride, error)
}

// Store pairs the immutable baseline with the override table. Overrides
// are read fresh on every call so a set_param is visible on the very
// next evaluation.
type Store struct {
	base *Policy
	kv   OverrideReader
}

func NewStore(base *Policy, kv OverrideReader) *Store {
	return &Store{base: base, kv: kv}
}

// Base returns the static policy.
func (s *Store) Base() *Policy {
	return s.base
}

// Effective merges the tenant's runtime overrides onto the baseline.
func (s *Store) Effective(ctx context.Context, tenantID string) (*EffectiveConfig, error) {
	rows, err := s.kv.GetRuntimeOverrides(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return Merge(s.base, rows), nil
}
