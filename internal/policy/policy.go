package policy

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Runtime override keys accepted by set_param. gas_ceiling additionally
// accepts a ":<chain>" suffix to scope the override to one chain.
var AllowedParamKeys = []string{"min_edge_bps", "max_slippage_bps", "gas_ceiling", "inventory_band"}

// Chains the gateway knows about. Must stay in sync with the intent
// schema enum.
var KnownChains = []string{"bitcoin", "ethereum", "solana", "polygon", "optimism", "arbitrum", "base"}

type NotionalCeilings struct {
	Canary float64 `yaml:"canary" json:"canary"`
	Prod   float64 `yaml:"prod" json:"prod"`
}

type RiskConfig struct {
	MaxSlippageBps        float64             `yaml:"max_slippage_bps" json:"max_slippage_bps"`
	MinEdgeBps            float64             `yaml:"min_edge_bps" json:"min_edge_bps"`
	GasCeilingUsd         map[string]float64  `yaml:"gas_ceiling_usd" json:"gas_ceiling_usd"`
	NotionalCeilingUsd    NotionalCeilings    `yaml:"notional_ceiling_usd" json:"notional_ceiling_usd"`
	DailyLossLimitBps     float64             `yaml:"daily_loss_limit_bps" json:"daily_loss_limit_bps"`
	HaltOnPegDeviationBps float64             `yaml:"halt_on_peg_deviation_bps" json:"halt_on_peg_deviation_bps"`
	VenuesAllowed         map[string][]string `yaml:"venues_allowed" json:"venues_allowed"`
	RequireHumanConfirm   []string            `yaml:"require_human_confirm" json:"require_human_confirm"`
}

// Policy is the tenant-independent baseline, loaded once at startup and
// immutable for the process lifetime. Tests inject fixtures directly.
type Policy struct {
	Risk RiskConfig `yaml:"risk" json:"risk"`
}

// Parse decodes and sanity-checks a policy blob. A missing or malformed
// policy is a startup failure, not a per-request error.
func Parse(raw []byte) (*Policy, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("risk policy is empty")
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to parse risk policy: %w", err)
	}
	if p.Risk.NotionalCeilingUsd.Canary <= 0 || p.Risk.NotionalCeilingUsd.Prod <= 0 {
		return nil, fmt.Errorf("risk policy missing notional ceilings")
	}
	if len(p.Risk.VenuesAllowed) == 0 {
		return nil, fmt.Errorf("risk policy missing venues_allowed")
	}
	if len(p.Risk.RequireHumanConfirm) == 0 {
		p.Risk.RequireHumanConfirm = []string{"SET_PARAM", "REBALANCE"}
	}
	return &p, nil
}

// LoadFile reads the policy from disk.
func LoadFile(path string) (*Policy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read risk policy %s: %w", path, err)
	}
	return Parse(raw)
}

// IsVenueAllowed answers whether venue is whitelisted for chain.
// Unconfigured chains allow nothing.
func (p *Policy) IsVenueAllowed(chain, venue string) bool {
	for _, v := range p.Risk.VenuesAllowed[chain] {
		if v == venue {
			return true
		}
	}
	return false
}

// GasCeiling returns the per-chain gas ceiling in USD, 0 when the chain
// is unconfigured.
func (p *Policy) GasCeiling(chain string) float64 {
	return p.Risk.GasCeilingUsd[chain]
}

// MustConfirmKind answers whether the kind always needs a human sign-off.
func (p *Policy) MustConfirmKind(kind string) bool {
	for _, k := range p.Risk.RequireHumanConfirm {
		if k == kind {
			return true
		}
	}
	return false
}

// SplitParamKey validates a set_param key against the allowed set and
// returns its base and optional chain scope.
func SplitParamKey(key string) (base, chain string, ok bool) {
	base = key
	if idx := strings.IndexByte(key, ':'); idx >= 0 {
		base, chain = key[:idx], key[idx+1:]
		// Only the gas ceiling is chain-scoped.
		if base != "gas_ceiling" || !isKnownChain(chain) {
			return "", "", false
		}
	}
	for _, k := range AllowedParamKeys {
		if k == base {
			return base, chain, true
		}
	}
	return "", "", false
}

func isKnownChain(chain string) bool {
	for _, c := range KnownChains {
		if c == chain {
			return true
		}
	}
	return false
}
