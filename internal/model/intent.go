package model

import "time"

// Intent kinds
const (
	KindRebalance  = "REBALANCE"
	KindPlaceOrder = "PLACE_ORDER"
	KindCancel     = "CANCEL"
	KindSetParam   = "SET_PARAM"
	KindQuery      = "QUERY"
)

// Risk profiles
const (
	ProfileCanary = "CANARY"
	ProfileProd   = "PROD"
)

// Actor identifies who proposed the intent. Automated intents are
// pinned to the single known agent identity.
type Actor struct {
	Type string `json:"type" binding:"required,oneof=user agent"`
	Name string `json:"name" binding:"required,oneof=MoneyPenny"`
}

type Size struct {
	Notional float64 `json:"notional" binding:"required,gt=0"`
	Currency string  `json:"currency" binding:"required,oneof=USDc"`
}

type Limits struct {
	MaxSlippageBps float64 `json:"max_slippage_bps" binding:"min=0"`
	MinEdgeBps     float64 `json:"min_edge_bps" binding:"min=0"`
	DeadlineS      float64 `json:"deadline_s" binding:"required,min=5,max=120"`
}

type LPRange struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type IntentDetails struct {
	Chain   string   `json:"chain,omitempty" binding:"omitempty,oneof=bitcoin ethereum solana polygon optimism arbitrum base"`
	Venue   string   `json:"venue,omitempty" binding:"omitempty,oneof=univ3 curve balancer orca raydium jupiter aggregator lp mint_burn anchor"`
	Symbol  string   `json:"symbol,omitempty" binding:"omitempty,oneof=QCT/USDC"`
	Side    string   `json:"side,omitempty" binding:"omitempty,oneof=BUY SELL"`
	Size    *Size    `json:"size,omitempty"`
	Limits  *Limits  `json:"limits,omitempty"`
	LPRange *LPRange `json:"lp_range,omitempty"`
	Reason  string   `json:"reason,omitempty" binding:"omitempty,max=500"`
}

type PolicyMeta struct {
	RiskProfile          string `json:"risk_profile" binding:"required,oneof=CANARY PROD"`
	RequiresHumanConfirm bool   `json:"requires_human_confirm"`
	KillSwitchOK         bool   `json:"kill_switch_ok"`
}

type IntentMeta struct {
	CorrelationID string `json:"correlation_id,omitempty"`
	Source        string `json:"source" binding:"required,oneof=MoneyPenny"`
}

// Intent is a caller-proposed trading action awaiting policy evaluation.
// Structural validation happens at bind time; economic validation is the
// evaluator's job.
type Intent struct {
	IntentID  string        `json:"intent_id" binding:"required,uuid"`
	TenantID  string        `json:"tenant_id" binding:"required"`
	CreatedAt time.Time     `json:"created_at" binding:"required"`
	Actor     Actor         `json:"actor" binding:"required"`
	Kind      string        `json:"kind" binding:"required,oneof=REBALANCE PLACE_ORDER CANCEL SET_PARAM QUERY"`
	Details   IntentDetails `json:"details"`
	Policy    PolicyMeta    `json:"policy" binding:"required"`
	Meta      IntentMeta    `json:"meta" binding:"required"`
}

// Notional returns the USD-equivalent size, 0 when absent.
func (i *Intent) Notional() float64 {
	if i.Details.Size == nil {
		return 0
	}
	return i.Details.Size.Notional
}
