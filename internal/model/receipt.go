package model

import "time"

// Receipt decisions
const (
	DecisionPolicyOK = "POLICY_OK"
	DecisionRejected = "REJECTED"
)

// PolicyReceipt is the append-only audit record of one evaluation
// outcome. Never mutated after insert.
type PolicyReceipt struct {
	IntentID      string    `json:"intent_id" db:"intent_id"`
	Decision      string    `json:"decision" db:"decision"`
	Reason        string    `json:"reason" db:"reason"`
	FeesBps       float64   `json:"fees_bps" db:"fees_bps"`
	GasBps        float64   `json:"gas_bps" db:"gas_bps"`
	ComputedFloor float64   `json:"computed_floor" db:"computed_floor"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// RuntimeOverride is a per-tenant numeric override of one policy key.
// Upsert semantics on (tenant_id, key).
type RuntimeOverride struct {
	TenantID  string    `json:"tenant_id" db:"tenant_id"`
	Key       string    `json:"key" db:"key"`
	Value     float64   `json:"value_num" db:"value_num"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
