package model

import "time"

// Execution statuses reported by the downstream agent.
const (
	StatusAccepted    = "ACCEPTED"
	StatusRejected    = "REJECTED"
	StatusPartialFill = "PARTIAL_FILL"
	StatusFilled      = "FILLED"
)

// IntentEvent is one status transition reported via webhook.
type IntentEvent struct {
	IntentID  string    `json:"intent_id" db:"intent_id"`
	Status    string    `json:"status" db:"status"`
	TxHash    string    `json:"tx_hash,omitempty" db:"tx_hash"`
	Raw       string    `json:"raw,omitempty" db:"raw"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Fill is the executed-trade record attached to a FILLED event.
type Fill struct {
	IntentID  string    `json:"intent_id" db:"intent_id"`
	Chain     string    `json:"chain" db:"chain"`
	Venue     string    `json:"venue" db:"venue"`
	Side      string    `json:"side" db:"side"`
	QtyQct    float64   `json:"qty_qct" db:"qty_qct"`
	PriceUsdc float64   `json:"price_usdc" db:"price_usdc"`
	FeeUsdc   float64   `json:"fee_usdc" db:"fee_usdc"`
	GasUsd    float64   `json:"gas_usd" db:"gas_usd"`
	TxHash    string    `json:"tx_hash,omitempty" db:"tx_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ExecutionWebhook is the payload the execution agent posts back.
type ExecutionWebhook struct {
	IntentID string `json:"intent_id"`
	Status   string `json:"status"`
	TxHash   string `json:"tx_hash,omitempty"`
	Fill     *Fill  `json:"fill,omitempty"`
}
