package repository

import (
	"context"
	"errors"
	"time"

	"github.com/moneypenny/pennygate/internal/model"
)

// ErrDuplicateIntent is returned when an intent_id collides at insert.
// The evaluator surfaces it as its own error kind, never as an
// overwrite.
var ErrDuplicateIntent = errors.New("duplicate intent_id")

// Store is the persistence contract the gateway is written against.
// Two implementations exist: Postgres for production and Memory for
// tests and DSN-less runs. Selection happens at startup, never by
// inspecting queries.
type Store interface {
	InsertIntent(ctx context.Context, intent *model.Intent, requiresHumanConfirm bool) error
	InsertReceipt(ctx context.Context, receipt *model.PolicyReceipt) error
	ListReceipts(ctx context.Context, intentID string) ([]*model.PolicyReceipt, error)

	UpsertRuntimeOverride(ctx context.Context, tenantID, key string, value float64) error
	GetRuntimeOverrides(ctx context.Context, tenantID string) ([]model.RuntimeOverride, error)
	GetRuntimeOverride(ctx context.Context, tenantID, key string) (float64, bool, error)

	InsertIntentEvent(ctx context.Context, event *model.IntentEvent) error
	InsertFill(ctx context.Context, fill *model.Fill) error

	InsertGovernance(ctx context.Context, entry *model.GovernanceEntry) error
	ListGovernance(ctx context.Context, tenantID string, limit int) ([]*model.GovernanceEntry, error)

	InsertGasSnapshot(ctx context.Context, chain string, gasUsd float64) error
	RecentGasUsd(ctx context.Context, chain string, lookback time.Duration) ([]float64, error)
}
