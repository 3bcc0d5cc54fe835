package repository

import (
	"context"

	"github.com/moneypenny/pennygate/internal/model"
)

func (r *Postgres) InsertIntentEvent(ctx context.Context, event *model.IntentEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO intent_events (intent_id, status, tx_hash, raw, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, event.IntentID, event.Status, nullable(event.TxHash), event.Raw, timeOrNow(event.CreatedAt))
	return err
}

func (r *Postgres) InsertFill(ctx context.Context, fill *model.Fill) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fills (intent_id, chain, venue, side, qty_qct, price_usdc, fee_usdc, gas_usd, tx_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, fill.IntentID, fill.Chain, fill.Venue, fill.Side, fill.QtyQct, fill.PriceUsdc, fill.FeeUsdc, fill.GasUsd,
		nullable(fill.TxHash), timeOrNow(fill.CreatedAt))
	return err
}

func (r *Postgres) InsertGovernance(ctx context.Context, entry *model.GovernanceEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO governance_log (id, tenant_id, actor, action, details, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, entry.ID, entry.TenantID, entry.Actor, entry.Action, entry.Details, timeOrNow(entry.CreatedAt))
	return err
}

func (r *Postgres) ListGovernance(ctx context.Context, tenantID string, limit int) ([]*model.GovernanceEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := `SELECT id, tenant_id, actor, action, details, created_at FROM governance_log`
	args := []interface{}{}
	if tenantID != "" {
		query += ` WHERE tenant_id = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, tenantID, limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*model.GovernanceEntry
	for rows.Next() {
		var e model.GovernanceEntry
		if err := rows.StructScan(&e); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *Postgres) ensureEventSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS intent_events (
			id BIGSERIAL PRIMARY KEY,
			intent_id TEXT NOT NULL,
			status TEXT NOT NULL,
			tx_hash TEXT,
			raw TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS fills (
			id BIGSERIAL PRIMARY KEY,
			intent_id TEXT NOT NULL,
			chain TEXT,
			venue TEXT,
			side TEXT,
			qty_qct DOUBLE PRECISION,
			price_usdc DOUBLE PRECISION,
			fee_usdc DOUBLE PRECISION,
			gas_usd DOUBLE PRECISION,
			tx_hash TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS governance_log (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			actor TEXT,
			action TEXT NOT NULL,
			details TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_intent_events_intent ON intent_events(intent_id, created_at)`)
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_governance_tenant ON governance_log(tenant_id, created_at DESC)`)
	return nil
}
