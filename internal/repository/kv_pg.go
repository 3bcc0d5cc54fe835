package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/moneypenny/pennygate/internal/model"
)

func (r *Postgres) UpsertRuntimeOverride(ctx context.Context, tenantID, key string, value float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_runtime (tenant_id, key, value_num, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (tenant_id, key)
		DO UPDATE SET value_num = $3, updated_at = now()
	`, tenantID, key, value)
	return err
}

func (r *Postgres) GetRuntimeOverrides(ctx context.Context, tenantID string) ([]model.RuntimeOverride, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT tenant_id, key, value_num, updated_at FROM kv_runtime WHERE tenant_id = $1
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []model.RuntimeOverride
	for rows.Next() {
		var o model.RuntimeOverride
		if err := rows.StructScan(&o); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

func (r *Postgres) GetRuntimeOverride(ctx context.Context, tenantID, key string) (float64, bool, error) {
	var value float64
	err := r.db.QueryRowxContext(ctx, `
		SELECT value_num FROM kv_runtime WHERE tenant_id = $1 AND key = $2
	`, tenantID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return value, true, nil
}

func (r *Postgres) InsertGasSnapshot(ctx context.Context, chain string, gasUsd float64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO gas_snapshots (chain, gas_usd, ts) VALUES ($1, $2, now())
	`, chain, gasUsd)
	return err
}

func (r *Postgres) RecentGasUsd(ctx context.Context, chain string, lookback time.Duration) ([]float64, error) {
	cutoff := time.Now().UTC().Add(-lookback)
	rows, err := r.db.QueryxContext(ctx, `
		SELECT gas_usd FROM gas_snapshots WHERE chain = $1 AND ts > $2
	`, chain, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		samples = append(samples, v)
	}
	return samples, rows.Err()
}

func (r *Postgres) ensureKVSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_runtime (
			tenant_id TEXT NOT NULL,
			key TEXT NOT NULL,
			value_num DOUBLE PRECISION NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (tenant_id, key)
		)
	`)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS gas_snapshots (
			id BIGSERIAL PRIMARY KEY,
			chain TEXT NOT NULL,
			gas_usd DOUBLE PRECISION NOT NULL,
			ts TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_gas_snapshots_chain ON gas_snapshots(chain, ts DESC)`)
	return nil
}
