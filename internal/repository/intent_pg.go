package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/moneypenny/pennygate/internal/model"
)

// Postgres implements Store on sqlx/pgx. Schema is ensured at
// construction; failures there surface on first use.
type Postgres struct {
	db *sqlx.DB
}

func NewPostgres(db *sqlx.DB) *Postgres {
	repo := &Postgres{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *Postgres) InsertIntent(ctx context.Context, intent *model.Intent, requiresHumanConfirm bool) error {
	d := intent.Details
	var (
		notional, currency       interface{}
		lpLower, lpUpper         interface{}
		slippage, edge, deadline interface{}
	)
	if d.Size != nil {
		notional, currency = d.Size.Notional, d.Size.Currency
	}
	if d.Limits != nil {
		slippage, edge, deadline = d.Limits.MaxSlippageBps, d.Limits.MinEdgeBps, d.Limits.DeadlineS
	}
	if d.LPRange != nil {
		lpLower, lpUpper = d.LPRange.Lower, d.LPRange.Upper
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO intents (
			intent_id, tenant_id, created_at, actor_type, actor_name, kind,
			chain, venue, symbol, side, size_notional, size_currency,
			max_slippage_bps, min_edge_bps, deadline_s,
			lp_lower, lp_upper, reason,
			risk_profile, requires_human_confirm, kill_switch_ok,
			correlation_id, source
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,$11,$12,
			$13,$14,$15,
			$16,$17,$18,
			$19,$20,$21,
			$22,$23
		)
	`, intent.IntentID, intent.TenantID, intent.CreatedAt, intent.Actor.Type, intent.Actor.Name, intent.Kind,
		nullable(d.Chain), nullable(d.Venue), nullable(d.Symbol), nullable(d.Side), notional, currency,
		slippage, edge, deadline,
		lpLower, lpUpper, nullable(d.Reason),
		intent.Policy.RiskProfile, requiresHumanConfirm, intent.Policy.KillSwitchOK,
		nullable(intent.Meta.CorrelationID), intent.Meta.Source)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateIntent
		}
		return err
	}
	return nil
}

func (r *Postgres) InsertReceipt(ctx context.Context, receipt *model.PolicyReceipt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO policy_receipts (intent_id, decision, reason, fees_bps, gas_bps, computed_floor, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, receipt.IntentID, receipt.Decision, receipt.Reason, receipt.FeesBps, receipt.GasBps, receipt.ComputedFloor, timeOrNow(receipt.CreatedAt))
	return err
}

func (r *Postgres) ListReceipts(ctx context.Context, intentID string) ([]*model.PolicyReceipt, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT intent_id, decision, reason, fees_bps, gas_bps, computed_floor, created_at
		FROM policy_receipts WHERE intent_id = $1 ORDER BY created_at ASC
	`, intentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []*model.PolicyReceipt
	for rows.Next() {
		var rec model.PolicyReceipt
		if err := rows.StructScan(&rec); err != nil {
			return nil, err
		}
		receipts = append(receipts, &rec)
	}
	return receipts, rows.Err()
}

func (r *Postgres) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS intents (
			intent_id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			actor_type TEXT,
			actor_name TEXT,
			kind TEXT NOT NULL,
			chain TEXT,
			venue TEXT,
			symbol TEXT,
			side TEXT,
			size_notional DOUBLE PRECISION,
			size_currency TEXT,
			max_slippage_bps DOUBLE PRECISION,
			min_edge_bps DOUBLE PRECISION,
			deadline_s DOUBLE PRECISION,
			lp_lower DOUBLE PRECISION,
			lp_upper DOUBLE PRECISION,
			reason TEXT,
			risk_profile TEXT,
			requires_human_confirm BOOLEAN,
			kill_switch_ok BOOLEAN,
			correlation_id TEXT,
			source TEXT
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_intents_tenant ON intents(tenant_id, created_at DESC)`)

	_, err = r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS policy_receipts (
			id BIGSERIAL PRIMARY KEY,
			intent_id TEXT NOT NULL,
			decision TEXT NOT NULL,
			reason TEXT,
			fees_bps DOUBLE PRECISION,
			gas_bps DOUBLE PRECISION,
			computed_floor DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return err
	}
	_, _ = r.db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_receipts_intent ON policy_receipts(intent_id, created_at)`)

	if err := r.ensureKVSchema(ctx); err != nil {
		return err
	}
	return r.ensureEventSchema(ctx)
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func timeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
