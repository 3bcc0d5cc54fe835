package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/moneypenny/pennygate/internal/model"
)

type gasSample struct {
	usd float64
	ts  time.Time
}

// Memory is the map-backed Store used in tests and DSN-less runs.
type Memory struct {
	mu         sync.RWMutex
	intents    map[string]*model.Intent
	receipts   map[string][]*model.PolicyReceipt
	kv         map[string]map[string]model.RuntimeOverride // tenant -> key -> row
	events     []*model.IntentEvent
	fills      []*model.Fill
	governance []*model.GovernanceEntry
	gas        map[string][]gasSample
}

func NewMemory() *Memory {
	return &Memory{
		intents:  make(map[string]*model.Intent),
		receipts: make(map[string][]*model.PolicyReceipt),
		kv:       make(map[string]map[string]model.RuntimeOverride),
		gas:      make(map[string][]gasSample),
	}
}

func (m *Memory) InsertIntent(_ context.Context, intent *model.Intent, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.intents[intent.IntentID]; exists {
		return ErrDuplicateIntent
	}
	cp := *intent
	m.intents[intent.IntentID] = &cp
	return nil
}

func (m *Memory) GetIntent(intentID string) (*model.Intent, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i, ok := m.intents[intentID]
	return i, ok
}

func (m *Memory) InsertReceipt(_ context.Context, receipt *model.PolicyReceipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *receipt
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.receipts[cp.IntentID] = append(m.receipts[cp.IntentID], &cp)
	return nil
}

func (m *Memory) ListReceipts(_ context.Context, intentID string) ([]*model.PolicyReceipt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.PolicyReceipt, len(m.receipts[intentID]))
	copy(out, m.receipts[intentID])
	return out, nil
}

func (m *Memory) UpsertRuntimeOverride(_ context.Context, tenantID, key string, value float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.kv[tenantID]
	if !ok {
		rows = make(map[string]model.RuntimeOverride)
		m.kv[tenantID] = rows
	}
	rows[key] = model.RuntimeOverride{
		TenantID:  tenantID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return nil
}

func (m *Memory) GetRuntimeOverrides(_ context.Context, tenantID string) ([]model.RuntimeOverride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.kv[tenantID]
	out := make([]model.RuntimeOverride, 0, len(rows))
	for _, row := range rows {
		out = append(out, row)
	}
	// Stable order keeps merge results deterministic.
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) GetRuntimeOverride(_ context.Context, tenantID, key string) (float64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	row, ok := m.kv[tenantID][key]
	if !ok {
		return 0, false, nil
	}
	return row.Value, true, nil
}

func (m *Memory) InsertIntentEvent(_ context.Context, event *model.IntentEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.events = append(m.events, &cp)
	return nil
}

func (m *Memory) InsertFill(_ context.Context, fill *model.Fill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *fill
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.fills = append(m.fills, &cp)
	return nil
}

func (m *Memory) Events() []*model.IntentEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.IntentEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *Memory) Fills() []*model.Fill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Fill, len(m.fills))
	copy(out, m.fills)
	return out
}

func (m *Memory) InsertGovernance(_ context.Context, entry *model.GovernanceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	m.governance = append(m.governance, &cp)
	return nil
}

func (m *Memory) ListGovernance(_ context.Context, tenantID string, limit int) ([]*model.GovernanceEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	out := make([]*model.GovernanceEntry, 0, limit)
	for i := len(m.governance) - 1; i >= 0 && len(out) < limit; i-- {
		e := m.governance[i]
		if tenantID != "" && e.TenantID != tenantID {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *Memory) InsertGasSnapshot(_ context.Context, chain string, gasUsd float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gas[chain] = append(m.gas[chain], gasSample{usd: gasUsd, ts: time.Now().UTC()})
	// Bound the per-chain history; the oracle only reads a short window.
	if n := len(m.gas[chain]); n > 512 {
		m.gas[chain] = m.gas[chain][n-512:]
	}
	return nil
}

func (m *Memory) RecentGasUsd(_ context.Context, chain string, lookback time.Duration) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := time.Now().UTC().Add(-lookback)
	var out []float64
	for _, s := range m.gas[chain] {
		if s.ts.After(cutoff) {
			out = append(out, s.usd)
		}
	}
	return out, nil
}
