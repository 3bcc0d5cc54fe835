package oracle

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/moneypenny/pennygate/internal/pkg/logger"
	"github.com/moneypenny/pennygate/internal/pkg/metrics"
)

// Store is the slice of the repository the oracle needs.
type Store interface {
	InsertGasSnapshot(ctx context.Context, chain string, gasUsd float64) error
	RecentGasUsd(ctx context.Context, chain string, lookback time.Duration) ([]float64, error)
	UpsertRuntimeOverride(ctx context.Context, tenantID, key string, value float64) error
}

// globalTenant is where per-chain medians are published; the cost
// estimator reads them back on every evaluation.
const globalTenant = "__global__"

// Per-chain baseline USD cost of a single swap. Placeholder heuristic;
// a live deployment would swap in on-chain calls or a gas API.
var baselines = map[string]float64{
	"ethereum": 0.65,
	"arbitrum": 0.08,
	"base":     0.05,
	"polygon":  0.03,
	"solana":   0.002,
}

// GasOracle periodically samples per-chain gas costs and publishes a
// rolling median, smoothing out single-sample volatility.
type GasOracle struct {
	store    Store
	chains   []string
	period   time.Duration
	lookback time.Duration
	stopChan chan struct{}
	done     chan struct{}
}

func NewGasOracle(store Store, chains []string, period, lookback time.Duration) *GasOracle {
	if period <= 0 {
		period = 30 * time.Second
	}
	if lookback <= 0 {
		lookback = 10 * time.Minute
	}
	return &GasOracle{
		store:    store,
		chains:   chains,
		period:   period,
		lookback: lookback,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (o *GasOracle) Start() {
	logger.Info("gas oracle started", "chains", o.chains, "period", o.period.String())
	go o.run()
}

func (o *GasOracle) Stop() {
	close(o.stopChan)
	<-o.done
}

func (o *GasOracle) run() {
	defer close(o.done)
	o.tick()
	for {
		// Jittered schedule so replicas don't sample in lockstep.
		delay := o.period + time.Duration(rand.Int63n(int64(5*time.Second)))
		select {
		case <-o.stopChan:
			return
		case <-time.After(delay):
			o.tick()
		}
	}
}

func (o *GasOracle) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, chain := range o.chains {
		gasUsd := sampleGasUsd(chain)
		if err := o.store.InsertGasSnapshot(ctx, chain, gasUsd); err != nil {
			logger.Error("gas snapshot insert failed", "chain", chain, "error", err)
			continue
		}
		metrics.GasSamples.WithLabelValues(chain).Inc()

		samples, err := o.store.RecentGasUsd(ctx, chain, o.lookback)
		if err != nil {
			logger.Error("gas lookback read failed", "chain", chain, "error", err)
			continue
		}
		med := Median(samples)
		if med <= 0 {
			med = gasUsd
		}
		if err := o.store.UpsertRuntimeOverride(ctx, globalTenant, "gas_usd_median_"+chain, med); err != nil {
			logger.Error("gas median publish failed", "chain", chain, "error", err)
			continue
		}
		logger.Debug("gas sampled", "chain", chain, "gas_usd", gasUsd, "median", med)
	}
}

func sampleGasUsd(chain string) float64 {
	base, ok := baselines[chain]
	if !ok {
		base = 0.05
	}
	jitter := (rand.Float64() - 0.5) * base * 0.2
	v := base + jitter
	if v < 0.0005 {
		v = 0.0005
	}
	return v
}

// Median returns the middle of the samples, 0 when empty.
func Median(nums []float64) float64 {
	if len(nums) == 0 {
		return 0
	}
	a := make([]float64, len(nums))
	copy(a, nums)
	sort.Float64s(a)
	mid := len(a) / 2
	if len(a)%2 == 1 {
		return a[mid]
	}
	return (a[mid-1] + a[mid]) / 2
}
