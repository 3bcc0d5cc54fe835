package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	IntentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pennygate_intents_total",
		Help: "The total number of intents evaluated",
	}, []string{"decision", "kind"})

	PolicyRejects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pennygate_policy_rejects_total",
		Help: "Total policy evaluator rejections",
	}, []string{"reason"})

	LatencyBucket = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pennygate_latency_bucket",
		Help:    "Request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	ForwardFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pennygate_forward_failures_total",
		Help: "Total failed forward attempts to the execution agent",
	})

	GasSamples = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pennygate_gas_samples_total",
		Help: "Total gas oracle samples taken",
	}, []string{"chain"})
)
