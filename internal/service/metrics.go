package service

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	TradeExecutions *prometheus.CounterVec
	TradeLatency    *prometheus.HistogramVec
	TradeRetries    prometheus.Counter
	AuthAttempts    *prometheus.CounterVec
	QuoteCacheHits  *prometheus.CounterVec
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		TradeExecutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trade_executions_total",
				Help: "Total trade execution attempts.",
			},
			[]string{"side", "status"},
		),
		TradeLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trade_execution_latency_seconds",
				Help:    "Trade execution latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"side"},
		),
		TradeRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trade_conflict_retries_total",
				Help: "Trades retried after a serialization conflict.",
			},
		),
		AuthAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_attempts_total",
				Help: "Total login and registration attempts.",
			},
			[]string{"operation", "status"},
		),
		QuoteCacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quote_cache_requests_total",
				Help: "Quote cache lookups by outcome.",
			},
			[]string{"outcome"},
		),
	}

	registry.MustRegister(
		m.TradeExecutions,
		m.TradeLatency,
		m.TradeRetries,
		m.AuthAttempts,
		m.QuoteCacheHits,
	)
	return m
}
