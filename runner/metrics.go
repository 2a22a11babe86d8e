package runner

import (
	"time"

	"github.com/NethermindEth/fanout/fanout"
	"github.com/NethermindEth/fanout/metrics"
)

func makeFanoutMetrics(factory metrics.Factory) fanout.EventListener {
	attempts := factory.NewCounterVec(metrics.CounterOpts{
		Namespace: "fanout",
		Name:      "attempts",
		Help:      "Driven attempts by outcome.",
	}, []string{"outcome"})
	attemptLatency := factory.NewHistogramVec(metrics.HistogramOpts{
		Namespace: "fanout",
		Name:      "attempt_latency",
		Help:      "Attempt duration in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"outcome"})
	rounds := factory.NewCounter(metrics.CounterOpts{
		Namespace: "fanout",
		Name:      "retry_rounds",
	})
	pending := factory.NewGauge(metrics.GaugeOpts{
		Namespace: "fanout",
		Name:      "pending_attempts",
	})
	items := factory.NewCounter(metrics.CounterOpts{
		Namespace: "fanout",
		Subsystem: "broadcast",
		Name:      "items",
	})

	return &fanout.SelectiveListener{
		OnAttemptCb: func(outcome string, took time.Duration) {
			attempts.WithLabelValues(outcome).Inc()
			attemptLatency.WithLabelValues(outcome).Observe(took.Seconds())
		},
		OnRetryRoundCb: func(round, size int) {
			rounds.Inc()
			pending.Set(float64(size))
		},
		OnBroadcastCb: func(n int) {
			items.Add(float64(n))
		},
	}
}
