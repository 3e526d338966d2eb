package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type engineMetrics struct {
	ops    *prometheus.CounterVec
	errors *prometheus.CounterVec
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *engineMetrics
)

// EngineMetrics returns the lazily-initialised counters used to record
// engine transition activity. Library code only increments counters; serving
// /metrics is left to the embedding process.
func EngineMetrics() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	m := metrics()
	registry.MustRegister(m.ops, m.errors)
	return registry
}

func metrics() *engineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &engineMetrics{
			ops: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "vault",
				Subsystem: "engine",
				Name:      "ops_total",
				Help:      "Total engine transitions segmented by module, operation and outcome.",
			}, []string{"module", "op", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "vault",
				Subsystem: "engine",
				Name:      "errors_total",
				Help:      "Total failed engine transitions segmented by module and operation.",
			}, []string{"module", "op"}),
		}
	})
	return engineRegistry
}

// ObserveOp records the outcome of one engine transition. Intended to be
// deferred with a pointer to the named error return.
func ObserveOp(module, op string, err *error) {
	m := metrics()
	outcome := "ok"
	if err != nil && *err != nil {
		outcome = "error"
		m.errors.WithLabelValues(module, op).Inc()
	}
	m.ops.WithLabelValues(module, op, outcome).Inc()
}
