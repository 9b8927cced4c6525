// Package metrics provides lazily-registered Prometheus counters and
// gauges, following the teacher's metrics.LazyLoadCounter convention
// (referenced by bft/metrics.go: "metrics.LazyLoadCounter(\"bft_committed_count\")").
// Lazy registration lets call sites declare a metric as a package-level
// var without requiring an init-order-sensitive registry setup.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.Mutex
	counters = map[string]prometheus.Counter{}
	gauges   = map[string]prometheus.Gauge{}
)

// LazyLoadCounter returns a function that, on first call, registers and
// caches a counter with the given name, and on every call returns it
// (callers increment it themselves).
func LazyLoadCounter(name string) func() prometheus.Counter {
	return func() prometheus.Counter {
		mu.Lock()
		defer mu.Unlock()
		if c, ok := counters[name]; ok {
			return c
		}
		c := prometheus.NewCounter(prometheus.CounterOpts{
			Name: name,
			Help: name,
		})
		_ = prometheus.Register(c)
		counters[name] = c
		return c
	}
}

// LazyLoadGauge is the gauge analogue of LazyLoadCounter.
func LazyLoadGauge(name string) func() prometheus.Gauge {
	return func() prometheus.Gauge {
		mu.Lock()
		defer mu.Unlock()
		if g, ok := gauges[name]; ok {
			return g
		}
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: name,
			Help: name,
		})
		_ = prometheus.Register(g)
		gauges[name] = g
		return g
	}
}
