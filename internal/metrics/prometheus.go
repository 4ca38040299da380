// Package metrics exposes leak-check counters in the Prometheus format. The
// collector is fed through the checker's observer hooks and written to a
// node_exporter textfile at the end of a suite.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
	"github.com/hugo-lorenzo-mato/leakspec/internal/diagnostics"
)

const namespace = "leakspec"

// LeakCollector counts leaks and checked examples. Metrics are registered in
// a dedicated registry so they do not interfere with the default global
// registry of the code under test.
type LeakCollector struct {
	registry *prometheus.Registry

	leaks         *prometheus.CounterVec
	examples      prometheus.Counter
	failures      prometheus.Counter
	checkDuration prometheus.Histogram

	openFDs    prometheus.Gauge
	goroutines prometheus.Gauge
}

// NewLeakCollector creates a collector with every check category
// pre-initialised to zero.
func NewLeakCollector() *LeakCollector {
	reg := prometheus.NewRegistry()

	leaks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "leaks_total",
		Help:      "Leaked resources detected, by check category.",
	}, []string{"check"})

	examples := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "examples_checked_total",
		Help:      "Examples checked for leaks.",
	})

	failures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "examples_failed_total",
		Help:      "Examples that leaked at least one resource.",
	})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "check_duration_seconds",
		Help:      "Time spent checking one example.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
	})

	openFDs := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "open_fds",
		Help:      "Open file descriptors when the metrics were last synced.",
	})

	goroutines := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "goroutines",
		Help:      "Live goroutines when the metrics were last synced.",
	})

	reg.MustRegister(leaks)
	reg.MustRegister(examples)
	reg.MustRegister(failures)
	reg.MustRegister(duration)
	reg.MustRegister(openFDs)
	reg.MustRegister(goroutines)

	for _, check := range core.Checks {
		leaks.WithLabelValues(check)
	}

	return &LeakCollector{
		registry:      reg,
		leaks:         leaks,
		examples:      examples,
		failures:      failures,
		checkDuration: duration,
		openFDs:       openFDs,
		goroutines:    goroutines,
	}
}

// Registry returns the Prometheus registry used by this collector.
func (c *LeakCollector) Registry() *prometheus.Registry {
	return c.registry
}

// LeakFound counts one leak in check.
func (c *LeakCollector) LeakFound(check, _ string) {
	c.leaks.WithLabelValues(check).Inc()
}

// ExampleChecked counts a checked example and its check latency.
func (c *LeakCollector) ExampleChecked(_ string, leaks []string, elapsed time.Duration) {
	c.examples.Inc()
	if len(leaks) > 0 {
		c.failures.Inc()
	}
	c.checkDuration.Observe(elapsed.Seconds())
}

// Sync refreshes the process gauges.
func (c *LeakCollector) Sync() {
	open, _ := diagnostics.CountFDs()
	c.openFDs.Set(float64(open))
	c.goroutines.Set(float64(runtime.NumGoroutine()))
}

// WriteTextfile syncs the gauges and atomically writes the registry to path
// in the text exposition format.
func (c *LeakCollector) WriteTextfile(path string) error {
	c.Sync()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
