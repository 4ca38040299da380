package diagnostics

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Sample is the resource usage recorded after one leak check.
type Sample struct {
	Timestamp      time.Time `json:"timestamp"`
	Example        string    `json:"example"`
	OpenFDs        int       `json:"open_fds"`
	MaxFDs         int       `json:"max_fds"`
	FDUsagePercent float64   `json:"fd_usage_percent"`
	Goroutines     int       `json:"goroutines"`
	HeapAllocMB    float64   `json:"heap_alloc_mb"`
	Leaks          int       `json:"leaks"`
}

// ResourceTrend captures resource growth across the recorded checks.
type ResourceTrend struct {
	Checks              int      // Samples the trend was computed from
	FDGrowthPerCheck    float64  // Average descriptor growth per example
	GoroutineGrowthRate float64  // Average goroutine growth per example
	MemoryGrowthMB      float64  // Heap growth between first and last sample
	IsHealthy           bool     // Overall health assessment
	Warnings            []string // Trend-based warnings
}

// HealthWarning represents a single health concern.
type HealthWarning struct {
	Level   string  // "warning" or "critical"
	Type    string  // "fd", "goroutine", "memory"
	Message string  // Human-readable description
	Value   float64 // Current value
	Limit   float64 // Threshold that was exceeded
}

// MonitorOptions configures a ResourceMonitor. Zero thresholds disable the
// corresponding health check.
type MonitorOptions struct {
	HistorySize        int
	FDThresholdPercent int
	GoroutineThreshold int
	MemoryThresholdMB  int
}

// ResourceMonitor records process resource usage after every leak check so
// slow growth that no single example is responsible for still shows up.
type ResourceMonitor struct {
	fdThresholdPercent int
	goroutineThreshold int
	memoryThresholdMB  int
	historySize        int
	logger             *slog.Logger

	history []Sample
	mu      sync.RWMutex

	checks  atomic.Int64
	leaks   atomic.Int64
	started time.Time
}

// NewResourceMonitor creates a new resource monitor.
func NewResourceMonitor(opts MonitorOptions, logger *slog.Logger) *ResourceMonitor {
	if opts.HistorySize <= 0 {
		opts.HistorySize = 500
	}

	return &ResourceMonitor{
		fdThresholdPercent: opts.FDThresholdPercent,
		goroutineThreshold: opts.GoroutineThreshold,
		memoryThresholdMB:  opts.MemoryThresholdMB,
		historySize:        opts.HistorySize,
		logger:             logger,
		history:            make([]Sample, 0, opts.HistorySize),
		started:            time.Now(),
	}
}

// Record samples current usage after the check of example and logs any
// threshold that is exceeded.
func (m *ResourceMonitor) Record(example string, leaks int) Sample {
	s := m.TakeSample()
	s.Example = example
	s.Leaks = leaks

	m.checks.Add(1)
	m.leaks.Add(int64(leaks))
	m.recordSample(s)

	if m.logger != nil {
		for _, w := range m.CheckHealth() {
			m.logger.Warn("resource warning",
				"type", w.Type,
				"level", w.Level,
				"value", w.Value,
				"limit", w.Limit,
				"message", w.Message,
				"example", example,
			)
		}
	}
	return s
}

// TakeSample captures current resource usage without recording it.
func (m *ResourceMonitor) TakeSample() Sample {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	openFDs, maxFDs := CountFDs()
	fdPercent := 0.0
	if maxFDs > 0 {
		fdPercent = float64(openFDs) / float64(maxFDs) * 100
	}

	return Sample{
		Timestamp:      time.Now(),
		OpenFDs:        openFDs,
		MaxFDs:         maxFDs,
		FDUsagePercent: fdPercent,
		Goroutines:     runtime.NumGoroutine(),
		HeapAllocMB:    float64(memStats.HeapAlloc) / 1024 / 1024,
	}
}

func (m *ResourceMonitor) recordSample(s Sample) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = append(m.history, s)
	if len(m.history) > m.historySize {
		m.history = m.history[len(m.history)-m.historySize:]
	}
}

// GetHistory returns the recorded samples, oldest first.
func (m *ResourceMonitor) GetHistory() []Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]Sample, len(m.history))
	copy(result, m.history)
	return result
}

// GetLatest returns the most recent sample.
func (m *ResourceMonitor) GetLatest() (Sample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.history) == 0 {
		return Sample{}, false
	}
	return m.history[len(m.history)-1], true
}

// Minimum samples before growth is judged, and the per-example growth that
// counts as a trend.
const (
	trendMinSamples      = 20
	fdGrowthLimit        = 0.5
	goroutineGrowthLimit = 1.0
	memoryGrowthLimitMB  = 256.0
)

// GetTrend analyzes the recorded samples for steady growth.
func (m *ResourceMonitor) GetTrend() ResourceTrend {
	history := m.GetHistory()
	if len(history) < trendMinSamples {
		return ResourceTrend{Checks: len(history), IsHealthy: true}
	}

	first := history[0]
	last := history[len(history)-1]
	steps := float64(len(history) - 1)

	trend := ResourceTrend{
		Checks:              len(history),
		FDGrowthPerCheck:    float64(last.OpenFDs-first.OpenFDs) / steps,
		GoroutineGrowthRate: float64(last.Goroutines-first.Goroutines) / steps,
		MemoryGrowthMB:      last.HeapAllocMB - first.HeapAllocMB,
		IsHealthy:           true,
	}

	if trend.FDGrowthPerCheck > fdGrowthLimit {
		trend.IsHealthy = false
		trend.Warnings = append(trend.Warnings,
			fmt.Sprintf("FD count growing by %.2f per example (potential leak)", trend.FDGrowthPerCheck))
	}
	if trend.GoroutineGrowthRate > goroutineGrowthLimit {
		trend.IsHealthy = false
		trend.Warnings = append(trend.Warnings,
			fmt.Sprintf("Goroutine count growing by %.2f per example (potential leak)", trend.GoroutineGrowthRate))
	}
	if trend.MemoryGrowthMB > memoryGrowthLimitMB {
		trend.IsHealthy = false
		trend.Warnings = append(trend.Warnings,
			fmt.Sprintf("Heap grew by %.1f MB over %d examples", trend.MemoryGrowthMB, len(history)))
	}

	return trend
}

// Checks returns how many checks were recorded.
func (m *ResourceMonitor) Checks() int64 { return m.checks.Load() }

// Leaks returns how many leak messages were recorded.
func (m *ResourceMonitor) Leaks() int64 { return m.leaks.Load() }

// CheckHealth compares the latest sample against the configured thresholds.
// A value past the critical bound is reported as "critical".
func (m *ResourceMonitor) CheckHealth() []HealthWarning {
	latest, ok := m.GetLatest()
	if !ok {
		latest = m.TakeSample()
	}

	var warnings []HealthWarning
	add := func(kind string, value float64, limit int, critical float64, msg string) {
		if limit <= 0 || value <= float64(limit) {
			return
		}
		w := HealthWarning{Level: "warning", Type: kind, Message: msg, Value: value, Limit: float64(limit)}
		if value > critical {
			w.Level = "critical"
		}
		warnings = append(warnings, w)
	}

	add("fd", latest.FDUsagePercent, m.fdThresholdPercent, 90,
		fmt.Sprintf("descriptor table %.1f%% full (threshold: %d%%)", latest.FDUsagePercent, m.fdThresholdPercent))
	add("goroutine", float64(latest.Goroutines), m.goroutineThreshold, float64(m.goroutineThreshold)*2,
		fmt.Sprintf("%d goroutines alive (threshold: %d)", latest.Goroutines, m.goroutineThreshold))
	add("memory", latest.HeapAllocMB, m.memoryThresholdMB, float64(m.memoryThresholdMB)*1.5,
		fmt.Sprintf("heap at %.1f MB (threshold: %d MB)", latest.HeapAllocMB, m.memoryThresholdMB))

	return warnings
}

// Uptime returns how long the monitor has been running.
func (m *ResourceMonitor) Uptime() time.Duration {
	return time.Since(m.started)
}
