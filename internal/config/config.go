package config

import (
	"time"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
)

// Config holds all leakspec configuration.
type Config struct {
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
	Checks     ChecksConfig     `mapstructure:"checks" yaml:"checks"`
	Subprocess SubprocessConfig `mapstructure:"subprocess" yaml:"subprocess"`
	Goroutines GoroutinesConfig `mapstructure:"goroutines" yaml:"goroutines"`
	NSS        NSSConfig        `mapstructure:"nss" yaml:"nss"`
	Report     ReportConfig     `mapstructure:"report" yaml:"report"`
	Metrics    MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Monitor    MonitorConfig    `mapstructure:"monitor" yaml:"monitor"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=auto text json"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// ChecksConfig enables or disables each check category.
type ChecksConfig struct {
	Descriptors  bool `mapstructure:"descriptors" yaml:"descriptors"`
	TempFiles    bool `mapstructure:"tempfiles" yaml:"tempfiles"`
	Threads      bool `mapstructure:"threads" yaml:"threads"`
	Goroutines   bool `mapstructure:"goroutines" yaml:"goroutines"`
	Subprocesses bool `mapstructure:"subprocesses" yaml:"subprocesses"`
	Environment  bool `mapstructure:"environment" yaml:"environment"`
	Argv         bool `mapstructure:"argv" yaml:"argv"`
	Flags        bool `mapstructure:"flags" yaml:"flags"`
	Encodings    bool `mapstructure:"encodings" yaml:"encodings"`
	Workdir      bool `mapstructure:"workdir" yaml:"workdir"`
	Tracepoints  bool `mapstructure:"tracepoints" yaml:"tracepoints"`
}

// SubprocessConfig configures child reaping.
type SubprocessConfig struct {
	ReapGrace string `mapstructure:"reap_grace" yaml:"reap_grace" validate:"required"`
}

// GoroutinesConfig configures the untracked goroutine check.
type GoroutinesConfig struct {
	IgnoreFunctions []string `mapstructure:"ignore_functions" yaml:"ignore_functions" validate:"dive,required"`
}

// NSSConfig configures the name-service override applied at suite start.
type NSSConfig struct {
	Normalize bool `mapstructure:"normalize" yaml:"normalize"`
}

// ReportConfig configures the suite report file.
type ReportConfig struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// MetricsConfig configures the Prometheus textfile.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile,omitempty"`
}

// MonitorConfig configures the per-check resource history.
type MonitorConfig struct {
	Enabled            bool `mapstructure:"enabled" yaml:"enabled"`
	HistorySize        int  `mapstructure:"history_size" yaml:"history_size" validate:"gte=1,lte=100000"`
	FDThresholdPercent int  `mapstructure:"fd_threshold_percent" yaml:"fd_threshold_percent" validate:"gte=0,lte=100"`
	GoroutineThreshold int  `mapstructure:"goroutine_threshold" yaml:"goroutine_threshold" validate:"gte=0"`
	MemoryThresholdMB  int  `mapstructure:"memory_threshold_mb" yaml:"memory_threshold_mb" validate:"gte=0"`
}

// EnabledChecks maps each check category to whether it runs.
func (c ChecksConfig) EnabledChecks() map[string]bool {
	return map[string]bool{
		core.CheckDescriptors:  c.Descriptors,
		core.CheckTempFiles:    c.TempFiles,
		core.CheckThreads:      c.Threads,
		core.CheckGoroutines:   c.Goroutines,
		core.CheckSubprocesses: c.Subprocesses,
		core.CheckEnvironment:  c.Environment,
		core.CheckArgv:         c.Argv,
		core.CheckFlags:        c.Flags,
		core.CheckEncodings:    c.Encodings,
		core.CheckWorkdir:      c.Workdir,
		core.CheckTracepoints:  c.Tracepoints,
	}
}

// ReapGraceDuration parses ReapGrace, returning def when it is empty or
// malformed. Validate rejects malformed values before this is reached.
func (c SubprocessConfig) ReapGraceDuration(def time.Duration) time.Duration {
	d, err := time.ParseDuration(c.ReapGrace)
	if err != nil || d < 0 {
		return def
	}
	return d
}
