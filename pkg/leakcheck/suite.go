package leakcheck

import (
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hugo-lorenzo-mato/leakspec/internal/config"
	"github.com/hugo-lorenzo-mato/leakspec/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/leakspec/internal/leakcheck"
	"github.com/hugo-lorenzo-mato/leakspec/internal/logging"
	"github.com/hugo-lorenzo-mato/leakspec/internal/metrics"
	"github.com/hugo-lorenzo-mato/leakspec/internal/report"
	"github.com/hugo-lorenzo-mato/leakspec/internal/resource"
	"github.com/hugo-lorenzo-mato/leakspec/internal/runner"
)

// Suite checks the examples of one test binary.
type Suite struct {
	cfg      *config.Config
	logger   *logging.Logger
	logFile  io.Closer
	action   *leakcheck.Action
	recorder *report.Recorder
	metrics  *metrics.LeakCollector
	monitor  *diagnostics.ResourceMonitor
}

// NewSuite builds an idle suite from cfg. The baseline is taken by Start.
func NewSuite(cfg *config.Config) (*Suite, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		var verrs config.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, verrs.DomainError()
		}
		return nil, err
	}

	s := &Suite{cfg: cfg, recorder: report.NewRecorder()}

	var out io.Writer = os.Stderr
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		s.logFile = f
		out = f
	}
	s.logger = logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: out,
	}).WithRun(s.recorder.RunID())
	resource.Default().SetLogger(s.logger.Slog())

	observers := []leakcheck.Observer{s.recorder}
	if cfg.Metrics.Textfile != "" {
		s.metrics = metrics.NewLeakCollector()
		observers = append(observers, s.metrics)
	}
	if cfg.Monitor.Enabled {
		s.monitor = diagnostics.NewResourceMonitor(diagnostics.MonitorOptions{
			HistorySize:        cfg.Monitor.HistorySize,
			FDThresholdPercent: cfg.Monitor.FDThresholdPercent,
			GoroutineThreshold: cfg.Monitor.GoroutineThreshold,
			MemoryThresholdMB:  cfg.Monitor.MemoryThresholdMB,
		}, s.logger.Slog())
	}

	s.action = leakcheck.NewAction(leakcheck.ActionOptions{
		Checker: leakcheck.Options{
			Sources:         diagnostics.DefaultSources(),
			Checks:          cfg.Checks.EnabledChecks(),
			ReapGrace:       cfg.Subprocess.ReapGraceDuration(leakcheck.DefaultReapGrace),
			IgnoreFunctions: cfg.Goroutines.IgnoreFunctions,
			Logger:          s.logger.Slog(),
			Observers:       observers,
			Monitor:         s.monitor,
		},
		NormalizeNameService: cfg.NSS.Normalize,
		Recorders:            []leakcheck.FailureRecorder{s.recorder},
	})
	return s, nil
}

// Start takes the initial baseline. Later calls do nothing.
func (s *Suite) Start() {
	s.action.Start()
}

// Track checks t for leaks when it finishes. The first call starts the suite.
//
// The check runs as a t.Cleanup, and cleanups run last-in first-out, so call
// Track first: anything released by a cleanup registered before Track is
// still open when the check runs and is reported as leaked.
func (s *Suite) Track(t testing.TB) {
	t.Helper()
	s.track(t, 1)
}

// track registers the check; skip counts the frames between the test and
// track.
func (s *Suite) track(t testing.TB, skip int) {
	t.Helper()
	s.Start()
	ex := runner.TestExample(t, skip+1)
	t.Cleanup(func() {
		s.action.AfterWith(runner.TestingProtector{T: t}, ex)
	})
}

// Check runs one check outside of a test, attributing leaks to description.
// It returns the leak failure, or nil.
func (s *Suite) Check(description string) error {
	s.Start()
	return s.action.Check(namedExample(description))
}

// Report returns the suite report so far.
func (s *Suite) Report() *report.SuiteReport {
	return s.recorder.Snapshot()
}

// Finish writes the configured report and metrics files and logs a summary.
func (s *Suite) Finish() error {
	rep := s.recorder.Snapshot()
	var errs []error

	if s.cfg.Report.Path != "" {
		if err := report.Save(s.cfg.Report.Path, rep); err != nil {
			errs = append(errs, err)
		}
	}
	if s.metrics != nil {
		if err := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
			errs = append(errs, err)
		}
	}
	if s.monitor != nil {
		s.logger.Info("resource monitor",
			"checks", s.monitor.Checks(),
			"leaks", s.monitor.Leaks(),
			"uptime", s.monitor.Uptime().Round(time.Millisecond))
		if trend := s.monitor.GetTrend(); !trend.IsHealthy {
			for _, w := range trend.Warnings {
				s.logger.Warn("resource trend", "warning", w, "checks", trend.Checks)
			}
		}
	}

	if rep.Passed() {
		s.logger.Info("leak check passed", "examples", rep.ExamplesChecked)
	} else {
		s.logger.Warn("leak check failed",
			"examples", rep.ExamplesChecked,
			"failed", len(rep.Failures),
			"leaks", rep.TotalLeaks())
	}

	if s.logFile != nil {
		if err := s.logFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type namedExample string

func (e namedExample) Description() string { return string(e) }
func (e namedExample) Location() (string, int, bool) { return "", 0, false }
