// Package leakcheck compares process resources before and after each test
// example and reports whatever the example left behind.
//
// A Checker owns one baseline snapshot. Check captures the current state,
// diffs it category by category, records a message per leak and then makes
// the current state the new baseline, so a leak is reported by exactly one
// example. An Action adapts a Checker to a runner's lifecycle events.
package leakcheck

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.uber.org/goleak"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
	"github.com/hugo-lorenzo-mato/leakspec/internal/diagnostics"
	"github.com/hugo-lorenzo-mato/leakspec/internal/logging"
	"github.com/hugo-lorenzo-mato/leakspec/internal/procstate"
	"github.com/hugo-lorenzo-mato/leakspec/internal/resource"
)

// DefaultReapGrace is how long Check waits for children that have not
// exited yet.
const DefaultReapGrace = 100 * time.Millisecond

// Observer is notified of every leak and every completed check.
type Observer interface {
	LeakFound(check, message string)
	ExampleChecked(example string, leaks []string, elapsed time.Duration)
}

// Options configures a Checker.
type Options struct {
	Sources diagnostics.Sources

	// Checks switches individual categories off by name (see core.Checks).
	// Missing names are enabled. Disabled categories are still captured.
	Checks map[string]bool

	// ReapGrace bounds the wait for children still running at check time.
	ReapGrace time.Duration

	// IgnoreFunctions lists functions whose goroutines are never reported.
	IgnoreFunctions []string

	Logger    *slog.Logger
	Observers []Observer
	Monitor   *diagnostics.ResourceMonitor
}

func (o Options) enabled(check string) bool {
	on, ok := o.Checks[check]
	return !ok || on
}

// Checker detects resources leaked between two calls of Check.
type Checker struct {
	opts   Options
	logger *logging.Logger

	base diagnostics.ResourceSnapshot

	// Children reported as still running; their later exit is not reported
	// again.
	runningReported map[int]bool

	// Trace hooks already reported as enabled, cleared once disabled.
	hooksReported  map[*resource.TraceHook]bool
	tracerReported bool

	example string
	leaks   []string
}

// NewChecker captures the initial baseline.
func NewChecker(opts Options) *Checker {
	if opts.Sources.Registry == nil && opts.Sources.Settings == nil {
		opts.Sources = diagnostics.DefaultSources()
	}
	if opts.ReapGrace <= 0 {
		opts.ReapGrace = DefaultReapGrace
	}
	logger := logging.FromSlog(opts.Logger)

	primeRuntime()

	c := &Checker{
		opts:            opts,
		logger:          logger,
		runningReported: make(map[int]bool),
		hooksReported:   make(map[*resource.TraceHook]bool),
	}
	c.base = diagnostics.Capture(opts.Sources, diagnostics.NoPreviousCount)
	c.base.Goroutines = c.goroutineBaseline()
	return c
}

// Check compares the current state with the baseline and re-baselines.
// Every category is checked even when an earlier one leaked. ok is true when
// nothing leaked; leaks lists one message per leak in check order.
func (c *Checker) Check(example string) (ok bool, leaks []string) {
	start := time.Now()
	c.example = example
	c.leaks = nil

	src := c.opts.Sources
	cur := diagnostics.ResourceSnapshot{Timestamp: start}

	cur.Descriptors = diagnostics.CaptureDescriptors()
	cur.DescriptorIDs = diagnostics.CaptureDescriptorIDs(cur.Descriptors)
	if c.opts.enabled(core.CheckDescriptors) {
		c.checkDescriptors(c.base, cur)
	}

	cur.TempFileCount, cur.TempFiles, cur.TempFilesSeen = diagnostics.CaptureTempFiles(src.Registry, c.base.TempFileCount)
	if c.opts.enabled(core.CheckTempFiles) && cur.TempFilesSeen {
		c.checkTempFiles(c.base.TempFiles, cur.TempFiles)
	}

	cur.Threads = diagnostics.CaptureThreads(src.Registry)
	if c.opts.enabled(core.CheckThreads) {
		c.checkThreads(c.base.Threads, cur.Threads)
	}

	if c.opts.enabled(core.CheckGoroutines) {
		c.checkGoroutines(c.base.Goroutines)
	}

	if c.opts.enabled(core.CheckSubprocesses) {
		c.checkSubprocesses()
	}

	cur.Env = procstate.Environ()
	if c.opts.enabled(core.CheckEnvironment) {
		c.checkEnv(c.base.Env, cur.Env)
	}

	cur.Args = procstate.Args()
	if c.opts.enabled(core.CheckArgv) {
		c.checkArgv(c.base.Args, cur.Args)
	}

	cur.Flags = diagnostics.CaptureFlags(src.Settings)
	cur.GOMAXPROCS = procstate.GOMAXPROCS()
	if c.opts.enabled(core.CheckFlags) {
		c.checkFlags(c.base, cur)
	}

	cur.Encodings = diagnostics.CaptureEncodings(src.Settings)
	if c.opts.enabled(core.CheckEncodings) {
		c.checkEncodings(c.base.Encodings, cur.Encodings)
	}

	cur.Workdir = procstate.Workdir()
	if c.opts.enabled(core.CheckWorkdir) {
		c.checkWorkdir(c.base.Workdir, cur.Workdir)
	}

	if c.opts.enabled(core.CheckTracepoints) {
		c.checkTracepoints()
	}

	if len(c.leaks) > 0 {
		runtime.GC()
		// Handles released above or by finalizers close their descriptors;
		// drop those from the new baseline so they are not reported as
		// closed by the next example.
		cur.Descriptors = intersect(cur.Descriptors, diagnostics.CaptureDescriptors())
		cur.DescriptorIDs = diagnostics.CaptureDescriptorIDs(cur.Descriptors)
	}

	c.rebaseline(cur)

	leaks = c.Leaks()
	for _, o := range c.opts.Observers {
		o.ExampleChecked(example, leaks, time.Since(start))
	}
	if c.opts.Monitor != nil {
		c.opts.Monitor.Record(example, len(leaks))
	}
	return len(leaks) == 0, leaks
}

func (c *Checker) rebaseline(cur diagnostics.ResourceSnapshot) {
	// The temp-file set is never updated: every file created since the
	// initial baseline was either reported and released or is still
	// reported against it.
	cur.TempFiles = c.base.TempFiles
	cur.TempFilesSeen = c.base.TempFilesSeen
	cur.Goroutines = c.goroutineBaseline()
	cur.GoroutineCount = runtime.NumGoroutine()
	c.base = cur
}

func (c *Checker) goroutineBaseline() goleak.Option {
	if !c.opts.enabled(core.CheckGoroutines) {
		return nil
	}
	return diagnostics.CaptureGoroutines()
}

// Leaks returns the messages recorded by the last Check.
func (c *Checker) Leaks() []string {
	return append([]string(nil), c.leaks...)
}

// Baseline returns the snapshot the next Check compares against.
func (c *Checker) Baseline() diagnostics.ResourceSnapshot {
	return c.base
}

func (c *Checker) leak(check, message string) {
	if len(c.leaks) == 0 {
		c.logger.WithExample(c.example).Warn("resource leak detected")
	}
	c.leaks = append(c.leaks, message)
	c.logger.WithCheck(check).Warn(message)
	for _, o := range c.opts.Observers {
		o.LeakFound(check, message)
	}
}

func (c *Checker) childrenContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}
