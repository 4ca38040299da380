// Package runner is a minimal serial example runner with lifecycle hooks and
// a protected failure channel.
//
// Handlers registered for EventStart run once before the first example;
// handlers for EventAfter run after every example. A failure reported through
// Protect is recorded and the run goes on.
package runner

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"sync"
	"testing"
)

// Event names a lifecycle point.
type Event string

const (
	EventStart Event = "start"
	EventAfter Event = "after"
)

// Handler is called for a lifecycle event. The example is nil for
// EventStart.
type Handler func(ex Example)

// Failure is a failure recorded through Protect.
type Failure struct {
	Location string
	Err      error
}

// Protector reports failures without stopping the run.
type Protector interface {
	Protect(location string, fn func() error) bool
}

// Runner runs examples one at a time.
type Runner struct {
	logger *slog.Logger

	mu       sync.Mutex
	handlers map[Event][]Handler
	failures []Failure
	started  bool
}

// New creates a runner. A nil logger discards output.
func New(logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		logger:   logger,
		handlers: make(map[Event][]Handler),
	}
}

// Register adds a handler for event. Handlers run in registration order.
func (r *Runner) Register(event Event, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[event] = append(r.handlers[event], h)
}

func (r *Runner) fire(event Event, ex Example) {
	r.mu.Lock()
	handlers := append([]Handler(nil), r.handlers[event]...)
	r.mu.Unlock()

	for _, h := range handlers {
		h(ex)
	}
}

// Start fires EventStart once. Run calls it automatically.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.fire(EventStart, nil)
}

// Protect runs fn and records its error, or a panic, as a failure at
// location. It reports whether fn succeeded.
func (r *Runner) Protect(location string, fn func() error) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			r.record(location, fmt.Errorf("panic: %v\n%s", p, debug.Stack()))
			ok = false
		}
	}()

	if err := fn(); err != nil {
		r.record(location, err)
		return false
	}
	return true
}

func (r *Runner) record(location string, err error) {
	r.logger.Error("example failed", "location", location, "error", err)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Failure{Location: location, Err: err})
}

// Runnable is an example the runner can execute.
type Runnable interface {
	Example
	Run() error
}

// Run executes every example in order, firing EventAfter after each one.
// It returns the failures recorded during this call.
func (r *Runner) Run(examples ...Runnable) []Failure {
	r.Start()

	r.mu.Lock()
	first := len(r.failures)
	r.mu.Unlock()

	for _, ex := range examples {
		r.logger.Debug("running example", "example", ex.Description())
		r.Protect(Location(ex), ex.Run)
		r.fire(EventAfter, ex)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Failure(nil), r.failures[first:]...)
}

// Failures returns every failure recorded so far.
func (r *Runner) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Failure(nil), r.failures...)
}

// Err joins every recorded failure, or returns nil.
func (r *Runner) Err() error {
	var errs []error
	for _, f := range r.Failures() {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// TestingProtector reports failures through t.Errorf.
type TestingProtector struct {
	T testing.TB
}

// Protect runs fn and reports an error or panic as a test error.
func (p TestingProtector) Protect(location string, fn func() error) (ok bool) {
	p.T.Helper()
	defer func() {
		if r := recover(); r != nil {
			p.T.Errorf("%s\npanic: %v", location, r)
			ok = false
		}
	}()

	if err := fn(); err != nil {
		p.T.Errorf("%s\n%v", location, err)
		return false
	}
	return true
}
