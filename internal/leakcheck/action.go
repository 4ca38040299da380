package leakcheck

import (
	"sync"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
	"github.com/hugo-lorenzo-mato/leakspec/internal/nss"
	"github.com/hugo-lorenzo-mato/leakspec/internal/runner"
)

// Registrar is the part of a runner an Action hooks into.
type Registrar interface {
	runner.Protector
	Register(event runner.Event, h runner.Handler)
}

// FailureRecorder is told about every example that leaked.
type FailureRecorder interface {
	LeakFailure(example, location string, leaks []string)
}

// ActionOptions configures an Action.
type ActionOptions struct {
	Checker Options

	// NormalizeNameService restricts name-service lookups before the
	// initial baseline is taken.
	NormalizeNameService bool

	Recorders []FailureRecorder
}

type actionState int

const (
	stateIdle actionState = iota
	stateArmed
)

// Action runs a Checker after every example of a runner.
type Action struct {
	opts      ActionOptions
	normalize func() error

	mu        sync.Mutex
	state     actionState
	checker   *Checker
	protector runner.Protector
}

// NewAction creates an idle action.
func NewAction(opts ActionOptions) *Action {
	return &Action{
		opts:      opts,
		normalize: nss.Normalize,
	}
}

// Register hooks the action into r's start and after events. Failures are
// reported through r.
func (a *Action) Register(r Registrar) {
	a.mu.Lock()
	a.protector = r
	a.mu.Unlock()

	r.Register(runner.EventStart, func(runner.Example) { a.Start() })
	r.Register(runner.EventAfter, a.After)
}

// Start normalizes name-service lookups and takes the initial baseline. It
// does nothing once the action is armed.
func (a *Action) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == stateArmed {
		return
	}

	if a.opts.NormalizeNameService && a.normalize != nil {
		if err := a.normalize(); err != nil && a.opts.Checker.Logger != nil {
			a.opts.Checker.Logger.Debug("name service lookups left unchanged", "error", err)
		}
	}

	a.checker = NewChecker(a.opts.Checker)
	a.state = stateArmed
}

// Armed reports whether Start has run.
func (a *Action) Armed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state == stateArmed
}

// After checks ex and reports leaks through the registered runner.
func (a *Action) After(ex runner.Example) {
	a.mu.Lock()
	p := a.protector
	a.mu.Unlock()
	if p == nil {
		return
	}
	a.AfterWith(p, ex)
}

// AfterWith checks ex and reports leaks through p. It reports whether the
// example was clean.
func (a *Action) AfterWith(p runner.Protector, ex runner.Example) bool {
	location := runner.Location(ex)
	return p.Protect(location, func() error {
		return a.Check(ex)
	})
}

// Check runs the checker for ex and returns a leak error, or a state error
// when the action is not armed.
func (a *Action) Check(ex runner.Example) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != stateArmed {
		return core.ErrState(core.CodeNotArmed, "leak check before start")
	}

	description := ""
	if ex != nil {
		description = ex.Description()
	}
	ok, leaks := a.checker.Check(description)
	if ok {
		return nil
	}

	location := runner.Location(ex)
	for _, r := range a.opts.Recorders {
		r.LeakFailure(description, location, leaks)
	}
	return core.ErrLeak(location, leaks).WithDetail("example", description)
}

// Checker returns the armed checker, or nil.
func (a *Action) Checker() *Checker {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.checker
}
