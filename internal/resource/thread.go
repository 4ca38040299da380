package resource

import (
	"fmt"
	"runtime/debug"
	"sort"
	"sync/atomic"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
)

// ThreadEntryFunction is the function every tracked goroutine runs under.
// Goroutine scans ignore stacks containing it because the thread registry
// already accounts for them.
const ThreadEntryFunction = "github.com/hugo-lorenzo-mato/leakspec/internal/resource.(*Registry).run"

// Thread is a goroutine started through Registry.Go.
type Thread struct {
	id       uint64
	name     string
	goid     atomic.Uint64
	started  chan struct{}
	detached atomic.Bool
	done     chan struct{}
}

// Go starts fn on a new tracked goroutine. fn receives its own *Thread, the
// only handle from which it may detach itself. Panics are recovered and
// logged.
func (r *Registry) Go(name string, fn func(th *Thread)) *Thread {
	th := &Thread{
		id:      r.id(),
		name:    name,
		started: make(chan struct{}),
		done:    make(chan struct{}),
	}
	r.mu.Lock()
	r.threads[th.id] = th
	r.mu.Unlock()

	go r.run(th, fn)
	<-th.started
	return th
}

func (r *Registry) run(th *Thread, fn func(th *Thread)) {
	th.goid.Store(currentGoroutineID())
	close(th.started)

	defer func() {
		if rec := recover(); rec != nil {
			r.log().Error("goroutine panic recovered",
				"goroutine", th.name,
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}
		r.mu.Lock()
		delete(r.threads, th.id)
		r.mu.Unlock()
		close(th.done)
	}()
	fn(th)
}

// Threads returns the live tracked goroutines that are neither detached nor
// the calling goroutine, sorted by id.
func (r *Registry) Threads() []*Thread {
	self := currentGoroutineID()

	r.mu.Lock()
	result := make([]*Thread, 0, len(r.threads))
	for _, th := range r.threads {
		if th.Detached() || th.goid.Load() == self {
			continue
		}
		result = append(result, th)
	}
	r.mu.Unlock()

	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}

// ID returns the registry identity of the thread.
func (th *Thread) ID() uint64 { return th.id }

// Name returns the name given to Go.
func (th *Thread) Name() string { return th.name }

// Detach opts the thread out of leak tracking. Only the thread itself may
// detach.
func (th *Thread) Detach() error {
	if currentGoroutineID() != th.goid.Load() {
		return core.ErrState("DETACH_FOREIGN", fmt.Sprintf("thread %q can only be detached by itself", th.name))
	}
	th.detached.Store(true)
	return nil
}

// Detached reports whether the thread detached itself.
func (th *Thread) Detached() bool { return th.detached.Load() }

// Done is closed once the thread's function has returned.
func (th *Thread) Done() <-chan struct{} { return th.done }

// Wait blocks until the thread's function has returned.
func (th *Thread) Wait() { <-th.done }

// Alive reports whether the thread is still running.
func (th *Thread) Alive() bool {
	select {
	case <-th.done:
		return false
	default:
		return true
	}
}

// String describes the thread.
func (th *Thread) String() string {
	state := "run"
	if !th.Alive() {
		state = "dead"
	}
	return fmt.Sprintf("#<Thread:%s#%d %s>", th.name, th.id, state)
}
