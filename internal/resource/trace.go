package resource

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// TraceEvent is what Emit hands to enabled trace hooks.
type TraceEvent struct {
	Name    string
	Payload any
}

// TraceHook receives events emitted through its registry while enabled.
// Tests are expected to disable every hook they enable.
type TraceHook struct {
	id      uint64
	reg     *Registry
	name    string
	enabled atomic.Bool

	mu sync.Mutex
	fn func(TraceEvent)
}

// NewTraceHook registers a disabled trace hook calling fn for every event.
func (r *Registry) NewTraceHook(name string, fn func(TraceEvent)) *TraceHook {
	h := &TraceHook{
		id:   r.id(),
		reg:  r,
		name: name,
		fn:   fn,
	}
	r.mu.Lock()
	r.hooks[h.id] = h
	r.mu.Unlock()
	return h
}

// Emit delivers an event to every enabled hook, in registration order.
func (r *Registry) Emit(name string, payload any) {
	for _, h := range r.TraceHooks() {
		if h.Enabled() {
			h.call(TraceEvent{Name: name, Payload: payload})
		}
	}
}

// TraceHooks returns every registered hook sorted by id.
func (r *Registry) TraceHooks() []*TraceHook {
	r.mu.Lock()
	result := make([]*TraceHook, 0, len(r.hooks))
	for _, h := range r.hooks {
		result = append(result, h)
	}
	r.mu.Unlock()

	sort.Slice(result, func(i, j int) bool { return result[i].id < result[j].id })
	return result
}

func (h *TraceHook) call(ev TraceEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fn != nil {
		h.fn(ev)
	}
}

// Enable starts delivering events to the hook.
func (h *TraceHook) Enable() { h.enabled.Store(true) }

// Disable stops delivering events to the hook.
func (h *TraceHook) Disable() { h.enabled.Store(false) }

// Enabled reports whether the hook receives events.
func (h *TraceHook) Enabled() bool { return h.enabled.Load() }

// Close disables the hook and unregisters it.
func (h *TraceHook) Close() {
	h.Disable()
	h.reg.mu.Lock()
	delete(h.reg.hooks, h.id)
	h.reg.mu.Unlock()
}

// String describes the hook.
func (h *TraceHook) String() string {
	state := "disabled"
	if h.Enabled() {
		state = "enabled"
	}
	return fmt.Sprintf("#<TraceHook:%s %s>", h.name, state)
}
