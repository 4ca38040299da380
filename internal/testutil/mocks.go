package testutil

import (
	"fmt"
	"sync"
	"time"
)

// LeakEvent is one LeakFound call seen by a RecordingObserver.
type LeakEvent struct {
	Check   string
	Message string
}

// RecordingObserver records every leak and checked example it is told about.
// It satisfies the checker's Observer interface.
type RecordingObserver struct {
	mu      sync.Mutex
	found   []LeakEvent
	checked []string
}

// NewRecordingObserver creates an empty observer.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

func (o *RecordingObserver) LeakFound(check, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.found = append(o.found, LeakEvent{Check: check, Message: message})
}

func (o *RecordingObserver) ExampleChecked(example string, leaks []string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.checked = append(o.checked, fmt.Sprintf("%s:%d", example, len(leaks)))
}

// Found returns the leaks seen, in order.
func (o *RecordingObserver) Found() []LeakEvent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]LeakEvent(nil), o.found...)
}

// Checked returns one "example:leakcount" entry per checked example.
func (o *RecordingObserver) Checked() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.checked...)
}

// Failure is one LeakFailure call seen by a RecordingRecorder.
type Failure struct {
	Example  string
	Location string
	Leaks    []string
}

// RecordingRecorder records every failing example. It satisfies the action's
// FailureRecorder interface.
type RecordingRecorder struct {
	mu       sync.Mutex
	failures []Failure
}

// NewRecordingRecorder creates an empty recorder.
func NewRecordingRecorder() *RecordingRecorder {
	return &RecordingRecorder{}
}

func (r *RecordingRecorder) LeakFailure(example, location string, leaks []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, Failure{
		Example:  example,
		Location: location,
		Leaks:    append([]string(nil), leaks...),
	})
}

// Failures returns the recorded failures, in order.
func (r *RecordingRecorder) Failures() []Failure {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Failure(nil), r.failures...)
}
