// Package resource provides explicit, thread-safe registries for the
// resources the leak checker follows: I/O handles, temp files, goroutines and
// trace hooks. Code under test creates these resources through the
// constructors here so the checker can enumerate them without scanning the
// heap.
package resource

import (
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Registry tracks resources created through its constructors.
type Registry struct {
	logger *slog.Logger
	nextID atomic.Uint64

	// Incremented once per CreateTemp call, whether or not it succeeds.
	tempCount atomic.Int64

	mu        sync.Mutex
	handles   map[uint64]*Handle
	tempFiles map[uint64]*TempFile
	threads   map[uint64]*Thread
	hooks     map[uint64]*TraceHook
}

// NewRegistry creates an empty registry. A nil logger discards output.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Registry{
		logger:    logger,
		handles:   make(map[uint64]*Handle),
		tempFiles: make(map[uint64]*TempFile),
		threads:   make(map[uint64]*Thread),
		hooks:     make(map[uint64]*TraceHook),
	}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry(nil)
	})
	return defaultRegistry
}

// SetLogger replaces the logger used for recovered goroutine panics.
func (r *Registry) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

func (r *Registry) log() *slog.Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logger
}

func (r *Registry) id() uint64 {
	return r.nextID.Add(1)
}
