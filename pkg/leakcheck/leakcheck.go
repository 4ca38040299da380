package leakcheck

import (
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/hugo-lorenzo-mato/leakspec/internal/config"
	"github.com/hugo-lorenzo-mato/leakspec/internal/procstate"
	"github.com/hugo-lorenzo-mato/leakspec/internal/resource"
)

// Tracked resource types.
type (
	File       = resource.File
	TempFile   = resource.TempFile
	Thread     = resource.Thread
	TraceHook  = resource.TraceHook
	TraceEvent = resource.TraceEvent
	Settings   = procstate.Settings
	Flags      = procstate.Flags
	Encodings  = procstate.Encodings
)

var (
	defaultMu    sync.Mutex
	defaultSuite *Suite
)

// Default returns the process-wide suite, building it from the loaded
// configuration on first use.
func Default() (*Suite, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultSuite != nil {
		return defaultSuite, nil
	}

	cfg, err := config.NewLoader().Load()
	if err != nil {
		return nil, err
	}
	s, err := NewSuite(cfg)
	if err != nil {
		return nil, err
	}
	defaultSuite = s
	return s, nil
}

// Run starts the default suite, runs the tests and finishes the suite. It
// returns the exit code for os.Exit.
func Run(m *testing.M) int {
	s, err := Default()
	if err != nil {
		fmt.Fprintf(os.Stderr, "leakcheck: %v\n", err)
		return 2
	}
	s.Start()
	code := m.Run()
	if err := s.Finish(); err != nil {
		fmt.Fprintf(os.Stderr, "leakcheck: %v\n", err)
		if code == 0 {
			code = 1
		}
	}
	return code
}

// Main is a TestMain that runs the tests under the default suite.
func Main(m *testing.M) {
	os.Exit(Run(m))
}

// Track checks t for leaks when it finishes. Call it before registering
// other cleanups; see Suite.Track.
func Track(t testing.TB) {
	t.Helper()
	s, err := Default()
	if err != nil {
		t.Fatalf("leakcheck: %v", err)
	}
	s.track(t, 2)
}

// Open opens a tracked file for reading.
func Open(name string) (*File, error) {
	return resource.Default().Open(name)
}

// Create creates or truncates a tracked file.
func Create(name string) (*File, error) {
	return resource.Default().Create(name)
}

// OpenFile opens a tracked file with the given flags.
func OpenFile(name string, flag int, perm os.FileMode) (*File, error) {
	return resource.Default().OpenFile(name, flag, perm)
}

// Wrap tracks an already open file. autoClose marks files the garbage
// collector may close.
func Wrap(f *os.File, autoClose bool) *File {
	return resource.Default().Wrap(f, autoClose)
}

// CreateTemp creates a tracked temp file, as os.CreateTemp.
func CreateTemp(dir, pattern string) (*TempFile, error) {
	return resource.Default().CreateTemp(dir, pattern)
}

// Go starts a tracked goroutine. It is reported as leaked unless it finishes
// or detaches before the test ends.
func Go(name string, fn func(th *Thread)) *Thread {
	return resource.Default().Go(name, fn)
}

// NewTraceHook registers a disabled trace hook.
func NewTraceHook(name string, fn func(TraceEvent)) *TraceHook {
	return resource.Default().NewTraceHook(name, fn)
}

// Emit delivers an event to every enabled trace hook.
func Emit(name string, payload any) {
	resource.Default().Emit(name, payload)
}

// ProcessSettings returns the process-wide flags and encodings that are
// checked for changes.
func ProcessSettings() *Settings {
	return procstate.Default()
}
