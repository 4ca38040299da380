// Package procstate holds the process-wide state a test can mutate and the
// leak checker compares between examples: environment, argument vector,
// working directory and an injectable Settings value for verbosity, debug
// mode and default text encodings.
package procstate

import "sync"

// DefaultExternalEncoding is the encoding assumed for external text.
const DefaultExternalEncoding = "UTF-8"

// Flags are the process-wide verbosity and debug switches.
type Flags struct {
	Verbose bool `json:"verbose" yaml:"verbose"`
	Debug   bool `json:"debug" yaml:"debug"`
}

// Encodings are the default internal and external text encodings. An empty
// Internal means no transcoding is applied.
type Encodings struct {
	Internal string `json:"internal" yaml:"internal"`
	External string `json:"external" yaml:"external"`
}

// Settings is the injectable holder of process-wide flags and encodings.
// Code under test reads and writes it instead of package-level globals, and
// the checker reads it at snapshot time.
type Settings struct {
	mu        sync.RWMutex
	flags     Flags
	encodings Encodings
}

// NewSettings creates settings with default values.
func NewSettings() *Settings {
	return &Settings{
		encodings: Encodings{External: DefaultExternalEncoding},
	}
}

var defaultSettings = NewSettings()

// Default returns the settings shared by the whole process.
func Default() *Settings {
	return defaultSettings
}

// Flags returns the current flags.
func (s *Settings) Flags() Flags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags
}

// SetFlags replaces the flags.
func (s *Settings) SetFlags(f Flags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags = f
}

// SetVerbose sets the verbosity flag.
func (s *Settings) SetVerbose(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.Verbose = v
}

// SetDebug sets the debug flag.
func (s *Settings) SetDebug(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags.Debug = v
}

// Encodings returns the current default encodings.
func (s *Settings) Encodings() Encodings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.encodings
}

// SetEncodings replaces the default encodings.
func (s *Settings) SetEncodings(e Encodings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encodings = e
}
