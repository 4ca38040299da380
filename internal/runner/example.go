package runner

import (
	"fmt"
	"runtime"
	"testing"
)

// Example is one unit of work the runner executes and reports on.
type Example interface {
	Description() string
	// Location returns where the example is defined, when known.
	Location() (file string, line int, ok bool)
}

// FuncExample is an Example backed by a function.
type FuncExample struct {
	Name string
	File string
	Line int
	Fn   func() error
}

// Func creates an example named name and records the caller as its
// location.
func Func(name string, fn func() error) *FuncExample {
	ex := &FuncExample{Name: name, Fn: fn}
	if _, file, line, ok := runtime.Caller(1); ok {
		ex.File, ex.Line = file, line
	}
	return ex
}

// Description returns the example name.
func (e *FuncExample) Description() string { return e.Name }

// Location returns the recorded source position.
func (e *FuncExample) Location() (string, int, bool) {
	return e.File, e.Line, e.File != ""
}

// Run executes the example function.
func (e *FuncExample) Run() error {
	if e.Fn == nil {
		return nil
	}
	return e.Fn()
}

// Location formats the failure location of ex: its description, followed on
// a second line by file:line when the source position is known.
func Location(ex Example) string {
	if ex == nil {
		return ""
	}
	location := ex.Description()
	if file, line, ok := ex.Location(); ok {
		location = fmt.Sprintf("%s\n%s:%d", location, file, line)
	}
	return location
}

// testExample adapts a test to Example.
type testExample struct {
	t    testing.TB
	file string
	line int
}

// TestExample describes t as an Example. skip is the number of stack frames
// above the caller to use as the source location, as in runtime.Caller.
func TestExample(t testing.TB, skip int) Example {
	ex := &testExample{t: t}
	if _, file, line, ok := runtime.Caller(skip + 1); ok {
		ex.file, ex.line = file, line
	}
	return ex
}

func (e *testExample) Description() string { return e.t.Name() }

func (e *testExample) Location() (string, int, bool) {
	return e.file, e.line, e.file != ""
}
