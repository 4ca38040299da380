// Package leakcheck reports resources a test leaves behind: open files, temp
// files, goroutines, child processes, environment variables, the working
// directory and other process-wide state.
//
// Wire it into a test binary with Main and track each test with Track:
//
//	func TestMain(m *testing.M) { leakcheck.Main(m) }
//
//	func TestWidget(t *testing.T) {
//		leakcheck.Track(t)
//		f, err := leakcheck.Open("testdata/widget.txt")
//		...
//	}
//
// Every check compares the process against the state left by the previous
// check, so tests must not run in parallel and either every test or none
// should be tracked. Files, temp files, goroutines and trace hooks are only
// attributed to their creator when created through this package; untracked
// goroutines are still found by a stack scan.
//
// Configuration is read from .leakspec.yaml and LEAKSPEC_* environment
// variables; see internal/config for the keys.
package leakcheck
