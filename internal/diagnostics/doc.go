// Package diagnostics captures point-in-time snapshots of the process
// resources the leak checker compares between examples.
//
// The package implements three main components:
//
//   - ResourceSnapshot: open descriptors, tracked temp files, tracked
//     goroutines, a goroutine ignore-set for untracked goroutines,
//     environment, argv, process-wide flags and encodings, and the working
//     directory, captured by Capture.
//
//   - Child reaping: ReapChildren collects exited child processes without
//     blocking past a grace period; RunningChildren lists those that are still
//     alive.
//
//   - History: per-check resource counts and growth warnings over a suite
//     run, and Probe, which reports which OS capabilities are available.
//
// Every capture degrades to an empty result when the platform lacks the
// mechanism; nothing here returns an error for a missing capability.
package diagnostics
