// Package core provides the error model and the shared names of the tracked
// resource categories. All packages should import from here to ensure
// consistency across the codebase.
package core

// Check categories, in the order the checker runs them.
const (
	CheckDescriptors  = "descriptors"
	CheckTempFiles    = "tempfiles"
	CheckThreads      = "threads"
	CheckGoroutines   = "goroutines"
	CheckSubprocesses = "subprocesses"
	CheckEnvironment  = "environment"
	CheckArgv         = "argv"
	CheckFlags        = "flags"
	CheckEncodings    = "encodings"
	CheckWorkdir      = "workdir"
	CheckTracepoints  = "tracepoints"
)

// Checks is the ordered list of all check categories.
var Checks = []string{
	CheckDescriptors,
	CheckTempFiles,
	CheckThreads,
	CheckGoroutines,
	CheckSubprocesses,
	CheckEnvironment,
	CheckArgv,
	CheckFlags,
	CheckEncodings,
	CheckWorkdir,
	CheckTracepoints,
}

// ValidChecks is a map for O(1) check validation.
var ValidChecks = map[string]bool{
	CheckDescriptors:  true,
	CheckTempFiles:    true,
	CheckThreads:      true,
	CheckGoroutines:   true,
	CheckSubprocesses: true,
	CheckEnvironment:  true,
	CheckArgv:         true,
	CheckFlags:        true,
	CheckEncodings:    true,
	CheckWorkdir:      true,
	CheckTracepoints:  true,
}

// IsValidCheck checks if the given check name is valid.
func IsValidCheck(name string) bool {
	return ValidChecks[name]
}
