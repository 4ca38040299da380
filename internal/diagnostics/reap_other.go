//go:build !unix

package diagnostics

import "time"

// ReapChildren is a no-op where wait4 does not exist.
func ReapChildren(grace time.Duration) ReapResult {
	return ReapResult{}
}

// ReapAvailable reports whether child reaping is supported.
func ReapAvailable() bool { return false }
