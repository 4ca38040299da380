package diagnostics

import "fmt"

// ReapedChild is a child process collected by ReapChildren.
type ReapedChild struct {
	PID    int
	Status string
}

// String formats the child as "pid: status".
func (c ReapedChild) String() string {
	return fmt.Sprintf("%d: %s", c.PID, c.Status)
}

// ReapResult is the outcome of one reaping pass.
type ReapResult struct {
	Reaped []ReapedChild

	// Running is set when children remained alive after the grace period.
	Running bool
}
