package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"

	"github.com/shirou/gopsutil/v3/process"
)

// ChildProcess is a child of this process that is still running.
type ChildProcess struct {
	PID    int32
	Name   string
	Status string
}

// String formats the child as "pid: still running (name)".
func (c ChildProcess) String() string {
	name := c.Name
	if name == "" {
		name = "unknown"
	}
	return fmt.Sprintf("%d: still running (%s)", c.PID, name)
}

// RunningChildren lists the direct children of this process. A process
// without children yields an empty list and no error.
func RunningChildren(ctx context.Context) ([]ChildProcess, error) {
	// #nosec G115 -- pids fit in int32 on every supported platform
	self, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return nil, err
	}

	children, err := self.ChildrenWithContext(ctx)
	if err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.Is(err, process.ErrorNoChildren):
			return nil, nil
		case errors.As(err, &exitErr) && exitErr.ExitCode() == 1:
			// pgrep found no match.
			return nil, nil
		}
		// pgrep is unavailable; scan the process table instead.
		children, err = scanChildren(ctx, self.Pid)
		if err != nil {
			return nil, err
		}
	}

	result := make([]ChildProcess, 0, len(children))
	for _, child := range children {
		entry := ChildProcess{PID: child.Pid}
		if name, err := child.NameWithContext(ctx); err == nil {
			entry.Name = name
		}
		if status, err := child.StatusWithContext(ctx); err == nil && len(status) > 0 {
			entry.Status = status[0]
		}
		result = append(result, entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].PID < result[j].PID })
	return result, nil
}

func scanChildren(ctx context.Context, parent int32) ([]*process.Process, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	var children []*process.Process
	for _, p := range procs {
		ppid, err := p.PpidWithContext(ctx)
		if err == nil && ppid == parent {
			children = append(children, p)
		}
	}
	return children, nil
}
