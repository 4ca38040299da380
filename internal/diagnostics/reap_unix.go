//go:build unix

package diagnostics

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

const reapPollInterval = 5 * time.Millisecond

// ReapChildren collects every child that has exited, waiting up to grace for
// the ones still running. It never blocks longer than grace.
func ReapChildren(grace time.Duration) ReapResult {
	var result ReapResult
	deadline := time.Now().Add(grace)

	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			// ECHILD: nothing left to wait for.
			return result
		case pid > 0:
			result.Reaped = append(result.Reaped, ReapedChild{PID: pid, Status: waitStatusString(ws)})
			continue
		}

		// pid == 0: children exist but none has exited yet.
		if !time.Now().Before(deadline) {
			result.Running = true
			return result
		}
		time.Sleep(reapPollInterval)
	}
}

// ReapAvailable reports whether child reaping is supported.
func ReapAvailable() bool { return true }

func waitStatusString(ws unix.WaitStatus) string {
	switch {
	case ws.Exited():
		return fmt.Sprintf("exit %d", ws.ExitStatus())
	case ws.Signaled():
		s := fmt.Sprintf("signal %d (%s)", int(ws.Signal()), ws.Signal())
		if ws.CoreDump() {
			s += " (core dumped)"
		}
		return s
	case ws.Stopped():
		return fmt.Sprintf("stopped by signal %d", int(ws.StopSignal()))
	default:
		return fmt.Sprintf("status %d", uint32(ws))
	}
}
