package diagnostics

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/goleak"
)

// LeakedGoroutine summarizes a goroutine reported by goleak.
type LeakedGoroutine struct {
	ID       string
	State    string
	Function string
}

// String formats the goroutine as "id [state] function".
func (g LeakedGoroutine) String() string {
	return fmt.Sprintf("%s [%s] %s", g.ID, g.State, g.Function)
}

var goroutineHeader = regexp.MustCompile(`Goroutine (\d+) in state ([^,]+), with (\S+) on top of the stack`)

// FindGoroutines returns the goroutines alive now that none of opts ignore.
// goleak retries for a short while so goroutines that are about to exit are
// not reported. Pass the option from a previous CaptureGoroutines to limit
// the result to goroutines started since then.
func FindGoroutines(opts ...goleak.Option) []LeakedGoroutine {
	err := goleak.Find(opts...)
	if err == nil {
		return nil
	}
	return parseGoroutines(err.Error())
}

func parseGoroutines(report string) []LeakedGoroutine {
	matches := goroutineHeader.FindAllStringSubmatch(report, -1)
	if len(matches) == 0 {
		msg := strings.TrimSpace(report)
		if msg == "" {
			return nil
		}
		// Not a stack listing; keep the first line so the caller still
		// sees something.
		first, _, _ := strings.Cut(msg, "\n")
		return []LeakedGoroutine{{ID: "?", State: "unknown", Function: first}}
	}

	result := make([]LeakedGoroutine, 0, len(matches))
	for _, m := range matches {
		result = append(result, LeakedGoroutine{ID: m[1], State: m[2], Function: m[3]})
	}
	return result
}
