package diagnostics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGoroutines(t *testing.T) {
	report := `found unexpected goroutines:
[Goroutine 12 in state chan receive, with github.com/acme/pkg.worker on top of the stack:
github.com/acme/pkg.worker(...)
	/src/pkg/worker.go:10 +0x25
 Goroutine 19 in state select, with github.com/acme/pkg.(*Server).loop on top of the stack:
github.com/acme/pkg.(*Server).loop(...)
]`

	got := parseGoroutines(report)

	require.Len(t, got, 2)
	assert.Equal(t, LeakedGoroutine{ID: "12", State: "chan receive", Function: "github.com/acme/pkg.worker"}, got[0])
	assert.Equal(t, "19 [select] github.com/acme/pkg.(*Server).loop", got[1].String())
}

func TestParseGoroutines_Fallback(t *testing.T) {
	got := parseGoroutines("Cleanup can only be passed to VerifyNone\nmore")
	require.Len(t, got, 1)
	assert.Equal(t, "Cleanup can only be passed to VerifyNone", got[0].Function)

	assert.Empty(t, parseGoroutines("  "))
}

func blockedGoroutine(release <-chan struct{}, done chan<- struct{}) {
	<-release
	close(done)
}

func TestFindGoroutines(t *testing.T) {
	baseline := CaptureGoroutines()
	assert.Empty(t, FindGoroutines(baseline))

	release := make(chan struct{})
	done := make(chan struct{})
	go blockedGoroutine(release, done)

	leaked := FindGoroutines(baseline)
	close(release)
	<-done

	require.Len(t, leaked, 1)
	assert.True(t, strings.HasSuffix(leaked[0].Function, "diagnostics.blockedGoroutine"), leaked[0].Function)
	assert.Equal(t, "chan receive", leaked[0].State)
}
