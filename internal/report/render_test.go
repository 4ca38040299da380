package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/leakspec/internal/testutil"
)

func sampleReport() *SuiteReport {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return &SuiteReport{
		SchemaVersion:   SchemaVersion,
		RunID:           "7d444840-9dc0-11d1-b245-5ffdce74fad2",
		StartedAt:       start,
		FinishedAt:      start.Add(1500 * time.Millisecond),
		ExamplesChecked: 3,
		LeaksByCheck:    map[string]int{"descriptors": 1, "workdir": 1, "threads": 0},
		Failures: []Failure{{
			Example:  "Widget opens a file",
			Location: "Widget opens a file\nwidget_test.go:42",
			Leaks: []string{
				"Leaked file descriptor: 7 : #<File:/tmp/w>(not-autoclose)",
				`Working directory changed: "/src" to "/tmp"`,
			},
			CheckedAt: start.Add(time.Second),
		}},
	}
}

func TestRenderText(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatText))

	out := buf.String()
	for _, want := range []string{
		"Leak report",
		"7d444840-9dc0-11d1-b245-5ffdce74fad2",
		"FAIL",
		"3 examples checked, 1 leaked, 2 leaks",
		"descriptors=1 workdir=1",
		"Widget opens a file",
		"widget_test.go:42",
		"Leaked file descriptor: 7 : #<File:/tmp/w>(not-autoclose)",
		"1.5s",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "threads=0")
	// A buffer is not a terminal, so no escape sequences are emitted.
	assert.NotContains(t, out, "\x1b[")
}

func TestRenderText_Golden(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatText))

	out := buf.String()
	out = testutil.ScrubUUIDs(out)
	out = testutil.ScrubTimestamps(out)
	out = testutil.ScrubDescriptors(out)
	out = testutil.ScrubDurations(out)
	testutil.NewGolden(t, "testdata").AssertString("failing", testutil.Normalize(out))
}

func TestRenderText_Pass(t *testing.T) {
	t.Parallel()
	r := sampleReport()
	r.Failures = nil
	r.LeaksByCheck = map[string]int{}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, r, ""))
	assert.Contains(t, buf.String(), "PASS 3 examples checked, 0 leaked, 0 leaks")
	assert.NotContains(t, buf.String(), "by check:")
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatJSON))

	var decoded SuiteReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, sampleReport().Failures[0].Leaks, decoded.Failures[0].Leaks)
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatYAML))

	assert.True(t, strings.HasPrefix(buf.String(), "schema_version: 1\n"))
	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, 3, decoded["examples_checked"])
}

func TestRender_UnknownFormat(t *testing.T) {
	t.Parallel()
	err := Render(&bytes.Buffer{}, sampleReport(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}
