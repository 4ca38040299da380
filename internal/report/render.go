package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var (
	colorSuccess   = lipgloss.Color("#10B981")
	colorError     = lipgloss.Color("#EF4444")
	colorAccent    = lipgloss.Color("#F59E0B")
	colorTextMuted = lipgloss.Color("#9CA3AF")
)

// Render writes r to w in the given format.
func Render(w io.Writer, r *SuiteReport, format string) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		_, err := io.WriteString(w, RenderText(w, r))
		return err
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}
}

// RenderText formats r for a terminal. Styles degrade to plain text when w is
// not a terminal.
func RenderText(w io.Writer, r *SuiteReport) string {
	re := lipgloss.NewRenderer(w)
	title := re.NewStyle().Bold(true)
	muted := re.NewStyle().Foreground(colorTextMuted)
	pass := re.NewStyle().Foreground(colorSuccess).Bold(true)
	fail := re.NewStyle().Foreground(colorError).Bold(true)
	example := re.NewStyle().Foreground(colorAccent)
	leak := re.NewStyle().PaddingLeft(4)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", title.Render("Leak report"), muted.Render(r.RunID))
	fmt.Fprintf(&b, "%s %s -> %s (%s)\n", muted.Render("run:"),
		r.StartedAt.Format("2006-01-02 15:04:05"),
		r.FinishedAt.Format("15:04:05"),
		r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))

	status := pass.Render("PASS")
	if !r.Passed() {
		status = fail.Render("FAIL")
	}
	fmt.Fprintf(&b, "%s %d examples checked, %d leaked, %d leaks\n",
		status, r.ExamplesChecked, len(r.Failures), r.TotalLeaks())

	if checks := r.Checks(); len(checks) > 0 {
		parts := make([]string, 0, len(checks))
		for _, c := range checks {
			parts = append(parts, fmt.Sprintf("%s=%d", c, r.LeaksByCheck[c]))
		}
		fmt.Fprintf(&b, "%s %s\n", muted.Render("by check:"), strings.Join(parts, " "))
	}

	for _, f := range r.Failures {
		b.WriteString("\n")
		b.WriteString(example.Render(f.Example))
		b.WriteString("\n")
		if loc := locationLine(f); loc != "" {
			b.WriteString(muted.Render("  " + loc))
			b.WriteString("\n")
		}
		for _, l := range f.Leaks {
			b.WriteString(leak.Render(l))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// locationLine returns the file:line part of a location, which carries the
// description on its first line.
func locationLine(f Failure) string {
	_, rest, ok := strings.Cut(f.Location, "\n")
	if !ok {
		return ""
	}
	return rest
}
