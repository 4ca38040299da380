// Package report collects leak failures over a suite run and persists them
// as a JSON document that the CLI can render later.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hugo-lorenzo-mato/leakspec/internal/core"
	"github.com/hugo-lorenzo-mato/leakspec/internal/fsutil"
)

// SchemaVersion is bumped on incompatible changes to SuiteReport.
const SchemaVersion = 1

// Failure is one example that leaked.
type Failure struct {
	Example   string    `json:"example" yaml:"example"`
	Location  string    `json:"location" yaml:"location"`
	Leaks     []string  `json:"leaks" yaml:"leaks"`
	CheckedAt time.Time `json:"checked_at" yaml:"checked_at"`
}

// SuiteReport summarizes the leak checks of one suite run.
type SuiteReport struct {
	SchemaVersion   int            `json:"schema_version" yaml:"schema_version"`
	RunID           string         `json:"run_id" yaml:"run_id"`
	StartedAt       time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt      time.Time      `json:"finished_at" yaml:"finished_at"`
	ExamplesChecked int            `json:"examples_checked" yaml:"examples_checked"`
	LeaksByCheck    map[string]int `json:"leaks_by_check" yaml:"leaks_by_check"`
	Failures        []Failure      `json:"failures" yaml:"failures"`
}

// Passed reports whether no example leaked.
func (r *SuiteReport) Passed() bool {
	return len(r.Failures) == 0
}

// TotalLeaks returns the number of leak messages across all failures.
func (r *SuiteReport) TotalLeaks() int {
	n := 0
	for _, f := range r.Failures {
		n += len(f.Leaks)
	}
	return n
}

// Checks returns the categories that leaked, sorted by name.
func (r *SuiteReport) Checks() []string {
	out := make([]string, 0, len(r.LeaksByCheck))
	for check, n := range r.LeaksByCheck {
		if n > 0 {
			out = append(out, check)
		}
	}
	sort.Strings(out)
	return out
}

// Recorder builds a SuiteReport from checker and action callbacks. It is safe
// for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	report SuiteReport
	now    func() time.Time
}

// NewRecorder starts a new run with a fresh run id.
func NewRecorder() *Recorder {
	r := &Recorder{now: time.Now}
	r.report = SuiteReport{
		SchemaVersion: SchemaVersion,
		RunID:         uuid.NewString(),
		StartedAt:     r.now(),
		LeaksByCheck:  make(map[string]int),
		Failures:      []Failure{},
	}
	return r
}

// RunID returns the id of the run being recorded.
func (r *Recorder) RunID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.report.RunID
}

// LeakFound counts a leak in check.
func (r *Recorder) LeakFound(check, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.LeaksByCheck[check]++
}

// ExampleChecked counts a checked example.
func (r *Recorder) ExampleChecked(_ string, _ []string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.ExamplesChecked++
}

// LeakFailure records an example that leaked.
func (r *Recorder) LeakFailure(example, location string, leaks []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report.Failures = append(r.report.Failures, Failure{
		Example:   example,
		Location:  location,
		Leaks:     append([]string(nil), leaks...),
		CheckedAt: r.now(),
	})
}

// Snapshot returns a copy of the report so far, stamped with the current
// time as FinishedAt.
func (r *Recorder) Snapshot() *SuiteReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := r.report
	out.FinishedAt = r.now()
	out.LeaksByCheck = make(map[string]int, len(r.report.LeaksByCheck))
	for k, v := range r.report.LeaksByCheck {
		out.LeaksByCheck[k] = v
	}
	out.Failures = make([]Failure, len(r.report.Failures))
	for i, f := range r.report.Failures {
		f.Leaks = append([]string(nil), f.Leaks...)
		out.Failures[i] = f
	}
	return &out
}

// Save writes the report as indented JSON, replacing path atomically.
func Save(path string, r *SuiteReport) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

// Load reads a report written by Save.
func Load(path string) (*SuiteReport, error) {
	data, err := fsutil.ReadFileScoped(path)
	if err != nil {
		return nil, fmt.Errorf("reading report: %w", err)
	}
	var r SuiteReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, core.ErrValidation("INVALID_REPORT", "report is not valid JSON").WithCause(err)
	}
	if r.SchemaVersion != SchemaVersion {
		return nil, core.ErrValidation("INVALID_REPORT",
			fmt.Sprintf("unsupported report schema version %d", r.SchemaVersion))
	}
	if r.LeaksByCheck == nil {
		r.LeaksByCheck = make(map[string]int)
	}
	return &r, nil
}
