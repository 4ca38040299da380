package testutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hugo-lorenzo-mato/leakspec/internal/testutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf", "PASS\r\nby check:\r\n", "PASS\nby check:"},
		{"trailing blanks", "Widget leaks   \n  x_test.go:4\t\n", "Widget leaks\n  x_test.go:4"},
		{"trailing newlines", "FAIL\n\n\n", "FAIL"},
		{"empty", "", ""},
		{"clean", "a\nb", "a\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, testutil.Normalize(tt.input), tt.want)
		})
	}
}

func TestScrubTimestamps(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"rfc3339", "run: 2024-05-01T10:00:00Z -> end", "run: [TIMESTAMP] -> end"},
		{"datetime", "checked 2024-05-01 10:00:01 ok", "checked [TIMESTAMP] ok"},
		{"clock", "at 23:59:59", "at [TIMESTAMP]"},
		{"none", "Leaked tempfile: /tmp/a", "Leaked tempfile: /tmp/a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, testutil.ScrubTimestamps(tt.input), tt.want)
		})
	}
}

func TestScrubDurations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"seconds", "(1.5s)", "([DURATION])"},
		{"compound", "suite took 2m3s", "suite took [DURATION][DURATION]"},
		{"millis", "reap grace 100ms", "reap grace [DURATION]"},
		{"none", "3 examples checked", "3 examples checked"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testutil.AssertEqual(t, testutil.ScrubDurations(tt.input), tt.want)
		})
	}
}

func TestScrubPaths(t *testing.T) {
	got := testutil.ScrubPaths("Leaked tempfile: #<TempFile:/tmp/run1/x>", "/tmp/run1")
	testutil.AssertEqual(t, got, "Leaked tempfile: #<TempFile:[WORKDIR]/x>")

	got = testutil.ScrubPaths("/srv/other", "/tmp/run1")
	testutil.AssertEqual(t, got, "/srv/other")
}

func TestScrubUUIDs(t *testing.T) {
	got := testutil.ScrubUUIDs("Leak report 7d444840-9dc0-11d1-b245-5ffdce74fad2")
	testutil.AssertEqual(t, got, "Leak report [UUID]")

	got = testutil.ScrubUUIDs("run_id=none")
	testutil.AssertEqual(t, got, "run_id=none")
}

func TestScrubDescriptors(t *testing.T) {
	got := testutil.ScrubDescriptors("Leaked file descriptor: 17 : #<File:/tmp/a>")
	testutil.AssertEqual(t, got, "Leaked file descriptor: [FD] : #<File:/tmp/a>")

	got = testutil.ScrubDescriptors("descriptor 17 is fine")
	testutil.AssertEqual(t, got, "descriptor 17 is fine")
}

func TestScrubPIDs(t *testing.T) {
	got := testutil.ScrubPIDs("Leaked subprocess: 4242: still running (sleep)")
	testutil.AssertEqual(t, got, "Leaked subprocess: [PID]: still running (sleep)")
}

func TestScrubAll(t *testing.T) {
	input := "run 550e8400-e29b-41d4-a716-446655440000 started at 2024-01-15T10:30:45Z in /home/user/project took 1.234s\r\n" +
		"Leaked file descriptor: 9 : #<File:/home/user/project/x>  \r\n" +
		"Leaked subprocess: 311: still running (sleep)\n"
	got := testutil.ScrubAll(input, "/home/user/project")

	want := "run [UUID] started at [TIMESTAMP] in [WORKDIR] took [DURATION]\n" +
		"Leaked file descriptor: [FD] : #<File:[WORKDIR]/x>\n" +
		"Leaked subprocess: [PID]: still running (sleep)"
	testutil.AssertEqual(t, got, want)
}

func TestGolden_Assert(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "report.golden"), []byte("PASS\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	testutil.NewGolden(t, dir).AssertString("report", "PASS\n")

	fake := testutil.NewFakeTB("golden")
	testutil.NewGolden(fake, dir).AssertString("report", "FAIL\n")
	testutil.AssertLen(t, fake.Errors(), 1)
	testutil.AssertContains(t, fake.Errors()[0], "output mismatch for report")
}

func TestTempDir(t *testing.T) {
	dir := testutil.TempDir(t)
	info, err := os.Stat(dir)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, info.IsDir(), true)
	testutil.AssertContains(t, filepath.Base(dir), "leakspec-test-")
}

func TestTempFile(t *testing.T) {
	dir := testutil.TempDir(t)
	path := testutil.TempFile(t, dir, "test.txt", "hello")
	data, err := os.ReadFile(path)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, string(data), "hello")
}
