package diagnostics

import (
	"runtime"
	"time"

	"go.uber.org/goleak"

	"github.com/hugo-lorenzo-mato/leakspec/internal/procstate"
	"github.com/hugo-lorenzo-mato/leakspec/internal/resource"
)

// Sources are the registries and settings a snapshot reads from.
type Sources struct {
	Registry *resource.Registry
	Settings *procstate.Settings
}

// DefaultSources returns the process-wide registry and settings.
func DefaultSources() Sources {
	return Sources{
		Registry: resource.Default(),
		Settings: procstate.Default(),
	}
}

// ResourceSnapshot captures process resource state at a point in time.
type ResourceSnapshot struct {
	Timestamp time.Time

	Descriptors []int

	// DescriptorIDs identifies the open file behind each descriptor, so a
	// number closed and handed out again is not mistaken for the same one.
	DescriptorIDs map[int]DescriptorID

	// TempFiles is only enumerated when TempFileCount moved since the
	// previous snapshot.
	TempFileCount int64
	TempFiles     []*resource.TempFile
	TempFilesSeen bool

	Threads []*resource.Thread

	// Goroutines ignores every goroutine alive at capture time.
	Goroutines     goleak.Option
	GoroutineCount int

	Env        map[string]string
	Args       []string
	Flags      procstate.Flags
	GOMAXPROCS int
	Encodings  procstate.Encodings
	Workdir    string
}

// DescriptorID is the device and inode of the file a descriptor refers to.
type DescriptorID struct {
	Dev uint64
	Ino uint64
}

// NoPreviousCount forces temp-file enumeration in Capture.
const NoPreviousCount int64 = -1

// Capture takes a full snapshot. previousTempCount is the TempFileCount of the
// snapshot this one will be compared against, or NoPreviousCount.
func Capture(src Sources, previousTempCount int64) ResourceSnapshot {
	count, tempFiles, seen := CaptureTempFiles(src.Registry, previousTempCount)
	fds := CaptureDescriptors()
	return ResourceSnapshot{
		Timestamp:      time.Now(),
		Descriptors:    fds,
		DescriptorIDs:  CaptureDescriptorIDs(fds),
		TempFileCount:  count,
		TempFiles:      tempFiles,
		TempFilesSeen:  seen,
		Threads:        CaptureThreads(src.Registry),
		Goroutines:     CaptureGoroutines(),
		GoroutineCount: runtime.NumGoroutine(),
		Env:            procstate.Environ(),
		Args:           procstate.Args(),
		Flags:          CaptureFlags(src.Settings),
		GOMAXPROCS:     procstate.GOMAXPROCS(),
		Encodings:      CaptureEncodings(src.Settings),
		Workdir:        procstate.Workdir(),
	}
}

// CaptureTempFiles returns the creation count and, when the count differs
// from previousCount, the live temp files. seen reports whether the live set
// was enumerated.
func CaptureTempFiles(reg *resource.Registry, previousCount int64) (count int64, tempFiles []*resource.TempFile, seen bool) {
	if reg == nil {
		return previousCount, nil, false
	}
	count = reg.TempFileCount()
	if count == previousCount {
		return previousCount, nil, false
	}
	return count, reg.TempFiles(), true
}

// CaptureThreads returns the live tracked goroutines, excluding the caller
// and detached ones.
func CaptureThreads(reg *resource.Registry) []*resource.Thread {
	if reg == nil {
		return nil
	}
	return reg.Threads()
}

// CaptureGoroutines returns an option ignoring every goroutine alive now.
func CaptureGoroutines() goleak.Option {
	return goleak.IgnoreCurrent()
}

// CaptureFlags reads the process-wide flags.
func CaptureFlags(s *procstate.Settings) procstate.Flags {
	if s == nil {
		return procstate.Flags{}
	}
	return s.Flags()
}

// CaptureEncodings reads the default encodings.
func CaptureEncodings(s *procstate.Settings) procstate.Encodings {
	if s == nil {
		return procstate.Encodings{}
	}
	return s.Encodings()
}

// Summary is a printable view of a snapshot. The environment is reduced to
// its variable names.
type Summary struct {
	Timestamp     time.Time           `json:"timestamp" yaml:"timestamp"`
	Descriptors   []int               `json:"descriptors" yaml:"descriptors"`
	TempFileCount int64               `json:"tempfile_count" yaml:"tempfile_count"`
	TempFiles     []string            `json:"tempfiles" yaml:"tempfiles"`
	Threads       []string            `json:"threads" yaml:"threads"`
	Goroutines    int                 `json:"goroutines" yaml:"goroutines"`
	EnvKeys       int                 `json:"env_keys" yaml:"env_keys"`
	Args          []string            `json:"args" yaml:"args"`
	Flags         procstate.Flags     `json:"flags" yaml:"flags"`
	GOMAXPROCS    int                 `json:"gomaxprocs" yaml:"gomaxprocs"`
	Encodings     procstate.Encodings `json:"encodings" yaml:"encodings"`
	Workdir       string              `json:"workdir" yaml:"workdir"`
}

// Summarize builds the printable view of s.
func (s ResourceSnapshot) Summarize() Summary {
	sum := Summary{
		Timestamp:     s.Timestamp,
		Descriptors:   append([]int{}, s.Descriptors...),
		TempFileCount: s.TempFileCount,
		TempFiles:     []string{},
		Threads:       []string{},
		Goroutines:    s.GoroutineCount,
		EnvKeys:       len(s.Env),
		Args:          append([]string{}, s.Args...),
		Flags:         s.Flags,
		GOMAXPROCS:    s.GOMAXPROCS,
		Encodings:     s.Encodings,
		Workdir:       s.Workdir,
	}
	for _, t := range s.TempFiles {
		sum.TempFiles = append(sum.TempFiles, t.String())
	}
	for _, th := range s.Threads {
		sum.Threads = append(sum.Threads, th.String())
	}
	return sum
}
