//go:build unix

package diagnostics

import (
	"os"
	"sort"
	"strconv"

	"golang.org/x/sys/unix"
)

// CaptureDescriptors returns the sorted open descriptor numbers of the
// process. The descriptor used to list the directory is not included.
func CaptureDescriptors() []int {
	dir, err := os.Open(fdDir)
	if err != nil {
		return []int{}
	}
	defer dir.Close()

	self := -1
	if rc, err := dir.SyscallConn(); err == nil {
		_ = rc.Control(func(fd uintptr) { self = int(fd) })
	}

	names, err := dir.Readdirnames(-1)
	if err != nil {
		return []int{}
	}

	fds := make([]int, 0, len(names))
	for _, name := range names {
		fd, err := strconv.Atoi(name)
		if err != nil || fd == self {
			continue
		}
		fds = append(fds, fd)
	}
	sort.Ints(fds)
	return fds
}

// CaptureDescriptorIDs stats every descriptor in fds. Descriptors closed
// since they were listed are left out.
func CaptureDescriptorIDs(fds []int) map[int]DescriptorID {
	ids := make(map[int]DescriptorID, len(fds))
	for _, fd := range fds {
		var st unix.Stat_t
		if err := unix.Fstat(fd, &st); err != nil {
			continue
		}
		// #nosec G115 -- device numbers are non-negative
		ids[fd] = DescriptorID{Dev: uint64(st.Dev), Ino: uint64(st.Ino)}
	}
	return ids
}

// CountFDs returns the number of open file descriptors and the maximum allowed.
func CountFDs() (open, limit int) {
	open = len(CaptureDescriptors())

	var rlim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rlim); err == nil {
		// #nosec G115 -- rlimit values are always within int range on supported platforms
		limit = int(rlim.Cur)
	}
	return open, limit
}

// DescriptorsAvailable reports whether descriptors can be enumerated here.
func DescriptorsAvailable() bool {
	_, err := os.Stat(fdDir)
	return err == nil
}
