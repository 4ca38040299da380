//go:build unix && !linux

package diagnostics

// macOS and the BSDs expose the descriptor table under /dev/fd.
const fdDir = "/dev/fd"

// DescribeDescriptor returns "" here; /dev/fd entries are not symlinks.
func DescribeDescriptor(fd int) string {
	return ""
}
