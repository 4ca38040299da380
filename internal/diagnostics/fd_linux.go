//go:build linux

package diagnostics

import (
	"os"
	"strconv"
)

const fdDir = "/proc/self/fd"

// DescribeDescriptor returns what the descriptor points at, such as a path,
// "pipe:[1234]" or "socket:[5678]", or "" when it cannot be resolved.
func DescribeDescriptor(fd int) string {
	target, err := os.Readlink(fdDir + "/" + strconv.Itoa(fd))
	if err != nil {
		return ""
	}
	return target
}
