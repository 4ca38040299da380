//go:build !unix

package diagnostics

// CaptureDescriptors returns an empty set; Windows has no descriptor
// directory to list.
func CaptureDescriptors() []int {
	return []int{}
}

// CaptureDescriptorIDs returns an empty map.
func CaptureDescriptorIDs(fds []int) map[int]DescriptorID {
	return map[int]DescriptorID{}
}

// CountFDs returns 0, 0 to indicate unavailable data.
func CountFDs() (open, limit int) {
	return 0, 0
}

// DescriptorsAvailable reports whether descriptors can be enumerated here.
func DescriptorsAvailable() bool {
	return false
}

// DescribeDescriptor always returns "".
func DescribeDescriptor(fd int) string {
	return ""
}
