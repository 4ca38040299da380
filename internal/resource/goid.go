package resource

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineID parses the id from the "goroutine N [state]:" header of
// the current stack. It returns 0 if the header cannot be parsed.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	line := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	end := bytes.IndexByte(line, ' ')
	if end < 0 {
		return 0
	}
	id, err := strconv.ParseUint(string(line[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
