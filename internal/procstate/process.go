package procstate

import (
	"os"
	"runtime"
	"strings"
)

// Environ returns the full environment as a map. Entries without '=' are
// kept with an empty value.
func Environ() map[string]string {
	env := os.Environ()
	result := make(map[string]string, len(env))
	for _, kv := range env {
		key, value, _ := strings.Cut(kv, "=")
		// Windows keeps per-drive cwd entries such as "=C:=C:\dir".
		if key == "" {
			continue
		}
		result[key] = value
	}
	return result
}

// Args returns a copy of the process argument vector.
func Args() []string {
	return append([]string(nil), os.Args...)
}

// Workdir returns the working directory, or "" when it cannot be read.
func Workdir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}

// GOMAXPROCS returns the current GOMAXPROCS value without changing it.
func GOMAXPROCS() int {
	return runtime.GOMAXPROCS(0)
}
