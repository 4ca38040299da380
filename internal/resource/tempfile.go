package resource

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
)

// TempFile is a temporary file created through Registry.CreateTemp. It stays
// tracked while its backing path exists, even after Close.
type TempFile struct {
	*File

	id  uint64
	reg *Registry

	mu     sync.Mutex
	path   string
	closed bool
}

// CreateTemp creates a temp file like os.CreateTemp and tracks it. Every call
// counts as a creation, including failed ones.
func (r *Registry) CreateTemp(dir, pattern string) (*TempFile, error) {
	r.tempCount.Add(1)

	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}

	t := &TempFile{
		File: r.wrap(f, fmt.Sprintf("#<TempFile:%s>", f.Name()), true),
		id:   r.id(),
		reg:  r,
		path: f.Name(),
	}
	r.mu.Lock()
	r.tempFiles[t.id] = t
	r.mu.Unlock()
	return t, nil
}

// TempFileCount returns how many temp files have been created so far.
func (r *Registry) TempFileCount() int64 {
	return r.tempCount.Load()
}

// TempFiles returns the tracked temp files that still have a backing path,
// sorted by path.
func (r *Registry) TempFiles() []*TempFile {
	r.mu.Lock()
	result := make([]*TempFile, 0, len(r.tempFiles))
	for _, t := range r.tempFiles {
		result = append(result, t)
	}
	r.mu.Unlock()

	live := result[:0]
	for _, t := range result {
		if t.Path() != "" {
			live = append(live, t)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].Path() < live[j].Path() })
	return live
}

// ID returns the registry identity of the temp file.
func (t *TempFile) ID() uint64 { return t.id }

// Path returns the backing path, or "" once the file has been unlinked.
func (t *TempFile) Path() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.path
}

// String describes the temp file.
func (t *TempFile) String() string {
	path := t.Path()
	if path == "" {
		return "#<TempFile:(unlinked)>"
	}
	return fmt.Sprintf("#<TempFile:%s>", path)
}

// Close closes the descriptor but keeps the file on disk.
func (t *TempFile) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.mu.Unlock()
	return t.File.Close()
}

// Unlink removes the backing path and stops tracking the temp file.
func (t *TempFile) Unlink() error {
	t.mu.Lock()
	path := t.path
	t.path = ""
	t.mu.Unlock()

	t.reg.mu.Lock()
	delete(t.reg.tempFiles, t.id)
	t.reg.mu.Unlock()

	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing temp file: %w", err)
	}
	return nil
}

// Release closes and unlinks the temp file.
func (t *TempFile) Release() error {
	return errors.Join(t.Close(), t.Unlink())
}
