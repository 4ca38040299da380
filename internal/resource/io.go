package resource

import (
	"fmt"
	"os"
	"sort"
	"sync/atomic"
	"weak"
)

// Handle is a registered I/O object owning (or borrowing) a file descriptor.
type Handle struct {
	id        uint64
	reg       *Registry
	fd        int
	autoClose bool
	desc      string
	released  atomic.Bool

	// Set for handles created from an *os.File, so a file dropped without
	// Close stops counting once the garbage collector reclaims it.
	file    weak.Pointer[os.File]
	hasFile bool
}

// HandleInfo is the view of a live handle used by the leak checker.
type HandleInfo struct {
	ID        uint64
	FD        int
	AutoClose bool
	Desc      string
}

// RegisterIO registers a descriptor owned by some I/O object. autoClose
// reports whether the object closes the descriptor when it is closed or
// collected.
func (r *Registry) RegisterIO(fd uintptr, desc string, autoClose bool) *Handle {
	return r.register(&Handle{
		id:        r.id(),
		reg:       r,
		fd:        int(fd),
		autoClose: autoClose,
		desc:      desc,
	})
}

func (r *Registry) register(h *Handle) *Handle {
	r.mu.Lock()
	r.handles[h.id] = h
	r.mu.Unlock()
	return h
}

// FD returns the descriptor number.
func (h *Handle) FD() int { return h.fd }

// AutoClose reports whether the handle closes its descriptor itself.
func (h *Handle) AutoClose() bool { return h.autoClose }

// String returns the handle description.
func (h *Handle) String() string { return h.desc }

// Release removes the handle from its registry. Safe to call multiple times.
func (h *Handle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	h.reg.mu.Lock()
	delete(h.reg.handles, h.id)
	h.reg.mu.Unlock()
}

func (h *Handle) live() bool {
	if h.released.Load() {
		return false
	}
	return !h.hasFile || h.file.Value() != nil
}

// Handles returns the live handles sorted by descriptor then id. Handles
// whose file has been collected are dropped from the registry.
func (r *Registry) Handles() []HandleInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]HandleInfo, 0, len(r.handles))
	for id, h := range r.handles {
		if !h.live() {
			delete(r.handles, id)
			continue
		}
		result = append(result, HandleInfo{
			ID:        h.id,
			FD:        h.fd,
			AutoClose: h.autoClose,
			Desc:      h.desc,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].FD != result[j].FD {
			return result[i].FD < result[j].FD
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// File is an *os.File registered as an I/O handle. Close it through the
// wrapper so the registry entry goes away with the descriptor.
type File struct {
	*os.File
	handle *Handle
}

// Open opens the named file for reading and registers it.
func (r *Registry) Open(name string) (*File, error) {
	return r.OpenFile(name, os.O_RDONLY, 0)
}

// Create creates or truncates the named file and registers it.
func (r *Registry) Create(name string) (*File, error) {
	return r.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o666)
}

// OpenFile is os.OpenFile followed by registration.
func (r *Registry) OpenFile(name string, flag int, perm os.FileMode) (*File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return r.Wrap(f, true), nil
}

// Wrap registers an already open file. Pass autoClose=false when the file
// borrows a descriptor owned elsewhere.
func (r *Registry) Wrap(f *os.File, autoClose bool) *File {
	return r.wrap(f, fmt.Sprintf("#<File:%s>", f.Name()), autoClose)
}

func (r *Registry) wrap(f *os.File, desc string, autoClose bool) *File {
	h := r.register(&Handle{
		id:        r.id(),
		reg:       r,
		fd:        int(descriptorOf(f)),
		autoClose: autoClose,
		desc:      desc,
		file:      weak.Make(f),
		hasFile:   true,
	})
	return &File{File: f, handle: h}
}

// descriptorOf reads the descriptor through SyscallConn, which unlike Fd
// leaves the file's blocking mode alone.
func descriptorOf(f *os.File) uintptr {
	rc, err := f.SyscallConn()
	if err != nil {
		return f.Fd()
	}
	var fd uintptr
	if err := rc.Control(func(s uintptr) { fd = s }); err != nil {
		return f.Fd()
	}
	return fd
}

// Handle returns the registry entry backing the file.
func (f *File) Handle() *Handle { return f.handle }

// Close releases the registry entry and closes the file.
func (f *File) Close() error {
	f.handle.Release()
	return f.File.Close()
}
