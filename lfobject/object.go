// Package lfobject defines the small handle interfaces the root filesystem
// package's open resources satisfy, plus the generic scoped-ownership
// helper (spec §5's "_and_then" family) that guarantees a handle is closed
// on every exit path — the return value, a returned error, or a panic —
// instead of asking callers to remember a matching Close. It plays the same
// role as the teacher's basedriver ObjectHandle pattern, generalized with
// Go generics rather than one bespoke wrapper per handle kind.
package lfobject

// FileHandle is the minimal surface spec §4.5's open-file operations need.
type FileHandle interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Seek(offset uint32)
	Truncate(length uint32) error
	Size() uint32
	Close() error
}

// DirEntry is one yielded directory listing entry (spec §4.7).
type DirEntry struct {
	Name  string
	IsDir bool
	Size  uint32
}

// DirHandle is the minimal surface an open directory iterator needs (spec
// §4.7): next, tell (an opaque cursor), seek, rewind, close.
type DirHandle interface {
	Next() (DirEntry, bool, error)
	Tell() uint32
	Seek(cursor uint32) error
	Rewind()
	Close() error
}

// Closer is satisfied by any handle with a Close() error method; both
// FileHandle and DirHandle qualify, which is all AndThen needs.
type Closer interface {
	Close() error
}

// AndThen opens a resource with open, invokes fn with it, and closes it
// before returning, whether fn succeeds or fails. If open fails, its error is
// returned and fn is never called. This
// is the one place the scoped-ownership discipline lives: every exported
// *_and_then wrapper in the root package (MountAndThen, CreateFileAndThen,
// OpenFileAndThen, ReadDirAndThen) is a thin call into this.
func AndThen[T Closer](open func() (T, error), fn func(T) error) error {
	handle, err := open()
	if err != nil {
		return err
	}
	defer handle.Close()
	return fn(handle)
}
