package littlefs

import (
	"github.com/dargueta/littlefs/lfctz"
	"github.com/dargueta/littlefs/lferrors"
	"github.com/dargueta/littlefs/lfmeta"
	"github.com/dargueta/littlefs/lfobject"
	"github.com/dargueta/littlefs/lfpath"
	"github.com/dargueta/littlefs/lftag"
)

// File is one open file handle (spec §4.5): a thin wrapper around the CTZ
// engine's own File that additionally knows which directory entry to update
// when it's closed.
type File struct {
	fs     *Filesystem
	inner  *lfctz.File
	parent Pair
	id     uint16
	mode   Mode
	closed bool
}

var _ lfobject.FileHandle = (*File)(nil)

func (f *File) Read(p []byte) (int, error)  { return f.inner.Read(p) }
func (f *File) Write(p []byte) (int, error) { return f.inner.Write(p) }
func (f *File) Seek(offset uint32)          { f.inner.Seek(offset) }
func (f *File) Size() uint32                { return f.inner.Size() }
func (f *File) IsEmpty() bool               { return f.inner.Size() == 0 }

func (f *File) Truncate(length uint32) error {
	return f.inner.Truncate(length)
}

// Flush pushes any buffered writes to the device without committing the
// updated struct tag into the parent directory yet; Close/Sync does that.
func (f *File) Flush() error { return f.inner.Sync() }

// Sync flushes pending writes and commits the file's current head/size (or
// inline payload) into its parent directory immediately, without closing
// the handle.
func (f *File) Sync() error {
	if err := f.inner.Sync(); err != nil {
		return err
	}
	return f.commitStruct()
}

// Close flushes like Sync and marks the handle unusable; for a handle opened
// with write access it also commits the entry's struct tag. A second Close
// is rejected with bad-file-descriptor (spec §4.5).
func (f *File) Close() error {
	if f.closed {
		return lferrors.New(lferrors.BadFileDescriptor)
	}
	err := f.inner.Close()
	f.closed = true
	if err != nil {
		return err
	}
	if !f.mode.Write {
		return nil
	}
	return f.commitStruct()
}

func (f *File) commitStruct() error {
	inline, data, head, size := f.inner.EffectiveState()
	var op lfmeta.Op
	if inline {
		op = lfmeta.Op{
			Tag:     lftag.Tag{Valid: true, Type: lftag.TypeInlineStruct, ID: f.id, Length: uint16(len(data))},
			Payload: data,
		}
	} else {
		payload := lfctz.EncodeCTZStructPayload(head, size)
		op = lfmeta.Op{
			Tag:     lftag.Tag{Valid: true, Type: lftag.TypeCTZStruct, ID: f.id, Length: uint16(len(payload))},
			Payload: payload,
		}
	}
	newParent, err := f.fs.meta.Commit(f.parent, []lfmeta.Op{op})
	if err != nil {
		return err
	}
	f.parent = newParent
	return nil
}

// CreateFileAndThen creates a new, empty file at path (failing with
// entry-exists if something is already there) and invokes fn with it,
// closing it on every exit path.
func CreateFileAndThen(fs *Filesystem, path lfpath.Path, fn func(*File) error) error {
	return lfobject.AndThen(func() (*File, error) { return fs.createFile(path) }, fn)
}

func (fs *Filesystem) createFile(path lfpath.Path) (*File, error) {
	parentPath, name, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	parentPair, err := fs.resolveDir(parentPath)
	if err != nil {
		return nil, err
	}
	_, _, _, found, err := fs.lookupChild(parentPair, name)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, lferrors.New(lferrors.EntryExists)
	}

	id, err := fs.nextID(parentPair)
	if err != nil {
		return nil, err
	}
	newParent, err := fs.meta.Commit(parentPair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: id, Length: uint16(len(name))}, Payload: []byte(name)},
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeInlineStruct, ID: id, Length: 0}, Payload: nil},
	})
	if err != nil {
		return nil, err
	}

	mode := Mode{Read: true, Write: true}
	inner := lfctz.NewInline(fs.dev, fs.alloc, fs.ctz, mode, nil)
	return &File{fs: fs, inner: inner, parent: newParent, id: id, mode: mode}, nil
}

// OpenFileAndThen opens the existing file at path with mode and invokes fn
// with it, closing it on every exit path. Create requests via mode are
// honored the same way OpenFileWithOptionsAndThen does.
func OpenFileAndThen(fs *Filesystem, path lfpath.Path, mode Mode, fn func(*File) error) error {
	return OpenFileWithOptionsAndThen(fs, path, mode, fn)
}

// OpenFileWithOptionsAndThen is the full-control open: mode.Create makes a
// missing file instead of failing, mode.ExclusiveCreate additionally fails
// if the file already exists, and mode.Truncate resets an existing file to
// empty before fn runs.
func OpenFileWithOptionsAndThen(fs *Filesystem, path lfpath.Path, mode Mode, fn func(*File) error) error {
	return lfobject.AndThen(func() (*File, error) { return fs.openFile(path, mode) }, fn)
}

func (fs *Filesystem) openFile(path lfpath.Path, mode Mode) (*File, error) {
	parentPath, name, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	parentPair, err := fs.resolveDir(parentPath)
	if err != nil {
		return nil, err
	}
	id, structType, payload, found, err := fs.lookupChild(parentPair, name)
	if err != nil {
		return nil, err
	}

	if found && mode.ExclusiveCreate {
		return nil, lferrors.New(lferrors.EntryExists)
	}
	if !found && !mode.Create && !mode.ExclusiveCreate {
		return nil, lferrors.New(lferrors.NoSuchEntry)
	}
	if !found {
		f, err := fs.createFile(path)
		if err != nil {
			return nil, err
		}
		f.mode = mode
		return f, nil
	}
	if structType == lftag.TypeDirStruct {
		return nil, lferrors.New(lferrors.PathIsDir)
	}

	var inner *lfctz.File
	if structType == lftag.TypeInlineStruct {
		inner = lfctz.NewInline(fs.dev, fs.alloc, fs.ctz, mode, payload)
	} else {
		head, size := lfctz.DecodeCTZStructPayload(payload)
		inner = lfctz.NewCTZ(fs.dev, fs.alloc, fs.ctz, mode, head, headIndexForSize(fs.ctz, size), size)
	}

	f := &File{fs: fs, inner: inner, parent: parentPair, id: id, mode: mode}
	if mode.Truncate {
		if err := f.inner.Truncate(0); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Write replaces path's entire contents with data, creating the file if it
// doesn't exist.
func (fs *Filesystem) Write(path lfpath.Path, data []byte) error {
	return OpenFileWithOptionsAndThen(fs, path, Mode{Write: true, Create: true, Truncate: true}, func(f *File) error {
		_, err := f.Write(data)
		return err
	})
}

// Read returns path's full contents.
func (fs *Filesystem) Read(path lfpath.Path) ([]byte, error) {
	var out []byte
	err := OpenFileAndThen(fs, path, Mode{Read: true}, func(f *File) error {
		out = make([]byte, f.Size())
		_, err := f.Read(out)
		return err
	})
	return out, err
}

// ReadChunk reads up to length bytes starting at offset, returning fewer if
// the file is shorter (spec §9: "the contract returns min(requested,
// remaining)").
func (fs *Filesystem) ReadChunk(path lfpath.Path, offset, length uint32) ([]byte, error) {
	var out []byte
	err := OpenFileAndThen(fs, path, Mode{Read: true}, func(f *File) error {
		if offset >= f.Size() {
			out = nil
			return nil
		}
		remaining := f.Size() - offset
		n := length
		if n > remaining {
			n = remaining
		}
		out = make([]byte, n)
		f.Seek(offset)
		_, err := f.Read(out)
		return err
	})
	return out, err
}

// WriteChunk writes data starting at offset into the existing file at path,
// creating it first if necessary.
func (fs *Filesystem) WriteChunk(path lfpath.Path, offset uint32, data []byte) error {
	return OpenFileWithOptionsAndThen(fs, path, Mode{Read: true, Write: true, Create: true}, func(f *File) error {
		f.Seek(offset)
		_, err := f.Write(data)
		return err
	})
}
