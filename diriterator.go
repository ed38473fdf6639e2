package littlefs

import (
	"github.com/dargueta/littlefs/lferrors"
	"github.com/dargueta/littlefs/lfmeta"
	"github.com/dargueta/littlefs/lfobject"
	"github.com/dargueta/littlefs/lfpath"
	"github.com/dargueta/littlefs/lftag"
)

// DirIterator walks a directory's entries in log insertion order (spec
// §4.7). It's a snapshot taken at ReadDirAndThen time: entries written
// during iteration may or may not be observed, matching the "iterator
// stability under append" property of spec §8, since nothing here
// re-fetches the directory mid-walk.
type DirIterator struct {
	entries []DirEntry
	pos     uint32
	closed  bool
}

var _ lfobject.DirHandle = (*DirIterator)(nil)

// Next returns the next entry, or ok=false once the iterator is exhausted.
func (it *DirIterator) Next() (DirEntry, bool, error) {
	if it.closed {
		return DirEntry{}, false, lferrors.New(lferrors.BadFileDescriptor)
	}
	if it.pos >= uint32(len(it.entries)) {
		return DirEntry{}, false, nil
	}
	entry := it.entries[it.pos]
	it.pos++
	return entry, true, nil
}

// Tell returns an opaque cursor that Seek can later restore.
func (it *DirIterator) Tell() uint32 { return it.pos }

// Seek restores a cursor previously returned by Tell.
func (it *DirIterator) Seek(cursor uint32) error {
	if cursor > uint32(len(it.entries)) {
		return lferrors.WithMessage(lferrors.Invalid, "cursor is past the end of the directory snapshot")
	}
	it.pos = cursor
	return nil
}

// Rewind resets the iterator to its first entry.
func (it *DirIterator) Rewind() { it.pos = 0 }

// Close marks the iterator unusable.
func (it *DirIterator) Close() error {
	it.closed = true
	return nil
}

// ReadDirAndThen lists path's entries — always starting with "." and ".."
// (spec §8 scenario 4) — and invokes fn with an iterator over them, closing
// it on every exit path.
func ReadDirAndThen(fs *Filesystem, path lfpath.Path, fn func(*DirIterator) error) error {
	return lfobject.AndThen(func() (*DirIterator, error) { return fs.openDir(path) }, fn)
}

func (fs *Filesystem) openDir(path lfpath.Path) (*DirIterator, error) {
	pair, err := fs.resolveDir(path)
	if err != nil {
		return nil, err
	}
	_, state, err := fs.meta.Fetch(pair)
	if err != nil {
		return nil, err
	}

	entries := make([]DirEntry, 0, len(state.Order))
	for _, id := range state.Order {
		nameEntry, ok := state.Entries[lfmeta.EntryKey{Type: lftag.TypeName, ID: id}]
		if !ok {
			continue
		}
		var structType lftag.Type
		var payload []byte
		for _, t := range []lftag.Type{lftag.TypeDirStruct, lftag.TypeInlineStruct, lftag.TypeCTZStruct} {
			if entry, ok := state.Entries[lfmeta.EntryKey{Type: t, ID: id}]; ok {
				structType, payload = t, entry.Payload
				break
			}
		}
		entries = append(entries, structEntryToDirEntry(string(nameEntry.Payload), structType, payload))
	}

	return &DirIterator{entries: entries}, nil
}
