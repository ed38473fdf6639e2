package littlefs

import (
	"github.com/dargueta/littlefs/lferrors"
	"github.com/dargueta/littlefs/lfmeta"
	"github.com/dargueta/littlefs/lfpath"
	"github.com/dargueta/littlefs/lftag"
)

// MaxAttributeSize is the largest value an attribute may hold (spec
// invariant 6). A caller that submits exactly MaxAttributeSize+1 bytes gets
// no-space, not invalid — this is the pinned behavior from spec §9's open
// question on exactly-1023-byte attributes.
const MaxAttributeSize = 1022

func (fs *Filesystem) entryID(path lfpath.Path) (Pair, uint16, error) {
	parentPath, name, err := splitPath(path)
	if err != nil {
		return Pair{}, 0, err
	}
	parentPair, err := fs.resolveDir(parentPath)
	if err != nil {
		return Pair{}, 0, err
	}
	id, _, _, found, err := fs.lookupChild(parentPair, name)
	if err != nil {
		return Pair{}, 0, err
	}
	if !found {
		return Pair{}, 0, lferrors.New(lferrors.NoSuchEntry)
	}
	return parentPair, id, nil
}

// Attribute copies attribute attrID of path into buf, returning how many
// bytes were copied and the attribute's full size (which may exceed
// len(buf), in which case the value was truncated).
func (fs *Filesystem) Attribute(path lfpath.Path, attrID uint8, buf []byte) (n int, totalSize int, err error) {
	parentPair, id, err := fs.entryID(path)
	if err != nil {
		return 0, 0, err
	}
	_, state, err := fs.meta.Fetch(parentPair)
	if err != nil {
		return 0, 0, err
	}
	entry, ok := state.Entries[lfmeta.EntryKey{Type: lftag.ForUserAttr(attrID), ID: id}]
	if !ok {
		return 0, 0, lferrors.New(lferrors.NoAttribute)
	}
	n = copy(buf, entry.Payload)
	return n, len(entry.Payload), nil
}

// SetAttribute replaces (or creates) attribute attrID of path with data.
func (fs *Filesystem) SetAttribute(path lfpath.Path, attrID uint8, data []byte) error {
	if len(data) > MaxAttributeSize {
		return lferrors.WithMessage(lferrors.NoSpace, "attribute value exceeds the maximum of 1022 bytes")
	}
	parentPair, id, err := fs.entryID(path)
	if err != nil {
		return err
	}
	_, err = fs.meta.Commit(parentPair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.ForUserAttr(attrID), ID: id, Length: uint16(len(data))}, Payload: data},
	})
	return err
}

// RemoveAttribute tombstones attribute attrID of path, if it has one.
func (fs *Filesystem) RemoveAttribute(path lfpath.Path, attrID uint8) error {
	parentPair, id, err := fs.entryID(path)
	if err != nil {
		return err
	}
	_, err = fs.meta.Commit(parentPair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.ForUserAttrDelete(attrID), ID: id}},
	})
	return err
}
