package lfmeta

import "github.com/dargueta/littlefs/lftag"

// EntryKey identifies one effective log entry: a (tag type, id) pair. Most
// entries for the same directory entry id — its name, its struct tag, its
// attributes — share an id but differ in type.
type EntryKey struct {
	Type lftag.Type
	ID   uint16
}

// Entry is one effective value in a metadata pair's replayed state: the tag
// that most recently wrote it, plus its payload bytes.
type Entry struct {
	Tag     lftag.Tag
	Payload []byte
}

// Op is one pending change to commit: append Tag+Payload to the log. A
// TypeDelete or *DeleteBase tag with an empty payload tombstones existing
// entries when replayed (see replayLog below).
type Op struct {
	Tag     lftag.Tag
	Payload []byte
}

// replayLog applies one decoded (tag, payload) pair to an in-progress
// effective-value table, the same resolution rule fetch() and commit() both
// need: plain tags overwrite by (type, id); TypeDelete removes every key
// sharing that id; a *DeleteBase tag removes just the one attribute key it
// names. order records the sequence ids were first bound a TypeName tag, so
// a directory listing can be replayed in log insertion order (spec §4.7)
// rather than by id or by Go's unordered map iteration.
func replayLog(entries map[EntryKey]Entry, order *[]uint16, tag lftag.Tag, payload []byte) {
	if tag.Type == lftag.TypeDelete {
		for key := range entries {
			if key.ID == tag.ID {
				delete(entries, key)
			}
		}
		removeID(order, tag.ID)
		return
	}
	if attrID, ok := tag.Type.UserAttrDeleteID(); ok {
		delete(entries, EntryKey{Type: lftag.ForUserAttr(attrID), ID: tag.ID})
		return
	}
	if tag.Type == lftag.TypeName {
		if _, seen := entries[EntryKey{Type: lftag.TypeName, ID: tag.ID}]; !seen {
			*order = append(*order, tag.ID)
		}
	}
	entries[EntryKey{Type: tag.Type, ID: tag.ID}] = Entry{Tag: tag, Payload: payload}
}

func removeID(order *[]uint16, id uint16) {
	for i, existing := range *order {
		if existing == id {
			*order = append((*order)[:i], (*order)[i+1:]...)
			return
		}
	}
}
