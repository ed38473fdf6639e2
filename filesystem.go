// Package littlefs is the root filesystem facade (spec §4.6, §6.3): the
// mount/format lifecycle, directory tree operations, attributes, and the
// scoped *_and_then entry points that open a resource, hand it to a
// callback, and guarantee it's closed on every exit path.
//
// The root directory and the superblock share one metadata pair, {0,1} — the
// superblock's entry just lives alongside the root's own "." and ".."
// bindings in the same log, the way the original format does it, rather
// than reserving a second pair purely to anchor the root. A freshly
// formatted 128-block device therefore has 126 blocks available, not 124.
package littlefs

import (
	"github.com/dargueta/littlefs/lfalloc"
	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lfcache"
	"github.com/dargueta/littlefs/lferrors"
	"github.com/dargueta/littlefs/lfctz"
	"github.com/dargueta/littlefs/lfmeta"
	"github.com/dargueta/littlefs/lfobject"
	"github.com/dargueta/littlefs/lfpath"
	"github.com/dargueta/littlefs/lftag"
)

// Entry ids reserved within every directory's metadata pair. Ordinary name
// bindings start at firstUserID.
const (
	superblockID = 1
	selfID       = 2
	parentID     = 3
	firstUserID  = 4
)

// Pair and Mode are re-exported under the root package so callers don't
// need to import lfmeta/lfctz directly for the common case.
type Pair = lfmeta.Pair
type Mode = lfctz.Mode
type DirEntry = lfobject.DirEntry

// Filesystem is a single mounted image. It holds the one unique, mutable
// handle onto the block device spec §5 requires — every operation borrows
// it, and nothing here is safe to call from more than one goroutine at a
// time.
type Filesystem struct {
	dev   lfblock.Device
	meta  *lfmeta.Engine
	alloc *lfalloc.Allocator
	ctz   *lfctz.Tree

	rootPair Pair
}

// Format writes a fresh, empty image to dev: one metadata pair at {0,1}
// carrying the superblock entry plus the root directory's own "." and ".."
// bindings.
func Format(dev lfblock.Device) error {
	alloc := lfalloc.New(dev, nil)
	engine := lfmeta.NewEngine(dev, alloc)
	pair := Pair{Blocks: [2]lfblock.Address{0, 1}}

	superPayload := encodeSuperblockPayload(dev)
	selfPayload := lfmeta.EncodeDirStructPayload(pair)

	ops := []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeSuperblock, ID: superblockID, Length: uint16(len(superPayload))}, Payload: superPayload},
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: selfID, Length: 1}, Payload: []byte(".")},
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDirStruct, ID: selfID, Length: 8}, Payload: selfPayload},
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: parentID, Length: 2}, Payload: []byte("..")},
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDirStruct, ID: parentID, Length: 8}, Payload: selfPayload},
	}

	_, err := engine.Init(pair, ops)
	return err
}

// IsMountable reports whether dev currently holds a valid, formatted image.
func IsMountable(dev lfblock.Device) bool {
	fs, err := Mount(dev)
	return err == nil && fs != nil
}

// Mount reads dev's superblock and root directory and returns a ready
// Filesystem. Mounting twice without an intervening Format yields
// identical AvailableBlocks results (spec §8's mount-idempotence property),
// since mounting never itself allocates or writes anything.
func Mount(dev lfblock.Device) (*Filesystem, error) {
	fs := &Filesystem{dev: dev}
	fs.alloc = lfalloc.New(dev, fs.traverseAll)
	fs.meta = lfmeta.NewEngine(dev, fs.alloc)

	tree, err := lfctz.NewTree(dev)
	if err != nil {
		return nil, err
	}
	fs.ctz = tree

	pair := Pair{Blocks: [2]lfblock.Address{0, 1}}
	_, state, err := fs.meta.Fetch(pair)
	if err != nil {
		return nil, err
	}
	superEntry, ok := state.Entries[lfmeta.EntryKey{Type: lftag.TypeSuperblock, ID: superblockID}]
	if !ok {
		return nil, lferrors.WithMessage(lferrors.Corruption, "no superblock entry at the root metadata pair")
	}
	if err := checkSuperblockPayload(dev, superEntry.Payload); err != nil {
		return nil, err
	}

	fs.rootPair = pair
	return fs, nil
}

// Close releases fs. Program is always synchronous in this core (spec
// §4.1: "sync is a no-op since program is assumed synchronous"), so there
// is nothing to flush; Close exists so Filesystem satisfies lfobject.Closer
// for MountAndThen.
func (fs *Filesystem) Close() error { return nil }

// MountAndThen mounts dev, invokes fn, and unmounts before returning,
// whether fn succeeds, fails, or panics.
func MountAndThen(dev lfblock.Device, fn func(*Filesystem) error) error {
	return lfobject.AndThen(func() (*Filesystem, error) { return Mount(dev) }, fn)
}

// TotalBlocks is the device's declared block count.
func (fs *Filesystem) TotalBlocks() uint { return fs.dev.BlockCount() }

// TotalSpace is TotalBlocks expressed in bytes.
func (fs *Filesystem) TotalSpace() uint { return fs.dev.BlockCount() * fs.dev.BlockSize() }

// AvailableBlocks performs a full-device traversal and returns how many
// blocks are currently unreferenced. It is not free: it walks every
// metadata pair and every file's CTZ chain.
func (fs *Filesystem) AvailableBlocks() (uint, error) {
	blockCount := fs.dev.BlockCount()
	sizeBytes := (blockCount + 7) / 8
	window := lfcache.NewLookahead(sizeBytes)
	window.Reset(0)
	if err := fs.traverseAll(window.Mark); err != nil {
		return 0, err
	}
	free := uint(0)
	for addr := lfblock.Address(0); uint(addr) < blockCount; addr++ {
		if window.IsFree(addr) {
			free++
		}
	}
	return free, nil
}

// AvailableSpace is AvailableBlocks expressed in bytes.
func (fs *Filesystem) AvailableSpace() (uint, error) {
	blocks, err := fs.AvailableBlocks()
	if err != nil {
		return 0, err
	}
	return blocks * fs.dev.BlockSize(), nil
}

// traverseAll marks every block reachable from the root directory: the
// wiring lfalloc.New's TraversalFunc needs so Alloc can rescan the device
// for free space.
func (fs *Filesystem) traverseAll(mark func(lfblock.Address)) error {
	visited := make(map[[2]lfblock.Address]bool)
	return fs.traverseDir(fs.rootPair, visited, mark)
}

func (fs *Filesystem) traverseDir(pair Pair, visited map[[2]lfblock.Address]bool, mark func(lfblock.Address)) error {
	mark(pair.Blocks[0])
	mark(pair.Blocks[1])
	if visited[pair.Blocks] {
		return nil
	}
	visited[pair.Blocks] = true

	_, state, err := fs.meta.Fetch(pair)
	if err != nil {
		return err
	}
	for key, entry := range state.Entries {
		switch key.Type {
		case lftag.TypeDirStruct, lftag.TypeSoftTail:
			if key.Type == lftag.TypeDirStruct && (key.ID == selfID || key.ID == parentID) {
				// "." and ".." point back into this same pair or its
				// parent, both already visited or about to be.
				continue
			}
			child := Pair{Blocks: lfmeta.DecodeDirStructPayload(entry.Payload)}
			if err := fs.traverseDir(child, visited, mark); err != nil {
				return err
			}
		case lftag.TypeCTZStruct:
			head, size := lfctz.DecodeCTZStructPayload(entry.Payload)
			if err := fs.ctz.EachBlock(head, headIndexForSize(fs.ctz, size), size, mark); err != nil {
				return err
			}
		}
	}
	return nil
}

func headIndexForSize(tree *lfctz.Tree, size uint32) uint32 {
	blocks := tree.BlocksForSize(size)
	if blocks == 0 {
		return 0
	}
	return blocks - 1
}

// lookupChild scans pair's directory entries for name, returning the id it
// was bound to, the kind of structure tag it owns, and that tag's payload.
func (fs *Filesystem) lookupChild(pair Pair, name string) (id uint16, structType lftag.Type, payload []byte, found bool, err error) {
	_, state, err := fs.meta.Fetch(pair)
	if err != nil {
		return 0, 0, nil, false, err
	}
	for _, candidateID := range state.Order {
		nameEntry, ok := state.Entries[lfmeta.EntryKey{Type: lftag.TypeName, ID: candidateID}]
		if !ok || string(nameEntry.Payload) != name {
			continue
		}
		for _, t := range []lftag.Type{lftag.TypeDirStruct, lftag.TypeInlineStruct, lftag.TypeCTZStruct} {
			if entry, ok := state.Entries[lfmeta.EntryKey{Type: t, ID: candidateID}]; ok {
				return candidateID, t, entry.Payload, true, nil
			}
		}
	}
	return 0, 0, nil, false, nil
}

// nextID returns the lowest unused entry id at or above firstUserID in
// pair, for binding a freshly created child.
func (fs *Filesystem) nextID(pair Pair) (uint16, error) {
	_, state, err := fs.meta.Fetch(pair)
	if err != nil {
		return 0, err
	}
	for id := uint16(firstUserID); id <= lftag.MaxID; id++ {
		if _, used := state.Entries[lfmeta.EntryKey{Type: lftag.TypeName, ID: id}]; !used {
			return id, nil
		}
	}
	return 0, lferrors.WithMessage(lferrors.NoSpace, "directory has no free entry ids left")
}

// resolveDir walks path's components from the root, following
// TypeDirStruct links, and returns the metadata pair of the directory it
// names.
func (fs *Filesystem) resolveDir(path lfpath.Path) (Pair, error) {
	current := fs.rootPair
	for _, comp := range path.Components() {
		if comp == "/" {
			continue
		}
		_, structType, payload, found, err := fs.lookupChild(current, string(comp))
		if err != nil {
			return Pair{}, err
		}
		if !found {
			return Pair{}, lferrors.New(lferrors.NoSuchEntry)
		}
		if structType != lftag.TypeDirStruct {
			return Pair{}, lferrors.New(lferrors.PathNotDir)
		}
		current = Pair{Blocks: lfmeta.DecodeDirStructPayload(payload)}
	}
	return current, nil
}

func splitPath(path lfpath.Path) (parent lfpath.Path, name string, err error) {
	fileName, ok := path.FileName()
	if !ok {
		return "", "", lferrors.WithMessage(lferrors.Invalid, "path has no file name component")
	}
	parentPath, ok := path.Parent()
	if !ok {
		parentPath = "/"
	}
	return parentPath, string(fileName), nil
}

// Exists reports whether path names anything at all.
func (fs *Filesystem) Exists(path lfpath.Path) bool {
	_, _, _, found, err := fs.statPath(path)
	return err == nil && found
}

func (fs *Filesystem) statPath(path lfpath.Path) (Pair, lftag.Type, []byte, bool, error) {
	parentPath, name, err := splitPath(path)
	if err != nil {
		return Pair{}, 0, nil, false, err
	}
	parentPair, err := fs.resolveDir(parentPath)
	if err != nil {
		return Pair{}, 0, nil, false, err
	}
	_, structType, payload, found, err := fs.lookupChild(parentPair, name)
	return parentPair, structType, payload, found, err
}

// Metadata reports whether path is a file or directory and, for a file,
// its current size.
func (fs *Filesystem) Metadata(path lfpath.Path) (DirEntry, error) {
	_, structType, payload, found, err := fs.statPath(path)
	if err != nil {
		return DirEntry{}, err
	}
	if !found {
		return DirEntry{}, lferrors.New(lferrors.NoSuchEntry)
	}
	name, _ := path.FileName()
	return structEntryToDirEntry(string(name), structType, payload), nil
}

func structEntryToDirEntry(name string, structType lftag.Type, payload []byte) DirEntry {
	switch structType {
	case lftag.TypeDirStruct:
		return DirEntry{Name: name, IsDir: true}
	case lftag.TypeInlineStruct:
		return DirEntry{Name: name, Size: uint32(len(payload))}
	case lftag.TypeCTZStruct:
		_, size := lfctz.DecodeCTZStructPayload(payload)
		return DirEntry{Name: name, Size: size}
	default:
		return DirEntry{Name: name}
	}
}

// CreateDir creates an empty directory at path (spec §4.6). Its parent must
// already exist.
func (fs *Filesystem) CreateDir(path lfpath.Path) error {
	parentPath, name, err := splitPath(path)
	if err != nil {
		return err
	}
	parentPair, err := fs.resolveDir(parentPath)
	if err != nil {
		return err
	}
	_, _, _, found, err := fs.lookupChild(parentPair, name)
	if err != nil {
		return err
	}
	if found {
		return lferrors.New(lferrors.EntryExists)
	}

	id, err := fs.nextID(parentPair)
	if err != nil {
		return err
	}

	b0, err := fs.alloc.Alloc()
	if err != nil {
		return err
	}
	b1, err := fs.alloc.Alloc()
	if err != nil {
		fs.alloc.Dealloc(b0)
		return err
	}
	newPair := Pair{Blocks: [2]lfblock.Address{b0, b1}}
	selfPayload := lfmeta.EncodeDirStructPayload(newPair)
	parentPayload := lfmeta.EncodeDirStructPayload(parentPair)

	if _, err := fs.meta.Init(newPair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: selfID, Length: 1}, Payload: []byte(".")},
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDirStruct, ID: selfID, Length: 8}, Payload: selfPayload},
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: parentID, Length: 2}, Payload: []byte("..")},
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDirStruct, ID: parentID, Length: 8}, Payload: parentPayload},
	}); err != nil {
		fs.alloc.Dealloc(b0)
		fs.alloc.Dealloc(b1)
		return err
	}
	fs.alloc.Ack(b0)
	fs.alloc.Ack(b1)

	_, err = fs.meta.Commit(parentPair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: id, Length: uint16(len(name))}, Payload: []byte(name)},
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDirStruct, ID: id, Length: 8}, Payload: lfmeta.EncodeDirStructPayload(newPair)},
	})
	return err
}

// CreateDirAll creates path and any missing ancestor directories.
func (fs *Filesystem) CreateDirAll(path lfpath.Path) error {
	var built lfpath.Path
	for _, comp := range path.Components() {
		switch {
		case comp == "/":
			built = "/"
			continue
		case built.IsEmpty():
			built = comp
		default:
			built = built.Join(comp)
		}
		if fs.Exists(built) {
			continue
		}
		if err := fs.CreateDir(built); err != nil {
			return err
		}
	}
	return nil
}

// reclaimEntry frees every block an entry owns: a file's CTZ chain, or a
// child directory's own pair and (recursively) everything it contains.
func (fs *Filesystem) reclaimEntry(structType lftag.Type, payload []byte) error {
	switch structType {
	case lftag.TypeCTZStruct:
		head, size := lfctz.DecodeCTZStructPayload(payload)
		return fs.ctz.EachBlock(head, headIndexForSize(fs.ctz, size), size, fs.alloc.Dealloc)
	case lftag.TypeDirStruct:
		child := Pair{Blocks: lfmeta.DecodeDirStructPayload(payload)}
		if err := fs.reclaimDirContents(child); err != nil {
			return err
		}
		fs.alloc.Dealloc(child.Blocks[0])
		fs.alloc.Dealloc(child.Blocks[1])
	}
	return nil
}

func (fs *Filesystem) reclaimDirContents(pair Pair) error {
	_, state, err := fs.meta.Fetch(pair)
	if err != nil {
		return err
	}
	for _, id := range state.Order {
		if id == selfID || id == parentID {
			continue
		}
		for _, t := range []lftag.Type{lftag.TypeDirStruct, lftag.TypeInlineStruct, lftag.TypeCTZStruct} {
			if entry, ok := state.Entries[lfmeta.EntryKey{Type: t, ID: id}]; ok {
				if err := fs.reclaimEntry(t, entry.Payload); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// Remove deletes the file at path. It fails with path-is-dir if path names
// a directory; use RemoveDir or RemoveDirAll for those.
func (fs *Filesystem) Remove(path lfpath.Path) error {
	return fs.removeEntry(path, false)
}

// RemoveDir deletes the empty directory at path. It fails with
// dir-not-empty if it has any entries besides "." and "..".
func (fs *Filesystem) RemoveDir(path lfpath.Path) error {
	return fs.removeEntry(path, true)
}

func (fs *Filesystem) removeEntry(path lfpath.Path, wantDir bool) error {
	parentPath, name, err := splitPath(path)
	if err != nil {
		return err
	}
	parentPair, err := fs.resolveDir(parentPath)
	if err != nil {
		return err
	}
	id, structType, payload, found, err := fs.lookupChild(parentPair, name)
	if err != nil {
		return err
	}
	if !found {
		return lferrors.New(lferrors.NoSuchEntry)
	}
	isDir := structType == lftag.TypeDirStruct
	if wantDir && !isDir {
		return lferrors.New(lferrors.PathNotDir)
	}
	if !wantDir && isDir {
		return lferrors.New(lferrors.PathIsDir)
	}
	if isDir {
		child := Pair{Blocks: lfmeta.DecodeDirStructPayload(payload)}
		_, childState, err := fs.meta.Fetch(child)
		if err != nil {
			return err
		}
		if len(childState.Order) > 2 {
			return lferrors.New(lferrors.DirNotEmpty)
		}
	}

	if _, err := fs.meta.Commit(parentPair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDelete, ID: id}},
	}); err != nil {
		return err
	}
	return fs.reclaimEntry(structType, payload)
}

// RemoveDirAll removes path and everything underneath it.
func (fs *Filesystem) RemoveDirAll(path lfpath.Path) error {
	return fs.removeDirAllWhere(path, nil)
}

// RemoveDirAllWhere removes path and its contents, but skips any direct or
// nested child for which predicate returns false. If any child anywhere in
// the subtree was skipped, path itself is preserved even though everything
// predicate accepted underneath it is gone (spec §9's pinned open
// question): an all-accepting predicate behaves exactly like RemoveDirAll.
func (fs *Filesystem) RemoveDirAllWhere(path lfpath.Path, predicate func(DirEntry) bool) error {
	return fs.removeDirAllWhere(path, predicate)
}

func (fs *Filesystem) removeDirAllWhere(path lfpath.Path, predicate func(DirEntry) bool) error {
	parentPath, name, err := splitPath(path)
	if err != nil {
		return err
	}
	parentPair, err := fs.resolveDir(parentPath)
	if err != nil {
		return err
	}
	id, structType, payload, found, err := fs.lookupChild(parentPair, name)
	if err != nil {
		return err
	}
	if !found {
		return lferrors.New(lferrors.NoSuchEntry)
	}
	if structType != lftag.TypeDirStruct {
		return lferrors.New(lferrors.PathNotDir)
	}

	pair := Pair{Blocks: lfmeta.DecodeDirStructPayload(payload)}
	anySkipped, err := fs.purgeDirEntries(pair, path, predicate)
	if err != nil {
		return err
	}
	if anySkipped {
		return nil
	}

	if _, err := fs.meta.Commit(parentPair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDelete, ID: id}},
	}); err != nil {
		return err
	}
	fs.alloc.Dealloc(pair.Blocks[0])
	fs.alloc.Dealloc(pair.Blocks[1])
	return nil
}

// purgeDirEntries removes every child of pair that predicate accepts
// (recursing into subdirectories first), and reports whether anything was
// skipped anywhere in the subtree.
func (fs *Filesystem) purgeDirEntries(pair Pair, dirPath lfpath.Path, predicate func(DirEntry) bool) (anySkipped bool, err error) {
	_, state, err := fs.meta.Fetch(pair)
	if err != nil {
		return false, err
	}

	ids := append([]uint16{}, state.Order...)
	for _, id := range ids {
		if id == selfID || id == parentID {
			continue
		}
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
		childPath := dirPath.Join(lfpath.Path(nameEntry.Payload))
		entry := structEntryToDirEntry(string(nameEntry.Payload), structType, payload)

		if predicate != nil && !predicate(entry) {
			anySkipped = true
			continue
		}
		if structType == lftag.TypeDirStruct {
			if err := fs.removeDirAllWhere(childPath, predicate); err != nil {
				return anySkipped, err
			}
			if fs.Exists(childPath) {
				anySkipped = true
			}
			continue
		}
		if err := fs.removeEntry(childPath, false); err != nil {
			return anySkipped, err
		}
	}
	return anySkipped, nil
}

// Rename moves the entry at from to to, atomically replacing to if it
// already exists. Within one directory this is a single metadata commit;
// across directories it's a create-then-tombstone sequence (see DESIGN.md
// for why a cross-pair atomic stage-and-flip isn't implemented here).
func (fs *Filesystem) Rename(from, to lfpath.Path) error {
	fromParentPath, fromName, err := splitPath(from)
	if err != nil {
		return err
	}
	toParentPath, toName, err := splitPath(to)
	if err != nil {
		return err
	}
	fromParentPair, err := fs.resolveDir(fromParentPath)
	if err != nil {
		return err
	}
	fromID, fromType, fromPayload, found, err := fs.lookupChild(fromParentPair, fromName)
	if err != nil {
		return err
	}
	if !found {
		return lferrors.New(lferrors.NoSuchEntry)
	}
	toParentPair, err := fs.resolveDir(toParentPath)
	if err != nil {
		return err
	}
	destID, destType, destPayload, destFound, err := fs.lookupChild(toParentPair, toName)
	if err != nil {
		return err
	}

	sameParent := fromParentPair.Blocks == toParentPair.Blocks

	if destFound {
		if destType == lftag.TypeDirStruct {
			_, destState, err := fs.meta.Fetch(Pair{Blocks: lfmeta.DecodeDirStructPayload(destPayload)})
			if err != nil {
				return err
			}
			if len(destState.Order) > 2 {
				return lferrors.New(lferrors.DirNotEmpty)
			}
		}
		if sameParent && destID == fromID {
			return nil
		}
	}

	if sameParent {
		var ops []lfmeta.Op
		if destFound {
			ops = append(ops, lfmeta.Op{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDelete, ID: destID}})
		}
		ops = append(ops,
			lfmeta.Op{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: fromID, Length: uint16(len(toName))}, Payload: []byte(toName)},
		)
		if _, err := fs.meta.Commit(fromParentPair, ops); err != nil {
			return err
		}
		if destFound {
			return fs.reclaimEntry(destType, destPayload)
		}
		return nil
	}

	newID := destID
	if !destFound {
		newID, err = fs.nextID(toParentPair)
		if err != nil {
			return err
		}
	}
	var createOps []lfmeta.Op
	if destFound {
		createOps = append(createOps, lfmeta.Op{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDelete, ID: newID}})
	}
	createOps = append(createOps,
		lfmeta.Op{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: newID, Length: uint16(len(toName))}, Payload: []byte(toName)},
		lfmeta.Op{Tag: lftag.Tag{Valid: true, Type: fromType, ID: newID, Length: uint16(len(fromPayload))}, Payload: fromPayload},
	)
	if _, err := fs.meta.Commit(toParentPair, createOps); err != nil {
		return err
	}
	if destFound {
		if err := fs.reclaimEntry(destType, destPayload); err != nil {
			return err
		}
	}
	if _, err := fs.meta.Commit(fromParentPair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDelete, ID: fromID}},
	}); err != nil {
		return err
	}
	return nil
}
