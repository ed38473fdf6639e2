// Package lfmeta implements the metadata-pair engine: the replicated,
// append-only log of tags that backs every directory in the filesystem
// (spec §4.4). Each pair is two blocks; one holds the current effective
// state, the other is the shadow a commit writes into before the two swap
// roles. A pair's CRC-32 chain (computed with the standard library's
// hash/crc32 — no third-party CRC implementation appears anywhere in the
// retrieval pack, so this is the one place the core reaches for stdlib over
// an ecosystem library) is what lets fetch() tell a torn write from a
// genuine commit after power loss.
package lfmeta

import (
	"encoding/binary"
	"hash/crc32"
	"sort"

	"github.com/hashicorp/go-multierror"

	"github.com/dargueta/littlefs/lfalloc"
	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lferrors"
	"github.com/dargueta/littlefs/lftag"
)

const revisionSize = 4

// Pair is the address pair and which side is currently effective.
type Pair struct {
	Blocks [2]lfblock.Address
	Active int // index into Blocks, 0 or 1
}

// Shadow returns the index of the non-active side.
func (p Pair) Shadow() int { return 1 - p.Active }

// State is one side's replayed contents: the effective entry table plus
// enough bookkeeping to append further commits without replaying from
// scratch.
type State struct {
	Revision     uint32
	Entries      map[EntryKey]Entry
	Order        []uint16
	raw          []byte
	committedLen uint
	chainState   uint32
}

// Engine reads and writes metadata pairs against a device, allocating fresh
// blocks from alloc when compaction or relocation needs one.
type Engine struct {
	dev   lfblock.Device
	alloc *lfalloc.Allocator
}

// NewEngine returns an Engine bound to dev and alloc.
func NewEngine(dev lfblock.Device, alloc *lfalloc.Allocator) *Engine {
	return &Engine{dev: dev, alloc: alloc}
}

func (e *Engine) readSide(addr lfblock.Address) (State, bool) {
	blockSize := e.dev.BlockSize()
	buf := make([]byte, blockSize)
	if err := e.dev.Read(int64(addr)*int64(blockSize), buf); err != nil {
		return State{}, false
	}

	revision := binary.LittleEndian.Uint32(buf[:revisionSize])
	entries := make(map[EntryKey]Entry)
	var order []uint16

	var chain lftag.Chain
	offset := uint(revisionSize)
	committedLen := uint(0)
	chainAtCommit := uint32(0)
	valid := false

	for offset+lftag.Size <= blockSize {
		tag := chain.Next(buf[offset:])
		offset += lftag.Size
		if offset+uint(tag.Length) > blockSize {
			break
		}
		payload := buf[offset : offset+uint(tag.Length)]
		offset += uint(tag.Length)

		if tag.Type == lftag.TypeCRC {
			want := binary.LittleEndian.Uint32(payload)
			got := crc32.ChecksumIEEE(buf[:offset-uint(tag.Length)])
			if want != got {
				break
			}
			committedLen = offset
			chainAtCommit = chain.State()
			valid = true
			continue
		}
		replayLog(entries, &order, tag, payload)
	}

	return State{
		Revision:     revision,
		Entries:      entries,
		Order:        order,
		raw:          buf,
		committedLen: committedLen,
		chainState:   chainAtCommit,
	}, valid
}

// Fetch reads both blocks of pair and returns the effective state of
// whichever side is newer, per the tie-break rules of spec §4.4: higher
// revision wins; on an equal revision (only possible after the counter
// wraps) the side that replayed more of its committed log wins; if still
// equal, the lower-numbered side.
func (e *Engine) Fetch(pair Pair) (Pair, State, error) {
	stateA, validA := e.readSide(pair.Blocks[0])
	stateB, validB := e.readSide(pair.Blocks[1])

	switch {
	case !validA && !validB:
		return pair, State{}, lferrors.WithMessage(lferrors.Corruption, "neither side of the metadata pair has a valid CRC chain")
	case validA && !validB:
		pair.Active = 0
		return pair, stateA, nil
	case !validA && validB:
		pair.Active = 1
		return pair, stateB, nil
	}

	switch {
	case stateA.Revision > stateB.Revision:
		pair.Active = 0
	case stateB.Revision > stateA.Revision:
		pair.Active = 1
	case stateA.committedLen > stateB.committedLen:
		pair.Active = 0
	case stateB.committedLen > stateA.committedLen:
		pair.Active = 1
	default:
		pair.Active = 0
	}

	if pair.Active == 0 {
		return pair, stateA, nil
	}
	return pair, stateB, nil
}

// Commit appends ops to pair's active-side log and programs the result into
// the shadow side, then flips which side is active. If the appended log
// would overflow the block, it falls back to Compact instead, exactly the
// "if mid-write the block is found full, triggers compact" rule of spec
// §4.4.
func (e *Engine) Commit(pair Pair, ops []Op) (Pair, error) {
	newPair, active, err := e.Fetch(pair)
	if err != nil {
		return pair, err
	}

	blockSize := e.dev.BlockSize()
	buf := make([]byte, blockSize)
	copy(buf, active.raw[:active.committedLen])
	chain := lftag.ChainFromState(active.chainState)
	offset := active.committedLen

	fits := true
	for _, op := range ops {
		need := lftag.Size + uint(len(op.Payload))
		if offset+need > blockSize {
			fits = false
			break
		}
		chain.Append(op.Tag, buf[offset:])
		offset += lftag.Size
		copy(buf[offset:], op.Payload)
		offset += uint(len(op.Payload))
	}

	if !fits || offset+lftag.Size+4 > blockSize {
		return e.Compact(pair, ops)
	}

	binary.LittleEndian.PutUint32(buf[:revisionSize], active.Revision+1)

	// The copied commits were sealed under the old revision; recompute their
	// CRCs so the block still validates from its first byte.
	var reseal lftag.Chain
	for off := uint(revisionSize); off+lftag.Size <= active.committedLen; {
		tag := reseal.Next(buf[off:])
		off += lftag.Size
		if tag.Type == lftag.TypeCRC {
			binary.LittleEndian.PutUint32(buf[off:], crc32.ChecksumIEEE(buf[:off]))
		}
		off += uint(tag.Length)
	}

	chain.Append(lftag.Tag{Valid: true, Type: lftag.TypeCRC, Length: 4}, buf[offset:])
	offset += lftag.Size
	crc := crc32.ChecksumIEEE(buf[:offset])
	crcPayload := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcPayload, crc)
	copy(buf[offset:], crcPayload)
	offset += 4

	shadowAddr := newPair.Blocks[newPair.Shadow()]
	if err := e.dev.Erase(int64(shadowAddr)*int64(blockSize), blockSize); err != nil {
		return pair, err
	}
	if err := e.dev.Program(int64(shadowAddr)*int64(blockSize), buf[:offset]); err != nil {
		return pair, err
	}

	newPair.Active = newPair.Shadow()
	return newPair, nil
}

// Init bootstraps a freshly allocated, never-before-written pair: it writes
// ops plus a terminating CRC directly into Blocks[0] at revision 0, with no
// prior state to fetch. Use this once, when a pair is first allocated;
// every later change goes through Commit/Compact instead.
func (e *Engine) Init(pair Pair, ops []Op) (Pair, error) {
	blockSize := e.dev.BlockSize()
	buf := make([]byte, blockSize)
	var chain lftag.Chain
	offset := uint(revisionSize)

	for _, op := range ops {
		need := lftag.Size + uint(len(op.Payload))
		if offset+need > blockSize {
			return pair, lferrors.WithMessage(lferrors.NoSpace, "initial metadata does not fit in one block")
		}
		chain.Append(op.Tag, buf[offset:])
		offset += lftag.Size
		copy(buf[offset:], op.Payload)
		offset += uint(len(op.Payload))
	}

	chain.Append(lftag.Tag{Valid: true, Type: lftag.TypeCRC, Length: 4}, buf[offset:])
	offset += lftag.Size
	crc := crc32.ChecksumIEEE(buf[:offset])
	crcPayload := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcPayload, crc)
	copy(buf[offset:], crcPayload)
	offset += 4

	addr := pair.Blocks[0]
	if err := e.dev.Erase(int64(addr)*int64(blockSize), blockSize); err != nil {
		return pair, err
	}
	if err := e.dev.Program(int64(addr)*int64(blockSize), buf[:offset]); err != nil {
		return pair, err
	}
	pair.Active = 0
	return pair, nil
}

// Compact rewrites pair's shadow side from scratch, emitting only the
// entries that are currently effective (after first applying ops), then
// flips roles. This is the metadata-pair equivalent of log-structured
// garbage collection (spec §4.4).
func (e *Engine) Compact(pair Pair, ops []Op) (Pair, error) {
	newPair, active, err := e.Fetch(pair)
	if err != nil {
		return pair, err
	}

	for _, op := range ops {
		replayLog(active.Entries, &active.Order, op.Tag, op.Payload)
	}

	// Rewrite groups entries by id in Order (log insertion order, spec §4.7)
	// rather than by id value, so a later Compact doesn't reshuffle a
	// directory's listing order. Within an id, tags sort by type so the name
	// tag and its struct/attribute tags land in a stable, deterministic
	// sequence.
	keys := make([]EntryKey, 0, len(active.Entries))
	seenID := make(map[uint16]bool, len(active.Order))
	for _, id := range active.Order {
		if seenID[id] {
			continue
		}
		seenID[id] = true
		var idKeys []EntryKey
		for k := range active.Entries {
			if k.ID == id {
				idKeys = append(idKeys, k)
			}
		}
		sort.Slice(idKeys, func(i, j int) bool { return idKeys[i].Type < idKeys[j].Type })
		keys = append(keys, idKeys...)
	}
	var leftoverIDs []uint16
	leftoverSeen := make(map[uint16]bool)
	for k := range active.Entries {
		if !seenID[k.ID] && !leftoverSeen[k.ID] {
			leftoverSeen[k.ID] = true
			leftoverIDs = append(leftoverIDs, k.ID)
		}
	}
	sort.Slice(leftoverIDs, func(i, j int) bool { return leftoverIDs[i] < leftoverIDs[j] })
	for _, id := range leftoverIDs {
		var idKeys []EntryKey
		for k := range active.Entries {
			if k.ID == id {
				idKeys = append(idKeys, k)
			}
		}
		sort.Slice(idKeys, func(i, j int) bool { return idKeys[i].Type < idKeys[j].Type })
		keys = append(keys, idKeys...)
	}

	blockSize := e.dev.BlockSize()
	buf := make([]byte, blockSize)
	var chain lftag.Chain
	offset := uint(revisionSize)

	for _, k := range keys {
		entry := active.Entries[k]
		need := lftag.Size + uint(len(entry.Payload))
		if offset+need > blockSize {
			return pair, lferrors.WithMessage(lferrors.NoSpace, "compacted metadata pair does not fit in one block")
		}
		chain.Append(entry.Tag, buf[offset:])
		offset += lftag.Size
		copy(buf[offset:], entry.Payload)
		offset += uint(len(entry.Payload))
	}

	if offset+lftag.Size+4 > blockSize {
		return pair, lferrors.WithMessage(lferrors.NoSpace, "no room for the terminating CRC after compaction")
	}

	binary.LittleEndian.PutUint32(buf[:revisionSize], active.Revision+1)

	chain.Append(lftag.Tag{Valid: true, Type: lftag.TypeCRC, Length: 4}, buf[offset:])
	offset += lftag.Size
	crc := crc32.ChecksumIEEE(buf[:offset])
	crcPayload := make([]byte, 4)
	binary.LittleEndian.PutUint32(crcPayload, crc)
	copy(buf[offset:], crcPayload)
	offset += 4

	shadowAddr := newPair.Blocks[newPair.Shadow()]
	if err := e.dev.Erase(int64(shadowAddr)*int64(blockSize), blockSize); err != nil {
		return pair, err
	}
	if err := e.dev.Program(int64(shadowAddr)*int64(blockSize), buf[:offset]); err != nil {
		return pair, err
	}

	newPair.Active = newPair.Shadow()
	return newPair, nil
}

// Relocate replaces the non-active side of pair with a freshly allocated
// block carrying a full compaction of the active side's effective state.
// It's used when a block is found bad (repeated program failure) or its
// wear-cycle cap is hit (spec §4.4). The caller — the root filesystem,
// which alone knows which parent entry points at this pair — is
// responsible for propagating the address change upward to the root.
func (e *Engine) Relocate(pair Pair) (Pair, error) {
	newAddr, err := e.alloc.Alloc()
	if err != nil {
		return pair, err
	}

	_, active, err := e.Fetch(pair)
	if err != nil {
		return pair, err
	}

	badSide := pair.Shadow()
	oldAddr := pair.Blocks[badSide]
	relocated := pair
	relocated.Blocks[badSide] = newAddr

	result, err := e.Compact(relocated, nil)
	if err != nil {
		e.alloc.Dealloc(newAddr)
		return pair, err
	}

	e.alloc.Ack(newAddr)
	e.alloc.Dealloc(oldAddr)
	_ = active // the active side's entries are what Compact just rewrote
	return result, nil
}

// EncodeDirStructPayload encodes a TypeDirStruct/TypeHardTail/TypeSoftTail
// payload: the two block addresses of the pair it points at.
func EncodeDirStructPayload(target Pair) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(target.Blocks[0]))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(target.Blocks[1]))
	return buf
}

// DecodeDirStructPayload is the inverse of EncodeDirStructPayload.
func DecodeDirStructPayload(payload []byte) [2]lfblock.Address {
	return [2]lfblock.Address{
		lfblock.Address(binary.LittleEndian.Uint32(payload[0:4])),
		lfblock.Address(binary.LittleEndian.Uint32(payload[4:8])),
	}
}

// RelocateReferences rewrites the child-pointing tags (TypeDirStruct,
// TypeHardTail, TypeSoftTail) of every pair in parents that references
// oldAddr, replacing it with newAddr. This is how a relocation propagates
// upward through the directory chain toward the root (spec §4.4). Each
// parent is updated independently; go-multierror collects every failure
// instead of aborting at the first one, since a relocation that fixes most
// of the tree is still far better than leaving it entirely on the bad
// block.
func (e *Engine) RelocateReferences(parents []Pair, oldAddr, newAddr lfblock.Address) ([]Pair, error) {
	updated := make([]Pair, len(parents))
	var errs *multierror.Error

	for i, parent := range parents {
		_, state, err := e.Fetch(parent)
		if err != nil {
			errs = multierror.Append(errs, err)
			updated[i] = parent
			continue
		}

		var ops []Op
		for key, entry := range state.Entries {
			switch key.Type {
			case lftag.TypeDirStruct, lftag.TypeHardTail, lftag.TypeSoftTail:
				addrs := DecodeDirStructPayload(entry.Payload)
				changed := false
				for i := range addrs {
					if addrs[i] == oldAddr {
						addrs[i] = newAddr
						changed = true
					}
				}
				if changed {
					payload := EncodeDirStructPayload(Pair{Blocks: addrs})
					ops = append(ops, Op{Tag: lftag.Tag{Valid: true, Type: key.Type, ID: key.ID, Length: uint16(len(payload))}, Payload: payload})
				}
			}
		}

		if len(ops) == 0 {
			updated[i] = parent
			continue
		}

		next, err := e.Commit(parent, ops)
		if err != nil {
			errs = multierror.Append(errs, err)
			updated[i] = parent
			continue
		}
		updated[i] = next
	}

	return updated, errs.ErrorOrNil()
}
