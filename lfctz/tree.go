// Package lfctz implements the CTZ (count-trailing-zeros) skip-list file
// tree (spec §4.5, §6.2): copy-on-write file data blocks chained by
// back-pointers that let a forward walk from the file's head reach any
// earlier block in O(log n) hops, plus the inline-payload fast path for
// files small enough to live entirely inside their directory's metadata
// log.
//
// Each block reserves a fixed number of trailing pointer slots sized to
// address the whole device (rather than the variable, index-dependent
// pointer count spec.md's prose sketches, which isn't internally
// consistent for every block index — see DESIGN.md). A block at logical
// index i (i > 0) populates ctz(i)+1 of those slots, pointing at blocks
// i-1, i-2, i-4, ..., i-2^ctz(i); this is the construction that actually
// gives the skip-list its name and its O(log n) reach.
package lfctz

import (
	"encoding/binary"
	"math/bits"

	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lferrors"
)

// Tree computes CTZ block layout for one mounted device and walks/builds
// chains over it.
type Tree struct {
	dev         lfblock.Device
	maxPointers uint
	dataSize    uint
}

// NewTree derives a Tree's block layout from dev's geometry.
func NewTree(dev lfblock.Device) (*Tree, error) {
	maxPointers := uint(bits.Len(uint(dev.BlockCount())))
	if maxPointers == 0 {
		maxPointers = 1
	}
	reserved := 4 * maxPointers
	if dev.BlockSize() <= reserved {
		return nil, lferrors.WithMessage(lferrors.Invalid, "block size too small to reserve CTZ pointer slots")
	}
	return &Tree{dev: dev, maxPointers: maxPointers, dataSize: dev.BlockSize() - reserved}, nil
}

// DataSize returns how many payload bytes one CTZ block holds.
func (t *Tree) DataSize() uint { return t.dataSize }

func ctz(i uint32) int {
	if i == 0 {
		return 0
	}
	return bits.TrailingZeros32(i)
}

// numPointers returns how many back-pointer slots block index i populates.
func numPointers(i uint32) int {
	if i == 0 {
		return 0
	}
	return ctz(i) + 1
}

// BlocksForSize returns how many CTZ blocks a file of size bytes occupies.
func (t *Tree) BlocksForSize(size uint32) uint32 {
	if size == 0 {
		return 0
	}
	return uint32((uint(size) + t.dataSize - 1) / t.dataSize)
}

func (t *Tree) encodeBlock(payload []byte, pointers []lfblock.Address) []byte {
	buf := make([]byte, t.dev.BlockSize())
	copy(buf, payload)
	for k, addr := range pointers {
		binary.LittleEndian.PutUint32(buf[t.dataSize+uint(k)*4:], uint32(addr))
	}
	return buf
}

func (t *Tree) decodePointer(buf []byte, k int) lfblock.Address {
	off := t.dataSize + uint(k)*4
	return lfblock.Address(binary.LittleEndian.Uint32(buf[off : off+4]))
}

// walk returns the address of the block at logical index target, reached by
// following back-pointers from (head, headIdx).
func (t *Tree) walk(dev lfblock.Device, head lfblock.Address, headIdx uint32, target uint32) (lfblock.Address, error) {
	cur := head
	curIdx := headIdx
	buf := make([]byte, dev.BlockSize())

	for curIdx != target {
		if err := dev.Read(int64(cur)*int64(dev.BlockSize()), buf); err != nil {
			return 0, err
		}
		n := numPointers(curIdx)
		chosen := -1
		for k := n - 1; k >= 0; k-- {
			if curIdx-(1<<uint(k)) >= target {
				chosen = k
				break
			}
		}
		if chosen == -1 {
			chosen = 0
		}
		cur = t.decodePointer(buf, chosen)
		curIdx -= 1 << uint(chosen)
	}
	return cur, nil
}

// EachBlock calls visit with the address of every block in the chain
// anchored at (head, headIdx, size), in no particular order. It's used by
// the allocator's traversal to mark every block a file holds as live.
func (t *Tree) EachBlock(head lfblock.Address, headIdx uint32, size uint32, visit func(lfblock.Address)) error {
	total := t.BlocksForSize(size)
	for i := uint32(0); i < total; i++ {
		addr, err := t.walk(t.dev, head, headIdx, i)
		if err != nil {
			return err
		}
		visit(addr)
	}
	return nil
}

// EncodeCTZStructPayload encodes a TypeCTZStruct tag payload: the file's
// head block address followed by its logical size.
func EncodeCTZStructPayload(head lfblock.Address, size uint32) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(head))
	binary.LittleEndian.PutUint32(buf[4:8], size)
	return buf
}

// DecodeCTZStructPayload is the inverse of EncodeCTZStructPayload.
func DecodeCTZStructPayload(payload []byte) (head lfblock.Address, size uint32) {
	return lfblock.Address(binary.LittleEndian.Uint32(payload[0:4])), binary.LittleEndian.Uint32(payload[4:8])
}

// ReadAt fills dst with size-respecting file bytes starting at pos, walking
// the chain anchored at (head, headIdx, size) as needed.
func (t *Tree) ReadAt(head lfblock.Address, headIdx uint32, size uint32, pos uint32, dst []byte) error {
	blockBuf := make([]byte, t.dev.BlockSize())
	remaining := dst

	for len(remaining) > 0 {
		if pos >= size {
			return lferrors.WithMessage(lferrors.Invalid, "read extends past end of file")
		}
		blockIdx := uint32(uint(pos) / t.dataSize)
		within := uint(pos) % t.dataSize

		addr, err := t.walk(t.dev, head, headIdx, blockIdx)
		if err != nil {
			return err
		}
		if err := t.dev.Read(int64(addr)*int64(t.dev.BlockSize()), blockBuf); err != nil {
			return err
		}

		blockStart := uint32(blockIdx) * uint32(t.dataSize)
		used := t.dataSize
		if blockStart+uint32(used) > size {
			used = uint(size - blockStart)
		}

		chunk := used - within
		if chunk > uint(len(remaining)) {
			chunk = uint(len(remaining))
		}
		copy(remaining[:chunk], blockBuf[within:within+chunk])
		remaining = remaining[chunk:]
		pos += uint32(chunk)
	}
	return nil
}

// AppendBlock allocates a fresh block holding payload (which must be at
// most DataSize() bytes) as the new logical block right after (head,
// headIdx), computing its back-pointers by walking the existing chain, and
// programs it. It returns the new head.
func (t *Tree) AppendBlock(alloc interface {
	Alloc() (lfblock.Address, error)
	Ack(lfblock.Address)
}, head lfblock.Address, headIdx uint32, hasExisting bool, payload []byte) (lfblock.Address, uint32, error) {
	newIdx := uint32(0)
	if hasExisting {
		newIdx = headIdx + 1
	}

	n := numPointers(newIdx)
	pointers := make([]lfblock.Address, n)
	for k := 0; k < n; k++ {
		targetIdx := newIdx - (1 << uint(k))
		if targetIdx == headIdx && hasExisting {
			pointers[k] = head
			continue
		}
		addr, err := t.walk(t.dev, head, headIdx, targetIdx)
		if err != nil {
			return 0, 0, err
		}
		pointers[k] = addr
	}

	newAddr, err := alloc.Alloc()
	if err != nil {
		return 0, 0, err
	}

	buf := t.encodeBlock(payload, pointers)
	if err := t.dev.Erase(int64(newAddr)*int64(t.dev.BlockSize()), t.dev.BlockSize()); err != nil {
		return 0, 0, err
	}
	if err := t.dev.Program(int64(newAddr)*int64(t.dev.BlockSize()), buf); err != nil {
		return 0, 0, err
	}
	alloc.Ack(newAddr)
	return newAddr, newIdx, nil
}
