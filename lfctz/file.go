package lfctz

import (
	"github.com/dargueta/littlefs/lfalloc"
	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lferrors"
	"github.com/dargueta/littlefs/lftag"
)

// Allocator is the subset of [lfalloc.Allocator] the CTZ engine needs; it's
// expressed as an interface here so tests can substitute a fake.
type Allocator interface {
	Alloc() (lfblock.Address, error)
	Ack(lfblock.Address)
	Dealloc(lfblock.Address)
}

var _ Allocator = (*lfalloc.Allocator)(nil)

// Mode is the set of open-mode flags spec §4.5 lists against an open file.
type Mode struct {
	Read            bool
	Write           bool
	Append          bool
	Create          bool
	ExclusiveCreate bool
	Truncate        bool
}

// InlineThreshold returns the largest file size, in bytes, that stays
// inline inside its directory's metadata log rather than migrating to a
// CTZ tree. It isn't a user parameter (spec §9 glossary): it's derived from
// geometry so every reader agrees on it without it ever touching the
// medium. One payload tag can carry at most [lftag.MaxLength] bytes, and a
// file is inline only while it's a small fraction of one metadata block,
// so inline files never force a premature compaction of their directory.
func InlineThreshold(dev lfblock.Device) uint {
	threshold := dev.BlockSize() / 8
	if threshold > uint(lftag.MaxLength) {
		threshold = uint(lftag.MaxLength)
	}
	return threshold
}

// File is one open file's read/write/seek/truncate state (spec §4.5): an
// inline payload, or a CTZ chain plus whatever trailing bytes haven't
// filled a full block yet and so are still only held in memory ("pending"
// plays the role of the file's own program cache: nothing reaches the
// device until a full block's worth has accumulated, or Sync forces the
// last partial block out).
type File struct {
	tree  *Tree
	dev   lfblock.Device
	alloc Allocator

	inlineThreshold uint
	inline          bool
	inlineData      []byte

	head      lfblock.Address
	headIdx   uint32
	hasBlocks bool

	pending []byte

	size   uint32
	pos    uint32
	dirty  bool
	mode   Mode
	closed bool
}

// NewInline opens a file whose current contents are small enough to be
// inline. data is copied.
func NewInline(dev lfblock.Device, alloc Allocator, tree *Tree, mode Mode, data []byte) *File {
	inlineData := make([]byte, len(data))
	copy(inlineData, data)
	return &File{
		tree: tree, dev: dev, alloc: alloc,
		inlineThreshold: InlineThreshold(dev),
		inline:          true,
		inlineData:      inlineData,
		size:            uint32(len(data)),
		mode:            mode,
	}
}

// NewCTZ opens a file already backed by a CTZ tree rooted at head.
func NewCTZ(dev lfblock.Device, alloc Allocator, tree *Tree, mode Mode, head lfblock.Address, headIdx uint32, size uint32) *File {
	return &File{
		tree: tree, dev: dev, alloc: alloc,
		inlineThreshold: InlineThreshold(dev),
		head:            head, headIdx: headIdx, hasBlocks: true,
		size: size, mode: mode,
	}
}

// Size returns the file's current logical length.
func (f *File) Size() uint32 { return f.size }

// Seek repositions the file for the next Read/Write.
func (f *File) Seek(offset uint32) {
	f.pos = offset
}

// Close marks the handle unusable. A second Close is the "bad file
// descriptor" bug spec §4.5 calls out.
func (f *File) Close() error {
	if f.closed {
		return lferrors.New(lferrors.BadFileDescriptor)
	}
	err := f.Sync()
	f.closed = true
	return err
}

// Read copies up to len(dst) bytes starting at the current position into
// dst and advances the position, stopping at the end of the file.
func (f *File) Read(dst []byte) (int, error) {
	if f.closed {
		return 0, lferrors.New(lferrors.BadFileDescriptor)
	}
	if f.pos >= f.size {
		return 0, nil
	}
	n := uint32(len(dst))
	if f.pos+n > f.size {
		n = f.size - f.pos
	}
	if n == 0 {
		return 0, nil
	}

	if f.inline {
		copy(dst[:n], f.inlineData[f.pos:f.pos+n])
		f.pos += n
		return int(n), nil
	}

	if err := f.tree.ReadAt(f.head, f.headIdx, f.size, f.pos, dst[:n]); err != nil {
		return 0, err
	}
	f.pos += n
	return int(n), nil
}

// Write stages p starting at the current position (or at the end of the
// file, if opened in append mode) and advances the position. Writing into
// an already-committed CTZ block copies that block's unchanged prefix and
// any original suffix beyond p forward onto freshly allocated blocks
// (spec §4.5's copy-on-write overwrite), rather than ever rewriting a
// committed block in place.
func (f *File) Write(p []byte) (int, error) {
	if f.closed {
		return 0, lferrors.New(lferrors.BadFileDescriptor)
	}
	if f.mode.Append {
		f.pos = f.size
	}

	requested := len(p)
	if !f.inline {
		if err := f.prepareOverwrite(&p); err != nil {
			return 0, err
		}
	}

	written, err := f.writeBytes(p)
	if written > requested {
		written = requested
	}
	return written, err
}

// prepareOverwrite detects a write that targets a block already committed
// to the device. If p's range doesn't reach the file's current end, the
// untouched suffix beyond it is read back and appended after p so it gets
// re-laid alongside the new bytes; either way the chain is then rewound to
// a clean boundary at the current position so the rest of Write's normal
// tail-append path lands everything on fresh blocks instead of touching the
// old ones.
func (f *File) prepareOverwrite(p *[]byte) error {
	tailStart := f.size - uint32(len(f.pending))
	if f.pos >= tailStart {
		if f.pos == f.size && len(f.pending) == 0 && f.hasBlocks && f.size%uint32(f.tree.DataSize()) != 0 {
			// The committed last block is only partly filled: take its bytes
			// back as the pending tail so the append continues that block.
			return f.rewindChain(f.size)
		}
		return nil
	}

	overwriteEnd := f.pos + uint32(len(*p))
	var suffix []byte
	if overwriteEnd < f.size {
		suffix = make([]byte, f.size-overwriteEnd)
		if err := f.tree.ReadAt(f.head, f.headIdx, f.size, overwriteEnd, suffix); err != nil {
			return err
		}
	}

	boundary := f.pos
	if err := f.rewindChain(boundary); err != nil {
		return err
	}
	f.pos = boundary
	*p = append(append([]byte{}, *p...), suffix...)
	return nil
}

func (f *File) writeBytes(p []byte) (int, error) {
	written := 0
	for len(p) > 0 {
		if f.inline {
			newLen := uint32(f.pos) + uint32(len(p))
			if newLen <= uint32(f.inlineThreshold) {
				if uint32(len(f.inlineData)) < newLen {
					grown := make([]byte, newLen)
					copy(grown, f.inlineData)
					f.inlineData = grown
				}
				copy(f.inlineData[f.pos:], p)
				f.pos = newLen
				if newLen > f.size {
					f.size = newLen
				}
				f.dirty = true
				written += len(p)
				p = nil
				continue
			}
			// Migrating past the inline threshold: what's there becomes the
			// start of the first CTZ block's pending tail.
			f.pending = append([]byte{}, f.inlineData...)
			f.inline = false
			f.inlineData = nil
			continue
		}

		tailStart := f.size - uint32(len(f.pending))
		if f.pos < tailStart {
			return written, lferrors.WithMessage(
				lferrors.Invalid,
				"write position precedes the pending tail after copy-on-write rewind",
			)
		}

		room := int(f.tree.DataSize()) - len(f.pending)
		n := len(p)
		if n > room {
			n = room
		}
		f.pending = append(f.pending, p[:n]...)
		p = p[n:]
		f.pos += uint32(n)
		if f.pos > f.size {
			f.size = f.pos
		}
		f.dirty = true
		written += n

		if len(f.pending) == int(f.tree.DataSize()) {
			if err := f.flushPendingBlock(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

func (f *File) flushPendingBlock() error {
	newHead, newIdx, err := f.tree.AppendBlock(f.alloc, f.head, f.headIdx, f.hasBlocks, f.pending)
	if err != nil {
		return err
	}
	f.head, f.headIdx, f.hasBlocks = newHead, newIdx, true
	f.pending = f.pending[:0]
	return nil
}

// Sync flushes any partial pending block to the device. It's idempotent
// and is what Close calls before marking the handle dead.
func (f *File) Sync() error {
	if !f.dirty {
		return nil
	}
	if !f.inline && len(f.pending) > 0 {
		if err := f.flushPendingBlock(); err != nil {
			return err
		}
	}
	f.dirty = false
	return nil
}

// Truncate changes the file's logical length, zero-extending or COW-ing a
// shorter final block as spec §4.5 describes.
func (f *File) Truncate(length uint32) error {
	if f.closed {
		return lferrors.New(lferrors.BadFileDescriptor)
	}

	if f.inline && length <= uint32(f.inlineThreshold) {
		if length <= uint32(len(f.inlineData)) {
			f.inlineData = f.inlineData[:length]
		} else {
			grown := make([]byte, length)
			copy(grown, f.inlineData)
			f.inlineData = grown
		}
		f.size = length
		if f.pos > length {
			f.pos = length
		}
		f.dirty = true
		return nil
	}

	if length >= f.size {
		zeros := make([]byte, length-f.size)
		savedPos, savedAppend := f.pos, f.mode.Append
		f.pos, f.mode.Append = f.size, false
		_, err := f.Write(zeros)
		f.pos, f.mode.Append = savedPos, savedAppend
		return err
	}

	return f.rewindChain(length)
}

// rewindChain rolls the CTZ chain back so only the first length bytes
// remain: it reads the block straddling length, keeps its unchanged
// prefix as the new pending tail, and repoints head at the block before
// it (or drops the chain entirely if length falls in the first block).
// It never rewrites a committed block in place — everything from length
// onward lands on freshly allocated blocks the next time Write flushes.
func (f *File) rewindChain(length uint32) error {
	if length == 0 {
		f.head, f.headIdx, f.hasBlocks = 0, 0, false
		f.pending = f.pending[:0]
		f.size = 0
		if f.pos > 0 {
			f.pos = 0
		}
		f.dirty = true
		return nil
	}

	dataSize := uint32(f.tree.DataSize())
	blockIdx := (length - 1) / dataSize
	keep := (length-1)%dataSize + 1

	addr, err := f.tree.walk(f.dev, f.head, f.headIdx, blockIdx)
	if err != nil {
		return err
	}
	buf := make([]byte, f.dev.BlockSize())
	if err := f.dev.Read(int64(addr)*int64(f.dev.BlockSize()), buf); err != nil {
		return err
	}
	kept := append([]byte{}, buf[:keep]...)

	if blockIdx == 0 {
		f.head, f.headIdx, f.hasBlocks = 0, 0, false
	} else {
		newHead, err := f.tree.walk(f.dev, f.head, f.headIdx, blockIdx-1)
		if err != nil {
			return err
		}
		f.head, f.headIdx, f.hasBlocks = newHead, blockIdx-1, true
	}
	f.pending = kept
	f.size = length
	if f.pos > length {
		f.pos = length
	}
	f.dirty = true
	return nil
}

// EffectiveState reports what should be committed into the owning
// directory entry's struct tag: either an inline payload, or a CTZ head
// and size. Callers must Sync first so any pending block is durable.
func (f *File) EffectiveState() (inline bool, inlineData []byte, head lfblock.Address, size uint32) {
	return f.inline, f.inlineData, f.head, f.size
}
