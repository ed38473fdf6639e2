package lfcache

import (
	"github.com/boljen/go-bitmap"
	"github.com/dargueta/littlefs/lfblock"
)

// Lookahead is the rolling bitmap window lfalloc scans for free blocks: one
// bit per block, covering [Begin, Begin+Blocks()) of the device's address
// space (spec §4.2, §4.3). The allocator owns deciding where the window sits
// and when to rescan; this type only owns the bits.
type Lookahead struct {
	bits  bitmap.Bitmap
	begin lfblock.Address
	count uint
}

// NewLookahead returns a Lookahead sized to hold one bit per block across
// sizeBytes bytes (spec §6.1: lookahead size is declared in bytes, a
// multiple of 8).
func NewLookahead(sizeBytes uint) *Lookahead {
	count := sizeBytes * 8
	return &Lookahead{
		bits:  bitmap.NewSlice(int(count)),
		count: count,
	}
}

// Blocks reports how many consecutive blocks the window covers.
func (l *Lookahead) Blocks() uint { return l.count }

// Begin reports the address the window currently starts at.
func (l *Lookahead) Begin() lfblock.Address { return l.begin }

// Reset repositions the window to start at begin and clears every bit
// (every block in the new window is provisionally "free" until Mark says
// otherwise).
func (l *Lookahead) Reset(begin lfblock.Address) {
	l.begin = begin
	l.bits = bitmap.NewSlice(int(l.count))
}

// inWindow reports whether addr falls within the current window and, if so,
// its bit index.
func (l *Lookahead) inWindow(addr lfblock.Address) (int, bool) {
	if addr < l.begin {
		return 0, false
	}
	idx := int(addr - l.begin)
	if uint(idx) >= l.count {
		return 0, false
	}
	return idx, true
}

// Mark records addr as in-use. It's a no-op if addr falls outside the
// current window.
func (l *Lookahead) Mark(addr lfblock.Address) {
	if idx, ok := l.inWindow(addr); ok {
		l.bits.Set(idx, true)
	}
}

// Clear marks addr as free again. It's a no-op if addr falls outside the
// current window; the allocator's next rescan will discover the block is
// free implicitly (spec §4.3: dealloc is best-effort).
func (l *Lookahead) Clear(addr lfblock.Address) {
	if idx, ok := l.inWindow(addr); ok {
		l.bits.Set(idx, false)
	}
}

// IsFree reports whether addr is known-free within the current window.
// Addresses outside the window are reported as not free, since the window
// has no information about them; the allocator must rescan to find out.
func (l *Lookahead) IsFree(addr lfblock.Address) bool {
	idx, ok := l.inWindow(addr)
	if !ok {
		return false
	}
	return !l.bits.Get(idx)
}

// NextFree returns the lowest-addressed free block in the window, or
// ok=false if every block in the window is marked in-use.
func (l *Lookahead) NextFree() (addr lfblock.Address, ok bool) {
	for i := 0; uint(i) < l.count; i++ {
		if !l.bits.Get(i) {
			return l.begin + lfblock.Address(i), true
		}
	}
	return 0, false
}
