// Package lfalloc implements the block allocator: a sliding lookahead
// bitmap window that is rescanned against the live filesystem whenever it's
// exhausted, rather than tracking every free block at once (spec §4.3).
// This is the same tradeoff the teacher's allocatormap.go makes — trade a
// full in-memory free list for a small bounded scratch region — generalized
// from a single full-device bitmap to a window that can be smaller than the
// device and must be repositioned and refilled by traversal.
package lfalloc

import (
	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lfcache"
	"github.com/dargueta/littlefs/lferrors"
)

// TraversalFunc walks every live block reference in the mounted filesystem
// (every metadata-pair block and every block in every file's CTZ skip-list)
// and calls mark for each one. The allocator supplies mark; the caller
// (the root filesystem facade, which alone knows the directory tree) does
// the walking.
type TraversalFunc func(mark func(lfblock.Address)) error

// Allocator hands out free blocks from a [lfcache.Lookahead] window, paging
// the window across the device and re-populating it by traversal whenever
// it empties out.
type Allocator struct {
	dev        lfblock.Device
	lookahead  *lfcache.Lookahead
	next       lfblock.Address
	scanned    bool
	inProgress map[lfblock.Address]bool
	traverse   TraversalFunc
}

// New returns an Allocator over dev's declared lookahead size. traverse is
// called to repopulate the window every time it's exhausted; it may be
// nil only for devices with no committed references yet (a freshly
// formatted, unmounted image).
func New(dev lfblock.Device, traverse TraversalFunc) *Allocator {
	return &Allocator{
		dev:        dev,
		lookahead:  lfcache.NewLookahead(dev.LookaheadSize()),
		inProgress: make(map[lfblock.Address]bool),
		traverse:   traverse,
	}
}

func (a *Allocator) rescan(begin lfblock.Address) error {
	a.lookahead.Reset(begin)
	for addr := range a.inProgress {
		a.lookahead.Mark(addr)
	}
	if a.traverse != nil {
		if err := a.traverse(a.lookahead.Mark); err != nil {
			return err
		}
	}
	a.scanned = true
	return nil
}

// Alloc returns a free block address and marks it in-progress: reserved by
// this call but not yet durable until the caller commits it and calls Ack.
// It scans the current window, and if that comes up empty, advances the
// window and retraverses the whole filesystem to refill it, repeating until
// every window across the device has been tried once. It fails with
// lferrors.NoSpace only after that full sweep finds nothing.
func (a *Allocator) Alloc() (lfblock.Address, error) {
	blockCount := lfblock.Address(a.dev.BlockCount())
	windowBlocks := lfblock.Address(a.lookahead.Blocks())
	if windowBlocks == 0 || blockCount == 0 {
		return 0, lferrors.New(lferrors.NoSpace)
	}

	begin := a.next
	sweeps := (blockCount + windowBlocks - 1) / windowBlocks
	for i := lfblock.Address(0); i <= sweeps; i++ {
		if !a.scanned || a.lookahead.Begin() != begin {
			if err := a.rescan(begin); err != nil {
				return 0, err
			}
		}
		if addr, ok := a.lookahead.NextFree(); ok && addr < blockCount {
			a.inProgress[addr] = true
			a.next = addr + 1
			if a.next >= blockCount {
				a.next = 0
			}
			return addr, nil
		}
		begin += windowBlocks
		if begin >= blockCount {
			begin = 0
		}
	}
	return 0, lferrors.WithMessage(lferrors.NoSpace, "no free block found after a full device sweep")
}

// Ack tells the allocator that block was committed and is now durably live.
// It stops being tracked as merely in-progress; traversal will find it on
// future rescans because it's now referenced from the metadata it was
// committed into.
func (a *Allocator) Ack(block lfblock.Address) {
	delete(a.inProgress, block)
}

// Dealloc marks block free. It's best-effort: if block currently falls
// outside the window, nothing needs to happen, since the next rescan will
// naturally omit it unless traversal still finds a live reference (spec
// §4.3).
func (a *Allocator) Dealloc(block lfblock.Address) {
	delete(a.inProgress, block)
	a.lookahead.Clear(block)
}
