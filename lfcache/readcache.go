// Package lfcache implements the three scratch regions spec §4.2 describes:
// a single-entry read cache, a single-entry aligned program cache, and the
// lookahead bitmap window. Only the lookahead window is used outside this
// package; ReadCache and ProgramCache are exercised by this package's tests
// alone. None of these is an LRU: invalidation is driven
// purely by address mismatch on read and by commit on write (spec §4.2).
package lfcache

import (
	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lferrors"
)

// ReadCache holds at most one window of one block. A read that falls
// outside the currently loaded window triggers a fresh device read of a
// size-byte-aligned chunk; it never holds more than one block's worth of
// data across all the windows it might visit.
type ReadCache struct {
	size  uint
	block lfblock.Address
	off   uint
	buf   []byte
	valid bool
}

// NewReadCache returns a ReadCache windowed in size-byte chunks. size must be
// the device's declared cache size (spec §6.1: a multiple of the read size
// and a factor of the block size).
func NewReadCache(size uint) *ReadCache {
	return &ReadCache{size: size}
}

// Invalidate drops the cached window unconditionally. Callers do this after
// any operation that might have changed the block's on-medium contents out
// from under the cache, such as a program or erase.
func (c *ReadCache) Invalidate() {
	c.valid = false
}

// Read copies len(dst) bytes starting at byte offset within block into dst,
// refilling the cached window from dev as needed. offset+len(dst) must not
// exceed the device's block size.
func (c *ReadCache) Read(dev lfblock.Device, block lfblock.Address, offset uint, dst []byte) error {
	blockSize := dev.BlockSize()
	if offset+uint(len(dst)) > blockSize {
		return lferrors.WithMessage(lferrors.Invalid, "read extends past the end of the block")
	}

	for len(dst) > 0 {
		if !c.valid || c.block != block || offset < c.off || offset >= c.off+uint(len(c.buf)) {
			if err := c.refill(dev, block, offset); err != nil {
				return err
			}
		}
		n := copy(dst, c.buf[offset-c.off:])
		dst = dst[n:]
		offset += uint(n)
	}
	return nil
}

func (c *ReadCache) refill(dev lfblock.Device, block lfblock.Address, offset uint) error {
	blockSize := dev.BlockSize()
	winStart := (offset / c.size) * c.size
	winLen := c.size
	if winStart+winLen > blockSize {
		winLen = blockSize - winStart
	}

	if cap(c.buf) < int(winLen) {
		c.buf = make([]byte, winLen)
	} else {
		c.buf = c.buf[:winLen]
	}

	if err := dev.Read(int64(block)*int64(blockSize)+int64(winStart), c.buf); err != nil {
		return err
	}
	c.block = block
	c.off = winStart
	c.valid = true
	return nil
}
