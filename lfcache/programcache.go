package lfcache

import (
	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lferrors"
	"github.com/noxer/bytewriter"
)

// ProgramCache stages program-size-aligned writes for a single block before
// they're flushed to the device. Nothing else in this module creates one:
// an open lfctz.File stages its unflushed tail in its own pending buffer.
type ProgramCache struct {
	size   uint
	block  lfblock.Address
	off    uint
	buf    []byte
	writer *bytewriter.Writer
	dirty  bool
	armed  bool
}

// NewProgramCache returns a ProgramCache with the given capacity, which must
// be the device's declared cache size.
func NewProgramCache(size uint) *ProgramCache {
	return &ProgramCache{size: size, buf: make([]byte, size)}
}

// Reset points the cache at a fresh block and offset, discarding any
// unflushed bytes. Callers must Flush before Reset if the prior contents
// are still needed.
func (c *ProgramCache) Reset(block lfblock.Address, off uint) {
	c.block = block
	c.off = off
	c.writer = bytewriter.New(c.buf)
	c.dirty = false
	c.armed = true
}

// Block and Offset report where the staged bytes will land on Flush.
func (c *ProgramCache) Block() lfblock.Address { return c.block }
func (c *ProgramCache) Offset() uint            { return c.off }

// Len reports how many bytes are currently staged.
func (c *ProgramCache) Len() int {
	if c.writer == nil {
		return 0
	}
	return c.writer.Len()
}

// Full reports whether the cache has no more room for another byte.
func (c *ProgramCache) Full() bool {
	return c.Len() >= int(c.size)
}

// Write stages as much of p as fits in the remaining capacity and returns
// how many bytes it accepted. A short count (n < len(p)) means the cache is
// full: the caller must Flush, Reset onto the next block, and write the
// remainder.
func (c *ProgramCache) Write(p []byte) (n int, err error) {
	if !c.armed {
		return 0, lferrors.New(lferrors.Invalid)
	}
	n, _ = c.writer.Write(p)
	if n > 0 {
		c.dirty = true
	}
	return n, nil
}

// Flush programs the staged bytes to dev if the cache is dirty, then marks
// it clean. It does not clear the staged bytes; call Reset to start a new
// block.
func (c *ProgramCache) Flush(dev lfblock.Device) error {
	if !c.dirty {
		return nil
	}
	n := c.Len()
	if err := dev.Program(int64(c.block)*int64(dev.BlockSize())+int64(c.off), c.buf[:n]); err != nil {
		return err
	}
	c.dirty = false
	return nil
}
