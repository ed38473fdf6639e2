package lfcache_test

import (
	"testing"

	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lfcache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memDevice struct {
	data      []byte
	blockSize uint
}

func newMemDevice(blockCount, blockSize uint) *memDevice {
	return &memDevice{data: make([]byte, blockCount*blockSize), blockSize: blockSize}
}

func (d *memDevice) ReadSize() uint      { return 16 }
func (d *memDevice) ProgramSize() uint   { return 16 }
func (d *memDevice) BlockSize() uint     { return d.blockSize }
func (d *memDevice) BlockCount() uint    { return uint(len(d.data)) / d.blockSize }
func (d *memDevice) CacheSize() uint     { return 16 }
func (d *memDevice) LookaheadSize() uint { return 16 }
func (d *memDevice) BlockCycles() int    { return -1 }

func (d *memDevice) Read(offset int64, buf []byte) error {
	copy(buf, d.data[offset:])
	return nil
}
func (d *memDevice) Program(offset int64, buf []byte) error {
	copy(d.data[offset:], buf)
	return nil
}
func (d *memDevice) Erase(offset int64, length uint) error {
	for i := uint(0); i < length; i++ {
		d.data[int64(i)+offset] = 0xFF
	}
	return nil
}

func TestReadCacheRefillsOnBlockMismatch(t *testing.T) {
	dev := newMemDevice(4, 256)
	copy(dev.data[256:], []byte("hello, block one"))

	rc := lfcache.NewReadCache(16)
	dst := make([]byte, 16)
	require.NoError(t, rc.Read(dev, lfblock.Address(1), 0, dst))
	assert.Equal(t, "hello, block one", string(dst))

	// A read from a different block must not see stale data.
	other := make([]byte, 16)
	require.NoError(t, rc.Read(dev, lfblock.Address(2), 0, other))
	assert.NotEqual(t, dst, other)
}

func TestReadCacheCrossWindowRead(t *testing.T) {
	dev := newMemDevice(1, 256)
	for i := range dev.data {
		dev.data[i] = byte(i)
	}

	rc := lfcache.NewReadCache(16)
	dst := make([]byte, 40) // spans three 16-byte windows
	require.NoError(t, rc.Read(dev, lfblock.Address(0), 8, dst))
	for i, b := range dst {
		assert.Equal(t, byte(8+i), b)
	}
}

func TestProgramCacheFlush(t *testing.T) {
	dev := newMemDevice(2, 256)
	pc := lfcache.NewProgramCache(16)
	pc.Reset(lfblock.Address(1), 0)

	n, err := pc.Write([]byte("0123456789abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 16, n)
	assert.True(t, pc.Full())

	require.NoError(t, pc.Flush(dev))
	assert.Equal(t, []byte("0123456789abcdef"), dev.data[256:272])
}

func TestProgramCacheShortWriteSignalsFull(t *testing.T) {
	pc := lfcache.NewProgramCache(8)
	pc.Reset(lfblock.Address(0), 0)

	n, err := pc.Write([]byte("0123456789"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.True(t, pc.Full())
}

func TestLookaheadWindow(t *testing.T) {
	la := lfcache.NewLookahead(2) // 16 bits
	la.Reset(lfblock.Address(10))
	assert.Equal(t, lfblock.Address(10), la.Begin())

	la.Mark(lfblock.Address(10))
	la.Mark(lfblock.Address(11))

	assert.False(t, la.IsFree(lfblock.Address(10)))
	assert.True(t, la.IsFree(lfblock.Address(12)))
	// Outside the window: unknown, reported not-free.
	assert.False(t, la.IsFree(lfblock.Address(9)))

	next, ok := la.NextFree()
	require.True(t, ok)
	assert.Equal(t, lfblock.Address(12), next)
}

func TestLookaheadExhausted(t *testing.T) {
	la := lfcache.NewLookahead(1) // 8 bits
	la.Reset(lfblock.Address(0))
	for i := 0; i < 8; i++ {
		la.Mark(lfblock.Address(i))
	}
	_, ok := la.NextFree()
	assert.False(t, ok)
}
