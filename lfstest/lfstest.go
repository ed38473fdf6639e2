// Package lfstest provides fixtures shared by every other package's tests:
// an in-memory block device and one small named geometry. It
// plays the same role the teacher's testing package does for its drivers,
// built on the same bytesextra memory-backed stream.
package lfstest

import (
	"github.com/xaionaro-go/bytesextra"

	"github.com/dargueta/littlefs/lfblock"
)

// NewMemoryDevice returns a [lfblock.StreamDevice] backed entirely by
// memory, erased to 0xFF, sized for blockCount blocks of blockSize bytes
// each. It's the fixture nearly every package's tests mount against instead
// of a real file.
func NewMemoryDevice(blockSize, blockCount uint) *lfblock.StreamDevice {
	backing := make([]byte, blockSize*blockCount)
	for i := range backing {
		backing[i] = 0xFF
	}
	stream := bytesextra.NewReadWriteSeeker(backing)
	return lfblock.NewStreamDevice(stream, lfblock.StreamDeviceConfig{
		ReadSize:      16,
		ProgramSize:   16,
		BlockSize:     blockSize,
		BlockCount:    blockCount,
		CacheSize:     16,
		LookaheadSize: 16,
		EraseValue:    0xFF,
	})
}

// NewSmallDevice returns the 128-block, 256-byte-block device spec.md's
// worked examples (§8) use throughout.
func NewSmallDevice() *lfblock.StreamDevice {
	return NewMemoryDevice(256, 128)
}
