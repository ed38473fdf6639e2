// Package lfblock defines the block-device contract the core is built on
// top of (spec §4.1/§6.1) and the small set of address constants and
// geometry checks every other package shares.
package lfblock

import (
	"math"

	"github.com/dargueta/littlefs/lferrors"
)

// Address is an index into a device's erase-block array.
type Address uint32

const (
	// Null marks the absence of a block, e.g. an empty tail pointer.
	Null = Address(math.MaxUint32)
	// InProgress marks a block that the allocator has handed out but that no
	// committed metadata entry references yet (spec invariant 3).
	InProgress = Address(math.MaxUint32 - 1)
)

// Valid reports whether addr is an ordinary, dereferenceable block address.
func (addr Address) Valid() bool {
	return addr != Null && addr != InProgress
}

// Device is the driver contract a caller must provide to mount a filesystem.
// All offsets are byte offsets from the start of the device; the core never
// issues unaligned I/O, so implementations are free to assume every call
// respects ReadSize/ProgramSize/BlockSize.
type Device interface {
	ReadSize() uint
	ProgramSize() uint
	BlockSize() uint
	BlockCount() uint

	// CacheSize is the size, in bytes, of the process-wide scratch regions
	// (spec §4.2). Must be a multiple of ReadSize and ProgramSize, and a
	// factor of BlockSize.
	CacheSize() uint

	// LookaheadSize is the size, in bytes, of the allocator's lookahead
	// bitmap window (spec §4.3). Must be a multiple of 8.
	LookaheadSize() uint

	// BlockCycles is the wear-level hint: -1 disables forced relocation,
	// any positive value caps how many times a metadata pair may be
	// committed in place before compaction forces a fresh pair.
	BlockCycles() int

	Read(offset int64, buf []byte) error
	Program(offset int64, buf []byte) error
	Erase(offset int64, length uint) error
}

// ValidateGeometry checks the declared constants of dev against the
// constraints spec.md §4.1/§6.1 impose, returning a [lferrors.Error] that
// pinpoints the first violation found.
func ValidateGeometry(dev Device) error {
	blockSize := dev.BlockSize()
	if blockSize < 128 {
		return lferrors.WithMessage(lferrors.Invalid, "block size must be >= 128 bytes")
	}

	readSize := dev.ReadSize()
	programSize := dev.ProgramSize()
	if readSize == 0 || blockSize%readSize != 0 {
		return lferrors.WithMessage(lferrors.Invalid, "block size must be a multiple of read size")
	}
	if programSize == 0 || blockSize%programSize != 0 {
		return lferrors.WithMessage(lferrors.Invalid, "block size must be a multiple of program size")
	}

	cacheSize := dev.CacheSize()
	if cacheSize == 0 || cacheSize%readSize != 0 || cacheSize%programSize != 0 {
		return lferrors.WithMessage(
			lferrors.Invalid,
			"cache size must be a multiple of both read size and program size",
		)
	}
	if blockSize%cacheSize != 0 {
		return lferrors.WithMessage(lferrors.Invalid, "cache size must be a factor of block size")
	}

	lookaheadSize := dev.LookaheadSize()
	if lookaheadSize == 0 || lookaheadSize%8 != 0 {
		return lferrors.WithMessage(lferrors.Invalid, "lookahead size must be a nonzero multiple of 8 bytes")
	}

	if dev.BlockCount() < 4 {
		return lferrors.WithMessage(lferrors.Invalid, "a filesystem needs at least 4 blocks")
	}

	return nil
}
