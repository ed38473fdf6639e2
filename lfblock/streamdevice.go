package lfblock

import (
	"fmt"
	"io"

	"github.com/dargueta/littlefs/lferrors"
)

// StreamDevice adapts any [io.ReadWriteSeeker] (a file, an in-memory buffer,
// a network block store) into a [Device]. It's the concrete device used by
// the example CLI and by tests; production embedded callers are expected to
// supply their own [Device] backed directly by flash hardware.
type StreamDevice struct {
	stream io.ReadWriteSeeker

	readSize      uint
	programSize   uint
	blockSize     uint
	blockCount    uint
	cacheSize     uint
	lookaheadSize uint
	blockCycles   int
	eraseValue    byte
}

// StreamDeviceConfig collects the declared constants of [Device] (spec §6.1)
// for constructing a [StreamDevice].
type StreamDeviceConfig struct {
	ReadSize      uint
	ProgramSize   uint
	BlockSize     uint
	BlockCount    uint
	CacheSize     uint
	LookaheadSize uint
	// BlockCycles defaults to -1 ([BlockCyclesDisabled]) if left at the zero
	// value, so 0 itself cannot be configured.
	BlockCycles int
	// EraseValue is the byte pattern Erase fills with. NOR/NAND flash erases
	// to 0xFF; callers simulating other media may override it with any
	// nonzero value.
	EraseValue byte
}

// BlockCyclesDisabled disables forced metadata-pair relocation on wear.
const BlockCyclesDisabled = -1

// NewStreamDevice wraps stream as a [Device] using cfg's geometry. The erase
// value defaults to 0xFF (the conventional NOR/NAND erased state) when
// cfg.EraseValue is left zero, so an erase value of 0x00 cannot be chosen.
func NewStreamDevice(stream io.ReadWriteSeeker, cfg StreamDeviceConfig) *StreamDevice {
	eraseValue := cfg.EraseValue
	if eraseValue == 0 {
		eraseValue = 0xFF
	}
	blockCycles := cfg.BlockCycles
	if blockCycles == 0 {
		blockCycles = BlockCyclesDisabled
	}

	return &StreamDevice{
		stream:        stream,
		readSize:      cfg.ReadSize,
		programSize:   cfg.ProgramSize,
		blockSize:     cfg.BlockSize,
		blockCount:    cfg.BlockCount,
		cacheSize:     cfg.CacheSize,
		lookaheadSize: cfg.LookaheadSize,
		blockCycles:   blockCycles,
		eraseValue:    eraseValue,
	}
}

func (d *StreamDevice) ReadSize() uint      { return d.readSize }
func (d *StreamDevice) ProgramSize() uint   { return d.programSize }
func (d *StreamDevice) BlockSize() uint     { return d.blockSize }
func (d *StreamDevice) BlockCount() uint    { return d.blockCount }
func (d *StreamDevice) CacheSize() uint     { return d.cacheSize }
func (d *StreamDevice) LookaheadSize() uint { return d.lookaheadSize }
func (d *StreamDevice) BlockCycles() int    { return d.blockCycles }

func (d *StreamDevice) checkBounds(offset int64, length uint) error {
	totalSize := int64(d.blockCount) * int64(d.blockSize)
	if offset < 0 || offset+int64(length) > totalSize {
		return lferrors.WithMessage(
			lferrors.Invalid,
			fmt.Sprintf("access [%d, %d) out of bounds for a %d-byte device", offset, offset+int64(length), totalSize),
		)
	}
	return nil
}

func (d *StreamDevice) Read(offset int64, buf []byte) error {
	if err := d.checkBounds(offset, uint(len(buf))); err != nil {
		return err
	}
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return lferrors.IOFailed.Wrap(err)
	}
	if _, err := io.ReadFull(d.stream, buf); err != nil {
		return lferrors.IOFailed.Wrap(err)
	}
	return nil
}

// Program writes buf to the device. As with real NOR/NAND flash, this core
// never calls Program twice over the same bytes without an intervening
// Erase; StreamDevice does not enforce the "only flip bits from erase value"
// contract since in-memory/file-backed streams have no such restriction, but
// it is documented here as the contract real hardware drivers must honor.
func (d *StreamDevice) Program(offset int64, buf []byte) error {
	if err := d.checkBounds(offset, uint(len(buf))); err != nil {
		return err
	}
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return lferrors.IOFailed.Wrap(err)
	}
	if _, err := d.stream.Write(buf); err != nil {
		return lferrors.IOFailed.Wrap(err)
	}
	return nil
}

func (d *StreamDevice) Erase(offset int64, length uint) error {
	if err := d.checkBounds(offset, length); err != nil {
		return err
	}
	filled := make([]byte, length)
	for i := range filled {
		filled[i] = d.eraseValue
	}
	if _, err := d.stream.Seek(offset, io.SeekStart); err != nil {
		return lferrors.IOFailed.Wrap(err)
	}
	if _, err := d.stream.Write(filled); err != nil {
		return lferrors.IOFailed.Wrap(err)
	}
	return nil
}

// ReadBlock and ProgramBlock/EraseBlock are convenience wrappers that take
// block indices rather than byte offsets, mirroring the teacher's
// BlockStream.Read/Write taking a BlockID instead of a raw offset. The core
// itself calls Read/Program/Erase with byte offsets.
func (d *StreamDevice) ReadBlock(block Address, buf []byte) error {
	return d.Read(int64(block)*int64(d.blockSize), buf)
}

func (d *StreamDevice) ProgramBlock(block Address, buf []byte) error {
	return d.Program(int64(block)*int64(d.blockSize), buf)
}

func (d *StreamDevice) EraseBlock(block Address) error {
	return d.Erase(int64(block)*int64(d.blockSize), d.blockSize)
}
