package littlefs

import (
	"encoding/binary"

	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lferrors"
)

// magic identifies a formatted image; it has no meaning beyond "don't mount
// garbage" (spec §6.2).
const magic = 0x6c6c6673 // "llfs" read as a big-endian word; on disk (little-endian) the bytes are "sfll"

const (
	formatMajor = 1
	formatMinor = 0
)

// encodeSuperblockPayload replicates the driver's declared geometry into the
// on-medium superblock tag so a later mount can detect a driver/image
// mismatch (spec §6.2) instead of silently misinterpreting block boundaries.
func encodeSuperblockPayload(dev lfblock.Device) []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], formatMajor)
	binary.LittleEndian.PutUint16(buf[6:8], formatMinor)
	binary.LittleEndian.PutUint32(buf[8:12], uint32(dev.BlockSize()))
	binary.LittleEndian.PutUint32(buf[12:16], uint32(dev.BlockCount()))
	binary.LittleEndian.PutUint32(buf[16:20], uint32(dev.ReadSize()))
	return buf
}

// checkSuperblockPayload verifies payload was written by a compatible format
// and matches dev's current geometry.
func checkSuperblockPayload(dev lfblock.Device, payload []byte) error {
	if len(payload) < 20 {
		return lferrors.WithMessage(lferrors.Corruption, "superblock payload is truncated")
	}
	if binary.LittleEndian.Uint32(payload[0:4]) != magic {
		return lferrors.WithMessage(lferrors.Corruption, "superblock magic does not match")
	}
	if binary.LittleEndian.Uint32(payload[8:12]) != uint32(dev.BlockSize()) {
		return lferrors.WithMessage(lferrors.Corruption, "image block size does not match the mounted driver's geometry")
	}
	if binary.LittleEndian.Uint32(payload[12:16]) != uint32(dev.BlockCount()) {
		return lferrors.WithMessage(lferrors.Corruption, "image block count does not match the mounted driver's geometry")
	}
	return nil
}
