package lftag_test

import (
	"testing"

	"github.com/dargueta/littlefs/lftag"
	"github.com/stretchr/testify/assert"
)

func TestChainRoundTrip(t *testing.T) {
	tags := []lftag.Tag{
		{Valid: true, Type: lftag.TypeName, ID: 3, Length: 8},
		{Valid: true, Type: lftag.TypeInlineStruct, ID: 3, Length: 12},
		{Valid: true, Type: lftag.ForUserAttr(9), ID: 3, Length: 4},
		{Valid: true, Type: lftag.TypeCRC, ID: 0, Length: 4},
	}

	buf := make([]byte, len(tags)*lftag.Size)
	var writeChain lftag.Chain
	for i, tag := range tags {
		writeChain.Append(tag, buf[i*lftag.Size:])
	}

	var readChain lftag.Chain
	for i, want := range tags {
		got := readChain.Next(buf[i*lftag.Size:])
		assert.Equal(t, want, got)
	}
}

func TestFirstTagIsUnencoded(t *testing.T) {
	tag := lftag.Tag{Valid: true, Type: lftag.TypeSuperblock, ID: 0, Length: 24}
	buf := make([]byte, lftag.Size)

	var chain lftag.Chain
	chain.Append(tag, buf)

	var plain lftag.Chain
	got := plain.Next(buf)
	assert.Equal(t, tag, got)
}

func TestUserAttrRoundTrip(t *testing.T) {
	typ := lftag.ForUserAttr(42)
	id, ok := typ.UserAttrID()
	assert.True(t, ok)
	assert.Equal(t, uint8(42), id)

	_, ok = lftag.TypeName.UserAttrID()
	assert.False(t, ok)
}

func TestUserAttrDeleteRoundTrip(t *testing.T) {
	typ := lftag.ForUserAttrDelete(7)
	id, ok := typ.UserAttrDeleteID()
	assert.True(t, ok)
	assert.Equal(t, uint8(7), id)
}

func TestCorruptionFlipsDecodedTag(t *testing.T) {
	// A single bit flip anywhere in the chain after a tag must change what
	// every subsequent tag decodes to, which is what lets the CRC catch it.
	tags := []lftag.Tag{
		{Valid: true, Type: lftag.TypeName, ID: 1, Length: 4},
		{Valid: true, Type: lftag.TypeInlineStruct, ID: 1, Length: 4},
	}
	buf := make([]byte, len(tags)*lftag.Size)
	var chain lftag.Chain
	for i, tag := range tags {
		chain.Append(tag, buf[i*lftag.Size:])
	}

	buf[0] ^= 0x01

	var readChain lftag.Chain
	first := readChain.Next(buf[0:])
	second := readChain.Next(buf[lftag.Size:])
	assert.NotEqual(t, tags[0], first)
	assert.NotEqual(t, tags[1], second)
}
