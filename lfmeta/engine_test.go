package lfmeta_test

import (
	"testing"

	"github.com/dargueta/littlefs/lfalloc"
	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lfmeta"
	"github.com/dargueta/littlefs/lftag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

func newDevice(t *testing.T, blockCount uint) (*lfblock.StreamDevice, func()) {
	t.Helper()
	const blockSize = 256
	backing := make([]byte, blockSize*blockCount)
	for i := range backing {
		backing[i] = 0xFF
	}
	stream := bytesextra.NewReadWriteSeeker(backing)
	dev := lfblock.NewStreamDevice(stream, lfblock.StreamDeviceConfig{
		ReadSize: 16, ProgramSize: 16, BlockSize: blockSize,
		BlockCount: blockCount, CacheSize: 16, LookaheadSize: 8,
	})
	return dev, func() {}
}

func newEngine(t *testing.T, blockCount uint) *lfmeta.Engine {
	t.Helper()
	dev, _ := newDevice(t, blockCount)
	alloc := lfalloc.New(dev, func(mark func(lfblock.Address)) error { return nil })
	return lfmeta.NewEngine(dev, alloc)
}

func TestFetchEmptyPairIsCorrupt(t *testing.T) {
	e := newEngine(t, 8)
	pair := lfmeta.Pair{Blocks: [2]lfblock.Address{0, 1}}
	_, _, err := e.Fetch(pair)
	assert.Error(t, err, "an erased pair has no valid CRC chain yet")
}

// initPair bootstraps a freshly erased pair the way the root filesystem
// always does before its first Commit: a real pair is never committed to
// until Init has written at least a terminating CRC onto it.
func initPair(t *testing.T, e *lfmeta.Engine, pair lfmeta.Pair) lfmeta.Pair {
	t.Helper()
	next, err := e.Init(pair, nil)
	require.NoError(t, err)
	return next
}

func TestCommitThenFetchRoundTrips(t *testing.T) {
	e := newEngine(t, 8)
	pair := initPair(t, e, lfmeta.Pair{Blocks: [2]lfblock.Address{0, 1}})

	ops := []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: 1, Length: 5}, Payload: []byte("hello")},
	}
	next, err := e.Commit(pair, ops)
	require.NoError(t, err)
	assert.Equal(t, pair.Shadow(), next.Active)

	_, state, err := e.Fetch(next)
	require.NoError(t, err)
	entry, ok := state.Entries[lfmeta.EntryKey{Type: lftag.TypeName, ID: 1}]
	require.True(t, ok)
	assert.Equal(t, "hello", string(entry.Payload))
}

func TestSecondCommitFlipsRolesAgain(t *testing.T) {
	e := newEngine(t, 8)
	pair := initPair(t, e, lfmeta.Pair{Blocks: [2]lfblock.Address{0, 1}})

	next, err := e.Commit(pair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: 1, Length: 3}, Payload: []byte("one")},
	})
	require.NoError(t, err)

	next2, err := e.Commit(next, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: 2, Length: 3}, Payload: []byte("two")},
	})
	require.NoError(t, err)
	assert.Equal(t, next.Active, next2.Shadow())

	_, state, err := e.Fetch(next2)
	require.NoError(t, err)
	assert.Len(t, state.Entries, 2)
}

func TestDeleteTombstonesEntry(t *testing.T) {
	e := newEngine(t, 8)
	pair := initPair(t, e, lfmeta.Pair{Blocks: [2]lfblock.Address{0, 1}})

	next, err := e.Commit(pair, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeName, ID: 1, Length: 3}, Payload: []byte("one")},
	})
	require.NoError(t, err)

	next2, err := e.Commit(next, []lfmeta.Op{
		{Tag: lftag.Tag{Valid: true, Type: lftag.TypeDelete, ID: 1}},
	})
	require.NoError(t, err)

	_, state, err := e.Fetch(next2)
	require.NoError(t, err)
	assert.Empty(t, state.Entries)
}

func TestCompactDropsStaleHistory(t *testing.T) {
	e := newEngine(t, 8)
	pair := initPair(t, e, lfmeta.Pair{Blocks: [2]lfblock.Address{0, 1}})

	current := pair
	for i := 0; i < 3; i++ {
		next, err := e.Commit(current, []lfmeta.Op{
			{Tag: lftag.Tag{Valid: true, Type: lftag.TypeUserAttrBase, ID: 1, Length: 1}, Payload: []byte{byte(i)}},
		})
		require.NoError(t, err)
		current = next
	}

	next, err := e.Compact(current, nil)
	require.NoError(t, err)
	_, state, err := e.Fetch(next)
	require.NoError(t, err)
	entry := state.Entries[lfmeta.EntryKey{Type: lftag.TypeUserAttrBase, ID: 1}]
	assert.Equal(t, []byte{2}, entry.Payload)
}
