package lfctz_test

import (
	"testing"

	"github.com/dargueta/littlefs/lfalloc"
	"github.com/dargueta/littlefs/lfblock"
	"github.com/dargueta/littlefs/lfctz"
	"github.com/dargueta/littlefs/lfstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTreeAndAlloc(t *testing.T) (*lfblock.StreamDevice, *lfctz.Tree, *lfalloc.Allocator) {
	t.Helper()
	dev := lfstest.NewMemoryDevice(256, 64)
	tree, err := lfctz.NewTree(dev)
	require.NoError(t, err)
	alloc := lfalloc.New(dev, func(mark func(lfblock.Address)) error { return nil })
	return dev, tree, alloc
}

func TestInlineFileRoundTrip(t *testing.T) {
	dev, tree, alloc := newTreeAndAlloc(t)
	f := lfctz.NewInline(dev, alloc, tree, lfctz.Mode{Write: true, Read: true}, nil)

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	f.Seek(0)
	buf := make([]byte, 5)
	n, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	inline, data, _, size := f.EffectiveState()
	assert.True(t, inline)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, uint32(5), size)
}

func TestCTZMultiBlockWriteAndRead(t *testing.T) {
	dev, tree, alloc := newTreeAndAlloc(t)
	f := lfctz.NewInline(dev, alloc, tree, lfctz.Mode{Write: true, Read: true}, nil)

	payload := make([]byte, tree.DataSize()*3+17)
	for i := range payload {
		payload[i] = byte(i % 251)
	}
	n, err := f.Write(payload)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	require.NoError(t, f.Sync())

	inline, _, head, size := f.EffectiveState()
	require.False(t, inline)
	assert.Equal(t, uint32(len(payload)), size)

	readBack := lfctz.NewCTZ(dev, alloc, tree, lfctz.Mode{Read: true}, head, headIdxFor(tree, size), size)
	out := make([]byte, len(payload))
	n, err = readBack.Read(out)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, out)
}

func headIdxFor(tree *lfctz.Tree, size uint32) uint32 {
	blocks := tree.BlocksForSize(size)
	if blocks == 0 {
		return 0
	}
	return blocks - 1
}

func TestAppendModeAlwaysWritesAtEnd(t *testing.T) {
	dev, tree, alloc := newTreeAndAlloc(t)
	f := lfctz.NewInline(dev, alloc, tree, lfctz.Mode{Write: true, Append: true}, []byte("abc"))

	f.Seek(0) // append mode ignores this on Write
	_, err := f.Write([]byte("def"))
	require.NoError(t, err)

	_, data, _, size := f.EffectiveState()
	assert.Equal(t, "abcdef", string(data))
	assert.Equal(t, uint32(6), size)
}

func TestTruncateShrinkInline(t *testing.T) {
	dev, tree, alloc := newTreeAndAlloc(t)
	f := lfctz.NewInline(dev, alloc, tree, lfctz.Mode{Write: true}, []byte("0123456789"))

	require.NoError(t, f.Truncate(4))
	_, data, _, size := f.EffectiveState()
	assert.Equal(t, "0123", string(data))
	assert.Equal(t, uint32(4), size)
}

func TestTruncateExtendInline(t *testing.T) {
	dev, tree, alloc := newTreeAndAlloc(t)
	f := lfctz.NewInline(dev, alloc, tree, lfctz.Mode{Write: true}, []byte("ab"))

	require.NoError(t, f.Truncate(5))
	_, data, _, size := f.EffectiveState()
	assert.Equal(t, uint32(5), size)
	assert.Equal(t, []byte("ab\x00\x00\x00"), data)
}

func TestCloseTwiceIsBadFileDescriptor(t *testing.T) {
	dev, tree, alloc := newTreeAndAlloc(t)
	f := lfctz.NewInline(dev, alloc, tree, lfctz.Mode{Write: true}, nil)

	require.NoError(t, f.Close())
	assert.Error(t, f.Close())
}

func TestOverwriteCommittedBlockPreservesPrefixAndSuffix(t *testing.T) {
	dev, tree, alloc := newTreeAndAlloc(t)
	f := lfctz.NewInline(dev, alloc, tree, lfctz.Mode{Write: true, Read: true}, nil)

	original := make([]byte, tree.DataSize()*2+10)
	for i := range original {
		original[i] = byte(i % 251)
	}
	n, err := f.Write(original)
	require.NoError(t, err)
	require.Equal(t, len(original), n)
	require.NoError(t, f.Sync())

	// Overwrite a few bytes that land inside the first, already-committed
	// block.
	f.Seek(3)
	n, err = f.Write([]byte("XYZ"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, f.Sync())

	want := append([]byte{}, original...)
	copy(want[3:], "XYZ")

	f.Seek(0)
	got := make([]byte, len(want))
	n, err = f.Read(got)
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, got)
}

func TestOverwriteAtStartOfFilePreservesSuffixAndSize(t *testing.T) {
	dev, tree, alloc := newTreeAndAlloc(t)
	f := lfctz.NewInline(dev, alloc, tree, lfctz.Mode{Write: true, Read: true}, nil)

	original := make([]byte, tree.DataSize()+8)
	for i := range original {
		original[i] = byte(i % 251)
	}
	_, err := f.Write(original)
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	f.Seek(0)
	replacement := []byte("ABCD")
	n, err := f.Write(replacement)
	require.NoError(t, err)
	assert.Equal(t, len(replacement), n)
	require.NoError(t, f.Sync())

	want := append([]byte{}, original...)
	copy(want, replacement)
	assert.Equal(t, uint32(len(want)), f.Size())

	f.Seek(0)
	got := make([]byte, len(want))
	_, err = f.Read(got)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
