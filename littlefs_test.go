package littlefs_test

import (
	"testing"

	littlefs "github.com/dargueta/littlefs"
	"github.com/dargueta/littlefs/lfpath"
	"github.com/dargueta/littlefs/lfstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPath(t *testing.T, s string) lfpath.Path {
	t.Helper()
	p, err := lfpath.New(s)
	require.NoError(t, err)
	return p
}

func TestFormatLeaves126BlocksFreeOnA128BlockDevice(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))

	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	assert.EqualValues(t, 128, fs.TotalBlocks())
	avail, err := fs.AvailableBlocks()
	require.NoError(t, err)
	assert.EqualValues(t, 126, avail)
}

func TestMountTwiceWithoutWritesYieldsSameAvailableBlocks(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))

	fs1, err := littlefs.Mount(dev)
	require.NoError(t, err)
	avail1, err := fs1.AvailableBlocks()
	require.NoError(t, err)

	fs2, err := littlefs.Mount(dev)
	require.NoError(t, err)
	avail2, err := fs2.AvailableBlocks()
	require.NoError(t, err)

	assert.Equal(t, avail1, avail2)
}

func TestMountRejectsAnUnformattedDevice(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	_, err := littlefs.Mount(dev)
	assert.Error(t, err)
	assert.False(t, littlefs.IsMountable(dev))
}

func TestWriteReadRoundTripAfterRemount(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))

	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)
	require.NoError(t, fs.CreateDirAll(mustPath(t, "/tmp")))
	require.NoError(t, fs.Write(mustPath(t, "/tmp/a.txt"), []byte("hello world")))

	fs2, err := littlefs.Mount(dev)
	require.NoError(t, err)
	data, err := fs2.Read(mustPath(t, "/tmp/a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
}

func TestLargeFileSpanningMultipleCTZBlocksRoundTrips(t *testing.T) {
	// 32 KiB of data plus per-block pointers does not fit the 32 KiB small
	// device, so this test uses a 512-block device.
	dev := lfstest.NewMemoryDevice(256, 512)
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	payload := make([]byte, 32*1024)
	for i := range payload {
		payload[i] = byte(i % 256)
	}
	require.NoError(t, fs.Write(mustPath(t, "/big.bin"), payload))

	out, err := fs.Read(mustPath(t, "/big.bin"))
	require.NoError(t, err)
	assert.Equal(t, payload, out)
}

func TestReadDirYieldsDotAndDotDotFirstThenInsertionOrder(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Write(mustPath(t, "/file.b"), []byte("b")))
	require.NoError(t, fs.Write(mustPath(t, "/file.a"), []byte("a")))

	var names []string
	err = littlefs.ReadDirAndThen(fs, mustPath(t, "/"), func(it *littlefs.DirIterator) error {
		for {
			entry, ok, err := it.Next()
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			names = append(names, entry.Name)
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []string{".", "..", "file.b", "file.a"}, names)
}

func TestAppendModeWritesAfterExistingContent(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Write(mustPath(t, "/log.txt"), []byte("first")))
	err = littlefs.OpenFileWithOptionsAndThen(fs, mustPath(t, "/log.txt"), littlefs.Mode{Write: true, Append: true}, func(f *littlefs.File) error {
		_, err := f.Write([]byte("second"))
		return err
	})
	require.NoError(t, err)

	data, err := fs.Read(mustPath(t, "/log.txt"))
	require.NoError(t, err)
	assert.Equal(t, "firstsecond", string(data))
}

func TestReadChunkTruncatesToWhatRemains(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Write(mustPath(t, "/f.txt"), []byte("0123456789")))

	chunk, err := fs.ReadChunk(mustPath(t, "/f.txt"), 7, 100)
	require.NoError(t, err)
	assert.Equal(t, "789", string(chunk))

	chunk, err = fs.ReadChunk(mustPath(t, "/f.txt"), 20, 5)
	require.NoError(t, err)
	assert.Empty(t, chunk)
}

func TestRemoveDeletesAFileAndRejectsADirectory(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.CreateDir(mustPath(t, "/d")))
	require.NoError(t, fs.Write(mustPath(t, "/f.txt"), []byte("x")))

	assert.Error(t, fs.Remove(mustPath(t, "/d")))
	require.NoError(t, fs.Remove(mustPath(t, "/f.txt")))
	assert.False(t, fs.Exists(mustPath(t, "/f.txt")))
}

func TestRemoveDirFailsWhenNotEmpty(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.CreateDir(mustPath(t, "/d")))
	require.NoError(t, fs.Write(mustPath(t, "/d/f.txt"), []byte("x")))

	assert.Error(t, fs.RemoveDir(mustPath(t, "/d")))
	require.NoError(t, fs.RemoveDirAll(mustPath(t, "/d")))
	assert.False(t, fs.Exists(mustPath(t, "/d")))
}

func TestRemoveDirAllFreesEveryBlockItOwned(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	before, err := fs.AvailableBlocks()
	require.NoError(t, err)

	require.NoError(t, fs.CreateDirAll(mustPath(t, "/a/b/c")))
	require.NoError(t, fs.Write(mustPath(t, "/a/b/c/f.txt"), []byte("some content")))

	require.NoError(t, fs.RemoveDirAll(mustPath(t, "/a")))
	after, err := fs.AvailableBlocks()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRemoveDirAllWherePreservesRootWhenAChildIsSkipped(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.CreateDir(mustPath(t, "/keep")))
	require.NoError(t, fs.Write(mustPath(t, "/keep/spared.txt"), []byte("x")))
	require.NoError(t, fs.Write(mustPath(t, "/keep/gone.txt"), []byte("y")))

	err = fs.RemoveDirAllWhere(mustPath(t, "/keep"), func(e littlefs.DirEntry) bool {
		return e.Name != "spared.txt"
	})
	require.NoError(t, err)

	assert.True(t, fs.Exists(mustPath(t, "/keep")))
	assert.True(t, fs.Exists(mustPath(t, "/keep/spared.txt")))
	assert.False(t, fs.Exists(mustPath(t, "/keep/gone.txt")))
}

func TestRenameWithinSameDirectory(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Write(mustPath(t, "/old.txt"), []byte("data")))
	require.NoError(t, fs.Rename(mustPath(t, "/old.txt"), mustPath(t, "/new.txt")))

	assert.False(t, fs.Exists(mustPath(t, "/old.txt")))
	data, err := fs.Read(mustPath(t, "/new.txt"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
}

func TestRenameAcrossDirectoriesReplacesExistingDestination(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.CreateDir(mustPath(t, "/src")))
	require.NoError(t, fs.CreateDir(mustPath(t, "/dst")))
	require.NoError(t, fs.Write(mustPath(t, "/src/f.txt"), []byte("new")))
	require.NoError(t, fs.Write(mustPath(t, "/dst/f.txt"), []byte("old")))

	require.NoError(t, fs.Rename(mustPath(t, "/src/f.txt"), mustPath(t, "/dst/f.txt")))

	assert.False(t, fs.Exists(mustPath(t, "/src/f.txt")))
	data, err := fs.Read(mustPath(t, "/dst/f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
}

func TestAttributeSetGetTruncatedReadAndRemove(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Write(mustPath(t, "/f.txt"), []byte("data")))
	require.NoError(t, fs.SetAttribute(mustPath(t, "/f.txt"), 5, []byte("0123456789")))

	buf := make([]byte, 4)
	n, total, err := fs.Attribute(mustPath(t, "/f.txt"), 5, buf)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 10, total)
	assert.Equal(t, "0123", string(buf))

	require.NoError(t, fs.SetAttribute(mustPath(t, "/f.txt"), 5, []byte("xyz")))
	buf = make([]byte, 16)
	n, total, err = fs.Attribute(mustPath(t, "/f.txt"), 5, buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, total)

	require.NoError(t, fs.RemoveAttribute(mustPath(t, "/f.txt"), 5))
	_, _, err = fs.Attribute(mustPath(t, "/f.txt"), 5, buf)
	assert.Error(t, err)
}

func TestSetAttributeRejectsOversizedValue(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)
	require.NoError(t, fs.Write(mustPath(t, "/f.txt"), []byte("data")))

	tooBig := make([]byte, littlefs.MaxAttributeSize+1)
	assert.Error(t, fs.SetAttribute(mustPath(t, "/f.txt"), 1, tooBig))
}

func TestCreateFileFailsIfEntryAlreadyExists(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.Write(mustPath(t, "/f.txt"), []byte("x")))
	err = littlefs.CreateFileAndThen(fs, mustPath(t, "/f.txt"), func(*littlefs.File) error { return nil })
	assert.Error(t, err)
}

func TestMetadataReportsKindAndSize(t *testing.T) {
	dev := lfstest.NewSmallDevice()
	require.NoError(t, littlefs.Format(dev))
	fs, err := littlefs.Mount(dev)
	require.NoError(t, err)

	require.NoError(t, fs.CreateDir(mustPath(t, "/d")))
	require.NoError(t, fs.Write(mustPath(t, "/f.txt"), []byte("hello")))

	dirMeta, err := fs.Metadata(mustPath(t, "/d"))
	require.NoError(t, err)
	assert.True(t, dirMeta.IsDir)

	fileMeta, err := fs.Metadata(mustPath(t, "/f.txt"))
	require.NoError(t, err)
	assert.False(t, fileMeta.IsDir)
	assert.EqualValues(t, 5, fileMeta.Size)
}
