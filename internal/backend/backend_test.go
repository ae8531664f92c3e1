package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempImage(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestOpenHandlesAndBlockIO(t *testing.T) {
	data := make([]byte, 4096)
	path := writeTempImage(t, "disk.img", data)

	b, err := Open([]string{path}, Options{})
	require.NoError(t, err)
	defer b.Close()

	handles, err := b.Handles(context.Background())
	require.NoError(t, err)
	require.Len(t, handles, 1)

	bio, err := b.BlockIO(context.Background(), handles[0])
	require.NoError(t, err)
	assert.Equal(t, uint32(512), bio.BlockSize())
}

func TestDevicePathRoundTripsThroughLocate(t *testing.T) {
	path := writeTempImage(t, "disk.img", make([]byte, 512))

	b, err := Open([]string{path}, Options{})
	require.NoError(t, err)
	defer b.Close()

	handles, err := b.Handles(context.Background())
	require.NoError(t, err)

	dp, err := b.DevicePath(context.Background(), handles[0])
	require.NoError(t, err)
	require.Len(t, dp, 1)

	got, err := b.LocateDevicePath(context.Background(), dp)
	require.NoError(t, err)
	assert.Equal(t, handles[0], got)
}

func TestOpenRejectsEmptyPathList(t *testing.T) {
	_, err := Open(nil, Options{})
	assert.Error(t, err)
}

func TestOpenRootAllZeroSectorIsUnreadable(t *testing.T) {
	path := writeTempImage(t, "blank.img", make([]byte, 4096))

	b, err := Open([]string{path}, Options{})
	require.NoError(t, err)
	defer b.Close()

	handles, _ := b.Handles(context.Background())
	_, err = b.OpenRoot(context.Background(), handles[0])
	assert.Error(t, err)
}

func TestOpenRootRecognizesFATBootSector(t *testing.T) {
	buf := makeFAT16BootSector(16)
	image := append(buf, make([]byte, 64*512)...)
	path := writeTempImage(t, "fat.img", image)

	b, err := Open([]string{path}, Options{})
	require.NoError(t, err)
	defer b.Close()

	handles, _ := b.Handles(context.Background())
	dir, err := b.OpenRoot(context.Background(), handles[0])
	require.NoError(t, err)

	found, err := dir.Stat(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
}
