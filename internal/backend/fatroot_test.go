package backend

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBlockIO serves a single in-memory byte slice at a fixed block size.
type fakeBlockIO struct {
	data []byte
	size uint32
}

func (f *fakeBlockIO) BlockSize() uint32 { return f.size }

func (f *fakeBlockIO) LastBlock() uint64 {
	if f.size == 0 {
		return 0
	}
	return uint64(len(f.data))/uint64(f.size) - 1
}

func (f *fakeBlockIO) MediaID() string { return "fake" }

func (f *fakeBlockIO) IsLogicalPartition() bool { return false }

func (f *fakeBlockIO) ReadBlocks(_ context.Context, lba uint64, buf []byte) error {
	off := int64(lba) * int64(f.size)
	n := copy(buf, f.data[off:])
	if n < len(buf) {
		for i := n; i < len(buf); i++ {
			buf[i] = 0
		}
	}
	return nil
}

func makeFAT16BootSector(rootEntries uint16) []byte {
	buf := make([]byte, 512)
	binary.LittleEndian.PutUint16(buf[11:13], 512) // bytes per sector
	buf[13] = 4                                    // sectors per cluster
	binary.LittleEndian.PutUint16(buf[14:16], 1)   // reserved sectors
	buf[16] = 2                                    // num FATs
	binary.LittleEndian.PutUint16(buf[17:19], rootEntries)
	binary.LittleEndian.PutUint16(buf[22:24], 8) // FAT size 16
	copy(buf[0x36:0x36+8], "FAT16   ")
	binary.LittleEndian.PutUint16(buf[510:512], 0xAA55)
	return buf
}

func TestParseFATBootSectorRecognizesFAT16(t *testing.T) {
	buf := makeFAT16BootSector(16)
	bpb, ok := parseFATBootSector(buf)
	require.True(t, ok)
	assert.Equal(t, uint16(512), bpb.bytesPerSector)
	assert.Equal(t, uint8(4), bpb.sectorsPerCluster)
	assert.Equal(t, uint32(8), bpb.fatSize())
}

func TestParseFATBootSectorRejectsMissingSignature(t *testing.T) {
	buf := makeFAT16BootSector(16)
	buf[510] = 0
	buf[511] = 0
	_, ok := parseFATBootSector(buf)
	assert.False(t, ok)
}

func TestParseFATBootSectorRejectsShortBuffer(t *testing.T) {
	_, ok := parseFATBootSector(make([]byte, 100))
	assert.False(t, ok)
}

func TestRootDirSectorSpanFAT16(t *testing.T) {
	buf := makeFAT16BootSector(16) // 16 entries -> 1 sector
	bpb, ok := parseFATBootSector(buf)
	require.True(t, ok)

	startLBA, numSectors := bpb.rootDirSectorSpan()
	// reserved(1) + numFATs(2)*fatSize(8) = 17
	assert.Equal(t, uint64(17), startLBA)
	assert.Equal(t, uint32(1), numSectors)
}

func makeShortEntry(name, ext string, attr byte) []byte {
	e := make([]byte, 32)
	copy(e[0:8], padTo(name, 8))
	copy(e[8:11], padTo(ext, 3))
	e[11] = attr
	return e
}

func padTo(s string, n int) string {
	for len(s) < n {
		s += " "
	}
	return s
}

func TestNewFATRootDirListsShortEntriesOnly(t *testing.T) {
	buf := makeFAT16BootSector(16) // 1 root-dir sector = 16 entries
	bpb, ok := parseFATBootSector(buf)
	require.True(t, ok)

	startLBA, numSectors := bpb.rootDirSectorSpan()
	rootBytes := make([]byte, int(numSectors)*512)
	copy(rootBytes[0:32], makeShortEntry("NTLDR", "", 0x20))
	copy(rootBytes[32:64], makeShortEntry("DELETED", "TXT", 0x20))
	rootBytes[32] = 0xE5 // mark deleted
	copy(rootBytes[64:96], makeShortEntry("VOLLABEL", "", 0x08))
	rootBytes[96] = 0x00 // end of directory

	image := make([]byte, int(startLBA+uint64(numSectors))*512)
	copy(image[startLBA*512:], rootBytes)

	dir, err := newFATRootDir(&fakeBlockIO{data: image, size: 512}, bpb)
	require.NoError(t, err)

	found, err := dir.Stat(context.Background(), "ntldr")
	require.NoError(t, err)
	assert.True(t, found, "NTLDR should be found case-insensitively")

	found, err = dir.Stat(context.Background(), "DELETED.TXT")
	require.NoError(t, err)
	assert.False(t, found, "deleted entries must not be listed")

	found, err = dir.Stat(context.Background(), "VOLLABEL")
	require.NoError(t, err)
	assert.False(t, found, "volume-label entries must not be listed as files")
}
