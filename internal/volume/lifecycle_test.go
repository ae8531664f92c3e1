// Copyright (c) 2025 Stefano Scafiti
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package volume

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/internal/gpt"
	"github.com/sscafiti/bootvol/internal/guid"
)

// ext4Sample builds a SampleSize-byte buffer probeFSType classifies as
// Ext4 with the given volume UUID.
func ext4Sample(uuid [16]byte) []byte {
	full := make([]byte, SampleSize)
	full[ext2MagicOffset] = 0x53
	full[ext2MagicOffset+1] = 0xEF
	full[ext2IncompatOffset] = 0x40
	copy(full[ext2UUIDOffset:ext2UUIDOffset+16], uuid[:])
	return full
}

// TestScanDiscoversGPTRoot reproduces spec.md §8 S4: a device path
// whose final HARDDRIVE/GPT node resolves (via the GPT library) to the
// firmware-discovered-root partition-type GUID. Expected: Set.Scan
// populates DiscoveredRoot with that volume.
func TestScanDiscoversGPTRoot(t *testing.T) {
	h := "root-handle"
	partGUID := guid.MustParse("01234567-89ab-cdef-0123-456789abcdef")

	paths := newFakeDevicePathResolver()
	dp := firmware.DevicePath{fakeDPNode(fmt.Sprintf("HD(1,GPT,%s,0x800,0x64000)", partGUID.String()))}
	paths.set(h, dp)

	gptLib := newFakeGPTLibrary()
	gptLib.entries[partGUID] = fakeGPTEntry{name: "EFI Root", typeGUID: gpt.DiscoveredRootTypeGUID}

	bio := newFakeBlockIO(512, 0)
	opener := newFakeRootOpener()
	opener.errs[h] = fmt.Errorf("unreadable")

	scanner := &Scanner{
		Handles:       &fakeHandleEnumerator{handles: []any{h}},
		Paths:         paths,
		BlockIOOpener: blockIOOpenerFrom(map[any]firmware.BlockIO{h: bio}),
		RootOpener:    opener,
		GPTLib:        gptLib,
	}

	set := NewSet(scanner)
	require.NoError(t, set.Scan(context.Background()))

	require.NotNil(t, set.DiscoveredRoot)
	assert.Same(t, set.Volumes[0], set.DiscoveredRoot)
	assert.True(t, set.DiscoveredRoot.PartTypeGUID.Equal(gpt.DiscoveredRootTypeGUID))
	assert.Equal(t, "EFI Root", set.DiscoveredRoot.PartName)
}

// TestScanDedupsUUIDCollidedMirrors reproduces spec.md §8 S6: two
// handles reporting identical nonzero Ext4 UUIDs. Expected: the first
// stays readable with vol_number 0; the second is demoted to
// unreadable with the UNREADABLE sentinel.
func TestScanDedupsUUIDCollidedMirrors(t *testing.T) {
	var uuid [16]byte
	copy(uuid[:], []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16})
	sample := ext4Sample(uuid)

	h1, h2 := "mirror-1", "mirror-2"
	bio1 := newFakeBlockIO(512, 199)
	bio1.loadImage(sample)
	bio2 := newFakeBlockIO(512, 199)
	bio2.loadImage(sample)

	opener := newFakeRootOpener()
	opener.dirs[h1] = &fakeDir{files: map[string]bool{}}
	opener.dirs[h2] = &fakeDir{files: map[string]bool{}}

	scanner := &Scanner{
		Handles: &fakeHandleEnumerator{handles: []any{h1, h2}},
		BlockIOOpener: blockIOOpenerFrom(map[any]firmware.BlockIO{
			h1: bio1,
			h2: bio2,
		}),
		RootOpener: opener,
	}

	set := NewSet(scanner)
	require.NoError(t, set.Scan(context.Background()))
	require.Len(t, set.Volumes, 2)

	first, second := set.Volumes[0], set.Volumes[1]
	assert.True(t, first.IsReadable)
	assert.Equal(t, 0, first.VolNumber)

	assert.False(t, second.IsReadable)
	assert.Equal(t, UnreadableVolNumber, second.VolNumber)
}

// TestScanExpandsExtendedPartitionChain drives spec.md §8 S5 through
// the full Set.Scan pipeline rather than calling
// walkExtendedPartitionChain directly, confirming the expansion pass
// wires its results onto synthesized Volumes correctly.
func TestScanExpandsExtendedPartitionChain(t *testing.T) {
	h := "whole-disk"
	bio := newFakeBlockIO(512, 1<<20)

	primary := buildMBRSector([]mbrEntrySpec{
		{flags: 0x80, typeByte: 0x05, startLBA: 2048, sizeInSector: 20480},
	})
	bio.putSector(0, primary)

	firstEMBR := buildMBRSector([]mbrEntrySpec{
		{flags: 0x00, typeByte: 0x83, startLBA: 63, sizeInSector: 100},
		{flags: 0x00, typeByte: 0x05, startLBA: 8192, sizeInSector: 2048},
	})
	bio.putSector(2048, firstEMBR)

	secondEMBR := buildMBRSector([]mbrEntrySpec{
		{flags: 0x00, typeByte: 0x83, startLBA: 63, sizeInSector: 100},
	})
	bio.putSector(10240, secondEMBR)

	opener := newFakeRootOpener()
	opener.errs[h] = fmt.Errorf("whole disk has no filesystem of its own")

	scanner := &Scanner{
		Handles:       &fakeHandleEnumerator{handles: []any{h}},
		BlockIOOpener: blockIOOpenerFrom(map[any]firmware.BlockIO{h: bio}),
		RootOpener:    opener,
	}

	set := NewSet(scanner)
	require.NoError(t, set.Scan(context.Background()))

	require.Len(t, set.Volumes, 3, "whole disk + 2 synthesized logical partitions")

	var logicals []*Volume
	for _, v := range set.Volumes {
		if v.IsMbrPartition && v.MbrPartitionIndex >= firstLogicalPartitionIndex {
			logicals = append(logicals, v)
		}
	}
	require.Len(t, logicals, 2)
	assert.Equal(t, 4, logicals[0].MbrPartitionIndex)
	assert.Equal(t, uint64(2111), logicals[0].BlockIOOffset)
	assert.Equal(t, 5, logicals[1].MbrPartitionIndex)
	assert.Equal(t, uint64(10303), logicals[1].BlockIOOffset)
}

func TestUninitAndReinitVolumes(t *testing.T) {
	h := "device"
	paths := newFakeDevicePathResolver()
	dp := firmware.DevicePath{fakeDPNode("HD(1,GPT,01234567-89ab-cdef-0123-456789abcdef,0x800,0x64000)")}
	paths.set(h, dp)

	bio := newFakeBlockIO(512, 0)
	opener := newFakeRootOpener()
	opener.dirs[h] = &fakeDir{files: map[string]bool{}}

	scanner := &Scanner{
		Handles:       &fakeHandleEnumerator{handles: []any{h}},
		Paths:         paths,
		BlockIOOpener: blockIOOpenerFrom(map[any]firmware.BlockIO{h: bio}),
		RootOpener:    opener,
	}

	set := NewSet(scanner)
	require.NoError(t, set.Scan(context.Background()))
	require.Len(t, set.Volumes, 1)
	v := set.Volumes[0]
	require.True(t, v.IsReadable)
	require.NotNil(t, v.DevicePath)

	set.UninitVolumes()
	assert.Nil(t, v.Handle)
	assert.Nil(t, v.BlockIO)
	assert.Nil(t, v.RootDir)
	assert.False(t, v.IsReadable)
	assert.NotNil(t, v.DevicePath, "device path must survive a reinit cycle")

	require.NoError(t, set.ReinitVolumes(context.Background(), 2))
	assert.Nil(t, v.Handle, "firmwareMajorVersion != 1 must be a no-op, per the preserved quirk")

	require.NoError(t, set.ReinitVolumes(context.Background(), 1))
	assert.Equal(t, h, v.Handle)
	assert.NotNil(t, v.BlockIO)
	assert.True(t, v.IsReadable)
}
