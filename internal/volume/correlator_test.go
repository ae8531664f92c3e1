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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// populatedSector returns a 512-byte sector whose sum comfortably
// clears blankSectorSumGuard, standing in for "real" partition data.
func populatedSector() []byte {
	s := make([]byte, 512)
	for i := range s {
		s[i] = byte(i)
	}
	return s
}

func TestIdentifyMbrPartitionsSkipsSizeMismatch(t *testing.T) {
	parentBio := newFakeBlockIO(512, 999)
	sector := populatedSector()
	parentBio.putSector(100, sector)
	parent := &Volume{
		BlockIO:           parentBio,
		MbrPartitionTable: [4]MbrPartitionInfo{{StartLBA: 100, SizeInSector: 50}},
	}

	childBio := newFakeBlockIO(512, 59) // LastBlock+1 == 60, entry size is 50: mismatch
	childBio.putSector(0, sector)       // byte-identical; only the size check should reject this
	child := &Volume{BlockIO: childBio}

	set := &Set{Volumes: []*Volume{parent, child}}
	set.identifyMbrPartitions(context.Background())

	assert.False(t, child.IsMbrPartition, "entry size != child.LastBlock()+1 must be skipped (spec.md §4.7 step 3)")
}

func TestIdentifyMbrPartitionsMatchesOnSizeAndContent(t *testing.T) {
	parentBio := newFakeBlockIO(512, 999)
	sector := populatedSector()
	parentBio.putSector(100, sector)
	parent := &Volume{
		BlockIO:           parentBio,
		MbrPartitionTable: [4]MbrPartitionInfo{{StartLBA: 100, SizeInSector: 60}},
	}

	childBio := newFakeBlockIO(512, 59) // LastBlock+1 == 60, matches entry size
	childBio.putSector(0, sector)
	child := &Volume{BlockIO: childBio}

	set := &Set{Volumes: []*Volume{parent, child}}
	set.identifyMbrPartitions(context.Background())

	require.True(t, child.IsMbrPartition)
	assert.Equal(t, 0, child.MbrPartitionIndex)
	assert.Equal(t, uint64(0), child.BlockIOOffset, "a matched primary keeps its own BlockIO, so its offset stays zero")
}

func TestIdentifyMbrPartitionsRejectsBlankSectorMatch(t *testing.T) {
	parentBio := newFakeBlockIO(512, 999)
	// Leave LBA 100 unpopulated: reads back all-zero, matching the
	// also-all-zero child sector, but below blankSectorSumGuard.
	parent := &Volume{
		BlockIO:           parentBio,
		MbrPartitionTable: [4]MbrPartitionInfo{{StartLBA: 100, SizeInSector: 60}},
	}

	childBio := newFakeBlockIO(512, 59)
	child := &Volume{BlockIO: childBio}

	set := &Set{Volumes: []*Volume{parent, child}}
	set.identifyMbrPartitions(context.Background())

	assert.False(t, child.IsMbrPartition)
}

// TestWalkExtendedPartitionChainScenarioS5 reproduces spec.md §8 S5
// verbatim: a primary extended entry at LBA 2048, whose EMBR describes
// one logical partition at +63 and a further extended pointer at
// +8192, whose own EMBR (at LBA 10240) describes one more logical
// partition at +63. Expected: two logical partitions, indices 4 and
// 5, at absolute LBAs 2111 and 10303.
func TestWalkExtendedPartitionChainScenarioS5(t *testing.T) {
	bio := newFakeBlockIO(512, 1<<20)

	firstEMBR := buildMBRSector([]mbrEntrySpec{
		{flags: 0x00, typeByte: 0x83, startLBA: 63, sizeInSector: 100},
		{flags: 0x00, typeByte: 0x05, startLBA: 8192, sizeInSector: 2048},
	})
	bio.putSector(2048, firstEMBR)

	secondEMBR := buildMBRSector([]mbrEntrySpec{
		{flags: 0x00, typeByte: 0x83, startLBA: 63, sizeInSector: 100},
	})
	bio.putSector(10240, secondEMBR)

	primary := MbrPartitionInfo{Type: 0x05, StartLBA: 2048, SizeInSector: 20480}

	logicals, err := walkExtendedPartitionChain(context.Background(), bio, primary)
	require.NoError(t, err)
	require.Len(t, logicals, 2)

	assert.Equal(t, 4, logicals[0].index)
	assert.Equal(t, uint64(2111), logicals[0].startLBA)

	assert.Equal(t, 5, logicals[1].index)
	assert.Equal(t, uint64(10303), logicals[1].startLBA)
}

// TestWalkExtendedPartitionChainSecondSlotLogical guards the exact bug
// the fixed-index version had: a logical partition packed into EMBR
// slot 1 (not slot 0) must still be found.
func TestWalkExtendedPartitionChainSecondSlotLogical(t *testing.T) {
	bio := newFakeBlockIO(512, 1<<20)

	embr := buildMBRSector([]mbrEntrySpec{
		{flags: 0x80, typeByte: 0x83, startLBA: 63, sizeInSector: 100},
		{flags: 0x00, typeByte: 0x83, startLBA: 200, sizeInSector: 100},
	})
	bio.putSector(2048, embr)

	primary := MbrPartitionInfo{Type: 0x05, StartLBA: 2048, SizeInSector: 4096}

	logicals, err := walkExtendedPartitionChain(context.Background(), bio, primary)
	require.NoError(t, err)
	require.Len(t, logicals, 2)
	assert.Equal(t, uint64(2111), logicals[0].startLBA)
	assert.Equal(t, uint64(2248), logicals[1].startLBA)
}
