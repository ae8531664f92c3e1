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

	"github.com/sscafiti/bootvol/internal/firmware"
)

// firstLogicalPartitionIndex is where synthesized logical-partition
// indices begin; 0-3 are reserved for the four primary MBR entries
// (spec.md §4.5).
const firstLogicalPartitionIndex = 4

// maxEMBRChainDepth bounds the extended-partition walk against a
// corrupt or cyclic chain; no real disk nests this deep.
const maxEMBRChainDepth = 256

// isExtendedPartitionType reports whether t is one of the three MBR
// partition-type bytes that mean "this entry points to another
// extended boot record" (spec.md §4.5): plain DOS extended (0x05),
// LBA-addressed extended (0x0F), and the Linux extended variant
// (0x85).
func isExtendedPartitionType(t byte) bool {
	return t == 0x05 || t == 0x0F || t == 0x85
}

// logicalPartition is one entry discovered while walking an extended
// MBR chain, ready to be synthesized into a Volume.
type logicalPartition struct {
	index        int
	startLBA     uint64
	sizeInSector uint64
	typeByte     byte
}

// walkExtendedPartitionChain follows the linked list of extended boot
// records rooted at primary, returning one logicalPartition per
// logical drive found. All LBAs are absolute (in 512-byte sectors)
// from the start of the whole disk.
//
// This mirrors lib.c's ScanExtendedPartition control flow exactly: the
// inner loop walks all four EMBR entries in order, synthesizing a
// logical partition for every non-extended entry it finds and only
// breaking out early once an invalid entry or an extended-type entry
// (the chain pointer to the next EMBR) is hit. A fixed-index read of
// "entry 0 is the logical, entry 1 is the next pointer" would miss a
// second logical partition packed into entries 2-3 of the same EMBR,
// and would misfire if an extended entry ever landed in slot 0.
func walkExtendedPartitionChain(ctx context.Context, bio firmware.BlockIO, primary MbrPartitionInfo) ([]logicalPartition, error) {
	if !isExtendedPartitionType(primary.Type) {
		return nil, nil
	}

	extendedBase := uint64(primary.StartLBA)
	currentLBA := extendedBase
	index := firstLogicalPartitionIndex

	var out []logicalPartition
	for depth := 0; depth < maxEMBRChainDepth && currentLBA != 0; depth++ {
		sector, err := read512(ctx, bio, currentLBA)
		if err != nil {
			return out, fmt.Errorf("embr: reading chain entry at LBA %d: %w", currentLBA, err)
		}

		entries, ok := mbrSnapshot(sector)
		if !ok {
			break
		}

		nextLBA := uint64(0)
		for i := 0; i < 4; i++ {
			entry := entries[i]
			if (entry.Flags != 0x00 && entry.Flags != 0x80) || entry.StartLBA == 0 || entry.SizeInSector == 0 {
				break
			}
			if isExtendedPartitionType(entry.Type) {
				nextLBA = extendedBase + uint64(entry.StartLBA)
				break
			}
			out = append(out, logicalPartition{
				index:        index,
				startLBA:     currentLBA + uint64(entry.StartLBA),
				sizeInSector: uint64(entry.SizeInSector),
				typeByte:     entry.Type,
			})
			index++
		}

		currentLBA = nextLBA
	}

	return out, nil
}

// logicalPartitionName is the "Partition N" display name synthesized
// for a logical partition, where N is 1-based (index+1), matching the
// rest of the MBR table's 1-based partition numbering.
func logicalPartitionName(index int) string {
	return fmt.Sprintf("Partition %d", index+1)
}
