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

	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/internal/guid"
)

// blankSectorSumGuard is the minimum byte-sum a sector must have for
// the MBR-identification pass to trust a byte-equal match between a
// child and parent sector; guards against two all-zero (or near-zero)
// sectors matching each other trivially (spec.md §4.7).
const blankSectorSumGuard = 1000

// correlate runs the three passes of spec.md §4.7 over set.Volumes:
// extended-partition expansion, whole-disk linkage, and MBR-partition
// identification. It mutates set.Volumes in place, appending any
// synthesized logical-partition Volumes the expansion pass produces.
func (set *Set) correlate(ctx context.Context) {
	set.expandExtendedPartitions(ctx)
	set.linkWholeDisks(ctx)
	set.identifyMbrPartitions(ctx)
}

// expandExtendedPartitions walks every extended-partition entry of
// every whole-disk-like Volume's captured MBR table, synthesizing a
// Volume for each logical partition found (spec.md §4.5/§4.7).
func (set *Set) expandExtendedPartitions(ctx context.Context) {
	// Snapshot the starting length: synthesized volumes are appended
	// to set.Volumes but never themselves re-walked for nested
	// extended chains (a logical partition is never itself an
	// extended-container in this model).
	n := len(set.Volumes)
	for i := 0; i < n; i++ {
		parent := set.Volumes[i]
		bio, ok := parent.BlockIO.(firmware.BlockIO)
		if !ok || bio == nil {
			continue
		}
		if !hasNonzeroMbrTable(parent.MbrPartitionTable) {
			continue
		}

		for _, entry := range parent.MbrPartitionTable {
			if !isExtendedPartitionType(entry.Type) {
				continue
			}
			logicals, err := walkExtendedPartitionChain(ctx, bio, entry)
			if err != nil {
				set.logger().Warn("extended partition chain walk failed", "error", err)
				continue
			}
			for _, lp := range logicals {
				sample, err := readSampleAt(ctx, bio, lp.startLBA, SampleSize)
				fsType := FSUnknown
				var volUUID guid.GUID
				if err == nil {
					pr := probeFSType(sample)
					fsType = pr.fsType
					volUUID = pr.volUUID
				}
				child := &Volume{
					WholeDiskBlockIO:     parent.BlockIO,
					WholeDiskDevicePath:  parent.DevicePath,
					WholeDiskVolumeIndex: i,
					BlockIOOffset:        lp.startLBA,
					IsMbrPartition:       true,
					MbrPartitionIndex:    lp.index,
					DiskKind:             parent.DiskKind,
					FSType:               fsType,
					VolUUID:              volUUID,
					VolNumber:            UnreadableVolNumber,
					VolName:              logicalPartitionName(lp.index),
				}
				set.Volumes = append(set.Volumes, child)
			}
		}
	}
}

// linkWholeDisks resolves WholeDiskVolumeIndex for every Volume that
// has a WholeDiskDevicePath but wasn't already linked by the
// extended-partition expansion pass, by matching its synthesized
// whole-disk device path against another scanned Volume's own device
// path.
func (set *Set) linkWholeDisks(ctx context.Context) {
	for _, v := range set.Volumes {
		if v.WholeDiskVolumeIndex >= 0 || v.WholeDiskDevicePath == nil {
			continue
		}
		target, ok := v.WholeDiskDevicePath.(firmware.DevicePath)
		if !ok {
			continue
		}
		for j, candidate := range set.Volumes {
			if candidate == v {
				continue
			}
			cdp, ok := candidate.DevicePath.(firmware.DevicePath)
			if !ok {
				continue
			}
			if devicePathEqual(cdp, target) {
				v.WholeDiskVolumeIndex = j
				if v.WholeDiskBlockIO == nil {
					v.WholeDiskBlockIO = candidate.BlockIO
				}
				break
			}
		}
	}
}

// identifyMbrPartitions matches every Volume that was scanned from
// its own firmware handle (not synthesized by the expansion pass)
// against the primary MBR entries of any whole-disk Volume. An entry
// whose size doesn't match the candidate child's own last_block+1 is
// skipped outright; otherwise a byte-equal comparison of the first
// 512 bytes read through each handle, guarded against matching two
// blank sectors, means the handle is the MBR partition at that
// entry's index (spec.md §4.7).
func (set *Set) identifyMbrPartitions(ctx context.Context) {
	for _, parent := range set.Volumes {
		bio, ok := parent.BlockIO.(firmware.BlockIO)
		if !ok || bio == nil || !hasNonzeroMbrTable(parent.MbrPartitionTable) {
			continue
		}

		for _, child := range set.Volumes {
			if child == parent || child.IsMbrPartition {
				continue
			}
			childBio, ok := child.BlockIO.(firmware.BlockIO)
			if !ok || childBio == nil {
				continue
			}
			childSector, err := read512(ctx, childBio, 0)
			if err != nil {
				continue
			}

			for idx, entry := range parent.MbrPartitionTable {
				if entry.StartLBA == 0 {
					continue
				}
				if uint64(entry.SizeInSector) != childBio.LastBlock()+1 {
					continue
				}
				parentSector, err := read512(ctx, bio, uint64(entry.StartLBA))
				if err != nil {
					continue
				}
				if !bytesEqual(childSector, parentSector) {
					continue
				}
				if sectorByteSum(childSector) < blankSectorSumGuard {
					continue
				}
				child.IsMbrPartition = true
				child.MbrPartitionIndex = idx
				break
			}
		}
	}
}

func hasNonzeroMbrTable(table [4]MbrPartitionInfo) bool {
	for _, e := range table {
		if e.StartLBA != 0 || e.SizeInSector != 0 {
			return true
		}
	}
	return false
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sectorByteSum(sector []byte) int {
	sum := 0
	for _, b := range sector {
		sum += int(b)
	}
	return sum
}

// devicePathEqual compares two device paths by the textual form of
// every node, since no concrete comparable struct backs
// firmware.DevicePathNode in general.
func devicePathEqual(a, b firmware.DevicePath) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].String() != b[i].String() {
			return false
		}
	}
	return true
}

// readSampleAt reads up to n bytes starting at LBA lba (in 512-byte
// sectors), used to probe a synthesized logical partition's
// filesystem without firmware ever allocating it its own handle.
func readSampleAt(ctx context.Context, bio firmware.BlockIO, lba512 uint64, n int) ([]byte, error) {
	blockSize := int(bio.BlockSize())
	if blockSize == 0 {
		blockSize = 512
	}
	byteOffset := lba512 * 512
	startBlock := byteOffset / uint64(blockSize)
	blocks := (n + blockSize - 1) / blockSize
	buf := make([]byte, blocks*blockSize)
	if err := retryReadBlocks(ctx, bio, startBlock, buf); err != nil {
		return nil, err
	}
	within := int(byteOffset % uint64(blockSize))
	if within+n > len(buf) {
		n = len(buf) - within
	}
	return buf[within : within+n], nil
}
