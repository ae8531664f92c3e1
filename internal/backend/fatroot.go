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

package backend

import (
	"context"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/sscafiti/bootvol/internal/firmware"
)

// fatBPB holds the BIOS Parameter Block fields needed to locate a
// FAT12/16/32 root directory, a trimmed-down version of the teacher's
// internal/disk/fat.go FatBootSector kept to the handful of fields
// OpenRoot actually needs.
type fatBPB struct {
	bytesPerSector    uint16
	sectorsPerCluster uint8
	reservedSectors   uint16
	numFATs           uint8
	rootEntries       uint16 // 0 on FAT32
	fatSize16         uint16
	fatSize32         uint32
	rootCluster       uint32 // FAT32 only
	totalSectors16    uint16
	totalSectors32    uint32
}

// parseFATBootSector recognizes a FAT12/16/32 boot sector in a
// 512-byte buffer, the same 0xAA55-signature + BSFilSysType check the
// teacher's ReadFatBootSectorFrom performs, trimmed to field
// extraction instead of a full struct decode.
func parseFATBootSector(buf []byte) (*fatBPB, bool) {
	if len(buf) < 512 {
		return nil, false
	}
	if binary.LittleEndian.Uint16(buf[510:512]) != 0xAA55 {
		return nil, false
	}

	bpb := &fatBPB{
		bytesPerSector:    binary.LittleEndian.Uint16(buf[11:13]),
		sectorsPerCluster: buf[13],
		reservedSectors:   binary.LittleEndian.Uint16(buf[14:16]),
		numFATs:           buf[16],
		rootEntries:       binary.LittleEndian.Uint16(buf[17:19]),
		fatSize16:         binary.LittleEndian.Uint16(buf[22:24]),
		fatSize32:         binary.LittleEndian.Uint32(buf[36:40]),
		rootCluster:       binary.LittleEndian.Uint32(buf[44:48]),
		totalSectors16:    binary.LittleEndian.Uint16(buf[19:21]),
		totalSectors32:    binary.LittleEndian.Uint32(buf[32:36]),
	}

	if bpb.bytesPerSector == 0 || bpb.sectorsPerCluster == 0 || bpb.numFATs == 0 {
		return nil, false
	}

	// BS_FilSysType at offset 0x36 for FAT12/16, 0x52 for FAT32. The
	// label is checked only when rootEntries is 0 (FAT32 layout): then
	// either field must start with its FAT marker. A nonzero rootEntries
	// (FAT12/16 layout) is accepted without looking at either label.
	label := string(buf[0x36 : 0x36+8])
	label32 := string(buf[0x52 : 0x52+8])
	if !strings.HasPrefix(label, "FAT") && !strings.HasPrefix(label32, "FAT32") && bpb.rootEntries == 0 {
		return nil, false
	}

	return bpb, true
}

func (b *fatBPB) fatSize() uint32 {
	if b.fatSize16 != 0 {
		return uint32(b.fatSize16)
	}
	return b.fatSize32
}

// volumeSizeBytes returns the FAT volume's total size as recorded in
// its own BPB (BPB_TotSec16 if nonzero, else BPB_TotSec32), used for
// spec.md §4.6 priority-3 synthetic name fallback.
func (b *fatBPB) volumeSizeBytes() int64 {
	total := uint64(b.totalSectors16)
	if total == 0 {
		total = uint64(b.totalSectors32)
	}
	return int64(total * uint64(b.bytesPerSector))
}

// rootDirSectorSpan returns the starting LBA (in 512-byte sectors)
// and sector count of the root directory region this fatBPB
// describes. For FAT32, only the root directory's first cluster is
// read: a root directory spanning more than one cluster will miss
// entries past the first, a known limitation of this best-effort
// driver rather than a full FAT32 cluster-chain walker.
func (b *fatBPB) rootDirSectorSpan() (startLBA uint64, numSectors uint32) {
	firstDataSector := uint64(b.reservedSectors) + uint64(b.numFATs)*uint64(b.fatSize())

	if b.rootEntries != 0 {
		rootDirSectors := (uint32(b.rootEntries)*32 + 511) / 512
		return firstDataSector, rootDirSectors
	}

	clusterStart := firstDataSector + uint64(b.rootCluster-2)*uint64(b.sectorsPerCluster)
	return clusterStart, uint32(b.sectorsPerCluster)
}

// fatRootDir implements firmware.Dir (and firmware.FSInfo) against a
// parsed FAT root directory's short (8.3) entries.
type fatRootDir struct {
	names     map[string]bool
	label     string
	sizeBytes int64
}

func newFATRootDir(bio firmware.BlockIO, bpb *fatBPB) (firmware.Dir, error) {
	sizeBytes := bpb.volumeSizeBytes()

	startLBA, numSectors := bpb.rootDirSectorSpan()
	if numSectors == 0 {
		return fatRootDir{names: map[string]bool{}, sizeBytes: sizeBytes}, nil
	}

	buf := make([]byte, int(numSectors)*512)
	if err := bio.ReadBlocks(context.Background(), startLBA, buf); err != nil {
		return nil, fmt.Errorf("backend: read FAT root directory: %w", err)
	}

	names := map[string]bool{}
	var label string
	for off := 0; off+32 <= len(buf); off += 32 {
		entry := buf[off : off+32]
		switch entry[0] {
		case 0x00:
			return fatRootDir{names: names, label: label, sizeBytes: sizeBytes}, nil // end of directory
		case 0xE5:
			continue // deleted
		}
		attr := entry[11]
		if attr == 0x0F {
			continue // long-name fragment
		}
		if attr&0x08 != 0 {
			// Volume-label entry: its 11-byte name field is the
			// volume label itself, not a base+extension pair.
			if label == "" {
				label = strings.TrimRight(string(entry[0:11]), " ")
			}
			continue
		}
		base := strings.TrimRight(string(entry[0:8]), " ")
		ext := strings.TrimRight(string(entry[8:11]), " ")
		name := base
		if ext != "" {
			name = base + "." + ext
		}
		names[strings.ToUpper(name)] = true
	}
	return fatRootDir{names: names, label: label, sizeBytes: sizeBytes}, nil
}

func (d fatRootDir) Stat(_ context.Context, name string) (bool, error) {
	return d.names[strings.ToUpper(name)], nil
}

// Info implements firmware.FSInfo, reporting the FAT volume label (if
// a 0x08-attribute entry was found at the root) and the volume's
// total size as recorded in its own BPB.
func (d fatRootDir) Info(_ context.Context) (string, int64, error) {
	return d.label, d.sizeBytes, nil
}
