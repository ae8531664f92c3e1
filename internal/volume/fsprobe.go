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
	"bytes"
	"encoding/binary"

	"github.com/sscafiti/bootvol/internal/guid"
)

// probeResult is what the byte-pattern probe determines from a
// SampleSize-byte sample taken from the start of a volume's media.
type probeResult struct {
	fsType  FSType
	volUUID guid.GUID
	// fatMountPending marks a recognized FAT-family boot sector whose
	// final classification (spec.md §4.1 rule 6: FAT, WholeDisk, or
	// Unknown) depends on a firmware mount attempt the byte-pattern
	// probe itself has no access to; the volume scanner resolves this
	// once it has attempted to open the root directory.
	fatMountPending bool
}

const (
	ext2SuperblockOffset = 1024
	ext2MagicOffset      = ext2SuperblockOffset + 56
	ext2CompatOffset     = ext2SuperblockOffset + 92
	ext2IncompatOffset   = ext2SuperblockOffset + 96
	ext2UUIDOffset       = ext2SuperblockOffset + 104

	ext2Magic = 0xEF53

	// Feature bits relevant to telling ext2/ext3/ext4 apart; this
	// core never needs the rest of the feature bitmask.
	extCompatHasJournal  = 0x0004
	extIncompatExtents   = 0x0040

	reiserFSSuperblockOffset = 65536
	reiserFSMagicOffset      = reiserFSSuperblockOffset + 52
	reiserFSUUIDOffset       = reiserFSSuperblockOffset + 84

	btrfsSuperblockOffset = 65536
	btrfsMagicOffset      = btrfsSuperblockOffset + 64

	hfsPlusMagicOffset = 1024

	bootSectorSize        = 512
	bootSignatureOffset   = 510
	ntfsOEMOffset         = 3
	ntfsSerialOffset      = 0x48

	iso9660SectorSize       = 2048
	iso9660VolDescSector    = 16
	iso9660IdentifierOffset = 1
)

var reiserFSMagics = [][]byte{
	[]byte("ReIsEr2F"),
	[]byte("ReIsEr3F"),
	[]byte("ReIsErFs"),
}

// probeFSType classifies a volume from a sample of its media, in the
// fixed priority order spec.md §4.1 requires: ext2/3/4, ReiserFS,
// Btrfs, XFS, HFS+, then the FAT/NTFS/whole-disk branch, falling back
// to an ISO-9660 check. sample must be at least SampleSize bytes
// (shorter samples simply fail the later offset checks and fall
// through, which is the correct behavior for small media).
func probeFSType(sample []byte) probeResult {
	if r, ok := probeExt(sample); ok {
		return r
	}
	if r, ok := probeReiserFS(sample); ok {
		return r
	}
	if r, ok := probeBtrfs(sample); ok {
		return r
	}
	if r, ok := probeXFS(sample); ok {
		return r
	}
	if r, ok := probeHFSPlus(sample); ok {
		return r
	}
	if r, ok := probeFATOrNTFS(sample); ok {
		return r
	}
	if r, ok := probeISO9660(sample); ok {
		return r
	}
	return probeResult{fsType: FSUnknown}
}

func probeExt(sample []byte) (probeResult, bool) {
	if len(sample) < ext2UUIDOffset+16 {
		return probeResult{}, false
	}
	magic := binary.LittleEndian.Uint16(sample[ext2MagicOffset : ext2MagicOffset+2])
	if magic != ext2Magic {
		return probeResult{}, false
	}
	compat := binary.LittleEndian.Uint32(sample[ext2CompatOffset : ext2CompatOffset+4])
	incompat := binary.LittleEndian.Uint32(sample[ext2IncompatOffset : ext2IncompatOffset+4])

	var u guid.GUID
	copy(u[:], sample[ext2UUIDOffset:ext2UUIDOffset+16])

	fsType := FSExt2
	switch {
	case incompat&extIncompatExtents != 0:
		fsType = FSExt4
	case compat&extCompatHasJournal != 0:
		fsType = FSExt3
	}
	return probeResult{fsType: fsType, volUUID: u}, true
}

func probeReiserFS(sample []byte) (probeResult, bool) {
	if len(sample) < reiserFSUUIDOffset+16 {
		return probeResult{}, false
	}
	found := false
	for _, magic := range reiserFSMagics {
		if bytes.Equal(sample[reiserFSMagicOffset:reiserFSMagicOffset+len(magic)], magic) {
			found = true
			break
		}
	}
	if !found {
		return probeResult{}, false
	}
	var u guid.GUID
	copy(u[:], sample[reiserFSUUIDOffset:reiserFSUUIDOffset+16])
	return probeResult{fsType: FSReiserFS, volUUID: u}, true
}

func probeBtrfs(sample []byte) (probeResult, bool) {
	if len(sample) < btrfsMagicOffset+8 {
		return probeResult{}, false
	}
	if !bytes.Equal(sample[btrfsMagicOffset:btrfsMagicOffset+8], []byte("_BHRfS_M")) {
		return probeResult{}, false
	}
	return probeResult{fsType: FSBtrfs}, true
}

func probeXFS(sample []byte) (probeResult, bool) {
	if len(sample) < 4 {
		return probeResult{}, false
	}
	if !bytes.Equal(sample[0:4], []byte("XFSB")) {
		return probeResult{}, false
	}
	return probeResult{fsType: FSXFS}, true
}

func probeHFSPlus(sample []byte) (probeResult, bool) {
	if len(sample) < hfsPlusMagicOffset+2 {
		return probeResult{}, false
	}
	magic := sample[hfsPlusMagicOffset : hfsPlusMagicOffset+2]
	if bytes.Equal(magic, []byte("H+")) || bytes.Equal(magic, []byte("HX")) {
		return probeResult{fsType: FSHFSPlus}, true
	}
	return probeResult{}, false
}

// probeFATOrNTFS distinguishes NTFS (own boot-sector OEM ID, distinct
// 64-bit volume serial) from the FAT/whole-disk branch. It requires
// the standard 0xAA55 boot-sector signature; absent that, this is not
// a recognizable boot sector at all and the probe falls through to
// ISO-9660.
func probeFATOrNTFS(sample []byte) (probeResult, bool) {
	if len(sample) < bootSectorSize {
		return probeResult{}, false
	}
	sig := binary.LittleEndian.Uint16(sample[bootSignatureOffset : bootSignatureOffset+2])
	if sig != 0xAA55 {
		return probeResult{}, false
	}
	if len(sample) >= ntfsOEMOffset+8 && bytes.Equal(sample[ntfsOEMOffset:ntfsOEMOffset+8], []byte("NTFS    ")) {
		var u guid.GUID
		if len(sample) >= ntfsSerialOffset+8 {
			// NTFS stores a 64-bit serial, not a 128-bit UUID; it is
			// widened into the low 8 bytes of VolUUID, matching the
			// "opaque value" treatment spec.md gives vol_uuid.
			copy(u[8:], sample[ntfsSerialOffset:ntfsSerialOffset+8])
		}
		return probeResult{fsType: FSNTFS, volUUID: u}, true
	}
	// A recognizable boot sector that isn't NTFS: firmware would
	// attempt to mount it as FAT. That attempt (and thus the FAT vs.
	// whole-disk vs. unknown distinction of spec.md §4.1 rule 6)
	// happens in the volume scanner, which has access to firmware's
	// mount call; this probe only reports that it looks like a
	// FAT-family boot sector, pending that reconciliation.
	return probeResult{fsType: FSFAT, fatMountPending: true}, true
}

func probeISO9660(sample []byte) (probeResult, bool) {
	off := iso9660VolDescSector*iso9660SectorSize + iso9660IdentifierOffset
	if len(sample) < off+5 {
		return probeResult{}, false
	}
	if bytes.Equal(sample[off:off+5], []byte("CD001")) {
		return probeResult{fsType: FSISO9660}, true
	}
	return probeResult{}, false
}
