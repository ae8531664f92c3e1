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

// Package volume discovers and classifies the volumes a UEFI-like
// firmware exposes: whole disks, GPT/MBR partitions, and synthesized
// logical partitions inside an extended MBR chain. It never launches
// or boots anything; it builds the data model a boot-menu would then
// present.
package volume

import (
	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/internal/guid"
)

// FSType is the filesystem kind a volume was classified as.
type FSType int

const (
	FSUnknown FSType = iota
	FSWholeDisk
	FSFAT
	FSHFSPlus
	FSExt2
	FSExt3
	FSExt4
	FSReiserFS
	FSBtrfs
	FSXFS
	FSISO9660
	FSNTFS
)

func (t FSType) String() string {
	switch t {
	case FSWholeDisk:
		return "wholedisk"
	case FSFAT:
		return "fat"
	case FSHFSPlus:
		return "hfsplus"
	case FSExt2:
		return "ext2"
	case FSExt3:
		return "ext3"
	case FSExt4:
		return "ext4"
	case FSReiserFS:
		return "reiserfs"
	case FSBtrfs:
		return "btrfs"
	case FSXFS:
		return "xfs"
	case FSISO9660:
		return "iso9660"
	case FSNTFS:
		return "ntfs"
	default:
		return "unknown"
	}
}

// DiskKind is the physical media class a volume's parent disk belongs
// to, used to decide auto-mount and display-grouping policy upstream.
type DiskKind int

const (
	DiskInternal DiskKind = iota
	DiskExternal
	DiskOptical
	DiskNet
)

func (k DiskKind) String() string {
	switch k {
	case DiskExternal:
		return "external"
	case DiskOptical:
		return "optical"
	case DiskNet:
		return "net"
	default:
		return "internal"
	}
}

// UnreadableVolNumber is the sentinel vol_number assigned to volumes
// that could not be read (firmware could not mount the filesystem, or
// the volume lost a UUID-collision dedup race).
const UnreadableVolNumber = -1

// SampleSize is the number of bytes read from the start of a volume
// for byte-pattern filesystem probing (spec.md §4.1).
const SampleSize = 69632

// MbrPartitionInfo is a verbatim 16-byte MBR partition-table entry,
// captured for display/diagnostic purposes. CHS fields are preserved
// but never interpreted (spec.md invariant: CHS ignored).
type MbrPartitionInfo struct {
	Flags        byte
	StartCHS     [3]byte
	Type         byte
	EndCHS       [3]byte
	StartLBA     uint32
	SizeInSector uint32
}

// Volume describes one discovered volume: a whole disk, a GPT/MBR
// partition, or a synthesized logical partition inside an extended
// MBR chain.
type Volume struct {
	// Handle is the firmware handle this volume was scanned from. It
	// does not survive a reinit; DevicePath does (spec.md invariant).
	Handle any
	// DevicePath is the full device-path node sequence identifying
	// this volume, preserved across a reinit so the scanner can
	// re-resolve Handle from it.
	DevicePath any

	// WholeDiskDevicePath is the device path of the parent whole disk
	// this volume's media sits on, synthesized by truncating this
	// volume's own path at the first messaging-class node (spec.md
	// §4.3). Nil for a volume that is itself a whole disk.
	WholeDiskDevicePath any

	// BlockIO is this volume's own block-I/O interface. A synthesized
	// logical partition instead shares its parent's WholeDiskBlockIO
	// with a nonzero BlockIOOffset (spec.md invariant).
	BlockIO any
	// WholeDiskBlockIO is the parent whole disk's block-I/O
	// interface, acquired non-fatally when the first messaging-class
	// device-path node is found (spec.md §4.3).
	WholeDiskBlockIO any
	// BlockIOOffset is the LBA offset from WholeDiskBlockIO's start
	// to this volume's first sector. Zero unless this volume is a
	// synthesized logical partition or otherwise shares its parent's
	// block I/O.
	BlockIOOffset uint64
	// WholeDiskVolumeIndex is the index into the owning Set's Volumes
	// slice of the whole-disk Volume this one belongs to, or -1. An
	// index into the shared arena, not a pointer, so the topology
	// correlator never builds a Volume-to-Volume pointer graph.
	WholeDiskVolumeIndex int

	// RootDir is firmware's root-directory handle for this volume's
	// mounted filesystem, present only if IsReadable is true.
	RootDir any

	FSType FSType

	// VolUUID is an opaque 16-byte filesystem UUID read from the
	// volume's own superblock/boot sector (ext*, reiserfs, NTFS). Never canonically formatted; compared only for the
	// UUID-collision dedup pass.
	VolUUID guid.GUID

	// PartGUID and PartTypeGUID are set only for a GPT HARDDRIVE
	// device-path node (spec.md invariant): the partition's own GUID
	// and its partition-type GUID, respectively.
	PartGUID     guid.GUID
	PartTypeGUID guid.GUID
	// PartName is the GPT partition name, if any (may be a known
	// installer placeholder — see internal/gpt.IsPlaceholderName).
	PartName string

	// VolName is the final synthesized or firmware-reported volume
	// name (spec.md §4.6).
	VolName string

	// VolNumber is dense and 0-based among readable volumes in scan
	// order, or UnreadableVolNumber.
	VolNumber int

	DiskKind DiskKind

	// IsMbrPartition and MbrPartitionIndex describe a volume that is
	// an MBR partition. Index 0-3 are primary entries matched to a
	// scanned volume by the correlator; 4+ are logical partitions
	// synthesized from an EMBR
	// chain, numbered in chain-walk order (spec.md §4.5).
	IsMbrPartition   bool
	MbrPartitionIndex int
	// MbrPartitionTable is a snapshot of the whole disk's 4 primary
	// MBR entries, populated only when at least one entry has a
	// nonzero StartLBA and SizeInSector and every entry's Flags byte
	// is 0x00 or 0x80 (spec.md §4.2 MBR snapshot rule).
	MbrPartitionTable [4]MbrPartitionInfo

	// IsAppleLegacy marks a volume whose device path carries an Apple
	// legacy-boot Vendor device-path node; such a volume is never
	// treated as directly bootable (spec.md §4.3).
	IsAppleLegacy bool
	// HasBootCode marks a volume whose boot sector carries
	// recognized, not-obviously-disabled boot code (spec.md §4.2/§4.4
	// reconciliation).
	HasBootCode bool

	OSName     string
	OSIconName string

	// IsReadable is true once firmware successfully mounted this
	// volume's filesystem and opened its root directory, and it was
	// not later demoted by the UUID-collision dedup pass.
	IsReadable bool

	VolBadgeImage any
	VolIconImage  any
}

// EffectiveBlockIO returns the BlockIO a caller should read this
// volume's sectors through, and the LBA offset (in 512-byte sectors)
// to add to any sector number before issuing the read. A volume with
// its own BlockIO reads through it at offset 0; a synthesized
// logical partition (or any volume that otherwise shares its parent's
// block I/O) reads through WholeDiskBlockIO at BlockIOOffset.
func (v *Volume) EffectiveBlockIO() (firmware.BlockIO, uint64) {
	if bio, ok := v.BlockIO.(firmware.BlockIO); ok && bio != nil {
		return bio, 0
	}
	if bio, ok := v.WholeDiskBlockIO.(firmware.BlockIO); ok && bio != nil {
		return bio, v.BlockIOOffset
	}
	return nil, 0
}
