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

// Package firmware declares the contracts a UEFI-like firmware
// exposes to volume discovery: block I/O, handle enumeration,
// device-path resolution, filesystem mounting and NVRAM variable
// access. Nothing in this package talks to real firmware; it exists
// so internal/volume can be driven by a hosted fake in tests and by
// internal/backend's disk-image implementation in the CLI.
package firmware

import (
	"context"
	"io"

	efi "github.com/canonical/go-efilib"
)

// A firmware-enumerated device handle is represented as `any` and
// compared only for equality; its concrete representation is opaque
// to everything in this package and to internal/volume.

// BlockIO reads fixed-size blocks from the device behind a handle and
// reports the media attributes spec.md §3/§6 require of the
// block_io/whole_disk_block_io capability: block size, last block,
// media id, and whether the media is a logical partition.
// Implementations negotiate their own buffer sizes; ReadBlocks must
// return exactly len(buf) bytes or an error.
type BlockIO interface {
	// BlockSize is the media's native block size in bytes (512 for
	// almost all disks; 2048 for optical media).
	BlockSize() uint32
	// LastBlock is the highest valid LBA on this media (media size in
	// blocks, minus one), or 0 when the size is unknown.
	LastBlock() uint64
	// MediaID is an opaque, implementation-defined identifier for the
	// underlying media, passed back to ReadBlocks by real firmware but
	// otherwise uninterpreted by internal/volume.
	MediaID() string
	// IsLogicalPartition reports whether this BlockIO was vended by an
	// OS-level partition driver rather than a whole-disk device —
	// spec.md §4.1 rule 6 uses this to distinguish a FAT-mount failure
	// on a bare disk (WholeDisk) from one on an already-partitioned
	// device (Unknown).
	IsLogicalPartition() bool
	// ReadBlocks reads len(buf)/BlockSize() blocks starting at lba
	// into buf. len(buf) must be a multiple of BlockSize().
	ReadBlocks(ctx context.Context, lba uint64, buf []byte) error
}

// HandleEnumerator lists the device handles firmware currently
// exposes, in firmware enumeration order. That order is significant:
// internal/volume's dedup pass keeps whichever readable volume is
// scanned first among UUID collisions.
type HandleEnumerator interface {
	Handles(ctx context.Context) ([]any, error)
}

// DevicePathResolver returns the device-path node sequence identifying
// a handle, and lets the walker ask firmware to locate the handle a
// given device path currently resolves to (used when synthesizing a
// whole-disk device path from a partition's).
type DevicePathResolver interface {
	DevicePath(ctx context.Context, h any) (DevicePath, error)
	LocateDevicePath(ctx context.Context, dp DevicePath) (any, error)
}

// DevicePath is an ordered sequence of device-path nodes, mirroring
// efi.DevicePath without committing to its concrete element type so
// that tests can supply synthetic nodes.
type DevicePath []DevicePathNode

// DevicePathNode is satisfied by efi.DevicePathNode (String/ToString)
// and by any test fake presenting the same textual surface. Device
// nodes are classified by their textual form since no stable concrete
// struct field for e.g. "is this node a GPT hard-drive entry" is
// guaranteed across go-efilib node kinds.
type DevicePathNode interface {
	String() string
	ToString(flags efi.DevicePathToStringFlags) string
}

// RootDirOpener attempts to mount the filesystem on a handle's media
// and open its root directory, mirroring a firmware "simple file
// system protocol" open. Returning a non-nil error models "firmware
// could not mount this media" (unformatted, unsupported fs, ...),
// which the volume scanner must absorb rather than fail the whole
// scan on (spec.md §7).
type RootDirOpener interface {
	OpenRoot(ctx context.Context, h any) (Dir, error)
}

// Dir is the minimal root-directory surface the scanner needs: enough
// to probe for NTLDR/bootmgr at the root and to confirm the volume
// mounted at all.
type Dir interface {
	Stat(ctx context.Context, name string) (exists bool, err error)
}

// FSInfo is an optional Dir capability exposing the filesystem-info
// query spec.md §6 lists alongside Open/Read/Close: volume label and
// total volume size, used by volume-name synthesis (spec.md §4.6
// priorities 1 and 3). A Dir that cannot determine one or both simply
// returns it zero-valued; the scanner treats that the same as the
// capability being absent entirely.
type FSInfo interface {
	Info(ctx context.Context) (label string, sizeBytes int64, err error)
}

// UnicodeCollator implements firmware's case-insensitive, wildcard-
// capable string matching. internal/pathutil.MetaiMatch does its own
// matching and does not go through this interface.
type UnicodeCollator interface {
	MetaiMatch(pattern, candidate string) bool
}

// VariableStore is firmware NVRAM variable access.
type VariableStore interface {
	GetVariable(ctx context.Context, name string, vendor efi.GUID) (data []byte, attrs efi.VariableAttributes, err error)
	SetVariable(ctx context.Context, name string, vendor efi.GUID, attrs efi.VariableAttributes, data []byte) error
}

// EjectCapability models the Apple-specific "eject this optical/USB
// media" firmware protocol. Not all firmware implements it; absence
// is reported through ErrCapabilityAbsent, not a nil interface check,
// so callers can log consistently.
type EjectCapability interface {
	Eject(ctx context.Context, h any) error
}

// ReadAtBlockIO adapts a plain io.ReaderAt (an ordinary file or a
// memory-mapped region) into BlockIO at a fixed block size. This is
// how internal/backend exposes disk-image files without requiring a
// real firmware block-I/O protocol.
type ReadAtBlockIO struct {
	R    io.ReaderAt
	Size uint32
	// NumBlocks is the total block count of the underlying media, used
	// to answer LastBlock; zero when the size could not be determined
	// (LastBlock then reports 0, the same as an unpartitioned medium
	// of unknown size would under real firmware's best-effort media
	// attributes).
	NumBlocks uint64
	// Media is the opaque media identifier reported by MediaID,
	// typically the backing path or device node.
	Media string
	// Logical marks this BlockIO as vended by an OS-level partition
	// driver rather than a whole-disk device. internal/backend never
	// opens OS partitions directly (only whole images/devices), so
	// this is always false for every source it constructs.
	Logical bool
}

func (b *ReadAtBlockIO) BlockSize() uint32 { return b.Size }

func (b *ReadAtBlockIO) LastBlock() uint64 {
	if b.NumBlocks == 0 {
		return 0
	}
	return b.NumBlocks - 1
}

func (b *ReadAtBlockIO) MediaID() string { return b.Media }

func (b *ReadAtBlockIO) IsLogicalPartition() bool { return b.Logical }

func (b *ReadAtBlockIO) ReadBlocks(_ context.Context, lba uint64, buf []byte) error {
	off := int64(lba) * int64(b.Size)
	n, err := b.R.ReadAt(buf, off)
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return err
	}
	return nil
}
