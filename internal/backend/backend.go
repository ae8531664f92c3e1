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

// Package backend supplies the only firmware.BlockIO/HandleEnumerator/
// RootDirOpener implementation bootvol ships: one driven by ordinary
// disk-image files and, on Linux, real block devices. No hosted test
// binary can reach actual UEFI firmware, so this is what the scan and
// mount commands construct before calling volume.Scan; tests of
// internal/volume itself use smaller hand-rolled fakes instead.
package backend

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"os"

	efi "github.com/canonical/go-efilib"
	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/internal/fs"
	"github.com/sscafiti/bootvol/internal/volume"
)

// Options controls how Open acquires BlockIO for the paths it is
// given.
type Options struct {
	// BlockSize overrides the block size every opened source is
	// treated as having. Zero means: 512 for ordinary files and
	// images, probed via ioctl for a Linux block device, unchanged
	// for an explicit override.
	BlockSize uint32
	// UseMmap opens each image with MmapImageFile rather than a plain
	// ReadAt-backed file, avoiding a read() syscall per sample on
	// very large images at the cost of address-space pressure.
	UseMmap bool
	// Split treats every path in Open's argument list as one
	// contiguous disk image, concatenated in argument order via
	// pkg/reader.MultiReadSeeker. Used for disks imaged in
	// fixed-size chunks (a dd split -b output, for instance).
	Split bool
}

// source pairs one opened handle's BlockIO with the close function
// that releases whatever backs it (an *os.File, an mmap region).
type source struct {
	path  string
	bio   firmware.BlockIO
	close func() error
}

// handle is the concrete (but still opaque to internal/volume) type
// Backend vends through firmware.HandleEnumerator.
type handle struct{ index int }

// Backend implements firmware.HandleEnumerator, DevicePathResolver
// and RootDirOpener over a fixed set of opened sources.
type Backend struct {
	sources []*source
}

// Open acquires BlockIO for every path, in order. On any failure,
// sources already opened are closed before the error is returned.
func Open(paths []string, opts Options) (*Backend, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("backend: no image paths given")
	}

	b := &Backend{}
	if opts.Split {
		src, err := openSplit(paths, opts)
		if err != nil {
			return nil, err
		}
		b.sources = append(b.sources, src)
		return b, nil
	}

	for _, p := range paths {
		src, err := openOne(p, opts)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("backend: open %s: %w", p, err)
		}
		b.sources = append(b.sources, src)
	}
	return b, nil
}

func openOne(path string, opts Options) (*source, error) {
	if isBlockDevicePath(path) {
		return openBlockDevice(path, opts)
	}

	if opts.UseMmap {
		mm, err := NewMmapImageFile(path)
		if err != nil {
			return nil, err
		}
		bs := opts.BlockSize
		if bs == 0 {
			bs = 512
		}
		return &source{
			path:  path,
			bio:   &firmware.ReadAtBlockIO{R: mm, Size: bs, NumBlocks: uint64(mm.Len()) / uint64(bs), Media: path},
			close: mm.Close,
		}, nil
	}

	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	bs := opts.BlockSize
	if bs == 0 {
		bs = 512
	}
	var numBlocks uint64
	if fi, err := f.Stat(); err == nil {
		numBlocks = uint64(fi.Size()) / uint64(bs)
	}
	return &source{
		path:  path,
		bio:   &firmware.ReadAtBlockIO{R: f, Size: bs, NumBlocks: numBlocks, Media: path},
		close: f.Close,
	}, nil
}

// isBlockDevicePath reports whether path looks like a raw device node
// rather than a regular disk-image file, the same heuristic the
// teacher's cmd/cmd/scan.go applied via disk.NormalizeVolumePath.
func isBlockDevicePath(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeDevice != 0
}

// Close releases every source this Backend opened. Safe to call more
// than once.
func (b *Backend) Close() error {
	var firstErr error
	for _, s := range b.sources {
		if s.close == nil {
			continue
		}
		if err := s.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.close = nil
	}
	return firstErr
}

// Handles implements firmware.HandleEnumerator: one handle per opened
// source, in open order.
func (b *Backend) Handles(_ context.Context) ([]any, error) {
	hs := make([]any, len(b.sources))
	for i := range b.sources {
		hs[i] = handle{index: i}
	}
	return hs, nil
}

// BlockIO returns the firmware.BlockIO for a handle vended by
// Handles, for use as volume.Scanner's BlockIOOpener.
func (b *Backend) BlockIO(_ context.Context, h any) (firmware.BlockIO, error) {
	hd, ok := h.(handle)
	if !ok || hd.index < 0 || hd.index >= len(b.sources) {
		return nil, fmt.Errorf("backend: unknown handle %v", h)
	}
	return b.sources[hd.index].bio, nil
}

// pathNode is the sole device-path node Backend ever reports. Its
// text deliberately matches none of the HD(/CDROM(/Vendor(/messaging-
// class prefixes internal/volume's device-path walker recognizes:
// a raw image or block-device path carries no GPT/vendor/transport
// metadata of its own, so the walker correctly treats it as an
// ordinary internal disk and leaves classification entirely to the
// byte-level probes (spec.md §4.1/§4.2) and the MBR-based correlator
// (spec.md §4.7).
type pathNode string

func (p pathNode) String() string                                    { return string(p) }
func (p pathNode) ToString(_ efi.DevicePathToStringFlags) string     { return string(p) }

// DevicePath implements firmware.DevicePathResolver.
func (b *Backend) DevicePath(_ context.Context, h any) (firmware.DevicePath, error) {
	hd, ok := h.(handle)
	if !ok || hd.index < 0 || hd.index >= len(b.sources) {
		return nil, fmt.Errorf("backend: unknown handle %v", h)
	}
	return firmware.DevicePath{pathNode(fmt.Sprintf("ImageFile(%s)", b.sources[hd.index].path))}, nil
}

// LocateDevicePath implements firmware.DevicePathResolver. Backend
// never synthesizes a whole-disk device path of its own (see
// pathNode's doc comment), so this only ever matches a device path
// Backend itself produced moments earlier.
func (b *Backend) LocateDevicePath(_ context.Context, dp firmware.DevicePath) (any, error) {
	if len(dp) == 0 {
		return nil, fmt.Errorf("backend: empty device path")
	}
	want := dp[len(dp)-1].String()
	for i, s := range b.sources {
		if fmt.Sprintf("ImageFile(%s)", s.path) == want {
			return handle{index: i}, nil
		}
	}
	return nil, fmt.Errorf("backend: no handle for device path %q", want)
}

// OpenRoot implements firmware.RootDirOpener: attempts to recognize a
// FAT boot sector at the handle's first block and, if found, serves a
// real (read-only, non-recursive) root-directory listing; any other
// non-blank first block is reported mounted with an opaque directory
// that never finds a name, so a missing filesystem driver degrades to
// "mounted but opaque" rather than "unreadable". Two cases fail the
// mount: a blank (all-zero) first block, treated the way real
// firmware treats unformatted media, and, at a 512-byte block size, a
// bare MBR partition table.
func (b *Backend) OpenRoot(ctx context.Context, h any) (firmware.Dir, error) {
	bio, err := b.BlockIO(ctx, h)
	if err != nil {
		return nil, err
	}

	blockSize := bio.BlockSize()
	buf := make([]byte, blockSize)
	if err := bio.ReadBlocks(ctx, 0, buf); err != nil {
		return nil, fmt.Errorf("backend: read boot sector: %w", err)
	}
	if allZero(buf) {
		return nil, fmt.Errorf("backend: %w", volume.ErrVolumeUnreadable)
	}

	if blockSize == 512 {
		if bpb, ok := parseFATBootSector(buf); ok {
			return newFATRootDir(bio, bpb)
		}
		if looksLikeMBRPartitionTable(buf) {
			// A bare MBR partition table with no filesystem of its own:
			// firmware's FAT mount fails here, leaving spec.md §4.1 rule
			// 6 to classify the volume as WholeDisk or Unknown rather
			// than reporting a bogus successful mount.
			return nil, fmt.Errorf("backend: %w", volume.ErrVolumeUnreadable)
		}
	}
	return opaqueDir{}, nil
}

func allZero(b []byte) bool {
	return bytes.Count(b, []byte{0}) == len(b)
}

// looksLikeMBRPartitionTable reports whether a 512-byte sector carries
// a syntactically valid MBR partition table (four entries, each with
// a valid 0x00/0x80 status byte, at least one with a nonzero start/size)
// without itself being a recognizable FAT boot sector — i.e. a raw,
// partitioned disk rather than a filesystem's own boot sector.
func looksLikeMBRPartitionTable(sector []byte) bool {
	if len(sector) < 512 {
		return false
	}
	const tableOffset = 446
	const entrySize = 16
	haveNonzero := false
	for i := 0; i < 4; i++ {
		e := sector[tableOffset+i*entrySize : tableOffset+(i+1)*entrySize]
		flags := e[0]
		if flags != 0x00 && flags != 0x80 {
			return false
		}
		startLBA := binary.LittleEndian.Uint32(e[8:12])
		size := binary.LittleEndian.Uint32(e[12:16])
		if startLBA != 0 || size != 0 {
			haveNonzero = true
		}
	}
	return haveNonzero
}

// opaqueDir models firmware having mounted a filesystem Backend has
// no driver for: the volume is readable, but nothing can be statted
// at its root. This is a deliberate limitation, not a bug: a real
// firmware's NTFS/ext4/btrfs/... driver would answer these Stat calls
// correctly; Backend only implements one (FAT).
type opaqueDir struct{}

func (opaqueDir) Stat(_ context.Context, _ string) (bool, error) { return false, nil }
