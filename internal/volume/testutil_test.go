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

	efi "github.com/canonical/go-efilib"
	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/internal/guid"
)

// fakeBlockIO serves sparse, block-granular content over a firmware.BlockIO
// surface: only the sectors a test actually populates hold nonzero bytes,
// everything else reads as zero, same as an unformatted disk would.
type fakeBlockIO struct {
	size    uint32
	lastBlk uint64
	media   string
	logical bool
	sectors map[uint64][]byte
}

func newFakeBlockIO(size uint32, lastBlk uint64) *fakeBlockIO {
	return &fakeBlockIO{size: size, lastBlk: lastBlk, media: "fake", sectors: map[uint64][]byte{}}
}

func (f *fakeBlockIO) putSector(lba uint64, data []byte) {
	buf := make([]byte, f.size)
	copy(buf, data)
	f.sectors[lba] = buf
}

// loadImage splits data into f.size-byte sectors starting at LBA 0,
// the shape a multi-kilobyte probe sample needs to be readable through
// ReadBlocks one block at a time.
func (f *fakeBlockIO) loadImage(data []byte) {
	size := int(f.size)
	for off := 0; off < len(data); off += size {
		end := off + size
		if end > len(data) {
			end = len(data)
		}
		f.putSector(uint64(off/size), data[off:end])
	}
}

func (f *fakeBlockIO) BlockSize() uint32        { return f.size }
func (f *fakeBlockIO) LastBlock() uint64        { return f.lastBlk }
func (f *fakeBlockIO) MediaID() string          { return f.media }
func (f *fakeBlockIO) IsLogicalPartition() bool { return f.logical }

func (f *fakeBlockIO) ReadBlocks(_ context.Context, lba uint64, buf []byte) error {
	blockSize := int(f.size)
	if blockSize == 0 {
		blockSize = 512
	}
	n := len(buf) / blockSize
	for i := 0; i < n; i++ {
		block := lba + uint64(i)
		dst := buf[i*blockSize : (i+1)*blockSize]
		if data, ok := f.sectors[block]; ok {
			copy(dst, data)
		} else {
			for j := range dst {
				dst[j] = 0
			}
		}
	}
	return nil
}

// fakeDir implements firmware.Dir and firmware.FSInfo against an
// in-memory file-name set and a fixed label/size.
type fakeDir struct {
	files map[string]bool
	label string
	size  int64
}

func (d *fakeDir) Stat(_ context.Context, name string) (bool, error) {
	return d.files[name], nil
}

func (d *fakeDir) Info(_ context.Context) (string, int64, error) {
	return d.label, d.size, nil
}

// fakeRootOpener maps handles to either a Dir or a mount failure.
type fakeRootOpener struct {
	dirs map[any]firmware.Dir
	errs map[any]error
}

func newFakeRootOpener() *fakeRootOpener {
	return &fakeRootOpener{dirs: map[any]firmware.Dir{}, errs: map[any]error{}}
}

func (r *fakeRootOpener) OpenRoot(_ context.Context, h any) (firmware.Dir, error) {
	if err, ok := r.errs[h]; ok {
		return nil, err
	}
	if d, ok := r.dirs[h]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("fake: firmware could not mount handle %v", h)
}

// fakeHandleEnumerator returns a fixed handle list.
type fakeHandleEnumerator struct {
	handles []any
	err     error
}

func (e *fakeHandleEnumerator) Handles(_ context.Context) ([]any, error) {
	return e.handles, e.err
}

// fakeDPNode is a device-path node whose textual form is supplied
// verbatim by the test, matching the prefixes walkDevicePath switches
// on ("HD(", "CDROM(", "Vendor(", "USB(", ...).
type fakeDPNode string

func (n fakeDPNode) String() string { return string(n) }
func (n fakeDPNode) ToString(_ efi.DevicePathToStringFlags) string { return string(n) }

// fakeDevicePathResolver maps handles to device paths and back.
type fakeDevicePathResolver struct {
	byHandle map[any]firmware.DevicePath
	byPath   map[string]any
}

func newFakeDevicePathResolver() *fakeDevicePathResolver {
	return &fakeDevicePathResolver{byHandle: map[any]firmware.DevicePath{}, byPath: map[string]any{}}
}

func devicePathKey(dp firmware.DevicePath) string {
	s := ""
	for _, n := range dp {
		s += n.String() + "|"
	}
	return s
}

func (r *fakeDevicePathResolver) set(h any, dp firmware.DevicePath) {
	r.byHandle[h] = dp
	r.byPath[devicePathKey(dp)] = h
}

func (r *fakeDevicePathResolver) DevicePath(_ context.Context, h any) (firmware.DevicePath, error) {
	dp, ok := r.byHandle[h]
	if !ok {
		return nil, fmt.Errorf("fake: no device path for handle %v", h)
	}
	return dp, nil
}

func (r *fakeDevicePathResolver) LocateDevicePath(_ context.Context, dp firmware.DevicePath) (any, error) {
	h, ok := r.byPath[devicePathKey(dp)]
	if !ok {
		return nil, fmt.Errorf("fake: device path no longer resolves")
	}
	return h, nil
}

// fakeGPTEntry is one disk-signature+partition-GUID lookup result.
type fakeGPTEntry struct {
	name     string
	typeGUID guid.GUID
}

// fakeGPTLibrary implements gpt.Library against an in-memory map keyed
// only by partition GUID (tests never need more than one disk
// signature at a time).
type fakeGPTLibrary struct {
	entries map[guid.GUID]fakeGPTEntry
}

func newFakeGPTLibrary() *fakeGPTLibrary {
	return &fakeGPTLibrary{entries: map[guid.GUID]fakeGPTEntry{}}
}

func (l *fakeGPTLibrary) Lookup(_ [16]byte, partGUID guid.GUID) (string, guid.GUID, bool) {
	e, ok := l.entries[partGUID]
	if !ok {
		return "", guid.GUID{}, false
	}
	return e.name, e.typeGUID, true
}

// blockIOOpenerFrom builds a Scanner.BlockIOOpener from a handle->BlockIO
// map, the shape every test scanner needs.
func blockIOOpenerFrom(byHandle map[any]firmware.BlockIO) func(context.Context, any) (firmware.BlockIO, error) {
	return func(_ context.Context, h any) (firmware.BlockIO, error) {
		bio, ok := byHandle[h]
		if !ok {
			return nil, fmt.Errorf("fake: no block I/O for handle %v", h)
		}
		return bio, nil
	}
}

// mbrEntrySpec is the test-friendly shorthand for one 16-byte MBR
// partition-table entry.
type mbrEntrySpec struct {
	flags        byte
	typeByte     byte
	startLBA     uint32
	sizeInSector uint32
}

// buildMBRSector renders up to four mbrEntrySpec values into a
// 512-byte sector carrying the 0xAA55 boot signature and the standard
// 446-byte partition table offset, matching the layout mbrSnapshot and
// looksLikeMBRPartitionTable both parse.
func buildMBRSector(entries []mbrEntrySpec) []byte {
	sector := make([]byte, 512)
	const tableOffset = 446
	const entrySize = 16
	for i, e := range entries {
		if i >= 4 {
			break
		}
		off := tableOffset + i*entrySize
		sector[off] = e.flags
		sector[off+4] = e.typeByte
		putLE32(sector[off+8:off+12], e.startLBA)
		putLE32(sector[off+12:off+16], e.sizeInSector)
	}
	sector[510] = 0x55
	sector[511] = 0xAA
	return sector
}

func putLE32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
