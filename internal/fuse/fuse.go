//go:build linux
// +build linux

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

package fuse

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"

	"github.com/sscafiti/bootvol/internal/volume"
)

// TopologyFS exposes a scanned volume.Set as a read-only directory
// tree: one directory per discovered Volume, each containing a
// handful of text files describing that volume's fields. It replaces
// the teacher's RecoverFS, which served byte ranges of carved files
// rather than volume metadata — the directory/file node shapes are
// kept, the content they serve is not.
type TopologyFS struct {
	set *volume.Set
}

// NewTopologyFS wraps a scanned Set for FUSE serving.
func NewTopologyFS(set *volume.Set) *TopologyFS {
	return &TopologyFS{set: set}
}

func (t *TopologyFS) Root() (fs.Node, error) {
	return &rootDir{set: t.set}, nil
}

// rootDir is the mountpoint's top-level listing: one entry per
// scanned volume.
type rootDir struct {
	set *volume.Set
}

func (*rootDir) Attr(_ context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0555
	return nil
}

func (d *rootDir) Lookup(_ context.Context, name string) (fs.Node, error) {
	for i, v := range d.set.Volumes {
		if volumeDirName(v, i) == name {
			return &volumeDir{v: v}, nil
		}
	}
	return nil, fuse.ENOENT
}

func (d *rootDir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	entries := make([]fuse.Dirent, len(d.set.Volumes))
	for i, v := range d.set.Volumes {
		entries[i] = fuse.Dirent{Inode: uint64(i + 1), Name: volumeDirName(v, i), Type: fuse.DT_Dir}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// volumeDirName names a scanned volume's directory: its dense
// vol_number when it has one, "unreadable-N" (N = slice position)
// otherwise, so duplicate-UUID demotions (spec.md §4.8) still get a
// stable, unique directory name instead of colliding on "unreadable".
func volumeDirName(v *volume.Volume, index int) string {
	if v.VolNumber != volume.UnreadableVolNumber {
		return fmt.Sprintf("%d", v.VolNumber)
	}
	return fmt.Sprintf("unreadable-%d", index)
}

// volumeDir is one scanned Volume's directory: its fields rendered as
// small read-only text files.
type volumeDir struct {
	v *volume.Volume
}

func (*volumeDir) Attr(_ context.Context, a *fuse.Attr) error {
	a.Mode = os.ModeDir | 0555
	return nil
}

func volumeFields(v *volume.Volume) map[string]string {
	return map[string]string{
		"fstype":   v.FSType.String(),
		"volname":  v.VolName,
		"uuid":     v.VolUUID.String(),
		"partguid": v.PartGUID.String(),
		"boot":     fmt.Sprintf("%v", v.HasBootCode),
		"diskkind": v.DiskKind.String(),
		"osname":   v.OSName,
		"readable": fmt.Sprintf("%v", v.IsReadable),
	}
}

func (d *volumeDir) Lookup(_ context.Context, name string) (fs.Node, error) {
	fields := volumeFields(d.v)
	content, ok := fields[name]
	if !ok {
		return nil, fuse.ENOENT
	}
	return volumeField{content: content + "\n"}, nil
}

func (d *volumeDir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	fields := volumeFields(d.v)
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]fuse.Dirent, len(names))
	for i, name := range names {
		entries[i] = fuse.Dirent{Inode: uint64(i + 1), Name: name, Type: fuse.DT_File}
	}
	return entries, nil
}

// volumeField is a single read-only text file rendering one Volume
// field.
type volumeField struct {
	content string
}

func (f volumeField) Attr(_ context.Context, a *fuse.Attr) error {
	a.Mode = 0444
	a.Size = uint64(len(f.content))
	a.Mtime = time.Now()
	return nil
}

func (f volumeField) ReadAll(_ context.Context) ([]byte, error) {
	return []byte(f.content), nil
}
