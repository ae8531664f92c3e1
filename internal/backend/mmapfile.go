//go:build !windows
// +build !windows

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
	"fmt"
	"os"
	"syscall"
)

// MmapImageFile memory-maps an entire disk-image file read-only,
// adapted from the teacher's internal/mmap.MmapFile: same
// syscall.Mmap/Munmap pair, trimmed to the whole-file case Backend
// actually needs (internal/volume never asks for a sub-region) and
// exposing ReadAt so it satisfies firmware.ReadAtBlockIO directly.
type MmapImageFile struct {
	data []byte
	file *os.File
}

// NewMmapImageFile opens path and maps it entirely into memory.
func NewMmapImageFile(path string) (*MmapImageFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mmap: open %q: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: stat %q: %w", path, err)
	}
	size := int(fi.Size())
	if size == 0 {
		f.Close()
		return nil, fmt.Errorf("mmap: %q is empty", path)
	}

	data, err := syscall.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap: mmap %q: %w", path, err)
	}

	return &MmapImageFile{data: data, file: f}, nil
}

// Len returns the size in bytes of the mapped region.
func (m *MmapImageFile) Len() int { return len(m.data) }

// ReadAt implements io.ReaderAt against the mapped region.
func (m *MmapImageFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, fmt.Errorf("mmap: offset %d out of range", off)
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, fmt.Errorf("mmap: short read at offset %d: got %d of %d bytes", off, n, len(p))
	}
	return n, nil
}

// Close unmaps the region and closes the backing file.
func (m *MmapImageFile) Close() error {
	var err error
	if m.data != nil {
		err = syscall.Munmap(m.data)
		m.data = nil
	}
	if closeErr := m.file.Close(); err == nil {
		err = closeErr
	}
	return err
}
