//go:build windows
// +build windows

package backend

import "fmt"

// MmapImageFile is unavailable on Windows; the teacher's mmap package
// never carried a Windows implementation either (syscall.Mmap is
// POSIX-only), so --mmap simply errors out there instead of
// silently opening the image some other way.
type MmapImageFile struct{}

func NewMmapImageFile(path string) (*MmapImageFile, error) {
	return nil, fmt.Errorf("mmap: not supported on windows (%q)", path)
}

func (m *MmapImageFile) ReadAt(p []byte, off int64) (int, error) {
	return 0, fmt.Errorf("mmap: not supported on windows")
}

func (m *MmapImageFile) Close() error { return nil }

func (m *MmapImageFile) Len() int { return 0 }
