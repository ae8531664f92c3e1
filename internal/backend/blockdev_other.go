//go:build !linux
// +build !linux

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

	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/internal/fs"
)

// openBlockDevice falls back to a plain ReadAt-backed open outside
// Linux: there is no portable ioctl pair for block-device sector
// sizing, so the caller's --block-size override (or the 512-byte
// default) stands.
func openBlockDevice(path string, opts Options) (*source, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open block device %s: %w", path, err)
	}
	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = 512
	}
	var numBlocks uint64
	if fi, err := f.Stat(); err == nil {
		numBlocks = uint64(fi.Size()) / uint64(blockSize)
	}
	return &source{
		path:  path,
		bio:   &firmware.ReadAtBlockIO{R: f, Size: blockSize, NumBlocks: numBlocks, Media: path},
		close: f.Close,
	}, nil
}
