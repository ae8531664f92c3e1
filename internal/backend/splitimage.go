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
	"io"
	"os"
	"sync"

	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/pkg/reader"
)

// openSplit treats every path as one chunk of a single disk image,
// concatenated in argument order (a `split -b` or similarly chunked
// capture), using the teacher's pkg/reader.MultiReadSeeker to present
// them as one seekable stream.
func openSplit(paths []string, opts Options) (*source, error) {
	files := make([]*os.File, 0, len(paths))
	readers := make([]io.ReadSeeker, 0, len(paths))
	sizes := make([]int64, 0, len(paths))

	closeAll := func() {
		for _, f := range files {
			f.Close()
		}
	}

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("open chunk %s: %w", p, err)
		}
		fi, err := f.Stat()
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("stat chunk %s: %w", p, err)
		}
		files = append(files, f)
		readers = append(readers, f)
		sizes = append(sizes, fi.Size())
	}

	// NewMultiReadSeeker rewrites sizes in place into cumulative
	// offsets, so the total is summed before it is called.
	var totalSize int64
	for _, sz := range sizes {
		totalSize += sz
	}

	mrs := reader.NewMultiReadSeeker(readers, sizes)
	// internal/volume's sample/boot-sector probes repeatedly re-read
	// small, nearby offsets (LBA 0, then again at partition-local LBA 0
	// for each chained logical partition); buffering above the
	// MultiReadSeeker absorbs that locality instead of re-seeking
	// across chunk boundaries for every probe.
	buffered := reader.NewBufferedReadSeeker(mrs, 64*1024)
	rat := &seekerReaderAt{rs: buffered}

	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = 512
	}

	label := fmt.Sprintf("split(%d chunks, first=%s)", len(paths), paths[0])
	return &source{
		path: label,
		bio:  &firmware.ReadAtBlockIO{R: rat, Size: blockSize, NumBlocks: uint64(totalSize) / uint64(blockSize), Media: label},
		close: func() error {
			closeAll()
			return nil
		},
	}, nil
}

// seekerReaderAt adapts an io.ReadSeeker (MultiReadSeeker is
// inherently seek-then-read, not offset-addressed) into io.ReaderAt
// behind a mutex. internal/volume never issues concurrent reads
// against a single BlockIO, so serializing here costs nothing in
// practice.
type seekerReaderAt struct {
	mu sync.Mutex
	rs io.ReadSeeker
}

func (s *seekerReaderAt) ReadAt(p []byte, off int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.rs.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}

	total := 0
	for total < len(p) {
		n, err := s.rs.Read(p[total:])
		total += n
		if err != nil {
			if err == io.EOF {
				return total, io.EOF
			}
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}
