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

	"github.com/sscafiti/bootvol/internal/firmware"
)

// read512 reads exactly 512 bytes from logical sector lba512 (always
// counted in 512-byte units, per spec.md §6, regardless of the
// media's native block size), making up to maxBufferNegotiationRetries
// attempts with the same buffer before giving up. Reading the whole
// native block that holds the sector is how the partition-table code
// stays correct on 2048-byte optical media.
func read512(ctx context.Context, bio firmware.BlockIO, lba512 uint64) ([]byte, error) {
	blockSize := bio.BlockSize()
	if blockSize == 0 {
		blockSize = 512
	}

	if blockSize == 512 {
		buf := make([]byte, 512)
		if err := retryReadBlocks(ctx, bio, lba512, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	byteOffset := lba512 * 512
	blockLBA := byteOffset / uint64(blockSize)
	offsetInBlock := byteOffset % uint64(blockSize)
	if offsetInBlock+512 > uint64(blockSize) {
		return nil, fmt.Errorf("%w: 512-byte sector at LBA %d crosses a %d-byte block boundary", ErrIO, lba512, blockSize)
	}

	buf := make([]byte, blockSize)
	if err := retryReadBlocks(ctx, bio, blockLBA, buf); err != nil {
		return nil, err
	}
	return buf[offsetInBlock : offsetInBlock+512], nil
}

// readSample reads up to n bytes from the start of a volume (LBA 0 in
// 512-byte units), for filesystem byte-pattern probing. If the media
// reports (through a nonzero LastBlock) fewer than n bytes, it reads
// and returns only the media's own blocks; callers must
// tolerate a short sample, since the probes themselves check length
// before indexing.
func readSample(ctx context.Context, bio firmware.BlockIO, n int) ([]byte, error) {
	blockSize := int(bio.BlockSize())
	if blockSize == 0 {
		blockSize = 512
	}
	blocks := (n + blockSize - 1) / blockSize
	if last := bio.LastBlock(); last > 0 && uint64(blocks) > last+1 {
		blocks = int(last + 1)
	}
	buf := make([]byte, blocks*blockSize)
	if err := retryReadBlocks(ctx, bio, 0, buf); err != nil {
		return nil, err
	}
	if len(buf) > n {
		buf = buf[:n]
	}
	return buf, nil
}

// retryReadBlocks calls bio.ReadBlocks, retrying up to
// maxBufferNegotiationRetries times on failure before surfacing
// ErrBufferNegotiationFailed (spec.md §7).
func retryReadBlocks(ctx context.Context, bio firmware.BlockIO, lba uint64, buf []byte) error {
	var lastErr error
	for attempt := 0; attempt < maxBufferNegotiationRetries; attempt++ {
		if err := bio.ReadBlocks(ctx, lba, buf); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrBufferNegotiationFailed, lastErr)
}
