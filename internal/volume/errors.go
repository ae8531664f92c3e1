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

import "errors"

// Error kinds a caller can match with errors.Is. Only ErrFatalInit
// ever propagates out of Scan; every other kind is absorbed per-
// volume or per-scan.
var (
	// ErrCapabilityAbsent means the firmware behind a handle does not
	// implement a protocol this component needed (e.g. no eject
	// capability, no GPT lookup library). Absorbed: the caller
	// proceeds without that capability's contribution.
	ErrCapabilityAbsent = errors.New("volume: required firmware capability absent")

	// ErrIO means a block-I/O read failed. Absorbed: the step that
	// needed the read is skipped and the scan goes on; the volume's
	// IsReadable is not changed by it.
	ErrIO = errors.New("volume: block I/O read failed")

	// ErrBufferNegotiationFailed means firmware refused a read on
	// every one of maxBufferNegotiationRetries attempts (spec.md: 4
	// retries), each made with the same buffer size. Absorbed at the
	// volume level.
	ErrBufferNegotiationFailed = errors.New("volume: buffer size negotiation exhausted retries")

	// ErrVolumeUnreadable means firmware could not mount a
	// filesystem on a handle's media at all. Absorbed: IsReadable is
	// set false and classification continues using whatever boot-
	// sector/device-path evidence is available.
	ErrVolumeUnreadable = errors.New("volume: firmware could not mount filesystem")

	// ErrFatalInit means handle enumeration itself failed; there is
	// no partial result to return. This is the only error kind Scan
	// returns to its caller.
	ErrFatalInit = errors.New("volume: fatal initialization failure")
)

// maxBufferNegotiationRetries bounds the buffer-size renegotiation
// loop a filesystem probe runs before giving up on a handle (spec.md
// §7).
const maxBufferNegotiationRetries = 4
