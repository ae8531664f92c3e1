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

// Package guid implements the GUID codec used at every firmware
// boundary: a textual, byte-order-neutral 16-byte value, plus the GPT
// on-disk mixed-endian conversion GPT partition records require.
package guid

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// GUID is an opaque 16-byte value. Equality is plain byte comparison;
// no field inside it is ever interpreted by this package.
type GUID [16]byte

// Zero is the all-zero GUID returned whenever a parse fails.
var Zero GUID

// IsZero reports whether g is the all-zero value.
func (g GUID) IsZero() bool {
	return g == Zero
}

// Equal reports whether g and other hold the same bytes.
func (g GUID) Equal(other GUID) bool {
	return g == other
}

// String formats g in canonical 36-character form
// (xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx), lowercase hex, raw byte
// order (no GPT mixed-endian swap — ToGPTBytes/FromGPTBytes convert
// to and from the on-disk GPT layout).
func (g GUID) String() string {
	return fmt.Sprintf(
		"%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		g[0], g[1], g[2], g[3],
		g[4], g[5],
		g[6], g[7],
		g[8], g[9],
		g[10], g[11], g[12], g[13], g[14], g[15],
	)
}

// Parse reads a canonical 36-character GUID string, case-insensitive,
// with mandatory dashes at positions 8, 13, 18, 23. Any malformed
// input yields Zero and a non-nil error; callers that must never fail
// should test the returned error and fall back to Zero themselves.
func Parse(s string) (GUID, error) {
	if len(s) != 36 {
		return Zero, fmt.Errorf("guid: %q is not 36 characters", s)
	}
	if s[8] != '-' || s[13] != '-' || s[18] != '-' || s[23] != '-' {
		return Zero, fmt.Errorf("guid: %q missing dashes at canonical positions", s)
	}
	hexPart := s[0:8] + s[9:13] + s[14:18] + s[19:23] + s[24:36]
	raw, err := hex.DecodeString(strings.ToLower(hexPart))
	if err != nil {
		return Zero, fmt.Errorf("guid: %q is not valid hex: %w", s, err)
	}
	if len(raw) != 16 {
		return Zero, fmt.Errorf("guid: %q decoded to %d bytes, want 16", s, len(raw))
	}
	var g GUID
	copy(g[:], raw)
	return g, nil
}

// MustParse is Parse but returns Zero instead of an error. Intended
// for well-known constant GUIDs defined at package scope.
func MustParse(s string) GUID {
	g, err := Parse(s)
	if err != nil {
		return Zero
	}
	return g
}

// gptSwapOrder is the byte-index permutation the GPT/EFI on-disk GUID
// layout uses relative to canonical big-endian order: the first three
// fields (time-low, time-mid, time-hi-and-version) are stored
// little-endian, the remaining eight bytes (clock-seq + node) are
// stored as-is.
var gptSwapOrder = [16]int{3, 2, 1, 0, 5, 4, 7, 6, 8, 9, 10, 11, 12, 13, 14, 15}

// FromGPTBytes converts a 16-byte GPT on-disk GUID field into the
// canonical big-endian GUID this package otherwise works with.
func FromGPTBytes(raw [16]byte) GUID {
	var g GUID
	for i, src := range gptSwapOrder {
		g[i] = raw[src]
	}
	return g
}

// ToGPTBytes converts a canonical GUID into the 16-byte layout a GPT
// header or partition entry stores on disk.
func ToGPTBytes(g GUID) [16]byte {
	var raw [16]byte
	for i, src := range gptSwapOrder {
		raw[src] = g[i]
	}
	return raw
}
