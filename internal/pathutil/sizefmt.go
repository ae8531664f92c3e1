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

package pathutil

import "fmt"

// FormatBytesIEC formats b using IEEE 1541 binary prefixes (KiB, MiB,
// GiB, TiB, PiB), avoiding a trailing ".00" for whole values, the way
// a synthesized volume name needs ("1.50 GiB volume" vs "2 GiB
// volume"). Values under 1024 bytes are rendered "<n>-byte".
func FormatBytesIEC(b int64) string {
	const (
		_   = iota
		KiB = 1 << (10 * iota)
		MiB
		GiB
		TiB
		PiB
	)

	val := float64(b)
	var unit string

	switch {
	case b >= PiB:
		val /= float64(PiB)
		unit = "PiB"
	case b >= TiB:
		val /= float64(TiB)
		unit = "TiB"
	case b >= GiB:
		val /= float64(GiB)
		unit = "GiB"
	case b >= MiB:
		val /= float64(MiB)
		unit = "MiB"
	case b >= KiB:
		val /= float64(KiB)
		unit = "KiB"
	default:
		return fmt.Sprintf("%d-byte", b)
	}

	if val == float64(int64(val)) {
		return fmt.Sprintf("%.0f %s", val, unit)
	}
	return fmt.Sprintf("%.2f %s", val, unit)
}
