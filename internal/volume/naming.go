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
	"fmt"

	"github.com/sscafiti/bootvol/internal/gpt"
	"github.com/sscafiti/bootvol/internal/pathutil"
)

// synthesizeVolName implements spec.md §4.6's naming priority:
// firmware-reported label, then GPT partition name (skipping known
// installer placeholders), then a synthetic "<size> <fstype> volume"
// or "<fstype> volume", and finally "unknown volume".
func synthesizeVolName(firmwareLabel, gptPartName string, fsType FSType, sizeBytes int64) string {
	if firmwareLabel != "" {
		return firmwareLabel
	}
	if gptPartName != "" && !gpt.IsPlaceholderName(gptPartName) {
		return gptPartName
	}
	if fsType == FSUnknown {
		return "unknown volume"
	}
	if sizeBytes > 0 {
		return fmt.Sprintf("%s %s volume", pathutil.FormatBytesIEC(sizeBytes), fsType.String())
	}
	return fmt.Sprintf("%s volume", fsType.String())
}
