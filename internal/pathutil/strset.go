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

import "strings"

// IsIn reports whether candidate matches any entry of a comma-
// delimited list, case-insensitively.
func IsIn(candidate, commaList string) bool {
	if commaList == "" {
		return false
	}
	for _, entry := range strings.Split(commaList, ",") {
		if strings.EqualFold(strings.TrimSpace(entry), candidate) {
			return true
		}
	}
	return false
}

// IsInSubstring reports whether candidate contains any entry of a
// comma-delimited list as a substring, case-insensitively.
func IsInSubstring(candidate, commaList string) bool {
	if commaList == "" {
		return false
	}
	lower := strings.ToLower(candidate)
	for _, entry := range strings.Split(commaList, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry != "" && strings.Contains(lower, entry) {
			return true
		}
	}
	return false
}

// FindCommaDelimited returns the idx-th (0-based) entry of a comma-
// delimited list, trimmed of surrounding whitespace, or "" if idx is
// out of range.
func FindCommaDelimited(list string, idx int) string {
	entries := strings.Split(list, ",")
	if idx < 0 || idx >= len(entries) {
		return ""
	}
	return strings.TrimSpace(entries[idx])
}

// MetaiMatch implements firmware's case-insensitive wildcard matching
// used for comma-delimited glob patterns in upward helpers: '*'
// matches any run of characters, '?' matches exactly one.
func MetaiMatch(pattern, candidate string) bool {
	return metaiMatch([]rune(strings.ToLower(pattern)), []rune(strings.ToLower(candidate)))
}

func metaiMatch(pattern, candidate []rune) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			// Collapse consecutive '*' and try every suffix of candidate.
			for len(pattern) > 0 && pattern[0] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 0 {
				return true
			}
			for i := 0; i <= len(candidate); i++ {
				if metaiMatch(pattern, candidate[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(candidate) == 0 {
				return false
			}
			pattern, candidate = pattern[1:], candidate[1:]
		default:
			if len(candidate) == 0 || pattern[0] != candidate[0] {
				return false
			}
			pattern, candidate = pattern[1:], candidate[1:]
		}
	}
	return len(candidate) == 0
}
