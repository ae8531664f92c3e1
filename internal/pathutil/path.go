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

// Package pathutil collects the small path/string helpers firmware
// paths and volume names need: slash normalization, basename/
// extension splitting, and joining optional name fragments.
package pathutil

import "strings"

// CleanSlashes normalizes a firmware-style path to use single forward
// slashes and strips a trailing slash (except for the root "/").
// Idempotent: CleanSlashes(CleanSlashes(p)) == CleanSlashes(p).
func CleanSlashes(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.Contains(p, "//") {
		p = strings.ReplaceAll(p, "//", "/")
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = p[:len(p)-1]
	}
	if p == "" {
		p = "/"
	}
	return p
}

// FindLastDirName returns the final path component of p (the part
// after the last slash), mirroring a "basename".
func FindLastDirName(p string) string {
	p = CleanSlashes(p)
	idx := strings.LastIndex(p, "/")
	return p[idx+1:]
}

// FindPath returns everything before the final path component of p
// (the part a caller would pass to a directory-open call), mirroring
// a "dirname".
func FindPath(p string) string {
	p = CleanSlashes(p)
	idx := strings.LastIndex(p, "/")
	if idx <= 0 {
		return "/"
	}
	return p[:idx]
}

// FindExtension returns the lowercase file extension of p without the
// leading dot, or "" if p has none.
func FindExtension(p string) string {
	name := FindLastDirName(p)
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

// SplitVolumeAndFilename splits a "volume:path" reference into its
// volume name and path components. If there is no colon, volume is
// empty and path is the entire input.
func SplitVolumeAndFilename(s string) (volume, path string) {
	idx := strings.Index(s, ":")
	if idx < 0 {
		return "", s
	}
	return s[:idx], s[idx+1:]
}

// SplitPathName splits p into directory and file-name parts, like
// FindPath/FindLastDirName combined in one call.
func SplitPathName(p string) (dir, name string) {
	return FindPath(p), FindLastDirName(p)
}

// MergeStrings joins the non-empty strings in parts with sep between
// them, skipping empty parts entirely rather than leaving a doubled
// separator.
func MergeStrings(sep string, parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}
