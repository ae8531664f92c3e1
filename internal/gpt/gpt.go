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

// Package gpt stands in for firmware's GPT partition-entry lookup:
// given a disk signature and a partition GUID, resolve the partition
// name and type GUID recorded in the GUID Partition Table.
package gpt

import "github.com/sscafiti/bootvol/internal/guid"

// Library resolves GPT partition metadata. internal/volume's device-
// path walker calls Lookup whenever it encounters a HARDDRIVE device-
// path node carrying a GPT partition signature; a real implementation
// reads LBA 1 (the primary GPT header) and its entry array, as
// deploymenttheory-go-apfs's efi_partition_manager.go does.
type Library interface {
	Lookup(diskSignature [16]byte, partitionGUID guid.GUID) (name string, typeGUID guid.GUID, ok bool)
}

// DiscoveredRootTypeGUID is the GPT partition-type GUID of a Linux
// root filesystem partition. The device-path walker flags a volume as
// the discovered root when a HARDDRIVE node's partition type GUID
// equals this value; it says nothing about which volume firmware is
// running from (that is Set.SelfVolume).
var DiscoveredRootTypeGUID = guid.MustParse("4f68bce3-e8cd-4db1-96e7-fbcaf984b709")

// PlaceholderNames lists GPT partition names operating-system
// installers commonly stamp onto every volume of a given type,
// regardless of what the user actually calls the volume. Name
// synthesis (spec.md §4.6) must not treat these as a real assigned
// name and must fall through to the next naming strategy instead.
var PlaceholderNames = []string{
	"Microsoft basic data",
	"Linux filesystem",
	"Apple HFS/HFS+",
}

// IsPlaceholderName reports whether name is a known installer
// placeholder rather than a user-chosen GPT partition name.
func IsPlaceholderName(name string) bool {
	for _, p := range PlaceholderNames {
		if p == name {
			return true
		}
	}
	return false
}
