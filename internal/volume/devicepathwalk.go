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
	"strings"

	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/internal/gpt"
	"github.com/sscafiti/bootvol/internal/guid"
)

// walkResult accumulates everything the device-path walk learns about
// a volume's media before the scanner reconciles it onto the Volume
// (spec.md §4.3).
type walkResult struct {
	diskKind           DiskKind
	isOptical          bool
	isAppleLegacy      bool
	forceBootable      bool
	suppressBootable   bool
	partGUID           guid.GUID
	partTypeGUID       guid.GUID
	partName           string
	isDiscoveredRoot   bool
	wholeDiskDevicePath firmware.DevicePath
	sawMessagingNode   bool
}

// walkDevicePath inspects every node of a volume's device path in
// order, classifying media kind, GPT partition identity, and the
// point at which a whole-disk device path should be synthesized
// (spec.md §4.3). gptLib may be nil, in which case HARDDRIVE+GPT
// nodes still set PartGUID but PartName/PartTypeGUID stay unresolved;
// a missing GPT library is neither logged nor returned as an error,
// so it never aborts the scan.
func walkDevicePath(dp firmware.DevicePath, gptLib gpt.Library, diskSignature [16]byte) walkResult {
	res := walkResult{diskKind: DiskInternal}

	for i, node := range dp {
		text := node.String()

		switch {
		case strings.HasPrefix(text, "HD("):
			if fields := strings.Split(strings.TrimSuffix(strings.TrimPrefix(text, "HD("), ")"), ","); len(fields) >= 3 {
				if strings.TrimSpace(fields[1]) == "GPT" {
					if g, err := guid.Parse(strings.TrimSpace(fields[2])); err == nil {
						res.partGUID = g
						if gptLib != nil {
							if name, typeGUID, ok := gptLib.Lookup(diskSignature, g); ok {
								res.partName = name
								res.partTypeGUID = typeGUID
								if typeGUID.Equal(gpt.DiscoveredRootTypeGUID) {
									res.isDiscoveredRoot = true
								}
							}
						}
					}
				}
			}

		case strings.HasPrefix(text, "CDROM("):
			res.isOptical = true
			res.diskKind = DiskOptical
			res.forceBootable = true

		case strings.HasPrefix(text, "Vendor("):
			res.isAppleLegacy = true
			res.suppressBootable = true

		case isMessagingNode(text):
			res.diskKind = upgradeDiskKind(res.diskKind, DiskExternal)
			if !res.sawMessagingNode {
				res.sawMessagingNode = true
				res.wholeDiskDevicePath = append(firmware.DevicePath{}, dp[:i+1]...)
			}
		}
	}

	return res
}

// isMessagingNode reports whether a device-path node's textual form
// identifies a messaging-class node for a removable transport (USB,
// 1394/FireWire, Fibre Channel), the condition spec.md §4.3 uses to
// upgrade a volume's disk kind to External and to locate the
// whole-disk device path.
func isMessagingNode(text string) bool {
	prefixes := []string{"USB(", "UsbClass(", "UsbWwid(", "1394(", "Fibre(", "FibreEx("}
	for _, p := range prefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}
	return false
}

// upgradeDiskKind never downgrades Optical/Net classifications that an
// earlier node already established; External only applies when nothing
// more specific is already known.
func upgradeDiskKind(current, proposed DiskKind) DiskKind {
	if current == DiskOptical || current == DiskNet {
		return current
	}
	return proposed
}

// acquireWholeDiskBlockIO resolves the synthesized whole-disk device
// path back to a handle and opens its BlockIO. Failure here is
// non-fatal per spec.md §4.3: the volume keeps its own BlockIO and
// simply has no whole-disk linkage for the topology correlator to
// use.
func acquireWholeDiskBlockIO(ctx context.Context, resolver firmware.DevicePathResolver, blockIOOpener func(any) (firmware.BlockIO, error), dp firmware.DevicePath) (any, firmware.BlockIO) {
	if resolver == nil || blockIOOpener == nil || len(dp) == 0 {
		return nil, nil
	}
	h, err := resolver.LocateDevicePath(ctx, dp)
	if err != nil {
		return nil, nil
	}
	bio, err := blockIOOpener(h)
	if err != nil {
		return nil, nil
	}
	return h, bio
}
