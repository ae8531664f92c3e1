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
	"log/slog"

	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/internal/gpt"
	"github.com/sscafiti/bootvol/internal/guid"
)

// Set is the upward-facing collection of discovered volumes (spec.md
// §6): the Volumes sequence itself, plus the two singled-out entries
// (SelfVolume, DiscoveredRoot) a boot menu needs to find quickly.
type Set struct {
	Volumes        []*Volume
	SelfVolume     *Volume
	DiscoveredRoot *Volume

	// SelfDevicePath, if set before Scan, is matched against every
	// scanned Volume's device path to populate SelfVolume. Firmware
	// has no generic "which handle am I running from" query this
	// package can assume, so the caller supplies it.
	SelfDevicePath firmware.DevicePath

	scanner       *Scanner
	nextVolNumber int
}

// NewSet creates a Set driven by scanner. scanner must not be nil.
func NewSet(scanner *Scanner) *Set {
	return &Set{scanner: scanner}
}

func (set *Set) logger() *slog.Logger {
	if set.scanner != nil {
		return set.scanner.logger()
	}
	return slog.Default()
}

// Scan performs a full discovery pass: enumerate handles, run the
// per-handle pipeline, correlate topology, then number and dedup
// volumes (spec.md §4.4, §4.7, §4.8). Only a failure to enumerate
// handles at all is fatal (ErrFatalInit); every other failure is
// absorbed into individual Volume.IsReadable values.
func (set *Set) Scan(ctx context.Context) error {
	if set.scanner == nil || set.scanner.Handles == nil {
		return fmt.Errorf("%w: no handle enumerator configured", ErrFatalInit)
	}

	handles, err := set.scanner.Handles.Handles(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFatalInit, err)
	}

	set.Volumes = make([]*Volume, 0, len(handles))
	for _, h := range handles {
		v := set.scanner.scanHandle(ctx, h)
		set.Volumes = append(set.Volumes, v)
	}

	set.correlate(ctx)
	set.assignNumbers()
	set.resolveSpecialVolumes()
	return nil
}

// assignNumbers implements spec.md §4.8: a UUID collision among
// readable volumes demotes every volume after the first to
// unreadable, then every remaining readable volume gets a dense,
// 0-based vol_number in scan order; the rest get UnreadableVolNumber.
func (set *Set) assignNumbers() {
	seen := make(map[guid.GUID]bool)
	set.nextVolNumber = 0

	for _, v := range set.Volumes {
		if v.IsReadable && !v.VolUUID.IsZero() {
			if seen[v.VolUUID] {
				v.IsReadable = false
			} else {
				seen[v.VolUUID] = true
			}
		}

		if v.IsReadable {
			v.VolNumber = set.nextVolNumber
			set.nextVolNumber++
		} else {
			v.VolNumber = UnreadableVolNumber
		}
	}
}

// resolveSpecialVolumes populates DiscoveredRoot (the first volume
// whose GPT partition type is gpt.DiscoveredRootTypeGUID) and, if
// SelfDevicePath was provided, SelfVolume.
func (set *Set) resolveSpecialVolumes() {
	set.DiscoveredRoot = nil
	for _, v := range set.Volumes {
		if v.PartTypeGUID.Equal(gpt.DiscoveredRootTypeGUID) {
			set.DiscoveredRoot = v
			break
		}
	}

	set.SelfVolume = nil
	if len(set.SelfDevicePath) == 0 {
		return
	}
	for _, v := range set.Volumes {
		if dp, ok := v.DevicePath.(firmware.DevicePath); ok && devicePathEqual(dp, set.SelfDevicePath) {
			set.SelfVolume = v
			break
		}
	}
}

// UninitVolumes drops every handle-dependent resource (firmware
// handle, block I/O, root directory) while preserving each Volume's
// device path, matching the invariant that device paths survive a
// reinit but handles do not. Call this before tearing down the
// underlying firmware connection.
func (set *Set) UninitVolumes() {
	for _, v := range set.Volumes {
		v.Handle = nil
		v.BlockIO = nil
		v.WholeDiskBlockIO = nil
		v.RootDir = nil
		v.IsReadable = false
	}
}

// ReinitVolumes re-resolves each Volume's firmware handle from its
// preserved DevicePath and reopens its block I/O and root directory.
//
// firmwareMajorVersion gates this exactly as the original
// implementation did: re-resolution only runs when
// firmwareMajorVersion == 1. This looks arbitrary on newer firmware
// and is — it is a documented quirk of the system being modeled, kept
// intentionally rather than "fixed".
func (set *Set) ReinitVolumes(ctx context.Context, firmwareMajorVersion int) error {
	if firmwareMajorVersion != 1 {
		return nil
	}
	if set.scanner == nil || set.scanner.Paths == nil {
		return fmt.Errorf("%w: no device path resolver configured", ErrFatalInit)
	}

	for _, v := range set.Volumes {
		dp, ok := v.DevicePath.(firmware.DevicePath)
		if !ok || len(dp) == 0 {
			continue
		}
		h, err := set.scanner.Paths.LocateDevicePath(ctx, dp)
		if err != nil {
			set.logger().Warn("reinit: device path no longer resolves", "error", err)
			continue
		}
		v.Handle = h

		if set.scanner.BlockIOOpener != nil {
			if bio, err := set.scanner.BlockIOOpener(ctx, h); err == nil {
				v.BlockIO = bio
			}
		}
		if set.scanner.RootOpener != nil {
			if dir, err := set.scanner.RootOpener.OpenRoot(ctx, h); err == nil {
				v.RootDir = dir
				v.IsReadable = true
			}
		}
	}
	return nil
}
