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
	"log/slog"

	"github.com/sscafiti/bootvol/internal/firmware"
	"github.com/sscafiti/bootvol/internal/gpt"
)

// Scanner drives the per-handle volume-discovery pipeline (spec.md
// §4.4) against whatever firmware services it is given. Every field
// except Handles may be nil; scanHandle degrades gracefully when a
// capability is absent rather than failing the whole scan, matching
// spec.md §7's per-volume error policy.
type Scanner struct {
	Handles       firmware.HandleEnumerator
	Paths         firmware.DevicePathResolver
	BlockIOOpener func(ctx context.Context, h any) (firmware.BlockIO, error)
	RootOpener    firmware.RootDirOpener
	GPTLib        gpt.Library
	Logger        *slog.Logger
}

func (s *Scanner) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// scanHandle runs the 10-step per-handle pipeline spec.md §4.4
// defines, returning a Volume absorbed of every non-fatal error it
// encountered along the way.
func (s *Scanner) scanHandle(ctx context.Context, h any) *Volume {
	v := &Volume{
		Handle:               h,
		FSType:               FSUnknown,
		VolNumber:            UnreadableVolNumber,
		DiskKind:             DiskInternal, // step 2: default Internal
		WholeDiskVolumeIndex: -1,
	}

	// step 1: duplicate path
	if s.Paths != nil {
		if dp, err := s.Paths.DevicePath(ctx, h); err == nil {
			v.DevicePath = dp
		} else {
			s.logger().Warn("device path unavailable", "error", err)
		}
	}

	// step 3: acquire block_io
	var bio firmware.BlockIO
	if s.BlockIOOpener != nil {
		var err error
		bio, err = s.BlockIOOpener(ctx, h)
		if err != nil {
			s.logger().Warn("block I/O unavailable", "error", err)
		} else {
			v.BlockIO = bio
		}
	}

	// step 4: optical upgrade at 2048 block size
	if bio != nil && bio.BlockSize() == 2048 {
		v.DiskKind = DiskOptical
	}

	var sample []byte
	var bootSample []byte
	if bio != nil {
		var err error
		sample, err = readSample(ctx, bio, SampleSize)
		if err != nil {
			s.logger().Warn("sample read failed", "error", err)
		}
		bootSample = sample
		if len(bootSample) > bootSectorSize {
			bootSample = bootSample[:bootSectorSize]
		}
	}

	var fatMountPending bool
	if sample != nil {
		probe := probeFSType(sample)
		v.FSType = probe.fsType
		v.VolUUID = probe.volUUID
		fatMountPending = probe.fatMountPending
	}

	// step 5: boot-sector probe
	var bootDet bootDetection
	if bootSample != nil {
		bootDet = probeBootSector(bootSample)
		v.HasBootCode = bootDet.hasBootCode
		v.OSName = bootDet.osName
		v.OSIconName = bootDet.osIconName
	}

	// step 6: device-path walk
	var walk walkResult
	if dp, ok := v.DevicePath.(firmware.DevicePath); ok && len(dp) > 0 {
		var diskSig [16]byte
		walk = walkDevicePath(dp, s.GPTLib, diskSig)
		v.DiskKind = upgradeDiskKind(v.DiskKind, walk.diskKind)
		if walk.isOptical {
			v.DiskKind = DiskOptical
		}
		v.IsAppleLegacy = walk.isAppleLegacy
		v.PartGUID = walk.partGUID
		v.PartTypeGUID = walk.partTypeGUID
		v.PartName = walk.partName

		if walk.sawMessagingNode && len(walk.wholeDiskDevicePath) > 0 {
			v.WholeDiskDevicePath = walk.wholeDiskDevicePath
			if wh, wbio := acquireWholeDiskBlockIO(ctx, s.Paths, func(h any) (firmware.BlockIO, error) {
				if s.BlockIOOpener == nil {
					return nil, ErrCapabilityAbsent
				}
				return s.BlockIOOpener(ctx, h)
			}, walk.wholeDiskDevicePath); wbio != nil {
				_ = wh
				v.WholeDiskBlockIO = wbio
			}
		}

		// step 7: has_boot_code reconciliation — asymmetric, only
		// ever clears HasBootCode, never re-asserts it (a documented
		// quirk preserved as-is rather than redesigned).
		if walk.suppressBootable {
			v.HasBootCode = false
		}
	}

	// step 8: root-dir open -> is_readable
	var firmwareLabel string
	var fsSizeBytes int64
	if s.RootOpener != nil {
		if dir, err := s.RootOpener.OpenRoot(ctx, h); err == nil {
			v.RootDir = dir
			v.IsReadable = true
			if fatMountPending {
				// Mount succeeded: this is a genuine FAT volume (spec.md
				// §4.1 rule 6), not a whole disk or unknown media.
				v.FSType = FSFAT
			}
			if info, ok := dir.(firmware.FSInfo); ok {
				firmwareLabel, fsSizeBytes, _ = info.Info(ctx)
			}

			// step 9: NTFS+boot-code extra check for NTLDR/bootmgr at root
			if v.FSType == FSNTFS && v.HasBootCode {
				hasNTLDR, _ := dir.Stat(ctx, "NTLDR")
				hasBootmgr, _ := dir.Stat(ctx, "bootmgr")
				if !hasNTLDR && !hasBootmgr {
					v.HasBootCode = false
				}
			}
		} else {
			s.logger().Debug("volume not readable", "error", err)
			if fatMountPending {
				// spec.md §4.1 rule 6: the mount attempt failed. A bare,
				// unpartitioned disk is a whole disk rather than an
				// unrecognized filesystem; a disk that is itself a
				// logical partition is left Unknown.
				if bio != nil && bio.IsLogicalPartition() {
					v.FSType = FSUnknown
				} else {
					v.FSType = FSWholeDisk
				}
			}
		}
	}

	// Capture the primary MBR partition table when this volume's own
	// first sector carries one; the topology correlator uses it to
	// expand any extended-partition chain and to identify which
	// already-scanned Volume corresponds to which primary entry.
	if bio != nil && bootSample != nil {
		if table, ok := mbrSnapshot(bootSample); ok {
			v.MbrPartitionTable = table
		}
	}

	// step 10: name/icon synthesis
	v.VolName = synthesizeVolName(firmwareLabel, v.PartName, v.FSType, fsSizeBytes)
	if v.OSIconName == "" {
		v.OSIconName = v.FSType.String()
	}

	return v
}
