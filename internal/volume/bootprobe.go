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
	"bytes"
	"encoding/binary"
)

const (
	rankLILO     = 1
	rankSYSLINUX = 2

	freeBSDCheckOffsetA = 502
	freeBSDCheckOffsetB = 506
	freeBSDMagicB       = 50000

	netBSDMagicOffset = 1028
	netBSDMagic       = 0x7886b6d1
)

// bootDetection is the result of the boot-sector probe (spec.md §4.2):
// whether the sector carries recognized, not-obviously-disabled boot
// code, and what OS it implies.
type bootDetection struct {
	hasBootCode bool
	osName      string
	osIconName  string
}

// probeBootSector applies the boot-sector signature gate and ordered
// OS-loader signature table to a sample taken from the start of a
// volume. sample should be at least bootSectorSize bytes; shorter
// samples simply fail the gate.
func probeBootSector(sample []byte) bootDetection {
	if !bootSectorGate(sample) {
		return bootDetection{}
	}

	best := anywhereSignature{rank: 1 << 30}
	haveMatch := false
	consider := func(rank int, osName, osIconName string) {
		if rank < best.rank {
			best = anywhereSignature{rank: rank, osName: osName, osIconName: osIconName}
			haveMatch = true
		}
	}

	if len(sample) > 6 && bytes.Equal(sample[2:6], []byte("LILO")) {
		consider(rankLILO, "Linux", "linux")
	}
	if len(sample) > 6 && bytes.Equal(sample[6:10], []byte("LILO")) {
		consider(rankLILO, "Linux", "linux")
	}
	if len(sample) > 11 && bytes.Equal(sample[3:11], []byte("SYSLINUX")) {
		consider(rankSYSLINUX, "Linux", "linux")
	}
	if len(sample) >= freeBSDCheckOffsetB+4 {
		a := binary.LittleEndian.Uint32(sample[freeBSDCheckOffsetA : freeBSDCheckOffsetA+4])
		b := binary.LittleEndian.Uint32(sample[freeBSDCheckOffsetB : freeBSDCheckOffsetB+4])
		if a == 0 && b == freeBSDMagicB {
			consider(rankBTXLoader, "FreeBSD", "freebsd")
		}
	}
	if len(sample) >= netBSDMagicOffset+4 {
		if binary.LittleEndian.Uint32(sample[netBSDMagicOffset:netBSDMagicOffset+4]) == netBSDMagic {
			consider(rankNetBSDBootxx, "NetBSD", "netbsd")
		}
	}

	freeBSDTooLarge, freeBSDIOError := false, false
	freeDOSCpuboot, freeDOSKernel := false, false
	scanAnywhere(sample, func(sig anywhereSignature) {
		switch sig.rank {
		case rankFreeBSDLoaderTooLarge:
			// Two distinct phrases share this rank; the FreeBSD
			// "loader too large" signature requires both present.
			if bytes.Contains(sample, []byte("Boot loader too large")) {
				freeBSDTooLarge = true
			}
			if bytes.Contains(sample, []byte("I/O error loading boot loader")) {
				freeBSDIOError = true
			}
		case rankFreeDOS:
			// Likewise, FreeDOS requires both of its two markers.
			if bytes.Contains(sample, []byte("CPUBOOT SYS")) {
				freeDOSCpuboot = true
			}
			if bytes.Contains(sample, []byte("KERNEL  SYS")) {
				freeDOSKernel = true
			}
		default:
			consider(sig.rank, sig.osName, sig.osIconName)
		}
	})
	if freeBSDTooLarge && freeBSDIOError {
		consider(rankFreeBSDLoaderTooLarge, "FreeBSD", "freebsd")
	}
	if freeDOSCpuboot && freeDOSKernel {
		consider(rankFreeDOS, "FreeDOS", "freedos")
	}

	for _, phrase := range rejectPhrases {
		if bytes.Contains(sample, phrase) {
			return bootDetection{}
		}
	}

	if !haveMatch {
		return bootDetection{hasBootCode: true}
	}

	return bootDetection{
		hasBootCode: true,
		osName:      best.osName,
		osIconName:  best.osIconName,
	}
}

// bootSectorGate is the precondition every boot-sector signature
// check is subject to: a standard 0xAA55 tail, a nonzero first byte
// (an all-zero sector carries no code at all), and no "EXFAT" marker
// in the first 512 bytes (exFAT boot sectors share NTFS-like
// structure but are not a recognized boot-code OS here).
func bootSectorGate(sample []byte) bool {
	if len(sample) < bootSectorSize {
		return false
	}
	if binary.LittleEndian.Uint16(sample[bootSignatureOffset:bootSignatureOffset+2]) != 0xAA55 {
		return false
	}
	if sample[0] == 0 {
		return false
	}
	if bytes.Contains(sample[:bootSectorSize], []byte("EXFAT")) {
		return false
	}
	return true
}

// mbrSnapshot extracts the 4 primary MBR partition entries from a
// 512-byte master boot record, returning ok=false unless at least one
// entry has a nonzero StartLBA and SizeInSector and every entry's
// Flags byte is 0x00 or 0x80 (spec.md §4.2 MBR snapshot rule — guards
// against treating a blank or non-MBR first sector as a partition
// table).
func mbrSnapshot(sector []byte) (entries [4]MbrPartitionInfo, ok bool) {
	if len(sector) < bootSectorSize {
		return entries, false
	}
	if binary.LittleEndian.Uint16(sector[bootSignatureOffset:bootSignatureOffset+2]) != 0xAA55 {
		return entries, false
	}

	const tableOffset = 446
	const entrySize = 16
	haveNonzero := false
	for i := 0; i < 4; i++ {
		e := sector[tableOffset+i*entrySize : tableOffset+(i+1)*entrySize]
		flags := e[0]
		if flags != 0x00 && flags != 0x80 {
			return entries, false
		}
		var info MbrPartitionInfo
		info.Flags = flags
		copy(info.StartCHS[:], e[1:4])
		info.Type = e[4]
		copy(info.EndCHS[:], e[5:8])
		info.StartLBA = binary.LittleEndian.Uint32(e[8:12])
		info.SizeInSector = binary.LittleEndian.Uint32(e[12:16])
		if info.StartLBA != 0 && info.SizeInSector != 0 {
			haveNonzero = true
		}
		entries[i] = info
	}
	if !haveNonzero {
		return entries, false
	}
	return entries, true
}
