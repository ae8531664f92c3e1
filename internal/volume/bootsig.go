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

import "github.com/sscafiti/bootvol/pkg/table"

// anywhereSignature is a boot-sector byte sequence that identifies an
// OS loader regardless of where in the sector it appears, paired with
// the display name and icon-name it implies.
type anywhereSignature struct {
	rank       int
	osName     string
	osIconName string
}

// anywhereRank is the priority order of the "appears anywhere in the
// sample" signatures, lowest number wins when more than one matches.
// Offset-constrained signatures (LILO, SYSLINUX, the FreeBSD integer
// checks, the NetBSD integer check) are interleaved into this same
// rank space by probeBootSector (bootprobe.go); see the rank
// constants below.
const (
	rankISOLINUX = 3
	rankGrub     = 4
	rankBTXLoader = 5
	rankFreeBSDLoaderTooLarge = 6
	rankOpenBSDLoading        = 7
	rankOpenBSDCDBoot         = 7
	rankNetBSDBootxx          = 8
	rankNTLDR                 = 9
	rankBOOTMGR               = 10
	rankFreeDOS               = 11
	rankOS2                   = 12
	rankBeOS                  = 13
	rankZETA                  = 14
	rankHaiku                 = 15
)

// anywhereTable indexes every fixed byte sequence this probe searches
// for in one pass over the sample, instead of one bytes.Contains call
// per signature. This is the genuine use for the generic prefix table:
// a single linear scan recognizing many short literal patterns.
var anywhereTable = buildAnywhereTable()

func buildAnywhereTable() *table.PrefixTable[anywhereSignature] {
	t := table.New[anywhereSignature]()
	insert := func(pattern string, sig anywhereSignature) {
		t.Insert([]byte(pattern), sig)
	}

	insert("ISOLINUX", anywhereSignature{rankISOLINUX, "Linux", "linux"})
	insert("Geom\x00Hard Disk\x00Read\x00 Error", anywhereSignature{rankGrub, "Linux", "grub,linux"})
	insert("Starting the BTX loader", anywhereSignature{rankBTXLoader, "FreeBSD", "freebsd"})
	insert("Boot loader too large", anywhereSignature{rankFreeBSDLoaderTooLarge, "FreeBSD", "freebsd"})
	insert("I/O error loading boot loader", anywhereSignature{rankFreeBSDLoaderTooLarge, "FreeBSD", "freebsd"})
	insert("!Loading", anywhereSignature{rankOpenBSDLoading, "OpenBSD", "openbsd"})
	insert("/cdboot\x00/CDBOOT\x00", anywhereSignature{rankOpenBSDCDBoot, "OpenBSD", "openbsd"})
	insert("Not a bootxx image", anywhereSignature{rankNetBSDBootxx, "NetBSD", "netbsd"})
	insert("NTLDR", anywhereSignature{rankNTLDR, "Windows", "win"})
	insert("BOOTMGR", anywhereSignature{rankBOOTMGR, "Windows", "win8,win"})
	insert("CPUBOOT SYS", anywhereSignature{rankFreeDOS, "FreeDOS", "freedos"})
	insert("KERNEL  SYS", anywhereSignature{rankFreeDOS, "FreeDOS", "freedos"})
	insert("OS2LDR", anywhereSignature{rankOS2, "eComStation", "ecomstation"})
	insert("OS2BOOT", anywhereSignature{rankOS2, "eComStation", "ecomstation"})
	insert("Be Boot Loader", anywhereSignature{rankBeOS, "BeOS", "beos"})
	insert("yT Boot Loader", anywhereSignature{rankZETA, "ZETA", "zeta,beos"})
	insert("\x04beos\x06system\x05zbeos", anywhereSignature{rankHaiku, "Haiku", "haiku,beos"})
	insert("\x06system\x0chaiku_loader", anywhereSignature{rankHaiku, "Haiku", "haiku,beos"})

	return t
}

// scanAnywhere runs one linear pass over sample, calling onMatch for
// every anywhereSignature whose pattern occurs starting at any
// offset. A signature can be reported more than once if its pattern
// repeats; callers only care about the lowest rank seen.
func scanAnywhere(sample []byte, onMatch func(anywhereSignature)) {
	for i := range sample {
		anywhereTable.Walk(sample[i:], func(sig anywhereSignature) bool {
			onMatch(sig)
			return false // keep walking this start position's longer prefixes too
		})
	}
}

// rejectPhrases, found anywhere in the sample, mean the boot code
// present is a "no bootable media" stub rather than a real loader
// (spec.md §4.2 post-rejection sweep).
var rejectPhrases = [][]byte{
	[]byte("Non-system disk"),
	[]byte("This is not a bootable disk"),
	[]byte("Press any key to restart"),
}
