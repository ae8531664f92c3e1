package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sscafiti/bootvol/internal/volume"
)

func TestFilterByOSNameMatchesGlob(t *testing.T) {
	volumes := []*volume.Volume{
		{OSName: "Windows 10"},
		{OSName: "Windows 11"},
		{OSName: "Linux"},
	}
	kept := filterByOSName(volumes, "Windows*")
	assert.Len(t, kept, 2)
}

func TestFilterByOSNameNoMatchReturnsEmpty(t *testing.T) {
	volumes := []*volume.Volume{{OSName: "Linux"}}
	kept := filterByOSName(volumes, "Windows*")
	assert.Empty(t, kept)
}

func TestDropExcludedFSTypesRemovesListedTypes(t *testing.T) {
	volumes := []*volume.Volume{
		{FSType: volume.FSUnknown},
		{FSType: volume.FSFAT},
		{FSType: volume.FSNTFS},
	}
	kept := dropExcludedFSTypes(volumes, "unknown, ntfs")
	assert.Len(t, kept, 1)
	assert.Equal(t, volume.FSFAT, kept[0].FSType)
}
