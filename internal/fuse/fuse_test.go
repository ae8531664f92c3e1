//go:build linux

package fuse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sscafiti/bootvol/internal/guid"
	"github.com/sscafiti/bootvol/internal/volume"
)

func TestVolumeDirNameUsesVolNumberWhenReadable(t *testing.T) {
	v := &volume.Volume{VolNumber: 3}
	assert.Equal(t, "3", volumeDirName(v, 0))
}

func TestVolumeDirNameFallsBackToIndexWhenUnreadable(t *testing.T) {
	v := &volume.Volume{VolNumber: volume.UnreadableVolNumber}
	assert.Equal(t, "unreadable-2", volumeDirName(v, 2))
}

func TestVolumeFieldsRendersExpectedKeys(t *testing.T) {
	v := &volume.Volume{
		FSType:      volume.FSFAT,
		VolName:     "EFI System",
		VolUUID:     guid.MustParse("4f68bce3-e8cd-4db1-96e7-fbcaf984b709"),
		HasBootCode: true,
		IsReadable:  true,
	}
	fields := volumeFields(v)
	assert.Equal(t, "EFI System", fields["volname"])
	assert.Equal(t, "true", fields["boot"])
	assert.Equal(t, "true", fields["readable"])
	assert.Contains(t, fields, "fstype")
	assert.Contains(t, fields, "diskkind")
}

func TestRootDirLookupAndReadDirAll(t *testing.T) {
	set := &volume.Set{
		Volumes: []*volume.Volume{
			{VolNumber: 0},
			{VolNumber: volume.UnreadableVolNumber},
		},
	}
	d := &rootDir{set: set}

	node, err := d.Lookup(context.Background(), "0")
	require.NoError(t, err)
	require.IsType(t, &volumeDir{}, node)

	_, err = d.Lookup(context.Background(), "does-not-exist")
	assert.Error(t, err)

	entries, err := d.ReadDirAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
