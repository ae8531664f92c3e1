package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetMountpointStripsExtension(t *testing.T) {
	assert.Equal(t, "disk_mnt", getMountpoint("/tmp/images/disk.img"))
}

func TestGetMountpointWithNoExtension(t *testing.T) {
	assert.Equal(t, "sda_mnt", getMountpoint("/dev/sda"))
}

func TestGetMountpointWithMultipleDots(t *testing.T) {
	assert.Equal(t, "disk.part1_mnt", getMountpoint("disk.part1.img"))
}
