package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanSlashesIdempotent(t *testing.T) {
	cases := []string{
		`\EFI\boot\bootx64.efi`,
		"/EFI//boot///bootx64.efi/",
		"/",
		"",
	}
	for _, c := range cases {
		once := CleanSlashes(c)
		twice := CleanSlashes(once)
		assert.Equal(t, once, twice, c)
	}
}

func TestFindLastDirNameAndPath(t *testing.T) {
	assert.Equal(t, "bootx64.efi", FindLastDirName("/EFI/boot/bootx64.efi"))
	assert.Equal(t, "/EFI/boot", FindPath("/EFI/boot/bootx64.efi"))
	assert.Equal(t, "/", FindPath("/bootx64.efi"))
}

func TestFindExtension(t *testing.T) {
	assert.Equal(t, "efi", FindExtension("/EFI/boot/BOOTX64.EFI"))
	assert.Equal(t, "", FindExtension("/EFI/boot/README"))
}

func TestSplitVolumeAndFilename(t *testing.T) {
	vol, path := SplitVolumeAndFilename("vol0:/EFI/boot/bootx64.efi")
	assert.Equal(t, "vol0", vol)
	assert.Equal(t, "/EFI/boot/bootx64.efi", path)

	vol, path = SplitVolumeAndFilename("/EFI/boot/bootx64.efi")
	assert.Equal(t, "", vol)
	assert.Equal(t, "/EFI/boot/bootx64.efi", path)
}

func TestMergeStringsSkipsEmpty(t *testing.T) {
	assert.Equal(t, "a b", MergeStrings(" ", "a", "", "b"))
	assert.Equal(t, "a", MergeStrings(" ", "", "a", ""))
}

func TestIsIn(t *testing.T) {
	assert.True(t, IsIn("ntfs", "fat,ntfs,ext4"))
	assert.True(t, IsIn("NTFS", "fat, ntfs, ext4"))
	assert.False(t, IsIn("btrfs", "fat,ntfs,ext4"))
	assert.False(t, IsIn("ntfs", ""))
}

func TestIsInSubstring(t *testing.T) {
	assert.True(t, IsInSubstring("Microsoft basic data partition", "basic data"))
	assert.False(t, IsInSubstring("Linux filesystem", "basic data"))
}

func TestMetaiMatch(t *testing.T) {
	assert.True(t, MetaiMatch("boot*.efi", "BOOTX64.EFI"))
	assert.True(t, MetaiMatch("boot?64.efi", "bootx64.efi"))
	assert.False(t, MetaiMatch("boot?64.efi", "bootxx64.efi"))
	assert.True(t, MetaiMatch("*", "anything"))
}
