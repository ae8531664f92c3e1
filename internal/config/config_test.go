package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecConstants(t *testing.T) {
	def := Default()
	assert.Equal(t, "INFO", def.LogLevel)
	assert.Equal(t, defaultSampleSize, def.SampleSize)
	assert.False(t, def.UseMmap)
	assert.True(t, def.MountReadOnly)
}

func TestLoadExplicitMissingFileIsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestLoadWithNoConfigPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadReadsExplicitFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bootvol.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: DEBUG\nuse_mmap: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.True(t, cfg.UseMmap)
	assert.Equal(t, defaultSampleSize, cfg.SampleSize)
}
