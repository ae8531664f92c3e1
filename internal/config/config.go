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

// Package config loads optional overrides for bootvol's defaults via
// viper, the config library the rest of the retrieved pack (go-apfs,
// os-image-composer, refind-btrfs-snapshots) reaches for. Every
// default matches the hardcoded constant spec.md already names, so
// the library is exercised without changing behavior for a user who
// supplies no config at all.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// SampleSize default mirrors internal/volume.SampleSize (spec.md
// §4.1/§4.2's fixed sample-read length); kept here instead of
// importing internal/volume so config has no dependency on the
// discovery core it configures.
const defaultSampleSize = 69632

// Config holds the settings a bootvol CLI run can override through a
// config file or environment variables (BOOTVOL_ prefix). No flags are
// bound into viper; cmd/ overrides UseMmap from --mmap after Load.
type Config struct {
	LogLevel string `mapstructure:"log_level"`
	// SampleSize is loaded and defaulted here only; it is not passed
	// to internal/volume, whose probes always read its own SampleSize
	// constant.
	SampleSize int `mapstructure:"sample_size"`
	// UseMmap requests internal/backend open disk images with
	// MmapImageFile instead of plain ReadAt, trading startup latency
	// for avoiding a read() syscall per sample on very large images.
	UseMmap bool `mapstructure:"use_mmap"`
	// MountReadOnly is loaded and defaulted here only; it is not
	// passed to internal/fuse, whose Mount always requests a read-only
	// mount from bazil.org/fuse.
	MountReadOnly bool `mapstructure:"mount_read_only"`
}

// Default returns a Config matching spec.md's hardcoded defaults.
func Default() Config {
	return Config{
		LogLevel:      "INFO",
		SampleSize:    defaultSampleSize,
		UseMmap:       false,
		MountReadOnly: true,
	}
}

// Load reads bootvol's configuration from configPath (if non-empty),
// from a "bootvol" config file discovered on the usual search paths
// otherwise, and from BOOTVOL_-prefixed environment variables,
// layered over Default(). No config file found on the search paths is
// not an error: the defaults stand as-is, matching spec.md's behavior
// with zero configuration present. An explicit configPath that does
// not exist is an error.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("bootvol")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	def := Default()
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("sample_size", def.SampleSize)
	v.SetDefault("use_mmap", def.UseMmap)
	v.SetDefault("mount_read_only", def.MountReadOnly)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("bootvol")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/bootvol")
		v.AddConfigPath("/etc/bootvol")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	return cfg, nil
}
