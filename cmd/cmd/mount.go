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
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sscafiti/bootvol/internal/backend"
	"github.com/sscafiti/bootvol/internal/config"
	"github.com/sscafiti/bootvol/internal/fuse"
	"github.com/sscafiti/bootvol/internal/logging"
	"github.com/sscafiti/bootvol/internal/pathutil"
	"github.com/sscafiti/bootvol/internal/session"
	"github.com/sscafiti/bootvol/internal/volume"
)

func DefineMountCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <image-or-device>...",
		Short: "Scan one or more disk images and mount their discovered topology read-only",
		Long: `The 'mount' command scans the given image(s)/device(s) the same way
'scan' does, then exposes the result at a FUSE mountpoint as one directory
per discovered volume, each holding small text files for that volume's
fields (fstype, volname, uuid, boot, ...). The mount blocks until a
SIGINT/SIGTERM successfully unmounts it.`,
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunMount,
	}

	cmd.Flags().StringP("mountpoint", "m", "", "directory to mount at; defaults to the first image's base name + \"_mnt\"")
	cmd.Flags().Uint32("block-size", 0, "override the block size every opened source is treated as having (0: probe/512)")
	cmd.Flags().Bool("mmap", false, "memory-map each image instead of reading it with ReadAt")
	cmd.Flags().Bool("split", false, "treat the given paths as consecutive chunks of a single disk image")

	return cmd
}

func RunMount(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logLevel, _ := cmd.Flags().GetString("log-level")
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger := logging.New(os.Stderr, logging.ParseLevel(logLevel))
	logger = logging.WithSession(logger, session.New())

	blockSize, _ := cmd.Flags().GetUint32("block-size")
	mmap, _ := cmd.Flags().GetBool("mmap")
	split, _ := cmd.Flags().GetBool("split")
	if cmd.Flags().Changed("mmap") {
		cfg.UseMmap = mmap
	}

	be, err := backend.Open(args, backend.Options{
		BlockSize: blockSize,
		UseMmap:   cfg.UseMmap,
		Split:     split,
	})
	if err != nil {
		return err
	}
	defer be.Close()

	scanner := &volume.Scanner{
		Handles:       be,
		Paths:         be,
		BlockIOOpener: be.BlockIO,
		RootOpener:    be,
		Logger:        logger,
	}

	set := volume.NewSet(scanner)
	if err := set.Scan(context.Background()); err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	logger.Info("scan complete", "volumes", len(set.Volumes))

	mountpoint, _ := cmd.Flags().GetString("mountpoint")
	if mountpoint == "" {
		mountpoint = getMountpoint(args[0])
	}

	return fuse.Mount(mountpoint, set)
}

// getMountpoint derives a default mountpoint from the first scanned
// image's base name, stripping its extension.
func getMountpoint(imagePath string) string {
	base := pathutil.FindLastDirName(imagePath)
	if ext := pathutil.FindExtension(imagePath); ext != "" {
		base = base[:len(base)-len(ext)-1]
	}
	return base + "_mnt"
}
