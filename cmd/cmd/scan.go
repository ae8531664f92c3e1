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
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sscafiti/bootvol/internal/backend"
	"github.com/sscafiti/bootvol/internal/config"
	"github.com/sscafiti/bootvol/internal/logging"
	"github.com/sscafiti/bootvol/internal/pathutil"
	"github.com/sscafiti/bootvol/internal/session"
	"github.com/sscafiti/bootvol/internal/volume"
	utilos "github.com/sscafiti/bootvol/pkg/util/os"

	"github.com/sscafiti/bootvol/pkg/dfxml"
)

func DefineScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "scan <image-or-device>...",
		Short:        "Discover and classify volumes on one or more disk images or block devices",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE:         RunScan,
	}

	cmd.Flags().Uint32("block-size", 0, "override the block size every opened source is treated as having (0: probe/512)")
	cmd.Flags().Bool("mmap", false, "memory-map each image instead of reading it with ReadAt")
	cmd.Flags().Bool("split", false, "treat the given paths as consecutive chunks of a single disk image")
	cmd.Flags().StringP("output", "o", "", "write a DFXML volume report to this file instead of stdout")
	cmd.Flags().String("os-filter", "", "only report volumes whose detected OS name matches this glob pattern ('*' and '?')")
	cmd.Flags().String("fstype-exclude", "", "comma-delimited list of filesystem types to drop from the report (e.g. \"Unknown,ISO9660\")")

	return cmd
}

func RunScan(cmd *cobra.Command, args []string) error {
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
	sessionID := session.New()
	logger = logging.WithSession(logger, sessionID)

	paths, err := expandPaths(args)
	if err != nil {
		return err
	}

	blockSize, _ := cmd.Flags().GetUint32("block-size")
	mmap, _ := cmd.Flags().GetBool("mmap")
	split, _ := cmd.Flags().GetBool("split")
	if cmd.Flags().Changed("mmap") {
		cfg.UseMmap = mmap
	}

	be, err := backend.Open(paths, backend.Options{
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

	logger.Info("scan starting", "session", sessionID.String(), "sources", len(paths))

	ctx := context.Background()
	if err := set.Scan(ctx); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	logger.Info("scan complete", "volumes", len(set.Volumes))

	if osFilter, _ := cmd.Flags().GetString("os-filter"); osFilter != "" {
		set.Volumes = filterByOSName(set.Volumes, osFilter)
		logger.Info("os-filter applied", "pattern", osFilter, "matched", len(set.Volumes))
	}
	if exclude, _ := cmd.Flags().GetString("fstype-exclude"); exclude != "" {
		set.Volumes = dropExcludedFSTypes(set.Volumes, exclude)
		logger.Info("fstype-exclude applied", "list", exclude, "remaining", len(set.Volumes))
	}

	outputFile, _ := cmd.Flags().GetString("output")
	if outputFile != "" {
		return writeReport(set, paths, outputFile)
	}
	printVolumes(set)
	return nil
}

// filterByOSName keeps only the volumes whose OSName matches pattern,
// a case-insensitive glob using '*' and '?' wildcards.
func filterByOSName(volumes []*volume.Volume, pattern string) []*volume.Volume {
	kept := volumes[:0]
	for _, v := range volumes {
		if pathutil.MetaiMatch(pattern, v.OSName) {
			kept = append(kept, v)
		}
	}
	return kept
}

// dropExcludedFSTypes removes volumes whose FSType name appears in a
// comma-delimited exclusion list.
func dropExcludedFSTypes(volumes []*volume.Volume, excludeList string) []*volume.Volume {
	kept := volumes[:0]
	for _, v := range volumes {
		if !pathutil.IsIn(v.FSType.String(), excludeList) {
			kept = append(kept, v)
		}
	}
	return kept
}

// expandPaths resolves every argument through pkg/util/os.ListFiles, so
// a directory argument scans every regular file inside it (non-
// recursively) rather than requiring a user to list chunk files by
// hand.
func expandPaths(args []string) ([]string, error) {
	var paths []string
	for _, a := range args {
		expanded, err := utilos.ListFiles(a)
		if err != nil {
			return nil, err
		}
		paths = append(paths, expanded...)
	}
	return paths, nil
}

func printVolumes(set *volume.Set) {
	if len(set.Volumes) == 0 {
		fmt.Println("no volumes discovered")
		return
	}
	for _, v := range set.Volumes {
		label := fmt.Sprintf("vol_number=%d", v.VolNumber)
		if v.VolNumber == volume.UnreadableVolNumber {
			label = "vol_number=unreadable"
		}
		fmt.Printf("%s fstype=%s diskkind=%s readable=%v boot=%v name=%q\n",
			label, v.FSType, v.DiskKind, v.IsReadable, v.HasBootCode, v.VolName)
	}
}

func writeReport(set *volume.Set, sourcePaths []string, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	dw := dfxml.NewDFXMLWriter(w)

	hdr := dfxml.DFXMLHeader{
		XmlOutput: dfxml.XmlOutputVersion,
		Metadata:  dfxml.DefaultMetadata,
		Creator: dfxml.Creator{
			Package:              AppName,
			ExecutionEnvironment: dfxml.GetExecEnv(),
		},
		Source: dfxml.Source{
			ImageFilename: sourcePaths[0],
		},
	}
	if err := dw.WriteHeader(hdr); err != nil {
		return err
	}

	for _, v := range set.Volumes {
		obj := dfxml.VolumeObject{
			VolNumber:      v.VolNumber,
			VolName:        v.VolName,
			FSType:         v.FSType.String(),
			VolUUID:        v.VolUUID.String(),
			PartGUID:       v.PartGUID.String(),
			PartTypeGUID:   v.PartTypeGUID.String(),
			PartName:       v.PartName,
			DiskKind:       v.DiskKind.String(),
			IsReadable:     v.IsReadable,
			HasBootCode:    v.HasBootCode,
			OSName:         v.OSName,
			IsMbrPartition: v.IsMbrPartition,
		}
		if err := dw.WriteVolumeObject(obj); err != nil {
			return err
		}
	}

	fmt.Printf("wrote %d volume records to %s\n", len(set.Volumes), outputPath)
	return dw.Close()
}
