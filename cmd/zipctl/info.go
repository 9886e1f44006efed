package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/zipkit/pkg/archive"
)

func init() {
	rootCmd.AddCommand(newInfoCmd())
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <archive.zip>",
		Short: "Show summary information about a zip archive",
		Long: `The info command prints entry counts and aggregate sizes.

Example:
  zipctl info out.zip
  zipctl info out.zip --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(args[0])
		},
	}
}

func runInfo(archivePath string) error {
	reg := archive.New(archive.Options{})

	rd, err := reg.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reg.Close(rd)

	count, err := reg.EntryCount(rd)
	if err != nil {
		return err
	}

	var files, dirs, encrypted int
	var rawBytes, packedBytes uint64
	for i := 0; i < count; i++ {
		info, err := reg.StatEntry(rd, i)
		if err != nil {
			return fmt.Errorf("failed to stat entry %d: %w", i, err)
		}
		if info.IsDirectory {
			dirs++
		} else {
			files++
		}
		if info.IsEncrypted {
			encrypted++
		}
		rawBytes += info.UncompressedSize
		packedBytes += info.CompressedSize
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"archive":           archivePath,
			"entries":           count,
			"files":             files,
			"directories":       dirs,
			"encrypted":         encrypted,
			"uncompressed_size": rawBytes,
			"compressed_size":   packedBytes,
		})
	}

	fmt.Printf("Archive:      %s\n", archivePath)
	fmt.Printf("Entries:      %d (%d files, %d directories)\n", count, files, dirs)
	if encrypted > 0 {
		fmt.Printf("Encrypted:    %d\n", encrypted)
	}
	fmt.Printf("Uncompressed: %d bytes\n", rawBytes)
	fmt.Printf("Compressed:   %d bytes\n", packedBytes)
	return nil
}
