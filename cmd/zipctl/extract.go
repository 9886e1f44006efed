package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/zipkit/pkg/archive"
)

var extractOutput string

func init() {
	cmd := newExtractCmd()
	cmd.Flags().StringVarP(&extractOutput, "output", "o", "", "Destination path (default: entry name)")
	rootCmd.AddCommand(cmd)
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <archive.zip> <entry>",
		Short: "Extract one entry from a zip archive",
		Long: `The extract command decompresses a single named entry to a file.

Example:
  zipctl extract out.zip report.txt
  zipctl extract out.zip report.txt -o /tmp/report.txt`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(args[0], args[1])
		},
	}
}

func runExtract(archivePath, entryName string) error {
	reg := archive.New(archive.Options{})

	rd, err := reg.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reg.Close(rd)

	data, err := reg.ExtractEntryByName(rd, entryName)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", entryName, err)
	}

	dest := extractOutput
	if dest == "" {
		dest = entryName
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	slog.Info("entry extracted", "entry", entryName, "dest", dest, "bytes", len(data))
	return nil
}
