package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joshuapare/zipkit/pkg/archive"
)

func init() {
	rootCmd.AddCommand(newListCmd())
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <archive.zip>",
		Short: "List the entries of a zip archive",
		Long: `The list command prints every entry in a zip archive with its sizes.

Example:
  zipctl list out.zip
  zipctl list out.zip --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(args[0])
		},
	}
}

func runList(archivePath string) error {
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

	entries := make([]archive.EntryInfo, 0, count)
	for i := 0; i < count; i++ {
		info, err := reg.StatEntry(rd, i)
		if err != nil {
			return fmt.Errorf("failed to stat entry %d: %w", i, err)
		}
		entries = append(entries, info)
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"archive": archivePath,
			"count":   count,
			"entries": entries,
		})
	}

	fmt.Printf("%-40s %12s %12s\n", "NAME", "SIZE", "COMPRESSED")
	for _, e := range entries {
		name := e.Name
		if e.IsDirectory {
			name += " (dir)"
		}
		fmt.Printf("%-40s %12d %12d\n", name, e.UncompressedSize, e.CompressedSize)
	}
	return nil
}
