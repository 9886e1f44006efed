package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/joshuapare/zipkit/pkg/archive"
)

var createLevel int

func init() {
	cmd := newCreateCmd()
	cmd.Flags().IntVar(&createLevel, "level", 6, "Compression level (0 = store, 1-9 = deflate)")
	rootCmd.AddCommand(cmd)
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <archive.zip> <file>...",
		Short: "Create a zip archive from files",
		Long: `The create command packs one or more files into a new zip archive.

Example:
  zipctl create out.zip report.txt data.csv
  zipctl create out.zip --level 9 big.log`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(args[0], args[1:])
		},
	}
}

func runCreate(archivePath string, files []string) error {
	reg := archive.New(archive.Options{})

	w, err := reg.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			abortCreate(reg, w, archivePath)
			return fmt.Errorf("failed to read %s: %w", file, err)
		}
		name := filepath.Base(file)
		if err := reg.AddEntry(w, name, data, createLevel); err != nil {
			abortCreate(reg, w, archivePath)
			return fmt.Errorf("failed to add %s: %w", name, err)
		}
		slog.Debug("added entry", "name", name, "bytes", len(data))
	}

	if err := reg.Finalize(w); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	slog.Info("archive created", "path", archivePath, "entries", len(files))
	return nil
}

// abortCreate consumes the writer handle and removes the partial archive it
// finalized, so a failed create leaves nothing behind.
func abortCreate(reg archive.Registry, w archive.Handle, archivePath string) {
	_ = reg.Finalize(w)
	_ = os.Remove(archivePath)
}
