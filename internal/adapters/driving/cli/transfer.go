package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/margine-labs/margine-cli/internal/core/ports/driving"
	"github.com/margine-labs/margine-cli/internal/core/services"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export documents and annotations to JSON",
	Long: `Writes a portable JSON file carrying documents (metadata only, never
file bytes) and annotations, with audio memos inlined as base64.`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import documents and annotations from JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

// Flags for export and import.
var (
	exportDoc     string
	exportOut     string
	exportNoAudio bool
	importDryRun  bool
)

func init() {
	exportCmd.Flags().StringVarP(&exportDoc, "document", "d", "", "Export a single document by ID")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (default margine-export-<scope>-<timestamp>.json)")
	exportCmd.Flags().BoolVar(&exportNoAudio, "no-audio", false, "Leave audio payloads out of the export")

	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Validate and preview without importing")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	if transferService == nil {
		return errors.New("transfer service not configured")
	}

	ctx := context.Background()
	opts := driving.ExportOptions{
		DocumentID:   exportDoc,
		IncludeAudio: !exportNoAudio,
	}

	out, err := transferService.ExportJSON(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}

	path := exportOut
	if path == "" {
		path = services.ExportFilename(time.Now(), exportDoc)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	cmd.Printf("Exported to %s (%s)\n", path, humanize.Bytes(uint64(len(out))))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	if transferService == nil {
		return errors.New("transfer service not configured")
	}

	path := args[0]
	ctx := context.Background()

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if importDryRun {
		result := transferService.Validate(raw)
		if !result.Valid {
			cmd.Println("Import file is invalid:")
			for _, e := range result.Errors {
				cmd.Printf("  - %s\n", e)
			}
			return errors.New("validation failed")
		}
		cmd.Println("Import file is valid.")
		cmd.Printf("  Documents:         %d\n", result.Stats.Documents)
		cmd.Printf("  Annotations:       %d\n", result.Stats.Annotations)
		cmd.Printf("  With audio memos:  %d\n", result.Stats.AnnotationsWithAudio)
		return nil
	}

	result, err := transferService.Import(ctx, raw)
	if err != nil {
		if result != nil && len(result.Errors) > 0 {
			for _, e := range result.Errors {
				cmd.PrintErrf("  - %s\n", e)
			}
		}
		return fmt.Errorf("failed to import: %w", err)
	}

	cmd.Println("Import finished.")
	cmd.Printf("  Documents imported:    %d (skipped %d)\n", result.DocumentsImported, result.DocumentsSkipped)
	cmd.Printf("  Annotations imported:  %d (skipped %d)\n", result.AnnotationsImported, result.AnnotationsSkipped)
	if len(result.Errors) > 0 {
		cmd.Printf("  Errors:                %d\n", len(result.Errors))
		for _, e := range result.Errors {
			cmd.Printf("    - %s\n", e)
		}
	}
	return nil
}
