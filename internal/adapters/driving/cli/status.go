package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show storage health and usage",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

// statusReset wipes every collection before reporting.
var statusReset bool

func init() {
	statusCmd.Flags().BoolVar(&statusReset, "reset", false, "Delete all documents, annotations and audio memos")

	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()

	if statusReset {
		if err := documentService.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to reset storage: %w", err)
		}
		cmd.Println("All data deleted.")
		cmd.Println()
	}

	if storageHealth != nil {
		if err := storageHealth.Ping(ctx); err != nil {
			cmd.Printf("Storage: UNAVAILABLE (%v)\n", err)
			cmd.Println("Annotations cannot be saved until storage recovers.")
			return nil
		}
		cmd.Println("Storage: ok")
	}

	usage, err := documentService.Usage(ctx)
	if err != nil {
		return fmt.Errorf("failed to read storage usage: %w", err)
	}

	cmd.Println()
	cmd.Printf("  Documents:    %d\n", usage.Documents)
	cmd.Printf("  Annotations:  %d\n", usage.Annotations)
	cmd.Printf("  Audio memos:  %d\n", usage.AudioFiles)

	if configStore != nil {
		cmd.Printf("\nConfig: %s\n", configStore.Path())
	}
	return nil
}
