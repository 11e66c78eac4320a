package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage uploaded documents",
	Long:  `Upload, list, inspect, or delete documents.`,
}

var documentUploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a PDF or EPUB",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentUpload,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and all its annotations",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

// uploadName overrides the stored display name.
var uploadName string

func init() {
	documentUploadCmd.Flags().StringVarP(&uploadName, "name", "n", "", "Display name (defaults to the file name)")

	documentCmd.AddCommand(documentUploadCmd)
	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentUpload(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	path := args[0]
	ctx := context.Background()

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	name := uploadName
	if name == "" {
		name = filepath.Base(path)
	}

	doc, err := documentService.Upload(ctx, name, content, nil)
	if err != nil {
		return fmt.Errorf("failed to upload document: %w", err)
	}

	cmd.Printf("Uploaded %s\n\n", doc.Name)
	cmd.Printf("  ID:     %s\n", doc.ID)
	cmd.Printf("  Format: %s\n", doc.Format)
	cmd.Printf("  Size:   %s\n", humanize.Bytes(uint64(len(content))))
	return nil
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()

	docs, err := documentService.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents uploaded yet.")
		return nil
	}

	cmd.Println("Documents:")
	cmd.Println()
	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    Name:     %s\n", docs[i].Name)
		cmd.Printf("    Format:   %s\n", docs[i].Format)
		cmd.Printf("    Uploaded: %s\n", docs[i].UploadedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	doc, err := documentService.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Name:     %s\n", doc.Name)
	cmd.Printf("  Format:   %s\n", doc.Format)
	cmd.Printf("  Size:     %s\n", humanize.Bytes(uint64(len(doc.Content))))
	cmd.Printf("  Uploaded: %s\n", doc.UploadedAt.Format("2006-01-02 15:04:05"))

	if doc.Metadata != nil {
		cmd.Println("\n  Metadata:")
		if doc.Metadata.Title != "" {
			cmd.Printf("    Title:  %s\n", doc.Metadata.Title)
		}
		if doc.Metadata.Author != "" {
			cmd.Printf("    Author: %s\n", doc.Metadata.Author)
		}
		if doc.Metadata.TotalPages > 0 {
			cmd.Printf("    Pages:  %d\n", doc.Metadata.TotalPages)
		}
	}

	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	if err := documentService.Delete(ctx, docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted, annotations included.\n", docID)
	return nil
}
