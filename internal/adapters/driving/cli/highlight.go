package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/margine-labs/margine-cli/internal/anchor"
	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/overlay"
)

var highlightCmd = &cobra.Command{
	Use:   "highlight [doc-id]",
	Short: "Compute highlight rectangles for a rendered page",
	Long: `Re-anchors the document's annotations inside the rendered text of one
page or section and prints the overlay rectangles. With --watch the
overlay recomputes whenever the rendered text changes.`,
	Args: cobra.ExactArgs(1),
	RunE: runHighlight,
}

// Flags for highlight.
var (
	hlPage  int
	hlCFI   string
	hlWatch bool
	hlFlash string
	hlFor   time.Duration
)

func init() {
	highlightCmd.Flags().IntVar(&hlPage, "page", 1, "Page number (PDF)")
	highlightCmd.Flags().StringVar(&hlCFI, "cfi", "", "Section CFI (EPUB)")
	highlightCmd.Flags().BoolVarP(&hlWatch, "watch", "w", false, "Recompute when the rendered text changes")
	highlightCmd.Flags().StringVar(&hlFlash, "flash", "", "Annotation ID to emphasize temporarily")
	highlightCmd.Flags().DurationVar(&hlFor, "flash-for", 2*time.Second, "How long the emphasis lasts")

	rootCmd.AddCommand(highlightCmd)
}

func runHighlight(cmd *cobra.Command, args []string) error {
	if documentService == nil || annotationService == nil || renderProvider == nil {
		return errors.New("services not configured")
	}

	docID := args[0]
	ctx := context.Background()

	doc, err := documentService.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}
	if err := annotationService.LoadForDocument(ctx, docID); err != nil {
		return fmt.Errorf("failed to load annotations: %w", err)
	}

	if hlFlash != "" {
		annotationService.HighlightTemporarily(hlFlash, hlFor)
	}

	view := overlay.View{Page: hlPage, CFI: hlCFI}
	eng := anchor.New()
	if configStore != nil {
		if window := configStore.GetInt("reader.context_window"); window > 0 {
			eng.ContextWindow = window
		}
	}

	render := func() error {
		layer, err := renderProvider.TextContainer(ctx, doc, hlPage, hlCFI)
		if err != nil {
			return fmt.Errorf("failed to resolve text layer: %w", err)
		}
		rects := overlay.Compute(eng, layer, view, annotationService.Annotations(), annotationService.Highlighted())
		printOverlay(cmd, rects)
		return nil
	}

	if err := render(); err != nil {
		return err
	}
	if !hlWatch {
		return nil
	}

	// Watch mode: recompute whenever the rendered content settles.
	stop, err := renderProvider.ContentStable(func() {
		if err := render(); err != nil {
			cmd.PrintErrf("recompute failed: %v\n", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to watch rendered content: %w", err)
	}
	defer stop()

	cmd.Println("Watching for changes. Ctrl-C to stop.")
	watchCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-watchCtx.Done()
	return nil
}

func printOverlay(cmd *cobra.Command, rects []domain.HighlightRect) {
	if len(rects) == 0 {
		cmd.Println("No annotations anchored on this page.")
		return
	}

	for _, hr := range rects {
		swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(hr.Color)).Render("■")
		marker := ""
		if hr.Emphasized {
			marker = " *"
		}
		cmd.Printf("%s %s%s\n", swatch, hr.AnnotationID, marker)
		cmd.Printf("    %s\n", hr.Title)
		for _, r := range hr.Rects {
			cmd.Printf("    rect left=%.0f top=%.0f width=%.0f height=%.0f\n", r.Left, r.Top, r.Width, r.Height)
		}
	}
	cmd.Printf("Total: %d highlights\n", len(rects))
}
