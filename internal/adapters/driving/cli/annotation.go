package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	audiofile "github.com/margine-labs/margine-cli/internal/adapters/driven/audio/file"
	"github.com/margine-labs/margine-cli/internal/anchor"
	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driving"
)

var annotationCmd = &cobra.Command{
	Use:     "annotation",
	Aliases: []string{"ann"},
	Short:   "Manage annotations",
	Long:    `Create, list, edit, or delete annotations on a document.`,
}

var annotationAddCmd = &cobra.Command{
	Use:   "add [doc-id]",
	Short: "Create an annotation",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotationAdd,
}

var annotationListCmd = &cobra.Command{
	Use:   "list [doc-id]",
	Short: "List a document's annotations",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotationList,
}

var annotationUpdateCmd = &cobra.Command{
	Use:   "update [annotation-id]",
	Short: "Edit an annotation's tags, color or notes",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotationUpdate,
}

var annotationDeleteCmd = &cobra.Command{
	Use:   "delete [annotation-id]",
	Short: "Delete an annotation",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnnotationDelete,
}

var annotationTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every tag in use",
	Args:  cobra.NoArgs,
	RunE:  runAnnotationTags,
}

// Flags for add and update.
var (
	annPage    int
	annCFI     string
	annStart   int
	annEnd     int
	annText    string
	annContext string
	annTags    []string
	annColor   string
	annNotes   string
	annAudio   string
	annFilter  []string
	annQuery   string
	clearNotes bool
	clearTags  bool
)

func init() {
	annotationAddCmd.Flags().IntVar(&annPage, "page", 0, "Page number (PDF)")
	annotationAddCmd.Flags().StringVar(&annCFI, "cfi", "", "Section CFI (EPUB)")
	annotationAddCmd.Flags().IntVar(&annStart, "start", 0, "Selection start offset (runes)")
	annotationAddCmd.Flags().IntVar(&annEnd, "end", 0, "Selection end offset (runes)")
	annotationAddCmd.Flags().StringVarP(&annText, "text", "t", "", "Selected text (required)")
	annotationAddCmd.Flags().StringVar(&annContext, "context", "", "Surrounding text captured with the selection")
	annotationAddCmd.Flags().StringSliceVar(&annTags, "tag", nil, "Tag (repeatable)")
	annotationAddCmd.Flags().StringVar(&annColor, "color", "", "Highlight color (hex)")
	annotationAddCmd.Flags().StringVar(&annNotes, "notes", "", "Free-text note")
	annotationAddCmd.Flags().StringVar(&annAudio, "audio", "", "Audio file to attach as a voice memo")
	_ = annotationAddCmd.MarkFlagRequired("text")

	annotationListCmd.Flags().StringSliceVar(&annFilter, "tag", nil, "Only annotations carrying any of these tags")
	annotationListCmd.Flags().StringVarP(&annQuery, "query", "q", "", "Substring filter over text, notes and tags")

	annotationUpdateCmd.Flags().StringSliceVar(&annTags, "tag", nil, "Replacement tag set (repeatable)")
	annotationUpdateCmd.Flags().StringVar(&annColor, "color", "", "Highlight color (hex)")
	annotationUpdateCmd.Flags().StringVar(&annNotes, "notes", "", "Replacement note")
	annotationUpdateCmd.Flags().BoolVar(&clearNotes, "clear-notes", false, "Remove the note")
	annotationUpdateCmd.Flags().BoolVar(&clearTags, "clear-tags", false, "Remove all tags")

	annotationCmd.AddCommand(annotationAddCmd)
	annotationCmd.AddCommand(annotationListCmd)
	annotationCmd.AddCommand(annotationUpdateCmd)
	annotationCmd.AddCommand(annotationDeleteCmd)
	annotationCmd.AddCommand(annotationTagsCmd)
	rootCmd.AddCommand(annotationCmd)
}

func runAnnotationAdd(cmd *cobra.Command, args []string) error {
	if annotationService == nil || documentService == nil {
		return errors.New("annotation service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	doc, err := documentService.Get(ctx, docID)
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	location := domain.AnnotationLocation{
		Page:        annPage,
		CFI:         annCFI,
		StartOffset: annStart,
		EndOffset:   annEnd,
	}
	textContext := annContext

	// Without explicit offsets, resolve the selection against the
	// rendered text so the stored anchor carries real offsets and
	// surrounding context.
	if !cmd.Flags().Changed("start") && !cmd.Flags().Changed("end") && renderProvider != nil {
		if layer, layerErr := renderProvider.TextContainer(ctx, doc, annPage, annCFI); layerErr == nil {
			if sel := anchor.CaptureByText(layer, annText, 0); sel != nil {
				location.StartOffset = sel.StartOffset
				location.EndOffset = sel.EndOffset
				if textContext == "" {
					textContext = sel.Context
				}
			}
		}
	}
	if location.EndOffset == 0 {
		location.EndOffset = location.StartOffset + len([]rune(annText))
	}
	if err := location.Validate(doc.Format); err != nil {
		return err
	}

	color := annColor
	if color == "" && configStore != nil {
		color = configStore.GetString("reader.highlight_color")
	}

	params := driving.CreateAnnotationParams{
		DocumentID:   docID,
		Location:     location,
		SelectedText: annText,
		TextContext:  textContext,
		Tags:         annTags,
		Color:        color,
		Notes:        annNotes,
	}

	if annAudio != "" {
		memo, err := captureMemo(ctx, annAudio)
		if err != nil {
			return err
		}
		params.AudioMemo = memo
	}

	ann, err := annotationService.Create(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to create annotation: %w", err)
	}

	cmd.Printf("Annotation %s created.\n", ann.ID)
	if ann.AudioMemo != nil {
		cmd.Printf("  Audio memo: %s (%ds, %s)\n", ann.AudioMemo.ID, ann.AudioMemo.Duration, ann.AudioMemo.MIMEType)
	}
	return nil
}

// captureMemo records a voice memo from an audio file through the
// capture state machine.
func captureMemo(ctx context.Context, path string) (*domain.AudioMemo, error) {
	recorder := audiofile.NewRecorder(path)
	if _, err := recorder.RequestPermission(ctx); err != nil {
		return nil, fmt.Errorf("failed to access audio source: %w", err)
	}
	if err := recorder.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start recording: %w", err)
	}
	memo, err := recorder.Stop()
	if err != nil {
		return nil, fmt.Errorf("failed to finish recording: %w", err)
	}
	return memo, nil
}

func runAnnotationList(cmd *cobra.Command, args []string) error {
	if annotationService == nil {
		return errors.New("annotation service not configured")
	}

	docID := args[0]
	ctx := context.Background()

	if err := annotationService.LoadForDocument(ctx, docID); err != nil {
		return fmt.Errorf("failed to load annotations: %w", err)
	}

	anns := annotationService.Filtered(annFilter, annQuery)
	if len(anns) == 0 {
		cmd.Println("No annotations found.")
		return nil
	}

	for i := range anns {
		printAnnotation(cmd, &anns[i])
	}
	cmd.Printf("Total: %d annotations\n", len(anns))
	return nil
}

func printAnnotation(cmd *cobra.Command, a *domain.Annotation) {
	swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(a.Color)).Render("■")

	cmd.Printf("%s %s\n", swatch, a.ID)
	cmd.Printf("    %s\n", quoteExcerpt(a.SelectedText))
	cmd.Printf("    At: %s\n", formatLocation(a.Location))
	if len(a.Tags) > 0 {
		cmd.Printf("    Tags: %s\n", strings.Join(a.Tags, ", "))
	}
	if a.Notes != "" {
		cmd.Printf("    Notes: %s\n", a.Notes)
	}
	if a.AudioMemo != nil {
		cmd.Printf("    Audio: %ds (%s)\n", a.AudioMemo.Duration, a.AudioMemo.MIMEType)
	}
	cmd.Println()
}

func formatLocation(loc domain.AnnotationLocation) string {
	if loc.CFI != "" {
		return fmt.Sprintf("cfi %s [%d:%d]", loc.CFI, loc.StartOffset, loc.EndOffset)
	}
	return fmt.Sprintf("page %d [%d:%d]", loc.Page, loc.StartOffset, loc.EndOffset)
}

func quoteExcerpt(text string) string {
	const max = 70
	r := []rune(text)
	if len(r) > max {
		text = string(r[:max]) + "..."
	}
	return "“" + text + "”"
}

func runAnnotationUpdate(cmd *cobra.Command, args []string) error {
	if annotationService == nil {
		return errors.New("annotation service not configured")
	}

	annID := args[0]
	ctx := context.Background()

	existing, err := annotationService.Get(ctx, annID)
	if err != nil {
		return fmt.Errorf("failed to get annotation: %w", err)
	}

	updated := *existing
	if cmd.Flags().Changed("tag") {
		updated.Tags = annTags
	}
	if clearTags {
		updated.Tags = nil
	}
	if cmd.Flags().Changed("color") {
		updated.Color = annColor
	}
	if cmd.Flags().Changed("notes") {
		updated.Notes = annNotes
	}
	if clearNotes {
		updated.Notes = ""
	}

	ann, err := annotationService.Update(ctx, updated)
	if err != nil {
		return fmt.Errorf("failed to update annotation: %w", err)
	}

	cmd.Printf("Annotation %s updated.\n", ann.ID)
	return nil
}

func runAnnotationDelete(cmd *cobra.Command, args []string) error {
	if annotationService == nil {
		return errors.New("annotation service not configured")
	}

	annID := args[0]
	ctx := context.Background()

	if err := annotationService.Delete(ctx, annID); err != nil {
		return fmt.Errorf("failed to delete annotation: %w", err)
	}

	cmd.Printf("Annotation %s deleted.\n", annID)
	return nil
}

func runAnnotationTags(cmd *cobra.Command, _ []string) error {
	if annotationService == nil {
		return errors.New("annotation service not configured")
	}

	tags, err := annotationService.AllTags(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list tags: %w", err)
	}

	if len(tags) == 0 {
		cmd.Println("No tags in use.")
		return nil
	}
	for _, tag := range tags {
		cmd.Printf("  %s\n", tag)
	}
	return nil
}
