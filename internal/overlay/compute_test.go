package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// lineLayer is a synthetic text layer: one segment per rendered line,
// monospace cell geometry.
type lineLayer struct {
	lines []string
}

func (l *lineLayer) Segments() []string { return l.lines }

func (l *lineLayer) SliceRects(seg, start, end int) []domain.Rect {
	runes := []rune(l.lines[seg])
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return nil
	}
	return []domain.Rect{{
		Left:   float64(start) * 10,
		Top:    float64(seg) * 20,
		Width:  float64(end-start) * 10,
		Height: 20,
	}}
}

func (l *lineLayer) Bounds() domain.Rect {
	return domain.Rect{Width: 800, Height: float64(len(l.lines)) * 20}
}

func pageAnnotation(id string, page int, text string) domain.Annotation {
	return domain.Annotation{
		ID:           id,
		DocumentID:   "doc-1",
		Location:     domain.AnnotationLocation{Page: page, StartOffset: 0, EndOffset: len([]rune(text))},
		SelectedText: text,
		Color:        "#cb3158",
	}
}

func TestCompute_ReturnsRectsForMatchingAnnotations(t *testing.T) {
	layer := &lineLayer{lines: []string{"hello world foo"}}
	anns := []domain.Annotation{pageAnnotation("ann-1", 1, "world")}

	overlay := Compute(nil, layer, View{Page: 1}, anns, "")

	require.Len(t, overlay, 1)
	assert.Equal(t, "ann-1", overlay[0].AnnotationID)
	assert.Equal(t, "#cb3158", overlay[0].Color)
	require.Len(t, overlay[0].Rects, 1)
	assert.Equal(t, domain.Rect{Left: 60, Top: 0, Width: 50, Height: 20}, overlay[0].Rects[0])
}

func TestCompute_SkipsOtherPages(t *testing.T) {
	layer := &lineLayer{lines: []string{"hello world"}}
	anns := []domain.Annotation{
		pageAnnotation("ann-1", 1, "hello"),
		pageAnnotation("ann-2", 2, "hello"),
	}

	overlay := Compute(nil, layer, View{Page: 1}, anns, "")

	require.Len(t, overlay, 1)
	assert.Equal(t, "ann-1", overlay[0].AnnotationID)
}

func TestCompute_FiltersByCFI(t *testing.T) {
	layer := &lineLayer{lines: []string{"reflowable body text"}}
	inSection := domain.Annotation{
		ID:           "ann-1",
		DocumentID:   "doc-1",
		Location:     domain.AnnotationLocation{CFI: "/6/4!/2", StartOffset: 0, EndOffset: 4},
		SelectedText: "body",
	}
	elsewhere := inSection
	elsewhere.ID = "ann-2"
	elsewhere.Location.CFI = "/6/8!/2"

	overlay := Compute(nil, layer, View{CFI: "/6/4!/2"}, []domain.Annotation{inSection, elsewhere}, "")

	require.Len(t, overlay, 1)
	assert.Equal(t, "ann-1", overlay[0].AnnotationID)
}

func TestCompute_UnlocatableTextProducesNoEntry(t *testing.T) {
	layer := &lineLayer{lines: []string{"completely different content"}}
	anns := []domain.Annotation{pageAnnotation("ann-1", 1, "missing selection text")}

	overlay := Compute(nil, layer, View{Page: 1}, anns, "")
	assert.Empty(t, overlay)
}

func TestCompute_MarksEmphasized(t *testing.T) {
	layer := &lineLayer{lines: []string{"hello world foo"}}
	anns := []domain.Annotation{
		pageAnnotation("ann-1", 1, "hello"),
		pageAnnotation("ann-2", 1, "world"),
	}

	overlay := Compute(nil, layer, View{Page: 1}, anns, "ann-2")

	require.Len(t, overlay, 2)
	assert.False(t, overlay[0].Emphasized)
	assert.True(t, overlay[1].Emphasized)
}

func TestCompute_TitlePrefersNotes(t *testing.T) {
	layer := &lineLayer{lines: []string{"hello world foo"}}
	withNotes := pageAnnotation("ann-1", 1, "hello")
	withNotes.Notes = "blocking note"
	plain := pageAnnotation("ann-2", 1, "world")

	overlay := Compute(nil, layer, View{Page: 1}, []domain.Annotation{withNotes, plain}, "")

	require.Len(t, overlay, 2)
	assert.Equal(t, "blocking note", overlay[0].Title)
	assert.Equal(t, "world", overlay[1].Title)
}

func TestHitTest(t *testing.T) {
	overlay := []domain.HighlightRect{
		{AnnotationID: "ann-1", Rects: []domain.Rect{{Left: 0, Top: 0, Width: 100, Height: 20}}},
		{AnnotationID: "ann-2", Rects: []domain.Rect{{Left: 50, Top: 0, Width: 100, Height: 20}}},
	}

	// Overlapping region resolves to the topmost (last drawn) entry.
	assert.Equal(t, "ann-2", HitTest(overlay, 60, 10))
	assert.Equal(t, "ann-1", HitTest(overlay, 10, 10))
	assert.Equal(t, "", HitTest(overlay, 300, 10))
}
