package overlay

import (
	"github.com/margine-labs/margine-cli/internal/anchor"
	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// titleRunes caps the hover title taken from the selection when the
// annotation carries no notes.
const titleRunes = 60

// View identifies the rendered page or section the overlay covers.
type View struct {
	// Page is the 1-based page number for paginated documents.
	Page int

	// CFI identifies the section for reflowable documents.
	CFI string
}

// contains reports whether an annotation anchors into this view.
func (v View) contains(loc domain.AnnotationLocation) bool {
	if v.CFI != "" {
		return loc.CFI == v.CFI
	}
	return loc.Page == v.Page
}

// Compute derives the highlight overlay for one view. Annotations whose
// text cannot be located on the layer produce no entry; a reflow or a
// stale anchor is expected, not an error. HighlightedID marks which
// entry renders emphasized.
func Compute(eng *anchor.Engine, layer anchor.TextLayer, view View, annotations []domain.Annotation, highlightedID string) []domain.HighlightRect {
	if eng == nil {
		eng = anchor.New()
	}

	out := make([]domain.HighlightRect, 0, len(annotations))
	for i := range annotations {
		ann := &annotations[i]
		if !view.contains(ann.Location) {
			continue
		}
		rects := eng.FindRects(layer, ann.SelectedText, ann.TextContext)
		if len(rects) == 0 {
			continue
		}
		out = append(out, domain.HighlightRect{
			AnnotationID: ann.ID,
			Color:        ann.Color,
			Title:        title(ann),
			Emphasized:   ann.ID == highlightedID,
			Rects:        rects,
		})
	}
	return out
}

// HitTest returns the ID of the topmost highlight under the point, or
// empty when the point hits none. Later entries draw on top.
func HitTest(overlay []domain.HighlightRect, x, y float64) string {
	for i := len(overlay) - 1; i >= 0; i-- {
		for _, r := range overlay[i].Rects {
			if r.Contains(x, y) {
				return overlay[i].AnnotationID
			}
		}
	}
	return ""
}

func title(a *domain.Annotation) string {
	if a.Notes != "" {
		return a.Notes
	}
	r := []rune(a.SelectedText)
	if len(r) <= titleRunes {
		return a.SelectedText
	}
	return string(r[:titleRunes]) + "..."
}
