package anchor

import "github.com/margine-labs/margine-cli/internal/core/domain"

// TextLayer is the surface a rendering provider must expose for the
// currently visible page or section. Segments are the text-bearing leaf
// nodes of the rendered layout in document order; offsets within a
// segment are rune offsets.
type TextLayer interface {
	// Segments returns the text of every leaf node in document order.
	Segments() []string

	// SliceRects returns the on-screen rectangles covering the rune
	// range [start, end) of segment seg, relative to the layer origin.
	// A wrapped slice may produce more than one rectangle.
	SliceRects(seg, start, end int) []domain.Rect

	// Bounds returns the layer's own rectangle, used by the overlay to
	// re-base rectangles against the container it draws into.
	Bounds() domain.Rect
}

// span records where a segment's text landed in the flattened string,
// as [start, end) rune offsets.
type span struct {
	start, end int
}

// Flatten concatenates all segment text into one rune slice and records
// each segment's [start, end) range within it. The spans are what later
// translate a flattened offset back into a (segment, local offset) pair.
func Flatten(layer TextLayer) ([]rune, []span) {
	segments := layer.Segments()
	var full []rune
	spans := make([]span, len(segments))
	for i, seg := range segments {
		start := len(full)
		full = append(full, []rune(seg)...)
		spans[i] = span{start: start, end: len(full)}
	}
	return full, spans
}
