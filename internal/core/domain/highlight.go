package domain

// Rect is an axis-aligned rectangle in the coordinate space of the
// current text layer.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Empty reports whether the rectangle has no positive area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the point (x, y) falls inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x < r.Left+r.Width && y >= r.Top && y < r.Top+r.Height
}

// HighlightRect is the derived overlay geometry for one annotation on
// the currently rendered page. It is recomputed on every render or
// resize and never persisted.
type HighlightRect struct {
	// AnnotationID links back to the annotation for click dispatch.
	AnnotationID string

	// Color is the annotation's highlight color.
	Color string

	// Title is the hover text, the notes or a prefix of the selection.
	Title string

	// Emphasized marks the transient highlighted annotation; rendered
	// with higher opacity and a glow.
	Emphasized bool

	// Rects are the covering rectangles, one per rendered line
	// fragment, relative to the text layer origin.
	Rects []Rect
}
