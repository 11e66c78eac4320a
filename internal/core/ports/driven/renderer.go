package driven

import (
	"context"

	"github.com/margine-labs/margine-cli/internal/anchor"
	"github.com/margine-labs/margine-cli/internal/core/domain"
)

// RenderProvider is the surface a document-rendering library must
// expose to the core: the text layer of the currently visible page or
// section. The rendering algorithm itself is outside this system; only
// the text surface is consumed.
type RenderProvider interface {
	// TextContainer resolves the text layer for a page (paginated
	// formats) or for the section identified by a CFI (reflowable
	// formats, page 0 and a non-empty cfi). The layer may not be stable
	// immediately after a render; callers retry after ContentStable
	// fires rather than assuming a first call succeeds.
	TextContainer(ctx context.Context, doc *domain.Document, page int, cfi string) (anchor.TextLayer, error)

	// ContentStable registers a callback invoked whenever the rendered
	// content settles after a change, and returns a stop function.
	ContentStable(callback func()) (stop func(), err error)
}
