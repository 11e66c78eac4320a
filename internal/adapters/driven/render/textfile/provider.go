package textfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/margine-labs/margine-cli/internal/anchor"
	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/core/ports/driven"
	"github.com/margine-labs/margine-cli/internal/overlay"
)

// Cell geometry of the monospace grid the layer reports rectangles in.
const (
	cellWidth  = 8.0
	lineHeight = 16.0
)

// Ensure Provider implements the interface.
var _ driven.RenderProvider = (*Provider)(nil)

// Provider resolves text layers from a directory of rendered page
// files. The directory layout is <dir>/<documentID>/page-001.txt.
type Provider struct {
	dir string

	mu        sync.Mutex
	refresher *overlay.Refresher
}

// NewProvider creates a provider over the given render directory.
func NewProvider(dir string) *Provider {
	return &Provider{dir: dir}
}

// DocumentDir returns the render directory for a document.
func (p *Provider) DocumentDir(doc *domain.Document) string {
	return filepath.Join(p.dir, doc.ID)
}

// TextContainer resolves the text layer for one page. Reflowable
// documents address sections by CFI; the file name is derived from the
// CFI with path separators flattened.
func (p *Provider) TextContainer(_ context.Context, doc *domain.Document, page int, cfi string) (anchor.TextLayer, error) {
	name := fmt.Sprintf("page-%03d.txt", page)
	if cfi != "" {
		name = "section-" + sanitizeCFI(cfi) + ".txt"
	}

	path := filepath.Join(p.DocumentDir(doc), name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no rendered text for %s", domain.ErrNotFound, name)
		}
		return nil, fmt.Errorf("reading text layer %s: %w", name, err)
	}

	return NewLayer(string(data)), nil
}

// ContentStable registers a callback fired when the rendered files
// settle after a change. One watcher per provider: a second
// registration without stopping the first is an error.
func (p *Provider) ContentStable(callback func()) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.refresher != nil {
		return nil, fmt.Errorf("render watcher already running for %s", p.dir)
	}

	r := overlay.NewRefresher(callback)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		_ = r.Start(ctx)
	}()

	// The watcher needs the loop running before paths can be added.
	var err error
	for i := 0; i < 100; i++ {
		if err = r.Watch(p.dir); err == nil {
			p.refresher = r
			stop := func() {
				_ = r.Stop()
				cancel()
				p.mu.Lock()
				p.refresher = nil
				p.mu.Unlock()
			}
			return stop, nil
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	return nil, fmt.Errorf("starting render watcher: %w", err)
}

// sanitizeCFI flattens a CFI into a filename-safe token.
func sanitizeCFI(cfi string) string {
	repl := strings.NewReplacer("/", "_", "!", "_", ":", "_")
	return repl.Replace(strings.Trim(cfi, "/"))
}

// Layer is a text layer backed by plain text, one segment per line.
type Layer struct {
	lines []string
}

var _ anchor.TextLayer = (*Layer)(nil)

// NewLayer builds a layer from rendered page text.
func NewLayer(text string) *Layer {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return &Layer{}
	}
	return &Layer{lines: strings.Split(text, "\n")}
}

// Segments returns one segment per line.
func (l *Layer) Segments() []string {
	return l.lines
}

// SliceRects returns the grid rectangle covering [start, end) of one
// line. A single line never wraps, so there is at most one rectangle.
func (l *Layer) SliceRects(seg, start, end int) []domain.Rect {
	if seg < 0 || seg >= len(l.lines) {
		return nil
	}
	runes := []rune(l.lines[seg])
	if end > len(runes) {
		end = len(runes)
	}
	if start < 0 {
		start = 0
	}
	if start >= end {
		return nil
	}
	return []domain.Rect{{
		Left:   float64(start) * cellWidth,
		Top:    float64(seg) * lineHeight,
		Width:  float64(end-start) * cellWidth,
		Height: lineHeight,
	}}
}

// Bounds returns the grid rectangle covering the whole layer.
func (l *Layer) Bounds() domain.Rect {
	longest := 0
	for _, line := range l.lines {
		if n := len([]rune(line)); n > longest {
			longest = n
		}
	}
	return domain.Rect{
		Width:  float64(longest) * cellWidth,
		Height: float64(len(l.lines)) * lineHeight,
	}
}
