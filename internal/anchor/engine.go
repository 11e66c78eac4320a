package anchor

import (
	"strings"

	"github.com/margine-labs/margine-cli/internal/core/domain"
	"github.com/margine-labs/margine-cli/internal/logger"
)

// Engine relocates a stored (selectedText, textContext) pair inside a
// rendered text layer. The zero parameters are filled in by New; a zero
// Engine also works with the defaults applied lazily.
type Engine struct {
	// ContextWindow is how many original runes of local context are
	// extracted on each side of an occurrence for disambiguation.
	ContextWindow int

	// FuzzyPrefix is how many whitespace-stripped runes of the search
	// string the last-resort fuzzy match uses.
	FuzzyPrefix int
}

const (
	defaultContextWindow = 50
	defaultFuzzyPrefix   = 30
)

// New returns an engine with the default matching parameters.
func New() *Engine {
	return &Engine{
		ContextWindow: defaultContextWindow,
		FuzzyPrefix:   defaultFuzzyPrefix,
	}
}

// Match is a located occurrence as [Start, End) rune offsets into the
// flattened original text.
type Match struct {
	Start, End int
}

// FindRects runs the full pipeline: flatten the layer, locate the best
// occurrence of the stored text, and return the covering rectangles.
// An empty result means the text is not on this page; that is expected
// for reflowed or legacy content and is not an error.
func (e *Engine) FindRects(layer TextLayer, selectedText, textContext string) []domain.Rect {
	fullText, spans := Flatten(layer)

	m, ok := e.Find(fullText, selectedText, textContext)
	if !ok {
		return nil
	}

	var rects []domain.Rect
	for i, sp := range spans {
		if sp.start >= m.End || sp.end <= m.Start {
			continue
		}
		localStart := 0
		if m.Start > sp.start {
			localStart = m.Start - sp.start
		}
		localEnd := sp.end - sp.start
		if m.End-sp.start < localEnd {
			localEnd = m.End - sp.start
		}
		if localStart >= localEnd {
			continue
		}
		for _, r := range layer.SliceRects(i, localStart, localEnd) {
			if !r.Empty() {
				rects = append(rects, r)
			}
		}
	}
	return rects
}

// Find locates the best occurrence of selectedText within the flattened
// original text. Matching runs in three tiers: normalized exact search,
// whitespace-stripped search (recovers cross-line joins), then a fuzzy
// prefix search. With several surviving occurrences and a stored
// context, local context similarity picks the winner; ties and missing
// context keep the first occurrence found.
func (e *Engine) Find(fullText []rune, selectedText, textContext string) (Match, bool) {
	contextWindow := e.ContextWindow
	if contextWindow <= 0 {
		contextWindow = defaultContextWindow
	}
	fuzzyPrefix := e.FuzzyPrefix
	if fuzzyPrefix <= 0 {
		fuzzyPrefix = defaultFuzzyPrefix
	}

	norm := normalizeRunes(fullText)
	search := normalizeSearch(selectedText)
	if len(search) == 0 || len(norm.runes) == 0 {
		return Match{}, false
	}

	occurrences := e.searchNormalized(fullText, norm, search)

	if len(occurrences) == 0 {
		occurrences = e.searchNoSpace(norm, search)
		if len(occurrences) > 0 {
			logger.Debug("anchor: whitespace-stripped match for %q", clip(selectedText))
		}
	}

	if len(occurrences) == 0 {
		occurrences = e.searchFuzzy(norm, search, fuzzyPrefix)
		if len(occurrences) > 0 {
			logger.Debug("anchor: fuzzy prefix match for %q", clip(selectedText))
		}
	}

	if len(occurrences) == 0 {
		return Match{}, false
	}

	best := occurrences[0]
	if len(occurrences) > 1 && textContext != "" {
		best = e.disambiguate(fullText, occurrences, textContext, contextWindow)
	}
	return best, true
}

// searchNormalized finds every sequential occurrence of the normalized
// search string and maps it back to original rune offsets.
func (e *Engine) searchNormalized(fullText []rune, norm normalized, search []rune) []Match {
	var out []Match
	from := 0
	for {
		idx := indexOfRunes(norm.runes, search, from)
		if idx == -1 {
			break
		}
		start := norm.indexMap[idx]
		endIdx := idx + len(search) - 1
		end := len(fullText)
		if endIdx < len(norm.indexMap) {
			end = norm.indexMap[endIdx] + 1
		}
		out = append(out, Match{Start: start, End: end})
		from = idx + 1
	}
	return out
}

// searchNoSpace repeats the search with every space removed from both
// sides, recovering matches where the renderer joined or split lines
// differently than at capture time. Positions map back through the
// nospace->normalized map, then the normalized->original map.
func (e *Engine) searchNoSpace(norm normalized, search []rune) []Match {
	noText, noToNorm := stripSpaces(norm.runes)
	noSearch, _ := stripSpaces(search)
	if len(noSearch) == 0 {
		return nil
	}

	var out []Match
	from := 0
	for {
		idx := indexOfRunes(noText, noSearch, from)
		if idx == -1 {
			break
		}
		normStart := noToNorm[idx]
		normEnd := noToNorm[idx+len(noSearch)-1]
		out = append(out, Match{
			Start: norm.indexMap[normStart],
			End:   norm.indexMap[normEnd] + 1,
		})
		from = idx + 1
	}
	return out
}

// searchFuzzy looks for just the leading prefix of the whitespace-
// stripped search string and accepts the first hit. Precision is traded
// for approximate relocation when reflow altered the trailing content.
func (e *Engine) searchFuzzy(norm normalized, search []rune, prefixLen int) []Match {
	noText, noToNorm := stripSpaces(norm.runes)
	noSearch, _ := stripSpaces(search)
	if len(noSearch) == 0 {
		return nil
	}
	if len(noSearch) > prefixLen {
		noSearch = noSearch[:prefixLen]
	}

	idx := indexOfRunes(noText, noSearch, 0)
	if idx == -1 {
		return nil
	}
	normStart := noToNorm[idx]
	normEnd := noToNorm[idx+len(noSearch)-1]
	return []Match{{
		Start: norm.indexMap[normStart],
		End:   norm.indexMap[normEnd] + 1,
	}}
}

// disambiguate scores each occurrence's local context against the
// stored context and returns the highest scorer. A tie keeps the
// earliest occurrence; that approximation is accepted behaviour, not a
// bug to second-guess.
func (e *Engine) disambiguate(fullText []rune, occurrences []Match, textContext string, window int) Match {
	storedCtx := collapseLower(textContext)

	best := occurrences[0]
	bestScore := -1.0
	for _, occ := range occurrences {
		cs := occ.Start - window
		if cs < 0 {
			cs = 0
		}
		ce := occ.End + window
		if ce > len(fullText) {
			ce = len(fullText)
		}
		local := strings.ToLower(string(fullText[cs:ce]))

		score := contextSimilarity(local, storedCtx)
		if score > bestScore {
			bestScore = score
			best = occ
		}
	}
	return best
}

// clip shortens a string for debug logging.
func clip(s string) string {
	const max = 40
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
