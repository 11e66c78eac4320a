package anchor

import "strings"

// DefaultContextRunes is the context window captured on each side of a
// new selection.
const DefaultContextRunes = 50

// Selection is the serializable capture of a user text selection:
// the trimmed selected text, its rune offsets within the flattened
// layer text, and the surrounding context window used later for
// disambiguation.
type Selection struct {
	Text        string
	StartOffset int
	EndOffset   int
	Context     string
}

// CaptureSelection resolves selection endpoints expressed as
// (segment, local rune offset) pairs against the layer and produces the
// capture. The absolute offsets come from walking the segments with a
// running rune count. Collapsed, out-of-range or whitespace-only
// selections yield nil.
func CaptureSelection(layer TextLayer, startSeg, startOff, endSeg, endOff, contextRunes int) *Selection {
	full, spans := Flatten(layer)
	if startSeg < 0 || endSeg >= len(spans) || startSeg > endSeg {
		return nil
	}

	absStart := spans[startSeg].start + startOff
	absEnd := spans[endSeg].start + endOff
	return capture(full, absStart, absEnd, contextRunes)
}

// CaptureByOffsets builds the capture from offsets already expressed in
// the flattened layer text, the fallback used when the endpoint
// segments cannot be matched and the selection length is measured from
// the container start instead.
func CaptureByOffsets(layer TextLayer, absStart, absEnd, contextRunes int) *Selection {
	full, _ := Flatten(layer)
	return capture(full, absStart, absEnd, contextRunes)
}

// CaptureByText is the last-resort capture for callers that hold only
// the selected text: the first occurrence in the flattened layer wins.
func CaptureByText(layer TextLayer, selectedText string, contextRunes int) *Selection {
	full, _ := Flatten(layer)
	needle := []rune(selectedText)
	idx := indexOfRunes(full, needle, 0)
	if idx == -1 {
		return nil
	}
	return capture(full, idx, idx+len(needle), contextRunes)
}

func capture(full []rune, absStart, absEnd, contextRunes int) *Selection {
	if contextRunes <= 0 {
		contextRunes = DefaultContextRunes
	}
	if absStart < 0 || absEnd > len(full) || absStart >= absEnd {
		return nil
	}

	text := strings.TrimSpace(string(full[absStart:absEnd]))
	if text == "" {
		return nil
	}

	ctxStart := absStart - contextRunes
	if ctxStart < 0 {
		ctxStart = 0
	}
	ctxEnd := absEnd + contextRunes
	if ctxEnd > len(full) {
		ctxEnd = len(full)
	}

	return &Selection{
		Text:        text,
		StartOffset: absStart,
		EndOffset:   absEnd,
		Context:     string(full[ctxStart:ctxEnd]),
	}
}
