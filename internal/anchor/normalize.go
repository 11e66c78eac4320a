package anchor

import (
	"strings"
	"unicode"
)

// normalized is the canonical matching form of a text: lowercased,
// whitespace runs collapsed to a single space, apostrophe and quote
// variants folded to '. indexMap translates each normalized position
// back to the rune index it came from in the original text.
type normalized struct {
	runes    []rune
	indexMap []int
}

// foldRune lowercases a rune and folds curly quotes, straight quotes
// and backticks to a single canonical apostrophe.
func foldRune(r rune) rune {
	switch r {
	case '‘', '’', '“', '”', '\'', '`':
		return '\''
	}
	return unicode.ToLower(r)
}

// normalizeRunes builds the normalized form of src. A whitespace run
// contributes one space, mapped to the index of its first character;
// leading whitespace contributes nothing.
func normalizeRunes(src []rune) normalized {
	n := normalized{
		runes:    make([]rune, 0, len(src)),
		indexMap: make([]int, 0, len(src)),
	}
	for i, r := range src {
		if unicode.IsSpace(r) {
			if len(n.runes) > 0 && n.runes[len(n.runes)-1] != ' ' {
				n.runes = append(n.runes, ' ')
				n.indexMap = append(n.indexMap, i)
			}
			continue
		}
		n.runes = append(n.runes, foldRune(r))
		n.indexMap = append(n.indexMap, i)
	}
	return n
}

// normalizeSearch applies the same normalization to the stored selected
// text and trims the boundary spaces so the query never starts or ends
// mid-collapse.
func normalizeSearch(s string) []rune {
	n := normalizeRunes([]rune(s))
	runes := n.runes
	for len(runes) > 0 && runes[0] == ' ' {
		runes = runes[1:]
	}
	for len(runes) > 0 && runes[len(runes)-1] == ' ' {
		runes = runes[:len(runes)-1]
	}
	return runes
}

// stripSpaces removes every space from a normalized rune slice,
// returning the stripped form and a map from stripped positions back to
// positions in the input.
func stripSpaces(in []rune) ([]rune, []int) {
	out := make([]rune, 0, len(in))
	toIn := make([]int, 0, len(in))
	for i, r := range in {
		if r == ' ' {
			continue
		}
		out = append(out, r)
		toIn = append(toIn, i)
	}
	return out, toIn
}

// collapseLower is the lighter normalization applied to stored context
// strings before similarity scoring: lowercase plus whitespace collapse,
// without quote folding.
func collapseLower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inSpace = true
			continue
		}
		if inSpace && b.Len() > 0 {
			b.WriteRune(' ')
		}
		inSpace = false
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// indexOfRunes returns the first index at or after from where needle
// occurs in haystack, or -1.
func indexOfRunes(haystack, needle []rune, from int) int {
	if len(needle) == 0 || from < 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		match := true
		for j, r := range needle {
			if haystack[i+j] != r {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
