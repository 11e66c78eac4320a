package anchor

// contextSimilarity scores how alike two context strings are, in [0, 1].
// It counts how many characters of the shorter string appear in the
// longer one in the same order, greedily consuming the longer string,
// and divides by the shorter length. Cheap, order-sensitive, and good
// enough to tell apart the neighbourhoods of duplicate occurrences.
func contextSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}

	ra, rb := []rune(a), []rune(b)
	shorter, longer := ra, rb
	if len(rb) < len(ra) {
		shorter, longer = rb, ra
	}

	matches := 0
	li := 0
	for _, r := range shorter {
		if li >= len(longer) {
			break
		}
		found := -1
		for j := li; j < len(longer); j++ {
			if longer[j] == r {
				found = j
				break
			}
		}
		if found != -1 {
			matches++
			li = found + 1
		}
	}

	return float64(matches) / float64(len(shorter))
}
