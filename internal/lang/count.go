package lang

import "unicode"

// Counts is the result of counting reading units in a span of text.
// Units is the hybrid metric duration estimation is built on: each
// maximal run of non-ideograph, non-whitespace runes counts as one
// English word, and each individual ideograph counts as one unit.
type Counts struct {
	Units      int
	Characters int
	Ideographs int
}

// Count tallies reading units, total runes and ideographs in text.
// The result is deterministic for identical input; progress-to-time
// conversion depends on that, since count drift compounds into visible
// timing errors over a long narration.
func Count(text string) Counts {
	var c Counts
	inWord := false
	for _, r := range text {
		c.Characters++
		switch {
		case IsIdeograph(r):
			c.Ideographs++
			c.Units++
			inWord = false
		case unicode.IsSpace(r):
			inWord = false
		default:
			if !inWord {
				c.Units++
				inWord = true
			}
		}
	}
	return c
}
