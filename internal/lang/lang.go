// Package lang classifies text by script density and counts reading units.
package lang

import (
	"unicode"

	"golang.org/x/text/language"
)

// Class is the script classification of a text span.
type Class int

const (
	English Class = iota
	Chinese
	Mixed
)

// Classification thresholds over the ideograph-density ratio.
const (
	chineseThreshold = 0.6
	englishThreshold = 0.1
)

func (c Class) String() string {
	switch c {
	case Chinese:
		return "chinese"
	case Mixed:
		return "mixed"
	default:
		return "english"
	}
}

// Tag returns the BCP 47 language tag used for the narration contract.
func (c Class) Tag() language.Tag {
	switch c {
	case Chinese:
		return language.Chinese
	case Mixed:
		return language.Chinese // mixed text narrates with the CJK voice
	default:
		return language.English
	}
}

// IsIdeograph reports whether r is a CJK ideograph. unicode.Han covers the
// Unified Ideographs block plus the compatibility and extension blocks.
func IsIdeograph(r rune) bool {
	return unicode.Is(unicode.Han, r)
}

// Classify buckets text by the ratio of ideographs to total runes:
// above 0.6 is chinese, below 0.1 is english, anything between is mixed.
// Empty input classifies as english.
func Classify(text string) Class {
	var total, ideographs int
	for _, r := range text {
		total++
		if IsIdeograph(r) {
			ideographs++
		}
	}
	if total == 0 {
		return English
	}
	ratio := float64(ideographs) / float64(total)
	switch {
	case ratio > chineseThreshold:
		return Chinese
	case ratio < englishThreshold:
		return English
	default:
		return Mixed
	}
}
