// Package paginate splits book content into an ordered sequence of
// contiguous, non-overlapping character ranges sized to a page budget.
//
// Offsets are rune indices over the content string, so English, Chinese
// and mixed text share one coordinate space. Pages always partition the
// content exactly: page[i].End == page[i+1].Start, the first page starts
// at 0 and the last page ends at the content length.
package paginate

import (
	"sort"
	"strings"
)

// Page is one viewport-sized slice of content. Number is 1-based and
// contiguous; [Start, End) is a half-open rune range.
type Page struct {
	Number int    `json:"number"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Text   string `json:"text"`
}

// breakRunes are the sentence-ending marks an oversized paragraph may be
// cut after, covering Latin and CJK punctuation.
const breakRunes = ".!?;:,。！？；：，、"

// Split partitions content into pages of at most budget runes, preferring
// paragraph boundaries and falling back to sentence punctuation, then to
// a hard cut. Identical (content, budget) always yields identical pages.
//
// Empty or whitespace-only content yields a single page with a zero-length
// range; callers surface that as missing content.
func Split(content string, budget int) []Page {
	if budget < 1 {
		budget = 1
	}
	if strings.TrimSpace(content) == "" {
		return []Page{{Number: 1, Start: 0, End: 0, Text: ""}}
	}

	runes := []rune(content)
	if len(runes) <= budget {
		return []Page{{Number: 1, Start: 0, End: len(runes), Text: content}}
	}

	var segments [][]rune
	var current []rune
	flush := func() {
		if len(current) > 0 {
			segments = append(segments, current)
			current = nil
		}
	}

	for _, para := range paragraphs(runes) {
		if len(current)+len(para) <= budget {
			current = append(current, para...)
			continue
		}
		flush()
		if len(para) <= budget {
			current = para
			continue
		}
		// Oversized paragraph: break it internally. All chunks except
		// the last are full pages; the tail keeps accumulating.
		chunks := breakLong(para, budget)
		segments = append(segments, chunks[:len(chunks)-1]...)
		current = chunks[len(chunks)-1]
	}
	flush()

	// Offsets derive from segment lengths, never from re-scanning the
	// content: duplicate substrings must not cause pagination drift.
	pages := make([]Page, 0, len(segments))
	offset := 0
	for i, seg := range segments {
		pages = append(pages, Page{
			Number: i + 1,
			Start:  offset,
			End:    offset + len(seg),
			Text:   string(seg),
		})
		offset += len(seg)
	}
	return pages
}

// paragraphs splits content into blank-line-delimited units, each keeping
// its trailing separator so that concatenating the units reproduces the
// content rune-for-rune.
func paragraphs(content []rune) [][]rune {
	var out [][]rune
	var current []rune
	hasText := false
	lastBlank := false

	i := 0
	for i < len(content) {
		j := i
		for j < len(content) && content[j] != '\n' {
			j++
		}
		if j < len(content) {
			j++ // keep the newline with its line
		}
		line := content[i:j]
		blank := isBlank(line)

		if !blank && lastBlank && hasText {
			out = append(out, current)
			current = nil
			hasText = false
		}
		current = append(current, line...)
		if !blank {
			hasText = true
		}
		lastBlank = blank
		i = j
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

func isBlank(line []rune) bool {
	for _, r := range line {
		switch r {
		case ' ', '\t', '\r', '\n':
		default:
			return false
		}
	}
	return true
}

// breakLong cuts an oversized paragraph into budget-sized chunks. The cut
// point is searched from ~80% of the budget forward to the nearest
// sentence-ending punctuation; if none lands within the allowance the
// paragraph is hard-cut at the budget, mid-sentence if need be.
func breakLong(para []rune, budget int) [][]rune {
	var chunks [][]rune
	for len(para) > budget {
		cut := budget
		for k := budget * 4 / 5; k < budget; k++ {
			if strings.ContainsRune(breakRunes, para[k]) {
				cut = k + 1 // inclusive of the punctuation
				break
			}
		}
		chunks = append(chunks, para[:cut])
		para = para[cut:]
	}
	if len(para) > 0 {
		chunks = append(chunks, para)
	}
	return chunks
}

// PageFor resolves the page number containing offset. Offsets at or past
// the end of the content resolve to the last page; when no page range
// contains the offset the page with the closest start wins.
func PageFor(pages []Page, offset int) int {
	if len(pages) == 0 {
		return 1
	}
	i := sort.Search(len(pages), func(i int) bool { return pages[i].Start > offset }) - 1
	if i < 0 {
		i = 0
	}
	return pages[i].Number
}

// Repaginate rebuilds pages from scratch for a new budget and remaps the
// surviving character offset onto them. The offset itself is untouched;
// only the page-number mapping changes.
func Repaginate(content string, budget int, offset int) ([]Page, int) {
	pages := Split(content, budget)
	return pages, PageFor(pages, offset)
}
