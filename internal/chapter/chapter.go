// Package chapter detects chapter headings in book content and maps them
// onto the page list.
package chapter

import (
	"regexp"
	"strings"

	"github.com/tomeapp/tome/internal/paginate"
)

// Chapter is a detected (or synthetic) chapter. StartOffset is the rune
// offset of the heading line; EndPage is back-filled from the following
// chapter, or set to the final page for the last one.
type Chapter struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	StartOffset int    `json:"startOffset"`
	StartPage   int    `json:"startPage"`
	EndPage     int    `json:"endPage"`
}

// headingPatterns is ordered: the first pattern matching a line wins and
// later ones are not consulted for that line. The markdown form carries
// its title in a capture group; the others use the whole trimmed line.
var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^chapter\s+\d+\b.*$`),
	regexp.MustCompile(`^第[0-9一二三四五六七八九十百千万零〇]+[章节].*$`),
	regexp.MustCompile(`^\d{1,3}[.、]\s+\S.*$`),
	regexp.MustCompile(`^[IVXLCDM]+\.\s+\S.*$`),
	regexp.MustCompile(`^#{1,6}\s+(.+)$`),
}

// Detect scans content line by line for chapter headings and resolves
// each hit to its page. Heading offsets come from the line scan itself,
// not from searching the content for the heading text, so a heading that
// repeats verbatim in body text cannot mislocate a chapter.
//
// When nothing matches, a single synthetic chapter spanning the whole
// book is returned; the result is never empty.
func Detect(content string, pages []paginate.Page) []Chapter {
	lastPage := 1
	if len(pages) > 0 {
		lastPage = pages[len(pages)-1].Number
	}

	var chapters []Chapter
	offset := 0
	for _, line := range strings.Split(content, "\n") {
		if title, ok := matchHeading(strings.TrimSpace(line)); ok {
			chapters = append(chapters, Chapter{
				ID:          len(chapters) + 1,
				Title:       title,
				StartOffset: offset,
				StartPage:   paginate.PageFor(pages, offset),
			})
		}
		offset += len([]rune(line)) + 1 // line plus its newline
	}

	if len(chapters) == 0 {
		return []Chapter{{ID: 1, Title: "Chapter 1", StartOffset: 0, StartPage: 1, EndPage: lastPage}}
	}

	for i := range chapters {
		if i+1 < len(chapters) {
			chapters[i].EndPage = chapters[i+1].StartPage - 1
		} else {
			chapters[i].EndPage = lastPage
		}
	}
	return chapters
}

func matchHeading(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	for _, re := range headingPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if len(m) > 1 && m[1] != "" {
			return strings.TrimSpace(m[1]), true
		}
		return line, true
	}
	return "", false
}

// At returns the chapter containing offset, assuming chapters are in
// scan order. Offsets before the first heading fall into the first
// chapter.
func At(chapters []Chapter, offset int) *Chapter {
	if len(chapters) == 0 {
		return nil
	}
	for i := len(chapters) - 1; i >= 0; i-- {
		if offset >= chapters[i].StartOffset {
			return &chapters[i]
		}
	}
	return &chapters[0]
}
