package book

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// MarkdownFormat implements Format for Markdown files. The text passes
// through as-is; the chapter detector understands # headings.
type MarkdownFormat struct{}

func init() {
	Register(&MarkdownFormat{})
}

func (f *MarkdownFormat) Name() string         { return "Markdown" }
func (f *MarkdownFormat) Extensions() []string { return []string{".md", ".markdown"} }

var h1Regex = regexp.MustCompile(`^#\s+(.+)$`)

func (f *MarkdownFormat) Decode(filename string) (*Document, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, &DecodeError{Path: filename, Err: err}
	}

	title := titleFromPath(filename)
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		if m := h1Regex.FindStringSubmatch(strings.TrimSpace(scanner.Text())); m != nil {
			title = strings.TrimSpace(m[1])
			break
		}
	}

	return &Document{Title: title, Content: string(data)}, nil
}
