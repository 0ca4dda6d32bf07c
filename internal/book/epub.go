package book

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"go.uber.org/multierr"
	"golang.org/x/net/html"
)

// EPUBFormat implements Format for EPUB files.
type EPUBFormat struct{}

func init() {
	Register(&EPUBFormat{})
}

func (f *EPUBFormat) Name() string         { return "EPUB" }
func (f *EPUBFormat) Extensions() []string { return []string{".epub"} }

// Decode concatenates the spine items in reading order, stripping HTML
// and preserving block boundaries as blank lines so the segmenter sees
// real paragraphs. Individual unreadable spine items are collected and
// only fatal when nothing at all could be extracted.
func (f *EPUBFormat) Decode(filename string) (*Document, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, &DecodeError{Path: filename, Err: err}
	}
	defer rc.Close()

	if len(rc.Rootfiles) == 0 {
		return nil, &DecodeError{Path: filename, Err: errors.New("no rootfiles found")}
	}
	rootfile := rc.Rootfiles[0]

	var out strings.Builder
	var itemErrs error
	for _, ref := range rootfile.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		r, err := ref.Item.Open()
		if err != nil {
			itemErrs = multierr.Append(itemErrs, fmt.Errorf("open %s: %w", ref.Item.HREF, err))
			continue
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			itemErrs = multierr.Append(itemErrs, fmt.Errorf("read %s: %w", ref.Item.HREF, err))
			continue
		}
		if text := htmlText(string(data)); strings.TrimSpace(text) != "" {
			out.WriteString(strings.TrimSpace(text))
			out.WriteString("\n\n")
		}
	}

	content := strings.TrimSpace(out.String())
	if content == "" && itemErrs != nil {
		return nil, &DecodeError{Path: filename, Err: itemErrs}
	}

	title := strings.TrimSpace(rootfile.Title)
	if title == "" {
		title = titleFromPath(filename)
	}

	return &Document{
		Title:   title,
		Author:  strings.TrimSpace(rootfile.Creator),
		Content: content,
	}, nil
}

// blockTags end a paragraph when closed.
var blockTags = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "blockquote": true, "br": true, "tr": true,
}

var manyBlankLines = regexp.MustCompile(`\n{3,}`)

// htmlText extracts text from an HTML document. The parser decodes
// entities (&amp;, &nbsp; and friends); runs of whitespace collapse to
// single spaces and block elements become blank-line paragraph breaks.
func htmlText(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return ""
	}

	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.Join(strings.Fields(n.Data), " "); t != "" {
				out.WriteString(t)
				out.WriteString(" ")
			}
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "head") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[n.Data] {
			out.WriteString("\n\n")
		}
	}
	walk(doc)

	return manyBlankLines.ReplaceAllString(out.String(), "\n\n")
}
