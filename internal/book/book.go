package book

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tomeapp/tome/internal/chapter"
	"github.com/tomeapp/tome/internal/lang"
	"github.com/tomeapp/tome/internal/paginate"
)

// Book ties decoded content to its derived views: classification, pages
// and chapters. Content is immutable once imported and is the single
// coordinate space for all offsets; pages and chapters are rebuilt
// wholesale, never patched.
type Book struct {
	Title    string
	Author   string
	Content  string
	Class    lang.Class
	Pages    []paginate.Page
	Chapters []chapter.Chapter

	runes []rune
	mu    sync.Mutex // serializes repagination runs
	log   *zap.Logger
}

// New assembles a book from a decoded document at the given page budget.
// Empty content still yields a usable book (one placeholder page, one
// synthetic chapter) alongside ErrContentEmpty.
func New(doc *Document, budget int, log *zap.Logger) (*Book, error) {
	if log == nil {
		log = zap.NewNop()
	}
	content := doc.Content
	pages := paginate.Split(content, budget)
	b := &Book{
		Title:    doc.Title,
		Author:   doc.Author,
		Content:  content,
		Class:    lang.Classify(content),
		Pages:    pages,
		Chapters: chapter.Detect(content, pages),
		runes:    []rune(content),
		log:      log,
	}
	log.Info("book assembled",
		zap.String("title", b.Title),
		zap.Stringer("class", b.Class),
		zap.Int("characters", len(b.runes)),
		zap.Int("pages", len(b.Pages)),
		zap.Int("chapters", len(b.Chapters)))
	if strings.TrimSpace(content) == "" {
		return b, ErrContentEmpty
	}
	return b, nil
}

// Open decodes a file and assembles it.
func Open(path string, budget int, log *zap.Logger) (*Book, error) {
	doc, err := Decode(path)
	if err != nil {
		return nil, err
	}
	return New(doc, budget, log)
}

// Len returns the content length in runes, the upper bound of the offset
// coordinate space.
func (b *Book) Len() int { return len(b.runes) }

// Tail returns the unread content from offset to the end.
func (b *Book) Tail(offset int) string {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(b.runes) {
		return ""
	}
	return string(b.runes[offset:])
}

// PageFor resolves the page number containing offset.
func (b *Book) PageFor(offset int) int {
	return paginate.PageFor(b.Pages, offset)
}

// Page returns the page with the given 1-based number.
func (b *Book) Page(number int) paginate.Page {
	if number < 1 {
		number = 1
	}
	if number > len(b.Pages) {
		number = len(b.Pages)
	}
	return b.Pages[number-1]
}

// ChapterAt returns the chapter containing offset.
func (b *Book) ChapterAt(offset int) *chapter.Chapter {
	return chapter.At(b.Chapters, offset)
}

// Repaginate rebuilds pages and chapters for a new budget and returns
// the page number now containing offset. The offset itself is never
// touched here; only the page mapping changes. Concurrent calls are
// serialized — two repagination runs must not interleave.
func (b *Book) Repaginate(budget int, offset int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	pages, pageNum := paginate.Repaginate(b.Content, budget, offset)
	b.Pages = pages
	b.Chapters = chapter.Detect(b.Content, pages)
	b.log.Debug("repaginated",
		zap.Int("budget", budget),
		zap.Int("pages", len(pages)),
		zap.Int("offset", offset),
		zap.Int("page", pageNum))
	return pageNum
}
