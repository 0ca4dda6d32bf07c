package paginate

import (
	"strings"
	"testing"
)

// checkCoverage asserts the pages partition content exactly.
func checkCoverage(t *testing.T, content string, pages []Page) {
	t.Helper()
	if len(pages) == 0 {
		t.Fatal("no pages emitted")
	}
	runes := []rune(content)
	if pages[0].Start != 0 {
		t.Errorf("first page starts at %d, want 0", pages[0].Start)
	}
	if last := pages[len(pages)-1]; last.End != len(runes) {
		t.Errorf("last page ends at %d, want %d", last.End, len(runes))
	}
	for i := range pages {
		if pages[i].Number != i+1 {
			t.Errorf("page %d has number %d", i, pages[i].Number)
		}
		if got := len([]rune(pages[i].Text)); got != pages[i].End-pages[i].Start {
			t.Errorf("page %d text length %d does not match range [%d,%d)", i+1, got, pages[i].Start, pages[i].End)
		}
		if i > 0 && pages[i].Start != pages[i-1].End {
			t.Errorf("gap between page %d (end %d) and page %d (start %d)", i, pages[i-1].End, i+1, pages[i].Start)
		}
	}
}

func TestSplitSinglePage(t *testing.T) {
	content := "A short piece of text."
	pages := Split(content, 1500)
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0].Text != content {
		t.Errorf("page text = %q", pages[0].Text)
	}
	checkCoverage(t, content, pages)
}

func TestSplitHardCutProse(t *testing.T) {
	// 5000 chars of unpunctuated prose with no blank lines: one long
	// paragraph that can only be hard-cut, yielding exactly 4 pages.
	content := strings.Repeat("word ", 1000)
	pages := Split(content, 1500)
	if len(pages) != 4 {
		t.Fatalf("got %d pages, want 4", len(pages))
	}
	var total int
	for _, p := range pages {
		if n := len([]rune(p.Text)); n > 1500 {
			t.Errorf("page %d has %d chars, budget 1500", p.Number, n)
		}
		total += len([]rune(p.Text))
	}
	if total != 5000 {
		t.Errorf("pages cover %d chars, want 5000", total)
	}
	checkCoverage(t, content, pages)
}

func TestSplitParagraphBoundaries(t *testing.T) {
	para := strings.Repeat("sentence text here. ", 30) // 600 chars
	content := para + "\n\n" + para + "\n\n" + para
	pages := Split(content, 1500)
	checkCoverage(t, content, pages)
	// Two paragraphs fit per page; the break must land on the paragraph
	// boundary rather than mid-paragraph.
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if !strings.HasSuffix(strings.TrimRight(pages[0].Text, " \n"), ".") {
		t.Errorf("page 1 should end at a paragraph boundary, got %q", pages[0].Text[len(pages[0].Text)-20:])
	}
}

func TestSplitSentenceBreakInLongParagraph(t *testing.T) {
	// A single period inside the break-scan window [1200, 1500).
	content := strings.Repeat("x", 1399) + "." + strings.Repeat("y", 600)
	pages := Split(content, 1500)
	checkCoverage(t, content, pages)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if !strings.HasSuffix(pages[0].Text, ".") {
		t.Errorf("page 1 should break inclusive of the punctuation")
	}
	if got := len([]rune(pages[0].Text)); got != 1400 {
		t.Errorf("page 1 length = %d, want 1400", got)
	}
}

func TestSplitCJKPunctuationBreak(t *testing.T) {
	content := strings.Repeat("字", 1299) + "。" + strings.Repeat("字", 700)
	pages := Split(content, 1500)
	checkCoverage(t, content, pages)
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if !strings.HasSuffix(pages[0].Text, "。") {
		t.Errorf("page 1 should break after CJK full stop")
	}
}

func TestSplitDeterministic(t *testing.T) {
	content := strings.Repeat("Some prose with, punctuation. ", 200) +
		"\n\n" + strings.Repeat("第二段落的中文内容。", 100)
	first := Split(content, 900)
	second := Split(content, 900)
	if len(first) != len(second) {
		t.Fatalf("page counts differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("page %d differs between runs", i+1)
		}
	}
}

func TestSplitDuplicateParagraphsNoDrift(t *testing.T) {
	// Identical paragraphs must still get distinct, strictly increasing
	// ranges: offsets come from segment lengths, not content search.
	para := strings.Repeat("repeat me. ", 40)
	content := strings.Repeat(para+"\n\n", 10)
	pages := Split(content, 500)
	checkCoverage(t, content, pages)
	for i := 1; i < len(pages); i++ {
		if pages[i].Start <= pages[i-1].Start {
			t.Errorf("page %d start %d not after page %d start %d",
				i+1, pages[i].Start, i, pages[i-1].Start)
		}
	}
}

func TestSplitEmptyContent(t *testing.T) {
	for _, content := range []string{"", "   ", "\n\n\t \n"} {
		pages := Split(content, 1500)
		if len(pages) != 1 {
			t.Fatalf("Split(%q): got %d pages, want 1", content, len(pages))
		}
		p := pages[0]
		if p.Start != 0 || p.End != 0 || p.Number != 1 {
			t.Errorf("Split(%q): degenerate page = %+v", content, p)
		}
	}
}

func TestSplitTinyBudget(t *testing.T) {
	content := "abcdef"
	pages := Split(content, 2)
	checkCoverage(t, content, pages)
	if len(pages) != 3 {
		t.Errorf("got %d pages, want 3", len(pages))
	}
}

func TestPageFor(t *testing.T) {
	content := strings.Repeat("word ", 1000)
	pages := Split(content, 1500)

	tests := []struct {
		offset int
		want   int
	}{
		{0, 1},
		{1499, 1},
		{1500, 2},
		{4999, 4},
		{5000, 4}, // end of book resolves to the last page
	}
	for _, tt := range tests {
		if got := PageFor(pages, tt.offset); got != tt.want {
			t.Errorf("PageFor(%d) = %d, want %d", tt.offset, got, tt.want)
		}
	}
}

func TestRepaginatePreservesOffset(t *testing.T) {
	content := strings.Repeat("The river ran east toward the sea. ", 300)
	offset := 4200

	for _, budget := range []int{300, 700, 1100, 1500, 2200, 3000} {
		pages, pageNum := Repaginate(content, budget, offset)
		checkCoverage(t, content, pages)
		page := pages[pageNum-1]
		if offset < page.Start || offset >= page.End {
			t.Errorf("budget %d: offset %d not inside page %d [%d,%d)",
				budget, offset, pageNum, page.Start, page.End)
		}
	}
}

func TestRepaginateFontSizeChange(t *testing.T) {
	// Font change from 16 to 20 shrinks the budget mid-read; the offset
	// must stay at 4200 and resolve to a page containing it.
	content := strings.Repeat("Pages of steady prose, written to be split. ", 250)
	offset := 4200

	before, beforePage := Repaginate(content, 1800, offset)
	after, afterPage := Repaginate(content, 1200, offset)
	checkCoverage(t, content, before)
	checkCoverage(t, content, after)

	bp := before[beforePage-1]
	ap := after[afterPage-1]
	if offset < bp.Start || offset >= bp.End {
		t.Errorf("offset outside page before repagination")
	}
	if offset < ap.Start || offset >= ap.End {
		t.Errorf("offset outside page after repagination")
	}
}
