// Package layout derives a target characters-per-page budget from the
// viewport geometry, font size and script classification.
package layout

import (
	"math"

	"github.com/tomeapp/tome/internal/lang"
)

// Viewport is the drawable area in pixels. Chrome is the height reserved
// for headers and controls and is subtracted before layout.
type Viewport struct {
	Width  float64
	Height float64
	Chrome float64
}

// Calculator holds the empirically tuned layout constants. The values are
// carried over from the reference tuning and can be overridden through
// configuration; none of them have a derivation beyond "reads well".
type Calculator struct {
	// LineHeight multiplies the font size to estimate line height.
	LineHeight float64
	// LatinWidth, CJKWidth and MixedWidth multiply the font size to
	// estimate the average glyph advance for each script class.
	LatinWidth float64
	CJKWidth   float64
	MixedWidth float64
	// ChineseDiscount and MixedDiscount shorten pages for denser scripts.
	ChineseDiscount float64
	MixedDiscount   float64
	// MinBudget and MaxBudget clamp the result to a sane range.
	MinBudget int
	MaxBudget int
}

// Default returns the calculator with the reference tuning.
func Default() Calculator {
	return Calculator{
		LineHeight:      1.5,
		LatinWidth:      0.55,
		CJKWidth:        1.0,
		MixedWidth:      0.75,
		ChineseDiscount: 0.85,
		MixedDiscount:   0.90,
		MinBudget:       200,
		MaxBudget:       3000,
	}
}

// Budget computes the target characters per page. It is a pure function
// of its inputs: identical (font size, viewport, class) always yields an
// identical budget, which is what makes repagination reproducible.
func (c Calculator) Budget(fontSize float64, vp Viewport, class lang.Class) int {
	if fontSize <= 0 {
		return c.MinBudget
	}

	lineHeight := fontSize * c.LineHeight
	charWidth := fontSize * c.charWidthFactor(class)

	availHeight := vp.Height - vp.Chrome
	lines := math.Floor(availHeight / lineHeight)
	chars := math.Floor(vp.Width / charWidth)
	if lines < 1 || chars < 1 {
		return c.MinBudget
	}

	raw := lines * chars * c.discount(class)
	return c.clamp(int(raw))
}

// CellBudget is the terminal path: the viewport is already measured in
// character cells, so only the density discount and clamps apply.
// chromeRows is the number of rows reserved for status and controls.
func (c Calculator) CellBudget(cols, rows, chromeRows int, class lang.Class) int {
	avail := rows - chromeRows
	if cols < 1 || avail < 1 {
		return c.MinBudget
	}
	// Wide CJK glyphs occupy two cells, halving the characters per line.
	if class == lang.Chinese {
		cols /= 2
	}
	raw := float64(cols*avail) * c.discount(class)
	return c.clamp(int(raw))
}

func (c Calculator) charWidthFactor(class lang.Class) float64 {
	switch class {
	case lang.Chinese:
		return c.CJKWidth
	case lang.Mixed:
		return c.MixedWidth
	default:
		return c.LatinWidth
	}
}

func (c Calculator) discount(class lang.Class) float64 {
	switch class {
	case lang.Chinese:
		return c.ChineseDiscount
	case lang.Mixed:
		return c.MixedDiscount
	default:
		return 1.0
	}
}

func (c Calculator) clamp(budget int) int {
	if budget < c.MinBudget {
		return c.MinBudget
	}
	if budget > c.MaxBudget {
		return c.MaxBudget
	}
	return budget
}
