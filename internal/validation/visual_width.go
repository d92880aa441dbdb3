package validation

import (
	"math"
	"unicode"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// DefaultMaxVisualWidth is the width ceiling for a single resume line
const DefaultMaxVisualWidth = 179.0

const (
	widthSpace   = 0.55
	widthWide    = 1.10
	widthWidest  = 1.25
	widthNarrow  = 0.55
	widthSlim    = 0.70
	widthDigit   = 1.00
	widthDefault = 0.80
)

// characterWidths holds the per-character weights that are not covered by a class rule
var characterWidths = map[rune]float64{
	' ': widthSpace,
	'm': widthWide, 'w': widthWide,
	'@': widthWidest, '%': widthWidest,
	'i': widthNarrow, 'l': widthNarrow, 'j': widthNarrow,
	'.': widthNarrow, ',': widthNarrow, ':': widthNarrow, ';': widthNarrow,
	'\'': widthNarrow, '|': widthNarrow, '!': widthNarrow,
	'f': widthSlim, 't': widthSlim, 'r': widthSlim,
	'(': widthSlim, ')': widthSlim, '-': widthSlim, '/': widthSlim, '"': widthSlim,
}

// charWidth returns the weight of a single rune
func charWidth(r rune) float64 {
	if w, ok := characterWidths[r]; ok {
		return w
	}
	switch {
	case r >= 'A' && r <= 'Z':
		return widthWide
	case unicode.IsDigit(r):
		return widthDigit
	default:
		return widthDefault
	}
}

// VisualWidth returns the weighted character width of text, rounded to two decimals.
// It approximates how much of a resume line the text occupies when rendered.
func VisualWidth(text string) float64 {
	total := 0.0
	for _, r := range text {
		total += charWidth(r)
	}
	return math.Round(total*100) / 100
}

// MeasureBullet builds a BulletPoint for text and flags it when it exceeds maxWidth.
// A non-positive maxWidth falls back to DefaultMaxVisualWidth.
func MeasureBullet(text string, maxWidth float64) types.BulletPoint {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxVisualWidth
	}
	width := VisualWidth(text)
	return types.BulletPoint{
		Text:         text,
		VisualWidth:  width,
		ExceedsWidth: width > maxWidth,
	}
}
