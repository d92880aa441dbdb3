package rewriting

import (
	"regexp"
	"strings"
)

var (
	bulletMarkerPattern = regexp.MustCompile(`^\s*(?:[-*•–]|\d+[.)])\s+`)
	dashPattern         = regexp.MustCompile(`\s*[—–]\s*`)
	multiSpacePattern   = regexp.MustCompile(`\s{2,}`)
)

// punctuationReplacements rewrites punctuation that resume parsers and the width table handle poorly
var punctuationReplacements = strings.NewReplacer(
	" & ", " and ",
	"; ", ", ",
	";", ",",
	"“", `"`, "”", `"`,
	"‘", "'", "’", "'",
)

// CleanBullet normalizes one generated bullet: list markers, en and em dashes, ampersands,
// semicolons and a trailing period are removed. An empty result means the bullet is dropped.
func CleanBullet(text string) string {
	text = strings.TrimSpace(text)
	text = bulletMarkerPattern.ReplaceAllString(text, "")
	text = dashPattern.ReplaceAllString(text, ", ")
	text = punctuationReplacements.Replace(text)
	text = multiSpacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	text = strings.TrimRight(text, ".,")
	return strings.TrimSpace(text)
}
