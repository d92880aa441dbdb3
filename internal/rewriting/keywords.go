package rewriting

import (
	"strings"
	"unicode"

	"github.com/echiveai-alt/funnytime2-sub001/internal/types"
)

// KeywordCoverage partitions keywords into those that appear in at least one bullet and those
// that do not. Keywords are deduplicated case-insensitively and keep their input order.
// Exact mode requires the keyword's words in sequence; flexible mode also accepts inflected
// forms of each word anywhere in a single bullet.
func KeywordCoverage(bulletsByRole map[types.RoleKey][]types.BulletPoint, keywords []string, mode types.MatchMode) (used, notUsed []string) {
	used = []string{}
	notUsed = []string{}

	var bulletTokens [][]string
	for _, key := range types.SortedRoleKeys(bulletsByRole) {
		for _, bullet := range bulletsByRole[key] {
			bulletTokens = append(bulletTokens, tokenize(bullet.Text))
		}
	}

	seen := make(map[string]bool, len(keywords))
	for _, keyword := range keywords {
		keyword = strings.TrimSpace(keyword)
		lower := strings.ToLower(keyword)
		if keyword == "" || seen[lower] {
			continue
		}
		seen[lower] = true

		if keywordUsed(bulletTokens, tokenize(keyword), mode) {
			used = append(used, keyword)
		} else {
			notUsed = append(notUsed, keyword)
		}
	}
	return used, notUsed
}

func keywordUsed(bulletTokens [][]string, keywordTokens []string, mode types.MatchMode) bool {
	if len(keywordTokens) == 0 {
		return false
	}
	for _, tokens := range bulletTokens {
		if containsSequence(tokens, keywordTokens) {
			return true
		}
		if mode == types.MatchModeFlexible && containsInflections(tokens, keywordTokens) {
			return true
		}
	}
	return false
}

// tokenize lowercases text and splits it into words, keeping the symbols used in
// technology names such as C++, C# and Node.js
func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func containsSequence(haystack, needle []string) bool {
	if len(needle) > len(haystack) {
		return false
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func containsInflections(haystack, needle []string) bool {
	for _, want := range needle {
		found := false
		for _, token := range haystack {
			if inflectionOf(token, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// inflectionOf reports whether a and b look like forms of the same word,
// e.g. "deploy" and "deployed" or "microservice" and "microservices"
func inflectionOf(a, b string) bool {
	if a == b {
		return true
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) < 4 {
		return false
	}

	common := 0
	for common < len(shorter) && shorter[common] == longer[common] {
		common++
	}
	return common >= 4 && common >= len(shorter)-2 && len(longer)-common <= 3
}
