package ranking

import (
	"regexp"
	"strings"
	"unicode"
)

// stopWords are ignored when measuring token overlap between a requirement and candidate text
var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "the": true, "for": true, "with": true, "of": true,
	"in": true, "on": true, "to": true, "or": true, "at": true, "as": true, "by": true,
	"is": true, "are": true, "be": true, "our": true, "your": true, "their": true,
	"experience": true, "experienced": true, "years": true, "year": true, "strong": true,
	"solid": true, "proven": true, "excellent": true, "ability": true, "skills": true,
	"skill": true, "knowledge": true, "understanding": true, "familiarity": true,
	"proficiency": true, "proficient": true, "working": true, "related": true,
	"similar": true, "equivalent": true, "field": true, "preferred": true, "plus": true,
	"using": true, "use": true, "demonstrated": true, "track": true, "record": true,
}

var (
	leadInPattern    = regexp.MustCompile(`(?i)^((strong|solid|proven|excellent|deep|hands-on|demonstrated|working)\s+)*(experience|proficiency|expertise|familiarity|knowledge|understanding|skills?|background|track record)\s+(with|in|of|using|building|designing)\s+`)
	trailingPattern  = regexp.MustCompile(`(?i)\s+(experience|skills?|knowledge|expertise|background)$`)
	qualifierPattern = regexp.MustCompile(`(?i)[,;]?\s*\(?\s*(or\s+(a\s+)?(related|similar|equivalent|comparable)(\s+\w+)?|is\s+a\s+plus|a\s+plus|preferred|required|nice\s+to\s+have)\s*\)?\s*\.?$`)
)

// tokenize lowercases text and splits it into words, keeping + # . inside words so
// "c++", "c#" and "node.js" survive. Trailing dots are dropped.
func tokenize(text string) []string {
	var tokens []string
	var word strings.Builder
	flush := func() {
		w := strings.TrimRight(word.String(), ".")
		word.Reset()
		if w != "" {
			tokens = append(tokens, w)
		}
	}
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' {
			word.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// significantTokens returns the tokens of text that carry meaning for overlap checks
func significantTokens(text string) []string {
	var out []string
	for _, tok := range tokenize(text) {
		if !stopWords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// coreTerm strips lead-ins ("experience with") and trailing qualifiers ("or related field")
// from a requirement so only the thing being asked for remains
func coreTerm(requirement string) string {
	term := strings.TrimSpace(requirement)
	for {
		stripped := strings.TrimSpace(qualifierPattern.ReplaceAllString(term, ""))
		if stripped == term {
			break
		}
		term = stripped
	}
	term = leadInPattern.ReplaceAllString(term, "")
	term = trailingPattern.ReplaceAllString(term, "")
	return strings.TrimSpace(strings.TrimRight(term, ".;:,"))
}

// containsPhrase reports whether phrase appears in text on word boundaries
func containsPhrase(textTokens []string, phrase string) bool {
	return containsSequence(textTokens, tokenize(phrase))
}

func containsSequence(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, tok := range needle {
			if haystack[i+j] != tok {
				continue outer
			}
		}
		return true
	}
	return false
}

// similarToken treats inflections of the same stem as equal ("manager" and "management",
// "engineer" and "engineering"). Short tokens must match exactly.
func similarToken(a, b string) bool {
	if a == b {
		return true
	}
	shorter := len(a)
	if len(b) < shorter {
		shorter = len(b)
	}
	if shorter < 5 {
		return false
	}
	prefix := shorter - 2
	if prefix < 5 {
		prefix = 5
	}
	return a[:prefix] == b[:prefix]
}

// tokenOverlap returns the fraction of needle tokens with a similar token in haystack
func tokenOverlap(haystack, needle []string) float64 {
	if len(needle) == 0 {
		return 0
	}
	hits := 0
	for _, n := range needle {
		for _, h := range haystack {
			if similarToken(h, n) {
				hits++
				break
			}
		}
	}
	return float64(hits) / float64(len(needle))
}
