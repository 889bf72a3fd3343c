package evaluate

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gobwas/glob"
)

const globMeta = "*?[{"

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true, "be": true, "by": true,
	"for": true, "from": true, "has": true, "have": true, "in": true, "is": true, "it": true, "its": true,
	"of": true, "on": true, "or": true, "our": true, "should": true, "that": true, "the": true, "their": true,
	"they": true, "this": true, "to": true, "was": true, "we": true, "were": true, "will": true, "with": true,
	"user": true, "customer": true, "needs": true, "wants": true, "must": true, "about": true,
	"的": true, "了": true, "和": true, "是": true, "在": true, "用户": true, "客户": true,
}

// tokenize splits s into lower-cased word tokens. Hyphens and underscores
// stay inside words so "on-prem" is one token.
func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_'
	})
}

// deriveKeywords turns a description into keywords by dropping stopwords
// and single-letter tokens. A description that yields nothing becomes its
// own single keyword.
func deriveKeywords(description string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, tok := range tokenize(description) {
		if stopwords[tok] || seen[tok] || (utf8.RuneCountInString(tok) < 2 && tok[0] < utf8.RuneSelf) {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	if len(out) == 0 {
		if d := strings.ToLower(strings.TrimSpace(description)); d != "" {
			out = []string{d}
		}
	}
	return out
}

// haystack is the lower-cased combined text of a context plus its word
// tokens, prepared once per scoring call.
type haystack struct {
	text   string
	tokens []string
}

func newHaystack(text string) *haystack {
	return &haystack{text: strings.ToLower(text), tokens: tokenize(text)}
}

// matches reports whether any "|" alternative of keyword occurs. Plain
// alternatives use substring containment; alternatives with glob
// metacharacters are matched against each word token.
func (h *haystack) matches(keyword string) bool {
	for _, alt := range strings.Split(keyword, "|") {
		alt = strings.ToLower(strings.TrimSpace(alt))
		if alt == "" {
			continue
		}
		if strings.ContainsAny(alt, globMeta) {
			if g, err := glob.Compile(alt); err == nil {
				for _, tok := range h.tokens {
					if g.Match(tok) {
						return true
					}
				}
				continue
			}
		}
		if strings.Contains(h.text, alt) {
			return true
		}
	}
	return false
}
