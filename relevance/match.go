package relevance

import (
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// matcher compiles and caches whole-word patterns. It is safe for
// concurrent use.
type matcher struct {
	cache sync.Map // string -> *regexp.Regexp
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// termPattern matches term case-insensitively on word boundaries. Internal
// whitespace matches any run of whitespace. Boundaries are only asserted
// next to word characters so terms like "c++" still match.
func termPattern(term string) string {
	words := strings.Fields(term)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	pattern := strings.Join(words, `\s+`)

	runes := []rune(term)
	if isWordRune(runes[0]) {
		pattern = `\b` + pattern
	}
	if isWordRune(runes[len(runes)-1]) {
		pattern += `\b`
	}
	return "(?i)" + pattern
}

func (m *matcher) term(term string) *regexp.Regexp {
	if re, ok := m.cache.Load(term); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(termPattern(term))
	actual, _ := m.cache.LoadOrStore(term, re)
	return actual.(*regexp.Regexp)
}

// positions returns the start offsets of every match of term in text.
func (m *matcher) positions(text, term string) []int {
	term = strings.TrimSpace(term)
	if term == "" || text == "" {
		return nil
	}
	locs := m.term(term).FindAllStringIndex(text, -1)
	out := make([]int, len(locs))
	for i, loc := range locs {
		out[i] = loc[0]
	}
	return out
}

func (m *matcher) count(text, term string) int {
	return len(m.positions(text, term))
}

// connected reports whether text joins a and b with a connecting phrase
// such as "a to b" or "b and a".
func (m *matcher) connected(text, a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	key := "\x00connect\x00" + strings.ToLower(a) + "\x00" + strings.ToLower(b)
	re, ok := m.cache.Load(key)
	if !ok {
		pa := strings.TrimPrefix(termPattern(a), "(?i)")
		pb := strings.TrimPrefix(termPattern(b), "(?i)")
		joiner := `\s+(?:to|and|&|or|from|with|via|near|between|versus|vs\.?)\s+`
		compiled := regexp.MustCompile("(?i)(?:" + pa + joiner + pb + "|" + pb + joiner + pa + ")")
		re, _ = m.cache.LoadOrStore(key, compiled)
	}
	return re.(*regexp.Regexp).MatchString(text)
}
