package relevance

import (
	"strings"
)

// stopWords are short terms too common to score on their own.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "of": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "by": true,
	"is": true, "it": true, "be": true, "as": true, "new": true, "us": true,
	"we": true, "our": true, "up": true, "out": true, "all": true, "one": true,
	"two": true, "get": true, "can": true, "has": true, "had": true, "was": true,
	"are": true, "not": true, "but": true, "his": true, "her": true, "its": true,
	"who": true, "how": true, "why": true, "may": true, "now": true, "say": true,
	"see": true, "use": true, "day": true, "way": true, "big": true, "old": true,
	"top": true,
}

// synonyms expand short or ambiguous terms.
var synonyms = map[string][]string{
	"ai":         {"artificial intelligence", "machine learning"},
	"pr":         {"public relations", "press release"},
	"nhs":        {"national health service"},
	"gp":         {"general practitioner", "family doctor"},
	"ev":         {"electric vehicle", "electric car"},
	"evs":        {"electric vehicles", "electric cars"},
	"hs2":        {"high speed 2"},
	"uk":         {"united kingdom", "britain"},
	"eu":         {"european union"},
	"mp":         {"member of parliament"},
	"asb":        {"anti-social behaviour", "antisocial behaviour"},
	"send":       {"special educational needs"},
	"council":    {"local authority"},
	"police":     {"constabulary"},
	"a&e":        {"accident and emergency", "emergency department"},
	"lgbt":       {"lgbtq", "lgbtq+"},
}

// regionalSuffixes swap British and American spellings at the end of a
// word. Pairs are applied in both directions.
var regionalSuffixes = [][2]string{
	{"isation", "ization"},
	{"isations", "izations"},
	{"ise", "ize"},
	{"ised", "ized"},
	{"ises", "izes"},
	{"ising", "izing"},
	{"yse", "yze"},
	{"ysed", "yzed"},
	{"lled", "led"},
	{"lling", "ling"},
}

// britishOnlySuffixes map British endings to American ones only, since the
// reverse would mangle ordinary words.
var britishOnlySuffixes = [][2]string{
	{"our", "or"},
	{"ours", "ors"},
	{"tre", "ter"},
	{"tres", "ters"},
	{"ogue", "og"},
	{"ence", "ense"},
}

// isStopWord reports whether a term should be dropped before scoring.
func isStopWord(term string) bool {
	return len(term) <= 3 && stopWords[term]
}

// Variations returns the lowercased forms a keyword is matched by: the term
// itself, its synonyms and, for terms at least minLen long, plural, tense,
// spelling and ampersand variants. Stop words return nil.
func Variations(keyword string, minLen int) []string {
	term := strings.Join(strings.Fields(strings.ToLower(keyword)), " ")
	if term == "" || isStopWord(term) {
		return nil
	}

	seen := map[string]bool{}
	var out []string
	add := func(v string) {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	// Generated forms must stand on their own as search terms.
	addForm := func(v string) {
		if len(v) < minLen || stopWords[v] {
			return
		}
		add(v)
	}

	add(term)
	for _, syn := range synonyms[term] {
		add(syn)
	}
	if len(term) < minLen {
		return out
	}

	base := []string{term}
	if strings.Contains(term, " & ") {
		base = append(base, strings.ReplaceAll(term, " & ", " and "))
	}
	if strings.Contains(term, " and ") {
		base = append(base, strings.ReplaceAll(term, " and ", " & "))
	}

	for _, b := range base {
		add(b)
		for _, spelled := range spellingVariants(b) {
			addForm(spelled)
			for _, form := range wordForms(spelled) {
				addForm(form)
			}
		}
	}
	return out
}

// spellingVariants returns the term plus its regional spellings, applied to
// the last word.
func spellingVariants(term string) []string {
	head, last := splitLastWord(term)
	out := []string{term}
	for _, pair := range regionalSuffixes {
		if v, ok := swapSuffix(last, pair[0], pair[1]); ok {
			out = append(out, head+v)
		}
		if v, ok := swapSuffix(last, pair[1], pair[0]); ok {
			out = append(out, head+v)
		}
	}
	for _, pair := range britishOnlySuffixes {
		if v, ok := swapSuffix(last, pair[0], pair[1]); ok {
			out = append(out, head+v)
		}
	}
	return out
}

// wordForms returns plural or singular and, for single words, tense forms.
func wordForms(term string) []string {
	head, last := splitLastWord(term)
	var out []string
	for _, form := range numberForms(last) {
		out = append(out, head+form)
	}
	if head == "" {
		out = append(out, tenseForms(last)...)
	}
	return out
}

// invariantPlurals end in "s" but have no singular form.
var invariantPlurals = map[string]bool{
	"news": true, "series": true, "species": true, "means": true,
	"lens": true, "crossroads": true, "headquarters": true,
}

func numberForms(word string) []string {
	switch {
	case len(word) < 3:
		return nil
	case invariantPlurals[word], strings.HasSuffix(word, "ics"):
		return nil
	case strings.HasSuffix(word, "ies"):
		return []string{strings.TrimSuffix(word, "ies") + "y"}
	case strings.HasSuffix(word, "sses"), strings.HasSuffix(word, "shes"),
		strings.HasSuffix(word, "ches"), strings.HasSuffix(word, "xes"):
		return []string{strings.TrimSuffix(word, "es")}
	case strings.HasSuffix(word, "ss"), strings.HasSuffix(word, "sh"),
		strings.HasSuffix(word, "ch"), strings.HasSuffix(word, "x"):
		return []string{word + "es"}
	case strings.HasSuffix(word, "us"), strings.HasSuffix(word, "is"):
		return nil
	case strings.HasSuffix(word, "s"):
		return []string{strings.TrimSuffix(word, "s")}
	case strings.HasSuffix(word, "y") && !isVowel(word[len(word)-2]):
		return []string{strings.TrimSuffix(word, "y") + "ies"}
	default:
		return []string{word + "s"}
	}
}

func tenseForms(word string) []string {
	switch {
	case len(word) < 4:
		return nil
	case strings.HasSuffix(word, "ing") && len(word) > 5:
		stem := strings.TrimSuffix(word, "ing")
		return []string{stem, stem + "e", stem + "ed"}
	case strings.HasSuffix(word, "ed") && len(word) > 4:
		stem := strings.TrimSuffix(word, "ed")
		return []string{stem, stem + "e", stem + "ing"}
	case strings.HasSuffix(word, "s"):
		return nil
	case strings.HasSuffix(word, "e"):
		return []string{word + "d", strings.TrimSuffix(word, "e") + "ing"}
	default:
		return []string{word + "ed", word + "ing"}
	}
}

func swapSuffix(word, from, to string) (string, bool) {
	if len(word) <= len(from)+1 || !strings.HasSuffix(word, from) {
		return "", false
	}
	return strings.TrimSuffix(word, from) + to, true
}

func splitLastWord(term string) (head, last string) {
	i := strings.LastIndex(term, " ")
	if i < 0 {
		return "", term
	}
	return term[:i+1], term[i+1:]
}

func isVowel(b byte) bool {
	return strings.IndexByte("aeiou", b) >= 0
}

// fuzzyTokens splits a keyword into lowercased tokens of at least three
// characters, skipping stop words.
func fuzzyTokens(keyword string) []string {
	var out []string
	for tok := range strings.FieldsFuncSeq(strings.ToLower(keyword), func(r rune) bool {
		return !isWordRune(r)
	}) {
		if len(tok) >= 3 && !stopWords[tok] {
			out = append(out, tok)
		}
	}
	return out
}
