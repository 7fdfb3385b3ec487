package relevance

import (
	"math"
	"strings"
)

// keywordScore scores a keyword topic. Each keyword contributes the larger
// of its capped, location-weighted exact matches and its fuzzy match; the
// sum is scaled, floored once anything matched and capped at 100.
func (e *Engine) keywordScore(title, body string, topic TopicConfig) RelevanceScore {
	w := e.config.Keyword
	matched := map[string]int{}
	lower := strings.ToLower(title + "\n" + body)

	var raw float64
	for _, keyword := range topic.Keywords {
		variations := Variations(keyword, w.MinVariationLength)
		if len(variations) == 0 {
			continue
		}

		var inTitle, inLead, inBody int
		for _, v := range variations {
			inTitle += e.match.count(title, v)
			for _, pos := range e.match.positions(body, v) {
				if pos < w.LeadChars {
					inLead++
				} else {
					inBody++
				}
			}
		}

		exact := float64(min(inTitle, w.TitleCap))*w.TitleWeight +
			float64(min(inLead, w.LeadCap))*w.LeadWeight +
			float64(min(inBody, w.BodyCap))*w.BodyWeight
		if total := inTitle + inLead + inBody; total > 0 {
			matched[keyword] = total
		}

		var fuzzy float64
		if exact == 0 {
			if hits := fuzzyHits(lower, keyword); hits > 0 {
				fuzzy = w.FuzzyWeight
				matched[keyword+" (fuzzy)"] = hits
			}
		}

		raw += max(exact, fuzzy)
	}

	score := int(math.Round(raw * w.Multiplier))
	if raw > 0 {
		score = max(score, w.Floor)
	}
	return RelevanceScore{
		Score:        min(max(score, 0), 100),
		Method:       TopicKeyword,
		MatchedTerms: matched,
	}
}

// fuzzyHits returns how many tokens of keyword appear in lowerText when a
// strict majority do, otherwise 0.
func fuzzyHits(lowerText, keyword string) int {
	tokens := fuzzyTokens(keyword)
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, tok := range tokens {
		if strings.Contains(lowerText, tok) {
			hits++
		}
	}
	if hits*2 <= len(tokens) {
		return 0
	}
	return hits
}
