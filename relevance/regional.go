package relevance

import (
	"math"
	"strings"
)

// competitorSignal counts how strongly competing regions appear in a
// document.
type competitorSignal struct {
	penalty       float64
	titleMentions []string
	landmarkTotal int
	ownLandmarks  int
}

// regionalScore scores a regional topic. Term matches and the region-name
// bonus (or the trust base when the region is never named) are reduced by
// the competing-region penalty, scaled by the source multiplier and clamped
// into the confidence band.
func (e *Engine) regionalScore(title, body string, topic TopicConfig, src SourceContext, competing []TopicConfig) RelevanceScore {
	w := e.config.Regional
	text := title + "\n" + body
	matched := map[string]int{}

	var raw float64
	categories := []struct {
		terms  []string
		weight float64
	}{
		{topic.Keywords, w.KeywordWeight},
		{topic.Landmarks, w.LandmarkWeight},
		{topic.Organizations, w.OrganizationWeight},
		{topic.Postcodes, w.PostcodeWeight},
	}
	for _, cat := range categories {
		for _, term := range cat.terms {
			n := e.match.count(text, term)
			if n == 0 {
				continue
			}
			matched[term] = n
			raw += float64(min(n, w.TermCap)) * cat.weight
		}
	}

	inTitle := e.match.count(title, topic.Region)
	inBody := e.match.count(body, topic.Region)
	if inTitle+inBody > 0 {
		matched[topic.Region] = inTitle + inBody
		if inTitle > 0 {
			raw += w.RegionTitleBonus
		}
		if inBody > 0 {
			raw += w.RegionBodyBonus
		}
	} else if src.UserSelected {
		raw += w.TrustBaseSelected
	} else {
		raw += w.TrustBase
	}

	raw -= e.competitors(title, body, topic, competing).penalty

	if raw <= w.OverwhelmingNegative {
		return RelevanceScore{Score: 0, Method: TopicRegional, MatchedTerms: matched}
	}

	multiplier, ok := w.SourceMultipliers[src.Type]
	if !ok {
		multiplier = 1
	}
	score := int(math.Round(raw * multiplier))
	score = min(max(score, w.MinConfidence), w.MaxConfidence)

	return RelevanceScore{Score: score, Method: TopicRegional, MatchedTerms: matched}
}

// competitors measures competing-region mentions. Mentions joined to the
// topic's own region by a connecting phrase carry no penalty.
func (e *Engine) competitors(title, body string, topic TopicConfig, competing []TopicConfig) competitorSignal {
	w := e.config.Regional
	text := title + "\n" + body

	var sig competitorSignal
	for _, lm := range topic.Landmarks {
		sig.ownLandmarks += e.match.count(text, lm)
	}

	for _, c := range competing {
		if !isCompetitor(topic, c) {
			continue
		}

		if e.match.count(title, c.Region) > 0 {
			sig.titleMentions = append(sig.titleMentions, c.Region)
		}

		landmarks := 0
		for _, lm := range c.Landmarks {
			landmarks += e.match.count(text, lm)
		}
		sig.landmarkTotal += landmarks

		if e.match.connected(text, topic.Region, c.Region) {
			continue
		}
		names := e.match.count(text, c.Region)
		sig.penalty += float64(min(names, w.TermCap))*w.CompetingNamePenalty +
			float64(min(landmarks, w.TermCap))*w.CompetingLandmarkPenalty
	}

	sig.penalty = min(sig.penalty, w.MaxCompetingPenalty)
	return sig
}

// competingExclusion returns a discard reason when a competing region
// dominates the document, or "" otherwise.
func (e *Engine) competingExclusion(title, body string, topic TopicConfig, competing []TopicConfig) string {
	sig := e.competitors(title, body, topic, competing)

	if len(sig.titleMentions) > 0 && e.match.count(title, topic.Region) == 0 {
		return ReasonCompetingTitle
	}
	if sig.landmarkTotal >= e.config.Regional.CompetingLandmarkMargin && sig.landmarkTotal > sig.ownLandmarks {
		return ReasonCompetingLandmarks
	}
	return ""
}

func isCompetitor(topic, other TopicConfig) bool {
	region := strings.TrimSpace(other.Region)
	return other.TopicType == TopicRegional && region != "" &&
		!strings.EqualFold(region, strings.TrimSpace(topic.Region))
}
