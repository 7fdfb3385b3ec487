package extractor

import (
	"time"

	"github.com/pevans/newsgather/textutil"
)

// Method tags for ExtractedDocument.ExtractionMethod.
const (
	MethodProfileSelectors     = "profile_selectors"
	MethodJSONLD               = "json_ld"
	MethodParagraphAggregation = "paragraph_aggregation"
	MethodReadability          = "readability"
	MethodFeedDescription      = "feed_description"
	MethodNone                 = "none"
)

// ExtractedDocument is the normalized result of extraction. Build it with
// NewDocument so WordCount and ContentQualityScore stay derived from Body.
type ExtractedDocument struct {
	URL                 string     `json:"url"`
	Title               string     `json:"title"`
	Body                string     `json:"body"`
	Author              string     `json:"author"`
	PublishedAt         *time.Time `json:"published_at"`
	WordCount           int        `json:"word_count"`
	ContentQualityScore int        `json:"content_quality_score"`
	ExtractionMethod    string     `json:"extraction_method"`
}

// NewDocument builds a document, deriving the word count and quality score.
func NewDocument(pageURL, title, body, author string, publishedAt *time.Time, method string) ExtractedDocument {
	if method == "" {
		method = MethodNone
	}
	return ExtractedDocument{
		URL:                 pageURL,
		Title:               title,
		Body:                body,
		Author:              author,
		PublishedAt:         publishedAt,
		WordCount:           textutil.CountWords(body),
		ContentQualityScore: QualityScore(body, title),
		ExtractionMethod:    method,
	}
}

// Empty reports whether no body text was found.
func (d ExtractedDocument) Empty() bool {
	return d.WordCount == 0
}

// ContentScore rates a candidate body for strategy selection. Word and
// character counts earn points in tiers with diminishing returns, blank-line
// paragraph structure earns a bonus and very short text is penalised.
func ContentScore(body string) int {
	words := textutil.CountWords(body)
	if words == 0 {
		return 0
	}
	chars := len(body)
	paragraphs := len(textutil.Paragraphs(body))

	score := tier(words, []tierStep{{50, 10}, {150, 20}, {300, 20}, {600, 10}})
	score += tier(chars, []tierStep{{300, 5}, {1000, 10}, {3000, 5}})
	score += tier(paragraphs, []tierStep{{2, 10}, {4, 5}})
	if words < 30 {
		score -= 20
	}
	return max(score, 0)
}

// QualityScore rates extracted content richness on a 0-100 scale from the
// body's word count, length and paragraph breaks plus the title's length.
// An empty body always scores 0.
func QualityScore(body, title string) int {
	words := textutil.CountWords(body)
	if words == 0 {
		return 0
	}
	chars := len(body)
	paragraphs := len(textutil.Paragraphs(body))
	titleLen := len([]rune(title))

	score := tier(words, []tierStep{{30, 15}, {100, 15}, {250, 15}, {500, 10}})
	score += tier(chars, []tierStep{{200, 5}, {800, 10}, {2000, 5}})
	score += tier(paragraphs, []tierStep{{2, 5}, {4, 5}})
	if titleLen > 0 {
		score += 5
		if titleLen >= 20 && titleLen <= 150 {
			score += 10
		}
	}
	if score < 1 {
		// non-empty bodies score at least 1
		score = 1
	}
	return min(score, 100)
}

type tierStep struct {
	threshold int
	points    int
}

func tier(value int, steps []tierStep) int {
	total := 0
	for _, s := range steps {
		if value >= s.threshold {
			total += s.points
		}
	}
	return total
}
