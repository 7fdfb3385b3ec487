// Package relevance scores extracted documents against keyword and regional
// topics and decides whether they are retained.
package relevance

import (
	"errors"
	"fmt"
	"strings"
)

// TopicType selects the scoring method for a topic.
type TopicType string

const (
	TopicRegional TopicType = "regional"
	TopicKeyword  TopicType = "keyword"
)

// SourceType classifies where content comes from. It scales regional scores
// and selects thresholds.
type SourceType string

const (
	SourceHyperlocal SourceType = "hyperlocal"
	SourceRegional   SourceType = "regional"
	SourceNational   SourceType = "national"
)

// ErrInvalidTopic is returned by TopicConfig.Validate.
var ErrInvalidTopic = errors.New("invalid topic")

// ParseSourceType parses a source type name. The empty string is treated as
// regional.
func ParseSourceType(s string) (SourceType, error) {
	switch st := SourceType(strings.ToLower(strings.TrimSpace(s))); st {
	case SourceHyperlocal, SourceRegional, SourceNational:
		return st, nil
	case "":
		return SourceRegional, nil
	default:
		return "", fmt.Errorf("unknown source type %q (expected hyperlocal, regional or national)", s)
	}
}

// TopicConfig is a relevance target. It is read-only once handed to the
// engine.
type TopicConfig struct {
	Name             string    `yaml:"name" json:"name"`
	TopicType        TopicType `yaml:"topic_type" json:"topic_type"`
	Keywords         []string  `yaml:"keywords" json:"keywords"`
	NegativeKeywords []string  `yaml:"negative_keywords" json:"negative_keywords,omitempty"`

	// Regional topics only.
	Region        string   `yaml:"region" json:"region,omitempty"`
	Landmarks     []string `yaml:"landmarks" json:"landmarks,omitempty"`
	Postcodes     []string `yaml:"postcodes" json:"postcodes,omitempty"`
	Organizations []string `yaml:"organizations" json:"organizations,omitempty"`
}

// Validate checks that the topic can be scored.
func (t TopicConfig) Validate() error {
	switch t.TopicType {
	case TopicRegional:
		if strings.TrimSpace(t.Region) == "" {
			return fmt.Errorf("%w: regional topic %q has no region", ErrInvalidTopic, t.Name)
		}
	case TopicKeyword:
		if len(t.Keywords) == 0 {
			return fmt.Errorf("%w: keyword topic %q has no keywords", ErrInvalidTopic, t.Name)
		}
	default:
		return fmt.Errorf("%w: topic %q has unknown type %q", ErrInvalidTopic, t.Name, t.TopicType)
	}
	return nil
}

// SourceContext describes the source a document came from.
type SourceContext struct {
	Type         SourceType
	UserSelected bool
}

// RelevanceScore is the outcome of scoring one document against one topic.
type RelevanceScore struct {
	Score        int            `json:"score"`
	Method       TopicType      `json:"method"`
	MatchedTerms map[string]int `json:"matched_terms"`
}

// Discard reasons reported on a Decision.
const (
	ReasonNegativeKeyword    = "negative_keyword"
	ReasonBelowThreshold     = "below_threshold"
	ReasonCompetingTitle     = "competing_region_title"
	ReasonCompetingLandmarks = "competing_region_landmarks"
)

// Decision is a score plus the retain or discard verdict.
type Decision struct {
	Score     RelevanceScore `json:"score"`
	Threshold int            `json:"threshold"`
	Retain    bool           `json:"retain"`
	Reason    string         `json:"reason,omitempty"`
}
