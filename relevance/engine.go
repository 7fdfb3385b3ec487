package relevance

import (
	"github.com/pevans/newsgather/extractor"
	"github.com/pevans/newsgather/logger"
)

// Engine scores documents. It holds only read-only configuration and a
// pattern cache, so one Engine may be shared by every pipeline.
type Engine struct {
	config *Config
	log    logger.Logger
	match  *matcher
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = logger.OrNop(l) }
}

// New creates an Engine. A nil config uses DefaultConfig.
func New(config *Config, opts ...Option) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	e := &Engine{
		config: config,
		log:    logger.NewNop(),
		match:  &matcher{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() *Config {
	return e.config
}

// Score scores doc against topic. Competing topics only affect regional
// scoring.
func (e *Engine) Score(doc extractor.ExtractedDocument, topic TopicConfig, src SourceContext, competing []TopicConfig) RelevanceScore {
	if topic.TopicType == TopicRegional {
		return e.regionalScore(doc.Title, doc.Body, topic, src, competing)
	}
	return e.keywordScore(doc.Title, doc.Body, topic)
}

// Threshold returns the minimum score for a topic type and source. Unknown
// source types use the regional row.
func (e *Engine) Threshold(topicType TopicType, src SourceContext) int {
	rows, ok := e.config.Thresholds[topicType]
	if !ok {
		rows = e.config.Thresholds[TopicKeyword]
	}
	pair, ok := rows[src.Type]
	if !ok {
		pair = rows[SourceRegional]
	}
	if src.UserSelected {
		return pair.Selected
	}
	return pair.Default
}

// MeetsThreshold reports whether score clears the bar for its topic type and
// source.
func (e *Engine) MeetsThreshold(score RelevanceScore, src SourceContext) bool {
	return score.Score >= e.Threshold(score.Method, src)
}

// NegativeMatch returns the first negative keyword found in doc, or "".
func (e *Engine) NegativeMatch(doc extractor.ExtractedDocument, topic TopicConfig) string {
	text := doc.Title + "\n" + doc.Body
	for _, neg := range topic.NegativeKeywords {
		if e.match.count(text, neg) > 0 {
			return neg
		}
	}
	return ""
}

// Evaluate scores doc and decides whether to retain it. Negative keywords
// reject before any scoring. Regional documents that clear the threshold
// are still rejected when a competing region dominates.
func (e *Engine) Evaluate(doc extractor.ExtractedDocument, topic TopicConfig, src SourceContext, competing []TopicConfig) Decision {
	method := topic.TopicType
	if method != TopicRegional {
		method = TopicKeyword
	}

	if neg := e.NegativeMatch(doc, topic); neg != "" {
		e.log.Debug("negative keyword matched",
			logger.String("url", doc.URL),
			logger.String("keyword", neg))
		return Decision{
			Score:     RelevanceScore{Method: method, MatchedTerms: map[string]int{neg: e.match.count(doc.Title+"\n"+doc.Body, neg)}},
			Threshold: e.Threshold(method, src),
			Reason:    ReasonNegativeKeyword,
		}
	}

	score := e.Score(doc, topic, src, competing)
	d := Decision{Score: score, Threshold: e.Threshold(method, src)}

	switch {
	case score.Score < d.Threshold:
		d.Reason = ReasonBelowThreshold
	case method == TopicRegional:
		d.Reason = e.competingExclusion(doc.Title, doc.Body, topic, competing)
	}
	d.Retain = d.Reason == ""

	e.log.Debug("relevance decision",
		logger.String("url", doc.URL),
		logger.String("topic", topic.Name),
		logger.Int("score", score.Score),
		logger.Int("threshold", d.Threshold),
		logger.Bool("retain", d.Retain),
		logger.String("reason", d.Reason))
	return d
}
