package relevance

// KeywordWeights tunes keyword-topic scoring.
type KeywordWeights struct {
	TitleWeight float64 `yaml:"title_weight"`
	TitleCap    int     `yaml:"title_cap"`
	LeadWeight  float64 `yaml:"lead_weight"`
	LeadCap     int     `yaml:"lead_cap"`
	BodyWeight  float64 `yaml:"body_weight"`
	BodyCap     int     `yaml:"body_cap"`

	// LeadChars is how much of the body counts as the lead.
	LeadChars int `yaml:"lead_chars"`

	FuzzyWeight float64 `yaml:"fuzzy_weight"`
	Multiplier  float64 `yaml:"multiplier"`

	// Floor is the minimum score once anything matched.
	Floor int `yaml:"floor"`

	// MinVariationLength is the shortest keyword that gets generated
	// variations. Shorter keywords only use the synonym table.
	MinVariationLength int `yaml:"min_variation_length"`
}

// RegionalWeights tunes regional-topic scoring.
type RegionalWeights struct {
	KeywordWeight      float64 `yaml:"keyword_weight"`
	LandmarkWeight     float64 `yaml:"landmark_weight"`
	OrganizationWeight float64 `yaml:"organization_weight"`
	PostcodeWeight     float64 `yaml:"postcode_weight"`
	TermCap            int     `yaml:"term_cap"`

	RegionTitleBonus float64 `yaml:"region_title_bonus"`
	RegionBodyBonus  float64 `yaml:"region_body_bonus"`

	// Granted instead of the region bonus when the region is never named.
	TrustBaseSelected float64 `yaml:"trust_base_selected"`
	TrustBase         float64 `yaml:"trust_base"`

	CompetingNamePenalty     float64 `yaml:"competing_name_penalty"`
	CompetingLandmarkPenalty float64 `yaml:"competing_landmark_penalty"`
	MaxCompetingPenalty      float64 `yaml:"max_competing_penalty"`

	// CompetingLandmarkMargin is the minimum competing landmark count for
	// the landmark exclusion.
	CompetingLandmarkMargin int `yaml:"competing_landmark_margin"`

	SourceMultipliers map[SourceType]float64 `yaml:"source_multipliers"`

	MinConfidence int `yaml:"min_confidence"`
	MaxConfidence int `yaml:"max_confidence"`

	// Raw scores at or below this are forced to 0.
	OverwhelmingNegative float64 `yaml:"overwhelming_negative"`
}

// ThresholdPair holds the bar for user-selected and other sources.
type ThresholdPair struct {
	Selected int `yaml:"selected"`
	Default  int `yaml:"default"`
}

// Thresholds is keyed by topic type then source type.
type Thresholds map[TopicType]map[SourceType]ThresholdPair

// Config holds every tunable weight and threshold.
type Config struct {
	Keyword    KeywordWeights  `yaml:"keyword"`
	Regional   RegionalWeights `yaml:"regional"`
	Thresholds Thresholds      `yaml:"thresholds"`
}

// DefaultConfig returns the default weights and thresholds.
func DefaultConfig() *Config {
	return &Config{
		Keyword: KeywordWeights{
			TitleWeight:        10,
			TitleCap:           3,
			LeadWeight:         5,
			LeadCap:            3,
			BodyWeight:         2,
			BodyCap:            5,
			LeadChars:          500,
			FuzzyWeight:        1,
			Multiplier:         1.5,
			Floor:              5,
			MinVariationLength: 4,
		},
		Regional: RegionalWeights{
			KeywordWeight:            8,
			LandmarkWeight:           12,
			OrganizationWeight:       10,
			PostcodeWeight:           20,
			TermCap:                  3,
			RegionTitleBonus:         25,
			RegionBodyBonus:          15,
			TrustBaseSelected:        20,
			TrustBase:                10,
			CompetingNamePenalty:     15,
			CompetingLandmarkPenalty: 8,
			MaxCompetingPenalty:      45,
			CompetingLandmarkMargin:  2,
			SourceMultipliers: map[SourceType]float64{
				SourceHyperlocal: 1.3,
				SourceRegional:   1.1,
				SourceNational:   0.9,
			},
			MinConfidence:        10,
			MaxConfidence:        100,
			OverwhelmingNegative: -30,
		},
		Thresholds: Thresholds{
			TopicKeyword: {
				SourceHyperlocal: {Selected: 8, Default: 20},
				SourceRegional:   {Selected: 10, Default: 25},
				SourceNational:   {Selected: 12, Default: 30},
			},
			TopicRegional: {
				SourceHyperlocal: {Selected: 15, Default: 30},
				SourceRegional:   {Selected: 20, Default: 35},
				SourceNational:   {Selected: 30, Default: 50},
			},
		},
	}
}
