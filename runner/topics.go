package runner

import (
	"strings"

	"github.com/pevans/newsgather/relevance"
)

// Topics is the set of configured relevance targets.
type Topics []relevance.TopicConfig

// For returns the topics a source is scored against: regional topics for the
// source's region and every keyword topic. A source whose region has no
// configured topic gets a bare regional topic named after the region.
func (t Topics) For(region string) []relevance.TopicConfig {
	region = strings.TrimSpace(region)

	var out []relevance.TopicConfig
	regionalFound := false
	for _, topic := range t {
		switch topic.TopicType {
		case relevance.TopicRegional:
			if region != "" && strings.EqualFold(topic.Region, region) {
				out = append(out, topic)
				regionalFound = true
			}
		case relevance.TopicKeyword:
			out = append(out, topic)
		}
	}

	if !regionalFound && region != "" {
		bare := relevance.TopicConfig{
			Name:      strings.ToLower(region),
			TopicType: relevance.TopicRegional,
			Region:    region,
		}
		out = append([]relevance.TopicConfig{bare}, out...)
	}
	return out
}

// Competing returns the regional topics for every region other than the
// given topic's.
func (t Topics) Competing(topic relevance.TopicConfig) []relevance.TopicConfig {
	if topic.TopicType != relevance.TopicRegional {
		return nil
	}

	var out []relevance.TopicConfig
	for _, other := range t {
		if other.TopicType != relevance.TopicRegional || other.Region == "" {
			continue
		}
		if strings.EqualFold(other.Region, topic.Region) {
			continue
		}
		out = append(out, other)
	}
	return out
}

// Lookup finds a topic by name, case-insensitively.
func (t Topics) Lookup(name string) (relevance.TopicConfig, bool) {
	for _, topic := range t {
		if strings.EqualFold(topic.Name, name) {
			return topic, true
		}
	}
	return relevance.TopicConfig{}, false
}
