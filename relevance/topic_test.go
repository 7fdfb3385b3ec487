package relevance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseSourceType verifies accepted names
func TestParseSourceType(t *testing.T) {
	for in, want := range map[string]SourceType{
		"hyperlocal": SourceHyperlocal,
		" Regional ": SourceRegional,
		"NATIONAL":   SourceNational,
		"":           SourceRegional,
	} {
		got, err := ParseSourceType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseSourceType("blog")
	assert.Error(t, err)
}

// TestTopicConfig_Validate verifies required fields per topic type
func TestTopicConfig_Validate(t *testing.T) {
	assert.NoError(t, TopicConfig{Name: "a", TopicType: TopicKeyword, Keywords: []string{"x"}}.Validate())
	assert.NoError(t, TopicConfig{Name: "b", TopicType: TopicRegional, Region: "Lewes"}.Validate())

	assert.ErrorIs(t, TopicConfig{Name: "c", TopicType: TopicKeyword}.Validate(), ErrInvalidTopic)
	assert.ErrorIs(t, TopicConfig{Name: "d", TopicType: TopicRegional}.Validate(), ErrInvalidTopic)
	assert.ErrorIs(t, TopicConfig{Name: "e", TopicType: "other"}.Validate(), ErrInvalidTopic)
}
