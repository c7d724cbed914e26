package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseContentCategory(t *testing.T) {
	category, err := ParseContentCategory("technical")
	require.NoError(t, err)
	assert.Equal(t, CategoryTechnical, category)

	_, err = ParseContentCategory("poetry")
	assert.Error(t, err)

	_, err = ParseContentCategory("")
	assert.Error(t, err)
}

func TestParseProcessingStrategy(t *testing.T) {
	strategy, err := ParseProcessingStrategy("aggressive")
	require.NoError(t, err)
	assert.Equal(t, StrategyAggressive, strategy)

	_, err = ParseProcessingStrategy("reckless")
	assert.Error(t, err)
}

func TestParseProviderType(t *testing.T) {
	providerType, err := ParseProviderType("detection")
	require.NoError(t, err)
	assert.Equal(t, ProviderTypeDetection, providerType)

	_, err = ParseProviderType("gpu")
	assert.Error(t, err)
}

func TestProcessingRuleMatchesPlatforms(t *testing.T) {
	wildcard := &ProcessingRule{}
	assert.True(t, wildcard.MatchesPlatforms("medium", "toutiao"))
	assert.True(t, wildcard.MatchesPlatforms("", ""))

	src := "medium"
	scoped := &ProcessingRule{SourcePlatform: &src}
	assert.True(t, scoped.MatchesPlatforms("medium", "toutiao"))
	assert.False(t, scoped.MatchesPlatforms("substack", "toutiao"))
	// Empty caller platform skips the filter.
	assert.True(t, scoped.MatchesPlatforms("", "toutiao"))
}
