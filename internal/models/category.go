package models

import "fmt"

// ContentCategory is the closed set of classification labels used for routing.
type ContentCategory string

const (
	CategoryTechnical     ContentCategory = "technical"
	CategoryTutorial      ContentCategory = "tutorial"
	CategoryNews          ContentCategory = "news"
	CategoryBusiness      ContentCategory = "business"
	CategoryLifestyle     ContentCategory = "lifestyle"
	CategoryEntertainment ContentCategory = "entertainment"
	CategoryGeneral       ContentCategory = "general"
)

// ParseContentCategory converts a stored string into a ContentCategory,
// rejecting values outside the closed set.
func ParseContentCategory(s string) (ContentCategory, error) {
	switch c := ContentCategory(s); c {
	case CategoryTechnical, CategoryTutorial, CategoryNews, CategoryBusiness,
		CategoryLifestyle, CategoryEntertainment, CategoryGeneral:
		return c, nil
	}
	return "", fmt.Errorf("unknown content category: %q", s)
}

// ProcessingStrategy controls how aggressively the pipeline rewrites content.
type ProcessingStrategy string

const (
	StrategyConservative ProcessingStrategy = "conservative"
	StrategyStandard     ProcessingStrategy = "standard"
	StrategyAggressive   ProcessingStrategy = "aggressive"
	StrategyCustom       ProcessingStrategy = "custom"
)

func ParseProcessingStrategy(s string) (ProcessingStrategy, error) {
	switch ps := ProcessingStrategy(s); ps {
	case StrategyConservative, StrategyStandard, StrategyAggressive, StrategyCustom:
		return ps, nil
	}
	return "", fmt.Errorf("unknown processing strategy: %q", s)
}

// ProviderType distinguishes what kind of upstream a provider is.
type ProviderType string

const (
	ProviderTypeAI        ProviderType = "ai"
	ProviderTypeDetection ProviderType = "detection"
	ProviderTypePublish   ProviderType = "publish"
)

func ParseProviderType(s string) (ProviderType, error) {
	switch pt := ProviderType(s); pt {
	case ProviderTypeAI, ProviderTypeDetection, ProviderTypePublish:
		return pt, nil
	}
	return "", fmt.Errorf("unknown provider type: %q", s)
}
