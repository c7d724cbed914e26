package models

import "time"

// ProcessingRule binds a content category (and optional platform pair) to the
// strategy, prompts and providers the pipeline must use.
type ProcessingRule struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	DisplayName string `db:"display_name" json:"display_name"`
	Description string `db:"description" json:"description"`

	ContentCategory ContentCategory `db:"content_category" json:"content_category"`
	SourcePlatform  *string         `db:"source_platform" json:"source_platform,omitempty"` // nil = any platform
	TargetPlatform  *string         `db:"target_platform" json:"target_platform,omitempty"` // nil = any platform

	ProcessingStrategy ProcessingStrategy `db:"processing_strategy" json:"processing_strategy"`

	TranslationPromptID     *int64 `db:"translation_prompt_id" json:"translation_prompt_id,omitempty"`
	OptimizationPromptID    *int64 `db:"optimization_prompt_id" json:"optimization_prompt_id,omitempty"`
	TitleGenerationPromptID *int64 `db:"title_generation_prompt_id" json:"title_generation_prompt_id,omitempty"`

	PrimaryProviderID  *int64 `db:"primary_provider_id" json:"primary_provider_id,omitempty"`
	FallbackProviderID *int64 `db:"fallback_provider_id" json:"fallback_provider_id,omitempty"`

	AIDetectionThreshold  float64 `db:"ai_detection_threshold" json:"ai_detection_threshold"`
	MaxOptimizationRounds int     `db:"max_optimization_rounds" json:"max_optimization_rounds"`
	QualityThreshold      float64 `db:"quality_threshold" json:"quality_threshold"`

	Priority  int  `db:"priority" json:"priority"` // lower = preferred
	IsActive  bool `db:"is_active" json:"is_active"`
	IsDefault bool `db:"is_default" json:"is_default"`

	// Aggregates maintained by the history recorder, never by resolution.
	UsageCount            int64   `db:"usage_count" json:"usage_count"`
	SuccessRate           float64 `db:"success_rate" json:"success_rate"`
	AverageProcessingTime float64 `db:"average_processing_time" json:"average_processing_time"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	CreatedBy string    `db:"created_by" json:"created_by"`
}

// MatchesPlatforms reports whether the rule applies to the given platform
// pair. A nil platform filter matches any value.
func (r *ProcessingRule) MatchesPlatforms(sourcePlatform, targetPlatform string) bool {
	if r.SourcePlatform != nil && sourcePlatform != "" && *r.SourcePlatform != sourcePlatform {
		return false
	}
	if r.TargetPlatform != nil && targetPlatform != "" && *r.TargetPlatform != targetPlatform {
		return false
	}
	return true
}
