package service

import (
	"errors"

	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

// Defaults applied when no processing rule matches and no default rule is
// configured. The pipeline must always receive a usable configuration.
const (
	defaultAIDetectionThreshold  = 25.0
	defaultMaxOptimizationRounds = 3
	defaultQualityThreshold      = 0.8
)

// PromptBindings carries the prompt-template ids a rule binds per stage.
type PromptBindings struct {
	Translation     *int64 `json:"translation"`
	Optimization    *int64 `json:"optimization"`
	TitleGeneration *int64 `json:"title_generation"`
}

// ProviderBindings carries the provider ids a rule binds. Only ids: the
// runtime choice between them happens in ProviderSelector when the pipeline
// stage actually issues a request.
type ProviderBindings struct {
	Primary  *int64 `json:"primary"`
	Fallback *int64 `json:"fallback"`
}

// ProcessingConfiguration is the assembled decision handed to the pipeline.
type ProcessingConfiguration struct {
	ContentCategory          models.ContentCategory    `json:"content_category"`
	ClassificationConfidence float64                   `json:"classification_confidence"`
	ProcessingRuleID         *int64                    `json:"processing_rule_id"`
	ProcessingStrategy       models.ProcessingStrategy `json:"processing_strategy"`
	AIDetectionThreshold     float64                   `json:"ai_detection_threshold"`
	MaxOptimizationRounds    int                       `json:"max_optimization_rounds"`
	QualityThreshold         float64                   `json:"quality_threshold"`
	Prompts                  PromptBindings            `json:"prompts"`
	Providers                ProviderBindings          `json:"providers"`
}

// PipelineResult is what the pipeline reports back after running with a
// configuration, for the history record and rule aggregates.
type PipelineResult struct {
	Steps              []string `json:"steps"`
	Success            bool     `json:"success"`
	Error              string   `json:"error,omitempty"`
	ProcessingTime     float64  `json:"processing_time"` // seconds
	FinalAIProbability float64  `json:"final_ai_probability"`
	OptimizationRounds int      `json:"optimization_rounds"`
	QualityScore       float64  `json:"quality_score"`
}

// ProcessingConfigService orchestrates classification and rule resolution
// into one configuration and records outcomes for analytics.
type ProcessingConfigService struct {
	classifier     *Classifier
	resolver       *RuleResolver
	rules          repository.ProcessingRuleRepository
	history        repository.HistoryRepository
	targetPlatform string
	logger         *zap.Logger
}

func NewProcessingConfigService(
	classifier *Classifier,
	resolver *RuleResolver,
	rules repository.ProcessingRuleRepository,
	history repository.HistoryRepository,
	targetPlatform string,
	logger *zap.Logger,
) *ProcessingConfigService {
	return &ProcessingConfigService{
		classifier:     classifier,
		resolver:       resolver,
		rules:          rules,
		history:        history,
		targetPlatform: targetPlatform,
		logger:         logger,
	}
}

// GetProcessingConfiguration classifies the article, resolves its processing
// rule and assembles the configuration. It never fails: when no rule exists,
// or anything goes wrong internally, it falls back to the default
// configuration for whatever category was determined.
func (s *ProcessingConfigService) GetProcessingConfiguration(article *models.Article) ProcessingConfiguration {
	category, confidence := s.classifier.Classify(article)

	rule, err := s.resolver.Resolve(category, article.SourcePlatform, s.targetPlatform)
	if err != nil {
		if !errors.Is(err, ErrRuleNotFound) {
			s.logger.Error("Rule resolution failed, using defaults",
				zap.Int64("article_id", article.ID),
				zap.Error(err))
		}
		return s.defaultConfiguration(category)
	}

	config := ProcessingConfiguration{
		ContentCategory:          category,
		ClassificationConfidence: confidence,
		ProcessingRuleID:         &rule.ID,
		ProcessingStrategy:       rule.ProcessingStrategy,
		AIDetectionThreshold:     rule.AIDetectionThreshold,
		MaxOptimizationRounds:    rule.MaxOptimizationRounds,
		QualityThreshold:         rule.QualityThreshold,
		Prompts: PromptBindings{
			Translation:     rule.TranslationPromptID,
			Optimization:    rule.OptimizationPromptID,
			TitleGeneration: rule.TitleGenerationPromptID,
		},
		Providers: ProviderBindings{
			Primary:  rule.PrimaryProviderID,
			Fallback: rule.FallbackProviderID,
		},
	}

	s.logger.Info("Generated processing configuration",
		zap.Int64("article_id", article.ID),
		zap.String("category", string(category)),
		zap.Int64("rule_id", rule.ID))

	return config
}

// defaultConfiguration is the hardcoded fallback: standard strategy, stock
// thresholds, no prompt or provider bindings. Confidence is reported as 0
// regardless of what classification scored; a defaulted configuration is not
// a classified one.
func (s *ProcessingConfigService) defaultConfiguration(category models.ContentCategory) ProcessingConfiguration {
	return ProcessingConfiguration{
		ContentCategory:          category,
		ClassificationConfidence: 0.0,
		ProcessingRuleID:         nil,
		ProcessingStrategy:       models.StrategyStandard,
		AIDetectionThreshold:     defaultAIDetectionThreshold,
		MaxOptimizationRounds:    defaultMaxOptimizationRounds,
		QualityThreshold:         defaultQualityThreshold,
	}
}

// RecordProcessingHistory persists one audit row for a completed pipeline
// run and folds the outcome into the rule's usage aggregates. Failures are
// logged and swallowed; analytics must never fail the pipeline.
func (s *ProcessingConfigService) RecordProcessingHistory(articleID int64, config ProcessingConfiguration, result PipelineResult) {
	steps := make([]interface{}, len(result.Steps))
	for i, step := range result.Steps {
		steps[i] = step
	}

	history := &models.ProcessingHistory{
		ArticleID:                articleID,
		ProcessingRuleID:         config.ProcessingRuleID,
		ContentCategory:          config.ContentCategory,
		ClassificationConfidence: config.ClassificationConfidence,
		UsedPrompts: models.JSONMap{
			"translation":      config.Prompts.Translation,
			"optimization":     config.Prompts.Optimization,
			"title_generation": config.Prompts.TitleGeneration,
		},
		UsedProviders: models.JSONMap{
			"primary":  config.Providers.Primary,
			"fallback": config.Providers.Fallback,
		},
		ProcessingSteps:    models.JSONMap{"steps": steps},
		Success:            result.Success,
		ErrorMessage:       result.Error,
		ProcessingTime:     result.ProcessingTime,
		FinalAIProbability: result.FinalAIProbability,
		OptimizationRounds: result.OptimizationRounds,
		QualityScore:       result.QualityScore,
	}

	if err := s.history.Create(history); err != nil {
		s.logger.Error("Failed to record processing history",
			zap.Int64("article_id", articleID),
			zap.Error(err))
		return
	}

	if config.ProcessingRuleID != nil {
		if err := s.rules.RecordOutcome(*config.ProcessingRuleID, result.Success, result.ProcessingTime); err != nil {
			s.logger.Error("Failed to update rule usage aggregates",
				zap.Int64("rule_id", *config.ProcessingRuleID),
				zap.Error(err))
		}
	}

	s.logger.Info("Recorded processing history",
		zap.Int64("article_id", articleID),
		zap.Bool("success", result.Success))
}
