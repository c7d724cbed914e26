package service

import (
	"errors"
	"testing"

	"backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeHistoryRepo struct {
	created []*models.ProcessingHistory
	err     error
}

func (f *fakeHistoryRepo) Create(history *models.ProcessingHistory) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, history)
	return nil
}

func (f *fakeHistoryRepo) GetByArticleID(articleID int64) ([]models.ProcessingHistory, error) {
	return nil, nil
}

func (f *fakeHistoryRepo) GetRecent(limit int) ([]models.ProcessingHistory, error) {
	return nil, nil
}

func newConfigService(classRules *fakeClassificationRules, procRules *fakeProcessingRules, history *fakeHistoryRepo) *ProcessingConfigService {
	logger := zap.NewNop()
	return NewProcessingConfigService(
		NewClassifier(classRules, logger),
		NewRuleResolver(procRules, logger),
		procRules,
		history,
		"toutiao",
		logger,
	)
}

func TestGetConfigurationWithMatchingRule(t *testing.T) {
	classRules := &fakeClassificationRules{rules: []models.ClassificationRule{
		titleRule(models.CategoryTechnical, "kubernetes", 0.8, 0.3, 10),
	}}
	procRules := &fakeProcessingRules{rules: []models.ProcessingRule{
		{
			ID:                    5,
			Name:                  "tech-rule",
			ContentCategory:       models.CategoryTechnical,
			ProcessingStrategy:    models.StrategyAggressive,
			TranslationPromptID:   int64Ptr(11),
			PrimaryProviderID:     int64Ptr(21),
			FallbackProviderID:    int64Ptr(22),
			AIDetectionThreshold:  15.0,
			MaxOptimizationRounds: 5,
			QualityThreshold:      0.9,
			Priority:              10,
			IsActive:              true,
		},
	}}

	svc := newConfigService(classRules, procRules, &fakeHistoryRepo{})

	config := svc.GetProcessingConfiguration(&models.Article{
		ID:    1,
		Title: "Kubernetes operators explained",
	})

	assert.Equal(t, models.CategoryTechnical, config.ContentCategory)
	assert.InDelta(t, 0.8, config.ClassificationConfidence, 1e-9)
	require.NotNil(t, config.ProcessingRuleID)
	assert.Equal(t, int64(5), *config.ProcessingRuleID)
	assert.Equal(t, models.StrategyAggressive, config.ProcessingStrategy)
	assert.Equal(t, 15.0, config.AIDetectionThreshold)
	assert.Equal(t, 5, config.MaxOptimizationRounds)
	assert.Equal(t, 0.9, config.QualityThreshold)
	assert.Equal(t, int64Ptr(11), config.Prompts.Translation)
	assert.Nil(t, config.Prompts.Optimization)
	assert.Equal(t, int64Ptr(21), config.Providers.Primary)
	assert.Equal(t, int64Ptr(22), config.Providers.Fallback)
}

func TestGetConfigurationDefaultsWhenNoRule(t *testing.T) {
	svc := newConfigService(&fakeClassificationRules{}, &fakeProcessingRules{}, &fakeHistoryRepo{})

	config := svc.GetProcessingConfiguration(&models.Article{ID: 1, Title: "Anything"})

	assert.Equal(t, models.CategoryGeneral, config.ContentCategory)
	assert.Equal(t, 0.0, config.ClassificationConfidence)
	assert.Nil(t, config.ProcessingRuleID)
	assert.Equal(t, models.StrategyStandard, config.ProcessingStrategy)
	assert.Equal(t, 25.0, config.AIDetectionThreshold)
	assert.Equal(t, 3, config.MaxOptimizationRounds)
	assert.Equal(t, 0.8, config.QualityThreshold)
	assert.Nil(t, config.Providers.Primary)
}

func TestGetConfigurationDefaultsOnResolverError(t *testing.T) {
	procRules := &fakeProcessingRules{err: errors.New("connection refused")}
	svc := newConfigService(&fakeClassificationRules{}, procRules, &fakeHistoryRepo{})

	config := svc.GetProcessingConfiguration(&models.Article{ID: 1, Title: "Anything"})

	// Infrastructure failure still yields a usable configuration.
	assert.Equal(t, models.StrategyStandard, config.ProcessingStrategy)
	assert.Equal(t, 25.0, config.AIDetectionThreshold)
}

func TestRecordProcessingHistory(t *testing.T) {
	procRules := &fakeProcessingRules{}
	history := &fakeHistoryRepo{}
	svc := newConfigService(&fakeClassificationRules{}, procRules, history)

	config := ProcessingConfiguration{
		ContentCategory:          models.CategoryTechnical,
		ClassificationConfidence: 0.8,
		ProcessingRuleID:         int64Ptr(5),
	}
	result := PipelineResult{
		Steps:          []string{"translate", "optimize"},
		Success:        true,
		ProcessingTime: 12.5,
	}

	svc.RecordProcessingHistory(42, config, result)

	require.Len(t, history.created, 1)
	row := history.created[0]
	assert.Equal(t, int64(42), row.ArticleID)
	assert.Equal(t, models.CategoryTechnical, row.ContentCategory)
	assert.True(t, row.Success)

	require.Len(t, procRules.outcomes, 1)
	assert.Equal(t, recordedOutcome{ruleID: 5, success: true, processingTime: 12.5}, procRules.outcomes[0])
}

func TestRecordProcessingHistorySwallowsErrors(t *testing.T) {
	history := &fakeHistoryRepo{err: errors.New("disk full")}
	procRules := &fakeProcessingRules{}
	svc := newConfigService(&fakeClassificationRules{}, procRules, history)

	// Must not panic or propagate; aggregates are skipped when the audit row
	// was not written.
	svc.RecordProcessingHistory(42, ProcessingConfiguration{ProcessingRuleID: int64Ptr(5)}, PipelineResult{})

	assert.Empty(t, procRules.outcomes)
}
