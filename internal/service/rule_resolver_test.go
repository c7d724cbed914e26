package service

import (
	"errors"
	"sort"
	"testing"

	"backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProcessingRules struct {
	rules       []models.ProcessingRule
	defaultRule *models.ProcessingRule
	err         error

	outcomes []recordedOutcome
}

type recordedOutcome struct {
	ruleID         int64
	success        bool
	processingTime float64
}

func (f *fakeProcessingRules) FindMatching(category models.ContentCategory, sourcePlatform, targetPlatform string) ([]models.ProcessingRule, error) {
	if f.err != nil {
		return nil, f.err
	}

	var matches []models.ProcessingRule
	for _, rule := range f.rules {
		if !rule.IsActive || rule.ContentCategory != category {
			continue
		}
		if rule.MatchesPlatforms(sourcePlatform, targetPlatform) {
			matches = append(matches, rule)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Priority < matches[j].Priority })
	return matches, nil
}

func (f *fakeProcessingRules) FindDefault() (*models.ProcessingRule, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.defaultRule, nil
}

func (f *fakeProcessingRules) GetAll() ([]models.ProcessingRule, error) { return f.rules, f.err }
func (f *fakeProcessingRules) GetByID(id int64) (*models.ProcessingRule, error) {
	return nil, nil
}
func (f *fakeProcessingRules) Create(rule *models.ProcessingRule) error { return nil }
func (f *fakeProcessingRules) Update(rule *models.ProcessingRule) error { return nil }
func (f *fakeProcessingRules) Delete(id int64) error                    { return nil }

func (f *fakeProcessingRules) RecordOutcome(ruleID int64, success bool, processingTime float64) error {
	f.outcomes = append(f.outcomes, recordedOutcome{ruleID, success, processingTime})
	return nil
}

func strPtr(s string) *string { return &s }

func TestResolvePriorityOrder(t *testing.T) {
	repo := &fakeProcessingRules{
		rules: []models.ProcessingRule{
			{ID: 1, Name: "tech-backup", ContentCategory: models.CategoryTechnical, Priority: 20, IsActive: true},
			{ID: 2, Name: "tech-main", ContentCategory: models.CategoryTechnical, Priority: 10, IsActive: true},
		},
	}
	resolver := NewRuleResolver(repo, zap.NewNop())

	rule, err := resolver.Resolve(models.CategoryTechnical, "", "")

	require.NoError(t, err)
	assert.Equal(t, "tech-main", rule.Name)
}

func TestResolvePlatformFilters(t *testing.T) {
	repo := &fakeProcessingRules{
		rules: []models.ProcessingRule{
			{ID: 1, Name: "medium-only", ContentCategory: models.CategoryNews, SourcePlatform: strPtr("medium"), Priority: 10, IsActive: true},
			{ID: 2, Name: "any-platform", ContentCategory: models.CategoryNews, Priority: 20, IsActive: true},
		},
	}
	resolver := NewRuleResolver(repo, zap.NewNop())

	rule, err := resolver.Resolve(models.CategoryNews, "medium", "toutiao")
	require.NoError(t, err)
	assert.Equal(t, "medium-only", rule.Name)

	// A different source platform falls through to the wildcard rule.
	rule, err = resolver.Resolve(models.CategoryNews, "substack", "toutiao")
	require.NoError(t, err)
	assert.Equal(t, "any-platform", rule.Name)
}

func TestResolveFallsBackToDefault(t *testing.T) {
	repo := &fakeProcessingRules{
		defaultRule: &models.ProcessingRule{ID: 7, Name: "catch-all", IsDefault: true, IsActive: true},
	}
	resolver := NewRuleResolver(repo, zap.NewNop())

	rule, err := resolver.Resolve(models.CategoryLifestyle, "", "")

	require.NoError(t, err)
	assert.Equal(t, "catch-all", rule.Name)
}

func TestResolveNotFound(t *testing.T) {
	resolver := NewRuleResolver(&fakeProcessingRules{}, zap.NewNop())

	_, err := resolver.Resolve(models.CategoryLifestyle, "", "")

	assert.ErrorIs(t, err, ErrRuleNotFound)
}

func TestResolveRepositoryError(t *testing.T) {
	repo := &fakeProcessingRules{err: errors.New("connection refused")}
	resolver := NewRuleResolver(repo, zap.NewNop())

	_, err := resolver.Resolve(models.CategoryTechnical, "", "")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRuleNotFound)
}
