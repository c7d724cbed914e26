package service

import (
	"errors"
	"strings"
	"testing"

	"backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClassificationRules struct {
	rules []models.ClassificationRule
	err   error
}

func (f *fakeClassificationRules) GetActiveRules() ([]models.ClassificationRule, error) {
	return f.rules, f.err
}
func (f *fakeClassificationRules) GetAll() ([]models.ClassificationRule, error) { return f.rules, f.err }
func (f *fakeClassificationRules) GetByID(id int64) (*models.ClassificationRule, error) {
	return nil, nil
}
func (f *fakeClassificationRules) Create(rule *models.ClassificationRule) error { return nil }
func (f *fakeClassificationRules) Update(rule *models.ClassificationRule) error { return nil }
func (f *fakeClassificationRules) Delete(id int64) error                        { return nil }

func newTestClassifier(rules []models.ClassificationRule, err error) *Classifier {
	return NewClassifier(&fakeClassificationRules{rules: rules, err: err}, zap.NewNop())
}

func titleRule(category models.ContentCategory, keyword string, weight, threshold float64, priority int) models.ClassificationRule {
	return models.ClassificationRule{
		Name:                    string(category) + "-rule",
		TargetCategory:          category,
		TitleKeywords:           []string{keyword},
		TitleWeight:             weight,
		ClassificationThreshold: threshold,
		IsActive:                true,
		Priority:                priority,
	}
}

func TestClassifyNoRules(t *testing.T) {
	classifier := newTestClassifier(nil, nil)

	category, confidence := classifier.Classify(&models.Article{Title: "Anything"})

	assert.Equal(t, models.CategoryGeneral, category)
	assert.Equal(t, 0.5, confidence)
}

func TestClassifyNoRuleQualifies(t *testing.T) {
	rules := []models.ClassificationRule{
		titleRule(models.CategoryTechnical, "kubernetes", 0.4, 0.9, 10),
	}
	classifier := newTestClassifier(rules, nil)

	category, confidence := classifier.Classify(&models.Article{Title: "Kubernetes networking deep dive"})

	assert.Equal(t, models.CategoryGeneral, category)
	assert.Equal(t, 0.3, confidence)
}

func TestClassifyRepositoryError(t *testing.T) {
	classifier := newTestClassifier(nil, errors.New("connection refused"))

	category, confidence := classifier.Classify(&models.Article{Title: "Anything"})

	assert.Equal(t, models.CategoryGeneral, category)
	assert.Equal(t, 0.0, confidence)
}

func TestClassifySingleRule(t *testing.T) {
	rules := []models.ClassificationRule{
		titleRule(models.CategoryTechnical, "kubernetes", 0.4, 0.3, 10),
	}
	classifier := newTestClassifier(rules, nil)

	category, confidence := classifier.Classify(&models.Article{Title: "Kubernetes 101"})

	assert.Equal(t, models.CategoryTechnical, category)
	assert.InDelta(t, 0.4, confidence, 1e-9)
}

func TestClassifyHighestScoreWins(t *testing.T) {
	rules := []models.ClassificationRule{
		titleRule(models.CategoryNews, "release", 0.7, 0.1, 10),
		titleRule(models.CategoryTechnical, "release", 0.9, 0.1, 20),
	}
	classifier := newTestClassifier(rules, nil)

	category, confidence := classifier.Classify(&models.Article{Title: "New release announced"})

	assert.Equal(t, models.CategoryTechnical, category)
	assert.InDelta(t, 0.9, confidence, 1e-9)
}

func TestClassifyTieBreak(t *testing.T) {
	t.Run("lower priority number wins", func(t *testing.T) {
		rules := []models.ClassificationRule{
			titleRule(models.CategoryNews, "launch", 0.6, 0.1, 20),
			titleRule(models.CategoryBusiness, "launch", 0.6, 0.1, 10),
		}
		classifier := newTestClassifier(rules, nil)

		category, _ := classifier.Classify(&models.Article{Title: "Product launch"})
		assert.Equal(t, models.CategoryBusiness, category)
	})

	t.Run("equal priority falls back to category order", func(t *testing.T) {
		rules := []models.ClassificationRule{
			titleRule(models.CategoryNews, "launch", 0.6, 0.1, 10),
			titleRule(models.CategoryBusiness, "launch", 0.6, 0.1, 10),
		}
		classifier := newTestClassifier(rules, nil)

		category, _ := classifier.Classify(&models.Article{Title: "Product launch"})
		assert.Equal(t, models.CategoryBusiness, category) // "business" < "news"
	})
}

func TestClassifyZeroThresholdAlwaysQualifies(t *testing.T) {
	rules := []models.ClassificationRule{
		titleRule(models.CategoryLifestyle, "gardening", 0.5, 0.0, 10),
	}
	classifier := newTestClassifier(rules, nil)

	// Nothing matches, so the rule scores 0.0 — but a zero threshold still
	// qualifies it, and its category wins over the no-match fallback.
	category, confidence := classifier.Classify(&models.Article{Title: "Quarterly earnings recap"})

	assert.Equal(t, models.CategoryLifestyle, category)
	assert.Equal(t, 0.0, confidence)
}

func TestClassifyScoreClamped(t *testing.T) {
	rule := models.ClassificationRule{
		TargetCategory:          models.CategoryTechnical,
		TitleKeywords:           []string{"go"},
		ContentKeywords:         []string{"go"},
		TitleWeight:             0.8,
		ContentWeight:           0.8,
		ClassificationThreshold: 0.1,
		IsActive:                true,
	}
	classifier := newTestClassifier([]models.ClassificationRule{rule}, nil)

	_, confidence := classifier.Classify(&models.Article{
		Title:           "go generics",
		ContentOriginal: "go modules explained",
	})

	assert.Equal(t, 1.0, confidence)
}

func TestClassifyPartialKeywordMatch(t *testing.T) {
	rule := models.ClassificationRule{
		TargetCategory:          models.CategoryTechnical,
		TitleKeywords:           []string{"docker", "terraform"},
		TitleWeight:             1.0,
		ClassificationThreshold: 0.1,
		IsActive:                true,
	}
	classifier := newTestClassifier([]models.ClassificationRule{rule}, nil)

	_, confidence := classifier.Classify(&models.Article{Title: "Docker for beginners"})

	assert.InDelta(t, 0.5, confidence, 1e-9) // 1 of 2 keywords
}

func TestClassifyContentSampleLimit(t *testing.T) {
	rule := models.ClassificationRule{
		TargetCategory:          models.CategoryTechnical,
		ContentKeywords:         []string{"kubernetes"},
		ContentWeight:           1.0,
		ClassificationThreshold: 0.1,
		IsActive:                true,
	}
	classifier := newTestClassifier([]models.ClassificationRule{rule}, nil)

	// Keyword only appears beyond the scored sample.
	content := strings.Repeat("x", contentSampleSize) + " kubernetes"
	category, confidence := classifier.Classify(&models.Article{ContentOriginal: content})

	assert.Equal(t, models.CategoryGeneral, category)
	assert.Equal(t, 0.3, confidence)
}

func TestClassifyURLPatternsAndDomains(t *testing.T) {
	rule := models.ClassificationRule{
		TargetCategory:          models.CategoryTutorial,
		URLPatterns:             []string{`/tutorials?/`},
		SourceDomains:           []string{"dev.to"},
		URLWeight:               0.5,
		DomainWeight:            0.5,
		ClassificationThreshold: 0.9,
		IsActive:                true,
	}
	classifier := newTestClassifier([]models.ClassificationRule{rule}, nil)

	category, confidence := classifier.Classify(&models.Article{
		SourceURL: "https://dev.to/tutorial/intro-to-go",
	})

	require.Equal(t, models.CategoryTutorial, category)
	assert.InDelta(t, 1.0, confidence, 1e-9)
}

func TestClassifyInvalidPatternSkipped(t *testing.T) {
	rule := models.ClassificationRule{
		TargetCategory:          models.CategoryTutorial,
		URLPatterns:             []string{`[unclosed`, `guide`},
		URLWeight:               1.0,
		ClassificationThreshold: 0.1,
		IsActive:                true,
	}
	classifier := newTestClassifier([]models.ClassificationRule{rule}, nil)

	category, confidence := classifier.Classify(&models.Article{
		SourceURL: "https://example.com/guide/one",
	})

	// Bad pattern counts as unmatched, good one still scores.
	assert.Equal(t, models.CategoryTutorial, category)
	assert.InDelta(t, 0.5, confidence, 1e-9)
}

func TestKeywordRatioBounds(t *testing.T) {
	assert.Equal(t, 0.0, keywordRatio("", []string{"a"}))
	assert.Equal(t, 0.0, keywordRatio("text", nil))
	assert.Equal(t, 1.0, keywordRatio("a b c", []string{"a", "b", "c"}))
}

func TestDomainScore(t *testing.T) {
	assert.Equal(t, 1.0, domainScore("https://News.YCombinator.com/item", []string{"news.ycombinator.com"}))
	assert.Equal(t, 0.0, domainScore("https://example.com", []string{"dev.to"}))
}
