package service

import (
	"regexp"
	"strings"

	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

// contentSampleSize caps how much of the article body participates in
// keyword scoring. Bodies can run to tens of thousands of characters; the
// opening section is what decides the category.
const contentSampleSize = 1000

// Null-result confidences. The two values are distinct on purpose: 0.5 means
// the rule table is empty, 0.3 means rules exist but none qualified. The
// dashboard separates the two cases.
const (
	confidenceNoRules = 0.5
	confidenceNoMatch = 0.3
	confidenceFailed  = 0.0
)

// Classifier scores articles against the active classification rules and
// assigns a content category with a confidence in [0,1].
type Classifier struct {
	rules  repository.ClassificationRuleRepository
	logger *zap.Logger
}

func NewClassifier(rules repository.ClassificationRuleRepository, logger *zap.Logger) *Classifier {
	return &Classifier{rules: rules, logger: logger}
}

// Classify returns the best-scoring qualifying category for the article.
// It never fails: any internal fault degrades to (general, 0.0) so the
// pipeline always gets a routable answer.
func (c *Classifier) Classify(article *models.Article) (models.ContentCategory, float64) {
	rules, err := c.rules.GetActiveRules()
	if err != nil {
		c.logger.Error("Failed to load classification rules", zap.Error(err))
		return models.CategoryGeneral, confidenceFailed
	}

	if len(rules) == 0 {
		c.logger.Warn("No classification rules found, using general category")
		return models.CategoryGeneral, confidenceNoRules
	}

	type candidate struct {
		score    float64
		priority int
	}
	scores := make(map[models.ContentCategory]candidate)

	for i := range rules {
		rule := &rules[i]

		score := c.scoreRule(article, rule)
		if score < rule.ClassificationThreshold {
			continue
		}

		cur, seen := scores[rule.TargetCategory]
		if !seen || score > cur.score || (score == cur.score && rule.Priority < cur.priority) {
			scores[rule.TargetCategory] = candidate{score: score, priority: rule.Priority}
		}
	}

	if len(scores) == 0 {
		c.logger.Info("No category met threshold, using general",
			zap.Int64("article_id", article.ID))
		return models.CategoryGeneral, confidenceNoMatch
	}

	// Winner is the category with the highest score. Ties go to the lower
	// rule priority number, then the lexicographically smaller category, so
	// the outcome never depends on map iteration order.
	var (
		bestCategory models.ContentCategory
		best         candidate
		found        bool
	)
	for category, cand := range scores {
		if !found ||
			cand.score > best.score ||
			(cand.score == best.score && cand.priority < best.priority) ||
			(cand.score == best.score && cand.priority == best.priority && category < bestCategory) {
			bestCategory, best, found = category, cand, true
		}
	}

	c.logger.Info("Article classified",
		zap.Int64("article_id", article.ID),
		zap.String("category", string(bestCategory)),
		zap.Float64("confidence", best.score))

	return bestCategory, best.score
}

// scoreRule computes the weighted composite score of one rule against the
// article, capped at 1.0.
func (c *Classifier) scoreRule(article *models.Article, rule *models.ClassificationRule) float64 {
	total := 0.0

	if len(rule.TitleKeywords) > 0 && article.Title != "" {
		total += keywordRatio(strings.ToLower(article.Title), rule.TitleKeywords) * rule.TitleWeight
	}

	if len(rule.ContentKeywords) > 0 && article.ContentOriginal != "" {
		sample := strings.ToLower(article.ContentOriginal)
		if runes := []rune(sample); len(runes) > contentSampleSize {
			sample = string(runes[:contentSampleSize])
		}
		total += keywordRatio(sample, rule.ContentKeywords) * rule.ContentWeight
	}

	if len(rule.URLPatterns) > 0 && article.SourceURL != "" {
		total += c.patternRatio(strings.ToLower(article.SourceURL), rule.URLPatterns) * rule.URLWeight
	}

	if len(rule.SourceDomains) > 0 && article.SourceURL != "" {
		total += domainScore(article.SourceURL, rule.SourceDomains) * rule.DomainWeight
	}

	if total > 1.0 {
		total = 1.0
	}
	return total
}

// keywordRatio is the fraction of keywords found as case-insensitive
// substrings of the text. Always in [0,1].
func keywordRatio(text string, keywords []string) float64 {
	if len(keywords) == 0 || text == "" {
		return 0.0
	}

	matches := 0
	for _, keyword := range keywords {
		if strings.Contains(text, strings.ToLower(keyword)) {
			matches++
		}
	}
	return float64(matches) / float64(len(keywords))
}

// patternRatio is the fraction of regex patterns that match the text. A
// pattern that fails to compile counts as unmatched; one bad stored pattern
// must not take classification down.
func (c *Classifier) patternRatio(text string, patterns []string) float64 {
	if len(patterns) == 0 || text == "" {
		return 0.0
	}

	matches := 0
	for _, pattern := range patterns {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			c.logger.Warn("Skipping invalid URL pattern",
				zap.String("pattern", pattern),
				zap.Error(err))
			continue
		}
		if re.MatchString(text) {
			matches++
		}
	}
	return float64(matches) / float64(len(patterns))
}

// domainScore is 1.0 when any listed domain appears in the URL, else 0.
func domainScore(url string, domains []string) float64 {
	if len(domains) == 0 || url == "" {
		return 0.0
	}

	lowered := strings.ToLower(url)
	for _, domain := range domains {
		if strings.Contains(lowered, strings.ToLower(domain)) {
			return 1.0
		}
	}
	return 0.0
}
