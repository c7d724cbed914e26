package service

import (
	"errors"

	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

// ErrRuleNotFound means no processing rule matched and no default rule is
// configured. ProcessingConfigService recovers from it with hardcoded
// defaults; it never reaches the pipeline.
var ErrRuleNotFound = errors.New("no matching processing rule")

// RuleResolver picks the single processing rule governing a category and
// platform pair.
type RuleResolver struct {
	rules  repository.ProcessingRuleRepository
	logger *zap.Logger
}

func NewRuleResolver(rules repository.ProcessingRuleRepository, logger *zap.Logger) *RuleResolver {
	return &RuleResolver{rules: rules, logger: logger}
}

// Resolve returns the lowest-priority-number active rule matching the
// category and platforms, falling back to the system default rule. Platform
// arguments may be empty, which skips that filter; a rule with a NULL
// platform matches any value.
func (r *RuleResolver) Resolve(category models.ContentCategory, sourcePlatform, targetPlatform string) (*models.ProcessingRule, error) {
	matches, err := r.rules.FindMatching(category, sourcePlatform, targetPlatform)
	if err != nil {
		r.logger.Error("Failed to query processing rules",
			zap.String("category", string(category)),
			zap.Error(err))
		return nil, err
	}

	if len(matches) > 0 {
		rule := matches[0]
		r.logger.Info("Selected processing rule",
			zap.String("rule", rule.Name),
			zap.Int("priority", rule.Priority))
		return &rule, nil
	}

	defaultRule, err := r.rules.FindDefault()
	if err != nil {
		r.logger.Error("Failed to query default processing rule", zap.Error(err))
		return nil, err
	}
	if defaultRule != nil {
		r.logger.Info("Using default processing rule", zap.String("rule", defaultRule.Name))
		return defaultRule, nil
	}

	r.logger.Warn("No processing rule found",
		zap.String("category", string(category)),
		zap.String("source_platform", sourcePlatform),
		zap.String("target_platform", targetPlatform))
	return nil, ErrRuleNotFound
}
