package repository

import (
	"database/sql"
	"errors"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ProcessingRuleRepository defines query and write operations over processing
// rules. FindMatching and FindDefault serve the resolution path; the rest
// serve the admin API and the history recorder.
type ProcessingRuleRepository interface {
	FindMatching(category models.ContentCategory, sourcePlatform, targetPlatform string) ([]models.ProcessingRule, error)
	FindDefault() (*models.ProcessingRule, error)
	GetAll() ([]models.ProcessingRule, error)
	GetByID(id int64) (*models.ProcessingRule, error)
	Create(rule *models.ProcessingRule) error
	Update(rule *models.ProcessingRule) error
	Delete(id int64) error
	RecordOutcome(ruleID int64, success bool, processingTime float64) error
}

type processingRuleRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewProcessingRuleRepository(db *sqlx.DB, logger *zap.Logger) ProcessingRuleRepository {
	return &processingRuleRepository{db: db, logger: logger}
}

const processingRuleColumns = `
	id, name, display_name, description, content_category,
	source_platform, target_platform, processing_strategy,
	translation_prompt_id, optimization_prompt_id, title_generation_prompt_id,
	primary_provider_id, fallback_provider_id,
	ai_detection_threshold, max_optimization_rounds, quality_threshold,
	priority, is_active, is_default,
	usage_count, success_rate, average_processing_time,
	created_at, updated_at, created_by
`

// FindMatching returns active rules for the category whose platform filters
// are either NULL (wildcard) or equal to the given platform, ordered by
// priority ascending. An empty platform argument skips that filter entirely.
func (r *processingRuleRepository) FindMatching(category models.ContentCategory, sourcePlatform, targetPlatform string) ([]models.ProcessingRule, error) {
	var rules []models.ProcessingRule
	query := `SELECT ` + processingRuleColumns + `
		FROM processing_rules
		WHERE is_active = TRUE
		  AND content_category = $1
		  AND ($2 = '' OR source_platform IS NULL OR source_platform = $2)
		  AND ($3 = '' OR target_platform IS NULL OR target_platform = $3)
		ORDER BY priority`

	if err := r.db.Select(&rules, query, category, sourcePlatform, targetPlatform); err != nil {
		r.logger.Error("Failed to query processing rules",
			zap.String("category", string(category)),
			zap.Error(err))
		return nil, err
	}
	return rules, nil
}

func (r *processingRuleRepository) FindDefault() (*models.ProcessingRule, error) {
	var rule models.ProcessingRule
	query := `SELECT ` + processingRuleColumns + `
		FROM processing_rules
		WHERE is_active = TRUE AND is_default = TRUE
		ORDER BY priority
		LIMIT 1`

	if err := r.db.Get(&rule, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *processingRuleRepository) GetAll() ([]models.ProcessingRule, error) {
	var rules []models.ProcessingRule
	query := `SELECT ` + processingRuleColumns + ` FROM processing_rules ORDER BY priority`

	if err := r.db.Select(&rules, query); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *processingRuleRepository) GetByID(id int64) (*models.ProcessingRule, error) {
	var rule models.ProcessingRule
	query := `SELECT ` + processingRuleColumns + ` FROM processing_rules WHERE id = $1`

	if err := r.db.Get(&rule, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// Create inserts the rule. When the rule is marked default, every other
// default rule is demoted in the same transaction so at most one default
// exists at any time.
func (r *processingRuleRepository) Create(rule *models.ProcessingRule) error {
	return r.inTx(func(tx *sqlx.Tx) error {
		if rule.IsDefault {
			if _, err := tx.Exec(`UPDATE processing_rules SET is_default = FALSE WHERE is_default = TRUE`); err != nil {
				return err
			}
		}

		query := `
			INSERT INTO processing_rules (
				name, display_name, description, content_category,
				source_platform, target_platform, processing_strategy,
				translation_prompt_id, optimization_prompt_id, title_generation_prompt_id,
				primary_provider_id, fallback_provider_id,
				ai_detection_threshold, max_optimization_rounds, quality_threshold,
				priority, is_active, is_default, created_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
			RETURNING id, created_at, updated_at
		`

		return tx.QueryRow(
			query,
			rule.Name, rule.DisplayName, rule.Description, rule.ContentCategory,
			rule.SourcePlatform, rule.TargetPlatform, rule.ProcessingStrategy,
			rule.TranslationPromptID, rule.OptimizationPromptID, rule.TitleGenerationPromptID,
			rule.PrimaryProviderID, rule.FallbackProviderID,
			rule.AIDetectionThreshold, rule.MaxOptimizationRounds, rule.QualityThreshold,
			rule.Priority, rule.IsActive, rule.IsDefault, rule.CreatedBy,
		).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
	})
}

func (r *processingRuleRepository) Update(rule *models.ProcessingRule) error {
	return r.inTx(func(tx *sqlx.Tx) error {
		if rule.IsDefault {
			if _, err := tx.Exec(`UPDATE processing_rules SET is_default = FALSE WHERE is_default = TRUE AND id != $1`, rule.ID); err != nil {
				return err
			}
		}

		query := `
			UPDATE processing_rules SET
				name = $1, display_name = $2, description = $3, content_category = $4,
				source_platform = $5, target_platform = $6, processing_strategy = $7,
				translation_prompt_id = $8, optimization_prompt_id = $9, title_generation_prompt_id = $10,
				primary_provider_id = $11, fallback_provider_id = $12,
				ai_detection_threshold = $13, max_optimization_rounds = $14, quality_threshold = $15,
				priority = $16, is_active = $17, is_default = $18,
				updated_at = NOW()
			WHERE id = $19
		`

		result, err := tx.Exec(
			query,
			rule.Name, rule.DisplayName, rule.Description, rule.ContentCategory,
			rule.SourcePlatform, rule.TargetPlatform, rule.ProcessingStrategy,
			rule.TranslationPromptID, rule.OptimizationPromptID, rule.TitleGenerationPromptID,
			rule.PrimaryProviderID, rule.FallbackProviderID,
			rule.AIDetectionThreshold, rule.MaxOptimizationRounds, rule.QualityThreshold,
			rule.Priority, rule.IsActive, rule.IsDefault,
			rule.ID,
		)
		if err != nil {
			return err
		}
		return requireRowsAffected(result, "processing rule", rule.ID)
	})
}

func (r *processingRuleRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM processing_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, "processing rule", id)
}

// RecordOutcome folds one pipeline run into the rule's usage aggregates. The
// running averages are recomputed from the stored counts in a single UPDATE
// so concurrent recorders cannot lose increments.
func (r *processingRuleRepository) RecordOutcome(ruleID int64, success bool, processingTime float64) error {
	query := `
		UPDATE processing_rules SET
			usage_count = usage_count + 1,
			success_rate = (success_rate * usage_count + CASE WHEN $1 THEN 100.0 ELSE 0.0 END) / (usage_count + 1),
			average_processing_time = (average_processing_time * usage_count + $2) / (usage_count + 1),
			updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.db.Exec(query, success, processingTime, ruleID)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, "processing rule", ruleID)
}

func (r *processingRuleRepository) inTx(fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			r.logger.Error("Failed to roll back transaction", zap.Error(rbErr))
		}
		return err
	}
	return tx.Commit()
}
