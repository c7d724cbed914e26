package repository

import (
	"database/sql"
	"errors"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ClassificationRuleRepository defines query and write operations over
// classification rules. The classifier only ever calls GetActiveRules.
type ClassificationRuleRepository interface {
	GetActiveRules() ([]models.ClassificationRule, error)
	GetAll() ([]models.ClassificationRule, error)
	GetByID(id int64) (*models.ClassificationRule, error)
	Create(rule *models.ClassificationRule) error
	Update(rule *models.ClassificationRule) error
	Delete(id int64) error
}

type classificationRuleRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewClassificationRuleRepository(db *sqlx.DB, logger *zap.Logger) ClassificationRuleRepository {
	return &classificationRuleRepository{db: db, logger: logger}
}

const classificationRuleColumns = `
	id, name, description, target_category,
	title_keywords, content_keywords, url_patterns, source_domains,
	title_weight, content_weight, url_weight, domain_weight,
	classification_threshold, is_active, priority, created_at, updated_at
`

func (r *classificationRuleRepository) GetActiveRules() ([]models.ClassificationRule, error) {
	var rules []models.ClassificationRule
	query := `SELECT ` + classificationRuleColumns + `
		FROM content_classification_rules
		WHERE is_active = TRUE
		ORDER BY priority`

	if err := r.db.Select(&rules, query); err != nil {
		r.logger.Error("Failed to load active classification rules", zap.Error(err))
		return nil, err
	}
	return rules, nil
}

func (r *classificationRuleRepository) GetAll() ([]models.ClassificationRule, error) {
	var rules []models.ClassificationRule
	query := `SELECT ` + classificationRuleColumns + `
		FROM content_classification_rules
		ORDER BY priority`

	if err := r.db.Select(&rules, query); err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *classificationRuleRepository) GetByID(id int64) (*models.ClassificationRule, error) {
	var rule models.ClassificationRule
	query := `SELECT ` + classificationRuleColumns + `
		FROM content_classification_rules
		WHERE id = $1`

	if err := r.db.Get(&rule, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

func (r *classificationRuleRepository) Create(rule *models.ClassificationRule) error {
	query := `
		INSERT INTO content_classification_rules (
			name, description, target_category,
			title_keywords, content_keywords, url_patterns, source_domains,
			title_weight, content_weight, url_weight, domain_weight,
			classification_threshold, is_active, priority
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRow(
		query,
		rule.Name, rule.Description, rule.TargetCategory,
		rule.TitleKeywords, rule.ContentKeywords, rule.URLPatterns, rule.SourceDomains,
		rule.TitleWeight, rule.ContentWeight, rule.URLWeight, rule.DomainWeight,
		rule.ClassificationThreshold, rule.IsActive, rule.Priority,
	).Scan(&rule.ID, &rule.CreatedAt, &rule.UpdatedAt)
}

func (r *classificationRuleRepository) Update(rule *models.ClassificationRule) error {
	query := `
		UPDATE content_classification_rules SET
			name = $1, description = $2, target_category = $3,
			title_keywords = $4, content_keywords = $5, url_patterns = $6, source_domains = $7,
			title_weight = $8, content_weight = $9, url_weight = $10, domain_weight = $11,
			classification_threshold = $12, is_active = $13, priority = $14,
			updated_at = NOW()
		WHERE id = $15
	`

	result, err := r.db.Exec(
		query,
		rule.Name, rule.Description, rule.TargetCategory,
		rule.TitleKeywords, rule.ContentKeywords, rule.URLPatterns, rule.SourceDomains,
		rule.TitleWeight, rule.ContentWeight, rule.URLWeight, rule.DomainWeight,
		rule.ClassificationThreshold, rule.IsActive, rule.Priority,
		rule.ID,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, "classification rule", rule.ID)
}

func (r *classificationRuleRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM content_classification_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, "classification rule", id)
}
