package repository

import (
	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// HistoryRepository persists processing-history audit rows. The resolution
// core only writes; reads exist for the analytics endpoints.
type HistoryRepository interface {
	Create(history *models.ProcessingHistory) error
	GetByArticleID(articleID int64) ([]models.ProcessingHistory, error)
	GetRecent(limit int) ([]models.ProcessingHistory, error)
}

type historyRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewHistoryRepository(db *sqlx.DB, logger *zap.Logger) HistoryRepository {
	return &historyRepository{db: db, logger: logger}
}

const historyColumns = `
	id, article_id, processing_rule_id, content_category, classification_confidence,
	used_prompts, used_providers, processing_steps,
	success, error_message, processing_time,
	final_ai_probability, optimization_rounds, quality_score, created_at
`

func (r *historyRepository) Create(history *models.ProcessingHistory) error {
	query := `
		INSERT INTO processing_history (
			article_id, processing_rule_id, content_category, classification_confidence,
			used_prompts, used_providers, processing_steps,
			success, error_message, processing_time,
			final_ai_probability, optimization_rounds, quality_score
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, created_at
	`

	return r.db.QueryRow(
		query,
		history.ArticleID, history.ProcessingRuleID, history.ContentCategory, history.ClassificationConfidence,
		history.UsedPrompts, history.UsedProviders, history.ProcessingSteps,
		history.Success, history.ErrorMessage, history.ProcessingTime,
		history.FinalAIProbability, history.OptimizationRounds, history.QualityScore,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *historyRepository) GetByArticleID(articleID int64) ([]models.ProcessingHistory, error) {
	var rows []models.ProcessingHistory
	query := `SELECT ` + historyColumns + `
		FROM processing_history
		WHERE article_id = $1
		ORDER BY created_at DESC`

	if err := r.db.Select(&rows, query, articleID); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *historyRepository) GetRecent(limit int) ([]models.ProcessingHistory, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.ProcessingHistory
	query := `SELECT ` + historyColumns + `
		FROM processing_history
		ORDER BY created_at DESC
		LIMIT $1`

	if err := r.db.Select(&rows, query, limit); err != nil {
		return nil, err
	}
	return rows, nil
}
