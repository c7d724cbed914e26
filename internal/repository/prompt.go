package repository

import (
	"database/sql"
	"errors"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type PromptRepository interface {
	GetByID(id int64) (*models.PromptTemplate, error)
	GetAll(promptType string) ([]models.PromptTemplate, error)
	Create(prompt *models.PromptTemplate) error
	Update(prompt *models.PromptTemplate) error
	Delete(id int64) error
}

type promptRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPromptRepository(db *sqlx.DB, logger *zap.Logger) PromptRepository {
	return &promptRepository{db: db, logger: logger}
}

const promptColumns = `id, name, display_name, prompt_type, content, is_active, created_at, updated_at`

func (r *promptRepository) GetByID(id int64) (*models.PromptTemplate, error) {
	var prompt models.PromptTemplate
	query := `SELECT ` + promptColumns + ` FROM prompt_templates WHERE id = $1`

	if err := r.db.Get(&prompt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &prompt, nil
}

func (r *promptRepository) GetAll(promptType string) ([]models.PromptTemplate, error) {
	var prompts []models.PromptTemplate
	query := `SELECT ` + promptColumns + `
		FROM prompt_templates
		WHERE ($1 = '' OR prompt_type = $1)
		ORDER BY display_name`

	if err := r.db.Select(&prompts, query, promptType); err != nil {
		return nil, err
	}
	return prompts, nil
}

func (r *promptRepository) Create(prompt *models.PromptTemplate) error {
	query := `
		INSERT INTO prompt_templates (name, display_name, prompt_type, content, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	return r.db.QueryRow(
		query,
		prompt.Name, prompt.DisplayName, prompt.PromptType, prompt.Content, prompt.IsActive,
	).Scan(&prompt.ID, &prompt.CreatedAt, &prompt.UpdatedAt)
}

func (r *promptRepository) Update(prompt *models.PromptTemplate) error {
	query := `
		UPDATE prompt_templates SET
			name = $1, display_name = $2, prompt_type = $3, content = $4, is_active = $5,
			updated_at = NOW()
		WHERE id = $6
	`

	result, err := r.db.Exec(
		query,
		prompt.Name, prompt.DisplayName, prompt.PromptType, prompt.Content, prompt.IsActive,
		prompt.ID,
	)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, "prompt template", prompt.ID)
}

func (r *promptRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM prompt_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, "prompt template", id)
}
