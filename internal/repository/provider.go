package repository

import (
	"database/sql"
	"errors"

	"backend/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// ProviderRepository defines query and write operations over API providers.
type ProviderRepository interface {
	GetByID(id int64) (*models.APIProvider, error)
	GetByName(name string) (*models.APIProvider, error)
	GetAll(providerType models.ProviderType, enabledOnly bool) ([]models.APIProvider, error)
	GetEnabledByType(providerType models.ProviderType) ([]models.APIProvider, error)
	Create(provider *models.APIProvider) error
	Update(provider *models.APIProvider) error
	Delete(id int64) error
	UpdateUsageStats(provider *models.APIProvider) error
	ResetMonthlyUsage() error
}

type providerRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewProviderRepository(db *sqlx.DB, logger *zap.Logger) ProviderRepository {
	return &providerRepository{db: db, logger: logger}
}

const providerColumns = `
	id, name, display_name, description, provider_type,
	api_key_encrypted, api_url, api_version,
	is_enabled, is_default, weight,
	max_requests_per_minute, max_requests_per_hour, max_concurrent_requests,
	cost_per_1k_tokens_input, cost_per_1k_tokens_output, monthly_budget, current_usage,
	success_rate, average_response_time, total_requests, failed_requests,
	created_at, updated_at, last_used_at
`

func (r *providerRepository) GetByID(id int64) (*models.APIProvider, error) {
	var provider models.APIProvider
	query := `SELECT ` + providerColumns + ` FROM api_providers WHERE id = $1`

	if err := r.db.Get(&provider, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) GetByName(name string) (*models.APIProvider, error) {
	var provider models.APIProvider
	query := `SELECT ` + providerColumns + ` FROM api_providers WHERE name = $1`

	if err := r.db.Get(&provider, query, name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &provider, nil
}

func (r *providerRepository) GetAll(providerType models.ProviderType, enabledOnly bool) ([]models.APIProvider, error) {
	var providers []models.APIProvider
	query := `SELECT ` + providerColumns + `
		FROM api_providers
		WHERE ($1 = '' OR provider_type = $1)
		  AND (NOT $2 OR is_enabled = TRUE)
		ORDER BY display_name`

	if err := r.db.Select(&providers, query, providerType, enabledOnly); err != nil {
		return nil, err
	}
	return providers, nil
}

func (r *providerRepository) GetEnabledByType(providerType models.ProviderType) ([]models.APIProvider, error) {
	return r.GetAll(providerType, true)
}

// Create inserts the provider, demoting any existing default of the same type
// in the same transaction.
func (r *providerRepository) Create(provider *models.APIProvider) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if provider.IsDefault {
		if _, err := tx.Exec(
			`UPDATE api_providers SET is_default = FALSE WHERE provider_type = $1 AND is_default = TRUE`,
			provider.ProviderType,
		); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO api_providers (
			name, display_name, description, provider_type,
			api_key_encrypted, api_url, api_version,
			is_enabled, is_default, weight,
			max_requests_per_minute, max_requests_per_hour, max_concurrent_requests,
			cost_per_1k_tokens_input, cost_per_1k_tokens_output, monthly_budget
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at
	`

	if err := tx.QueryRow(
		query,
		provider.Name, provider.DisplayName, provider.Description, provider.ProviderType,
		provider.APIKeyEncrypted, provider.APIURL, provider.APIVersion,
		provider.IsEnabled, provider.IsDefault, provider.Weight,
		provider.MaxRequestsPerMinute, provider.MaxRequestsPerHour, provider.MaxConcurrentRequests,
		provider.CostPer1kTokensInput, provider.CostPer1kTokensOutput, provider.MonthlyBudget,
	).Scan(&provider.ID, &provider.CreatedAt, &provider.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *providerRepository) Update(provider *models.APIProvider) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if provider.IsDefault {
		if _, err := tx.Exec(
			`UPDATE api_providers SET is_default = FALSE WHERE provider_type = $1 AND is_default = TRUE AND id != $2`,
			provider.ProviderType, provider.ID,
		); err != nil {
			return err
		}
	}

	query := `
		UPDATE api_providers SET
			name = $1, display_name = $2, description = $3, provider_type = $4,
			api_key_encrypted = $5, api_url = $6, api_version = $7,
			is_enabled = $8, is_default = $9, weight = $10,
			max_requests_per_minute = $11, max_requests_per_hour = $12, max_concurrent_requests = $13,
			cost_per_1k_tokens_input = $14, cost_per_1k_tokens_output = $15, monthly_budget = $16,
			updated_at = NOW()
		WHERE id = $17
	`

	result, err := tx.Exec(
		query,
		provider.Name, provider.DisplayName, provider.Description, provider.ProviderType,
		provider.APIKeyEncrypted, provider.APIURL, provider.APIVersion,
		provider.IsEnabled, provider.IsDefault, provider.Weight,
		provider.MaxRequestsPerMinute, provider.MaxRequestsPerHour, provider.MaxConcurrentRequests,
		provider.CostPer1kTokensInput, provider.CostPer1kTokensOutput, provider.MonthlyBudget,
		provider.ID,
	)
	if err != nil {
		return err
	}
	if err := requireRowsAffected(result, "provider", provider.ID); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *providerRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM api_providers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRowsAffected(result, "provider", id)
}

// UpdateUsageStats persists the usage counters recomputed by the selector.
// Callers hold the selector's per-provider lock, so the read-modify-write is
// already serialized by the time it reaches the database.
func (r *providerRepository) UpdateUsageStats(provider *models.APIProvider) error {
	query := `
		UPDATE api_providers SET
			current_usage = $1,
			success_rate = $2,
			average_response_time = $3,
			total_requests = $4,
			failed_requests = $5,
			last_used_at = $6,
			updated_at = NOW()
		WHERE id = $7
	`

	result, err := r.db.Exec(
		query,
		provider.CurrentUsage, provider.SuccessRate, provider.AverageResponseTime,
		provider.TotalRequests, provider.FailedRequests, provider.LastUsedAt,
		provider.ID,
	)
	if err != nil {
		r.logger.Error("Failed to persist provider usage stats",
			zap.Int64("provider_id", provider.ID),
			zap.Error(err))
		return err
	}
	return requireRowsAffected(result, "provider", provider.ID)
}

// ResetMonthlyUsage zeroes every provider's spend accumulator. Run by the
// scheduler at the start of each billing month.
func (r *providerRepository) ResetMonthlyUsage() error {
	_, err := r.db.Exec(`UPDATE api_providers SET current_usage = 0, updated_at = NOW()`)
	return err
}
