package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/connectivity"
	"backend/internal/crypto"
	"backend/internal/models"
	"backend/internal/repository"

	"go.uber.org/zap"
)

var ErrProviderNameTaken = errors.New("provider name already exists")

// ProviderInput carries admin-supplied provider fields. APIKey is plaintext
// here and nowhere else; it is encrypted before touching the repository.
type ProviderInput struct {
	Name         string              `json:"name" binding:"required"`
	DisplayName  string              `json:"display_name" binding:"required"`
	Description  string              `json:"description"`
	ProviderType models.ProviderType `json:"provider_type" binding:"required"`
	APIKey       string              `json:"api_key"`
	APIURL       string              `json:"api_url" binding:"required"`
	APIVersion   string              `json:"api_version"`

	IsEnabled bool `json:"is_enabled"`
	IsDefault bool `json:"is_default"`
	Weight    int  `json:"weight"`

	MaxRequestsPerMinute  int `json:"max_requests_per_minute"`
	MaxRequestsPerHour    int `json:"max_requests_per_hour"`
	MaxConcurrentRequests int `json:"max_concurrent_requests"`

	CostPer1kTokensInput  float64 `json:"cost_per_1k_tokens_input"`
	CostPer1kTokensOutput float64 `json:"cost_per_1k_tokens_output"`
	MonthlyBudget         float64 `json:"monthly_budget"`
}

// ProviderResponse is the admin API view of a provider: everything except
// the credential, which appears masked.
type ProviderResponse struct {
	models.APIProvider
	APIKeyMasked string `json:"api_key"`
}

// ProviderService manages provider records for the admin API: CRUD with
// credential encryption, and connection testing.
type ProviderService struct {
	providers  repository.ProviderRepository
	keyManager *crypto.KeyManager
	tester     *connectivity.Tester
	selector   *ProviderSelector
	logger     *zap.Logger
}

func NewProviderService(
	providers repository.ProviderRepository,
	keyManager *crypto.KeyManager,
	tester *connectivity.Tester,
	selector *ProviderSelector,
	logger *zap.Logger,
) *ProviderService {
	return &ProviderService{
		providers:  providers,
		keyManager: keyManager,
		tester:     tester,
		selector:   selector,
		logger:     logger,
	}
}

func (s *ProviderService) GetProviders(providerType models.ProviderType, enabledOnly bool) ([]ProviderResponse, error) {
	providers, err := s.providers.GetAll(providerType, enabledOnly)
	if err != nil {
		return nil, err
	}

	responses := make([]ProviderResponse, 0, len(providers))
	for i := range providers {
		responses = append(responses, maskProvider(&providers[i]))
	}
	return responses, nil
}

func (s *ProviderService) GetProvider(id int64) (*ProviderResponse, error) {
	provider, err := s.providers.GetByID(id)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	resp := maskProvider(provider)
	return &resp, nil
}

func (s *ProviderService) CreateProvider(input ProviderInput) (*ProviderResponse, error) {
	existing, err := s.providers.GetByName(input.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrProviderNameTaken, input.Name)
	}

	encryptedKey, err := s.keyManager.EncryptAPIKey(input.APIKey)
	if err != nil {
		s.logger.Error("Failed to encrypt API key", zap.Error(err))
		return nil, fmt.Errorf("encrypt api key: %w", err)
	}

	provider := inputToProvider(input, encryptedKey)
	if err := s.providers.Create(provider); err != nil {
		return nil, err
	}

	s.logger.Info("Created provider",
		zap.String("name", provider.Name),
		zap.String("type", string(provider.ProviderType)))

	resp := maskProvider(provider)
	return &resp, nil
}

// UpdateProvider applies the input to an existing provider. An empty APIKey
// keeps the stored credential.
func (s *ProviderService) UpdateProvider(id int64, input ProviderInput) (*ProviderResponse, error) {
	current, err := s.providers.GetByID(id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}

	encryptedKey := current.APIKeyEncrypted
	if input.APIKey != "" {
		encryptedKey, err = s.keyManager.EncryptAPIKey(input.APIKey)
		if err != nil {
			s.logger.Error("Failed to encrypt API key", zap.Error(err))
			return nil, fmt.Errorf("encrypt api key: %w", err)
		}
	}

	provider := inputToProvider(input, encryptedKey)
	provider.ID = id
	if err := s.providers.Update(provider); err != nil {
		return nil, err
	}

	updated, err := s.providers.GetByID(id)
	if err != nil {
		return nil, err
	}

	resp := maskProvider(updated)
	return &resp, nil
}

func (s *ProviderService) DeleteProvider(id int64) error {
	return s.providers.Delete(id)
}

// ResetMonthlyUsage zeroes every provider's spend accumulator for a new
// billing month.
func (s *ProviderService) ResetMonthlyUsage() error {
	if err := s.providers.ResetMonthlyUsage(); err != nil {
		return err
	}
	s.logger.Info("Monthly provider usage reset")
	return nil
}

// TestConnection decrypts the stored credential, probes the endpoint and
// feeds the outcome back into the selector's health state.
func (s *ProviderService) TestConnection(ctx context.Context, id int64) (*connectivity.TestResult, error) {
	provider, err := s.providers.GetByID(id)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		return nil, nil
	}

	apiKey, err := s.keyManager.DecryptAPIKey(provider.APIKeyEncrypted)
	if err != nil {
		s.logger.Error("Failed to decrypt API key for connection test",
			zap.Int64("provider_id", id),
			zap.Error(err))
		return nil, fmt.Errorf("decrypt api key: %w", err)
	}

	result := s.tester.Test(ctx, provider, apiKey)

	s.selector.SetHealth(id, result.Success)

	s.logger.Info("Provider connection test finished",
		zap.String("provider", provider.Name),
		zap.Bool("success", result.Success),
		zap.Float64("response_time_ms", result.ResponseTime))

	return &result, nil
}

func inputToProvider(input ProviderInput, encryptedKey string) *models.APIProvider {
	return &models.APIProvider{
		Name:                  input.Name,
		DisplayName:           input.DisplayName,
		Description:           input.Description,
		ProviderType:          input.ProviderType,
		APIKeyEncrypted:       encryptedKey,
		APIURL:                input.APIURL,
		APIVersion:            input.APIVersion,
		IsEnabled:             input.IsEnabled,
		IsDefault:             input.IsDefault,
		Weight:                input.Weight,
		MaxRequestsPerMinute:  input.MaxRequestsPerMinute,
		MaxRequestsPerHour:    input.MaxRequestsPerHour,
		MaxConcurrentRequests: input.MaxConcurrentRequests,
		CostPer1kTokensInput:  input.CostPer1kTokensInput,
		CostPer1kTokensOutput: input.CostPer1kTokensOutput,
		MonthlyBudget:         input.MonthlyBudget,
	}
}

func maskProvider(provider *models.APIProvider) ProviderResponse {
	return ProviderResponse{
		APIProvider:  *provider,
		APIKeyMasked: provider.MaskedKey(),
	}
}
