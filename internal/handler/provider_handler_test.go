package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"backend/internal/connectivity"
	"backend/internal/crypto"
	"backend/internal/models"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProviderRepo struct {
	providers map[int64]*models.APIProvider
}

func newFakeProviderRepo(providers ...*models.APIProvider) *fakeProviderRepo {
	repo := &fakeProviderRepo{providers: make(map[int64]*models.APIProvider)}
	for _, p := range providers {
		repo.providers[p.ID] = p
	}
	return repo
}

func (f *fakeProviderRepo) GetByID(id int64) (*models.APIProvider, error) {
	p, ok := f.providers[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (f *fakeProviderRepo) GetByName(name string) (*models.APIProvider, error) {
	for _, p := range f.providers {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeProviderRepo) GetAll(providerType models.ProviderType, enabledOnly bool) ([]models.APIProvider, error) {
	var out []models.APIProvider
	for _, p := range f.providers {
		if providerType != "" && p.ProviderType != providerType {
			continue
		}
		if enabledOnly && !p.IsEnabled {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProviderRepo) GetEnabledByType(providerType models.ProviderType) ([]models.APIProvider, error) {
	return f.GetAll(providerType, true)
}

func (f *fakeProviderRepo) Create(provider *models.APIProvider) error           { return nil }
func (f *fakeProviderRepo) Update(provider *models.APIProvider) error           { return nil }
func (f *fakeProviderRepo) Delete(id int64) error                               { return nil }
func (f *fakeProviderRepo) UpdateUsageStats(provider *models.APIProvider) error { return nil }
func (f *fakeProviderRepo) ResetMonthlyUsage() error                            { return nil }

func newProviderRouter(t *testing.T, repo *fakeProviderRepo) (*gin.Engine, *service.ProviderSelector) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	keyManager, err := crypto.NewKeyManagerWithKey(make([]byte, 32))
	require.NoError(t, err)

	selector := service.NewProviderSelector(repo, nil, logger)
	providerService := service.NewProviderService(repo, keyManager, connectivity.NewTester(), selector, logger)
	h := NewProviderHandler(providerService, selector, logger)

	router := gin.New()
	router.GET("/api/providers/:id/status", h.ProviderStatus)
	return router, selector
}

func TestProviderStatusKnownProvider(t *testing.T) {
	repo := newFakeProviderRepo(&models.APIProvider{
		ID:           1,
		Name:         "openai",
		ProviderType: models.ProviderTypeAI,
		IsEnabled:    true,
	})
	router, _ := newProviderRouter(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/providers/1/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_healthy":true`)
}

func TestProviderStatusUnknownProvider(t *testing.T) {
	router, selector := newProviderRouter(t, newFakeProviderRepo())

	// Arbitrary ids must 404 instead of growing selector state.
	for _, id := range []string{"42", "43", "44"} {
		req := httptest.NewRequest(http.MethodGet, "/api/providers/"+id+"/status", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	// Selection for a real provider still works afterwards.
	_, err := selector.SelectByType(models.ProviderTypeAI, 0)
	assert.Error(t, err) // empty repo, nothing eligible
}
