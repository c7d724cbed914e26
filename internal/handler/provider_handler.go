package handler

import (
	"errors"
	"net/http"
	"strconv"

	"backend/internal/models"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProviderHandler interface {
	ListProviders(c *gin.Context)
	GetProvider(c *gin.Context)
	CreateProvider(c *gin.Context)
	UpdateProvider(c *gin.Context)
	DeleteProvider(c *gin.Context)
	TestProvider(c *gin.Context)
	ProviderStatus(c *gin.Context)
	ResetMonthlyUsage(c *gin.Context)
}

type providerHandler struct {
	providers *service.ProviderService
	selector  *service.ProviderSelector
	logger    *zap.Logger
}

func NewProviderHandler(providers *service.ProviderService, selector *service.ProviderSelector, logger *zap.Logger) ProviderHandler {
	return &providerHandler{
		providers: providers,
		selector:  selector,
		logger:    logger,
	}
}

// ListProviders handles GET /api/providers?type=ai&enabled_only=true
func (h *providerHandler) ListProviders(c *gin.Context) {
	var providerType models.ProviderType
	if raw := c.Query("type"); raw != "" {
		parsed, err := models.ParseProviderType(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		providerType = parsed
	}

	enabledOnly := c.Query("enabled_only") == "true"

	providers, err := h.providers.GetProviders(providerType, enabledOnly)
	if err != nil {
		h.logger.Error("Failed to list providers", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list providers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"providers": providers, "total": len(providers)})
}

// GetProvider handles GET /api/providers/:id
func (h *providerHandler) GetProvider(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	provider, err := h.providers.GetProvider(id)
	if err != nil {
		h.logger.Error("Failed to get provider", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get provider"})
		return
	}
	if provider == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}

	c.JSON(http.StatusOK, provider)
}

// CreateProvider handles POST /api/providers
func (h *providerHandler) CreateProvider(c *gin.Context) {
	var input service.ProviderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := models.ParseProviderType(string(input.ProviderType)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	provider, err := h.providers.CreateProvider(input)
	if err != nil {
		if errors.Is(err, service.ErrProviderNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to create provider", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create provider"})
		return
	}

	c.JSON(http.StatusCreated, provider)
}

// UpdateProvider handles PUT /api/providers/:id
func (h *providerHandler) UpdateProvider(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var input service.ProviderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := models.ParseProviderType(string(input.ProviderType)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	provider, err := h.providers.UpdateProvider(id, input)
	if err != nil {
		h.logger.Error("Failed to update provider", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update provider"})
		return
	}
	if provider == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}

	c.JSON(http.StatusOK, provider)
}

// DeleteProvider handles DELETE /api/providers/:id
func (h *providerHandler) DeleteProvider(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.providers.DeleteProvider(id); err != nil {
		h.logger.Error("Failed to delete provider", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete provider"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Provider deleted"})
}

// TestProvider handles POST /api/providers/:id/test
func (h *providerHandler) TestProvider(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	result, err := h.providers.TestConnection(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Provider connection test failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to test provider"})
		return
	}
	if result == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// ProviderStatus handles GET /api/providers/:id/status. Existence is checked
// first: the selector materializes runtime state for any id it is asked
// about, so unknown ids must not reach it.
func (h *providerHandler) ProviderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	provider, err := h.providers.GetProvider(id)
	if err != nil {
		h.logger.Error("Failed to get provider", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get provider"})
		return
	}
	if provider == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
		return
	}

	c.JSON(http.StatusOK, h.selector.Status(id))
}

// ResetMonthlyUsage handles POST /api/providers/reset-usage. Run at the start
// of each billing month, manually or by an external scheduler.
func (h *providerHandler) ResetMonthlyUsage(c *gin.Context) {
	if err := h.providers.ResetMonthlyUsage(); err != nil {
		h.logger.Error("Failed to reset monthly usage", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Monthly usage reset"})
}

// pathID parses the :id path parameter, writing the 400 response itself when
// the value is not an integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return id, true
}
