package handler

import (
	"errors"
	"net/http"

	"backend/internal/models"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SelectionHandler exposes the load balancer to the pipeline workers: select
// a provider for a request, then report the outcome (or release the slot).
type SelectionHandler interface {
	SelectProvider(c *gin.Context)
	RecordUsage(c *gin.Context)
	ReleaseProvider(c *gin.Context)
}

type selectionHandler struct {
	selector *service.ProviderSelector
	logger   *zap.Logger
}

func NewSelectionHandler(selector *service.ProviderSelector, logger *zap.Logger) SelectionHandler {
	return &selectionHandler{selector: selector, logger: logger}
}

type SelectProviderRequest struct {
	ProviderType  string  `json:"provider_type" binding:"required"`
	PrimaryID     *int64  `json:"primary_id"`
	FallbackID    *int64  `json:"fallback_id"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// SelectProvider handles POST /api/providers/select. With primary_id set it
// walks the primary/fallback pair; without it the choice is weighted random
// over all enabled providers of the type.
func (h *selectionHandler) SelectProvider(c *gin.Context) {
	var req SelectProviderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	providerType, err := models.ParseProviderType(req.ProviderType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var selected *service.SelectedProvider
	if req.PrimaryID != nil || req.FallbackID != nil {
		selected, err = h.selector.Select(req.PrimaryID, req.FallbackID, providerType, req.EstimatedCost)
	} else {
		selected, err = h.selector.SelectByType(providerType, req.EstimatedCost)
	}
	if err != nil {
		if errors.Is(err, service.ErrProviderUnavailable) {
			status := http.StatusServiceUnavailable
			if errors.Is(err, service.ErrBudgetExceeded) {
				status = http.StatusPaymentRequired
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Provider selection failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to select provider"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"provider_id":   selected.Provider.ID,
		"name":          selected.Provider.Name,
		"display_name":  selected.Provider.DisplayName,
		"api_url":       selected.Provider.APIURL,
		"used_fallback": selected.UsedFallback,
	})
}

type RecordUsageRequest struct {
	TokensUsed   int64   `json:"tokens_used"`
	Cost         float64 `json:"cost"`
	Success      *bool   `json:"success" binding:"required"`
	ResponseTime float64 `json:"response_time"`
}

// RecordUsage handles POST /api/providers/:id/usage
func (h *selectionHandler) RecordUsage(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.selector.RecordUsage(id, req.TokensUsed, req.Cost, *req.Success, req.ResponseTime); err != nil {
		if errors.Is(err, service.ErrProviderNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Provider not found"})
			return
		}
		h.logger.Error("Failed to record provider usage", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record usage"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Usage recorded"})
}

// ReleaseProvider handles POST /api/providers/:id/release, for requests that
// acquired a slot but were never issued.
func (h *selectionHandler) ReleaseProvider(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	h.selector.Release(id)
	c.JSON(http.StatusOK, gin.H{"message": "Released"})
}
