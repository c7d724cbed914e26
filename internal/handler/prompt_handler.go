package handler

import (
	"net/http"

	"backend/internal/models"
	"backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PromptHandler interface {
	ListPrompts(c *gin.Context)
	GetPrompt(c *gin.Context)
	CreatePrompt(c *gin.Context)
	UpdatePrompt(c *gin.Context)
	DeletePrompt(c *gin.Context)
}

type promptHandler struct {
	prompts repository.PromptRepository
	logger  *zap.Logger
}

func NewPromptHandler(prompts repository.PromptRepository, logger *zap.Logger) PromptHandler {
	return &promptHandler{prompts: prompts, logger: logger}
}

// ListPrompts handles GET /api/prompts?type=translation
func (h *promptHandler) ListPrompts(c *gin.Context) {
	prompts, err := h.prompts.GetAll(c.Query("type"))
	if err != nil {
		h.logger.Error("Failed to list prompts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list prompts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prompts": prompts, "total": len(prompts)})
}

// GetPrompt handles GET /api/prompts/:id
func (h *promptHandler) GetPrompt(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	prompt, err := h.prompts.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get prompt", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get prompt"})
		return
	}
	if prompt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Prompt not found"})
		return
	}

	c.JSON(http.StatusOK, prompt)
}

// CreatePrompt handles POST /api/prompts
func (h *promptHandler) CreatePrompt(c *gin.Context) {
	var prompt models.PromptTemplate
	if err := c.ShouldBindJSON(&prompt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.prompts.Create(&prompt); err != nil {
		h.logger.Error("Failed to create prompt", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create prompt"})
		return
	}

	c.JSON(http.StatusCreated, prompt)
}

// UpdatePrompt handles PUT /api/prompts/:id
func (h *promptHandler) UpdatePrompt(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var prompt models.PromptTemplate
	if err := c.ShouldBindJSON(&prompt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	prompt.ID = id

	if err := h.prompts.Update(&prompt); err != nil {
		h.logger.Error("Failed to update prompt", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update prompt"})
		return
	}

	c.JSON(http.StatusOK, prompt)
}

// DeletePrompt handles DELETE /api/prompts/:id
func (h *promptHandler) DeletePrompt(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.prompts.Delete(id); err != nil {
		h.logger.Error("Failed to delete prompt", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete prompt"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Prompt deleted"})
}
