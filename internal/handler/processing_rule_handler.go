package handler

import (
	"net/http"

	"backend/internal/models"
	"backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProcessingRuleHandler interface {
	ListRules(c *gin.Context)
	GetRule(c *gin.Context)
	CreateRule(c *gin.Context)
	UpdateRule(c *gin.Context)
	DeleteRule(c *gin.Context)
}

type processingRuleHandler struct {
	rules  repository.ProcessingRuleRepository
	logger *zap.Logger
}

func NewProcessingRuleHandler(rules repository.ProcessingRuleRepository, logger *zap.Logger) ProcessingRuleHandler {
	return &processingRuleHandler{rules: rules, logger: logger}
}

// ListRules handles GET /api/processing-rules
func (h *processingRuleHandler) ListRules(c *gin.Context) {
	rules, err := h.rules.GetAll()
	if err != nil {
		h.logger.Error("Failed to list processing rules", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules, "total": len(rules)})
}

// GetRule handles GET /api/processing-rules/:id
func (h *processingRuleHandler) GetRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rule, err := h.rules.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get processing rule", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get rule"})
		return
	}
	if rule == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// CreateRule handles POST /api/processing-rules
func (h *processingRuleHandler) CreateRule(c *gin.Context) {
	rule, ok := bindProcessingRule(c)
	if !ok {
		return
	}
	if username, exists := c.Get("username"); exists {
		rule.CreatedBy = username.(string)
	}

	if err := h.rules.Create(rule); err != nil {
		h.logger.Error("Failed to create processing rule", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create rule"})
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/processing-rules/:id
func (h *processingRuleHandler) UpdateRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rule, ok := bindProcessingRule(c)
	if !ok {
		return
	}
	rule.ID = id

	if err := h.rules.Update(rule); err != nil {
		h.logger.Error("Failed to update processing rule", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update rule"})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/processing-rules/:id
func (h *processingRuleHandler) DeleteRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.rules.Delete(id); err != nil {
		h.logger.Error("Failed to delete processing rule", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
}

// bindProcessingRule binds and validates the request body, writing the 400
// response itself on failure.
func bindProcessingRule(c *gin.Context) (*models.ProcessingRule, bool) {
	var rule models.ProcessingRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if _, err := models.ParseContentCategory(string(rule.ContentCategory)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	if _, err := models.ParseProcessingStrategy(string(rule.ProcessingStrategy)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	return &rule, true
}
