package handler

import (
	"net/http"

	"backend/internal/models"
	"backend/internal/repository"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ClassificationRuleHandler interface {
	ListRules(c *gin.Context)
	GetRule(c *gin.Context)
	CreateRule(c *gin.Context)
	UpdateRule(c *gin.Context)
	DeleteRule(c *gin.Context)
}

type classificationRuleHandler struct {
	rules  repository.ClassificationRuleRepository
	logger *zap.Logger
}

func NewClassificationRuleHandler(rules repository.ClassificationRuleRepository, logger *zap.Logger) ClassificationRuleHandler {
	return &classificationRuleHandler{rules: rules, logger: logger}
}

// ListRules handles GET /api/classification-rules
func (h *classificationRuleHandler) ListRules(c *gin.Context) {
	rules, err := h.rules.GetAll()
	if err != nil {
		h.logger.Error("Failed to list classification rules", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list rules"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules, "total": len(rules)})
}

// GetRule handles GET /api/classification-rules/:id
func (h *classificationRuleHandler) GetRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rule, err := h.rules.GetByID(id)
	if err != nil {
		h.logger.Error("Failed to get classification rule", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get rule"})
		return
	}
	if rule == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Rule not found"})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// CreateRule handles POST /api/classification-rules
func (h *classificationRuleHandler) CreateRule(c *gin.Context) {
	var rule models.ClassificationRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := models.ParseContentCategory(string(rule.TargetCategory)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.rules.Create(&rule); err != nil {
		h.logger.Error("Failed to create classification rule", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create rule"})
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// UpdateRule handles PUT /api/classification-rules/:id
func (h *classificationRuleHandler) UpdateRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var rule models.ClassificationRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := models.ParseContentCategory(string(rule.TargetCategory)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule.ID = id

	if err := h.rules.Update(&rule); err != nil {
		h.logger.Error("Failed to update classification rule", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update rule"})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule handles DELETE /api/classification-rules/:id
func (h *classificationRuleHandler) DeleteRule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := h.rules.Delete(id); err != nil {
		h.logger.Error("Failed to delete classification rule", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete rule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Rule deleted"})
}
