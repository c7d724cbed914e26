package handler

import (
	"net/http"
	"strconv"

	"backend/internal/models"
	"backend/internal/repository"
	"backend/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProcessingConfigHandler interface {
	ResolveConfiguration(c *gin.Context)
	RecordHistory(c *gin.Context)
	RecentHistory(c *gin.Context)
	ArticleHistory(c *gin.Context)
}

type processingConfigHandler struct {
	configs *service.ProcessingConfigService
	history repository.HistoryRepository
	logger  *zap.Logger
}

func NewProcessingConfigHandler(
	configs *service.ProcessingConfigService,
	history repository.HistoryRepository,
	logger *zap.Logger,
) ProcessingConfigHandler {
	return &processingConfigHandler{
		configs: configs,
		history: history,
		logger:  logger,
	}
}

// ResolveRequest carries the article fields classification needs. The caller
// may pass a persisted article id or just the raw fields.
type ResolveRequest struct {
	ArticleID       int64  `json:"article_id"`
	Title           string `json:"title" binding:"required"`
	ContentOriginal string `json:"content_original"`
	SourceURL       string `json:"source_url"`
	SourcePlatform  string `json:"source_platform"`
}

// ResolveConfiguration handles POST /api/processing-config/resolve. It always
// returns a usable configuration; a missing rule degrades to defaults rather
// than an error.
func (h *processingConfigHandler) ResolveConfiguration(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	article := &models.Article{
		ID:              req.ArticleID,
		Title:           req.Title,
		ContentOriginal: req.ContentOriginal,
		SourceURL:       req.SourceURL,
		SourcePlatform:  req.SourcePlatform,
	}

	c.JSON(http.StatusOK, h.configs.GetProcessingConfiguration(article))
}

// RecordHistoryRequest pairs the configuration a pipeline run used with the
// result it produced.
type RecordHistoryRequest struct {
	ArticleID     int64                           `json:"article_id" binding:"required"`
	Configuration service.ProcessingConfiguration `json:"configuration" binding:"required"`
	Result        service.PipelineResult          `json:"result" binding:"required"`
}

// RecordHistory handles POST /api/processing-config/history
func (h *processingConfigHandler) RecordHistory(c *gin.Context) {
	var req RecordHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.configs.RecordProcessingHistory(req.ArticleID, req.Configuration, req.Result)

	c.JSON(http.StatusAccepted, gin.H{"message": "History recorded"})
}

// RecentHistory handles GET /api/processing-config/history?limit=50
func (h *processingConfigHandler) RecentHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		limit = parsed
	}

	rows, err := h.history.GetRecent(limit)
	if err != nil {
		h.logger.Error("Failed to load recent history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": rows, "total": len(rows)})
}

// ArticleHistory handles GET /api/articles/:id/history
func (h *processingConfigHandler) ArticleHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	rows, err := h.history.GetByArticleID(id)
	if err != nil {
		h.logger.Error("Failed to load article history", zap.Int64("article_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": rows, "total": len(rows)})
}
