package server

import (
	"net/http"

	"backend/internal/handler"
	"backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles everything the router mounts. Built in main so the server
// stays a pure routing concern.
type Handlers struct {
	Auth                handler.AuthHandler
	Providers           handler.ProviderHandler
	Selection           handler.SelectionHandler
	ClassificationRules handler.ClassificationRuleHandler
	ProcessingRules     handler.ProcessingRuleHandler
	Prompts             handler.PromptHandler
	ProcessingConfig    handler.ProcessingConfigHandler
}

type Server struct {
	router    *gin.Engine
	jwtSecret []byte
	logger    *zap.Logger
}

func NewServer(handlers Handlers, jwtSecret []byte, logger *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router:    router,
		jwtSecret: jwtSecret,
		logger:    logger,
	}

	s.setupRoutes(handlers)

	return s
}

func (s *Server) setupRoutes(h Handlers) {
	// Ping route for health check
	s.router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	// Authentication routes
	authGroup := s.router.Group("/api/auth")
	authGroup.POST("/register", h.Auth.RegisterAdmin)
	authGroup.POST("/login", h.Auth.Login)

	// Authenticated routes
	api := s.router.Group("/api")
	api.Use(middleware.AuthMiddleware(s.jwtSecret, s.logger))
	{
		api.GET("/providers", h.Providers.ListProviders)
		api.POST("/providers", h.Providers.CreateProvider)
		api.POST("/providers/select", h.Selection.SelectProvider)
		api.POST("/providers/reset-usage", h.Providers.ResetMonthlyUsage)
		api.GET("/providers/:id", h.Providers.GetProvider)
		api.PUT("/providers/:id", h.Providers.UpdateProvider)
		api.DELETE("/providers/:id", h.Providers.DeleteProvider)
		api.POST("/providers/:id/test", h.Providers.TestProvider)
		api.GET("/providers/:id/status", h.Providers.ProviderStatus)
		api.POST("/providers/:id/usage", h.Selection.RecordUsage)
		api.POST("/providers/:id/release", h.Selection.ReleaseProvider)

		api.GET("/classification-rules", h.ClassificationRules.ListRules)
		api.POST("/classification-rules", h.ClassificationRules.CreateRule)
		api.GET("/classification-rules/:id", h.ClassificationRules.GetRule)
		api.PUT("/classification-rules/:id", h.ClassificationRules.UpdateRule)
		api.DELETE("/classification-rules/:id", h.ClassificationRules.DeleteRule)

		api.GET("/processing-rules", h.ProcessingRules.ListRules)
		api.POST("/processing-rules", h.ProcessingRules.CreateRule)
		api.GET("/processing-rules/:id", h.ProcessingRules.GetRule)
		api.PUT("/processing-rules/:id", h.ProcessingRules.UpdateRule)
		api.DELETE("/processing-rules/:id", h.ProcessingRules.DeleteRule)

		api.GET("/prompts", h.Prompts.ListPrompts)
		api.POST("/prompts", h.Prompts.CreatePrompt)
		api.GET("/prompts/:id", h.Prompts.GetPrompt)
		api.PUT("/prompts/:id", h.Prompts.UpdatePrompt)
		api.DELETE("/prompts/:id", h.Prompts.DeletePrompt)

		api.POST("/processing-config/resolve", h.ProcessingConfig.ResolveConfiguration)
		api.POST("/processing-config/history", h.ProcessingConfig.RecordHistory)
		api.GET("/processing-config/history", h.ProcessingConfig.RecentHistory)
		api.GET("/articles/:id/history", h.ProcessingConfig.ArticleHistory)
	}
}

func (s *Server) Run(addr string) error {
	s.logger.Info("Server starting", zap.String("addr", addr))
	return s.router.Run(addr)
}
