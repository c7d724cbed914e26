package main

import (
	"backend/internal/alerts"
	"backend/internal/config"
	"backend/internal/connectivity"
	"backend/internal/crypto"
	"backend/internal/handler"
	"backend/internal/repository"
	"backend/internal/server"
	"backend/internal/service"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err) // Should not happen in development
	}
	defer func() {
		_ = logger.Sync() // Flushes buffer, if any
	}()

	// Load configuration
	cfgPath := "configs/config.yml"
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret must be set")
	}
	jwtSecret := []byte(cfg.Auth.JWTSecret)

	// Database connection
	db, err := repository.NewPostgresDB(cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	repository.MigrateDB(db, logger)

	// Initialize KeyManager for provider credential encryption
	keyManager, err := crypto.NewKeyManager()
	if err != nil {
		logger.Fatal("Failed to initialize KeyManager", zap.Error(err))
	}
	logger.Info("KeyManager initialized successfully")

	// Initialize repositories
	authRepo := repository.NewAuthRepository(db, logger)
	classificationRuleRepo := repository.NewClassificationRuleRepository(db, logger)
	processingRuleRepo := repository.NewProcessingRuleRepository(db, logger)
	providerRepo := repository.NewProviderRepository(db, logger)
	historyRepo := repository.NewHistoryRepository(db, logger)
	promptRepo := repository.NewPromptRepository(db, logger)

	// Telegram alerting (optional)
	alertBot, err := alerts.NewBot(cfg.Alerts.Telegram.BotToken, cfg.Alerts.Telegram.ChatID, logger)
	if err != nil {
		logger.Warn("Failed to initialize Telegram alerts, continuing without them", zap.Error(err))
		alertBot = nil
	}

	// Core services
	classifier := service.NewClassifier(classificationRuleRepo, logger)
	resolver := service.NewRuleResolver(processingRuleRepo, logger)
	selector := service.NewProviderSelector(providerRepo, alertBot, logger)
	configService := service.NewProcessingConfigService(
		classifier, resolver, processingRuleRepo, historyRepo,
		cfg.Pipeline.TargetPlatform, logger,
	)

	authService := service.NewAuthService(authRepo, jwtSecret, logger)
	providerService := service.NewProviderService(providerRepo, keyManager, connectivity.NewTester(), selector, logger)

	// Handlers and server
	handlers := server.Handlers{
		Auth:                handler.NewAuthHandler(authService, logger),
		Providers:           handler.NewProviderHandler(providerService, selector, logger),
		Selection:           handler.NewSelectionHandler(selector, logger),
		ClassificationRules: handler.NewClassificationRuleHandler(classificationRuleRepo, logger),
		ProcessingRules:     handler.NewProcessingRuleHandler(processingRuleRepo, logger),
		Prompts:             handler.NewPromptHandler(promptRepo, logger),
		ProcessingConfig:    handler.NewProcessingConfigHandler(configService, historyRepo, logger),
	}

	srv := server.NewServer(handlers, jwtSecret, logger)
	if err := srv.Run(cfg.Server.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
