package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/daleelapp/daleel-backend/internal/clients/redis"
	"github.com/daleelapp/daleel-backend/internal/config"
	"github.com/daleelapp/daleel-backend/internal/db"
	"github.com/daleelapp/daleel-backend/internal/handlers"
	"github.com/daleelapp/daleel-backend/internal/llm"
	"github.com/daleelapp/daleel-backend/internal/logger"
	"github.com/daleelapp/daleel-backend/internal/middleware"
	"github.com/daleelapp/daleel-backend/internal/observability"
	"github.com/daleelapp/daleel-backend/internal/repos"
	"github.com/daleelapp/daleel-backend/internal/server"
	"github.com/daleelapp/daleel-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Config
	cfg, err := config.Load(log)
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	// Tracing
	shutdownOTel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "daleel-backend",
		Enabled:     cfg.Tracing,
	})
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownOTel(ctx)
	}()

	// Postgres
	postgresService, err := db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Redis (optional; admin endpoints fall back to direct queries)
	cache, err := redis.NewCache(cfg.Redis, log)
	if err != nil {
		log.Warn("Redis init failed, running without cache", "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := repos.NewUserRepo(thePG, log)
	chatRepo := repos.NewChatRepo(thePG, log)
	uploadRepo := repos.NewUploadRepo(thePG, log)

	// LLM client
	llmClient, err := llm.NewClient(cfg.LLM, log)
	if err != nil {
		log.Fatal("Could not init LLM client", "error", err)
	}

	// Services
	log.Info("Setting up Services from main...")
	codec := services.NewHistoryCodec()
	promptService := services.NewPromptService()
	memoryService := services.NewMemoryService(log)
	summaryService := services.NewSummaryService(llmClient, promptService, log)
	authService := services.NewAuthService(thePG, log, userRepo, cfg.JWTSecretKey, time.Duration(cfg.AccessTTLSecs)*time.Second)
	userService := services.NewUserService(thePG, log, userRepo)
	uploadService := services.NewUploadService(thePG, log, uploadRepo)
	adminService := services.NewAdminService(thePG, log, userRepo, chatRepo, uploadRepo, cache)
	chatService := services.NewChatService(thePG, log, chatRepo, userRepo, llmClient, codec, promptService, summaryService, memoryService)

	// Handlers
	log.Info("Setting up handlers from main...")
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	chatHandler := handlers.NewChatHandler(log, chatService)
	uploadHandler := handlers.NewUploadHandler(uploadService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		ClientOrigins:  cfg.ClientOrigins,
		AuthMiddleware: authMiddleware,
		AuthHandler:    authHandler,
		UserHandler:    userHandler,
		ChatHandler:    chatHandler,
		UploadHandler:  uploadHandler,
		AdminHandler:   adminHandler,
	})

	addr := ":" + cfg.Port
	log.Info("Starting server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
