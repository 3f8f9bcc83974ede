package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/daleelapp/daleel-backend/internal/handlers"
	"github.com/daleelapp/daleel-backend/internal/middleware"
)

type RouterConfig struct {
	ClientOrigins  []string
	AuthMiddleware *middleware.AuthMiddleware
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
	ChatHandler    *handlers.ChatHandler
	UploadHandler  *handlers.UploadHandler
	AdminHandler   *handlers.AdminHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	origins := cfg.ClientOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))
	router.Use(otelgin.Middleware("daleel-backend"))

	// Public
	router.GET("/healthcheck", handlers.HealthCheck)
	auth := router.Group("/api/auth")
	{
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
	}

	// Protected
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	{
		// User
		protected.GET("/user/profile", cfg.UserHandler.GetProfile)
		protected.PUT("/user/profile", cfg.UserHandler.UpdateProfile)
		protected.PUT("/user/schedule", cfg.UserHandler.UpdateSchedule)
		protected.PUT("/user/language", cfg.UserHandler.UpdateLanguage)
		// Chat
		protected.GET("/chat", cfg.ChatHandler.ListChats)
		protected.GET("/chat/:id", cfg.ChatHandler.GetChat)
		protected.DELETE("/chat/:id", cfg.ChatHandler.DeleteChat)
		protected.POST("/chat/completions", cfg.ChatHandler.Complete)
		// Uploads
		protected.GET("/upload", cfg.UploadHandler.List)
		protected.POST("/upload", cfg.UploadHandler.Register)
	}

	// Admin
	admin := router.Group("/api/admin")
	admin.Use(cfg.AuthMiddleware.RequireAuth(), cfg.AuthMiddleware.RequireAdmin())
	{
		admin.GET("/overview", cfg.AdminHandler.Overview)
		admin.GET("/files", cfg.AdminHandler.Files)
	}

	return router
}
