package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"intouch/internal/config"
	"intouch/internal/database"
	"intouch/internal/handlers"
	"intouch/internal/logger"
	"intouch/internal/mail"
	"intouch/internal/middleware"
	"intouch/internal/oauth"
	"intouch/internal/services"
	"intouch/internal/validator"

	_ "intouch/internal/docs" // Import swagger docs
)

// @title           InTouch API
// @version         1.0
// @description     InTouch is a personal relationship manager that helps users stay in contact with the people who matter, ranked by how overdue each connection is for outreach.

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom request validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	mailer := mail.NewSMTPMailer(appConfig)
	google := oauth.NewGoogleProvider(appConfig)
	userService := services.NewUserService(db, mailer)
	connectionService := services.NewConnectionService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService, google, appConfig)
	userHandler := handlers.NewUserHandler(userService)
	connectionHandler := handlers.NewConnectionHandler(connectionService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware. The API uses cookie-based refresh tokens, so the
	// allowed origin must be exact and credentials must be enabled.
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", appConfig.FrontendURL)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+middleware.CSRFHeaderName)

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// CSRF double-submit protection for all mutating requests
	router.Use(middleware.CSRF())

	// Per-route-group rate limiters
	verifyTokenLimiter := middleware.NewRateLimiter("verify-token", 5, time.Minute)
	loginLimiter := middleware.NewRateLimiter("login", 10, 10*time.Minute)
	signupLimiter := middleware.NewRateLimiter("signup", 5, time.Hour)
	resetLimiter := middleware.NewRateLimiter("password-reset", 5, time.Hour)
	oauthLimiter := middleware.NewRateLimiter("oauth", 20, 10*time.Minute)
	verifyEmailLimiter := middleware.NewRateLimiter("verify-email", 10, time.Hour)
	usersLimiter := middleware.NewRateLimiter("users", 30, time.Minute)
	connectionsLimiter := middleware.NewRateLimiter("connections", 20, time.Minute)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.GET("/csrf-token", middleware.CSRFTokenHandler)
	auth.POST("/signup", signupLimiter.Middleware(), authHandler.Signup)
	auth.POST("/login", loginLimiter.Middleware(), authHandler.Login)
	auth.POST("/logout", authHandler.Logout)
	auth.GET("/google", oauthLimiter.Middleware(), authHandler.GoogleLogin)
	auth.GET("/google/callback", oauthLimiter.Middleware(), authHandler.GoogleCallback)
	auth.POST("/token/refresh", verifyTokenLimiter.Middleware(), middleware.RequireRefreshToken(userService), authHandler.Refresh)
	auth.POST("/verify-token", verifyTokenLimiter.Middleware(), authHandler.VerifyAccessToken)
	auth.POST("/verify-refresh-token", verifyTokenLimiter.Middleware(), authHandler.VerifyRefreshToken)
	auth.GET("/verify-email", verifyEmailLimiter.Middleware(), authHandler.VerifyEmail)
	auth.POST("/reset-password", resetLimiter.Middleware(), authHandler.InitiateReset)
	auth.POST("/reset-password/complete", resetLimiter.Middleware(), authHandler.CompleteReset)

	// Profile routes
	users := api.Group("/users")
	users.Use(usersLimiter.Middleware(), middleware.RequireAccessToken())
	users.GET("", userHandler.GetProfile)
	users.PUT("", userHandler.UpdateProfile)
	users.DELETE("", userHandler.DeleteAccount)

	// Connection routes
	connections := api.Group("/connections")
	connections.Use(connectionsLimiter.Middleware(), middleware.RequireAccessToken())
	connections.GET("/page/:page", connectionHandler.List)
	connections.GET("/search/:query", connectionHandler.Search)
	connections.GET("/id/:id", connectionHandler.Get)
	connections.POST("", connectionHandler.Create)
	connections.PUT("/:id", connectionHandler.Update)
	connections.DELETE("/:id", connectionHandler.Delete)
	connections.POST("/:id/contacted", connectionHandler.MarkContacted)

	log.Infof("Starting InTouch backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
