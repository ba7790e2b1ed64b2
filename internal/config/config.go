package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Server
	Port        string
	Env         string
	FrontendURL string
	BackendURL  string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Tokens. Access and refresh tokens are signed with distinct secrets so a
	// leaked refresh secret cannot mint access tokens and vice versa.
	AccessTokenSecret  string
	RefreshTokenSecret string

	// Google OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// Mail
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		// Server
		Port:        getEnv("PORT", "8080"),
		Env:         getEnv("ENV", "development"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "intouch"),
		DBPassword: getEnv("DB_PASSWORD", "intouch"),
		DBName:     getEnv("DB_NAME", "intouch"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Tokens
		AccessTokenSecret:  getEnv("ACCESS_TOKEN_SECRET", "access-secret-for-dev-only"),
		RefreshTokenSecret: getEnv("REFRESH_TOKEN_SECRET", "refresh-secret-for-dev-only"),

		// Google OAuth
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:  getEnv("GOOGLE_CALLBACK_URL", "http://localhost:8080/api/auth/google/callback"),

		// Mail
		SMTPHost: getEnv("SMTP_HOST", "smtp.ethereal.email"),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		MailFrom: getEnv("MAIL_FROM", "IN TOUCH <no-reply@intouch.app>"),
	}

	portStr := getEnv("SMTP_PORT", "587")
	smtpPort, err := strconv.Atoi(portStr)
	if err != nil {
		log.Printf("Warning: invalid SMTP_PORT value '%s', falling back to 587\n", portStr)
		smtpPort = 587
	}
	config.SMTPPort = smtpPort

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// IsProduction reports whether the app runs with production settings.
// Cookie security attributes depend on this.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
