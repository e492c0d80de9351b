package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	CORS           CORSConfig
	Auth           AuthConfig
	Storage        StorageConfig
	Email          EmailConfig
	CompaniesHouse CompaniesHouseConfig
	Scheduler      SchedulerConfig
	Downloads      DownloadConfig
	Documents      DocumentConfig
	Logging        LoggingConfig
	Plans          *PlanTable
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string
	Host string
	Addr string // Combined host:port for convenience
}

// DatabaseConfig holds database-specific configuration
type DatabaseConfig struct {
	Path string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// AuthConfig holds the secret used to verify access tokens issued by the
// hosted auth provider, and the key guarding internal trigger endpoints.
type AuthConfig struct {
	JWTSecret      string
	InternalAPIKey string
}

// StorageConfig selects and configures the object storage backend.
type StorageConfig struct {
	Driver     string // "local" or "http"
	LocalRoot  string
	BaseURL    string
	ServiceKey string
}

// EmailConfig holds transactional email API settings.
type EmailConfig struct {
	APIURL      string
	APIKey      string
	FromAddress string
}

// CompaniesHouseConfig holds Companies House API settings.
type CompaniesHouseConfig struct {
	APIURL string
	APIKey string
}

// SchedulerConfig controls the in-process due-run poller.
type SchedulerConfig struct {
	Enabled     bool
	Spec        string
	Concurrency int
	RedisAddr   string
	LockTTL     time.Duration
}

// DownloadConfig controls signed document download links.
type DownloadConfig struct {
	Key string // base64 fernet key
	TTL time.Duration
}

// DocumentConfig holds settings used while rendering documents.
type DocumentConfig struct {
	VerifyBaseURL string
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "5001"),
			Host: getEnv("SERVER_HOST", "localhost"),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/dividend_admin.db"),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost",
			}),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("AUTH_JWT_SECRET", ""),
			InternalAPIKey: getEnv("INTERNAL_API_KEY", ""),
		},
		Storage: StorageConfig{
			Driver:     getEnv("STORAGE_DRIVER", "local"),
			LocalRoot:  getEnv("STORAGE_LOCAL_ROOT", "./data/storage"),
			BaseURL:    getEnv("STORAGE_BASE_URL", ""),
			ServiceKey: getEnv("STORAGE_SERVICE_KEY", ""),
		},
		Email: EmailConfig{
			APIURL:      getEnv("EMAIL_API_URL", "https://api.resend.com"),
			APIKey:      getEnv("EMAIL_API_KEY", ""),
			FromAddress: getEnv("EMAIL_FROM", "Dividends <noreply@localhost>"),
		},
		CompaniesHouse: CompaniesHouseConfig{
			APIURL: getEnv("COMPANIES_HOUSE_API_URL", "https://api.company-information.service.gov.uk"),
			APIKey: getEnv("COMPANIES_HOUSE_API_KEY", ""),
		},
		Scheduler: SchedulerConfig{
			Enabled:     getEnvBool("SCHEDULER_ENABLED", true),
			Spec:        getEnv("SCHEDULER_SPEC", "*/15 * * * *"),
			Concurrency: getEnvInt("SCHEDULER_CONCURRENCY", 4),
			RedisAddr:   getEnv("REDIS_ADDR", ""),
			LockTTL:     getEnvDuration("SCHEDULER_LOCK_TTL", 10*time.Minute),
		},
		Downloads: DownloadConfig{
			Key: getEnv("DOWNLOAD_TOKEN_KEY", ""),
			TTL: getEnvDuration("DOWNLOAD_TOKEN_TTL", 15*time.Minute),
		},
		Documents: DocumentConfig{
			VerifyBaseURL: strings.TrimRight(getEnv("VERIFY_BASE_URL", "http://localhost:5001/api/verify"), "/"),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	plans, err := LoadPlans(getEnv("PLANS_FILE", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to load plan limits: %w", err)
	}
	config.Plans = plans

	return config, nil
}

// NewLogger builds the process logger from the logging configuration.
func (c LoggingConfig) NewLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if strings.EqualFold(c.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(os.Getenv(key))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
