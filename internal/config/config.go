package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers
const (
	StoreGorm   = "gorm"
	StoreGitHub = "github"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port            string
	ShutdownTimeout time.Duration
	SiteDir         string
	BookDir         string
	BookID          string
	CORSOrigins     string

	// Record store selection: gorm (database) or github (issue tracker)
	StoreType string

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int
	DBLogLevel        string

	// Issue tracker configuration
	GitHubToken  string
	GitHubRepo   string
	GitHubAPIURL string

	// Authorizer configuration, optional
	AuthzURL      string
	AuthzClientID string
	EditorRole    string
}

// LoadEnvFile loads variables from a dotenv file into the environment without
// overriding variables already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		ShutdownTimeout:   getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		SiteDir:           getEnv("SITE_DIR", ""),
		BookDir:           getEnv("BOOK_DIR", ""),
		BookID:            getEnv("BOOK_ID", "book1"),
		CORSOrigins:       getEnv("CORS_ORIGINS", "*"),
		StoreType:         strings.ToLower(getEnv("STORE_TYPE", StoreGorm)),
		DBType:            strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", "chapterviewer.db"),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		DBLogLevel:        strings.ToLower(getEnv("DB_LOG_LEVEL", "warn")),
		GitHubToken:       getEnv("GITHUB_TOKEN", ""),
		GitHubRepo:        getEnv("GITHUB_REPO", ""),
		GitHubAPIURL:      getEnv("GITHUB_API_URL", "https://api.github.com"),
		AuthzURL:          getEnv("AUTHZ_URL", ""),
		AuthzClientID:     getEnv("AUTHZ_CLIENT_ID", ""),
		EditorRole:        getEnv("AUTHZ_EDITOR_ROLE", "editor"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields for the selected store and features
func (cfg *Config) Validate() error {
	switch cfg.StoreType {
	case StoreGorm:
		if cfg.DBDatabase == "" {
			return fmt.Errorf("DB_DATABASE is required")
		}
		if cfg.DBType != "sqlite" && cfg.DBUser == "" {
			return fmt.Errorf("DB_USER is required for DB_TYPE %s", cfg.DBType)
		}
	case StoreGitHub:
		if cfg.GitHubToken == "" {
			return fmt.Errorf("GITHUB_TOKEN is required for STORE_TYPE github")
		}
		if cfg.GitHubRepo == "" {
			return fmt.Errorf("GITHUB_REPO is required for STORE_TYPE github")
		}
	default:
		return fmt.Errorf("unsupported STORE_TYPE: %s", cfg.StoreType)
	}

	if cfg.AuthzURL != "" && cfg.AuthzClientID == "" {
		return fmt.Errorf("AUTHZ_CLIENT_ID is required when AUTHZ_URL is set")
	}
	if cfg.BookID == "" {
		return fmt.Errorf("BOOK_ID must not be empty")
	}
	return nil
}

// AuthEnabled reports whether writes are guarded by the Authorizer
func (cfg *Config) AuthEnabled() bool {
	return cfg.AuthzURL != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration accepts Go durations ("5s") or plain milliseconds
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}
