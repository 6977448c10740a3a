package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	ProviderBaseURL   string // Required: base URL of the wallet provider sidecar
	ClientID          string // Required: provider client id for the app credential
	ClientSecret      string // Required: provider client secret
	CollectionPayeeID string // Required: app-owned payee that receives charges

	TokenFile     string        // Optional: path to the sealed service token file (default: ./payflow-token.json)
	MasterKeyPath string        // Optional: path to the token sealing master key file
	APISecret     string        // Optional: shared HS256 secret for bot authentication; empty disables auth
	DatabaseFile  string        // Optional: path to SQLite database file (default: ./payflow.db)
	Env           string        // Environment (dev, staging, prod) (default: dev)
	LogLevel      string        // Log level (debug, info, warn, error) (default: info)
	LogFormat     string        // Log format (json, text) (default: json)
	Port          int           // HTTP server port (default: 8080)
	ShutdownGrace time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	return Config{
		ProviderBaseURL:   os.Getenv("PAYMAN_BASE_URL"),
		ClientID:          os.Getenv("PAYMAN_CLIENT_ID"),
		ClientSecret:      os.Getenv("PAYMAN_CLIENT_SECRET"),
		CollectionPayeeID: os.Getenv("PAYMAN_COLLECTION_PAYEE_ID"),

		TokenFile:     getEnvOrDefault("PAYFLOW_TOKEN_FILE", "payflow-token.json"),
		MasterKeyPath: os.Getenv("PAYFLOW_MASTER_KEY_PATH"),
		APISecret:     os.Getenv("PAYFLOW_API_SECRET"),
		DatabaseFile:  getEnvOrDefault("PAYFLOW_DATABASE_FILE", "payflow.db"),
		Env:           getEnvOrDefault("ENV", "dev"),
		LogLevel:      getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:     getEnvOrDefault("LOG_FORMAT", "json"),
		Port:          getEnvIntOrDefault("PORT", 8080),
		ShutdownGrace: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}
}

// Validate reports every missing required setting at once so an operator can
// fix a broken deployment in one pass.
func (cfg Config) Validate() error {
	var errs []error

	if cfg.ProviderBaseURL == "" {
		errs = append(errs, errors.New("PAYMAN_BASE_URL is required"))
	}
	if cfg.ClientID == "" {
		errs = append(errs, errors.New("PAYMAN_CLIENT_ID is required"))
	}
	if cfg.ClientSecret == "" {
		errs = append(errs, errors.New("PAYMAN_CLIENT_SECRET is required"))
	}
	if cfg.CollectionPayeeID == "" {
		errs = append(errs, errors.New("PAYMAN_COLLECTION_PAYEE_ID is required"))
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", cfg.Port))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers mean seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
