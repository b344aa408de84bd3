package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	CommerceURL string // Required: base URL of the commerce API
	ShopURL     string // Required: base URL of the shop management API

	RequestTimeout time.Duration // Optional: per-request timeout (default: 30s)
	UploadTimeout  time.Duration // Optional: multipart upload timeout (default: 60s)
	TokenTTL       time.Duration // Optional: token persistence window (default: 7 days)

	DatabaseFile  string // Optional: path to SQLite session database (default: ./storefront.db)
	MasterKeyPath string // Optional: path to master sealing key file (env fallback otherwise)

	RateLimitRequests int           // Optional: outbound requests allowed per window, 0 disables throttling
	RateLimitWindow   time.Duration // Optional: throttling window (default: 1s)
	RateLimitBurst    int           // Optional: burst allowance above the sustained rate (default: 1)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)
}

func LoadConfig() Config {
	return Config{
		CommerceURL:    os.Getenv("STOREFRONT_COMMERCE_URL"),
		ShopURL:        os.Getenv("STOREFRONT_SHOP_URL"),
		RequestTimeout: getEnvDurationOrDefault("STOREFRONT_REQUEST_TIMEOUT", 30*time.Second),
		UploadTimeout:  getEnvDurationOrDefault("STOREFRONT_UPLOAD_TIMEOUT", 60*time.Second),
		TokenTTL:       getEnvDurationOrDefault("STOREFRONT_TOKEN_TTL", 7*24*time.Hour),
		DatabaseFile:   getEnvOrDefault("STOREFRONT_DATABASE_FILE", "storefront.db"),
		MasterKeyPath:  os.Getenv("STOREFRONT_MASTER_KEY_PATH"), // Optional

		RateLimitRequests: getEnvIntOrDefault("STOREFRONT_RATE_LIMIT_REQUESTS", 0),
		RateLimitWindow:   getEnvDurationOrDefault("STOREFRONT_RATE_LIMIT_WINDOW", time.Second),
		RateLimitBurst:    getEnvIntOrDefault("STOREFRONT_RATE_LIMIT_BURST", 1),
		Env:            getEnvOrDefault("ENV", "dev"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:      getEnvOrDefault("LOG_FORMAT", "json"),
	}
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

	if n, err := strconv.Atoi(value); err == nil {
		return n
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

	return defaultValue
}
