package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// APIConfig holds HTTP API configuration settings
type APIConfig struct {
	Version            string
	Host               string
	Port               string
	AllowedOrigins     []string
	RequireAPIKey      bool
	APIKeys            []string
	RateLimitEnabled   bool
	RateLimitPerMinute int
	LoggingEnabled     bool
	MaxRequestSize     int64
	RequestTimeout     time.Duration
	AllowedDomains     []string // Hosts price checks may target
}

// DefaultAPIConfig returns the API configuration from the environment
func DefaultAPIConfig() *APIConfig {
	return &APIConfig{
		Version:            "v1",
		Host:               getEnv("HOST", "0.0.0.0"),
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RequireAPIKey:      getEnvBool("API_REQUIRE_KEY", false),
		APIKeys:            getEnvList("API_KEYS", nil),
		RateLimitEnabled:   getEnvBool("API_RATE_LIMIT_ENABLED", true),
		RateLimitPerMinute: getEnvInt("API_RATE_LIMIT_PER_MINUTE", 60),
		LoggingEnabled:     getEnvBool("API_LOGGING_ENABLED", true),
		MaxRequestSize:     getEnvInt64("API_MAX_REQUEST_SIZE", 1024*1024), // 1MB
		RequestTimeout:     getEnvDuration("API_REQUEST_TIMEOUT", 60*time.Second),
		AllowedDomains: getEnvList("ALLOWED_DOMAINS", []string{
			"amazon.com", "www.amazon.com",
			"ebay.com", "www.ebay.com",
			"bestbuy.com", "www.bestbuy.com",
		}),
	}
}

// IsAllowedDomain reports whether host is on the allowed list
func (c *APIConfig) IsAllowedDomain(host string) bool {
	host = strings.ToLower(host)
	for _, domain := range c.AllowedDomains {
		if host == strings.ToLower(domain) {
			return true
		}
	}
	return false
}

// IsValidAPIKey checks a key against the configured list
func (c *APIConfig) IsValidAPIKey(key string) bool {
	if key == "" {
		return false
	}
	for _, k := range c.APIKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
