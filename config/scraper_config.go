package config

import (
	"time"

	"pricewatch/scraper"
)

// ScraperConfig holds fetch, cache and storage settings for price checks
type ScraperConfig struct {
	DataFile           string
	DatabaseURL        string // Postgres is used instead of DataFile when set
	CacheTTL           time.Duration
	CacheMaxKeys       int
	FetchTimeout       time.Duration
	TimeoutRetries     int
	TimeoutRetryDelay  time.Duration
	RateLimitRetries   int
	RateLimitDelay     time.Duration
	MaxRedirects       int
	InsecureSkipVerify bool
	RefreshSchedule    string // cron spec with seconds, empty disables refresh
	CacheSweepSchedule string
	MaxConcurrentTasks int
	TaskRetention      time.Duration
}

// LoadScraperConfig loads scraper configuration from environment variables
func LoadScraperConfig() *ScraperConfig {
	return &ScraperConfig{
		DataFile:           getEnv("DATA_FILE", "data/price_history.json"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		CacheTTL:           getEnvDuration("CACHE_TTL", 300*time.Second),
		CacheMaxKeys:       getEnvInt("CACHE_MAX_KEYS", 1000),
		FetchTimeout:       getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
		TimeoutRetries:     getEnvInt("FETCH_TIMEOUT_RETRIES", 2),
		TimeoutRetryDelay:  getEnvDuration("FETCH_TIMEOUT_RETRY_DELAY", 1*time.Second),
		RateLimitRetries:   getEnvInt("FETCH_RATE_LIMIT_RETRIES", 2),
		RateLimitDelay:     getEnvDuration("FETCH_RATE_LIMIT_RETRY_DELAY", 2*time.Second),
		MaxRedirects:       getEnvInt("FETCH_MAX_REDIRECTS", 10),
		InsecureSkipVerify: getEnvBool("FETCH_INSECURE_SKIP_VERIFY", false),
		RefreshSchedule:    getEnv("REFRESH_SCHEDULE", "0 0 */6 * * *"),
		CacheSweepSchedule: getEnv("CACHE_SWEEP_SCHEDULE", "@every 1m"),
		MaxConcurrentTasks: getEnvInt("MAX_CONCURRENT_TASKS", 3),
		TaskRetention:      getEnvDuration("TASK_RETENTION", 30*time.Minute),
	}
}

// UsePostgres reports whether records go to Postgres
func (c *ScraperConfig) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// FetchOptions converts the settings for the page fetcher
func (c *ScraperConfig) FetchOptions() *scraper.FetchOptions {
	return &scraper.FetchOptions{
		Timeout:             c.FetchTimeout,
		MaxTimeoutRetries:   c.TimeoutRetries,
		TimeoutRetryDelay:   c.TimeoutRetryDelay,
		MaxRateLimitRetries: c.RateLimitRetries,
		RateLimitRetryDelay: c.RateLimitDelay,
		MaxRedirects:        c.MaxRedirects,
		InsecureSkipVerify:  c.InsecureSkipVerify,
	}
}
