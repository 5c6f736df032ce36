package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Target site
	ListingURL string
	SingleURL  string

	// Rendering service
	ChromeAddr string

	// Crawl limits
	CandidateCap int
	TargetCount  int
	MinRecords   int

	// Output
	OutputPath string
	DBPath     string

	// Listing discovery timing
	ListingSettle time.Duration
	ScrollCycles  int
	ScrollStepPx  int
	ScrollSettle  time.Duration
	ReadyTimeout  time.Duration

	// Detail page timing
	PageSettle    time.Duration
	DelayMin      time.Duration
	DelayMax      time.Duration
	ProgressEvery int

	// Redis configuration (record stream publishing, disabled when addr is empty)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamCount     int
	RedisStreamMaxLength int

	// Memcache configuration (run lock, disabled when addr is empty)
	MemcacheAddr string
	RunLockTTL   time.Duration

	// Metrics endpoint (disabled when addr is empty)
	MetricsAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() *Config {
	return &Config{
		ListingURL:           getEnv("LISTING_URL", "https://remanga.org/manga"),
		SingleURL:            getEnv("SINGLE_URL", ""),
		ChromeAddr:           getEnv("CHROME_ADDR", "http://localhost:3000"),
		CandidateCap:         getEnvInt("CANDIDATE_CAP", 120),
		TargetCount:          getEnvInt("TARGET_COUNT", 110),
		MinRecords:           getEnvInt("MIN_RECORDS", 100),
		OutputPath:           getEnv("OUTPUT_PATH", "data/raw_manga.json"),
		DBPath:               getEnv("DB_PATH", "data/output.db"),
		ListingSettle:        getEnvMillis("LISTING_SETTLE_MS", 3000),
		ScrollCycles:         getEnvInt("SCROLL_CYCLES", 5),
		ScrollStepPx:         getEnvInt("SCROLL_STEP_PX", 1000),
		ScrollSettle:         getEnvMillis("SCROLL_SETTLE_MS", 2000),
		ReadyTimeout:         getEnvMillis("READY_TIMEOUT_MS", 10000),
		PageSettle:           getEnvMillis("PAGE_SETTLE_MS", 2500),
		DelayMin:             getEnvMillis("DELAY_MIN_MS", 1000),
		DelayMax:             getEnvMillis("DELAY_MAX_MS", 3000),
		ProgressEvery:        getEnvInt("PROGRESS_EVERY", 10),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "manga"),
		RedisStreamCount:     getEnvInt("REDIS_STREAM_COUNT", 1),
		RedisStreamMaxLength: getEnvInt("REDIS_STREAM_MAX_LENGTH", 500),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RunLockTTL:           getEnvMillis("RUN_LOCK_TTL_MS", 600000),
		MetricsAddr:          getEnv("METRICS_ADDR", ""),
		Environment:          getEnv("MANGA_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is internally coherent
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.ListingURL); err != nil {
		return fmt.Errorf("invalid listing URL %q: %w", c.ListingURL, err)
	}
	if c.SingleURL != "" {
		if _, err := url.ParseRequestURI(c.SingleURL); err != nil {
			return fmt.Errorf("invalid single URL %q: %w", c.SingleURL, err)
		}
	}
	if _, err := url.ParseRequestURI(c.ChromeAddr); err != nil {
		return fmt.Errorf("invalid chrome address %q: %w", c.ChromeAddr, err)
	}
	if c.CandidateCap <= 0 {
		return fmt.Errorf("candidate cap must be positive, got %d", c.CandidateCap)
	}
	if c.TargetCount <= 0 {
		return fmt.Errorf("target count must be positive, got %d", c.TargetCount)
	}
	if c.MinRecords <= 0 {
		return fmt.Errorf("min records must be positive, got %d", c.MinRecords)
	}
	if c.OutputPath == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return fmt.Errorf("invalid delay window [%s, %s]", c.DelayMin, c.DelayMax)
	}
	if c.ProgressEvery <= 0 {
		return fmt.Errorf("progress interval must be positive, got %d", c.ProgressEvery)
	}
	if c.ScrollCycles < 0 || c.ScrollStepPx <= 0 {
		return fmt.Errorf("invalid scroll settings (cycles=%d, step=%d)", c.ScrollCycles, c.ScrollStepPx)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvMillis retrieves a millisecond environment variable as a duration
func getEnvMillis(key string, defaultMillis int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMillis)) * time.Millisecond
}
