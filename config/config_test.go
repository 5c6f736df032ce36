package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, "https://remanga.org/manga", config.ListingURL)
	assert.Equal(t, "http://localhost:3000", config.ChromeAddr)
	assert.Equal(t, 120, config.CandidateCap)
	assert.Equal(t, 110, config.TargetCount)
	assert.Equal(t, 100, config.MinRecords)
	assert.Equal(t, "data/raw_manga.json", config.OutputPath)
	assert.Equal(t, 5, config.ScrollCycles)
	assert.Equal(t, 2500*time.Millisecond, config.PageSettle)
	assert.Equal(t, 1*time.Second, config.DelayMin)
	assert.Equal(t, 3*time.Second, config.DelayMax)
	assert.Equal(t, "", config.RedisAddr)
	assert.Equal(t, "", config.MemcacheAddr)

	// Test with environment variables
	os.Setenv("LISTING_URL", "https://example.com/catalog")
	os.Setenv("CANDIDATE_CAP", "7")
	os.Setenv("TARGET_COUNT", "5")
	os.Setenv("PAGE_SETTLE_MS", "100")
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("MEMCACHE_ADDR", "memcache.example.com:11211")

	config = LoadConfig()
	assert.Equal(t, "https://example.com/catalog", config.ListingURL)
	assert.Equal(t, 7, config.CandidateCap)
	assert.Equal(t, 5, config.TargetCount)
	assert.Equal(t, 100*time.Millisecond, config.PageSettle)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, "memcache.example.com:11211", config.MemcacheAddr)

	// Clean up
	os.Unsetenv("LISTING_URL")
	os.Unsetenv("CANDIDATE_CAP")
	os.Unsetenv("TARGET_COUNT")
	os.Unsetenv("PAGE_SETTLE_MS")
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("MEMCACHE_ADDR")
}

func TestValidate(t *testing.T) {
	valid := LoadConfig()
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listing URL", func(c *Config) { c.ListingURL = "" }},
		{"bad chrome addr", func(c *Config) { c.ChromeAddr = "not a url" }},
		{"zero cap", func(c *Config) { c.CandidateCap = 0 }},
		{"negative target", func(c *Config) { c.TargetCount = -1 }},
		{"zero min records", func(c *Config) { c.MinRecords = 0 }},
		{"empty output path", func(c *Config) { c.OutputPath = "" }},
		{"inverted delay window", func(c *Config) { c.DelayMin = 5 * time.Second; c.DelayMax = time.Second }},
		{"zero progress interval", func(c *Config) { c.ProgressEvery = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := LoadConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
