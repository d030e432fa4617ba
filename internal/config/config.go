// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all fakehub server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel    string
	LogFormat   string
	LogRequests bool
	LogRedact   bool

	// Fixture tree
	HubRoot string

	// Probe behavior: when true, HEAD requests on resolve endpoints
	// compute and report an ETag digest. Costly on large fixtures.
	ProbeDigests bool

	// Hash cache backend ("memory", "redis" or "off")
	HashCache string
	RedisURL  string
	RedisTTL  time.Duration
}

// Hash cache backends.
const (
	HashCacheMemory = "memory"
	HashCacheRedis  = "redis"
	HashCacheOff    = "off"
)

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:   envOr("LISTEN_ADDR", ":8000"),
		MetricsAddr:  envOr("METRICS_ADDR", ":9090"),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFormat:    envOr("LOG_FORMAT", "console"),
		LogRequests:  envBool("LOG_REQUESTS", true),
		LogRedact:    envBool("LOG_REDACT", true),
		HubRoot:      envOr("FAKE_HUB_ROOT", "fake_hub"),
		ProbeDigests: envBool("PROBE_DIGESTS", false),
		HashCache:    envOr("HASH_CACHE", "memory"),
		RedisURL:     envOr("REDIS_URL", "redis://localhost:6379/0"),
		RedisTTL:     envDuration("REDIS_TTL", 24*time.Hour),
	}

	switch cfg.HashCache {
	case HashCacheMemory, HashCacheRedis, HashCacheOff:
	default:
		return nil, fmt.Errorf("HASH_CACHE must be 'memory', 'redis' or 'off', got %q", cfg.HashCache)
	}

	return cfg, nil
}

// AbsHubRoot returns the absolute form of the fixture root.
func (c *Config) AbsHubRoot() string {
	abs, err := filepath.Abs(c.HubRoot)
	if err != nil {
		return c.HubRoot
	}
	return abs
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
