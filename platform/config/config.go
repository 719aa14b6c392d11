// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetSweepInterval() time.Duration
}

// MatchingConfig provides the tunables of the lead distribution engine.
type MatchingConfig interface {
	GetMatchMaxFanout() int
	GetMatchOfferTTL() time.Duration
	GetMatchMinPostcodeProviders() int
	GetMatchHistoryWindow() int
	GetMatchWeightsFile() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env             string
	HTTPAddr        string
	DatabaseURL     string
	JWTAccessSecret string
	CORSAllowAll    bool
	CORSOrigins     []string
	CORSAllowCreds  bool

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int
	SweepInterval    time.Duration

	MatchMaxFanout            int
	MatchOfferTTL             time.Duration
	MatchMinPostcodeProviders int
	MatchHistoryWindow        int
	MatchWeightsFile          string
}

// Load reads configuration from the environment, with .env support for
// local development.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:             getEnv("APP_ENV", "development"),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		JWTAccessSecret: getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:    strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true"),
		CORSOrigins:     splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),
		CORSAllowCreds:  strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: getEnvInt("ASYNQ_CONCURRENCY", 10),
		SweepInterval:    mustDuration(getEnv("SWEEP_INTERVAL", "5m")),

		MatchMaxFanout:            getEnvInt("MATCH_MAX_FANOUT", 5),
		MatchOfferTTL:             mustDuration(getEnv("MATCH_OFFER_TTL", "24h")),
		MatchMinPostcodeProviders: getEnvInt("MATCH_MIN_POSTCODE_PROVIDERS", 3),
		MatchHistoryWindow:        getEnvInt("MATCH_HISTORY_WINDOW", 20),
		MatchWeightsFile:          getEnv("MATCH_WEIGHTS_FILE", ""),
	}

	if containsWildcard(cfg.CORSOrigins) {
		cfg.CORSAllowAll = true
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.MatchMaxFanout < 1 {
		return nil, fmt.Errorf("MATCH_MAX_FANOUT must be at least 1")
	}
	if cfg.MatchOfferTTL <= 0 {
		return nil, fmt.Errorf("MATCH_OFFER_TTL must be a positive duration")
	}

	return cfg, nil
}

// =============================================================================
// Interface implementations
// =============================================================================

func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

func (c *Config) GetRedisURL() string             { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool       { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string       { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int        { return c.AsynqConcurrency }
func (c *Config) GetSweepInterval() time.Duration { return c.SweepInterval }

func (c *Config) GetMatchMaxFanout() int            { return c.MatchMaxFanout }
func (c *Config) GetMatchOfferTTL() time.Duration   { return c.MatchOfferTTL }
func (c *Config) GetMatchMinPostcodeProviders() int { return c.MatchMinPostcodeProviders }
func (c *Config) GetMatchHistoryWindow() int        { return c.MatchHistoryWindow }
func (c *Config) GetMatchWeightsFile() string       { return c.MatchWeightsFile }

// =============================================================================
// Helpers
// =============================================================================

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return parsed
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
