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

// SchedulerConfig provides settings for the background job scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetExpirySweepInterval() time.Duration
	GetBookingSyncInterval() time.Duration
}

// CacheConfig provides settings for the Redis eligibility cache.
type CacheConfig interface {
	GetRedisURL() string
	GetEligibilityCacheTTL() time.Duration
}

// LeadPolicyConfig provides the lead lifecycle policy knobs.
type LeadPolicyConfig interface {
	GetBookingLeadTTL() time.Duration
	GetEnquiryLeadTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	ExpirySweepInterval time.Duration
	BookingSyncInterval time.Duration
	EligibilityCacheTTL time.Duration
	BookingLeadTTL      time.Duration
	EnquiryLeadTTL      time.Duration
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string                    { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool              { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string              { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int               { return c.AsynqConcurrency }
func (c *Config) GetExpirySweepInterval() time.Duration  { return c.ExpirySweepInterval }
func (c *Config) GetBookingSyncInterval() time.Duration  { return c.BookingSyncInterval }

// CacheConfig implementation
func (c *Config) GetEligibilityCacheTTL() time.Duration { return c.EligibilityCacheTTL }

// LeadPolicyConfig implementation
func (c *Config) GetBookingLeadTTL() time.Duration { return c.BookingLeadTTL }
func (c *Config) GetEnquiryLeadTTL() time.Duration { return c.EnquiryLeadTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		ExpirySweepInterval: mustDuration(getEnv("LEAD_EXPIRY_SWEEP_INTERVAL", "1m")),
		BookingSyncInterval: mustDuration(getEnv("BOOKING_SYNC_INTERVAL", "15m")),
		EligibilityCacheTTL: mustDuration(getEnv("ELIGIBILITY_CACHE_TTL", "5m")),
		BookingLeadTTL:      mustDuration(getEnv("LEAD_BOOKING_TTL", "24h")),
		EnquiryLeadTTL:      mustDuration(getEnv("LEAD_ENQUIRY_TTL", "720h")),
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

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
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
