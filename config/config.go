// Package config loads the service configuration from environment variables
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the deployment environment the service runs in
type Environment int

const (
	EnvDevelopment Environment = iota
	EnvStaging
	EnvProduction
	EnvTest
)

func (e Environment) String() string {
	switch e {
	case EnvStaging:
		return "staging"
	case EnvProduction:
		return "prod"
	case EnvTest:
		return "test"
	default:
		return "dev"
	}
}

// ParseEnvironment accepts the short and long spellings of each environment
func ParseEnvironment(s string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "development":
		return EnvDevelopment, nil
	case "staging":
		return EnvStaging, nil
	case "prod", "production":
		return EnvProduction, nil
	case "test":
		return EnvTest, nil
	}
	return EnvDevelopment, fmt.Errorf("ENV must be one of: [dev staging prod test], got: %s", s)
}

// Config holds all application configuration
type Config struct {
	Port              string
	Address           string
	Env               Environment
	LogLevel          string // empty means the environment default
	LogDir            string
	LogRetentionWeeks int   // Number of weeks to keep log files
	MaxLogFileSize    int64 // Maximum log file size in bytes
	MaxRequestBody    int64 // Maximum request body size in bytes
	MaxHeaderSize     int64 // Maximum header size in bytes

	CatalogPath     string
	CatalogReloadAt string // daily reload times, "HH:MM[;HH:MM...]"

	SentimentDataDir   string
	RedisURL           string // empty disables the redis tier
	ObjectStoreURL     string // empty disables the object store tier
	RemoteTimeout      time.Duration
	CacheTTL           time.Duration
	CacheSweepInterval time.Duration

	FuzzyThreshold int
	FuzzyLimit     int
	SearchLimit    int

	AllowedOrigins []string
}

// Load loads and validates configuration from environment variables
func Load() (*Config, error) {
	env, err := ParseEnvironment(getEnvWithDefault("ENV", "dev"))
	if err != nil {
		return nil, fmt.Errorf("configuration validation failed: invalid ENV: %w", err)
	}

	cfg := &Config{
		Port:              getEnvWithDefault("PORT", "8000"),
		Address:           getEnvWithDefault("ADDRESS", "127.0.0.1"),
		Env:               env,
		LogLevel:          strings.ToLower(os.Getenv("LOG_LEVEL")),
		LogDir:            getEnvWithDefault("LOG_DIR", "logs"),
		LogRetentionWeeks: getIntEnvWithDefault("LOG_RETENTION_WEEKS", 4),         // 4 weeks default
		MaxLogFileSize:    getInt64EnvWithDefault("MAX_LOG_FILE_SIZE", 104857600), // 100MB default
		MaxRequestBody:    getInt64EnvWithDefault("MAX_REQUEST_BODY", 1048576),    // 1MB default
		MaxHeaderSize:     getInt64EnvWithDefault("MAX_HEADER_SIZE", 1048576),     // 1MB default

		CatalogPath:     getEnvWithDefault("CATALOG_PATH", "data/drugs.csv"),
		CatalogReloadAt: getEnvWithDefault("CATALOG_RELOAD_AT", "06:00"),

		SentimentDataDir:   getEnvWithDefault("SENTIMENT_DATA_DIR", "data/agg"),
		RedisURL:           os.Getenv("REDIS_URL"),
		ObjectStoreURL:     os.Getenv("OBJECT_STORE_URL"),
		RemoteTimeout:      getDurationEnvWithDefault("REMOTE_TIMEOUT", 3*time.Second),
		CacheTTL:           getDurationEnvWithDefault("CACHE_TTL", 15*time.Minute),
		CacheSweepInterval: getDurationEnvWithDefault("CACHE_SWEEP_INTERVAL", 10*time.Minute),

		FuzzyThreshold: getIntEnvWithDefault("FUZZY_THRESHOLD", 60),
		FuzzyLimit:     getIntEnvWithDefault("FUZZY_LIMIT", 20),
		SearchLimit:    getIntEnvWithDefault("SEARCH_LIMIT", 10),

		AllowedOrigins: splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:5173,https://rxu.austintbabu.com")),
	}

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validateConfig validates all configuration values
func validateConfig(cfg *Config) error {
	if err := validatePort(cfg.Port); err != nil {
		return fmt.Errorf("invalid PORT: %w", err)
	}

	if err := validateAddress(cfg.Address); err != nil {
		return fmt.Errorf("invalid ADDRESS: %w", err)
	}

	if err := validateLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxRequestBody, "MAX_REQUEST_BODY"); err != nil {
		return fmt.Errorf("invalid MAX_REQUEST_BODY: %w", err)
	}

	if err := validateSizeLimit(cfg.MaxHeaderSize, "MAX_HEADER_SIZE"); err != nil {
		return fmt.Errorf("invalid MAX_HEADER_SIZE: %w", err)
	}

	if err := validateLogRetentionWeeks(cfg.LogRetentionWeeks); err != nil {
		return fmt.Errorf("invalid LOG_RETENTION_WEEKS: %w", err)
	}

	if err := validateMaxLogFileSize(cfg.MaxLogFileSize); err != nil {
		return fmt.Errorf("invalid MAX_LOG_FILE_SIZE: %w", err)
	}

	if cfg.CatalogPath == "" {
		return fmt.Errorf("invalid CATALOG_PATH: cannot be empty")
	}

	if err := validateReloadTimes(cfg.CatalogReloadAt); err != nil {
		return fmt.Errorf("invalid CATALOG_RELOAD_AT: %w", err)
	}

	if err := validateRemoteURL(cfg.RedisURL, "redis", "rediss"); err != nil {
		return fmt.Errorf("invalid REDIS_URL: %w", err)
	}

	if err := validateRemoteURL(cfg.ObjectStoreURL, "http", "https"); err != nil {
		return fmt.Errorf("invalid OBJECT_STORE_URL: %w", err)
	}

	if err := validateDuration(cfg.RemoteTimeout, 100*time.Millisecond, time.Minute); err != nil {
		return fmt.Errorf("invalid REMOTE_TIMEOUT: %w", err)
	}

	if err := validateDuration(cfg.CacheTTL, time.Second, 24*time.Hour); err != nil {
		return fmt.Errorf("invalid CACHE_TTL: %w", err)
	}

	if err := validateDuration(cfg.CacheSweepInterval, time.Second, 24*time.Hour); err != nil {
		return fmt.Errorf("invalid CACHE_SWEEP_INTERVAL: %w", err)
	}

	if cfg.FuzzyThreshold < 0 || cfg.FuzzyThreshold > 100 {
		return fmt.Errorf("invalid FUZZY_THRESHOLD: must be between 0 and 100, got: %d", cfg.FuzzyThreshold)
	}

	if cfg.FuzzyLimit < 1 || cfg.FuzzyLimit > 1000 {
		return fmt.Errorf("invalid FUZZY_LIMIT: must be between 1 and 1000, got: %d", cfg.FuzzyLimit)
	}

	if cfg.SearchLimit < 1 || cfg.SearchLimit > 100 {
		return fmt.Errorf("invalid SEARCH_LIMIT: must be between 1 and 100, got: %d", cfg.SearchLimit)
	}

	return nil
}

// validatePort validates the PORT environment variable
func validatePort(port string) error {
	if port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("PORT must be a valid number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535")
	}

	// Check for privileged ports
	if portNum < 1024 {
		return fmt.Errorf("PORT %d is privileged (less than 1024), use ports 1024-65535", portNum)
	}

	return nil
}

// validateAddress validates the ADDRESS environment variable
func validateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("ADDRESS cannot be empty")
	}

	if address == "127.0.0.1" || address == "::1" || address == "localhost" || address == "0.0.0.0" {
		return nil
	}

	ip := net.ParseIP(address)
	if ip == nil {
		return fmt.Errorf("ADDRESS must be a valid IP address or 'localhost', got: %s", address)
	}

	// Only loopback and private ranges (10.0.0.0/8, 172.16.0.0/12, 192.168.0.0/16)
	if !ip.IsLoopback() && !ip.IsPrivate() {
		return fmt.Errorf("ADDRESS %s is a public IP, consider using private network ranges for security", address)
	}

	return nil
}

// validateLogLevel validates the LOG_LEVEL environment variable. Empty is allowed.
func validateLogLevel(logLevel string) error {
	if logLevel == "" {
		return nil
	}

	validLevels := []string{"debug", "info", "warn", "error"}
	for _, level := range validLevels {
		if logLevel == level {
			return nil
		}
	}

	return fmt.Errorf("LOG_LEVEL must be one of: %v, got: %s", validLevels, logLevel)
}

// validateSizeLimit validates size limit configuration values
func validateSizeLimit(size int64, configName string) error {
	if size <= 0 {
		return fmt.Errorf("%s must be positive, got: %d", configName, size)
	}

	if size > 100*1024*1024 { // 100MB
		return fmt.Errorf("%s is too large (max 100MB), got: %d bytes", configName, size)
	}

	return nil
}

// validateLogRetentionWeeks validates the LOG_RETENTION_WEEKS environment variable
func validateLogRetentionWeeks(weeks int) error {
	if weeks <= 0 {
		return fmt.Errorf("LOG_RETENTION_WEEKS must be positive, got: %d", weeks)
	}

	if weeks > 52 { // 1 year maximum
		return fmt.Errorf("LOG_RETENTION_WEEKS is too large (max 52 weeks), got: %d", weeks)
	}

	return nil
}

// validateMaxLogFileSize validates the MAX_LOG_FILE_SIZE environment variable
func validateMaxLogFileSize(size int64) error {
	if size <= 0 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE must be positive, got: %d", size)
	}

	// Minimum 1MB, maximum 1GB
	if size < 1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too small (min 1MB), got: %d bytes", size)
	}

	if size > 1024*1024*1024 {
		return fmt.Errorf("MAX_LOG_FILE_SIZE is too large (max 1GB), got: %d bytes", size)
	}

	return nil
}

// validateReloadTimes checks a semicolon separated list of HH:MM times
func validateReloadTimes(times string) error {
	if strings.TrimSpace(times) == "" {
		return fmt.Errorf("cannot be empty")
	}
	for _, t := range strings.Split(times, ";") {
		if _, err := time.Parse("15:04", strings.TrimSpace(t)); err != nil {
			return fmt.Errorf("%q is not a HH:MM time", t)
		}
	}
	return nil
}

// validateRemoteURL accepts an empty value (tier disabled) or a URL with one of schemes
func validateRemoteURL(raw string, schemes ...string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %s", raw)
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme must be one of %v, got: %s", schemes, u.Scheme)
}

func validateDuration(d, lo, hi time.Duration) error {
	if d < lo || d > hi {
		return fmt.Errorf("must be between %s and %s, got: %s", lo, hi, d)
	}
	return nil
}

// getEnvWithDefault gets an environment variable with a default value
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnvWithDefault gets an environment variable as int with a default value
func getIntEnvWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64EnvWithDefault gets an environment variable as int64 with a default value
func getInt64EnvWithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnvWithDefault reads a Go duration ("3s", "15m") with a default value
func getDurationEnvWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
