// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/clipclash/clipclash-server/internal/domain"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig
	Logger  LoggerConfig
	Server  ServerConfig
	Storage StorageConfig
	Cache   CacheConfig
	Ranking RankingConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Name         string
	Port         string        // Server port (default: 8080)
	ReadTimeout  time.Duration // HTTP read timeout (default: 15s)
	WriteTimeout time.Duration // HTTP write timeout (default: 15s)
	IdleTimeout  time.Duration // HTTP idle timeout (default: 60s)
}

// StorageConfig holds data storage configuration.
type StorageConfig struct {
	// BasePath is the directory holding the SQLite database and the
	// ranking cache (default: ~/ClipClash/data).
	BasePath string
	// CacheInMemory runs the ranking cache without disk persistence.
	CacheInMemory bool
}

// DatabasePath is the SQLite database file under BasePath.
func (s StorageConfig) DatabasePath() string {
	return filepath.Join(s.BasePath, "clipclash.db")
}

// CachePath is the ranking cache directory under BasePath.
func (s StorageConfig) CachePath() string {
	return filepath.Join(s.BasePath, "rankcache")
}

// CacheConfig holds per-period TTLs for cached ranking sets.
type CacheConfig struct {
	TTLDaily   time.Duration // default: 5m
	TTLWeekly  time.Duration // default: 15m
	TTLAllTime time.Duration // default: 1h
}

// TTLFor returns the cache TTL for a ranking period.
func (c CacheConfig) TTLFor(period domain.Period) time.Duration {
	switch period {
	case domain.PeriodDaily:
		return c.TTLDaily
	case domain.PeriodWeekly:
		return c.TTLWeekly
	default:
		return c.TTLAllTime
	}
}

// RankingConfig holds recomputation and read-path configuration.
type RankingConfig struct {
	// RecomputeInterval is the period of the background recompute worker.
	RecomputeInterval time.Duration // default: 2m
	// RecomputeConcurrency bounds parallel per-challenge recomputes.
	RecomputeConcurrency int // default: 4
	// RecomputeRatePerMinute limits manually triggered recomputes per challenge.
	RecomputeRatePerMinute int // default: 2
	// DefaultPageSize and MaxPageSize bound leaderboard reads.
	DefaultPageSize int // default: 20
	MaxPageSize     int // default: 100
	// TopCreatorsLimit caps the cross-challenge creators view.
	TopCreatorsLimit int // default: 50
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	// Define command-line flags.
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")
	dataPath := flag.String("data-path", "", "Base path for database and cache storage")
	serverName := flag.String("server-name", "", "Name for the server")

	// Server flags
	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	// Cache flags
	cacheInMemory := flag.String("cache-in-memory", "", "Run ranking cache without disk persistence (default: false)")
	ttlDaily := flag.String("cache-ttl-daily", "", "Daily ranking cache TTL (default: 5m)")
	ttlWeekly := flag.String("cache-ttl-weekly", "", "Weekly ranking cache TTL (default: 15m)")
	ttlAllTime := flag.String("cache-ttl-all-time", "", "All-time ranking cache TTL (default: 1h)")

	// Ranking flags
	recomputeInterval := flag.String("recompute-interval", "", "Background recompute interval (default: 2m)")
	recomputeConcurrency := flag.String("recompute-concurrency", "", "Max parallel challenge recomputes (default: 4)")
	recomputeRate := flag.String("recompute-rate", "", "Manual recomputes allowed per challenge per minute (default: 2)")

	// Parse flags but don't exit on error - we want to handle it gracefully.
	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	// Build config with proper precedence.
	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Name: getConfigValue(*serverName, "SERVER_NAME", "ClipClash Ranking"),
			Port: getConfigValue(*serverPort, "SERVER_PORT", "8080"),
		},
		Storage: StorageConfig{
			BasePath:      getConfigValue(*dataPath, "DATA_PATH", ""),
			CacheInMemory: getBoolConfigValue(*cacheInMemory, "CACHE_IN_MEMORY", false),
		},
		Ranking: RankingConfig{
			RecomputeConcurrency:   getIntConfigValue(*recomputeConcurrency, "RECOMPUTE_CONCURRENCY", 4),
			RecomputeRatePerMinute: getIntConfigValue(*recomputeRate, "RECOMPUTE_RATE_PER_MINUTE", 2),
			DefaultPageSize:        getIntConfigValue("", "PAGE_SIZE_DEFAULT", 20),
			MaxPageSize:            getIntConfigValue("", "PAGE_SIZE_MAX", 100),
			TopCreatorsLimit:       getIntConfigValue("", "TOP_CREATORS_LIMIT", 50),
		},
	}

	// Parse durations.
	durations := []struct {
		dst      *time.Duration
		flagVal  string
		envKey   string
		fallback string
		name     string
	}{
		{&cfg.Server.ReadTimeout, *readTimeout, "SERVER_READ_TIMEOUT", "15s", "read timeout"},
		{&cfg.Server.WriteTimeout, *writeTimeout, "SERVER_WRITE_TIMEOUT", "15s", "write timeout"},
		{&cfg.Server.IdleTimeout, *idleTimeout, "SERVER_IDLE_TIMEOUT", "60s", "idle timeout"},
		{&cfg.Cache.TTLDaily, *ttlDaily, "CACHE_TTL_DAILY", "5m", "daily cache TTL"},
		{&cfg.Cache.TTLWeekly, *ttlWeekly, "CACHE_TTL_WEEKLY", "15m", "weekly cache TTL"},
		{&cfg.Cache.TTLAllTime, *ttlAllTime, "CACHE_TTL_ALL_TIME", "1h", "all-time cache TTL"},
		{&cfg.Ranking.RecomputeInterval, *recomputeInterval, "RECOMPUTE_INTERVAL", "2m", "recompute interval"},
	}
	for _, d := range durations {
		raw := getConfigValue(d.flagVal, d.envKey, d.fallback)
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s %q: %w", d.name, raw, err)
		}
		*d.dst = parsed
	}

	// Expand and validate the data path.
	if err := cfg.expandDataPath(); err != nil {
		return nil, fmt.Errorf("invalid data path: %w", err)
	}

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	if c.App.Environment == "" {
		return errors.New("ENV is required")
	}

	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Storage.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Ranking.RecomputeInterval <= 0 {
		return errors.New("recompute interval must be positive")
	}
	if c.Ranking.RecomputeConcurrency < 1 {
		return errors.New("recompute concurrency must be at least 1")
	}
	if c.Ranking.DefaultPageSize < 1 || c.Ranking.MaxPageSize < c.Ranking.DefaultPageSize {
		return errors.New("page sizes must satisfy 1 <= default <= max")
	}

	for _, period := range domain.Periods() {
		if c.Cache.TTLFor(period) <= 0 {
			return fmt.Errorf("cache TTL for period %s must be positive", period)
		}
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty and defaultPath is provided, uses the default.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	// Expand tilde.
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	// Make absolute if needed.
	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// expandDataPath expands ~ and makes the path absolute.
func (c *Config) expandDataPath() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	defaultPath := filepath.Join(homeDir, "ClipClash", "data")

	expanded, err := expandPath(c.Storage.BasePath, defaultPath)
	if err != nil {
		return err
	}
	c.Storage.BasePath = expanded
	return nil
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	// Priority 1: Command-line flag.
	if flagValue != "" {
		return flagValue
	}

	// Priority 2: Environment variable.
	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	// Priority 3: Default value.
	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
