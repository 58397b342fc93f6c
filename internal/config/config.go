// Package config provides configuration management for the wallet profile services.
// It loads configuration from environment variables, .env files and an
// optional YAML file describing the risk categories.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/wallet-profiles/internal/types"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Web        WebConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Logging    LoggingConfig
	ProfileAPI ProfileAPIConfig
	Risk       RiskConfig
}

// ServerConfig holds profile API server configuration
type ServerConfig struct {
	Port string
	Host string
}

// WebConfig holds configuration for the profile screen front end
type WebConfig struct {
	Port          string
	Host          string
	SessionCookie string
	SessionIdle   time.Duration
	SecureCookie  bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// URL returns the postgres:// form used by the migration tool
func (c PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// ClickHouseConfig holds ClickHouse configuration. An empty host disables
// the profile event log.
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// Enabled reports whether a ClickHouse host was configured
func (c ClickHouseConfig) Enabled() bool {
	return c.Host != ""
}

// RedisConfig holds Redis configuration. An empty host disables caching.
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// Enabled reports whether a Redis host was configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

// CacheConfig holds cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// RateLimitConfig holds per-client API rate limits
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// ProfileAPIConfig tells the front end where the profile API lives
type ProfileAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// RiskConfig holds the allocation categories offered by the risk form
type RiskConfig struct {
	CategoriesFile string
	Categories     []types.RiskCategory
}

// DefaultRiskCategories is used when neither a file nor RISK_CATEGORIES is set
var DefaultRiskCategories = []types.RiskCategory{
	{Key: "stablecoins", Label: "Stablecoins", Default: 40},
	{Key: "bluechips", Label: "Blue chips", Default: 30},
	{Key: "altcoins", Label: "Altcoins", Default: 20},
	{Key: "memecoins", Label: "Memecoins", Default: 10},
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// .env is optional; the environment can be set directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Web: WebConfig{
			Port:          getEnv("WEB_PORT", "3000"),
			Host:          getEnv("WEB_HOST", "0.0.0.0"),
			SessionCookie: getEnv("WEB_SESSION_COOKIE", "profile_session"),
			SessionIdle:   getEnvAsDuration("WEB_SESSION_IDLE", 30*time.Minute),
			SecureCookie:  getEnvAsBool("WEB_SECURE_COOKIE", false),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "wallet_profiles"),
				User:           getEnv("POSTGRES_USER", "profiles"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 20),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", ""),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "wallet_profiles"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsInt("RATE_LIMIT_RPS", 10),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 20),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		ProfileAPI: ProfileAPIConfig{
			BaseURL: strings.TrimRight(getEnv("PROFILE_API_URL", "http://localhost:8080"), "/"),
			Timeout: getEnvAsDuration("PROFILE_API_TIMEOUT", 10*time.Second),
		},
		Risk: RiskConfig{
			CategoriesFile: getEnv("RISK_CATEGORIES_FILE", ""),
		},
	}

	categories, err := loadRiskCategories(config.Risk.CategoriesFile, getEnv("RISK_CATEGORIES", ""))
	if err != nil {
		return nil, err
	}
	config.Risk.Categories = categories

	return config, nil
}

// riskFile is the YAML layout of RISK_CATEGORIES_FILE
type riskFile struct {
	Categories []types.RiskCategory `yaml:"categories"`
}

// loadRiskCategories resolves the category set: file first, then the
// RISK_CATEGORIES list, then the built-in defaults.
func loadRiskCategories(path, list string) ([]types.RiskCategory, error) {
	var categories []types.RiskCategory

	switch {
	case path != "":
		data, err := os.ReadFile(path) // #nosec G304 - path comes from operator configuration
		if err != nil {
			return nil, fmt.Errorf("failed to read risk categories file: %w", err)
		}
		var f riskFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse risk categories file: %w", err)
		}
		categories = f.Categories
	case list != "":
		parsed, err := ParseRiskCategories(list)
		if err != nil {
			return nil, err
		}
		categories = parsed
	default:
		categories = append([]types.RiskCategory(nil), DefaultRiskCategories...)
	}

	if err := ValidateRiskCategories(categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// ParseRiskCategories parses "key:default,key:default" into categories.
// The label defaults to the key.
func ParseRiskCategories(list string) ([]types.RiskCategory, error) {
	var categories []types.RiskCategory
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		key, value, found := strings.Cut(item, ":")
		if !found {
			return nil, fmt.Errorf("invalid risk category %q: expected key:default", item)
		}
		def, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("invalid default for risk category %q: %w", key, err)
		}

		key = strings.TrimSpace(key)
		categories = append(categories, types.RiskCategory{Key: key, Label: key, Default: def})
	}
	return categories, nil
}

// ValidateRiskCategories checks keys are unique and defaults add up to 100
func ValidateRiskCategories(categories []types.RiskCategory) error {
	if len(categories) == 0 {
		return fmt.Errorf("at least one risk category is required")
	}

	seen := make(map[string]bool, len(categories))
	total := 0
	for i := range categories {
		c := &categories[i]
		if c.Key == "" {
			return fmt.Errorf("risk category %d has no key", i)
		}
		if seen[c.Key] {
			return fmt.Errorf("duplicate risk category: %s", c.Key)
		}
		if c.Default < 0 || c.Default > types.RequiredTotal {
			return fmt.Errorf("risk category %s default must be between 0 and %d", c.Key, types.RequiredTotal)
		}
		if c.Label == "" {
			c.Label = c.Key
		}
		seen[c.Key] = true
		total += c.Default
	}

	if total != types.RequiredTotal {
		return fmt.Errorf("risk category defaults must total %d, got %d", types.RequiredTotal, total)
	}
	return nil
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool gets an environment variable as a bool with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
