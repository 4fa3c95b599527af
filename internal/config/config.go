package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Environment  string             `mapstructure:"environment"`
	LogLevel     string             `mapstructure:"log_level"`
	Server       ServerConfig       `mapstructure:"server"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Optimization OptimizationConfig `mapstructure:"optimization"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	// ServiceURL points at the external auth service. Empty selects the
	// in-memory backend (development and tests).
	ServiceURL     string `mapstructure:"service_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	JWTSecret      string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry      string `mapstructure:"jwt_expiry"`
	BcryptCost     int    `mapstructure:"bcrypt_cost"`
}

type OptimizationConfig struct {
	// Source selects the dataset origin: "fixture" or "http".
	Source              string `mapstructure:"source"`
	ServiceURL          string `mapstructure:"service_url"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds"`
	// FixtureLatencyMs simulates cold-fetch network latency for the fixture
	// source so timing behavior matches the live endpoint.
	FixtureLatencyMs    int     `mapstructure:"fixture_latency_ms"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
	MaxRecommendations  int     `mapstructure:"max_recommendations"`
	CacheTTL            string  `mapstructure:"cache_ttl"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	// Set default values
	setDefaults()

	// Enable environment variable support
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Bind specific environment variables
	if err := viper.BindEnv("auth.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Normalize environment to lowercase for consistent comparison
	environment := strings.ToLower(config.Environment)

	// Validate JWT secret in non-development environments
	if environment != "development" && config.Auth.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required in non-development environments")
	}

	// Validate JWT expiry duration
	if config.Auth.JWTExpiry != "" {
		if _, err := time.ParseDuration(config.Auth.JWTExpiry); err != nil {
			return nil, fmt.Errorf("invalid JWT expiry duration: %w", err)
		}
	}

	// Validate bcrypt cost parameter
	if config.Auth.BcryptCost < bcrypt.MinCost || config.Auth.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, config.Auth.BcryptCost)
	}

	// Validate optimization source selection
	switch config.Optimization.Source {
	case "fixture", "http":
	default:
		return nil, fmt.Errorf("optimization source must be \"fixture\" or \"http\", got %q", config.Optimization.Source)
	}
	if config.Optimization.Source == "http" && config.Optimization.ServiceURL == "" {
		return nil, errors.New("optimization.service_url is required when optimization.source is \"http\"")
	}

	// Validate cache TTL duration
	if config.Optimization.CacheTTL != "" {
		if _, err := time.ParseDuration(config.Optimization.CacheTTL); err != nil {
			return nil, fmt.Errorf("invalid optimization cache TTL: %w", err)
		}
	}

	// Update config with normalized environment
	config.Environment = environment

	return &config, nil
}

// JWTExpiryDuration returns the parsed JWT expiry, defaulting to 24h.
func (c *AuthConfig) JWTExpiryDuration() time.Duration {
	d, err := time.ParseDuration(c.JWTExpiry)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// CacheTTLDuration returns the parsed cache TTL, defaulting to 5m.
func (c *OptimizationConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}

func setDefaults() {
	// Environment
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	// Redis
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Auth
	viper.SetDefault("auth.service_url", "")
	viper.SetDefault("auth.timeout_seconds", 15)
	viper.SetDefault("auth.jwt_secret", "")
	viper.SetDefault("auth.jwt_expiry", "24h")
	viper.SetDefault("auth.bcrypt_cost", 12)

	// Optimization
	viper.SetDefault("optimization.source", "fixture")
	viper.SetDefault("optimization.service_url", "")
	viper.SetDefault("optimization.fetch_timeout_seconds", 30)
	viper.SetDefault("optimization.fixture_latency_ms", 800)
	viper.SetDefault("optimization.confidence_threshold", 0.8)
	viper.SetDefault("optimization.max_recommendations", 20)
	viper.SetDefault("optimization.cache_ttl", "5m")
}
