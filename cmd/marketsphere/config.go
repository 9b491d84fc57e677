package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// =============================================================================
// Config Types
// =============================================================================

// Config holds all application configuration.
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Log          LogConfig          `mapstructure:"log"`
	Domain       DomainConfig       `mapstructure:"domain"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Storefront   StorefrontConfig   `mapstructure:"storefront"`
	Cache        CacheConfig        `mapstructure:"cache"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Seed         SeedConfig         `mapstructure:"seed"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Address returns the server address in host:port format.
func (c ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DomainConfig holds the apex store hostnames are composed under.
type DomainConfig struct {
	RootDomain string `mapstructure:"root_domain"`
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	// Mode determines how authentication is handled.
	// "header" - Extract identity from auth gateway headers (production)
	// "dev" - Auto-authenticate as dev-user (local development)
	// "none" - Skip auth extraction entirely (unauthenticated requests)
	Mode string `mapstructure:"mode"`

	// RequireAuth determines if authentication is required for protected endpoints.
	// When true, unauthenticated requests to protected endpoints return 401.
	RequireAuth bool `mapstructure:"require_auth"`

	// SharedSecret is an optional secret to validate X-Gateway-Secret header.
	// If empty, secret validation is skipped.
	SharedSecret string `mapstructure:"shared_secret"`

	// DevRole is the role of dev-user in dev mode.
	DevRole string `mapstructure:"dev_role"`
}

// RegistrationConfig holds store registration settings.
type RegistrationConfig struct {
	MaxAttempts int  `mapstructure:"max_attempts"`
	AutoApprove bool `mapstructure:"auto_approve"`
}

// StorefrontConfig holds the storefront host server configuration.
type StorefrontConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// Address returns the storefront address in host:port format.
func (c StorefrontConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CacheConfig holds the storefront profile cache configuration.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	RedisAddr string        `mapstructure:"redis_addr"`
	TTL       time.Duration `mapstructure:"ttl"`
}

// CORSConfig holds browser origin settings for the API.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SeedConfig names a seed file applied at startup.
type SeedConfig struct {
	File string `mapstructure:"file"`
}

// =============================================================================
// Config Loading
// =============================================================================

// LoadConfig loads configuration from file and environment.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("database.dsn", "./data/marketsphere.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("domain.root_domain", "marketsphere.com")
	v.SetDefault("auth.mode", "dev")
	v.SetDefault("auth.require_auth", false)
	v.SetDefault("auth.shared_secret", "")
	v.SetDefault("auth.dev_role", "MERCHANT")
	v.SetDefault("registration.max_attempts", 3)
	v.SetDefault("registration.auto_approve", false)

	// Storefront host server, off unless wildcard DNS points at it
	v.SetDefault("storefront.enabled", false)
	v.SetDefault("storefront.host", "0.0.0.0")
	v.SetDefault("storefront.port", 8081)
	v.SetDefault("storefront.read_timeout", "15s")
	v.SetDefault("storefront.write_timeout", "15s")
	v.SetDefault("storefront.idle_timeout", "60s")

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("seed.file", "")

	// Load from file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			// Only return error if file was explicitly specified and is invalid
			if _, ok := err.(viper.ConfigParseError); ok {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			// File not found is OK, we'll use defaults
		}
	}

	// Enable environment variable overrides
	v.SetEnvPrefix("MARKETSPHERE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal config
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values viper cannot type-check.
func (c *Config) Validate() error {
	switch c.Auth.Mode {
	case "header", "dev", "none":
	default:
		return fmt.Errorf("auth.mode must be header, dev or none, got %q", c.Auth.Mode)
	}
	if c.Registration.MaxAttempts < 1 {
		return fmt.Errorf("registration.max_attempts must be at least 1, got %d", c.Registration.MaxAttempts)
	}
	if c.Domain.RootDomain == "" {
		return fmt.Errorf("domain.root_domain is required")
	}
	return nil
}

// =============================================================================
// Logger Setup
// =============================================================================

// SetupLogger creates a logger with the configured level and format.
func SetupLogger(cfg *Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.ToLower(cfg.Log.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
