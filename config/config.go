package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Environment Environment

	// Server configuration
	ServerPort  string
	ServerHost  string
	CORSOrigins []string

	// Database configuration
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBPath     string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	Storage      StorageConfig
	Notification NotificationConfig

	LogLevel  string
	LogFormat string
}

// StorageConfig selects and configures the object storage backend for recipe images
type StorageConfig struct {
	Provider      string // s3 or minio
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

// NotificationConfig selects where local notifications are dispatched
type NotificationConfig struct {
	Provider      string // redis or log
	ChannelPrefix string
}

const (
	defaultBucket          = "recipes-images"
	defaultAccessTokenTTL  = time.Hour
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	if env == Development {
		// A missing .env file is fine; real env vars still apply.
		_ = godotenv.Load()
	}

	cfg := &Config{Environment: env}
	if err := load(cfg, env); err != nil {
		return nil, fmt.Errorf("failed to load %s configuration: %w", env, err)
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func load(cfg *Config, env Environment) error {
	// In CI secrets come from the environment only.
	lookup := value
	if env == CI {
		lookup = getEnv
	}

	cfg.ServerPort = lookup("server_port", "8080")
	cfg.ServerHost = lookup("server_host", "0.0.0.0")
	cfg.CORSOrigins = splitList(lookup("cors_origins", "http://localhost:8081,http://localhost:19006"))

	cfg.DBDriver = lookup("db_driver", "postgres")
	cfg.DBHost = lookup("db_host", "localhost")
	cfg.DBPort = lookup("db_port", "5432")
	cfg.DBUser = lookup("db_user", "postgres")
	cfg.DBPassword = lookup("db_password", "")
	cfg.DBName = lookup("db_name", "recipebook")
	cfg.DBSSLMode = lookup("db_ssl_mode", "disable")
	cfg.DBPath = lookup("db_path", "recipebook.db")

	cfg.RedisHost = lookup("redis_host", "localhost")
	cfg.RedisPort = lookup("redis_port", "6379")
	cfg.RedisPassword = lookup("redis_password", "")
	cfg.RedisURL = lookup("redis_url", "")
	redisDB, err := strconv.Atoi(lookup("redis_db", "0"))
	if err != nil {
		return fmt.Errorf("invalid redis_db: %w", err)
	}
	cfg.RedisDB = redisDB

	cfg.JWTSecret = lookup("jwt_secret", "")
	if cfg.AccessTokenTTL, err = parseDuration(lookup("access_token_ttl", ""), defaultAccessTokenTTL); err != nil {
		return fmt.Errorf("invalid access_token_ttl: %w", err)
	}
	if cfg.RefreshTokenTTL, err = parseDuration(lookup("refresh_token_ttl", ""), defaultRefreshTokenTTL); err != nil {
		return fmt.Errorf("invalid refresh_token_ttl: %w", err)
	}

	cfg.Storage = StorageConfig{
		Provider:      lookup("storage_provider", "s3"),
		Bucket:        lookup("storage_bucket", defaultBucket),
		Region:        lookup("aws_region", "us-east-1"),
		Endpoint:      lookup("storage_endpoint", ""),
		AccessKey:     lookup("storage_access_key", ""),
		SecretKey:     lookup("storage_secret_key", ""),
		UseSSL:        lookup("storage_use_ssl", "true") == "true",
		PublicBaseURL: strings.TrimRight(lookup("storage_public_url", ""), "/"),
	}

	cfg.Notification = NotificationConfig{
		Provider:      lookup("notification_provider", "log"),
		ChannelPrefix: lookup("notification_channel_prefix", "notifications"),
	}

	cfg.LogLevel = lookup("log_level", "info")
	cfg.LogFormat = lookup("log_format", "json")
	if env == Development {
		cfg.LogFormat = lookup("log_format", "console")
	}

	return nil
}

// value resolves a setting from the environment first and from a Docker secret second
func value(name, fallback string) string {
	if v, ok := os.LookupEnv(strings.ToUpper(name)); ok && v != "" {
		return v
	}
	if v := readSecret(name); v != "" {
		return v
	}
	return fallback
}

func getEnv(name, fallback string) string {
	if v, ok := os.LookupEnv(strings.ToUpper(name)); ok && v != "" {
		return v
	}
	return fallback
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DSN returns the Postgres connection string for the configured database
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode,
	)
}

// Addr returns the listen address of the HTTP server
func (c *Config) Addr() string {
	return c.ServerHost + ":" + c.ServerPort
}
