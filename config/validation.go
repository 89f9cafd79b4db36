package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigRequirements defines required configuration for each environment
type ConfigRequirements struct {
	RequireDBPassword bool
	RequireJWTSecret  bool
	RequireStorage    bool
}

var (
	// Environment-specific requirements
	requirements = map[Environment]ConfigRequirements{
		Development: {RequireJWTSecret: true},
		Test:        {RequireJWTSecret: true},
		CI:          {RequireDBPassword: true, RequireJWTSecret: true},
		Production:  {RequireDBPassword: true, RequireJWTSecret: true, RequireStorage: true},
	}

	storageProviders      = []string{"s3", "minio"}
	notificationProviders = []string{"redis", "log"}
	dbDrivers             = []string{"postgres", "sqlite"}
)

// ValidateConfig checks if the configuration meets the requirements for its environment
func ValidateConfig(cfg *Config) error {
	reqs := requirements[cfg.Environment]

	var errs []ValidationError

	if cfg.ServerPort == "" {
		errs = append(errs, ValidationError{"server_port", "is required"})
	}
	if !oneOf(cfg.DBDriver, dbDrivers) {
		errs = append(errs, ValidationError{"db_driver", "must be one of " + strings.Join(dbDrivers, ", ")})
	}
	if reqs.RequireDBPassword && cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
		errs = append(errs, ValidationError{"db_password", "is required"})
	}
	if reqs.RequireJWTSecret && cfg.JWTSecret == "" {
		errs = append(errs, ValidationError{"jwt_secret", "is required"})
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		errs = append(errs, ValidationError{"token_ttl", "must be positive"})
	}
	if !oneOf(cfg.Storage.Provider, storageProviders) {
		errs = append(errs, ValidationError{"storage_provider", "must be one of " + strings.Join(storageProviders, ", ")})
	}
	if cfg.Storage.Provider == "minio" && cfg.Storage.Endpoint == "" {
		errs = append(errs, ValidationError{"storage_endpoint", "is required for minio"})
	}
	if reqs.RequireStorage && cfg.Storage.Bucket == "" {
		errs = append(errs, ValidationError{"storage_bucket", "is required"})
	}
	if !oneOf(cfg.Notification.Provider, notificationProviders) {
		errs = append(errs, ValidationError{"notification_provider", "must be one of " + strings.Join(notificationProviders, ", ")})
	}

	if len(errs) > 0 {
		lines := make([]string, len(errs))
		for i, e := range errs {
			lines[i] = e.Error()
		}
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(lines, "\n"))
	}

	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
