// Package config provides configuration management for the inkwell application.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/user/inkwell/apperror"
)

// PoolConfig represents configuration for the database connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	JWTSecret     string        // Shared secret for signing session tokens
	TokenDuration time.Duration // Absolute lifetime of a session token
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Port string
}

// UploadConfig controls where uploaded images are written and how large they may be.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DB             *PoolConfig
	Auth           *AuthConfig
	Server         *ServerConfig
	Uploads        *UploadConfig
	MigrationsPath string
}

const (
	defaultPoolSize      = 10
	defaultTokenDuration = 30 * 24 * time.Hour
	defaultUploadBytes   = 10 << 20
)

// getRequiredEnv appends an error to errors if key is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

func getOptionalEnvInt64(key string, defaultValue int64, errors *[]string) int64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil || valueInt <= 0 {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected positive integer, got '%s'", key, valueStr))
		return defaultValue
	}
	return valueInt
}

// `time.ParseDuration` expects a string like "15m", "720h".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	if valueDuration <= 0 {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: duration must be positive, got '%s'", key, valueStr))
		return defaultValue
	}
	return valueDuration
}

// validatePoolSize clamps the pool size between 5 and 100, recording an error when it had to.
func validatePoolSize(size int, varName string, errors *[]string) int {
	if size < 5 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is less than minimum 5", varName, size))
		return 5
	}
	if size > 100 {
		*errors = append(*errors, fmt.Sprintf("pool size for %s (%d) is greater than maximum 100", varName, size))
		return 100
	}
	return size
}

// configError folds every collected problem into one apperror.ConfigError.
func configError(problems []string) error {
	return apperror.NewConfigError("configuration errors", fmt.Errorf("\n- %s", strings.Join(problems, "\n- ")))
}

// LoadDatabaseConfig reads only the database settings. The migrate and promote
// commands use it so they do not require JWT_SECRET.
func LoadDatabaseConfig() (*PoolConfig, error) {
	var errors []string
	pool := loadPoolConfig(&errors)
	if len(errors) > 0 {
		return nil, configError(errors)
	}
	return pool, nil
}

func loadPoolConfig(errors *[]string) *PoolConfig {
	dbUser := getRequiredEnv("DB_USER", errors)
	dbPassword := getRequiredEnv("DB_PASSWORD", errors)
	dbName := getRequiredEnv("DB_NAME", errors)
	dbHost := getOptionalEnv("DB_HOST", "localhost")
	dbPort := getOptionalEnvInt("DB_PORT", 5432, errors)
	poolSize := validatePoolSize(getOptionalEnvInt("DB_APP_POOL_SIZE", defaultPoolSize, errors), "DB_APP_POOL_SIZE", errors)

	return &PoolConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     dbUser,
		Password: dbPassword,
		DBName:   dbName,
		MaxSize:  poolSize,
	}
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	dbConfig := loadPoolConfig(&errors)

	authConfig := &AuthConfig{
		JWTSecret:     getRequiredEnv("JWT_SECRET", &errors),
		TokenDuration: getOptionalEnvDuration("JWT_TOKEN_DURATION", defaultTokenDuration, &errors),
	}

	serverConfig := &ServerConfig{
		Port: getOptionalEnv("PORT", "4444"),
	}

	uploadConfig := &UploadConfig{
		Dir:      getOptionalEnv("UPLOAD_DIR", "uploads"),
		MaxBytes: getOptionalEnvInt64("UPLOAD_MAX_BYTES", defaultUploadBytes, &errors),
	}

	if len(errors) > 0 {
		return nil, configError(errors)
	}

	return &AppConfig{
		DB:             dbConfig,
		Auth:           authConfig,
		Server:         serverConfig,
		Uploads:        uploadConfig,
		MigrationsPath: getOptionalEnv("MIGRATIONS_PATH", "migrations"),
	}, nil
}
