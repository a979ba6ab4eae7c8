// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
)

// Authentication modes.
const (
	AuthDatabase = "database"
	AuthStatic   = "static"
	AuthNone     = "none"
)

const devSecret = "devsessionsecret"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	App      AppConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
	CORSOrigins  []string
}

// DatabaseConfig holds connection settings for every supported backend.
type DatabaseConfig struct {
	Backend    string
	DSNRaw     string
	SQLitePath string
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	Migrations bool
	Seed       bool
	Debug      bool
}

// SessionConfig holds cookie session settings.
type SessionConfig struct {
	Secret string
	TTL    time.Duration
	Secure bool
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev         bool
	AuthMode    string
	DatasetPath string
	LogLevel    string
}

// DSN returns the driver connection string for the configured backend.
// DATABASE_DSN wins when set.
func (d DatabaseConfig) DSN() string {
	if d.DSNRaw != "" {
		return d.DSNRaw
	}
	switch d.Backend {
	case BackendPostgres:
		return fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
		)
	case BackendMySQL:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.DBName,
		)
	default:
		return d.SQLitePath + "?_foreign_keys=on"
	}
}

// Load reads configuration from environment variables.
// It uses sensible defaults for local development.
func Load() *Config {
	backend := strings.ToLower(getEnv("STORAGE_BACKEND", BackendSQLite))
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
			CORSOrigins:  getEnvList("CORS_ALLOWED_ORIGINS"),
		},
		Database: DatabaseConfig{
			Backend:    backend,
			DSNRaw:     os.Getenv("DATABASE_DSN"),
			SQLitePath: getEnv("SQLITE_PATH", "diabetecam.db"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnvInt("DB_PORT", defaultPort(backend)),
			User:       getEnv("DB_USER", "root"),
			Password:   os.Getenv("DB_PASSWORD"),
			DBName:     getEnv("DB_NAME", "diabetes_cameroun"),
			SSLMode:    getEnv("DB_SSLMODE", "disable"),
			Migrations: getEnvBool("MIGRATIONS", false),
			Seed:       getEnvBool("DB_SEED", true),
			Debug:      getEnvBool("DB_DEBUG", false),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			TTL:    getEnvDuration("SESSION_TTL", 12*time.Hour),
			Secure: getEnvBool("SESSION_SECURE", false),
		},
		App: AppConfig{
			Dev:         getEnvBool("DEV", true),
			AuthMode:    strings.ToLower(getEnv("AUTH_MODE", AuthDatabase)),
			DatasetPath: getEnv("DATASET_PATH", "diabetes.csv"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
	}
}

// Validate rejects settings the server cannot start with.
// In DEV an empty session secret is replaced by a fixed development value.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Backend {
	case BackendSQLite, BackendPostgres, BackendMySQL:
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_BACKEND %q", c.Database.Backend))
	}
	switch c.App.AuthMode {
	case AuthDatabase, AuthStatic, AuthNone:
	default:
		errs = append(errs, fmt.Errorf("unknown AUTH_MODE %q", c.App.AuthMode))
	}
	if c.Session.Secret == "" {
		if c.App.Dev {
			c.Session.Secret = devSecret
		} else {
			errs = append(errs, errors.New("SESSION_SECRET is required outside DEV"))
		}
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	return errors.Join(errs...)
}

func defaultPort(backend string) int {
	switch backend {
	case BackendPostgres:
		return 5432
	case BackendMySQL:
		return 3306
	}
	return 0
}

// getEnv returns the value of an environment variable or a default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvBool accepts "1", "true", "yes" as true; any other non-empty value is false.
func getEnvBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value == "1" || value == "true" || value == "yes"
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
