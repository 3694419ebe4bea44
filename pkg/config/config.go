package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Umami     UmamiConfig
	Warehouse DatabaseConfig
	Redis     RedisConfig
	Typesense TypesenseConfig
	Analytics AnalyticsConfig
	OTEL      OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	Environment    string
	LogLevel       string
	CacheTTL       time.Duration
	AllowedOrigins []string
}

// UmamiConfig holds the read-only umami MySQL source configuration
type UmamiConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// DatabaseConfig holds the Postgres warehouse configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TypesenseConfig holds Typesense configuration
type TypesenseConfig struct {
	URL               string
	APIKey            string
	MentorsCollection string
}

// AnalyticsConfig controls how events are normalized and analysed
type AnalyticsConfig struct {
	TrackedFields     []string
	WorkspaceTTL      time.Duration
	SwitchWindow      time.Duration
	SwitchField       string
	MentorPathPrefix  string
	EventLookbackDays int
	NormalizeWorkers  int
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

var identifierPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Environment:    getEnv("APP_ENV", "development"),
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			CacheTTL:       getEnvAsDuration("CACHE_TTL", 5*time.Minute),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Umami: UmamiConfig{
			Host:     getEnv("UMAMI_DB_HOST", "localhost"),
			Port:     getEnvAsInt("UMAMI_DB_PORT", 3306),
			User:     getEnv("UMAMI_DB_USER", "umami"),
			Password: getEnv("UMAMI_DB_PASSWORD", ""),
			Database: getEnv("UMAMI_DB_NAME", "umami"),
		},
		Warehouse: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "mentorship_analytics"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Typesense: TypesenseConfig{
			URL:               getEnv("TYPESENSE_URL", "http://localhost:8108"),
			APIKey:            getEnv("TYPESENSE_API_KEY", "xyz"),
			MentorsCollection: getEnv("TYPESENSE_MENTORS_COLLECTION", "mentors"),
		},
		Analytics: AnalyticsConfig{
			TrackedFields:     getEnvAsList("TRACKED_FIELDS", []string{"industries", "organisation", "course_of_study", "school"}),
			WorkspaceTTL:      getEnvAsDuration("WORKSPACE_TTL", 15*time.Minute),
			SwitchWindow:      getEnvAsDuration("SWITCH_WINDOW", 10*time.Minute),
			SwitchField:       getEnv("SWITCH_FIELD", "industries"),
			MentorPathPrefix:  getEnv("MENTOR_PATH_PREFIX", "/mentors"),
			EventLookbackDays: getEnvAsInt("EVENT_LOOKBACK_DAYS", 0),
			NormalizeWorkers:  getEnvAsInt("NORMALIZE_WORKERS", 4),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "mentorship-analytics"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}

	if err := cfg.Analytics.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that tracked fields can be used as warehouse column names
func (c *AnalyticsConfig) Validate() error {
	if len(c.TrackedFields) == 0 {
		return fmt.Errorf("TRACKED_FIELDS must name at least one field")
	}
	seen := make(map[string]bool, len(c.TrackedFields))
	for _, field := range c.TrackedFields {
		if !IsIdentifier(field) {
			return fmt.Errorf("tracked field %q is not a valid identifier", field)
		}
		if field == "created_at" || field == "visit_id" || field == "search_query" {
			return fmt.Errorf("tracked field %q collides with a reserved column", field)
		}
		if seen[field] {
			return fmt.Errorf("tracked field %q is listed twice", field)
		}
		seen[field] = true
	}
	if c.WorkspaceTTL <= 0 {
		return fmt.Errorf("WORKSPACE_TTL must be positive")
	}
	if c.SwitchWindow < 0 {
		return fmt.Errorf("SWITCH_WINDOW must not be negative")
	}
	if c.NormalizeWorkers < 1 {
		c.NormalizeWorkers = 1
	}
	return nil
}

// IsTracked reports whether field is one of the tracked fields
func (c *AnalyticsConfig) IsTracked(field string) bool {
	for _, f := range c.TrackedFields {
		if f == field {
			return true
		}
	}
	return false
}

// IsIdentifier reports whether s is a lower-case SQL-safe identifier
func IsIdentifier(s string) bool {
	return identifierPattern.MatchString(s)
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the MySQL host:port address
func (c *UmamiConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Addr returns the listen address
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
