package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the depot API.
type Config struct {
	Server   ServerConfig
	Postgres PostgresConfig
	MinIO    MinIOConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Intake   IntakeConfig
	Stats    StatsConfig
	Metrics  MetricsConfig
	Log      LogConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int32
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	// PresignTTL bounds the lifetime of public preview URLs.
	PresignTTL time.Duration
	// OperationTimeout bounds each blob store call.
	OperationTimeout time.Duration
}

// RedisConfig is optional; an empty Addr disables the stats cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.Addr) != ""
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	BcryptCost         int
}

// IntakeConfig holds upload policy and download counter settings.
type IntakeConfig struct {
	MaxDocumentBytes int64
	MaxPreviewBytes  int64
	CounterTimeout   time.Duration
}

// StatsConfig controls the admin statistics cache.
type StatsConfig struct {
	CacheTTL time.Duration
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// LogConfig configures the zap logger and optional file rotation.
type LogConfig struct {
	Level      string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("DEPOT_API_HOST", "0.0.0.0"),
			Port:         getInt("DEPOT_API_PORT", 8080),
			ReadTimeout:  getDuration("DEPOT_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("DEPOT_API_WRITE_TIMEOUT", 120*time.Second),
			IdleTimeout:  getDuration("DEPOT_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:     getString("POSTGRES_HOST", "localhost"),
			Port:     getInt("POSTGRES_PORT", 5432),
			User:     getString("POSTGRES_USER", "depot_app"),
			Password: getString("POSTGRES_PASSWORD", "change-me"),
			Database: getString("POSTGRES_DB", "depot"),
			SSLMode:  strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
			MaxConns: int32(getInt("POSTGRES_MAX_CONNS", 10)),
		},
		MinIO: MinIOConfig{
			Endpoint:         getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:      getString("MINIO_ROOT_USER", "depot"),
			SecretAccessKey:  getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:           getString("MINIO_BUCKET", "educational-resources"),
			UseSSL:           getBool("MINIO_USE_SSL", false),
			Region:           getString("MINIO_REGION", ""),
			PresignTTL:       getDuration("MINIO_PRESIGN_TTL", 15*time.Minute),
			OperationTimeout: getDuration("MINIO_OPERATION_TIMEOUT", 60*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getString("REDIS_ADDR", ""),
			Password: getString("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
		},
		Auth: loadAuthConfig(),
		Intake: IntakeConfig{
			MaxDocumentBytes: getInt64("DEPOT_MAX_DOCUMENT_BYTES", 50<<20),
			MaxPreviewBytes:  getInt64("DEPOT_MAX_PREVIEW_BYTES", 10<<20),
			CounterTimeout:   getDuration("DEPOT_COUNTER_TIMEOUT", 5*time.Second),
		},
		Stats: StatsConfig{
			CacheTTL: getDuration("DEPOT_STATS_CACHE_TTL", 30*time.Second),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("DEPOT_METRICS_PATH", "/metrics"),
		},
		Log: LogConfig{
			Level:      getString("LOG_LEVEL", "info"),
			File:       getString("LOG_FILE", ""),
			MaxSizeMB:  getInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getInt("LOG_MAX_BACKUPS", 5),
			MaxAgeDays: getInt("LOG_MAX_AGE_DAYS", 30),
		},
	}

	if cfg.Intake.MaxDocumentBytes <= 0 || cfg.Intake.MaxPreviewBytes <= 0 {
		return Config{}, fmt.Errorf("intake size limits must be positive")
	}

	return cfg, nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("DEPOT_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		AccessTokenSecret:  getString("DEPOT_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		RefreshTokenSecret: getString("DEPOT_JWT_REFRESH_SECRET", "change-me-to-a-64-byte-secret"),
		AccessTokenTTL:     getDuration("DEPOT_AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDuration("DEPOT_AUTH_REFRESH_TOKEN_TTL", 720*time.Hour),
		BcryptCost:         cost,
	}
}
