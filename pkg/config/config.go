package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env             string
	Port            int
	APIPrefix       string
	Timezone        string
	ShutdownTimeout time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Auth     AuthConfig
	CORS     CORSConfig
	Log      LogConfig
	Import   ImportConfig
	Reports  ReportsConfig
	Sentry   SentryConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig tunes the read-side cache for roster listings and monthly reports.
type CacheConfig struct {
	TTL time.Duration
}

// AuthConfig gates the API behind a single teacher login.
type AuthConfig struct {
	Enabled      bool
	Username     string
	PasswordHash string
	Secret       string
	Expiration   time.Duration
	Issuer       string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ImportConfig limits roster spreadsheet uploads.
type ImportConfig struct {
	MaxFileSizeBytes int64
}

// ReportsConfig configures report rendering.
type ReportsConfig struct {
	PDFFontPath string
}

// SentryConfig enables error reporting when DSN is set.
type SentryConfig struct {
	DSN     string
	Release string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate rejects settings that would otherwise degrade silently at runtime.
func (c *Config) validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")
	cfg.ShutdownTimeout = parseDuration(v.GetString("SHUTDOWN_TIMEOUT"), 10*time.Second)

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{TTL: parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute)}

	cfg.Auth = AuthConfig{
		Enabled:      v.GetBool("AUTH_ENABLED"),
		Username:     v.GetString("AUTH_USERNAME"),
		PasswordHash: v.GetString("AUTH_PASSWORD_HASH"),
		Secret:       v.GetString("JWT_SECRET"),
		Expiration:   parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		Issuer:       v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("IMPORT_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Import = ImportConfig{MaxFileSizeBytes: maxUpload}

	cfg.Reports = ReportsConfig{PDFFontPath: v.GetString("REPORTS_PDF_FONT_PATH")}

	cfg.Sentry = SentryConfig{
		DSN:     v.GetString("SENTRY_DSN"),
		Release: v.GetString("SENTRY_RELEASE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "Asia/Bangkok")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "attendance")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("AUTH_ENABLED", false)
	v.SetDefault("AUTH_USERNAME", "teacher")
	v.SetDefault("AUTH_PASSWORD_HASH", "")
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("JWT_ISSUER", "attendance-tracker-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("IMPORT_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("REPORTS_PDF_FONT_PATH", "")

	v.SetDefault("SENTRY_DSN", "")
	v.SetDefault("SENTRY_RELEASE", "")
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	if c == nil || c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
