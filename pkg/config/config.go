package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Release   string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Sentry    SentryConfig
	Reports   ReportsConfig
	Ingestion IngestionConfig
	Reconcile ReconcileConfig
}

type DatabaseConfig struct {
	Driver       string
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SentryConfig enables error capture when a DSN is present.
type SentryConfig struct {
	DSN string
}

// ReportsConfig governs cohort report filtering and caching.
type ReportsConfig struct {
	PrimaryProgram string
	CacheEnabled   bool
	CacheTTL       time.Duration
}

// IngestionConfig controls how grade-report documents are fetched and parsed.
type IngestionConfig struct {
	FetchTimeout     time.Duration
	MaxDocumentBytes int64
	StudentIDPrefix  string
	// ArchiveDir keeps a copy of imported documents. Empty disables archiving.
	ArchiveDir       string
	ArchiveRetention time.Duration
}

// ReconcileConfig schedules the background progress reconciliation.
type ReconcileConfig struct {
	Schedule string
	Workers  int
	Retries  int
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
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Release = v.GetString("RELEASE")

	cfg.Database = DatabaseConfig{
		Driver:       v.GetString("DB_DRIVER"),
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sentry = SentryConfig{DSN: v.GetString("SENTRY_DSN")}

	cfg.Reports = ReportsConfig{
		PrimaryProgram: strings.ToUpper(strings.TrimSpace(v.GetString("REPORTS_PRIMARY_PROGRAM"))),
		CacheEnabled:   v.GetBool("REPORTS_CACHE_ENABLED"),
		CacheTTL:       parseDuration(v.GetString("REPORTS_CACHE_TTL"), 10*time.Minute),
	}

	maxDocument := v.GetInt64("INGESTION_MAX_DOCUMENT_BYTES")
	if maxDocument <= 0 {
		maxDocument = 10 * 1024 * 1024
	}
	cfg.Ingestion = IngestionConfig{
		FetchTimeout:     parseDuration(v.GetString("INGESTION_FETCH_TIMEOUT"), 30*time.Second),
		MaxDocumentBytes: maxDocument,
		StudentIDPrefix:  v.GetString("INGESTION_STUDENT_ID_PREFIX"),
		ArchiveDir:       strings.TrimSpace(v.GetString("INGESTION_ARCHIVE_DIR")),
		ArchiveRetention: parseDuration(v.GetString("INGESTION_ARCHIVE_RETENTION"), 90*24*time.Hour),
	}

	cfg.Reconcile = ReconcileConfig{
		Schedule: strings.TrimSpace(v.GetString("RECONCILE_SCHEDULE")),
		Workers:  v.GetInt("RECONCILE_WORKERS"),
		Retries:  v.GetInt("RECONCILE_RETRIES"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("RELEASE", "dev")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic_records")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("SENTRY_DSN", "")

	v.SetDefault("REPORTS_PRIMARY_PROGRAM", "ICCI")
	v.SetDefault("REPORTS_CACHE_ENABLED", true)
	v.SetDefault("REPORTS_CACHE_TTL", "10m")

	v.SetDefault("INGESTION_FETCH_TIMEOUT", "30s")
	v.SetDefault("INGESTION_MAX_DOCUMENT_BYTES", 10*1024*1024)
	v.SetDefault("INGESTION_STUDENT_ID_PREFIX", "EGCI")
	v.SetDefault("INGESTION_ARCHIVE_DIR", "")
	v.SetDefault("INGESTION_ARCHIVE_RETENTION", "2160h")

	v.SetDefault("RECONCILE_SCHEDULE", "")
	v.SetDefault("RECONCILE_WORKERS", 1)
	v.SetDefault("RECONCILE_RETRIES", 2)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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
