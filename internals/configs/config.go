package configs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =======================
// CONFIG TYPES
// =======================

type DatabaseConfig struct {
	URL              string
	Host             string
	Port             string
	User             string
	Password         string
	Name             string
	SSLMode          string
	StatementTimeout time.Duration
	AcquireTimeout   time.Duration
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxIdleTime  time.Duration
	ConnMaxLifetime  time.Duration
}

// IngestPolicy holds the tunable thresholds of the upload pipeline.
type IngestPolicy struct {
	MinConductedPeriods int
	MaxConductedPeriods float64
	ExistingPairChunk   int
	InsertBatchSize     int
	RetryAttempts       int
	RetryDelay          time.Duration
	MaxFileBytes        int64
	MaxFiles            int
}

// LayoutPolicy rows are 1-based, as shown in a spreadsheet.
type LayoutPolicy struct {
	CourseRowFrom   int
	CourseRowTo     int
	FallbackDataRow int
}

type CacheConfig struct {
	StatsTTL      time.Duration
	CoursesTTL    time.Duration
	SweepSchedule string
}

// RetentionConfig controls pruning of upload history. Days <= 0 disables it.
type RetentionConfig struct {
	UploadLogDays int
	Schedule      string
}

type Config struct {
	Env         string
	Port        string
	JWTSecret   string
	CorsOrigins string
	DB          DatabaseConfig
	Ingest      IngestPolicy
	Layout      LayoutPolicy
	Cache       CacheConfig
	Retention   RetentionConfig
}

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("[WARN] .env file not found, using system environment")
		} else {
			log.Println("[INFO] .env file loaded")
		}
	} else {
		log.Println("[INFO] running in Railway, using system environment")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if (!exists || strings.TrimSpace(value) == "") && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return strings.TrimSpace(value)
}

// Load reads the environment into a Config. Only JWT_SECRET and a database
// location are mandatory; everything else has a default.
func Load() (Config, error) {
	cfg := Config{
		Env:         GetEnv("APP_ENV", "development"),
		Port:        GetEnv("PORT", "3000"),
		JWTSecret:   GetEnv("JWT_SECRET"),
		CorsOrigins: GetEnv("CORS_ORIGINS"),
		DB: DatabaseConfig{
			URL:              GetEnv("DATABASE_URL"),
			Host:             GetEnv("DB_HOST"),
			Port:             GetEnv("DB_PORT", "5432"),
			User:             GetEnv("DB_USER"),
			Password:         GetEnv("DB_PASSWORD"),
			Name:             GetEnv("DB_NAME"),
			SSLMode:          GetEnv("DB_SSLMODE", "require"),
			StatementTimeout: getDuration("DB_STATEMENT_TIMEOUT", 5*time.Second),
			AcquireTimeout:   getDuration("DB_ACQUIRE_TIMEOUT", 10*time.Second),
			MaxOpenConns:     getInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:     getInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxIdleTime:  getDuration("DB_CONN_MAX_IDLE_TIME", 60*time.Second),
			ConnMaxLifetime:  getDuration("DB_CONN_MAX_LIFETIME", 10*time.Minute),
		},
		Ingest: DefaultIngestPolicy(),
		Layout: DefaultLayoutPolicy(),
		Cache: CacheConfig{
			StatsTTL:      getDuration("CACHE_STATS_TTL", 60*time.Second),
			CoursesTTL:    getDuration("CACHE_COURSES_TTL", 300*time.Second),
			SweepSchedule: GetEnv("CACHE_SWEEP_SCHEDULE", "@every 1m"),
		},
		Retention: RetentionConfig{
			UploadLogDays: getInt("UPLOAD_LOG_RETENTION_DAYS", 90),
			Schedule:      GetEnv("UPLOAD_LOG_RETENTION_SCHEDULE", "15 2 * * *"),
		},
	}

	cfg.Ingest.MinConductedPeriods = getInt("INGEST_MIN_CONDUCTED_PERIODS", cfg.Ingest.MinConductedPeriods)
	cfg.Ingest.MaxConductedPeriods = getFloat("INGEST_MAX_CONDUCTED_PERIODS", cfg.Ingest.MaxConductedPeriods)
	cfg.Ingest.ExistingPairChunk = getInt("INGEST_EXISTING_PAIR_CHUNK", cfg.Ingest.ExistingPairChunk)
	cfg.Ingest.InsertBatchSize = getInt("INGEST_INSERT_BATCH", cfg.Ingest.InsertBatchSize)
	cfg.Ingest.RetryAttempts = getInt("INGEST_RETRY_ATTEMPTS", cfg.Ingest.RetryAttempts)
	cfg.Ingest.RetryDelay = getDuration("INGEST_RETRY_DELAY", cfg.Ingest.RetryDelay)
	cfg.Ingest.MaxFileBytes = int64(getInt("INGEST_MAX_FILE_BYTES", int(cfg.Ingest.MaxFileBytes)))
	cfg.Ingest.MaxFiles = getInt("INGEST_MAX_FILES", cfg.Ingest.MaxFiles)

	cfg.Layout.CourseRowFrom = getInt("LAYOUT_COURSE_ROW_FROM", cfg.Layout.CourseRowFrom)
	cfg.Layout.CourseRowTo = getInt("LAYOUT_COURSE_ROW_TO", cfg.Layout.CourseRowTo)
	cfg.Layout.FallbackDataRow = getInt("LAYOUT_FALLBACK_DATA_ROW", cfg.Layout.FallbackDataRow)

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DB.URL == "" && cfg.DB.Host == "" {
		return Config{}, fmt.Errorf("DATABASE_URL or DB_HOST is required")
	}
	if cfg.Layout.CourseRowTo < cfg.Layout.CourseRowFrom {
		cfg.Layout.CourseRowTo = cfg.Layout.CourseRowFrom
	}
	if cfg.Ingest.RetryAttempts < 1 {
		cfg.Ingest.RetryAttempts = 1
	}
	return cfg, nil
}

func DefaultIngestPolicy() IngestPolicy {
	return IngestPolicy{
		MinConductedPeriods: 5,
		MaxConductedPeriods: 1000,
		ExistingPairChunk:   100,
		InsertBatchSize:     1000,
		RetryAttempts:       2,
		RetryDelay:          500 * time.Millisecond,
		MaxFileBytes:        20 << 20,
		MaxFiles:            20,
	}
}

func DefaultLayoutPolicy() LayoutPolicy {
	return LayoutPolicy{CourseRowFrom: 4, CourseRowTo: 7, FallbackDataRow: 10}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// DSN builds the postgres URL, carrying statement_timeout as a session option.
func (d DatabaseConfig) DSN() string {
	timeoutMs := d.StatementTimeout.Milliseconds()
	if d.URL != "" {
		sep := "?"
		if strings.Contains(d.URL, "?") {
			sep = "&"
		}
		if strings.Contains(d.URL, "statement_timeout") || timeoutMs <= 0 {
			return d.URL
		}
		return fmt.Sprintf("%s%soptions=-c%%20statement_timeout%%3D%d", d.URL, sep, timeoutMs)
	}
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&application_name=attendance",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
	if timeoutMs > 0 {
		dsn += fmt.Sprintf("&options=-c%%20statement_timeout%%3D%d", timeoutMs)
	}
	return dsn
}

func getInt(key string, def int) int {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getFloat(key string, def float64) float64 {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getDuration(key string, def time.Duration) time.Duration {
	v := GetEnv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
