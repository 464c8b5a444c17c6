package config

import (
	"errors"
	"io/fs"
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

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Insights      InsightsConfig
	Notifications NotificationsConfig
	Reports       ReportsConfig
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
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify tokens issued by the auth service.
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

// InsightsConfig carries aggregation policy and cache tuning.
type InsightsConfig struct {
	CacheEnabled       bool
	CacheTTL           time.Duration
	ConcernThreshold   float64
	StrengthThreshold  float64
	NearTargetRatio    float64
	DefaultTarget      float64
	UpcomingWindowDays int
	HighlightLimit     int
	GradingWindow      time.Duration
}

// NotificationsConfig tunes the in-process notification queue.
type NotificationsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// ReportsConfig controls the on-disk archive of rendered reports.
type ReportsConfig struct {
	ArchiveDir    string
	LinkSecret    string
	LinkTTL       time.Duration
	SweepInterval time.Duration
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

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
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

	cfg.Insights = InsightsConfig{
		CacheEnabled:       v.GetBool("ENABLE_INSIGHTS_CACHE"),
		CacheTTL:           parseDuration(v.GetString("INSIGHTS_CACHE_TTL"), 30*time.Minute),
		ConcernThreshold:   v.GetFloat64("CONCERN_THRESHOLD"),
		StrengthThreshold:  v.GetFloat64("STRENGTH_THRESHOLD"),
		NearTargetRatio:    v.GetFloat64("NEAR_TARGET_RATIO"),
		DefaultTarget:      v.GetFloat64("DEFAULT_METRIC_TARGET"),
		UpcomingWindowDays: v.GetInt("ALERT_UPCOMING_DAYS"),
		HighlightLimit:     v.GetInt("HIGHLIGHT_LIMIT"),
		GradingWindow:      parseDuration(v.GetString("GRADING_WINDOW"), 7*24*time.Hour),
	}

	cfg.Notifications = NotificationsConfig{
		Workers:    v.GetInt("NOTIFY_WORKERS"),
		BufferSize: v.GetInt("NOTIFY_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NOTIFY_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), time.Second),
	}

	cfg.Reports = ReportsConfig{
		ArchiveDir:    v.GetString("REPORT_ARCHIVE_DIR"),
		LinkSecret:    v.GetString("REPORT_LINK_SECRET"),
		LinkTTL:       parseDuration(v.GetString("REPORT_LINK_TTL"), 24*time.Hour),
		SweepInterval: parseDuration(v.GetString("REPORT_SWEEP_INTERVAL"), time.Hour),
	}
	if cfg.Reports.LinkSecret == "" {
		cfg.Reports.LinkSecret = cfg.JWT.Secret
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "school_platform")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_INSIGHTS_CACHE", false)
	v.SetDefault("INSIGHTS_CACHE_TTL", "30m")
	v.SetDefault("CONCERN_THRESHOLD", 70)
	v.SetDefault("STRENGTH_THRESHOLD", 90)
	v.SetDefault("NEAR_TARGET_RATIO", 0.8)
	v.SetDefault("DEFAULT_METRIC_TARGET", 80)
	v.SetDefault("ALERT_UPCOMING_DAYS", 3)
	v.SetDefault("HIGHLIGHT_LIMIT", 3)
	v.SetDefault("GRADING_WINDOW", "168h")

	v.SetDefault("NOTIFY_WORKERS", 1)
	v.SetDefault("NOTIFY_BUFFER_SIZE", 64)
	v.SetDefault("NOTIFY_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "1s")

	v.SetDefault("REPORT_ARCHIVE_DIR", "./reports")
	v.SetDefault("REPORT_LINK_SECRET", "")
	v.SetDefault("REPORT_LINK_TTL", "24h")
	v.SetDefault("REPORT_SWEEP_INTERVAL", "1h")
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
