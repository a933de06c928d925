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

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Business      BusinessConfig
	Booking       BookingConfig
	Slots         SlotsConfig
	Notifications NotificationsConfig
	Reminders     RemindersConfig
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
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BusinessConfig describes the business calendar the engine operates in.
type BusinessConfig struct {
	// Timezone is an IANA zone name; all civil dates and minute offsets are
	// interpreted in this zone.
	Timezone string
	Name     string
}

// BookingConfig tunes the validate-and-commit path.
type BookingConfig struct {
	// IntegrityRetries bounds transparent re-validation after an exclusion
	// constraint rejection.
	IntegrityRetries int
}

// SlotsConfig governs slot listing behaviour and caching.
type SlotsConfig struct {
	// DefaultIntervalMinutes is the slot grid used by the week schedule.
	DefaultIntervalMinutes int
	CacheTTL               time.Duration
	// MaxRangeDays caps a single range query.
	MaxRangeDays int
}

// NotificationsConfig tunes the outbound notification dispatcher.
type NotificationsConfig struct {
	Workers     int
	MaxRetries  int
	RetryDelay  time.Duration
	TemplateTTL time.Duration
}

// RemindersConfig tunes the delayed reminder jobs.
type RemindersConfig struct {
	Enabled bool
	// LeadTime is how long before the appointment the reminder fires.
	LeadTime    time.Duration
	QueueDB     int
	Concurrency int
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
		if !errors.As(err, &notFound) {
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
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Business = BusinessConfig{
		Timezone: v.GetString("BUSINESS_TIMEZONE"),
		Name:     v.GetString("BUSINESS_NAME"),
	}

	cfg.Booking = BookingConfig{
		IntegrityRetries: v.GetInt("BOOKING_INTEGRITY_RETRIES"),
	}

	cfg.Slots = SlotsConfig{
		DefaultIntervalMinutes: v.GetInt("SLOT_INTERVAL_MINUTES"),
		CacheTTL:               parseDuration(v.GetString("SLOT_CACHE_TTL"), 30*time.Second),
		MaxRangeDays:           v.GetInt("SLOT_MAX_RANGE_DAYS"),
	}

	cfg.Notifications = NotificationsConfig{
		Workers:     v.GetInt("NOTIFY_WORKERS"),
		MaxRetries:  v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay:  parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
		TemplateTTL: parseDuration(v.GetString("NOTIFY_TEMPLATE_TTL"), 10*time.Minute),
	}

	cfg.Reminders = RemindersConfig{
		Enabled:     v.GetBool("ENABLE_REMINDERS"),
		LeadTime:    parseDuration(v.GetString("REMINDER_LEAD_TIME"), 24*time.Hour),
		QueueDB:     v.GetInt("REMINDER_QUEUE_DB"),
		Concurrency: v.GetInt("REMINDER_CONCURRENCY"),
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
	v.SetDefault("DB_NAME", "salonbook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BUSINESS_TIMEZONE", "Asia/Jakarta")
	v.SetDefault("BUSINESS_NAME", "SalonBook")

	v.SetDefault("BOOKING_INTEGRITY_RETRIES", 3)

	v.SetDefault("SLOT_INTERVAL_MINUTES", 30)
	v.SetDefault("SLOT_CACHE_TTL", "30s")
	v.SetDefault("SLOT_MAX_RANGE_DAYS", 31)

	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")
	v.SetDefault("NOTIFY_TEMPLATE_TTL", "10m")

	v.SetDefault("ENABLE_REMINDERS", true)
	v.SetDefault("REMINDER_LEAD_TIME", "24h")
	v.SetDefault("REMINDER_QUEUE_DB", 1)
	v.SetDefault("REMINDER_CONCURRENCY", 5)
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
