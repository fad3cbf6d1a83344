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
	Lunch         LunchConfig
	Notifications NotificationConfig
	Scheduler     SchedulerConfig
	Metrics       MetricsConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// LunchConfig describes the recurring event itself.
type LunchConfig struct {
	Weekday           time.Weekday
	Location          *time.Location
	StartTimeLabel    string
	LookaheadTiers    int
	DefaultAttendance int
	AttendanceWindow  int
	SecretaryFallback string
	GroupDisplayName  string
}

// NotificationConfig tunes the email pipeline.
type NotificationConfig struct {
	AppBaseURL          string
	SenderName          string
	SenderAddress       string
	DispatchConcurrency int
	DryRun              bool
	LinkSecret          string
	LinkTTL             time.Duration
}

// SchedulerConfig holds the cron trigger wiring.
type SchedulerConfig struct {
	Enabled          bool
	HostReminderSpec string
	SecretarySpec    string
	AnnouncementSpec string
	RatingSpec       string
	Workers          int
	Retries          int
	LockTTL          time.Duration
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Lunch = LunchConfig{
		Weekday:           parseWeekday(v.GetString("LUNCH_WEEKDAY"), time.Tuesday),
		Location:          parseLocation(v.GetString("LUNCH_TIMEZONE")),
		StartTimeLabel:    v.GetString("LUNCH_START_TIME"),
		LookaheadTiers:    v.GetInt("LUNCH_LOOKAHEAD_TIERS"),
		DefaultAttendance: v.GetInt("LUNCH_DEFAULT_ATTENDANCE"),
		AttendanceWindow:  v.GetInt("LUNCH_ATTENDANCE_WINDOW"),
		SecretaryFallback: v.GetString("LUNCH_SECRETARY_ID"),
		GroupDisplayName:  v.GetString("LUNCH_GROUP_NAME"),
	}

	cfg.Notifications = NotificationConfig{
		AppBaseURL:          strings.TrimRight(v.GetString("APP_URL"), "/"),
		SenderName:          v.GetString("MAIL_SENDER_NAME"),
		SenderAddress:       v.GetString("MAIL_SENDER_ADDRESS"),
		DispatchConcurrency: v.GetInt("MAIL_DISPATCH_CONCURRENCY"),
		DryRun:              v.GetBool("MAIL_DRY_RUN"),
		LinkSecret:          v.GetString("MAIL_LINK_SECRET"),
		LinkTTL:             parseDuration(v.GetString("MAIL_LINK_TTL"), 14*24*time.Hour),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:          v.GetBool("ENABLE_SCHEDULER"),
		HostReminderSpec: v.GetString("SCHEDULE_HOST_REMINDER"),
		SecretarySpec:    v.GetString("SCHEDULE_SECRETARY_STATUS"),
		AnnouncementSpec: v.GetString("SCHEDULE_ANNOUNCEMENT"),
		RatingSpec:       v.GetString("SCHEDULE_RATING_REQUEST"),
		Workers:          v.GetInt("SCHEDULER_WORKERS"),
		Retries:          v.GetInt("SCHEDULER_RETRIES"),
		LockTTL:          parseDuration(v.GetString("SCHEDULER_LOCK_TTL"), 10*time.Minute),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
		Path:    v.GetString("METRICS_PATH"),
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
	v.SetDefault("DB_NAME", "lunch_rotation")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "lunch-rotation-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("LUNCH_WEEKDAY", "tuesday")
	v.SetDefault("LUNCH_TIMEZONE", "UTC")
	v.SetDefault("LUNCH_START_TIME", "12:00 PM")
	v.SetDefault("LUNCH_LOOKAHEAD_TIERS", 3)
	v.SetDefault("LUNCH_DEFAULT_ATTENDANCE", 15)
	v.SetDefault("LUNCH_ATTENDANCE_WINDOW", 4)
	v.SetDefault("LUNCH_SECRETARY_ID", "")
	v.SetDefault("LUNCH_GROUP_NAME", "Tuesday Lunch")

	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("MAIL_SENDER_NAME", "Tuesday Lunch Scheduler")
	v.SetDefault("MAIL_SENDER_ADDRESS", "noreply@example.com")
	v.SetDefault("MAIL_DISPATCH_CONCURRENCY", 4)
	v.SetDefault("MAIL_DRY_RUN", false)
	v.SetDefault("MAIL_LINK_SECRET", "dev_link_secret")
	v.SetDefault("MAIL_LINK_TTL", "336h")

	v.SetDefault("ENABLE_SCHEDULER", false)
	v.SetDefault("SCHEDULE_HOST_REMINDER", "0 9 * * THU")
	v.SetDefault("SCHEDULE_SECRETARY_STATUS", "0 9 * * FRI")
	v.SetDefault("SCHEDULE_ANNOUNCEMENT", "0 9 * * MON")
	v.SetDefault("SCHEDULE_RATING_REQUEST", "0 18 * * TUE")
	v.SetDefault("SCHEDULER_WORKERS", 1)
	v.SetDefault("SCHEDULER_RETRIES", 1)
	v.SetDefault("SCHEDULER_LOCK_TTL", "10m")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("METRICS_PATH", "/metrics")
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

func parseWeekday(raw string, fallback time.Weekday) time.Weekday {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if raw == name || raw == name[:3] {
			return d
		}
	}
	return fallback
}

func parseLocation(raw string) *time.Location {
	if raw == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(raw)
	if err != nil {
		return time.UTC
	}
	return loc
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
