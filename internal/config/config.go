package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	Redis        RedisConfig
	RateLimit    RateLimitConfig
	Verification VerificationConfig
	Cron         CronConfig
	Notification NotificationConfig

	// PolicyFile optionally points at a YAML shift policy; see LoadPolicy.
	PolicyFile string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

type RedisConfig struct {
	Addr     string // empty disables redis; the limiter runs in-process
	Password string
	DB       int
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type VerificationConfig struct {
	// EnforceLocation rejects check-ins from networks the clinic has not whitelisted.
	EnforceLocation bool
}

type CronConfig struct {
	Enabled           bool
	ReconcileInterval time.Duration
	JobTimeout        time.Duration
	ResetHour         int
}

type NotificationConfig struct {
	Workers       int
	BatchSize     int
	FlushInterval time.Duration
	QueueSize     int
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded, using process environment")
	}

	config := &Config{}
	var errs []string

	intEnv := func(key, fallback string) int {
		v, err := strconv.Atoi(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	durationEnv := func(key, fallback string) time.Duration {
		v, err := time.ParseDuration(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}
	boolEnv := func(key, fallback string) bool {
		v, err := strconv.ParseBool(getEnv(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Sprintf("invalid %s: %v", key, err))
		}
		return v
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     intEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "clinic_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(intEnv("DB_MAX_CONNS", "25")),
		MinConns: int32(intEnv("DB_MIN_CONNS", "5")),
	}

	config.App = AppConfig{
		Port:           intEnv("APP_PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       intEnv("REDIS_DB", "0"),
	}

	config.RateLimit = RateLimitConfig{
		Requests: intEnv("RATE_LIMIT_REQUESTS", "10"),
		Window:   durationEnv("RATE_LIMIT_WINDOW", "1m"),
	}

	config.Verification = VerificationConfig{
		EnforceLocation: boolEnv("VERIFICATION_ENFORCE_LOCATION", "false"),
	}

	config.Cron = CronConfig{
		Enabled:           boolEnv("CRON_ENABLED", "true"),
		ReconcileInterval: durationEnv("CRON_RECONCILE_INTERVAL", "5m"),
		JobTimeout:        durationEnv("CRON_JOB_TIMEOUT", "2m"),
		ResetHour:         intEnv("CRON_RESET_HOUR", "0"),
	}

	config.Notification = NotificationConfig{
		Workers:       intEnv("NOTIFICATION_WORKERS", "2"),
		BatchSize:     intEnv("NOTIFICATION_BATCH_SIZE", "100"),
		FlushInterval: durationEnv("NOTIFICATION_FLUSH_INTERVAL", "5s"),
		QueueSize:     intEnv("NOTIFICATION_QUEUE_SIZE", "1000"),
	}

	config.PolicyFile = getEnv("POLICY_FILE", "")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration parse failed: %s", strings.Join(errs, "; "))
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive")
	}
	if c.Cron.ResetHour < 0 || c.Cron.ResetHour > 23 {
		return fmt.Errorf("CRON_RESET_HOUR must be between 0 and 23")
	}
	if c.Cron.ReconcileInterval <= 0 {
		return fmt.Errorf("CRON_RECONCILE_INTERVAL must be positive")
	}
	return nil
}

// Location returns the zone used to decide "today" for scheduled jobs.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
