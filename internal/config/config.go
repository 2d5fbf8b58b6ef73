package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	App       AppConfig
	Workforce WorkforceConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Store     StoreConfig
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

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	FrontendURL    string
	RateLimitRPS   float64 // per client; zero disables
	RateLimitBurst int
}

// WorkforceConfig holds the policy knobs of attendance, shifts, leave and payroll.
type WorkforceConfig struct {
	DefaultTimezone       string
	MaxClockSkew          time.Duration
	MinRestHours          int
	DefaultWeeklyHourGoal int
	ScheduleLookupTimeout time.Duration
	LeaveAllowNegative    bool
	PayrollCronInterval   time.Duration
	PayrollClosingDays    int
	PayrollConcurrency    int
}

// RedisConfig configures the employee config cache and idempotent appends.
// Empty URL disables both.
type RedisConfig struct {
	URL            string
	CacheTTL       time.Duration
	IdempotencyTTL time.Duration
}

// KafkaConfig configures the event sink. No brokers means events are only logged.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type StoreConfig struct {
	Driver string // postgres | memory
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	config := &Config{}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}
	minConns, err := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		MinConns: int32(minConns),
	}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	rateLimit, err := strconv.ParseFloat(getEnv("APP_RATE_LIMIT_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_RATE_LIMIT_RPS: %w", err)
	}
	rateBurst, err := strconv.Atoi(getEnv("APP_RATE_LIMIT_BURST", "40"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_RATE_LIMIT_BURST: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:3000"),
		RateLimitRPS:   rateLimit,
		RateLimitBurst: rateBurst,
	}

	// Workforce configuration
	clockSkew, err := time.ParseDuration(getEnv("WORKFORCE_MAX_CLOCK_SKEW", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFORCE_MAX_CLOCK_SKEW: %w", err)
	}
	minRest, err := strconv.Atoi(getEnv("WORKFORCE_MIN_REST_HOURS", "8"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFORCE_MIN_REST_HOURS: %w", err)
	}
	weeklyGoal, err := strconv.Atoi(getEnv("WORKFORCE_DEFAULT_WEEKLY_HOUR_GOAL", "45"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFORCE_DEFAULT_WEEKLY_HOUR_GOAL: %w", err)
	}
	lookupTimeout, err := time.ParseDuration(getEnv("WORKFORCE_SCHEDULE_LOOKUP_TIMEOUT", "2s"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFORCE_SCHEDULE_LOOKUP_TIMEOUT: %w", err)
	}
	allowNegative, err := strconv.ParseBool(getEnv("WORKFORCE_LEAVE_ALLOW_NEGATIVE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFORCE_LEAVE_ALLOW_NEGATIVE: %w", err)
	}
	payrollInterval, err := time.ParseDuration(getEnv("WORKFORCE_PAYROLL_CRON_INTERVAL", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFORCE_PAYROLL_CRON_INTERVAL: %w", err)
	}
	closingDays, err := strconv.Atoi(getEnv("WORKFORCE_PAYROLL_CLOSING_DAYS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFORCE_PAYROLL_CLOSING_DAYS: %w", err)
	}
	payrollConcurrency, err := strconv.Atoi(getEnv("WORKFORCE_PAYROLL_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid WORKFORCE_PAYROLL_CONCURRENCY: %w", err)
	}

	config.Workforce = WorkforceConfig{
		DefaultTimezone:       getEnv("WORKFORCE_DEFAULT_TIMEZONE", "UTC"),
		MaxClockSkew:          clockSkew,
		MinRestHours:          minRest,
		DefaultWeeklyHourGoal: weeklyGoal,
		ScheduleLookupTimeout: lookupTimeout,
		LeaveAllowNegative:    allowNegative,
		PayrollCronInterval:   payrollInterval,
		PayrollClosingDays:    closingDays,
		PayrollConcurrency:    payrollConcurrency,
	}

	// Redis configuration
	cacheTTL, err := time.ParseDuration(getEnv("REDIS_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_CACHE_TTL: %w", err)
	}
	idempotencyTTL, err := time.ParseDuration(getEnv("REDIS_IDEMPOTENCY_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_IDEMPOTENCY_TTL: %w", err)
	}
	config.Redis = RedisConfig{
		URL:            getEnv("REDIS_URL", ""),
		CacheTTL:       cacheTTL,
		IdempotencyTTL: idempotencyTTL,
	}

	// Kafka configuration
	config.Kafka = KafkaConfig{
		Brokers: getEnvSlice("KAFKA_BROKERS"),
		Topic:   getEnv("KAFKA_TOPIC", "hr.workforce.events.v1"),
	}

	config.Store = StoreConfig{
		Driver: getEnv("STORE_DRIVER", "postgres"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres":
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be 'postgres' or 'memory', got %q", c.Store.Driver)
	}

	if c.App.RateLimitRPS < 0 {
		return fmt.Errorf("APP_RATE_LIMIT_RPS must not be negative")
	}
	if c.App.RateLimitRPS > 0 && c.App.RateLimitBurst <= 0 {
		return fmt.Errorf("APP_RATE_LIMIT_BURST must be positive when rate limiting is on")
	}
	if _, err := time.LoadLocation(c.Workforce.DefaultTimezone); err != nil {
		return fmt.Errorf("WORKFORCE_DEFAULT_TIMEZONE is not a valid IANA zone: %w", err)
	}
	if c.Workforce.MaxClockSkew < 0 {
		return fmt.Errorf("WORKFORCE_MAX_CLOCK_SKEW must not be negative")
	}
	if c.Workforce.MinRestHours < 0 {
		return fmt.Errorf("WORKFORCE_MIN_REST_HOURS must not be negative")
	}
	if c.Workforce.DefaultWeeklyHourGoal <= 0 {
		return fmt.Errorf("WORKFORCE_DEFAULT_WEEKLY_HOUR_GOAL must be positive")
	}
	if c.Workforce.ScheduleLookupTimeout <= 0 {
		return fmt.Errorf("WORKFORCE_SCHEDULE_LOOKUP_TIMEOUT must be positive")
	}
	if c.Workforce.PayrollCronInterval <= 0 {
		return fmt.Errorf("WORKFORCE_PAYROLL_CRON_INTERVAL must be positive")
	}
	if c.Workforce.PayrollClosingDays < 0 || c.Workforce.PayrollClosingDays > 28 {
		return fmt.Errorf("WORKFORCE_PAYROLL_CLOSING_DAYS must be between 0 and 28")
	}
	if c.Workforce.PayrollConcurrency <= 0 {
		return fmt.Errorf("WORKFORCE_PAYROLL_CONCURRENCY must be positive")
	}
	return nil
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
