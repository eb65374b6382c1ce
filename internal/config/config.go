package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/cmlabs-hris/hris-timetracking-go/internal/domain/timetracking"
	"github.com/joho/godotenv"
)

type Config struct {
	Database     DatabaseConfig
	JWT          JWTConfig
	App          AppConfig
	TimeTracking TimeTrackingConfig
}

type DatabaseConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration string
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
}

// TimeTrackingConfig holds the engine policy and the stale entry sweep settings
type TimeTrackingConfig struct {
	Engine            timetracking.Config
	AutoClockOutEvery time.Duration
	SweepConcurrency  int
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	config := &Config{}
	p := &parser{}

	config.Database = DatabaseConfig{
		Host:             getEnv("DB_HOST", "localhost"),
		Port:             p.getInt("DB_PORT", 5432),
		User:             getEnv("DB_USER", "postgres"),
		Password:         getEnv("DB_PASSWORD", ""),
		Name:             getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:          getEnv("DB_SSL_MODE", "disable"),
		MaxConns:         int32(p.getInt("DB_MAX_CONNS", 10)),
		MinConns:         int32(p.getInt("DB_MIN_CONNS", 2)),
		StatementTimeout: p.getDuration("DB_STATEMENT_TIMEOUT", 10*time.Second),
	}

	config.App = AppConfig{
		Port:        p.getInt("APP_PORT", 8080),
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"),
	}

	defaults := timetracking.DefaultConfig()
	engine := timetracking.Config{
		AllowFutureClockIn:            p.getBool("TT_ALLOW_FUTURE_CLOCK_IN", defaults.AllowFutureClockIn),
		RequireLocation:               p.getBool("TT_REQUIRE_LOCATION", defaults.RequireLocation),
		MaxDailyHours:                 p.getFloat("TT_MAX_DAILY_HOURS", defaults.MaxDailyHours),
		OvertimeThreshold:             p.getFloat("TT_OVERTIME_THRESHOLD", defaults.OvertimeThreshold),
		AutoClockOutAfterHours:        p.getFloat("TT_AUTO_CLOCK_OUT_AFTER_HOURS", defaults.AutoClockOutAfterHours),
		RequireApprovalForManualEntry: p.getBool("TT_REQUIRE_APPROVAL_FOR_MANUAL_ENTRY", defaults.RequireApprovalForManualEntry),
		MaxPastDaysForManualEntry:     p.getInt("TT_MAX_PAST_DAYS_FOR_MANUAL_ENTRY", defaults.MaxPastDaysForManualEntry),
	}
	if raw := os.Getenv("TT_DOUBLE_TIME_THRESHOLD"); raw != "" {
		threshold := p.getFloat("TT_DOUBLE_TIME_THRESHOLD", 0)
		engine.DoubleTimeThreshold = &threshold
	}
	config.TimeTracking = TimeTrackingConfig{
		Engine:            engine,
		AutoClockOutEvery: p.getDuration("TT_AUTO_CLOCK_OUT_INTERVAL", 15*time.Minute),
		SweepConcurrency:  p.getInt("TT_SWEEP_CONCURRENCY", 4),
	}

	if p.err != nil {
		return nil, p.err
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
	if _, err := time.ParseDuration(c.JWT.AccessExpiration); err != nil {
		return fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	if c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if c.TimeTracking.AutoClockOutEvery <= 0 {
		return fmt.Errorf("TT_AUTO_CLOCK_OUT_INTERVAL must be positive")
	}
	if c.TimeTracking.SweepConcurrency < 1 {
		return fmt.Errorf("TT_SWEEP_CONCURRENCY must be at least 1")
	}
	return c.TimeTracking.Engine.Validate()
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

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (p *parser) getInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}

func (p *parser) getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, strconv.FormatFloat(fallback, 'f', -1, 64)), 64)
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}

func (p *parser) getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(fallback)))
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}

func (p *parser) getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		p.fail(key, err)
		return fallback
	}
	return v
}
