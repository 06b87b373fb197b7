package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Reasoning service
	Reasoning ReasoningConfig

	// Planner
	Planner PlannerConfig

	// HTTP API
	HTTP HTTPConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Feature Flags
	Features *FeatureFlags

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool
	Version     string

	// Timezone used when a user has not set one (default: UTC)
	Timezone string
	Location *time.Location

	// Graceful shutdown timeout
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// Connection pool settings
	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// Timeouts
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// Enable for development without Redis
	Disabled bool
}

// ReasoningConfig holds reasoning-service client settings.
type ReasoningConfig struct {
	// Base URL of the reasoning service
	BaseURL string

	// Bearer token
	APIKey string

	// One plan request end to end
	RequestTimeout time.Duration
}

// PlannerConfig holds planning pipeline settings.
type PlannerConfig struct {
	// LegacyEffortHoursMax is the threshold below which an untagged effort
	// number in imported data is read as hours rather than minutes.
	LegacyEffortHoursMax float64

	// Defaults merged under user preferences
	DefaultWorkHours      string
	DefaultEnergyPeak     string
	DefaultMaxTasksPerDay int
	DefaultMaxWorkMinutes int
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host               string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	EnableCORS         bool
	AllowedOrigins     []string
	RateLimitPerMinute int
}

// SchedulerConfig holds background job settings.
type SchedulerConfig struct {
	// Enable/disable the worker's scheduler
	Enabled bool

	// Cron expressions (in the app timezone)
	NightlyReplanCron string
	StreakRiskCron    string

	// Concurrency for the nightly fan-out
	ReplanConcurrency int

	// Per-job timeout
	JobTimeout time.Duration
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Metrics
	MetricsEnabled bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.App = loadAppConfig()
	cfg.Database = loadDatabaseConfig()
	cfg.Redis = loadRedisConfig()
	cfg.Reasoning = loadReasoningConfig()
	cfg.Planner = loadPlannerConfig()
	cfg.HTTP = loadHTTPConfig()
	cfg.Scheduler = loadSchedulerConfig()
	cfg.Features = LoadFeatureFlags()
	cfg.Observability = loadObservabilityConfig()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func loadAppConfig() AppConfig {
	env := Environment(getEnv("APP_ENV", "development"))
	timezone := getEnv("APP_TIMEZONE", "UTC")

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}

	return AppConfig{
		Name:            getEnv("APP_NAME", "studyflow"),
		Environment:     env,
		Debug:           env == EnvDevelopment || getEnvBool("APP_DEBUG", false),
		Version:         getEnv("APP_VERSION", "0.1.0"),
		Timezone:        timezone,
		Location:        loc,
		ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		Database:        getEnv("DB_NAME", "studyflow"),
		User:            getEnv("DB_USER", "studyflow"),
		Password:        getEnv("DB_PASSWORD", ""),
		SSLMode:         getEnv("DB_SSLMODE", "require"),
		MaxConns:        getEnvInt("DB_MAX_CONNS", 10),
		MinConns:        getEnvInt("DB_MIN_CONNS", 2),
		ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
		ConnectTimeout:  getEnvDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
	}
}

func loadRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		Disabled:     getEnvBool("REDIS_DISABLED", false),
	}
}

func loadReasoningConfig() ReasoningConfig {
	return ReasoningConfig{
		BaseURL:        getEnv("REASONING_BASE_URL", ""),
		APIKey:         getEnv("REASONING_API_KEY", ""),
		RequestTimeout: getEnvDuration("REASONING_REQUEST_TIMEOUT", 20*time.Second),
	}
}

func loadPlannerConfig() PlannerConfig {
	return PlannerConfig{
		LegacyEffortHoursMax:  getEnvFloat("PLANNER_LEGACY_EFFORT_HOURS_MAX", 12),
		DefaultWorkHours:      getEnv("PLANNER_DEFAULT_WORK_HOURS", "09:00-18:00"),
		DefaultEnergyPeak:     getEnv("PLANNER_DEFAULT_ENERGY_PEAK", "09:00-12:00"),
		DefaultMaxTasksPerDay: getEnvInt("PLANNER_DEFAULT_MAX_TASKS", 7),
		DefaultMaxWorkMinutes: getEnvInt("PLANNER_DEFAULT_MAX_WORK_MINUTES", 360),
	}
}

func loadHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Host:               getEnv("HTTP_HOST", "0.0.0.0"),
		Port:               getEnvInt("HTTP_PORT", 8080),
		ReadTimeout:        getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:        getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		EnableCORS:         getEnvBool("HTTP_ENABLE_CORS", true),
		AllowedOrigins:     getEnvSlice("HTTP_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitPerMinute: getEnvInt("HTTP_RATE_LIMIT_PER_MINUTE", 120),
	}
}

func loadSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		Enabled:           getEnvBool("SCHEDULER_ENABLED", true),
		NightlyReplanCron: getEnv("SCHEDULER_NIGHTLY_REPLAN_CRON", "30 3 * * *"),
		StreakRiskCron:    getEnv("SCHEDULER_STREAK_RISK_CRON", "0 20 * * *"),
		ReplanConcurrency: getEnvInt("SCHEDULER_REPLAN_CONCURRENCY", 8),
		JobTimeout:        getEnvDuration("SCHEDULER_JOB_TIMEOUT", 15*time.Minute),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Environment == EnvProduction {
		if c.Database.Password == "" {
			errs = append(errs, "DB_PASSWORD is required in production")
		}
		if c.Reasoning.BaseURL == "" && c.Features.IsEnabled(FeatureAISynthesis) {
			errs = append(errs, "REASONING_BASE_URL is required when AI synthesis is enabled")
		}
	}

	if c.Planner.LegacyEffortHoursMax <= 0 {
		errs = append(errs, "PLANNER_LEGACY_EFFORT_HOURS_MAX must be positive")
	}
	if c.Planner.DefaultMaxTasksPerDay <= 0 {
		errs = append(errs, "PLANNER_DEFAULT_MAX_TASKS must be positive")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, "HTTP_PORT must be 1-65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func getEnvSlice(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}

	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return defaultVal
	}
	return result
}
