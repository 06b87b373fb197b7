package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "studyflow", cfg.App.Name)
	assert.Equal(t, EnvDevelopment, cfg.App.Environment)
	assert.True(t, cfg.App.Debug, "development implies debug")
	assert.Equal(t, "UTC", cfg.App.Timezone)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 10, cfg.Database.MaxConns)

	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.False(t, cfg.Redis.Disabled)

	assert.Equal(t, float64(12), cfg.Planner.LegacyEffortHoursMax)
	assert.Equal(t, "09:00-18:00", cfg.Planner.DefaultWorkHours)
	assert.Equal(t, 7, cfg.Planner.DefaultMaxTasksPerDay)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 120, cfg.HTTP.RateLimitPerMinute)

	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "30 3 * * *", cfg.Scheduler.NightlyReplanCron)
	assert.Equal(t, "0 20 * * *", cfg.Scheduler.StreakRiskCron)

	assert.Equal(t, "info", cfg.Observability.LogLevel)
	assert.Equal(t, "json", cfg.Observability.LogFormat)

	require.NotNil(t, cfg.Features)
	assert.True(t, cfg.Features.IsEnabled(FeatureAISynthesis))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "staging")
	t.Setenv("APP_TIMEZONE", "Asia/Almaty")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REDIS_DISABLED", "true")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("HTTP_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvStaging, cfg.App.Environment)
	assert.False(t, cfg.App.Debug)
	assert.Equal(t, "Asia/Almaty", cfg.App.Location.String())
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.True(t, cfg.Redis.Disabled)
	assert.Equal(t, 5*time.Second, cfg.App.ShutdownTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("APP_TIMEZONE", "Broken/Zone")
	t.Setenv("APP_SHUTDOWN_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, time.UTC, cfg.App.Location)
	assert.Equal(t, 30*time.Second, cfg.App.ShutdownTimeout)
}

func TestValidate_ProductionRequiresDBPassword(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("REASONING_BASE_URL", "https://reasoning.internal")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
}

func TestValidate_ProductionRequiresReasoningURLWhenAIEnabled(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PASSWORD", "secret")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "REASONING_BASE_URL")
}

func TestValidate_ProductionOKWithAIDisabled(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("FEATURE_PLANNER_AI_SYNTHESIS", "false")

	cfg, err := Load()

	require.NoError(t, err)
	assert.False(t, cfg.Features.IsEnabled(FeatureAISynthesis))
}

func TestValidate_RejectsBadPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "70000")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_PORT")
}

func TestValidate_RejectsNonPositivePlannerLimits(t *testing.T) {
	t.Setenv("PLANNER_LEGACY_EFFORT_HOURS_MAX", "-1")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "PLANNER_LEGACY_EFFORT_HOURS_MAX")
}

func TestConfig_EnvironmentHelpers(t *testing.T) {
	dev := &Config{App: AppConfig{Environment: EnvDevelopment}}
	prod := &Config{App: AppConfig{Environment: EnvProduction}}

	assert.True(t, dev.IsDevelopment())
	assert.False(t, dev.IsProduction())
	assert.True(t, prod.IsProduction())
}
