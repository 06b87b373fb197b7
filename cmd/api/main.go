// Command api runs the StudyFlow HTTP API: plan generation, completion
// transactions, and the schedule/progress read endpoints.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/studyflow/studyflow/config"
	"github.com/studyflow/studyflow/internal/application/command"
	"github.com/studyflow/studyflow/internal/application/planner"
	"github.com/studyflow/studyflow/internal/application/query"
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/internal/infrastructure/external/reasoning"
	"github.com/studyflow/studyflow/internal/infrastructure/messaging"
	"github.com/studyflow/studyflow/internal/infrastructure/metrics"
	"github.com/studyflow/studyflow/internal/infrastructure/persistence/postgres"
	"github.com/studyflow/studyflow/internal/infrastructure/persistence/redis"
	httpapi "github.com/studyflow/studyflow/internal/interface/http"
	"github.com/studyflow/studyflow/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "api: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ══════════════════════════════════════════════════════════════════════
	// 1. CONFIGURATION
	// ══════════════════════════════════════════════════════════════════════

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// ══════════════════════════════════════════════════════════════════════
	// 2. LOGGING
	// ══════════════════════════════════════════════════════════════════════

	slogger := setupLogger(cfg)
	slog.SetDefault(slogger)

	appLog := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})

	slogger.Info("starting studyflow api",
		"version", cfg.App.Version,
		"environment", string(cfg.App.Environment),
	)

	// ══════════════════════════════════════════════════════════════════════
	// 3. POSTGRESQL
	// ══════════════════════════════════════════════════════════════════════

	conn, err := postgres.NewConnection(ctx, postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		Database:        cfg.Database.Database,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		SSLMode:         cfg.Database.SSLMode,
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnLifetime: cfg.Database.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
		ConnectTimeout:  cfg.Database.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	slogger.Info("postgres connected", "host", cfg.Database.Host, "database", cfg.Database.Database)

	// ══════════════════════════════════════════════════════════════════════
	// 4. MIGRATIONS
	// ══════════════════════════════════════════════════════════════════════

	if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// ══════════════════════════════════════════════════════════════════════
	// 5. REDIS (OPTIONAL)
	// ══════════════════════════════════════════════════════════════════════

	var cache *redis.Cache
	if !cfg.Redis.Disabled {
		cache, err = redis.NewCache(redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   3,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			// The API degrades to uncached reads; it does not refuse to start.
			slogger.Warn("redis unavailable, running without cache", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			slogger.Info("redis connected", "host", cfg.Redis.Host)
		}
	}

	var schedCache query.ScheduleCache
	var invalidator command.CacheInvalidator
	if cache != nil && cfg.Features.IsEnabled(config.FeatureScheduleCache) {
		sc := redis.NewScheduleCache(cache, appLog)
		schedCache = sc
		invalidator = sc
	}

	// ══════════════════════════════════════════════════════════════════════
	// 6. REPOSITORIES AND TRANSACTION STORE
	// ══════════════════════════════════════════════════════════════════════

	taskRepo := postgres.NewTaskRepository(conn)
	habitRepo := postgres.NewHabitRepository(conn)
	blockRepo := postgres.NewScheduleRepository(conn)
	userRepo := postgres.NewUserRepository(conn)
	courseRepo := postgres.NewCourseRepository(conn)
	txStore := postgres.NewTxStore(conn, appLog)

	// ══════════════════════════════════════════════════════════════════════
	// 7. EVENT BUS AND METRICS
	// ══════════════════════════════════════════════════════════════════════

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = slogger
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer bus.Close()

	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
		if err := bus.SubscribeAll(metrics.NewRecorder(m).HandleEvent); err != nil {
			return fmt.Errorf("subscribe metrics recorder: %w", err)
		}
	}

	// ══════════════════════════════════════════════════════════════════════
	// 8. PLANNING PIPELINE
	// ══════════════════════════════════════════════════════════════════════

	aggregator := planner.NewAggregator(taskRepo, habitRepo, courseRepo, userRepo, planner.AggregatorConfig{
		LegacyEffortHoursMax: cfg.Planner.LegacyEffortHoursMax,
		Defaults: user.Preferences{
			WorkHours:      cfg.Planner.DefaultWorkHours,
			EnergyPeak:     cfg.Planner.DefaultEnergyPeak,
			MaxTasksPerDay: cfg.Planner.DefaultMaxTasksPerDay,
			MaxWorkMinutes: cfg.Planner.DefaultMaxWorkMinutes,
			Timezone:       cfg.App.Timezone,
		},
	}, appLog)

	var strategies []planner.Strategy
	if cfg.Features.IsEnabled(config.FeatureAISynthesis) && cfg.Reasoning.BaseURL != "" {
		mapper, err := reasoning.NewMapper()
		if err != nil {
			return fmt.Errorf("build reasoning mapper: %w", err)
		}
		client := reasoning.NewClient(reasoning.ClientConfig{
			BaseURL: cfg.Reasoning.BaseURL,
			APIKey:  cfg.Reasoning.APIKey,
			Timeout: cfg.Reasoning.RequestTimeout,
			Logger:  slogger,
			Debug:   cfg.App.Debug,
		})
		strategies = append(strategies, reasoning.NewStrategy(client, mapper, slogger))
	}
	strategies = append(strategies, planner.NewHeuristic())

	synthesizer := planner.NewSynthesizer(appLog, strategies...)
	synthesizer.OnFallback(func(failed string) {
		appLog.Warn("plan strategy failed, trying next", logger.String("strategy", failed))
	})

	reconciler := planner.NewReconciler(blockRepo, appLog)

	// ══════════════════════════════════════════════════════════════════════
	// 9. APPLICATION HANDLERS
	// ══════════════════════════════════════════════════════════════════════

	deps := httpapi.Dependencies{
		GenerateSchedule:  command.NewGenerateScheduleHandler(aggregator, synthesizer, reconciler, bus, invalidator, appLog),
		CompleteTask:      command.NewCompleteTaskHandler(txStore, bus, appLog),
		CompleteHabit:     command.NewCompleteHabitHandler(txStore, bus, appLog),
		CompleteBlock:     command.NewCompleteBlockHandler(txStore, bus, invalidator, appLog),
		UpdatePreferences: command.NewUpdatePreferencesHandler(userRepo, appLog),
		GetDailySchedule:  query.NewGetDailyScheduleHandler(blockRepo, schedCache, appLog),
		GetProgress:       query.NewGetProgressHandler(userRepo, habitRepo, appLog),
		Logger:            appLog,
		Metrics:           m,
		Health:            &healthChecker{db: conn, cache: cache},
	}

	// ══════════════════════════════════════════════════════════════════════
	// 10. HTTP SERVER
	// ══════════════════════════════════════════════════════════════════════

	srv := httpapi.NewServer(httpapi.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:     1 << 20,
		EnableCORS:         cfg.HTTP.EnableCORS,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		EnableMetrics:      m != nil,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
	}, deps)

	errCh := srv.StartAsync()

	// ══════════════════════════════════════════════════════════════════════
	// 11. GRACEFUL SHUTDOWN
	// ══════════════════════════════════════════════════════════════════════

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		slogger.Info("signal received, shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slogger.Error("http shutdown failed", "error", err)
	}
	if err := bus.Close(); err != nil {
		slogger.Error("event bus close failed", "error", err)
	}

	slogger.Info("studyflow api stopped")
	return nil
}

// setupLogger builds the process-wide slog logger from the observability
// settings: JSON in production, human-readable text elsewhere.
func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Observability.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Observability.LogFormat == "json" || cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", "studyflow-api")
}

// healthChecker reports backing-service status for /health and /ready.
type healthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

// Check implements httpapi.HealthChecker. A disabled cache is not reported:
// absent is different from broken.
func (h *healthChecker) Check(ctx context.Context) []httpapi.ComponentHealth {
	components := make([]httpapi.ComponentHealth, 0, 2)

	pg := httpapi.ComponentHealth{Name: "postgres", Healthy: true}
	if err := h.db.Ping(ctx); err != nil {
		pg.Healthy = false
		pg.Detail = err.Error()
	}
	components = append(components, pg)

	if h.cache != nil {
		rd := httpapi.ComponentHealth{Name: "redis", Healthy: true}
		if err := h.cache.Ping(ctx); err != nil {
			rd.Healthy = false
			rd.Detail = err.Error()
		}
		components = append(components, rd)
	}

	return components
}
