// Command worker runs the StudyFlow background jobs: the nightly replan that
// prepares every user's schedule ahead of the day, and the evening sweep that
// flags habit streaks about to break.
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
	"github.com/studyflow/studyflow/internal/domain/user"
	"github.com/studyflow/studyflow/internal/infrastructure/external/reasoning"
	"github.com/studyflow/studyflow/internal/infrastructure/messaging"
	"github.com/studyflow/studyflow/internal/infrastructure/metrics"
	"github.com/studyflow/studyflow/internal/infrastructure/persistence/postgres"
	"github.com/studyflow/studyflow/internal/infrastructure/persistence/redis"
	"github.com/studyflow/studyflow/internal/infrastructure/scheduler"
	"github.com/studyflow/studyflow/internal/infrastructure/scheduler/jobs"
	"github.com/studyflow/studyflow/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
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

	slogger.Info("starting studyflow worker",
		"version", cfg.App.Version,
		"environment", string(cfg.App.Environment),
	)

	if !cfg.Scheduler.Enabled {
		slogger.Warn("scheduler disabled by configuration, nothing to do")
		return nil
	}

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
	// 5. REDIS (OPTIONAL, USED FOR THE CROSS-INSTANCE JOB LOCK)
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
			// Without Redis the replan still runs, just without the lock
			// that keeps multiple worker instances from racing.
			slogger.Warn("redis unavailable, jobs run unlocked", "error", err)
			cache = nil
		} else {
			defer cache.Close()
			slogger.Info("redis connected", "host", cfg.Redis.Host)
		}
	}

	// ══════════════════════════════════════════════════════════════════════
	// 6. REPOSITORIES, EVENT BUS, METRICS
	// ══════════════════════════════════════════════════════════════════════

	taskRepo := postgres.NewTaskRepository(conn)
	habitRepo := postgres.NewHabitRepository(conn)
	blockRepo := postgres.NewScheduleRepository(conn)
	userRepo := postgres.NewUserRepository(conn)
	courseRepo := postgres.NewCourseRepository(conn)

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = slogger
	bus := messaging.NewInMemoryEventBus(busConfig)
	defer bus.Close()

	if cfg.Observability.MetricsEnabled {
		recorder := metrics.NewRecorder(metrics.New())
		if err := bus.SubscribeAll(recorder.HandleEvent); err != nil {
			return fmt.Errorf("subscribe metrics recorder: %w", err)
		}
	}

	// ══════════════════════════════════════════════════════════════════════
	// 7. PLANNING PIPELINE
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
	reconciler := planner.NewReconciler(blockRepo, appLog)

	var invalidator command.CacheInvalidator
	if cache != nil && cfg.Features.IsEnabled(config.FeatureScheduleCache) {
		invalidator = redis.NewScheduleCache(cache, appLog)
	}

	generator := command.NewGenerateScheduleHandler(aggregator, synthesizer, reconciler, bus, invalidator, appLog)

	// ══════════════════════════════════════════════════════════════════════
	// 8. JOB REGISTRATION
	// ══════════════════════════════════════════════════════════════════════

	sched := scheduler.NewScheduler(scheduler.SchedulerConfig{
		Logger:        slogger,
		Timezone:      cfg.App.Location,
		EnableMetrics: cfg.Observability.MetricsEnabled,
	})

	var locker jobs.Locker
	if cache != nil {
		locker = cache
	}

	if cfg.Features.IsEnabled(config.FeatureNightlyReplan) {
		replanCron, err := scheduler.ParseCronExpression(cfg.Scheduler.NightlyReplanCron)
		if err != nil {
			return fmt.Errorf("parse nightly replan cron %q: %w", cfg.Scheduler.NightlyReplanCron, err)
		}

		replanConfig := jobs.DefaultNightlyReplanConfig()
		replanConfig.Concurrency = cfg.Scheduler.ReplanConcurrency
		replanConfig.Timeout = cfg.Scheduler.JobTimeout

		replan := jobs.NewNightlyReplanJob(userRepo, generator, locker, slogger, replanConfig)
		if err := sched.Register(replan, replanCron); err != nil {
			return fmt.Errorf("register %s: %w", replan.Name(), err)
		}
	} else {
		slogger.Info("nightly replan disabled by feature flag")
	}

	if cfg.Features.IsEnabled(config.FeatureStreakReminders) {
		riskCron, err := scheduler.ParseCronExpression(cfg.Scheduler.StreakRiskCron)
		if err != nil {
			return fmt.Errorf("parse streak risk cron %q: %w", cfg.Scheduler.StreakRiskCron, err)
		}

		risk := jobs.NewStreakRiskJob(userRepo, habitRepo, bus, slogger, jobs.DefaultStreakRiskConfig())
		if err := sched.Register(risk, riskCron); err != nil {
			return fmt.Errorf("register %s: %w", risk.Name(), err)
		}
	} else {
		slogger.Info("streak risk sweep disabled by feature flag")
	}

	// ══════════════════════════════════════════════════════════════════════
	// 9. RUN UNTIL SIGNALLED
	// ══════════════════════════════════════════════════════════════════════

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	for _, info := range sched.ListJobs() {
		slogger.Info("job scheduled", "job", info.Name, "schedule", info.Schedule, "next_run", info.NextRun)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	select {
	case sig := <-sigCh:
		slogger.Info("signal received, shutting down", "signal", sig.String())
	case <-ctx.Done():
	}

	if err := sched.Stop(); err != nil {
		slogger.Error("scheduler stop failed", "error", err)
	}
	if err := bus.Close(); err != nil {
		slogger.Error("event bus close failed", "error", err)
	}

	slogger.Info("studyflow worker stopped")
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

	return slog.New(handler).With("service", "studyflow-worker")
}
