package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/adambarczewski00/telemetry-board/internal/alert"
	"github.com/adambarczewski00/telemetry-board/internal/alerting"
	"github.com/adambarczewski00/telemetry-board/internal/api"
	"github.com/adambarczewski00/telemetry-board/internal/cache"
	"github.com/adambarczewski00/telemetry-board/internal/config"
	"github.com/adambarczewski00/telemetry-board/internal/fetcher"
	"github.com/adambarczewski00/telemetry-board/internal/metrics"
	"github.com/adambarczewski00/telemetry-board/internal/retention"
	"github.com/adambarczewski00/telemetry-board/internal/runner"
	"github.com/adambarczewski00/telemetry-board/internal/schedule"
	"github.com/adambarczewski00/telemetry-board/internal/seed"
	"github.com/adambarczewski00/telemetry-board/internal/service"
	"github.com/adambarczewski00/telemetry-board/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

type stores struct {
	assets  storage.AssetStore
	samples storage.SampleStore
	alerts  storage.AlertEventStore
	close   func()
}

// openStores connects to Postgres when a DSN is configured and falls back to
// the in-memory store otherwise (demo runs without persistence).
func (a *App) openStores(ctx context.Context) (stores, error) {
	if a.Config.Database.DSN == "" {
		a.Logger.Warn().Msg("database.dsn not configured; using volatile in-memory store")
		mem := storage.NewMemory()
		return stores{assets: mem, samples: mem, alerts: mem, close: func() {}}, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return stores{}, err
	}

	store := storage.NewStore(pool)
	return stores{assets: store, samples: store, alerts: store, close: store.Close}, nil
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Telegram.Enabled {
		return nil
	}
	cfg := a.Config.Alerting.Telegram
	return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
}

// newService assembles the full task/query service and its dependencies.
// The returned closer releases storage and cache resources.
func (a *App) newService(ctx context.Context, m *metrics.Metrics) (*service.Service, func(), error) {
	st, err := a.openStores(ctx)
	if err != nil {
		return nil, nil, err
	}

	latest, err := cache.NewLatestPrices(a.Config.Redis.URL, a.Config.Redis.TTL)
	if err != nil {
		st.close()
		return nil, nil, err
	}

	prices := fetcher.NewCoinGecko(fetcher.CoinGeckoOptions{
		BaseURL:   a.Config.Fetcher.BaseURL,
		Timeout:   a.Config.Fetcher.RequestTimeout,
		UserAgent: a.Config.Fetcher.UserAgent,
	}, a.Logger)

	engine := alert.NewEngine(st.assets, st.samples, st.alerts, a.newNotifier(), alert.Defaults{
		WindowMinutes: a.Config.Alerting.WindowMinutes,
		ThresholdPct:  a.Config.Alerting.ThresholdPct,
	}, m, a.Logger)

	pruner := retention.NewPruner(st.samples, a.Config.Retention.Days, a.Logger)

	seeder := seed.NewSeeder(st.assets, st.samples, seed.Options{
		Hours:           a.Config.Seed.Hours,
		IntervalSeconds: a.Config.Seed.IntervalSeconds,
	}, a.Logger)

	svc := service.New(st.assets, st.samples, st.alerts, prices, prices, engine, pruner, seeder, latest, m, a.Logger)

	closer := func() {
		if err := latest.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("failed to close redis client")
		}
		st.close()
	}
	return svc, closer, nil
}

// buildSchedule reads the current configuration into a job table.
func (a *App) buildSchedule() map[string]schedule.Entry {
	return schedule.Build(schedule.Options{
		Assets:           a.Config.Scheduler.Assets,
		FetchEvery:       a.Config.Scheduler.FetchInterval(),
		RetentionEvery:   a.Config.Retention.Interval(),
		RetentionEnabled: a.Config.Retention.Days > 0,
	})
}

// Run executes the long-running worker plus HTTP server.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	m := metrics.New()

	svc, closeDeps, err := a.newService(ctx, m)
	if err != nil {
		return err
	}
	defer closeDeps()

	run := runner.New(m, a.Logger)
	svc.RegisterHandlers(run)

	if a.Config.Scheduler.Enabled {
		lazy := schedule.NewLazy(a.buildSchedule)
		if err := run.Apply(lazy.Get()); err != nil {
			return err
		}
		run.Start()
		defer run.Stop()
		a.Logger.Info().Int("jobs", len(lazy.Get())).Msg("periodic schedule started")
	} else {
		a.Logger.Info().Msg("periodic schedule disabled; serving queries only")
	}

	server := api.NewServer(api.Options{
		Listen:          a.Config.Server.Listen,
		MetricsEndpoint: a.Config.Server.MetricsEndpoint,
	}, svc, m, a.Logger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			a.Logger.Error().Err(err).Msg("http server terminated")
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Warn().Err(err).Msg("http server shutdown incomplete")
	}

	a.Logger.Info().Msg("telemetry board stopped")
	return nil
}

// Task executes one registered task immediately, outside the schedule.
func (a *App) Task(ctx context.Context, task string, args []string) error {
	m := metrics.New()

	svc, closeDeps, err := a.newService(ctx, m)
	if err != nil {
		return err
	}
	defer closeDeps()

	run := runner.New(m, a.Logger)
	svc.RegisterHandlers(run)

	return run.RunNow(ctx, task, args...)
}
