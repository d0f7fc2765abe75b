package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"fx-rate-alerts/internal/alerting"
	"fx-rate-alerts/internal/config"
	"fx-rate-alerts/internal/fetcher"
	"fx-rate-alerts/internal/scheduler"
	"fx-rate-alerts/internal/service"
	"fx-rate-alerts/internal/storage"
	"fx-rate-alerts/internal/version"
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

// openKV wires the configured persistence backend. The memory backend keeps
// everything process-local and is meant for trials and tests.
func (a *App) openKV(ctx context.Context) (storage.KV, func(), error) {
	switch a.Config.Storage.Backend {
	case "memory":
		a.Logger.Warn().Msg("storage.backend is memory; data is lost on exit")
		return storage.NewMemory(), func() {}, nil

	case "redis":
		kv, err := storage.NewRedis(ctx, a.Config.Storage.Redis)
		if err != nil {
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil

	case "postgres":
		pool, err := storage.NewPool(ctx, a.Config.Storage.Postgres)
		if err != nil {
			return nil, nil, err
		}
		kv := storage.NewPostgres(pool)
		if err := kv.Init(ctx); err != nil {
			_ = kv.Close()
			return nil, nil, err
		}
		return kv, func() { _ = kv.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", a.Config.Storage.Backend)
	}
}

func (a *App) newStores(kv storage.KV) service.Stores {
	return service.Stores{
		Alerts:       storage.NewAlertStore(kv, a.Config.Monitor.MaxAlerts),
		RateHistory:  storage.NewRateHistoryStore(kv, a.Config.Monitor.RateHistoryLimit),
		AlertHistory: storage.NewAlertHistoryStore(kv, a.Config.Monitor.AlertHistoryLimit),
		Settings:     storage.NewSettingsStore(kv),
		Trends:       storage.NewTrendStore(kv),
	}
}

func (a *App) newSource() fetcher.RateSource {
	if a.Config.Source.Provider == "chainlink" {
		return fetcher.NewChainlink(fetcher.ChainlinkOptions{
			RPCURL:  a.Config.Source.Chainlink.RPCURL,
			Feeds:   a.Config.Source.Chainlink.Feeds,
			Timeout: a.Config.Source.Chainlink.RequestTimeout,
		}, a.Logger)
	}

	return fetcher.NewHTTPSource(fetcher.HTTPOptions{
		BaseURL:   a.Config.Source.HTTP.BaseURL,
		APIKey:    a.Config.Source.HTTP.APIKey,
		Timeout:   a.Config.Source.HTTP.RequestTimeout,
		UserAgent: a.Config.Source.HTTP.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger)
}

// newService builds a short-lived service handle for CLI commands. The
// returned closer releases the storage backend.
func (a *App) newService(ctx context.Context) (*service.Service, func(), error) {
	kv, closeKV, err := a.openKV(ctx)
	if err != nil {
		return nil, nil, err
	}
	svc := service.New(a.Config, nil, a.newSource(), a.newStores(kv), a.newNotifier(), a.Logger)
	return svc, closeKV, nil
}

// Run executes the long-running monitoring service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kv, closeKV, err := a.openKV(ctx)
	if err != nil {
		return err
	}
	defer closeKV()

	// only one monitor may run against a shared database
	if pg, ok := kv.(*storage.Postgres); ok {
		release, acquired, err := pg.TryInstanceLock(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			return errors.New("another monitor instance holds the lock; refusing to start")
		}
		defer release()
	}

	sched := scheduler.New(scheduler.Options{
		StartupDelay: a.Config.Monitor.StartupDelay,
	}, a.Logger)

	svc := service.New(a.Config, sched, a.newSource(), a.newStores(kv), a.newNotifier(), a.Logger)

	a.Logger.Info().
		Str("build", version.String()).
		Str("backend", a.Config.Storage.Backend).
		Str("source", a.Config.Source.Provider).
		Msg("starting monitoring service")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting rate history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	Pair      string
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	From  string
	To    string
	Limit int
}
