package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pump-alerts/internal/alerting"
	"pump-alerts/internal/config"
	"pump-alerts/internal/donation"
	"pump-alerts/internal/fetcher"
	"pump-alerts/internal/metrics"
	"pump-alerts/internal/model"
	"pump-alerts/internal/pricestore"
	"pump-alerts/internal/scheduler"
	"pump-alerts/internal/service"
	"pump-alerts/internal/storage"
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

func (a *App) newFetcher() fetcher.TickerFetcher {
	ex := a.Config.Exchange
	return fetcher.NewKuCoin(fetcher.KuCoinOptions{
		BaseURL: ex.BaseURL,
		Credentials: fetcher.Credentials{
			APIKey:     ex.APIKey,
			APISecret:  ex.APISecret,
			Passphrase: ex.APIPassphrase,
		},
		Timeout:   ex.RequestTimeout,
		UserAgent: ex.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.Timeout, a.Logger)
	}
	return alerting.NewLogNotifier(a.Logger)
}

func (a *App) newDispatcher(m *metrics.Metrics) *alerting.Dispatcher {
	opts := alerting.DispatcherOptions{
		QueueSize:    a.Config.Alerting.QueueSize,
		SendInterval: a.Config.Alerting.SendInterval,
	}
	if m != nil {
		opts.Observer = m
	}
	return alerting.NewDispatcher(a.newNotifier(), opts, a.Logger)
}

func (a *App) openStore(ctx context.Context) (storage.Backend, func(), error) {
	backend, err := storage.Open(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}
	if backend == nil {
		return nil, nil, nil
	}
	return backend, backend.Close, nil
}

func (a *App) openMirror(ctx context.Context) (*pricestore.RedisMirror, error) {
	cfg := a.Config.Redis
	if cfg.Addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return pricestore.NewRedisMirror(rdb, cfg.KeyPrefix, a.Config.Monitor.HistorySize), nil
}

// Run executes the long-running monitoring service together with the alert
// dispatcher, the donation schedule and the optional metrics endpoint.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.driver not configured; signal audit disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	deps := service.Deps{Fetcher: a.newFetcher()}
	if store != nil {
		deps.Store = store
	}

	mirror, err := a.openMirror(ctx)
	if err != nil {
		return err
	}
	if mirror != nil {
		defer mirror.Close()
		deps.Mirror = mirror
	}

	var m *metrics.Metrics
	if a.Config.Metrics.Enabled {
		m = metrics.New()
		deps.Metrics = m
	}

	dispatcher := a.newDispatcher(m)
	if a.Config.Alerting.Enabled {
		deps.Outbox = dispatcher
	} else {
		a.Logger.Warn().Msg("alerting disabled; signals are logged only")
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)
	svc := service.New(a.Config, sched, deps, a.Logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return dispatcher.Run(gctx) })

	if a.Config.Donation.Enabled && a.Config.Alerting.Enabled {
		job := donation.NewJob(dispatcher, a.Config.Donation.Message, a.Logger)
		runner := scheduler.NewCron(a.Logger)
		if err := runner.Register("donation", a.Config.Donation.Schedule, job.Fire); err != nil {
			return err
		}
		if a.Config.Donation.RunOnStart {
			g.Go(func() error {
				job.Fire(gctx)
				return nil
			})
		}
		g.Go(func() error { return runner.Run(gctx) })
	}

	if m != nil {
		g.Go(func() error {
			return m.Serve(gctx, a.Config.Metrics.ListenAddr, a.Config.Metrics.Path, a.Logger)
		})
	}

	g.Go(func() error {
		a.Logger.Info().Msg("starting monitoring service")
		return svc.Run(gctx)
	})

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("monitoring service stopped")
	return nil
}

// ExportOptions hold parameters for exporting recorded signals.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command. Pair and Side narrow the rows
// taken from the latest Limit signals.
type ShowOptions struct {
	Limit int
	Pair  string
	Side  model.Side
}
