// Package app composes a chatr process with fx: configuration, logging,
// the credentials store, the backend client and the chat service.
package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/matheus3301/chatr/internal/bus"
	"github.com/matheus3301/chatr/internal/chat"
	"github.com/matheus3301/chatr/internal/config"
	"github.com/matheus3301/chatr/internal/gateway"
	"github.com/matheus3301/chatr/internal/lock"
	"github.com/matheus3301/chatr/internal/logging"
	"github.com/matheus3301/chatr/internal/metrics"
	"github.com/matheus3301/chatr/internal/session"
	"github.com/matheus3301/chatr/internal/store"
)

// Params holds the resolved profile settings passed to the fx module.
type Params struct {
	Profile string
	// Lock takes the profile lock for the life of the app. The TUI holds
	// it; one-shot CLI commands do not.
	Lock bool
	// Stderr mirrors the log on stderr.
	Stderr bool
	// BaseURL overrides base_url from config.toml when set.
	BaseURL string
	// ConfigPath overrides the global config location; empty = default.
	ConfigPath string
}

// Options returns the module plus an fx logger that writes through zap, so
// fx never prints to a terminal the TUI owns.
func Options(p Params) fx.Option {
	return fx.Options(
		Module(p),
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
	)
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("chatr",
		fx.Supply(p),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideBus,
			provideMetrics,
			provideLock,
			provideStore,
			provideGateway,
			provideService,
			NewMetricsServer,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideConfig(p Params) (*config.Config, error) {
	path := p.ConfigPath
	if path == "" {
		path = session.ConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return nil, err
	}
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}
	return cfg, nil
}

func provideLogger(p Params, cfg *config.Config) (*zap.Logger, error) {
	if err := session.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	return logging.New(session.LogPath(p.Profile), p.Profile, logging.Options{
		Level:  cfg.LogLevel,
		Stderr: p.Stderr,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideMetrics() *metrics.Metrics {
	return metrics.New()
}

// provideLock returns a nil lock when the caller does not hold one.
func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if !p.Lock {
		return nil, nil
	}
	logger.Info("acquiring profile lock", zap.String("profile", p.Profile))
	l, err := lock.Acquire(session.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired")
	return l, nil
}

func provideStore(p Params, logger *zap.Logger) (*store.DB, error) {
	dbPath := session.DBPath(p.Profile)
	db, result, err := store.OpenMigrated(dbPath)
	if err != nil {
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Debug("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideGateway(cfg *config.Config, m *metrics.Metrics, logger *zap.Logger) *gateway.Client {
	return gateway.New(cfg.BaseURL,
		gateway.WithTimeout(cfg.Timeout()),
		gateway.WithLogger(logger.Named("gateway")),
		gateway.WithObserver(m.ObserveRequest),
	)
}

func provideService(cfg *config.Config, client *gateway.Client, db *store.DB, b *bus.Bus, m *metrics.Metrics, logger *zap.Logger) *chat.Service {
	return chat.NewService(client, db, cfg.BaseURL, chat.Settings{
		PageSize:  cfg.PageSize,
		Debounce:  cfg.Debounce(),
		Reconcile: cfg.Reconcile(),
	}, b, m, logger)
}

func registerLifecycle(lc fx.Lifecycle, srv *MetricsServer, lk *lock.Lock, db *store.DB, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			srv.Stop(ctx)
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if lk != nil {
				if err := lk.Release(); err != nil {
					logger.Warn("error releasing lock", zap.Error(err))
				}
			}
			logger.Info("chatr stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
