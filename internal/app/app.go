package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/hermes-backend/internal/config"
	"github.com/yungbote/hermes-backend/internal/data/db"
	"github.com/yungbote/hermes-backend/internal/http"
	"github.com/yungbote/hermes-backend/internal/observability"
	"github.com/yungbote/hermes-backend/internal/platform/logger"
)

// Base is the part of the app every command needs: config, logger and a
// migrated database.
type Base struct {
	Log *logger.Logger
	Cfg *config.Config
	DB  *gorm.DB

	pg *db.PostgresService
}

func NewBase(ctx context.Context) (*Base, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.NewWithOptions(logger.Options{
		Mode:     cfg.Log.Mode,
		Level:    cfg.Log.Level,
		Redact:   cfg.Log.Redact,
		HashSalt: cfg.Log.HashSalt,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pg, err := db.NewPostgresService(cfg.Database, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := pg.AutoMigrateAll(ctx); err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	return &Base{Log: log, Cfg: cfg, DB: pg.DB(), pg: pg}, nil
}

func (b *Base) Close() {
	if b == nil {
		return
	}
	if b.pg != nil {
		if err := b.pg.Close(); err != nil {
			b.Log.Warn("Closing postgres failed", "error", err)
		}
	}
	b.Log.Sync()
}

type App struct {
	*Base
	Repos    Repos
	Clients  Clients
	Services Services
	Server   *http.Server
	Metrics  *observability.Metrics

	otelShutdown func(context.Context) error
}

func New(ctx context.Context, version string) (*App, error) {
	base, err := NewBase(ctx)
	if err != nil {
		return nil, err
	}
	cfg := base.Cfg
	log := base.Log

	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel, version)
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.Init()
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		base.Close()
		return nil, err
	}
	reposet := wireRepos(base.DB, log)
	serviceset, err := wireServices(base.DB, log, cfg, reposet, clients)
	if err != nil {
		clients.Close()
		base.Close()
		return nil, err
	}

	handlerset := wireHandlers(log, serviceset)
	middleware := wireMiddleware(log, serviceset)
	server := http.NewServer(log, cfg.Server, wireRouterConfig(log, cfg, handlerset, middleware, metrics))

	return &App{
		Base:         base,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Server:       server,
		Metrics:      metrics,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and runs the job worker until ctx is canceled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)

	if a.Services.JobWorker != nil {
		a.Services.JobWorker.Start(gctx)
		g.Go(func() error {
			a.Services.JobWorker.Wait()
			return nil
		})
	}
	a.Metrics.StartJobQueueCollector(gctx, a.Log, a.DB, a.Cfg.Metrics.QueueInterval)

	g.Go(func() error {
		return a.Server.Run(gctx)
	})
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		timeout := a.Cfg.Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	a.Base.Close()
}
