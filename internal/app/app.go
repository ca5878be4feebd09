package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/specforge-backend/internal/clients/redis"
	"github.com/yungbote/specforge-backend/internal/config"
	"github.com/yungbote/specforge-backend/internal/data/db"
	httpapi "github.com/yungbote/specforge-backend/internal/http"
	"github.com/yungbote/specforge-backend/internal/observability"
	"github.com/yungbote/specforge-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	DB       *db.Service
	Clients  Clients
	Repos    Repos
	Services Services

	server       *http.Server
	otelShutdown func(context.Context) error
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	otelShutdown := observability.InitTracing(ctx, log, cfg)

	log.Info("Opening prompt store...", "driver", cfg.Database.Driver)
	store, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	reposet := wireRepos(store.DB(), log)
	if cfg.Database.SeedOnStart {
		if err := seedPrompts(ctx, log, store.DB(), reposet, cfg.Database.SeedFile); err != nil {
			clients.Close()
			_ = store.Close()
			return nil, err
		}
	}

	serviceset, err := wireServices(log, cfg, reposet)
	if err != nil {
		clients.Close()
		_ = store.Close()
		return nil, err
	}

	handlerset := wireHandlers(log, cfg, serviceset, reposet, clients)
	middleware, err := wireMiddleware(log, cfg, clients)
	if err != nil {
		clients.Close()
		_ = store.Close()
		return nil, err
	}
	router := wireRouter(log, cfg, handlerset, middleware)

	return &App{
		Log:          log,
		Cfg:          cfg,
		DB:           store,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		server:       httpapi.NewServer(cfg.HTTP, router),
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and, with Redis configured, applies cache invalidations from other replicas.
// It returns when ctx is cancelled or either loop fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("HTTP server listening", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if a.Clients.InvalidationBus != nil {
		g.Go(func() error {
			return a.Clients.InvalidationBus.StartForwarder(gctx, func(m redis.InvalidationMessage) {
				a.Services.PromptCache.Clear()
				a.Log.Info("prompt cache cleared by peer", "origin", m.Origin, "reason", m.Reason)
			})
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		a.Log.Info("Shutting down HTTP server...")
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Log.Warn("close database", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
	}
	a.Log.Sync()
}
