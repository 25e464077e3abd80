package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"MarketPulse/internal/domain/repository"
	mid "MarketPulse/internal/middleware"
	"MarketPulse/internal/service/cache"
	"MarketPulse/internal/service/universe"
	"MarketPulse/internal/usecase"
	"MarketPulse/pkg/config"
	xhttp "MarketPulse/pkg/http"
	applogger "MarketPulse/pkg/logger"
)

// App encapsulates the entire application lifecycle: the update pipeline, the
// scheduled cache maintenance, the HTTP server, and graceful teardown of the
// storage backends.
type App struct {
	cfg      *config.Config
	logger   *applogger.Logger
	pipeline *mid.UpdatePipeline
	universe *universe.Service
	records  *cache.RecordCache
	scorer   *usecase.HotScorer
	sink     repository.DeltaSink
	store    repository.RecordStore
	handler  xhttp.Handler

	httpServer *xhttp.Server
	cron       *cron.Cron
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	pipeline *mid.UpdatePipeline,
	uni *universe.Service,
	records *cache.RecordCache,
	scorer *usecase.HotScorer,
	sink repository.DeltaSink,
	store repository.RecordStore,
	handler xhttp.Handler,
) *App {
	return &App{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline,
		universe: uni,
		records:  records,
		scorer:   scorer,
		sink:     sink,
		store:    store,
		handler:  handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.pipeline.Start(ctx)
	a.logger.Info("update pipeline started")

	if err := a.startCron(ctx); err != nil {
		return err
	}

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// startCron schedules cache sweeps and universe warming. Empty cron specs
// disable the corresponding job.
func (a *App) startCron(ctx context.Context) error {
	a.cron = cron.New()

	if spec := a.cfg.Cache.SweepCron; spec != "" {
		if _, err := a.cron.AddFunc(spec, func() {
			evicted := a.records.EvictStale() + a.scorer.EvictStale()
			if evicted > 0 {
				a.logger.Debug("cache sweep", applogger.Int("evicted", evicted))
			}
		}); err != nil {
			return err
		}
	}

	if spec := a.cfg.Universe.WarmCron; spec != "" {
		if _, err := a.cron.AddFunc(spec, func() {
			warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
			defer cancel()
			if err := a.universe.Warm(warmCtx); err != nil {
				a.logger.Warn("universe warm failed", applogger.Error(err))
			}
		}); err != nil {
			return err
		}
	}

	a.cron.Start()
	return nil
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	if a.cron != nil {
		cronCtx := a.cron.Stop()
		<-cronCtx.Done()
	}

	a.pipeline.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.sink != nil {
		if err := a.sink.Close(); err != nil {
			a.logger.Warn("delta sink close error", applogger.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("record store close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
