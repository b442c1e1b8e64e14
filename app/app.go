package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/blotto-league/blotto-bot/app/eventbus"
	"github.com/blotto-league/blotto-bot/app/modules/game"
	"github.com/blotto-league/blotto-bot/config"
	"github.com/blotto-league/blotto-bot/db/bundb"
)

// App owns the process-wide resources and the game module.
type App struct {
	Config     *config.Config
	DBService  *bundb.DBService
	EventBus   eventbus.EventBus
	GameModule *game.Module

	registry      *prometheus.Registry
	metricsServer *http.Server
	logger        *slog.Logger
}

// NewApp connects storage and messaging and wires up the game module.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	dbService, err := bundb.NewBunDBService(ctx, cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	bus, err := eventbus.NewEventBus(ctx, cfg.NATS.URL, logger)
	if err != nil {
		dbService.Close()
		return nil, fmt.Errorf("failed to initialize event bus: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gameModule, err := game.NewGameModule(ctx, cfg, logger, dbService.GameDB, dbService.GetDB(), bus, registry)
	if err != nil {
		bus.Close()
		dbService.Close()
		return nil, fmt.Errorf("failed to initialize game module: %w", err)
	}

	return &App{
		Config:     cfg,
		DBService:  dbService,
		EventBus:   bus,
		GameModule: gameModule,
		registry:   registry,
		logger:     logger,
	}, nil
}

// Run starts the metrics/health endpoint and the game module, then blocks
// until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	if addr := a.Config.Observability.MetricsAddress; addr != "" {
		a.startMetricsServer(addr)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go a.GameModule.Run(ctx, &wg)

	<-ctx.Done()
	a.logger.Info("Shutdown signal received")
	wg.Wait()
	return nil
}

func (a *App) startMetricsServer(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", a.handleHealthz)

	a.metricsServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("Metrics server listening", slog.String("address", addr))
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("Metrics server failed", slog.Any("error", err))
		}
	}()
}

// handleHealthz reports readiness: the trigger queue must reach its job
// table, which also proves database connectivity.
func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := a.GameModule.QueueService.HealthCheck(ctx); err != nil {
		a.logger.Error("Health check failed", slog.Any("error", err))
		http.Error(w, "unhealthy", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Close releases everything in reverse construction order.
func (a *App) Close(ctx context.Context) error {
	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Failed to shut down metrics server", slog.Any("error", err))
		}
	}

	if err := a.GameModule.Close(ctx); err != nil {
		a.logger.Error("Failed to close game module", slog.Any("error", err))
	}
	if err := a.EventBus.Close(); err != nil {
		a.logger.Error("Failed to close event bus", slog.Any("error", err))
	}
	if err := a.DBService.Close(); err != nil {
		a.logger.Error("Failed to close database", slog.Any("error", err))
	}
	return nil
}
