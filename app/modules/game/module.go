package game

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/uptrace/bun"

	"github.com/blotto-league/blotto-bot/app/eventbus"
	gameservice "github.com/blotto-league/blotto-bot/app/modules/game/application"
	gamerules "github.com/blotto-league/blotto-bot/app/modules/game/domain/rules"
	gameadapters "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/adapters"
	gamehandlers "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/handlers"
	gamequeue "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/queue"
	gamedb "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/repositories"
	gamerouter "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/router"
	"github.com/blotto-league/blotto-bot/config"
)

// Module assembles the game engine: service, trigger queue, message router.
type Module struct {
	EventBus     eventbus.EventBus
	GameService  gameservice.Service
	QueueService gamequeue.QueueService
	GameRouter   *gamerouter.GameRouter
	logger       *slog.Logger
}

// NewGameModule wires the game module together. The queue service shares the
// bun connection for job-table queries but drives its own pgx pool.
func NewGameModule(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	gameDB gamedb.GameDB,
	bunDB *bun.DB,
	eventBus eventbus.EventBus,
	registry *prometheus.Registry,
) (*Module, error) {
	queueService, err := gamequeue.NewService(ctx, bunDB, logger, cfg.Postgres.DSN, eventBus)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue service: %w", err)
	}

	notifier := gameadapters.NewEventBusNotifier(eventBus)
	service := gameservice.NewGameService(gameDB, gamerules.NewRegistry(), notifier, queueService, logger)
	handlers := gamehandlers.NewGameHandlers(service, notifier, logger)

	router, err := gamerouter.NewGameRouter(logger, eventBus, registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create game router: %w", err)
	}
	if err := router.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure game router: %w", err)
	}

	return &Module{
		EventBus:     eventBus,
		GameService:  service,
		QueueService: queueService,
		GameRouter:   router,
		logger:       logger,
	}, nil
}

// Run starts the trigger queue and blocks in the router until the context is
// canceled.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	if err := m.QueueService.Start(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to start queue service", slog.Any("error", err))
		return
	}

	if err := m.GameRouter.Run(ctx); err != nil && ctx.Err() == nil {
		m.logger.ErrorContext(ctx, "Game router stopped", slog.Any("error", err))
	}
}

// Close stops the queue and router.
func (m *Module) Close(ctx context.Context) error {
	if err := m.QueueService.Stop(ctx); err != nil {
		m.logger.ErrorContext(ctx, "Failed to stop queue service", slog.Any("error", err))
	}
	return m.GameRouter.Close()
}
