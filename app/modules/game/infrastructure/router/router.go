package gamerouter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/blotto-league/blotto-bot/app/eventbus"
	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
	gamehandlers "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/handlers"
)

// GameRouter wires the game module's handlers onto the event bus through a
// watermill router with retry, recovery and prometheus metrics.
type GameRouter struct {
	logger *slog.Logger
	Router *message.Router
	bus    eventbus.EventBus
}

// NewGameRouter builds the router and its middleware chain. A nil registry
// disables metrics; tests pass nil.
func NewGameRouter(logger *slog.Logger, bus eventbus.EventBus, registry *prometheus.Registry) (*GameRouter, error) {
	watermillLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{}, watermillLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Retry{
			MaxRetries:      3,
			InitialInterval: time.Second,
			Logger:          watermillLogger,
		}.Middleware,
		middleware.Recoverer,
	)

	if registry != nil {
		metricsBuilder := metrics.NewPrometheusMetricsBuilder(registry, "blotto", "game")
		metricsBuilder.AddPrometheusRouterMetrics(router)
	}

	return &GameRouter{
		logger: logger,
		Router: router,
		bus:    bus,
	}, nil
}

// Configure registers every inbound topic against its handler.
func (r *GameRouter) Configure(_ context.Context, handlers gamehandlers.Handlers) error {
	subscriber := r.bus.Subscriber()

	register := func(topic string, handler message.NoPublishHandlerFunc) {
		r.Router.AddNoPublisherHandler(topic, topic, subscriber, handler)
	}

	register(gameevents.TopicCreateGameRequest, handlers.HandleCreateGameRequest)
	register(gameevents.TopicGameAnnounced, handlers.HandleGameAnnounced)
	register(gameevents.TopicSignupRequest, handlers.HandleSignupRequest)
	register(gameevents.TopicWithdrawRequest, handlers.HandleWithdrawRequest)
	register(gameevents.TopicSubmissionRequest, handlers.HandleSubmissionRequest)
	register(gameevents.TopicCancelRequest, handlers.HandleCancelGameRequest)
	register(gameevents.TopicGameStart, handlers.HandleGameStart)
	register(gameevents.TopicRoundEnd, handlers.HandleRoundEnd)

	return nil
}

// Run blocks until the context is canceled.
func (r *GameRouter) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "Game router starting")
	return r.Router.Run(ctx)
}

func (r *GameRouter) Close() error {
	return r.Router.Close()
}
