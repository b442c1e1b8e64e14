package gamequeue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/blotto-league/blotto-bot/app/eventbus"
	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
)

// GameStartWorker republishes a due game-start trigger onto the event bus.
// Publishing can be retried freely: the subscribed handler is idempotent.
type GameStartWorker struct {
	river.WorkerDefaults[GameStartJob]
	logger   *slog.Logger
	eventBus eventbus.EventBus
}

// NewGameStartWorker creates a GameStartWorker.
func NewGameStartWorker(logger *slog.Logger, eventBus eventbus.EventBus) *GameStartWorker {
	return &GameStartWorker{logger: logger, eventBus: eventBus}
}

func (w *GameStartWorker) Work(ctx context.Context, job *river.Job[GameStartJob]) error {
	w.logger.InfoContext(ctx, "Game start trigger due",
		slog.Int64("game_id", int64(job.Args.GameID)),
		slog.Int64("job_id", job.ID),
	)

	payload := gameevents.GameStartPayload{GameID: job.Args.GameID}
	if err := w.eventBus.PublishJSON(ctx, gameevents.TopicGameStart, payload); err != nil {
		return fmt.Errorf("failed to publish game start trigger for game %d: %w", job.Args.GameID, err)
	}
	return nil
}

// RoundEndWorker republishes a due round-end trigger onto the event bus.
type RoundEndWorker struct {
	river.WorkerDefaults[RoundEndJob]
	logger   *slog.Logger
	eventBus eventbus.EventBus
}

// NewRoundEndWorker creates a RoundEndWorker.
func NewRoundEndWorker(logger *slog.Logger, eventBus eventbus.EventBus) *RoundEndWorker {
	return &RoundEndWorker{logger: logger, eventBus: eventBus}
}

func (w *RoundEndWorker) Work(ctx context.Context, job *river.Job[RoundEndJob]) error {
	w.logger.InfoContext(ctx, "Round end trigger due",
		slog.Int64("game_id", int64(job.Args.GameID)),
		slog.Int("round_number", job.Args.RoundNumber),
		slog.Int64("job_id", job.ID),
	)

	payload := gameevents.RoundEndPayload{
		GameID:      job.Args.GameID,
		RoundNumber: job.Args.RoundNumber,
	}
	if err := w.eventBus.PublishJSON(ctx, gameevents.TopicRoundEnd, payload); err != nil {
		return fmt.Errorf("failed to publish round end trigger for game %d round %d: %w",
			job.Args.GameID, job.Args.RoundNumber, err)
	}
	return nil
}
