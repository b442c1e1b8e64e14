package gamequeue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/uptrace/bun"

	"github.com/blotto-league/blotto-bot/app/eventbus"
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// gameQueue is the dedicated River queue for lifecycle triggers.
const gameQueue = "game"

// QueueService schedules the delayed lifecycle triggers. Scheduling the same
// trigger twice collapses into one job via argument uniqueness.
type QueueService interface {
	ScheduleGameStart(ctx context.Context, gameID gametypes.GameID, at time.Time) error
	ScheduleRoundEnd(ctx context.Context, gameID gametypes.GameID, roundNumber int, at time.Time) error
	// CancelGameJobs cancels every pending trigger for a game.
	CancelGameJobs(ctx context.Context, gameID gametypes.GameID) error
	// HealthCheck verifies queue-table connectivity, for the health endpoint.
	HealthCheck(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service runs lifecycle triggers on River over Postgres.
type Service struct {
	client *river.Client[pgx.Tx]
	pool   *pgxpool.Pool
	db     *bun.DB
	logger *slog.Logger
}

// NewService builds the River client with the trigger workers registered.
// River needs its own pgx pool; bun's database/sql connection is only used
// for job-table queries.
func NewService(ctx context.Context, bunDB *bun.DB, logger *slog.Logger, dsn string, eventBus eventbus.EventBus) (*Service, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewGameStartWorker(logger, eventBus))
	river.AddWorker(workers, NewRoundEndWorker(logger, eventBus))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
			gameQueue:          {MaxWorkers: 10},
		},
		Workers: workers,
	})
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	logger.InfoContext(ctx, "Game queue service initialized")
	return &Service{
		client: riverClient,
		pool:   pool,
		db:     bunDB,
		logger: logger,
	}, nil
}

// Start begins working scheduled jobs.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Game queue service started")
	return nil
}

// Stop drains in-flight jobs and closes the pool.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.pool.Close()
	s.logger.InfoContext(ctx, "Game queue service stopped")
	return nil
}

// ScheduleGameStart schedules the signup-close trigger for a game.
func (s *Service) ScheduleGameStart(ctx context.Context, gameID gametypes.GameID, at time.Time) error {
	job := GameStartJob{GameID: gameID}
	result, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue:       gameQueue,
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to schedule game start for game %d: %w", gameID, err)
	}

	s.logger.InfoContext(ctx, "Game start trigger scheduled",
		slog.Int64("game_id", int64(gameID)),
		slog.Time("scheduled_at", at),
		slog.Int64("job_id", result.Job.ID),
		slog.Bool("duplicate", result.UniqueSkippedAsDuplicate),
	)
	return nil
}

// ScheduleRoundEnd schedules a round's submission-close trigger.
func (s *Service) ScheduleRoundEnd(ctx context.Context, gameID gametypes.GameID, roundNumber int, at time.Time) error {
	job := RoundEndJob{GameID: gameID, RoundNumber: roundNumber}
	result, err := s.client.Insert(ctx, job, &river.InsertOpts{
		Queue:       gameQueue,
		ScheduledAt: at,
		UniqueOpts: river.UniqueOpts{
			ByArgs: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to schedule round end for game %d round %d: %w", gameID, roundNumber, err)
	}

	s.logger.InfoContext(ctx, "Round end trigger scheduled",
		slog.Int64("game_id", int64(gameID)),
		slog.Int("round_number", roundNumber),
		slog.Time("scheduled_at", at),
		slog.Int64("job_id", result.Job.ID),
		slog.Bool("duplicate", result.UniqueSkippedAsDuplicate),
	)
	return nil
}

// CancelGameJobs cancels every pending trigger for a game. Best effort: a
// trigger that slips past cancellation is ignored by the canceled-flag check
// in its handler.
func (s *Service) CancelGameJobs(ctx context.Context, gameID gametypes.GameID) error {
	type riverJobRow struct {
		ID   int64  `bun:"id"`
		Kind string `bun:"kind"`
	}

	var jobs []riverJobRow
	err := s.db.NewSelect().
		Table("river_job").
		Column("id", "kind").
		Where("kind IN (?, ?)", "game_start", "round_end").
		Where("state IN (?, ?)", "available", "scheduled").
		Where("(args->>'game_id')::bigint = ?", int64(gameID)).
		Scan(ctx, &jobs)
	if err != nil {
		return fmt.Errorf("failed to query jobs for cancellation: %w", err)
	}

	canceled := 0
	for _, job := range jobs {
		if _, err := s.client.JobCancel(ctx, job.ID); err != nil {
			s.logger.WarnContext(ctx, "Failed to cancel job",
				slog.Int64("job_id", job.ID),
				slog.String("job_kind", job.Kind),
				slog.Any("error", err),
			)
			continue
		}
		canceled++
	}

	s.logger.InfoContext(ctx, "Pending triggers canceled",
		slog.Int64("game_id", int64(gameID)),
		slog.Int("found", len(jobs)),
		slog.Int("canceled", canceled),
	)
	return nil
}

// HealthCheck verifies queue-table connectivity.
func (s *Service) HealthCheck(ctx context.Context) error {
	var count int
	err := s.db.NewSelect().
		Table("river_job").
		ColumnExpr("COUNT(*)").
		Scan(ctx, &count)
	if err != nil {
		return fmt.Errorf("queue health check failed: %w", err)
	}
	return nil
}
