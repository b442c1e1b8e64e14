package gameservice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// CreateGameParams carries the admin's new-game form inputs.
type CreateGameParams struct {
	Admin       gametypes.UserID
	NumRounds   int
	RoundLength time.Duration
	SignupClose time.Time
	ChannelID   string
}

// CreateGame allocates the game and every round atomically. Round rules,
// field counts and soldier budgets are drawn here, exactly once; everything
// downstream reconstructs rules from the stored configuration.
func (s *GameService) CreateGame(ctx context.Context, params CreateGameParams) (*gametypes.Game, error) {
	if params.NumRounds < 1 {
		return nil, &ValidationErrors{General: "a game needs at least one round"}
	}
	if params.RoundLength <= 0 {
		return nil, &ValidationErrors{General: "round length must be positive"}
	}
	if !params.SignupClose.After(s.now()) {
		return nil, &ValidationErrors{General: "signup close must be in the future"}
	}

	game := &gametypes.Game{
		Admin:       params.Admin,
		Start:       params.SignupClose,
		End:         params.SignupClose.Add(params.RoundLength * time.Duration(params.NumRounds)),
		NumRounds:   params.NumRounds,
		RoundLength: params.RoundLength,
		State:       gametypes.GameStateForming,
	}

	rounds := make([]gametypes.GameRound, params.NumRounds)
	for i := range rounds {
		factory := s.registry.PickRandom(s.rng)
		fields, soldiers := factory.Generate(s.rng)
		start := params.SignupClose.Add(params.RoundLength * time.Duration(i))
		rounds[i] = gametypes.GameRound{
			Number:   i + 1,
			RuleID:   factory.ID,
			Start:    start,
			End:      start.Add(params.RoundLength),
			Fields:   fields,
			Soldiers: soldiers,
		}
	}

	if err := s.GameDB.CreateGameWithRounds(ctx, game, rounds); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	s.logger.InfoContext(ctx, "Game created",
		slog.Int64("game_id", int64(game.ID)),
		slog.String("admin", string(game.Admin)),
		slog.Int("num_rounds", game.NumRounds),
	)

	// Store first, then announce: the announcement is retryable, the game
	// row is already safe.
	text := newGameAnnouncement(params.Admin, game.ID, params.NumRounds, params.RoundLength, params.SignupClose)
	meta := &gameevents.TriggerMetadata{
		EventType:    gameevents.EventGameAnnounced,
		EventPayload: gameevents.TriggerPayload{GameID: game.ID, ChannelID: params.ChannelID},
	}
	if err := s.notifier.PostChannel(ctx, params.ChannelID, text, meta); err != nil {
		s.logger.ErrorContext(ctx, "Failed to post game announcement",
			slog.Int64("game_id", int64(game.ID)),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to announce game %d: %w", game.ID, err)
	}

	return game, nil
}

// RecordAnnouncement runs when the gateway acknowledges the announcement
// post. It stores the message reference, schedules the signup-close trigger,
// and moves the game to ANNOUNCED. Redeliveries are safe: scheduling
// collapses duplicates and the state flip is conditional.
func (s *GameService) RecordAnnouncement(ctx context.Context, gameID gametypes.GameID, channelID, messageRef string) error {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Canceled {
		s.logger.InfoContext(ctx, "Announcement ack for canceled game, ignoring",
			slog.Int64("game_id", int64(gameID)))
		return nil
	}

	if err := s.GameDB.SetAnnouncement(ctx, gameID, channelID, messageRef); err != nil {
		return fmt.Errorf("failed to record announcement for game %d: %w", gameID, err)
	}
	if err := s.scheduler.ScheduleGameStart(ctx, gameID, game.Start); err != nil {
		return fmt.Errorf("failed to schedule game start for game %d: %w", gameID, err)
	}

	moved, err := s.GameDB.UpdateGameState(ctx, gameID, gametypes.GameStateForming, gametypes.GameStateAnnounced)
	if err != nil {
		return fmt.Errorf("failed to mark game %d announced: %w", gameID, err)
	}
	if !moved {
		s.logger.InfoContext(ctx, "Game already announced, ignoring duplicate ack",
			slog.Int64("game_id", int64(gameID)))
	}
	return nil
}
