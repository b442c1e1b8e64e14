package gameservice

import (
	"context"
	"fmt"
	"log/slog"

	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// minParticipants is the floor below which a game is auto-canceled at
// signup close.
const minParticipants = 2

// ProcessGameStart handles the signup-close trigger. The handler tolerates
// redelivery: state is re-read at the top and the ANNOUNCED -> IN_PROGRESS
// flip is conditional, so a second delivery finds nothing to do. Round 1's
// end trigger is scheduled before the flip commits; a failed insert leaves
// the game ANNOUNCED, and the redelivered trigger runs the whole step again.
func (s *GameService) ProcessGameStart(ctx context.Context, gameID gametypes.GameID) error {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Canceled {
		s.logger.InfoContext(ctx, "Game start trigger for canceled game, ignoring",
			slog.Int64("game_id", int64(gameID)))
		return nil
	}
	if game.State != gametypes.GameStateAnnounced {
		s.logger.InfoContext(ctx, "Game start trigger in unexpected state, ignoring",
			slog.Int64("game_id", int64(gameID)),
			slog.String("state", string(game.State)),
		)
		return nil
	}

	count, err := s.GameDB.CountParticipants(ctx, gameID)
	if err != nil {
		return fmt.Errorf("failed to count participants for game %d: %w", gameID, err)
	}
	if count < minParticipants {
		s.logger.InfoContext(ctx, "Not enough participants, canceling game",
			slog.Int64("game_id", int64(gameID)),
			slog.Int("participants", count),
		)
		if err := s.GameDB.CancelGame(ctx, gameID); err != nil {
			return fmt.Errorf("failed to auto-cancel game %d: %w", gameID, err)
		}
		text := gameAutoCancelAnnouncement(gameID)
		if err := s.notifier.PostChannel(ctx, game.AnnouncementChannel, text, nil); err != nil {
			s.logger.ErrorContext(ctx, "Failed to post auto-cancel notice",
				slog.Int64("game_id", int64(gameID)),
				slog.Any("error", err),
			)
		}
		return nil
	}

	round, rulesText, err := s.prepareRound(ctx, game, 1)
	if err != nil {
		return err
	}

	moved, err := s.GameDB.UpdateGameState(ctx, gameID, gametypes.GameStateAnnounced, gametypes.GameStateInProgress)
	if err != nil {
		return fmt.Errorf("failed to start game %d: %w", gameID, err)
	}
	if !moved {
		s.logger.InfoContext(ctx, "Game already started, ignoring duplicate trigger",
			slog.Int64("game_id", int64(gameID)))
		return nil
	}
	if _, err := s.GameDB.AdvanceCurrentRound(ctx, gameID, 0, 1); err != nil {
		return fmt.Errorf("failed to set current round for game %d: %w", gameID, err)
	}

	startText := gameStartAnnouncement(gameID, game.RoundLength)
	startMeta := &gameevents.TriggerMetadata{
		EventType:    gameevents.EventGameStart,
		EventPayload: gameevents.TriggerPayload{GameID: gameID, ChannelID: game.AnnouncementChannel},
	}
	if err := s.notifier.PostChannel(ctx, game.AnnouncementChannel, startText, startMeta); err != nil {
		s.logger.ErrorContext(ctx, "Failed to post game start announcement",
			slog.Int64("game_id", int64(gameID)),
			slog.Any("error", err),
		)
	}

	s.announceRound(ctx, game, round, rulesText)
	return nil
}

// prepareRound fetches a round, loads its rule and schedules its end
// trigger. Scheduling happens before the caller commits any state change:
// duplicate inserts collapse in the queue, whereas a state flip that
// committed first would strand the game if the insert failed and the
// redelivered trigger then hit the already-handled guard.
func (s *GameService) prepareRound(ctx context.Context, game *gametypes.Game, roundNumber int) (*gametypes.GameRound, string, error) {
	round, err := s.GameDB.GetRound(ctx, game.ID, roundNumber)
	if err != nil {
		return nil, "", fmt.Errorf("round %d of game %d missing, configuration bug: %w", roundNumber, game.ID, err)
	}

	rule, err := s.registry.Load(round.RuleID, round.Fields, round.Soldiers)
	if err != nil {
		return nil, "", fmt.Errorf("loading rule for game %d round %d: %w", game.ID, roundNumber, err)
	}

	if err := s.scheduler.ScheduleRoundEnd(ctx, game.ID, roundNumber, round.End); err != nil {
		return nil, "", fmt.Errorf("failed to schedule end of round %d for game %d: %w", roundNumber, game.ID, err)
	}

	return round, rule.Description(), nil
}

// announceRound posts a round's rules. The end trigger is already in the
// queue, so a failed post only costs the announcement, never the schedule.
func (s *GameService) announceRound(ctx context.Context, game *gametypes.Game, round *gametypes.GameRound, rulesText string) {
	text := roundStartAnnouncement(game.ID, round.Number, round.End, rulesText)
	meta := &gameevents.TriggerMetadata{
		EventType: gameevents.EventRoundStart,
		EventPayload: gameevents.TriggerPayload{
			GameID:      game.ID,
			RoundNumber: round.Number,
			ChannelID:   game.AnnouncementChannel,
		},
	}
	if err := s.notifier.PostChannel(ctx, game.AnnouncementChannel, text, meta); err != nil {
		s.logger.ErrorContext(ctx, "Failed to post round rules",
			slog.Int64("game_id", int64(game.ID)),
			slog.Int("round_number", round.Number),
			slog.Any("error", err),
		)
	}

	s.logger.InfoContext(ctx, "Round started",
		slog.Int64("game_id", int64(game.ID)),
		slog.Int("round_number", round.Number),
		slog.Time("round_end", round.End),
	)
}
