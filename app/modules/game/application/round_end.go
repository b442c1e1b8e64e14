package gameservice

import (
	"context"
	"fmt"
	"log/slog"

	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// ProcessRoundEnd handles a round-end trigger: score the round, post the
// leaderboard snapshot, then either start the next round or complete the
// game. Redelivered triggers no-op on the current-round guard; scoring
// itself is idempotent, so a crash between scoring and advancing is safe to
// retry. The next round's end trigger is scheduled before the advance
// commits, so a failed insert leaves the current round in place and the
// redelivered trigger runs the whole step again.
func (s *GameService) ProcessRoundEnd(ctx context.Context, gameID gametypes.GameID, roundNumber int) error {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Canceled {
		s.logger.InfoContext(ctx, "Round end trigger for canceled game, ignoring",
			slog.Int64("game_id", int64(gameID)),
			slog.Int("round_number", roundNumber),
		)
		return nil
	}
	if game.State != gametypes.GameStateInProgress || roundNumber < game.CurrentRound {
		s.logger.InfoContext(ctx, "Round end trigger already handled, ignoring",
			slog.Int64("game_id", int64(gameID)),
			slog.Int("round_number", roundNumber),
			slog.Int("current_round", game.CurrentRound),
			slog.String("state", string(game.State)),
		)
		return nil
	}
	if roundNumber > game.CurrentRound {
		// A trigger for a round that never started means the schedule and
		// the store disagree.
		return fmt.Errorf("round end trigger for game %d round %d but current round is %d", gameID, roundNumber, game.CurrentRound)
	}

	round, err := s.GameDB.GetRound(ctx, gameID, roundNumber)
	if err != nil {
		return fmt.Errorf("round %d of game %d missing, configuration bug: %w", roundNumber, gameID, err)
	}

	// A redelivered trigger that already scored this round skips the
	// snapshot re-post; re-scoring below is idempotent.
	alreadyScored, err := s.GameDB.HasRoundResults(ctx, gameID, roundNumber)
	if err != nil {
		return fmt.Errorf("failed to check results for game %d round %d: %w", gameID, roundNumber, err)
	}

	results, err := s.scoreRound(ctx, round)
	if err != nil {
		return err
	}

	if len(results) > 0 && !alreadyScored {
		text := roundEndAnnouncement(gameID, roundNumber, results)
		meta := &gameevents.TriggerMetadata{
			EventType: gameevents.EventRoundEnd,
			EventPayload: gameevents.TriggerPayload{
				GameID:      gameID,
				RoundNumber: roundNumber,
				ChannelID:   game.AnnouncementChannel,
			},
		}
		if err := s.notifier.PostChannel(ctx, game.AnnouncementChannel, text, meta); err != nil {
			s.logger.ErrorContext(ctx, "Failed to post round results",
				slog.Int64("game_id", int64(gameID)),
				slog.Int("round_number", roundNumber),
				slog.Any("error", err),
			)
		}
	}

	if roundNumber < game.NumRounds {
		next := roundNumber + 1
		nextRound, rulesText, err := s.prepareRound(ctx, game, next)
		if err != nil {
			return err
		}

		moved, err := s.GameDB.AdvanceCurrentRound(ctx, gameID, roundNumber, next)
		if err != nil {
			return fmt.Errorf("failed to advance game %d to round %d: %w", gameID, next, err)
		}
		if !moved {
			s.logger.InfoContext(ctx, "Round already advanced, ignoring duplicate trigger",
				slog.Int64("game_id", int64(gameID)),
				slog.Int("round_number", roundNumber),
			)
			return nil
		}

		s.announceRound(ctx, game, nextRound, rulesText)
		return nil
	}

	return s.finishGame(ctx, game)
}

// finishGame aggregates all round results, announces the winner and moves
// the game to COMPLETED.
func (s *GameService) finishGame(ctx context.Context, game *gametypes.Game) error {
	results, err := s.scoreGame(ctx, game.ID)
	if err != nil {
		return err
	}

	moved, err := s.GameDB.UpdateGameState(ctx, game.ID, gametypes.GameStateInProgress, gametypes.GameStateCompleted)
	if err != nil {
		return fmt.Errorf("failed to complete game %d: %w", game.ID, err)
	}
	if !moved {
		s.logger.InfoContext(ctx, "Game already completed, ignoring duplicate trigger",
			slog.Int64("game_id", int64(game.ID)))
		return nil
	}

	if len(results) > 0 {
		text := gameEndAnnouncement(game.ID, results[0])
		meta := &gameevents.TriggerMetadata{
			EventType:    gameevents.EventGameEnd,
			EventPayload: gameevents.TriggerPayload{GameID: game.ID, ChannelID: game.AnnouncementChannel},
		}
		if err := s.notifier.PostChannel(ctx, game.AnnouncementChannel, text, meta); err != nil {
			s.logger.ErrorContext(ctx, "Failed to post game results",
				slog.Int64("game_id", int64(game.ID)),
				slog.Any("error", err),
			)
		}
	}

	s.logger.InfoContext(ctx, "Game completed",
		slog.Int64("game_id", int64(game.ID)),
		slog.Int("ranked_players", len(results)),
	)
	return nil
}
