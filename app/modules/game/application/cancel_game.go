package gameservice

import (
	"context"
	"fmt"
	"log/slog"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// CancelGame marks a game canceled before it starts. Only the admin who
// created the game may cancel it, and only while signups are open. The
// canceled flag is the authoritative kill switch: pending triggers are
// canceled best-effort, but every trigger handler re-checks the flag, so a
// trigger that slips through is ignored.
func (s *GameService) CancelGame(ctx context.Context, gameID gametypes.GameID, requestedBy gametypes.UserID) error {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Admin != requestedBy {
		return ErrNotGameAdmin
	}
	if game.Canceled {
		return ErrGameCanceled
	}
	if game.HasStarted(s.now()) || game.State == gametypes.GameStateInProgress || game.State == gametypes.GameStateCompleted {
		return ErrGameAlreadyStarted
	}

	if err := s.GameDB.CancelGame(ctx, gameID); err != nil {
		return fmt.Errorf("failed to cancel game %d: %w", gameID, err)
	}

	if err := s.scheduler.CancelGameJobs(ctx, gameID); err != nil {
		s.logger.WarnContext(ctx, "Failed to cancel pending triggers, relying on canceled-flag guard",
			slog.Int64("game_id", int64(gameID)),
			slog.Any("error", err),
		)
	}

	s.logger.InfoContext(ctx, "Game canceled",
		slog.Int64("game_id", int64(gameID)),
		slog.String("requested_by", string(requestedBy)),
	)
	return nil
}
