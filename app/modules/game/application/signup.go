package gameservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
	gamedb "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/repositories"
)

// Signup enrolls a user in a game. Signup is only valid strictly before the
// game's start; a duplicate toggle reports ErrAlreadySignedUp rather than
// erroring the caller's path.
func (s *GameService) Signup(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID, now time.Time) (*gametypes.Game, error) {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Canceled {
		return nil, ErrGameCanceled
	}
	if !game.OpenForSignup(now) {
		s.logger.InfoContext(ctx, "Signup requested after game start, request denied",
			slog.Int64("game_id", int64(gameID)),
			slog.String("user_id", string(userID)),
		)
		return nil, ErrSignupClosed
	}

	// The compound primary key is the duplicate guard; two concurrent
	// toggles cannot both insert.
	err = s.GameDB.CreateParticipant(ctx, gameID, userID)
	if errors.Is(err, gamedb.ErrAlreadyExists) {
		return nil, ErrAlreadySignedUp
	}
	if err != nil {
		return nil, fmt.Errorf("failed to sign up user for game %d: %w", gameID, err)
	}

	s.logger.InfoContext(ctx, "User signed up for game",
		slog.Int64("game_id", int64(gameID)),
		slog.String("user_id", string(userID)),
	)
	return game, nil
}

// Withdraw removes a user's signup. A missing signup reports ErrNotSignedUp.
// Like Signup, withdrawal closes when the game starts: participant rows
// anchor submissions and results, so deleting one mid-game would cascade
// away scored data.
func (s *GameService) Withdraw(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) error {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Canceled {
		return ErrGameCanceled
	}
	if game.HasStarted(s.now()) {
		s.logger.InfoContext(ctx, "Withdrawal requested after game start, request denied",
			slog.Int64("game_id", int64(gameID)),
			slog.String("user_id", string(userID)),
		)
		return ErrGameAlreadyStarted
	}

	err = s.GameDB.DeleteParticipant(ctx, gameID, userID)
	if errors.Is(err, gamedb.ErrNotFound) {
		return ErrNotSignedUp
	}
	if err != nil {
		return fmt.Errorf("failed to withdraw user from game %d: %w", gameID, err)
	}

	s.logger.InfoContext(ctx, "User withdrew from game",
		slog.Int64("game_id", int64(gameID)),
		slog.String("user_id", string(userID)),
	)
	return nil
}
