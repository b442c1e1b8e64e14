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

// SubmitStrategy validates an allocation against the round's stored
// configuration and persists it. Validation runs against the declared
// fields/soldiers of the round, never a fresh generation. Resubmission
// during the window is allowed; the latest strategy wins at scoring time.
func (s *GameService) SubmitStrategy(ctx context.Context, gameID gametypes.GameID, roundNumber int, userID gametypes.UserID, allocation []int, now time.Time) error {
	game, err := s.getGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game.Canceled {
		return ErrGameCanceled
	}

	signedUp, err := s.GameDB.HasParticipant(ctx, gameID, userID)
	if err != nil {
		return fmt.Errorf("failed to check participation in game %d: %w", gameID, err)
	}
	if !signedUp {
		return ErrNotParticipant
	}

	round, err := s.GameDB.GetRound(ctx, gameID, roundNumber)
	if errors.Is(err, gamedb.ErrNotFound) {
		return ErrRoundNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to fetch round %d of game %d: %w", roundNumber, gameID, err)
	}
	if !round.Open(now) {
		return ErrSubmissionClosed
	}

	// An unknown rule here is a deployment mismatch: propagate, don't
	// surface to the user.
	rule, err := s.registry.Load(round.RuleID, round.Fields, round.Soldiers)
	if err != nil {
		return fmt.Errorf("loading rule for game %d round %d: %w", gameID, roundNumber, err)
	}

	if err := rule.ValidateGeneral(allocation); err != nil {
		return &ValidationErrors{General: err.Error()}
	}
	if fieldErrs := rule.ValidateFields(allocation); len(fieldErrs) > 0 {
		return &ValidationErrors{Fields: fieldErrs}
	}

	submissions := make([]gametypes.Submission, len(allocation))
	for i, soldiers := range allocation {
		submissions[i] = gametypes.Submission{
			GameID:      gameID,
			UserID:      userID,
			RoundNumber: roundNumber,
			Field:       i,
			Soldiers:    soldiers,
			SubmittedAt: now,
		}
	}
	if err := s.GameDB.CreateSubmissions(ctx, submissions); err != nil {
		return fmt.Errorf("failed to persist submission for game %d round %d: %w", gameID, roundNumber, err)
	}

	s.logger.InfoContext(ctx, "Strategy accepted",
		slog.Int64("game_id", int64(gameID)),
		slog.Int("round_number", roundNumber),
		slog.String("user_id", string(userID)),
	)
	return nil
}

// ActiveGamesFor lists the running games the user is enrolled in.
func (s *GameService) ActiveGamesFor(ctx context.Context, userID gametypes.UserID, now time.Time) ([]gametypes.Game, error) {
	return s.GameDB.ActiveGamesFor(ctx, userID, now)
}

// ActiveRound returns the round currently open for the game, if any.
func (s *GameService) ActiveRound(ctx context.Context, gameID gametypes.GameID, now time.Time) (*gametypes.GameRound, error) {
	round, err := s.GameDB.ActiveRound(ctx, gameID, now)
	if errors.Is(err, gamedb.ErrNotFound) {
		return nil, ErrRoundNotFound
	}
	return round, err
}

func (s *GameService) getGame(ctx context.Context, gameID gametypes.GameID) (*gametypes.Game, error) {
	game, err := s.GameDB.GetGame(ctx, gameID)
	if errors.Is(err, gamedb.ErrNotFound) {
		return nil, ErrGameNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game %d: %w", gameID, err)
	}
	return game, nil
}
