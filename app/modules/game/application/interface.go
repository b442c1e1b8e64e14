package gameservice

import (
	"context"
	"time"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// Service is the game module's application contract: game lifecycle,
// signups, submissions and result queries.
type Service interface {
	// CreateGame allocates a game and all of its rounds, then posts the
	// public announcement.
	CreateGame(ctx context.Context, params CreateGameParams) (*gametypes.Game, error)
	// RecordAnnouncement stores the gateway-acknowledged announcement
	// reference and schedules the signup-close trigger.
	RecordAnnouncement(ctx context.Context, gameID gametypes.GameID, channelID, messageRef string) error

	// ProcessGameStart handles the signup-close trigger.
	ProcessGameStart(ctx context.Context, gameID gametypes.GameID) error
	// ProcessRoundEnd handles a round-end trigger: scores the round and
	// either starts the next round or completes the game.
	ProcessRoundEnd(ctx context.Context, gameID gametypes.GameID, roundNumber int) error

	Signup(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID, now time.Time) (*gametypes.Game, error)
	Withdraw(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) error

	// SubmitStrategy validates and persists a user's allocation for a round.
	SubmitStrategy(ctx context.Context, gameID gametypes.GameID, roundNumber int, userID gametypes.UserID, allocation []int, now time.Time) error

	CancelGame(ctx context.Context, gameID gametypes.GameID, requestedBy gametypes.UserID) error

	ActiveGamesFor(ctx context.Context, userID gametypes.UserID, now time.Time) ([]gametypes.Game, error)
	ActiveRound(ctx context.Context, gameID gametypes.GameID, now time.Time) (*gametypes.GameRound, error)
}
