package gamedb

import (
	"context"
	"time"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// GameDB is the storage contract for the game module. All state transitions
// run through conditional updates so concurrent trigger deliveries for the
// same game cannot double-advance it.
type GameDB interface {
	// CreateGameWithRounds inserts the game and all of its rounds in one
	// transaction, writing the generated game ID back onto the arguments.
	CreateGameWithRounds(ctx context.Context, game *gametypes.Game, rounds []gametypes.GameRound) error
	GetGame(ctx context.Context, id gametypes.GameID) (*gametypes.Game, error)
	SetAnnouncement(ctx context.Context, id gametypes.GameID, channelID, messageRef string) error
	// UpdateGameState moves the game from one state to another and reports
	// whether the row actually moved; false means another delivery got there
	// first.
	UpdateGameState(ctx context.Context, id gametypes.GameID, from, to gametypes.GameState) (bool, error)
	// AdvanceCurrentRound bumps the current round pointer with the same
	// check-then-act guard.
	AdvanceCurrentRound(ctx context.Context, id gametypes.GameID, from, to int) (bool, error)
	// CancelGame marks the game and every one of its rounds canceled.
	CancelGame(ctx context.Context, id gametypes.GameID) error

	GetRound(ctx context.Context, gameID gametypes.GameID, number int) (*gametypes.GameRound, error)
	ActiveRound(ctx context.Context, gameID gametypes.GameID, now time.Time) (*gametypes.GameRound, error)

	CreateParticipant(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) error
	DeleteParticipant(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) error
	HasParticipant(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) (bool, error)
	CountParticipants(ctx context.Context, gameID gametypes.GameID) (int, error)

	CreateSubmissions(ctx context.Context, submissions []gametypes.Submission) error
	// LatestSubmissions resolves the authoritative allocation per user: the
	// most recently submitted strategy wins, ties broken by insertion order.
	// Allocations come back padded to the round's field count.
	LatestSubmissions(ctx context.Context, gameID gametypes.GameID, roundNumber, fields int) (map[gametypes.UserID][]int, error)

	HasRoundResults(ctx context.Context, gameID gametypes.GameID, roundNumber int) (bool, error)
	// ReplaceRoundResults persists a round's results idempotently: recomputing
	// from the same submissions yields the same rows.
	ReplaceRoundResults(ctx context.Context, gameID gametypes.GameID, roundNumber int, results []gametypes.RoundResult) error
	RoundResults(ctx context.Context, gameID gametypes.GameID, roundNumber int) ([]gametypes.RoundResult, error)
	RoundResultsForGame(ctx context.Context, gameID gametypes.GameID) ([]gametypes.RoundResult, error)
	ReplaceGameResults(ctx context.Context, gameID gametypes.GameID, results []gametypes.GameResult) error
	GameResults(ctx context.Context, gameID gametypes.GameID) ([]gametypes.GameResult, error)

	// ActiveGamesFor lists the running games the user is signed up for.
	ActiveGamesFor(ctx context.Context, userID gametypes.UserID, now time.Time) ([]gametypes.Game, error)
}
