package gamequeue

import (
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// GameStartJob fires when a game's signup window closes. The worker only
// republishes the trigger onto the event bus; all decisions happen in the
// subscribed handler against current store state.
type GameStartJob struct {
	GameID gametypes.GameID `json:"game_id"`
}

// Kind returns the job type identifier for River.
func (GameStartJob) Kind() string { return "game_start" }

// RoundEndJob fires when a round's submission window closes.
type RoundEndJob struct {
	GameID      gametypes.GameID `json:"game_id"`
	RoundNumber int              `json:"round_number"`
}

// Kind returns the job type identifier for River.
func (RoundEndJob) Kind() string { return "round_end" }
