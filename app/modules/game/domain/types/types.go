package gametypes

import "time"

// GameID identifies a single tournament instance.
type GameID int64

// UserID is the chat-platform identity of a player.
type UserID string

// RuleID identifies a registered round-rule variant. Persisted with each
// round, so values must stay stable across versions.
type RuleID int

// GameState represents where a game sits in its lifecycle.
type GameState string

const (
	GameStateForming    GameState = "FORMING"
	GameStateAnnounced  GameState = "ANNOUNCED"
	GameStateInProgress GameState = "IN_PROGRESS"
	GameStateCompleted  GameState = "COMPLETED"
	GameStateCanceled   GameState = "CANCELED"
)

// Game is one full tournament: a signup window followed by a fixed sequence
// of rounds. Start doubles as the signup-close instant and the start of
// round 1; End is always Start + RoundLength*NumRounds.
type Game struct {
	ID                  GameID        `json:"id"`
	Admin               UserID        `json:"admin"`
	Start               time.Time     `json:"start"`
	End                 time.Time     `json:"end"`
	NumRounds           int           `json:"num_rounds"`
	RoundLength         time.Duration `json:"round_length"`
	AnnouncementChannel string        `json:"announcement_channel,omitempty"`
	AnnouncementRef     string        `json:"announcement_ref,omitempty"`
	Canceled            bool          `json:"canceled"`
	State               GameState     `json:"state"`
	CurrentRound        int           `json:"current_round"`
}

// OpenForSignup reports whether a signup at the given instant is still valid.
func (g *Game) OpenForSignup(now time.Time) bool {
	return !g.Canceled && now.Before(g.Start)
}

// HasStarted reports whether round 1 has begun.
func (g *Game) HasStarted(now time.Time) bool {
	return !now.Before(g.Start)
}

// GameRound is one scored sub-contest within a game. Rule, field count and
// soldier budget are drawn once at game creation and never change.
type GameRound struct {
	GameID   GameID    `json:"game_id"`
	Number   int       `json:"number"`
	RuleID   RuleID    `json:"rule_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Fields   int       `json:"fields"`
	Soldiers int       `json:"soldiers"`
	Canceled bool      `json:"canceled"`
}

// Open reports whether the round accepts submissions at the given instant.
func (r *GameRound) Open(now time.Time) bool {
	return !r.Canceled && !now.Before(r.Start) && now.Before(r.End)
}

// Participant enrolls a user in a game. (GameID, UserID) is unique.
type Participant struct {
	GameID GameID `json:"game_id"`
	UserID UserID `json:"user_id"`
}

// Submission is one field's worth of a user's allocation for a round. A full
// strategy is the set of rows sharing (GameID, RoundNumber, UserID,
// SubmittedAt); resubmissions append new rows and the latest set wins at
// scoring time.
type Submission struct {
	ID          int64     `json:"id"`
	GameID      GameID    `json:"game_id"`
	UserID      UserID    `json:"user_id"`
	RoundNumber int       `json:"round_number"`
	Field       int       `json:"field"`
	Soldiers    int       `json:"soldiers"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// RoundResult is a participant's score and rank for one round.
type RoundResult struct {
	GameID      GameID  `json:"game_id"`
	UserID      UserID  `json:"user_id"`
	RoundNumber int     `json:"round_number"`
	Score       float64 `json:"score"`
	Rank        int     `json:"rank"`
}

// GameResult is a participant's aggregate standing for a whole game: the
// mean of their round scores, ranked descending.
type GameResult struct {
	GameID GameID  `json:"game_id"`
	UserID UserID  `json:"user_id"`
	Score  float64 `json:"score"`
	Rank   int     `json:"rank"`
}
