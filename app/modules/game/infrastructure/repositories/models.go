package gamedb

import (
	"time"

	"github.com/uptrace/bun"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// Game is the bun model backing gametypes.Game. RoundLength is stored as
// nanoseconds so the schema stays portable across dialects.
type Game struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID                  int64     `bun:"id,pk,autoincrement"`
	Admin               string    `bun:"admin,notnull"`
	Start               time.Time `bun:"start,notnull"`
	End                 time.Time `bun:"end,notnull"`
	NumRounds           int       `bun:"num_rounds,notnull"`
	RoundLength         int64     `bun:"round_length,notnull"`
	AnnouncementChannel string    `bun:"announcement_channel,nullzero"`
	AnnouncementRef     string    `bun:"announcement_ref,nullzero"`
	Canceled            bool      `bun:"canceled,notnull,default:false"`
	State               string    `bun:"state,notnull"`
	CurrentRound        int       `bun:"current_round,notnull,default:0"`
}

func (m *Game) toDomain() *gametypes.Game {
	return &gametypes.Game{
		ID:                  gametypes.GameID(m.ID),
		Admin:               gametypes.UserID(m.Admin),
		Start:               m.Start,
		End:                 m.End,
		NumRounds:           m.NumRounds,
		RoundLength:         time.Duration(m.RoundLength),
		AnnouncementChannel: m.AnnouncementChannel,
		AnnouncementRef:     m.AnnouncementRef,
		Canceled:            m.Canceled,
		State:               gametypes.GameState(m.State),
		CurrentRound:        m.CurrentRound,
	}
}

func gameModel(g *gametypes.Game) *Game {
	return &Game{
		ID:                  int64(g.ID),
		Admin:               string(g.Admin),
		Start:               g.Start,
		End:                 g.End,
		NumRounds:           g.NumRounds,
		RoundLength:         int64(g.RoundLength),
		AnnouncementChannel: g.AnnouncementChannel,
		AnnouncementRef:     g.AnnouncementRef,
		Canceled:            g.Canceled,
		State:               string(g.State),
		CurrentRound:        g.CurrentRound,
	}
}

// GameRound is keyed by (game_id, number); configuration columns are written
// once at game creation and never updated.
type GameRound struct {
	bun.BaseModel `bun:"table:game_rounds,alias:gr"`

	GameID   int64     `bun:"game_id,pk"`
	Number   int       `bun:"number,pk"`
	RuleID   int       `bun:"rule_id,notnull"`
	Start    time.Time `bun:"start,notnull"`
	End      time.Time `bun:"end,notnull"`
	Fields   int       `bun:"fields,notnull"`
	Soldiers int       `bun:"soldiers,notnull"`
	Canceled bool      `bun:"canceled,notnull,default:false"`
}

func (m *GameRound) toDomain() *gametypes.GameRound {
	return &gametypes.GameRound{
		GameID:   gametypes.GameID(m.GameID),
		Number:   m.Number,
		RuleID:   gametypes.RuleID(m.RuleID),
		Start:    m.Start,
		End:      m.End,
		Fields:   m.Fields,
		Soldiers: m.Soldiers,
		Canceled: m.Canceled,
	}
}

func roundModel(r *gametypes.GameRound) *GameRound {
	return &GameRound{
		GameID:   int64(r.GameID),
		Number:   r.Number,
		RuleID:   int(r.RuleID),
		Start:    r.Start,
		End:      r.End,
		Fields:   r.Fields,
		Soldiers: r.Soldiers,
		Canceled: r.Canceled,
	}
}

// Participant enforces the one-signup-per-user invariant with its compound
// primary key.
type Participant struct {
	bun.BaseModel `bun:"table:participants,alias:p"`

	GameID int64  `bun:"game_id,pk"`
	UserID string `bun:"user_id,pk"`
}

// Submission rows are append-only; one row per field, sharing a timestamp
// per submitted strategy.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:s"`

	ID          int64     `bun:"id,pk,autoincrement"`
	GameID      int64     `bun:"game_id,notnull"`
	UserID      string    `bun:"user_id,notnull"`
	RoundNumber int       `bun:"round_number,notnull"`
	Field       int       `bun:"field,notnull"`
	Soldiers    int       `bun:"soldiers,notnull"`
	SubmittedAt time.Time `bun:"submitted_at,notnull"`
}

// RoundResult holds one participant's score and rank for a scored round.
type RoundResult struct {
	bun.BaseModel `bun:"table:round_results,alias:rr"`

	GameID      int64   `bun:"game_id,pk"`
	UserID      string  `bun:"user_id,pk"`
	RoundNumber int     `bun:"round_number,pk"`
	Score       float64 `bun:"score,notnull"`
	Rank        int     `bun:"rank,notnull"`
}

func (m *RoundResult) toDomain() gametypes.RoundResult {
	return gametypes.RoundResult{
		GameID:      gametypes.GameID(m.GameID),
		UserID:      gametypes.UserID(m.UserID),
		RoundNumber: m.RoundNumber,
		Score:       m.Score,
		Rank:        m.Rank,
	}
}

// GameResult holds a participant's aggregate standing for a finished game.
type GameResult struct {
	bun.BaseModel `bun:"table:game_results,alias:gres"`

	GameID int64   `bun:"game_id,pk"`
	UserID string  `bun:"user_id,pk"`
	Score  float64 `bun:"score,notnull"`
	Rank   int     `bun:"rank,notnull"`
}

func (m *GameResult) toDomain() gametypes.GameResult {
	return gametypes.GameResult{
		GameID: gametypes.GameID(m.GameID),
		UserID: gametypes.UserID(m.UserID),
		Score:  m.Score,
		Rank:   m.Rank,
	}
}
