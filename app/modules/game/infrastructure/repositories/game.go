package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// GameDBImpl is the bun-backed implementation of GameDB.
type GameDBImpl struct {
	DB *bun.DB
}

var _ GameDB = (*GameDBImpl)(nil)

// CreateGameWithRounds inserts the game and all of its rounds atomically.
func (db *GameDBImpl) CreateGameWithRounds(ctx context.Context, game *gametypes.Game, rounds []gametypes.GameRound) error {
	return db.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		model := gameModel(game)
		err := tx.NewInsert().
			Model(model).
			ExcludeColumn("id").
			Returning("id").
			Scan(ctx, &model.ID)
		if err != nil {
			return fmt.Errorf("failed to create game: %w", err)
		}
		game.ID = gametypes.GameID(model.ID)

		roundModels := make([]GameRound, len(rounds))
		for i := range rounds {
			rounds[i].GameID = game.ID
			roundModels[i] = *roundModel(&rounds[i])
		}
		if _, err := tx.NewInsert().Model(&roundModels).Exec(ctx); err != nil {
			return fmt.Errorf("failed to create game rounds: %w", err)
		}

		slog.InfoContext(ctx, "Game created",
			slog.Int64("game_id", model.ID),
			slog.Int("num_rounds", len(rounds)),
		)
		return nil
	})
}

// GetGame retrieves a game by ID.
func (db *GameDBImpl) GetGame(ctx context.Context, id gametypes.GameID) (*gametypes.Game, error) {
	game := new(Game)
	err := db.DB.NewSelect().
		Model(game).
		Where("id = ?", int64(id)).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game: %w", err)
	}
	return game.toDomain(), nil
}

// SetAnnouncement records the channel and message reference of the
// announcement post.
func (db *GameDBImpl) SetAnnouncement(ctx context.Context, id gametypes.GameID, channelID, messageRef string) error {
	_, err := db.DB.NewUpdate().
		Model((*Game)(nil)).
		Set("announcement_channel = ?", channelID).
		Set("announcement_ref = ?", messageRef).
		Where("id = ?", int64(id)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to set announcement reference: %w", err)
	}
	return nil
}

// UpdateGameState performs the check-then-act transition guard.
func (db *GameDBImpl) UpdateGameState(ctx context.Context, id gametypes.GameID, from, to gametypes.GameState) (bool, error) {
	res, err := db.DB.NewUpdate().
		Model((*Game)(nil)).
		Set("state = ?", string(to)).
		Where("id = ?", int64(id)).
		Where("state = ?", string(from)).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to update game state: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

// AdvanceCurrentRound bumps the round pointer only if nothing else already
// advanced it.
func (db *GameDBImpl) AdvanceCurrentRound(ctx context.Context, id gametypes.GameID, from, to int) (bool, error) {
	res, err := db.DB.NewUpdate().
		Model((*Game)(nil)).
		Set("current_round = ?", to).
		Where("id = ?", int64(id)).
		Where("current_round = ?", from).
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to advance current round: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected == 1, nil
}

// CancelGame marks the game and all of its rounds canceled. Scheduled
// triggers are left to fire; their handlers check the flag and no-op.
func (db *GameDBImpl) CancelGame(ctx context.Context, id gametypes.GameID) error {
	return db.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*Game)(nil)).
			Set("canceled = TRUE").
			Set("state = ?", string(gametypes.GameStateCanceled)).
			Where("id = ?", int64(id)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to cancel game: %w", err)
		}
		_, err = tx.NewUpdate().
			Model((*GameRound)(nil)).
			Set("canceled = TRUE").
			Where("game_id = ?", int64(id)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to cancel game rounds: %w", err)
		}
		slog.InfoContext(ctx, "Game canceled", slog.Int64("game_id", int64(id)))
		return nil
	})
}

// GetRound retrieves one round by game and sequence number.
func (db *GameDBImpl) GetRound(ctx context.Context, gameID gametypes.GameID, number int) (*gametypes.GameRound, error) {
	round := new(GameRound)
	err := db.DB.NewSelect().
		Model(round).
		Where("game_id = ?", int64(gameID)).
		Where("number = ?", number).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch round: %w", err)
	}
	return round.toDomain(), nil
}

// ActiveRound returns the round whose window covers the given instant.
func (db *GameDBImpl) ActiveRound(ctx context.Context, gameID gametypes.GameID, now time.Time) (*gametypes.GameRound, error) {
	round := new(GameRound)
	err := db.DB.NewSelect().
		Model(round).
		Where("game_id = ?", int64(gameID)).
		Where("start <= ?", now).
		Where("\"end\" > ?", now).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active round: %w", err)
	}
	return round.toDomain(), nil
}

// CreateParticipant inserts a signup; a duplicate surfaces ErrAlreadyExists.
func (db *GameDBImpl) CreateParticipant(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) error {
	_, err := db.DB.NewInsert().
		Model(&Participant{GameID: int64(gameID), UserID: string(userID)}).
		Exec(ctx)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

// DeleteParticipant removes a signup; a missing row surfaces ErrNotFound.
func (db *GameDBImpl) DeleteParticipant(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) error {
	res, err := db.DB.NewDelete().
		Model((*Participant)(nil)).
		Where("game_id = ?", int64(gameID)).
		Where("user_id = ?", string(userID)).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete participant: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// HasParticipant reports whether the user is signed up for the game.
func (db *GameDBImpl) HasParticipant(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) (bool, error) {
	exists, err := db.DB.NewSelect().
		Model((*Participant)(nil)).
		Where("game_id = ?", int64(gameID)).
		Where("user_id = ?", string(userID)).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

// CountParticipants counts signups for a game.
func (db *GameDBImpl) CountParticipants(ctx context.Context, gameID gametypes.GameID) (int, error) {
	count, err := db.DB.NewSelect().
		Model((*Participant)(nil)).
		Where("game_id = ?", int64(gameID)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// CreateSubmissions appends one strategy's rows. Rows are never mutated.
func (db *GameDBImpl) CreateSubmissions(ctx context.Context, submissions []gametypes.Submission) error {
	models := make([]Submission, len(submissions))
	for i, s := range submissions {
		models[i] = Submission{
			GameID:      int64(s.GameID),
			UserID:      string(s.UserID),
			RoundNumber: s.RoundNumber,
			Field:       s.Field,
			Soldiers:    s.Soldiers,
			SubmittedAt: s.SubmittedAt,
		}
	}
	if _, err := db.DB.NewInsert().Model(&models).Exec(ctx); err != nil {
		return fmt.Errorf("failed to create submissions: %w", err)
	}
	return nil
}

// LatestSubmissions folds the append-only submission log into one allocation
// per user. Rows are scanned in (submitted_at, id) order, so later strategies
// overwrite earlier ones and the most recently inserted batch wins a
// timestamp tie.
func (db *GameDBImpl) LatestSubmissions(ctx context.Context, gameID gametypes.GameID, roundNumber, fields int) (map[gametypes.UserID][]int, error) {
	var rows []Submission
	err := db.DB.NewSelect().
		Model(&rows).
		Where("game_id = ?", int64(gameID)).
		Where("round_number = ?", roundNumber).
		Order("submitted_at ASC", "id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submissions: %w", err)
	}

	allocations := make(map[gametypes.UserID][]int)
	batchAt := make(map[gametypes.UserID]time.Time)
	for _, row := range rows {
		user := gametypes.UserID(row.UserID)
		if !row.SubmittedAt.Equal(batchAt[user]) {
			allocations[user] = make([]int, fields)
			batchAt[user] = row.SubmittedAt
		}
		if row.Field >= 0 && row.Field < fields {
			allocations[user][row.Field] = row.Soldiers
		}
	}
	return allocations, nil
}

// HasRoundResults reports whether the round was already scored.
func (db *GameDBImpl) HasRoundResults(ctx context.Context, gameID gametypes.GameID, roundNumber int) (bool, error) {
	exists, err := db.DB.NewSelect().
		Model((*RoundResult)(nil)).
		Where("game_id = ?", int64(gameID)).
		Where("round_number = ?", roundNumber).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check round results: %w", err)
	}
	return exists, nil
}

// ReplaceRoundResults swaps in the round's result set transactionally so a
// rescore of the same submissions lands on identical rows.
func (db *GameDBImpl) ReplaceRoundResults(ctx context.Context, gameID gametypes.GameID, roundNumber int, results []gametypes.RoundResult) error {
	return db.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*RoundResult)(nil)).
			Where("game_id = ?", int64(gameID)).
			Where("round_number = ?", roundNumber).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear round results: %w", err)
		}
		if len(results) == 0 {
			return nil
		}
		models := make([]RoundResult, len(results))
		for i, r := range results {
			models[i] = RoundResult{
				GameID:      int64(r.GameID),
				UserID:      string(r.UserID),
				RoundNumber: r.RoundNumber,
				Score:       r.Score,
				Rank:        r.Rank,
			}
		}
		if _, err := tx.NewInsert().Model(&models).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert round results: %w", err)
		}
		return nil
	})
}

// RoundResults lists a round's results in rank order.
func (db *GameDBImpl) RoundResults(ctx context.Context, gameID gametypes.GameID, roundNumber int) ([]gametypes.RoundResult, error) {
	var models []RoundResult
	err := db.DB.NewSelect().
		Model(&models).
		Where("game_id = ?", int64(gameID)).
		Where("round_number = ?", roundNumber).
		Order("rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch round results: %w", err)
	}
	results := make([]gametypes.RoundResult, len(models))
	for i := range models {
		results[i] = models[i].toDomain()
	}
	return results, nil
}

// RoundResultsForGame lists every scored round result of a game.
func (db *GameDBImpl) RoundResultsForGame(ctx context.Context, gameID gametypes.GameID) ([]gametypes.RoundResult, error) {
	var models []RoundResult
	err := db.DB.NewSelect().
		Model(&models).
		Where("game_id = ?", int64(gameID)).
		Order("round_number ASC", "rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game round results: %w", err)
	}
	results := make([]gametypes.RoundResult, len(models))
	for i := range models {
		results[i] = models[i].toDomain()
	}
	return results, nil
}

// ReplaceGameResults swaps in the game's aggregate results.
func (db *GameDBImpl) ReplaceGameResults(ctx context.Context, gameID gametypes.GameID, results []gametypes.GameResult) error {
	return db.DB.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewDelete().
			Model((*GameResult)(nil)).
			Where("game_id = ?", int64(gameID)).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to clear game results: %w", err)
		}
		if len(results) == 0 {
			return nil
		}
		models := make([]GameResult, len(results))
		for i, r := range results {
			models[i] = GameResult{
				GameID: int64(r.GameID),
				UserID: string(r.UserID),
				Score:  r.Score,
				Rank:   r.Rank,
			}
		}
		if _, err := tx.NewInsert().Model(&models).Exec(ctx); err != nil {
			return fmt.Errorf("failed to insert game results: %w", err)
		}
		return nil
	})
}

// GameResults lists a game's aggregate results in rank order.
func (db *GameDBImpl) GameResults(ctx context.Context, gameID gametypes.GameID) ([]gametypes.GameResult, error) {
	var models []GameResult
	err := db.DB.NewSelect().
		Model(&models).
		Where("game_id = ?", int64(gameID)).
		Order("rank ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game results: %w", err)
	}
	results := make([]gametypes.GameResult, len(models))
	for i := range models {
		results[i] = models[i].toDomain()
	}
	return results, nil
}

// ActiveGamesFor lists the running, non-canceled games the user is enrolled
// in, for the submission flow.
func (db *GameDBImpl) ActiveGamesFor(ctx context.Context, userID gametypes.UserID, now time.Time) ([]gametypes.Game, error) {
	var models []Game
	err := db.DB.NewSelect().
		Model(&models).
		Join("JOIN participants AS p ON p.game_id = g.id").
		Where("p.user_id = ?", string(userID)).
		Where("g.canceled = FALSE").
		Where("g.start <= ?", now).
		Where("g.\"end\" >= ?", now).
		Order("g.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active games: %w", err)
	}
	games := make([]gametypes.Game, len(models))
	for i := range models {
		games[i] = *models[i].toDomain()
	}
	return games, nil
}
