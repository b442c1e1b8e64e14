package gameservice

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// scoreRound computes and persists a round's results: the latest submission
// per participant enters a round-robin of pairwise scorings, each
// participant's points are summed across all pairings, and ranks are
// assigned descending by score with user ID as the deterministic tie-break.
// Participants who never submitted get no result row and do not disturb the
// computation of others. Recomputing from the same submissions yields
// identical rows.
func (s *GameService) scoreRound(ctx context.Context, round *gametypes.GameRound) ([]gametypes.RoundResult, error) {
	rule, err := s.registry.Load(round.RuleID, round.Fields, round.Soldiers)
	if err != nil {
		return nil, fmt.Errorf("loading rule for game %d round %d: %w", round.GameID, round.Number, err)
	}

	allocations, err := s.GameDB.LatestSubmissions(ctx, round.GameID, round.Number, round.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to load submissions for game %d round %d: %w", round.GameID, round.Number, err)
	}

	users := make([]gametypes.UserID, 0, len(allocations))
	for user := range allocations {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	totals := make(map[gametypes.UserID]int, len(users))
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			scoreA, scoreB := rule.Score(allocations[users[i]], allocations[users[j]])
			totals[users[i]] += scoreA
			totals[users[j]] += scoreB
		}
	}

	results := make([]gametypes.RoundResult, len(users))
	for i, user := range users {
		results[i] = gametypes.RoundResult{
			GameID:      round.GameID,
			UserID:      user,
			RoundNumber: round.Number,
			Score:       float64(totals[user]),
		}
	}
	rankRoundResults(results)

	if err := s.GameDB.ReplaceRoundResults(ctx, round.GameID, round.Number, results); err != nil {
		return nil, fmt.Errorf("failed to persist results for game %d round %d: %w", round.GameID, round.Number, err)
	}

	s.logger.InfoContext(ctx, "Round scored",
		slog.Int64("game_id", int64(round.GameID)),
		slog.Int("round_number", round.Number),
		slog.Int("scored_players", len(results)),
	)
	return results, nil
}

// scoreGame aggregates a game's round results into per-user means and
// persists the game-level ranking. Users with no scored round are excluded.
func (s *GameService) scoreGame(ctx context.Context, gameID gametypes.GameID) ([]gametypes.GameResult, error) {
	roundResults, err := s.GameDB.RoundResultsForGame(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round results for game %d: %w", gameID, err)
	}

	sums := make(map[gametypes.UserID]float64)
	counts := make(map[gametypes.UserID]int)
	for _, r := range roundResults {
		sums[r.UserID] += r.Score
		counts[r.UserID]++
	}

	users := make([]gametypes.UserID, 0, len(sums))
	for user := range sums {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	results := make([]gametypes.GameResult, len(users))
	for i, user := range users {
		results[i] = gametypes.GameResult{
			GameID: gameID,
			UserID: user,
			Score:  sums[user] / float64(counts[user]),
		}
	}
	rankGameResults(results)

	if err := s.GameDB.ReplaceGameResults(ctx, gameID, results); err != nil {
		return nil, fmt.Errorf("failed to persist game results for game %d: %w", gameID, err)
	}
	return results, nil
}

// rankRoundResults orders results descending by score (user ID breaks ties
// deterministically) and assigns 1-based ranks in that order.
func rankRoundResults(results []gametypes.RoundResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UserID < results[j].UserID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}

func rankGameResults(results []gametypes.GameResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].UserID < results[j].UserID
	})
	for i := range results {
		results[i].Rank = i + 1
	}
}
