package gameservice

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

func TestScoreRound(t *testing.T) {
	fx := newServiceFixture(t)
	game, rounds := decreasingGame(1)
	game.State = gametypes.GameStateInProgress
	game.CurrentRound = 1
	gameID := fx.seedGame(t, game, rounds...)
	fx.addParticipants(t, gameID, "U1", "U2", "U3")

	// Pairwise, per field the larger side earns the difference:
	//   U1 vs U2: U1 wins fields 1 and 3 (+5 +5), U2 wins fields 2 and 4 (+5 +5)
	//   U1 vs U3: U1 earns 5+10, U3 earns 5+10
	//   U2 vs U3: U2 earns 10+5, U3 earns 10+5
	// Totals: U1 25, U2 25, U3 30.
	submitAt(t, fx, gameID, 1, "U1", []int{20, 10, 15, 5}, testBase.Add(time.Minute))
	submitAt(t, fx, gameID, 1, "U2", []int{15, 15, 10, 10}, testBase.Add(2*time.Minute))
	submitAt(t, fx, gameID, 1, "U3", []int{25, 5, 5, 15}, testBase.Add(3*time.Minute))

	round, err := fx.db.GetRound(context.Background(), gameID, 1)
	require.NoError(t, err)

	results, err := fx.svc.scoreRound(context.Background(), round)
	require.NoError(t, err)

	want := []gametypes.RoundResult{
		{GameID: gameID, UserID: "U3", RoundNumber: 1, Score: 30, Rank: 1},
		{GameID: gameID, UserID: "U1", RoundNumber: 1, Score: 25, Rank: 2},
		{GameID: gameID, UserID: "U2", RoundNumber: 1, Score: 25, Rank: 3},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("round results mismatch (-want +got):\n%s", diff)
	}

	stored, err := fx.db.RoundResults(context.Background(), gameID, 1)
	require.NoError(t, err)
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Errorf("persisted results mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreRoundIdempotent(t *testing.T) {
	fx := newServiceFixture(t)
	game, rounds := decreasingGame(1)
	game.State = gametypes.GameStateInProgress
	game.CurrentRound = 1
	gameID := fx.seedGame(t, game, rounds...)
	submitAt(t, fx, gameID, 1, "U1", []int{30, 10, 5, 5}, testBase.Add(time.Minute))
	submitAt(t, fx, gameID, 1, "U2", []int{20, 15, 10, 5}, testBase.Add(2*time.Minute))

	round, err := fx.db.GetRound(context.Background(), gameID, 1)
	require.NoError(t, err)

	first, err := fx.svc.scoreRound(context.Background(), round)
	require.NoError(t, err)
	second, err := fx.svc.scoreRound(context.Background(), round)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("recomputation diverged (-first +second):\n%s", diff)
	}
	stored, err := fx.db.RoundResults(context.Background(), gameID, 1)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestScoreRoundOnlySubmittersScored(t *testing.T) {
	fx := newServiceFixture(t)
	game, rounds := decreasingGame(1)
	game.State = gametypes.GameStateInProgress
	game.CurrentRound = 1
	gameID := fx.seedGame(t, game, rounds...)
	fx.addParticipants(t, gameID, "U1", "U2", "UGHOST")
	submitAt(t, fx, gameID, 1, "U1", []int{30, 10, 5, 5}, testBase.Add(time.Minute))
	submitAt(t, fx, gameID, 1, "U2", []int{20, 15, 10, 5}, testBase.Add(2*time.Minute))

	round, err := fx.db.GetRound(context.Background(), gameID, 1)
	require.NoError(t, err)

	results, err := fx.svc.scoreRound(context.Background(), round)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.NotEqual(t, gametypes.UserID("UGHOST"), r.UserID)
	}
}

func TestScoreGame(t *testing.T) {
	fx := newServiceFixture(t)
	game, rounds := decreasingGame(3)
	game.State = gametypes.GameStateInProgress
	gameID := fx.seedGame(t, game, rounds...)

	seed := []struct {
		round int
		user  gametypes.UserID
		score float64
	}{
		{1, "U1", 20}, {1, "U2", 10},
		{2, "U1", 10}, {2, "U2", 30}, {2, "U3", 5},
		{3, "U1", 15}, {3, "U2", 20},
	}
	byRound := map[int][]gametypes.RoundResult{}
	for _, s := range seed {
		byRound[s.round] = append(byRound[s.round], gametypes.RoundResult{
			GameID: gameID, UserID: s.user, RoundNumber: s.round, Score: s.score,
		})
	}
	for n, rs := range byRound {
		require.NoError(t, fx.db.ReplaceRoundResults(context.Background(), gameID, n, rs))
	}

	results, err := fx.svc.scoreGame(context.Background(), gameID)
	require.NoError(t, err)

	// Means over rounds actually played: U2 = 20, U1 = 15, U3 = 5.
	want := []gametypes.GameResult{
		{GameID: gameID, UserID: "U2", Score: 20, Rank: 1},
		{GameID: gameID, UserID: "U1", Score: 15, Rank: 2},
		{GameID: gameID, UserID: "U3", Score: 5, Rank: 3},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("game results mismatch (-want +got):\n%s", diff)
	}

	stored, err := fx.db.GameResults(context.Background(), gameID)
	require.NoError(t, err)
	if diff := cmp.Diff(want, stored); diff != "" {
		t.Errorf("persisted game results mismatch (-want +got):\n%s", diff)
	}
}

func TestScoreGameTieBreak(t *testing.T) {
	fx := newServiceFixture(t)
	game, rounds := decreasingGame(1)
	gameID := fx.seedGame(t, game, rounds...)
	require.NoError(t, fx.db.ReplaceRoundResults(context.Background(), gameID, 1, []gametypes.RoundResult{
		{GameID: gameID, UserID: "UB", RoundNumber: 1, Score: 10},
		{GameID: gameID, UserID: "UA", RoundNumber: 1, Score: 10},
	}))

	results, err := fx.svc.scoreGame(context.Background(), gameID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, gametypes.UserID("UA"), results[0].UserID)
	assert.Equal(t, 1, results[0].Rank)
	assert.Equal(t, gametypes.UserID("UB"), results[1].UserID)
	assert.Equal(t, 2, results[1].Rank)
}
