package gameservice

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

func TestCreateGame(t *testing.T) {
	fx := newServiceFixture(t)
	signupClose := testBase.Add(24 * time.Hour)

	game, err := fx.svc.CreateGame(context.Background(), CreateGameParams{
		Admin:       "UADMIN",
		NumRounds:   3,
		RoundLength: 8 * time.Hour,
		SignupClose: signupClose,
		ChannelID:   "C123",
	})
	require.NoError(t, err)
	require.NotNil(t, game)
	assert.NotZero(t, game.ID)
	assert.Equal(t, gametypes.GameStateForming, game.State)
	assert.Equal(t, signupClose, game.Start)
	assert.Equal(t, signupClose.Add(24*time.Hour), game.End)

	// Rounds tile the game window back to back.
	for n := 1; n <= 3; n++ {
		round, err := fx.db.GetRound(context.Background(), game.ID, n)
		require.NoError(t, err, "round %d", n)
		wantStart := signupClose.Add(time.Duration(n-1) * 8 * time.Hour)
		assert.Equal(t, wantStart, round.Start, "round %d start", n)
		assert.Equal(t, wantStart.Add(8*time.Hour), round.End, "round %d end", n)
		assert.Positive(t, round.Fields, "round %d fields", n)
		assert.Positive(t, round.Soldiers, "round %d soldiers", n)
	}

	require.Len(t, fx.notifier.channel, 1)
	post := fx.notifier.channel[0]
	assert.Equal(t, "C123", post.ChannelID)
	assert.Contains(t, post.Text, "3 battles")
	require.NotNil(t, post.Meta)
	assert.Equal(t, gameevents.EventGameAnnounced, post.Meta.EventType)
	assert.Equal(t, game.ID, post.Meta.EventPayload.GameID)

	// Nothing is scheduled until the gateway acknowledges the announcement.
	assert.Empty(t, fx.scheduler.scheduled)
}

func TestCreateGameValidation(t *testing.T) {
	tests := []struct {
		name    string
		params  CreateGameParams
		wantMsg string
	}{
		{
			name:    "zero rounds",
			params:  CreateGameParams{Admin: "U1", NumRounds: 0, RoundLength: time.Hour, SignupClose: testBase.Add(time.Hour)},
			wantMsg: "at least one round",
		},
		{
			name:    "non-positive round length",
			params:  CreateGameParams{Admin: "U1", NumRounds: 2, RoundLength: 0, SignupClose: testBase.Add(time.Hour)},
			wantMsg: "round length must be positive",
		},
		{
			name:    "signup close in the past",
			params:  CreateGameParams{Admin: "U1", NumRounds: 2, RoundLength: time.Hour, SignupClose: testBase.Add(-time.Minute)},
			wantMsg: "signup close must be in the future",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fx := newServiceFixture(t)
			game, err := fx.svc.CreateGame(context.Background(), tc.params)
			assert.Nil(t, game)
			var verr *ValidationErrors
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Error(), tc.wantMsg)
			assert.Empty(t, fx.notifier.channel)
		})
	}
}

func TestCreateGameAnnouncementFailure(t *testing.T) {
	fx := newServiceFixture(t)
	fx.notifier.postErr = errOp("PostChannel")

	_, err := fx.svc.CreateGame(context.Background(), CreateGameParams{
		Admin:       "UADMIN",
		NumRounds:   1,
		RoundLength: time.Hour,
		SignupClose: testBase.Add(time.Hour),
	})
	require.Error(t, err)

	// The game row survives the failed post; the caller retries the
	// announcement, not the creation.
	_, getErr := fx.db.GetGame(context.Background(), 1)
	assert.NoError(t, getErr)
}

func TestRecordAnnouncement(t *testing.T) {
	fx := newServiceFixture(t)
	game, rounds := decreasingGame(2)
	game.State = gametypes.GameStateForming
	game.AnnouncementChannel = ""
	game.AnnouncementRef = ""
	gameID := fx.seedGame(t, game, rounds...)

	require.NoError(t, fx.svc.RecordAnnouncement(context.Background(), gameID, "C123", "1650000000.000100"))

	stored, err := fx.db.GetGame(context.Background(), gameID)
	require.NoError(t, err)
	assert.Equal(t, gametypes.GameStateAnnounced, stored.State)
	assert.Equal(t, "C123", stored.AnnouncementChannel)
	assert.Equal(t, "1650000000.000100", stored.AnnouncementRef)

	require.Len(t, fx.scheduler.scheduled, 1)
	assert.Equal(t, scheduledTrigger{Kind: "game_start", GameID: gameID, At: game.Start}, fx.scheduler.scheduled[0])
}

func TestRecordAnnouncementRedelivery(t *testing.T) {
	fx := newServiceFixture(t)
	game, rounds := decreasingGame(2)
	game.State = gametypes.GameStateForming
	gameID := fx.seedGame(t, game, rounds...)

	require.NoError(t, fx.svc.RecordAnnouncement(context.Background(), gameID, "C123", "ref-1"))
	require.NoError(t, fx.svc.RecordAnnouncement(context.Background(), gameID, "C123", "ref-1"))

	stored, err := fx.db.GetGame(context.Background(), gameID)
	require.NoError(t, err)
	assert.Equal(t, gametypes.GameStateAnnounced, stored.State)
	// Scheduling is delegated twice; the queue collapses duplicates by args.
	assert.Len(t, fx.scheduler.scheduled, 2)
}

func TestRecordAnnouncementCanceledGame(t *testing.T) {
	fx := newServiceFixture(t)
	game, rounds := decreasingGame(1)
	game.State = gametypes.GameStateForming
	game.Canceled = true
	gameID := fx.seedGame(t, game, rounds...)

	require.NoError(t, fx.svc.RecordAnnouncement(context.Background(), gameID, "C123", "ref-1"))
	assert.Empty(t, fx.scheduler.scheduled)
}

func TestRecordAnnouncementUnknownGame(t *testing.T) {
	fx := newServiceFixture(t)
	err := fx.svc.RecordAnnouncement(context.Background(), 404, "C123", "ref-1")
	assert.ErrorIs(t, err, ErrGameNotFound)
}
