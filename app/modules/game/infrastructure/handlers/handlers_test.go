package gamehandlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	gameservice "github.com/blotto-league/blotto-bot/app/modules/game/application"
	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

var handlerNow = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

// stubService lets each test script exactly one service behavior per method.
type stubService struct {
	createGameFunc         func(ctx context.Context, params gameservice.CreateGameParams) (*gametypes.Game, error)
	recordAnnouncementFunc func(ctx context.Context, gameID gametypes.GameID, channelID, messageRef string) error
	processGameStartFunc   func(ctx context.Context, gameID gametypes.GameID) error
	processRoundEndFunc    func(ctx context.Context, gameID gametypes.GameID, roundNumber int) error
	signupFunc             func(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID, now time.Time) (*gametypes.Game, error)
	withdrawFunc           func(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) error
	submitStrategyFunc     func(ctx context.Context, gameID gametypes.GameID, roundNumber int, userID gametypes.UserID, allocation []int, now time.Time) error
	cancelGameFunc         func(ctx context.Context, gameID gametypes.GameID, requestedBy gametypes.UserID) error
}

var _ gameservice.Service = (*stubService)(nil)

func (s *stubService) CreateGame(ctx context.Context, params gameservice.CreateGameParams) (*gametypes.Game, error) {
	return s.createGameFunc(ctx, params)
}

func (s *stubService) RecordAnnouncement(ctx context.Context, gameID gametypes.GameID, channelID, messageRef string) error {
	return s.recordAnnouncementFunc(ctx, gameID, channelID, messageRef)
}

func (s *stubService) ProcessGameStart(ctx context.Context, gameID gametypes.GameID) error {
	return s.processGameStartFunc(ctx, gameID)
}

func (s *stubService) ProcessRoundEnd(ctx context.Context, gameID gametypes.GameID, roundNumber int) error {
	return s.processRoundEndFunc(ctx, gameID, roundNumber)
}

func (s *stubService) Signup(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID, now time.Time) (*gametypes.Game, error) {
	return s.signupFunc(ctx, gameID, userID, now)
}

func (s *stubService) Withdraw(ctx context.Context, gameID gametypes.GameID, userID gametypes.UserID) error {
	return s.withdrawFunc(ctx, gameID, userID)
}

func (s *stubService) SubmitStrategy(ctx context.Context, gameID gametypes.GameID, roundNumber int, userID gametypes.UserID, allocation []int, now time.Time) error {
	return s.submitStrategyFunc(ctx, gameID, roundNumber, userID, allocation, now)
}

func (s *stubService) CancelGame(ctx context.Context, gameID gametypes.GameID, requestedBy gametypes.UserID) error {
	return s.cancelGameFunc(ctx, gameID, requestedBy)
}

func (s *stubService) ActiveGamesFor(context.Context, gametypes.UserID, time.Time) ([]gametypes.Game, error) {
	return nil, nil
}

func (s *stubService) ActiveRound(context.Context, gametypes.GameID, time.Time) (*gametypes.GameRound, error) {
	return nil, nil
}

type recordedEphemeral struct {
	ChannelID string
	UserID    gametypes.UserID
	Text      string
}

type recordedChannel struct {
	ChannelID string
	Text      string
	Meta      *gameevents.TriggerMetadata
}

type stubNotifier struct {
	channel   []recordedChannel
	ephemeral []recordedEphemeral
}

func (n *stubNotifier) PostChannel(_ context.Context, channelID, text string, meta *gameevents.TriggerMetadata) error {
	n.channel = append(n.channel, recordedChannel{ChannelID: channelID, Text: text, Meta: meta})
	return nil
}

func (n *stubNotifier) PostEphemeral(_ context.Context, channelID string, userID gametypes.UserID, text string) error {
	n.ephemeral = append(n.ephemeral, recordedEphemeral{ChannelID: channelID, UserID: userID, Text: text})
	return nil
}

func newHandlerFixture(svc *stubService) (*GameHandlers, *stubNotifier) {
	notifier := &stubNotifier{}
	h := NewGameHandlers(svc, notifier, slog.New(slog.DiscardHandler)).
		WithClock(func() time.Time { return handlerNow })
	return h, notifier
}

func newTestMessage(t *testing.T, payload any) *message.Message {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshaling payload: %v", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(context.Background())
	return msg
}
