package gameservice

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync"
	"testing"
	"time"

	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
	gamerules "github.com/blotto-league/blotto-bot/app/modules/game/domain/rules"
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
	gamedb "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/repositories"
)

// testBase is the fixed clock origin every test builds schedules around.
var testBase = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

type roundKey struct {
	gameID gametypes.GameID
	number int
}

// fakeGameDB is an in-memory GameDB with the same conditional-update
// semantics as the real store, so lifecycle tests exercise the exact guards
// the handlers rely on.
type fakeGameDB struct {
	mu           sync.Mutex
	nextGameID   gametypes.GameID
	nextSubID    int64
	games        map[gametypes.GameID]*gametypes.Game
	rounds       map[roundKey]*gametypes.GameRound
	participants map[gametypes.GameID]map[gametypes.UserID]bool
	submissions  []gametypes.Submission
	roundResults map[roundKey][]gametypes.RoundResult
	gameResults  map[gametypes.GameID][]gametypes.GameResult

	failNext map[string]error
}

var _ gamedb.GameDB = (*fakeGameDB)(nil)

func newFakeGameDB() *fakeGameDB {
	return &fakeGameDB{
		games:        make(map[gametypes.GameID]*gametypes.Game),
		rounds:       make(map[roundKey]*gametypes.GameRound),
		participants: make(map[gametypes.GameID]map[gametypes.UserID]bool),
		roundResults: make(map[roundKey][]gametypes.RoundResult),
		gameResults:  make(map[gametypes.GameID][]gametypes.GameResult),
		failNext:     make(map[string]error),
	}
}

func (f *fakeGameDB) fail(op string) error {
	if err, ok := f.failNext[op]; ok {
		delete(f.failNext, op)
		return err
	}
	return nil
}

func (f *fakeGameDB) CreateGameWithRounds(_ context.Context, game *gametypes.Game, rounds []gametypes.GameRound) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateGameWithRounds"); err != nil {
		return err
	}
	f.nextGameID++
	game.ID = f.nextGameID
	stored := *game
	f.games[game.ID] = &stored
	f.participants[game.ID] = make(map[gametypes.UserID]bool)
	for i := range rounds {
		rounds[i].GameID = game.ID
		r := rounds[i]
		f.rounds[roundKey{game.ID, r.Number}] = &r
	}
	return nil
}

func (f *fakeGameDB) GetGame(_ context.Context, id gametypes.GameID) (*gametypes.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("GetGame"); err != nil {
		return nil, err
	}
	g, ok := f.games[id]
	if !ok {
		return nil, gamedb.ErrNotFound
	}
	out := *g
	return &out, nil
}

func (f *fakeGameDB) SetAnnouncement(_ context.Context, id gametypes.GameID, channelID, messageRef string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok {
		return gamedb.ErrNotFound
	}
	g.AnnouncementChannel = channelID
	g.AnnouncementRef = messageRef
	return nil
}

func (f *fakeGameDB) UpdateGameState(_ context.Context, id gametypes.GameID, from, to gametypes.GameState) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("UpdateGameState"); err != nil {
		return false, err
	}
	g, ok := f.games[id]
	if !ok || g.State != from {
		return false, nil
	}
	g.State = to
	return true, nil
}

func (f *fakeGameDB) AdvanceCurrentRound(_ context.Context, id gametypes.GameID, from, to int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	g, ok := f.games[id]
	if !ok || g.CurrentRound != from {
		return false, nil
	}
	g.CurrentRound = to
	return true, nil
}

func (f *fakeGameDB) CancelGame(_ context.Context, id gametypes.GameID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CancelGame"); err != nil {
		return err
	}
	g, ok := f.games[id]
	if !ok {
		return gamedb.ErrNotFound
	}
	g.Canceled = true
	g.State = gametypes.GameStateCanceled
	for key, r := range f.rounds {
		if key.gameID == id {
			r.Canceled = true
		}
	}
	return nil
}

func (f *fakeGameDB) GetRound(_ context.Context, gameID gametypes.GameID, number int) (*gametypes.GameRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rounds[roundKey{gameID, number}]
	if !ok {
		return nil, gamedb.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (f *fakeGameDB) ActiveRound(_ context.Context, gameID gametypes.GameID, now time.Time) (*gametypes.GameRound, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, r := range f.rounds {
		if key.gameID == gameID && r.Open(now) {
			out := *r
			return &out, nil
		}
	}
	return nil, gamedb.ErrNotFound
}

func (f *fakeGameDB) CreateParticipant(_ context.Context, gameID gametypes.GameID, userID gametypes.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateParticipant"); err != nil {
		return err
	}
	set, ok := f.participants[gameID]
	if !ok {
		set = make(map[gametypes.UserID]bool)
		f.participants[gameID] = set
	}
	if set[userID] {
		return gamedb.ErrAlreadyExists
	}
	set[userID] = true
	return nil
}

func (f *fakeGameDB) DeleteParticipant(_ context.Context, gameID gametypes.GameID, userID gametypes.UserID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.participants[gameID]
	if !set[userID] {
		return gamedb.ErrNotFound
	}
	delete(set, userID)
	return nil
}

func (f *fakeGameDB) HasParticipant(_ context.Context, gameID gametypes.GameID, userID gametypes.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.participants[gameID][userID], nil
}

func (f *fakeGameDB) CountParticipants(_ context.Context, gameID gametypes.GameID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.participants[gameID]), nil
}

func (f *fakeGameDB) CreateSubmissions(_ context.Context, submissions []gametypes.Submission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("CreateSubmissions"); err != nil {
		return err
	}
	for _, s := range submissions {
		f.nextSubID++
		s.ID = f.nextSubID
		f.submissions = append(f.submissions, s)
	}
	return nil
}

func (f *fakeGameDB) LatestSubmissions(_ context.Context, gameID gametypes.GameID, roundNumber, fields int) (map[gametypes.UserID][]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make([]gametypes.Submission, 0)
	for _, s := range f.submissions {
		if s.GameID == gameID && s.RoundNumber == roundNumber {
			rows = append(rows, s)
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].SubmittedAt.Equal(rows[j].SubmittedAt) {
			return rows[i].SubmittedAt.Before(rows[j].SubmittedAt)
		}
		return rows[i].ID < rows[j].ID
	})

	out := make(map[gametypes.UserID][]int)
	latest := make(map[gametypes.UserID]time.Time)
	for _, s := range rows {
		if last, ok := latest[s.UserID]; !ok || s.SubmittedAt.After(last) {
			out[s.UserID] = make([]int, fields)
			latest[s.UserID] = s.SubmittedAt
		}
		if s.Field < fields {
			out[s.UserID][s.Field] = s.Soldiers
		}
	}
	return out, nil
}

func (f *fakeGameDB) HasRoundResults(_ context.Context, gameID gametypes.GameID, roundNumber int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.roundResults[roundKey{gameID, roundNumber}]) > 0, nil
}

func (f *fakeGameDB) ReplaceRoundResults(_ context.Context, gameID gametypes.GameID, roundNumber int, results []gametypes.RoundResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail("ReplaceRoundResults"); err != nil {
		return err
	}
	f.roundResults[roundKey{gameID, roundNumber}] = append([]gametypes.RoundResult(nil), results...)
	return nil
}

func (f *fakeGameDB) RoundResults(_ context.Context, gameID gametypes.GameID, roundNumber int) ([]gametypes.RoundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gametypes.RoundResult(nil), f.roundResults[roundKey{gameID, roundNumber}]...), nil
}

func (f *fakeGameDB) RoundResultsForGame(_ context.Context, gameID gametypes.GameID) ([]gametypes.RoundResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]roundKey, 0)
	for key := range f.roundResults {
		if key.gameID == gameID {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].number < keys[j].number })
	out := make([]gametypes.RoundResult, 0)
	for _, key := range keys {
		out = append(out, f.roundResults[key]...)
	}
	return out, nil
}

func (f *fakeGameDB) ReplaceGameResults(_ context.Context, gameID gametypes.GameID, results []gametypes.GameResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gameResults[gameID] = append([]gametypes.GameResult(nil), results...)
	return nil
}

func (f *fakeGameDB) GameResults(_ context.Context, gameID gametypes.GameID) ([]gametypes.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]gametypes.GameResult(nil), f.gameResults[gameID]...), nil
}

func (f *fakeGameDB) ActiveGamesFor(_ context.Context, userID gametypes.UserID, now time.Time) ([]gametypes.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]gametypes.Game, 0)
	for _, g := range f.games {
		if g.Canceled || !f.participants[g.ID][userID] {
			continue
		}
		if !now.Before(g.Start) && now.Before(g.End) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type channelPost struct {
	ChannelID string
	Text      string
	Meta      *gameevents.TriggerMetadata
}

type ephemeralPost struct {
	ChannelID string
	UserID    gametypes.UserID
	Text      string
}

// fakeNotifier records posts so tests can assert on announcement content and
// trigger metadata.
type fakeNotifier struct {
	mu        sync.Mutex
	channel   []channelPost
	ephemeral []ephemeralPost
	postErr   error
}

func (n *fakeNotifier) PostChannel(_ context.Context, channelID, text string, meta *gameevents.TriggerMetadata) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.postErr != nil {
		return n.postErr
	}
	n.channel = append(n.channel, channelPost{ChannelID: channelID, Text: text, Meta: meta})
	return nil
}

func (n *fakeNotifier) PostEphemeral(_ context.Context, channelID string, userID gametypes.UserID, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ephemeral = append(n.ephemeral, ephemeralPost{ChannelID: channelID, UserID: userID, Text: text})
	return nil
}

type scheduledTrigger struct {
	Kind        string
	GameID      gametypes.GameID
	RoundNumber int
	At          time.Time
}

type fakeScheduler struct {
	mu        sync.Mutex
	scheduled []scheduledTrigger
	canceled  []gametypes.GameID
	schedErr  error
	cancelErr error
}

func (s *fakeScheduler) ScheduleGameStart(_ context.Context, gameID gametypes.GameID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedErr != nil {
		return s.schedErr
	}
	s.scheduled = append(s.scheduled, scheduledTrigger{Kind: "game_start", GameID: gameID, At: at})
	return nil
}

func (s *fakeScheduler) ScheduleRoundEnd(_ context.Context, gameID gametypes.GameID, roundNumber int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.schedErr != nil {
		return s.schedErr
	}
	s.scheduled = append(s.scheduled, scheduledTrigger{Kind: "round_end", GameID: gameID, RoundNumber: roundNumber, At: at})
	return nil
}

func (s *fakeScheduler) CancelGameJobs(_ context.Context, gameID gametypes.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancelErr != nil {
		return s.cancelErr
	}
	s.canceled = append(s.canceled, gameID)
	return nil
}

type serviceFixture struct {
	svc       *GameService
	db        *fakeGameDB
	notifier  *fakeNotifier
	scheduler *fakeScheduler
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db := newFakeGameDB()
	notifier := &fakeNotifier{}
	scheduler := &fakeScheduler{}
	svc := NewGameService(db, gamerules.NewRegistry(), notifier, scheduler, slog.New(slog.DiscardHandler)).
		WithClock(func() time.Time { return testBase }).
		WithRand(rand.New(rand.NewPCG(7, 11)))
	return &serviceFixture{svc: svc, db: db, notifier: notifier, scheduler: scheduler}
}

// seedGame plants a game and its rounds directly in the store, bypassing
// CreateGame so lifecycle tests control every field.
func (fx *serviceFixture) seedGame(t *testing.T, game gametypes.Game, rounds ...gametypes.GameRound) gametypes.GameID {
	t.Helper()
	fx.db.mu.Lock()
	defer fx.db.mu.Unlock()
	fx.db.nextGameID++
	game.ID = fx.db.nextGameID
	stored := game
	fx.db.games[game.ID] = &stored
	if _, ok := fx.db.participants[game.ID]; !ok {
		fx.db.participants[game.ID] = make(map[gametypes.UserID]bool)
	}
	for _, r := range rounds {
		r.GameID = game.ID
		stored := r
		fx.db.rounds[roundKey{game.ID, r.Number}] = &stored
	}
	return game.ID
}

func (fx *serviceFixture) addParticipants(t *testing.T, gameID gametypes.GameID, users ...gametypes.UserID) {
	t.Helper()
	for _, u := range users {
		if err := fx.db.CreateParticipant(context.Background(), gameID, u); err != nil {
			t.Fatalf("seeding participant %s: %v", u, err)
		}
	}
}

// decreasingGame builds a standard two-round fixture used across lifecycle
// tests: signups close at testBase, each round lasts an hour.
func decreasingGame(numRounds int) (gametypes.Game, []gametypes.GameRound) {
	game := gametypes.Game{
		Admin:               "UADMIN",
		Start:               testBase,
		End:                 testBase.Add(time.Duration(numRounds) * time.Hour),
		NumRounds:           numRounds,
		RoundLength:         time.Hour,
		AnnouncementChannel: "C123",
		AnnouncementRef:     "1650000000.000100",
		State:               gametypes.GameStateAnnounced,
	}
	rounds := make([]gametypes.GameRound, numRounds)
	for i := range rounds {
		rounds[i] = gametypes.GameRound{
			Number:   i + 1,
			RuleID:   gamerules.RuleIDDecreasingSoldiers,
			Start:    testBase.Add(time.Duration(i) * time.Hour),
			End:      testBase.Add(time.Duration(i+1) * time.Hour),
			Fields:   4,
			Soldiers: 50,
		}
	}
	return game, rounds
}

func submitAt(t *testing.T, fx *serviceFixture, gameID gametypes.GameID, round int, user gametypes.UserID, alloc []int, at time.Time) {
	t.Helper()
	subs := make([]gametypes.Submission, len(alloc))
	for i, soldiers := range alloc {
		subs[i] = gametypes.Submission{
			GameID:      gameID,
			UserID:      user,
			RoundNumber: round,
			Field:       i,
			Soldiers:    soldiers,
			SubmittedAt: at,
		}
	}
	if err := fx.db.CreateSubmissions(context.Background(), subs); err != nil {
		t.Fatalf("seeding submission for %s: %v", user, err)
	}
}

func errOp(op string) error { return fmt.Errorf("%s blew up", op) }
