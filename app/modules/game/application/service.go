package gameservice

import (
	"log/slog"
	"math/rand/v2"
	"time"

	gamerules "github.com/blotto-league/blotto-bot/app/modules/game/domain/rules"
	gamedb "github.com/blotto-league/blotto-bot/app/modules/game/infrastructure/repositories"
)

// GameService drives the game lifecycle. It holds no game state between
// invocations: every handler re-fetches current state from the store, which
// is the single source of truth.
type GameService struct {
	GameDB    gamedb.GameDB
	registry  *gamerules.Registry
	notifier  Notifier
	scheduler Scheduler
	logger    *slog.Logger
	rng       *rand.Rand
	now       func() time.Time
}

var _ Service = (*GameService)(nil)

// NewGameService creates a GameService.
func NewGameService(db gamedb.GameDB, registry *gamerules.Registry, notifier Notifier, scheduler Scheduler, logger *slog.Logger) *GameService {
	return &GameService{
		GameDB:    db,
		registry:  registry,
		notifier:  notifier,
		scheduler: scheduler,
		logger:    logger,
		rng:       rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Used by tests.
func (s *GameService) WithClock(now func() time.Time) *GameService {
	s.now = now
	return s
}

// WithRand overrides the rule-selection source. Used by tests.
func (s *GameService) WithRand(rng *rand.Rand) *GameService {
	s.rng = rng
	return s
}
