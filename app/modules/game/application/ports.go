package gameservice

import (
	"context"
	"time"

	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// Notifier is the outbound chat port. Posts are best-effort: the store is
// mutated first, so a failed post leaves the game in a retry-safe state and
// a repeated post is a lesser failure than a stuck state machine.
type Notifier interface {
	// PostChannel publishes a channel message; meta is attached to
	// lifecycle-advancing posts and must round-trip through the gateway.
	PostChannel(ctx context.Context, channelID, text string, meta *gameevents.TriggerMetadata) error
	// PostEphemeral sends a message visible to a single user.
	PostEphemeral(ctx context.Context, channelID string, userID gametypes.UserID, text string) error
}

// Scheduler is the delayed-trigger port. Scheduling the same trigger twice
// must collapse into one delivery; canceling is best-effort because every
// trigger handler re-checks the canceled flag anyway.
type Scheduler interface {
	ScheduleGameStart(ctx context.Context, gameID gametypes.GameID, at time.Time) error
	ScheduleRoundEnd(ctx context.Context, gameID gametypes.GameID, roundNumber int, at time.Time) error
	CancelGameJobs(ctx context.Context, gameID gametypes.GameID) error
}
