package gameevents

import (
	"time"

	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// Inbound topics: requests from the chat gateway plus the two self-scheduled
// trigger kinds fired by the delayed-job queue.
const (
	TopicCreateGameRequest = "game.create.request"
	TopicGameAnnounced     = "game.announced"
	TopicSignupRequest     = "game.signup.request"
	TopicWithdrawRequest   = "game.withdraw.request"
	TopicSubmissionRequest = "game.submission.request"
	TopicCancelRequest     = "game.cancel.request"
	TopicGameStart         = "game.start"
	TopicRoundEnd          = "round.end"
)

// Outbound topics consumed by the chat gateway.
const (
	TopicChannelNotification   = "notification.channel"
	TopicEphemeralNotification = "notification.ephemeral"
)

// EventType tags an outbound channel message so a future trigger can be
// routed back into the lifecycle. These values are the wire contract with
// the gateway and must round-trip exactly.
type EventType string

const (
	EventGameAnnounced EventType = "game_announced"
	EventGameStart     EventType = "game_start"
	EventRoundStart    EventType = "round_start"
	EventRoundEnd      EventType = "round_end"
	EventGameEnd       EventType = "game_end"
)

// TriggerPayload carries the identifiers a trigger needs to find its game.
// Game identity travels only here, never in message text.
type TriggerPayload struct {
	GameID      gametypes.GameID `json:"game_id"`
	RoundNumber int              `json:"round_number,omitempty"`
	ChannelID   string           `json:"channel_id,omitempty"`
}

// TriggerMetadata is the structured metadata attached to lifecycle-advancing
// channel messages.
type TriggerMetadata struct {
	EventType    EventType      `json:"event_type"`
	EventPayload TriggerPayload `json:"event_payload"`
}

// CreateGamePayload asks for a new game with the admin's parameters.
type CreateGamePayload struct {
	AdminID     gametypes.UserID `json:"admin_id"`
	NumRounds   int              `json:"num_rounds"`
	RoundLength time.Duration    `json:"round_length"`
	SignupClose time.Time        `json:"signup_close"`
	ChannelID   string           `json:"channel_id"`
}

// GameAnnouncedPayload is the gateway's acknowledgement of the announcement
// post, carrying the message reference to store on the game.
type GameAnnouncedPayload struct {
	GameID     gametypes.GameID `json:"game_id"`
	ChannelID  string           `json:"channel_id"`
	MessageRef string           `json:"message_ref"`
}

// SignupPayload covers both signup and withdrawal toggles.
type SignupPayload struct {
	GameID    gametypes.GameID `json:"game_id"`
	UserID    gametypes.UserID `json:"user_id"`
	ChannelID string           `json:"channel_id"`
}

// SubmissionPayload is a user's proposed allocation for a round.
type SubmissionPayload struct {
	GameID      gametypes.GameID `json:"game_id"`
	RoundNumber int              `json:"round_number"`
	UserID      gametypes.UserID `json:"user_id"`
	Allocation  []int            `json:"allocation"`
	ChannelID   string           `json:"channel_id"`
}

// CancelGamePayload is an admin's request to cancel a game before it starts.
type CancelGamePayload struct {
	GameID      gametypes.GameID `json:"game_id"`
	RequestedBy gametypes.UserID `json:"requested_by"`
	ChannelID   string           `json:"channel_id"`
}

// GameStartPayload fires when a game's signup window closes.
type GameStartPayload struct {
	GameID gametypes.GameID `json:"game_id"`
}

// RoundEndPayload fires when a round's submission window closes.
type RoundEndPayload struct {
	GameID      gametypes.GameID `json:"game_id"`
	RoundNumber int              `json:"round_number"`
}

// ChannelNotificationPayload is an outbound channel post. Metadata is set on
// lifecycle-advancing messages and round-trips through the gateway.
type ChannelNotificationPayload struct {
	ChannelID string           `json:"channel_id"`
	Text      string           `json:"text"`
	Metadata  *TriggerMetadata `json:"metadata,omitempty"`
}

// EphemeralNotificationPayload is an outbound message visible to one user.
type EphemeralNotificationPayload struct {
	ChannelID string           `json:"channel_id"`
	UserID    gametypes.UserID `json:"user_id"`
	Text      string           `json:"text"`
}
