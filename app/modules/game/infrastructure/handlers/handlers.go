package gamehandlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	gameservice "github.com/blotto-league/blotto-bot/app/modules/game/application"
)

// GameHandlers consumes the game module's inbound topics. Recoverable domain
// errors become ephemeral replies and the message is acked; anything else is
// returned so the message is redelivered.
type GameHandlers struct {
	service  gameservice.Service
	notifier gameservice.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

var _ Handlers = (*GameHandlers)(nil)

// NewGameHandlers creates a new GameHandlers.
func NewGameHandlers(service gameservice.Service, notifier gameservice.Notifier, logger *slog.Logger) *GameHandlers {
	return &GameHandlers{
		service:  service,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the handler clock. Used by tests.
func (h *GameHandlers) WithClock(now func() time.Time) *GameHandlers {
	h.now = now
	return h
}

// unmarshalPayload decodes a message body. A body that does not decode can
// never succeed on redelivery, so callers drop the message instead of
// returning the error.
func unmarshalPayload(msg *message.Message, out any) error {
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}
	return nil
}

func (h *GameHandlers) dropMalformed(msg *message.Message, topic string, err error) error {
	h.logger.Error("Dropping malformed message",
		slog.String("topic", topic),
		slog.String("message_id", msg.UUID),
		slog.Any("error", err),
	)
	return nil
}
