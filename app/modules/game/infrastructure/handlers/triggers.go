package gamehandlers

import (
	"errors"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	gameservice "github.com/blotto-league/blotto-bot/app/modules/game/application"
	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
)

// HandleGameStart processes the signup-close trigger. Redeliveries are safe:
// the service re-reads state and no-ops when the work is already done.
func (h *GameHandlers) HandleGameStart(msg *message.Message) error {
	ctx := msg.Context()

	var payload gameevents.GameStartPayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		return h.dropMalformed(msg, gameevents.TopicGameStart, err)
	}

	err := h.service.ProcessGameStart(ctx, payload.GameID)
	if errors.Is(err, gameservice.ErrGameNotFound) {
		h.logger.ErrorContext(ctx, "Game start trigger for unknown game, dropping",
			slog.Int64("game_id", int64(payload.GameID)))
		return nil
	}
	return err
}

// HandleRoundEnd processes a round's submission-close trigger.
func (h *GameHandlers) HandleRoundEnd(msg *message.Message) error {
	ctx := msg.Context()

	var payload gameevents.RoundEndPayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		return h.dropMalformed(msg, gameevents.TopicRoundEnd, err)
	}

	err := h.service.ProcessRoundEnd(ctx, payload.GameID, payload.RoundNumber)
	if errors.Is(err, gameservice.ErrGameNotFound) {
		h.logger.ErrorContext(ctx, "Round end trigger for unknown game, dropping",
			slog.Int64("game_id", int64(payload.GameID)),
			slog.Int("round_number", payload.RoundNumber),
		)
		return nil
	}
	return err
}
