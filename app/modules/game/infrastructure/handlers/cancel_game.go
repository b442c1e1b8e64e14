package gamehandlers

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	gameservice "github.com/blotto-league/blotto-bot/app/modules/game/application"
	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
)

// HandleCancelGameRequest cancels a game on the admin's request. Success is
// announced to the whole channel; refusals go back to the requester alone.
func (h *GameHandlers) HandleCancelGameRequest(msg *message.Message) error {
	ctx := msg.Context()

	var payload gameevents.CancelGamePayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		return h.dropMalformed(msg, gameevents.TopicCancelRequest, err)
	}

	err := h.service.CancelGame(ctx, payload.GameID, payload.RequestedBy)
	if err == nil {
		return h.notifier.PostChannel(ctx, payload.ChannelID, gameCanceledMessage(payload.GameID), nil)
	}

	var reply string
	switch {
	case errors.Is(err, gameservice.ErrNotGameAdmin):
		reply = notAdminMessage
	case errors.Is(err, gameservice.ErrGameAlreadyStarted):
		reply = cancelTooLateMessage
	case errors.Is(err, gameservice.ErrGameCanceled):
		reply = gameCanceledMessage(payload.GameID)
	case errors.Is(err, gameservice.ErrGameNotFound):
		reply = unknownGameMessage(payload.GameID)
	default:
		return err
	}

	return h.notifier.PostEphemeral(ctx, payload.ChannelID, payload.RequestedBy, reply)
}
