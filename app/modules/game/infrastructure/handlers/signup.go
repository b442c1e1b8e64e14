package gamehandlers

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	gameservice "github.com/blotto-league/blotto-bot/app/modules/game/application"
	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
)

// HandleSignupRequest enrolls a user and confirms with an ephemeral reply.
func (h *GameHandlers) HandleSignupRequest(msg *message.Message) error {
	ctx := msg.Context()

	var payload gameevents.SignupPayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		return h.dropMalformed(msg, gameevents.TopicSignupRequest, err)
	}

	game, err := h.service.Signup(ctx, payload.GameID, payload.UserID, h.now())

	var reply string
	switch {
	case err == nil:
		reply = signupSuccessMessage(game.ID, game.Start)
	case errors.Is(err, gameservice.ErrAlreadySignedUp):
		reply = signupDuplicateMessage(payload.GameID)
	case errors.Is(err, gameservice.ErrSignupClosed):
		reply = signupClosedMessage
	case errors.Is(err, gameservice.ErrGameCanceled):
		reply = gameCanceledMessage(payload.GameID)
	case errors.Is(err, gameservice.ErrGameNotFound):
		reply = unknownGameMessage(payload.GameID)
	default:
		return err
	}

	return h.notifier.PostEphemeral(ctx, payload.ChannelID, payload.UserID, reply)
}

// HandleWithdrawRequest removes a user's signup.
func (h *GameHandlers) HandleWithdrawRequest(msg *message.Message) error {
	ctx := msg.Context()

	var payload gameevents.SignupPayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		return h.dropMalformed(msg, gameevents.TopicWithdrawRequest, err)
	}

	err := h.service.Withdraw(ctx, payload.GameID, payload.UserID)

	var reply string
	switch {
	case err == nil:
		reply = withdrawSuccessMessage(payload.GameID)
	case errors.Is(err, gameservice.ErrNotSignedUp):
		reply = withdrawNotSignedUpMessage(payload.GameID)
	case errors.Is(err, gameservice.ErrGameAlreadyStarted):
		reply = withdrawClosedMessage
	case errors.Is(err, gameservice.ErrGameCanceled):
		reply = gameCanceledMessage(payload.GameID)
	case errors.Is(err, gameservice.ErrGameNotFound):
		reply = unknownGameMessage(payload.GameID)
	default:
		return err
	}

	return h.notifier.PostEphemeral(ctx, payload.ChannelID, payload.UserID, reply)
}
