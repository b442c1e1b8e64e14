package gamehandlers

import (
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	gameservice "github.com/blotto-league/blotto-bot/app/modules/game/application"
	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
)

// HandleSubmissionRequest validates and stores a strategy, replying to the
// user either way. Validation failures are terminal for this message: the
// user resubmits a corrected strategy, the gateway does not retry.
func (h *GameHandlers) HandleSubmissionRequest(msg *message.Message) error {
	ctx := msg.Context()

	var payload gameevents.SubmissionPayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		return h.dropMalformed(msg, gameevents.TopicSubmissionRequest, err)
	}

	err := h.service.SubmitStrategy(ctx, payload.GameID, payload.RoundNumber, payload.UserID, payload.Allocation, h.now())

	var reply string
	var verr *gameservice.ValidationErrors
	switch {
	case err == nil:
		reply = submissionAcceptedMessage
	case errors.As(err, &verr):
		reply = submissionRejectedMessage(verr.Error())
	case errors.Is(err, gameservice.ErrNotParticipant):
		reply = notParticipantMessage
	case errors.Is(err, gameservice.ErrSubmissionClosed), errors.Is(err, gameservice.ErrRoundNotFound):
		reply = submissionClosedMessage
	case errors.Is(err, gameservice.ErrGameCanceled):
		reply = gameCanceledMessage(payload.GameID)
	case errors.Is(err, gameservice.ErrGameNotFound):
		reply = unknownGameMessage(payload.GameID)
	default:
		return err
	}

	return h.notifier.PostEphemeral(ctx, payload.ChannelID, payload.UserID, reply)
}
