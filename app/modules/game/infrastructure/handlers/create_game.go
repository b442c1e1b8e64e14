package gamehandlers

import (
	"errors"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	gameservice "github.com/blotto-league/blotto-bot/app/modules/game/application"
	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
)

// HandleCreateGameRequest creates a game from an admin's form submission.
// The service posts the channel announcement itself; this handler only
// reports validation problems back to the admin.
func (h *GameHandlers) HandleCreateGameRequest(msg *message.Message) error {
	ctx := msg.Context()

	var payload gameevents.CreateGamePayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		return h.dropMalformed(msg, gameevents.TopicCreateGameRequest, err)
	}

	game, err := h.service.CreateGame(ctx, gameservice.CreateGameParams{
		Admin:       payload.AdminID,
		NumRounds:   payload.NumRounds,
		RoundLength: payload.RoundLength,
		SignupClose: payload.SignupClose,
		ChannelID:   payload.ChannelID,
	})

	var verr *gameservice.ValidationErrors
	if errors.As(err, &verr) {
		return h.notifier.PostEphemeral(ctx, payload.ChannelID, payload.AdminID, createRejectedMessage(verr.Error()))
	}
	if err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "Game create request handled",
		slog.Int64("game_id", int64(game.ID)),
		slog.String("admin", string(payload.AdminID)),
	)
	return nil
}

// HandleGameAnnounced stores the gateway's announcement acknowledgement and
// schedules the signup-close trigger.
func (h *GameHandlers) HandleGameAnnounced(msg *message.Message) error {
	ctx := msg.Context()

	var payload gameevents.GameAnnouncedPayload
	if err := unmarshalPayload(msg, &payload); err != nil {
		return h.dropMalformed(msg, gameevents.TopicGameAnnounced, err)
	}

	err := h.service.RecordAnnouncement(ctx, payload.GameID, payload.ChannelID, payload.MessageRef)
	if errors.Is(err, gameservice.ErrGameNotFound) {
		// An ack for a game we never stored cannot resolve on retry.
		h.logger.ErrorContext(ctx, "Announcement ack for unknown game, dropping",
			slog.Int64("game_id", int64(payload.GameID)))
		return nil
	}
	return err
}
