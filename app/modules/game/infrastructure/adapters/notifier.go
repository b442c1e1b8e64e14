package gameadapters

import (
	"context"

	"github.com/blotto-league/blotto-bot/app/eventbus"
	gameservice "github.com/blotto-league/blotto-bot/app/modules/game/application"
	gameevents "github.com/blotto-league/blotto-bot/app/modules/game/domain/events"
	gametypes "github.com/blotto-league/blotto-bot/app/modules/game/domain/types"
)

// EventBusNotifier publishes outbound chat notifications onto the event bus
// for the gateway to deliver. The engine never talks to the chat platform
// directly.
type EventBusNotifier struct {
	eventBus eventbus.EventBus
}

var _ gameservice.Notifier = (*EventBusNotifier)(nil)

// NewEventBusNotifier creates an EventBusNotifier.
func NewEventBusNotifier(eventBus eventbus.EventBus) *EventBusNotifier {
	return &EventBusNotifier{eventBus: eventBus}
}

func (n *EventBusNotifier) PostChannel(ctx context.Context, channelID, text string, meta *gameevents.TriggerMetadata) error {
	payload := gameevents.ChannelNotificationPayload{
		ChannelID: channelID,
		Text:      text,
		Metadata:  meta,
	}
	return n.eventBus.PublishJSON(ctx, gameevents.TopicChannelNotification, payload)
}

func (n *EventBusNotifier) PostEphemeral(ctx context.Context, channelID string, userID gametypes.UserID, text string) error {
	payload := gameevents.EphemeralNotificationPayload{
		ChannelID: channelID,
		UserID:    userID,
		Text:      text,
	}
	return n.eventBus.PublishJSON(ctx, gameevents.TopicEphemeralNotification, payload)
}
