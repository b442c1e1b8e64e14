package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	wnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/google/uuid"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventBus is the messaging surface the rest of the application sees: a
// watermill publisher/subscriber pair over NATS JetStream plus a JSON
// convenience publisher for typed payloads.
type EventBus interface {
	Publisher() message.Publisher
	Subscriber() message.Subscriber
	// PublishJSON marshals the payload and publishes it on the topic.
	PublishJSON(ctx context.Context, topic string, payload any) error
	Close() error
}

type eventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	js         jetstream.JetStream
	natsConn   *nc.Conn
	logger     *slog.Logger
}

// NewEventBus connects to NATS, ensures the JetStream streams exist and
// builds the watermill publisher and subscriber on top of the connection.
func NewEventBus(ctx context.Context, natsURL string, logger *slog.Logger) (EventBus, error) {
	natsConn, err := nc.Connect(natsURL, nc.RetryOnFailedConnect(true))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	if err := initializeStreams(ctx, js, logger); err != nil {
		natsConn.Close()
		return nil, err
	}

	watermillLogger := watermill.NewSlogLogger(logger)
	marshaller := &wnats.NATSMarshaler{}

	publisher, err := wnats.NewPublisher(
		wnats.PublisherConfig{
			URL:       natsURL,
			Marshaler: marshaller,
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
			},
		},
		watermillLogger,
	)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to create watermill publisher: %w", err)
	}

	subscriber, err := wnats.NewSubscriber(
		wnats.SubscriberConfig{
			URL:         natsURL,
			Unmarshaler: marshaller,
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
			},
		},
		watermillLogger,
	)
	if err != nil {
		publisher.Close()
		natsConn.Close()
		return nil, fmt.Errorf("failed to create watermill subscriber: %w", err)
	}

	return &eventBus{
		publisher:  publisher,
		subscriber: subscriber,
		js:         js,
		natsConn:   natsConn,
		logger:     logger,
	}, nil
}

func (eb *eventBus) Publisher() message.Publisher   { return eb.publisher }
func (eb *eventBus) Subscriber() message.Subscriber { return eb.subscriber }

func (eb *eventBus) PublishJSON(ctx context.Context, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	// Initiating messages get a fresh correlation ID; the router middleware
	// propagates it to everything published downstream.
	middleware.SetCorrelationID(uuid.NewString(), msg)

	eb.logger.DebugContext(ctx, "Publishing message",
		slog.String("topic", topic),
		slog.String("message_id", msg.UUID),
	)

	if err := eb.publisher.Publish(topic, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Close releases the watermill endpoints and the underlying NATS connection.
func (eb *eventBus) Close() error {
	if err := eb.publisher.Close(); err != nil {
		eb.logger.Error("Error closing publisher", slog.Any("error", err))
	}
	if err := eb.subscriber.Close(); err != nil {
		eb.logger.Error("Error closing subscriber", slog.Any("error", err))
	}
	eb.natsConn.Close()
	return nil
}
