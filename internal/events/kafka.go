package events

import (
	"context"

	"futsal/pkg/kafka"
	"futsal/pkg/logger"
	"futsal/pkg/middleware"
	"futsal/pkg/model"
)

// Sender is satisfied by *kafka.Producer.
type Sender interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type kafkaPublisher struct {
	events        Sender
	inconsistency Sender
	source        string
	log           *logger.Logger
}

// NewKafkaPublisher sends domain events to events and violations to
// inconsistency, keyed by the aggregate id so per-entity order is kept.
func NewKafkaPublisher(events, inconsistency Sender, source string, log *logger.Logger) Publisher {
	return &kafkaPublisher{
		events:        events,
		inconsistency: inconsistency,
		source:        source,
		log:           log,
	}
}

func (p *kafkaPublisher) Booking(ctx context.Context, eventType, actorID string, b *model.Booking) {
	p.send(ctx, p.events, b.ID, eventType, NewBookingEvent(eventType, actorID, b))
}

func (p *kafkaPublisher) Challenge(ctx context.Context, eventType, actorID string, c *model.Challenge) {
	p.send(ctx, p.events, c.ID, eventType, NewChallengeEvent(eventType, actorID, c))
}

func (p *kafkaPublisher) Inconsistency(ctx context.Context, inc model.Inconsistency) {
	key := inc.SlotID
	if inc.BookingID != "" {
		key = inc.BookingID
	}
	if key == "" {
		key = inc.ChallengeID
	}
	p.send(ctx, p.inconsistency, key, ConsistencyViolation, inc)
}

func (p *kafkaPublisher) send(ctx context.Context, sender Sender, key, eventType string, payload any) {
	msg, err := kafka.NewMessage().
		WithKey(key).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(p.source).
		WithSchemaVersion(SchemaVersion).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		Build()
	if err != nil {
		p.log.Error("Failed to encode event", "event_type", eventType, "key", key, "error", err)
		return
	}

	// The request context may already be near its deadline; publishing
	// must not be cut short by the caller returning.
	if err := sender.Publish(context.WithoutCancel(ctx), msg); err != nil {
		p.log.Error("Failed to publish event",
			"event_type", eventType,
			"key", key,
			"event_id", msg.GetEventID(),
			"error", err,
		)
	}
}
