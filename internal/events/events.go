// Package events publishes booking and challenge state changes and
// consistency violations.
package events

import (
	"context"
	"time"

	"futsal/pkg/model"
)

const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingRejected  = "booking.rejected"

	ChallengeCreated  = "challenge.created"
	ChallengeAccepted = "challenge.accepted"
	ChallengeReverted = "challenge.reverted"
	ChallengeRemoved  = "challenge.removed"

	ConsistencyViolation = "consistency.violation"
)

const SchemaVersion = "1"

type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   string    `json:"booking_id"`
	VenueID     string    `json:"venue_id"`
	PlayerID    string    `json:"player_id"`
	SlotID      string    `json:"slot_id"`
	Date        string    `json:"date"`
	StartTime   string    `json:"start_time"`
	Status      string    `json:"status"`
	ChallengeID string    `json:"challenge_id,omitempty"`
	ActorID     string    `json:"actor_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type ChallengeEvent struct {
	Type         string    `json:"type"`
	ChallengeID  string    `json:"challenge_id"`
	BookingID    string    `json:"booking_id"`
	VenueID      string    `json:"venue_id"`
	ChallengerID string    `json:"challenger_id"`
	AcceptedBy   string    `json:"accepted_by,omitempty"`
	Status       string    `json:"status"`
	ActorID      string    `json:"actor_id"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher never fails the calling operation: the state change has already
// committed, so delivery problems are logged by the implementation.
type Publisher interface {
	Booking(ctx context.Context, eventType, actorID string, b *model.Booking)
	Challenge(ctx context.Context, eventType, actorID string, c *model.Challenge)
	Inconsistency(ctx context.Context, inc model.Inconsistency)
}

func NewBookingEvent(eventType, actorID string, b *model.Booking) BookingEvent {
	return BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		VenueID:     b.VenueID,
		PlayerID:    b.PlayerID,
		SlotID:      b.SlotID,
		Date:        b.Date.UTC().Format(model.DateLayout),
		StartTime:   b.StartTime,
		Status:      b.Status,
		ChallengeID: b.ChallengeID,
		ActorID:     actorID,
		OccurredAt:  time.Now().UTC(),
	}
}

func NewChallengeEvent(eventType, actorID string, c *model.Challenge) ChallengeEvent {
	return ChallengeEvent{
		Type:         eventType,
		ChallengeID:  c.ID,
		BookingID:    c.BookingID,
		VenueID:      c.VenueID,
		ChallengerID: c.ChallengerID,
		AcceptedBy:   c.AcceptedBy,
		Status:       c.Status,
		ActorID:      actorID,
		OccurredAt:   time.Now().UTC(),
	}
}

type noopPublisher struct{}

// Noop discards every event. Used when EVENTS_ENABLED is false.
func Noop() Publisher { return noopPublisher{} }

func (noopPublisher) Booking(context.Context, string, string, *model.Booking)     {}
func (noopPublisher) Challenge(context.Context, string, string, *model.Challenge) {}
func (noopPublisher) Inconsistency(context.Context, model.Inconsistency)          {}
