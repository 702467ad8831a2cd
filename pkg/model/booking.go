package model

import (
	"time"
)

type Booking struct {
	ID          string    `json:"id,omitempty" bson:"_id,omitempty"`
	VenueID     string    `json:"venue_id" bson:"venue_id"`
	PlayerID    string    `json:"player_id" bson:"player_id"`
	Date        time.Time `json:"date" bson:"date"`
	SlotID      string    `json:"slot_id" bson:"slot_id"`
	StartTime   string    `json:"start_time" bson:"start_time"`
	Status      string    `json:"status" bson:"status"`
	ChallengeID string    `json:"challenge_id,omitempty" bson:"challenge_id,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Active reports whether the booking still holds its slot.
func (b *Booking) Active() bool {
	return b.Status == BookingPending || b.Status == BookingConfirmed
}

type BookingRequest struct {
	VenueID   string `json:"venue_id" validate:"required,mongodb"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
}
