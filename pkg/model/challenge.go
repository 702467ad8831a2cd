package model

import (
	"slices"
	"time"
)

type Challenge struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	VenueID      string    `json:"venue_id" bson:"venue_id"`
	ChallengerID string    `json:"challenger_id" bson:"challenger_id"`
	BookingID    string    `json:"booking_id" bson:"booking_id"`
	Date         time.Time `json:"date" bson:"date"`
	Status       string    `json:"status" bson:"status"`
	AcceptedBy   string    `json:"accepted_by,omitempty" bson:"accepted_by,omitempty"`
	CancelledBy  []string  `json:"cancelled_by" bson:"cancelled_by"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Live reports whether the challenge still claims its booking's back-reference.
func (c *Challenge) Live() bool {
	return c.Status == ChallengePending || c.Status == ChallengeAccepted
}

func (c *Challenge) CancelledByPlayer(playerID string) bool {
	return slices.Contains(c.CancelledBy, playerID)
}

type ChallengeRequest struct {
	VenueID   string `json:"venue_id" validate:"required,mongodb"`
	BookingID string `json:"booking_id" validate:"required,mongodb"`
}
