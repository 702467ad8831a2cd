package model

import "time"

const (
	InconsistencyOrphanReservation = "orphan_reservation"
	InconsistencyDanglingChallenge = "dangling_challenge"
	InconsistencyBrokenTransfer    = "broken_transfer"
	InconsistencyStaleBackRef      = "stale_back_reference"
)

// Inconsistency describes a multi-record write sequence whose secondary
// write failed after the primary one committed.
type Inconsistency struct {
	Kind        string    `json:"kind"`
	Operation   string    `json:"operation"`
	SlotID      string    `json:"slot_id,omitempty"`
	BookingID   string    `json:"booking_id,omitempty"`
	ChallengeID string    `json:"challenge_id,omitempty"`
	Cause       string    `json:"cause"`
	DetectedAt  time.Time `json:"detected_at"`
}

func (i Inconsistency) Details() map[string]any {
	d := map[string]any{"kind": i.Kind, "operation": i.Operation}
	if i.SlotID != "" {
		d["slot_id"] = i.SlotID
	}
	if i.BookingID != "" {
		d["booking_id"] = i.BookingID
	}
	if i.ChallengeID != "" {
		d["challenge_id"] = i.ChallengeID
	}
	return d
}
