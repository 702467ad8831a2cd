// Package link keeps booking.challenge_id in step with the challenge that
// points at the booking.
package link

import (
	"context"

	"futsal/pkg/model"
)

type Action int

const (
	None Action = iota
	// Set: a live challenge whose booking has no back-reference.
	Set
	// Clear: a booking still pointing at a challenge that is no longer live.
	Clear
)

func (a Action) String() string {
	switch a {
	case Set:
		return "set"
	case Clear:
		return "clear"
	default:
		return "none"
	}
}

// Linker is the part of the booking store that writes the back-reference.
type Linker interface {
	SetChallenge(ctx context.Context, id, challengeID string) error
	ClearChallenge(ctx context.Context, id, challengeID string) (bool, error)
}

// Check decides what b's back-reference needs given challenge c. A
// booking pointing at a different challenge is left to that challenge.
func Check(c *model.Challenge, b *model.Booking) Action {
	if c == nil || b == nil || c.BookingID != b.ID {
		return None
	}
	switch {
	case c.Live() && b.Active() && b.ChallengeID == "":
		return Set
	case !c.Live() && b.ChallengeID == c.ID:
		return Clear
	}
	return None
}

// Repair applies Check. Both writes are conditional, so repeating it is safe.
func Repair(ctx context.Context, l Linker, c *model.Challenge, b *model.Booking) (Action, error) {
	action := Check(c, b)
	switch action {
	case Set:
		if err := l.SetChallenge(ctx, b.ID, c.ID); err != nil {
			return action, err
		}
		b.ChallengeID = c.ID
	case Clear:
		if _, err := l.ClearChallenge(ctx, b.ID, c.ID); err != nil {
			return action, err
		}
		b.ChallengeID = ""
	}
	return action, nil
}
