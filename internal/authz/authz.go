// Package authz holds the capability checks the booking and challenge
// engines run before mutating anything.
package authz

import (
	"futsal/pkg/auth"
	"futsal/pkg/model"
)

func IsPlayer(id auth.Identity) bool {
	return id.UserID != "" && id.IsPlayer()
}

func IsOwner(id auth.Identity) bool {
	return id.UserID != "" && id.IsOwner()
}

// HoldsBooking reports whether the caller is the booking's current player.
func HoldsBooking(id auth.Identity, b *model.Booking) bool {
	return IsPlayer(id) && b.PlayerID == id.UserID
}

func OwnsVenue(id auth.Identity, v *model.Venue) bool {
	return IsOwner(id) && v.OwnerID == id.UserID
}

func IsChallenger(id auth.Identity, c *model.Challenge) bool {
	return IsPlayer(id) && c.ChallengerID == id.UserID
}

func IsAcceptor(id auth.Identity, c *model.Challenge) bool {
	return IsPlayer(id) && c.AcceptedBy != "" && c.AcceptedBy == id.UserID
}

// MayAccept: any player except the challenger, the player already holding
// the booking, and anyone who previously cancelled an acceptance of it.
func MayAccept(id auth.Identity, c *model.Challenge, b *model.Booking) bool {
	if !IsPlayer(id) || IsChallenger(id, c) || c.CancelledByPlayer(id.UserID) {
		return false
	}
	return b == nil || b.PlayerID != id.UserID
}
