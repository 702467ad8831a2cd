package authz

import (
	"testing"

	"futsal/pkg/auth"
	"futsal/pkg/model"
)

var (
	alice = auth.Identity{UserID: "alice", Role: auth.RolePlayer}
	bob   = auth.Identity{UserID: "bob", Role: auth.RolePlayer}
	carol = auth.Identity{UserID: "carol", Role: auth.RolePlayer}
	dave  = auth.Identity{UserID: "dave", Role: auth.RolePlayer}
	owner = auth.Identity{UserID: "owner", Role: auth.RoleOwner}
)

func TestRolePredicates(t *testing.T) {
	if !IsPlayer(alice) || IsPlayer(owner) || IsPlayer(auth.Identity{Role: auth.RolePlayer}) {
		t.Error("IsPlayer mismatch")
	}
	if !IsOwner(owner) || IsOwner(alice) {
		t.Error("IsOwner mismatch")
	}
}

func TestHoldsBookingAndOwnsVenue(t *testing.T) {
	b := &model.Booking{PlayerID: "alice"}
	if !HoldsBooking(alice, b) || HoldsBooking(bob, b) {
		t.Error("HoldsBooking mismatch")
	}
	if HoldsBooking(auth.Identity{UserID: "alice", Role: auth.RoleOwner}, b) {
		t.Error("an owner identity never holds a booking")
	}

	v := &model.Venue{OwnerID: "owner"}
	if !OwnsVenue(owner, v) || OwnsVenue(auth.Identity{UserID: "other", Role: auth.RoleOwner}, v) {
		t.Error("OwnsVenue mismatch")
	}
	if OwnsVenue(auth.Identity{UserID: "owner", Role: auth.RolePlayer}, v) {
		t.Error("player role must not own venues")
	}
}

func TestChallengePredicates(t *testing.T) {
	c := &model.Challenge{ChallengerID: "carol", AcceptedBy: "dave", CancelledBy: []string{"bob"}}
	b := &model.Booking{PlayerID: "alice"}

	if !IsChallenger(carol, c) || IsChallenger(dave, c) {
		t.Error("IsChallenger mismatch")
	}
	if !IsAcceptor(dave, c) || IsAcceptor(carol, c) {
		t.Error("IsAcceptor mismatch")
	}
	if IsAcceptor(dave, &model.Challenge{}) {
		t.Error("unaccepted challenge has no acceptor")
	}

	tests := []struct {
		name string
		id   auth.Identity
		want bool
	}{
		{"other player", dave, true},
		{"challenger", carol, false},
		{"previous canceller", bob, false},
		{"current holder", alice, false},
		{"owner", owner, false},
	}
	for _, tt := range tests {
		if got := MayAccept(tt.id, c, b); got != tt.want {
			t.Errorf("%s: MayAccept = %v, want %v", tt.name, got, tt.want)
		}
	}
}
