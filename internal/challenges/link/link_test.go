package link

import (
	"context"
	"testing"

	"futsal/internal/testutil"
	"futsal/pkg/model"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name string
		c    *model.Challenge
		b    *model.Booking
		want Action
	}{
		{
			name: "consistent live link",
			c:    &model.Challenge{ID: "c1", BookingID: "b1", Status: model.ChallengePending},
			b:    &model.Booking{ID: "b1", ChallengeID: "c1", Status: model.BookingConfirmed},
			want: None,
		},
		{
			name: "missing back-reference",
			c:    &model.Challenge{ID: "c1", BookingID: "b1", Status: model.ChallengePending},
			b:    &model.Booking{ID: "b1", Status: model.BookingConfirmed},
			want: Set,
		},
		{
			name: "missing back-reference on cancelled booking",
			c:    &model.Challenge{ID: "c1", BookingID: "b1", Status: model.ChallengePending},
			b:    &model.Booking{ID: "b1", Status: model.BookingCancelled},
			want: None,
		},
		{
			name: "stale back-reference",
			c:    &model.Challenge{ID: "c1", BookingID: "b1", Status: model.ChallengeCancelled},
			b:    &model.Booking{ID: "b1", ChallengeID: "c1", Status: model.BookingPending},
			want: Clear,
		},
		{
			name: "booking points at another challenge",
			c:    &model.Challenge{ID: "c1", BookingID: "b1", Status: model.ChallengePending},
			b:    &model.Booking{ID: "b1", ChallengeID: "c2", Status: model.BookingPending},
			want: None,
		},
		{
			name: "unrelated booking",
			c:    &model.Challenge{ID: "c1", BookingID: "b9", Status: model.ChallengePending},
			b:    &model.Booking{ID: "b1", Status: model.BookingPending},
			want: None,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Check(tt.c, tt.b); got != tt.want {
				t.Errorf("Check() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRepair(t *testing.T) {
	store := testutil.NewBookingStore()
	b := store.Put(model.Booking{Status: model.BookingPending, PlayerID: "alice"})
	c := &model.Challenge{ID: "c1", BookingID: b.ID, Status: model.ChallengePending}

	action, err := Repair(context.Background(), store, c, b)
	if err != nil || action != Set {
		t.Fatalf("Repair() = %v, %v; want set", action, err)
	}
	if got := store.Get(b.ID).ChallengeID; got != "c1" {
		t.Fatalf("expected back-reference c1, got %q", got)
	}

	c.Status = model.ChallengeCancelled
	action, err = Repair(context.Background(), store, c, b)
	if err != nil || action != Clear {
		t.Fatalf("Repair() = %v, %v; want clear", action, err)
	}
	if got := store.Get(b.ID).ChallengeID; got != "" {
		t.Errorf("expected cleared back-reference, got %q", got)
	}
}
