package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"futsal/internal/bookings/validator"
	"futsal/internal/events"
	"futsal/internal/testutil"
	apperrors "futsal/pkg/errors"
	"futsal/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	owner   = "owner-1"
	day     = "2024-06-01"
	evening = "18:00"
)

func newService(w *testutil.World) BookingService {
	return NewBookingService(
		w.Bookings,
		w.Slots,
		w.Venues,
		validator.NewBookingValidator(w.Cfg.Log),
		w.Events,
		w.Cfg,
	)
}

func request(w *testutil.World, start string) *model.BookingRequest {
	return &model.BookingRequest{VenueID: w.Venue.ID, Date: day, StartTime: start}
}

func TestCreate_ReservesSlotAndWritesPendingBooking(t *testing.T) {
	w := testutil.NewWorld(owner)
	slotID := w.AddSlot(day, evening)
	svc := newService(w)

	b, err := svc.Create(context.Background(), testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)

	assert.Equal(t, model.BookingPending, b.Status)
	assert.Equal(t, "alice", b.PlayerID)
	assert.Equal(t, slotID, b.SlotID)
	assert.Equal(t, testutil.Date(day), b.Date)
	assert.True(t, w.Slots.Get(slotID).IsReserved)
	assert.Equal(t, []string{events.BookingCreated}, w.Events.Types())
}

func TestCreate_NormalizesRequestFields(t *testing.T) {
	w := testutil.NewWorld(owner)
	slotID := w.AddSlot(day, "09:00")
	svc := newService(w)

	req := &model.BookingRequest{VenueID: " " + w.Venue.ID + " ", Date: " " + day, StartTime: "9:00 "}
	b, err := svc.Create(context.Background(), testutil.Player("alice"), req)
	require.NoError(t, err)
	assert.Equal(t, slotID, b.SlotID)
}

func TestCreate_SecondPlayerGetsSlotUnavailable(t *testing.T) {
	w := testutil.NewWorld(owner)
	w.AddSlot(day, evening)
	svc := newService(w)

	_, err := svc.Create(context.Background(), testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), testutil.Player("bob"), request(w, evening))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeSlotUnavailable), "got %v", err)
}

func TestCreate_SamePlayerTwiceIsDuplicate(t *testing.T) {
	w := testutil.NewWorld(owner)
	w.AddSlot(day, evening)
	svc := newService(w)

	_, err := svc.Create(context.Background(), testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), testutil.Player("alice"), request(w, evening))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDuplicateBooking), "got %v", err)
}

func TestCreate_ConcurrentRequestsExactlyOneWins(t *testing.T) {
	w := testutil.NewWorld(owner)
	slotID := w.AddSlot(day, evening)
	svc := newService(w)

	const players = 32
	var wg sync.WaitGroup
	results := make([]error, players)
	for i := 0; i < players; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			player := testutil.Player(fmt.Sprintf("player-%d", i))
			_, results[i] = svc.Create(context.Background(), player, request(w, evening))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
			continue
		}
		assert.True(t, apperrors.HasCode(err, apperrors.CodeSlotUnavailable), "unexpected error %v", err)
	}
	assert.Equal(t, 1, wins)

	active, err := w.Bookings.FindActiveBySlot(context.Background(), slotID)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestCreate_RejectsInvalidRequests(t *testing.T) {
	w := testutil.NewWorld(owner)
	w.AddSlot(day, evening)
	svc := newService(w)

	tests := []struct {
		name string
		req  *model.BookingRequest
		code string
	}{
		{
			name: "off-boundary start time",
			req:  &model.BookingRequest{VenueID: w.Venue.ID, Date: day, StartTime: "18:30"},
			code: apperrors.CodeInvalidInput,
		},
		{
			name: "outside operating window",
			req:  &model.BookingRequest{VenueID: w.Venue.ID, Date: day, StartTime: "23:00"},
			code: apperrors.CodeInvalidInput,
		},
		{
			name: "no slot generated for that day",
			req:  &model.BookingRequest{VenueID: w.Venue.ID, Date: "2024-06-02", StartTime: evening},
			code: apperrors.CodeSlotUnavailable,
		},
		{
			name: "unknown venue",
			req:  &model.BookingRequest{VenueID: "507f1f77bcf86cd799439011", Date: day, StartTime: evening},
			code: apperrors.CodeNotFound,
		},
		{
			name: "malformed body",
			req:  &model.BookingRequest{VenueID: w.Venue.ID, Date: "June 1st", StartTime: evening},
			code: apperrors.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), testutil.Player("alice"), tt.req)
			assert.True(t, apperrors.HasCode(err, tt.code), "want %s, got %v", tt.code, err)
		})
	}
}

func TestCreate_OwnerCannotBook(t *testing.T) {
	w := testutil.NewWorld(owner)
	w.AddSlot(day, evening)

	_, err := newService(w).Create(context.Background(), testutil.Owner(owner), request(w, evening))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestCreate_BookingWriteFailureReleasesSlot(t *testing.T) {
	w := testutil.NewWorld(owner)
	slotID := w.AddSlot(day, evening)
	svc := newService(w)

	w.Bookings.FailOnce("Create", nil)
	_, err := svc.Create(context.Background(), testutil.Player("alice"), request(w, evening))
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInternal), "got %v", err)
	assert.False(t, w.Slots.Get(slotID).IsReserved, "compensation should free the slot")
	assert.Empty(t, w.Events.Violations())

	_, err = svc.Create(context.Background(), testutil.Player("bob"), request(w, evening))
	assert.NoError(t, err)
}

func TestCreate_FailedCompensationIsInconsistency(t *testing.T) {
	w := testutil.NewWorld(owner)
	slotID := w.AddSlot(day, evening)
	svc := newService(w)

	w.Bookings.FailOnce("Create", nil)
	w.Slots.FailOnce("Release", nil)
	_, err := svc.Create(context.Background(), testutil.Player("alice"), request(w, evening))

	require.True(t, apperrors.HasCode(err, apperrors.CodeInconsistency), "got %v", err)
	assert.Equal(t, slotID, apperrors.AsAppError(err).Details["slot_id"])
	assert.True(t, w.Slots.Get(slotID).IsReserved)

	violations := w.Events.Violations()
	require.Len(t, violations, 1)
	assert.Equal(t, model.InconsistencyOrphanReservation, violations[0].Kind)
	assert.Equal(t, "createBooking", violations[0].Operation)
}

func TestCancel_ReleasesSlotForRebooking(t *testing.T) {
	w := testutil.NewWorld(owner)
	slotID := w.AddSlot(day, evening)
	svc := newService(w)
	ctx := context.Background()

	b, err := svc.Create(ctx, testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, testutil.Player("alice"), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, cancelled.Status)
	assert.False(t, w.Slots.Get(slotID).IsReserved)

	rebooked, err := svc.Create(ctx, testutil.Player("bob"), request(w, evening))
	require.NoError(t, err)
	assert.Equal(t, slotID, rebooked.SlotID)
}

func TestCancel_Errors(t *testing.T) {
	w := testutil.NewWorld(owner)
	w.AddSlot(day, evening)
	svc := newService(w)
	ctx := context.Background()

	b, err := svc.Create(ctx, testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, testutil.Player("alice"), "507f1f77bcf86cd799439011")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = svc.Cancel(ctx, testutil.Player("bob"), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.Cancel(ctx, testutil.Player("alice"), b.ID)
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, testutil.Player("alice"), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
}

func TestCancel_FailedReleaseIsInconsistency(t *testing.T) {
	w := testutil.NewWorld(owner)
	slotID := w.AddSlot(day, evening)
	svc := newService(w)
	ctx := context.Background()

	b, err := svc.Create(ctx, testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)

	w.Slots.FailOnce("Release", nil)
	_, err = svc.Cancel(ctx, testutil.Player("alice"), b.ID)
	require.True(t, apperrors.HasCode(err, apperrors.CodeInconsistency), "got %v", err)

	details := apperrors.AsAppError(err).Details
	assert.Equal(t, slotID, details["slot_id"])
	assert.Equal(t, b.ID, details["booking_id"])
	assert.Equal(t, model.BookingCancelled, w.Bookings.Get(b.ID).Status, "primary effect stays committed")
}

func TestAccept_OwnerConfirmsPending(t *testing.T) {
	w := testutil.NewWorld(owner)
	w.AddSlot(day, evening)
	svc := newService(w)
	ctx := context.Background()

	b, err := svc.Create(ctx, testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)

	_, err = svc.Accept(ctx, testutil.Owner("someone-else"), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.Accept(ctx, testutil.Player("alice"), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	confirmed, err := svc.Accept(ctx, testutil.Owner(owner), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingConfirmed, confirmed.Status)

	_, err = svc.Accept(ctx, testutil.Owner(owner), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
}

func TestReject_ConfirmedBookingFreesSlot(t *testing.T) {
	w := testutil.NewWorld(owner)
	slotID := w.AddSlot(day, evening)
	svc := newService(w)
	ctx := context.Background()

	b, err := svc.Create(ctx, testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)
	_, err = svc.Accept(ctx, testutil.Owner(owner), b.ID)
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, testutil.Owner(owner), b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCancelled, rejected.Status)
	assert.False(t, w.Slots.Get(slotID).IsReserved)

	_, err = svc.Reject(ctx, testutil.Owner(owner), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	_, err = svc.Create(ctx, testutil.Player("bob"), request(w, evening))
	assert.NoError(t, err)

	assert.Equal(t, []string{
		events.BookingCreated,
		events.BookingConfirmed,
		events.BookingRejected,
		events.BookingCreated,
	}, w.Events.Types())
}

func TestReject_RequiresVenueOwner(t *testing.T) {
	w := testutil.NewWorld(owner)
	w.AddSlot(day, evening)
	svc := newService(w)
	ctx := context.Background()

	b, err := svc.Create(ctx, testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)

	_, err = svc.Reject(ctx, testutil.Owner("other-owner"), b.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	assert.Equal(t, model.BookingPending, w.Bookings.Get(b.ID).Status)
}

func TestListMineAndSearch(t *testing.T) {
	w := testutil.NewWorld(owner)
	w.AddSlot(day, "17:00")
	w.AddSlot(day, evening)
	svc := newService(w)
	ctx := context.Background()

	_, err := svc.Create(ctx, testutil.Player("alice"), request(w, evening))
	require.NoError(t, err)
	_, err = svc.Create(ctx, testutil.Player("alice"), request(w, "17:00"))
	require.NoError(t, err)

	mine, total, err := svc.ListMine(ctx, testutil.Player("alice"), 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, mine, 2)

	found, err := svc.Search(ctx, w.Venue.ID, day)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "17:00", found[0].StartTime)

	_, err = svc.Search(ctx, w.Venue.ID, "")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidInput))
}
