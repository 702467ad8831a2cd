package events

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "futsal/pkg/errors"
	"futsal/pkg/kafka"
	"futsal/pkg/logger"
	"futsal/pkg/middleware"
	"futsal/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	msgs []kafka.Message
	err  error
}

func (s *captureSender) Publish(_ context.Context, msg kafka.Message) error {
	s.msgs = append(s.msgs, msg)
	return s.err
}

func TestKafkaPublisher_Booking(t *testing.T) {
	events := &captureSender{}
	p := NewKafkaPublisher(events, &captureSender{}, "bookings", logger.Discard())

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-9")
	b := &model.Booking{
		ID:        "b1",
		VenueID:   "v1",
		PlayerID:  "alice",
		SlotID:    "s1",
		Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		StartTime: "18:00",
		Status:    model.BookingPending,
	}
	p.Booking(ctx, BookingCreated, "alice", b)

	require.Len(t, events.msgs, 1)
	msg := events.msgs[0]
	assert.Equal(t, "b1", msg.Key)
	assert.Equal(t, BookingCreated, msg.GetEventType())
	assert.Equal(t, "req-9", msg.GetCorrelationID())
	assert.Equal(t, "bookings", msg.Headers[kafka.HeaderSource])

	var ev BookingEvent
	require.NoError(t, msg.DecodeValue(&ev))
	assert.Equal(t, "2024-06-01", ev.Date)
	assert.Equal(t, "alice", ev.ActorID)
}

func TestKafkaPublisher_InconsistencyKeyedByBooking(t *testing.T) {
	violations := &captureSender{}
	p := NewKafkaPublisher(&captureSender{}, violations, "bookings", logger.Discard())

	p.Inconsistency(context.Background(), model.Inconsistency{
		Kind:      model.InconsistencyOrphanReservation,
		Operation: "cancelBooking",
		SlotID:    "s1",
		BookingID: "b1",
	})

	require.Len(t, violations.msgs, 1)
	assert.Equal(t, "b1", violations.msgs[0].Key)

	var inc model.Inconsistency
	require.NoError(t, violations.msgs[0].DecodeValue(&inc))
	assert.Equal(t, "s1", inc.SlotID)
}

func TestKafkaPublisher_SendErrorIsSwallowed(t *testing.T) {
	p := NewKafkaPublisher(&captureSender{err: errors.New("broker down")}, &captureSender{}, "x", logger.Discard())
	assert.NotPanics(t, func() {
		p.Challenge(context.Background(), ChallengeCreated, "carol", &model.Challenge{ID: "c1"})
	})
}

func TestReportInconsistency(t *testing.T) {
	inconsistency := &captureSender{}
	p := NewKafkaPublisher(&captureSender{}, inconsistency, "bookings", logger.Discard())

	cause := errors.New("write timed out")
	err := ReportInconsistency(context.Background(), p, logger.Discard(), model.Inconsistency{
		Kind:      model.InconsistencyOrphanReservation,
		Operation: "cancelBooking",
		SlotID:    "s1",
		BookingID: "b1",
	}, cause)

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInconsistency))
	assert.ErrorIs(t, err, cause)
	appErr := apperrors.AsAppError(err)
	assert.Equal(t, "s1", appErr.Details["slot_id"])
	assert.Equal(t, "b1", appErr.Details["booking_id"])

	require.Len(t, inconsistency.msgs, 1)
	assert.Equal(t, "b1", inconsistency.msgs[0].Key)
}
