package testutil

import (
	"context"
	"sync"

	"futsal/internal/events"
	"futsal/pkg/model"
)

// RecordedEvent is one call made to a Recorder.
type RecordedEvent struct {
	Type      string
	ActorID   string
	Booking   *model.Booking
	Challenge *model.Challenge
	Violation *model.Inconsistency
}

// Recorder is an events.Publisher that keeps everything it is given.
type Recorder struct {
	mu     sync.Mutex
	events []RecordedEvent
}

func (r *Recorder) Booking(_ context.Context, eventType, actorID string, b *model.Booking) {
	c := *b
	r.add(RecordedEvent{Type: eventType, ActorID: actorID, Booking: &c})
}

func (r *Recorder) Challenge(_ context.Context, eventType, actorID string, ch *model.Challenge) {
	c := *ch
	r.add(RecordedEvent{Type: eventType, ActorID: actorID, Challenge: &c})
}

func (r *Recorder) Inconsistency(_ context.Context, inc model.Inconsistency) {
	r.add(RecordedEvent{Type: events.ConsistencyViolation, Violation: &inc})
}

// Recorded returns a copy of every recorded call.
func (r *Recorder) Recorded() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecordedEvent(nil), r.events...)
}

// Types lists recorded event types in order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

// Violations returns the recorded inconsistencies.
func (r *Recorder) Violations() []model.Inconsistency {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Inconsistency
	for _, e := range r.events {
		if e.Violation != nil {
			out = append(out, *e.Violation)
		}
	}
	return out
}

func (r *Recorder) add(e RecordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}
