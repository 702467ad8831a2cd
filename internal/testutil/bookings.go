package testutil

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	bookingserrors "futsal/internal/bookings/errors"
	"futsal/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStore struct {
	Faults

	mu       sync.Mutex
	bookings map[string]*model.Booking
}

func NewBookingStore() *BookingStore {
	return &BookingStore{bookings: make(map[string]*model.Booking)}
}

// Get returns a copy of the booking, or nil.
func (s *BookingStore) Get(id string) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.bookings[id]; ok {
		out := *b
		return &out
	}
	return nil
}

// Put stores b as-is, bypassing every condition. Used to seed broken states.
func (s *BookingStore) Put(b model.Booking) *model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = primitive.NewObjectID().Hex()
	}
	s.bookings[b.ID] = &b
	out := b
	return &out
}

func (s *BookingStore) All() []*model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		c := *b
		out = append(out, &c)
	}
	return out
}

func (s *BookingStore) Create(_ context.Context, booking *model.Booking) error {
	if err := s.check("Create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	booking.ID = primitive.NewObjectID().Hex()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	stored := *booking
	s.bookings[booking.ID] = &stored
	return nil
}

func (s *BookingStore) FindByID(_ context.Context, id string) (*model.Booking, error) {
	if err := s.check("FindByID"); err != nil {
		return nil, err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, bookingserrors.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (s *BookingStore) FindActiveBySlot(_ context.Context, slotID string) ([]*model.Booking, error) {
	if err := s.check("FindActiveBySlot"); err != nil {
		return nil, err
	}
	return s.filter(func(b *model.Booking) bool { return b.SlotID == slotID && b.Active() }), nil
}

func (s *BookingStore) FindByPlayer(_ context.Context, playerID string, limit int, offset int64) ([]*model.Booking, error) {
	if err := s.check("FindByPlayer"); err != nil {
		return nil, err
	}
	out := s.filter(func(b *model.Booking) bool { return b.PlayerID == playerID })
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].StartTime > out[j].StartTime
	})
	return page(out, limit, offset), nil
}

func (s *BookingStore) CountByPlayer(_ context.Context, playerID string) (int64, error) {
	if err := s.check("CountByPlayer"); err != nil {
		return 0, err
	}
	return int64(len(s.filter(func(b *model.Booking) bool { return b.PlayerID == playerID }))), nil
}

func (s *BookingStore) FindByVenueAndDate(_ context.Context, venueID string, date time.Time) ([]*model.Booking, error) {
	if err := s.check("FindByVenueAndDate"); err != nil {
		return nil, err
	}
	out := s.filter(func(b *model.Booking) bool { return b.VenueID == venueID && b.Date.Equal(date) })
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (s *BookingStore) FindWithChallenge(_ context.Context, limit int, offset int64) ([]*model.Booking, error) {
	if err := s.check("FindWithChallenge"); err != nil {
		return nil, err
	}
	out := s.filter(func(b *model.Booking) bool { return b.ChallengeID != "" })
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, limit, offset), nil
}

func (s *BookingStore) TransitionStatus(_ context.Context, id string, from []string, to string) (*model.Booking, error) {
	if err := s.check("TransitionStatus"); err != nil {
		return nil, err
	}
	return s.update(id, func(b *model.Booking) bool {
		if !slices.Contains(from, b.Status) {
			return false
		}
		b.Status = to
		return true
	})
}

func (s *BookingStore) TransferPlayer(_ context.Context, id, expectedPlayer, newPlayer, status string) (*model.Booking, error) {
	if err := s.check("TransferPlayer"); err != nil {
		return nil, err
	}
	return s.update(id, func(b *model.Booking) bool {
		if b.PlayerID != expectedPlayer || !b.Active() {
			return false
		}
		b.PlayerID = newPlayer
		b.Status = status
		return true
	})
}

func (s *BookingStore) SetChallenge(_ context.Context, id, challengeID string) error {
	if err := s.check("SetChallenge"); err != nil {
		return err
	}
	_, err := s.update(id, func(b *model.Booking) bool {
		if b.ChallengeID != "" && b.ChallengeID != challengeID {
			return false
		}
		b.ChallengeID = challengeID
		return true
	})
	if err == bookingserrors.ErrStatusConflict {
		return bookingserrors.ErrChallengeLinked
	}
	return err
}

func (s *BookingStore) ClearChallenge(_ context.Context, id, challengeID string) (bool, error) {
	if err := s.check("ClearChallenge"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok || b.ChallengeID != challengeID {
		return false, nil
	}
	b.ChallengeID = ""
	b.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *BookingStore) update(id string, apply func(*model.Booking) bool) (*model.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	next := *b
	if !apply(&next) {
		return nil, bookingserrors.ErrStatusConflict
	}
	next.UpdatedAt = time.Now().UTC()
	s.bookings[id] = &next
	out := next
	return &out, nil
}

func (s *BookingStore) filter(keep func(*model.Booking) bool) []*model.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Booking
	for _, b := range s.bookings {
		if keep(b) {
			c := *b
			out = append(out, &c)
		}
	}
	return out
}

func page[T any](items []T, limit int, offset int64) []T {
	if offset >= int64(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
