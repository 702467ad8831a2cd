package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	slotserrors "futsal/internal/slots/errors"
	"futsal/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SlotStore struct {
	Faults

	mu    sync.Mutex
	slots map[string]*model.Slot
	now   func() time.Time
}

func NewSlotStore() *SlotStore {
	return &SlotStore{
		slots: make(map[string]*model.Slot),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the time stamped on reservations.
func (s *SlotStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Add stores a free slot and returns its id.
func (s *SlotStore) Add(venueID string, date time.Time, start, end string) string {
	slot := &model.Slot{VenueID: venueID, Date: date, StartTime: start, EndTime: end}
	if _, err := s.CreateMany(context.Background(), []*model.Slot{slot}); err != nil {
		panic(err)
	}
	return slot.ID
}

// Get returns a copy of the slot, or nil.
func (s *SlotStore) Get(id string) *model.Slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slot, ok := s.slots[id]; ok {
		return copySlot(slot)
	}
	return nil
}

func (s *SlotStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.slots)
}

func (s *SlotStore) CreateMany(_ context.Context, slots []*model.Slot) (int, error) {
	if err := s.check("CreateMany"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	created := 0
	for _, slot := range slots {
		if s.findLocked(slot.VenueID, slot.Date, slot.StartTime) != nil {
			continue
		}
		slot.ID = primitive.NewObjectID().Hex()
		slot.CreatedAt = s.now()
		s.slots[slot.ID] = copySlot(slot)
		created++
	}
	return created, nil
}

func (s *SlotStore) FindByID(_ context.Context, id string) (*model.Slot, error) {
	if err := s.check("FindByID"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return nil, slotserrors.ErrNotFound
	}
	return copySlot(slot), nil
}

func (s *SlotStore) FindByVenueDateStart(_ context.Context, venueID string, date time.Time, start string) (*model.Slot, error) {
	if err := s.check("FindByVenueDateStart"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slot := s.findLocked(venueID, date, start)
	if slot == nil {
		return nil, slotserrors.ErrNotFound
	}
	return copySlot(slot), nil
}

func (s *SlotStore) FindByVenueAndDate(_ context.Context, venueID string, date time.Time) ([]*model.Slot, error) {
	if err := s.check("FindByVenueAndDate"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Slot
	for _, slot := range s.slots {
		if slot.VenueID == venueID && slot.Date.Equal(date) {
			out = append(out, copySlot(slot))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (s *SlotStore) DatesWithSlots(_ context.Context, venueID string, from, to time.Time) (map[time.Time]bool, error) {
	if err := s.check("DatesWithSlots"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make(map[time.Time]bool)
	for _, slot := range s.slots {
		if slot.VenueID == venueID && !slot.Date.Before(from) && slot.Date.Before(to) {
			dates[slot.Date] = true
		}
	}
	return dates, nil
}

func (s *SlotStore) Reserve(_ context.Context, id string) (*model.Slot, error) {
	if err := s.check("Reserve"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok || slot.IsReserved {
		return nil, slotserrors.ErrAlreadyReserved
	}
	now := s.now()
	slot.IsReserved = true
	slot.ReservedAt = &now
	return copySlot(slot), nil
}

func (s *SlotStore) Release(_ context.Context, id string) (bool, error) {
	if err := s.check("Release"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok {
		return false, slotserrors.ErrNotFound
	}
	if !slot.IsReserved {
		return false, nil
	}
	slot.IsReserved = false
	slot.ReservedAt = nil
	return true, nil
}

func (s *SlotStore) ReleaseIfReservedAt(_ context.Context, id string, reservedAt time.Time) (bool, error) {
	if err := s.check("ReleaseIfReservedAt"); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	slot, ok := s.slots[id]
	if !ok || !slot.IsReserved || slot.ReservedAt == nil || !slot.ReservedAt.Equal(reservedAt) {
		return false, nil
	}
	slot.IsReserved = false
	slot.ReservedAt = nil
	return true, nil
}

func (s *SlotStore) DeleteFreeByVenue(_ context.Context, venueID string) (int64, error) {
	if err := s.check("DeleteFreeByVenue"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, slot := range s.slots {
		if slot.VenueID == venueID && !slot.IsReserved {
			delete(s.slots, id)
			n++
		}
	}
	return n, nil
}

func (s *SlotStore) FindReservedBefore(_ context.Context, cutoff time.Time, limit int, offset int64) ([]*model.Slot, error) {
	if err := s.check("FindReservedBefore"); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Slot
	for _, slot := range s.slots {
		if slot.IsReserved && slot.ReservedAt != nil && slot.ReservedAt.Before(cutoff) {
			out = append(out, copySlot(slot))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ReservedAt.Equal(*out[j].ReservedAt) {
			return out[i].ReservedAt.Before(*out[j].ReservedAt)
		}
		return out[i].ID < out[j].ID
	})
	return page(out, limit, offset), nil
}

func (s *SlotStore) findLocked(venueID string, date time.Time, start string) *model.Slot {
	for _, slot := range s.slots {
		if slot.VenueID == venueID && slot.Date.Equal(date) && slot.StartTime == start {
			return slot
		}
	}
	return nil
}

func copySlot(s *model.Slot) *model.Slot {
	out := *s
	if s.ReservedAt != nil {
		t := *s.ReservedAt
		out.ReservedAt = &t
	}
	return &out
}
