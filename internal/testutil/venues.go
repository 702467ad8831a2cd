package testutil

import (
	"context"
	"sync"

	venueserrors "futsal/internal/venues/errors"
	"futsal/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VenueStore struct {
	mu     sync.RWMutex
	venues map[string]*model.Venue
}

func NewVenueStore() *VenueStore {
	return &VenueStore{venues: make(map[string]*model.Venue)}
}

// Add stores a copy of v, assigning an id when it has none.
func (s *VenueStore) Add(v model.Venue) *model.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == "" {
		v.ID = primitive.NewObjectID().Hex()
	}
	s.venues[v.ID] = &v
	out := v
	return &out
}

func (s *VenueStore) FindByID(_ context.Context, id string) (*model.Venue, error) {
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, venueserrors.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.venues[id]
	if !ok {
		return nil, venueserrors.ErrNotFound
	}
	out := *v
	return &out, nil
}
