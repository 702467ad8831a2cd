package testutil

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	challengeserrors "futsal/internal/challenges/errors"
	"futsal/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChallengeStore struct {
	Faults

	mu         sync.Mutex
	challenges map[string]*model.Challenge
}

func NewChallengeStore() *ChallengeStore {
	return &ChallengeStore{challenges: make(map[string]*model.Challenge)}
}

// Get returns a copy of the challenge, or nil.
func (s *ChallengeStore) Get(id string) *model.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.challenges[id]; ok {
		return copyChallenge(c)
	}
	return nil
}

// Put stores c as-is, bypassing every condition.
func (s *ChallengeStore) Put(c model.Challenge) *model.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == "" {
		c.ID = primitive.NewObjectID().Hex()
	}
	s.challenges[c.ID] = copyChallenge(&c)
	return copyChallenge(&c)
}

func (s *ChallengeStore) Create(_ context.Context, challenge *model.Challenge) error {
	if err := s.check("Create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	challenge.ID = primitive.NewObjectID().Hex()
	challenge.CreatedAt = now
	challenge.UpdatedAt = now
	if challenge.CancelledBy == nil {
		challenge.CancelledBy = []string{}
	}
	s.challenges[challenge.ID] = copyChallenge(challenge)
	return nil
}

func (s *ChallengeStore) FindByID(_ context.Context, id string) (*model.Challenge, error) {
	if err := s.check("FindByID"); err != nil {
		return nil, err
	}
	if _, err := primitive.ObjectIDFromHex(id); err != nil {
		return nil, challengeserrors.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, challengeserrors.ErrNotFound
	}
	return copyChallenge(c), nil
}

func (s *ChallengeStore) FindLiveByBooking(_ context.Context, bookingID string) ([]*model.Challenge, error) {
	if err := s.check("FindLiveByBooking"); err != nil {
		return nil, err
	}
	return s.filter(func(c *model.Challenge) bool { return c.BookingID == bookingID && c.Live() }), nil
}

func (s *ChallengeStore) FindByVenue(_ context.Context, venueID, status string, limit int, offset int64) ([]*model.Challenge, error) {
	if err := s.check("FindByVenue"); err != nil {
		return nil, err
	}
	out := s.filter(func(c *model.Challenge) bool {
		return c.VenueID == venueID && (status == "" || c.Status == status)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (s *ChallengeStore) FindAcceptedBefore(_ context.Context, cutoff time.Time, limit int, offset int64) ([]*model.Challenge, error) {
	if err := s.check("FindAcceptedBefore"); err != nil {
		return nil, err
	}
	out := s.filter(func(c *model.Challenge) bool {
		return c.Status == model.ChallengeAccepted && c.UpdatedAt.Before(cutoff)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return page(out, limit, offset), nil
}

func (s *ChallengeStore) Accept(_ context.Context, id, acceptor string) (*model.Challenge, error) {
	if err := s.check("Accept"); err != nil {
		return nil, err
	}
	return s.update(id, func(c *model.Challenge) bool {
		if c.Status != model.ChallengePending {
			return false
		}
		c.Status = model.ChallengeAccepted
		c.AcceptedBy = acceptor
		return true
	})
}

func (s *ChallengeStore) RevertAccept(_ context.Context, id, acceptor string, addCancelledBy bool) (*model.Challenge, error) {
	if err := s.check("RevertAccept"); err != nil {
		return nil, err
	}
	return s.update(id, func(c *model.Challenge) bool {
		if c.Status != model.ChallengeAccepted || c.AcceptedBy != acceptor {
			return false
		}
		c.Status = model.ChallengePending
		c.AcceptedBy = ""
		if addCancelledBy && !slices.Contains(c.CancelledBy, acceptor) {
			c.CancelledBy = append(c.CancelledBy, acceptor)
		}
		return true
	})
}

func (s *ChallengeStore) Cancel(_ context.Context, id, from string) (*model.Challenge, error) {
	if err := s.check("Cancel"); err != nil {
		return nil, err
	}
	return s.update(id, func(c *model.Challenge) bool {
		if c.Status != from {
			return false
		}
		c.Status = model.ChallengeCancelled
		return true
	})
}

func (s *ChallengeStore) update(id string, apply func(*model.Challenge) bool) (*model.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[id]
	if !ok {
		return nil, challengeserrors.ErrNotFound
	}
	next := copyChallenge(c)
	if !apply(next) {
		return nil, challengeserrors.ErrStatusConflict
	}
	next.UpdatedAt = time.Now().UTC()
	s.challenges[id] = next
	return copyChallenge(next), nil
}

func (s *ChallengeStore) filter(keep func(*model.Challenge) bool) []*model.Challenge {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.Challenge
	for _, c := range s.challenges {
		if keep(c) {
			out = append(out, copyChallenge(c))
		}
	}
	return out
}

func copyChallenge(c *model.Challenge) *model.Challenge {
	out := *c
	out.CancelledBy = slices.Clone(c.CancelledBy)
	return &out
}
