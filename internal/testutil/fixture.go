package testutil

import (
	"time"

	"futsal/pkg/auth"
	"futsal/pkg/config"
	"futsal/pkg/logger"
	"futsal/pkg/model"
)

// Config returns a configuration suitable for services under test.
func Config() *config.Config {
	return &config.Config{
		DefaultOpeningTime:     "06:00",
		DefaultClosingTime:     "22:00",
		DefaultSlotDurationMin: 60,
		SlotHorizonDays:        30,
		ReadTimeout:            time.Second,
		WriteTimeout:           time.Second,
		ReconcileGracePeriod:   time.Minute,
		ReconcileBatchSize:     100,
		Log:                    logger.Discard(),
	}
}

func Player(id string) auth.Identity {
	return auth.Identity{UserID: id, Role: auth.RolePlayer}
}

func Owner(id string) auth.Identity {
	return auth.Identity{UserID: id, Role: auth.RoleOwner}
}

// Date parses a YYYY-MM-DD date as UTC midnight and panics on bad input.
func Date(s string) time.Time {
	t, err := time.ParseInLocation(model.DateLayout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

// World bundles every in-memory store around one venue.
type World struct {
	Venues     *VenueStore
	Slots      *SlotStore
	Bookings   *BookingStore
	Challenges *ChallengeStore
	Events     *Recorder
	Cfg        *config.Config

	Venue *model.Venue
}

// NewWorld creates a venue owned by ownerID with an hourly 06:00..22:00 grid.
func NewWorld(ownerID string) *World {
	w := &World{
		Venues:     NewVenueStore(),
		Slots:      NewSlotStore(),
		Bookings:   NewBookingStore(),
		Challenges: NewChallengeStore(),
		Events:     &Recorder{},
		Cfg:        Config(),
	}
	w.Venue = w.Venues.Add(model.Venue{
		OwnerID:         ownerID,
		Name:            "Arena",
		OpeningTime:     "06:00",
		ClosingTime:     "22:00",
		SlotDurationMin: 60,
	})
	return w
}

// AddSlot adds a one-hour slot at the venue and returns its id.
func (w *World) AddSlot(date, start string) string {
	startAt, err := time.Parse(model.TimeLayout, start)
	if err != nil {
		panic(err)
	}
	end := startAt.Add(time.Hour).Format(model.TimeLayout)
	return w.Slots.Add(w.Venue.ID, Date(date), start, end)
}
