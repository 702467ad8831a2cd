package service

import (
	"context"
	"errors"
	"time"

	"futsal/internal/authz"
	"futsal/internal/slots/repository"
	"futsal/internal/slots/timetable"
	"futsal/internal/slots/validator"
	venueserrors "futsal/internal/venues/errors"
	venuesrepository "futsal/internal/venues/repository"
	"futsal/pkg/auth"
	"futsal/pkg/config"
	apperrors "futsal/pkg/errors"
	"futsal/pkg/model"
	"futsal/pkg/sanitizer"
	"futsal/pkg/validation"
)

type SlotService interface {
	Generate(ctx context.Context, caller auth.Identity, venueID string, req *model.GenerateSlotsRequest) (*model.GenerateSlotsResult, error)
	ListByDate(ctx context.Context, venueID, date string) ([]*model.Slot, error)
	RemoveFree(ctx context.Context, caller auth.Identity, venueID string) (*model.RemoveSlotsResult, error)
}

type slotService struct {
	repo      repository.SlotRepository
	venues    venuesrepository.VenueRepository
	validator *validator.SlotValidator
	fallback  timetable.Window
	now       func() time.Time
	cfg       *config.Config
}

func NewSlotService(
	repo repository.SlotRepository,
	venues venuesrepository.VenueRepository,
	validator *validator.SlotValidator,
	cfg *config.Config,
) SlotService {
	return &slotService{
		repo:      repo,
		venues:    venues,
		validator: validator,
		fallback:  timetable.Fallback(cfg.DefaultOpeningTime, cfg.DefaultClosingTime, cfg.DefaultSlotDurationMin),
		now:       time.Now,
		cfg:       cfg,
	}
}

// Generate fills the venue's horizon with slots. Days that already have
// slots are skipped, so running it again only tops up new days.
func (s *slotService) Generate(ctx context.Context, caller auth.Identity, venueID string, req *model.GenerateSlotsRequest) (*model.GenerateSlotsResult, error) {
	venue, err := s.ownedVenue(ctx, caller, venueID)
	if err != nil {
		return nil, err
	}
	req.StartDate = sanitizer.SanitizeDate(req.StartDate)
	if err := s.validator.ValidateGenerate(req); err != nil {
		s.cfg.Log.Warn("Slot generation request invalid", "venue_id", venueID, "error", err)
		return nil, validation.ToAppError("Slot generation request invalid", err)
	}

	start := timetable.Day(s.now())
	if req.StartDate != "" {
		if start, err = timetable.ParseDate(req.StartDate); err != nil {
			return nil, apperrors.InvalidInput("Invalid start_date, expected YYYY-MM-DD")
		}
	}
	days := req.Days
	if days == 0 {
		days = s.cfg.SlotHorizonDays
	}
	end := start.AddDate(0, 0, days)

	existing, err := s.repo.DatesWithSlots(ctx, venue.ID, start, end)
	if err != nil {
		s.cfg.Log.Error("Failed to list existing slot dates", "venue_id", venue.ID, "error", err)
		return nil, apperrors.Internal("Failed to list existing slots", err)
	}

	intervals := timetable.ForVenue(venue, s.fallback).Intervals()
	result := &model.GenerateSlotsResult{VenueID: venue.ID}
	var slots []*model.Slot
	for day := start; day.Before(end); day = day.AddDate(0, 0, 1) {
		if existing[day] {
			result.SkippedDates = append(result.SkippedDates, day.Format(model.DateLayout))
			continue
		}
		for _, iv := range intervals {
			slots = append(slots, &model.Slot{
				VenueID:   venue.ID,
				Date:      day,
				StartTime: iv.Start,
				EndTime:   iv.End,
			})
		}
	}

	created, err := s.repo.CreateMany(ctx, slots)
	if err != nil {
		s.cfg.Log.Error("Failed to create slots", "venue_id", venue.ID, "created", created, "error", err)
		return nil, apperrors.Internal("Failed to create slots", err)
	}
	result.Created = created

	s.cfg.Log.Info("Slots generated",
		"venue_id", venue.ID,
		"from", start.Format(model.DateLayout),
		"days", days,
		"created", created,
		"skipped_days", len(result.SkippedDates),
	)
	return result, nil
}

func (s *slotService) ListByDate(ctx context.Context, venueID, date string) ([]*model.Slot, error) {
	venueID, date = sanitizer.SanitizeID(venueID), sanitizer.SanitizeDate(date)
	if venueID == "" || date == "" {
		return nil, apperrors.InvalidInput("Both venue and 'date' are required")
	}
	day, err := timetable.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid date format, expected YYYY-MM-DD")
	}

	slots, err := s.repo.FindByVenueAndDate(ctx, venueID, day)
	if err != nil {
		s.cfg.Log.Error("Failed to list slots", "venue_id", venueID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to list slots", err)
	}
	return slots, nil
}

func (s *slotService) RemoveFree(ctx context.Context, caller auth.Identity, venueID string) (*model.RemoveSlotsResult, error) {
	venue, err := s.ownedVenue(ctx, caller, venueID)
	if err != nil {
		return nil, err
	}

	deleted, err := s.repo.DeleteFreeByVenue(ctx, venue.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to remove slots", "venue_id", venue.ID, "error", err)
		return nil, apperrors.Internal("Failed to remove slots", err)
	}

	s.cfg.Log.Info("Free slots removed", "venue_id", venue.ID, "deleted", deleted)
	return &model.RemoveSlotsResult{VenueID: venue.ID, Deleted: deleted}, nil
}

func (s *slotService) ownedVenue(ctx context.Context, caller auth.Identity, venueID string) (*model.Venue, error) {
	if !authz.IsOwner(caller) {
		return nil, apperrors.Forbidden("Only venue owners can manage slots")
	}
	venue, err := s.venues.FindByID(ctx, venueID)
	if err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Venue", venueID)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid venue ID format")
		}
		s.cfg.Log.Error("Failed to retrieve venue", "id", venueID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve venue", err)
	}
	if !authz.OwnsVenue(caller, venue) {
		return nil, apperrors.Forbidden("Only the venue owner can manage its slots")
	}
	return venue, nil
}
