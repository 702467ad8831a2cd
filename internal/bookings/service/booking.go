package service

import (
	"context"
	"errors"
	"sync"

	"futsal/internal/authz"
	bookingserrors "futsal/internal/bookings/errors"
	"futsal/internal/bookings/repository"
	"futsal/internal/bookings/validator"
	"futsal/internal/events"
	slotserrors "futsal/internal/slots/errors"
	slotsrepository "futsal/internal/slots/repository"
	"futsal/internal/slots/timetable"
	venueserrors "futsal/internal/venues/errors"
	venuesrepository "futsal/internal/venues/repository"
	"futsal/pkg/auth"
	"futsal/pkg/config"
	apperrors "futsal/pkg/errors"
	"futsal/pkg/model"
	"futsal/pkg/sanitizer"
	"futsal/pkg/validation"
)

const (
	opCreate = "createBooking"
	opCancel = "cancelBooking"
	opReject = "rejectBooking"
)

var activeStatuses = []string{model.BookingPending, model.BookingConfirmed}

type BookingService interface {
	Create(ctx context.Context, caller auth.Identity, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) ([]*model.Booking, int64, error)
	Search(ctx context.Context, venueID, date string) ([]*model.Booking, error)
	Cancel(ctx context.Context, caller auth.Identity, id string) (*model.Booking, error)
	Accept(ctx context.Context, caller auth.Identity, id string) (*model.Booking, error)
	Reject(ctx context.Context, caller auth.Identity, id string) (*model.Booking, error)
}

type bookingService struct {
	repo      repository.BookingRepository
	slots     slotsrepository.SlotRepository
	venues    venuesrepository.VenueRepository
	validator *validator.BookingValidator
	events    events.Publisher
	fallback  timetable.Window
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	slots slotsrepository.SlotRepository,
	venues venuesrepository.VenueRepository,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		slots:     slots,
		venues:    venues,
		validator: validator,
		events:    publisher,
		fallback:  timetable.Fallback(cfg.DefaultOpeningTime, cfg.DefaultClosingTime, cfg.DefaultSlotDurationMin),
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, caller auth.Identity, req *model.BookingRequest) (*model.Booking, error) {
	if !authz.IsPlayer(caller) {
		return nil, apperrors.Forbidden("Only players can book slots")
	}
	s.sanitize(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}
	date, err := timetable.ParseDate(req.Date)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid date format, expected YYYY-MM-DD")
	}

	venue, err := s.findVenue(ctx, req.VenueID)
	if err != nil {
		return nil, err
	}
	if !timetable.ForVenue(venue, s.fallback).IsBoundary(req.StartTime) {
		return nil, apperrors.InvalidInput("Start time is not a slot boundary for this venue")
	}

	slot, err := s.slots.FindByVenueDateStart(ctx, venue.ID, date, req.StartTime)
	if err != nil {
		if errors.Is(err, slotserrors.ErrNotFound) {
			return nil, apperrors.SlotUnavailable("No slot exists at the requested time")
		}
		s.cfg.Log.Error("Failed to look up slot", "venue_id", venue.ID, "date", req.Date, "start_time", req.StartTime, "error", err)
		return nil, apperrors.Internal("Failed to look up slot", err)
	}

	if err := s.verifyDuplication(ctx, caller.UserID, slot.ID); err != nil {
		return nil, err
	}

	if _, err := s.slots.Reserve(ctx, slot.ID); err != nil {
		if errors.Is(err, slotserrors.ErrAlreadyReserved) {
			s.cfg.Log.Info("Slot reservation lost", "slot_id", slot.ID, "player_id", caller.UserID)
			return nil, apperrors.SlotUnavailable("Slot is already reserved")
		}
		s.cfg.Log.Error("Failed to reserve slot", "slot_id", slot.ID, "error", err)
		return nil, apperrors.Internal("Failed to reserve slot", err)
	}

	booking := &model.Booking{
		VenueID:   venue.ID,
		PlayerID:  caller.UserID,
		Date:      date,
		SlotID:    slot.ID,
		StartTime: slot.StartTime,
		Status:    model.BookingPending,
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, s.compensateReservation(ctx, slot.ID, err)
	}

	s.events.Booking(ctx, events.BookingCreated, caller.UserID, booking)
	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"venue_id", booking.VenueID,
		"slot_id", booking.SlotID,
		"player_id", booking.PlayerID,
	)
	return booking, nil
}

// compensateReservation frees a slot whose booking could not be written.
func (s *bookingService) compensateReservation(ctx context.Context, slotID string, cause error) error {
	s.cfg.Log.Error("Failed to create booking, releasing slot", "slot_id", slotID, "error", cause)

	if _, err := s.slots.Release(context.WithoutCancel(ctx), slotID); err != nil {
		return events.ReportInconsistency(ctx, s.events, s.cfg.Log, model.Inconsistency{
			Kind:      model.InconsistencyOrphanReservation,
			Operation: opCreate,
			SlotID:    slotID,
			Cause:     err.Error(),
		}, errors.Join(cause, err))
	}
	return apperrors.Internal("Failed to create booking", cause)
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	return s.find(ctx, id)
}

func (s *bookingService) ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) ([]*model.Booking, int64, error) {
	if !authz.IsPlayer(caller) {
		return nil, 0, apperrors.Forbidden("Only players have bookings")
	}
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByPlayer(ctx, caller.UserID)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "player_id", caller.UserID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByPlayer(ctx, caller.UserID, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "player_id", caller.UserID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

func (s *bookingService) Search(ctx context.Context, venueID, date string) ([]*model.Booking, error) {
	venueID, date = sanitizer.SanitizeID(venueID), sanitizer.SanitizeDate(date)
	if venueID == "" || date == "" {
		return nil, apperrors.InvalidInput("Both 'venue_id' and 'date' query parameters are required")
	}
	day, err := timetable.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid date format, expected YYYY-MM-DD")
	}

	bookings, err := s.repo.FindByVenueAndDate(ctx, venueID, day)
	if err != nil {
		s.cfg.Log.Error("Failed to search bookings", "venue_id", venueID, "date", date, "error", err)
		return nil, apperrors.Internal("Failed to search bookings", err)
	}
	return bookings, nil
}

func (s *bookingService) Cancel(ctx context.Context, caller auth.Identity, id string) (*model.Booking, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !authz.HoldsBooking(caller, booking) {
		return nil, apperrors.Forbidden("Only the player holding the booking can cancel it")
	}
	if !booking.Active() {
		return nil, apperrors.InvalidState("Booking is already cancelled")
	}

	// conditional on the caller still holding an active booking
	cancelled, err := s.repo.TransferPlayer(ctx, id, caller.UserID, caller.UserID, model.BookingCancelled)
	if err != nil {
		return nil, s.transitionError(err, id, "cancel")
	}

	if err := s.releaseSlot(ctx, cancelled, opCancel); err != nil {
		return nil, err
	}

	s.events.Booking(ctx, events.BookingCancelled, caller.UserID, cancelled)
	s.cfg.Log.Info("Booking cancelled", "id", id, "slot_id", cancelled.SlotID, "player_id", caller.UserID)
	return cancelled, nil
}

func (s *bookingService) Accept(ctx context.Context, caller auth.Identity, id string) (*model.Booking, error) {
	booking, err := s.findOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if booking.Status != model.BookingPending {
		return nil, apperrors.InvalidState("Only pending bookings can be accepted")
	}

	confirmed, err := s.repo.TransitionStatus(ctx, id, []string{model.BookingPending}, model.BookingConfirmed)
	if err != nil {
		return nil, s.transitionError(err, id, "accept")
	}

	s.events.Booking(ctx, events.BookingConfirmed, caller.UserID, confirmed)
	s.cfg.Log.Info("Booking accepted", "id", id, "venue_id", confirmed.VenueID, "owner_id", caller.UserID)
	return confirmed, nil
}

func (s *bookingService) Reject(ctx context.Context, caller auth.Identity, id string) (*model.Booking, error) {
	booking, err := s.findOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !booking.Active() {
		return nil, apperrors.InvalidState("Booking is already cancelled")
	}

	rejected, err := s.repo.TransitionStatus(ctx, id, activeStatuses, model.BookingCancelled)
	if err != nil {
		return nil, s.transitionError(err, id, "reject")
	}

	if err := s.releaseSlot(ctx, rejected, opReject); err != nil {
		return nil, err
	}

	s.events.Booking(ctx, events.BookingRejected, caller.UserID, rejected)
	s.cfg.Log.Info("Booking rejected", "id", id, "venue_id", rejected.VenueID, "owner_id", caller.UserID)
	return rejected, nil
}

// releaseSlot frees the slot of a booking that has just been cancelled. The
// booking is already committed, so a failure here is an inconsistency.
func (s *bookingService) releaseSlot(ctx context.Context, booking *model.Booking, operation string) error {
	released, err := s.slots.Release(context.WithoutCancel(ctx), booking.SlotID)
	if errors.Is(err, slotserrors.ErrNotFound) {
		s.cfg.Log.Warn("Slot of cancelled booking no longer exists", "slot_id", booking.SlotID, "booking_id", booking.ID)
		return nil
	}
	if err != nil {
		return events.ReportInconsistency(ctx, s.events, s.cfg.Log, model.Inconsistency{
			Kind:      model.InconsistencyOrphanReservation,
			Operation: operation,
			SlotID:    booking.SlotID,
			BookingID: booking.ID,
		}, err)
	}
	if !released {
		s.cfg.Log.Warn("Slot was already free", "slot_id", booking.SlotID, "booking_id", booking.ID)
	}
	return nil
}

func (s *bookingService) find(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to retrieve booking", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

// findOwned loads the booking and checks the caller owns its venue.
func (s *bookingService) findOwned(ctx context.Context, caller auth.Identity, id string) (*model.Booking, error) {
	if !authz.IsOwner(caller) {
		return nil, apperrors.Forbidden("Only venue owners can review bookings")
	}
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	venue, err := s.findVenue(ctx, booking.VenueID)
	if err != nil {
		return nil, err
	}
	if !authz.OwnsVenue(caller, venue) {
		return nil, apperrors.Forbidden("Only the venue owner can review this booking")
	}
	return booking, nil
}

func (s *bookingService) findVenue(ctx context.Context, id string) (*model.Venue, error) {
	venue, err := s.venues.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, venueserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Venue", id)
		}
		if errors.Is(err, venueserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid venue ID format")
		}
		s.cfg.Log.Error("Failed to retrieve venue", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve venue", err)
	}
	return venue, nil
}

func (s *bookingService) transitionError(err error, id, action string) error {
	if errors.Is(err, bookingserrors.ErrStatusConflict) {
		return apperrors.InvalidState("Booking changed concurrently, cannot " + action)
	}
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Booking", id)
	}
	s.cfg.Log.Error("Failed to update booking", "id", id, "action", action, "error", err)
	return apperrors.Internal("Failed to "+action+" booking", err)
}

func (s *bookingService) verifyDuplication(ctx context.Context, playerID, slotID string) error {
	existing, err := s.repo.FindActiveBySlot(ctx, slotID)
	if err != nil {
		s.cfg.Log.Error("Failed to check existing bookings", "slot_id", slotID, "error", err)
		return apperrors.Internal("Failed to check existing bookings", err)
	}
	for _, b := range existing {
		if b.PlayerID == playerID {
			return apperrors.DuplicateBooking("You already hold an active booking for this slot")
		}
	}
	return nil
}

func (s *bookingService) validate(req *model.BookingRequest) error {
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return validation.ToAppError("Booking validation failed", err)
	}
	return nil
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.VenueID = sanitizer.SanitizeID(req.VenueID)
	req.Date = sanitizer.SanitizeDate(req.Date)
	req.StartTime = sanitizer.SanitizeTimeOfDay(req.StartTime)
}
