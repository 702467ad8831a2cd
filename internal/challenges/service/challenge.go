package service

import (
	"context"
	"errors"

	"futsal/internal/authz"
	bookingserrors "futsal/internal/bookings/errors"
	bookingsrepository "futsal/internal/bookings/repository"
	challengeserrors "futsal/internal/challenges/errors"
	"futsal/internal/challenges/link"
	"futsal/internal/challenges/repository"
	"futsal/internal/challenges/validator"
	"futsal/internal/events"
	"futsal/pkg/auth"
	"futsal/pkg/config"
	apperrors "futsal/pkg/errors"
	"futsal/pkg/model"
	"futsal/pkg/sanitizer"
	"futsal/pkg/validation"
)

const (
	OpCreate = "createChallenge"
	OpAccept = "acceptChallenge"
	OpCancel = "cancelChallenge"
	OpRemove = "removeChallenge"
)

type ChallengeService interface {
	Create(ctx context.Context, caller auth.Identity, req *model.ChallengeRequest) (*model.Challenge, error)
	GetByID(ctx context.Context, id string) (*model.Challenge, error)
	ListByVenue(ctx context.Context, venueID, status string, limit int, offset int64) ([]*model.Challenge, error)
	Accept(ctx context.Context, caller auth.Identity, id string) (*model.Challenge, error)
	Cancel(ctx context.Context, caller auth.Identity, id string) (*model.Challenge, error)
	Remove(ctx context.Context, caller auth.Identity, id string) error
}

type challengeService struct {
	repo      repository.ChallengeRepository
	bookings  bookingsrepository.BookingRepository
	validator *validator.ChallengeValidator
	events    events.Publisher
	cfg       *config.Config
}

func NewChallengeService(
	repo repository.ChallengeRepository,
	bookings bookingsrepository.BookingRepository,
	validator *validator.ChallengeValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ChallengeService {
	return &challengeService{
		repo:      repo,
		bookings:  bookings,
		validator: validator,
		events:    publisher,
		cfg:       cfg,
	}
}

func (s *challengeService) Create(ctx context.Context, caller auth.Identity, req *model.ChallengeRequest) (*model.Challenge, error) {
	if !authz.IsPlayer(caller) {
		return nil, apperrors.Forbidden("Only players can create challenges")
	}
	req.VenueID = sanitizer.SanitizeID(req.VenueID)
	req.BookingID = sanitizer.SanitizeID(req.BookingID)
	if err := s.validator.Validate(req); err != nil {
		s.cfg.Log.Warn("Challenge validation failed", "error", err)
		return nil, validation.ToAppError("Challenge validation failed", err)
	}

	booking, err := s.findBooking(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}
	if !booking.Active() {
		return nil, apperrors.InvalidState("Cannot challenge a cancelled booking")
	}
	if booking.VenueID != req.VenueID {
		return nil, apperrors.InvalidInput("Booking does not belong to this venue")
	}

	if err := s.ensureUnchallenged(ctx, booking); err != nil {
		return nil, err
	}

	challenge := &model.Challenge{
		VenueID:      booking.VenueID,
		ChallengerID: caller.UserID,
		BookingID:    booking.ID,
		Date:         booking.Date,
		Status:       model.ChallengePending,
		CancelledBy:  []string{},
	}
	if err := s.repo.Create(ctx, challenge); err != nil {
		s.cfg.Log.Error("Failed to create challenge", "booking_id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to create challenge", err)
	}

	if err := s.bookings.SetChallenge(ctx, booking.ID, challenge.ID); err != nil {
		return nil, s.linkFailed(ctx, challenge, err)
	}

	s.events.Challenge(ctx, events.ChallengeCreated, caller.UserID, challenge)
	s.cfg.Log.Info("Challenge created successfully",
		"id", challenge.ID,
		"booking_id", booking.ID,
		"challenger_id", caller.UserID,
	)
	return challenge, nil
}

// ensureUnchallenged fails when a live challenge already targets the
// booking, repairing a missing back-reference on the way. A back-reference
// to a dead challenge is cleared.
func (s *challengeService) ensureUnchallenged(ctx context.Context, booking *model.Booking) error {
	live, err := s.repo.FindLiveByBooking(ctx, booking.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to look up challenges", "booking_id", booking.ID, "error", err)
		return apperrors.Internal("Failed to look up challenges", err)
	}
	if len(live) > 0 {
		s.repairLink(ctx, live[0], booking)
		return apperrors.InvalidState("Booking already has an open challenge")
	}

	if booking.ChallengeID != "" {
		if _, err := s.bookings.ClearChallenge(ctx, booking.ID, booking.ChallengeID); err != nil {
			s.cfg.Log.Error("Failed to clear stale challenge link", "booking_id", booking.ID, "challenge_id", booking.ChallengeID, "error", err)
			return apperrors.Internal("Failed to clear stale challenge link", err)
		}
		s.cfg.Log.Warn("Cleared stale challenge link", "booking_id", booking.ID, "challenge_id", booking.ChallengeID)
	}
	return nil
}

// linkFailed handles a challenge written without its back-reference. Losing
// the race to another challenge withdraws ours; any other failure leaves
// the challenge for the reconciler.
func (s *challengeService) linkFailed(ctx context.Context, challenge *model.Challenge, cause error) error {
	inc := model.Inconsistency{
		Kind:        model.InconsistencyDanglingChallenge,
		Operation:   OpCreate,
		BookingID:   challenge.BookingID,
		ChallengeID: challenge.ID,
	}

	if !errors.Is(cause, bookingserrors.ErrChallengeLinked) {
		return events.ReportInconsistency(ctx, s.events, s.cfg.Log, inc, cause)
	}

	if _, err := s.repo.Cancel(context.WithoutCancel(ctx), challenge.ID, model.ChallengePending); err != nil {
		return events.ReportInconsistency(ctx, s.events, s.cfg.Log, inc, errors.Join(cause, err))
	}
	s.cfg.Log.Info("Challenge lost link race and was withdrawn", "id", challenge.ID, "booking_id", challenge.BookingID)
	return apperrors.InvalidState("Booking already has an open challenge")
}

func (s *challengeService) GetByID(ctx context.Context, id string) (*model.Challenge, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Challenge ID cannot be empty")
	}
	challenge, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.FindByID(ctx, challenge.BookingID)
	if err == nil {
		s.repairLink(ctx, challenge, booking)
	} else if !errors.Is(err, bookingserrors.ErrNotFound) {
		s.cfg.Log.Warn("Could not verify challenge link", "id", id, "booking_id", challenge.BookingID, "error", err)
	}
	return challenge, nil
}

func (s *challengeService) ListByVenue(ctx context.Context, venueID, status string, limit int, offset int64) ([]*model.Challenge, error) {
	venueID, status = sanitizer.SanitizeID(venueID), sanitizer.SanitizeStatus(status)
	if venueID == "" {
		return nil, apperrors.InvalidInput("'venue_id' query parameter is required")
	}
	switch status {
	case "", model.ChallengePending, model.ChallengeAccepted, model.ChallengeCancelled:
	default:
		return nil, apperrors.InvalidInput("Invalid challenge status: " + status)
	}

	challenges, err := s.repo.FindByVenue(ctx, venueID, status, config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset))
	if err != nil {
		s.cfg.Log.Error("Failed to list challenges", "venue_id", venueID, "error", err)
		return nil, apperrors.Internal("Failed to list challenges", err)
	}
	return challenges, nil
}

func (s *challengeService) Accept(ctx context.Context, caller auth.Identity, id string) (*model.Challenge, error) {
	challenge, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if challenge.Status != model.ChallengePending {
		return nil, apperrors.InvalidState("Only pending challenges can be accepted")
	}

	booking, err := s.bookings.FindByID(ctx, challenge.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.InvalidState("Challenged booking no longer exists")
		}
		s.cfg.Log.Error("Failed to retrieve booking", "id", challenge.BookingID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	if !booking.Active() {
		return nil, apperrors.InvalidState("Challenged booking is cancelled")
	}
	if !authz.MayAccept(caller, challenge, booking) {
		return nil, apperrors.Forbidden("You may not accept this challenge")
	}

	accepted, err := s.repo.Accept(ctx, id, caller.UserID)
	if err != nil {
		return nil, s.transitionError(err, id, "accept")
	}

	if _, err := s.bookings.TransferPlayer(ctx, booking.ID, booking.PlayerID, caller.UserID, model.BookingConfirmed); err != nil {
		return nil, s.compensateAccept(ctx, accepted, err)
	}

	s.events.Challenge(ctx, events.ChallengeAccepted, caller.UserID, accepted)
	s.cfg.Log.Info("Challenge accepted",
		"id", id,
		"booking_id", booking.ID,
		"from_player_id", booking.PlayerID,
		"accepted_by", caller.UserID,
	)
	return accepted, nil
}

// compensateAccept returns the challenge to pending after the booking
// transfer failed.
func (s *challengeService) compensateAccept(ctx context.Context, accepted *model.Challenge, cause error) error {
	s.cfg.Log.Error("Failed to transfer booking, reverting challenge", "id", accepted.ID, "booking_id", accepted.BookingID, "error", cause)

	if _, err := s.repo.RevertAccept(context.WithoutCancel(ctx), accepted.ID, accepted.AcceptedBy, false); err != nil {
		return events.ReportInconsistency(ctx, s.events, s.cfg.Log, model.Inconsistency{
			Kind:        model.InconsistencyBrokenTransfer,
			Operation:   OpAccept,
			BookingID:   accepted.BookingID,
			ChallengeID: accepted.ID,
		}, errors.Join(cause, err))
	}
	if errors.Is(cause, bookingserrors.ErrStatusConflict) {
		return apperrors.InvalidState("Booking changed while accepting the challenge")
	}
	return apperrors.Internal("Failed to transfer booking", cause)
}

// Cancel returns the booking to pending, still held by the acceptor, then
// returns the challenge to pending with the caller barred from it.
func (s *challengeService) Cancel(ctx context.Context, caller auth.Identity, id string) (*model.Challenge, error) {
	challenge, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if challenge.Status != model.ChallengeAccepted {
		return nil, apperrors.InvalidState("Only accepted challenges can be cancelled")
	}
	if !authz.IsAcceptor(caller, challenge) {
		return nil, apperrors.Forbidden("Only the player who accepted the challenge can cancel it")
	}

	// player stays the acceptor; only the status goes back
	if _, err := s.bookings.TransferPlayer(ctx, challenge.BookingID, caller.UserID, caller.UserID, model.BookingPending); err != nil {
		if errors.Is(err, bookingserrors.ErrStatusConflict) {
			return nil, apperrors.InvalidState("Booking is no longer held by the acceptor")
		}
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.InvalidState("Challenged booking no longer exists")
		}
		s.cfg.Log.Error("Failed to return booking", "id", id, "booking_id", challenge.BookingID, "error", err)
		return nil, apperrors.Internal("Failed to return booking", err)
	}

	reverted, err := s.repo.RevertAccept(ctx, id, caller.UserID, true)
	if err != nil {
		return nil, events.ReportInconsistency(ctx, s.events, s.cfg.Log, model.Inconsistency{
			Kind:        model.InconsistencyBrokenTransfer,
			Operation:   OpCancel,
			BookingID:   challenge.BookingID,
			ChallengeID: id,
		}, err)
	}

	s.events.Challenge(ctx, events.ChallengeReverted, caller.UserID, reverted)
	s.cfg.Log.Info("Challenge cancelled by acceptor",
		"id", id,
		"booking_id", challenge.BookingID,
		"cancelled_by", caller.UserID,
	)
	return reverted, nil
}

func (s *challengeService) Remove(ctx context.Context, caller auth.Identity, id string) error {
	challenge, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if !authz.IsChallenger(caller, challenge) {
		return apperrors.Forbidden("Only the challenger can remove this challenge")
	}
	if challenge.Status != model.ChallengePending {
		return apperrors.InvalidState("Only pending challenges can be removed")
	}

	removed, err := s.repo.Cancel(ctx, id, model.ChallengePending)
	if err != nil {
		return s.transitionError(err, id, "remove")
	}

	if _, err := s.bookings.ClearChallenge(context.WithoutCancel(ctx), challenge.BookingID, id); err != nil {
		return events.ReportInconsistency(ctx, s.events, s.cfg.Log, model.Inconsistency{
			Kind:        model.InconsistencyStaleBackRef,
			Operation:   OpRemove,
			BookingID:   challenge.BookingID,
			ChallengeID: id,
		}, err)
	}

	s.events.Challenge(ctx, events.ChallengeRemoved, caller.UserID, removed)
	s.cfg.Log.Info("Challenge removed", "id", id, "booking_id", challenge.BookingID, "challenger_id", caller.UserID)
	return nil
}

// repairLink fixes the booking's back-reference on read. Failures are only
// logged; the reconciler sweeps whatever is left.
func (s *challengeService) repairLink(ctx context.Context, challenge *model.Challenge, booking *model.Booking) {
	action, err := link.Repair(ctx, s.bookings, challenge, booking)
	if err != nil {
		s.cfg.Log.Warn("Failed to repair challenge link", "id", challenge.ID, "booking_id", booking.ID, "action", action.String(), "error", err)
		return
	}
	if action != link.None {
		s.cfg.Log.Warn("Repaired challenge link", "id", challenge.ID, "booking_id", booking.ID, "action", action.String())
	}
}

func (s *challengeService) find(ctx context.Context, id string) (*model.Challenge, error) {
	challenge, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, challengeserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Challenge", id)
		}
		if errors.Is(err, challengeserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid challenge ID format")
		}
		s.cfg.Log.Error("Failed to retrieve challenge", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve challenge", err)
	}
	return challenge, nil
}

func (s *challengeService) findBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
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

func (s *challengeService) transitionError(err error, id, action string) error {
	if errors.Is(err, challengeserrors.ErrStatusConflict) {
		return apperrors.InvalidState("Challenge changed concurrently, cannot " + action)
	}
	if errors.Is(err, challengeserrors.ErrNotFound) {
		return apperrors.NotFoundWithID("Challenge", id)
	}
	s.cfg.Log.Error("Failed to update challenge", "id", id, "action", action, "error", err)
	return apperrors.Internal("Failed to "+action+" challenge", err)
}
