// Package reconcile repairs records left inconsistent by an operation whose
// secondary write failed after the primary one committed. Violations arrive
// on the inconsistency topic; a periodic sweep catches the ones whose event
// was lost.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingserrors "futsal/internal/bookings/errors"
	bookingsrepository "futsal/internal/bookings/repository"
	challengeserrors "futsal/internal/challenges/errors"
	"futsal/internal/challenges/link"
	challengesrepository "futsal/internal/challenges/repository"
	"futsal/internal/challenges/service"
	slotserrors "futsal/internal/slots/errors"
	slotsrepository "futsal/internal/slots/repository"
	"futsal/pkg/config"
	"futsal/pkg/model"
)

// Result counts the repairs made by one Sweep.
type Result struct {
	ReleasedSlots       int `json:"released_slots"`
	RepairedLinks       int `json:"repaired_links"`
	RevertedTransfers   int `json:"reverted_transfers"`
	CancelledChallenges int `json:"cancelled_challenges"`
}

func (r Result) Total() int {
	return r.ReleasedSlots + r.RepairedLinks + r.RevertedTransfers + r.CancelledChallenges
}

type outcome int

const (
	unchanged outcome = iota
	relinked
	reverted
	cancelled
)

type Reconciler struct {
	slots      slotsrepository.SlotRepository
	bookings   bookingsrepository.BookingRepository
	challenges challengesrepository.ChallengeRepository
	now        func() time.Time
	cfg        *config.Config
}

func New(
	slots slotsrepository.SlotRepository,
	bookings bookingsrepository.BookingRepository,
	challenges challengesrepository.ChallengeRepository,
	cfg *config.Config,
) *Reconciler {
	return &Reconciler{
		slots:      slots,
		bookings:   bookings,
		challenges: challenges,
		now:        func() time.Time { return time.Now().UTC() },
		cfg:        cfg,
	}
}

// HandleViolation repairs the records named by inc. Records that have
// since been fixed or removed are left alone, so a violation can be
// handled any number of times.
func (r *Reconciler) HandleViolation(ctx context.Context, inc model.Inconsistency) error {
	log := r.cfg.Log.With(
		"kind", inc.Kind,
		"operation", inc.Operation,
		"slot_id", inc.SlotID,
		"booking_id", inc.BookingID,
		"challenge_id", inc.ChallengeID,
	)

	var (
		changed bool
		err     error
	)
	switch inc.Kind {
	case model.InconsistencyOrphanReservation:
		cutoff := inc.DetectedAt
		if cutoff.IsZero() {
			cutoff = r.now().Add(-r.cfg.ReconcileGracePeriod)
		}
		changed, err = r.releaseOrphan(ctx, inc.SlotID, cutoff)
	case model.InconsistencyDanglingChallenge, model.InconsistencyStaleBackRef:
		var out outcome
		out, err = r.repairChallenge(ctx, inc.ChallengeID, inc.BookingID)
		changed = out != unchanged
	case model.InconsistencyBrokenTransfer:
		var out outcome
		out, err = r.revertTransfer(ctx, inc.ChallengeID, inc.Operation == service.OpCancel)
		changed = out != unchanged
	default:
		log.Warn("Unknown violation kind, skipping")
		return nil
	}
	if err != nil {
		log.Error("Failed to reconcile violation", "error", err)
		return err
	}

	if changed {
		log.Info("Violation reconciled")
	} else {
		log.Debug("Violation already resolved")
	}
	return nil
}

// Sweep scans for violations older than the grace period. Each phase pages
// through its candidates; rows that were repaired drop out of the query, so
// the offset only advances past the ones left unchanged.
func (r *Reconciler) Sweep(ctx context.Context) (Result, error) {
	var res Result
	cutoff := r.now().Add(-r.cfg.ReconcileGracePeriod)
	batch := r.cfg.ReconcileBatchSize
	if batch <= 0 {
		batch = config.DefaultReconcileBatchSize
	}

	err := pageThrough(ctx, batch, func(offset int64) (int, int, error) {
		slots, err := r.slots.FindReservedBefore(ctx, cutoff, batch, offset)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to list reserved slots: %w", err)
		}
		fixed := 0
		for _, slot := range slots {
			released, err := r.releaseOrphan(ctx, slot.ID, cutoff)
			if err != nil {
				return 0, 0, err
			}
			if released {
				fixed++
			}
		}
		res.ReleasedSlots += fixed
		return len(slots), fixed, nil
	})
	if err != nil {
		return res, err
	}

	err = pageThrough(ctx, batch, func(offset int64) (int, int, error) {
		bookings, err := r.bookings.FindWithChallenge(ctx, batch, offset)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to list linked bookings: %w", err)
		}
		fixed := 0
		for _, b := range bookings {
			out, err := r.repairChallenge(ctx, b.ChallengeID, b.ID)
			if err != nil {
				return 0, 0, err
			}
			switch out {
			case relinked:
				res.RepairedLinks++
				fixed++
			case cancelled:
				res.CancelledChallenges++
				fixed++
			}
		}
		return len(bookings), fixed, nil
	})
	if err != nil {
		return res, err
	}

	err = pageThrough(ctx, batch, func(offset int64) (int, int, error) {
		challenges, err := r.challenges.FindAcceptedBefore(ctx, cutoff, batch, offset)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to list accepted challenges: %w", err)
		}
		fixed := 0
		for _, c := range challenges {
			// the cancelling acceptor cannot be told apart here, so they
			// are not barred from accepting again
			out, err := r.revertTransfer(ctx, c.ID, false)
			if err != nil {
				return 0, 0, err
			}
			switch out {
			case reverted:
				res.RevertedTransfers++
				fixed++
			case cancelled:
				res.CancelledChallenges++
				fixed++
			}
		}
		return len(challenges), fixed, nil
	})
	if err != nil {
		return res, err
	}

	if res.Total() > 0 {
		r.cfg.Log.Info("Reconcile sweep repaired records",
			"released_slots", res.ReleasedSlots,
			"repaired_links", res.RepairedLinks,
			"reverted_transfers", res.RevertedTransfers,
			"cancelled_challenges", res.CancelledChallenges,
		)
	}
	return res, nil
}

// Run sweeps every ReconcileInterval until ctx is done.
func (r *Reconciler) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		if _, err := r.Sweep(ctx); err != nil && ctx.Err() == nil {
			r.cfg.Log.Error("Reconcile sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// pageThrough calls fetch with a growing offset until a short page comes
// back. fetch returns how many rows it saw and how many it repaired.
func pageThrough(ctx context.Context, batch int, fetch func(offset int64) (int, int, error)) error {
	var offset int64
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen, fixed, err := fetch(offset)
		if err != nil {
			return err
		}
		if seen < batch {
			return nil
		}
		offset += int64(seen - fixed)
	}
}

// releaseOrphan frees slotID when no active booking holds it. Reservations
// made after cutoff are skipped: they may belong to a booking still being
// written. The release is conditional on the reservation that was inspected,
// so a slot re-reserved in between keeps its new holder.
func (r *Reconciler) releaseOrphan(ctx context.Context, slotID string, cutoff time.Time) (bool, error) {
	slot, err := r.slots.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, slotserrors.ErrNotFound) || errors.Is(err, slotserrors.ErrInvalidID) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load slot %s: %w", slotID, err)
	}
	if !slot.IsReserved || slot.ReservedAt == nil || slot.ReservedAt.After(cutoff) {
		return false, nil
	}

	active, err := r.bookings.FindActiveBySlot(ctx, slotID)
	if err != nil {
		return false, fmt.Errorf("failed to load bookings for slot %s: %w", slotID, err)
	}
	if len(active) > 0 {
		return false, nil
	}

	released, err := r.slots.ReleaseIfReservedAt(ctx, slotID, *slot.ReservedAt)
	if err != nil && !errors.Is(err, slotserrors.ErrNotFound) {
		return false, fmt.Errorf("failed to release slot %s: %w", slotID, err)
	}
	if released {
		r.cfg.Log.Info("Released orphaned reservation", "slot_id", slotID)
	}
	return released, nil
}

// repairChallenge brings the booking's back-reference in line with the
// challenge. A missing challenge is unlinked from bookingID; a live
// challenge over a missing or cancelled booking is cancelled, and so is a
// pending one that lost the link to another challenge.
func (r *Reconciler) repairChallenge(ctx context.Context, challengeID, bookingID string) (outcome, error) {
	c, err := r.challenges.FindByID(ctx, challengeID)
	if err != nil {
		if !errors.Is(err, challengeserrors.ErrNotFound) && !errors.Is(err, challengeserrors.ErrInvalidID) {
			return unchanged, fmt.Errorf("failed to load challenge %s: %w", challengeID, err)
		}
		if bookingID == "" {
			return unchanged, nil
		}
		cleared, err := r.bookings.ClearChallenge(ctx, bookingID, challengeID)
		if err != nil && !errors.Is(err, bookingserrors.ErrNotFound) {
			return unchanged, fmt.Errorf("failed to clear link on booking %s: %w", bookingID, err)
		}
		if cleared {
			return relinked, nil
		}
		return unchanged, nil
	}

	b, err := r.bookings.FindByID(ctx, c.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return r.retire(ctx, c)
		}
		return unchanged, fmt.Errorf("failed to load booking %s: %w", c.BookingID, err)
	}

	if c.Live() && !b.Active() {
		return r.retire(ctx, c)
	}
	if c.Status == model.ChallengePending && b.ChallengeID != "" && b.ChallengeID != c.ID {
		// lost the race for the back-reference to another challenge
		return r.retire(ctx, c)
	}

	action, err := link.Repair(ctx, r.bookings, c, b)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrChallengeLinked) && c.Status == model.ChallengePending {
			return r.retire(ctx, c)
		}
		return unchanged, fmt.Errorf("failed to %s link on booking %s: %w", action, b.ID, err)
	}
	if action == link.None {
		return unchanged, nil
	}
	r.cfg.Log.Info("Repaired challenge link", "action", action.String(), "challenge_id", c.ID, "booking_id", b.ID)
	return relinked, nil
}

// retire cancels a live challenge whose booking can no longer carry it and
// drops the booking's reference to it.
func (r *Reconciler) retire(ctx context.Context, c *model.Challenge) (outcome, error) {
	if !c.Live() {
		return unchanged, nil
	}
	if _, err := r.challenges.Cancel(ctx, c.ID, c.Status); err != nil {
		if errors.Is(err, challengeserrors.ErrStatusConflict) || errors.Is(err, challengeserrors.ErrNotFound) {
			return unchanged, nil
		}
		return unchanged, fmt.Errorf("failed to cancel challenge %s: %w", c.ID, err)
	}
	r.cfg.Log.Info("Cancelled unusable challenge", "challenge_id", c.ID, "status", c.Status, "booking_id", c.BookingID)

	if _, err := r.bookings.ClearChallenge(ctx, c.BookingID, c.ID); err != nil && !errors.Is(err, bookingserrors.ErrNotFound) {
		return cancelled, fmt.Errorf("failed to clear link on booking %s: %w", c.BookingID, err)
	}
	return cancelled, nil
}

// revertTransfer returns an accepted challenge to pending when its booking
// is not confirmed and held by the acceptor. An accepted challenge over a
// missing or cancelled booking is cancelled instead.
func (r *Reconciler) revertTransfer(ctx context.Context, challengeID string, barAcceptor bool) (outcome, error) {
	c, err := r.challenges.FindByID(ctx, challengeID)
	if err != nil {
		if errors.Is(err, challengeserrors.ErrNotFound) || errors.Is(err, challengeserrors.ErrInvalidID) {
			return unchanged, nil
		}
		return unchanged, fmt.Errorf("failed to load challenge %s: %w", challengeID, err)
	}
	if c.Status != model.ChallengeAccepted {
		return unchanged, nil
	}

	b, err := r.bookings.FindByID(ctx, c.BookingID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) || errors.Is(err, bookingserrors.ErrInvalidID) {
			return r.retire(ctx, c)
		}
		return unchanged, fmt.Errorf("failed to load booking %s: %w", c.BookingID, err)
	}
	if !b.Active() {
		return r.retire(ctx, c)
	}
	if b.PlayerID == c.AcceptedBy && b.Status == model.BookingConfirmed {
		return unchanged, nil
	}

	if _, err := r.challenges.RevertAccept(ctx, c.ID, c.AcceptedBy, barAcceptor); err != nil {
		if errors.Is(err, challengeserrors.ErrStatusConflict) || errors.Is(err, challengeserrors.ErrNotFound) {
			return unchanged, nil
		}
		return unchanged, fmt.Errorf("failed to revert challenge %s: %w", c.ID, err)
	}
	r.cfg.Log.Info("Reverted broken transfer", "challenge_id", c.ID, "booking_id", c.BookingID, "acceptor", c.AcceptedBy)
	return reverted, nil
}
