package events

import (
	"context"
	"time"

	apperrors "futsal/pkg/errors"
	"futsal/pkg/logger"
	"futsal/pkg/model"
)

// ReportInconsistency logs a violation with every identifier, hands it to
// the publisher for reconciliation and returns the error for the caller.
func ReportInconsistency(ctx context.Context, pub Publisher, log *logger.Logger, inc model.Inconsistency, err error) error {
	if inc.DetectedAt.IsZero() {
		inc.DetectedAt = time.Now().UTC()
	}
	if inc.Cause == "" && err != nil {
		inc.Cause = err.Error()
	}
	log.Error("Consistency violation",
		"kind", inc.Kind,
		"operation", inc.Operation,
		"slot_id", inc.SlotID,
		"booking_id", inc.BookingID,
		"challenge_id", inc.ChallengeID,
		"error", err,
	)
	pub.Inconsistency(context.WithoutCancel(ctx), inc)
	return apperrors.Inconsistency("Operation committed partially and will be reconciled", inc.Details(), err)
}
