package reconcile

import (
	"context"

	"futsal/pkg/kafka"
	"futsal/pkg/model"
)

// MessageHandler decodes violations from the inconsistency topic. A payload
// that cannot be decoded is permanent and goes straight to the DLQ; a failed
// repair is retried.
func (r *Reconciler) MessageHandler() kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		var inc model.Inconsistency
		if err := msg.DecodeValue(&inc); err != nil {
			return kafka.NewPermanentError("invalid inconsistency payload", err)
		}
		if inc.Kind == "" {
			return kafka.NewPermanentError("inconsistency payload has no kind", nil)
		}
		if err := r.HandleViolation(ctx, inc); err != nil {
			return kafka.NewTransientError("reconcile failed", err)
		}
		return nil
	}
}
