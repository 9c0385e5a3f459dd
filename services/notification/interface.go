package notification

import (
	"context"

	"driftwell/models"
)

// Service enqueues best-effort customer notifications. Failures are
// surfaced to the caller as non-fatal; a booking never rolls back
// because a notification could not be sent.
type Service interface {
	EnqueueConfirmation(ctx context.Context, booking models.Booking, serviceName string) error
}
