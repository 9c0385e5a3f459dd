package bookingrepo

import (
	"context"
	"errors"

	"driftwell/models"
)

var (
	ErrNotFound      = errors.New("booking not found")
	ErrBadTransition = errors.New("invalid booking status transition")
)

// Repository persists bookings and reconciliation records. Bookings are
// never deleted; status transitions are conditional updates guarded on
// the expected prior status.
type Repository interface {
	Insert(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]models.Booking, error)
	// UpdateStatus transitions from -> to atomically; ErrBadTransition
	// when the booking is not currently in the from status.
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error

	InsertReconciliation(ctx context.Context, rec *models.ReconciliationRecord) error
	ListUnresolvedReconciliations(ctx context.Context) ([]models.ReconciliationRecord, error)
}
