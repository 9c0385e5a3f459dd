package availability

import (
	"context"
	"errors"
	"time"

	"driftwell/models"
)

// Sentinel errors returned by slot state transitions. The reservation
// engine maps these to its user-facing error taxonomy.
var (
	ErrNotFound        = errors.New("slot not found")
	ErrSlotUnavailable = errors.New("slot is not open")
	ErrSlotTaken       = errors.New("slot is already booked")
	ErrNotHolder       = errors.New("hold belongs to a different holder")
	ErrHoldExpired     = errors.New("hold has expired")
)

// Repository is the authoritative store for slot state. Every state
// transition is a single conditional write keyed on the expected prior
// state, so concurrent callers are serialized by the backing store and
// exactly one wins a contested transition.
type Repository interface {
	// QuerySlots returns the slots for a service-date, oldest first.
	// Expired holds are surfaced as open.
	QuerySlots(ctx context.Context, serviceID, date string) ([]models.TimeSlot, error)
	// GetSlot fetches a single slot by id.
	GetSlot(ctx context.Context, slotID string) (*models.TimeSlot, error)
	// InsertSlots seeds slot documents (admin/provisioning path).
	InsertSlots(ctx context.Context, slots []models.TimeSlot) error

	// TryHold transitions Open (or expired-Held) -> Held atomically.
	TryHold(ctx context.Context, slotID, holderID string, ttl time.Duration) error
	// Release transitions Held -> Open for the given holder. Releasing a
	// slot not held by holderID is a no-op.
	Release(ctx context.Context, slotID, holderID string) error
	// Confirm transitions Held -> Booked for the given holder before
	// expiry. Re-confirming with the same bookingID is idempotent.
	Confirm(ctx context.Context, slotID, holderID, bookingID string) error
	// Reopen transitions Booked -> Open when the linked booking is cancelled.
	Reopen(ctx context.Context, slotID, bookingID string) error
	// ReclaimExpired flips all lapsed holds back to Open and returns the count.
	ReclaimExpired(ctx context.Context) (int64, error)

	// ClosureFor returns the closure for a date, or nil when the date is open.
	ClosureFor(ctx context.Context, date string) (*models.Closure, error)
	// UpsertClosure records a holiday/weather closure (admin path).
	UpsertClosure(ctx context.Context, closure models.Closure) error
}
