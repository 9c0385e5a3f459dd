package booking

import (
	"context"

	"driftwell/models"
)

// ReservationEngine coordinates slot state transitions on top of the
// availability store. It never retries a lost race internally; retry
// policy belongs to the caller.
type ReservationEngine interface {
	Availability(ctx context.Context, serviceID, date string) (*models.Availability, error)
	Hold(ctx context.Context, slotID, holderID string) error
	Release(ctx context.Context, slotID, holderID string) error
	Confirm(ctx context.Context, slotID, holderID, bookingID string) error
	Reopen(ctx context.Context, slotID, bookingID string) error
	SweepExpired(ctx context.Context) (int64, error)
}

// BookingService is the orchestrator: quote, reserve, charge, persist,
// notify, and the cancellation path.
type BookingService interface {
	Quote(ctx context.Context, req models.BookingRequest) (*models.PriceQuote, error)
	CreateBooking(ctx context.Context, req models.BookingRequest, quote models.PriceQuote) (*models.Booking, error)
	CancelBooking(ctx context.Context, bookingID string) error
}

// SessionService manages the multi-step booking wizard. All wizard state
// lives in one immutable BookingRequest snapshot cached in Redis.
type SessionService interface {
	StartSession(ctx context.Context, req models.BookingRequest) (*BookingSession, error)
	SelectSlot(ctx context.Context, sessionID, slotID string) (*BookingSession, error)
	ConfirmSession(ctx context.Context, sessionID string) (*models.Booking, error)
	CancelSession(ctx context.Context, sessionID string) error
}
