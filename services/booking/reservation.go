package booking

import (
	"context"
	"errors"
	"time"

	"driftwell/database/repository/availability"
	"driftwell/models"

	"go.uber.org/zap"
)

// DefaultReservationEngine implements ReservationEngine. Concurrency
// arbitration lives in the repository's conditional writes; this layer
// adds closure filtering, hold TTL policy and error mapping.
type DefaultReservationEngine struct {
	Repo    availability.Repository
	Logger  *zap.Logger
	HoldTTL time.Duration
}

// Availability surfaces the slots for a service-date. Closed dates
// return an empty slot list plus the closure so callers can render
// "closed" rather than "fully booked".
func (e *DefaultReservationEngine) Availability(ctx context.Context, serviceID, date string) (*models.Availability, error) {
	closure, err := e.Repo.ClosureFor(ctx, date)
	if err != nil {
		return nil, NewServiceUnavailableError("failed to check closures: %v", err)
	}
	if closure != nil {
		return &models.Availability{Slots: []models.TimeSlot{}, Closure: closure}, nil
	}

	slots, err := e.Repo.QuerySlots(ctx, serviceID, date)
	if err != nil {
		return nil, NewServiceUnavailableError("failed to query slots: %v", err)
	}
	return &models.Availability{Slots: slots}, nil
}

// Hold places a TTL-bounded soft reservation. Under N concurrent calls
// for the same slot exactly one succeeds; the rest get SlotUnavailable
// synchronously.
func (e *DefaultReservationEngine) Hold(ctx context.Context, slotID, holderID string) error {
	err := e.Repo.TryHold(ctx, slotID, holderID, e.HoldTTL)
	if err == nil {
		e.Logger.Debug("slot held",
			zap.String("slotId", slotID),
			zap.String("holder", holderID),
			zap.Duration("ttl", e.HoldTTL))
		return nil
	}
	return e.mapSlotError(err, slotID)
}

func (e *DefaultReservationEngine) Release(ctx context.Context, slotID, holderID string) error {
	if err := e.Repo.Release(ctx, slotID, holderID); err != nil {
		return e.mapSlotError(err, slotID)
	}
	return nil
}

func (e *DefaultReservationEngine) Confirm(ctx context.Context, slotID, holderID, bookingID string) error {
	if err := e.Repo.Confirm(ctx, slotID, holderID, bookingID); err != nil {
		return e.mapSlotError(err, slotID)
	}
	return nil
}

func (e *DefaultReservationEngine) Reopen(ctx context.Context, slotID, bookingID string) error {
	if err := e.Repo.Reopen(ctx, slotID, bookingID); err != nil {
		return e.mapSlotError(err, slotID)
	}
	return nil
}

// SweepExpired reclaims lapsed holds. Called periodically by the
// background worker; TryHold's filter also treats lapsed holds as open,
// so the sweep is a hygiene pass rather than a correctness requirement.
func (e *DefaultReservationEngine) SweepExpired(ctx context.Context) (int64, error) {
	n, err := e.Repo.ReclaimExpired(ctx)
	if err != nil {
		return 0, NewServiceUnavailableError("failed to reclaim expired holds: %v", err)
	}
	if n > 0 {
		e.Logger.Info("reclaimed expired holds", zap.Int64("count", n))
	}
	return n, nil
}

func (e *DefaultReservationEngine) mapSlotError(err error, slotID string) error {
	switch {
	case errors.Is(err, availability.ErrNotFound):
		return NewValidationError("slot %s does not exist", slotID)
	case errors.Is(err, availability.ErrSlotTaken):
		return NewSlotError(CodeSlotTaken, slotID, "slot is already booked")
	case errors.Is(err, availability.ErrSlotUnavailable):
		return NewSlotError(CodeSlotUnavailable, slotID, "slot was claimed by another customer")
	case errors.Is(err, availability.ErrNotHolder):
		return NewSlotError(CodeNotHolder, slotID, "slot is held by someone else")
	case errors.Is(err, availability.ErrHoldExpired):
		return NewSlotError(CodeHoldExpired, slotID, "your hold on this slot expired")
	default:
		return NewServiceUnavailableError("slot store error: %v", err)
	}
}
