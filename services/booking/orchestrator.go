package booking

import (
	"context"
	"errors"
	"time"

	"driftwell/database/repository/bookingrepo"
	"driftwell/database/repository/catalog"
	"driftwell/models"
	"driftwell/services/geo"
	"driftwell/services/ledger"
	"driftwell/services/notification"
	"driftwell/services/payment"
	"driftwell/services/pricing"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBookingService sequences a booking end to end:
// validate -> price -> hold -> charge -> confirm -> persist -> notify.
// Steps 4-6 are one logical transaction from the customer's view: a
// successful charge is either matched by a persisted booking, rolled
// back, or recorded for manual reconciliation. Never silently lost.
type DefaultBookingService struct {
	Catalog  catalog.Repository
	Engine   ReservationEngine
	Bookings bookingrepo.Repository
	Ledger   ledger.Service
	Gateway  payment.Gateway
	SetupFee geo.SetupFeeService
	Notifier notification.Service
	Logger   *zap.Logger

	Currency         string
	GatewayTimeout   time.Duration
	BusinessOpenMin  int
	BusinessCloseMin int
	// AllowPromoBypass mirrors the startup flag; percent/bypass promo
	// codes are rejected when off.
	AllowPromoBypass bool
	// MaxSetupFeeCents is the conservative fallback when the geocoding
	// collaborator is degraded.
	MaxSetupFeeCents int64
}

// Quote validates the request and produces an immutable price snapshot.
// No slot is held and no payment state is touched.
func (s *DefaultBookingService) Quote(ctx context.Context, req models.BookingRequest) (*models.PriceQuote, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	svc, err := s.Catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, NewValidationError("unknown service %s", req.ServiceID)
		}
		return nil, NewServiceUnavailableError("catalog lookup failed: %v", err)
	}

	setupFee, err := s.SetupFee.ComputeSetupFee(ctx, req.Address)
	if err != nil {
		// Degraded geocoder: charge the conservative maximum rather than
		// blocking the quote.
		s.Logger.Warn("setup fee lookup degraded, using maximum fee",
			zap.String("service", req.ServiceID), zap.Error(err))
		setupFee = s.MaxSetupFeeCents
	}

	var promo *models.PromoCode
	if req.PromoCode != "" {
		promo, err = s.Catalog.GetPromo(ctx, req.PromoCode)
		if err != nil {
			if errors.Is(err, catalog.ErrPromoNotFound) {
				return nil, NewValidationError("promo code %q is not valid", req.PromoCode)
			}
			return nil, NewServiceUnavailableError("promo lookup failed: %v", err)
		}
	}

	quote, err := pricing.ComputeQuote(pricing.QuoteInput{
		Service:       *svc,
		AddOns:        req.AddOns,
		SetupFeeCents: setupFee,
		Promo:         promo,
		AllowBypass:   s.AllowPromoBypass,
	})
	if err != nil {
		return nil, NewValidationError("pricing failed: %v", err)
	}
	return &quote, nil
}

// CreateBooking executes the reservation pipeline against a previously
// issued quote. Each failure maps to exactly one taxonomy code.
func (s *DefaultBookingService) CreateBooking(ctx context.Context, req models.BookingRequest, quote models.PriceQuote) (*models.Booking, error) {
	// Step 1: validate.
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if req.SlotID == "" {
		return nil, NewValidationError("a slot must be selected")
	}

	// Step 2: price-drift check. The quote snapshot must still match the
	// catalog; a changed price requires explicit re-confirmation, never a
	// silent charge of a different amount.
	svc, err := s.Catalog.GetService(ctx, req.ServiceID)
	if err != nil {
		if errors.Is(err, catalog.ErrServiceNotFound) {
			return nil, NewValidationError("unknown service %s", req.ServiceID)
		}
		return nil, NewServiceUnavailableError("catalog lookup failed: %v", err)
	}
	if svc.Version != quote.CatalogVersion || svc.BasePriceCents != quote.BasePriceCents {
		return nil, NewPriceDriftError(svc.ID, quote.BasePriceCents, svc.BasePriceCents)
	}

	// Step 3: hold the slot. Exactly one concurrent caller wins; the
	// holder id doubles as the payment idempotency key so a retried
	// confirm cannot double-book or double-charge.
	holderID := req.IdempotencyKey
	if holderID == "" {
		holderID = uuid.New().String()
	}
	if err := s.Engine.Hold(ctx, req.SlotID, holderID); err != nil {
		return nil, err
	}

	slot, err := s.slotForRequest(ctx, req)
	if err != nil {
		s.releaseQuietly(ctx, req.SlotID, holderID)
		return nil, err
	}

	// Step 4: apply credits. The debit is the double-spend guard, so it
	// runs before the card authorization; every later failure credits it
	// back. Excess balance stays banked — only the total is debited.
	creditApplied, err := s.applyCredits(ctx, req.UserID, quote.TotalCents)
	if err != nil {
		s.releaseQuietly(ctx, req.SlotID, holderID)
		return nil, err
	}
	chargeCents := quote.TotalCents - creditApplied

	// Step 5: authorize the remainder, if any.
	var chargeID string
	if chargeCents > 0 {
		charge, err := s.authorize(ctx, req, chargeCents, holderID)
		if err != nil {
			s.refundCreditsQuietly(ctx, req.UserID, creditApplied, "")
			s.releaseQuietly(ctx, req.SlotID, holderID)
			return nil, err
		}
		chargeID = charge.ID
	}

	// Step 6: confirm the slot and persist the booking. From here on a
	// failure must never strand the charge.
	bookingID := uuid.New().String()
	if err := s.Engine.Confirm(ctx, req.SlotID, holderID, bookingID); err != nil {
		return nil, s.recoverAfterCharge(ctx, err, chargeID, req, creditApplied, chargeCents, holderID, bookingID, false)
	}

	now := time.Now().UTC()
	booking := &models.Booking{
		ID:                  bookingID,
		UserID:              req.UserID,
		Guest:               req.Guest,
		ServiceID:           req.ServiceID,
		SlotID:              req.SlotID,
		Date:                req.Date,
		Start:               slot.Start,
		End:                 slot.End,
		Address:             req.Address,
		SpecialInstructions: req.SpecialInstructions,
		Quote:               quote,
		ChargeID:            chargeID,
		CreditAppliedCents:  creditApplied,
		Status:              models.BookingConfirmed,
		DeviceToken:         req.DeviceToken,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.Bookings.Insert(ctx, booking); err != nil {
		return nil, s.recoverAfterCharge(ctx, err, chargeID, req, creditApplied, chargeCents, holderID, bookingID, true)
	}

	if quote.PromoCode != "" {
		if err := s.Catalog.IncrementPromoUse(ctx, quote.PromoCode); err != nil {
			s.Logger.Warn("failed to bump promo use count",
				zap.String("promo", quote.PromoCode), zap.Error(err))
		}
	}

	// Step 7: notify, best-effort. Failure never rolls back the booking.
	if err := s.Notifier.EnqueueConfirmation(ctx, *booking, svc.Name); err != nil {
		s.Logger.Warn("confirmation notification failed",
			zap.String("booking", booking.ID), zap.Error(err))
	}

	s.Logger.Info("booking created",
		zap.String("booking", booking.ID),
		zap.String("slot", booking.SlotID),
		zap.Int64("total", quote.TotalCents),
		zap.Int64("creditApplied", creditApplied))
	return booking, nil
}

// CancelBooking transitions a confirmed booking to cancelled, frees its
// slot and returns money: card refunds best-effort with a reconciliation
// record on failure, credit portions always as a positive ledger entry.
func (s *DefaultBookingService) CancelBooking(ctx context.Context, bookingID string) error {
	booking, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingrepo.ErrNotFound) {
			return NewValidationError("booking %s does not exist", bookingID)
		}
		return NewServiceUnavailableError("booking lookup failed: %v", err)
	}

	if err := s.Bookings.UpdateStatus(ctx, bookingID, models.BookingConfirmed, models.BookingCancelled); err != nil {
		if errors.Is(err, bookingrepo.ErrBadTransition) {
			return NewValidationError("booking %s is not in a cancellable state", bookingID)
		}
		return NewServiceUnavailableError("cancellation failed: %v", err)
	}

	if err := s.Engine.Reopen(ctx, booking.SlotID, bookingID); err != nil {
		// The booking is already cancelled; a stuck slot is an ops issue,
		// not a customer-facing failure.
		s.Logger.Error("failed to reopen slot after cancellation",
			zap.String("booking", bookingID),
			zap.String("slot", booking.SlotID),
			zap.Error(err))
	}

	if booking.ChargeID != "" {
		refundCents := booking.Quote.TotalCents - booking.CreditAppliedCents
		if err := s.Gateway.Refund(ctx, booking.ChargeID, refundCents); err != nil {
			s.Logger.Error("refund failed, writing reconciliation record",
				zap.String("booking", bookingID),
				zap.String("charge", booking.ChargeID),
				zap.Error(err))
			s.writeReconciliation(ctx, booking.ChargeID, booking.SlotID, bookingID,
				booking.UserID, refundCents, "refund_failed")
		}
	}

	if booking.CreditAppliedCents > 0 && booking.UserID != "" {
		if err := s.Ledger.Refund(ctx, booking.UserID, booking.CreditAppliedCents, bookingID); err != nil {
			s.Logger.Error("credit refund failed",
				zap.String("booking", bookingID), zap.Error(err))
			s.writeReconciliation(ctx, "", booking.SlotID, bookingID,
				booking.UserID, booking.CreditAppliedCents, "credit_refund_failed")
		}
	}

	s.Logger.Info("booking cancelled", zap.String("booking", bookingID))
	return nil
}

func (s *DefaultBookingService) slotForRequest(ctx context.Context, req models.BookingRequest) (*models.TimeSlot, error) {
	avail, err := s.Engine.Availability(ctx, req.ServiceID, req.Date)
	if err != nil {
		return nil, err
	}
	if avail.Closure != nil {
		return nil, NewValidationError("we are closed on %s: %s", req.Date, avail.Closure.Reason)
	}
	for i := range avail.Slots {
		if avail.Slots[i].ID == req.SlotID {
			slot := avail.Slots[i]
			if err := s.validateSlot(&slot, req); err != nil {
				return nil, err
			}
			return &slot, nil
		}
	}
	return nil, NewValidationError("slot %s is not offered on %s", req.SlotID, req.Date)
}

// applyCredits debits min(balance, total) and returns the amount applied.
func (s *DefaultBookingService) applyCredits(ctx context.Context, userID string, totalCents int64) (int64, error) {
	if userID == "" || totalCents == 0 {
		return 0, nil
	}
	balance, err := s.Ledger.Balance(ctx, userID)
	if err != nil {
		return 0, NewServiceUnavailableError("credit balance lookup failed: %v", err)
	}
	applied := balance
	if applied > totalCents {
		applied = totalCents
	}
	if applied == 0 {
		return 0, nil
	}

	err = s.Ledger.Apply(ctx, userID, applied, "")
	if errors.Is(err, ledger.ErrInsufficient) {
		// A concurrent debit shrank the balance between read and write.
		// One fresh attempt with the reduced balance; then give up.
		balance, berr := s.Ledger.Balance(ctx, userID)
		if berr != nil {
			return 0, NewServiceUnavailableError("credit balance lookup failed: %v", berr)
		}
		applied = balance
		if applied > totalCents {
			applied = totalCents
		}
		if applied == 0 {
			return 0, nil
		}
		if err := s.Ledger.Apply(ctx, userID, applied, ""); err != nil {
			if errors.Is(err, ledger.ErrInsufficient) {
				return 0, NewCreditInsufficientError(userID)
			}
			return 0, NewServiceUnavailableError("credit debit failed: %v", err)
		}
		return applied, nil
	}
	if err != nil {
		return 0, NewServiceUnavailableError("credit debit failed: %v", err)
	}
	return applied, nil
}

func (s *DefaultBookingService) authorize(ctx context.Context, req models.BookingRequest, amountCents int64, idempotencyKey string) (*payment.Charge, error) {
	authCtx, cancel := context.WithTimeout(ctx, s.GatewayTimeout)
	defer cancel()

	charge, err := s.Gateway.Authorize(authCtx, payment.AuthorizeParams{
		AmountCents:    amountCents,
		Currency:       s.Currency,
		PaymentMethod:  req.PaymentMethod,
		IdempotencyKey: idempotencyKey,
		Description:    "Driftwell booking: " + req.ServiceID + " on " + req.Date,
		Metadata:       map[string]string{"slotId": req.SlotID},
	})
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrDeclined):
			return nil, NewPaymentDeclinedError(req.SlotID)
		case errors.Is(err, context.DeadlineExceeded):
			return nil, NewTimeoutError("payment authorization")
		default:
			return nil, NewServiceUnavailableError("payment gateway error: %v", err)
		}
	}
	return charge, nil
}

// recoverAfterCharge handles a failure after the payment step succeeded
// (confirm or persist failed). Preferred recovery is a synchronous void;
// when that also fails, a reconciliation record is persisted and the
// caller gets PaymentBookingMismatch — never a generic error, never a
// silently lost charge. slotBooked marks whether the slot made it to
// Booked and therefore needs reopening instead of releasing.
func (s *DefaultBookingService) recoverAfterCharge(ctx context.Context, cause error, chargeID string, req models.BookingRequest, creditApplied, chargeCents int64, holderID, bookingID string, slotBooked bool) error {
	s.Logger.Error("booking pipeline failed after payment step",
		zap.String("slot", req.SlotID),
		zap.String("charge", chargeID),
		zap.Bool("slotBooked", slotBooked),
		zap.Error(cause))

	s.refundCreditsQuietly(ctx, req.UserID, creditApplied, bookingID)
	if slotBooked {
		if err := s.Engine.Reopen(ctx, req.SlotID, bookingID); err != nil {
			s.Logger.Error("failed to reopen slot during recovery",
				zap.String("slot", req.SlotID), zap.Error(err))
		}
	} else {
		s.releaseQuietly(ctx, req.SlotID, holderID)
	}

	if chargeID == "" {
		// Credit-only booking: nothing charged, the original error stands.
		if CodeOf(cause) != "" {
			return cause
		}
		return NewServiceUnavailableError("booking could not be finalized: %v", cause)
	}

	voidCtx, cancel := context.WithTimeout(ctx, s.GatewayTimeout)
	defer cancel()
	if err := s.Gateway.Void(voidCtx, chargeID); err == nil {
		s.Logger.Info("charge voided after pipeline failure", zap.String("charge", chargeID))
		if CodeOf(cause) != "" {
			return cause
		}
		return NewServiceUnavailableError("booking could not be finalized; your payment was not captured")
	}

	s.writeReconciliation(ctx, chargeID, req.SlotID, bookingID, req.UserID, chargeCents, "charge_without_booking")
	return NewPaymentBookingMismatchError(chargeID, req.SlotID, bookingID)
}

func (s *DefaultBookingService) writeReconciliation(ctx context.Context, chargeID, slotID, bookingID, userID string, amountCents int64, reason string) {
	rec := &models.ReconciliationRecord{
		ID:          uuid.New().String(),
		ChargeID:    chargeID,
		SlotID:      slotID,
		BookingID:   bookingID,
		UserID:      userID,
		AmountCents: amountCents,
		Reason:      reason,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Bookings.InsertReconciliation(ctx, rec); err != nil {
		// Last line of defense: the structured log is the trail now.
		s.Logger.Error("FAILED TO PERSIST RECONCILIATION RECORD",
			zap.String("charge", chargeID),
			zap.String("slot", slotID),
			zap.Int64("amount", amountCents),
			zap.String("reason", reason),
			zap.Error(err))
	}
}

func (s *DefaultBookingService) releaseQuietly(ctx context.Context, slotID, holderID string) {
	if err := s.Engine.Release(ctx, slotID, holderID); err != nil {
		s.Logger.Warn("failed to release hold",
			zap.String("slot", slotID), zap.Error(err))
	}
}

func (s *DefaultBookingService) refundCreditsQuietly(ctx context.Context, userID string, amountCents int64, bookingID string) {
	if userID == "" || amountCents == 0 {
		return
	}
	if err := s.Ledger.Refund(ctx, userID, amountCents, bookingID); err != nil {
		s.Logger.Error("failed to return applied credits",
			zap.String("user", userID),
			zap.Int64("amount", amountCents),
			zap.Error(err))
		s.writeReconciliation(ctx, "", "", bookingID, userID, amountCents, "credit_refund_failed")
	}
}
