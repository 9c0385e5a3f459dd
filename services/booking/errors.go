package booking

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind in the booking error taxonomy. Every
// failure path in the orchestrator maps to exactly one code.
type Code string

const (
	CodeValidation             Code = "validationError"
	CodeSlotUnavailable        Code = "slotUnavailable"
	CodeHoldExpired            Code = "holdExpired"
	CodeNotHolder              Code = "notHolder"
	CodeSlotTaken              Code = "slotTaken"
	CodePriceDrift             Code = "priceDrift"
	CodePaymentDeclined        Code = "paymentDeclined"
	CodePaymentBookingMismatch Code = "paymentBookingMismatch"
	CodeCreditInsufficient     Code = "creditInsufficient"
	CodeTimeout                Code = "timeout"
	CodeServiceUnavailable     Code = "serviceUnavailable"
)

// Error is a typed booking failure. Errors from steps with side effects
// carry enough context (slot, charge, booking ids) for manual
// reconciliation; validation errors carry none.
type Error struct {
	Code      Code
	Message   string
	SlotID    string
	ChargeID  string
	BookingID string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the taxonomy code from err, or empty when err is not
// a booking error.
func CodeOf(err error) Code {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func NewValidationError(format string, args ...interface{}) error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewSlotError(code Code, slotID, msg string) error {
	return &Error{Code: code, Message: msg, SlotID: slotID}
}

func NewPriceDriftError(serviceID string, quotedCents, currentCents int64) error {
	return &Error{
		Code: CodePriceDrift,
		Message: fmt.Sprintf("price for service %s changed from %d¢ to %d¢ since the quote; re-confirmation required",
			serviceID, quotedCents, currentCents),
	}
}

func NewPaymentDeclinedError(slotID string) error {
	return &Error{Code: CodePaymentDeclined, Message: "payment was declined", SlotID: slotID}
}

func NewPaymentBookingMismatchError(chargeID, slotID, bookingID string) error {
	return &Error{
		Code:      CodePaymentBookingMismatch,
		Message:   "your payment went through but the booking could not be finalized; support has been notified with your charge reference",
		ChargeID:  chargeID,
		SlotID:    slotID,
		BookingID: bookingID,
	}
}

func NewCreditInsufficientError(userID string) error {
	return &Error{Code: CodeCreditInsufficient, Message: fmt.Sprintf("credit balance for user %s is insufficient", userID)}
}

func NewTimeoutError(op string) error {
	return &Error{Code: CodeTimeout, Message: fmt.Sprintf("%s timed out", op)}
}

func NewServiceUnavailableError(format string, args ...interface{}) error {
	return &Error{Code: CodeServiceUnavailable, Message: fmt.Sprintf(format, args...)}
}
