package booking

import (
	"time"

	"driftwell/models"
)

// validateRequest rejects malformed input before any side effect.
func (s *DefaultBookingService) validateRequest(req models.BookingRequest) error {
	if req.ServiceID == "" {
		return NewValidationError("serviceId is required")
	}
	if req.UserID == "" && req.Guest == nil {
		return NewValidationError("a user id or guest contact is required")
	}
	if req.Guest != nil && req.Guest.Email == "" && req.Guest.Phone == "" {
		return NewValidationError("guest contact needs an email or phone")
	}
	if req.Address.Line1 == "" || req.Address.City == "" {
		return NewValidationError("a delivery address is required")
	}

	day, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return NewValidationError("date %q is not in YYYY-MM-DD format", req.Date)
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if day.Before(today) {
		return NewValidationError("date %s is in the past", req.Date)
	}
	return nil
}

// validateSlot checks the chosen slot against business hours and the request.
func (s *DefaultBookingService) validateSlot(slot *models.TimeSlot, req models.BookingRequest) error {
	if slot.ServiceID != req.ServiceID {
		return NewValidationError("slot %s belongs to a different service", slot.ID)
	}
	if slot.Date != req.Date {
		return NewValidationError("slot %s is not on %s", slot.ID, req.Date)
	}
	if slot.Start < s.BusinessOpenMin || slot.End > s.BusinessCloseMin {
		return NewValidationError("slot %s falls outside business hours", slot.ID)
	}
	return nil
}
