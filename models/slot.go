package models

import "time"

// SlotState is the lifecycle state of a time slot.
type SlotState string

const (
	SlotOpen   SlotState = "open"
	SlotHeld   SlotState = "held"
	SlotBooked SlotState = "booked"
)

// TimeSlot represents one bookable service window on one date.
// A slot is in exactly one state at any instant; all transitions happen
// through conditional updates in the availability repository.
type TimeSlot struct {
	ID        string    `bson:"id" json:"id"`
	ServiceID string    `bson:"serviceId" json:"serviceId"`
	Date      string    `bson:"date" json:"date"`   // "YYYY-MM-DD"
	Start     int       `bson:"start" json:"start"` // minutes from midnight (e.g., 480 for 8:00 AM)
	End       int       `bson:"end" json:"end"`     // minutes from midnight
	State     SlotState `bson:"state" json:"state"`

	// Hold fields, meaningful only while State == SlotHeld.
	HoldHolder    string    `bson:"holdHolder,omitempty" json:"holdHolder,omitempty"`
	HoldExpiresAt time.Time `bson:"holdExpiresAt,omitempty" json:"holdExpiresAt,omitempty"`

	// BookingID links the slot to its booking while State == SlotBooked.
	BookingID string `bson:"bookingId,omitempty" json:"bookingId,omitempty"`

	Version int `bson:"version" json:"version"`
}

// HoldExpired reports whether a held slot's hold has lapsed at now.
func (s TimeSlot) HoldExpired(now time.Time) bool {
	return s.State == SlotHeld && !s.HoldExpiresAt.After(now)
}

// Closure marks a date the service does not operate (holiday, weather,
// maintenance). Distinct from "all slots booked" so callers can render
// closed vs fully-booked messaging.
type Closure struct {
	Date   string `bson:"date" json:"date"`
	Reason string `bson:"reason" json:"reason"`
}

// Availability is the query result for one service-date: the surfaced
// slots plus an optional closure signal. Closed dates carry an empty
// slot list and a non-nil Closure.
type Availability struct {
	Slots   []TimeSlot `json:"slots"`
	Closure *Closure   `json:"closure,omitempty"`
}
