package models

import "time"

// BookingStatus is the lifecycle state of a persisted booking.
// Bookings are never deleted; cancellation is a status change.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// GuestContact identifies a booking made without an account.
type GuestContact struct {
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`
}

// Address is the delivery location for a visit.
type Address struct {
	Line1      string  `bson:"line1" json:"line1"`
	City       string  `bson:"city" json:"city"`
	Region     string  `bson:"region" json:"region"`
	PostalCode string  `bson:"postalCode" json:"postalCode"`
	Lat        float64 `bson:"lat,omitempty" json:"lat,omitempty"`
	Lng        float64 `bson:"lng,omitempty" json:"lng,omitempty"`
}

// BookingRequest is the transient wizard input, consolidated into one
// immutable snapshot that every pipeline step reads from.
type BookingRequest struct {
	ServiceID           string        `json:"serviceId" binding:"required"`
	Date                string        `json:"date" binding:"required"` // "YYYY-MM-DD"
	SlotID              string        `json:"slotId"`
	Address             Address       `json:"address"`
	AddOns              AddOns        `json:"addOns"`
	SpecialInstructions string        `json:"specialInstructions,omitempty"`
	PromoCode           string        `json:"promoCode,omitempty"`
	UserID              string        `json:"userId,omitempty"`
	Guest               *GuestContact `json:"guest,omitempty"`
	PaymentMethod       string        `json:"paymentMethod,omitempty"`
	DeviceToken         string        `json:"deviceToken,omitempty"`
	// IdempotencyKey doubles as the hold holder id so confirm retries
	// cannot double-book or double-charge. Set by the session layer.
	IdempotencyKey string `json:"-"`
}

// Booking represents a confirmed booking record.
type Booking struct {
	ID                  string        `bson:"id" json:"id"`
	UserID              string        `bson:"userId,omitempty" json:"userId,omitempty"`
	Guest               *GuestContact `bson:"guest,omitempty" json:"guest,omitempty"`
	ServiceID           string        `bson:"serviceId" json:"serviceId"`
	SlotID              string        `bson:"slotId" json:"slotId"`
	Date                string        `bson:"date" json:"date"`
	Start               int           `bson:"start" json:"start"` // minutes from midnight
	End                 int           `bson:"end" json:"end"`
	Address             Address       `bson:"address" json:"address"`
	SpecialInstructions string        `bson:"specialInstructions,omitempty" json:"specialInstructions,omitempty"`
	Quote               PriceQuote    `bson:"quote" json:"quote"`
	ChargeID            string        `bson:"chargeId,omitempty" json:"chargeId,omitempty"`
	CreditAppliedCents  int64         `bson:"creditAppliedCents" json:"creditAppliedCents"`
	Status              BookingStatus `bson:"status" json:"status"`
	DeviceToken         string        `bson:"deviceToken,omitempty" json:"-"`
	CreatedAt           time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt           time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// ReconciliationRecord notes a charge that succeeded without a matching
// confirmed booking (or a refund that could not be issued). Requires
// manual resolution; never silently dropped.
type ReconciliationRecord struct {
	ID          string    `bson:"id" json:"id"`
	ChargeID    string    `bson:"chargeId" json:"chargeId"`
	SlotID      string    `bson:"slotId,omitempty" json:"slotId,omitempty"`
	BookingID   string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	UserID      string    `bson:"userId,omitempty" json:"userId,omitempty"`
	AmountCents int64     `bson:"amountCents" json:"amountCents"`
	Reason      string    `bson:"reason" json:"reason"`
	Resolved    bool      `bson:"resolved" json:"resolved"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
