package models

import "time"

// Credit ledger entry reasons.
const (
	CreditReasonBookingDebit = "booking_debit"
	CreditReasonRefund       = "refund"
	CreditReasonCancellation = "cancellation_credit"
	CreditReasonGrant        = "grant"
	CreditReasonReferral     = "referral_reward"
)

// CreditEntry is one append-only ledger record. AmountCents is signed:
// debits are negative, credits positive. A user's balance is the sum of
// their entries; entries are never mutated or deleted.
type CreditEntry struct {
	ID          string    `bson:"id" json:"id"`
	UserID      string    `bson:"userId" json:"userId"`
	AmountCents int64     `bson:"amountCents" json:"amountCents"`
	Reason      string    `bson:"reason" json:"reason"`
	BookingID   string    `bson:"bookingId,omitempty" json:"bookingId,omitempty"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
