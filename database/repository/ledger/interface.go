package ledger

import (
	"context"
	"errors"

	"driftwell/models"
)

var (
	// ErrInsufficient means a debit would take the balance negative.
	// The check and the balance write are one conditional update, so
	// concurrent debits cannot overdraw.
	ErrInsufficient = errors.New("insufficient credit balance")
)

// Repository backs the credit ledger: a guarded running balance per user
// plus an append-only entries collection as the audit trail.
type Repository interface {
	// Debit atomically checks balance >= amountCents and subtracts it,
	// then appends a negative entry. amountCents must be positive.
	Debit(ctx context.Context, userID string, amountCents int64, reason, bookingID string) error
	// Credit adds amountCents to the balance and appends a positive entry.
	Credit(ctx context.Context, userID string, amountCents int64, reason, bookingID string) error
	// Balance returns the user's current balance in cents.
	Balance(ctx context.Context, userID string) (int64, error)
	// Entries lists the user's ledger entries, newest first.
	Entries(ctx context.Context, userID string) ([]models.CreditEntry, error)
}
