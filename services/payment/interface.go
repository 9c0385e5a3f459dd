package payment

import (
	"context"
	"errors"
)

// ErrDeclined means the gateway rejected the charge (card declined,
// insufficient funds). Distinct from transport failures so the
// orchestrator can release the hold without a reconciliation record.
var ErrDeclined = errors.New("payment declined")

// AuthorizeParams describes a charge authorization. IdempotencyKey makes
// orchestrator retries safe: re-authorizing with the same key returns
// the original charge instead of charging twice.
type AuthorizeParams struct {
	AmountCents    int64
	Currency       string
	PaymentMethod  string
	IdempotencyKey string
	Description    string
	Metadata       map[string]string
}

// Charge is the gateway's record of an authorization.
type Charge struct {
	ID     string
	Status string
}

// Gateway abstracts the external payment collaborator.
type Gateway interface {
	Authorize(ctx context.Context, p AuthorizeParams) (*Charge, error)
	Void(ctx context.Context, chargeID string) error
	Refund(ctx context.Context, chargeID string, amountCents int64) error
}
