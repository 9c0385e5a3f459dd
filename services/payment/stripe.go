package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
	"go.uber.org/zap"
)

// StripeGateway implements Gateway over Stripe PaymentIntents. The
// global stripe.Key is set at startup from configuration.
type StripeGateway struct {
	Logger *zap.Logger
}

func NewStripeGateway(logger *zap.Logger) *StripeGateway {
	return &StripeGateway{Logger: logger}
}

// Authorize creates and confirms a manual-capture PaymentIntent. The
// caller's idempotency key dedupes retried authorizations.
func (g *StripeGateway) Authorize(ctx context.Context, p AuthorizeParams) (*Charge, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(p.AmountCents),
		Currency:      stripe.String(p.Currency),
		PaymentMethod: stripe.String(p.PaymentMethod),
		Confirm:       stripe.Bool(true),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
		Description:   stripe.String(p.Description),
	}
	params.Context = ctx
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			g.Logger.Warn("card declined",
				zap.String("declineCode", string(stripeErr.DeclineCode)),
				zap.Int64("amount", p.AmountCents))
			return nil, fmt.Errorf("%w: %s", ErrDeclined, stripeErr.Msg)
		}
		return nil, fmt.Errorf("stripe authorization failed: %w", err)
	}

	g.Logger.Info("payment authorized",
		zap.String("charge", pi.ID),
		zap.Int64("amount", p.AmountCents))
	return &Charge{ID: pi.ID, Status: string(pi.Status)}, nil
}

// Void cancels an uncaptured PaymentIntent.
func (g *StripeGateway) Void(ctx context.Context, chargeID string) error {
	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := paymentintent.Cancel(chargeID, params); err != nil {
		return fmt.Errorf("stripe void failed for %s: %w", chargeID, err)
	}
	g.Logger.Info("payment voided", zap.String("charge", chargeID))
	return nil
}

// Refund returns amountCents against a captured charge.
func (g *StripeGateway) Refund(ctx context.Context, chargeID string, amountCents int64) error {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(chargeID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("stripe refund failed for %s: %w", chargeID, err)
	}
	g.Logger.Info("payment refunded",
		zap.String("charge", chargeID),
		zap.Int64("amount", amountCents))
	return nil
}
