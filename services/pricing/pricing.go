package pricing

import (
	"errors"
	"time"

	"driftwell/models"
)

// Business pricing constants, all integer cents.
const (
	// ExtraFamilyMemberCents is the flat charge per additional family member.
	ExtraFamilyMemberCents int64 = 2500
	// ExtendedMinuteCents is the per-minute charge for extending a session.
	ExtendedMinuteCents int64 = 200
	// ExtraVisitPercent prices each additional same-day visit at 80% of
	// the service base price (a 20% multi-visit discount).
	ExtraVisitPercent int64 = 80
)

var (
	ErrPromoExpired    = errors.New("promo code has expired")
	ErrPromoExhausted  = errors.New("promo code has reached its use limit")
	ErrBypassDisabled  = errors.New("percentage and bypass promo codes are not enabled")
	ErrInactiveService = errors.New("service is not active")
)

// QuoteInput bundles everything ComputeQuote needs. The setup fee is
// computed by the geocoding collaborator and passed through opaquely.
type QuoteInput struct {
	Service       models.Service
	AddOns        models.AddOns
	SetupFeeCents int64
	Promo         *models.PromoCode
	// AllowBypass mirrors the startup configuration flag. Percent and
	// bypass codes are rejected when it is off; this is the only code
	// path that can zero a total and it is never reachable in production.
	AllowBypass bool
	Now         time.Time
}

// ComputeQuote is a pure function: no I/O, deterministic for identical
// input. Credits are not pricing's concern; they apply at payment time.
func ComputeQuote(in QuoteInput) (models.PriceQuote, error) {
	if !in.Service.Active {
		return models.PriceQuote{}, ErrInactiveService
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	quote := models.PriceQuote{
		ServiceID:      in.Service.ID,
		BasePriceCents: in.Service.BasePriceCents,
		CatalogVersion: in.Service.Version,
		SetupFeeCents:  in.SetupFeeCents,
		CreatedAt:      now,
	}

	quote.ExtraFamilyCents = int64(in.AddOns.ExtraFamilyMembers) * ExtraFamilyMemberCents
	quote.ExtendedTimeCents = int64(in.AddOns.ExtendedMinutes) * ExtendedMinuteCents
	quote.ExtraVisitCents = int64(in.AddOns.ExtraVisits) * in.Service.BasePriceCents * ExtraVisitPercent / 100

	quote.SubtotalCents = in.Service.BasePriceCents +
		quote.ExtraFamilyCents +
		quote.ExtendedTimeCents +
		quote.ExtraVisitCents

	if in.Promo != nil {
		discount, err := promoDiscount(*in.Promo, quote.SubtotalCents+quote.SetupFeeCents, in.AllowBypass, now)
		if err != nil {
			return models.PriceQuote{}, err
		}
		quote.PromoCode = in.Promo.Code
		quote.DiscountCents = discount
	}

	total := quote.SubtotalCents + quote.SetupFeeCents - quote.DiscountCents
	if total < 0 {
		total = 0
	}
	quote.TotalCents = total
	return quote, nil
}

func promoDiscount(promo models.PromoCode, chargeableCents int64, allowBypass bool, now time.Time) (int64, error) {
	if promo.Expired(now) {
		return 0, ErrPromoExpired
	}
	if promo.Exhausted() {
		return 0, ErrPromoExhausted
	}

	switch promo.Kind {
	case models.PromoFlat:
		return promo.AmountCents, nil
	case models.PromoPercent:
		if !allowBypass {
			return 0, ErrBypassDisabled
		}
		return chargeableCents * int64(promo.Percent) / 100, nil
	case models.PromoBypass:
		if !allowBypass {
			return 0, ErrBypassDisabled
		}
		return chargeableCents, nil
	default:
		return 0, errors.New("unknown promo kind: " + string(promo.Kind))
	}
}
