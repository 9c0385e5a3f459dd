package models

import "time"

// PromoKind distinguishes discount rules. Flat codes are the only kind
// honored in production; percent and bypass codes exist for dev/test
// flows and are gated by a startup configuration flag.
type PromoKind string

const (
	PromoFlat    PromoKind = "flat"
	PromoPercent PromoKind = "percent"
	PromoBypass  PromoKind = "bypass"
)

// PromoCode is immutable per evaluation. Codes are not stackable.
type PromoCode struct {
	Code        string     `bson:"code" json:"code"`
	Kind        PromoKind  `bson:"kind" json:"kind"`
	AmountCents int64      `bson:"amountCents,omitempty" json:"amountCents,omitempty"` // flat discount
	Percent     int        `bson:"percent,omitempty" json:"percent,omitempty"`         // percentage discount
	ExpiresAt   *time.Time `bson:"expiresAt,omitempty" json:"expiresAt,omitempty"`
	MaxUses     int        `bson:"maxUses,omitempty" json:"maxUses,omitempty"` // 0 means unlimited
	Uses        int        `bson:"uses" json:"uses"`
}

// Expired reports whether the code has lapsed at now.
func (p PromoCode) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !p.ExpiresAt.After(now)
}

// Exhausted reports whether the code has hit its use cap.
func (p PromoCode) Exhausted() bool {
	return p.MaxUses > 0 && p.Uses >= p.MaxUses
}
