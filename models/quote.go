package models

import "time"

// AddOns are the extras a customer can attach to a visit.
type AddOns struct {
	ExtraFamilyMembers int `bson:"extraFamilyMembers" json:"extraFamilyMembers"`
	ExtendedMinutes    int `bson:"extendedMinutes" json:"extendedMinutes"`
	ExtraVisits        int `bson:"extraVisits" json:"extraVisits"`
}

// PriceQuote is the immutable pricing snapshot for one booking request.
// All amounts are integer cents. Credit application never alters a
// quote; credits are applied at payment time.
//
// Invariant: TotalCents = max(0, SubtotalCents + SetupFeeCents - DiscountCents).
type PriceQuote struct {
	ServiceID      string `bson:"serviceId" json:"serviceId"`
	BasePriceCents int64  `bson:"basePriceCents" json:"basePriceCents"`
	// CatalogVersion snapshots the service version so price drift is
	// detectable at payment time.
	CatalogVersion int `bson:"catalogVersion" json:"catalogVersion"`

	ExtraFamilyCents  int64 `bson:"extraFamilyCents" json:"extraFamilyCents"`
	ExtendedTimeCents int64 `bson:"extendedTimeCents" json:"extendedTimeCents"`
	ExtraVisitCents   int64 `bson:"extraVisitCents" json:"extraVisitCents"`

	SubtotalCents int64  `bson:"subtotalCents" json:"subtotalCents"`
	SetupFeeCents int64  `bson:"setupFeeCents" json:"setupFeeCents"`
	PromoCode     string `bson:"promoCode,omitempty" json:"promoCode,omitempty"`
	DiscountCents int64  `bson:"discountCents" json:"discountCents"`
	TotalCents    int64  `bson:"totalCents" json:"totalCents"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
