package alias

import (
	"encoding/json"
	"time"
)

// Condition values the pricing pipeline is locked to. Pricing is only ever
// fetched and ingested for new-in-good-box variants; other condition pairs
// are filtered out at normalization.
const (
	ProductConditionNew       = "new"
	PackagingConditionGoodBox = "good_condition"
)

// AvailabilityResponse is the per-catalog-item availability payload: a flat
// variants array, one entry per (size, condition, consigned) combination.
type AvailabilityResponse struct {
	CatalogID string    `json:"catalog_id"`
	Variants  []Variant `json:"variants"`
}

type Variant struct {
	Size               json.Number `json:"size"`
	SizeOption         *SizeOption `json:"size_option,omitempty"`
	ProductCondition   string      `json:"product_condition"`
	PackagingCondition string      `json:"packaging_condition"`
	Consigned          bool        `json:"consigned"`

	// Availability is absent when the variant has no live market depth.
	Availability *Availability `json:"availability,omitempty"`
}

type SizeOption struct {
	Presentation string  `json:"presentation"`
	Value        float64 `json:"value"`
}

// Availability carries the priced fields. All *_cents values are minor units
// already, encoded as strings (or occasionally numbers) by the API — they
// must never be scaled.
type Availability struct {
	LowestListingPriceCents   any `json:"lowest_listing_price_cents"`
	HighestOfferPriceCents    any `json:"highest_offer_price_cents"`
	LastSoldPriceCents        any `json:"last_sold_price_cents"`
	GlobalIndicatorPriceCents any `json:"global_indicator_price_cents"`
	BeatLowestPriceCents      any `json:"beat_lowest_price_cents"`
}

// RecentSale is one entry of the recent-sales payload used by the volume
// backfill. PriceCents is minor units as a string.
type RecentSale struct {
	PurchasedAt time.Time   `json:"purchased_at"`
	PriceCents  any         `json:"price_cents"`
	Size        json.Number `json:"size"`
	Consigned   bool        `json:"consigned"`
}

type RecentSalesResponse struct {
	Sales []RecentSale `json:"sales"`
}
