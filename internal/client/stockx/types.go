package stockx

// VariantMarketData is one entry of the market-data payload for a product.
// Price fields arrive as JSON strings or numbers depending on API tier, so
// they are decoded as `any` and parsed downstream. All amounts are major
// units of CurrencyCode.
type VariantMarketData struct {
	ProductID        string `json:"productId"`
	VariantID        string `json:"variantId"`
	CurrencyCode     string `json:"currencyCode"`
	LowestAskAmount  any    `json:"lowestAskAmount"`
	HighestBidAmount any    `json:"highestBidAmount"`
	LastSaleAmount   any    `json:"lastSaleAmount"`
	SellFasterAmount any    `json:"sellFasterAmount"`
	EarnMoreAmount   any    `json:"earnMoreAmount"`

	// Size is present on some payload versions only; the variants endpoint is
	// the authoritative size source.
	Size string `json:"size,omitempty"`

	FlexMarketData   *ChannelMarketData `json:"flexMarketData,omitempty"`
	DirectMarketData *ChannelMarketData `json:"directMarketData,omitempty"`
}

// ChannelMarketData is the nested flex/direct pricing sub-object.
type ChannelMarketData struct {
	LowestAsk  any `json:"lowestAsk"`
	SellFaster any `json:"sellFaster"`
	EarnMore   any `json:"earnMore"`
}

// Variant is one entry of the product variants payload, used as the
// variant-id to size lookup.
type Variant struct {
	VariantID    string `json:"variantId"`
	ProductID    string `json:"productId"`
	VariantName  string `json:"variantName"`
	VariantValue string `json:"variantValue"`
}

// Product is the catalog product payload subset the sync layer needs.
type Product struct {
	ProductID  string `json:"productId"`
	StyleID    string `json:"styleId"`
	Title      string `json:"title"`
	Brand      string `json:"brand"`

	ProductAttributes struct {
		Gender string `json:"gender"`
	} `json:"productAttributes"`
}
