package ebay

// ItemSalesResponse is the Marketplace Insights item_sales search payload.
type ItemSalesResponse struct {
	Total     int        `json:"total"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	ItemSales []ItemSale `json:"itemSales"`
}

type ItemSale struct {
	ItemID        string `json:"itemId"`
	Title         string `json:"title"`
	ConditionID   string `json:"conditionId"`
	LastSoldDate  string `json:"lastSoldDate"`
	LastSoldPrice Amount `json:"lastSoldPrice"`

	ItemAspects []ItemAspect `json:"localizedAspects"`
}

// Amount is a major-unit decimal string plus currency, e.g. {"value":"145.00","currency":"USD"}.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type ItemAspect struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}
