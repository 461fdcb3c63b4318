package normalize

import "archvd/internal/models"

type naturalKey struct {
	provider, source, productID, variantID, sizeKey, currency, region string
}

// Dedupe collapses candidate rows to one per natural key, keeping the
// first-seen row. The key deliberately excludes snapshot_at: repeated
// regional syncs of the same instant must not multiply rows. Running Dedupe
// on its own output is a no-op.
func Dedupe(rows []models.MarketData) []models.MarketData {
	if len(rows) == 0 {
		return rows
	}
	seen := make(map[naturalKey]struct{}, len(rows))
	out := make([]models.MarketData, 0, len(rows))
	for _, row := range rows {
		key := naturalKey{
			provider:  row.Provider,
			source:    row.ProviderSource,
			productID: row.ProviderProductID,
			variantID: row.ProviderVariantID,
			sizeKey:   row.SizeKey,
			currency:  row.CurrencyCode,
			region:    row.RegionCode,
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}
