package normalize

import (
	"time"

	"go.uber.org/zap"

	"archvd/internal/client/stockx"
	"archvd/internal/models"
)

// BuildStockXRows normalizes a StockX market-data payload into canonical
// rows. Each variant yields one standard row, plus a flex and/or direct
// (consigned) row when the corresponding sub-object carries any pricing.
// The size lookup maps variant ids to sizes; the market-data payload itself
// may omit size entirely.
func (n *Normalizer) BuildStockXRows(variants []stockx.VariantMarketData, sizes map[string]string, ctx Context) ([]models.MarketData, BuildStats) {
	now := time.Now().UTC()
	snapshotAt := ctx.snapshotAt(now)

	stats := BuildStats{Variants: len(variants)}
	rows := make([]models.MarketData, 0, len(variants))

	for _, v := range variants {
		if v.VariantID == "" {
			stats.Malformed++
			n.warn("stockx variant missing variant id, skipping",
				zap.String("product_id", ctx.ProductID))
			continue
		}

		sizeKey := sizes[v.VariantID]
		if sizeKey == "" {
			sizeKey = v.Size
		}
		if sizeKey == "" {
			stats.MissingSizeMapping++
			sizeKey = "Unknown"
		}
		sizeNumeric := ParseSizeNumeric(sizeKey)

		if !SizeInRange(sizeNumeric, ctx.Category, ctx.Gender) {
			stats.SizeFiltered++
			n.info("stockx variant size out of range, skipping",
				zap.String("product_id", ctx.ProductID),
				zap.String("variant_id", v.VariantID),
				zap.String("size_key", sizeKey),
				zap.String("gender", ctx.Gender))
			continue
		}

		currency := v.CurrencyCode
		if currency == "" {
			currency = ctx.CurrencyCode
		}
		productID := v.ProductID
		if productID == "" {
			productID = ctx.ProductID
		}

		base := models.MarketData{
			Provider:            models.ProviderStockX,
			ProviderSource:      models.SourceStockXMarketData,
			ProviderProductID:   productID,
			ProviderVariantID:   v.VariantID,
			SKU:                 ctx.SKU,
			SizeKey:             sizeKey,
			SizeNumeric:         sizeNumeric,
			SizeSystem:          "US",
			CurrencyCode:        currency,
			RegionCode:          ctx.RegionCode,
			SnapshotAt:          snapshotAt,
			IngestedAt:          now,
			RawSnapshotID:       ctx.RawSnapshotID,
			RawSnapshotProvider: rawSnapshotProvider(ctx.RawSnapshotID, models.ProviderStockX),
		}

		// Standard row is unconditional. Volume and depth fields are not part
		// of this API tier and stay nil rather than zero.
		standard := base
		standard.LowestAsk = ParseMajorUnits(v.LowestAskAmount)
		standard.HighestBid = ParseMajorUnits(v.HighestBidAmount)
		standard.LastSalePrice = ParseMajorUnits(v.LastSaleAmount)
		standard.SellFasterPrice = ParseMajorUnits(v.SellFasterAmount)
		standard.EarnMorePrice = ParseMajorUnits(v.EarnMoreAmount)
		rows = append(rows, standard)
		stats.RowsEmitted++

		if flex, ok := channelRow(base, v.FlexMarketData, standard.LowestAsk); ok {
			flex.ProviderSource = models.SourceStockXMarketDataFlex
			flex.IsFlex = true
			rows = append(rows, flex)
			stats.RowsEmitted++
		}
		if direct, ok := channelRow(base, v.DirectMarketData, standard.LowestAsk); ok {
			direct.ProviderSource = models.SourceStockXMarketDataDirect
			direct.IsConsigned = true
			rows = append(rows, direct)
			stats.RowsEmitted++
		}
	}

	return rows, stats
}

// channelRow builds a flex/direct row from a nested pricing sub-object. The
// row exists only when the sub-object is present and carries at least one of
// ask, sell-faster or earn-more. A channel ask of nil falls back to the
// standard ask: flex and standard share market depth for asks while tracking
// pricing suggestions independently.
func channelRow(base models.MarketData, ch *stockx.ChannelMarketData, standardAsk *int64) (models.MarketData, bool) {
	if ch == nil {
		return models.MarketData{}, false
	}
	ask := ParseMajorUnits(ch.LowestAsk)
	sellFaster := ParseMajorUnits(ch.SellFaster)
	earnMore := ParseMajorUnits(ch.EarnMore)
	if ask == nil && sellFaster == nil && earnMore == nil {
		return models.MarketData{}, false
	}
	row := base
	if ask == nil {
		ask = standardAsk
	}
	row.LowestAsk = ask
	row.SellFasterPrice = sellFaster
	row.EarnMorePrice = earnMore
	return row, true
}

func rawSnapshotProvider(id *uint64, provider string) *string {
	if id == nil {
		return nil
	}
	return &provider
}
