package normalize

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"archvd/internal/client/alias"
	"archvd/internal/models"
)

// BuildAliasRows normalizes an Alias availabilities payload. Pricing here is
// locked to one condition pair (new product, good box) everywhere it is
// fetched or ingested; other conditions are filtered, not errors. Alias has
// no stable per-size variant id, so ProviderVariantID stays empty and the
// size fields disambiguate. All prices are minor-unit strings: they go
// through ParseMinorUnits and must never be scaled.
func (n *Normalizer) BuildAliasRows(resp *alias.AvailabilityResponse, ctx Context) ([]models.MarketData, BuildStats) {
	stats := BuildStats{}
	if resp == nil {
		return nil, stats
	}
	now := time.Now().UTC()
	snapshotAt := ctx.snapshotAt(now)

	filter := ctx.ConsignedFilter
	if filter == "" {
		filter = ConsignedBoth
	}

	stats.Variants = len(resp.Variants)
	rows := make([]models.MarketData, 0, len(resp.Variants))

	for _, v := range resp.Variants {
		if v.ProductCondition != alias.ProductConditionNew || v.PackagingCondition != alias.PackagingConditionGoodBox {
			stats.ConditionFiltered++
			continue
		}
		if filter == ConsignedOnly && !v.Consigned {
			stats.ConsignedFiltered++
			continue
		}
		if filter == ConsignedExclude && v.Consigned {
			stats.ConsignedFiltered++
			continue
		}

		sizeKey := aliasSizeKey(v)
		if sizeKey == "" {
			stats.Malformed++
			n.warn("alias variant missing size, skipping",
				zap.String("catalog_id", ctx.ProductID))
			continue
		}
		sizeNumeric := ParseSizeNumeric(sizeKey)

		if !SizeInRange(sizeNumeric, ctx.Category, ctx.Gender) {
			stats.SizeFiltered++
			n.info("alias variant size out of range, skipping",
				zap.String("catalog_id", ctx.ProductID),
				zap.String("size_key", sizeKey),
				zap.String("gender", ctx.Gender))
			continue
		}

		if v.Availability == nil {
			stats.MissingAvailability++
			continue
		}

		source := models.SourceAliasAvailabilities
		if v.Consigned {
			source = models.SourceAliasAvailabilitiesConsigned
		}
		rows = append(rows, models.MarketData{
			Provider:             models.ProviderAlias,
			ProviderSource:       source,
			ProviderProductID:    ctx.ProductID,
			ProviderVariantID:    "",
			SKU:                  ctx.SKU,
			SizeKey:              sizeKey,
			SizeNumeric:          sizeNumeric,
			SizeSystem:           "US",
			CurrencyCode:         ctx.CurrencyCode,
			RegionCode:           ctx.RegionCode,
			LowestAsk:            ParseMinorUnits(v.Availability.LowestListingPriceCents),
			HighestBid:           ParseMinorUnits(v.Availability.HighestOfferPriceCents),
			LastSalePrice:        ParseMinorUnits(v.Availability.LastSoldPriceCents),
			GlobalIndicatorPrice: ParseMinorUnits(v.Availability.GlobalIndicatorPriceCents),
			BeatUsPrice:          ParseMinorUnits(v.Availability.BeatLowestPriceCents),
			IsConsigned:          v.Consigned,
			SnapshotAt:           snapshotAt,
			IngestedAt:           now,
			RawSnapshotID:        ctx.RawSnapshotID,
			RawSnapshotProvider:  rawSnapshotProvider(ctx.RawSnapshotID, models.ProviderAlias),
		})
		stats.RowsEmitted++
	}

	return rows, stats
}

func aliasSizeKey(v alias.Variant) string {
	if v.SizeOption != nil && v.SizeOption.Presentation != "" {
		return v.SizeOption.Presentation
	}
	return v.Size.String()
}

// VolumeUpdate enriches existing canonical rows for one (size, consigned)
// group with recent sale counts and the latest sale. It is applied as an
// update only: a group with no matching fact row is a no-op, never an insert.
type VolumeUpdate struct {
	SizeKey       string
	Consigned     bool
	SalesLast72h  int
	SalesLast30d  int
	LastSalePrice *int64
	LastSaleAt    *time.Time
}

// BuildAliasVolumeUpdates groups individual sale records by (size, consigned)
// and computes the 72h/30d counts and most recent sale per group. Output is
// sorted by size then consigned flag for deterministic application order.
func (n *Normalizer) BuildAliasVolumeUpdates(sales []alias.RecentSale, now time.Time) []VolumeUpdate {
	type groupKey struct {
		sizeKey   string
		consigned bool
	}
	groups := map[groupKey]*VolumeUpdate{}

	cutoff72h := now.Add(-72 * time.Hour)
	cutoff30d := now.AddDate(0, 0, -30)

	for _, sale := range sales {
		sizeKey := sale.Size.String()
		if sizeKey == "" || sale.PurchasedAt.IsZero() {
			n.warn("alias sale record missing size or timestamp, skipping")
			continue
		}
		key := groupKey{sizeKey: sizeKey, consigned: sale.Consigned}
		upd, ok := groups[key]
		if !ok {
			upd = &VolumeUpdate{SizeKey: sizeKey, Consigned: sale.Consigned}
			groups[key] = upd
		}
		if !sale.PurchasedAt.Before(cutoff72h) {
			upd.SalesLast72h++
		}
		if !sale.PurchasedAt.Before(cutoff30d) {
			upd.SalesLast30d++
		}
		if upd.LastSaleAt == nil || sale.PurchasedAt.After(*upd.LastSaleAt) {
			at := sale.PurchasedAt
			upd.LastSaleAt = &at
			upd.LastSalePrice = ParseMinorUnits(sale.PriceCents)
		}
	}

	out := make([]VolumeUpdate, 0, len(groups))
	for _, upd := range groups {
		out = append(out, *upd)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SizeKey != out[j].SizeKey {
			return out[i].SizeKey < out[j].SizeKey
		}
		return !out[i].Consigned && out[j].Consigned
	})
	return out
}
