package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"archvd/internal/client/alias"
	"archvd/internal/models"
)

func aliasVariant(size string, consigned bool, lastSoldCents any) alias.Variant {
	return alias.Variant{
		Size:               json.Number(size),
		ProductCondition:   alias.ProductConditionNew,
		PackagingCondition: alias.PackagingConditionGoodBox,
		Consigned:          consigned,
		Availability: &alias.Availability{
			LowestListingPriceCents: "14500",
			LastSoldPriceCents:      lastSoldCents,
		},
	}
}

func TestBuildAliasRows_MinorUnitsUnscaled(t *testing.T) {
	n := &Normalizer{}
	resp := &alias.AvailabilityResponse{
		Variants: []alias.Variant{aliasVariant("9.5", false, "13800")},
	}
	rows, stats := n.BuildAliasRows(resp, Context{ProductID: "cat-1", CurrencyCode: "USD"})
	if len(rows) != 1 {
		t.Fatalf("rows=%d want 1", len(rows))
	}
	if stats.RowsEmitted != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	row := rows[0]
	if row.Provider != models.ProviderAlias || row.ProviderSource != models.SourceAliasAvailabilities {
		t.Fatalf("row tags: %+v", row)
	}
	if row.LowestAsk == nil || *row.LowestAsk != 14500 {
		t.Fatalf("ask=%v want 14500 (no scaling)", row.LowestAsk)
	}
	if row.LastSalePrice == nil || *row.LastSalePrice != 13800 {
		t.Fatalf("last sale=%v want 13800", row.LastSalePrice)
	}
	if row.ProviderVariantID != "" {
		t.Fatalf("variant id=%q want empty", row.ProviderVariantID)
	}
}

func TestBuildAliasRows_ConditionLock(t *testing.T) {
	n := &Normalizer{}
	used := aliasVariant("9.5", false, nil)
	used.ProductCondition = "used"
	badBox := aliasVariant("10", false, nil)
	badBox.PackagingCondition = "missing_lid"
	resp := &alias.AvailabilityResponse{
		Variants: []alias.Variant{used, badBox, aliasVariant("11", false, nil)},
	}
	rows, stats := n.BuildAliasRows(resp, Context{ProductID: "cat-1", CurrencyCode: "USD"})
	if len(rows) != 1 {
		t.Fatalf("rows=%d want 1", len(rows))
	}
	if stats.ConditionFiltered != 2 {
		t.Fatalf("condition filtered=%d want 2", stats.ConditionFiltered)
	}
}

func TestBuildAliasRows_ConsignedFilter(t *testing.T) {
	n := &Normalizer{}
	resp := &alias.AvailabilityResponse{
		Variants: []alias.Variant{
			aliasVariant("9", false, nil),
			aliasVariant("9", true, nil),
		},
	}

	rows, _ := n.BuildAliasRows(resp, Context{ProductID: "cat-1", CurrencyCode: "USD", ConsignedFilter: ConsignedBoth})
	if len(rows) != 2 {
		t.Fatalf("both: rows=%d want 2", len(rows))
	}
	if rows[1].ProviderSource != models.SourceAliasAvailabilitiesConsigned || !rows[1].IsConsigned {
		t.Fatalf("consigned row not tagged: %+v", rows[1])
	}

	rows, stats := n.BuildAliasRows(resp, Context{ProductID: "cat-1", CurrencyCode: "USD", ConsignedFilter: ConsignedOnly})
	if len(rows) != 1 || !rows[0].IsConsigned {
		t.Fatalf("consigned_only: rows=%+v", rows)
	}
	if stats.ConsignedFiltered != 1 {
		t.Fatalf("consigned filtered=%d want 1", stats.ConsignedFiltered)
	}

	rows, _ = n.BuildAliasRows(resp, Context{ProductID: "cat-1", CurrencyCode: "USD", ConsignedFilter: ConsignedExclude})
	if len(rows) != 1 || rows[0].IsConsigned {
		t.Fatalf("non_consigned: rows=%+v", rows)
	}
}

func TestBuildAliasRows_MissingAvailability(t *testing.T) {
	n := &Normalizer{}
	v := aliasVariant("9", false, nil)
	v.Availability = nil
	resp := &alias.AvailabilityResponse{Variants: []alias.Variant{v}}
	rows, stats := n.BuildAliasRows(resp, Context{ProductID: "cat-1", CurrencyCode: "USD"})
	if len(rows) != 0 {
		t.Fatalf("rows=%d want 0", len(rows))
	}
	if stats.MissingAvailability != 1 {
		t.Fatalf("missing availability=%d want 1", stats.MissingAvailability)
	}
}

func TestBuildAliasRows_SizeOptionPresentationWins(t *testing.T) {
	n := &Normalizer{}
	v := aliasVariant("9.5", false, nil)
	v.SizeOption = &alias.SizeOption{Presentation: "9.5W", Value: 9.5}
	resp := &alias.AvailabilityResponse{Variants: []alias.Variant{v}}
	rows, _ := n.BuildAliasRows(resp, Context{ProductID: "cat-1", CurrencyCode: "USD"})
	if len(rows) != 1 || rows[0].SizeKey != "9.5W" {
		t.Fatalf("rows=%+v want size key 9.5W", rows)
	}
}

func TestBuildAliasVolumeUpdates_Windows(t *testing.T) {
	n := &Normalizer{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sales := []alias.RecentSale{
		{Size: "9.5", PriceCents: "14000", PurchasedAt: now.Add(-1 * time.Hour)},
		{Size: "9.5", PriceCents: "13500", PurchasedAt: now.Add(-70 * time.Hour)},
		{Size: "9.5", PriceCents: "13000", PurchasedAt: now.AddDate(0, 0, -10)},
		{Size: "9.5", PriceCents: "12000", PurchasedAt: now.AddDate(0, 0, -40)},
		{Size: "10", PriceCents: "15000", PurchasedAt: now.AddDate(0, 0, -5), Consigned: true},
	}
	updates := n.BuildAliasVolumeUpdates(sales, now)
	if len(updates) != 2 {
		t.Fatalf("updates=%d want 2", len(updates))
	}

	first := updates[0]
	if first.SizeKey != "10" || !first.Consigned {
		t.Fatalf("first group=%+v", first)
	}
	if first.SalesLast72h != 0 || first.SalesLast30d != 1 {
		t.Fatalf("first counts=%+v", first)
	}

	second := updates[1]
	if second.SizeKey != "9.5" || second.Consigned {
		t.Fatalf("second group=%+v", second)
	}
	if second.SalesLast72h != 2 {
		t.Fatalf("72h=%d want 2", second.SalesLast72h)
	}
	if second.SalesLast30d != 3 {
		t.Fatalf("30d=%d want 3 (40d-old sale is outside)", second.SalesLast30d)
	}
	if second.LastSalePrice == nil || *second.LastSalePrice != 14000 {
		t.Fatalf("last sale price=%v want 14000", second.LastSalePrice)
	}
	if second.LastSaleAt == nil || !second.LastSaleAt.Equal(now.Add(-1*time.Hour)) {
		t.Fatalf("last sale at=%v", second.LastSaleAt)
	}
}

func TestBuildAliasVolumeUpdates_SkipsMalformed(t *testing.T) {
	n := &Normalizer{}
	now := time.Now().UTC()
	sales := []alias.RecentSale{
		{Size: "", PriceCents: "100", PurchasedAt: now},
		{Size: "9", PriceCents: "100"},
	}
	if updates := n.BuildAliasVolumeUpdates(sales, now); len(updates) != 0 {
		t.Fatalf("updates=%+v want none", updates)
	}
}
