package normalize

import (
	"testing"
	"time"

	"archvd/internal/models"
)

func factRow(source, variantID, sizeKey string, ask int64, at time.Time) models.MarketData {
	return models.MarketData{
		Provider:          models.ProviderStockX,
		ProviderSource:    source,
		ProviderProductID: "prod-1",
		ProviderVariantID: variantID,
		SizeKey:           sizeKey,
		CurrencyCode:      "USD",
		LowestAsk:         &ask,
		SnapshotAt:        at,
	}
}

func TestDedupe_FirstSeenWins(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	rows := []models.MarketData{
		factRow(models.SourceStockXMarketData, "v-1", "10", 14500, t1),
		factRow(models.SourceStockXMarketData, "v-1", "10", 13000, t2),
	}
	out := Dedupe(rows)
	if len(out) != 1 {
		t.Fatalf("out=%d want 1", len(out))
	}
	if *out[0].LowestAsk != 14500 {
		t.Fatalf("ask=%d want first-seen 14500", *out[0].LowestAsk)
	}
}

func TestDedupe_SnapshotAtNotPartOfKey(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.MarketData{
		factRow(models.SourceStockXMarketData, "v-1", "10", 100, t1),
		factRow(models.SourceStockXMarketData, "v-1", "10", 100, t1.Add(time.Minute)),
	}
	if out := Dedupe(rows); len(out) != 1 {
		t.Fatalf("out=%d want 1 (snapshot_at must not split the key)", len(out))
	}
}

func TestDedupe_DistinctKeysSurvive(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.MarketData{
		factRow(models.SourceStockXMarketData, "v-1", "10", 100, t1),
		factRow(models.SourceStockXMarketDataFlex, "v-1", "10", 100, t1),
		factRow(models.SourceStockXMarketData, "v-2", "10.5", 100, t1),
	}
	out := Dedupe(rows)
	if len(out) != 3 {
		t.Fatalf("out=%d want 3", len(out))
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.MarketData{
		factRow(models.SourceStockXMarketData, "v-1", "10", 100, t1),
		factRow(models.SourceStockXMarketData, "v-1", "10", 200, t1),
		factRow(models.SourceStockXMarketDataFlex, "v-1", "10", 100, t1),
	}
	once := Dedupe(rows)
	twice := Dedupe(once)
	if len(once) != 2 || len(twice) != 2 {
		t.Fatalf("once=%d twice=%d want 2", len(once), len(twice))
	}
}

func TestDedupe_Empty(t *testing.T) {
	if out := Dedupe(nil); len(out) != 0 {
		t.Fatalf("out=%v want empty", out)
	}
}
