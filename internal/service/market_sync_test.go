package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"archvd/internal/client/alias"
	"archvd/internal/client/stockx"
	"archvd/internal/models"
	"archvd/internal/normalize"
)

func TestSyncStockX_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/market-data"):
			w.Write([]byte(`[{"variantId":"v-1","lowestAskAmount":145.00,"highestBidAmount":"120.00","flexMarketData":{"lowestAsk":130.00}}]`))
		case strings.HasSuffix(r.URL.Path, "/variants"):
			w.Write([]byte(`[{"variantId":"v-1","variantValue":"10"}]`))
		default:
			w.Write([]byte(`{"styleId":"DZ5485-612","productAttributes":{"gender":"men"}}`))
		}
	}))
	defer server.Close()

	repo := newStubRepo()
	svc := &MarketSyncService{
		Store:      repo,
		StockX:     stockx.NewClient(server.Client(), server.URL, "key", "token"),
		Normalizer: &normalize.Normalizer{},
	}
	result, err := svc.SyncStockX(context.Background(), SyncOptions{
		ProductIDs:   []string{"prod-1"},
		CurrencyCode: "USD",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.Products != 1 || result.ProductErrors != 0 {
		t.Fatalf("result=%+v", result)
	}
	if result.Rows != 2 {
		t.Fatalf("rows=%d want 2 (standard + flex)", result.Rows)
	}
	if len(repo.marketData) != 2 {
		t.Fatalf("stored=%d want 2", len(repo.marketData))
	}
	standard := repo.marketData[0]
	if standard.LowestAsk == nil || *standard.LowestAsk != 14500 {
		t.Fatalf("ask=%v want 14500", standard.LowestAsk)
	}
	if standard.SKU == nil || *standard.SKU != "DZ5485-612" {
		t.Fatalf("sku=%v", standard.SKU)
	}
	if standard.RawSnapshotID == nil {
		t.Fatalf("raw snapshot id missing")
	}
	if len(repo.snapshots) != 1 || repo.snapshots[0].Provider != models.ProviderStockX {
		t.Fatalf("snapshots=%+v", repo.snapshots)
	}
	if repo.viewRefreshes != 1 {
		t.Fatalf("view refreshes=%d want 1", repo.viewRefreshes)
	}
	state, ok := repo.syncStates[ScopeStockX]
	if !ok || state.LastSuccessAt == nil {
		t.Fatalf("sync state not written: %+v", state)
	}
}

func TestSyncStockX_ProductErrorDoesNotAbortRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "bad-product") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, "/market-data"):
			w.Write([]byte(`[{"variantId":"v-1","lowestAskAmount":80}]`))
		case strings.HasSuffix(r.URL.Path, "/variants"):
			w.Write([]byte(`[]`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	repo := newStubRepo()
	svc := &MarketSyncService{
		Store:      repo,
		StockX:     stockx.NewClient(server.Client(), server.URL, "key", "token"),
		Normalizer: &normalize.Normalizer{},
	}
	result, err := svc.SyncStockX(context.Background(), SyncOptions{
		ProductIDs:   []string{"bad-product", "good-product"},
		CurrencyCode: "USD",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.ProductErrors != 1 {
		t.Fatalf("product errors=%d want 1", result.ProductErrors)
	}
	if result.Rows != 1 {
		t.Fatalf("rows=%d want 1", result.Rows)
	}
}

func TestSyncStockX_StoreErrorAborts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/market-data"):
			w.Write([]byte(`[{"variantId":"v-1","lowestAskAmount":80}]`))
		case strings.HasSuffix(r.URL.Path, "/variants"):
			w.Write([]byte(`[]`))
		default:
			w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	repo := newStubRepo()
	repo.upsertErr = errors.New("connection reset")
	svc := &MarketSyncService{
		Store:      repo,
		StockX:     stockx.NewClient(server.Client(), server.URL, "key", "token"),
		Normalizer: &normalize.Normalizer{},
	}
	_, err := svc.SyncStockX(context.Background(), SyncOptions{
		ProductIDs:   []string{"prod-1", "prod-2"},
		CurrencyCode: "USD",
	})
	if err == nil {
		t.Fatalf("store write error must abort the run")
	}
	state := repo.syncStates[ScopeStockX]
	if state.LastError == nil {
		t.Fatalf("failure not recorded in sync state")
	}
}

func TestSyncAlias_EndToEnd(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"catalog_id":"cat-1","variants":[
			{"size":"9.5","product_condition":"new","packaging_condition":"good_condition",
			 "availability":{"lowest_listing_price_cents":"14500","last_sold_price_cents":"13800"}},
			{"size":"9.5","product_condition":"used","packaging_condition":"good_condition",
			 "availability":{"lowest_listing_price_cents":"9000"}}
		]}`))
	}))
	defer server.Close()

	repo := newStubRepo()
	svc := &MarketSyncService{
		Store:      repo,
		Alias:      alias.NewClient(server.Client(), server.URL, "token"),
		Normalizer: &normalize.Normalizer{},
	}
	result, err := svc.SyncAlias(context.Background(), SyncOptions{
		ProductIDs:      []string{"cat-1"},
		CurrencyCode:    "USD",
		ConsignedFilter: normalize.ConsignedBoth,
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.Rows != 1 {
		t.Fatalf("rows=%d want 1 (used condition filtered)", result.Rows)
	}
	if result.Stats.ConditionFiltered != 1 {
		t.Fatalf("stats=%+v", result.Stats)
	}
	row := repo.marketData[0]
	if row.LowestAsk == nil || *row.LowestAsk != 14500 {
		t.Fatalf("ask=%v want 14500 unscaled", row.LowestAsk)
	}
}

func TestBackfill_UpdateOnly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sales":[
			{"size":"9.5","price_cents":"14000","purchased_at":"2026-03-01T10:00:00Z"},
			{"size":"9.5","price_cents":"13500","purchased_at":"2026-02-27T10:00:00Z"},
			{"size":"13","price_cents":"9000","purchased_at":"2026-03-01T09:00:00Z"}
		]}`))
	}))
	defer server.Close()

	repo := newStubRepo()
	repo.volumeMatches = 1
	svc := &AliasSalesBackfillService{
		Store:      repo,
		Alias:      alias.NewClient(server.Client(), server.URL, "token"),
		Normalizer: &normalize.Normalizer{},
	}
	result, err := svc.Backfill(context.Background(), BackfillOptions{
		CatalogIDs:   []string{"cat-1"},
		CurrencyCode: "USD",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.Sales != 3 || result.Groups != 2 {
		t.Fatalf("result=%+v", result)
	}
	if result.RowsUpdated != 2 {
		t.Fatalf("rows updated=%d want 2", result.RowsUpdated)
	}
	if len(repo.volumeUpdates) != 2 {
		t.Fatalf("volume updates=%+v", repo.volumeUpdates)
	}
}

func TestBackfill_UnmatchedGroupIsNoOp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sales":[{"size":"9.5","price_cents":"14000","purchased_at":"2026-03-01T10:00:00Z"}]}`))
	}))
	defer server.Close()

	repo := newStubRepo()
	svc := &AliasSalesBackfillService{
		Store:      repo,
		Alias:      alias.NewClient(server.Client(), server.URL, "token"),
		Normalizer: &normalize.Normalizer{},
	}
	result, err := svc.Backfill(context.Background(), BackfillOptions{
		CatalogIDs:   []string{"cat-1"},
		CurrencyCode: "USD",
	})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.GroupsUnmatched != 1 || result.RowsUpdated != 0 {
		t.Fatalf("result=%+v", result)
	}
	if len(repo.marketData) != 0 {
		t.Fatalf("backfill must never insert fact rows")
	}
}
