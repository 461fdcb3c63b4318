package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"archvd/internal/models"
)

func TestMetricsRecompute(t *testing.T) {
	now := time.Now().UTC()
	repo := newStubRepo()
	repo.listTxns = []models.SaleTransaction{
		{SKU: "DZ5485-612", SizeKey: "10", CurrencyCode: "USD", MarketplaceID: "EBAY_US",
			Price: 14000, SoldAt: now.Add(-24 * time.Hour), IncludedInMetrics: true},
		{SKU: "DZ5485-612", SizeKey: "10", CurrencyCode: "USD", MarketplaceID: "EBAY_US",
			Price: 14600, SoldAt: now.AddDate(0, 0, -5), IncludedInMetrics: true},
		{SKU: "DZ5485-612", SizeKey: "10.5", CurrencyCode: "USD", MarketplaceID: "EBAY_US",
			Price: 15000, SoldAt: now.AddDate(0, 0, -2), IncludedInMetrics: true},
	}

	svc := &MetricsService{Store: repo}
	result, err := svc.Recompute(context.Background(), MetricsOptions{})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.Transactions != 3 || result.Groups != 2 || result.Written != 2 {
		t.Fatalf("result=%+v", result)
	}
	if len(repo.metrics) != 2 {
		t.Fatalf("metrics=%d want 2", len(repo.metrics))
	}

	var size10 *models.MarketMetric
	for i := range repo.metrics {
		if repo.metrics[i].SizeKey == "10" {
			size10 = &repo.metrics[i]
		}
	}
	if size10 == nil {
		t.Fatalf("size 10 group missing")
	}
	if size10.Median90d == nil || *size10.Median90d != 14300 {
		t.Fatalf("median=%v want 14300", size10.Median90d)
	}
	if size10.SampleSize90d != 2 {
		t.Fatalf("sample=%d want 2", size10.SampleSize90d)
	}
	if size10.ComputedAt.IsZero() {
		t.Fatalf("computed_at not set")
	}

	state, ok := repo.syncStates[ScopeMetrics]
	if !ok || state.LastSuccessAt == nil {
		t.Fatalf("sync state not written")
	}
}

func TestMetricsRecompute_Idempotent(t *testing.T) {
	now := time.Now().UTC()
	repo := newStubRepo()
	repo.listTxns = []models.SaleTransaction{
		{SKU: "A", SizeKey: "9", CurrencyCode: "USD", MarketplaceID: "EBAY_US",
			Price: 10000, SoldAt: now.AddDate(0, 0, -3), IncludedInMetrics: true},
	}
	svc := &MetricsService{Store: repo}
	if _, err := svc.Recompute(context.Background(), MetricsOptions{}); err != nil {
		t.Fatalf("err=%v", err)
	}
	if _, err := svc.Recompute(context.Background(), MetricsOptions{}); err != nil {
		t.Fatalf("err=%v", err)
	}
	first, second := repo.metrics[0], repo.metrics[1]
	if *first.Median90d != *second.Median90d || first.SampleSize90d != second.SampleSize90d {
		t.Fatalf("recompute not stable: %+v vs %+v", first, second)
	}
}

func TestMetricsRecompute_WriteErrorPropagates(t *testing.T) {
	now := time.Now().UTC()
	repo := newStubRepo()
	repo.listTxns = []models.SaleTransaction{
		{SKU: "A", SizeKey: "9", CurrencyCode: "USD", MarketplaceID: "EBAY_US",
			Price: 10000, SoldAt: now.AddDate(0, 0, -3), IncludedInMetrics: true},
	}
	repo.metricsErr = errors.New("disk full")
	svc := &MetricsService{Store: repo}
	if _, err := svc.Recompute(context.Background(), MetricsOptions{}); err == nil {
		t.Fatalf("expected write error to propagate")
	}
	state := repo.syncStates[ScopeMetrics]
	if state.LastError == nil {
		t.Fatalf("failure not recorded in sync state")
	}
}
