package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"archvd/internal/models"
)

func TestMedian(t *testing.T) {
	require.Nil(t, Median(nil))

	m := Median([]int64{100, 200, 300})
	require.NotNil(t, m)
	require.EqualValues(t, 200, *m)

	m = Median([]int64{100, 200})
	require.NotNil(t, m)
	require.EqualValues(t, 150, *m)

	m = Median([]int64{300, 100, 200, 400})
	require.NotNil(t, m)
	require.EqualValues(t, 250, *m)

	m = Median([]int64{42})
	require.NotNil(t, m)
	require.EqualValues(t, 42, *m)
}

func TestVolatility(t *testing.T) {
	require.Nil(t, volatility(nil))
	require.Nil(t, volatility([]int64{100}))

	v := volatility([]int64{100, 100, 100})
	require.NotNil(t, v)
	require.Zero(t, *v)

	// population stddev of {100, 200} is 50, mean 150 -> CV 33.33%
	v = volatility([]int64{100, 200})
	require.NotNil(t, v)
	require.InDelta(t, 33.3333, *v, 0.001)

	require.Nil(t, volatility([]int64{-100, 100}))
}

func TestCompute_Windows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	txns := []Transaction{
		{Price: 14000, SoldAt: now.Add(-1 * time.Hour), IncludedInMetrics: true},
		{Price: 13000, SoldAt: now.AddDate(0, 0, -5), IncludedInMetrics: true},
		{Price: 12000, SoldAt: now.AddDate(0, 0, -20), IncludedInMetrics: true},
		{Price: 11000, SoldAt: now.AddDate(0, 0, -60), IncludedInMetrics: true},
		{Price: 99000, SoldAt: now.AddDate(0, 0, -10), IsOutlier: true},
		{Price: 10000, SoldAt: now.AddDate(0, 0, -120), IncludedInMetrics: true},
	}
	res := Compute(txns, now)

	require.Equal(t, 1, res.SampleSize72h)
	require.Equal(t, 2, res.SampleSize7d)
	require.Equal(t, 3, res.SampleSize30d)
	require.Equal(t, 4, res.SampleSize90d)

	require.NotNil(t, res.Median90d)
	require.EqualValues(t, 12500, *res.Median90d)

	// the excluded outlier counts toward totals but never toward prices
	require.Equal(t, 5, res.TotalSales90d)
	require.Equal(t, 1, res.OutlierCount90d)
	require.NotNil(t, res.OutlierRatio90d)
	require.InDelta(t, 20.0, *res.OutlierRatio90d, 0.001)
	require.NotNil(t, res.MaxPrice90d)
	require.EqualValues(t, 14000, *res.MaxPrice90d)
	require.NotNil(t, res.MinPrice90d)
	require.EqualValues(t, 11000, *res.MinPrice90d)

	require.NotNil(t, res.LastSaleAt)
	require.True(t, res.LastSaleAt.Equal(now.Add(-1*time.Hour)))
}

func TestCompute_Empty(t *testing.T) {
	res := Compute(nil, time.Now().UTC())
	require.Nil(t, res.Median72h)
	require.Nil(t, res.Median90d)
	require.Nil(t, res.Volatility90d)
	require.Nil(t, res.OutlierRatio90d)
	require.Nil(t, res.MinPrice90d)
	require.Zero(t, res.TotalSales90d)
	require.Zero(t, res.LiquidityScore)
	// nil volatility 10 + nil outlier ratio 20
	require.Equal(t, 30, res.ConfidenceScore)
}

func TestLiquidityScore_Breakpoints(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-1 * time.Hour)

	require.Equal(t, 100, liquidityScore(5, 10, 20, &recent, now))
	require.Equal(t, 0, liquidityScore(0, 0, 0, nil, now))

	// half-full 72h bucket
	require.Equal(t, 16, liquidityScore(2, 0, 0, nil, now))

	stale := now.AddDate(0, 0, -30)
	require.Equal(t, 2, liquidityScore(0, 0, 0, &stale, now))

	weekOld := now.Add(-100 * time.Hour)
	require.Equal(t, 5, liquidityScore(0, 0, 0, &weekOld, now))
}

func TestConfidenceScore(t *testing.T) {
	zero := 0.0
	require.Equal(t, 100, confidenceScore(30, &zero, &zero))

	// volatility at the 50% cap wipes the volatility points
	highVol := 50.0
	require.Equal(t, 70, confidenceScore(30, &highVol, &zero))

	// outlier ratio at the 20% cap wipes the outlier points
	highOutliers := 20.0
	require.Equal(t, 80, confidenceScore(30, &zero, &highOutliers))

	// nil volatility scores the fixed 10
	require.Equal(t, 80, confidenceScore(30, nil, &zero))

	// sample size is linear below the cap
	require.Equal(t, 75, confidenceScore(15, &zero, &zero))
}

func TestScores_Bounded(t *testing.T) {
	now := time.Now().UTC()
	recent := now
	require.LessOrEqual(t, liquidityScore(1000, 1000, 1000, &recent, now), 100)
	vol := -10.0
	ratio := -10.0
	require.LessOrEqual(t, confidenceScore(1000, &vol, &ratio), 100)
	require.GreaterOrEqual(t, confidenceScore(0, &vol, &ratio), 0)
}

func TestGroupTransactions(t *testing.T) {
	rows := []models.SaleTransaction{
		{SKU: "DZ5485-612", SizeKey: "10", CurrencyCode: "USD", MarketplaceID: "EBAY_US", Price: 100},
		{SKU: "DZ5485-612", SizeKey: "10", CurrencyCode: "USD", MarketplaceID: "EBAY_US", Price: 200},
		{SKU: "DZ5485-612", SizeKey: "10.5", CurrencyCode: "USD", MarketplaceID: "EBAY_US", Price: 300},
	}
	groups := GroupTransactions(rows)
	require.Len(t, groups, 2)
	key := GroupKey{SKU: "DZ5485-612", SizeKey: "10", CurrencyCode: "USD", MarketplaceID: "EBAY_US"}
	require.Len(t, groups[key], 2)
}
