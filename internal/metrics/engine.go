// Package metrics computes per-group sold-price statistics from individual
// sale transactions: rolling medians over four windows, 90d range and
// volatility, and the liquidity/confidence scores. Everything here is a pure
// function of its inputs; recomputing over the same transactions yields the
// same result.
package metrics

import (
	"math"
	"sort"
	"time"

	"archvd/internal/models"
)

// Transaction is one sold record as the engine sees it. IncludedInMetrics is
// set by the upstream outlier pass: excluded rows never feed prices, but they
// do feed the outlier ratio, which must reflect how noisy the raw feed was.
type Transaction struct {
	Price             int64
	SoldAt            time.Time
	IncludedInMetrics bool
	IsOutlier         bool
}

type GroupKey struct {
	SKU           string
	SizeKey       string
	CurrencyCode  string
	MarketplaceID string
}

type Result struct {
	Median72h     *int64
	SampleSize72h int
	Median7d      *int64
	SampleSize7d  int
	Median30d     *int64
	SampleSize30d int
	Median90d     *int64
	SampleSize90d int

	MinPrice90d *int64
	MaxPrice90d *int64

	Volatility90d *float64

	LiquidityScore  int
	ConfidenceScore int

	TotalSales90d   int
	OutlierCount90d int
	OutlierRatio90d *float64

	LastSaleAt *time.Time
}

// GroupTransactions buckets store rows by their natural dimensions.
func GroupTransactions(rows []models.SaleTransaction) map[GroupKey][]Transaction {
	groups := make(map[GroupKey][]Transaction)
	for _, row := range rows {
		key := GroupKey{
			SKU:           row.SKU,
			SizeKey:       row.SizeKey,
			CurrencyCode:  row.CurrencyCode,
			MarketplaceID: row.MarketplaceID,
		}
		groups[key] = append(groups[key], Transaction{
			Price:             row.Price,
			SoldAt:            row.SoldAt,
			IncludedInMetrics: row.IncludedInMetrics,
			IsOutlier:         row.IsOutlier,
		})
	}
	return groups
}

// Compute aggregates one group's transactions over four overlapping windows
// anchored at now (72h, 7d, 30d, 90d; each a superset of the shorter ones).
func Compute(txns []Transaction, now time.Time) Result {
	cutoff72h := now.Add(-72 * time.Hour)
	cutoff7d := now.AddDate(0, 0, -7)
	cutoff30d := now.AddDate(0, 0, -30)
	cutoff90d := now.AddDate(0, 0, -90)

	var all90 []Transaction
	var prices72h, prices7d, prices30d, prices90d []int64
	var lastSaleAt *time.Time

	for _, txn := range txns {
		if txn.SoldAt.Before(cutoff90d) {
			continue
		}
		all90 = append(all90, txn)
		if !txn.IncludedInMetrics {
			continue
		}
		prices90d = append(prices90d, txn.Price)
		if !txn.SoldAt.Before(cutoff30d) {
			prices30d = append(prices30d, txn.Price)
		}
		if !txn.SoldAt.Before(cutoff7d) {
			prices7d = append(prices7d, txn.Price)
		}
		if !txn.SoldAt.Before(cutoff72h) {
			prices72h = append(prices72h, txn.Price)
		}
		if lastSaleAt == nil || txn.SoldAt.After(*lastSaleAt) {
			at := txn.SoldAt
			lastSaleAt = &at
		}
	}

	res := Result{
		Median72h:     Median(prices72h),
		SampleSize72h: len(prices72h),
		Median7d:      Median(prices7d),
		SampleSize7d:  len(prices7d),
		Median30d:     Median(prices30d),
		SampleSize30d: len(prices30d),
		Median90d:     Median(prices90d),
		SampleSize90d: len(prices90d),
		Volatility90d: volatility(prices90d),
		TotalSales90d: len(all90),
		LastSaleAt:    lastSaleAt,
	}

	res.MinPrice90d, res.MaxPrice90d = minMax(prices90d)

	for _, txn := range all90 {
		if txn.IsOutlier {
			res.OutlierCount90d++
		}
	}
	if res.TotalSales90d > 0 {
		ratio := float64(res.OutlierCount90d) / float64(res.TotalSales90d) * 100
		res.OutlierRatio90d = &ratio
	}

	res.LiquidityScore = liquidityScore(len(prices72h), len(prices7d), len(prices30d), lastSaleAt, now)
	res.ConfidenceScore = confidenceScore(len(prices90d), res.Volatility90d, res.OutlierRatio90d)

	return res
}

// Median returns the middle price of the window: sorted ascending, odd count
// takes the middle element, even count the mean of the two middle elements
// (rounded half away from zero), empty window nil.
func Median(prices []int64) *int64 {
	if len(prices) == 0 {
		return nil
	}
	sorted := make([]int64, len(prices))
	copy(sorted, prices)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	mid := len(sorted) / 2
	var m int64
	if len(sorted)%2 == 1 {
		m = sorted[mid]
	} else {
		m = int64(math.Round(float64(sorted[mid-1]+sorted[mid]) / 2))
	}
	return &m
}

// volatility is the coefficient of variation in percent over the window,
// using the population standard deviation (divide by N). Needs at least two
// points; a zero mean yields nil rather than a division by zero.
func volatility(prices []int64) *float64 {
	if len(prices) < 2 {
		return nil
	}
	var sum float64
	for _, p := range prices {
		sum += float64(p)
	}
	mean := sum / float64(len(prices))
	if mean == 0 {
		return nil
	}
	var sq float64
	for _, p := range prices {
		d := float64(p) - mean
		sq += d * d
	}
	cv := math.Sqrt(sq/float64(len(prices))) / mean * 100
	return &cv
}

func minMax(prices []int64) (*int64, *int64) {
	if len(prices) == 0 {
		return nil, nil
	}
	lo, hi := prices[0], prices[0]
	for _, p := range prices[1:] {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return &lo, &hi
}

// liquidityScore is a piecewise-linear 0-100 heuristic: 72h volume up to 40
// points (cap 5 sales), 7d up to 30 (cap 10), 30d up to 20 (cap 20), recency
// of the last included sale up to 10. The breakpoints are part of the
// contract; downstream consumers compare scores across recomputations.
func liquidityScore(vol72h, vol7d, vol30d int, lastSaleAt *time.Time, now time.Time) int {
	score := math.Min(float64(vol72h), 5) / 5 * 40
	score += math.Min(float64(vol7d), 10) / 10 * 30
	score += math.Min(float64(vol30d), 20) / 20 * 20

	if lastSaleAt != nil {
		age := now.Sub(*lastSaleAt)
		switch {
		case age <= 24*time.Hour:
			score += 10
		case age <= 72*time.Hour:
			score += 7
		case age <= 168*time.Hour:
			score += 5
		default:
			score += 2
		}
	}

	return int(math.Round(math.Min(score, 100)))
}

// confidenceScore: sample size up to 50 points (cap 30 sales), a volatility
// penalty worth 30 points at 0% CV decaying to 0 at >=50% (nil volatility
// scores a fixed 10 for insufficient variance data), and an outlier penalty
// worth 20 points at 0% decaying to 0 at >=20% outlier ratio (nil ratio means
// no outliers observed and keeps the full 20).
func confidenceScore(sample90 int, vol *float64, outlierRatio *float64) int {
	score := math.Min(float64(sample90), 30) / 30 * 50

	if vol == nil {
		score += 10
	} else {
		score += clamp(30*(1-*vol/50), 0, 30)
	}

	if outlierRatio == nil {
		score += 20
	} else {
		score += clamp(20*(1-*outlierRatio/20), 0, 20)
	}

	return int(math.Round(math.Min(score, 100)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
