package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"archvd/internal/client/ebay"
	"archvd/internal/models"
	"archvd/internal/normalize"
	"archvd/internal/repository"
)

// EbaySoldIngestService pulls sold-item records from the Marketplace Insights
// API and stores them as sale transactions. Each query string doubles as the
// SKU the results are filed under; outlier flags are decided here, at ingest,
// so the metrics engine only ever reads them.
type EbaySoldIngestService struct {
	Store  repository.Repository
	Ebay   *ebay.Client
	Logger *zap.Logger
}

type EbayIngestOptions struct {
	Queries      []string
	CurrencyCode string
	PageLimit    int
	SleepPerItem time.Duration
}

type EbayIngestResult struct {
	Queries     int `json:"queries"`
	Fetched     int `json:"fetched"`
	Stored      int `json:"stored"`
	Malformed   int `json:"malformed"`
	Outliers    int `json:"outliers"`
	QueryErrors int `json:"query_errors"`
}

const maxEbayPages = 10

func (s *EbaySoldIngestService) Ingest(ctx context.Context, opts EbayIngestOptions) (EbayIngestResult, error) {
	if s == nil || s.Store == nil || s.Ebay == nil {
		return EbayIngestResult{}, fmt.Errorf("ebay sold ingest unavailable")
	}
	limit := opts.PageLimit
	if limit <= 0 || limit > 200 {
		limit = 200
	}
	result := EbayIngestResult{}
	for i, query := range opts.Queries {
		if query == "" {
			continue
		}
		if i > 0 {
			if err := sleepBetween(ctx, opts.SleepPerItem); err != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeEbaySold, err)
				return result, err
			}
		}
		if err := s.ingestQuery(ctx, query, limit, opts.CurrencyCode, &result); err != nil {
			if ctx.Err() != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeEbaySold, err)
				return result, err
			}
			result.QueryErrors++
			if s.Logger != nil {
				s.Logger.Warn("ebay sold ingest query failed", zap.String("query", query), zap.Error(err))
			}
			continue
		}
		result.Queries++
	}
	writeSyncSuccess(ctx, s.Store, ScopeEbaySold, result)
	return result, nil
}

func (s *EbaySoldIngestService) ingestQuery(ctx context.Context, query string, limit int, currencyFallback string, result *EbayIngestResult) error {
	marketplaceID := s.Ebay.MarketplaceID()
	var batch []models.SaleTransaction
	offset := 0
	for page := 0; page < maxEbayPages; page++ {
		_, resp, err := s.Ebay.SearchItemSales(ctx, query, limit, offset)
		if err != nil {
			return err
		}
		if resp == nil || len(resp.ItemSales) == 0 {
			break
		}
		result.Fetched += len(resp.ItemSales)
		for _, sale := range resp.ItemSales {
			txn, ok := s.saleTransaction(sale, query, marketplaceID, currencyFallback)
			if !ok {
				result.Malformed++
				continue
			}
			batch = append(batch, txn)
		}
		offset += len(resp.ItemSales)
		if offset >= resp.Total {
			break
		}
	}
	result.Outliers += markOutliers(batch)
	if err := s.Store.InsertSaleTransactions(ctx, batch); err != nil {
		return err
	}
	result.Stored += len(batch)
	return nil
}

func (s *EbaySoldIngestService) saleTransaction(sale ebay.ItemSale, sku, marketplaceID, currencyFallback string) (models.SaleTransaction, bool) {
	price := normalize.ParseMajorUnits(sale.LastSoldPrice.Value)
	if sale.ItemID == "" || price == nil {
		return models.SaleTransaction{}, false
	}
	soldAt, err := time.Parse(time.RFC3339, sale.LastSoldDate)
	if err != nil {
		return models.SaleTransaction{}, false
	}
	currency := sale.LastSoldPrice.Currency
	if currency == "" {
		currency = currencyFallback
	}
	raw, _ := json.Marshal(sale)
	return models.SaleTransaction{
		SKU:               sku,
		SizeKey:           sizeFromAspects(sale.ItemAspects),
		CurrencyCode:      currency,
		MarketplaceID:     marketplaceID,
		ProviderItemID:    sale.ItemID,
		Price:             *price,
		SoldAt:            soldAt.UTC(),
		IncludedInMetrics: true,
		RawJSON:           datatypes.JSON(raw),
	}, true
}

func sizeFromAspects(aspects []ebay.ItemAspect) string {
	var fallback string
	for _, a := range aspects {
		switch a.Name {
		case "US Shoe Size", "US Shoe Size (Men's)", "US Shoe Size (Women's)":
			if a.Value != "" {
				return a.Value
			}
		case "Size":
			if fallback == "" {
				fallback = a.Value
			}
		}
	}
	if fallback != "" {
		return fallback
	}
	return "Unknown"
}

// markOutliers flags prices outside 1.5x the interquartile range within each
// (size, currency) bucket of the batch. Flagged rows stay stored but are
// excluded from median computation. Buckets under 4 points are left alone.
func markOutliers(batch []models.SaleTransaction) int {
	type bucketKey struct {
		sizeKey  string
		currency string
	}
	buckets := map[bucketKey][]int{}
	for i, txn := range batch {
		key := bucketKey{sizeKey: txn.SizeKey, currency: txn.CurrencyCode}
		buckets[key] = append(buckets[key], i)
	}

	flagged := 0
	for _, idxs := range buckets {
		if len(idxs) < 4 {
			continue
		}
		prices := make([]int64, 0, len(idxs))
		for _, i := range idxs {
			prices = append(prices, batch[i].Price)
		}
		sort.Slice(prices, func(i, j int) bool { return prices[i] < prices[j] })
		q1 := float64(*medianSorted(prices[:len(prices)/2]))
		q3 := float64(*medianSorted(prices[(len(prices)+1)/2:]))
		iqr := q3 - q1
		lo := q1 - 1.5*iqr
		hi := q3 + 1.5*iqr
		for _, i := range idxs {
			p := float64(batch[i].Price)
			if p < lo || p > hi {
				batch[i].IsOutlier = true
				batch[i].IncludedInMetrics = false
				flagged++
			}
		}
	}
	return flagged
}

func medianSorted(sorted []int64) *int64 {
	n := len(sorted)
	if n == 0 {
		return nil
	}
	mid := n / 2
	if n%2 == 1 {
		v := sorted[mid]
		return &v
	}
	v := (sorted[mid-1] + sorted[mid]) / 2
	return &v
}
