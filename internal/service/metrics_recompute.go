package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"archvd/internal/metrics"
	"archvd/internal/models"
	"archvd/internal/repository"
)

// MetricsService recomputes the per-group market metrics from the stored sale
// transactions. Recomputation is idempotent: the same transactions always
// produce the same metric rows.
type MetricsService struct {
	Store  repository.Repository
	Logger *zap.Logger
}

type MetricsOptions struct {
	LookbackDays int
	BatchSize    int
}

type MetricsResult struct {
	Transactions int `json:"transactions"`
	Groups       int `json:"groups"`
	Written      int `json:"written"`
}

func (s *MetricsService) Recompute(ctx context.Context, opts MetricsOptions) (MetricsResult, error) {
	if s == nil || s.Store == nil {
		return MetricsResult{}, fmt.Errorf("metrics service unavailable")
	}
	lookback := opts.LookbackDays
	if lookback <= 0 {
		lookback = 90
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	now := time.Now().UTC()
	since := now.AddDate(0, 0, -lookback)
	txns, err := s.Store.ListSaleTransactionsSince(ctx, since)
	if err != nil {
		writeSyncFailure(ctx, s.Store, s.Logger, ScopeMetrics, err)
		return MetricsResult{}, err
	}

	groups := metrics.GroupTransactions(txns)
	result := MetricsResult{Transactions: len(txns), Groups: len(groups)}

	batch := make([]models.MarketMetric, 0, batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := s.Store.UpsertMarketMetrics(ctx, batch); err != nil {
			return err
		}
		result.Written += len(batch)
		batch = batch[:0]
		return nil
	}

	for key, group := range groups {
		res := metrics.Compute(group, now)
		batch = append(batch, models.MarketMetric{
			SKU:             key.SKU,
			SizeKey:         key.SizeKey,
			CurrencyCode:    key.CurrencyCode,
			MarketplaceID:   key.MarketplaceID,
			Median72h:       res.Median72h,
			SampleSize72h:   res.SampleSize72h,
			Median7d:        res.Median7d,
			SampleSize7d:    res.SampleSize7d,
			Median30d:       res.Median30d,
			SampleSize30d:   res.SampleSize30d,
			Median90d:       res.Median90d,
			SampleSize90d:   res.SampleSize90d,
			MinPrice90d:     res.MinPrice90d,
			MaxPrice90d:     res.MaxPrice90d,
			Volatility90d:   res.Volatility90d,
			LiquidityScore:  res.LiquidityScore,
			ConfidenceScore: res.ConfidenceScore,
			TotalSales90d:   res.TotalSales90d,
			OutlierCount90d: res.OutlierCount90d,
			OutlierRatio90d: res.OutlierRatio90d,
			LastSaleAt:      res.LastSaleAt,
			ComputedAt:      now,
		})
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeMetrics, err)
				return result, err
			}
		}
	}
	if err := flush(); err != nil {
		writeSyncFailure(ctx, s.Store, s.Logger, ScopeMetrics, err)
		return result, err
	}

	if s.Logger != nil {
		s.Logger.Info("metrics recompute complete",
			zap.Int("transactions", result.Transactions),
			zap.Int("groups", result.Groups),
			zap.Int("written", result.Written))
	}
	writeSyncSuccess(ctx, s.Store, ScopeMetrics, result)
	return result, nil
}
