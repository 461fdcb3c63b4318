package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"archvd/internal/client/alias"
	"archvd/internal/client/stockx"
	"archvd/internal/models"
	"archvd/internal/normalize"
	"archvd/internal/repository"
)

// MarketSyncService pulls market data from the listing providers and writes
// canonical fact rows. One bad product never aborts a run; store write errors
// do.
type MarketSyncService struct {
	Store      repository.Repository
	StockX     *stockx.Client
	Alias      *alias.Client
	Normalizer *normalize.Normalizer
	Logger     *zap.Logger
}

type SyncOptions struct {
	ProductIDs      []string
	CurrencyCode    string
	RegionCode      string
	ConsignedFilter normalize.ConsignedFilter
	SleepPerItem    time.Duration
}

type SyncResult struct {
	Scope         string               `json:"scope"`
	Products      int                  `json:"products"`
	Rows          int                  `json:"rows"`
	Duplicates    int                  `json:"duplicates"`
	ProductErrors int                  `json:"product_errors"`
	Stats         normalize.BuildStats `json:"stats"`
}

func (s *MarketSyncService) SyncStockX(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	if s == nil || s.Store == nil || s.StockX == nil {
		return SyncResult{}, fmt.Errorf("stockx sync unavailable")
	}
	result := SyncResult{Scope: ScopeStockX}
	for i, productID := range opts.ProductIDs {
		if productID == "" {
			continue
		}
		if i > 0 {
			if err := sleepBetween(ctx, opts.SleepPerItem); err != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeStockX, err)
				return result, err
			}
		}
		rows, stats, err := s.buildStockXProduct(ctx, productID, opts)
		if err != nil {
			if ctx.Err() != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeStockX, err)
				return result, err
			}
			result.ProductErrors++
			s.logWarn("stockx product sync failed", zap.String("product_id", productID), zap.Error(err))
			result.Products++
			continue
		}
		if err := s.storeRows(ctx, rows, stats, &result); err != nil {
			writeSyncFailure(ctx, s.Store, s.Logger, ScopeStockX, err)
			return result, err
		}
		result.Products++
	}
	writeSyncSuccess(ctx, s.Store, ScopeStockX, result)
	s.refreshView(ctx)
	return result, nil
}

func (s *MarketSyncService) buildStockXProduct(ctx context.Context, productID string, opts SyncOptions) ([]models.MarketData, normalize.BuildStats, error) {
	raw, variants, err := s.StockX.GetMarketDataRaw(ctx, productID, opts.CurrencyCode)
	if err != nil {
		return nil, normalize.BuildStats{}, err
	}

	var sku *string
	gender := ""
	if product, err := s.StockX.GetProduct(ctx, productID); err != nil {
		s.logWarn("stockx product lookup failed", zap.String("product_id", productID), zap.Error(err))
	} else if product != nil {
		if product.StyleID != "" {
			sku = strPtr(product.StyleID)
		}
		gender = product.ProductAttributes.Gender
	}

	sizes := map[string]string{}
	if vlist, err := s.StockX.GetVariants(ctx, productID); err != nil {
		s.logWarn("stockx variant lookup failed", zap.String("product_id", productID), zap.Error(err))
	} else {
		for _, v := range vlist {
			if v.VariantID != "" && v.VariantValue != "" {
				sizes[v.VariantID] = v.VariantValue
			}
		}
	}

	snapshotID := s.archiveSnapshot(ctx, models.ProviderStockX, "market-data", productID, raw)
	rows, stats := s.Normalizer.BuildStockXRows(variants, sizes, normalize.Context{
		ProductID:     productID,
		SKU:           sku,
		CurrencyCode:  opts.CurrencyCode,
		RegionCode:    opts.RegionCode,
		Category:      "sneakers",
		Gender:        gender,
		RawSnapshotID: snapshotID,
	})
	return rows, stats, nil
}

func (s *MarketSyncService) SyncAlias(ctx context.Context, opts SyncOptions) (SyncResult, error) {
	if s == nil || s.Store == nil || s.Alias == nil {
		return SyncResult{}, fmt.Errorf("alias sync unavailable")
	}
	result := SyncResult{Scope: ScopeAlias}
	for i, catalogID := range opts.ProductIDs {
		if catalogID == "" {
			continue
		}
		if i > 0 {
			if err := sleepBetween(ctx, opts.SleepPerItem); err != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeAlias, err)
				return result, err
			}
		}
		rows, stats, err := s.buildAliasCatalog(ctx, catalogID, opts)
		if err != nil {
			if ctx.Err() != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeAlias, err)
				return result, err
			}
			result.ProductErrors++
			s.logWarn("alias catalog sync failed", zap.String("catalog_id", catalogID), zap.Error(err))
			result.Products++
			continue
		}
		if err := s.storeRows(ctx, rows, stats, &result); err != nil {
			writeSyncFailure(ctx, s.Store, s.Logger, ScopeAlias, err)
			return result, err
		}
		result.Products++
	}
	writeSyncSuccess(ctx, s.Store, ScopeAlias, result)
	s.refreshView(ctx)
	return result, nil
}

func (s *MarketSyncService) buildAliasCatalog(ctx context.Context, catalogID string, opts SyncOptions) ([]models.MarketData, normalize.BuildStats, error) {
	raw, resp, err := s.Alias.GetAvailabilitiesRaw(ctx, catalogID, opts.RegionCode)
	if err != nil {
		return nil, normalize.BuildStats{}, err
	}
	snapshotID := s.archiveSnapshot(ctx, models.ProviderAlias, "availabilities", catalogID, raw)
	rows, stats := s.Normalizer.BuildAliasRows(resp, normalize.Context{
		ProductID:       catalogID,
		CurrencyCode:    opts.CurrencyCode,
		RegionCode:      opts.RegionCode,
		ConsignedFilter: opts.ConsignedFilter,
		RawSnapshotID:   snapshotID,
	})
	return rows, stats, nil
}

func (s *MarketSyncService) storeRows(ctx context.Context, rows []models.MarketData, stats normalize.BuildStats, result *SyncResult) error {
	deduped := normalize.Dedupe(rows)
	if err := s.Store.UpsertMarketData(ctx, deduped); err != nil {
		return err
	}
	result.Rows += len(deduped)
	result.Duplicates += len(rows) - len(deduped)
	addStats(&result.Stats, stats)
	return nil
}

// archiveSnapshot is best-effort: losing the raw payload never fails a sync.
func (s *MarketSyncService) archiveSnapshot(ctx context.Context, provider, endpoint, productID string, raw []byte) *uint64 {
	if len(raw) == 0 {
		return nil
	}
	snap := &models.RawSnapshot{
		Provider:  provider,
		Endpoint:  endpoint,
		ProductID: strPtr(productID),
		FetchedAt: time.Now().UTC(),
		Payload:   datatypes.JSON(raw),
	}
	if err := s.Store.InsertRawSnapshot(ctx, snap); err != nil {
		s.logWarn("raw snapshot archive failed",
			zap.String("provider", provider),
			zap.String("product_id", productID),
			zap.Error(err))
		return nil
	}
	return &snap.ID
}

func (s *MarketSyncService) refreshView(ctx context.Context) {
	if err := s.Store.RefreshLatestPricesView(ctx); err != nil {
		s.logWarn("latest prices view refresh failed", zap.Error(err))
	}
}

func (s *MarketSyncService) logWarn(msg string, fields ...zap.Field) {
	if s.Logger != nil {
		s.Logger.Warn(msg, fields...)
	}
}

func addStats(dst *normalize.BuildStats, src normalize.BuildStats) {
	dst.Variants += src.Variants
	dst.RowsEmitted += src.RowsEmitted
	dst.Malformed += src.Malformed
	dst.SizeFiltered += src.SizeFiltered
	dst.ConditionFiltered += src.ConditionFiltered
	dst.ConsignedFiltered += src.ConsignedFiltered
	dst.MissingAvailability += src.MissingAvailability
	dst.MissingSizeMapping += src.MissingSizeMapping
}
