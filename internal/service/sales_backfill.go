package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"archvd/internal/client/alias"
	"archvd/internal/models"
	"archvd/internal/normalize"
	"archvd/internal/repository"
)

// AliasSalesBackfillService folds recent Alias sale records into the existing
// canonical rows as volume counters. It only updates rows that already exist;
// a sale group with no matching row is counted and dropped.
type AliasSalesBackfillService struct {
	Store      repository.Repository
	Alias      *alias.Client
	Normalizer *normalize.Normalizer
	Logger     *zap.Logger
}

type BackfillOptions struct {
	CatalogIDs   []string
	CurrencyCode string
	RegionCode   string
	PageLimit    int
	SleepPerItem time.Duration
}

type BackfillResult struct {
	Catalogs        int `json:"catalogs"`
	Sales           int `json:"sales"`
	Groups          int `json:"groups"`
	RowsUpdated     int `json:"rows_updated"`
	GroupsUnmatched int `json:"groups_unmatched"`
	CatalogErrors   int `json:"catalog_errors"`
}

func (s *AliasSalesBackfillService) Backfill(ctx context.Context, opts BackfillOptions) (BackfillResult, error) {
	if s == nil || s.Store == nil || s.Alias == nil {
		return BackfillResult{}, fmt.Errorf("alias sales backfill unavailable")
	}
	result := BackfillResult{}
	now := time.Now().UTC()
	for i, catalogID := range opts.CatalogIDs {
		if catalogID == "" {
			continue
		}
		if i > 0 {
			if err := sleepBetween(ctx, opts.SleepPerItem); err != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeAliasSales, err)
				return result, err
			}
		}
		sales, err := s.Alias.GetRecentSales(ctx, catalogID, opts.PageLimit)
		if err != nil {
			if ctx.Err() != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeAliasSales, err)
				return result, err
			}
			result.CatalogErrors++
			if s.Logger != nil {
				s.Logger.Warn("alias recent sales fetch failed", zap.String("catalog_id", catalogID), zap.Error(err))
			}
			continue
		}
		result.Catalogs++
		result.Sales += len(sales)

		target := repository.VolumeTarget{
			Provider:     models.ProviderAlias,
			ProductID:    catalogID,
			CurrencyCode: opts.CurrencyCode,
			RegionCode:   opts.RegionCode,
		}
		for _, upd := range s.Normalizer.BuildAliasVolumeUpdates(sales, now) {
			result.Groups++
			affected, err := s.Store.UpdateMarketDataVolumes(ctx, target, upd)
			if err != nil {
				writeSyncFailure(ctx, s.Store, s.Logger, ScopeAliasSales, err)
				return result, err
			}
			if affected == 0 {
				result.GroupsUnmatched++
				continue
			}
			result.RowsUpdated += int(affected)
		}
	}
	writeSyncSuccess(ctx, s.Store, ScopeAliasSales, result)
	return result, nil
}
