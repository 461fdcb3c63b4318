package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"archvd/internal/models"
	"archvd/internal/repository"
)

// Sync scopes recorded in sync_state.
const (
	ScopeStockX     = "stockx"
	ScopeAlias      = "alias"
	ScopeAliasSales = "alias_sales"
	ScopeEbaySold   = "ebay_sold"
	ScopeMetrics    = "metrics"
	ScopeRetention  = "retention"
)

func writeSyncSuccess(ctx context.Context, store repository.Repository, scope string, stats any) {
	if store == nil {
		return
	}
	now := time.Now().UTC()
	state := &models.SyncState{
		Scope:         scope,
		LastSuccessAt: &now,
		LastAttemptAt: &now,
	}
	if stats != nil {
		if raw, err := json.Marshal(stats); err == nil {
			state.StatsJSON = datatypes.JSON(raw)
		}
	}
	_ = store.SaveSyncState(ctx, state)
}

func writeSyncFailure(ctx context.Context, store repository.Repository, logger *zap.Logger, scope string, err error) {
	if logger != nil {
		logger.Warn("sync failed", zap.String("scope", scope), zap.Error(err))
	}
	if store == nil {
		return
	}
	now := time.Now().UTC()
	state := &models.SyncState{
		Scope:         scope,
		LastAttemptAt: &now,
		LastError:     strPtr(err.Error()),
	}
	_ = store.SaveSyncState(ctx, state)
}

// sleepBetween paces per-item provider calls without outliving the context.
func sleepBetween(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func strPtr(s string) *string {
	return &s
}
