package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"archvd/internal/models"
	"archvd/internal/normalize"
)

// Repository is the store surface the sync and metrics services depend on.
// Fact and metric writes are batch upserts conflicting on the natural keys;
// a write error always propagates to the caller.
type Repository interface {
	InTx(ctx context.Context, fn func(tx *gorm.DB) error) error

	// Canonical market-data facts.
	UpsertMarketData(ctx context.Context, rows []models.MarketData) error
	ListMarketData(ctx context.Context, params ListMarketDataParams) ([]models.MarketData, error)
	CountMarketData(ctx context.Context, params ListMarketDataParams) (int64, error)
	ListLatestMarketData(ctx context.Context, provider, productID string) ([]models.MarketData, error)
	UpdateMarketDataVolumes(ctx context.Context, target VolumeTarget, upd normalize.VolumeUpdate) (int64, error)
	DeleteMarketDataBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Raw payload archive.
	InsertRawSnapshot(ctx context.Context, item *models.RawSnapshot) error
	DeleteRawSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Sale transactions (metrics input).
	InsertSaleTransactions(ctx context.Context, items []models.SaleTransaction) error
	ListSaleTransactionsSince(ctx context.Context, since time.Time) ([]models.SaleTransaction, error)

	// Computed metrics.
	UpsertMarketMetrics(ctx context.Context, items []models.MarketMetric) error
	ListMarketMetrics(ctx context.Context, params ListMarketMetricsParams) ([]models.MarketMetric, error)
	CountMarketMetrics(ctx context.Context, params ListMarketMetricsParams) (int64, error)

	// Sync bookkeeping.
	GetSyncState(ctx context.Context, scope string) (*models.SyncState, error)
	SaveSyncState(ctx context.Context, state *models.SyncState) error
	ListSyncStates(ctx context.Context) ([]models.SyncState, error)

	// Best-effort refresh of the latest-prices materialized view. Callers
	// treat a failure here as a warning, not a run failure.
	RefreshLatestPricesView(ctx context.Context) error
}

// VolumeTarget identifies the fact rows a volume backfill may enrich.
type VolumeTarget struct {
	Provider     string
	ProductID    string
	CurrencyCode string
	RegionCode   string
}

type ListMarketDataParams struct {
	Limit       int
	Offset      int
	Provider    *string
	Source      *string
	ProductID   *string
	SKU         *string
	SizeKey     *string
	Currency    *string
	IsFlex      *bool
	IsConsigned *bool
	Since       *time.Time
	OrderBy     string
	Asc         *bool
}

type ListMarketMetricsParams struct {
	Limit         int
	Offset        int
	SKU           *string
	SizeKey       *string
	Currency      *string
	MarketplaceID *string
	MinConfidence *int
	MinLiquidity  *int
	OrderBy       string
	Asc           *bool
}
