package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"archvd/internal/models"
	"archvd/internal/normalize"
	"archvd/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// --- market data facts -------------------------------------------------------

// marketDataUpdateColumns are the columns refreshed when a batch collides with
// an existing row on the natural key (last writer wins across runs).
var marketDataUpdateColumns = []string{
	"sku",
	"size_numeric",
	"size_system",
	"lowest_ask",
	"highest_bid",
	"last_sale_price",
	"sell_faster_price",
	"earn_more_price",
	"beat_us_price",
	"global_indicator_price",
	"sales_last72h",
	"sales_last30d",
	"total_sales_volume",
	"ask_count",
	"bid_count",
	"last_sale_at",
	"snapshot_at",
	"ingested_at",
	"raw_snapshot_id",
	"raw_snapshot_provider",
	"raw_response_excerpt",
}

func (s *Store) UpsertMarketData(ctx context.Context, rows []models.MarketData) error {
	if s == nil || s.db == nil || len(rows) == 0 {
		return nil
	}
	return createInBatches(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_source"},
			{Name: "provider_product_id"},
			{Name: "provider_variant_id"},
			{Name: "size_key"},
			{Name: "currency_code"},
			{Name: "region_code"},
		},
		DoUpdates: clause.AssignmentColumns(marketDataUpdateColumns),
	}), rows, 200)
}

func (s *Store) ListMarketData(ctx context.Context, params repository.ListMarketDataParams) ([]models.MarketData, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyMarketDataFilters(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "snapshot_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.MarketData
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountMarketData(ctx context.Context, params repository.ListMarketDataParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.applyMarketDataFilters(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) applyMarketDataFilters(ctx context.Context, params repository.ListMarketDataParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.MarketData{})
	if v := trimPtr(params.Provider); v != nil {
		query = query.Where("provider = ?", *v)
	}
	if v := trimPtr(params.Source); v != nil {
		query = query.Where("provider_source = ?", *v)
	}
	if v := trimPtr(params.ProductID); v != nil {
		query = query.Where("provider_product_id = ?", *v)
	}
	if v := trimPtr(params.SKU); v != nil {
		query = query.Where("sku = ?", *v)
	}
	if v := trimPtr(params.SizeKey); v != nil {
		query = query.Where("size_key = ?", *v)
	}
	if v := trimPtr(params.Currency); v != nil {
		query = query.Where("currency_code = ?", *v)
	}
	if params.IsFlex != nil {
		query = query.Where("is_flex = ?", *params.IsFlex)
	}
	if params.IsConsigned != nil {
		query = query.Where("is_consigned = ?", *params.IsConsigned)
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("snapshot_at >= ?", *params.Since)
	}
	return query
}

// ListLatestMarketData returns the newest row per (source, variant, size,
// currency, region) for one provider product.
func (s *Store) ListLatestMarketData(ctx context.Context, provider, productID string) ([]models.MarketData, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.MarketData
	err := s.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (provider_source, provider_variant_id, size_key, currency_code, region_code) *
		     FROM master_market_data
		     WHERE provider = ? AND provider_product_id = ?
		     ORDER BY provider_source, provider_variant_id, size_key, currency_code, region_code, snapshot_at DESC`,
			provider, productID).
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateMarketDataVolumes enriches already-existing fact rows with sale
// volume counters. It never inserts: zero affected rows is a valid outcome,
// not an error.
func (s *Store) UpdateMarketDataVolumes(ctx context.Context, target repository.VolumeTarget, upd normalize.VolumeUpdate) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	updates := map[string]any{
		"sales_last72h": upd.SalesLast72h,
		"sales_last30d": upd.SalesLast30d,
	}
	if upd.LastSalePrice != nil {
		updates["last_sale_price"] = *upd.LastSalePrice
	}
	if upd.LastSaleAt != nil {
		updates["last_sale_at"] = *upd.LastSaleAt
	}
	res := s.db.WithContext(ctx).
		Model(&models.MarketData{}).
		Where("provider = ?", target.Provider).
		Where("provider_product_id = ?", target.ProductID).
		Where("currency_code = ?", target.CurrencyCode).
		Where("region_code = ?", target.RegionCode).
		Where("size_key = ?", upd.SizeKey).
		Where("is_consigned = ?", upd.Consigned).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (s *Store) DeleteMarketDataBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil || cutoff.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("snapshot_at < ?", cutoff).
		Delete(&models.MarketData{})
	return res.RowsAffected, res.Error
}

// --- raw snapshots -----------------------------------------------------------

func (s *Store) InsertRawSnapshot(ctx context.Context, item *models.RawSnapshot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) DeleteRawSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil || s.db == nil || cutoff.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("fetched_at < ?", cutoff).
		Delete(&models.RawSnapshot{})
	return res.RowsAffected, res.Error
}

// --- sale transactions -------------------------------------------------------

func (s *Store) InsertSaleTransactions(ctx context.Context, items []models.SaleTransaction) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return createInBatches(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider_item_id"}},
		DoNothing: true,
	}), items, 300)
}

func (s *Store) ListSaleTransactionsSince(ctx context.Context, since time.Time) ([]models.SaleTransaction, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SaleTransaction
	query := s.db.WithContext(ctx).Model(&models.SaleTransaction{})
	if !since.IsZero() {
		query = query.Where("sold_at >= ?", since)
	}
	if err := query.Order("sold_at asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- computed metrics --------------------------------------------------------

func (s *Store) UpsertMarketMetrics(ctx context.Context, items []models.MarketMetric) error {
	if s == nil || s.db == nil || len(items) == 0 {
		return nil
	}
	return createInBatches(s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "sku"},
			{Name: "size_key"},
			{Name: "currency_code"},
			{Name: "marketplace_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"median72h", "sample_size72h",
			"median7d", "sample_size7d",
			"median30d", "sample_size30d",
			"median90d", "sample_size90d",
			"min_price90d", "max_price90d",
			"volatility90d",
			"liquidity_score", "confidence_score",
			"total_sales90d", "outlier_count90d", "outlier_ratio90d",
			"last_sale_at", "computed_at",
		}),
	}), items, 200)
}

func (s *Store) ListMarketMetrics(ctx context.Context, params repository.ListMarketMetricsParams) ([]models.MarketMetric, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.applyMetricFilters(ctx, params)
	query = applyOrder(query, params.OrderBy, params.Asc, "computed_at")
	limit := normalizeLimit(params.Limit, 200)
	offset := normalizeOffset(params.Offset)
	var items []models.MarketMetric
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountMarketMetrics(ctx context.Context, params repository.ListMarketMetricsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	if err := s.applyMetricFilters(ctx, params).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) applyMetricFilters(ctx context.Context, params repository.ListMarketMetricsParams) *gorm.DB {
	query := s.db.WithContext(ctx).Model(&models.MarketMetric{})
	if v := trimPtr(params.SKU); v != nil {
		query = query.Where("sku = ?", *v)
	}
	if v := trimPtr(params.SizeKey); v != nil {
		query = query.Where("size_key = ?", *v)
	}
	if v := trimPtr(params.Currency); v != nil {
		query = query.Where("currency_code = ?", *v)
	}
	if v := trimPtr(params.MarketplaceID); v != nil {
		query = query.Where("marketplace_id = ?", *v)
	}
	if params.MinConfidence != nil {
		query = query.Where("confidence_score >= ?", *params.MinConfidence)
	}
	if params.MinLiquidity != nil {
		query = query.Where("liquidity_score >= ?", *params.MinLiquidity)
	}
	return query
}

// --- sync state --------------------------------------------------------------

func (s *Store) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var state models.SyncState
	err := s.db.WithContext(ctx).First(&state, "scope = ?", scope).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Store) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	if s == nil || s.db == nil || state == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"cursor",
			"watermark_ts",
			"last_success_at",
			"last_attempt_at",
			"last_error",
			"stats_json",
		}),
	}).Create(state).Error
}

func (s *Store) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SyncState
	if err := s.db.WithContext(ctx).Order("scope asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// --- optimizations -----------------------------------------------------------

func (s *Store) RefreshLatestPricesView(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Exec("REFRESH MATERIALIZED VIEW CONCURRENTLY latest_market_prices").Error
}

// --- helpers -----------------------------------------------------------------

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func createInBatches[T any](db *gorm.DB, items []T, batchSize int) error {
	if len(items) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := db.CreateInBatches(items[i:end], batchSize).Error; err != nil {
			return err
		}
	}
	return nil
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
