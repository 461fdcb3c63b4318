package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"archvd/internal/models"
	"archvd/internal/normalize"
	"archvd/internal/repository"
)

// stubRepo records writes in memory for service tests.
type stubRepo struct {
	marketData    []models.MarketData
	snapshots     []models.RawSnapshot
	transactions  []models.SaleTransaction
	metrics       []models.MarketMetric
	syncStates    map[string]models.SyncState
	volumeUpdates []normalize.VolumeUpdate
	volumeMatches int64
	viewRefreshes int

	upsertErr  error
	metricsErr error
	listTxns   []models.SaleTransaction

	factsToDelete     int64
	snapshotsToDelete int64
	factCutoff        *time.Time
	snapshotCutoff    *time.Time
}

func newStubRepo() *stubRepo {
	return &stubRepo{syncStates: map[string]models.SyncState{}}
}

func (s *stubRepo) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func (s *stubRepo) UpsertMarketData(ctx context.Context, rows []models.MarketData) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.marketData = append(s.marketData, rows...)
	return nil
}

func (s *stubRepo) ListMarketData(ctx context.Context, params repository.ListMarketDataParams) ([]models.MarketData, error) {
	return s.marketData, nil
}

func (s *stubRepo) CountMarketData(ctx context.Context, params repository.ListMarketDataParams) (int64, error) {
	return int64(len(s.marketData)), nil
}

func (s *stubRepo) ListLatestMarketData(ctx context.Context, provider, productID string) ([]models.MarketData, error) {
	return s.marketData, nil
}

func (s *stubRepo) UpdateMarketDataVolumes(ctx context.Context, target repository.VolumeTarget, upd normalize.VolumeUpdate) (int64, error) {
	s.volumeUpdates = append(s.volumeUpdates, upd)
	return s.volumeMatches, nil
}

func (s *stubRepo) DeleteMarketDataBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.factCutoff = &cutoff
	return s.factsToDelete, nil
}

func (s *stubRepo) InsertRawSnapshot(ctx context.Context, item *models.RawSnapshot) error {
	item.ID = uint64(len(s.snapshots) + 1)
	s.snapshots = append(s.snapshots, *item)
	return nil
}

func (s *stubRepo) DeleteRawSnapshotsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.snapshotCutoff = &cutoff
	return s.snapshotsToDelete, nil
}

func (s *stubRepo) InsertSaleTransactions(ctx context.Context, items []models.SaleTransaction) error {
	s.transactions = append(s.transactions, items...)
	return nil
}

func (s *stubRepo) ListSaleTransactionsSince(ctx context.Context, since time.Time) ([]models.SaleTransaction, error) {
	return s.listTxns, nil
}

func (s *stubRepo) UpsertMarketMetrics(ctx context.Context, items []models.MarketMetric) error {
	if s.metricsErr != nil {
		return s.metricsErr
	}
	s.metrics = append(s.metrics, items...)
	return nil
}

func (s *stubRepo) ListMarketMetrics(ctx context.Context, params repository.ListMarketMetricsParams) ([]models.MarketMetric, error) {
	return s.metrics, nil
}

func (s *stubRepo) CountMarketMetrics(ctx context.Context, params repository.ListMarketMetricsParams) (int64, error) {
	return int64(len(s.metrics)), nil
}

func (s *stubRepo) GetSyncState(ctx context.Context, scope string) (*models.SyncState, error) {
	if state, ok := s.syncStates[scope]; ok {
		return &state, nil
	}
	return nil, nil
}

func (s *stubRepo) SaveSyncState(ctx context.Context, state *models.SyncState) error {
	s.syncStates[state.Scope] = *state
	return nil
}

func (s *stubRepo) ListSyncStates(ctx context.Context) ([]models.SyncState, error) {
	out := make([]models.SyncState, 0, len(s.syncStates))
	for _, state := range s.syncStates {
		out = append(out, state)
	}
	return out, nil
}

func (s *stubRepo) RefreshLatestPricesView(ctx context.Context) error {
	s.viewRefreshes++
	return nil
}
