package db

import (
	"archvd/internal/models"
)

const latestPricesViewSQL = `
CREATE MATERIALIZED VIEW IF NOT EXISTS latest_market_prices AS
SELECT DISTINCT ON (provider, provider_source, provider_product_id, provider_variant_id, size_key, currency_code, region_code)
       id, provider, provider_source, provider_product_id, provider_variant_id,
       sku, size_key, currency_code, region_code,
       lowest_ask, highest_bid, last_sale_price, snapshot_at
FROM master_market_data
ORDER BY provider, provider_source, provider_product_id, provider_variant_id, size_key, currency_code, region_code, snapshot_at DESC;
CREATE UNIQUE INDEX IF NOT EXISTS idx_latest_market_prices_key
    ON latest_market_prices (provider, provider_source, provider_product_id, provider_variant_id, size_key, currency_code, region_code);
`

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	if err := db.Gorm.AutoMigrate(
		&models.MarketData{},
		&models.MarketMetric{},
		&models.SaleTransaction{},
		&models.RawSnapshot{},
		&models.SyncState{},
	); err != nil {
		return err
	}
	return db.Gorm.Exec(latestPricesViewSQL).Error
}
