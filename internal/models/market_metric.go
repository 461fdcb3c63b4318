package models

import "time"

// MarketMetric is one computed-metric row per (sku, size, currency,
// marketplace) group, recomputed from sale transactions on demand. Medians
// and min/max are integer minor units; recomputing with the same inputs
// yields the same row.
type MarketMetric struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	SKU           string `gorm:"type:varchar(100);not null;index;uniqueIndex:idx_market_metrics_natural,priority:1"`
	SizeKey       string `gorm:"type:varchar(50);not null;uniqueIndex:idx_market_metrics_natural,priority:2"`
	CurrencyCode  string `gorm:"type:varchar(3);not null;uniqueIndex:idx_market_metrics_natural,priority:3"`
	MarketplaceID string `gorm:"type:varchar(20);not null;uniqueIndex:idx_market_metrics_natural,priority:4"`

	Median72h     *int64 `gorm:"column:median72h;type:bigint"`
	SampleSize72h int    `gorm:"column:sample_size72h;not null;default:0"`
	Median7d      *int64 `gorm:"column:median7d;type:bigint"`
	SampleSize7d  int    `gorm:"column:sample_size7d;not null;default:0"`
	Median30d     *int64 `gorm:"column:median30d;type:bigint"`
	SampleSize30d int    `gorm:"column:sample_size30d;not null;default:0"`
	Median90d     *int64 `gorm:"column:median90d;type:bigint"`
	SampleSize90d int    `gorm:"column:sample_size90d;not null;default:0"`

	MinPrice90d *int64 `gorm:"column:min_price90d;type:bigint"`
	MaxPrice90d *int64 `gorm:"column:max_price90d;type:bigint"`

	// Coefficient of variation over the 90d window, percent. Nil below 2 points.
	Volatility90d *float64 `gorm:"column:volatility90d;type:numeric(10,4)"`

	LiquidityScore  int `gorm:"not null;default:0"`
	ConfidenceScore int `gorm:"not null;default:0"`

	TotalSales90d   int      `gorm:"column:total_sales90d;not null;default:0"`
	OutlierCount90d int      `gorm:"column:outlier_count90d;not null;default:0"`
	OutlierRatio90d *float64 `gorm:"column:outlier_ratio90d;type:numeric(10,4)"`

	LastSaleAt *time.Time `gorm:"type:timestamptz"`
	ComputedAt time.Time  `gorm:"type:timestamptz;not null"`
}

func (MarketMetric) TableName() string {
	return "ebay_market_metrics"
}
