package models

import (
	"time"

	"gorm.io/datatypes"
)

// SaleTransaction is one individual sold-item record from a marketplace feed.
// IncludedInMetrics and IsOutlier are set by the upstream outlier pass, not by
// the metrics engine; the engine only reads them.
type SaleTransaction struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	SKU           string `gorm:"type:varchar(100);not null;index:idx_sale_txn_group,priority:1"`
	SizeKey       string `gorm:"type:varchar(50);not null;index:idx_sale_txn_group,priority:2"`
	CurrencyCode  string `gorm:"type:varchar(3);not null;index:idx_sale_txn_group,priority:3"`
	MarketplaceID string `gorm:"type:varchar(20);not null;index:idx_sale_txn_group,priority:4"`

	// Provider-side listing/transaction id, used to keep re-ingestion idempotent.
	ProviderItemID string `gorm:"type:varchar(100);not null;uniqueIndex"`

	Price  int64     `gorm:"type:bigint;not null"`
	SoldAt time.Time `gorm:"type:timestamptz;not null;index"`

	IncludedInMetrics bool `gorm:"not null;default:true"`
	IsOutlier         bool `gorm:"not null;default:false"`

	RawJSON   datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"type:timestamptz;autoCreateTime"`
}

func (SaleTransaction) TableName() string {
	return "ebay_sale_transactions"
}
