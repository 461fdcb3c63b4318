package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ProviderStockX = "stockx"
	ProviderAlias  = "alias"
	ProviderEbay   = "ebay"
	ProviderSeed   = "seed"
)

// Provider sub-channel tags. One variant may legitimately produce several
// rows distinguished by these (standard, flex, consigned).
const (
	SourceStockXMarketData       = "stockx_market_data"
	SourceStockXMarketDataFlex   = "stockx_market_data_flex"
	SourceStockXMarketDataDirect = "stockx_market_data_direct"

	SourceAliasAvailabilities          = "alias_availabilities"
	SourceAliasAvailabilitiesConsigned = "alias_availabilities_consigned"
)

// MarketData is one canonical price fact: a single priced variant/channel
// observation from one provider snapshot. All prices are integer minor units
// of CurrencyCode. ProviderVariantID and RegionCode use "" (never NULL) so the
// composite unique index conflicts deterministically on re-sync.
type MarketData struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Provider          string `gorm:"type:varchar(20);not null;index;uniqueIndex:idx_market_data_natural,priority:1"`
	ProviderSource    string `gorm:"type:varchar(50);not null;uniqueIndex:idx_market_data_natural,priority:2"`
	ProviderProductID string `gorm:"type:varchar(100);not null;index;uniqueIndex:idx_market_data_natural,priority:3"`
	ProviderVariantID string `gorm:"type:varchar(100);not null;default:'';uniqueIndex:idx_market_data_natural,priority:4"`

	SKU         *string  `gorm:"type:varchar(100);index"`
	SizeKey     string   `gorm:"type:varchar(50);not null;uniqueIndex:idx_market_data_natural,priority:5"`
	SizeNumeric *float64 `gorm:"type:numeric(6,2)"`
	SizeSystem  string   `gorm:"type:varchar(10);not null;default:'US'"`

	CurrencyCode string `gorm:"type:varchar(3);not null;uniqueIndex:idx_market_data_natural,priority:6"`
	RegionCode   string `gorm:"type:varchar(10);not null;default:'';uniqueIndex:idx_market_data_natural,priority:7"`

	LowestAsk            *int64 `gorm:"type:bigint"`
	HighestBid           *int64 `gorm:"type:bigint"`
	LastSalePrice        *int64 `gorm:"type:bigint"`
	SellFasterPrice      *int64 `gorm:"type:bigint"`
	EarnMorePrice        *int64 `gorm:"type:bigint"`
	BeatUsPrice          *int64 `gorm:"type:bigint"`
	GlobalIndicatorPrice *int64 `gorm:"type:bigint"`

	SalesLast72h     *int `gorm:"column:sales_last72h;type:integer"`
	SalesLast30d     *int `gorm:"column:sales_last30d;type:integer"`
	TotalSalesVolume *int `gorm:"type:integer"`
	AskCount         *int `gorm:"type:integer"`
	BidCount         *int `gorm:"type:integer"`

	IsFlex      bool `gorm:"not null;default:false"`
	IsConsigned bool `gorm:"not null;default:false"`

	LastSaleAt *time.Time `gorm:"type:timestamptz"`

	SnapshotAt time.Time `gorm:"type:timestamptz;not null;index"`
	IngestedAt time.Time `gorm:"type:timestamptz;not null"`

	RawSnapshotID       *uint64        `gorm:"index"`
	RawSnapshotProvider *string        `gorm:"type:varchar(20)"`
	RawResponseExcerpt  datatypes.JSON `gorm:"type:jsonb"`
}

func (MarketData) TableName() string {
	return "master_market_data"
}
