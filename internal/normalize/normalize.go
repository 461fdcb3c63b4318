package normalize

import (
	"time"

	"go.uber.org/zap"
)

// ConsignedFilter selects which Alias variants to normalize.
type ConsignedFilter string

const (
	ConsignedBoth    ConsignedFilter = "both"
	ConsignedOnly    ConsignedFilter = "consigned_only"
	ConsignedExclude ConsignedFilter = "non_consigned"
)

// Context carries the per-run ingestion parameters supplied by the caller.
type Context struct {
	ProductID    string
	SKU          *string
	CurrencyCode string
	RegionCode   string

	// Category/Gender drive the size-validity filter; empty Category skips it.
	Category string
	Gender   string

	// SnapshotAt is the instant the source data represents. Zero means "now".
	SnapshotAt time.Time

	ConsignedFilter ConsignedFilter

	RawSnapshotID *uint64
}

func (c Context) snapshotAt(now time.Time) time.Time {
	if c.SnapshotAt.IsZero() {
		return now
	}
	return c.SnapshotAt
}

// BuildStats counts what happened to the input variants of one build. Policy
// filters are not errors, but they must not be silent either.
type BuildStats struct {
	Variants            int `json:"variants"`
	RowsEmitted         int `json:"rows_emitted"`
	Malformed           int `json:"malformed"`
	SizeFiltered        int `json:"size_filtered"`
	ConditionFiltered   int `json:"condition_filtered"`
	ConsignedFiltered   int `json:"consigned_filtered"`
	MissingAvailability int `json:"missing_availability"`
	MissingSizeMapping  int `json:"missing_size_mapping"`
}

// Normalizer turns raw provider payloads into canonical MarketData rows.
// Builders never abort a batch for one bad item: malformed or filtered
// variants are counted, logged and skipped.
type Normalizer struct {
	Logger *zap.Logger
}

func (n *Normalizer) warn(msg string, fields ...zap.Field) {
	if n != nil && n.Logger != nil {
		n.Logger.Warn(msg, fields...)
	}
}

func (n *Normalizer) info(msg string, fields ...zap.Field) {
	if n != nil && n.Logger != nil {
		n.Logger.Info(msg, fields...)
	}
}
