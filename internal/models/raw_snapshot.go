package models

import (
	"time"

	"gorm.io/datatypes"
)

// RawSnapshot archives one raw provider response for debugging and replay.
// Fact rows reference it via raw_snapshot_id; the payload is not authoritative.
type RawSnapshot struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	Provider  string         `gorm:"type:varchar(20);not null;index"`
	Endpoint  string         `gorm:"type:varchar(100);not null"`
	ProductID *string        `gorm:"type:varchar(100);index"`
	FetchedAt time.Time      `gorm:"type:timestamptz;not null;index"`
	Payload   datatypes.JSON `gorm:"type:jsonb;not null"`
}

func (RawSnapshot) TableName() string {
	return "raw_provider_snapshots"
}
