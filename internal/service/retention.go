package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"archvd/internal/repository"
)

// RetentionService prunes aged fact rows and raw payload archives.
type RetentionService struct {
	Store  repository.Repository
	Logger *zap.Logger
}

type RetentionOptions struct {
	SnapshotDays    int
	RawResponseDays int
}

type RetentionResult struct {
	FactsDeleted     int64 `json:"facts_deleted"`
	SnapshotsDeleted int64 `json:"snapshots_deleted"`
}

func (s *RetentionService) Run(ctx context.Context, opts RetentionOptions) (RetentionResult, error) {
	if s == nil || s.Store == nil {
		return RetentionResult{}, fmt.Errorf("retention service unavailable")
	}
	result := RetentionResult{}
	now := time.Now().UTC()

	if opts.SnapshotDays > 0 {
		deleted, err := s.Store.DeleteMarketDataBefore(ctx, now.AddDate(0, 0, -opts.SnapshotDays))
		if err != nil {
			writeSyncFailure(ctx, s.Store, s.Logger, ScopeRetention, err)
			return result, err
		}
		result.FactsDeleted = deleted
	}
	if opts.RawResponseDays > 0 {
		deleted, err := s.Store.DeleteRawSnapshotsBefore(ctx, now.AddDate(0, 0, -opts.RawResponseDays))
		if err != nil {
			writeSyncFailure(ctx, s.Store, s.Logger, ScopeRetention, err)
			return result, err
		}
		result.SnapshotsDeleted = deleted
	}

	if s.Logger != nil {
		s.Logger.Info("retention pass complete",
			zap.Int64("facts_deleted", result.FactsDeleted),
			zap.Int64("snapshots_deleted", result.SnapshotsDeleted))
	}
	writeSyncSuccess(ctx, s.Store, ScopeRetention, result)
	return result, nil
}
