package app

import (
	"context"

	"github.com/goliatone/go-users/pkg/types"
	"go.uber.org/zap"
)

// activityLogSink writes activity records to the structured log.
type activityLogSink struct {
	logger *zap.Logger
}

func (s activityLogSink) Log(ctx context.Context, record types.ActivityRecord) error {
	s.logger.Info("activity", zap.Any("record", record))
	return nil
}

var _ types.ActivitySink = activityLogSink{}
