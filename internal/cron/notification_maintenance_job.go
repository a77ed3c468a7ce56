package cron

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/bazarika/bazarika-backend/internal/notifications"
	"github.com/bazarika/bazarika-backend/pkg/logger"
)

const defaultRetryBatchSize = 100

type notificationMaintainer interface {
	RetryFailed(ctx context.Context, batchSize int) (*notifications.RetryResult, error)
	PurgeOld(ctx context.Context) (int64, error)
}

// NotificationMaintenanceJobParams configure the notification upkeep job.
type NotificationMaintenanceJobParams struct {
	Logger         *logger.Logger
	Notifications  notificationMaintainer
	RetryBatchSize int
}

// NewNotificationMaintenanceJob builds the job that re-sends failed
// deliveries and drops rows past the retention window. The retention window
// itself lives in the notifications config.
func NewNotificationMaintenanceJob(params NotificationMaintenanceJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	batchSize := params.RetryBatchSize
	if batchSize <= 0 {
		batchSize = defaultRetryBatchSize
	}
	return &notificationMaintenanceJob{
		logg:           params.Logger,
		notifications:  params.Notifications,
		retryBatchSize: batchSize,
	}, nil
}

type notificationMaintenanceJob struct {
	logg           *logger.Logger
	notifications  notificationMaintainer
	retryBatchSize int
}

func (j *notificationMaintenanceJob) Name() string { return "notification-maintenance" }

// Run executes both passes even when the first fails; a retry outage must not
// let old rows pile up.
func (j *notificationMaintenanceJob) Run(ctx context.Context) error {
	var errs []error
	if err := j.retryPass(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := j.purgePass(ctx); err != nil {
		errs = append(errs, err)
	}
	return multierr.Combine(errs...)
}

func (j *notificationMaintenanceJob) retryPass(ctx context.Context) error {
	result, err := j.notifications.RetryFailed(ctx, j.retryBatchSize)
	if err != nil {
		return fmt.Errorf("notification retry: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"attempted": result.Attempted,
		"sent":      result.Sent,
	})
	j.logg.Info(logCtx, "notification retry pass complete")
	return nil
}

func (j *notificationMaintenanceJob) purgePass(ctx context.Context) error {
	deleted, err := j.notifications.PurgeOld(ctx)
	if err != nil {
		return fmt.Errorf("notification cleanup: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"rows_deleted": deleted,
	})
	j.logg.Info(logCtx, "notification cleanup complete")
	return nil
}
