package cron

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bazarika/bazarika-backend/internal/notifications"
	"github.com/bazarika/bazarika-backend/pkg/logger"
)

type fakeNotificationService struct {
	retryResult *notifications.RetryResult
	retryErr    error
	retryBatch  int
	purged      int64
	purgeErr    error
	purgeCalls  int
}

func (f *fakeNotificationService) RetryFailed(_ context.Context, batchSize int) (*notifications.RetryResult, error) {
	f.retryBatch = batchSize
	if f.retryErr != nil {
		return nil, f.retryErr
	}
	return f.retryResult, nil
}

func (f *fakeNotificationService) PurgeOld(context.Context) (int64, error) {
	f.purgeCalls++
	if f.purgeErr != nil {
		return 0, f.purgeErr
	}
	return f.purged, nil
}

func newMaintenanceJob(t *testing.T, svc *fakeNotificationService, batch int) Job {
	t.Helper()
	job, err := NewNotificationMaintenanceJob(NotificationMaintenanceJobParams{
		Logger:         logger.New(logger.Options{ServiceName: "test"}),
		Notifications:  svc,
		RetryBatchSize: batch,
	})
	if err != nil {
		t.Fatalf("NewNotificationMaintenanceJob: %v", err)
	}
	return job
}

func TestNotificationMaintenanceUsesConfiguredBatch(t *testing.T) {
	svc := &fakeNotificationService{retryResult: &notifications.RetryResult{Attempted: 5, Sent: 4}}
	job := newMaintenanceJob(t, svc, 25)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if svc.retryBatch != 25 {
		t.Fatalf("expected batch 25, got %d", svc.retryBatch)
	}
	if svc.purgeCalls != 1 {
		t.Fatalf("expected one purge, got %d", svc.purgeCalls)
	}
}

func TestNotificationMaintenancePurgesDespiteRetryFailure(t *testing.T) {
	svc := &fakeNotificationService{retryErr: errors.New("smtp down"), purged: 42}
	job := newMaintenanceJob(t, svc, 0)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if svc.purgeCalls != 1 {
		t.Fatalf("purge must run even when retry fails, got %d calls", svc.purgeCalls)
	}
	if !strings.Contains(err.Error(), "smtp down") {
		t.Fatalf("error should carry the retry cause: %v", err)
	}
}

func TestNotificationMaintenanceCombinesBothFailures(t *testing.T) {
	svc := &fakeNotificationService{
		retryResult: &notifications.RetryResult{},
		retryErr:    errors.New("retry boom"),
		purgeErr:    errors.New("purge boom"),
	}
	job := newMaintenanceJob(t, svc, 0)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "retry boom") || !strings.Contains(err.Error(), "purge boom") {
		t.Fatalf("combined error missing a cause: %v", err)
	}
}
