package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

// ListParams configures pagination for a recipient's in-app feed.
type ListParams struct {
	RecipientID uuid.UUID
	Limit       int
	Cursor      string
	UnreadOnly  bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// RetryResult summarizes one retry pass.
type RetryResult struct {
	Attempted int
	Sent      int
}

// Service owns the notification feed and the delivery/retry pipeline.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error)
	Dispatch(ctx context.Context, rows []models.Notification) error
	RetryFailed(ctx context.Context, batchSize int) (*RetryResult, error)
	PurgeOld(ctx context.Context) (int64, error)
}

type service struct {
	repo    Repository
	senders map[enums.NotificationChannel]Sender
	cfg     config.NotificationsConfig
	logg    *logger.Logger
	now     func() time.Time
}

// NewService wires notifications dependencies. When no senders are supplied
// the logging stubs handle every channel.
func NewService(repo Repository, senders []Sender, cfg config.NotificationsConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if len(senders) == 0 {
		senders = DefaultSenders(logg)
	}
	index, err := senderIndex(senders)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "register senders")
	}
	return &service{
		repo:    repo,
		senders: index,
		cfg:     cfg,
		logg:    logg,
		now:     time.Now,
	}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.RecipientID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	query := listParams{
		RecipientID: params.RecipientID,
		Limit:       params.Limit,
		UnreadOnly:  params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, notificationID uuid.UUID) error {
	if recipientID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, recipientID, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, recipientID uuid.UUID) (int64, error) {
	if recipientID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "recipient id required")
	}

	count, err := s.repo.MarkAllRead(ctx, recipientID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

// Dispatch persists the batch and attempts first delivery on each row. A
// failed send marks the row for the retry job instead of failing the batch.
func (s *service) Dispatch(ctx context.Context, rows []models.Notification) error {
	if len(rows) == 0 {
		return nil
	}
	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store notifications")
	}
	for i := range rows {
		s.attempt(ctx, &rows[i])
	}
	return nil
}

// RetryFailed re-attempts failed deliveries still under the retry budget.
func (s *service) RetryFailed(ctx context.Context, batchSize int) (*RetryResult, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	rows, err := s.repo.FindRetryable(ctx, s.cfg.MaxRetries, batchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load retryable notifications")
	}

	result := &RetryResult{Attempted: len(rows)}
	for i := range rows {
		if s.attempt(ctx, &rows[i]) {
			result.Sent++
		}
	}
	return result, nil
}

// PurgeOld drops notifications past the retention window.
func (s *service) PurgeOld(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
	count, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge notifications")
	}
	return count, nil
}

func (s *service) attempt(ctx context.Context, notification *models.Notification) bool {
	sender, ok := s.senders[notification.Channel]
	if !ok {
		if err := s.repo.MarkFailed(ctx, notification.ID, "no sender for channel"); err != nil && s.logg != nil {
			s.logg.Error(ctx, "failed to record delivery failure", err)
		}
		return false
	}
	if err := sender.Send(ctx, notification); err != nil {
		if markErr := s.repo.MarkFailed(ctx, notification.ID, err.Error()); markErr != nil && s.logg != nil {
			s.logg.Error(ctx, "failed to record delivery failure", markErr)
		}
		return false
	}
	if err := s.repo.MarkSent(ctx, notification.ID, s.now().UTC()); err != nil {
		if s.logg != nil {
			s.logg.Error(ctx, "failed to record delivery", err)
		}
		return false
	}
	return true
}
