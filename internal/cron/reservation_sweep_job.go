package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/internal/inventory"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/outbox"
	"github.com/bazarika/bazarika-backend/pkg/outbox/payloads"
)

const defaultSweepBatchSize = 500

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type reservationSweeper interface {
	SweepExpired(ctx context.Context, tx *gorm.DB, batchSize int) (*inventory.SweepResult, error)
}

type ReservationSweepJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Inventory reservationSweeper
	Events    outboxPublisher
	BatchSize int
}

// NewReservationSweepJob builds the job that releases expired stock holds.
func NewReservationSweepJob(params ReservationSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory service required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultSweepBatchSize
	}
	return &reservationSweepJob{
		logg:      params.Logger,
		db:        params.DB,
		inventory: params.Inventory,
		events:    params.Events,
		batchSize: batchSize,
		now:       time.Now,
	}, nil
}

type reservationSweepJob struct {
	logg      *logger.Logger
	db        txRunner
	inventory reservationSweeper
	events    outboxPublisher
	batchSize int
	now       func() time.Time
}

func (j *reservationSweepJob) Name() string { return "reservation-sweep" }

func (j *reservationSweepJob) Run(ctx context.Context) error {
	var result *inventory.SweepResult
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		swept, err := j.inventory.SweepExpired(ctx, tx, j.batchSize)
		if err != nil {
			return err
		}
		result = swept
		if swept.ReleasedCount == 0 {
			return nil
		}

		now := j.now().UTC()
		sweepID := uuid.New()
		return j.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventReservationsSwept,
			AggregateType: enums.AggregateInventory,
			AggregateID:   sweepID,
			Data: payloads.ReservationsSweptEvent{
				SweepID:       sweepID,
				ReleasedCount: swept.ReleasedCount,
				ReleasedQty:   swept.ReleasedQty,
				SweptAt:       now,
			},
			Version:    1,
			OccurredAt: now,
		})
	})
	if err != nil {
		return fmt.Errorf("reservation sweep: %w", err)
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"released_count": result.ReleasedCount,
		"released_qty":   result.ReleasedQty,
	})
	j.logg.Info(logCtx, "reservation sweep complete")
	return nil
}
