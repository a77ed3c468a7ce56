package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/pkg/db"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/logger"
)

// Line is a product/variant quantity pair passed to ledger operations.
type Line struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Qty       int
}

// Availability reports the purchasable quantity for a single line.
type Availability struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Requested int        `json:"requested,omitempty"`
	Available int        `json:"available"`
	InStock   bool       `json:"in_stock"`
}

// SweepResult summarizes one expired-reservation sweep pass.
type SweepResult struct {
	ReleasedCount int
	ReleasedQty   int
}

// Service is the stock reservation ledger. Reservations do not touch
// on-hand quantities; the decrement happens exactly once at Confirm.
type Service interface {
	CheckAvailability(ctx context.Context, lines []Line) ([]Availability, error)
	Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []Line) error
	Confirm(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error
	Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string) error
	ReleaseLines(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []Line, reason string) error
	Reassign(ctx context.Context, tx *gorm.DB, fromRef, toRef uuid.UUID) error
	SweepExpired(ctx context.Context, tx *gorm.DB, batchSize int) (*SweepResult, error)
	SetOnHand(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error
}

type service struct {
	repo Repository
	ttl  time.Duration
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the reservation ledger with the configured reservation TTL.
func NewService(repo Repository, ttl time.Duration, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("reservation ttl must be positive")
	}
	return &service{
		repo: repo,
		ttl:  ttl,
		logg: logg,
		now:  time.Now,
	}, nil
}

func (s *service) CheckAvailability(ctx context.Context, lines []Line) ([]Availability, error) {
	if len(lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	now := s.now().UTC()
	out := make([]Availability, 0, len(lines))
	for _, line := range lines {
		available, err := s.availableQty(ctx, s.repo, line.ProductID, line.VariantID, now)
		if err != nil {
			return nil, err
		}
		out = append(out, Availability{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Requested: line.Qty,
			Available: available,
			InStock:   line.Qty > 0 && available >= line.Qty,
		})
	}
	return out, nil
}

// Reserve places unexpired holds for every line or none at all. Rows for the
// same product serialize on the inventory item row lock, so two concurrent
// checkouts cannot both reserve the last unit.
func (s *service) Reserve(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []Line) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}
	if len(lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	for _, line := range lines {
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive").
				WithDetails(map[string]any{"product_id": line.ProductID})
		}
	}

	repo := s.repo.WithTx(tx)
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)

	var insufficient []Availability
	rows := make([]models.StockReservation, 0, len(lines))
	for _, line := range lines {
		// The row lock is the serialization point for this product.
		if _, err := repo.FindItemForUpdate(ctx, line.ProductID, line.VariantID); err != nil {
			if db.IsNotFound(err) {
				insufficient = append(insufficient, Availability{
					ProductID: line.ProductID,
					VariantID: line.VariantID,
					Requested: line.Qty,
				})
				continue
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock inventory row")
		}
		available, err := s.availableQty(ctx, repo, line.ProductID, line.VariantID, now)
		if err != nil {
			return err
		}
		if available < line.Qty {
			insufficient = append(insufficient, Availability{
				ProductID: line.ProductID,
				VariantID: line.VariantID,
				Requested: line.Qty,
				Available: available,
			})
			continue
		}
		rows = append(rows, models.StockReservation{
			OrderID:   orderID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Qty:       line.Qty,
			Status:    enums.ReservationStatusReserved,
			ExpiresAt: expiresAt,
		})
	}

	if len(insufficient) > 0 {
		return pkgerrors.New(pkgerrors.CodeStockConflict, "insufficient stock").
			WithDetails(map[string]any{"items": insufficient})
	}

	if err := repo.CreateReservations(ctx, rows); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservations")
	}
	return nil
}

// Confirm flips every reserved row for the order to confirmed and decrements
// on-hand exactly once per row. A single expired reservation fails the whole
// call; nothing is decremented in that case because the surrounding
// transaction rolls back.
func (s *service) Confirm(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}

	repo := s.repo.WithTx(tx)
	now := s.now().UTC()

	reservations, err := repo.FindReservationsByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservations")
	}

	var active []models.StockReservation
	for _, row := range reservations {
		if row.Status != enums.ReservationStatusReserved {
			continue
		}
		if !row.ExpiresAt.After(now) {
			return pkgerrors.New(pkgerrors.CodeStockConflict, "reservation expired").
				WithDetails(map[string]any{"reservation_id": row.ID, "expired_at": row.ExpiresAt})
		}
		active = append(active, row)
	}
	if len(active) == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "no active reservations for order")
	}

	ids := make([]uuid.UUID, 0, len(active))
	for _, row := range active {
		if _, err := repo.FindItemForUpdate(ctx, row.ProductID, row.VariantID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock inventory row")
		}
		affected, err := repo.DecrementOnHand(ctx, row.ProductID, row.VariantID, row.Qty)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement on-hand")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStockConflict, "insufficient stock").
				WithDetails(map[string]any{"product_id": row.ProductID})
		}
		ids = append(ids, row.ID)
	}

	affected, err := repo.UpdateReservationStatus(ctx, ids, enums.ReservationStatusReserved, enums.ReservationStatusConfirmed)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm reservations")
	}
	if affected != int64(len(ids)) {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "reservation state changed concurrently")
	}
	return nil
}

// Release marks the order's active rows released. Confirmed rows get their
// stock added back to on-hand; reserved rows never decremented anything.
func (s *service) Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, reason string) error {
	return s.ReleaseLines(ctx, tx, orderID, nil, reason)
}

// ReleaseLines releases only the rows matching the given lines; a nil slice
// releases everything held for the order. Vendor-order cancellation uses the
// filtered form so sibling vendors keep their holds.
func (s *service) ReleaseLines(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, lines []Line, reason string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}

	repo := s.repo.WithTx(tx)
	reservations, err := repo.FindReservationsByOrder(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load reservations")
	}

	var reserved, confirmed []uuid.UUID
	for _, row := range reservations {
		if lines != nil && !matchesLine(row, lines) {
			continue
		}
		switch row.Status {
		case enums.ReservationStatusReserved:
			reserved = append(reserved, row.ID)
		case enums.ReservationStatusConfirmed:
			if _, err := repo.FindItemForUpdate(ctx, row.ProductID, row.VariantID); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock inventory row")
			}
			if _, err := repo.IncrementOnHand(ctx, row.ProductID, row.VariantID, row.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore on-hand")
			}
			confirmed = append(confirmed, row.ID)
		}
	}

	if _, err := repo.UpdateReservationStatus(ctx, reserved, enums.ReservationStatusReserved, enums.ReservationStatusReleased); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release reservations")
	}
	if _, err := repo.UpdateReservationStatus(ctx, confirmed, enums.ReservationStatusConfirmed, enums.ReservationStatusReleased); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release confirmed reservations")
	}

	if s.logg != nil && (len(reserved) > 0 || len(confirmed) > 0) {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": orderID.String(),
			"released": len(reserved) + len(confirmed),
			"reason":   reason,
		})
		s.logg.Info(logCtx, "reservations released")
	}
	return nil
}

// Reassign moves every reservation held under fromRef to toRef. The checkout
// flow reserves under the session ID and re-keys to the order ID inside the
// confirm transaction.
func (s *service) Reassign(ctx context.Context, tx *gorm.DB, fromRef, toRef uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required")
	}
	if fromRef == uuid.Nil || toRef == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "both references required")
	}
	if _, err := s.repo.WithTx(tx).ReassignOrder(ctx, fromRef, toRef); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reassign reservations")
	}
	return nil
}

func matchesLine(row models.StockReservation, lines []Line) bool {
	for _, line := range lines {
		if line.ProductID != row.ProductID {
			continue
		}
		if (line.VariantID == nil) != (row.VariantID == nil) {
			continue
		}
		if line.VariantID != nil && *line.VariantID != *row.VariantID {
			continue
		}
		return true
	}
	return false
}

// SweepExpired is housekeeping only: availability math already ignores
// expired rows, the sweep just keeps the ledger tidy.
func (s *service) SweepExpired(ctx context.Context, tx *gorm.DB, batchSize int) (*SweepResult, error) {
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	now := s.now().UTC()

	expired, err := repo.FindExpiredReserved(ctx, now, batchSize)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find expired reservations")
	}
	if len(expired) == 0 {
		return &SweepResult{}, nil
	}

	ids := make([]uuid.UUID, 0, len(expired))
	qty := 0
	for _, row := range expired {
		ids = append(ids, row.ID)
		qty += row.Qty
	}

	affected, err := repo.UpdateReservationStatus(ctx, ids, enums.ReservationStatusReserved, enums.ReservationStatusReleased)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release expired reservations")
	}
	return &SweepResult{ReleasedCount: int(affected), ReleasedQty: qty}, nil
}

func (s *service) SetOnHand(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if qty < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "on-hand qty must not be negative")
	}
	item := models.InventoryItem{
		ProductID: productID,
		VariantID: variantID,
		OnHandQty: qty,
	}
	if err := s.repo.UpsertItem(ctx, &item); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert inventory item")
	}
	return nil
}

func (s *service) availableQty(ctx context.Context, repo Repository, productID uuid.UUID, variantID *uuid.UUID, now time.Time) (int, error) {
	item, err := repo.FindItem(ctx, productID, variantID)
	if err != nil {
		if db.IsNotFound(err) {
			return 0, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	reserved, err := repo.ActiveReservedQty(ctx, productID, variantID, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum active reservations")
	}
	available := item.OnHandQty - reserved
	if available < 0 {
		available = 0
	}
	return available, nil
}
