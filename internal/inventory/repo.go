package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// Repository exposes persistence helpers for inventory items and the
// reservation ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindItem(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.InventoryItem, error)
	FindItemForUpdate(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.InventoryItem, error)
	UpsertItem(ctx context.Context, item *models.InventoryItem) error
	DecrementOnHand(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error)
	IncrementOnHand(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error)
	ActiveReservedQty(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, now time.Time) (int, error)
	CreateReservations(ctx context.Context, rows []models.StockReservation) error
	FindReservationsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockReservation, error)
	ReassignOrder(ctx context.Context, fromRef, toRef uuid.UUID) (int64, error)
	UpdateReservationStatus(ctx context.Context, ids []uuid.UUID, from, to enums.ReservationStatus) (int64, error)
	FindExpiredReserved(ctx context.Context, cutoff time.Time, limit int) ([]models.StockReservation, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func variantScope(query *gorm.DB, variantID *uuid.UUID) *gorm.DB {
	if variantID == nil {
		return query.Where("variant_id IS NULL")
	}
	return query.Where("variant_id = ?", *variantID)
}

// lockForUpdate applies FOR UPDATE on engines that support it; the sqlite
// driver used in tests does not parse the clause.
func lockForUpdate(query *gorm.DB) *gorm.DB {
	if query.Dialector != nil && query.Dialector.Name() == "postgres" {
		return query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return query
}

func (r *repositoryImpl) FindItem(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	query := r.db.WithContext(ctx).Where("product_id = ?", productID)
	if err := variantScope(query, variantID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repositoryImpl) FindItemForUpdate(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	query := lockForUpdate(r.db.WithContext(ctx)).Where("product_id = ?", productID)
	if err := variantScope(query, variantID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpsertItem updates the existing (product, variant) row or inserts one. A
// unique index on the pair keeps concurrent inserts from racing past the
// update; variant_id is nullable, so the index cannot serve as an ON CONFLICT
// target and the upsert is done in two statements instead.
func (r *repositoryImpl) UpsertItem(ctx context.Context, item *models.InventoryItem) error {
	query := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ?", item.ProductID)
	query = variantScope(query, item.VariantID)
	result := query.UpdateColumn("on_hand_qty", item.OnHandQty)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repositoryImpl) DecrementOnHand(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ? AND on_hand_qty >= ?", productID, qty)
	query = variantScope(query, variantID)
	result := query.UpdateColumn("on_hand_qty", gorm.Expr("on_hand_qty - ?", qty))
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) IncrementOnHand(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("product_id = ?", productID)
	query = variantScope(query, variantID)
	result := query.UpdateColumn("on_hand_qty", gorm.Expr("on_hand_qty + ?", qty))
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) ActiveReservedQty(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, now time.Time) (int, error) {
	var total int64
	query := r.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("product_id = ? AND status = ? AND expires_at > ?", productID, enums.ReservationStatusReserved, now)
	query = variantScope(query, variantID)
	err := query.Select("COALESCE(SUM(qty), 0)").Scan(&total).Error
	return int(total), err
}

func (r *repositoryImpl) CreateReservations(ctx context.Context, rows []models.StockReservation) error {
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *repositoryImpl) FindReservationsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.StockReservation, error) {
	var rows []models.StockReservation
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ReassignOrder(ctx context.Context, fromRef, toRef uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("order_id = ?", fromRef).
		Update("order_id", toRef)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) UpdateReservationStatus(ctx context.Context, ids []uuid.UUID, from, to enums.ReservationStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.StockReservation{}).
		Where("id IN ? AND status = ?", ids, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) FindExpiredReserved(ctx context.Context, cutoff time.Time, limit int) ([]models.StockReservation, error) {
	var rows []models.StockReservation
	query := r.db.WithContext(ctx).
		Where("status = ? AND expires_at <= ?", enums.ReservationStatusReserved, cutoff).
		Order("expires_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&rows).Error
	return rows, err
}
