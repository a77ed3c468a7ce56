package returns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

// Repository persists return requests and the item flags they drive.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.ReturnRequest) (*models.ReturnRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error)
	FindForVendor(ctx context.Context, id, vendorID uuid.UUID) (*models.ReturnRequest, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ReturnRequest, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, status *enums.ReturnStatus, cursor *pagination.Cursor, limit int) ([]models.ReturnRequest, error)
	OpenRequestsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.ReturnRequest, error)
	UpdateItemStatus(ctx context.Context, itemIDs []uuid.UUID, status enums.OrderItemStatus) error
	CountItemsByStatus(ctx context.Context, vendorOrderID uuid.UUID, status enums.OrderItemStatus) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a returns repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, request *models.ReturnRequest) (*models.ReturnRequest, error) {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	err := r.db.WithContext(ctx).
		Preload("RefundTransaction").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repositoryImpl) FindForVendor(ctx context.Context, id, vendorID uuid.UUID) (*models.ReturnRequest, error) {
	var request models.ReturnRequest
	err := r.db.WithContext(ctx).
		Preload("RefundTransaction").
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.ReturnRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repositoryImpl) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.ReturnRequest, error) {
	sub := r.db.Model(&models.Order{}).Select("id").Where("user_id = ?", userID)
	query := r.db.WithContext(ctx).Where("order_id IN (?)", sub)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.ReturnRequest
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListByVendor(ctx context.Context, vendorID uuid.UUID, status *enums.ReturnStatus, cursor *pagination.Cursor, limit int) ([]models.ReturnRequest, error) {
	query := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.ReturnRequest
	err := query.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// OpenRequestsByOrder returns the order's requests that still hold a claim on
// items, i.e. everything except rejected ones.
func (r *repositoryImpl) OpenRequestsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.ReturnRequest, error) {
	var rows []models.ReturnRequest
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND status <> ?", orderID, enums.ReturnStatusRejected).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) UpdateItemStatus(ctx context.Context, itemIDs []uuid.UUID, status enums.OrderItemStatus) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id IN ?", itemIDs).
		Update("status", status).Error
}

func (r *repositoryImpl) CountItemsByStatus(ctx context.Context, vendorOrderID uuid.UUID, status enums.OrderItemStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("vendor_order_id = ? AND status = ?", vendorOrderID, status).
		Count(&count).Error
	return count, err
}
