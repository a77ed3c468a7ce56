package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their children.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateVendorOrder(ctx context.Context, order *models.VendorOrder) (*models.VendorOrder, error)
	CreateOrderItems(ctx context.Context, items []models.OrderItem) error
	CreateStatusHistory(ctx context.Context, row *models.OrderStatusHistory) error
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error)
	FindVendorOrder(ctx context.Context, id uuid.UUID) (*models.VendorOrder, error)
	FindVendorOrderForVendor(ctx context.Context, id, vendorID uuid.UUID) (*models.VendorOrder, error)
	FindVendorOrdersByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorOrder, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateVendorOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListUserOrders(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, status *enums.VendorOrderStatus, cursor *pagination.Cursor, limit int) ([]models.VendorOrder, error)
	ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error)
	EarningsSummary(ctx context.Context, vendorID uuid.UUID) (*EarningsSummary, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("VendorOrders", "Items", "StatusHistory").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repositoryImpl) CreateVendorOrder(ctx context.Context, order *models.VendorOrder) (*models.VendorOrder, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repositoryImpl) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repositoryImpl) CreateStatusHistory(ctx context.Context, row *models.OrderStatusHistory) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repositoryImpl) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("VendorOrders.Items").
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) FindOrderForUser(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("VendorOrders.Items").
		Preload("Items").
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) FindVendorOrder(ctx context.Context, id uuid.UUID) (*models.VendorOrder, error) {
	var order models.VendorOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) FindVendorOrderForVendor(ctx context.Context, id, vendorID uuid.UUID) (*models.VendorOrder, error) {
	var order models.VendorOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repositoryImpl) FindVendorOrdersByOrder(ctx context.Context, orderID uuid.UUID) ([]models.VendorOrder, error) {
	var rows []models.VendorOrder
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) UpdateOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repositoryImpl) UpdateVendorOrder(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.VendorOrder{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repositoryImpl) ListUserOrders(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.Order
	err := query.
		Preload("VendorOrders").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, status *enums.VendorOrderStatus, cursor *pagination.Cursor, limit int) ([]models.VendorOrder, error) {
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
	var rows []models.VendorOrder
	err := query.
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) ListStatusHistory(ctx context.Context, orderID uuid.UUID) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

// EarningsSummary aggregates vendor earnings by lifecycle bucket. Cancelled
// orders never count; settled means delivered or completed.
func (r *repositoryImpl) EarningsSummary(ctx context.Context, vendorID uuid.UUID) (*EarningsSummary, error) {
	summary := EarningsSummary{VendorID: vendorID}

	type row struct {
		Status   enums.VendorOrderStatus
		Earnings int64
		Orders   int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.VendorOrder{}).
		Select("status, COALESCE(SUM(vendor_earnings_paisa), 0) AS earnings, COUNT(*) AS orders").
		Where("vendor_id = ?", vendorID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, entry := range rows {
		switch entry.Status {
		case enums.VendorOrderStatusCancelled:
			continue
		case enums.VendorOrderStatusDelivered, enums.VendorOrderStatusCompleted:
			summary.SettledEarningsPaisa += entry.Earnings
			summary.SettledOrders += int(entry.Orders)
		case enums.VendorOrderStatusReturned, enums.VendorOrderStatusRefunded:
			summary.RefundedOrders += int(entry.Orders)
		default:
			summary.PendingEarningsPaisa += entry.Earnings
			summary.PendingOrders += int(entry.Orders)
		}
	}
	return &summary, nil
}
