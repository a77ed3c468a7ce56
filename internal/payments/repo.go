package payments

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
)

// Repository persists payment transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error)
	FindPendingCharge(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error)
	SumByType(ctx context.Context, orderID uuid.UUID, txnType enums.PaymentTxnType) (int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, txn *models.PaymentTransaction) (*models.PaymentTransaction, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repositoryImpl) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]models.PaymentTransaction, error) {
	var rows []models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *repositoryImpl) FindPendingCharge(ctx context.Context, orderID uuid.UUID) (*models.PaymentTransaction, error) {
	var txn models.PaymentTransaction
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND type = ? AND status = ?", orderID, enums.PaymentTxnTypeCharge, enums.PaymentStatusPending).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

// SumByType totals completed transactions of one kind against an order.
func (r *repositoryImpl) SumByType(ctx context.Context, orderID uuid.UUID, txnType enums.PaymentTxnType) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Select("COALESCE(SUM(amount_paisa), 0)").
		Where("order_id = ? AND type = ? AND status = ?", orderID, txnType, enums.PaymentStatusCompleted).
		Scan(&total).Error
	return total, err
}

func (r *repositoryImpl) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentTransaction{}).
		Where("id = ?", id).
		Updates(updates).Error
}
