package product

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

// Repository exposes catalog persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindBySKU(ctx context.Context, sku string) (*models.Product, error)
	FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error)
	ListActive(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Product, error)
	ListByVendor(ctx context.Context, vendorID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Product, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a catalog repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	for i := range product.Variants {
		if product.Variants[i].ID == uuid.Nil {
			product.Variants[i].ID = uuid.New()
		}
		product.Variants[i].ProductID = product.ID
	}
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repositoryImpl) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":             product.Name,
			"unit_price_paisa": product.UnitPricePaisa,
			"active":           product.Active,
			"updated_at":       time.Now().UTC(),
		}).Error; err != nil {
		return nil, err
	}
	return r.FindByID(ctx, product.ID)
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).
		Preload("Variants").
		First(&product, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repositoryImpl) FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).
		First(&variant, "id = ? AND product_id = ?", variantID, productID).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repositoryImpl) ListActive(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Where("active = ?", true)
	return r.list(query, cursor, limit)
}

func (r *repositoryImpl) ListByVendor(ctx context.Context, vendorID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Where("vendor_id = ?", vendorID)
	return r.list(query, cursor, limit)
}

func (r *repositoryImpl) list(query *gorm.DB, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}
	var rows []models.Product
	err := query.
		Preload("Variants").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
