package product

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/internal/inventory"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:product_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := conn.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.InventoryItem{},
		&models.StockReservation{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	ledger, err := inventory.NewService(inventory.NewRepository(conn), 30*time.Minute, nil)
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	svc, err := NewService(NewRepository(conn), ledger)
	if err != nil {
		t.Fatalf("product service: %v", err)
	}
	return svc
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	var appErr *pkgerrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected app error, got %v", err)
	}
	if appErr.Code() != code {
		t.Fatalf("expected %s, got %s", code, appErr.Code())
	}
}

func TestCreateProductSeedsStock(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	vendorID := uuid.New()

	created, err := svc.CreateProduct(ctx, vendorID, CreateProductInput{
		Name:           "Jamdani Saree",
		SKU:            "JS-001",
		UnitPricePaisa: 450000,
		InitialStock:   10,
		Variants: []VariantInput{
			{Name: "Red", SKU: "JS-001-R", InitialStock: 4},
		},
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	if created.VendorID != vendorID {
		t.Fatalf("expected vendor %s, got %s", vendorID, created.VendorID)
	}
	if len(created.Variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(created.Variants))
	}

	detail, err := svc.GetProduct(ctx, created.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if detail.Available == nil || *detail.Available != 10 {
		t.Fatalf("expected 10 available, got %v", detail.Available)
	}
	if detail.Variants[0].Available == nil || *detail.Variants[0].Available != 4 {
		t.Fatalf("expected 4 variant units, got %v", detail.Variants[0].Available)
	}
}

func TestCreateProductRejectsDuplicateSKU(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	input := CreateProductInput{Name: "Panjabi", SKU: "PNJ-9", UnitPricePaisa: 120000}
	if _, err := svc.CreateProduct(ctx, uuid.New(), input); err != nil {
		t.Fatalf("create product: %v", err)
	}
	_, err := svc.CreateProduct(ctx, uuid.New(), input)
	if err == nil {
		t.Fatal("expected duplicate sku rejection")
	}
	expectCode(t, err, pkgerrors.CodeConflict)
}

func TestUpdateProductOwnership(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	vendorID := uuid.New()

	created, err := svc.CreateProduct(ctx, vendorID, CreateProductInput{
		Name: "Clay Pot", SKU: "CP-1", UnitPricePaisa: 30000,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	_, err = svc.UpdateProduct(ctx, uuid.New(), created.ID, UpdateProductInput{})
	if err == nil {
		t.Fatal("expected ownership rejection")
	}
	expectCode(t, err, pkgerrors.CodeForbidden)

	newPrice := int64(35000)
	inactive := false
	updated, err := svc.UpdateProduct(ctx, vendorID, created.ID, UpdateProductInput{
		UnitPricePaisa: &newPrice,
		Active:         &inactive,
	})
	if err != nil {
		t.Fatalf("update product: %v", err)
	}
	if updated.UnitPricePaisa != newPrice {
		t.Fatalf("expected price %d, got %d", newPrice, updated.UnitPricePaisa)
	}
	if updated.Active {
		t.Fatal("expected product inactive")
	}
}

func TestSetStockChecksOwnershipAndVariant(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	vendorID := uuid.New()

	created, err := svc.CreateProduct(ctx, vendorID, CreateProductInput{
		Name: "Nakshi Kantha", SKU: "NK-3", UnitPricePaisa: 250000,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	if err := svc.SetStock(ctx, uuid.New(), created.ID, SetStockInput{OnHandQty: 5}); err == nil {
		t.Fatal("expected ownership rejection")
	}

	missingVariant := uuid.New()
	err = svc.SetStock(ctx, vendorID, created.ID, SetStockInput{VariantID: &missingVariant, OnHandQty: 5})
	if err == nil {
		t.Fatal("expected variant not found")
	}
	expectCode(t, err, pkgerrors.CodeNotFound)

	if err := svc.SetStock(ctx, vendorID, created.ID, SetStockInput{OnHandQty: 5}); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	detail, err := svc.GetProduct(ctx, created.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if detail.Available == nil || *detail.Available != 5 {
		t.Fatalf("expected 5 available, got %v", detail.Available)
	}
}

func TestListProductsPaginates(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	vendorID := uuid.New()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		row := models.Product{
			ID:             uuid.New(),
			VendorID:       vendorID,
			Name:           "Item",
			SKU:            "SKU-" + uuid.NewString(),
			UnitPricePaisa: 1000,
			Active:         true,
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		}
		if err := conn.Create(&row).Error; err != nil {
			t.Fatalf("seed product: %v", err)
		}
	}

	page, cursor, err := svc.ListProducts(ctx, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list products: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(page))
	}
	if cursor == "" {
		t.Fatal("expected next cursor")
	}

	rest, next, err := svc.ListProducts(ctx, pagination.Params{Limit: 2, Cursor: cursor})
	if err != nil {
		t.Fatalf("list next page: %v", err)
	}
	if len(rest) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rest))
	}
	if next != "" {
		t.Fatalf("expected empty cursor, got %q", next)
	}
}
