package product

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/bazarika/bazarika-backend/internal/inventory"
	"github.com/bazarika/bazarika-backend/pkg/db"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	"github.com/bazarika/bazarika-backend/pkg/enums"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/pagination"
)

type stockLedger interface {
	CheckAvailability(ctx context.Context, lines []inventory.Line) ([]inventory.Availability, error)
	SetOnHand(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error
}

// Service exposes catalog reads for buyers and catalog management for vendors.
type Service interface {
	CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, params pagination.Params) ([]ProductDTO, string, error)
	ListVendorProducts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]ProductDTO, string, error)
	SetStock(ctx context.Context, vendorID, productID uuid.UUID, input SetStockInput) error
}

type service struct {
	repo  Repository
	stock stockLedger
}

// NewService builds the catalog service.
func NewService(repo Repository, stock stockLedger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	return &service{repo: repo, stock: stock}, nil
}

func (s *service) CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context required")
	}

	sku := strings.TrimSpace(input.SKU)
	if existing, err := s.repo.FindBySKU(ctx, sku); err == nil && existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "sku already in use")
	} else if err != nil && !db.IsNotFound(err) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check sku")
	}

	row := &models.Product{
		VendorID:       vendorID,
		Name:           strings.TrimSpace(input.Name),
		SKU:            sku,
		UnitPricePaisa: input.UnitPricePaisa,
		Currency:       enums.CurrencyBDT,
		Active:         true,
	}
	for _, variant := range input.Variants {
		row.Variants = append(row.Variants, models.ProductVariant{
			Name:            strings.TrimSpace(variant.Name),
			SKU:             strings.TrimSpace(variant.SKU),
			PriceDeltaPaisa: variant.PriceDeltaPaisa,
		})
	}

	created, err := s.repo.Create(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}

	if input.InitialStock > 0 {
		if err := s.stock.SetOnHand(ctx, created.ID, nil, input.InitialStock); err != nil {
			return nil, err
		}
	}
	for i, variant := range input.Variants {
		if variant.InitialStock > 0 {
			variantID := created.Variants[i].ID
			if err := s.stock.SetOnHand(ctx, created.ID, &variantID, variant.InitialStock); err != nil {
				return nil, err
			}
		}
	}

	dto := toProductDTO(created)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	row, err := s.ownedProduct(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		row.Name = strings.TrimSpace(*input.Name)
	}
	if input.UnitPricePaisa != nil {
		row.UnitPricePaisa = *input.UnitPricePaisa
	}
	if input.Active != nil {
		row.Active = *input.Active
	}

	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	dto := toProductDTO(updated)
	return &dto, nil
}

// GetProduct returns the catalog entry with live availability attached.
func (s *service) GetProduct(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	dto := toProductDTO(row)

	lines := []inventory.Line{{ProductID: row.ID}}
	for _, variant := range row.Variants {
		variantID := variant.ID
		lines = append(lines, inventory.Line{ProductID: row.ID, VariantID: &variantID})
	}
	availability, err := s.stock.CheckAvailability(ctx, lines)
	if err != nil {
		return nil, err
	}
	for _, entry := range availability {
		available := entry.Available
		if entry.VariantID == nil {
			dto.Available = &available
			continue
		}
		for i := range dto.Variants {
			if dto.Variants[i].ID == *entry.VariantID {
				dto.Variants[i].Available = &available
			}
		}
	}
	return &dto, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) ([]ProductDTO, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.ListActive(ctx, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return paginate(rows, params.Limit)
}

func (s *service) ListVendorProducts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) ([]ProductDTO, string, error) {
	if vendorID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeForbidden, "vendor context required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	rows, err := s.repo.ListByVendor(ctx, vendorID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vendor products")
	}
	return paginate(rows, params.Limit)
}

// SetStock writes the absolute on-hand quantity after an ownership check.
func (s *service) SetStock(ctx context.Context, vendorID, productID uuid.UUID, input SetStockInput) error {
	row, err := s.ownedProduct(ctx, vendorID, productID)
	if err != nil {
		return err
	}
	if input.VariantID != nil {
		if _, err := s.repo.FindVariant(ctx, row.ID, *input.VariantID); err != nil {
			if db.IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
	}
	return s.stock.SetOnHand(ctx, row.ID, input.VariantID, input.OnHandQty)
}

func (s *service) ownedProduct(ctx context.Context, vendorID, productID uuid.UUID) (*models.Product, error) {
	if vendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context required")
	}
	row, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if row.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "product belongs to another vendor")
	}
	return row, nil
}

func paginate(rows []models.Product, limit int) ([]ProductDTO, string, error) {
	pageSize := pagination.NormalizeLimit(limit)
	nextCursor := ""
	if len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	out := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		out = append(out, toProductDTO(&rows[i]))
	}
	return out, nextCursor, nil
}
