package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bazarika/bazarika-backend/pkg/config"
	"github.com/bazarika/bazarika-backend/pkg/db"
	"github.com/bazarika/bazarika-backend/pkg/db/models"
	pkgerrors "github.com/bazarika/bazarika-backend/pkg/errors"
	"github.com/bazarika/bazarika-backend/pkg/logger"
	"github.com/bazarika/bazarika-backend/pkg/pricing"
)

const summaryCacheTTL = 15 * time.Minute

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error)
}

type summaryCache interface {
	CacheCartSummary(ctx context.Context, userID, payload string, ttl time.Duration) error
	GetCartSummary(ctx context.Context, userID string) (string, error)
	InvalidateCartSummary(ctx context.Context, userID string) error
}

// Service exposes cart reads and mutations.
type Service interface {
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
	GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	catalog catalog
	cache   summaryCache
	market  config.MarketConfig
	logg    *logger.Logger
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, tx txRunner, catalog catalog, cache summaryCache, market config.MarketConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog loader required")
	}
	return &service{
		repo:    repo,
		tx:      tx,
		catalog: catalog,
		cache:   cache,
		market:  market,
		logg:    logg,
	}, nil
}

// AddItem snapshots the current unit price onto the line. An existing line
// for the same (product, vendor) pair has its quantity bumped instead.
func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	row, err := s.catalog.FindByID(ctx, input.ProductID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !row.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	unitPrice := row.UnitPricePaisa
	if input.VariantID != nil {
		variant, err := s.catalog.FindVariant(ctx, row.ID, *input.VariantID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		unitPrice += variant.PriceDeltaPaisa
	}

	if err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		existing, err := txRepo.FindLine(ctx, userID, row.ID, row.VendorID)
		if err != nil && !db.IsNotFound(err) {
			return err
		}
		if existing != nil {
			existing.Quantity += input.Quantity
			existing.TotalPricePaisa = existing.UnitPricePaisa * int64(existing.Quantity)
			return txRepo.UpdateItem(ctx, existing)
		}
		return txRepo.CreateItem(ctx, &models.CartItem{
			UserID:          userID,
			ProductID:       row.ID,
			VendorID:        row.VendorID,
			VariantID:       input.VariantID,
			Quantity:        input.Quantity,
			UnitPricePaisa:  unitPrice,
			TotalPricePaisa: unitPrice * int64(input.Quantity),
		})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart line")
	}

	s.invalidateSummary(ctx, userID)
	return s.GetCart(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (*CartDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	item, err := s.repo.FindItemByID(ctx, userID, itemID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart item")
	}

	item.Quantity = input.Quantity
	item.TotalPricePaisa = item.UnitPricePaisa * int64(input.Quantity)
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}

	s.invalidateSummary(ctx, userID)
	return s.GetCart(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*CartDTO, error) {
	affected, err := s.repo.DeleteItem(ctx, userID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	s.invalidateSummary(ctx, userID)
	return s.GetCart(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.repo.DeleteByUser(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	s.invalidateSummary(ctx, userID)
	return nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (*CartDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context required")
	}

	rows, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	dto := &CartDTO{UserID: userID}
	groupIndex := map[uuid.UUID]int{}
	for _, row := range rows {
		idx, ok := groupIndex[row.VendorID]
		if !ok {
			idx = len(dto.Vendors)
			groupIndex[row.VendorID] = idx
			dto.Vendors = append(dto.Vendors, VendorGroup{VendorID: row.VendorID})
		}
		dto.Vendors[idx].Items = append(dto.Vendors[idx].Items, toItemDTO(row))
		dto.Vendors[idx].SubtotalPaisa += row.TotalPricePaisa
	}

	dto.Summary = s.loadSummary(ctx, userID, rows)
	return dto, nil
}

// loadSummary serves the cost breakdown from redis when present, otherwise
// computes and caches it. Cache failures degrade to a recompute, never an
// error.
func (s *service) loadSummary(ctx context.Context, userID uuid.UUID, rows []models.CartItem) Summary {
	if s.cache != nil {
		if cached, err := s.cache.GetCartSummary(ctx, userID.String()); err == nil && cached != "" {
			var summary Summary
			if err := json.Unmarshal([]byte(cached), &summary); err == nil {
				return summary
			}
		}
	}

	summary := s.computeSummary(rows)

	if s.cache != nil {
		if payload, err := json.Marshal(summary); err == nil {
			if err := s.cache.CacheCartSummary(ctx, userID.String(), string(payload), summaryCacheTTL); err != nil && s.logg != nil {
				s.logg.Warn(ctx, "cache cart summary: "+err.Error())
			}
		}
	}
	return summary
}

func (s *service) computeSummary(rows []models.CartItem) Summary {
	var summary Summary
	for _, row := range rows {
		summary.ItemCount += row.Quantity
		summary.SubtotalPaisa += row.TotalPricePaisa
	}
	summary.ShippingPaisa = pricing.ShippingFee(s.market, summary.ItemCount, summary.SubtotalPaisa)
	summary.VATPaisa = pricing.VAT(s.market, summary.SubtotalPaisa)
	summary.TotalPaisa = summary.SubtotalPaisa + summary.ShippingPaisa + summary.VATPaisa
	return summary
}

func (s *service) invalidateSummary(ctx context.Context, userID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCartSummary(ctx, userID.String()); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "invalidate cart summary: "+err.Error())
	}
}
