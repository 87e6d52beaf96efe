package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
)

// maxCategoryDepth bounds parent walks in case the data already holds a cycle.
const maxCategoryDepth = 64

// CatalogService manages categories, products, discounts and taxes
type CatalogService struct {
	*BaseService
}

// NewCatalogService creates a new catalog service
func NewCatalogService(base *BaseService) *CatalogService {
	return &CatalogService{BaseService: base}
}

// Category Management

// CreateCategory creates a category under parentID (nil for a root).
func (s *CatalogService) CreateCategory(ctx context.Context, name string, parentID *uint) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("category name is required")
	}
	category := &models.Category{Name: name, ParentID: parentID}
	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if parentID != nil {
			if _, err := repos.Categories.Get(ctx, *parentID); err != nil {
				return fmt.Errorf("parent category %d: %w", *parentID, err)
			}
		}
		return repos.Categories.Create(ctx, category)
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// MoveCategory re-parents a category, refusing moves that would make it its
// own ancestor.
func (s *CatalogService) MoveCategory(ctx context.Context, id uint, parentID *uint) error {
	return s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if _, err := repos.Categories.Get(ctx, id); err != nil {
			return err
		}
		if parentID != nil {
			path, err := categoryPath(ctx, repos, *parentID)
			if err != nil {
				return err
			}
			for _, c := range path {
				if c.ID == id {
					return ErrCategoryCycle
				}
			}
		}
		return repos.Categories.SetParent(ctx, id, parentID)
	})
}

// CategoryPath returns the chain from the root down to the category.
func (s *CatalogService) CategoryPath(ctx context.Context, id uint) ([]models.Category, error) {
	var path []models.Category
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		path, err = categoryPath(ctx, repos, id)
		return err
	})
	return path, err
}

func categoryPath(ctx context.Context, repos *repository.Repositories, id uint) ([]models.Category, error) {
	var path []models.Category
	seen := make(map[uint]bool)
	next := &id
	for next != nil {
		if seen[*next] || len(path) >= maxCategoryDepth {
			return nil, ErrCategoryCycle
		}
		seen[*next] = true
		category, err := repos.Categories.Get(ctx, *next)
		if err != nil {
			return nil, err
		}
		path = append(path, *category)
		next = category.ParentID
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Product Management

// InitialStock is the opening quantity of a new product at one outlet
type InitialStock struct {
	OutletID uint  `json:"outlet_id"`
	Qty      int64 `json:"qty"`
	UserID   *uint `json:"user_id,omitempty"`
}

// CreateProductRequest describes a new product
type CreateProductRequest struct {
	SKU          string        `json:"sku"`
	Barcode      string        `json:"barcode"`
	Name         string        `json:"name"`
	CategoryID   *uint         `json:"category_id,omitempty"`
	PriceCents   int64         `json:"price_cents"`
	CostCents    *int64        `json:"cost_cents,omitempty"`
	AlertStock   int64         `json:"alert_stock"`
	TrackStock   bool          `json:"track_stock"`
	Description  string        `json:"description"`
	InitialStock *InitialStock `json:"initial_stock,omitempty"`
}

// CreateProduct creates an active product. The opening quantity, if any, is
// written through the stock ledger in the same transaction.
func (s *CatalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("product name is required")
	}
	if req.PriceCents < 0 || (req.CostCents != nil && *req.CostCents < 0) {
		return nil, fmt.Errorf("%w: price and cost must not be negative", ErrInvalidAmount)
	}
	if req.AlertStock < 0 {
		return nil, fmt.Errorf("%w: alert stock must not be negative", ErrInvalidAmount)
	}
	if req.InitialStock != nil {
		if !req.TrackStock {
			return nil, fmt.Errorf("%w: initial stock on an untracked product", ErrInvalidMovement)
		}
		if req.InitialStock.Qty < 0 {
			return nil, ErrInvalidQuantity
		}
	}

	product := &models.Product{
		SKU:         optionalString(req.SKU),
		Barcode:     optionalString(req.Barcode),
		Name:        name,
		CategoryID:  req.CategoryID,
		PriceCents:  req.PriceCents,
		CostCents:   req.CostCents,
		AlertStock:  req.AlertStock,
		TrackStock:  req.TrackStock,
		Description: req.Description,
		IsActive:    true,
	}

	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		if req.InitialStock == nil || req.InitialStock.Qty == 0 {
			return nil
		}
		_, err := recordStockChange(ctx, repos, models.StockMovement{
			ProductID: product.ID,
			OutletID:  req.InitialStock.OutletID,
			ChangeQty: req.InitialStock.Qty,
			Reason:    models.MovementInitial,
			Reference: fmt.Sprintf("product:%d", product.ID),
			CreatedBy: req.InitialStock.UserID,
		}, s.now())
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product %q: %w", name, err)
	}

	s.logger.Info().Uint("product_id", product.ID).Str("name", product.Name).Msg("Product created")
	return product, nil
}

// GetProduct gets a product by ID
func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	var product *models.Product
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		product, err = repos.Products.Get(ctx, id)
		return err
	})
	return product, err
}

// FindByBarcode looks up a product by its scanned barcode
func (s *CatalogService) FindByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var product *models.Product
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		product, err = repos.Products.GetByBarcode(ctx, strings.TrimSpace(barcode))
		return err
	})
	return product, err
}

// FindBySKU looks up a product by SKU
func (s *CatalogService) FindBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product *models.Product
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		product, err = repos.Products.GetBySKU(ctx, strings.TrimSpace(sku))
		return err
	})
	return product, err
}

// UpdatePrice changes the selling price and cost. Past transaction lines keep
// the price they were sold at.
func (s *CatalogService) UpdatePrice(ctx context.Context, id uint, priceCents int64, costCents *int64) error {
	if priceCents < 0 || (costCents != nil && *costCents < 0) {
		return fmt.Errorf("%w: price and cost must not be negative", ErrInvalidAmount)
	}
	return s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		return repos.Products.UpdatePrice(ctx, id, priceCents, costCents)
	})
}

// DeactivateProduct hides a product from sale without deleting it
func (s *CatalogService) DeactivateProduct(ctx context.Context, id uint) error {
	return s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		return repos.Products.SetActive(ctx, id, false)
	})
}

// Discounts and taxes

// CreateDiscount stores a new active discount rule.
func (s *CatalogService) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	discount.Name = strings.TrimSpace(discount.Name)
	if discount.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidDiscount)
	}
	if err := validateDiscount(discount); err != nil {
		return err
	}
	discount.IsActive = true
	return s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		return repos.Discounts.Create(ctx, discount)
	})
}

// DeactivateDiscount retires a discount rule
func (s *CatalogService) DeactivateDiscount(ctx context.Context, id uint) error {
	return s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		return repos.Discounts.SetActive(ctx, id, false)
	})
}

// CreateTax stores a new active tax rule.
func (s *CatalogService) CreateTax(ctx context.Context, name string, rate float64, autoApply bool) (*models.Tax, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("tax name is required")
	}
	if rate < 0 {
		return nil, fmt.Errorf("%w: negative tax rate", ErrInvalidAmount)
	}
	tax := &models.Tax{Name: name, Rate: rate, AutoApply: autoApply, IsActive: true}
	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		return repos.Taxes.Create(ctx, tax)
	})
	if err != nil {
		return nil, err
	}
	return tax, nil
}

// DeactivateTax retires a tax rule. Sales rung afterwards no longer carry it.
func (s *CatalogService) DeactivateTax(ctx context.Context, id uint) error {
	return s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		return repos.Taxes.SetActive(ctx, id, false)
	})
}

// ListAutoApplyTaxes returns the taxes added to every sale line.
func (s *CatalogService) ListAutoApplyTaxes(ctx context.Context) ([]models.Tax, error) {
	var taxes []models.Tax
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		taxes, err = repos.Taxes.ListAutoApply(ctx)
		return err
	})
	return taxes, err
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
