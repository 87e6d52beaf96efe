package repository

import (
	"context"

	"github.com/FrandeScarlet/minimarket/app/models"
	"gorm.io/gorm"
)

// CategoryRepo stores the category tree
type CategoryRepo struct {
	db *gorm.DB
}

// Create inserts a category
func (r *CategoryRepo) Create(ctx context.Context, category *models.Category) error {
	return translateError(r.db.WithContext(ctx).Create(category).Error)
}

// Get gets a category by ID
func (r *CategoryRepo) Get(ctx context.Context, id uint) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &category, nil
}

// SetParent re-parents a category. Cycle checks belong to the caller.
func (r *CategoryRepo) SetParent(ctx context.Context, id uint, parentID *uint) error {
	result := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("parent_id", parentID)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ProductRepo stores products
type ProductRepo struct {
	db *gorm.DB
}

// Create inserts a product
func (r *ProductRepo) Create(ctx context.Context, product *models.Product) error {
	return translateError(r.db.WithContext(ctx).Create(product).Error)
}

// Get gets a product by ID
func (r *ProductRepo) Get(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

// GetBySKU gets a product by its SKU
func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

// GetByBarcode gets a product by its scanned barcode
func (r *ProductRepo) GetByBarcode(ctx context.Context, barcode string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("barcode = ?", barcode).First(&product).Error; err != nil {
		return nil, translateError(err)
	}
	return &product, nil
}

// ListByIDs returns the products keyed by id. Missing ids are simply absent.
func (r *ProductRepo) ListByIDs(ctx context.Context, ids []uint) (map[uint]models.Product, error) {
	var products []models.Product
	if len(ids) > 0 {
		if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&products).Error; err != nil {
			return nil, translateError(err)
		}
	}
	byID := make(map[uint]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

// UpdatePrice sets the selling price and cost. Sold items keep the price
// they were sold at.
func (r *ProductRepo) UpdatePrice(ctx context.Context, id uint, priceCents int64, costCents *int64) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"price_cents": priceCents,
		"cost_cents":  costCents,
	})
}

// SetActive enables or retires a product
func (r *ProductRepo) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"is_active": active})
}

func (r *ProductRepo) updateColumns(ctx context.Context, id uint, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DiscountRepo stores discount rules
type DiscountRepo struct {
	db *gorm.DB
}

// Create inserts a discount rule
func (r *DiscountRepo) Create(ctx context.Context, discount *models.Discount) error {
	return translateError(r.db.WithContext(ctx).Create(discount).Error)
}

// Get gets a discount rule by ID
func (r *DiscountRepo) Get(ctx context.Context, id uint) (*models.Discount, error) {
	var discount models.Discount
	if err := r.db.WithContext(ctx).First(&discount, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &discount, nil
}

// SetActive enables or retires a discount rule
func (r *DiscountRepo) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.Discount{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TaxRepo stores tax rules
type TaxRepo struct {
	db *gorm.DB
}

// Create inserts a tax rule
func (r *TaxRepo) Create(ctx context.Context, tax *models.Tax) error {
	return translateError(r.db.WithContext(ctx).Create(tax).Error)
}

// ListAutoApply returns the active taxes that are added to every sale line.
func (r *TaxRepo) ListAutoApply(ctx context.Context) ([]models.Tax, error) {
	var taxes []models.Tax
	err := r.db.WithContext(ctx).
		Where("auto_apply = ? AND is_active = ?", true, true).
		Order("id").
		Find(&taxes).Error
	return taxes, translateError(err)
}

// SetActive enables or retires a tax rule.
func (r *TaxRepo) SetActive(ctx context.Context, id uint, active bool) error {
	result := r.db.WithContext(ctx).Model(&models.Tax{}).Where("id = ?", id).Update("is_active", active)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
