package repository

import (
	"context"
	"time"

	"github.com/FrandeScarlet/minimarket/app/models"
	"gorm.io/gorm"
)

// StockRepo holds the per-outlet stock snapshot
type StockRepo struct {
	db *gorm.DB
}

// Get returns the stock row for a product at an outlet.
func (r *StockRepo) Get(ctx context.Context, productID, outletID uint) (*models.ProductStock, error) {
	var stock models.ProductStock
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND outlet_id = ?", productID, outletID).
		First(&stock).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &stock, nil
}

// Create inserts the stock row of a (product, outlet) pair
func (r *StockRepo) Create(ctx context.Context, stock *models.ProductStock) error {
	return translateError(r.db.WithContext(ctx).Create(stock).Error)
}

// SetQuantity overwrites the snapshot. Callers must write the matching
// movement in the same transaction.
func (r *StockRepo) SetQuantity(ctx context.Context, id uint, qty int64, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.ProductStock{}).Where("id = ?", id).
		Updates(map[string]interface{}{"stock": qty, "updated_at": at})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LowStockRow is one product at or below its alert level
type LowStockRow struct {
	ProductID  uint   `json:"product_id"`
	Name       string `json:"name"`
	Stock      int64  `json:"stock"`
	AlertStock int64  `json:"alert_stock"`
}

// ListLow returns tracked, active products whose stock at the outlet is at or
// below their alert level. Products with alert_stock 0 use defaultThreshold.
func (r *StockRepo) ListLow(ctx context.Context, outletID uint, defaultThreshold int64) ([]LowStockRow, error) {
	var rows []LowStockRow
	err := r.db.WithContext(ctx).
		Table("product_stocks AS ps").
		Select("p.id AS product_id, p.name AS name, ps.stock AS stock, " +
			"CASE WHEN p.alert_stock > 0 THEN p.alert_stock ELSE ? END AS alert_stock", defaultThreshold).
		Joins("JOIN products p ON p.id = ps.product_id").
		Where("ps.outlet_id = ? AND p.track_stock = ? AND p.is_active = ?", outletID, true, true).
		Where("ps.stock <= CASE WHEN p.alert_stock > 0 THEN p.alert_stock ELSE ? END", defaultThreshold).
		Order("ps.stock, p.name").
		Scan(&rows).Error
	return rows, translateError(err)
}

// MovementRepo is the append-only stock ledger
type MovementRepo struct {
	db *gorm.DB
}

// Create appends a ledger entry
func (r *MovementRepo) Create(ctx context.Context, movement *models.StockMovement) error {
	return translateError(r.db.WithContext(ctx).Create(movement).Error)
}

// List returns the newest movements first. limit <= 0 means no limit.
func (r *MovementRepo) List(ctx context.Context, productID, outletID uint, limit int) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	q := r.db.WithContext(ctx).
		Where("product_id = ? AND outlet_id = ?", productID, outletID).
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&movements).Error
	return movements, translateError(err)
}

// ListByReference returns the movements written for one document (sale uuid, etc).
func (r *MovementRepo) ListByReference(ctx context.Context, reference string) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := r.db.WithContext(ctx).Where("reference = ?", reference).Order("id").Find(&movements).Error
	return movements, translateError(err)
}

// Sum returns the ledger total for a product at an outlet.
func (r *MovementRepo) Sum(ctx context.Context, productID, outletID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.StockMovement{}).
		Select("COALESCE(SUM(change_qty), 0)").
		Where("product_id = ? AND outlet_id = ?", productID, outletID).
		Scan(&total).Error
	return total, translateError(err)
}
