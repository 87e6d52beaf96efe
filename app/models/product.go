package models

import "time"

// Stock movement reasons
const (
	MovementInitial    = "initial"
	MovementPurchase   = "purchase"
	MovementSale       = "sale"
	MovementVoid       = "void"
	MovementAdjustment = "adjustment"
	MovementLoss       = "loss"
	MovementReturn     = "return"
)

// ValidMovementReason reports whether reason is one of the known movement codes.
func ValidMovementReason(reason string) bool {
	switch reason {
	case MovementInitial, MovementPurchase, MovementSale, MovementVoid,
		MovementAdjustment, MovementLoss, MovementReturn:
		return true
	}
	return false
}

// Category is a product category; categories may nest through ParentID
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	ParentID  *uint     `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a sellable item. Prices are in minor currency units.
type Product struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SKU         *string   `gorm:"column:sku;unique" json:"sku,omitempty"`
	Barcode     *string   `gorm:"unique" json:"barcode,omitempty"`
	Name        string    `gorm:"not null" json:"name"`
	CategoryID  *uint     `json:"category_id,omitempty"`
	PriceCents  int64     `gorm:"not null" json:"price_cents"`
	CostCents   *int64    `json:"cost_cents,omitempty"`
	AlertStock  int64     `gorm:"not null" json:"alert_stock"`
	TrackStock  bool      `gorm:"not null" json:"track_stock"`
	Description string    `json:"description"`
	IsActive    bool      `gorm:"not null" json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProductStock is the current quantity of a product at one outlet.
// It always equals the sum of the StockMovement rows for the same pair.
type ProductStock struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null" json:"product_id"`
	OutletID  uint      `gorm:"not null" json:"outlet_id"`
	Stock     int64     `gorm:"not null" json:"stock"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StockMovement is an append-only ledger entry
type StockMovement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"not null" json:"product_id"`
	OutletID  uint      `gorm:"not null" json:"outlet_id"`
	ChangeQty int64     `gorm:"column:change_qty;not null" json:"change_qty"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
	CreatedBy *uint     `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
