package models

// Discount types
const (
	DiscountFlat       = "flat"
	DiscountPercentage = "percentage"
)

// Discount scopes
const (
	AppliesToTransaction = "transaction"
	AppliesToItem        = "item"
)

// Discount is a reusable discount rule. For "flat" the value is in minor
// currency units, for "percentage" it is a percent of the base amount.
type Discount struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"not null" json:"name"`
	Type      string  `gorm:"not null" json:"type"`
	Value     float64 `gorm:"not null" json:"value"`
	AppliesTo string  `gorm:"not null" json:"applies_to"`
	IsActive  bool    `gorm:"not null" json:"is_active"`
}

// Tax is a tax rule; Rate is a percent (10.0 means 10%)
type Tax struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	Name      string  `gorm:"not null" json:"name"`
	Rate      float64 `gorm:"not null" json:"rate"`
	AutoApply bool    `gorm:"not null" json:"auto_apply"`
	IsActive  bool    `gorm:"not null" json:"is_active"`
}
