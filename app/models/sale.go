package models

import "time"

// Transaction statuses
const (
	StatusCompleted         = "completed"
	StatusVoided            = "voided"
	StatusRefunded          = "refunded"
	StatusPartiallyRefunded = "partially_refunded"
)

// Payment methods
const (
	PaymentCash     = "cash"
	PaymentCard     = "card"
	PaymentQRIS     = "qris"
	PaymentTransfer = "transfer"
	PaymentEWallet  = "ewallet"
)

// ValidPaymentMethod reports whether method is an accepted tender type.
func ValidPaymentMethod(method string) bool {
	switch method {
	case PaymentCash, PaymentCard, PaymentQRIS, PaymentTransfer, PaymentEWallet:
		return true
	}
	return false
}

// Transaction is a completed sale (the header row)
type Transaction struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           string    `gorm:"column:uuid;not null;unique" json:"uuid"`
	OutletID       *uint     `json:"outlet_id,omitempty"`
	UserID         *uint     `json:"user_id,omitempty"`
	CustomerID     *uint     `json:"customer_id,omitempty"`
	ShiftID        *uint     `json:"shift_id,omitempty"`
	SubtotalCents  int64     `gorm:"not null" json:"subtotal_cents"`
	DiscountCents  int64     `gorm:"not null" json:"discount_cents"`
	TaxCents       int64     `gorm:"not null" json:"tax_cents"`
	TotalCents     int64     `gorm:"not null" json:"total_cents"`
	PaidCents      int64     `gorm:"not null" json:"paid_cents"`
	ChangeCents    int64     `gorm:"not null" json:"change_cents"`
	Status         string    `gorm:"not null" json:"status"`
	PaymentSummary string    `json:"payment_summary"`
	CreatedAt      time.Time `json:"created_at"`
}

// TransactionItem is one line of a transaction. PriceCents is the product
// price at the time of sale.
type TransactionItem struct {
	ID            uint  `gorm:"primaryKey" json:"id"`
	TransactionID uint  `gorm:"not null" json:"transaction_id"`
	ProductID     *uint `json:"product_id,omitempty"`
	PriceCents    int64 `gorm:"not null" json:"price_cents"`
	Qty           int64 `gorm:"not null" json:"qty"`
	DiscountCents int64 `gorm:"not null" json:"discount_cents"`
	TaxCents      int64 `gorm:"not null" json:"tax_cents"`
	TotalCents    int64 `gorm:"not null" json:"total_cents"`
}

// Payment is one tender applied to a transaction
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TransactionID uint      `gorm:"not null" json:"transaction_id"`
	Method        string    `gorm:"not null" json:"method"`
	AmountCents   int64     `gorm:"not null" json:"amount_cents"`
	Details       string    `json:"details"`
	CreatedAt     time.Time `json:"created_at"`
}

// Refund returns money against a transaction
type Refund struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	TransactionID *uint     `json:"transaction_id,omitempty"`
	ShiftID       *uint     `json:"shift_id,omitempty"`
	AmountCents   int64     `gorm:"not null" json:"amount_cents"`
	Reason        string    `json:"reason"`
	ProcessedBy   *uint     `json:"processed_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Customer is an optional buyer profile
type Customer struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	Code      *string    `gorm:"unique" json:"code,omitempty"`
	Name      string     `gorm:"not null" json:"name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Notes     string     `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
}
