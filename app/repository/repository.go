// Package repository holds the narrow per-entity data access used by the
// services. Every repository works on whatever *gorm.DB it is built from, so
// the same code runs against the store, a pinned session or an open
// transaction.
package repository

import "gorm.io/gorm"

// Repositories bundles the per-entity repositories bound to one *gorm.DB.
type Repositories struct {
	Roles        *RoleRepo
	Outlets      *OutletRepo
	Users        *UserRepo
	Categories   *CategoryRepo
	Products     *ProductRepo
	Stocks       *StockRepo
	Movements    *MovementRepo
	Customers    *CustomerRepo
	Shifts       *ShiftRepo
	Transactions *TransactionRepo
	Items        *ItemRepo
	Payments     *PaymentRepo
	Discounts    *DiscountRepo
	Taxes        *TaxRepo
	Refunds      *RefundRepo
}

// New binds every repository to db. Pass the tx handed out by
// Store.WithTransaction to make the calls part of that transaction.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		Roles:        &RoleRepo{db: db},
		Outlets:      &OutletRepo{db: db},
		Users:        &UserRepo{db: db},
		Categories:   &CategoryRepo{db: db},
		Products:     &ProductRepo{db: db},
		Stocks:       &StockRepo{db: db},
		Movements:    &MovementRepo{db: db},
		Customers:    &CustomerRepo{db: db},
		Shifts:       &ShiftRepo{db: db},
		Transactions: &TransactionRepo{db: db},
		Items:        &ItemRepo{db: db},
		Payments:     &PaymentRepo{db: db},
		Discounts:    &DiscountRepo{db: db},
		Taxes:        &TaxRepo{db: db},
		Refunds:      &RefundRepo{db: db},
	}
}
