package repository

import (
	"context"

	"github.com/FrandeScarlet/minimarket/app/models"
	"gorm.io/gorm"
)

// TransactionRepo stores sales
type TransactionRepo struct {
	db *gorm.DB
}

// Create inserts a sale header
func (r *TransactionRepo) Create(ctx context.Context, txn *models.Transaction) error {
	return translateError(r.db.WithContext(ctx).Create(txn).Error)
}

// Get gets a transaction by ID
func (r *TransactionRepo) Get(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).First(&txn, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &txn, nil
}

// GetByUUID gets a transaction by its receipt UUID
func (r *TransactionRepo) GetByUUID(ctx context.Context, uuid string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.WithContext(ctx).Where("uuid = ?", uuid).First(&txn).Error; err != nil {
		return nil, translateError(err)
	}
	return &txn, nil
}

// ListByShift lists every transaction of a shift, voided ones included
func (r *TransactionRepo) ListByShift(ctx context.Context, shiftID uint) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).Where("shift_id = ?", shiftID).Order("id").Find(&txns).Error
	return txns, translateError(err)
}

// UpdateStatus moves a transaction from one status to another. It reports
// false when the row was not in the expected status.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, id uint, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

// ItemRepo stores sale lines
type ItemRepo struct {
	db *gorm.DB
}

// CreateBatch inserts the lines of one sale
func (r *ItemRepo) CreateBatch(ctx context.Context, items []models.TransactionItem) error {
	if len(items) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(&items).Error)
}

// ListByTransaction lists the lines of a sale in cart order
func (r *ItemRepo) ListByTransaction(ctx context.Context, transactionID uint) ([]models.TransactionItem, error) {
	var items []models.TransactionItem
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Order("id").Find(&items).Error
	return items, translateError(err)
}

// PaymentRepo stores tenders
type PaymentRepo struct {
	db *gorm.DB
}

// CreateBatch inserts the tenders of one sale
func (r *PaymentRepo) CreateBatch(ctx context.Context, payments []models.Payment) error {
	if len(payments) == 0 {
		return nil
	}
	return translateError(r.db.WithContext(ctx).Create(&payments).Error)
}

// ListByTransaction lists the tenders of a sale
func (r *PaymentRepo) ListByTransaction(ctx context.Context, transactionID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Order("id").Find(&payments).Error
	return payments, translateError(err)
}

// MethodTotal is the tendered amount for one payment method
type MethodTotal struct {
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
}

// TotalsByShift sums tenders per method for the shift's non-voided transactions.
func (r *PaymentRepo) TotalsByShift(ctx context.Context, shiftID uint) ([]MethodTotal, error) {
	var totals []MethodTotal
	err := r.db.WithContext(ctx).
		Table("payments AS p").
		Select("p.method AS method, SUM(p.amount_cents) AS amount_cents").
		Joins("JOIN transactions t ON t.id = p.transaction_id").
		Where("t.shift_id = ? AND t.status <> ?", shiftID, models.StatusVoided).
		Group("p.method").
		Order("p.method").
		Scan(&totals).Error
	return totals, translateError(err)
}

// RefundRepo stores refunds
type RefundRepo struct {
	db *gorm.DB
}

// Create inserts a refund
func (r *RefundRepo) Create(ctx context.Context, refund *models.Refund) error {
	return translateError(r.db.WithContext(ctx).Create(refund).Error)
}

// ListByTransaction lists the refunds of a sale
func (r *RefundRepo) ListByTransaction(ctx context.Context, transactionID uint) ([]models.Refund, error) {
	var refunds []models.Refund
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).Order("id").Find(&refunds).Error
	return refunds, translateError(err)
}

// SumByTransaction returns the amount already refunded on a sale
func (r *RefundRepo) SumByTransaction(ctx context.Context, transactionID uint) (int64, error) {
	return r.sum(ctx, "transaction_id = ?", transactionID)
}

// SumByShift returns the refunds paid out during a shift
func (r *RefundRepo) SumByShift(ctx context.Context, shiftID uint) (int64, error) {
	return r.sum(ctx, "shift_id = ?", shiftID)
}

func (r *RefundRepo) sum(ctx context.Context, where string, arg interface{}) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Refund{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where(where, arg).
		Scan(&total).Error
	return total, translateError(err)
}
