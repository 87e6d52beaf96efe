package repository

import (
	"context"
	"time"

	"github.com/FrandeScarlet/minimarket/app/models"
	"gorm.io/gorm"
)

// ShiftRepo stores cashier shifts
type ShiftRepo struct {
	db *gorm.DB
}

// Create inserts a shift. A second open shift for the same user
// yields ErrDuplicateKey.
func (r *ShiftRepo) Create(ctx context.Context, shift *models.Shift) error {
	return translateError(r.db.WithContext(ctx).Create(shift).Error)
}

// Get gets a shift by ID
func (r *ShiftRepo) Get(ctx context.Context, id uint) (*models.Shift, error) {
	var shift models.Shift
	if err := r.db.WithContext(ctx).First(&shift, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &shift, nil
}

// GetOpenByUser returns the user's shift that has no end time yet.
func (r *ShiftRepo) GetOpenByUser(ctx context.Context, userID uint) (*models.Shift, error) {
	var shift models.Shift
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND end_at IS NULL", userID).
		Order("id DESC").
		First(&shift).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &shift, nil
}

// Close sets the end of a still-open shift. It reports false when the shift
// was already closed (or does not exist).
func (r *ShiftRepo) Close(ctx context.Context, id uint, endAt time.Time, endingCashCents int64, note string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Shift{}).
		Where("id = ? AND end_at IS NULL", id).
		Updates(map[string]interface{}{
			"end_at":            endAt,
			"ending_cash_cents": endingCashCents,
			"note":              note,
		})
	if result.Error != nil {
		return false, translateError(result.Error)
	}
	return result.RowsAffected == 1, nil
}
