package repository

import (
	"context"
	"strings"

	"github.com/FrandeScarlet/minimarket/app/models"
	"gorm.io/gorm"
)

// CustomerRepo stores customers
type CustomerRepo struct {
	db *gorm.DB
}

// Create inserts a customer
func (r *CustomerRepo) Create(ctx context.Context, customer *models.Customer) error {
	return translateError(r.db.WithContext(ctx).Create(customer).Error)
}

// Get gets a customer by ID
func (r *CustomerRepo) Get(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

// GetByCode gets a customer by member code
func (r *CustomerRepo) GetByCode(ctx context.Context, code string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&customer).Error; err != nil {
		return nil, translateError(err)
	}
	return &customer, nil
}

// Search matches name, phone or code by substring, case-insensitively for ASCII.
func (r *CustomerRepo) Search(ctx context.Context, query string, limit int) ([]models.Customer, error) {
	var customers []models.Customer
	pattern := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.db.WithContext(ctx).
		Where("LOWER(name) LIKE ? OR phone LIKE ? OR LOWER(code) LIKE ?", pattern, pattern, pattern).
		Order("name")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&customers).Error
	return customers, translateError(err)
}
