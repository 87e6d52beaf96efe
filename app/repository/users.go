package repository

import (
	"context"
	"time"

	"github.com/FrandeScarlet/minimarket/app/models"
	"gorm.io/gorm"
)

// RoleRepo stores roles
type RoleRepo struct {
	db *gorm.DB
}

// Create inserts a role
func (r *RoleRepo) Create(ctx context.Context, role *models.Role) error {
	return translateError(r.db.WithContext(ctx).Create(role).Error)
}

// Get gets a role by ID
func (r *RoleRepo) Get(ctx context.Context, id uint) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

// GetByName gets a role by name
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, translateError(err)
	}
	return &role, nil
}

// List lists all roles
func (r *RoleRepo) List(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).Order("id").Find(&roles).Error
	return roles, translateError(err)
}

// OutletRepo stores outlets
type OutletRepo struct {
	db *gorm.DB
}

// Create inserts an outlet
func (r *OutletRepo) Create(ctx context.Context, outlet *models.Outlet) error {
	return translateError(r.db.WithContext(ctx).Create(outlet).Error)
}

// Get gets an outlet by ID
func (r *OutletRepo) Get(ctx context.Context, id uint) (*models.Outlet, error) {
	var outlet models.Outlet
	if err := r.db.WithContext(ctx).First(&outlet, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &outlet, nil
}

// List lists all outlets
func (r *OutletRepo) List(ctx context.Context) ([]models.Outlet, error) {
	var outlets []models.Outlet
	err := r.db.WithContext(ctx).Order("id").Find(&outlets).Error
	return outlets, translateError(err)
}

// UserRepo stores users
type UserRepo struct {
	db *gorm.DB
}

// Create inserts a user
func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

// Get gets a user by ID
func (r *UserRepo) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// GetByUsername gets a user by login name
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// UpdateLastLogin records a successful login
func (r *UserRepo) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"last_login": at})
}

// UpdatePassword stores a new hash and sets the rotation flag.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint, hash string, mustChange bool) error {
	return r.updateColumns(ctx, id, map[string]interface{}{
		"password_hash":        hash,
		"must_change_password": mustChange,
	})
}

// SetActive enables or deactivates a user
func (r *UserRepo) SetActive(ctx context.Context, id uint, active bool) error {
	return r.updateColumns(ctx, id, map[string]interface{}{"is_active": active})
}

func (r *UserRepo) updateColumns(ctx context.Context, id uint, values map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
