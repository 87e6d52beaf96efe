package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
)

const defaultSearchLimit = 20

// CustomerService handles customer profiles
type CustomerService struct {
	*BaseService
}

// NewCustomerService creates a new customer service
func NewCustomerService(base *BaseService) *CustomerService {
	return &CustomerService{BaseService: base}
}

// CreateCustomerRequest describes a new customer
type CreateCustomerRequest struct {
	Code     string     `json:"code"`
	Name     string     `json:"name"`
	Phone    string     `json:"phone"`
	Email    string     `json:"email"`
	Birthday *time.Time `json:"birthday,omitempty"`
	Notes    string     `json:"notes"`
}

// CreateCustomer creates a customer. A taken code yields
// repository.ErrDuplicateKey.
func (s *CustomerService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*models.Customer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("customer name is required")
	}
	customer := &models.Customer{
		Code:     optionalString(req.Code),
		Name:     name,
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Birthday: req.Birthday,
		Notes:    req.Notes,
	}
	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		return repos.Customers.Create(ctx, customer)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customer, nil
}

// GetCustomer gets a customer by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uint) (*models.Customer, error) {
	var customer *models.Customer
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		customer, err = repos.Customers.Get(ctx, id)
		return err
	})
	return customer, err
}

// FindByCode gets a customer by member code
func (s *CustomerService) FindByCode(ctx context.Context, code string) (*models.Customer, error) {
	var customer *models.Customer
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		customer, err = repos.Customers.GetByCode(ctx, strings.TrimSpace(code))
		return err
	})
	return customer, err
}

// Search finds customers by name, phone or code.
func (s *CustomerService) Search(ctx context.Context, query string, limit int) ([]models.Customer, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	var customers []models.Customer
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		customers, err = repos.Customers.Search(ctx, query, limit)
		return err
	})
	return customers, err
}
