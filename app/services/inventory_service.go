package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
)

// InventoryService manages per-outlet stock through the movement ledger
type InventoryService struct {
	*BaseService
	lowStockThreshold int64
}

// NewInventoryService creates a new inventory service. lowStockThreshold is
// used for products without their own alert level.
func NewInventoryService(base *BaseService, lowStockThreshold int64) *InventoryService {
	return &InventoryService{BaseService: base, lowStockThreshold: lowStockThreshold}
}

// AdjustStockRequest is a manual stock change
type AdjustStockRequest struct {
	ProductID uint   `json:"product_id"`
	OutletID  uint   `json:"outlet_id"`
	Change    int64  `json:"change"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
	UserID    *uint  `json:"user_id,omitempty"`
}

// AdjustStock applies a signed change and records it in the ledger.
func (s *InventoryService) AdjustStock(ctx context.Context, req AdjustStockRequest) (*models.ProductStock, error) {
	if !models.ValidMovementReason(req.Reason) {
		return nil, fmt.Errorf("%w: unknown reason %q", ErrInvalidMovement, req.Reason)
	}

	var stock *models.ProductStock
	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		product, err := repos.Products.Get(ctx, req.ProductID)
		if err != nil {
			return fmt.Errorf("product %d: %w", req.ProductID, err)
		}
		if !product.TrackStock {
			return fmt.Errorf("%w: product %q does not track stock", ErrInvalidMovement, product.Name)
		}
		stock, err = recordStockChange(ctx, repos, models.StockMovement{
			ProductID: req.ProductID,
			OutletID:  req.OutletID,
			ChangeQty: req.Change,
			Reason:    req.Reason,
			Reference: req.Reference,
			CreatedBy: req.UserID,
		}, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("product_id", req.ProductID).
		Uint("outlet_id", req.OutletID).
		Int64("change", req.Change).
		Str("reason", req.Reason).
		Int64("stock", stock.Stock).
		Msg("Stock adjusted")
	return stock, nil
}

// recordStockChange updates the stock snapshot and appends the matching
// movement. It must run inside the caller's transaction. The snapshot row is
// created on first use; the result may never go below zero.
func recordStockChange(ctx context.Context, repos *repository.Repositories, m models.StockMovement, at time.Time) (*models.ProductStock, error) {
	if m.ChangeQty == 0 {
		return nil, fmt.Errorf("%w: zero change", ErrInvalidMovement)
	}

	stock, err := repos.Stocks.Get(ctx, m.ProductID, m.OutletID)
	if errors.Is(err, repository.ErrNotFound) {
		stock = &models.ProductStock{ProductID: m.ProductID, OutletID: m.OutletID, Stock: 0, UpdatedAt: at}
		if m.ChangeQty > 0 {
			if err := repos.Stocks.Create(ctx, stock); err != nil {
				return nil, err
			}
		}
	} else if err != nil {
		return nil, err
	}

	next := stock.Stock + m.ChangeQty
	if next < 0 {
		return nil, fmt.Errorf("%w: product %d at outlet %d has %d, needs %d",
			ErrInsufficientStock, m.ProductID, m.OutletID, stock.Stock, -m.ChangeQty)
	}

	if err := repos.Stocks.SetQuantity(ctx, stock.ID, next, at); err != nil {
		return nil, err
	}
	m.CreatedAt = at
	if err := repos.Movements.Create(ctx, &m); err != nil {
		return nil, err
	}

	stock.Stock = next
	stock.UpdatedAt = at
	return stock, nil
}

// GetStock returns the current quantity; a product never stocked at the
// outlet has zero.
func (s *InventoryService) GetStock(ctx context.Context, productID, outletID uint) (int64, error) {
	var qty int64
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		stock, err := repos.Stocks.Get(ctx, productID, outletID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		qty = stock.Stock
		return nil
	})
	return qty, err
}

// ListMovements returns the newest ledger entries first.
func (s *InventoryService) ListMovements(ctx context.Context, productID, outletID uint, limit int) ([]models.StockMovement, error) {
	var movements []models.StockMovement
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		movements, err = repos.Movements.List(ctx, productID, outletID, limit)
		return err
	})
	return movements, err
}

// LowStock lists products at or below their alert level at the outlet.
func (s *InventoryService) LowStock(ctx context.Context, outletID uint) ([]repository.LowStockRow, error) {
	var rows []repository.LowStockRow
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		rows, err = repos.Stocks.ListLow(ctx, outletID, s.lowStockThreshold)
		return err
	})
	return rows, err
}

// VerifyLedger checks that the stock snapshot equals the sum of movements.
// It returns both values so callers can report a mismatch.
func (s *InventoryService) VerifyLedger(ctx context.Context, productID, outletID uint) (stock, ledger int64, ok bool, err error) {
	err = s.WithSession(ctx, func(repos *repository.Repositories) error {
		row, err := repos.Stocks.Get(ctx, productID, outletID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			stock = 0
		case err != nil:
			return err
		default:
			stock = row.Stock
		}
		ledger, err = repos.Movements.Sum(ctx, productID, outletID)
		return err
	})
	if err != nil {
		return 0, 0, false, err
	}
	return stock, ledger, stock == ledger, nil
}
