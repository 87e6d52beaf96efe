package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
	"github.com/google/uuid"
)

// CartItem is one scanned line
type CartItem struct {
	ProductID  uint  `json:"product_id"`
	Qty        int64 `json:"qty"`
	DiscountID *uint `json:"discount_id,omitempty"`
}

// RingRequest is everything needed to complete a sale
type RingRequest struct {
	ShiftID    uint       `json:"shift_id"`
	CustomerID *uint      `json:"customer_id,omitempty"`
	Items      []CartItem `json:"items"`
	// DiscountID is a transaction-scope discount applied after tax.
	DiscountID *uint    `json:"discount_id,omitempty"`
	Tenders    []Tender `json:"tenders"`
}

// SalesService handles checkout, voids and refunds
type SalesService struct {
	*BaseService
	inventory *InventoryService
	notifier  Notifier
}

// NewSalesService creates a new sales service. notifier may be nil.
func NewSalesService(base *BaseService, inventory *InventoryService, notifier Notifier) *SalesService {
	return &SalesService{BaseService: base, inventory: inventory, notifier: notifier}
}

// RingTransaction prices the cart, takes payment and deducts stock, all in
// one database transaction. Nothing is written when any step fails.
func (s *SalesService) RingTransaction(ctx context.Context, req RingRequest) (*models.Transaction, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyCart
	}
	for _, item := range req.Items {
		if item.Qty <= 0 {
			return nil, fmt.Errorf("%w: product %d", ErrInvalidQuantity, item.ProductID)
		}
	}

	var (
		txn     *models.Transaction
		outlet  uint
		touched []uint
	)
	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		shift, err := repos.Shifts.Get(ctx, req.ShiftID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoOpenShift
		}
		if err != nil {
			return err
		}
		if !shift.IsOpen() {
			return ErrShiftClosed
		}
		if shift.OutletID == nil {
			return fmt.Errorf("shift %d has no outlet", shift.ID)
		}
		outlet = *shift.OutletID

		user, err := repos.Users.Get(ctx, shift.UserID)
		if err != nil {
			return err
		}
		if err := checkCashier(ctx, repos, user); err != nil {
			return err
		}

		if req.CustomerID != nil {
			if _, err := repos.Customers.Get(ctx, *req.CustomerID); err != nil {
				return fmt.Errorf("customer %d: %w", *req.CustomerID, err)
			}
		}

		taxes, err := repos.Taxes.ListAutoApply(ctx)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(req.Items))
		for _, item := range req.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := repos.Products.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}

		var (
			items                       []models.TransactionItem
			subtotal, lineDiscount, tax int64
			soldQty                     = make(map[uint]int64)
		)
		for _, item := range req.Items {
			product, ok := products[item.ProductID]
			if !ok {
				return fmt.Errorf("product %d: %w", item.ProductID, repository.ErrNotFound)
			}
			if !product.IsActive {
				return fmt.Errorf("%w: %s", ErrProductInactive, product.Name)
			}
			if product.PriceCents > 0 && item.Qty > math.MaxInt64/product.PriceCents {
				return fmt.Errorf("%w: %s quantity too large", ErrInvalidQuantity, product.Name)
			}

			discount, err := loadDiscount(ctx, repos, item.DiscountID, models.AppliesToItem)
			if err != nil {
				return err
			}

			line := PriceLine(product.PriceCents, item.Qty, discount, taxes)
			productID := product.ID
			items = append(items, models.TransactionItem{
				ProductID:     &productID,
				PriceCents:    product.PriceCents,
				Qty:           item.Qty,
				DiscountCents: line.DiscountCents,
				TaxCents:      line.TaxCents,
				TotalCents:    line.TotalCents,
			})
			subtotal += line.GrossCents
			lineDiscount += line.DiscountCents
			tax += line.TaxCents
			if product.TrackStock {
				soldQty[product.ID] += item.Qty
			}
		}

		txnDiscount, err := loadDiscount(ctx, repos, req.DiscountID, models.AppliesToTransaction)
		if err != nil {
			return err
		}
		discount := lineDiscount + ApplyDiscount(subtotal-lineDiscount+tax, txnDiscount)
		total := subtotal - discount + tax

		paid, change, err := SettleTenders(total, req.Tenders)
		if err != nil {
			return err
		}

		userID := user.ID
		shiftID := shift.ID
		txn = &models.Transaction{
			UUID:           uuid.NewString(),
			OutletID:       shift.OutletID,
			UserID:         &userID,
			CustomerID:     req.CustomerID,
			ShiftID:        &shiftID,
			SubtotalCents:  subtotal,
			DiscountCents:  discount,
			TaxCents:       tax,
			TotalCents:     total,
			PaidCents:      paid,
			ChangeCents:    change,
			Status:         models.StatusCompleted,
			PaymentSummary: paymentSummary(req.Tenders),
			CreatedAt:      s.now(),
		}
		if err := repos.Transactions.Create(ctx, txn); err != nil {
			return err
		}

		for i := range items {
			items[i].TransactionID = txn.ID
		}
		if err := repos.Items.CreateBatch(ctx, items); err != nil {
			return err
		}

		payments := make([]models.Payment, 0, len(req.Tenders))
		for _, t := range req.Tenders {
			payments = append(payments, models.Payment{
				TransactionID: txn.ID,
				Method:        t.Method,
				AmountCents:   t.AmountCents,
				Details:       t.Details,
				CreatedAt:     txn.CreatedAt,
			})
		}
		if err := repos.Payments.CreateBatch(ctx, payments); err != nil {
			return err
		}

		// Deterministic order keeps lock and ledger order stable.
		for productID := range soldQty {
			touched = append(touched, productID)
		}
		sort.Slice(touched, func(i, j int) bool { return touched[i] < touched[j] })
		for _, productID := range touched {
			_, err := recordStockChange(ctx, repos, models.StockMovement{
				ProductID: productID,
				OutletID:  outlet,
				ChangeQty: -soldQty[productID],
				Reason:    models.MovementSale,
				Reference: txn.UUID,
				CreatedBy: &userID,
			}, txn.CreatedAt)
			if err != nil {
				if errors.Is(err, ErrInsufficientStock) {
					return fmt.Errorf("%w (%s)", err, products[productID].Name)
				}
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("shift_id", req.ShiftID).Msg("Sale rejected")
		return nil, err
	}

	s.logger.Info().
		Str("uuid", txn.UUID).
		Uint("transaction_id", txn.ID).
		Int64("total", txn.TotalCents).
		Str("payments", txn.PaymentSummary).
		Msg("Sale completed")

	s.alertLowStock(ctx, outlet, touched)
	return txn, nil
}

// loadDiscount fetches an optional discount rule and checks it is active and
// meant for scope.
func loadDiscount(ctx context.Context, repos *repository.Repositories, id *uint, scope string) (*models.Discount, error) {
	if id == nil {
		return nil, nil
	}
	discount, err := repos.Discounts.Get(ctx, *id)
	if err != nil {
		return nil, fmt.Errorf("discount %d: %w", *id, err)
	}
	if !discount.IsActive {
		return nil, fmt.Errorf("%w: %s is inactive", ErrInvalidDiscount, discount.Name)
	}
	if discount.AppliesTo != scope {
		return nil, fmt.Errorf("%w: %s applies to %s, not %s", ErrInvalidDiscount, discount.Name, discount.AppliesTo, scope)
	}
	if err := validateDiscount(discount); err != nil {
		return nil, err
	}
	return discount, nil
}

// paymentSummary renders tenders as "cash:50000,qris:20000".
func paymentSummary(tenders []Tender) string {
	parts := make([]string, 0, len(tenders))
	for _, t := range tenders {
		parts = append(parts, fmt.Sprintf("%s:%d", t.Method, t.AmountCents))
	}
	return strings.Join(parts, ",")
}

// alertLowStock notifies the owner about sold products that reached their
// alert level. Failures are only logged.
func (s *SalesService) alertLowStock(ctx context.Context, outletID uint, productIDs []uint) {
	if s.notifier == nil || s.inventory == nil || len(productIDs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	rows, err := s.inventory.LowStock(ctx, outletID)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Low stock check failed")
		return
	}
	sold := make(map[uint]bool, len(productIDs))
	for _, id := range productIDs {
		sold[id] = true
	}
	var low []repository.LowStockRow
	for _, r := range rows {
		if sold[r.ProductID] {
			low = append(low, r)
		}
	}
	if len(low) == 0 {
		return
	}

	outletName := fmt.Sprintf("outlet %d", outletID)
	_ = s.WithSession(ctx, func(repos *repository.Repositories) error {
		if o, err := repos.Outlets.Get(ctx, outletID); err == nil {
			outletName = o.Name
		}
		return nil
	})
	if err := s.notifier.Notify(ctx, FormatLowStockMessage(outletName, low)); err != nil {
		s.logger.Warn().Err(err).Msg("Low stock notification failed")
	}
}

// VoidTransaction cancels a completed sale and puts its stock back through
// the ledger. Only sales of a shift that is still open can be voided.
func (s *SalesService) VoidTransaction(ctx context.Context, transactionID, userID uint, reason string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if err := checkActingUser(ctx, repos, userID); err != nil {
			return err
		}
		var err error
		txn, err = repos.Transactions.Get(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.Status != models.StatusCompleted {
			return fmt.Errorf("%w: cannot void a %s transaction", ErrInvalidStatus, txn.Status)
		}
		if txn.ShiftID != nil {
			shift, err := repos.Shifts.Get(ctx, *txn.ShiftID)
			if err != nil {
				return err
			}
			if !shift.IsOpen() {
				return fmt.Errorf("%w: shift %d is already reconciled", ErrShiftClosed, shift.ID)
			}
		}
		ok, err := repos.Transactions.UpdateStatus(ctx, txn.ID, models.StatusCompleted, models.StatusVoided)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidStatus
		}
		txn.Status = models.StatusVoided

		movements, err := repos.Movements.ListByReference(ctx, txn.UUID)
		if err != nil {
			return err
		}
		now := s.now()
		for _, m := range movements {
			if m.Reason != models.MovementSale {
				continue
			}
			_, err := recordStockChange(ctx, repos, models.StockMovement{
				ProductID: m.ProductID,
				OutletID:  m.OutletID,
				ChangeQty: -m.ChangeQty,
				Reason:    models.MovementVoid,
				Reference: txn.UUID,
				CreatedBy: &userID,
			}, now)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("uuid", txn.UUID).Uint("user_id", userID).Str("reason", reason).Msg("Transaction voided")
	return txn, nil
}

// RefundTransaction records money returned against a sale. The refunds of a
// transaction never add up to more than its total.
func (s *SalesService) RefundTransaction(ctx context.Context, transactionID uint, amountCents int64, reason string, userID uint) (*models.Refund, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: refund must be positive", ErrInvalidAmount)
	}

	var refund *models.Refund
	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		if err := checkActingUser(ctx, repos, userID); err != nil {
			return err
		}
		txn, err := repos.Transactions.Get(ctx, transactionID)
		if err != nil {
			return err
		}
		if txn.Status == models.StatusVoided {
			return fmt.Errorf("%w: transaction is voided", ErrInvalidStatus)
		}

		refunded, err := repos.Refunds.SumByTransaction(ctx, txn.ID)
		if err != nil {
			return err
		}
		if refunded+amountCents > txn.TotalCents {
			return fmt.Errorf("%w: %d already refunded of %d", ErrRefundExceedsTotal, refunded, txn.TotalCents)
		}

		var shiftID *uint
		if shift, err := repos.Shifts.GetOpenByUser(ctx, userID); err == nil {
			shiftID = &shift.ID
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		processedBy := userID
		refund = &models.Refund{
			TransactionID: &txn.ID,
			ShiftID:       shiftID,
			AmountCents:   amountCents,
			Reason:        reason,
			ProcessedBy:   &processedBy,
			CreatedAt:     s.now(),
		}
		if err := repos.Refunds.Create(ctx, refund); err != nil {
			return err
		}

		status := models.StatusPartiallyRefunded
		if refunded+amountCents == txn.TotalCents {
			status = models.StatusRefunded
		}
		ok, err := repos.Transactions.UpdateStatus(ctx, txn.ID, txn.Status, status)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidStatus
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("transaction_id", transactionID).Int64("amount", amountCents).Str("reason", reason).Msg("Refund recorded")
	return refund, nil
}

// checkActingUser loads the user behind a void or refund and applies the
// register rules to them.
func checkActingUser(ctx context.Context, repos *repository.Repositories, userID uint) error {
	user, err := repos.Users.Get(ctx, userID)
	if err != nil {
		return fmt.Errorf("user %d: %w", userID, err)
	}
	return checkCashier(ctx, repos, user)
}

// GetTransaction gets a transaction by ID
func (s *SalesService) GetTransaction(ctx context.Context, id uint) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		txn, err = repos.Transactions.Get(ctx, id)
		return err
	})
	return txn, err
}

// GetTransactionByUUID gets a transaction by the UUID printed on its receipt
func (s *SalesService) GetTransactionByUUID(ctx context.Context, id string) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		txn, err = repos.Transactions.GetByUUID(ctx, strings.TrimSpace(id))
		return err
	})
	return txn, err
}

// ListItems returns the lines of a transaction
func (s *SalesService) ListItems(ctx context.Context, transactionID uint) ([]models.TransactionItem, error) {
	var items []models.TransactionItem
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		items, err = repos.Items.ListByTransaction(ctx, transactionID)
		return err
	})
	return items, err
}

// ListPayments returns the tenders of a transaction
func (s *SalesService) ListPayments(ctx context.Context, transactionID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		payments, err = repos.Payments.ListByTransaction(ctx, transactionID)
		return err
	})
	return payments, err
}

// ListRefunds returns the refunds recorded against a transaction
func (s *SalesService) ListRefunds(ctx context.Context, transactionID uint) ([]models.Refund, error) {
	var refunds []models.Refund
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		refunds, err = repos.Refunds.ListByTransaction(ctx, transactionID)
		return err
	})
	return refunds, err
}
