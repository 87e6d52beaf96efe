package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
)

// ShiftExporter receives the summary of every closed shift.
type ShiftExporter interface {
	Export(ctx context.Context, summary *ShiftSummary) error
}

// ShiftSummary is the cash-up report of a shift
type ShiftSummary struct {
	ShiftID           uint                     `json:"shift_id"`
	UserID            uint                     `json:"user_id"`
	Username          string                   `json:"username"`
	OutletID          *uint                    `json:"outlet_id,omitempty"`
	StartAt           time.Time                `json:"start_at"`
	EndAt             *time.Time               `json:"end_at,omitempty"`
	StartingCashCents int64                    `json:"starting_cash_cents"`
	EndingCashCents   int64                    `json:"ending_cash_cents"`
	TransactionCount  int                      `json:"transaction_count"`
	VoidedCount       int                      `json:"voided_count"`
	GrossSalesCents   int64                    `json:"gross_sales_cents"`
	DiscountCents     int64                    `json:"discount_cents"`
	TaxCents          int64                    `json:"tax_cents"`
	Tenders           []repository.MethodTotal `json:"tenders"`
	CashTenderedCents int64                    `json:"cash_tendered_cents"`
	ChangeGivenCents  int64                    `json:"change_given_cents"`
	RefundCents       int64                    `json:"refund_cents"`
	ExpectedCashCents int64                    `json:"expected_cash_cents"`
	DifferenceCents   int64                    `json:"difference_cents"`
}

// ShiftService handles opening and closing cashier shifts
type ShiftService struct {
	*BaseService
	notifier Notifier
	exporter ShiftExporter
	currency string
}

// NewShiftService creates a new shift service. notifier and exporter may be nil.
func NewShiftService(base *BaseService, notifier Notifier, exporter ShiftExporter, currency string) *ShiftService {
	return &ShiftService{BaseService: base, notifier: notifier, exporter: exporter, currency: currency}
}

// OpenShift starts a shift for the user at outletID, or at the user's own
// outlet when outletID is nil.
func (s *ShiftService) OpenShift(ctx context.Context, userID uint, outletID *uint, startingCashCents int64) (*models.Shift, error) {
	if startingCashCents < 0 {
		return nil, fmt.Errorf("%w: starting cash must not be negative", ErrInvalidAmount)
	}

	var shift *models.Shift
	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		user, err := repos.Users.Get(ctx, userID)
		if err != nil {
			return fmt.Errorf("user %d: %w", userID, err)
		}
		if err := checkCashier(ctx, repos, user); err != nil {
			return err
		}

		if _, err := repos.Shifts.GetOpenByUser(ctx, userID); err == nil {
			return ErrShiftAlreadyOpen
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if outletID == nil {
			outletID = user.OutletID
		}
		if outletID == nil {
			return fmt.Errorf("user %s has no outlet; pass one explicitly", user.Username)
		}
		if _, err := repos.Outlets.Get(ctx, *outletID); err != nil {
			return fmt.Errorf("outlet %d: %w", *outletID, err)
		}
		shift = &models.Shift{
			UserID:            userID,
			OutletID:          outletID,
			StartAt:           s.now(),
			StartingCashCents: startingCashCents,
		}
		err = repos.Shifts.Create(ctx, shift)
		if errors.Is(err, repository.ErrDuplicateKey) {
			return ErrShiftAlreadyOpen
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Uint("shift_id", shift.ID).Uint("user_id", userID).Int64("starting_cash", startingCashCents).Msg("Shift opened")
	return shift, nil
}

// checkCashier verifies the user may ring sales.
func checkCashier(ctx context.Context, repos *repository.Repositories, user *models.User) error {
	if !user.IsActive {
		return ErrUserInactive
	}
	if user.MustChangePassword {
		return ErrPasswordChangeRequired
	}
	role, err := repos.Roles.Get(ctx, user.RoleID)
	if err != nil {
		return err
	}
	if !role.Grants(models.PermissionPOS) {
		return fmt.Errorf("%w: role %s cannot operate the register", ErrPermissionDenied, role.Name)
	}
	return nil
}

// GetOpenShift returns the user's open shift or ErrNoOpenShift.
func (s *ShiftService) GetOpenShift(ctx context.Context, userID uint) (*models.Shift, error) {
	var shift *models.Shift
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		var err error
		shift, err = repos.Shifts.GetOpenByUser(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNoOpenShift
		}
		return err
	})
	return shift, err
}

// GetShiftSummary reports on a shift without closing it.
func (s *ShiftService) GetShiftSummary(ctx context.Context, shiftID uint) (*ShiftSummary, error) {
	var summary *ShiftSummary
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		shift, err := repos.Shifts.Get(ctx, shiftID)
		if err != nil {
			return err
		}
		summary, err = buildShiftSummary(ctx, repos, shift)
		return err
	})
	return summary, err
}

// CloseShift ends the shift with the counted drawer cash and returns the
// cash-up summary. The owner notification and the sheet export happen after
// the commit and never fail the close.
func (s *ShiftService) CloseShift(ctx context.Context, shiftID uint, endingCashCents int64, note string) (*ShiftSummary, error) {
	if endingCashCents < 0 {
		return nil, fmt.Errorf("%w: ending cash must not be negative", ErrInvalidAmount)
	}

	var summary *ShiftSummary
	err := s.WithTransaction(ctx, func(repos *repository.Repositories) error {
		shift, err := repos.Shifts.Get(ctx, shiftID)
		if err != nil {
			return err
		}
		if !shift.IsOpen() {
			return ErrShiftClosed
		}

		endAt := s.now()
		closed, err := repos.Shifts.Close(ctx, shiftID, endAt, endingCashCents, note)
		if err != nil {
			return err
		}
		if !closed {
			return ErrShiftClosed
		}
		shift.EndAt = &endAt
		shift.EndingCashCents = &endingCashCents
		shift.Note = note

		summary, err = buildShiftSummary(ctx, repos, shift)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Uint("shift_id", shiftID).
		Int64("expected_cash", summary.ExpectedCashCents).
		Int64("ending_cash", summary.EndingCashCents).
		Int64("difference", summary.DifferenceCents).
		Msg("Shift closed")

	s.publish(ctx, summary)
	return summary, nil
}

func (s *ShiftService) publish(ctx context.Context, summary *ShiftSummary) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, FormatShiftClosedMessage(summary, s.currency)); err != nil {
			s.logger.Warn().Err(err).Uint("shift_id", summary.ShiftID).Msg("Shift notification failed")
		}
	}
	if s.exporter != nil {
		if err := s.exporter.Export(ctx, summary); err != nil {
			s.logger.Warn().Err(err).Uint("shift_id", summary.ShiftID).Msg("Shift report export failed")
		}
	}
}

func buildShiftSummary(ctx context.Context, repos *repository.Repositories, shift *models.Shift) (*ShiftSummary, error) {
	user, err := repos.Users.Get(ctx, shift.UserID)
	if err != nil {
		return nil, err
	}
	summary := &ShiftSummary{
		ShiftID:           shift.ID,
		UserID:            shift.UserID,
		Username:          user.Username,
		OutletID:          shift.OutletID,
		StartAt:           shift.StartAt,
		EndAt:             shift.EndAt,
		StartingCashCents: shift.StartingCashCents,
	}
	if shift.EndingCashCents != nil {
		summary.EndingCashCents = *shift.EndingCashCents
	}

	txns, err := repos.Transactions.ListByShift(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	for _, t := range txns {
		if t.Status == models.StatusVoided {
			summary.VoidedCount++
			continue
		}
		summary.TransactionCount++
		summary.GrossSalesCents += t.TotalCents
		summary.DiscountCents += t.DiscountCents
		summary.TaxCents += t.TaxCents
		summary.ChangeGivenCents += t.ChangeCents
	}

	summary.Tenders, err = repos.Payments.TotalsByShift(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	for _, m := range summary.Tenders {
		if m.Method == models.PaymentCash {
			summary.CashTenderedCents += m.AmountCents
		}
	}

	// Refunds are paid out of the drawer.
	summary.RefundCents, err = repos.Refunds.SumByShift(ctx, shift.ID)
	if err != nil {
		return nil, err
	}

	summary.ExpectedCashCents = summary.StartingCashCents + summary.CashTenderedCents -
		summary.ChangeGivenCents - summary.RefundCents
	if summary.EndAt != nil {
		summary.DifferenceCents = summary.EndingCashCents - summary.ExpectedCashCents
	}
	return summary, nil
}
