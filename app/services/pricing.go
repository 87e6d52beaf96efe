package services

import (
	"fmt"

	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// LineAmounts is the priced result of one cart line, in minor units.
type LineAmounts struct {
	GrossCents    int64 `json:"gross_cents"`
	DiscountCents int64 `json:"discount_cents"`
	TaxCents      int64 `json:"tax_cents"`
	TotalCents    int64 `json:"total_cents"`
}

// PriceLine prices qty units at priceCents. The discount (may be nil) comes
// off the gross amount and the taxes are charged on what remains.
func PriceLine(priceCents, qty int64, discount *models.Discount, taxes []models.Tax) LineAmounts {
	gross := priceCents * qty
	disc := ApplyDiscount(gross, discount)
	tax := ComputeTax(gross-disc, taxes)
	return LineAmounts{
		GrossCents:    gross,
		DiscountCents: disc,
		TaxCents:      tax,
		TotalCents:    gross - disc + tax,
	}
}

// ApplyDiscount returns the discount amount for base, between 0 and base.
// Percentages are rounded half away from zero to whole minor units.
func ApplyDiscount(base int64, discount *models.Discount) int64 {
	if discount == nil || base <= 0 || discount.Value <= 0 {
		return 0
	}

	var amount int64
	switch discount.Type {
	case models.DiscountFlat:
		amount = decimal.NewFromFloat(discount.Value).Round(0).IntPart()
	case models.DiscountPercentage:
		amount = decimal.NewFromInt(base).
			Mul(decimal.NewFromFloat(discount.Value)).
			Div(hundred).
			Round(0).
			IntPart()
	}

	if amount > base {
		return base
	}
	if amount < 0 {
		return 0
	}
	return amount
}

// ComputeTax sums each tax rate applied to base, every tax rounded half up
// on its own.
func ComputeTax(base int64, taxes []models.Tax) int64 {
	if base <= 0 {
		return 0
	}
	var total int64
	b := decimal.NewFromInt(base)
	for _, t := range taxes {
		if t.Rate <= 0 {
			continue
		}
		total += b.Mul(decimal.NewFromFloat(t.Rate)).Div(hundred).Round(0).IntPart()
	}
	return total
}

// validateDiscount checks a rule before it is stored or applied.
func validateDiscount(d *models.Discount) error {
	switch d.Type {
	case models.DiscountFlat, models.DiscountPercentage:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDiscount, d.Type)
	}
	switch d.AppliesTo {
	case models.AppliesToTransaction, models.AppliesToItem:
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrInvalidDiscount, d.AppliesTo)
	}
	if d.Value < 0 {
		return fmt.Errorf("%w: negative value", ErrInvalidDiscount)
	}
	if d.Type == models.DiscountPercentage && d.Value > 100 {
		return fmt.Errorf("%w: percentage above 100", ErrInvalidDiscount)
	}
	return nil
}

// Tender is one payment offered at checkout
type Tender struct {
	Method      string `json:"method"`
	AmountCents int64  `json:"amount_cents"`
	Details     string `json:"details"`
}

// SettleTenders checks the tenders against total and returns the amount
// paid and the change due. Change can only come out of cash.
func SettleTenders(totalCents int64, tenders []Tender) (paid, change int64, err error) {
	if len(tenders) == 0 {
		return 0, 0, fmt.Errorf("%w: no tenders", ErrInvalidTender)
	}

	var cash int64
	for _, t := range tenders {
		if !models.ValidPaymentMethod(t.Method) {
			return 0, 0, fmt.Errorf("%w: unknown method %q", ErrInvalidTender, t.Method)
		}
		if t.AmountCents <= 0 {
			return 0, 0, fmt.Errorf("%w: amount must be positive", ErrInvalidTender)
		}
		paid += t.AmountCents
		if t.Method == models.PaymentCash {
			cash += t.AmountCents
		}
	}

	if paid < totalCents {
		return 0, 0, fmt.Errorf("%w: paid %d is less than total %d", ErrInvalidTender, paid, totalCents)
	}
	change = paid - totalCents
	if change > cash {
		return 0, 0, fmt.Errorf("%w: non-cash tenders exceed the total", ErrInvalidTender)
	}
	return paid, change, nil
}
