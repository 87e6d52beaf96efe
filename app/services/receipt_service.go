package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FrandeScarlet/minimarket/app/config"
	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
	"github.com/skip2/go-qrcode"
)

// receiptWidth is the character width of a 58mm thermal roll.
const receiptWidth = 32

const qrSize = 256

// ReceiptService renders customer receipts
type ReceiptService struct {
	*BaseService
	storeName  string
	currency   string
	printer    config.PrinterConfig
	receiptDir string
}

// NewReceiptService creates a new receipt service
func NewReceiptService(base *BaseService, cfg *config.AppConfig) *ReceiptService {
	return &ReceiptService{
		BaseService: base,
		storeName:   cfg.App.Name,
		currency:    cfg.Business.CurrencySymbol,
		printer:     cfg.Printer,
		receiptDir:  cfg.ReceiptDir(),
	}
}

// Render builds the plain text receipt of a transaction.
func (s *ReceiptService) Render(ctx context.Context, transactionID uint) (string, error) {
	var b strings.Builder
	err := s.WithSession(ctx, func(repos *repository.Repositories) error {
		txn, err := repos.Transactions.Get(ctx, transactionID)
		if err != nil {
			return err
		}
		items, err := repos.Items.ListByTransaction(ctx, txn.ID)
		if err != nil {
			return err
		}
		payments, err := repos.Payments.ListByTransaction(ctx, txn.ID)
		if err != nil {
			return err
		}

		ids := make([]uint, 0, len(items))
		for _, it := range items {
			if it.ProductID != nil {
				ids = append(ids, *it.ProductID)
			}
		}
		products, err := repos.Products.ListByIDs(ctx, ids)
		if err != nil {
			return err
		}

		var outlet *models.Outlet
		if txn.OutletID != nil {
			if outlet, err = repos.Outlets.Get(ctx, *txn.OutletID); err != nil {
				return err
			}
		}
		cashier := ""
		if txn.UserID != nil {
			user, err := repos.Users.Get(ctx, *txn.UserID)
			if err != nil {
				return err
			}
			cashier = user.Username
		}

		s.writeReceipt(&b, txn, items, payments, products, outlet, cashier)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *ReceiptService) writeReceipt(b *strings.Builder, txn *models.Transaction, items []models.TransactionItem,
	payments []models.Payment, products map[uint]models.Product, outlet *models.Outlet, cashier string) {
	rule := strings.Repeat("-", receiptWidth)

	center(b, s.storeName)
	if outlet != nil {
		center(b, outlet.Name)
		if outlet.Address != "" {
			center(b, outlet.Address)
		}
		if outlet.Phone != "" {
			center(b, outlet.Phone)
		}
	}
	b.WriteString(rule + "\n")
	fmt.Fprintf(b, "%s\n", txn.CreatedAt.Local().Format("02-01-2006 15:04"))
	if cashier != "" {
		fmt.Fprintf(b, "Kasir: %s\n", cashier)
	}
	if txn.Status != models.StatusCompleted {
		fmt.Fprintf(b, "Status: %s\n", strings.ToUpper(txn.Status))
	}
	b.WriteString(rule + "\n")

	for _, it := range items {
		name := "item"
		if it.ProductID != nil {
			if p, ok := products[*it.ProductID]; ok {
				name = p.Name
			}
		}
		b.WriteString(truncate(name, receiptWidth) + "\n")
		columns(b, fmt.Sprintf("  %d x %s", it.Qty, FormatMoney("", it.PriceCents)), FormatMoney("", it.PriceCents*it.Qty))
		if it.DiscountCents > 0 {
			columns(b, "  Diskon", "-"+FormatMoney("", it.DiscountCents))
		}
	}
	b.WriteString(rule + "\n")

	columns(b, "Subtotal", FormatMoney(s.currency, txn.SubtotalCents))
	if txn.DiscountCents > 0 {
		columns(b, "Diskon", "-"+FormatMoney(s.currency, txn.DiscountCents))
	}
	if txn.TaxCents > 0 {
		columns(b, "Pajak", FormatMoney(s.currency, txn.TaxCents))
	}
	columns(b, "TOTAL", FormatMoney(s.currency, txn.TotalCents))
	for _, p := range payments {
		columns(b, strings.ToUpper(p.Method), FormatMoney(s.currency, p.AmountCents))
	}
	columns(b, "Kembali", FormatMoney(s.currency, txn.ChangeCents))
	b.WriteString(rule + "\n")
	center(b, "Terima kasih")
	b.WriteString(txn.UUID + "\n")
}

func center(b *strings.Builder, text string) {
	text = truncate(text, receiptWidth)
	pad := (receiptWidth - len([]rune(text))) / 2
	b.WriteString(strings.Repeat(" ", pad) + text + "\n")
}

// columns writes left and right aligned text on one line.
func columns(b *strings.Builder, left, right string) {
	space := receiptWidth - len([]rune(left)) - len([]rune(right))
	if space < 1 {
		space = 1
	}
	b.WriteString(left + strings.Repeat(" ", space) + right + "\n")
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width])
}

// QRCode returns a PNG of the transaction UUID for receipt lookups.
func (s *ReceiptService) QRCode(txn *models.Transaction) ([]byte, error) {
	png, err := qrcode.Encode(txn.UUID, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate QR code: %w", err)
	}
	return png, nil
}

// Save writes the receipt text and QR code to the receipt directory and
// returns the text file path. It is used while no printer is enabled.
func (s *ReceiptService) Save(ctx context.Context, transactionID uint) (string, error) {
	text, err := s.Render(ctx, transactionID)
	if err != nil {
		return "", err
	}
	var txn *models.Transaction
	err = s.WithSession(ctx, func(repos *repository.Repositories) error {
		txn, err = repos.Transactions.Get(ctx, transactionID)
		return err
	})
	if err != nil {
		return "", err
	}
	png, err := s.QRCode(txn)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.receiptDir, 0755); err != nil {
		return "", fmt.Errorf("could not create receipt directory: %w", err)
	}
	textPath := filepath.Join(s.receiptDir, txn.UUID+".txt")
	if err := os.WriteFile(textPath, []byte(text), 0644); err != nil {
		return "", fmt.Errorf("could not write receipt: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.receiptDir, txn.UUID+".png"), png, 0644); err != nil {
		return "", fmt.Errorf("could not write receipt QR code: %w", err)
	}

	s.logger.Info().Str("uuid", txn.UUID).Str("path", textPath).Msg("Receipt saved")
	return textPath, nil
}

// Issue outputs the receipt of a completed sale: saved to disk while the
// printer is disabled. Printer output is not wired yet.
func (s *ReceiptService) Issue(ctx context.Context, transactionID uint) (string, error) {
	if s.printer.Enabled {
		s.logger.Warn().Str("type", s.printer.Type).Msg("Printer output is not available, saving receipt instead")
	}
	return s.Save(ctx, transactionID)
}
