package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/FrandeScarlet/minimarket/app/config"
	"github.com/FrandeScarlet/minimarket/app/repository"
	"github.com/rs/zerolog"
)

const notifyTimeout = 10 * time.Second

// Notifier sends short store notifications to the owner.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// NotificationService posts messages to a Telegram chat through the Bot API.
// Without a bot token and chat id it does nothing.
type NotificationService struct {
	cfg    config.TelegramConfig
	client *http.Client
	logger zerolog.Logger
}

// NewNotificationService creates a Telegram notifier. logger may be nil.
func NewNotificationService(cfg config.TelegramConfig, logger *LoggerService) *NotificationService {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.telegram.org"
	}
	return &NotificationService{
		cfg:    cfg,
		client: &http.Client{Timeout: notifyTimeout},
		logger: loggerOrNop(logger),
	}
}

// Enabled reports whether messages will actually be sent.
func (s *NotificationService) Enabled() bool {
	return s.cfg.Enabled()
}

type sendMessageRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Notify sends message to the configured chat.
func (s *NotificationService) Notify(ctx context.Context, message string) error {
	if !s.Enabled() {
		return nil
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: s.cfg.ChatID, Text: message})
	if err != nil {
		return fmt.Errorf("failed to encode telegram message: %w", err)
	}
	url := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(s.cfg.APIURL, "/"), s.cfg.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		// The URL carries the bot token; keep it out of logs.
		return fmt.Errorf("telegram request failed: %s", redactToken(err.Error(), s.cfg.BotToken))
	}
	defer resp.Body.Close()

	var result sendMessageResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	_ = json.Unmarshal(data, &result)
	if resp.StatusCode != http.StatusOK || !result.OK {
		return fmt.Errorf("telegram returned %d: %s", resp.StatusCode, result.Description)
	}
	return nil
}

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "***")
}

// FormatLowStockMessage builds the alert sent after a sale leaves products
// at or below their alert level.
func FormatLowStockMessage(outletName string, rows []repository.LowStockRow) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Low stock at %s:\n", outletName)
	for _, r := range rows {
		fmt.Fprintf(&b, "- %s: %d left (alert at %d)\n", r.Name, r.Stock, r.AlertStock)
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatShiftClosedMessage summarizes a closed shift for the owner.
func FormatShiftClosedMessage(summary *ShiftSummary, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shift #%d closed by %s\n", summary.ShiftID, summary.Username)
	fmt.Fprintf(&b, "Transactions: %d (voided %d)\n", summary.TransactionCount, summary.VoidedCount)
	fmt.Fprintf(&b, "Sales: %s\n", FormatMoney(currency, summary.GrossSalesCents))
	for _, m := range summary.Tenders {
		fmt.Fprintf(&b, "  %s: %s\n", m.Method, FormatMoney(currency, m.AmountCents))
	}
	fmt.Fprintf(&b, "Refunds: %s\n", FormatMoney(currency, summary.RefundCents))
	fmt.Fprintf(&b, "Expected cash: %s\n", FormatMoney(currency, summary.ExpectedCashCents))
	fmt.Fprintf(&b, "Counted cash: %s\n", FormatMoney(currency, summary.EndingCashCents))
	fmt.Fprintf(&b, "Difference: %s", FormatMoney(currency, summary.DifferenceCents))
	return b.String()
}

// FormatMoney renders whole minor units with dot thousand separators, the
// way Rupiah amounts are printed ("Rp 12.500").
func FormatMoney(currency string, cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	digits := fmt.Sprintf("%d", cents)
	var b strings.Builder
	for i, c := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(c)
	}
	if currency == "" {
		return sign + b.String()
	}
	return sign + currency + " " + b.String()
}
