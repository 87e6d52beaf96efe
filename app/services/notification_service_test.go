package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/FrandeScarlet/minimarket/app/config"
	"github.com/FrandeScarlet/minimarket/app/repository"
	"github.com/stretchr/testify/require"
)

func TestNotifySendsTelegramMessage(t *testing.T) {
	var (
		gotMethod      string
		gotPath        string
		gotContentType string
		gotBody        sendMessageRequest
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	svc := NewNotificationService(config.TelegramConfig{BotToken: "123:abc", ChatID: "-100200", APIURL: server.URL + "/"}, nil)
	require.True(t, svc.Enabled())
	require.NoError(t, svc.Notify(context.Background(), "halo"))

	require.Equal(t, http.MethodPost, gotMethod)
	require.Equal(t, "/bot123:abc/sendMessage", gotPath)
	require.Equal(t, "application/json", gotContentType)
	require.Equal(t, "-100200", gotBody.ChatID)
	require.Equal(t, "halo", gotBody.Text)
}

func TestNotifyReportsTelegramErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	svc := NewNotificationService(config.TelegramConfig{BotToken: "123:abc", ChatID: "1", APIURL: server.URL}, nil)
	err := svc.Notify(context.Background(), "halo")
	require.ErrorContains(t, err, "chat not found")
}

func TestNotifyRedactsTokenOnTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	svc := NewNotificationService(config.TelegramConfig{BotToken: "secret-token", ChatID: "1", APIURL: url}, nil)
	err := svc.Notify(context.Background(), "halo")
	require.Error(t, err)
	require.NotContains(t, err.Error(), "secret-token")
}

func TestNotifyDisabledIsNoop(t *testing.T) {
	svc := NewNotificationService(config.TelegramConfig{BotToken: "only-token"}, nil)
	require.False(t, svc.Enabled())
	require.NoError(t, svc.Notify(context.Background(), "halo"))
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		currency string
		cents    int64
		want     string
	}{
		{"Rp", 0, "Rp 0"},
		{"Rp", 500, "Rp 500"},
		{"Rp", 12500, "Rp 12.500"},
		{"Rp", 1234567, "Rp 1.234.567"},
		{"Rp", -2500, "-Rp 2.500"},
		{"", 100000, "100.000"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatMoney(tt.currency, tt.cents))
	}
}

func TestFormatMessages(t *testing.T) {
	msg := FormatLowStockMessage("Toko Pusat", []repository.LowStockRow{
		{Name: "Minyak", Stock: 2, AlertStock: 3},
		{Name: "Gula", Stock: 0, AlertStock: 10},
	})
	require.Equal(t, "Low stock at Toko Pusat:\n- Minyak: 2 left (alert at 3)\n- Gula: 0 left (alert at 10)", msg)

	end := time.Now()
	msg = FormatShiftClosedMessage(&ShiftSummary{
		ShiftID:           7,
		Username:          "sari",
		EndAt:             &end,
		TransactionCount:  3,
		GrossSalesCents:   45000,
		Tenders:           []repository.MethodTotal{{Method: "cash", AmountCents: 50000}},
		ExpectedCashCents: 145000,
		EndingCashCents:   145000,
	}, "Rp")
	require.Contains(t, msg, "Shift #7 closed by sari")
	require.Contains(t, msg, "Sales: Rp 45.000")
	require.Contains(t, msg, "  cash: Rp 50.000")
	require.Contains(t, msg, "Difference: Rp 0")
}
