package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// unsetEnv removes keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

var telegramEnv = []string{"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "POS_TELEGRAM_BOT_TOKEN", "POS_TELEGRAM_CHAT_ID"}

func TestLoadDefaults(t *testing.T) {
	unsetEnv(t, telegramEnv...)
	unsetEnv(t, "POS_DATABASE_PATH", "POS_INVENTORY_LOW_STOCK_THRESHOLD")
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)

	require.Equal(t, "POS Minimarket", cfg.App.Name)
	require.Equal(t, "0.1.0", cfg.App.Version)
	require.Equal(t, filepath.Join(dir, "minimarket.sqlite3"), cfg.DBPath())
	require.Equal(t, filepath.Join(dir, "db", "schema.sql"), cfg.SchemaPath())
	require.Equal(t, filepath.Join(dir, "logs"), cfg.LogDir())
	require.Equal(t, filepath.Join(dir, "receipts"), cfg.ReceiptDir())
	require.Equal(t, "Rp", cfg.Business.CurrencySymbol)
	require.InDelta(t, 10.0, cfg.Tax.DefaultRate, 0.0001)
	require.True(t, cfg.Tax.AutoApply)
	require.EqualValues(t, 10, cfg.Inventory.LowStockThreshold)
	require.Equal(t, 120, cfg.Session.TimeoutMinutes)
	require.False(t, cfg.Printer.Enabled)
	require.Equal(t, "usb", cfg.Printer.Type)
	require.False(t, cfg.Telegram.Enabled())
	require.False(t, cfg.Sheets.Enabled)
}

func TestLoadConfigFileAndEnvOverrides(t *testing.T) {
	unsetEnv(t, telegramEnv...)
	dir := t.TempDir()
	body := `{"database": {"path": "data/store.db"}, "inventory": {"low_stock_threshold": 3}, "app": {"name": "Toko Maju"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0600))

	t.Setenv("POS_INVENTORY_LOW_STOCK_THRESHOLD", "7")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "Toko Maju", cfg.App.Name)
	require.Equal(t, filepath.Join(dir, "data", "store.db"), cfg.DBPath())
	require.EqualValues(t, 7, cfg.Inventory.LowStockThreshold)
}

func TestLoadTelegramFromDotEnv(t *testing.T) {
	unsetEnv(t, telegramEnv...)
	dir := t.TempDir()
	env := "TELEGRAM_BOT_TOKEN=123456:abc-def\nTELEGRAM_CHAT_ID=-100200300\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "123456:abc-def", cfg.Telegram.BotToken)
	require.Equal(t, "-100200300", cfg.Telegram.ChatID)
	require.True(t, cfg.Telegram.Enabled())
}

func TestSaveEncryptsToken(t *testing.T) {
	unsetEnv(t, telegramEnv...)
	dir := t.TempDir()

	cfg, err := Load(dir)
	require.NoError(t, err)
	cfg.Telegram.BotToken = "123456:secret-token"
	cfg.Telegram.ChatID = "42"
	cfg.Inventory.LowStockThreshold = 4
	require.NoError(t, Save(cfg))

	// The caller's copy keeps the plain token.
	require.Equal(t, "123456:secret-token", cfg.Telegram.BotToken)

	raw, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	require.False(t, strings.Contains(string(raw), "secret-token"), "token stored in plain text")

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "123456:secret-token", loaded.Telegram.BotToken)
	require.Equal(t, "42", loaded.Telegram.ChatID)
	require.EqualValues(t, 4, loaded.Inventory.LowStockThreshold)
}

func TestResolveKeepsAbsolutePaths(t *testing.T) {
	cfg := &AppConfig{BaseDir: filepath.Join("base", "dir")}
	abs, err := filepath.Abs("elsewhere.db")
	require.NoError(t, err)

	require.Equal(t, abs, cfg.Resolve(abs))
	require.Equal(t, filepath.Join("base", "dir", "x.db"), cfg.Resolve("x.db"))
	require.Empty(t, cfg.Resolve(""))
}

func TestResolveBaseDirFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("POS_BASE_DIR", dir)

	got, err := ResolveBaseDir()
	require.NoError(t, err)
	require.Equal(t, dir, got)
}
