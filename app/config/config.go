package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/FrandeScarlet/minimarket/app/security"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileName is the optional JSON configuration file inside the base directory.
const FileName = "config.json"

// AppConfig holds all application configuration
type AppConfig struct {
	App       AppInfo         `mapstructure:"app" json:"app"`
	Database  DatabaseConfig  `mapstructure:"database" json:"database"`
	Business  BusinessConfig  `mapstructure:"business" json:"business"`
	Tax       TaxConfig       `mapstructure:"tax" json:"tax"`
	Inventory InventoryConfig `mapstructure:"inventory" json:"inventory"`
	Session   SessionConfig   `mapstructure:"session" json:"session"`
	Printer   PrinterConfig   `mapstructure:"printer" json:"printer"`
	Telegram  TelegramConfig  `mapstructure:"telegram" json:"telegram"`
	Sheets    SheetsConfig    `mapstructure:"sheets" json:"sheets"`
	Log       LogConfig       `mapstructure:"log" json:"log"`

	// BaseDir is where relative paths are resolved; it is never persisted.
	BaseDir string `mapstructure:"-" json:"-"`
}

// AppInfo is the application identity shown in the shell
type AppInfo struct {
	Name    string `mapstructure:"name" json:"name"`
	Version string `mapstructure:"version" json:"version"`
}

// DatabaseConfig locates the SQLite file and the schema script
type DatabaseConfig struct {
	Path       string `mapstructure:"path" json:"path"`
	SchemaPath string `mapstructure:"schema_path" json:"schema_path"`
}

// BusinessConfig holds currency display settings
type BusinessConfig struct {
	CurrencySymbol string `mapstructure:"currency_symbol" json:"currency_symbol"`
}

// TaxConfig holds the defaults used when creating tax rules
type TaxConfig struct {
	DefaultRate float64 `mapstructure:"default_rate" json:"default_rate"`
	AutoApply   bool    `mapstructure:"auto_apply" json:"auto_apply"`
}

// InventoryConfig holds stock alert settings
type InventoryConfig struct {
	LowStockThreshold int64 `mapstructure:"low_stock_threshold" json:"low_stock_threshold"`
}

// SessionConfig holds login session settings
type SessionConfig struct {
	TimeoutMinutes int `mapstructure:"timeout_minutes" json:"timeout_minutes"`
}

// PrinterConfig holds receipt printer settings
type PrinterConfig struct {
	Enabled    bool   `mapstructure:"enabled" json:"enabled"`
	Type       string `mapstructure:"type" json:"type"`
	ReceiptDir string `mapstructure:"receipt_dir" json:"receipt_dir"`
}

// TelegramConfig holds the bot used for store notifications
type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token" json:"bot_token"`
	ChatID   string `mapstructure:"chat_id" json:"chat_id"`
	APIURL   string `mapstructure:"api_url" json:"api_url"`
}

// Enabled reports whether both bot credentials are present.
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// SheetsConfig holds the Google Sheets shift report settings
type SheetsConfig struct {
	Enabled         bool   `mapstructure:"enabled" json:"enabled"`
	SpreadsheetID   string `mapstructure:"spreadsheet_id" json:"spreadsheet_id"`
	SheetName       string `mapstructure:"sheet_name" json:"sheet_name"`
	CredentialsFile string `mapstructure:"credentials_file" json:"credentials_file"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Dir           string `mapstructure:"dir" json:"dir"`
	Level         string `mapstructure:"level" json:"level"`
	RetentionDays int    `mapstructure:"retention_days" json:"retention_days"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "POS Minimarket")
	v.SetDefault("app.version", "0.1.0")

	v.SetDefault("database.path", "minimarket.sqlite3")
	v.SetDefault("database.schema_path", filepath.Join("db", "schema.sql"))

	v.SetDefault("business.currency_symbol", "Rp")

	v.SetDefault("tax.default_rate", 10.0)
	v.SetDefault("tax.auto_apply", true)

	v.SetDefault("inventory.low_stock_threshold", 10)
	v.SetDefault("session.timeout_minutes", 120)

	v.SetDefault("printer.enabled", false)
	v.SetDefault("printer.type", "usb")
	v.SetDefault("printer.receipt_dir", "receipts")

	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_url", "https://api.telegram.org")

	v.SetDefault("sheets.enabled", false)
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.sheet_name", "Shifts")
	v.SetDefault("sheets.credentials_file", "")

	v.SetDefault("log.dir", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.retention_days", 30)
}

// ResolveBaseDir returns POS_BASE_DIR when set, otherwise the directory of
// the running executable.
func ResolveBaseDir() (string, error) {
	if dir := os.Getenv("POS_BASE_DIR"); dir != "" {
		return filepath.Abs(dir)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("could not locate executable: %w", err)
	}
	return filepath.Dir(exe), nil
}

// Load builds the configuration for baseDir. Precedence, lowest first:
// defaults, config.json, .env, process environment.
func Load(baseDir string) (*AppConfig, error) {
	// godotenv never overrides variables already set in the environment.
	if err := godotenv.Load(filepath.Join(baseDir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	configPath := filepath.Join(baseDir, FileName)
	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("could not parse config file: %w", err)
		}
	}

	v.SetEnvPrefix("POS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN", "POS_TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("telegram.chat_id", "TELEGRAM_CHAT_ID", "POS_TELEGRAM_CHAT_ID")

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not decode config: %w", err)
	}
	cfg.BaseDir = baseDir

	if err := cfg.decryptSensitiveFields(); err != nil {
		return nil, fmt.Errorf("could not decrypt sensitive fields: %w", err)
	}
	return &cfg, nil
}

// Save writes cfg to config.json in its base directory with the secrets
// encrypted.
func Save(cfg *AppConfig) error {
	cfgCopy := *cfg
	if err := cfgCopy.encryptSensitiveFields(); err != nil {
		return fmt.Errorf("could not encrypt sensitive fields: %w", err)
	}

	data, err := json.MarshalIndent(&cfgCopy, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal config: %w", err)
	}
	if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.BaseDir, FileName), data, 0600); err != nil {
		return fmt.Errorf("could not write config file: %w", err)
	}
	return nil
}

// Resolve returns p unchanged when absolute, otherwise joined to BaseDir.
func (cfg *AppConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(cfg.BaseDir, p)
}

// DBPath is the absolute location of the database file.
func (cfg *AppConfig) DBPath() string {
	return cfg.Resolve(cfg.Database.Path)
}

// SchemaPath is the absolute location of the schema script.
func (cfg *AppConfig) SchemaPath() string {
	return cfg.Resolve(cfg.Database.SchemaPath)
}

// LogDir is the absolute location of the log directory.
func (cfg *AppConfig) LogDir() string {
	return cfg.Resolve(cfg.Log.Dir)
}

// ReceiptDir is the absolute location where receipts are saved.
func (cfg *AppConfig) ReceiptDir() string {
	return cfg.Resolve(cfg.Printer.ReceiptDir)
}

func (cfg *AppConfig) keyring() *security.Keyring {
	return security.NewKeyring(cfg.BaseDir)
}

func (cfg *AppConfig) encryptSensitiveFields() error {
	if cfg.Telegram.BotToken == "" {
		return nil
	}
	sealed, err := cfg.keyring().Encrypt(cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("could not encrypt telegram bot token: %w", err)
	}
	cfg.Telegram.BotToken = sealed
	return nil
}

// decryptSensitiveFields leaves plain text values as they are, so a token
// typed into .env or config.json by hand still works.
func (cfg *AppConfig) decryptSensitiveFields() error {
	if cfg.Telegram.BotToken == "" {
		return nil
	}
	plain, err := cfg.keyring().DecryptOrPlain(cfg.Telegram.BotToken)
	if err != nil {
		return fmt.Errorf("could not decrypt telegram bot token: %w", err)
	}
	cfg.Telegram.BotToken = plain
	return nil
}
