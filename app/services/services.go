package services

import (
	"github.com/FrandeScarlet/minimarket/app/config"
	"github.com/FrandeScarlet/minimarket/app/database"
)

// Services wires every service on one store
type Services struct {
	Logger        *LoggerService
	Auth          *AuthService
	Shifts        *ShiftService
	Sales         *SalesService
	Inventory     *InventoryService
	Catalog       *CatalogService
	Customers     *CustomerService
	Receipts      *ReceiptService
	Notifications *NotificationService
	Exporter      *ShiftReportExporter
}

// New creates all services for cfg on store. logger may be nil.
func New(store *database.Store, cfg *config.AppConfig, logger *LoggerService) *Services {
	base := NewBaseService(store, logger)
	notifications := NewNotificationService(cfg.Telegram, logger)
	exporter := NewShiftReportExporter(cfg.Sheets, logger)
	inventory := NewInventoryService(base, cfg.Inventory.LowStockThreshold)

	return &Services{
		Logger:        logger,
		Auth:          NewAuthService(base),
		Shifts:        NewShiftService(base, notifications, exporter, cfg.Business.CurrencySymbol),
		Sales:         NewSalesService(base, inventory, notifications),
		Inventory:     inventory,
		Catalog:       NewCatalogService(base),
		Customers:     NewCustomerService(base),
		Receipts:      NewReceiptService(base, cfg),
		Notifications: notifications,
		Exporter:      exporter,
	}
}
