package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/FrandeScarlet/minimarket/app/config"
	"github.com/FrandeScarlet/minimarket/app/database"
	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/services"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"github.com/wailsapp/wails/v2/pkg/options/windows"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

//go:embed all:frontend/dist
var assets embed.FS

// AppInfo is shown in the window header
type AppInfo struct {
	Name          string `json:"name"`
	Version       string `json:"version"`
	DatabasePath  string `json:"database_path"`
	DatabaseReady bool   `json:"database_ready"`
	DatabaseError string `json:"database_error,omitempty"`

	// idle minutes before the window logs the cashier out
	SessionTimeoutMinutes int `json:"session_timeout_minutes"`
}

// App struct
type App struct {
	ctx           context.Context
	cfg           *config.AppConfig
	LoggerService *services.LoggerService
	store         *database.Store
	services      *services.Services
	dbErr         error
}

// NewApp creates a new App application struct
func NewApp(cfg *config.AppConfig, logger *services.LoggerService) *App {
	return &App{ctx: context.Background(), cfg: cfg, LoggerService: logger}
}

// startup is called when the app starts. The context is saved
// so we can call the runtime methods
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
	runtime.WindowMaximise(a.ctx)
	a.connect(ctx)
}

// connect opens the database. A missing file is not fatal: the window still
// shows and tells the user how to create it.
func (a *App) connect(ctx context.Context) {
	path := a.cfg.DBPath()
	store, err := database.Open(ctx, path)
	if err != nil {
		a.dbErr = err
		a.LoggerService.LogError("Database not available", err, "Path: "+path)
		return
	}
	a.store = store
	a.services = services.New(store, a.cfg, a.LoggerService)
	a.LoggerService.LogInfo("Database connected", "Path: "+path)
}

// beforeClose is called when the application is about to quit,
// either by clicking the window close button or calling runtime.Quit.
func (a *App) beforeClose(ctx context.Context) (prevent bool) {
	a.LoggerService.LogInfo("Application closing")
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.LoggerService.LogError("Error closing database", err)
		} else {
			a.LoggerService.LogInfo("Database connection closed successfully")
		}
	}
	return false
}

// GetAppInfo returns the app name, version and database status
func (a *App) GetAppInfo() AppInfo {
	info := AppInfo{
		Name:                  a.cfg.App.Name,
		Version:               a.cfg.App.Version,
		DatabasePath:          a.cfg.DBPath(),
		DatabaseReady:         a.store != nil,
		SessionTimeoutMinutes: a.cfg.Session.TimeoutMinutes,
	}
	if a.dbErr != nil {
		info.DatabaseError = a.databaseMessage()
	}
	return info
}

func (a *App) databaseMessage() string {
	if errors.Is(a.dbErr, os.ErrNotExist) {
		return fmt.Sprintf("Database not found at %s. Run \"go run ./cmd/createdb\" first.", a.cfg.DBPath())
	}
	return fmt.Sprintf("Database could not be opened: %v", a.dbErr)
}

// Login checks the credentials. A user with MustChangePassword set has to
// call ChangePassword before using the register.
func (a *App) Login(username, password string) (*models.User, error) {
	if a.services == nil {
		return nil, errors.New(a.databaseMessage())
	}
	user, err := a.services.Auth.Authenticate(a.ctx, username, password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		return nil, errors.New("Username atau password salah")
	case errors.Is(err, services.ErrUserInactive):
		return nil, errors.New("Akun tidak aktif")
	case err != nil:
		a.LoggerService.LogError("Login failed", err, "Username: "+username)
		return nil, errors.New("Login gagal, lihat log aplikasi")
	}
	return user, nil
}

// ChangePassword replaces the password of userID
func (a *App) ChangePassword(userID uint, current, next string) error {
	if a.services == nil {
		return errors.New(a.databaseMessage())
	}
	err := a.services.Auth.ChangePassword(a.ctx, userID, current, next)
	switch {
	case errors.Is(err, services.ErrWeakPassword):
		return errors.New("Password baru minimal 8 karakter dan harus berbeda")
	case errors.Is(err, services.ErrInvalidCredentials):
		return errors.New("Password lama salah")
	case errors.Is(err, services.ErrUserInactive):
		return errors.New("Akun tidak aktif")
	}
	return err
}

func main() {
	baseDir, err := config.ResolveBaseDir()
	if err != nil {
		fmt.Fprintln(os.Stderr, "CRITICAL: cannot resolve application directory:", err)
		os.Exit(1)
	}
	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "CRITICAL: cannot load configuration:", err)
		os.Exit(1)
	}

	loggerService := services.NewLoggerService(cfg.LogDir(), cfg.Log.Level, nil)
	defer loggerService.Close()

	// Recover from any panic and log it
	defer func() {
		if r := recover(); r != nil {
			loggerService.LogPanic(r)
			os.Exit(1)
		}
	}()

	loggerService.LogInfo("Application starting", cfg.App.Name+" "+cfg.App.Version)
	if cfg.Log.RetentionDays > 0 {
		if err := loggerService.CleanOldLogs(cfg.Log.RetentionDays); err != nil {
			loggerService.LogWarning("Could not clean old logs", err.Error())
		}
	}

	app := NewApp(cfg, loggerService)

	err = wails.Run(&options.App{
		Title:  cfg.App.Name,
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 27, G: 38, B: 54, A: 1},
		OnStartup:        app.startup,
		OnBeforeClose:    app.beforeClose,
		Bind: []interface{}{
			app,
			app.LoggerService,
		},
		Windows: &windows.Options{
			WebviewIsTransparent: false,
			WindowIsTranslucent:  false,
			DisableWindowIcon:    false,
		},
	})

	if err != nil {
		loggerService.LogError("Wails application error", err)
		println("Error:", err.Error())
	}
}
