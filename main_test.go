package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/FrandeScarlet/minimarket/app/config"
	"github.com/FrandeScarlet/minimarket/app/database"
	"github.com/FrandeScarlet/minimarket/app/security"
	"github.com/FrandeScarlet/minimarket/app/services"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.AppConfig{BaseDir: dir}
	cfg.App.Name = "POS Minimarket"
	cfg.App.Version = "0.1.0"
	cfg.Database.Path = "minimarket.sqlite3"
	cfg.Session.TimeoutMinutes = 120
	logger := services.NewLoggerService(filepath.Join(dir, "logs"), "info", &bytes.Buffer{})
	t.Cleanup(logger.Close)
	return NewApp(cfg, logger)
}

func TestAppWithoutDatabase(t *testing.T) {
	app := newTestApp(t)
	app.connect(context.Background())

	info := app.GetAppInfo()
	require.False(t, info.DatabaseReady)
	require.Contains(t, info.DatabaseError, "cmd/createdb")
	require.Equal(t, 120, info.SessionTimeoutMinutes)

	_, err := app.Login("admin", "whatever")
	require.ErrorContains(t, err, "cmd/createdb")
}

func TestAppLogin(t *testing.T) {
	security.PasswordCost = bcrypt.MinCost
	app := newTestApp(t)
	result, err := database.Bootstrap(context.Background(), database.BootstrapOptions{
		DBPath:     app.cfg.DBPath(),
		SchemaPath: filepath.Join("db", "schema.sql"),
	})
	require.NoError(t, err)

	app.connect(context.Background())
	t.Cleanup(func() { app.beforeClose(context.Background()) })
	require.True(t, app.GetAppInfo().DatabaseReady)

	_, err = app.Login("admin", "wrong")
	require.EqualError(t, err, "Username atau password salah")

	user, err := app.Login("admin", result.AdminPassword)
	require.NoError(t, err)
	require.True(t, user.MustChangePassword)

	require.EqualError(t, app.ChangePassword(user.ID, result.AdminPassword, "pendek"), "Password baru minimal 8 karakter dan harus berbeda")
	require.NoError(t, app.ChangePassword(user.ID, result.AdminPassword, "toko-baru-123"))

	user, err = app.Login("admin", "toko-baru-123")
	require.NoError(t, err)
	require.False(t, user.MustChangePassword)
}
