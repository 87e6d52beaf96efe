package services

import (
	"testing"

	"github.com/FrandeScarlet/minimarket/app/database"
	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
	"github.com/stretchr/testify/require"
)

func TestAuthenticateSeededAdmin(t *testing.T) {
	f := newFixture(t)

	user, err := f.auth.Authenticate(f.ctx, database.AdminUsername, f.adminPassword)
	require.NoError(t, err)
	require.Equal(t, database.AdminUsername, user.Username)
	require.True(t, user.MustChangePassword)
	require.NotNil(t, user.LastLogin)

	granted, err := f.auth.HasPermission(f.ctx, user, models.PermissionReports)
	require.NoError(t, err)
	require.True(t, granted, "admin holds every permission")
}

func TestAuthenticateRejections(t *testing.T) {
	f := newFixture(t)
	cashier := f.createCashier(t, "sari")

	_, err := f.auth.Authenticate(f.ctx, "sari", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.auth.Authenticate(f.ctx, "nobody", cashierPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.auth.DeactivateUser(f.ctx, cashier.ID))
	_, err = f.auth.Authenticate(f.ctx, "sari", cashierPassword)
	require.ErrorIs(t, err, ErrUserInactive)

	require.Contains(t, f.logs.String(), "Login rejected")
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	admin, err := f.auth.Authenticate(f.ctx, database.AdminUsername, f.adminPassword)
	require.NoError(t, err)

	require.ErrorIs(t, f.auth.ChangePassword(f.ctx, admin.ID, f.adminPassword, "short"), ErrWeakPassword)
	require.ErrorIs(t, f.auth.ChangePassword(f.ctx, admin.ID, f.adminPassword, f.adminPassword), ErrWeakPassword)
	require.ErrorIs(t, f.auth.ChangePassword(f.ctx, admin.ID, "not-the-password", "toko-baru-123"), ErrInvalidCredentials)

	require.NoError(t, f.auth.ChangePassword(f.ctx, admin.ID, f.adminPassword, "toko-baru-123"))

	_, err = f.auth.Authenticate(f.ctx, database.AdminUsername, f.adminPassword)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	admin, err = f.auth.Authenticate(f.ctx, database.AdminUsername, "toko-baru-123")
	require.NoError(t, err)
	require.False(t, admin.MustChangePassword)

	// With the password rotated the admin can run the register.
	_, err = f.shifts.OpenShift(f.ctx, admin.ID, nil, 0)
	require.NoError(t, err)
}

func TestChangePasswordInactiveUser(t *testing.T) {
	f := newFixture(t)
	cashier := f.createCashier(t, "sari")
	require.NoError(t, f.auth.DeactivateUser(f.ctx, cashier.ID))

	err := f.auth.ChangePassword(f.ctx, cashier.ID, cashierPassword, "kasir-baru-123")
	require.ErrorIs(t, err, ErrUserInactive)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	cashier := f.createCashier(t, "sari")
	require.True(t, cashier.IsActive)

	granted, err := f.auth.HasPermission(f.ctx, cashier, models.PermissionPOS)
	require.NoError(t, err)
	require.True(t, granted)
	granted, err = f.auth.HasPermission(f.ctx, cashier, models.PermissionReports)
	require.NoError(t, err)
	require.False(t, granted)

	_, err = f.auth.CreateUser(f.ctx, CreateUserRequest{Username: "sari", Password: cashierPassword, RoleID: kasirRoleID})
	require.ErrorIs(t, err, repository.ErrDuplicateKey)

	_, err = f.auth.CreateUser(f.ctx, CreateUserRequest{Username: "budi", Password: "1234", RoleID: kasirRoleID})
	require.ErrorIs(t, err, ErrWeakPassword)

	_, err = f.auth.CreateUser(f.ctx, CreateUserRequest{Username: "   ", Password: cashierPassword, RoleID: kasirRoleID})
	require.Error(t, err)

	_, err = f.auth.CreateUser(f.ctx, CreateUserRequest{Username: "budi", Password: cashierPassword, RoleID: 99})
	require.ErrorIs(t, err, repository.ErrForeignKeyViolation)
}
