package database

import (
	"context"
	"fmt"
	"io"

	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
	"github.com/FrandeScarlet/minimarket/app/security"
	"gorm.io/gorm"
)

// AdminUsername is the login of the seeded administrator.
const AdminUsername = "admin"

var defaultRoles = []models.Role{
	{Name: "admin", Permissions: models.PermissionAll},
	{Name: "kasir", Permissions: models.PermissionPOS + "," + models.PermissionSales},
	{Name: "executive", Permissions: models.PermissionReports},
}

func seed(ctx context.Context, store *Store, tax models.Tax, out io.Writer) (*BootstrapResult, error) {
	password, err := security.GenerateTemporaryPassword()
	if err != nil {
		return nil, fmt.Errorf("failed to generate admin password: %w", err)
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	err = store.WithTransaction(ctx, func(tx *gorm.DB) error {
		repos := repository.New(tx)

		fmt.Fprintln(out, "Inserting default roles...")
		roles := make([]models.Role, len(defaultRoles))
		copy(roles, defaultRoles)
		for i := range roles {
			if err := repos.Roles.Create(ctx, &roles[i]); err != nil {
				return fmt.Errorf("failed to create role %s: %w", roles[i].Name, err)
			}
		}

		fmt.Fprintln(out, "Creating default outlet...")
		outlet := models.Outlet{Name: "Toko Pusat", Address: "Alamat Toko", Phone: "08123456789"}
		if err := repos.Outlets.Create(ctx, &outlet); err != nil {
			return fmt.Errorf("failed to create outlet: %w", err)
		}

		fmt.Fprintln(out, "Creating admin user...")
		admin := models.User{
			Username:           AdminUsername,
			PasswordHash:       hash,
			RoleID:             roles[0].ID,
			FullName:           "Administrator",
			OutletID:           &outlet.ID,
			IsActive:           true,
			MustChangePassword: true,
		}
		if err := repos.Users.Create(ctx, &admin); err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		fmt.Fprintln(out, "Inserting default tax...")
		if err := repos.Taxes.Create(ctx, &tax); err != nil {
			return fmt.Errorf("failed to create tax: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &BootstrapResult{AdminUsername: AdminUsername, AdminPassword: password}, nil
}
