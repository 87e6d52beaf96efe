package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var schemaPath = filepath.Join("..", "..", "db", "schema.sql")

func TestMain(m *testing.M) {
	security.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func bootstrapTestDB(t *testing.T) (string, *BootstrapResult) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "minimarket.sqlite3")
	result, err := Bootstrap(context.Background(), BootstrapOptions{
		DBPath:     dbPath,
		SchemaPath: schemaPath,
	})
	require.NoError(t, err)
	return dbPath, result
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath, _ := bootstrapTestDB(t)
	store, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBootstrapSeedsDatabase(t *testing.T) {
	dbPath, result := bootstrapTestDB(t)
	require.Equal(t, dbPath, result.DBPath)
	require.Equal(t, AdminUsername, result.AdminUsername)
	require.NotEmpty(t, result.AdminPassword)

	_, err := os.Stat(dbPath + ".tmp")
	require.True(t, errors.Is(err, os.ErrNotExist), "temp file left behind")

	store, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()
	db := store.DB()

	var roles []models.Role
	require.NoError(t, db.Order("id").Find(&roles).Error)
	require.Len(t, roles, 3)
	require.Equal(t, "admin", roles[0].Name)
	require.Equal(t, "all", roles[0].Permissions)
	require.Equal(t, "kasir", roles[1].Name)
	require.Equal(t, "pos,sales", roles[1].Permissions)
	require.Equal(t, "executive", roles[2].Name)
	require.Equal(t, "reports", roles[2].Permissions)
	require.EqualValues(t, 1, roles[0].ID)

	var outlet models.Outlet
	require.NoError(t, db.First(&outlet).Error)
	require.Equal(t, "Toko Pusat", outlet.Name)
	require.Equal(t, "Alamat Toko", outlet.Address)
	require.Equal(t, "08123456789", outlet.Phone)

	var admin models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&admin).Error)
	require.Equal(t, "Administrator", admin.FullName)
	require.EqualValues(t, 1, admin.RoleID)
	require.NotNil(t, admin.OutletID)
	require.Equal(t, outlet.ID, *admin.OutletID)
	require.True(t, admin.IsActive)
	require.True(t, admin.MustChangePassword)
	require.True(t, security.CheckPassword(admin.PasswordHash, result.AdminPassword))
	require.Nil(t, admin.LastLogin)

	var taxes []models.Tax
	require.NoError(t, db.Find(&taxes).Error)
	require.Len(t, taxes, 1)
	require.Equal(t, "PPN", taxes[0].Name)
	require.InDelta(t, 10.0, taxes[0].Rate, 0.0001)
	require.True(t, taxes[0].AutoApply)
	require.True(t, taxes[0].IsActive)

	var count int64
	for _, table := range []string{"categories", "products", "transactions", "customers", "shifts", "refunds"} {
		require.NoError(t, db.Table(table).Count(&count).Error)
		require.Zero(t, count, "table %s should be empty", table)
	}
}

func TestBootstrapMissingSchema(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "minimarket.sqlite3")

	_, err := Bootstrap(context.Background(), BootstrapOptions{
		DBPath:     dbPath,
		SchemaPath: filepath.Join(dir, "missing.sql"),
	})
	require.ErrorIs(t, err, ErrSchemaNotFound)

	_, err = os.Stat(dbPath)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestBootstrapDeclinedKeepsExistingFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "minimarket.sqlite3")
	original := []byte("existing database bytes")
	require.NoError(t, os.WriteFile(dbPath, original, 0644))

	asked := ""
	_, err := Bootstrap(context.Background(), BootstrapOptions{
		DBPath:     dbPath,
		SchemaPath: schemaPath,
		Confirm: func(path string) bool {
			asked = path
			return false
		},
	})
	require.ErrorIs(t, err, ErrBootstrapCancelled)
	require.Equal(t, dbPath, asked)

	// No confirmation callback declines as well.
	_, err = Bootstrap(context.Background(), BootstrapOptions{DBPath: dbPath, SchemaPath: schemaPath})
	require.ErrorIs(t, err, ErrBootstrapCancelled)

	data, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	require.Equal(t, original, data)
}

func TestBootstrapConfirmedOverwrite(t *testing.T) {
	dbPath, first := bootstrapTestDB(t)

	second, err := Bootstrap(context.Background(), BootstrapOptions{
		DBPath:     dbPath,
		SchemaPath: schemaPath,
		Confirm:    func(string) bool { return true },
	})
	require.NoError(t, err)
	require.NotEqual(t, first.AdminPassword, second.AdminPassword)

	store, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	defer store.Close()

	var roles int64
	require.NoError(t, store.DB().Model(&models.Role{}).Count(&roles).Error)
	require.EqualValues(t, 3, roles)
}

func TestBootstrapFailureLeavesNoPartialDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "minimarket.sqlite3")
	badSchema := filepath.Join(dir, "bad.sql")
	require.NoError(t, os.WriteFile(badSchema, []byte("CREATE TABLE roles (id INTEGER PRIMARY KEY);\nTHIS IS NOT SQL;"), 0644))

	_, err := Bootstrap(context.Background(), BootstrapOptions{DBPath: dbPath, SchemaPath: badSchema})
	require.Error(t, err)

	_, err = os.Stat(dbPath)
	require.True(t, errors.Is(err, os.ErrNotExist), "partial database left at target")
	_, err = os.Stat(dbPath + ".tmp")
	require.True(t, errors.Is(err, os.ErrNotExist), "temp file left behind")

	// An existing database survives a failed rebuild.
	original := []byte("keep me")
	require.NoError(t, os.WriteFile(dbPath, original, 0644))
	_, err = Bootstrap(context.Background(), BootstrapOptions{
		DBPath:     dbPath,
		SchemaPath: badSchema,
		Confirm:    func(string) bool { return true },
	})
	require.Error(t, err)
	data, err := os.ReadFile(dbPath)
	require.NoError(t, err)
	require.Equal(t, original, data)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(context.Background(), filepath.Join(t.TempDir(), "nope.sqlite3"))
	require.Error(t, err)
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestForeignKeysEnforcedOnEverySession(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	// Hold several connections at once so the pool has to open new ones.
	var sessions []*Session
	for i := 0; i < 3; i++ {
		sess, err := store.Session(ctx)
		require.NoError(t, err)
		sessions = append(sessions, sess)
	}
	for _, sess := range sessions {
		var enabled int
		require.NoError(t, sess.DB().Raw("PRAGMA foreign_keys").Scan(&enabled).Error)
		require.Equal(t, 1, enabled)

		err := sess.DB().Create(&models.User{Username: "ghost", PasswordHash: "x", RoleID: 99, IsActive: true}).Error
		require.Error(t, err)
		require.Contains(t, err.Error(), "FOREIGN KEY constraint failed")
	}
	for _, sess := range sessions {
		require.NoError(t, sess.Close())
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	store := openTestStore(t)

	sess, err := store.Session(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Close())
	require.NoError(t, sess.Close())
}

func TestSessionTransactionRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	sess, err := store.Session(ctx)
	require.NoError(t, err)
	defer sess.Close()

	boom := errors.New("boom")
	err = sess.WithTransaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Outlet{Name: "Cabang"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, sess.DB().Model(&models.Outlet{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestStoreTransactionCommits(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.WithTransaction(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.Outlet{Name: "Cabang"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, store.DB().Model(&models.Outlet{}).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestCheckConstraintsRejectBadTotals(t *testing.T) {
	store := openTestStore(t)

	err := store.DB().Create(&models.Transaction{
		UUID:          "bad-totals",
		SubtotalCents: 1000,
		TaxCents:      100,
		TotalCents:    999,
		PaidCents:     999,
		Status:        models.StatusCompleted,
	}).Error
	require.Error(t, err)
	require.Contains(t, err.Error(), "CHECK constraint failed")
}
