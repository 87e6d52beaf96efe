package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/FrandeScarlet/minimarket/app/models"
)

var (
	// ErrSchemaNotFound is returned when the schema script is missing.
	ErrSchemaNotFound = errors.New("schema file not found")

	// ErrBootstrapCancelled is returned when the operator declines to
	// overwrite an existing database.
	ErrBootstrapCancelled = errors.New("bootstrap cancelled")
)

// BootstrapOptions configures Bootstrap
type BootstrapOptions struct {
	DBPath     string
	SchemaPath string
	// Confirm is asked before an existing database is replaced. A nil
	// Confirm declines.
	Confirm func(path string) bool
	// Out receives progress lines. Nil discards them.
	Out io.Writer
	// TaxRate and TaxAutoApply describe the seeded PPN row. A zero
	// TaxRate seeds the standard 10% auto-applied PPN.
	TaxRate      float64
	TaxAutoApply bool
}

// BootstrapResult describes the database that was created
type BootstrapResult struct {
	DBPath        string
	AdminUsername string
	// AdminPassword is the temporary password of the seeded admin. It is
	// shown once and must be changed at first login.
	AdminPassword string
}

// Bootstrap creates a fresh database at opts.DBPath from the schema script
// and inserts the seed rows. The new file is built next to the target and
// only moved into place once complete, so a failure never leaves a partial
// database behind and a declined overwrite leaves the old file untouched.
func Bootstrap(ctx context.Context, opts BootstrapOptions) (*BootstrapResult, error) {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}

	schema, err := os.ReadFile(opts.SchemaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSchemaNotFound, opts.SchemaPath)
		}
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}

	exists, err := fileExists(opts.DBPath)
	if err != nil {
		return nil, err
	}
	if exists {
		if opts.Confirm == nil || !opts.Confirm(opts.DBPath) {
			return nil, ErrBootstrapCancelled
		}
	}

	if err := os.MkdirAll(filepath.Dir(opts.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	tmpPath := opts.DBPath + ".tmp"
	removeDatabaseFiles(tmpPath)

	fmt.Fprintf(out, "Creating database at: %s\n", opts.DBPath)
	result, err := buildDatabase(ctx, tmpPath, string(schema), defaultTax(opts), out)
	if err != nil {
		removeDatabaseFiles(tmpPath)
		return nil, err
	}

	if exists {
		if err := os.Remove(opts.DBPath); err != nil {
			removeDatabaseFiles(tmpPath)
			return nil, fmt.Errorf("failed to remove existing database: %w", err)
		}
	}
	if err := os.Rename(tmpPath, opts.DBPath); err != nil {
		removeDatabaseFiles(tmpPath)
		return nil, fmt.Errorf("failed to move database into place: %w", err)
	}

	result.DBPath = opts.DBPath
	return result, nil
}

func defaultTax(opts BootstrapOptions) models.Tax {
	if opts.TaxRate == 0 {
		return models.Tax{Name: "PPN", Rate: 10.0, AutoApply: true, IsActive: true}
	}
	return models.Tax{Name: "PPN", Rate: opts.TaxRate, AutoApply: opts.TaxAutoApply, IsActive: true}
}

func buildDatabase(ctx context.Context, path, schema string, tax models.Tax, out io.Writer) (*BootstrapResult, error) {
	store, err := openFile(ctx, path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	fmt.Fprintln(out, "Applying schema...")
	sqlDB, err := store.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	result, err := seed(ctx, store, tax, out)
	if err != nil {
		return nil, err
	}

	if err := store.Close(); err != nil {
		return nil, fmt.Errorf("failed to close new database: %w", err)
	}
	return result, nil
}

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to check %s: %w", path, err)
}

// removeDatabaseFiles deletes a database file and its SQLite side files.
func removeDatabaseFiles(path string) {
	for _, p := range []string{path, path + "-journal", path + "-wal", path + "-shm"} {
		_ = os.Remove(p)
	}
}
