package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrForeignKeysDisabled is returned when the opened connection does not
// enforce foreign keys.
var ErrForeignKeysDisabled = errors.New("sqlite foreign key enforcement is disabled")

// busyTimeout is how long a connection waits on a locked database file.
const busyTimeout = 5 * time.Second

// Store owns the SQLite database file. It is created once in main (or the
// bootstrap command) and passed to whoever needs it.
type Store struct {
	db   *gorm.DB
	path string
}

// dsn appends the per-connection pragmas to path. The pragmas run on every
// connection the pool opens, so foreign keys are enforced everywhere.
func dsn(path string) string {
	return fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)", path, busyTimeout.Milliseconds())
}

// Open opens the database file at path. The file must already exist; use
// Bootstrap to create it.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database file %s: %w", path, err)
	}
	return openFile(ctx, path)
}

func openFile(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dsn(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &Store{db: db, path: path}
	if err := store.checkForeignKeys(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) checkForeignKeys(ctx context.Context) error {
	var enabled int
	if err := s.db.WithContext(ctx).Raw("PRAGMA foreign_keys").Scan(&enabled).Error; err != nil {
		return fmt.Errorf("failed to read foreign_keys pragma: %w", err)
	}
	if enabled != 1 {
		return ErrForeignKeysDisabled
	}
	return nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// DB returns the pooled handle. Prefer Session or WithTransaction for units
// of work.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithTransaction runs fn inside one database transaction. fn's error (or a
// panic) rolls everything back.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// Session pins one pooled connection and returns a handle bound to it. The
// caller must Close it on every path.
func (s *Store) Session(ctx context.Context) (*Session, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}

	db := s.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	db.Statement.ConnPool = conn

	return &Session{db: db, conn: conn}, nil
}

// Close releases the database file.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Session is a unit of work pinned to a single connection.
type Session struct {
	db   *gorm.DB
	conn *sql.Conn
	once sync.Once
	err  error
}

// DB returns the gorm handle bound to the session's connection.
func (s *Session) DB() *gorm.DB {
	return s.db
}

// WithTransaction runs fn in a transaction on the session's connection.
func (s *Session) WithTransaction(fn func(tx *gorm.DB) error) error {
	return s.db.Transaction(fn)
}

// Close returns the connection to the pool. Calling it again is a no-op.
func (s *Session) Close() error {
	s.once.Do(func() {
		s.err = s.conn.Close()
	})
	return s.err
}
