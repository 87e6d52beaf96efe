package services

import (
	"context"
	"fmt"
	"time"

	"github.com/FrandeScarlet/minimarket/app/database"
	"github.com/FrandeScarlet/minimarket/app/repository"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// BaseService provides common functionality for all services
type BaseService struct {
	store  *database.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewBaseService creates a base service on store. logger may be nil.
func NewBaseService(store *database.Store, logger *LoggerService) *BaseService {
	return &BaseService{
		store:  store,
		logger: loggerOrNop(logger),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// EnsureDB checks if database is initialized and returns an error if not
func (b *BaseService) EnsureDB() error {
	if b == nil || b.store == nil {
		return fmt.Errorf("database not initialized")
	}
	return nil
}

// WithTransaction runs fn with repositories bound to one database transaction.
func (b *BaseService) WithTransaction(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	if err := b.EnsureDB(); err != nil {
		return err
	}
	return b.store.WithTransaction(ctx, func(tx *gorm.DB) error {
		return fn(repository.New(tx))
	})
}

// WithSession runs fn with repositories bound to a single pinned connection,
// releasing it afterwards whatever happens.
func (b *BaseService) WithSession(ctx context.Context, fn func(repos *repository.Repositories) error) error {
	if err := b.EnsureDB(); err != nil {
		return err
	}
	sess, err := b.store.Session(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()
	return fn(repository.New(sess.DB()))
}
