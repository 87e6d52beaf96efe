package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/FrandeScarlet/minimarket/app/database"
	"github.com/FrandeScarlet/minimarket/app/models"
	"github.com/FrandeScarlet/minimarket/app/repository"
	"github.com/FrandeScarlet/minimarket/app/security"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const (
	outletID uint = 1
	adminID  uint = 1
)

type RepositorySuite struct {
	suite.Suite
	ctx   context.Context
	store *database.Store
	repos *repository.Repositories
}

func TestRepositorySuite(t *testing.T) {
	security.PasswordCost = bcrypt.MinCost
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	s.ctx = context.Background()
	dbPath := filepath.Join(s.T().TempDir(), "minimarket.sqlite3")
	_, err := database.Bootstrap(s.ctx, database.BootstrapOptions{
		DBPath:     dbPath,
		SchemaPath: filepath.Join("..", "..", "db", "schema.sql"),
	})
	s.Require().NoError(err)
	s.store, err = database.Open(s.ctx, dbPath)
	s.Require().NoError(err)
	s.repos = repository.New(s.store.DB())
}

func (s *RepositorySuite) TearDownTest() {
	s.store.Close()
}

func (s *RepositorySuite) product(name string) *models.Product {
	p := &models.Product{Name: name, PriceCents: 1000, TrackStock: true, IsActive: true}
	s.Require().NoError(s.repos.Products.Create(s.ctx, p))
	return p
}

func (s *RepositorySuite) shift() *models.Shift {
	outlet := outletID
	sh := &models.Shift{UserID: adminID, OutletID: &outlet, StartAt: time.Now().UTC()}
	s.Require().NoError(s.repos.Shifts.Create(s.ctx, sh))
	return sh
}

func (s *RepositorySuite) sale(shiftID uint, uuid string, payments ...models.Payment) *models.Transaction {
	outlet, user := outletID, adminID
	var total int64
	for _, p := range payments {
		total += p.AmountCents
	}
	txn := &models.Transaction{
		UUID: uuid, OutletID: &outlet, UserID: &user, ShiftID: &shiftID,
		SubtotalCents: total, TotalCents: total, PaidCents: total,
		Status: models.StatusCompleted, CreatedAt: time.Now().UTC(),
	}
	s.Require().NoError(s.repos.Transactions.Create(s.ctx, txn))
	for i := range payments {
		payments[i].TransactionID = txn.ID
	}
	s.Require().NoError(s.repos.Payments.CreateBatch(s.ctx, payments))
	return txn
}

func (s *RepositorySuite) TestGetMissingReturnsNotFound() {
	_, err := s.repos.Users.Get(s.ctx, 404)
	s.ErrorIs(err, repository.ErrNotFound)
	_, err = s.repos.Products.GetBySKU(s.ctx, "nope")
	s.ErrorIs(err, repository.ErrNotFound)
	s.ErrorIs(s.repos.Products.SetActive(s.ctx, 404, false), repository.ErrNotFound)
}

func (s *RepositorySuite) TestOneOpenShiftPerUser() {
	first := s.shift()

	outlet := outletID
	err := s.repos.Shifts.Create(s.ctx, &models.Shift{UserID: adminID, OutletID: &outlet, StartAt: time.Now().UTC()})
	s.ErrorIs(err, repository.ErrDuplicateKey)

	closed, err := s.repos.Shifts.Close(s.ctx, first.ID, time.Now().UTC(), 0, "")
	s.Require().NoError(err)
	s.True(closed)
	closed, err = s.repos.Shifts.Close(s.ctx, first.ID, time.Now().UTC(), 0, "")
	s.Require().NoError(err)
	s.False(closed, "a closed shift stays closed")

	s.shift()
}

func (s *RepositorySuite) TestStockRowsAreUniquePerOutlet() {
	p := s.product("Gula")
	now := time.Now().UTC()
	s.Require().NoError(s.repos.Stocks.Create(s.ctx, &models.ProductStock{ProductID: p.ID, OutletID: outletID, Stock: 1, UpdatedAt: now}))
	err := s.repos.Stocks.Create(s.ctx, &models.ProductStock{ProductID: p.ID, OutletID: outletID, Stock: 2, UpdatedAt: now})
	s.ErrorIs(err, repository.ErrDuplicateKey)
}

func (s *RepositorySuite) TestMovementsRejectZeroChange() {
	p := s.product("Gula")
	err := s.repos.Movements.Create(s.ctx, &models.StockMovement{
		ProductID: p.ID, OutletID: outletID, ChangeQty: 0, Reason: models.MovementAdjustment, CreatedAt: time.Now().UTC(),
	})
	s.ErrorIs(err, repository.ErrConstraintViolation)

	err = s.repos.Movements.Create(s.ctx, &models.StockMovement{
		ProductID: 404, OutletID: outletID, ChangeQty: 1, Reason: models.MovementPurchase, CreatedAt: time.Now().UTC(),
	})
	s.ErrorIs(err, repository.ErrForeignKeyViolation)
}

func (s *RepositorySuite) TestMovementSumAndOrder() {
	p := s.product("Gula")
	for _, change := range []int64{10, -3, 5} {
		s.Require().NoError(s.repos.Movements.Create(s.ctx, &models.StockMovement{
			ProductID: p.ID, OutletID: outletID, ChangeQty: change, Reason: models.MovementAdjustment,
			Reference: "batch-1", CreatedAt: time.Now().UTC(),
		}))
	}
	sum, err := s.repos.Movements.Sum(s.ctx, p.ID, outletID)
	s.Require().NoError(err)
	s.Equal(int64(12), sum)

	latest, err := s.repos.Movements.List(s.ctx, p.ID, outletID, 2)
	s.Require().NoError(err)
	s.Require().Len(latest, 2)
	s.Equal(int64(5), latest[0].ChangeQty)

	byRef, err := s.repos.Movements.ListByReference(s.ctx, "batch-1")
	s.Require().NoError(err)
	s.Len(byRef, 3)
	s.Equal(int64(10), byRef[0].ChangeQty)
}

func (s *RepositorySuite) TestUpdateStatusIsCompareAndSet() {
	sh := s.shift()
	txn := s.sale(sh.ID, "11111111-1111-1111-1111-111111111111",
		models.Payment{Method: models.PaymentCash, AmountCents: 1000, CreatedAt: time.Now().UTC()})

	ok, err := s.repos.Transactions.UpdateStatus(s.ctx, txn.ID, models.StatusCompleted, models.StatusVoided)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.repos.Transactions.UpdateStatus(s.ctx, txn.ID, models.StatusCompleted, models.StatusVoided)
	s.Require().NoError(err)
	s.False(ok)

	got, err := s.repos.Transactions.GetByUUID(s.ctx, txn.UUID)
	s.Require().NoError(err)
	s.Equal(models.StatusVoided, got.Status)
}

func (s *RepositorySuite) TestPaymentTotalsByShiftSkipVoided() {
	sh := s.shift()
	now := time.Now().UTC()
	s.sale(sh.ID, "aaaaaaaa-0000-0000-0000-000000000001",
		models.Payment{Method: models.PaymentCash, AmountCents: 5000, CreatedAt: now},
		models.Payment{Method: models.PaymentQRIS, AmountCents: 2000, CreatedAt: now})
	s.sale(sh.ID, "aaaaaaaa-0000-0000-0000-000000000002",
		models.Payment{Method: models.PaymentCash, AmountCents: 1500, CreatedAt: now})
	voided := s.sale(sh.ID, "aaaaaaaa-0000-0000-0000-000000000003",
		models.Payment{Method: models.PaymentCard, AmountCents: 9000, CreatedAt: now})
	_, err := s.repos.Transactions.UpdateStatus(s.ctx, voided.ID, models.StatusCompleted, models.StatusVoided)
	s.Require().NoError(err)

	totals, err := s.repos.Payments.TotalsByShift(s.ctx, sh.ID)
	s.Require().NoError(err)
	s.Equal([]repository.MethodTotal{
		{Method: models.PaymentCash, AmountCents: 6500},
		{Method: models.PaymentQRIS, AmountCents: 2000},
	}, totals)

	txns, err := s.repos.Transactions.ListByShift(s.ctx, sh.ID)
	s.Require().NoError(err)
	s.Len(txns, 3)
}

func (s *RepositorySuite) TestRefundSums() {
	sh := s.shift()
	txn := s.sale(sh.ID, "bbbbbbbb-0000-0000-0000-000000000001",
		models.Payment{Method: models.PaymentCash, AmountCents: 10000, CreatedAt: time.Now().UTC()})

	sum, err := s.repos.Refunds.SumByShift(s.ctx, sh.ID)
	s.Require().NoError(err)
	s.Zero(sum)

	for _, amount := range []int64{1000, 2500} {
		s.Require().NoError(s.repos.Refunds.Create(s.ctx, &models.Refund{
			TransactionID: &txn.ID, ShiftID: &sh.ID, AmountCents: amount, CreatedAt: time.Now().UTC(),
		}))
	}
	sum, err = s.repos.Refunds.SumByTransaction(s.ctx, txn.ID)
	s.Require().NoError(err)
	s.Equal(int64(3500), sum)
	sum, err = s.repos.Refunds.SumByShift(s.ctx, sh.ID)
	s.Require().NoError(err)
	s.Equal(int64(3500), sum)

	err = s.repos.Refunds.Create(s.ctx, &models.Refund{TransactionID: &txn.ID, AmountCents: 0, CreatedAt: time.Now().UTC()})
	s.ErrorIs(err, repository.ErrConstraintViolation)
}

func (s *RepositorySuite) TestListByIDs() {
	a := s.product("A")
	b := s.product("B")

	byID, err := s.repos.Products.ListByIDs(s.ctx, []uint{a.ID, b.ID, 404})
	s.Require().NoError(err)
	s.Len(byID, 2)
	s.Equal("B", byID[b.ID].Name)

	byID, err = s.repos.Products.ListByIDs(s.ctx, nil)
	s.Require().NoError(err)
	s.Empty(byID)
}

func (s *RepositorySuite) TestTaxesAutoApply() {
	s.Require().NoError(s.repos.Taxes.Create(s.ctx, &models.Tax{Name: "Retired", Rate: 5, AutoApply: true, IsActive: false}))
	taxes, err := s.repos.Taxes.ListAutoApply(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(taxes, 1)
	s.Equal("PPN", taxes[0].Name)
}
