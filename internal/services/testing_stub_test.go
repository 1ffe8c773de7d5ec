package services

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"flowpay_backend/internal/models"
	"flowpay_backend/internal/repositories"
	"flowpay_backend/internal/services/flutterwave"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Репозитории в тестах фейковые, поэтому от *gorm.DB нужны только
// Begin/Commit. Стаб-драйвер дает их без реальной БД.

type stubDriver struct{}

func (stubDriver) Open(string) (driver.Conn, error) { return &stubConn{}, nil }

type stubConn struct{}

func (*stubConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (*stubConn) Close() error                        { return nil }
func (*stubConn) Begin() (driver.Tx, error)           { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerStubOnce sync.Once

func openStubDB(t *testing.T) *gorm.DB {
	t.Helper()

	registerStubOnce.Do(func() {
		sql.Register("flowpay-stub", stubDriver{})
	})

	sqlDB, err := sql.Open("flowpay-stub", "")
	if err != nil {
		t.Fatalf("failed to open stub db: %v", err)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open gorm over stub db: %v", err)
	}
	return db
}

// --- Фейковый репозиторий транзакций (in-memory) ---

type fakeTransactionRepo struct {
	mu     sync.Mutex
	byID   map[string]*models.PaymentTransaction
	nextID int
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{byID: make(map[string]*models.PaymentTransaction)}
}

func (r *fakeTransactionRepo) Create(_ *gorm.DB, tx *models.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tx.ID == "" {
		r.nextID++
		tx.ID = fmt.Sprintf("tx-%d", r.nextID)
	}
	cp := *tx
	r.byID[tx.ID] = &cp
	return nil
}

func (r *fakeTransactionRepo) FindByReference(_ *gorm.DB, reference string) (*models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, tx := range r.byID {
		if tx.TransactionReference == reference {
			cp := *tx
			return &cp, nil
		}
	}
	return nil, repositories.ErrTransactionNotFound
}

func (r *fakeTransactionRepo) FindByReferenceForUpdate(db *gorm.DB, reference string) (*models.PaymentTransaction, error) {
	return r.FindByReference(db, reference)
}

func (r *fakeTransactionRepo) FindByID(_ *gorm.DB, id string) (*models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.byID[id]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	cp := *tx
	return &cp, nil
}

func (r *fakeTransactionRepo) FindByIDForUpdate(db *gorm.DB, id string) (*models.PaymentTransaction, error) {
	return r.FindByID(db, id)
}

func (r *fakeTransactionRepo) FindByUserID(_ *gorm.DB, userID string, filter *models.TransactionFilter) ([]models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.PaymentTransaction
	for _, tx := range r.byID {
		if tx.UserID == nil || *tx.UserID != userID {
			continue
		}
		if filter != nil && filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		if filter != nil && filter.Currency != "" && tx.Currency != filter.Currency {
			continue
		}
		out = append(out, *tx)
	}
	return out, nil
}

func (r *fakeTransactionRepo) FindStalePending(_ *gorm.DB, updatedBefore time.Time, limit int) ([]models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.PaymentTransaction
	for _, tx := range r.byID {
		if tx.Status != models.TransactionStatusPending || !tx.UpdatedAt.Before(updatedBefore) {
			continue
		}
		out = append(out, *tx)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) Save(_ *gorm.DB, tx *models.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !tx.Status.IsValid() {
		return errors.New("invalid transaction status")
	}
	cp := *tx
	r.byID[tx.ID] = &cp
	return nil
}

// get возвращает текущее состояние записи, минуя интерфейс репозитория
func (r *fakeTransactionRepo) get(t *testing.T, id string) *models.PaymentTransaction {
	t.Helper()

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, ok := r.byID[id]
	if !ok {
		t.Fatalf("transaction %s not found in fake repo", id)
	}
	cp := *tx
	return &cp
}

// --- Фейковый репозиторий пользователей ---

type fakeUserRepo struct {
	users map[string]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(_ *gorm.DB, user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByID(_ *gorm.DB, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrUserNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) FindByEmail(_ *gorm.DB, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repositories.ErrUserNotFound
}

// --- Фейковый клиент шлюза ---

type fakeGateway struct {
	chargeResult *flutterwave.ChargeResult
	chargeErr    error
	verifyResult *flutterwave.VerifyResult
	verifyErr    error
	refundResult *flutterwave.RefundResult
	refundErr    error

	chargeCalls int
	verifyCalls int
	refundCalls int

	lastCharge flutterwave.Charge
	lastRefund struct {
		externalID string
		amount     decimal.Decimal
		reason     string
	}
}

func (g *fakeGateway) CreateCharge(_ context.Context, charge flutterwave.Charge) (*flutterwave.ChargeResult, error) {
	g.chargeCalls++
	g.lastCharge = charge
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return g.chargeResult, nil
}

func (g *fakeGateway) VerifyCharge(_ context.Context, externalID string) (*flutterwave.VerifyResult, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return g.verifyResult, nil
}

func (g *fakeGateway) IssueRefund(_ context.Context, externalID string, amount decimal.Decimal, reason string) (*flutterwave.RefundResult, error) {
	g.refundCalls++
	g.lastRefund.externalID = externalID
	g.lastRefund.amount = amount
	g.lastRefund.reason = reason
	if g.refundErr != nil {
		return nil, g.refundErr
	}
	return g.refundResult, nil
}
