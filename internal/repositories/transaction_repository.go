package repositories

import (
	"errors"
	"time"

	"flowpay_backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrTransactionNotFound возвращается, когда транзакция не найдена в БД
	ErrTransactionNotFound = errors.New("payment transaction not found")
)

// TransactionRepository определяет интерфейс для операций с платежными транзакциями
type TransactionRepository interface {
	// Create создает новую запись транзакции
	Create(db *gorm.DB, tx *models.PaymentTransaction) error

	// FindByReference находит транзакцию по уникальному reference
	FindByReference(db *gorm.DB, reference string) (*models.PaymentTransaction, error)

	// FindByReferenceForUpdate находит транзакцию по reference с блокировкой строки.
	// Вызывается только внутри db.Transaction - блокировка держится до коммита.
	FindByReferenceForUpdate(db *gorm.DB, reference string) (*models.PaymentTransaction, error)

	// FindByID находит транзакцию по локальному id
	FindByID(db *gorm.DB, id string) (*models.PaymentTransaction, error)

	// FindByIDForUpdate находит транзакцию по id с блокировкой строки
	FindByIDForUpdate(db *gorm.DB, id string) (*models.PaymentTransaction, error)

	// FindByUserID возвращает транзакции пользователя, новые первыми
	FindByUserID(db *gorm.DB, userID string, filter *models.TransactionFilter) ([]models.PaymentTransaction, error)

	// FindStalePending возвращает PENDING-транзакции, не обновлявшиеся с
	// указанного момента. Используется фоновой сверкой со шлюзом.
	FindStalePending(db *gorm.DB, updatedBefore time.Time, limit int) ([]models.PaymentTransaction, error)

	// Save сохраняет измененную транзакцию
	Save(db *gorm.DB, tx *models.PaymentTransaction) error
}

type transactionRepository struct {
}

// NewTransactionRepository создает новый экземпляр TransactionRepository
func NewTransactionRepository() TransactionRepository {
	return &transactionRepository{}
}

func (r *transactionRepository) Create(db *gorm.DB, tx *models.PaymentTransaction) error {
	return db.Create(tx).Error
}

func (r *transactionRepository) FindByReference(db *gorm.DB, reference string) (*models.PaymentTransaction, error) {
	return r.findOne(db, "transaction_reference = ?", reference)
}

func (r *transactionRepository) FindByReferenceForUpdate(db *gorm.DB, reference string) (*models.PaymentTransaction, error) {
	return r.findOne(db.Clauses(clause.Locking{Strength: "UPDATE"}), "transaction_reference = ?", reference)
}

func (r *transactionRepository) FindByID(db *gorm.DB, id string) (*models.PaymentTransaction, error) {
	return r.findOne(db, "id = ?", id)
}

func (r *transactionRepository) FindByIDForUpdate(db *gorm.DB, id string) (*models.PaymentTransaction, error) {
	return r.findOne(db.Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *transactionRepository) findOne(db *gorm.DB, query string, arg interface{}) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	if err := db.Where(query, arg).First(&tx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &tx, nil
}

func (r *transactionRepository) FindByUserID(db *gorm.DB, userID string, filter *models.TransactionFilter) ([]models.PaymentTransaction, error) {
	q := db.Where("user_id = ?", userID)

	if filter != nil {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Currency != "" {
			q = q.Where("currency = ?", filter.Currency)
		}
	}

	var txs []models.PaymentTransaction
	if err := q.Order("created_at DESC").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *transactionRepository) FindStalePending(db *gorm.DB, updatedBefore time.Time, limit int) ([]models.PaymentTransaction, error) {
	var txs []models.PaymentTransaction
	err := db.
		Where("status = ?", models.TransactionStatusPending).
		Where("updated_at < ?", updatedBefore).
		Order("updated_at ASC").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *transactionRepository) Save(db *gorm.DB, tx *models.PaymentTransaction) error {
	if !tx.Status.IsValid() {
		return errors.New("invalid transaction status: " + string(tx.Status))
	}
	return db.Save(tx).Error
}
