package services

import (
	"context"
	"errors"
	"time"

	"flowpay_backend/internal/logger"
	"flowpay_backend/internal/models"
	"flowpay_backend/internal/repositories"
	"flowpay_backend/internal/services/flutterwave"
	"flowpay_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Статус, которым шлюз помечает успешно завершенный платеж
const remoteStatusSuccessful = "successful"

const defaultRefundReason = "Standard refund"

// PaymentService - оркестратор платежей. Владеет всеми бизнес-правилами
// жизненного цикла транзакции и гарантиями консистентности между локальной
// записью и состоянием шлюза.
type PaymentService interface {
	// InitiatePayment создает локальную запись и инициирует платеж у шлюза
	InitiatePayment(ctx context.Context, db *gorm.DB, userID string, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error)

	// VerifyTransaction запрашивает у шлюза итоговый статус транзакции
	// и применяет его локально. Идемпотентна по эффекту: повторный вызов
	// при неизменном ответе шлюза переприменяет тот же статус.
	VerifyTransaction(ctx context.Context, db *gorm.DB, reference string) (*models.VerificationResult, error)

	// RefundTransaction выполняет возврат успешной транзакции
	RefundTransaction(ctx context.Context, db *gorm.DB, transactionID, reason string) (*models.RefundResult, error)

	// GetTransaction возвращает транзакцию, видимую данному пользователю
	GetTransaction(db *gorm.DB, userID string, isAdmin bool, transactionID string) (*models.PaymentTransaction, error)

	// GetUserTransactions возвращает транзакции пользователя с фильтрацией
	GetUserTransactions(db *gorm.DB, userID string, filter *models.TransactionFilter) ([]models.PaymentTransaction, error)
}

type paymentService struct {
	transactionRepo repositories.TransactionRepository
	userRepo        repositories.UserRepository
	gateway         flutterwave.Client
	now             func() time.Time
}

// NewPaymentService создает новый экземпляр PaymentService
func NewPaymentService(
	transactionRepo repositories.TransactionRepository,
	userRepo repositories.UserRepository,
	gateway flutterwave.Client,
) PaymentService {
	return &paymentService{
		transactionRepo: transactionRepo,
		userRepo:        userRepo,
		gateway:         gateway,
		now:             time.Now,
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, db *gorm.DB, userID string, req *models.InitiatePaymentRequest) (*models.InitiatePaymentResponse, error) {
	// Схемная валидация уже была на уровне хендлера,
	// здесь переутверждаем инвариант defense-in-depth
	if !req.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidPaymentAmount
	}

	currency := req.Currency
	if currency == "" {
		currency = "USD"
	}

	user, err := s.userRepo.FindByID(db, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	// Reference назначается однократно, до первого сетевого вызова
	reference := GenerateTransactionReference()

	tx := &models.PaymentTransaction{
		UserID:               &user.ID,
		TransactionReference: reference,
		Amount:               req.Amount,
		Currency:             currency,
		Status:               models.TransactionStatusInitiated,
		CustomerEmail:        req.CustomerEmail,
	}

	// Запись коммитится ДО исходящего вызова: упавший сетевой вызов
	// оставляет аудируемую запись INITIATED -> FAILED
	if err := s.transactionRepo.Create(db, tx); err != nil {
		return nil, apperrors.InternalError(err)
	}

	customerEmail := tx.CustomerEmail
	if customerEmail == "" {
		customerEmail = user.Email
	}

	result, gwErr := s.gateway.CreateCharge(ctx, flutterwave.Charge{
		Reference:     reference,
		Amount:        req.Amount,
		Currency:      currency,
		CustomerEmail: customerEmail,
		CustomerName:  user.FullName(),
		UserID:        user.ID,
		TransactionID: tx.ID,
	})

	if gwErr != nil {
		logger.CtxWithError(ctx, "payment initiation failed", gwErr, "reference", reference)

		message, code, raw := gatewayFailure(gwErr)
		if err := s.applyGatewayOutcome(db, tx.ID, models.TransactionStatusFailed, "", raw); err != nil {
			return nil, apperrors.InternalError(err)
		}
		return nil, apperrors.PaymentInitiationError(message, code)
	}

	if err := s.applyGatewayOutcome(db, tx.ID, models.TransactionStatusPending, result.ExternalID, result.Raw); err != nil {
		return nil, apperrors.InternalError(err)
	}

	logger.CtxInfo(ctx, "payment initiated", "reference", reference, "gateway_id", result.ExternalID)

	return &models.InitiatePaymentResponse{
		TransactionReference: reference,
		PaymentLink:          result.CheckoutLink,
	}, nil
}

func (s *paymentService) VerifyTransaction(ctx context.Context, db *gorm.DB, reference string) (*models.VerificationResult, error) {
	var verification *models.VerificationResult
	var opErr error

	// Вся read-modify-write секция выполняется под блокировкой строки:
	// два конкурентных verify по одному reference сериализуются на БД,
	// и записанный статус отражает последний наблюдаемый ответ шлюза.
	err := db.Transaction(func(txn *gorm.DB) error {
		tx, err := s.transactionRepo.FindByReferenceForUpdate(txn, reference)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				opErr = apperrors.ErrTransactionNotFound
				return nil
			}
			return err
		}

		// Инициация не дошла до шлюза - верифицировать нечего
		if tx.GatewayTransactionID == "" {
			opErr = apperrors.PaymentVerificationError(
				"Transaction has no gateway identifier", apperrors.CodePaymentVerificationFailed)
			return nil
		}

		result, gwErr := s.gateway.VerifyCharge(ctx, tx.GatewayTransactionID)
		if gwErr != nil {
			logger.CtxWithError(ctx, "transaction verification failed", gwErr, "reference", reference)

			message, code, raw := gatewayFailure(gwErr)
			tx.Status = models.TransactionStatusFailed
			if len(raw) > 0 {
				tx.RawResponse = datatypes.JSON(raw)
			}
			if err := s.transactionRepo.Save(txn, tx); err != nil {
				return err
			}
			opErr = apperrors.PaymentVerificationError(message, code)
			return nil
		}

		if result.RemoteStatus == remoteStatusSuccessful {
			tx.Status = models.TransactionStatusSuccessful
		} else {
			tx.Status = models.TransactionStatusFailed
		}
		tx.RawResponse = datatypes.JSON(result.Raw)

		if err := s.transactionRepo.Save(txn, tx); err != nil {
			return err
		}

		verification = &models.VerificationResult{
			TransactionReference: tx.TransactionReference,
			Status:               tx.Status,
			Amount:               tx.Amount,
			Currency:             tx.Currency,
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if opErr != nil {
		return nil, opErr
	}

	logger.CtxInfo(ctx, "transaction verified", "reference", reference, "status", verification.Status)
	return verification, nil
}

func (s *paymentService) RefundTransaction(ctx context.Context, db *gorm.DB, transactionID, reason string) (*models.RefundResult, error) {
	if reason == "" {
		reason = defaultRefundReason
	}

	var refund *models.RefundResult
	var opErr error

	// Блокировка строки не дает двум конкурентным возвратам одной
	// транзакции обоим пройти проверку статуса SUCCESSFUL
	err := db.Transaction(func(txn *gorm.DB) error {
		tx, err := s.transactionRepo.FindByIDForUpdate(txn, transactionID)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				opErr = apperrors.ErrTransactionNotFound
				return nil
			}
			return err
		}

		// Оба предусловия проверяются до какого-либо вызова шлюза
		if tx.Status != models.TransactionStatusSuccessful {
			opErr = apperrors.ErrInvalidRefundStatus
			return nil
		}
		if s.now().Sub(tx.CreatedAt) > models.RefundWindow {
			opErr = apperrors.ErrRefundTimeout
			return nil
		}

		result, gwErr := s.gateway.IssueRefund(ctx, tx.GatewayTransactionID, tx.Amount, reason)
		if gwErr != nil {
			logger.CtxWithError(ctx, "refund failed", gwErr, "transaction_id", transactionID)

			// Статус не меняется - повторная попытка возврата разрешена.
			// Сырой ответ сохраняем для аудита.
			message, code, raw := gatewayFailure(gwErr)
			if len(raw) > 0 {
				tx.RawResponse = datatypes.JSON(raw)
				if err := s.transactionRepo.Save(txn, tx); err != nil {
					return err
				}
			}
			opErr = apperrors.RefundError(message, code)
			return nil
		}

		tx.Status = models.TransactionStatusRefunded
		tx.RawResponse = datatypes.JSON(result.Raw)
		if err := s.transactionRepo.Save(txn, tx); err != nil {
			return err
		}

		refund = &models.RefundResult{
			TransactionReference: tx.TransactionReference,
			RefundStatus:         string(models.TransactionStatusSuccessful),
			Amount:               tx.Amount,
			Currency:             tx.Currency,
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	if opErr != nil {
		return nil, opErr
	}

	logger.CtxInfo(ctx, "transaction refunded", "transaction_id", transactionID)
	return refund, nil
}

func (s *paymentService) GetTransaction(db *gorm.DB, userID string, isAdmin bool, transactionID string) (*models.PaymentTransaction, error) {
	tx, err := s.transactionRepo.FindByID(db, transactionID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.InternalError(err)
	}

	// Чужие транзакции для не-админа неотличимы от несуществующих
	if !isAdmin && (tx.UserID == nil || *tx.UserID != userID) {
		return nil, apperrors.ErrTransactionNotFound
	}

	return tx, nil
}

func (s *paymentService) GetUserTransactions(db *gorm.DB, userID string, filter *models.TransactionFilter) ([]models.PaymentTransaction, error) {
	txs, err := s.transactionRepo.FindByUserID(db, userID, filter)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}
	return txs, nil
}

// applyGatewayOutcome фиксирует результат обмена со шлюзом под блокировкой
// строки: статус, идентификатор шлюза и сырой ответ
func (s *paymentService) applyGatewayOutcome(db *gorm.DB, transactionID string, status models.TransactionStatus, gatewayID string, raw []byte) error {
	return db.Transaction(func(txn *gorm.DB) error {
		tx, err := s.transactionRepo.FindByIDForUpdate(txn, transactionID)
		if err != nil {
			return err
		}

		tx.Status = status
		if gatewayID != "" {
			tx.GatewayTransactionID = gatewayID
		}
		if len(raw) > 0 {
			tx.RawResponse = datatypes.JSON(raw)
		}

		return s.transactionRepo.Save(txn, tx)
	})
}

// gatewayFailure извлекает сообщение, код и сырое тело из ошибки шлюза
func gatewayFailure(err error) (message string, code apperrors.ErrorCode, raw []byte) {
	var gwErr *flutterwave.GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Message, apperrors.ErrorCode(gwErr.Code), gwErr.Raw
	}
	return err.Error(), "", nil
}
