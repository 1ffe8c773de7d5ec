package models

type UserStatus string
type UserRole string
type TransactionStatus string
type PaymentMethod string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"

	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

// Жизненный цикл платежной транзакции:
// INITIATED -> PENDING -> {SUCCESSFUL | FAILED}; SUCCESSFUL -> REFUNDED.
// INITIATED -> FAILED возможен напрямую, если сам вызов инициации упал.
// FAILED и REFUNDED - терминальные.
const (
	TransactionStatusInitiated  TransactionStatus = "INITIATED"
	TransactionStatusPending    TransactionStatus = "PENDING"
	TransactionStatusSuccessful TransactionStatus = "SUCCESSFUL"
	TransactionStatusFailed     TransactionStatus = "FAILED"
	TransactionStatusRefunded   TransactionStatus = "REFUNDED"
)

const (
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodUSSD         PaymentMethod = "USSD"
)

// IsValid проверяет, что статус входит в закрытое множество
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusInitiated, TransactionStatusPending,
		TransactionStatusSuccessful, TransactionStatusFailed,
		TransactionStatusRefunded:
		return true
	}
	return false
}

// CanTransitionTo проверяет допустимость перехода по state machine.
// Переходы только вперед; из терминальных состояний выхода нет, кроме
// SUCCESSFUL -> REFUNDED.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case TransactionStatusInitiated:
		return next == TransactionStatusPending || next == TransactionStatusFailed
	case TransactionStatusPending:
		return next == TransactionStatusSuccessful || next == TransactionStatusFailed
	case TransactionStatusSuccessful:
		// Повторная верификация может переутвердить тот же статус
		return next == TransactionStatusRefunded ||
			next == TransactionStatusSuccessful ||
			next == TransactionStatusFailed
	case TransactionStatusFailed:
		// Идемпотентная верификация переприменяет FAILED
		return next == TransactionStatusFailed ||
			next == TransactionStatusSuccessful
	}
	return false
}
