package apperrors

import (
	"net/http"
)

/*
Ошибки платежного домена.

Каждая операция оркестратора (инициация, верификация, возврат) имеет свой
вид ошибки. Код берется из ответа шлюза, когда он есть, иначе - фиксированный
fallback. Наружу уходит только AppError: ошибки транспорта и шлюза не
пересекают границу сервисного слоя.
*/

// PaymentInitiationError - шлюз отклонил создание платежа, либо сетевой
// сбой во время инициации (400)
func PaymentInitiationError(message string, code ErrorCode) *AppError {
	if code == "" {
		code = CodePaymentInitiationFailed
	}
	return New(code, "payments", message, http.StatusBadRequest)
}

// PaymentVerificationError - шлюз отклонил или провалил проверку транзакции (400)
func PaymentVerificationError(message string, code ErrorCode) *AppError {
	if code == "" {
		code = CodePaymentVerificationFailed
	}
	return New(code, "payments", message, http.StatusBadRequest)
}

// RefundError - возврат невозможен или отклонен шлюзом (400)
func RefundError(message string, code ErrorCode) *AppError {
	if code == "" {
		code = CodeRefundFailed
	}
	return New(code, "payments", message, http.StatusBadRequest)
}

// Предопределенные ошибки платежного домена
var (
	// ErrTransactionNotFound - локальная запись по reference не найдена
	ErrTransactionNotFound = New(
		CodeTransactionNotFound,
		"payments",
		"Transaction not found",
		http.StatusNotFound,
	)

	// ErrInvalidRefundStatus - возврат возможен только из статуса SUCCESSFUL
	ErrInvalidRefundStatus = New(
		CodeInvalidRefundStatus,
		"payments",
		"Only successful transactions can be refunded",
		http.StatusBadRequest,
	)

	// ErrRefundTimeout - окно возврата (30 дней) истекло
	ErrRefundTimeout = New(
		CodeRefundTimeout,
		"payments",
		"Refund window has expired",
		http.StatusBadRequest,
	)

	// ErrInvalidPaymentAmount - сумма платежа должна быть > 0
	ErrInvalidPaymentAmount = New(
		CodeInvalidPaymentAmount,
		"payments",
		"Payment amount must be greater than zero",
		http.StatusBadRequest,
	)
)
