package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

// Общие, не-доменные коды ошибок
const (
	// Системные и неизвестные ошибки
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
	CodeUnknownError         ErrorCode = "UNKNOWN_ERROR"

	// Общие ошибки бизнес-логики
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"

	// Аутентификация и авторизация
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"
)

// Коды платежного домена. Большинство приходит из шлюза как есть,
// эти - фиксированные fallback-коды на каждую точку отказа.
const (
	CodePaymentInitiationFailed   ErrorCode = "PAYMENT_INITIATION_FAILED"
	CodePaymentVerificationFailed ErrorCode = "PAYMENT_VERIFICATION_FAILED"
	CodeTransactionNotFound       ErrorCode = "TRANSACTION_NOT_FOUND"
	CodeRefundFailed              ErrorCode = "REFUND_FAILED"
	CodeInvalidRefundStatus       ErrorCode = "INVALID_REFUND_STATUS"
	CodeRefundTimeout             ErrorCode = "REFUND_TIMEOUT"
	CodeInvalidPaymentAmount      ErrorCode = "INVALID_PAYMENT_AMOUNT"
)
