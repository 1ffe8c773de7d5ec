package handlers

// AppHandlers собирает все HTTP-хендлеры приложения
type AppHandlers struct {
	AuthHandler    *AuthHandler
	PaymentHandler *PaymentHandler
}
