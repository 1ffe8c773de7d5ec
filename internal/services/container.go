package services

// ServiceContainer собирает все сервисы приложения для передачи в хендлеры
type ServiceContainer struct {
	AuthService    AuthService
	PaymentService PaymentService
}
