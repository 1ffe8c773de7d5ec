package app

import (
	"context"
	"errors"
	"fmt"

	"flowpay_backend/database"
	"flowpay_backend/internal/auth"
	"flowpay_backend/internal/config"
	"flowpay_backend/internal/handlers"
	"flowpay_backend/internal/logger"
	"flowpay_backend/internal/middleware"
	"flowpay_backend/internal/models"
	"flowpay_backend/internal/repositories"
	"flowpay_backend/internal/routes"
	"flowpay_backend/internal/services"
	"flowpay_backend/internal/services/flutterwave"
	"flowpay_backend/internal/validator"
	"flowpay_backend/internal/workers"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Run() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger.Init(cfg.Server.Env)
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	logger.Info("Connecting to database...")
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to GORM", "error", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatal("Failed to get *sql.DB from GORM", "error", err)
	}
	if err = sqlDB.Ping(); err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	logger.Info("Database connected")

	if err := database.AutoMigrate(gormDB); err != nil {
		logger.Fatal("Failed to run migrations", "error", err)
	}

	if err := seedFirstAdmin(gormDB, cfg); err != nil {
		// Без админа возвраты недоступны - не запускаем сервер
		logger.Fatal("Failed to seed first admin user", "error", err)
	}

	ginRouter, container := SetupRouter(cfg, gormDB)

	// Фоновая сверка зависших PENDING-транзакций со шлюзом
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	workers.NewReconcileWorker(gormDB, repositories.NewTransactionRepository(), container.PaymentService).Start(workerCtx)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info(fmt.Sprintf("Server starting on %s", address))
	if err := ginRouter.Run(address); err != nil {
		logger.Fatal("Server startup error", "error", err)
	}
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB) (*gin.Engine, *services.ServiceContainer) {
	gatewayClient := flutterwave.NewClient(flutterwave.Config{
		BaseURL:     cfg.Flutterwave.BaseURL,
		SecretKey:   cfg.Flutterwave.SecretKey,
		RedirectURL: cfg.Flutterwave.RedirectURL,
		Timeout:     cfg.GatewayTimeout(),
	})
	logger.Info("Flutterwave client initialized", "base_url", cfg.Flutterwave.BaseURL)

	serviceContainer := initializeServices(cfg, gatewayClient)
	appHandlers := initializeHandlers(serviceContainer)

	ginRouter := initializeGinRouter(gormDB)
	routes.RegisterRoutes(ginRouter, appHandlers)

	return ginRouter, serviceContainer
}

func initializeServices(cfg *config.Config, gatewayClient flutterwave.Client) *services.ServiceContainer {
	userRepo := repositories.NewUserRepository()
	transactionRepo := repositories.NewTransactionRepository()

	authService := services.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.TTL)
	paymentService := services.NewPaymentService(transactionRepo, userRepo, gatewayClient)

	return &services.ServiceContainer{
		AuthService:    authService,
		PaymentService: paymentService,
	}
}

func initializeHandlers(services *services.ServiceContainer) *handlers.AppHandlers {
	customValidator := validator.New()
	baseHandler := handlers.NewBaseHandler(customValidator)

	return &handlers.AppHandlers{
		AuthHandler:    handlers.NewAuthHandler(baseHandler, services.AuthService),
		PaymentHandler: handlers.NewPaymentHandler(baseHandler, services.PaymentService),
	}
}

func initializeGinRouter(db *gorm.DB) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DBMiddleware(db))
	return router
}

func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	adminEmail := cfg.FirstAdminEmail
	adminPassword := cfg.FirstAdminPassword

	if adminEmail == "" || adminPassword == "" {
		logger.Warn("FIRST_ADMIN_EMAIL or FIRST_ADMIN_PASSWORD is not set. Skipping admin seeding.")
		return nil
	}

	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	defer tx.Rollback()

	var adminUser models.User
	result := tx.Where("email = ?", adminEmail).First(&adminUser)

	if result.Error == nil {
		logger.Info("Admin user already exists. Skipping creation.", "email", adminEmail)
		tx.Rollback()
		return nil
	}

	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", result.Error)
	}

	logger.Warn("No admin user found with specified email. Creating first admin...", "email", adminEmail)

	hashedPassword, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	newAdmin := &models.User{
		Email:        adminEmail,
		PasswordHash: hashedPassword,
		Role:         models.UserRoleAdmin,
		Status:       models.UserStatusActive,
	}

	if err := tx.Create(newAdmin).Error; err != nil {
		return fmt.Errorf("failed to create admin user in database: %w", err)
	}

	logger.Info("Successfully created first admin user", "email", adminEmail)

	return tx.Commit().Error
}
