package workers

import (
	"context"
	"time"

	"flowpay_backend/internal/logger"
	"flowpay_backend/internal/repositories"
	"flowpay_backend/internal/services"

	"gorm.io/gorm"
)

// Сколько транзакций сверяется за один проход
const reconcileBatchSize = 50

// ReconcileWorker - фоновая сверка со шлюзом. Клиент может закрыть
// checkout-страницу до redirect'а, тогда verify никто не вызовет и
// транзакция навсегда останется в PENDING. Воркер периодически
// переверифицирует такие записи; verify идемпотентна, поэтому
// пересечение с пользовательским verify безопасно.
type ReconcileWorker struct {
	db              *gorm.DB
	transactionRepo repositories.TransactionRepository
	payments        services.PaymentService

	// Интервал между проходами и минимальный возраст записи для сверки
	Interval   time.Duration
	StaleAfter time.Duration
}

func NewReconcileWorker(db *gorm.DB, transactionRepo repositories.TransactionRepository, payments services.PaymentService) *ReconcileWorker {
	return &ReconcileWorker{
		db:              db,
		transactionRepo: transactionRepo,
		payments:        payments,
		Interval:        15 * time.Minute,
		StaleAfter:      time.Hour,
	}
}

// Start запускает фоновую сверку. Останавливается через ctx.
func (w *ReconcileWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *ReconcileWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep переверифицирует один батч зависших PENDING-транзакций
func (w *ReconcileWorker) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-w.StaleAfter)

	stale, err := w.transactionRepo.FindStalePending(w.db, cutoff, reconcileBatchSize)
	if err != nil {
		logger.CtxWithError(ctx, "reconcile sweep failed to list stale transactions", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	logger.CtxInfo(ctx, "reconciling stale pending transactions", "count", len(stale))

	for _, tx := range stale {
		result, err := w.payments.VerifyTransaction(ctx, w.db, tx.TransactionReference)
		if err != nil {
			// Ошибка по одной записи не прерывает проход
			logger.CtxWithError(ctx, "reconcile verification failed", err,
				"reference", tx.TransactionReference)
			continue
		}
		logger.CtxInfo(ctx, "transaction reconciled",
			"reference", tx.TransactionReference, "status", result.Status)
	}
}
