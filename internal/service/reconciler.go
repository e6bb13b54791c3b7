package service

import (
	"context"
	"time"

	"github.com/voisinage/entraide-backend/internal/goroutine"
	"github.com/voisinage/entraide-backend/internal/logger"
)

// Основная модель истечения — ленивая, при чтении. Фоновая сверка закрывает
// единственный случай, который чтение не покрывает: подтверждённую встречу,
// которую больше никто не открывает и по которой нет ни одного отзыва.
type Reconciler struct {
	offers    *HelpOfferService
	interval  time.Duration
	batchSize int
}

// NewReconciler создаёт фоновую сверку зависших предложений.
func NewReconciler(offers *HelpOfferService, interval time.Duration) *Reconciler {
	return &Reconciler{
		offers:    offers,
		interval:  interval,
		batchSize: 100,
	}
}

// Start запускает цикл сверки; останавливается по отмене контекста.
func (r *Reconciler) Start(ctx context.Context) {
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Log.Info("reconciler: остановлен")
				return
			case <-ticker.C:
				r.runOnce(ctx)
			}
		}
	})
}

func (r *Reconciler) runOnce(ctx context.Context) {
	expired, err := r.offers.ReconcileStalled(ctx, r.batchSize)
	if err != nil {
		logger.Log.WithError(err).Error("reconciler: сверка завершилась с ошибкой")
		return
	}
	if expired > 0 {
		logger.Log.WithField("expired", expired).Info("reconciler: закрыты встречи без отзывов")
	}
}
