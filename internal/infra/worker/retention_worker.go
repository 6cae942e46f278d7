package worker

import (
	"context"
	"log"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

// RetentionWorker varre tentativas de notificação vencidas (~90 dias) e
// apaga. Idempotência e rate limit expiram via TTL nativo do Redis, então só
// a tabela de auditoria precisa de sweeper.
type RetentionWorker struct {
	attempts     entity.NotificationAttemptRepositoryInterface
	tickInterval time.Duration
}

func NewRetentionWorker(attempts entity.NotificationAttemptRepositoryInterface) *RetentionWorker {
	return &RetentionWorker{
		attempts:     attempts,
		tickInterval: 1 * time.Hour,
	}
}

func (w *RetentionWorker) Start(ctx context.Context) {
	log.Println("🕒 Retention Worker iniciado (notification_attempts)")

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("⚠️ Retention Worker encerrado")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *RetentionWorker) sweep(ctx context.Context) {
	deleted, err := w.attempts.DeleteExpired(ctx, time.Now())
	if err != nil {
		log.Printf("❌ Erro ao apagar tentativas expiradas: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("✅ %d tentativa(s) de notificação expiradas removidas", deleted)
	}
}
