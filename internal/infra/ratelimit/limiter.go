package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Store é o contador compartilhado por trás do limiter. Implementações:
// RedisStore (padrão, compartilhado entre instâncias) e LocalStore (modo
// degradado: o limite efetivo vira max × número de instâncias).
type Store interface {
	// Incr incrementa o contador da chave e devolve o valor atual e quanto
	// falta para a janela expirar. Na primeira chamada inicia a janela.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, resetIn time.Duration, err error)
}

type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Limiter aplica janela fixa: aceita um burst de até 2× o limite na virada de
// janela, troca consciente de precisão por custo (um INCR por request).
// Namespaces distintos (lead, admin-query, export) nunca dividem chave.
type Limiter struct {
	store     Store
	namespace string
	window    time.Duration
	max       int
}

func NewLimiter(store Store, namespace string, window time.Duration, max int) *Limiter {
	return &Limiter{store: store, namespace: namespace, window: window, max: max}
}

// Check é fail-closed: se o store estiver fora, devolve não-permitido E o erro,
// nunca deixa passar em silêncio.
func (l *Limiter) Check(ctx context.Context, identity string) (Result, error) {
	key := fmt.Sprintf("ratelimit:%s:%s", l.namespace, identity)

	count, resetIn, err := l.store.Incr(ctx, key, l.window)
	if err != nil {
		return Result{Allowed: false}, fmt.Errorf("rate limit store: %w", err)
	}

	remaining := l.max - int(count)
	if remaining < 0 {
		remaining = 0
	}

	return Result{
		Allowed:   count <= int64(l.max),
		Remaining: remaining,
		ResetIn:   resetIn,
	}, nil
}

func (l *Limiter) Window() time.Duration {
	return l.window
}
