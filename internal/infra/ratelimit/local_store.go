package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/xavierca1/ligue-leads/internal/clock"
)

type localEntry struct {
	count       int64
	windowStart time.Time
	window      time.Duration
}

// LocalStore é o fallback em memória para rodar sem Redis. Modo degradado
// documentado: cada instância conta sozinha, então com N instâncias o limite
// efetivo é max × N. Um sweeper periódico remove entradas velhas para o mapa
// não crescer sem limite em processo de vida longa.
type LocalStore struct {
	mu      sync.Mutex
	entries map[string]*localEntry
	clock   clock.Clock
}

func NewLocalStore(clk clock.Clock) *LocalStore {
	s := &LocalStore{
		entries: make(map[string]*localEntry),
		clock:   clk,
	}
	go s.sweep()
	return s
}

func (s *LocalStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()

	e, exists := s.entries[key]
	if !exists || now.Sub(e.windowStart) >= e.window {
		s.entries[key] = &localEntry{count: 1, windowStart: now, window: window}
		return 1, window, nil
	}

	e.count++
	resetIn := e.window - now.Sub(e.windowStart)
	return e.count, resetIn, nil
}

func (s *LocalStore) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := s.clock.Now()
		for key, e := range s.entries {
			if now.Sub(e.windowStart) >= e.window*2 {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}
