package secrets

import (
	"sync"
	"time"

	"github.com/xavierca1/ligue-leads/internal/clock"
)

type entry struct {
	value     string
	fetchedAt time.Time
}

// Cache guarda valores de config/secrets por um TTL curto: evita lookup a cada
// uso mas limita o estrago de uma rotação de credencial. 60s para a lista de
// destinatários internos, 5min para credenciais de SMS.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	clock   clock.Clock
	entries map[string]entry
}

func NewCache(ttl time.Duration, clk clock.Clock) *Cache {
	return &Cache{
		ttl:     ttl,
		clock:   clk,
		entries: make(map[string]entry),
	}
}

// Get devolve o valor cacheado ou chama load para renovar. Se o load falhar e
// existir valor velho, o valor velho é devolvido: melhor servir credencial
// de 5 minutos atrás do que derrubar o envio.
func (c *Cache) Get(key string, load func() (string, error)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()

	if e, ok := c.entries[key]; ok && now.Sub(e.fetchedAt) < c.ttl {
		return e.value, nil
	}

	value, err := load()
	if err != nil {
		if e, ok := c.entries[key]; ok {
			return e.value, nil
		}
		return "", err
	}

	c.entries[key] = entry{value: value, fetchedAt: now}
	return value, nil
}
