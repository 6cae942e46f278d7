package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

const internalRecipientsKey = "INTERNAL_RECIPIENTS"

// InternalRecipients resolve a lista fixa de destinatários internos/ops do
// config store (aqui, env), com lookup cacheado por 60 segundos.
type InternalRecipients struct {
	cache *Cache
}

func NewInternalRecipients(clk clock.Clock) *InternalRecipients {
	return &InternalRecipients{
		cache: NewCache(60*time.Second, clk),
	}
}

func (s *InternalRecipients) Recipients() ([]entity.Membership, error) {
	raw, err := s.cache.Get(internalRecipientsKey, func() (string, error) {
		value := os.Getenv(internalRecipientsKey)
		if value == "" {
			return "[]", nil
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}

	var recipients []entity.Membership
	if err := json.Unmarshal([]byte(raw), &recipients); err != nil {
		return nil, fmt.Errorf("INTERNAL_RECIPIENTS inválido: %w", err)
	}

	return recipients, nil
}
