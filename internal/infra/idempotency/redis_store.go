package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultTTL = 24 * time.Hour

type Claim struct {
	IsDuplicate bool   `json:"is_duplicate"`
	LeadID      string `json:"lead_id"`
	Status      string `json:"status"`
}

type record struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
}

// RedisStore resolve a claim com UM write condicional (SetNX). Nada de
// read-then-write: duas submissões idênticas concorrentes resolvem
// deterministicamente para um vencedor só.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Claim(ctx context.Context, key, leadID, status string) (Claim, error) {
	body, err := json.Marshal(record{LeadID: leadID, Status: status})
	if err != nil {
		return Claim{}, fmt.Errorf("marshal do registro de idempotência: %w", err)
	}

	redisKey := "idempotency:" + key

	created, err := s.client.SetNX(ctx, redisKey, body, s.ttl).Result()
	if err != nil {
		return Claim{}, fmt.Errorf("claim de idempotência: %w", err)
	}

	if created {
		return Claim{IsDuplicate: false, LeadID: leadID, Status: status}, nil
	}

	// Perdemos a corrida: devolve o resultado do vencedor para a camada HTTP
	// responder igualzinho à primeira chamada.
	data, err := s.client.Get(ctx, redisKey).Bytes()
	if err == redis.Nil {
		// Registro expirou entre o SetNX e o Get (janela sub-milissegundo).
		// Tratar como novo: aceitar um lead a mais ganha de perder um.
		return Claim{IsDuplicate: false, LeadID: leadID, Status: status}, nil
	}
	if err != nil {
		return Claim{}, fmt.Errorf("leitura do registro de idempotência: %w", err)
	}

	var winner record
	if err := json.Unmarshal(data, &winner); err != nil {
		return Claim{}, fmt.Errorf("registro de idempotência corrompido: %w", err)
	}

	return Claim{IsDuplicate: true, LeadID: winner.LeadID, Status: winner.Status}, nil
}

// Release apaga uma claim ganha cuja gravação durável falhou depois. Só o
// vencedor do SetNX chama isso; sem a compensação, o retry do cliente
// colapsaria num lead fantasma pelas próximas 24h.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, "idempotency:"+key).Err()
}
