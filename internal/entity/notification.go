package entity

import (
	"context"
	"time"
)

const (
	ChannelEmail = "EMAIL"
	ChannelSms   = "SMS"
)

const (
	AttemptOutcomeSent   = "SENT"
	AttemptOutcomeFailed = "FAILED"
)

// NotificationAttempt registra UMA tentativa de envio (lead, canal, destinatário).
// Append-only: nunca é atualizado, serve de auditoria.
type NotificationAttempt struct {
	ID                string    `json:"id"`
	LeadID            string    `json:"lead_id"`
	Channel           string    `json:"channel"` // EMAIL, SMS
	RecipientID       string    `json:"recipient_id"`
	RecipientAddress  string    `json:"recipient_address"`
	Outcome           string    `json:"outcome"` // SENT, FAILED
	ProviderMessageID string    `json:"provider_message_id,omitempty"`
	Error             string    `json:"error,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	ExpiresAt         time.Time `json:"expires_at"` // retenção de ~90 dias
}

type NotificationAttemptRepositoryInterface interface {
	Create(ctx context.Context, attempt *NotificationAttempt) error
	ListByLead(ctx context.Context, leadID string) ([]NotificationAttempt, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
