package usecase

import (
	"context"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/idempotency"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/infra/ratelimit"
	"github.com/xavierca1/ligue-leads/internal/infra/sms"
)

type CaptureLeadInput struct {
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Phone    string            `json:"phone,omitempty"`
	Message  string            `json:"message,omitempty"`
	Page     string            `json:"page,omitempty"`
	Referrer string            `json:"referrer,omitempty"`
	UTM      map[string]string `json:"utm,omitempty"`

	// Website é o honeypot do form. Humano não enxerga, bot preenche.
	Website string `json:"website,omitempty"`

	// RenderedAt (RFC3339) é quando a página renderizou o form.
	RenderedAt string `json:"rendered_at,omitempty"`
}

type CaptureLeadOutput struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`

	Duplicate bool `json:"-"`
}

type RateLimiter interface {
	Check(ctx context.Context, identity string) (ratelimit.Result, error)
}

type IdempotencyResolver interface {
	Claim(ctx context.Context, key, leadID, status string) (idempotency.Claim, error)
	Release(ctx context.Context, key string) error
}

// LeadScorer é o enriquecimento opcional de score. Opaco e best-effort:
// falha dele nunca derruba o intake.
type LeadScorer interface {
	Score(ctx context.Context, lead *entity.Lead) (int, error)
}

type EventPublisher interface {
	PublishLeadCreated(ctx context.Context, event queue.LeadEvent) error
}

type EmailSenderInterface interface {
	SendLeadNotification(to, subject string, data mail.LeadNotificationData) mail.SendResult
}

type SmsSenderInterface interface {
	Send(ctx context.Context, phone, text string) sms.SendResult
}

// InternalRecipientSource resolve a lista fixa de destinatários internos/ops
// (lookup cacheado por 60s no config store).
type InternalRecipientSource interface {
	Recipients() ([]entity.Membership, error)
}
