package usecase

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
	"github.com/xavierca1/ligue-leads/internal/security"
)

type CaptureLeadUseCase struct {
	Leads       entity.LeadRepositoryInterface
	Analyzer    *security.Analyzer
	Limiter     RateLimiter
	Idempotency IdempotencyResolver
	Scorer      LeadScorer // opcional
	Publisher   EventPublisher
}

func NewCaptureLeadUseCase(
	leads entity.LeadRepositoryInterface,
	analyzer *security.Analyzer,
	limiter RateLimiter,
	idempotencyResolver IdempotencyResolver,
	scorer LeadScorer,
	publisher EventPublisher,
) *CaptureLeadUseCase {
	return &CaptureLeadUseCase{
		Leads:       leads,
		Analyzer:    analyzer,
		Limiter:     limiter,
		Idempotency: idempotencyResolver,
		Scorer:      scorer,
		Publisher:   publisher,
	}
}

// Execute roda o pipeline de intake: valida → analisa → rate limit →
// idempotência → score opcional → grava → publica evento. A ordem importa:
// lead suspeito ainda passa por rate limit e idempotência, então quarentena
// não serve de bypass de throttling.
func (uc *CaptureLeadUseCase) Execute(ctx context.Context, input CaptureLeadInput, clientIP string) (*CaptureLeadOutput, error) {
	validationErrors := ValidateCaptureLeadInput(input)
	if len(validationErrors) > 0 {
		fields := make(map[string]string, len(validationErrors))
		for _, e := range validationErrors {
			fields[e.Field] = e.Message
		}
		return nil, &DomainError{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Fields:  fields,
		}
	}

	input = NormalizeCaptureLeadInput(input)

	analysis := uc.Analyzer.Analyze(security.Submission{
		Email:      input.Email,
		Referrer:   input.Referrer,
		UTM:        input.UTM,
		Website:    input.Website,
		RenderedAt: input.RenderedAt,
	}, clientIP)

	// Fail-closed: store do contador fora do ar = request negada com erro
	// retryable, nunca permitida em silêncio.
	limit, err := uc.Limiter.Check(ctx, analysis.HashedIP)
	if err != nil {
		return nil, &TechnicalError{
			Code:    "RATE_LIMIT_UNAVAILABLE",
			Message: "rate limit check failed: " + err.Error(),
		}
	}
	if !limit.Allowed {
		return nil, &DomainError{
			Code:              "RATE_LIMITED",
			Message:           "too many submissions, try again later",
			RetryAfterSeconds: int(math.Ceil(limit.ResetIn.Seconds())),
		}
	}

	status := entity.LeadStatusAccepted
	if analysis.Verdict.Suspicious {
		status = entity.LeadStatusQuarantined
	}

	leadID := uuid.New().String()

	// Um write condicional resolve a corrida de submissões idênticas
	// concorrentes: só um vencedor, e o perdedor responde igual ao vencedor.
	claim, err := uc.Idempotency.Claim(ctx, analysis.IdempotencyKey, leadID, status)
	if err != nil {
		return nil, &TechnicalError{
			Code:    "IDEMPOTENCY_UNAVAILABLE",
			Message: "idempotency claim failed: " + err.Error(),
		}
	}
	if claim.IsDuplicate {
		log.Printf("🔁 Submissão duplicada colapsada no lead %s", claim.LeadID)
		return &CaptureLeadOutput{LeadID: claim.LeadID, Status: claim.Status, Duplicate: true}, nil
	}

	lead := &entity.Lead{
		ID:               leadID,
		Name:             input.Name,
		Email:            input.Email,
		Phone:            input.Phone,
		Message:          input.Message,
		Page:             input.Page,
		Referrer:         input.Referrer,
		UTM:              input.UTM,
		HashedEmail:      analysis.HashedEmail,
		HashedIP:         analysis.HashedIP,
		Suspicious:       analysis.Verdict.Suspicious,
		SuspicionReasons: analysis.Verdict.Reasons,
		Status:           status,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}

	// Scoring é enriquecimento best-effort: falhou, loga e segue sem score.
	if uc.Scorer != nil {
		if score, err := uc.Scorer.Score(ctx, lead); err != nil {
			log.Printf("⚠️ Scoring falhou para lead %s: %v", leadID, err)
		} else {
			lead.Score = &score
		}
	}

	if err := uc.Leads.Create(ctx, lead); err != nil {
		// Compensação: a claim foi ganha mas o write durável falhou. Sem
		// soltar a claim, o retry do cliente colapsaria num lead que nunca
		// existiu. Falha do Del fica no log; o TTL ainda limpa no pior caso.
		if relErr := uc.Idempotency.Release(ctx, analysis.IdempotencyKey); relErr != nil {
			log.Printf("❌ Falha ao liberar claim de idempotência do lead %s: %v", leadID, relErr)
		}
		return nil, &TechnicalError{
			Code:    "DATABASE_ERROR",
			Message: "failed to persist lead: " + err.Error(),
		}
	}

	// Fire-and-forget: o sucesso da request não depende da notificação
	// downstream. Erro aqui é logado e a resposta segue 201.
	if uc.Publisher != nil {
		event := queue.LeadEvent{
			LeadID:     lead.ID,
			Status:     lead.Status,
			Suspicious: lead.Suspicious,
			OccurredAt: lead.CreatedAt,
		}
		if err := uc.Publisher.PublishLeadCreated(ctx, event); err != nil {
			log.Printf("⚠️ Falha ao publicar lead.created para %s: %v", leadID, err)
		}
	}

	return &CaptureLeadOutput{LeadID: lead.ID, Status: lead.Status}, nil
}
