package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/xavierca1/ligue-leads/internal/clock"
	"github.com/xavierca1/ligue-leads/internal/entity"
	"github.com/xavierca1/ligue-leads/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-leads/internal/infra/mail"
	"github.com/xavierca1/ligue-leads/internal/infra/queue"
)

const DefaultAttemptRetention = 90 * 24 * time.Hour

// ChannelFlags liga/desliga cada canal de saída. Canal desligado não envia
// nem registra tentativa.
type ChannelFlags struct {
	EmailEnabled bool
	SmsEnabled   bool
}

type DispatchNotificationUseCase struct {
	Leads    entity.LeadRepositoryInterface
	Orgs     entity.OrgRepositoryInterface
	Attempts entity.NotificationAttemptRepositoryInterface
	Email    EmailSenderInterface
	SMS      SmsSenderInterface
	Internal InternalRecipientSource
	Flags    ChannelFlags
	Clock    clock.Clock

	AttemptRetention time.Duration
}

func NewDispatchNotificationUseCase(
	leads entity.LeadRepositoryInterface,
	orgs entity.OrgRepositoryInterface,
	attempts entity.NotificationAttemptRepositoryInterface,
	email EmailSenderInterface,
	smsSender SmsSenderInterface,
	internal InternalRecipientSource,
	flags ChannelFlags,
	clk clock.Clock,
) *DispatchNotificationUseCase {
	return &DispatchNotificationUseCase{
		Leads:            leads,
		Orgs:             orgs,
		Attempts:         attempts,
		Email:            email,
		SMS:              smsSender,
		Internal:         internal,
		Flags:            flags,
		Clock:            clk,
		AttemptRetention: DefaultAttemptRetention,
	}
}

// Dispatch processa um evento vindo da fila. Entrega é at-least-once: tudo
// aqui aguenta re-execução: reenviar uma notificação é aceitável, os
// timestamps notified*At são atribuição idempotente, nada incrementa estado
// de negócio. Devolve erro só para falha transitória (store), para a
// redelivery da fila fazer o retry; parada esperada volta nil.
func (uc *DispatchNotificationUseCase) Dispatch(ctx context.Context, event queue.LeadEvent) error {
	switch event.Type {
	case queue.EventLeadAssigned:
		return uc.dispatchAssigned(ctx, event)
	case queue.EventLeadUnassigned:
		return uc.dispatchUnassigned(ctx, event)
	default:
		log.Printf("⚠️ Evento %s ignorado pelo dispatcher (lead=%s)", event.Type, event.LeadID)
		return nil
	}
}

func (uc *DispatchNotificationUseCase) dispatchAssigned(ctx context.Context, event queue.LeadEvent) error {
	lead, err := uc.Leads.FindByID(ctx, event.LeadID)
	if errors.Is(err, sql.ErrNoRows) {
		log.Printf("⚠️ Lead %s não encontrado, evento descartado", event.LeadID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("busca do lead %s: %w", event.LeadID, err)
	}

	org, err := uc.Orgs.FindByID(ctx, event.AssignedOrgID)
	if errors.Is(err, sql.ErrNoRows) {
		log.Printf("⚠️ Org %s não encontrada, evento descartado (lead=%s)", event.AssignedOrgID, event.LeadID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("busca da org %s: %w", event.AssignedOrgID, err)
	}
	if !org.Active {
		log.Printf("⚠️ Org %s inativa, sem notificação (lead=%s)", org.ID, event.LeadID)
		return nil
	}

	data := mail.LeadNotificationData{
		LeadID:     lead.ID,
		MaskedName: mail.MaskName(lead.Name),
		Page:       lead.Page,
		Message:    lead.Message,
	}
	subject := fmt.Sprintf("Novo lead atribuído: %s", data.MaskedName)

	// Fase interna primeiro, depois a org. O timestamp de cada fase marca
	// "dispatch tentado", não "todos os envios deram certo".
	var storeErr error

	internal := uc.internalRecipients()
	if len(internal) > 0 {
		if err := uc.notifyAll(ctx, lead, internal, subject, data); err != nil {
			storeErr = err
		}
		if err := uc.Leads.UpdateNotifiedAt(ctx, lead.ID, entity.NotifiedInternalField, uc.Clock.Now()); err != nil {
			return fmt.Errorf("update de notified_internal_at (lead=%s): %w", lead.ID, err)
		}
	}

	members, err := uc.Orgs.ListMembers(ctx, org.ID)
	if err != nil {
		return fmt.Errorf("listagem de membros da org %s: %w", org.ID, err)
	}

	recipients := ResolveOrgRecipients(org.NotifyPolicy, members, event.AssignedUserID)
	if len(recipients) == 0 {
		log.Printf("⚠️ Nenhum destinatário resolvido na org %s (policy=%s, lead=%s)", org.ID, org.NotifyPolicy, lead.ID)
		return storeErr
	}

	if err := uc.notifyAll(ctx, lead, recipients, subject, data); err != nil {
		storeErr = err
	}
	if err := uc.Leads.UpdateNotifiedAt(ctx, lead.ID, entity.NotifiedOrgField, uc.Clock.Now()); err != nil {
		return fmt.Errorf("update de notified_org_at (lead=%s): %w", lead.ID, err)
	}

	return storeErr
}

// dispatchUnassigned avisa só os destinatários internos, carregando o motivo.
func (uc *DispatchNotificationUseCase) dispatchUnassigned(ctx context.Context, event queue.LeadEvent) error {
	lead, err := uc.Leads.FindByID(ctx, event.LeadID)
	if errors.Is(err, sql.ErrNoRows) {
		log.Printf("⚠️ Lead %s não encontrado, evento descartado", event.LeadID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("busca do lead %s: %w", event.LeadID, err)
	}

	internal := uc.internalRecipients()
	if len(internal) == 0 {
		log.Printf("⚠️ Sem destinatários internos configurados (lead=%s)", lead.ID)
		return nil
	}

	data := mail.LeadNotificationData{
		LeadID:     lead.ID,
		MaskedName: mail.MaskName(lead.Name),
		Reason:     event.Reason,
	}
	subject := fmt.Sprintf("Lead devolvido: %s", data.MaskedName)

	storeErr := uc.notifyAll(ctx, lead, internal, subject, data)

	if err := uc.Leads.UpdateNotifiedAt(ctx, lead.ID, entity.NotifiedInternalField, uc.Clock.Now()); err != nil {
		return fmt.Errorf("update de notified_internal_at (lead=%s): %w", lead.ID, err)
	}

	return storeErr
}

func (uc *DispatchNotificationUseCase) internalRecipients() []entity.Membership {
	if uc.Internal == nil {
		return nil
	}
	recipients, err := uc.Internal.Recipients()
	if err != nil {
		log.Printf("⚠️ Falha ao resolver destinatários internos: %v", err)
		return nil
	}
	return recipients
}

// notifyAll envia para cada destinatário em cada canal habilitado e registra
// UMA NotificationAttempt por (destinatário, canal), com o outcome que for.
// Falha de um destinatário não impede o próximo; falha de gravação de
// tentativa é acumulada e devolvida como erro transitório no fim.
func (uc *DispatchNotificationUseCase) notifyAll(ctx context.Context, lead *entity.Lead, recipients []entity.Membership, subject string, data mail.LeadNotificationData) error {
	var storeErr error

	smsText := fmt.Sprintf("%s (lead %s)", subject, lead.ID)

	for _, r := range recipients {
		if uc.Flags.EmailEnabled && r.NotifyEmail && r.Email != "" {
			result := uc.Email.SendLeadNotification(r.Email, subject, data)
			if err := uc.recordAttempt(ctx, lead.ID, entity.ChannelEmail, r, result.Success, result.MessageID, result.Error); err != nil {
				storeErr = err
			}
		}

		if uc.Flags.SmsEnabled && r.NotifySms && r.Phone != "" {
			result := uc.SMS.Send(ctx, r.Phone, smsText)
			if err := uc.recordAttempt(ctx, lead.ID, entity.ChannelSms, r, result.Success, result.MessageID, result.Error); err != nil {
				storeErr = err
			}
		}
	}

	return storeErr
}

func (uc *DispatchNotificationUseCase) recordAttempt(ctx context.Context, leadID, channel string, r entity.Membership, success bool, messageID, sendErr string) error {
	outcome := entity.AttemptOutcomeSent
	if !success {
		outcome = entity.AttemptOutcomeFailed
		log.Printf("⚠️ Envio %s falhou para %s (lead=%s): %s", channel, r.UserID, leadID, sendErr)
	}

	middleware.RecordNotificationAttempt(channel, outcome)

	address := r.Email
	if channel == entity.ChannelSms {
		address = r.Phone
	}

	retention := uc.AttemptRetention
	if retention <= 0 {
		retention = DefaultAttemptRetention
	}

	now := uc.Clock.Now()
	attempt := &entity.NotificationAttempt{
		ID:                uuid.New().String(),
		LeadID:            leadID,
		Channel:           channel,
		RecipientID:       r.UserID,
		RecipientAddress:  address,
		Outcome:           outcome,
		ProviderMessageID: messageID,
		Error:             sendErr,
		CreatedAt:         now,
		ExpiresAt:         now.Add(retention),
	}

	if err := uc.Attempts.Create(ctx, attempt); err != nil {
		return fmt.Errorf("gravação da tentativa de notificação (lead=%s canal=%s): %w", leadID, channel, err)
	}
	return nil
}
