package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventLeadCreated    = "LEAD_CREATED"
	EventLeadAssigned   = "LEAD_ASSIGNED"
	EventLeadUnassigned = "LEAD_UNASSIGNED"
)

// LeadEvent é o envelope único dos eventos de lead na fila.
type LeadEvent struct {
	Type     string `json:"type"` // LEAD_CREATED, LEAD_ASSIGNED, LEAD_UNASSIGNED
	LeadID   string `json:"lead_id"`
	FunnelID string `json:"funnel_id,omitempty"`

	// Assignment
	AssignedOrgID  string `json:"assigned_org_id,omitempty"`
	AssignedUserID string `json:"assigned_user_id,omitempty"`

	// Unassignment
	Reason string `json:"reason,omitempty"`

	// Created
	Status     string    `json:"status,omitempty"`
	Suspicious bool      `json:"suspicious,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Producer struct {
	Ch *amqp.Channel
}

func NewProducer(ch *amqp.Channel) *Producer {
	return &Producer{Ch: ch}
}

func (p *Producer) PublishLeadCreated(ctx context.Context, event LeadEvent) error {
	event.Type = EventLeadCreated
	return p.publish(ctx, RoutingKeyCreated, event)
}

func (p *Producer) PublishLeadAssigned(ctx context.Context, event LeadEvent) error {
	event.Type = EventLeadAssigned
	return p.publish(ctx, RoutingKeyAssigned, event)
}

func (p *Producer) PublishLeadUnassigned(ctx context.Context, event LeadEvent) error {
	event.Type = EventLeadUnassigned
	return p.publish(ctx, RoutingKeyUnassigned, event)
}

func (p *Producer) publish(ctx context.Context, routingKey string, event LeadEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("erro ao converter evento: %w", err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		routingKey,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent, // Mensagem salva no disco
		},
	)
	if err != nil {
		return fmt.Errorf("falha ao publicar no RabbitMQ: %w", err)
	}

	return nil
}
