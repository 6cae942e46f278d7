package entity

import (
	"context"
	"time"
)

const (
	LeadStatusAccepted    = "ACCEPTED"
	LeadStatusQuarantined = "QUARANTINED"
	LeadStatusAssigned    = "ASSIGNED"
	LeadStatusUnassigned  = "UNASSIGNED"
)

type Lead struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message,omitempty"`

	Page     string            `json:"page,omitempty"`
	Referrer string            `json:"referrer,omitempty"`
	UTM      map[string]string `json:"utm,omitempty"`

	// Campos derivados pelo analisador de segurança. Nunca vêm do caller.
	HashedEmail      string   `json:"-"`
	HashedIP         string   `json:"-"`
	Suspicious       bool     `json:"suspicious"`
	SuspicionReasons []string `json:"suspicion_reasons,omitempty"`

	Score *int `json:"score,omitempty"`

	Status string `json:"status"` // ACCEPTED, QUARANTINED, ASSIGNED, UNASSIGNED

	AssignedOrgID  string     `json:"assigned_org_id,omitempty"`
	AssignedUserID string     `json:"assigned_user_id,omitempty"`
	AssignedAt     *time.Time `json:"assigned_at,omitempty"`

	NotifiedInternalAt *time.Time `json:"notified_internal_at,omitempty"`
	NotifiedOrgAt      *time.Time `json:"notified_org_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Colunas de timestamp de notificação que podem ser atualizadas isoladamente.
const (
	NotifiedInternalField = "notified_internal_at"
	NotifiedOrgField      = "notified_org_at"
)

type LeadRepositoryInterface interface {
	Create(ctx context.Context, lead *Lead) error
	FindByID(ctx context.Context, id string) (*Lead, error)
	UpdateAssignment(ctx context.Context, leadID, orgID, userID string, at time.Time) error

	// UpdateNotifiedAt grava apenas a coluna indicada, sem sobrescrever o resto
	// do registro (workers de assignment e notificação tocam o mesmo lead).
	UpdateNotifiedAt(ctx context.Context, leadID, field string, at time.Time) error
}
