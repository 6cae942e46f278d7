package entity

import (
	"context"
	"time"
)

const (
	NotifyPolicyAllMembers   = "all_members"
	NotifyPolicyAssignedOnly = "assigned_only"
)

const (
	RoleOwner   = "OWNER"
	RoleManager = "MANAGER"
	RoleMember  = "MEMBER"
)

type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	NotifyPolicy string    `json:"notify_policy"` // all_members, assigned_only
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Membership struct {
	UserID      string `json:"user_id"`
	OrgID       string `json:"org_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role"` // OWNER, MANAGER, MEMBER
	Active      bool   `json:"active"`
	NotifyEmail bool   `json:"notify_email"`
	NotifySms   bool   `json:"notify_sms"`
}

// HasOptIn diz se o membro aceita receber por pelo menos um canal.
func (m Membership) HasOptIn() bool {
	return m.NotifyEmail || m.NotifySms
}

func (m Membership) IsOwnerOrManager() bool {
	return m.Role == RoleOwner || m.Role == RoleManager
}

type OrgRepositoryInterface interface {
	FindByID(ctx context.Context, id string) (*Organization, error)
	ListMembers(ctx context.Context, orgID string) ([]Membership, error)
}
