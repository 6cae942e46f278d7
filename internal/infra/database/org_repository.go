package database

import (
	"context"
	"database/sql"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type OrgRepository struct {
	DB *sql.DB
}

func NewOrgRepository(db *sql.DB) *OrgRepository {
	return &OrgRepository{DB: db}
}

func (r *OrgRepository) FindByID(ctx context.Context, id string) (*entity.Organization, error) {
	query := `
		SELECT id, name, notify_policy, active, created_at
		FROM organizations
		WHERE id = $1
	`

	var org entity.Organization
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.NotifyPolicy,
		&org.Active,
		&org.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &org, nil
}

func (r *OrgRepository) ListMembers(ctx context.Context, orgID string) ([]entity.Membership, error) {
	query := `
		SELECT user_id, org_id, name, email, COALESCE(phone, ''), role,
		       active, notify_email, notify_sms
		FROM org_members
		WHERE org_id = $1
		ORDER BY role, name
	`

	rows, err := r.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []entity.Membership
	for rows.Next() {
		var m entity.Membership
		if err := rows.Scan(
			&m.UserID,
			&m.OrgID,
			&m.Name,
			&m.Email,
			&m.Phone,
			&m.Role,
			&m.Active,
			&m.NotifyEmail,
			&m.NotifySms,
		); err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}
