package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type LeadRepository struct {
	DB *sql.DB
}

func NewLeadRepository(db *sql.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	utm, err := json.Marshal(lead.UTM)
	if err != nil {
		return fmt.Errorf("marshal do utm: %w", err)
	}

	query := `
		INSERT INTO leads (
			id, name, email, phone, message, page, referrer, utm,
			hashed_email, hashed_ip, suspicious, suspicion_reasons,
			score, status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	return r.DB.QueryRowContext(
		ctx,
		query,
		lead.ID,
		lead.Name,
		lead.Email,
		nullString(lead.Phone),
		nullString(lead.Message),
		nullString(lead.Page),
		nullString(lead.Referrer),
		utm,
		lead.HashedEmail,
		lead.HashedIP,
		lead.Suspicious,
		pq.Array(lead.SuspicionReasons),
		lead.Score,
		lead.Status,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
}

func (r *LeadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := `
		SELECT id, name, email, phone, message, page, referrer, utm,
		       hashed_email, hashed_ip, suspicious, suspicion_reasons,
		       score, status, assigned_org_id, assigned_user_id, assigned_at,
		       notified_internal_at, notified_org_at, created_at, updated_at
		FROM leads
		WHERE id = $1
	`

	var lead entity.Lead
	var phone, message, page, referrer, orgID, userID sql.NullString
	var utm []byte
	var score sql.NullInt64
	var assignedAt, notifiedInternalAt, notifiedOrgAt sql.NullTime

	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&lead.ID,
		&lead.Name,
		&lead.Email,
		&phone,
		&message,
		&page,
		&referrer,
		&utm,
		&lead.HashedEmail,
		&lead.HashedIP,
		&lead.Suspicious,
		pq.Array(&lead.SuspicionReasons),
		&score,
		&lead.Status,
		&orgID,
		&userID,
		&assignedAt,
		&notifiedInternalAt,
		&notifiedOrgAt,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Phone = phone.String
	lead.Message = message.String
	lead.Page = page.String
	lead.Referrer = referrer.String
	lead.AssignedOrgID = orgID.String
	lead.AssignedUserID = userID.String

	if len(utm) > 0 {
		if err := json.Unmarshal(utm, &lead.UTM); err != nil {
			return nil, fmt.Errorf("unmarshal do utm: %w", err)
		}
	}
	if score.Valid {
		v := int(score.Int64)
		lead.Score = &v
	}
	if assignedAt.Valid {
		lead.AssignedAt = &assignedAt.Time
	}
	if notifiedInternalAt.Valid {
		lead.NotifiedInternalAt = &notifiedInternalAt.Time
	}
	if notifiedOrgAt.Valid {
		lead.NotifiedOrgAt = &notifiedOrgAt.Time
	}

	return &lead, nil
}

func (r *LeadRepository) UpdateAssignment(ctx context.Context, leadID, orgID, userID string, at time.Time) error {
	query := `
		UPDATE leads
		SET assigned_org_id = $2,
		    assigned_user_id = $3,
		    assigned_at = $4,
		    status = $5,
		    updated_at = NOW()
		WHERE id = $1
	`

	_, err := r.DB.ExecContext(ctx, query, leadID, orgID, nullString(userID), at, entity.LeadStatusAssigned)
	return err
}

// Colunas liberadas para UpdateNotifiedAt. Whitelist porque o nome da coluna
// entra no SQL por interpolação.
var notifiedColumns = map[string]string{
	entity.NotifiedInternalField: "notified_internal_at",
	entity.NotifiedOrgField:      "notified_org_at",
}

// UpdateNotifiedAt grava só a coluna pedida. Update idempotente: setar duas
// vezes para "agora" é inofensivo sob redelivery da fila.
func (r *LeadRepository) UpdateNotifiedAt(ctx context.Context, leadID, field string, at time.Time) error {
	column, ok := notifiedColumns[field]
	if !ok {
		return fmt.Errorf("campo de notificação desconhecido: %s", field)
	}

	query := fmt.Sprintf(`UPDATE leads SET %s = $2, updated_at = NOW() WHERE id = $1`, column)

	_, err := r.DB.ExecContext(ctx, query, leadID, at)
	return err
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
