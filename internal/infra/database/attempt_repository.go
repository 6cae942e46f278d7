package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

type NotificationAttemptRepository struct {
	DB *sql.DB
}

func NewNotificationAttemptRepository(db *sql.DB) *NotificationAttemptRepository {
	return &NotificationAttemptRepository{DB: db}
}

// Create insere a tentativa. Tabela append-only: não existe UPDATE aqui.
func (r *NotificationAttemptRepository) Create(ctx context.Context, attempt *entity.NotificationAttempt) error {
	query := `
		INSERT INTO notification_attempts (
			id, lead_id, channel, recipient_id, recipient_address,
			outcome, provider_message_id, error, created_at, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		attempt.ID,
		attempt.LeadID,
		attempt.Channel,
		attempt.RecipientID,
		attempt.RecipientAddress,
		attempt.Outcome,
		nullString(attempt.ProviderMessageID),
		nullString(attempt.Error),
		attempt.CreatedAt,
		attempt.ExpiresAt,
	)
	return err
}

func (r *NotificationAttemptRepository) ListByLead(ctx context.Context, leadID string) ([]entity.NotificationAttempt, error) {
	query := `
		SELECT id, lead_id, channel, recipient_id, recipient_address,
		       outcome, COALESCE(provider_message_id, ''), COALESCE(error, ''),
		       created_at, expires_at
		FROM notification_attempts
		WHERE lead_id = $1
		ORDER BY created_at
	`

	rows, err := r.DB.QueryContext(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []entity.NotificationAttempt
	for rows.Next() {
		var a entity.NotificationAttempt
		if err := rows.Scan(
			&a.ID,
			&a.LeadID,
			&a.Channel,
			&a.RecipientID,
			&a.RecipientAddress,
			&a.Outcome,
			&a.ProviderMessageID,
			&a.Error,
			&a.CreatedAt,
			&a.ExpiresAt,
		); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}

	return attempts, rows.Err()
}

func (r *NotificationAttemptRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM notification_attempts WHERE expires_at < $1`, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
