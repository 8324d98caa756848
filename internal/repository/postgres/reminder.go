package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/repository"
	apperrors "github.com/serviconli/citas-api/pkg/errors"
)

type reminderRepository struct {
	db *sqlx.DB
}

func NewReminderRepository(db *sqlx.DB) repository.ReminderRepository {
	return &reminderRepository{db: db}
}

const reminderColumns = `
	id, appointment_id, type, channel, recipient, message, scheduled_at,
	sent_at, status, response, error_message, attempts, cancel_reason,
	created_at, updated_at
`

func (r *reminderRepository) Create(ctx context.Context, reminder *model.Reminder) error {
	query := `
		INSERT INTO reminders (
			id, appointment_id, type, channel, recipient, message,
			scheduled_at, status, attempts, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	if reminder.ID == uuid.Nil {
		reminder.ID = uuid.New()
	}
	reminder.CreatedAt = time.Now()
	reminder.UpdatedAt = reminder.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		reminder.ID,
		reminder.AppointmentID,
		reminder.Type,
		reminder.Channel,
		reminder.Recipient,
		reminder.Message,
		reminder.ScheduledAt,
		reminder.Status,
		reminder.Attempts,
		reminder.CreatedAt,
		reminder.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	return nil
}

func (r *reminderRepository) Get(ctx context.Context, id uuid.UUID) (*model.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE id = $1`

	var reminder model.Reminder
	err := r.db.GetContext(ctx, &reminder, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("reminder", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reminder: %w", err)
	}
	return &reminder, nil
}

func (r *reminderRepository) DueBatch(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*model.Reminder, error) {
	query := `
		SELECT ` + reminderColumns + `
		FROM reminders
		WHERE scheduled_at <= $1
		AND (status = 'pending' OR (status = 'failed' AND attempts < $2))
		ORDER BY scheduled_at ASC
		LIMIT $3
	`
	var reminders []*model.Reminder
	err := r.db.SelectContext(ctx, &reminders, query, now, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select due reminders: %w", err)
	}
	return reminders, nil
}

func (r *reminderRepository) Claim(ctx context.Context, id uuid.UUID, expected model.ReminderStatus) (bool, error) {
	query := `
		UPDATE reminders
		SET status = 'processing', updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, expected)
	if err != nil {
		return false, fmt.Errorf("failed to claim reminder: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *reminderRepository) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time, response json.RawMessage) error {
	query := `
		UPDATE reminders
		SET status = 'sent', sent_at = $1, response = $2, updated_at = NOW()
		WHERE id = $3 AND status = 'processing'
	`
	result, err := r.db.ExecContext(ctx, query, sentAt, response, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("reminder %s not in processing state", id)
	}
	return nil
}

func (r *reminderRepository) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE reminders
		SET status = 'failed', error_message = $1, attempts = attempts + 1, updated_at = NOW()
		WHERE id = $2 AND status = 'processing'
	`
	result, err := r.db.ExecContext(ctx, query, errorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder failed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("reminder %s not in processing state", id)
	}
	return nil
}

func (r *reminderRepository) SetContent(ctx context.Context, id uuid.UUID, recipient, message string) error {
	query := `
		UPDATE reminders
		SET recipient = $1, message = $2, updated_at = NOW()
		WHERE id = $3
	`
	if _, err := r.db.ExecContext(ctx, query, recipient, message, id); err != nil {
		return fmt.Errorf("failed to set reminder content: %w", err)
	}
	return nil
}

func (r *reminderRepository) CancelActive(ctx context.Context, appointmentID uuid.UUID, typ model.ReminderType, reason string) (int64, error) {
	query := `
		UPDATE reminders
		SET status = 'cancelled', cancel_reason = $1, updated_at = NOW()
		WHERE appointment_id = $2 AND type = $3
		AND status IN ('pending', 'processing')
	`
	result, err := r.db.ExecContext(ctx, query, reason, appointmentID, typ)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel active reminders: %w", err)
	}
	return result.RowsAffected()
}

func (r *reminderRepository) Cancel(ctx context.Context, id uuid.UUID, reason string) (bool, error) {
	query := `
		UPDATE reminders
		SET status = 'cancelled', cancel_reason = $1, updated_at = NOW()
		WHERE id = $2 AND status IN ('pending', 'processing')
	`
	result, err := r.db.ExecContext(ctx, query, reason, id)
	if err != nil {
		return false, fmt.Errorf("failed to cancel reminder: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *reminderRepository) ActiveExists(ctx context.Context, appointmentID uuid.UUID, typ model.ReminderType, channel model.ReminderChannel) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM reminders
			WHERE appointment_id = $1 AND type = $2 AND channel = $3
			AND status IN ('pending', 'processing')
		)
	`
	var exists bool
	err := r.db.GetContext(ctx, &exists, query, appointmentID, typ, channel)
	if err != nil {
		return false, fmt.Errorf("failed to check active reminder: %w", err)
	}
	return exists, nil
}

func (r *reminderRepository) ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE reminders
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'processing' AND updated_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to reclaim stale reminders: %w", err)
	}
	return result.RowsAffected()
}

func (r *reminderRepository) ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Reminder, error) {
	query := `SELECT ` + reminderColumns + ` FROM reminders WHERE appointment_id = $1 ORDER BY created_at DESC`

	var reminders []*model.Reminder
	err := r.db.SelectContext(ctx, &reminders, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return reminders, nil
}
