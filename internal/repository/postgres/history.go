package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/repository"
)

type historyRepository struct {
	db *sqlx.DB
}

func NewHistoryRepository(db *sqlx.DB) repository.HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, entry *model.AppointmentHistory) error {
	query := `
		INSERT INTO appointment_histories (
			id, appointment_id, user_id, action, field_changed,
			old_value, new_value, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.AppointmentID,
		entry.UserID,
		entry.Action,
		entry.FieldChanged,
		entry.OldValue,
		entry.NewValue,
		entry.Description,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

func (r *historyRepository) ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentHistory, error) {
	query := `
		SELECT id, appointment_id, user_id, action, field_changed,
			   old_value, new_value, description, created_at
		FROM appointment_histories
		WHERE appointment_id = $1
		ORDER BY created_at DESC
	`
	var entries []*model.AppointmentHistory
	err := r.db.SelectContext(ctx, &entries, query, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	return entries, nil
}
