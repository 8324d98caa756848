package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/repository"
	apperrors "github.com/serviconli/citas-api/pkg/errors"
)

type appointmentRequestRepository struct {
	db *sqlx.DB
}

func NewAppointmentRequestRepository(db *sqlx.DB) repository.AppointmentRequestRepository {
	return &appointmentRequestRepository{db: db}
}

func (r *appointmentRequestRepository) Create(ctx context.Context, req *model.AppointmentRequest) error {
	query := `
		INSERT INTO appointment_requests (
			id, patient_id, type, priority, specialty, status,
			requested_at, client_notes, operator_notes,
			created_by, assigned_to, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.PatientID,
		req.Type,
		req.Priority,
		req.Specialty,
		req.Status,
		req.RequestedAt,
		req.ClientNotes,
		req.OperatorNotes,
		req.CreatedBy,
		req.AssignedTo,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment request: %w", err)
	}
	return nil
}

func (r *appointmentRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentRequest, error) {
	query := `
		SELECT id, patient_id, type, priority, specialty, status,
			   requested_at, started_at, completed_at, total_management_minutes,
			   client_notes, operator_notes, appointment_id,
			   created_by, assigned_to, created_at, updated_at, deleted_at
		FROM appointment_requests
		WHERE id = $1 AND deleted_at IS NULL
	`
	var req model.AppointmentRequest
	err := r.db.GetContext(ctx, &req, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment request", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment request: %w", err)
	}
	return &req, nil
}

func (r *appointmentRequestRepository) Update(ctx context.Context, req *model.AppointmentRequest) error {
	query := `
		UPDATE appointment_requests
		SET status = $1, started_at = $2, completed_at = $3,
			total_management_minutes = $4, operator_notes = $5,
			appointment_id = $6, assigned_to = $7, priority = $8,
			specialty = $9, updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL
	`
	req.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		req.Status,
		req.StartedAt,
		req.CompletedAt,
		req.TotalManagementMinutes,
		req.OperatorNotes,
		req.AppointmentID,
		req.AssignedTo,
		req.Priority,
		req.Specialty,
		req.UpdatedAt,
		req.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment request", nil)
	}
	return nil
}

func (r *appointmentRequestRepository) List(ctx context.Context, filters *model.RequestFilters) ([]*model.AppointmentRequest, error) {
	query := `
		SELECT id, patient_id, type, priority, specialty, status,
			   requested_at, started_at, completed_at, total_management_minutes,
			   client_notes, operator_notes, appointment_id,
			   created_by, assigned_to, created_at, updated_at, deleted_at
		FROM appointment_requests
		WHERE deleted_at IS NULL
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.Priority != "" {
			query += fmt.Sprintf(" AND priority = $%d", argCount)
			args = append(args, filters.Priority)
			argCount++
		}
		if filters.Type != "" {
			query += fmt.Sprintf(" AND type = $%d", argCount)
			args = append(args, filters.Type)
			argCount++
		}
		if filters.PatientID != uuid.Nil {
			query += fmt.Sprintf(" AND patient_id = $%d", argCount)
			args = append(args, filters.PatientID)
			argCount++
		}
		if filters.AssignedTo != uuid.Nil {
			query += fmt.Sprintf(" AND assigned_to = $%d", argCount)
			args = append(args, filters.AssignedTo)
			argCount++
		}
		if filters.ActiveOnly {
			query += " AND status IN ('pending', 'in_progress')"
		}
	}

	query += " ORDER BY requested_at ASC"

	var requests []*model.AppointmentRequest
	err := r.db.SelectContext(ctx, &requests, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointment requests: %w", err)
	}
	return requests, nil
}

func (r *appointmentRequestRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE appointment_requests
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment request", nil)
	}
	return nil
}
