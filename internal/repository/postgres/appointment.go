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

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

const appointmentColumns = `
	id, patient_id, appointment_request_id, type, status, priority, specialty,
	appointment_date, appointment_time, doctor_name, location_name,
	location_address, authorization_number, specifications, internal_notes,
	confirmation_sent_at, reminder_sent_at, created_by, assigned_to,
	created_at, updated_at, deleted_at
`

func (r *appointmentRepository) Create(ctx context.Context, apt *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, patient_id, appointment_request_id, type, status, priority,
			specialty, appointment_date, appointment_time, doctor_name,
			location_name, location_address, authorization_number,
			specifications, internal_notes, created_by, assigned_to,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	apt.CreatedAt = time.Now()
	apt.UpdatedAt = apt.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		apt.ID,
		apt.PatientID,
		apt.AppointmentRequestID,
		apt.Type,
		apt.Status,
		apt.Priority,
		apt.Specialty,
		apt.AppointmentDate,
		apt.AppointmentTime,
		apt.DoctorName,
		apt.LocationName,
		apt.LocationAddress,
		apt.AuthorizationNumber,
		apt.Specifications,
		apt.InternalNotes,
		apt.CreatedBy,
		apt.AssignedTo,
		apt.CreatedAt,
		apt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 AND deleted_at IS NULL`

	var apt model.Appointment
	err := r.db.GetContext(ctx, &apt, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &apt, nil
}

func (r *appointmentRepository) Update(ctx context.Context, apt *model.Appointment) error {
	query := `
		UPDATE appointments
		SET type = $1, status = $2, priority = $3, specialty = $4,
			appointment_date = $5, appointment_time = $6, doctor_name = $7,
			location_name = $8, location_address = $9, authorization_number = $10,
			specifications = $11, internal_notes = $12, assigned_to = $13,
			updated_at = $14
		WHERE id = $15 AND deleted_at IS NULL
	`
	apt.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		apt.Type,
		apt.Status,
		apt.Priority,
		apt.Specialty,
		apt.AppointmentDate,
		apt.AppointmentTime,
		apt.DoctorName,
		apt.LocationName,
		apt.LocationAddress,
		apt.AuthorizationNumber,
		apt.Specifications,
		apt.InternalNotes,
		apt.AssignedTo,
		apt.UpdatedAt,
		apt.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE deleted_at IS NULL`
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
		if filters.TodayOnly {
			query += " AND appointment_date::date = CURRENT_DATE"
		}
		if filters.ActiveOnly {
			query += " AND status = 'confirmed'"
		}
	}

	query += " ORDER BY appointment_date ASC, appointment_time ASC"

	var appointments []*model.Appointment
	err := r.db.SelectContext(ctx, &appointments, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE appointments
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return apperrors.NotFound("appointment", nil)
	}
	return nil
}

func (r *appointmentRepository) StampConfirmationSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE appointments SET confirmation_sent_at = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to stamp confirmation_sent_at: %w", err)
	}
	return nil
}

func (r *appointmentRepository) StampReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE appointments SET reminder_sent_at = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("failed to stamp reminder_sent_at: %w", err)
	}
	return nil
}

func (r *appointmentRepository) CountByStatus(ctx context.Context, status model.AppointmentStatus) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM appointments WHERE status = $1 AND deleted_at IS NULL`, status)
	if err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) CountToday(ctx context.Context, day time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM appointments
		 WHERE appointment_date::date = $1::date
		 AND status = 'confirmed' AND deleted_at IS NULL`, day)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's appointments: %w", err)
	}
	return count, nil
}
