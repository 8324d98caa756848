package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/repository"
	apperrors "github.com/serviconli/citas-api/pkg/errors"
)

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT p.id, p.first_name, p.last_name, p.document_number,
			   p.phone, p.whatsapp, p.email, e.name AS eps_name,
			   p.created_at, p.updated_at, p.deleted_at
		FROM patients p
		LEFT JOIN eps e ON e.id = p.eps_id
		WHERE p.id = $1 AND p.deleted_at IS NULL
	`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}
