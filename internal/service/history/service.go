// Package history records the append-only audit trail of appointment
// mutations. Entries are written synchronously after each successful change.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/repository"
	"github.com/serviconli/citas-api/pkg/logger"
)

type Service struct {
	repo   repository.HistoryRepository
	logger *logger.Logger
}

func NewService(repo repository.HistoryRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// Entry captures the optional detail fields of a history record.
type Entry struct {
	FieldChanged string
	OldValue     string
	NewValue     string
	Description  string
}

// Log writes a history entry. Audit failures are logged but never propagated;
// a lost audit line must not fail the mutation it describes.
func (s *Service) Log(ctx context.Context, appointmentID uuid.UUID, actorID *uuid.UUID, action string, entry *Entry) {
	record := &model.AppointmentHistory{
		ID:            uuid.New(),
		AppointmentID: appointmentID,
		UserID:        actorID,
		Action:        action,
		CreatedAt:     time.Now(),
	}
	if entry != nil {
		if entry.FieldChanged != "" {
			record.FieldChanged = &entry.FieldChanged
		}
		if entry.OldValue != "" {
			record.OldValue = &entry.OldValue
		}
		if entry.NewValue != "" {
			record.NewValue = &entry.NewValue
		}
		if entry.Description != "" {
			record.Description = &entry.Description
		}
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.logger.Error(err, "failed to write history entry",
			"appointment_id", appointmentID.String(), "action", action)
	}
}

// ListForAppointment returns the audit trail, newest first.
func (s *Service) ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentHistory, error) {
	return s.repo.ListForAppointment(ctx, appointmentID)
}
