// Package request implements the AppointmentRequest lifecycle: creation,
// start of processing, and the three terminal outcomes. Every mutation takes
// an explicit actor so no ambient user context is read.
package request

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/repository"
	apperrors "github.com/serviconli/citas-api/pkg/errors"
	"github.com/serviconli/citas-api/pkg/logger"
	"github.com/serviconli/citas-api/pkg/messaging"
)

const eventChannel = "appointments.events"

type Service struct {
	repo   repository.AppointmentRequestRepository
	broker messaging.Broker
	logger *logger.Logger
	now    func() time.Time
}

func NewService(repo repository.AppointmentRequestRepository, broker messaging.Broker, log *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		broker: broker,
		logger: log,
		now:    time.Now,
	}
}

type CreateParams struct {
	PatientID   uuid.UUID
	Type        model.AppointmentType
	Priority    model.Priority
	Specialty   *string
	ClientNotes string
	ActorID     uuid.UUID
}

func (s *Service) Create(ctx context.Context, params *CreateParams) (*model.AppointmentRequest, error) {
	if params.PatientID == uuid.Nil {
		return nil, apperrors.BadRequest("patient ID is required", nil)
	}
	if params.Type == "" {
		return nil, apperrors.BadRequest("request type is required", nil)
	}

	priority := params.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	req := &model.AppointmentRequest{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   params.PatientID,
		Type:        params.Type,
		Priority:    priority,
		Specialty:   params.Specialty,
		Status:      model.RequestStatusPending,
		RequestedAt: s.now(),
		ClientNotes: params.ClientNotes,
		CreatedBy:   params.ActorID,
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	s.publishEvent(ctx, "request_created", req)
	return req, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.AppointmentRequest, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.RequestFilters) ([]*model.AppointmentRequest, error) {
	return s.repo.List(ctx, filters)
}

// StartProcessing moves a pending request to in_progress, stamping
// started_at once and assigning the operator.
func (s *Service) StartProcessing(ctx context.Context, id uuid.UUID, operatorID uuid.UUID) (*model.AppointmentRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := req.Status
	var operator *uuid.UUID
	if operatorID != uuid.Nil {
		operator = &operatorID
	}
	if !req.Start(s.now(), operator) {
		return nil, apperrors.InvalidTransition(string(from), string(model.RequestStatusInProgress))
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist request: %w", err)
	}

	s.publishEvent(ctx, "request_status_changed", req)
	return req, nil
}

// MarkCompleted seals the request with its fulfilling appointment. The
// total management time is frozen here and never recomputed.
func (s *Service) MarkCompleted(ctx context.Context, id, appointmentID uuid.UUID) (*model.AppointmentRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := req.Status
	if !req.Complete(s.now(), appointmentID) {
		return nil, apperrors.InvalidTransition(string(from), string(model.RequestStatusCompleted))
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist request: %w", err)
	}

	s.publishEvent(ctx, "request_status_changed", req)
	return req, nil
}

// MarkFailed records that no appointment could be obtained.
func (s *Service) MarkFailed(ctx context.Context, id uuid.UUID, reason string) (*model.AppointmentRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := req.Status
	if !req.Fail(s.now(), reason) {
		return nil, apperrors.InvalidTransition(string(from), string(model.RequestStatusFailed))
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist request: %w", err)
	}

	s.publishEvent(ctx, "request_status_changed", req)
	return req, nil
}

// Cancel closes the request on behalf of the client.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, reason string) (*model.AppointmentRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := req.Status
	if !req.Cancel(s.now(), reason) {
		return nil, apperrors.InvalidTransition(string(from), string(model.RequestStatusCancelled))
	}

	if err := s.repo.Update(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to persist request: %w", err)
	}

	s.publishEvent(ctx, "request_status_changed", req)
	return req, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

func (s *Service) publishEvent(ctx context.Context, eventType string, req *model.AppointmentRequest) {
	if s.broker == nil {
		return
	}
	msg := messaging.Message{
		Type: eventType,
		Payload: map[string]interface{}{
			"request_id": req.ID,
			"status":     req.Status,
		},
	}
	if err := s.broker.Publish(ctx, eventChannel, msg); err != nil {
		s.logger.Error(err, "failed to publish request event", "event", eventType)
	}
}
