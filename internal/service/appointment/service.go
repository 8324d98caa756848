// Package appointment orchestrates the appointment lifecycle: creation
// (optionally fulfilling a request), updates that keep reminders consistent,
// the confirmed<->cancelled status machine, and confirmation sending.
package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/repository"
	"github.com/serviconli/citas-api/internal/service/history"
	"github.com/serviconli/citas-api/internal/service/reminder"
	"github.com/serviconli/citas-api/internal/service/request"
	apperrors "github.com/serviconli/citas-api/pkg/errors"
	"github.com/serviconli/citas-api/pkg/logger"
	"github.com/serviconli/citas-api/pkg/messaging"
)

const (
	eventChannel  = "appointments.events"
	statsCacheKey = "dashboard_stats"
	statsCacheTTL = 30 * time.Second
)

type Service struct {
	repo       repository.AppointmentRepository
	requestSvc *request.Service
	scheduler  *reminder.Scheduler
	dispatcher *reminder.Dispatcher
	historySvc *history.Service
	broker     messaging.Broker
	logger     *logger.Logger
	cache      *gocache.Cache
	now        func() time.Time
}

func NewService(
	repo repository.AppointmentRepository,
	requestSvc *request.Service,
	scheduler *reminder.Scheduler,
	dispatcher *reminder.Dispatcher,
	historySvc *history.Service,
	broker messaging.Broker,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		requestSvc: requestSvc,
		scheduler:  scheduler,
		dispatcher: dispatcher,
		historySvc: historySvc,
		broker:     broker,
		logger:     log,
		cache:      gocache.New(statsCacheTTL, time.Minute),
		now:        time.Now,
	}
}

type CreateParams struct {
	PatientID            uuid.UUID
	AppointmentRequestID *uuid.UUID
	Type                 model.AppointmentType
	Priority             model.Priority
	Specialty            *string
	AppointmentDate      *time.Time
	AppointmentTime      string
	DoctorName           string
	LocationName         string
	LocationAddress      string
	AuthorizationNumber  string
	Specifications       string
	InternalNotes        string
	SendConfirmation     bool
	ActorID              uuid.UUID
}

// Create records a confirmed appointment. When it fulfils a request, the
// request is sealed; when date and time are set, the D-1 reminder is
// scheduled; the confirmation goes out immediately when asked for.
func (s *Service) Create(ctx context.Context, params *CreateParams) (*model.Appointment, error) {
	if params.PatientID == uuid.Nil {
		return nil, apperrors.BadRequest("patient ID is required", nil)
	}
	if params.Type == "" {
		return nil, apperrors.BadRequest("appointment type is required", nil)
	}

	priority := params.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	apt := &model.Appointment{
		Base:                 model.Base{ID: uuid.New()},
		PatientID:            params.PatientID,
		AppointmentRequestID: params.AppointmentRequestID,
		Type:                 params.Type,
		Status:               model.AppointmentStatusConfirmed,
		Priority:             priority,
		Specialty:            params.Specialty,
		AppointmentDate:      params.AppointmentDate,
		AppointmentTime:      params.AppointmentTime,
		DoctorName:           params.DoctorName,
		LocationName:         params.LocationName,
		LocationAddress:      params.LocationAddress,
		AuthorizationNumber:  params.AuthorizationNumber,
		Specifications:       params.Specifications,
		InternalNotes:        params.InternalNotes,
		CreatedBy:            params.ActorID,
	}

	if err := s.repo.Create(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.historySvc.Log(ctx, apt.ID, &params.ActorID, model.HistoryActionCreated, nil)
	s.cache.Delete(statsCacheKey)

	if params.AppointmentRequestID != nil {
		if _, err := s.requestSvc.MarkCompleted(ctx, *params.AppointmentRequestID, apt.ID); err != nil {
			// The appointment stands even if sealing the request fails.
			s.logger.Error(err, "failed to complete originating request",
				"request_id", params.AppointmentRequestID.String(),
				"appointment_id", apt.ID.String())
		}
	}

	if err := s.scheduler.ScheduleOrReschedule(ctx, apt, false); err != nil {
		s.logger.Error(err, "failed to schedule reminder", "appointment_id", apt.ID.String())
	}

	if params.SendConfirmation && apt.CanSendConfirmation() {
		if err := s.SendConfirmation(ctx, apt.ID); err != nil {
			s.logger.Error(err, "failed to send confirmation", "appointment_id", apt.ID.String())
		}
	}

	s.publishEvent(ctx, "appointment_created", apt)
	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	return s.repo.List(ctx, filters)
}

// TodayList returns the operator's working set: today's active appointments.
func (s *Service) TodayList(ctx context.Context) ([]*model.Appointment, error) {
	return s.repo.List(ctx, &model.AppointmentFilters{TodayOnly: true, ActiveOnly: true})
}

type UpdateParams struct {
	Priority            *model.Priority
	Specialty           *string
	AppointmentDate     *time.Time
	AppointmentTime     *string
	DoctorName          *string
	LocationName        *string
	LocationAddress     *string
	AuthorizationNumber *string
	Specifications      *string
	InternalNotes       *string
	AssignedTo          *uuid.UUID
	ActorID             uuid.UUID
}

// Update applies field changes, writing one history entry per changed field.
// A date or time change reschedules the pending reminder.
func (s *Service) Update(ctx context.Context, id uuid.UUID, params *UpdateParams) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	changes := s.applyUpdate(apt, params)
	if len(changes) == 0 {
		return apt, nil
	}

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}

	scheduleChanged := false
	for _, c := range changes {
		s.historySvc.Log(ctx, apt.ID, &params.ActorID, model.HistoryActionUpdated, &history.Entry{
			FieldChanged: c.field,
			OldValue:     c.oldValue,
			NewValue:     c.newValue,
		})
		if c.field == "appointment_date" || c.field == "appointment_time" {
			scheduleChanged = true
		}
	}

	if scheduleChanged {
		if err := s.scheduler.ScheduleOrReschedule(ctx, apt, true); err != nil {
			s.logger.Error(err, "failed to reschedule reminder", "appointment_id", apt.ID.String())
		}
	}

	s.cache.Delete(statsCacheKey)
	s.publishEvent(ctx, "appointment_updated", apt)
	return apt, nil
}

// ChangeStatus drives the confirmed<->cancelled machine. Cancelling also
// cancels every active reminder; reactivating re-schedules the D-1 reminder.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, target model.AppointmentStatus, actorID uuid.UUID) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := apt.Status
	if !from.CanTransitionTo(target) {
		return nil, apperrors.InvalidTransition(string(from), string(target))
	}

	apt.Status = target
	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, fmt.Errorf("failed to persist status change: %w", err)
	}

	s.historySvc.Log(ctx, apt.ID, &actorID, model.HistoryActionStatusChanged, &history.Entry{
		FieldChanged: "status",
		OldValue:     string(from),
		NewValue:     string(target),
	})

	switch target {
	case model.AppointmentStatusCancelled:
		if err := s.scheduler.CancelForAppointment(ctx, apt.ID, "appointment cancelled"); err != nil {
			s.logger.Error(err, "failed to cancel reminders", "appointment_id", apt.ID.String())
		}
	case model.AppointmentStatusConfirmed:
		if err := s.scheduler.ScheduleOrReschedule(ctx, apt, false); err != nil {
			s.logger.Error(err, "failed to schedule reminder", "appointment_id", apt.ID.String())
		}
	}

	s.cache.Delete(statsCacheKey)
	s.publishEvent(ctx, "appointment_status_changed", apt)
	return apt, nil
}

// SendConfirmation creates a confirmation reminder due immediately and
// dispatches it synchronously, sharing the sweep's claim/mark semantics.
func (s *Service) SendConfirmation(ctx context.Context, id uuid.UUID) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !apt.CanSendConfirmation() {
		return apperrors.BadRequest("appointment cannot receive a confirmation in its current state", nil)
	}

	rem := &model.Reminder{
		ID:            uuid.New(),
		AppointmentID: apt.ID,
		Type:          model.ReminderTypeConfirmation,
		Channel:       model.ChannelWhatsApp,
		ScheduledAt:   s.now(),
		Status:        model.ReminderStatusPending,
	}
	return s.dispatcher.SendNow(ctx, rem)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.scheduler.CancelForAppointment(ctx, apt.ID, "appointment deleted"); err != nil {
		s.logger.Error(err, "failed to cancel reminders", "appointment_id", apt.ID.String())
	}
	s.cache.Delete(statsCacheKey)
	return s.repo.SoftDelete(ctx, id)
}

// DashboardStats summarizes the operator dashboard counters, cached briefly
// since the dashboard polls.
type DashboardStats struct {
	Today     int `json:"today"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
}

func (s *Service) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	if cached, ok := s.cache.Get(statsCacheKey); ok {
		return cached.(*DashboardStats), nil
	}

	today, err := s.repo.CountToday(ctx, s.now())
	if err != nil {
		return nil, err
	}
	confirmed, err := s.repo.CountByStatus(ctx, model.AppointmentStatusConfirmed)
	if err != nil {
		return nil, err
	}
	cancelled, err := s.repo.CountByStatus(ctx, model.AppointmentStatusCancelled)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{Today: today, Confirmed: confirmed, Cancelled: cancelled}
	s.cache.Set(statsCacheKey, stats, statsCacheTTL)
	return stats, nil
}

type fieldChange struct {
	field    string
	oldValue string
	newValue string
}

func (s *Service) applyUpdate(apt *model.Appointment, params *UpdateParams) []fieldChange {
	var changes []fieldChange

	if params.Priority != nil && *params.Priority != apt.Priority {
		changes = append(changes, fieldChange{"priority", string(apt.Priority), string(*params.Priority)})
		apt.Priority = *params.Priority
	}
	if params.Specialty != nil {
		old := ""
		if apt.Specialty != nil {
			old = *apt.Specialty
		}
		if *params.Specialty != old {
			changes = append(changes, fieldChange{"specialty", old, *params.Specialty})
			apt.Specialty = params.Specialty
		}
	}
	if params.AppointmentDate != nil {
		old := ""
		if apt.AppointmentDate != nil {
			old = apt.AppointmentDate.Format("2006-01-02")
		}
		newVal := params.AppointmentDate.Format("2006-01-02")
		if newVal != old {
			changes = append(changes, fieldChange{"appointment_date", old, newVal})
			apt.AppointmentDate = params.AppointmentDate
		}
	}
	if params.AppointmentTime != nil && *params.AppointmentTime != apt.AppointmentTime {
		changes = append(changes, fieldChange{"appointment_time", apt.AppointmentTime, *params.AppointmentTime})
		apt.AppointmentTime = *params.AppointmentTime
	}
	if params.DoctorName != nil && *params.DoctorName != apt.DoctorName {
		changes = append(changes, fieldChange{"doctor_name", apt.DoctorName, *params.DoctorName})
		apt.DoctorName = *params.DoctorName
	}
	if params.LocationName != nil && *params.LocationName != apt.LocationName {
		changes = append(changes, fieldChange{"location_name", apt.LocationName, *params.LocationName})
		apt.LocationName = *params.LocationName
	}
	if params.LocationAddress != nil && *params.LocationAddress != apt.LocationAddress {
		changes = append(changes, fieldChange{"location_address", apt.LocationAddress, *params.LocationAddress})
		apt.LocationAddress = *params.LocationAddress
	}
	if params.AuthorizationNumber != nil && *params.AuthorizationNumber != apt.AuthorizationNumber {
		changes = append(changes, fieldChange{"authorization_number", apt.AuthorizationNumber, *params.AuthorizationNumber})
		apt.AuthorizationNumber = *params.AuthorizationNumber
	}
	if params.Specifications != nil && *params.Specifications != apt.Specifications {
		changes = append(changes, fieldChange{"specifications", apt.Specifications, *params.Specifications})
		apt.Specifications = *params.Specifications
	}
	if params.InternalNotes != nil && *params.InternalNotes != apt.InternalNotes {
		changes = append(changes, fieldChange{"internal_notes", apt.InternalNotes, *params.InternalNotes})
		apt.InternalNotes = *params.InternalNotes
	}
	if params.AssignedTo != nil {
		old := ""
		if apt.AssignedTo != nil {
			old = apt.AssignedTo.String()
		}
		if params.AssignedTo.String() != old {
			changes = append(changes, fieldChange{"assigned_to", old, params.AssignedTo.String()})
			apt.AssignedTo = params.AssignedTo
		}
	}

	return changes
}

func (s *Service) publishEvent(ctx context.Context, eventType string, apt *model.Appointment) {
	if s.broker == nil {
		return
	}
	msg := messaging.Message{
		Type: eventType,
		Payload: map[string]interface{}{
			"appointment_id": apt.ID,
			"status":         apt.Status,
		},
	}
	if err := s.broker.Publish(ctx, eventChannel, msg); err != nil {
		s.logger.Error(err, "failed to publish appointment event", "event", eventType)
	}
}
