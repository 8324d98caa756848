package appointment

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviconli/citas-api/internal/config"
	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/notification"
	historyService "github.com/serviconli/citas-api/internal/service/history"
	reminderService "github.com/serviconli/citas-api/internal/service/reminder"
	requestService "github.com/serviconli/citas-api/internal/service/request"
	apperrors "github.com/serviconli/citas-api/pkg/errors"
	"github.com/serviconli/citas-api/pkg/logger"
	"github.com/serviconli/citas-api/pkg/metrics"
)

type memAppointmentRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Appointment
}

func (m *memAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *apt
	m.items[apt.ID] = &copied
	return nil
}

func (m *memAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apt, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	copied := *apt
	return &copied, nil
}

func (m *memAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	return m.Create(context.Background(), apt)
}

func (m *memAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (m *memAppointmentRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memAppointmentRepo) StampConfirmationSent(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if apt, ok := m.items[id]; ok {
		apt.ConfirmationSentAt = &at
	}
	return nil
}

func (m *memAppointmentRepo) StampReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if apt, ok := m.items[id]; ok {
		apt.ReminderSentAt = &at
	}
	return nil
}

func (m *memAppointmentRepo) CountByStatus(_ context.Context, status model.AppointmentStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, apt := range m.items {
		if apt.Status == status {
			count++
		}
	}
	return count, nil
}

func (m *memAppointmentRepo) CountToday(_ context.Context, _ time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items), nil
}

type memRequestRepo struct {
	items map[uuid.UUID]*model.AppointmentRequest
}

func (m *memRequestRepo) Create(_ context.Context, req *model.AppointmentRequest) error {
	copied := *req
	m.items[req.ID] = &copied
	return nil
}

func (m *memRequestRepo) Get(_ context.Context, id uuid.UUID) (*model.AppointmentRequest, error) {
	req, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("request", nil)
	}
	copied := *req
	return &copied, nil
}

func (m *memRequestRepo) Update(_ context.Context, req *model.AppointmentRequest) error {
	return m.Create(context.Background(), req)
}

func (m *memRequestRepo) List(_ context.Context, _ *model.RequestFilters) ([]*model.AppointmentRequest, error) {
	return nil, nil
}

func (m *memRequestRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

type memReminderRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Reminder
}

func (m *memReminderRepo) Create(_ context.Context, r *model.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *r
	m.items[r.ID] = &copied
	return nil
}

func (m *memReminderRepo) Get(_ context.Context, id uuid.UUID) (*model.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, apperrors.NotFound("reminder", nil)
	}
	copied := *r
	return &copied, nil
}

func (m *memReminderRepo) DueBatch(_ context.Context, now time.Time, maxAttempts, limit int) ([]*model.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*model.Reminder
	for _, r := range m.items {
		if r.ScheduledAt.After(now) {
			continue
		}
		if r.Status == model.ReminderStatusPending ||
			(r.Status == model.ReminderStatusFailed && r.Attempts < maxAttempts) {
			copied := *r
			due = append(due, &copied)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i].ScheduledAt.Before(due[j].ScheduledAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (m *memReminderRepo) Claim(_ context.Context, id uuid.UUID, expected model.ReminderStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok || r.Status != expected {
		return false, nil
	}
	r.Status = model.ReminderStatusProcessing
	return true, nil
}

func (m *memReminderRepo) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time, response json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.items[id]
	r.Status = model.ReminderStatusSent
	r.SentAt = &sentAt
	r.Response = response
	return nil
}

func (m *memReminderRepo) MarkFailed(_ context.Context, id uuid.UUID, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.items[id]
	r.Status = model.ReminderStatusFailed
	r.ErrorMessage = &errorMessage
	r.Attempts++
	return nil
}

func (m *memReminderRepo) SetContent(_ context.Context, id uuid.UUID, recipient, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := m.items[id]
	r.Recipient = recipient
	r.Message = &message
	return nil
}

func (m *memReminderRepo) CancelActive(_ context.Context, appointmentID uuid.UUID, typ model.ReminderType, reason string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, r := range m.items {
		if r.AppointmentID == appointmentID && r.Type == typ &&
			(r.Status == model.ReminderStatusPending || r.Status == model.ReminderStatusProcessing) {
			r.Status = model.ReminderStatusCancelled
			r.CancelReason = &reason
			count++
		}
	}
	return count, nil
}

func (m *memReminderRepo) Cancel(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok || (r.Status != model.ReminderStatusPending && r.Status != model.ReminderStatusProcessing) {
		return false, nil
	}
	r.Status = model.ReminderStatusCancelled
	r.CancelReason = &reason
	return true, nil
}

func (m *memReminderRepo) ActiveExists(_ context.Context, appointmentID uuid.UUID, typ model.ReminderType, channel model.ReminderChannel) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.items {
		if r.AppointmentID == appointmentID && r.Type == typ && r.Channel == channel &&
			(r.Status == model.ReminderStatusPending || r.Status == model.ReminderStatusProcessing) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memReminderRepo) ReclaimStale(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

func (m *memReminderRepo) ListForAppointment(_ context.Context, appointmentID uuid.UUID) ([]*model.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Reminder
	for _, r := range m.items {
		if r.AppointmentID == appointmentID {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memReminderRepo) activeCount(appointmentID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.items {
		if r.AppointmentID == appointmentID &&
			(r.Status == model.ReminderStatusPending || r.Status == model.ReminderStatusProcessing) {
			count++
		}
	}
	return count
}

type memPatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func (m *memPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := m.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return p, nil
}

type memHistoryRepo struct {
	mu      sync.Mutex
	entries []*model.AppointmentHistory
}

func (m *memHistoryRepo) Create(_ context.Context, entry *model.AppointmentHistory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memHistoryRepo) ListForAppointment(_ context.Context, appointmentID uuid.UUID) ([]*model.AppointmentHistory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AppointmentHistory
	for _, e := range m.entries {
		if e.AppointmentID == appointmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memHistoryRepo) actions(appointmentID uuid.UUID) []string {
	entries, _ := m.ListForAppointment(context.Background(), appointmentID)
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Action)
	}
	return out
}

type memChannel struct {
	mu   sync.Mutex
	sent int
}

func (m *memChannel) Send(_ context.Context, _, _ string, _ notification.Options) (*notification.SendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	return &notification.SendResult{Success: true, MessageID: "wamid.test"}, nil
}

func (m *memChannel) IsAvailable() bool { return true }
func (m *memChannel) Name() string      { return "whatsapp" }

type fixture struct {
	svc          *Service
	appointments *memAppointmentRepo
	requests     *memRequestRepo
	reminders    *memReminderRepo
	patients     *memPatientRepo
	history      *memHistoryRepo
	channel      *memChannel
	patientID    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := logger.NewLogger(nil)
	cfg := config.RemindersConfig{
		SendTime:     "08:00",
		Timezone:     "America/Bogota",
		BatchSize:    50,
		PollInterval: time.Minute,
		MaxAttempts:  3,
	}

	fx := &fixture{
		appointments: &memAppointmentRepo{items: make(map[uuid.UUID]*model.Appointment)},
		requests:     &memRequestRepo{items: make(map[uuid.UUID]*model.AppointmentRequest)},
		reminders:    &memReminderRepo{items: make(map[uuid.UUID]*model.Reminder)},
		patients:     &memPatientRepo{patients: make(map[uuid.UUID]*model.Patient)},
		history:      &memHistoryRepo{},
		channel:      &memChannel{},
		patientID:    uuid.New(),
	}
	fx.patients.patients[fx.patientID] = &model.Patient{
		Base:      model.Base{ID: fx.patientID},
		FirstName: "María",
		LastName:  "Gómez",
		WhatsApp:  "573001234567",
	}

	historySvc := historyService.NewService(fx.history, log)
	requestSvc := requestService.NewService(fx.requests, nil, log)

	scheduler, err := reminderService.NewScheduler(fx.reminders, fx.patients, cfg, log)
	require.NoError(t, err)

	channels := map[model.ReminderChannel]notification.Channel{model.ChannelWhatsApp: fx.channel}
	dispatcher := reminderService.NewDispatcher(
		fx.reminders, fx.appointments, fx.patients, channels, historySvc, cfg,
		reminderService.TemplateConfig{Reminder: "r", Confirmation: "c", Language: "es_CO"},
		log, metrics.NewUnregistered("test"),
	)

	fx.svc = NewService(fx.appointments, requestSvc, scheduler, dispatcher, historySvc, nil, log)
	return fx
}

func futureDate(days int) *time.Time {
	d := time.Now().AddDate(0, 0, days).Truncate(24 * time.Hour)
	return &d
}

func TestCreateSchedulesReminderAndWritesHistory(t *testing.T) {
	fx := newFixture(t)

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID:       fx.patientID,
		Type:            model.TypeGeneral,
		AppointmentDate: futureDate(10),
		AppointmentTime: "14:30",
		ActorID:         uuid.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusConfirmed, apt.Status)
	assert.Equal(t, 1, fx.reminders.activeCount(apt.ID))
	assert.Contains(t, fx.history.actions(apt.ID), model.HistoryActionCreated)
}

func TestCreateSealsOriginatingRequest(t *testing.T) {
	fx := newFixture(t)

	req := &model.AppointmentRequest{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   fx.patientID,
		Type:        model.TypeGeneral,
		Priority:    model.PriorityMedium,
		Status:      model.RequestStatusInProgress,
		RequestedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, fx.requests.Create(context.Background(), req))

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID:            fx.patientID,
		AppointmentRequestID: &req.ID,
		Type:                 model.TypeGeneral,
		AppointmentDate:      futureDate(10),
		AppointmentTime:      "09:00",
		ActorID:              uuid.New(),
	})
	require.NoError(t, err)

	sealed, err := fx.requests.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusCompleted, sealed.Status)
	require.NotNil(t, sealed.AppointmentID)
	assert.Equal(t, apt.ID, *sealed.AppointmentID)
	assert.NotNil(t, sealed.TotalManagementMinutes)
}

func TestUpdateDateReschedulesReminder(t *testing.T) {
	fx := newFixture(t)

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID:       fx.patientID,
		Type:            model.TypeGeneral,
		AppointmentDate: futureDate(10),
		AppointmentTime: "14:30",
		ActorID:         uuid.New(),
	})
	require.NoError(t, err)

	newDate := futureDate(15)
	updated, err := fx.svc.Update(context.Background(), apt.ID, &UpdateParams{
		AppointmentDate: newDate,
		ActorID:         uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, newDate.Format("2006-01-02"), updated.AppointmentDate.Format("2006-01-02"))

	// Exactly one active reminder remains, aimed at the new date.
	assert.Equal(t, 1, fx.reminders.activeCount(apt.ID))

	all, err := fx.reminders.ListForAppointment(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.Contains(t, fx.history.actions(apt.ID), model.HistoryActionUpdated)
}

func TestUpdateUnchangedFieldsWritesNoHistory(t *testing.T) {
	fx := newFixture(t)

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID:       fx.patientID,
		Type:            model.TypeGeneral,
		AppointmentDate: futureDate(10),
		AppointmentTime: "14:30",
		DoctorName:      "Laura Pérez",
		ActorID:         uuid.New(),
	})
	require.NoError(t, err)

	before := len(fx.history.actions(apt.ID))

	same := "Laura Pérez"
	_, err = fx.svc.Update(context.Background(), apt.ID, &UpdateParams{
		DoctorName: &same,
		ActorID:    uuid.New(),
	})
	require.NoError(t, err)
	assert.Len(t, fx.history.actions(apt.ID), before)
}

func TestCancelStatusCancelsReminders(t *testing.T) {
	fx := newFixture(t)

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID:       fx.patientID,
		Type:            model.TypeGeneral,
		AppointmentDate: futureDate(10),
		AppointmentTime: "14:30",
		ActorID:         uuid.New(),
	})
	require.NoError(t, err)
	require.Equal(t, 1, fx.reminders.activeCount(apt.ID))

	cancelled, err := fx.svc.ChangeStatus(context.Background(), apt.ID, model.AppointmentStatusCancelled, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	assert.Equal(t, 0, fx.reminders.activeCount(apt.ID))
	assert.Contains(t, fx.history.actions(apt.ID), model.HistoryActionStatusChanged)
}

func TestReactivationReschedulesReminder(t *testing.T) {
	fx := newFixture(t)

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID:       fx.patientID,
		Type:            model.TypeGeneral,
		AppointmentDate: futureDate(10),
		AppointmentTime: "14:30",
		ActorID:         uuid.New(),
	})
	require.NoError(t, err)

	_, err = fx.svc.ChangeStatus(context.Background(), apt.ID, model.AppointmentStatusCancelled, uuid.New())
	require.NoError(t, err)
	require.Equal(t, 0, fx.reminders.activeCount(apt.ID))

	_, err = fx.svc.ChangeStatus(context.Background(), apt.ID, model.AppointmentStatusConfirmed, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 1, fx.reminders.activeCount(apt.ID))
}

func TestChangeStatusRejectsNoopTransition(t *testing.T) {
	fx := newFixture(t)

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID: fx.patientID,
		Type:      model.TypeGeneral,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)

	_, err = fx.svc.ChangeStatus(context.Background(), apt.ID, model.AppointmentStatusConfirmed, uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestSendConfirmationDispatchesAndStamps(t *testing.T) {
	fx := newFixture(t)

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID:       fx.patientID,
		Type:            model.TypeGeneral,
		AppointmentDate: futureDate(10),
		AppointmentTime: "14:30",
		ActorID:         uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.SendConfirmation(context.Background(), apt.ID))
	assert.Equal(t, 1, fx.channel.sent)

	stored, err := fx.appointments.Get(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ConfirmationSentAt)
	assert.Contains(t, fx.history.actions(apt.ID), model.HistoryActionConfirmationSent)
}

func TestSendConfirmationRejectedWhenCancelled(t *testing.T) {
	fx := newFixture(t)

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID:       fx.patientID,
		Type:            model.TypeGeneral,
		AppointmentDate: futureDate(10),
		AppointmentTime: "14:30",
		ActorID:         uuid.New(),
	})
	require.NoError(t, err)

	_, err = fx.svc.ChangeStatus(context.Background(), apt.ID, model.AppointmentStatusCancelled, uuid.New())
	require.NoError(t, err)

	err = fx.svc.SendConfirmation(context.Background(), apt.ID)
	require.Error(t, err)
	assert.Equal(t, 0, fx.channel.sent)
}

func TestDeleteCancelsReminders(t *testing.T) {
	fx := newFixture(t)

	apt, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID:       fx.patientID,
		Type:            model.TypeGeneral,
		AppointmentDate: futureDate(10),
		AppointmentTime: "14:30",
		ActorID:         uuid.New(),
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(context.Background(), apt.ID))
	assert.Equal(t, 0, fx.reminders.activeCount(apt.ID))

	_, err = fx.svc.Get(context.Background(), apt.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestDashboardStatsCached(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.Create(context.Background(), &CreateParams{
		PatientID: fx.patientID,
		Type:      model.TypeGeneral,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)

	stats, err := fx.svc.GetDashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Confirmed)
	assert.Equal(t, 0, stats.Cancelled)

	again, err := fx.svc.GetDashboardStats(context.Background())
	require.NoError(t, err)
	assert.Same(t, stats, again)
}
