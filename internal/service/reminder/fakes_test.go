package reminder

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/notification"
	apperrors "github.com/serviconli/citas-api/pkg/errors"
)

// fakeReminderRepo mirrors the CAS semantics of the postgres implementation
// in memory: status-guarded single-row updates.
type fakeReminderRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*model.Reminder
	now   func() time.Time
}

func newFakeReminderRepo() *fakeReminderRepo {
	return &fakeReminderRepo{
		items: make(map[uuid.UUID]*model.Reminder),
		now:   time.Now,
	}
}

func (f *fakeReminderRepo) Create(_ context.Context, r *model.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *r
	copied.CreatedAt = f.now()
	copied.UpdatedAt = copied.CreatedAt
	f.items[r.ID] = &copied
	return nil
}

func (f *fakeReminderRepo) Get(_ context.Context, id uuid.UUID) (*model.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return nil, apperrors.NotFound("reminder", nil)
	}
	copied := *r
	return &copied, nil
}

func (f *fakeReminderRepo) DueBatch(_ context.Context, now time.Time, maxAttempts, limit int) ([]*model.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []*model.Reminder
	for _, r := range f.items {
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

func (f *fakeReminderRepo) Claim(_ context.Context, id uuid.UUID, expected model.ReminderStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok || r.Status != expected {
		return false, nil
	}
	r.Status = model.ReminderStatusProcessing
	r.UpdatedAt = f.now()
	return true, nil
}

func (f *fakeReminderRepo) MarkSent(_ context.Context, id uuid.UUID, sentAt time.Time, response json.RawMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok || r.Status != model.ReminderStatusProcessing {
		return apperrors.NotFound("reminder", nil)
	}
	r.Status = model.ReminderStatusSent
	r.SentAt = &sentAt
	r.Response = response
	r.UpdatedAt = f.now()
	return nil
}

func (f *fakeReminderRepo) MarkFailed(_ context.Context, id uuid.UUID, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok || r.Status != model.ReminderStatusProcessing {
		return apperrors.NotFound("reminder", nil)
	}
	r.Status = model.ReminderStatusFailed
	r.ErrorMessage = &errorMessage
	r.Attempts++
	r.UpdatedAt = f.now()
	return nil
}

func (f *fakeReminderRepo) SetContent(_ context.Context, id uuid.UUID, recipient, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return apperrors.NotFound("reminder", nil)
	}
	r.Recipient = recipient
	r.Message = &message
	return nil
}

func (f *fakeReminderRepo) CancelActive(_ context.Context, appointmentID uuid.UUID, typ model.ReminderType, reason string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, r := range f.items {
		if r.AppointmentID != appointmentID || r.Type != typ {
			continue
		}
		if r.Status == model.ReminderStatusPending || r.Status == model.ReminderStatusProcessing {
			r.Status = model.ReminderStatusCancelled
			r.CancelReason = &reason
			r.UpdatedAt = f.now()
			count++
		}
	}
	return count, nil
}

func (f *fakeReminderRepo) Cancel(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		return false, nil
	}
	if r.Status != model.ReminderStatusPending && r.Status != model.ReminderStatusProcessing {
		return false, nil
	}
	r.Status = model.ReminderStatusCancelled
	r.CancelReason = &reason
	r.UpdatedAt = f.now()
	return true, nil
}

func (f *fakeReminderRepo) ActiveExists(_ context.Context, appointmentID uuid.UUID, typ model.ReminderType, channel model.ReminderChannel) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.AppointmentID == appointmentID && r.Type == typ && r.Channel == channel &&
			(r.Status == model.ReminderStatusPending || r.Status == model.ReminderStatusProcessing) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeReminderRepo) ReclaimStale(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, r := range f.items {
		if r.Status == model.ReminderStatusProcessing && r.UpdatedAt.Before(cutoff) {
			r.Status = model.ReminderStatusPending
			r.UpdatedAt = f.now()
			count++
		}
	}
	return count, nil
}

func (f *fakeReminderRepo) ListForAppointment(_ context.Context, appointmentID uuid.UUID) ([]*model.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Reminder
	for _, r := range f.items {
		if r.AppointmentID == appointmentID {
			copied := *r
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (f *fakeReminderRepo) byStatus(status model.ReminderStatus) []*model.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Reminder
	for _, r := range f.items {
		if r.Status == status {
			copied := *r
			out = append(out, &copied)
		}
	}
	return out
}

type fakePatientRepo struct {
	patients map[uuid.UUID]*model.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return p, nil
}

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*model.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appointments[apt.ID] = apt
	return nil
}

func (f *fakeAppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return apt, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appointments[apt.ID] = apt
	return nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, _ *model.AppointmentFilters) ([]*model.Appointment, error) {
	return nil, nil
}

func (f *fakeAppointmentRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.appointments, id)
	return nil
}

func (f *fakeAppointmentRepo) StampConfirmationSent(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if apt, ok := f.appointments[id]; ok {
		apt.ConfirmationSentAt = &at
	}
	return nil
}

func (f *fakeAppointmentRepo) StampReminderSent(_ context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if apt, ok := f.appointments[id]; ok {
		apt.ReminderSentAt = &at
	}
	return nil
}

func (f *fakeAppointmentRepo) CountByStatus(_ context.Context, _ model.AppointmentStatus) (int, error) {
	return 0, nil
}

func (f *fakeAppointmentRepo) CountToday(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []*model.AppointmentHistory
}

func (f *fakeHistoryRepo) Create(_ context.Context, entry *model.AppointmentHistory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeHistoryRepo) ListForAppointment(_ context.Context, appointmentID uuid.UUID) ([]*model.AppointmentHistory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.AppointmentHistory
	for _, e := range f.entries {
		if e.AppointmentID == appointmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeChannel records sends and fails for recipients listed in failFor.
type fakeChannel struct {
	mu      sync.Mutex
	sent    []string
	failFor map[string]error
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{failFor: make(map[string]error)}
}

func (f *fakeChannel) Send(_ context.Context, recipient, _ string, _ notification.Options) (*notification.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failFor[recipient]; ok {
		return nil, err
	}
	f.sent = append(f.sent, recipient)
	return &notification.SendResult{Success: true, MessageID: "wamid.test"}, nil
}

func (f *fakeChannel) IsAvailable() bool { return true }

func (f *fakeChannel) Name() string { return "whatsapp" }

func (f *fakeChannel) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
