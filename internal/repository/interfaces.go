package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/serviconli/citas-api/internal/model"
)

type AppointmentRequestRepository interface {
	Create(ctx context.Context, req *model.AppointmentRequest) error
	Get(ctx context.Context, id uuid.UUID) (*model.AppointmentRequest, error)
	Update(ctx context.Context, req *model.AppointmentRequest) error
	List(ctx context.Context, filters *model.RequestFilters) ([]*model.AppointmentRequest, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, apt *model.Appointment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, apt *model.Appointment) error
	List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	StampConfirmationSent(ctx context.Context, id uuid.UUID, at time.Time) error
	StampReminderSent(ctx context.Context, id uuid.UUID, at time.Time) error
	CountByStatus(ctx context.Context, status model.AppointmentStatus) (int, error)
	CountToday(ctx context.Context, day time.Time) (int, error)
}

// ReminderRepository mutations are single-row compare-and-set updates guarded
// by the reminder's current status, so concurrent sweeps cannot double-claim
// or resurrect finished rows.
type ReminderRepository interface {
	Create(ctx context.Context, r *model.Reminder) error
	Get(ctx context.Context, id uuid.UUID) (*model.Reminder, error)
	// DueBatch returns pending reminders with scheduled_at <= now, plus
	// failed ones still under the attempt budget, earliest-due first.
	DueBatch(ctx context.Context, now time.Time, maxAttempts, limit int) ([]*model.Reminder, error)
	// Claim transitions the row to processing iff its status still equals
	// expected. Returns false when another sweep won the race.
	Claim(ctx context.Context, id uuid.UUID, expected model.ReminderStatus) (bool, error)
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time, response json.RawMessage) error
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error
	// SetContent records the resolved recipient and rendered message just
	// before dispatch.
	SetContent(ctx context.Context, id uuid.UUID, recipient, message string) error
	// CancelActive cancels all pending/processing reminders of the given
	// type for an appointment and returns how many rows changed.
	CancelActive(ctx context.Context, appointmentID uuid.UUID, typ model.ReminderType, reason string) (int64, error)
	// Cancel cancels a single pending/processing reminder. Returns false
	// when the row is already final.
	Cancel(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	// ActiveExists reports whether an active reminder already exists for the
	// dedup key (appointment, type, channel). The send instant is not part of
	// the key: a clamped instant moves on every call, and the scheduler
	// cancels actives before writing a genuinely new schedule.
	ActiveExists(ctx context.Context, appointmentID uuid.UUID, typ model.ReminderType, channel model.ReminderChannel) (bool, error)
	// ReclaimStale resets processing rows older than the cutoff back to
	// pending, so reminders orphaned by a crashed sweep get retried.
	ReclaimStale(ctx context.Context, cutoff time.Time) (int64, error)
	ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.Reminder, error)
}

type PatientRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
}

type HistoryRepository interface {
	Create(ctx context.Context, entry *model.AppointmentHistory) error
	ListForAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentHistory, error)
}
