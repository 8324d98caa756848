// Package reminder holds the D-1 reminder scheduler and the due-reminder
// dispatch loop, the temporal core of the back-office.
package reminder

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/serviconli/citas-api/internal/config"
	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/repository"
	"github.com/serviconli/citas-api/pkg/logger"
)

const rescheduleReason = "rescheduled due to appointment update"

// Scheduler keeps at most one active reminder_24h per appointment consistent
// with the appointment's current date, time and status.
type Scheduler struct {
	reminders repository.ReminderRepository
	patients  repository.PatientRepository
	cfg       config.RemindersConfig
	location  *time.Location
	logger    *logger.Logger
	now       func() time.Time
}

func NewScheduler(
	reminders repository.ReminderRepository,
	patients repository.PatientRepository,
	cfg config.RemindersConfig,
	log *logger.Logger,
) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load reminder timezone %q: %w", cfg.Timezone, err)
	}
	return &Scheduler{
		reminders: reminders,
		patients:  patients,
		cfg:       cfg,
		location:  loc,
		logger:    log,
		now:       time.Now,
	}, nil
}

// ScheduleOrReschedule decides whether a reminder_24h must exist for the
// appointment and creates it when missing. With isReschedule set, currently
// active reminders are cancelled first so the new date wins. The call is
// idempotent: repeated invocations with unchanged inputs leave exactly one
// active reminder.
func (s *Scheduler) ScheduleOrReschedule(ctx context.Context, apt *model.Appointment, isReschedule bool) error {
	if isReschedule {
		if _, err := s.reminders.CancelActive(ctx, apt.ID, model.ReminderTypeReminder24h, rescheduleReason); err != nil {
			return fmt.Errorf("failed to cancel reminders for reschedule: %w", err)
		}
	}

	if apt.Status == model.AppointmentStatusCancelled {
		return s.CancelForAppointment(ctx, apt.ID, "appointment cancelled")
	}

	if !apt.HasSchedule() {
		return nil
	}

	now := s.now()
	if !s.isFutureDay(*apt.AppointmentDate, now) {
		// Same-day or past appointments get no D-1 reminder; any leftover
		// pending one is stale and must go.
		return s.CancelForAppointment(ctx, apt.ID, "appointment date is today or past")
	}

	recipient, err := s.resolveRecipient(ctx, apt)
	if err != nil {
		return err
	}
	if recipient == "" {
		// Not an error: the patient is simply unreachable on this channel.
		s.logger.Warn("patient has no WhatsApp number, skipping reminder",
			"appointment_id", apt.ID.String())
		return nil
	}

	scheduledAt, err := s.computeSendInstant(*apt.AppointmentDate)
	if err != nil {
		// Malformed stored date/time: abort scheduling quietly so one bad
		// row cannot break the caller's batch.
		s.logger.Warn("invalid appointment date/time, skipping reminder",
			"appointment_id", apt.ID.String(), "error", err.Error())
		return nil
	}

	// Clock-skew correction: the send instant may already be behind us even
	// though the appointment itself is still in the future. Send as soon as
	// possible instead of silently dropping it.
	if scheduledAt.Before(now) {
		scheduledAt = now.Add(time.Minute)
	}

	// Any surviving active row means the inputs have not changed: date or
	// time edits arrive with isReschedule set and were cancelled above. The
	// check deliberately ignores the instant, which moves under the clamp.
	exists, err := s.reminders.ActiveExists(ctx, apt.ID, model.ReminderTypeReminder24h, model.ChannelWhatsApp)
	if err != nil {
		return fmt.Errorf("failed to check for existing reminder: %w", err)
	}
	if exists {
		return nil
	}

	reminder := &model.Reminder{
		ID:            uuid.New(),
		AppointmentID: apt.ID,
		Type:          model.ReminderTypeReminder24h,
		Channel:       model.ChannelWhatsApp,
		Recipient:     recipient,
		ScheduledAt:   scheduledAt,
		Status:        model.ReminderStatusPending,
	}
	if err := s.reminders.Create(ctx, reminder); err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}

	s.logger.Info("reminder scheduled",
		"appointment_id", apt.ID.String(),
		"scheduled_at", scheduledAt.Format(time.RFC3339))
	return nil
}

// CancelForAppointment cancels every active reminder_24h of an appointment.
func (s *Scheduler) CancelForAppointment(ctx context.Context, appointmentID uuid.UUID, reason string) error {
	cancelled, err := s.reminders.CancelActive(ctx, appointmentID, model.ReminderTypeReminder24h, reason)
	if err != nil {
		return fmt.Errorf("failed to cancel reminders: %w", err)
	}
	if cancelled > 0 {
		s.logger.Info("reminders cancelled",
			"appointment_id", appointmentID.String(),
			"count", cancelled, "reason", reason)
	}
	return nil
}

func (s *Scheduler) resolveRecipient(ctx context.Context, apt *model.Appointment) (string, error) {
	patient, err := s.patients.Get(ctx, apt.PatientID)
	if err != nil {
		return "", fmt.Errorf("failed to load patient: %w", err)
	}
	return patient.WhatsAppNumber(), nil
}

// isFutureDay reports whether the appointment date falls on a calendar day
// strictly after today in the configured local zone.
func (s *Scheduler) isFutureDay(date, now time.Time) bool {
	localNow := now.In(s.location)
	today := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, s.location)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, s.location)
	return day.After(today)
}

// computeSendInstant places the configured clock time on the day before the
// appointment, in the local zone, and converts to UTC for storage.
func (s *Scheduler) computeSendInstant(date time.Time) (time.Time, error) {
	hour, minute, err := parseSendTime(s.cfg.SendTime)
	if err != nil {
		return time.Time{}, err
	}
	dayBefore := date.AddDate(0, 0, -1)
	local := time.Date(dayBefore.Year(), dayBefore.Month(), dayBefore.Day(), hour, minute, 0, 0, s.location)
	return local.UTC(), nil
}

func parseSendTime(value string) (hour, minute int, err error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid send_time %q", value)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid send_time hour %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid send_time minute %q", value)
	}
	return hour, minute, nil
}
