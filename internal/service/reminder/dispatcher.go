package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/serviconli/citas-api/internal/config"
	"github.com/serviconli/citas-api/internal/model"
	"github.com/serviconli/citas-api/internal/notification"
	"github.com/serviconli/citas-api/internal/repository"
	"github.com/serviconli/citas-api/internal/service/history"
	"github.com/serviconli/citas-api/pkg/logger"
	"github.com/serviconli/citas-api/pkg/metrics"
)

// Dispatcher runs the periodic due-reminder sweep: claim a bounded batch of
// due rows, hand each to the notification channel, and record the outcome.
type Dispatcher struct {
	reminders    repository.ReminderRepository
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	channels     map[model.ReminderChannel]notification.Channel
	historySvc   *history.Service
	cfg          config.RemindersConfig
	templates    TemplateConfig
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time

	// sweeping guards against overlapping sweeps: a new one is skipped
	// while the previous is still running.
	sweeping sync.Mutex
}

// TemplateConfig names the approved WhatsApp templates per reminder type.
type TemplateConfig struct {
	Reminder     string
	Confirmation string
	Language     string
}

func NewDispatcher(
	reminders repository.ReminderRepository,
	appointments repository.AppointmentRepository,
	patients repository.PatientRepository,
	channels map[model.ReminderChannel]notification.Channel,
	historySvc *history.Service,
	cfg config.RemindersConfig,
	templates TemplateConfig,
	log *logger.Logger,
	m *metrics.Metrics,
) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.StalenessTimeout <= 0 {
		cfg.StalenessTimeout = 10 * time.Minute
	}
	return &Dispatcher{
		reminders:    reminders,
		appointments: appointments,
		patients:     patients,
		channels:     channels,
		historySvc:   historySvc,
		cfg:          cfg,
		templates:    templates,
		logger:       log,
		metrics:      m,
		now:          time.Now,
	}
}

// Start runs the sweep on the poll interval until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	d.logger.Info("starting reminder dispatcher",
		"poll_interval", d.cfg.PollInterval.String(),
		"batch_size", d.cfg.BatchSize)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("shutting down reminder dispatcher")
			return
		case <-ticker.C:
			if err := d.DispatchDue(ctx); err != nil {
				d.logger.Error(err, "dispatch sweep failed")
			}
		}
	}
}

// DispatchDue executes one sweep. It is safe to invoke on a cadence: if the
// previous sweep has not finished the call returns immediately.
func (d *Dispatcher) DispatchDue(ctx context.Context) error {
	if !d.sweeping.TryLock() {
		d.logger.Debug("previous sweep still running, skipping")
		return nil
	}
	defer d.sweeping.Unlock()

	timer := prometheus.NewTimer(d.metrics.SweepDuration)
	defer timer.ObserveDuration()

	now := d.now()

	// Reclaim rows orphaned by a crashed sweep before selecting.
	reclaimed, err := d.reminders.ReclaimStale(ctx, now.Add(-d.cfg.StalenessTimeout))
	if err != nil {
		d.logger.Error(err, "failed to reclaim stale reminders")
	} else if reclaimed > 0 {
		d.metrics.StaleReclaimed.Add(float64(reclaimed))
		d.logger.Warn("reclaimed stale processing reminders", "count", reclaimed)
	}

	due, err := d.reminders.DueBatch(ctx, now, d.cfg.MaxAttempts, d.cfg.BatchSize)
	if err != nil {
		d.metrics.DatabaseOperations.WithLabelValues("due_batch", "error").Inc()
		return fmt.Errorf("failed to select due reminders: %w", err)
	}
	d.metrics.DatabaseOperations.WithLabelValues("due_batch", "success").Inc()

	claimed := d.claim(ctx, due)
	d.metrics.DueQueueSize.Set(float64(len(claimed)))
	if len(claimed) == 0 {
		return nil
	}

	// Reminders of the same appointment are dispatched serially so their
	// history writes do not interleave; distinct appointments go to the
	// worker pool in due order.
	groups := groupByAppointment(claimed)

	sem := make(chan struct{}, d.cfg.Workers)
	var wg sync.WaitGroup
	for _, group := range groups {
		wg.Add(1)
		sem <- struct{}{}
		go func(reminders []*model.Reminder) {
			defer wg.Done()
			defer func() { <-sem }()
			for _, r := range reminders {
				if err := d.Dispatch(ctx, r.ID); err != nil {
					d.logger.Error(err, "failed to dispatch reminder",
						"reminder_id", r.ID.String(),
						"appointment_id", r.AppointmentID.String())
				}
			}
		}(group)
	}
	wg.Wait()

	return nil
}

// SendNow persists a reminder due immediately, claims it, and dispatches it
// synchronously. Operator-triggered confirmations go through here so they
// share the sweep's claim and mark semantics.
func (d *Dispatcher) SendNow(ctx context.Context, rem *model.Reminder) error {
	if err := d.reminders.Create(ctx, rem); err != nil {
		return fmt.Errorf("failed to create reminder: %w", err)
	}
	ok, err := d.reminders.Claim(ctx, rem.ID, model.ReminderStatusPending)
	if err != nil {
		return fmt.Errorf("failed to claim reminder: %w", err)
	}
	if !ok {
		// A concurrent sweep picked it up already.
		return nil
	}
	return d.Dispatch(ctx, rem.ID)
}

// claim transitions each due reminder to processing, dropping rows another
// sweep claimed first. Order is preserved (earliest due first).
func (d *Dispatcher) claim(ctx context.Context, due []*model.Reminder) []*model.Reminder {
	claimed := make([]*model.Reminder, 0, len(due))
	for _, r := range due {
		ok, err := d.reminders.Claim(ctx, r.ID, r.Status)
		if err != nil {
			d.logger.Error(err, "failed to claim reminder", "reminder_id", r.ID.String())
			continue
		}
		if !ok {
			continue
		}
		claimed = append(claimed, r)
	}
	return claimed
}

// Dispatch delivers a single claimed reminder. Transport failures are
// recorded on the row (failed, attempts+1) and returned so the sweep's retry
// budget applies; reminders without a reachable recipient are cancelled.
func (d *Dispatcher) Dispatch(ctx context.Context, reminderID uuid.UUID) error {
	reminder, err := d.reminders.Get(ctx, reminderID)
	if err != nil {
		return fmt.Errorf("failed to load reminder: %w", err)
	}

	// Race with cancellation or another dispatch path.
	if reminder.IsFinal() {
		d.metrics.RemindersSkipped.Inc()
		return nil
	}

	apt, err := d.appointments.Get(ctx, reminder.AppointmentID)
	if err != nil {
		return fmt.Errorf("failed to load appointment: %w", err)
	}
	patient, err := d.patients.Get(ctx, apt.PatientID)
	if err != nil {
		return fmt.Errorf("failed to load patient: %w", err)
	}

	channel := d.channels[reminder.Channel]
	if channel == nil {
		err := fmt.Errorf("no transport configured for channel %q", reminder.Channel)
		if markErr := d.reminders.MarkFailed(ctx, reminder.ID, err.Error()); markErr != nil {
			d.logger.Error(markErr, "failed to mark reminder failed", "reminder_id", reminder.ID.String())
		}
		return err
	}

	recipient := reminder.Recipient
	if recipient == "" {
		switch reminder.Channel {
		case model.ChannelEmail:
			recipient = patient.Email
		default:
			recipient = patient.WhatsAppNumber()
		}
	}
	if recipient == "" {
		// Nothing to retry, and a row left in processing would be reclaimed
		// and re-skipped on every sweep.
		if _, err := d.reminders.Cancel(ctx, reminder.ID, "no reachable contact"); err != nil {
			d.logger.Error(err, "failed to cancel unreachable reminder", "reminder_id", reminder.ID.String())
		}
		d.metrics.RemindersSkipped.Inc()
		d.logger.Warn("patient has no reachable contact for reminder",
			"appointment_id", apt.ID.String(), "reminder_id", reminder.ID.String())
		return nil
	}

	body, opts := d.render(reminder, apt, patient)

	if err := d.reminders.SetContent(ctx, reminder.ID, recipient, body); err != nil {
		d.logger.Error(err, "failed to record reminder content", "reminder_id", reminder.ID.String())
	}

	result, err := channel.Send(ctx, recipient, body, opts)
	if err != nil {
		d.metrics.RemindersFailed.Inc()
		d.metrics.TransportSends.WithLabelValues(channel.Name(), "error").Inc()
		if markErr := d.reminders.MarkFailed(ctx, reminder.ID, err.Error()); markErr != nil {
			d.logger.Error(markErr, "failed to mark reminder failed", "reminder_id", reminder.ID.String())
		}
		return fmt.Errorf("failed to send reminder: %w", err)
	}

	d.metrics.RemindersDispatched.Inc()
	d.metrics.TransportSends.WithLabelValues(channel.Name(), "success").Inc()

	sentAt := d.now()
	response, _ := json.Marshal(result)
	if err := d.reminders.MarkSent(ctx, reminder.ID, sentAt, response); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	d.stampAppointment(ctx, reminder, apt, sentAt)
	return nil
}

func (d *Dispatcher) render(reminder *model.Reminder, apt *model.Appointment, patient *model.Patient) (string, notification.Options) {
	switch reminder.Type {
	case model.ReminderTypeConfirmation:
		return notification.BuildConfirmationMessage(apt, patient), notification.Options{
			Type:         notification.MessageTypeTemplate,
			TemplateName: d.templates.Confirmation,
			Language:     d.templates.Language,
			Parameters:   notification.ConfirmationParameters(apt, patient),
		}
	default:
		return notification.BuildReminderMessage(apt), notification.Options{
			Type:         notification.MessageTypeTemplate,
			TemplateName: d.templates.Reminder,
			Language:     d.templates.Language,
			Parameters:   notification.ReminderParameters(apt, patient),
		}
	}
}

func (d *Dispatcher) stampAppointment(ctx context.Context, reminder *model.Reminder, apt *model.Appointment, sentAt time.Time) {
	switch reminder.Type {
	case model.ReminderTypeConfirmation:
		if err := d.appointments.StampConfirmationSent(ctx, apt.ID, sentAt); err != nil {
			d.logger.Error(err, "failed to stamp confirmation_sent_at", "appointment_id", apt.ID.String())
		}
		d.historySvc.Log(ctx, apt.ID, nil, model.HistoryActionConfirmationSent, &history.Entry{
			Description: "Confirmación enviada por WhatsApp",
		})
	default:
		if err := d.appointments.StampReminderSent(ctx, apt.ID, sentAt); err != nil {
			d.logger.Error(err, "failed to stamp reminder_sent_at", "appointment_id", apt.ID.String())
		}
		d.historySvc.Log(ctx, apt.ID, nil, model.HistoryActionReminderSent, &history.Entry{
			Description: "Recordatorio enviado por WhatsApp",
		})
	}
}

func groupByAppointment(reminders []*model.Reminder) [][]*model.Reminder {
	index := make(map[uuid.UUID]int)
	groups := make([][]*model.Reminder, 0, len(reminders))
	for _, r := range reminders {
		i, ok := index[r.AppointmentID]
		if !ok {
			i = len(groups)
			index[r.AppointmentID] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], r)
	}
	return groups
}
