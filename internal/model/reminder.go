package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ReminderType distinguishes the two outbound message kinds.
type ReminderType string

const (
	ReminderTypeConfirmation ReminderType = "confirmation"
	ReminderTypeReminder24h  ReminderType = "reminder_24h"
)

// ReminderChannel is the transport a reminder goes out on.
type ReminderChannel string

const (
	ChannelWhatsApp ReminderChannel = "whatsapp"
	ChannelEmail    ReminderChannel = "email"
)

// ReminderStatus lifecycle: pending -> processing -> sent|failed, with
// cancelled reachable from pending/processing when the appointment is
// cancelled or rescheduled.
type ReminderStatus string

const (
	ReminderStatusPending    ReminderStatus = "pending"
	ReminderStatusProcessing ReminderStatus = "processing"
	ReminderStatusSent       ReminderStatus = "sent"
	ReminderStatusFailed     ReminderStatus = "failed"
	ReminderStatusCancelled  ReminderStatus = "cancelled"
)

// ActiveReminderStatuses are states in which a reminder still may be sent.
func ActiveReminderStatuses() []ReminderStatus {
	return []ReminderStatus{ReminderStatusPending, ReminderStatusProcessing}
}

// Reminder is a scheduled outbound notification owned by an appointment.
// At most one active reminder_24h may exist per appointment and scheduled
// instant; the dedup key is (appointment_id, type, channel, scheduled_at).
type Reminder struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	AppointmentID uuid.UUID       `db:"appointment_id" json:"appointment_id"`
	Type          ReminderType    `db:"type" json:"type"`
	Channel       ReminderChannel `db:"channel" json:"channel"`
	Recipient     string          `db:"recipient" json:"recipient"`
	Message       *string         `db:"message" json:"message,omitempty"`
	ScheduledAt   time.Time       `db:"scheduled_at" json:"scheduled_at"`
	SentAt        *time.Time      `db:"sent_at" json:"sent_at,omitempty"`
	Status        ReminderStatus  `db:"status" json:"status"`
	Response      json.RawMessage `db:"response" json:"response,omitempty"`
	ErrorMessage  *string         `db:"error_message" json:"error_message,omitempty"`
	Attempts      int             `db:"attempts" json:"attempts"`
	CancelReason  *string         `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

func (r *Reminder) IsPending() bool {
	return r.Status == ReminderStatusPending
}

// IsFinal reports whether the reminder already reached an end state from the
// dispatcher's point of view (sent or cancelled; failed rows may be retried).
func (r *Reminder) IsFinal() bool {
	return r.Status == ReminderStatusSent || r.Status == ReminderStatusCancelled
}
