package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// History actions recorded against an appointment.
const (
	HistoryActionCreated          = "created"
	HistoryActionUpdated          = "updated"
	HistoryActionStatusChanged    = "status_changed"
	HistoryActionConfirmationSent = "confirmation_sent"
	HistoryActionReminderSent     = "reminder_sent"
)

// AppointmentHistory is one audit entry for an appointment mutation. Entries
// are append-only.
type AppointmentHistory struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	UserID        *uuid.UUID `db:"user_id" json:"user_id,omitempty"`
	Action        string     `db:"action" json:"action"`
	FieldChanged  *string    `db:"field_changed" json:"field_changed,omitempty"`
	OldValue      *string    `db:"old_value" json:"old_value,omitempty"`
	NewValue      *string    `db:"new_value" json:"new_value,omitempty"`
	Description   *string    `db:"description" json:"description,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// ActionDescription renders the operator-facing summary of the entry.
func (h *AppointmentHistory) ActionDescription() string {
	switch h.Action {
	case HistoryActionCreated:
		return "Cita creada"
	case HistoryActionUpdated:
		field := ""
		if h.FieldChanged != nil {
			field = *h.FieldChanged
		}
		return fmt.Sprintf("Campo '%s' actualizado", field)
	case HistoryActionStatusChanged:
		old, newVal := "", ""
		if h.OldValue != nil {
			old = *h.OldValue
		}
		if h.NewValue != nil {
			newVal = *h.NewValue
		}
		return fmt.Sprintf("Estado cambiado de '%s' a '%s'", old, newVal)
	case HistoryActionConfirmationSent:
		return "Confirmación enviada al paciente"
	case HistoryActionReminderSent:
		return "Recordatorio enviado al paciente"
	}
	if h.Description != nil {
		return *h.Description
	}
	return h.Action
}
