package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the simplified two-state model: an appointment only
// exists once the EPS/IPS confirmed it, so it is either confirmed or
// cancelled.
type AppointmentStatus string

const (
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

var appointmentTransitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusConfirmed: {AppointmentStatusCancelled},
	// Reactivation of a cancelled appointment is allowed.
	AppointmentStatusCancelled: {AppointmentStatusConfirmed},
}

func (s AppointmentStatus) AllowedTransitions() []AppointmentStatus {
	return appointmentTransitions[s]
}

func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	for _, allowed := range appointmentTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s AppointmentStatus) Label() string {
	switch s {
	case AppointmentStatusConfirmed:
		return "Confirmada"
	case AppointmentStatusCancelled:
		return "Cancelada"
	}
	return string(s)
}

func (s AppointmentStatus) Color() string {
	switch s {
	case AppointmentStatusConfirmed:
		return "green"
	case AppointmentStatusCancelled:
		return "red"
	}
	return "gray"
}

func (s AppointmentStatus) BadgeClass() string {
	switch s {
	case AppointmentStatusConfirmed:
		return "bg-green-100 text-green-800"
	case AppointmentStatusCancelled:
		return "bg-red-100 text-red-800"
	}
	return ""
}

// ActiveAppointmentStatuses are the states an appointment can be acted on in.
func ActiveAppointmentStatuses() []AppointmentStatus {
	return []AppointmentStatus{AppointmentStatusConfirmed}
}

// Appointment is a confirmed clinic appointment, optionally created from an
// AppointmentRequest it fulfils. The appointment time is kept as an "HH:MM"
// string to stay timezone-agnostic in storage.
type Appointment struct {
	Base
	PatientID            uuid.UUID         `db:"patient_id" json:"patient_id"`
	AppointmentRequestID *uuid.UUID        `db:"appointment_request_id" json:"appointment_request_id,omitempty"`
	Type                 AppointmentType   `db:"type" json:"type"`
	Status               AppointmentStatus `db:"status" json:"status"`
	Priority             Priority          `db:"priority" json:"priority"`
	Specialty            *string           `db:"specialty" json:"specialty,omitempty"`
	AppointmentDate      *time.Time        `db:"appointment_date" json:"appointment_date,omitempty"`
	AppointmentTime      string            `db:"appointment_time" json:"appointment_time,omitempty"`
	DoctorName           string            `db:"doctor_name" json:"doctor_name,omitempty"`
	LocationName         string            `db:"location_name" json:"location_name,omitempty"`
	LocationAddress      string            `db:"location_address" json:"location_address,omitempty"`
	AuthorizationNumber  string            `db:"authorization_number" json:"authorization_number,omitempty"`
	Specifications       string            `db:"specifications" json:"specifications,omitempty"`
	InternalNotes        string            `db:"internal_notes" json:"internal_notes,omitempty"`
	ConfirmationSentAt   *time.Time        `db:"confirmation_sent_at" json:"confirmation_sent_at,omitempty"`
	ReminderSentAt       *time.Time        `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
	CreatedBy            uuid.UUID         `db:"created_by" json:"created_by"`
	AssignedTo           *uuid.UUID        `db:"assigned_to" json:"assigned_to,omitempty"`
}

// CanSendConfirmation reports whether a confirmation message may be sent in
// the appointment's current state.
func (a *Appointment) CanSendConfirmation() bool {
	return a.Status == AppointmentStatusConfirmed
}

// HasSchedule reports whether both date and time are set.
func (a *Appointment) HasSchedule() bool {
	return a.AppointmentDate != nil && a.AppointmentTime != ""
}

// FormattedDateTime renders "DD/MM/YYYY HH:MM" for operator screens.
func (a *Appointment) FormattedDateTime() string {
	if a.AppointmentDate == nil {
		return ""
	}
	out := a.AppointmentDate.Format("02/01/2006")
	if len(a.AppointmentTime) >= 5 {
		out += " " + a.AppointmentTime[:5]
	}
	return out
}

// AppointmentFilters narrows admin listing queries.
type AppointmentFilters struct {
	Status     AppointmentStatus
	Priority   Priority
	Type       AppointmentType
	PatientID  uuid.UUID
	TodayOnly  bool
	ActiveOnly bool
}
