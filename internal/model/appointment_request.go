package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RequestStatus is the lifecycle state of an appointment request. The status
// only moves forward: pending -> in_progress -> {completed|cancelled|failed}.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "in_progress"
	RequestStatusCompleted  RequestStatus = "completed"
	RequestStatusCancelled  RequestStatus = "cancelled"
	RequestStatusFailed     RequestStatus = "failed"
)

var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending:    {RequestStatusInProgress, RequestStatusCancelled},
	RequestStatusInProgress: {RequestStatusCompleted, RequestStatusFailed, RequestStatusCancelled},
	RequestStatusCompleted:  {},
	RequestStatusCancelled:  {},
	RequestStatusFailed:     {},
}

func (s RequestStatus) AllowedTransitions() []RequestStatus {
	return requestTransitions[s]
}

func (s RequestStatus) CanTransitionTo(target RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s RequestStatus) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

func (s RequestStatus) Label() string {
	switch s {
	case RequestStatusPending:
		return "Pendiente"
	case RequestStatusInProgress:
		return "En Proceso"
	case RequestStatusCompleted:
		return "Completada"
	case RequestStatusCancelled:
		return "Cancelada"
	case RequestStatusFailed:
		return "No Obtenida"
	}
	return string(s)
}

func (s RequestStatus) Color() string {
	switch s {
	case RequestStatusPending:
		return "yellow"
	case RequestStatusInProgress:
		return "blue"
	case RequestStatusCompleted:
		return "green"
	case RequestStatusCancelled:
		return "gray"
	case RequestStatusFailed:
		return "red"
	}
	return "gray"
}

func (s RequestStatus) BadgeClass() string {
	switch s {
	case RequestStatusPending:
		return "bg-yellow-100 text-yellow-800"
	case RequestStatusInProgress:
		return "bg-blue-100 text-blue-800"
	case RequestStatusCompleted:
		return "bg-green-100 text-green-800"
	case RequestStatusCancelled:
		return "bg-gray-100 text-gray-800"
	case RequestStatusFailed:
		return "bg-red-100 text-red-800"
	}
	return ""
}

func (s RequestStatus) Icon() string {
	switch s {
	case RequestStatusPending:
		return "⏳"
	case RequestStatusInProgress:
		return "🔄"
	case RequestStatusCompleted:
		return "✅"
	case RequestStatusCancelled:
		return "❌"
	case RequestStatusFailed:
		return "⚠️"
	}
	return ""
}

// ActiveRequestStatuses are the non-final states.
func ActiveRequestStatuses() []RequestStatus {
	return []RequestStatus{RequestStatusPending, RequestStatusInProgress}
}

// AppointmentRequest is a tracked customer request for a medical appointment,
// prior to one being secured by an operator.
type AppointmentRequest struct {
	Base
	PatientID   uuid.UUID       `db:"patient_id" json:"patient_id"`
	Type        AppointmentType `db:"type" json:"type"`
	Priority    Priority        `db:"priority" json:"priority"`
	Specialty   *string         `db:"specialty" json:"specialty,omitempty"`
	Status      RequestStatus   `db:"status" json:"status"`
	RequestedAt time.Time       `db:"requested_at" json:"requested_at"`
	StartedAt   *time.Time      `db:"started_at" json:"started_at,omitempty"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	// TotalManagementMinutes is frozen when the request reaches a terminal
	// state. It is never recomputed afterwards, even if requested_at is
	// edited (audit stability over correctness-on-edit).
	TotalManagementMinutes *int       `db:"total_management_minutes" json:"total_management_minutes,omitempty"`
	ClientNotes            string     `db:"client_notes" json:"client_notes,omitempty"`
	OperatorNotes          string     `db:"operator_notes" json:"operator_notes,omitempty"`
	AppointmentID          *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	CreatedBy              uuid.UUID  `db:"created_by" json:"created_by"`
	AssignedTo             *uuid.UUID `db:"assigned_to" json:"assigned_to,omitempty"`
}

// Start moves the request from pending to in_progress and stamps started_at.
// Returns false if the request is not pending.
func (r *AppointmentRequest) Start(now time.Time, operatorID *uuid.UUID) bool {
	if !r.Status.CanTransitionTo(RequestStatusInProgress) {
		return false
	}
	r.Status = RequestStatusInProgress
	r.StartedAt = &now
	if operatorID != nil {
		r.AssignedTo = operatorID
	}
	return true
}

// Complete seals the request: terminal state, completed_at and the frozen
// management time are set exactly once.
func (r *AppointmentRequest) Complete(now time.Time, appointmentID uuid.UUID) bool {
	if !r.Status.CanTransitionTo(RequestStatusCompleted) {
		return false
	}
	r.Status = RequestStatusCompleted
	r.AppointmentID = &appointmentID
	r.finish(now)
	return true
}

// Fail marks the request as not obtained, appending the reason to the
// operator notes.
func (r *AppointmentRequest) Fail(now time.Time, reason string) bool {
	if !r.Status.CanTransitionTo(RequestStatusFailed) {
		return false
	}
	r.Status = RequestStatusFailed
	if reason != "" {
		r.appendNote("Motivo: " + reason)
	}
	r.finish(now)
	return true
}

// Cancel marks the request as cancelled by the client.
func (r *AppointmentRequest) Cancel(now time.Time, reason string) bool {
	if !r.Status.CanTransitionTo(RequestStatusCancelled) {
		return false
	}
	r.Status = RequestStatusCancelled
	if reason != "" {
		r.appendNote("Cancelación: " + reason)
	}
	r.finish(now)
	return true
}

func (r *AppointmentRequest) finish(now time.Time) {
	r.CompletedAt = &now
	minutes := int(now.Sub(r.RequestedAt).Minutes())
	r.TotalManagementMinutes = &minutes
}

func (r *AppointmentRequest) appendNote(note string) {
	if note == "" {
		return
	}
	if r.OperatorNotes != "" {
		r.OperatorNotes = fmt.Sprintf("%s\n%s", r.OperatorNotes, note)
	} else {
		r.OperatorNotes = note
	}
}

// RequestFilters narrows admin listing queries.
type RequestFilters struct {
	Status     RequestStatus
	Priority   Priority
	Type       AppointmentType
	PatientID  uuid.UUID
	AssignedTo uuid.UUID
	ActiveOnly bool
}
