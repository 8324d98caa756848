package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentStatusTransitions(t *testing.T) {
	assert.True(t, AppointmentStatusConfirmed.CanTransitionTo(AppointmentStatusCancelled))
	assert.True(t, AppointmentStatusCancelled.CanTransitionTo(AppointmentStatusConfirmed))
	assert.False(t, AppointmentStatusConfirmed.CanTransitionTo(AppointmentStatusConfirmed))
	assert.False(t, AppointmentStatusCancelled.CanTransitionTo(AppointmentStatusCancelled))
}

func TestCanSendConfirmation(t *testing.T) {
	apt := &Appointment{Status: AppointmentStatusConfirmed}
	assert.True(t, apt.CanSendConfirmation())

	apt.Status = AppointmentStatusCancelled
	assert.False(t, apt.CanSendConfirmation())
}

func TestHasSchedule(t *testing.T) {
	date := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	apt := &Appointment{}
	assert.False(t, apt.HasSchedule())

	apt.AppointmentDate = &date
	assert.False(t, apt.HasSchedule())

	apt.AppointmentTime = "14:30"
	assert.True(t, apt.HasSchedule())
}

func TestFormattedDateTime(t *testing.T) {
	date := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)

	apt := &Appointment{AppointmentDate: &date, AppointmentTime: "14:30:00"}
	assert.Equal(t, "20/05/2026 14:30", apt.FormattedDateTime())

	apt.AppointmentTime = ""
	assert.Equal(t, "20/05/2026", apt.FormattedDateTime())

	apt.AppointmentDate = nil
	assert.Equal(t, "", apt.FormattedDateTime())
}

func TestReminderFinality(t *testing.T) {
	tests := []struct {
		status ReminderStatus
		final  bool
	}{
		{ReminderStatusPending, false},
		{ReminderStatusProcessing, false},
		{ReminderStatusFailed, false},
		{ReminderStatusSent, true},
		{ReminderStatusCancelled, true},
	}

	for _, tt := range tests {
		r := &Reminder{Status: tt.status}
		assert.Equal(t, tt.final, r.IsFinal(), "status=%s", tt.status)
	}
}
