package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serviconli/citas-api/internal/model"
)

func templateAppointment() (*model.Appointment, *model.Patient) {
	date := time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)
	apt := &model.Appointment{
		Type:            model.TypeGeneral,
		Status:          model.AppointmentStatusConfirmed,
		AppointmentDate: &date,
		AppointmentTime: "14:30:00",
		DoctorName:      "Laura Pérez",
		LocationName:    "Sede Norte",
		LocationAddress: "Calle 45 #12-30",
	}
	patient := &model.Patient{FirstName: "María", LastName: "Gómez"}
	return apt, patient
}

func TestConfirmationParametersSixSlots(t *testing.T) {
	apt, patient := templateAppointment()

	params := ConfirmationParameters(apt, patient)
	require.Len(t, params, 6)

	assert.Equal(t, "María", params[0])
	assert.Equal(t, "cita de medicina general", params[1])
	assert.Equal(t, "20/05/2026", params[2])
	assert.Equal(t, "14:30", params[3])
	assert.Equal(t, "Sede Norte", params[4])
	assert.Equal(t, ", Calle 45 #12-30", params[5])
}

func TestConfirmationParametersEmptyAddress(t *testing.T) {
	apt, patient := templateAppointment()
	apt.LocationAddress = ""

	params := ConfirmationParameters(apt, patient)
	require.Len(t, params, 6)
	assert.Equal(t, "", params[5])
}

func TestConfirmationParametersSpecialistIncludesSpecialty(t *testing.T) {
	apt, patient := templateAppointment()
	specialty := "dermatología"
	apt.Type = model.TypeSpecialist
	apt.Specialty = &specialty

	params := ConfirmationParameters(apt, patient)
	assert.Equal(t, "cita con especialista (dermatología)", params[1])
}

// The reminder template is registered with the short type label in slot 2,
// not the confirmation phrasing.
func TestReminderParametersUseTypeLabel(t *testing.T) {
	apt, patient := templateAppointment()

	params := ReminderParameters(apt, patient)
	require.Len(t, params, 6)
	assert.Equal(t, "María", params[0])
	assert.Equal(t, "Médico General", params[1])
	assert.Equal(t, "20/05/2026", params[2])
	assert.Equal(t, "14:30", params[3])
	assert.Equal(t, "Sede Norte", params[4])
	assert.Equal(t, ", Calle 45 #12-30", params[5])
}

func TestReminderParametersSpecialist(t *testing.T) {
	apt, patient := templateAppointment()
	specialty := "dermatología"
	apt.Type = model.TypeSpecialist
	apt.Specialty = &specialty

	params := ReminderParameters(apt, patient)
	assert.Equal(t, "especialista (dermatología)", params[1])
}

func TestBuildReminderMessage(t *testing.T) {
	apt, _ := templateAppointment()

	msg := BuildReminderMessage(apt)
	assert.Contains(t, msg, "Biviana")
	assert.Contains(t, msg, "*20 de mayo de 2026*")
	assert.Contains(t, msg, "*14:30*")
	assert.Contains(t, msg, "*Sede Norte*")
	assert.Contains(t, msg, "*Laura Pérez*")
}

func TestBuildReminderMessageWithMissingDetails(t *testing.T) {
	msg := BuildReminderMessage(&model.Appointment{Type: model.TypeGeneral})
	assert.Contains(t, msg, "la fecha asignada")
	assert.Contains(t, msg, "la hora asignada")
	assert.Contains(t, msg, "la sede asignada")
	assert.Contains(t, msg, "el especialista asignado")
}

func TestBuildConfirmationMessage(t *testing.T) {
	apt, patient := templateAppointment()

	msg := BuildConfirmationMessage(apt, patient)
	assert.Contains(t, msg, "*MARÍA GÓMEZ*")
	assert.Contains(t, msg, "*MIÉRCOLES* *20* de *MAYO* del *2026*")
	assert.Contains(t, msg, "*14:30*")
	assert.Contains(t, msg, "DR. LAURA PÉREZ")
	assert.Contains(t, msg, "Calle 45 #12-30")
	assert.Contains(t, msg, "30 minutos antes")
}

func TestBuildConfirmationMessageIncludesSpecifications(t *testing.T) {
	apt, patient := templateAppointment()
	apt.Specifications = "Asistir en ayunas."

	msg := BuildConfirmationMessage(apt, patient)
	assert.Contains(t, msg, "Asistir en ayunas.")
}

func TestFormatForConfirmation(t *testing.T) {
	parts := FormatForConfirmation(time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "MIÉRCOLES", parts.DayName)
	assert.Equal(t, "20", parts.Day)
	assert.Equal(t, "MAYO", parts.Month)
	assert.Equal(t, "2026", parts.Year)
}

func TestFormatLong(t *testing.T) {
	assert.Equal(t, "20 de mayo de 2026",
		FormatLong(time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC)))
}
