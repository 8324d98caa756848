package notification

import (
	"fmt"
	"strings"

	"github.com/serviconli/citas-api/internal/model"
)

// ConfirmationParameters builds the ordered six-slot parameter list the
// approved confirmation template expects:
//  1. patient first name
//  2. appointment-type description
//  3. date DD/MM/YYYY
//  4. time HH:mm
//  5. location name
//  6. address with leading ", " or empty
func ConfirmationParameters(apt *model.Appointment, patient *model.Patient) []string {
	return sixSlotParameters(apt, patient, appointmentTypeDescription(apt))
}

// ReminderParameters builds the same six slots for the reminder template,
// whose registered slot 2 carries the type label ("Médico General") rather
// than the confirmation's longer phrasing.
func ReminderParameters(apt *model.Appointment, patient *model.Patient) []string {
	typeDesc := apt.Type.Label()
	if apt.Type == model.TypeSpecialist && apt.Specialty != nil && *apt.Specialty != "" {
		typeDesc = fmt.Sprintf("especialista (%s)", *apt.Specialty)
	}
	return sixSlotParameters(apt, patient, typeDesc)
}

func sixSlotParameters(apt *model.Appointment, patient *model.Patient, typeDesc string) []string {
	firstName := strings.TrimSpace(patient.FirstName)

	date := ""
	if apt.AppointmentDate != nil {
		date = apt.AppointmentDate.Format("02/01/2006")
	}
	timeStr := shortTime(apt.AppointmentTime)

	address := strings.TrimSpace(apt.LocationAddress)
	addressWithPrefix := ""
	if address != "" {
		addressWithPrefix = ", " + address
	}

	return []string{firstName, typeDesc, date, timeStr, apt.LocationName, addressWithPrefix}
}

// BuildReminderMessage renders the free-text body of the D-1 reminder.
func BuildReminderMessage(apt *model.Appointment) string {
	date := "la fecha asignada"
	if apt.AppointmentDate != nil {
		date = FormatLong(*apt.AppointmentDate)
	}
	timeStr := shortTime(apt.AppointmentTime)
	if timeStr == "" {
		timeStr = "la hora asignada"
	}
	location := apt.LocationName
	if location == "" {
		location = "la sede asignada"
	}
	doctor := apt.DoctorName
	if doctor == "" {
		doctor = "el especialista asignado"
	}

	var b strings.Builder
	b.WriteString("Le saluda Biviana de la Central de Citas de Serviconli. 🌿\n\n")
	fmt.Fprintf(&b, "Me permito recordarle que tiene una cita programada el día *%s* a las *%s*, ", date, timeStr)
	fmt.Fprintf(&b, "en *%s*, con el doctor/a *%s*.\n\n", location, doctor)
	b.WriteString("En Serviconli estamos comprometidos con su bienestar y el de su familia. ")
	b.WriteString("Si tiene alguna inquietud, no dude en contactarnos.\n\n")
	b.WriteString("¡Gracias por confiar en nosotros! 💙\n\n")
	b.WriteString("— Equipo Serviconli")
	return b.String()
}

// BuildConfirmationMessage renders the free-text body of the confirmation.
func BuildConfirmationMessage(apt *model.Appointment, patient *model.Patient) string {
	fullName := strings.ToUpper(patient.FullName())
	typeDesc := appointmentTypeDescription(apt)

	timeStr := shortTime(apt.AppointmentTime)
	if timeStr == "" {
		timeStr = "por confirmar"
	}
	doctor := "el especialista asignado"
	if apt.DoctorName != "" {
		doctor = "DR. " + strings.ToUpper(apt.DoctorName)
	}
	location := apt.LocationName
	if location == "" {
		location = "la sede asignada"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "La cita de *%s* para *%s* fue asignada para el día ", fullName, typeDesc)
	if apt.AppointmentDate != nil {
		parts := FormatForConfirmation(*apt.AppointmentDate)
		fmt.Fprintf(&b, "*%s* *%s* de *%s* del *%s* ", parts.DayName, parts.Day, parts.Month, parts.Year)
	}
	fmt.Fprintf(&b, "a las *%s* con el *%s*. ", timeStr, doctor)
	fmt.Fprintf(&b, "En *%s*", location)
	if apt.LocationAddress != "" {
		fmt.Fprintf(&b, ", %s", apt.LocationAddress)
	}
	b.WriteString(", recuerde llegar 30 minutos antes con el documento de identidad original, cuota moderadora y tapabocas.")
	if apt.Specifications != "" {
		fmt.Fprintf(&b, " %s", apt.Specifications)
	}
	b.WriteString("\n\n¡Gracias por confiar en nosotros! 💙\n\n— Equipo Serviconli")
	return b.String()
}

func appointmentTypeDescription(apt *model.Appointment) string {
	if apt.Type == model.TypeSpecialist && apt.Specialty != nil && *apt.Specialty != "" {
		return fmt.Sprintf("cita con especialista (%s)", *apt.Specialty)
	}
	return apt.Type.ShortDescription()
}

func shortTime(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}
