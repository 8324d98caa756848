package model

// AppointmentType classifies what kind of medical service is being managed.
type AppointmentType string

const (
	TypeGeneral        AppointmentType = "general"
	TypeSpecialist     AppointmentType = "specialist"
	TypeLaboratory     AppointmentType = "laboratory"
	TypeImaging        AppointmentType = "imaging"
	TypeAuthorization  AppointmentType = "authorization"
	TypeFormulaRenewal AppointmentType = "formula_renewal"
	TypeEPSChange      AppointmentType = "eps_change"
	TypeIPSChange      AppointmentType = "ips_change"
	TypeOther          AppointmentType = "other"
)

func (t AppointmentType) Label() string {
	switch t {
	case TypeGeneral:
		return "Médico General"
	case TypeSpecialist:
		return "Especialista"
	case TypeLaboratory:
		return "Laboratorios"
	case TypeImaging:
		return "Imágenes Diagnósticas"
	case TypeAuthorization:
		return "Autorización"
	case TypeFormulaRenewal:
		return "Renovación de Fórmula"
	case TypeEPSChange:
		return "Cambio de EPS"
	case TypeIPSChange:
		return "Cambio de IPS"
	case TypeOther:
		return "Otro"
	}
	return string(t)
}

// ShortDescription is the phrasing used inside patient-facing messages.
func (t AppointmentType) ShortDescription() string {
	switch t {
	case TypeGeneral:
		return "cita de medicina general"
	case TypeSpecialist:
		return "cita con especialista"
	case TypeLaboratory:
		return "laboratorios"
	case TypeImaging:
		return "imágenes diagnósticas"
	case TypeAuthorization:
		return "gestión de autorización"
	case TypeFormulaRenewal:
		return "renovación de fórmula médica"
	case TypeEPSChange:
		return "cambio de EPS"
	case TypeIPSChange:
		return "cambio de IPS"
	}
	return "gestión médica"
}

// RequiresAppointmentDetails reports whether the type needs date/doctor/place.
func (t AppointmentType) RequiresAppointmentDetails() bool {
	switch t {
	case TypeGeneral, TypeSpecialist, TypeLaboratory, TypeImaging:
		return true
	}
	return false
}

// Priority of an appointment or request, set by the operator.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

func (p Priority) Label() string {
	switch p {
	case PriorityUrgent:
		return "Urgente"
	case PriorityHigh:
		return "Alta"
	case PriorityMedium:
		return "Media"
	case PriorityLow:
		return "Baja"
	}
	return string(p)
}

func (p Priority) Color() string {
	switch p {
	case PriorityUrgent:
		return "red"
	case PriorityHigh:
		return "orange"
	case PriorityMedium:
		return "yellow"
	case PriorityLow:
		return "gray"
	}
	return "gray"
}
