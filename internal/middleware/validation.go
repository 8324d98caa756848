// Package middleware holds gin middleware shared by the API routes.
package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/serviconli/citas-api/internal/model"
)

// RegisterValidators installs the domain enum validators on gin's binding
// engine so handler DTOs can carry appointment_type, appointment_priority and
// hhmm_time tags. Field names in error output follow the json tag.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "appointment_type", validAppointmentType)
	mustRegister(v, "appointment_priority", validPriority)
	mustRegister(v, "hhmm_time", validHHMM)
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

func validAppointmentType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch model.AppointmentType(value) {
	case model.TypeGeneral, model.TypeSpecialist, model.TypeLaboratory,
		model.TypeImaging, model.TypeAuthorization, model.TypeFormulaRenewal,
		model.TypeEPSChange, model.TypeIPSChange, model.TypeOther:
		return true
	}
	return false
}

func validPriority(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch model.Priority(value) {
	case model.PriorityLow, model.PriorityMedium, model.PriorityHigh, model.PriorityUrgent:
		return true
	}
	return false
}

// validHHMM accepts "HH:MM" and "HH:MM:SS" clock strings.
func validHHMM(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if len(value) != 5 && len(value) != 8 {
		return false
	}
	if value[2] != ':' || (len(value) == 8 && value[5] != ':') {
		return false
	}
	hour := int(value[0]-'0')*10 + int(value[1]-'0')
	minute := int(value[3]-'0')*10 + int(value[4]-'0')
	for _, i := range []int{0, 1, 3, 4} {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return hour <= 23 && minute <= 59
}
