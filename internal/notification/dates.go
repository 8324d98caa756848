package notification

import (
	"fmt"
	"strings"
	"time"
)

var spanishDays = map[time.Weekday]string{
	time.Sunday:    "DOMINGO",
	time.Monday:    "LUNES",
	time.Tuesday:   "MARTES",
	time.Wednesday: "MIÉRCOLES",
	time.Thursday:  "JUEVES",
	time.Friday:    "VIERNES",
	time.Saturday:  "SÁBADO",
}

var spanishMonths = map[time.Month]string{
	time.January:   "ENERO",
	time.February:  "FEBRERO",
	time.March:     "MARZO",
	time.April:     "ABRIL",
	time.May:       "MAYO",
	time.June:      "JUNIO",
	time.July:      "JULIO",
	time.August:    "AGOSTO",
	time.September: "SEPTIEMBRE",
	time.October:   "OCTUBRE",
	time.November:  "NOVIEMBRE",
	time.December:  "DICIEMBRE",
}

// DateParts decomposes a date for the confirmation message.
type DateParts struct {
	DayName string
	Day     string
	Month   string
	Year    string
}

func FormatForConfirmation(date time.Time) DateParts {
	return DateParts{
		DayName: spanishDays[date.Weekday()],
		Day:     date.Format("02"),
		Month:   spanishMonths[date.Month()],
		Year:    date.Format("2006"),
	}
}

// FormatLong renders "5 de marzo de 2026".
func FormatLong(date time.Time) string {
	return fmt.Sprintf("%d de %s de %d", date.Day(), strings.ToLower(spanishMonths[date.Month()]), date.Year())
}
