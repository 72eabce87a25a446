package format

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var frPrinter = message.NewPrinter(language.French)

var frMonths = [...]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// Currency renders an euro amount with French grouping and decimal comma.
func Currency(amount float64) string {
	return frPrinter.Sprintf("%.2f", amount) + " €"
}

// Number renders a quantity such as kWh with French grouping and no decimals.
func Number(v float64) string {
	return frPrinter.Sprintf("%.0f", v)
}

func Date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "Date non disponible"
	}
	return frLongDate(*t)
}

// DateString accepts RFC3339 timestamps and plain dates.
func DateString(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Date non disponible"
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return frLongDate(t)
		}
	}
	return "Date invalide"
}

func frLongDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), frMonths[t.Month()-1], t.Year())
}
