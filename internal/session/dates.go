package session

import (
	"fmt"
	"time"
)

const isoLayout = "2006-01-02"

var months = [...]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// TodayISO returns the local calendar date of now as YYYY-MM-DD.
func TodayISO(now time.Time) string {
	return now.Format(isoLayout)
}

// AddDaysISO shifts an ISO date by n calendar days. It returns "" when iso
// is not a valid date.
func AddDaysISO(iso string, n int) string {
	d, ok := parseISO(iso)
	if !ok {
		return ""
	}
	return d.AddDate(0, 0, n).Format(isoLayout)
}

// FormatDDMMM renders an ISO date as "13JAN". Empty or invalid input gives "".
func FormatDDMMM(iso string) string {
	d, ok := parseISO(iso)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d%s", d.Day(), months[d.Month()-1])
}

// FormatDDMMMYYYY renders an ISO date as "13JAN2026".
func FormatDDMMMYYYY(iso string) string {
	d, ok := parseISO(iso)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d%s%d", d.Day(), months[d.Month()-1], d.Year())
}

func parseISO(iso string) (time.Time, bool) {
	if iso == "" {
		return time.Time{}, false
	}
	d, err := time.ParseInLocation(isoLayout, iso, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}
