package utils

import (
	"fmt"
	"time"

	"github.com/julianstephens/logbook/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// Midnight truncates t to 00:00:00.000 of its calendar day in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayRange returns the half-open bucket [midnight(t), next midnight).
// The end is computed with AddDate so DST days are 23 or 25 hours long.
func DayRange(t time.Time) (time.Time, time.Time) {
	start := Midnight(t)
	return start, start.AddDate(0, 0, 1)
}

// InDay reports whether ts falls within the calendar day of day, measured in
// day's location.
func InDay(ts, day time.Time) bool {
	start, end := DayRange(day)
	return !ts.Before(start) && ts.Before(end)
}

// ParseDateInLocation parses a date string (YYYY-MM-DD) in the specified timezone.
func ParseDateInLocation(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, dateStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), nil
}

// ResolveDate parses dateStr, or returns today's midnight when it is empty.
func ResolveDate(dateStr string, now time.Time) (time.Time, error) {
	if dateStr == "" {
		return Midnight(now), nil
	}
	d, err := ParseDateInLocation(dateStr, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD)", dateStr)
	}
	return d, nil
}

// FormatDuration formats d as "1h 40m", "45m" or "30s".
func FormatDuration(d time.Duration) string {
	seconds := int64(d / time.Second)
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%ds", s)
}

// FormatClock formats d as HH:MM:SS.
func FormatClock(d time.Duration) string {
	seconds := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}
