package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

var (
	isoDateRegex      = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`)
	dayFirstDateRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	relativeDateRegex = regexp.MustCompile(`^([+-]?\d+)\s*(d|day|days|w|week|weeks)$`)
)

// ParseDate parses a calendar day relative to ref and returns its midnight in ref's location.
// Supported formats:
// - yyyy-mm-dd (e.g., "2024-12-15")
// - dd/mm/yyyy (e.g., "15/12/2024")
// - today, yesterday, tomorrow
// - +N days / -N days (e.g., "+3 days", "-1d", "2 weeks")
func ParseDate(input string, ref time.Time) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}

	today := now.With(ref).BeginningOfDay()
	switch input {
	case "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	}

	if m := isoDateRegex.FindStringSubmatch(input); m != nil {
		return buildDate(m[1], m[2], m[3], ref.Location())
	}
	if m := dayFirstDateRegex.FindStringSubmatch(input); m != nil {
		return buildDate(m[3], m[2], m[1], ref.Location())
	}
	if m := relativeDateRegex.FindStringSubmatch(input); m != nil {
		amount, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid number")
		}
		if amount < -3660 || amount > 3660 {
			return time.Time{}, fmt.Errorf("offset must be within ten years")
		}
		if strings.HasPrefix(m[2], "w") {
			amount *= 7
		}
		return today.AddDate(0, 0, amount), nil
	}

	return time.Time{}, fmt.Errorf("invalid date %q. Use: yyyy-mm-dd, dd/mm/yyyy, today, yesterday, tomorrow or +N days", input)
}

func buildDate(ys, ms, ds string, loc *time.Location) (time.Time, error) {
	year, _ := strconv.Atoi(ys)
	month, _ := strconv.Atoi(ms)
	day, _ := strconv.Atoi(ds)

	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}
	if year < 1970 || year > 2100 {
		return time.Time{}, fmt.Errorf("year must be between 1970 and 2100")
	}

	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
	// Check if date is valid (handles leap years, etc.)
	if d.Day() != day || d.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("invalid date %s-%s-%s", ys, ms, ds)
	}
	return d, nil
}

// ParseMonth parses "yyyy-mm", or any ParseDate input, and returns the first day of that month.
func ParseMonth(input string, ref time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if t, err := time.ParseInLocation("2006-01", input, ref.Location()); err == nil {
		return t, nil
	}
	d, err := ParseDate(input, ref)
	if err != nil {
		return time.Time{}, err
	}
	return now.With(d).BeginningOfMonth(), nil
}

// FormatDay formats a day for display, naming the days next to ref
func FormatDay(day, ref time.Time) string {
	today := now.With(ref).BeginningOfDay()
	d := now.With(day.In(ref.Location())).BeginningOfDay()
	dateStr := d.Format("Mon 02/01/2006")

	switch {
	case d.Equal(today):
		return "Today (" + dateStr + ")"
	case d.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday (" + dateStr + ")"
	case d.Equal(today.AddDate(0, 0, 1)):
		return "Tomorrow (" + dateStr + ")"
	}
	return dateStr
}

// FormatMinutes formats a duration in minutes as "1h 30m", "45m" or "2h"
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	if minutes%60 == 0 {
		return fmt.Sprintf("%dh", minutes/60)
	}
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}
