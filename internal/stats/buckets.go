package stats

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"github.com/balkashynov/tempo/internal/apperr"
)

// Granularity selects the span of a totals chart and the size of its buckets.
type Granularity string

const (
	// Week is one Monday-based week bucketed per day.
	Week Granularity = "week"
	// Month is bucketed per ISO week.
	Month Granularity = "month"
	// Year is bucketed per calendar month.
	Year Granularity = "year"
)

// ParseGranularity rejects anything but week, month and year.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(s))); g {
	case Week, Month, Year:
		return g, nil
	}
	return "", apperr.Validation("unsupported granularity %q, use week, month or year", s)
}

// DayKey formats a per-day bucket key
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// WeekKey formats an ISO week bucket key, e.g. 2024-S01.
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-S%02d", year, week)
}

// MonthKey formats a per-month bucket key
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// keyFunc returns the bucket key function of g
func (g Granularity) keyFunc() func(time.Time) string {
	switch g {
	case Week:
		return DayKey
	case Month:
		return WeekKey
	default:
		return MonthKey
	}
}

// labels lists every bucket key of the chart, in order, including empty buckets.
//   - week: the 7 days starting on the Monday on or before from
//   - month: every ISO week from the week of from through the week of to
//   - year: every month from the month of from through the month of to
func (g Granularity) labels(from, to time.Time) []string {
	var out []string
	switch g {
	case Week:
		monday := now.With(from).Monday()
		for i := 0; i < 7; i++ {
			out = append(out, DayKey(monday.AddDate(0, 0, i)))
		}
	case Month:
		for d := now.With(from).Monday(); !d.After(to); d = d.AddDate(0, 0, 7) {
			out = append(out, WeekKey(d))
		}
	case Year:
		for d := now.With(from).BeginningOfMonth(); !d.After(to); d = d.AddDate(0, 1, 0) {
			out = append(out, MonthKey(d))
		}
	}
	return out
}
