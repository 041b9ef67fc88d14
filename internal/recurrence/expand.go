package recurrence

import (
	"time"

	"github.com/jinzhu/now"
	"github.com/teambition/rrule-go"

	"github.com/balkashynov/tempo/internal/models"
)

// ByDayPolicy decides what a weekly rule without a BYDAY clause expands to.
type ByDayPolicy int

const (
	// ByDayNone expands such a rule to nothing.
	ByDayNone ByDayPolicy = iota
	// ByDayEveryDay expands such a rule to every day of the week.
	ByDayEveryDay
)

// ParseByDayPolicy maps the config value ("none", "every_day") to a policy.
func ParseByDayPolicy(s string) (ByDayPolicy, bool) {
	switch s {
	case "", "none":
		return ByDayNone, true
	case "every_day":
		return ByDayEveryDay, true
	}
	return ByDayNone, false
}

var everyDay = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Occurrence is one concrete instance of a series. Never persisted.
type Occurrence struct {
	SeriesID uint
	Start    time.Time
	End      time.Time
	Minutes  int
}

// Expander turns weekly rules into concrete start instants.
// The zero value is ready to use and applies ByDayNone.
type Expander struct {
	MissingByDay ByDayPolicy
}

// Days returns the weekdays a raw rule fires on under the expander's policy.
func (e Expander) Days(raw string) []time.Weekday {
	r := ParseRule(raw)
	if !r.Weekly {
		return nil
	}
	if !r.HasByDay && e.MissingByDay == ByDayEveryDay {
		return everyDay
	}
	return r.Days
}

// Validate checks raw under the expander's policy.
func (e Expander) Validate(raw string) error {
	return Validate(raw, e.MissingByDay == ByDayEveryDay)
}

// Expand returns the start instants of rule between max(seriesStart, from) and
// to, both compared by calendar date and inclusive. Each instant is the day
// combined with clock, in from's location. Unsupported rules yield nothing.
func (e Expander) Expand(rule string, seriesStart, from, to time.Time, clock models.Clock) []time.Time {
	days := e.Days(rule)
	if len(days) == 0 {
		return nil
	}

	loc := from.Location()
	first := now.With(from).BeginningOfDay()
	if start := now.With(seriesStart.In(loc)).BeginningOfDay(); start.After(first) {
		first = start
	}
	last := now.With(to.In(loc)).EndOfDay()
	if first.After(last) {
		return nil
	}

	byweekday := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		byweekday = append(byweekday, rruleDays[d])
	}

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   clock.On(first),
		Byweekday: byweekday,
	})
	if err != nil {
		return nil
	}
	return r.Between(first, last, true)
}

// Occurrences expands s over [from, to], clipped to the series' active window.
// Pauses are not applied here, see Filter.
func (e Expander) Occurrences(s models.Series, from, to time.Time) []Occurrence {
	if s.EndDate != nil {
		end := now.With(s.EndDate.In(to.Location())).EndOfDay()
		if end.Before(to) {
			to = end
		}
	}

	minutes := s.Minutes()
	starts := e.Expand(s.Recurrence, s.StartDate, from, to, s.StartTime)
	out := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		out = append(out, Occurrence{
			SeriesID: s.ID,
			Start:    start,
			End:      s.EndTime.On(start),
			Minutes:  minutes,
		})
	}
	return out
}
