// Package ical writes series and logged worktimes as an iCalendar feed.
package ical

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/recurrence"
)

const productID = "-//tempo//Time Tracker//EN"

const untilLayout = "20060102T150405Z"

// namespace for stable UIDs: the same row always exports with the same UID.
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/balkashynov/tempo"))

// Exporter converts series and worktimes to VEVENTs.
type Exporter struct {
	Engine recurrence.Engine
	Now    func() time.Time
}

// NewExporter creates an exporter using engine for rule expansion
func NewExporter(engine recurrence.Engine) *Exporter {
	return &Exporter{Engine: engine, Now: time.Now}
}

// UID returns the stable event UID for a row of the given kind.
func UID(kind string, id uint) string {
	return uuid.NewSHA1(namespace, []byte(fmt.Sprintf("%s/%d", kind, id))).String() + "@tempo"
}

// Calendar builds the calendar. Each series becomes one recurring event;
// occurrences inside [from, to] that a linked pause suppresses are listed as
// EXDATE. Finished worktimes become plain events. Series whose rule produces
// nothing are skipped. Every named zone used by an event gets a VTIMEZONE.
func (e *Exporter) Calendar(series []models.Series, worktimes []models.Worktime, from, to time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")

	stamp := e.Now().UTC()
	zones := newZoneSet()
	var events []*ical.Component
	for _, s := range series {
		if ev := e.seriesEvent(s, from, to, stamp, zones); ev != nil {
			events = append(events, ev.Component)
		}
	}
	for _, w := range worktimes {
		if w.Open() {
			continue
		}
		events = append(events, worktimeEvent(w, stamp, zones).Component)
	}
	cal.Children = append(zones.components(to), events...)
	return cal
}

// Export encodes the calendar built by Calendar to w.
func (e *Exporter) Export(w io.Writer, series []models.Series, worktimes []models.Worktime, from, to time.Time) error {
	cal := e.Calendar(series, worktimes, from, to)
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func (e *Exporter) seriesEvent(s models.Series, from, to, stamp time.Time, zones *zoneSet) *ical.Event {
	days := e.Engine.Expander.Days(s.Recurrence)
	if len(days) == 0 {
		return nil
	}

	// DTSTART has to be the first occurrence
	start := s.StartDate
	first := e.Engine.Expander.Occurrences(s, start, start.AddDate(0, 0, 6))
	if len(first) == 0 {
		return nil
	}
	dtstart := first[0].Start

	codes := make([]string, 0, len(days))
	for _, d := range days {
		codes = append(codes, recurrence.Code(d))
	}
	rule := "FREQ=WEEKLY;BYDAY=" + strings.Join(codes, ",")
	if s.EndDate != nil {
		until := s.StartTime.On(s.EndDate.In(dtstart.Location()))
		zones.cover(until)
		rule += ";UNTIL=" + until.UTC().Format(untilLayout)
	}

	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, UID("series", s.ID))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ev.Props.SetText(ical.PropSummary, summary(s.Category.Name))
	if s.Category.Name != "" {
		ev.Props.SetText(ical.PropCategories, s.Category.Name)
	}
	ev.Props.SetDateTime(ical.PropDateTimeStart, zones.zoned(dtstart))
	ev.Props.SetDateTime(ical.PropDateTimeEnd, zones.zoned(s.EndTime.On(dtstart)))

	rrule := ical.NewProp(ical.PropRecurrenceRule)
	rrule.Value = rule
	ev.Props.Set(rrule)

	if !s.IgnorePauses && len(s.Pauses) > 0 {
		for _, occ := range e.Engine.Expander.Occurrences(s, from, to) {
			if !e.Engine.Filter.Excluded(occ, s.Pauses) {
				continue
			}
			ex := ical.NewProp(ical.PropExceptionDates)
			ex.SetDateTime(zones.zoned(occ.Start))
			ev.Props.Add(ex)
		}
	}
	return ev
}

func worktimeEvent(w models.Worktime, stamp time.Time, zones *zoneSet) *ical.Event {
	ev := ical.NewEvent()
	ev.Props.SetText(ical.PropUID, UID("worktime", w.ID))
	ev.Props.SetDateTime(ical.PropDateTimeStamp, stamp)
	ev.Props.SetText(ical.PropSummary, summary(w.Category.Name))
	if w.Category.Name != "" {
		ev.Props.SetText(ical.PropCategories, w.Category.Name)
	}
	if w.Note != "" {
		ev.Props.SetText(ical.PropDescription, w.Note)
	}
	ev.Props.SetDateTime(ical.PropDateTimeStart, zones.zoned(w.StartedAt))
	ev.Props.SetDateTime(ical.PropDateTimeEnd, zones.zoned(*w.FinishedAt))
	return ev
}

func summary(category string) string {
	if category == "" {
		return "Work"
	}
	return category
}
