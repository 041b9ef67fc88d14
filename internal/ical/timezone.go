package ical

import (
	"fmt"
	"time"

	"github.com/emersion/go-ical"
)

const localLayout = "20060102T150405"

// zoneSet collects the named zones events are written in, with the first and
// last instant seen in each, so every TZID gets a VTIMEZONE.
type zoneSet struct {
	order []string
	locs  map[string]*time.Location
	first map[string]time.Time
	last  map[string]time.Time
}

func newZoneSet() *zoneSet {
	return &zoneSet{
		locs:  make(map[string]*time.Location),
		first: make(map[string]time.Time),
		last:  make(map[string]time.Time),
	}
}

// zoned keeps named zones (written with TZID) and turns anything else into UTC,
// since "Local" is not a zone other calendars can resolve.
func (z *zoneSet) zoned(t time.Time) time.Time {
	if !named(t.Location()) {
		return t.UTC()
	}
	z.cover(t)
	return t
}

// cover widens the range the zone's VTIMEZONE has to describe.
func (z *zoneSet) cover(t time.Time) {
	loc := t.Location()
	if !named(loc) {
		return
	}
	name := loc.String()
	if _, ok := z.locs[name]; !ok {
		z.order = append(z.order, name)
		z.locs[name] = loc
		z.first[name], z.last[name] = t, t
		return
	}
	if t.Before(z.first[name]) {
		z.first[name] = t
	}
	if t.After(z.last[name]) {
		z.last[name] = t
	}
}

// components returns one VTIMEZONE per zone seen, covering at least up to until.
func (z *zoneSet) components(until time.Time) []*ical.Component {
	out := make([]*ical.Component, 0, len(z.order))
	for _, name := range z.order {
		last := z.last[name]
		if until.After(last) {
			last = until
		}
		out = append(out, vtimezone(z.locs[name], z.first[name], last))
	}
	return out
}

func named(loc *time.Location) bool {
	switch loc.String() {
	case "Local", "UTC", "":
		return false
	}
	return true
}

// vtimezone describes loc between from and to: one observance for the offset
// in effect on the day of from, then one per offset change found.
func vtimezone(loc *time.Location, from, to time.Time) *ical.Component {
	tz := ical.NewComponent(ical.CompTimezone)
	tz.Props.SetText(ical.PropTimezoneID, loc.String())

	f := from.In(loc)
	cur := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, loc)
	_, off := cur.Zone()
	tz.Children = append(tz.Children, observance(cur, off, off))

	end := to.In(loc)
	for cur.Before(end) {
		next := cur.Add(24 * time.Hour)
		if _, o := next.Zone(); o != off {
			at := transition(cur, next, off)
			tz.Children = append(tz.Children, observance(at, off, o))
			off = o
		}
		cur = next
	}
	return tz
}

// transition finds the first second in (lo, hi] whose offset is not off.
func transition(lo, hi time.Time, off int) time.Time {
	for hi.Sub(lo) > time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		if _, o := mid.Zone(); o == off {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi
}

// observance starts at the local wall time before the change, as DTSTART of
// STANDARD and DAYLIGHT sub-components is read with TZOFFSETFROM.
func observance(at time.Time, from, to int) *ical.Component {
	kind := ical.CompTimezoneStandard
	if at.IsDST() {
		kind = ical.CompTimezoneDaylight
	}
	c := ical.NewComponent(kind)

	start := ical.NewProp(ical.PropDateTimeStart)
	start.Value = at.In(time.FixedZone("", from)).Format(localLayout)
	c.Props.Set(start)

	offFrom := ical.NewProp(ical.PropTimezoneOffsetFrom)
	offFrom.Value = utcOffset(from)
	c.Props.Set(offFrom)
	offTo := ical.NewProp(ical.PropTimezoneOffsetTo)
	offTo.Value = utcOffset(to)
	c.Props.Set(offTo)

	if name, _ := at.Zone(); name != "" {
		c.Props.SetText(ical.PropTimezoneName, name)
	}
	return c
}

func utcOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign, seconds = '-', -seconds
	}
	return fmt.Sprintf("%c%02d%02d", sign, seconds/3600, seconds%3600/60)
}
