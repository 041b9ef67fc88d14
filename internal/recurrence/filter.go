package recurrence

import (
	"time"

	"github.com/balkashynov/tempo/internal/models"
)

// MatchMode decides when a pause suppresses an occurrence.
type MatchMode int

const (
	// MatchDate suppresses occurrences whose calendar date lies in
	// [pauseStart.date, pauseEnd.date]. Time of day is ignored.
	MatchDate MatchMode = iota
	// MatchInstant suppresses occurrences fully contained in [pauseStart, pauseEnd].
	MatchInstant
)

// ParseMatchMode maps the config value ("date", "instant") to a mode.
func ParseMatchMode(s string) (MatchMode, bool) {
	switch s {
	case "", "date":
		return MatchDate, true
	case "instant":
		return MatchInstant, true
	}
	return MatchDate, false
}

// Filter drops occurrences that fall inside a linked pause.
type Filter struct {
	Match MatchMode
}

// Excluded reports whether occ is suppressed by any of pauses.
func (f Filter) Excluded(occ Occurrence, pauses []models.Pause) bool {
	for _, p := range pauses {
		if f.covers(p, occ) {
			return true
		}
	}
	return false
}

func (f Filter) covers(p models.Pause, occ Occurrence) bool {
	if f.Match == MatchInstant {
		return !occ.Start.Before(p.PauseStart) && !occ.End.After(p.PauseEnd)
	}
	loc := occ.Start.Location()
	d := dateOf(occ.Start)
	return !d.Before(dateOf(p.PauseStart.In(loc))) && !d.After(dateOf(p.PauseEnd.In(loc)))
}

// Apply returns the occurrences of s not suppressed by its linked pauses.
// A series that ignores pauses is returned untouched.
func (f Filter) Apply(s models.Series, occs []Occurrence) []Occurrence {
	if s.IgnorePauses || len(s.Pauses) == 0 {
		return occs
	}
	out := make([]Occurrence, 0, len(occs))
	for _, o := range occs {
		if !f.Excluded(o, s.Pauses) {
			out = append(out, o)
		}
	}
	return out
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Engine expands series and applies their pauses in one step.
type Engine struct {
	Expander Expander
	Filter   Filter
}

// Occurrences returns the non-suppressed occurrences of s in [from, to].
func (e Engine) Occurrences(s models.Series, from, to time.Time) []Occurrence {
	return e.Filter.Apply(s, e.Expander.Occurrences(s, from, to))
}
