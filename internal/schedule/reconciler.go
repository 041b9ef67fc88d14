package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/jinzhu/now"
	"github.com/rs/zerolog"

	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/recurrence"
)

// Source supplies the raw rows a view is built from.
type Source interface {
	// WorktimesOverlapping returns finished worktimes of the user that overlap [from, to),
	// with Category loaded.
	WorktimesOverlapping(userID uint, from, to time.Time) ([]models.Worktime, error)
	// OpenWorktimes returns the user's worktimes without an end, with Category loaded.
	OpenWorktimes(userID uint) ([]models.Worktime, error)
	// SeriesByUser returns every series of the user with Category and Pauses loaded.
	SeriesByUser(userID uint) ([]models.Series, error)
}

// Reconciler merges one-off worktimes, series occurrences and running timers into one view.
type Reconciler struct {
	source Source
	engine recurrence.Engine
	log    zerolog.Logger
}

// NewReconciler creates a reconciler reading from source
func NewReconciler(source Source, engine recurrence.Engine, log zerolog.Logger) *Reconciler {
	return &Reconciler{source: source, engine: engine, log: log}
}

// DayView lists everything scheduled or logged on the calendar day of date,
// ordered by start time of day. Entries without a start come last.
func (r *Reconciler) DayView(date time.Time, userID uint) ([]Entry, error) {
	dayStart := now.With(date).BeginningOfDay()
	next := dayStart.AddDate(0, 0, 1)

	worktimes, err := r.source.WorktimesOverlapping(userID, dayStart, next)
	if err != nil {
		return nil, fmt.Errorf("failed to load worktimes: %w", err)
	}
	series, err := r.source.SeriesByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}
	running, err := r.source.OpenWorktimes(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load running timers: %w", err)
	}

	entries := make([]Entry, 0, len(worktimes)+len(series)+len(running))
	for _, w := range worktimes {
		// running timers are added below as IN_PROGRESS
		if w.Open() {
			continue
		}
		entries = append(entries, fromWorktime(w))
	}
	for _, s := range series {
		if !s.ActiveOn(dayStart) {
			continue
		}
		for _, occ := range r.engine.Occurrences(s, dayStart, dayStart) {
			entries = append(entries, fromOccurrence(s, occ))
		}
	}
	for _, w := range running {
		entries = append(entries, inProgress(w))
	}

	sortByTimeOfDay(entries)

	r.log.Debug().
		Uint("user_id", userID).
		Str("day", dayStart.Format("2006-01-02")).
		Int("entries", len(entries)).
		Msg("day view")
	return entries, nil
}

// MonthView lists the month's one-off worktimes and one entry per series active in the month.
// Series are not expanded into days.
func (r *Reconciler) MonthView(month time.Time, userID uint) ([]Entry, error) {
	first := now.With(month).BeginningOfMonth()
	last := now.With(month).EndOfMonth()

	worktimes, err := r.source.WorktimesOverlapping(userID, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to load worktimes: %w", err)
	}
	series, err := r.source.SeriesByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load series: %w", err)
	}

	entries := make([]Entry, 0, len(worktimes)+len(series))
	for _, w := range worktimes {
		if w.Open() {
			continue
		}
		entries = append(entries, fromWorktime(w))
	}
	for _, s := range series {
		if s.ActiveBetween(first, last) {
			entries = append(entries, fromSeries(s))
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Start.Before(entries[j].Start)
	})

	r.log.Debug().
		Uint("user_id", userID).
		Str("month", first.Format("2006-01")).
		Int("entries", len(entries)).
		Msg("month view")
	return entries, nil
}

// ThreeDays is the day view of the day before date, date itself and the day after.
type ThreeDays struct {
	Yesterday []Entry `json:"yesterday"`
	Today     []Entry `json:"today"`
	Tomorrow  []Entry `json:"tomorrow"`
}

// ThreeDays builds the day views around date
func (r *Reconciler) ThreeDays(date time.Time, userID uint) (ThreeDays, error) {
	var out ThreeDays
	var err error

	if out.Yesterday, err = r.DayView(date.AddDate(0, 0, -1), userID); err != nil {
		return ThreeDays{}, err
	}
	if out.Today, err = r.DayView(date, userID); err != nil {
		return ThreeDays{}, err
	}
	if out.Tomorrow, err = r.DayView(date.AddDate(0, 0, 1), userID); err != nil {
		return ThreeDays{}, err
	}
	return out, nil
}

func sortByTimeOfDay(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.HasStart() || !b.HasStart() {
			return a.HasStart() && !b.HasStart()
		}
		return models.ClockOf(a.Start) < models.ClockOf(b.Start)
	})
}
