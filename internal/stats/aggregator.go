package stats

import (
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/recurrence"
)

// Source supplies the rows statistics are computed from.
type Source interface {
	// FinishedWorktimesWithin returns the user's worktimes with an end that lie
	// entirely inside [from, to], with Category loaded.
	FinishedWorktimesWithin(userID uint, from, to time.Time) ([]models.Worktime, error)
	// SeriesByUser returns every series of the user with Category and Pauses loaded.
	SeriesByUser(userID uint) ([]models.Series, error)
}

// CategoryStat is the time spent on one category
type CategoryStat struct {
	Category string `json:"category"`
	Minutes  int    `json:"minutes"`
}

// Totals is a chart: Data[i] is the number of minutes in bucket Labels[i].
type Totals struct {
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

func (t Totals) clone() Totals {
	return Totals{Labels: slices.Clone(t.Labels), Data: slices.Clone(t.Data)}
}

// Aggregator computes time statistics from one-off worktimes and series occurrences.
type Aggregator struct {
	source Source
	engine recurrence.Engine
	cache  *Cache
	log    zerolog.Logger
}

// NewAggregator creates an aggregator. cache may be nil to disable caching.
func NewAggregator(source Source, engine recurrence.Engine, cache *Cache, log zerolog.Logger) *Aggregator {
	return &Aggregator{source: source, engine: engine, cache: cache, log: log}
}

// InvalidateUser forwards to the cache, if any
func (a *Aggregator) InvalidateUser(userID uint) {
	if a.cache != nil {
		a.cache.InvalidateUser(userID)
	}
}

// CategoryStats sums the minutes per category name between from and to:
// finished worktimes fully inside the window plus every non-paused occurrence
// of the user's series. Ordered by minutes, then name.
func (a *Aggregator) CategoryStats(userID uint, from, to time.Time) ([]CategoryStat, error) {
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}
	if cached, ok := a.cached(userID, from, to, "categories"); ok {
		return slices.Clone(cached.([]CategoryStat)), nil
	}

	totals := make(map[string]int)
	err := a.collect(userID, from, to, func(category string, _ time.Time, minutes int) {
		totals[category] += minutes
	})
	if err != nil {
		return nil, err
	}

	out := make([]CategoryStat, 0, len(totals))
	for name, minutes := range totals {
		out = append(out, CategoryStat{Category: name, Minutes: minutes})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Minutes != out[j].Minutes {
			return out[i].Minutes > out[j].Minutes
		}
		return out[i].Category < out[j].Category
	})

	a.store(userID, from, to, "categories", slices.Clone(out))
	a.log.Debug().
		Uint("user_id", userID).
		Time("from", from).
		Time("to", to).
		Int("categories", len(out)).
		Msg("category stats")
	return out, nil
}

// TotalWorkTime buckets the minutes between from and to by day (week), ISO week (month)
// or month (year). Every bucket of the chart is labelled, including empty ones.
func (a *Aggregator) TotalWorkTime(userID uint, from, to time.Time, g Granularity) (Totals, error) {
	if _, err := ParseGranularity(string(g)); err != nil {
		return Totals{}, err
	}
	if err := checkWindow(from, to); err != nil {
		return Totals{}, err
	}
	kind := "total:" + string(g)
	if cached, ok := a.cached(userID, from, to, kind); ok {
		return cached.(Totals).clone(), nil
	}

	labels := g.labels(from, to)
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	data := make([]int, len(labels))
	key := g.keyFunc()

	err := a.collect(userID, from, to, func(_ string, at time.Time, minutes int) {
		if i, ok := index[key(at)]; ok {
			data[i] += minutes
		}
	})
	if err != nil {
		return Totals{}, err
	}

	out := Totals{Labels: labels, Data: data}
	a.store(userID, from, to, kind, out.clone())
	a.log.Debug().
		Uint("user_id", userID).
		Str("granularity", string(g)).
		Int("buckets", len(labels)).
		Msg("total work time")
	return out, nil
}

// collect feeds every counted piece of time to add: one call per finished
// worktime and one per non-paused occurrence.
func (a *Aggregator) collect(userID uint, from, to time.Time, add func(category string, at time.Time, minutes int)) error {
	worktimes, err := a.source.FinishedWorktimesWithin(userID, from, to)
	if err != nil {
		return fmt.Errorf("failed to load worktimes: %w", err)
	}
	for _, w := range worktimes {
		if w.Open() {
			continue
		}
		add(w.Category.Name, w.StartedAt, w.Minutes())
	}

	series, err := a.source.SeriesByUser(userID)
	if err != nil {
		return fmt.Errorf("failed to load series: %w", err)
	}
	for _, s := range series {
		if !s.ActiveBetween(from, to) {
			continue
		}
		// windows are compared by calendar date, like the expander does
		for _, occ := range a.engine.Occurrences(s, from, to) {
			add(s.Category.Name, occ.Start, occ.Minutes)
		}
	}
	return nil
}

func checkWindow(from, to time.Time) error {
	if from.After(to) {
		return apperr.Validation("stats window start %s is after its end %s",
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return nil
}

func (a *Aggregator) cached(userID uint, from, to time.Time, kind string) (any, bool) {
	if a.cache == nil {
		return nil, false
	}
	return a.cache.Get(userID, from, to, kind)
}

// store keeps a private copy: results handed to callers never alias the cache.
func (a *Aggregator) store(userID uint, from, to time.Time, kind string, result any) {
	if a.cache != nil {
		a.cache.Set(userID, from, to, kind, result)
	}
}
