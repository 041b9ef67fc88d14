package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
)

const mwf = "FREQ=WEEKLY;BYDAY=MO,WE,FR"

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func nineToTen() models.Series {
	return models.Series{
		ID:         1,
		StartDate:  date(2024, 1, 1),
		StartTime:  9 * 60,
		EndTime:    10 * 60,
		Recurrence: mwf,
	}
}

func TestParseRule(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		weekly bool
		byDay  bool
		days   []time.Weekday
	}{
		{name: "weekly", raw: mwf, weekly: true, byDay: true, days: []time.Weekday{time.Monday, time.Wednesday, time.Friday}},
		{name: "unknown codes skipped", raw: "FREQ=WEEKLY;BYDAY=MO,XX,SU", weekly: true, byDay: true, days: []time.Weekday{time.Monday, time.Sunday}},
		{name: "duplicates collapsed", raw: "FREQ=WEEKLY;BYDAY=TU,TU", weekly: true, byDay: true, days: []time.Weekday{time.Tuesday}},
		{name: "no byday", raw: "FREQ=WEEKLY", weekly: true},
		{name: "daily is inert", raw: "FREQ=DAILY;BYDAY=MO"},
		{name: "empty is inert", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ParseRule(tt.raw)
			assert.Equal(t, tt.weekly, r.Weekly)
			assert.Equal(t, tt.byDay, r.HasByDay)
			assert.Equal(t, tt.days, r.Days)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		raw          string
		allowMissing bool
		wantErr      bool
	}{
		{raw: mwf},
		{raw: "FREQ=WEEKLY;WKST=MO;BYDAY=SA,SU"},
		{raw: "", wantErr: true},
		{raw: "FREQ=DAILY", wantErr: true},
		{raw: "BYDAY=MO;FREQ=WEEKLY", wantErr: true},
		{raw: "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO", wantErr: true},
		{raw: "FREQ=WEEKLY;BYDAY=1MO", wantErr: true},
		{raw: "FREQ=WEEKLY", wantErr: true},
		{raw: "FREQ=WEEKLY", allowMissing: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			err := Validate(tt.raw, tt.allowMissing)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.KindValidation))
		})
	}
}

func TestExpandWeek(t *testing.T) {
	got := Expander{}.Expand(mwf, date(2024, 1, 1), date(2024, 1, 1), date(2024, 1, 8), 9*60)

	assert.Equal(t, []time.Time{
		at(2024, 1, 1, 9, 0),
		at(2024, 1, 3, 9, 0),
		at(2024, 1, 5, 9, 0),
		at(2024, 1, 8, 9, 0),
	}, got)
}

func TestExpandNeverBeforeSeriesStart(t *testing.T) {
	got := Expander{}.Expand(mwf, date(2024, 1, 3), date(2024, 1, 1), date(2024, 1, 7), 9*60)
	assert.Equal(t, []time.Time{at(2024, 1, 3, 9, 0), at(2024, 1, 5, 9, 0)}, got)

	assert.Empty(t, Expander{}.Expand(mwf, date(2024, 2, 1), date(2024, 1, 1), date(2024, 1, 31), 9*60))
}

func TestExpandProperties(t *testing.T) {
	rules := []string{mwf, "FREQ=WEEKLY;BYDAY=SU", "FREQ=WEEKLY;BYDAY=MO,TU,WE,TH,FR,SA,SU"}
	start := date(2024, 1, 1)
	from := date(2024, 1, 1)
	to := date(2024, 1, 28)

	for _, rule := range rules {
		t.Run(rule, func(t *testing.T) {
			days := ParseRule(rule).Days
			got := Expander{}.Expand(rule, start, from, to, 17*60+45)

			assert.Len(t, got, 4*len(days))
			for i, o := range got {
				assert.Contains(t, days, o.Weekday())
				assert.False(t, o.Before(start))
				assert.False(t, o.Before(from))
				assert.False(t, o.After(to.Add(24*time.Hour)))
				assert.Equal(t, 17, o.Hour())
				assert.Equal(t, 45, o.Minute())
				if i > 0 {
					assert.True(t, got[i-1].Before(o))
				}
			}

			again := Expander{}.Expand(rule, start, from, to, 17*60+45)
			assert.Equal(t, got, again)
		})
	}
}

func TestExpandMissingByDay(t *testing.T) {
	from := date(2024, 1, 1)
	to := date(2024, 1, 7)

	assert.Empty(t, Expander{MissingByDay: ByDayNone}.Expand("FREQ=WEEKLY", from, from, to, 8*60))
	assert.Len(t, Expander{MissingByDay: ByDayEveryDay}.Expand("FREQ=WEEKLY", from, from, to, 8*60), 7)

	// An explicit but empty BYDAY stays empty under both policies.
	assert.Empty(t, Expander{MissingByDay: ByDayEveryDay}.Expand("FREQ=WEEKLY;BYDAY=", from, from, to, 8*60))
}

func TestExpandInertRules(t *testing.T) {
	for _, rule := range []string{"", "FREQ=DAILY", "FREQ=MONTHLY;BYDAY=MO", "garbage"} {
		assert.Empty(t, Expander{MissingByDay: ByDayEveryDay}.Expand(rule, date(2024, 1, 1), date(2024, 1, 1), date(2024, 3, 1), 0), rule)
	}
}

func TestOccurrencesClippedToEndDate(t *testing.T) {
	s := nineToTen()
	end := date(2024, 1, 5)
	s.EndDate = &end

	occs := Expander{}.Occurrences(s, date(2024, 1, 1), date(2024, 1, 31))
	require.Len(t, occs, 3)
	last := occs[2]
	assert.Equal(t, at(2024, 1, 5, 9, 0), last.Start)
	assert.Equal(t, at(2024, 1, 5, 10, 0), last.End)
	assert.Equal(t, 60, last.Minutes)
	assert.Equal(t, uint(1), last.SeriesID)
}

func TestFilterApply(t *testing.T) {
	pause := models.NewGlobalPause(1, at(2024, 1, 3, 0, 0), at(2024, 1, 3, 23, 59))

	t.Run("linked pause removes the day", func(t *testing.T) {
		s := nineToTen()
		s.Pauses = []models.Pause{pause}

		got := Engine{}.Occurrences(s, date(2024, 1, 1), date(2024, 1, 8))
		require.Len(t, got, 3)
		for _, o := range got {
			assert.NotEqual(t, 3, o.Start.Day())
		}
	})

	t.Run("ignoring pauses keeps every occurrence", func(t *testing.T) {
		s := nineToTen()
		s.Pauses = []models.Pause{pause}
		s.IgnorePauses = true

		assert.Len(t, Engine{}.Occurrences(s, date(2024, 1, 1), date(2024, 1, 8)), 4)
		assert.Equal(t, at(2024, 1, 3, 0, 0), s.Pauses[0].PauseStart)
	})
}

func TestFilterMatchModes(t *testing.T) {
	occ := Occurrence{Start: at(2024, 1, 3, 9, 0), End: at(2024, 1, 3, 10, 0), Minutes: 60}

	tests := []struct {
		name    string
		pause   models.Pause
		date    bool
		instant bool
	}{
		{
			name:    "whole day",
			pause:   models.NewGlobalPause(1, at(2024, 1, 3, 0, 0), at(2024, 1, 3, 23, 59)),
			date:    true,
			instant: true,
		},
		{
			name:    "afternoon only",
			pause:   models.NewGlobalPause(1, at(2024, 1, 3, 13, 0), at(2024, 1, 3, 18, 0)),
			date:    true,
			instant: false,
		},
		{
			name:    "ends mid occurrence",
			pause:   models.NewGlobalPause(1, at(2024, 1, 1, 0, 0), at(2024, 1, 3, 9, 30)),
			date:    true,
			instant: false,
		},
		{
			name:  "previous day",
			pause: models.NewGlobalPause(1, at(2024, 1, 2, 0, 0), at(2024, 1, 2, 23, 59)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pauses := []models.Pause{tt.pause}
			assert.Equal(t, tt.date, Filter{Match: MatchDate}.Excluded(occ, pauses))
			assert.Equal(t, tt.instant, Filter{Match: MatchInstant}.Excluded(occ, pauses))
		})
	}
}

func TestParsePolicies(t *testing.T) {
	p, ok := ParseByDayPolicy("every_day")
	assert.True(t, ok)
	assert.Equal(t, ByDayEveryDay, p)

	_, ok = ParseByDayPolicy("sometimes")
	assert.False(t, ok)

	m, ok := ParseMatchMode("instant")
	assert.True(t, ok)
	assert.Equal(t, MatchInstant, m)
}
