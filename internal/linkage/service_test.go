package linkage

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/recurrence"
)

const (
	alice uint = 1
	bob   uint = 2
)

type countingInvalidator struct {
	calls map[uint]int
}

func (c *countingInvalidator) InvalidateUser(userID uint) {
	if c.calls == nil {
		c.calls = map[uint]int{}
	}
	c.calls[userID]++
}

func day(m time.Month, d int) time.Time {
	return time.Date(2024, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

type fixture struct {
	store *memStore
	svc   *Service
	inv   *countingInvalidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	store.users[alice] = true
	store.users[bob] = true
	store.categories[1] = models.Category{ID: 1, UserID: alice, Name: "Work"}
	store.categories[2] = models.Category{ID: 2, UserID: bob, Name: "Gym"}

	inv := &countingInvalidator{}
	return &fixture{
		store: store,
		svc:   NewService(store, recurrence.Expander{}, inv, zerolog.Nop()),
		inv:   inv,
	}
}

func weekly(start time.Time, end *time.Time) SeriesInput {
	return SeriesInput{
		CategoryID: 1,
		StartDate:  start,
		EndDate:    end,
		StartTime:  9 * 60,
		EndTime:    10 * 60,
		Recurrence: "FREQ=WEEKLY;BYDAY=MO,WE,FR",
	}
}

func (f *fixture) series(t *testing.T, in SeriesInput) models.Series {
	t.Helper()
	s, err := f.svc.CreateSeries(alice, in)
	require.NoError(t, err)
	return s
}

func TestCreatePauseLinksOverlappingSeries(t *testing.T) {
	f := newFixture(t)
	a := f.series(t, weekly(day(1, 1), nil))
	b := f.series(t, weekly(day(1, 8), ptr(day(3, 31))))
	optOut := weekly(day(1, 1), nil)
	optOut.IgnorePauses = true
	ignoring := f.series(t, optOut)
	ended := f.series(t, weekly(day(1, 1), ptr(day(1, 5))))

	p, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID}, p.SeriesIDs())

	for _, id := range []uint{a.ID, b.ID} {
		s, err := f.svc.GetSeries(alice, id)
		require.NoError(t, err)
		assert.Equal(t, []uint{p.ID}, s.PauseIDs())
	}
	for _, id := range []uint{ignoring.ID, ended.ID} {
		s, err := f.svc.GetSeries(alice, id)
		require.NoError(t, err)
		assert.Empty(t, s.Pauses)
	}
}

func TestCreatePauseIgnoresOtherUsersSeries(t *testing.T) {
	f := newFixture(t)
	in := weekly(day(1, 1), nil)
	in.CategoryID = 2
	bobs, err := f.svc.CreateSeries(bob, in)
	require.NoError(t, err)

	p, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)
	assert.Empty(t, p.Series)

	s, err := f.svc.GetSeries(bob, bobs.ID)
	require.NoError(t, err)
	assert.Empty(t, s.Pauses)
}

func TestCreatePauseRejections(t *testing.T) {
	f := newFixture(t)
	existing, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)

	t.Run("start after end", func(t *testing.T) {
		_, err := f.svc.CreatePause(alice, day(2, 2), day(2, 1))
		assert.True(t, apperr.Is(err, apperr.KindValidation))
	})

	t.Run("overlap names the clashing range", func(t *testing.T) {
		_, err := f.svc.CreatePause(alice, day(1, 15), day(1, 25))
		require.True(t, apperr.Is(err, apperr.KindConflict))
		assert.Contains(t, err.Error(), "2024-01-10 00:00")
		assert.Contains(t, err.Error(), "2024-01-20 00:00")
	})

	t.Run("touching ranges do not clash", func(t *testing.T) {
		_, err := f.svc.CreatePause(alice, day(1, 20), day(1, 22))
		assert.NoError(t, err)
	})

	t.Run("other users may overlap", func(t *testing.T) {
		_, err := f.svc.CreatePause(bob, day(1, 12), day(1, 14))
		assert.NoError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := f.svc.CreatePause(99, day(5, 1), day(5, 2))
		assert.True(t, apperr.Is(err, apperr.KindNotFound))
	})

	_, err = f.svc.GetPause(alice, existing.ID)
	assert.NoError(t, err)
}

func TestCreatePauseRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	f.series(t, weekly(day(1, 1), nil))
	f.store.failAddLinks = true

	_, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.Error(t, err)

	pauses, err := f.svc.ListPauses(alice)
	require.NoError(t, err)
	assert.Empty(t, pauses)
}

func TestUpdatePause(t *testing.T) {
	f := newFixture(t)
	s := f.series(t, weekly(day(1, 1), nil))
	p, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)
	other, err := f.svc.CreatePause(alice, day(2, 1), day(2, 5))
	require.NoError(t, err)

	moved, err := f.svc.UpdatePause(alice, p.ID, day(1, 12), day(1, 22))
	require.NoError(t, err)
	assert.Equal(t, day(1, 12), moved.PauseStart)
	assert.Equal(t, []uint{s.ID}, moved.SeriesIDs())

	_, err = f.svc.UpdatePause(alice, p.ID, day(1, 30), day(2, 2))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.UpdatePause(alice, other.ID, day(2, 5), day(2, 1))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.UpdatePause(bob, p.ID, day(1, 12), day(1, 13))
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	_, err = f.svc.UpdatePause(alice, 404, day(1, 12), day(1, 13))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeletePauseUnlinksBothSides(t *testing.T) {
	f := newFixture(t)
	s := f.series(t, weekly(day(1, 1), nil))
	p, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)

	assert.True(t, apperr.Is(f.svc.DeletePause(bob, p.ID), apperr.KindAuthorization))
	require.NoError(t, f.svc.DeletePause(alice, p.ID))

	got, err := f.svc.GetSeries(alice, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Pauses)
	assert.Empty(t, f.store.links.Edges())

	_, err = f.svc.GetPause(alice, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCanLink(t *testing.T) {
	f := newFixture(t)
	active := f.series(t, weekly(day(1, 1), nil))
	optOut := weekly(day(1, 1), nil)
	optOut.IgnorePauses = true
	ignoring := f.series(t, optOut)
	later := f.series(t, weekly(day(6, 1), nil))
	p, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)

	tests := []struct {
		name     string
		seriesID uint
		userID   uint
		want     bool
	}{
		{name: "owner, overlapping", seriesID: active.ID, userID: alice, want: true},
		{name: "other user", seriesID: active.ID, userID: bob},
		{name: "series ignores pauses", seriesID: ignoring.ID, userID: alice},
		{name: "no overlap", seriesID: later.ID, userID: alice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := f.svc.CanLink(tt.seriesID, p.ID, tt.userID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	_, err = f.svc.CanLink(404, p.ID, alice)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPauseOnLastSeriesDay(t *testing.T) {
	f := newFixture(t)
	s := f.series(t, weekly(day(1, 1), ptr(day(1, 8))))

	p, err := f.svc.CreatePause(alice, day(1, 8), time.Date(2024, 1, 8, 23, 59, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, []uint{s.ID}, p.SeriesIDs())

	ok, err := f.svc.CanLink(s.ID, p.ID, alice)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.svc.Unlink(alice, s.ID, p.ID)
	require.NoError(t, err)
	p, err = f.svc.Link(alice, s.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{s.ID}, p.SeriesIDs())

	after, err := f.svc.CreatePause(alice, day(1, 9), day(1, 10))
	require.NoError(t, err)
	assert.Empty(t, after.SeriesIDs())
}

func TestLinkAndUnlink(t *testing.T) {
	f := newFixture(t)
	p, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)
	// created after the pause, so it is linked by CreateSeries already; unlink first
	s := f.series(t, weekly(day(1, 1), nil))
	require.Equal(t, []uint{p.ID}, s.PauseIDs())

	unlinked, err := f.svc.Unlink(alice, s.ID, p.ID)
	require.NoError(t, err)
	assert.Empty(t, unlinked.Series)

	_, err = f.svc.Unlink(alice, s.ID, p.ID)
	assert.NoError(t, err, "unlinking twice is a no-op")

	linked, err := f.svc.Link(alice, s.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{s.ID}, linked.SeriesIDs())

	got, err := f.svc.GetSeries(alice, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{p.ID}, got.PauseIDs())

	_, err = f.svc.Link(bob, s.ID, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	later := f.series(t, weekly(day(6, 1), nil))
	_, err = f.svc.Link(alice, later.ID, p.ID)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestSetIgnorePausesRoundTrip(t *testing.T) {
	f := newFixture(t)
	s := f.series(t, weekly(day(1, 1), nil))
	p, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)

	ignoring, err := f.svc.SetIgnorePauses(alice, s.ID, true)
	require.NoError(t, err)
	assert.True(t, ignoring.IgnorePauses)
	assert.Empty(t, ignoring.Pauses)

	kept, err := f.svc.GetPause(alice, p.ID)
	require.NoError(t, err)
	assert.Empty(t, kept.Series)
	assert.Equal(t, day(1, 10), kept.PauseStart)
	assert.Equal(t, day(1, 20), kept.PauseEnd)

	back, err := f.svc.SetIgnorePauses(alice, s.ID, false)
	require.NoError(t, err)
	assert.Equal(t, []uint{p.ID}, back.PauseIDs())
}

func TestUpdateSeriesWindowRelinks(t *testing.T) {
	f := newFixture(t)
	s := f.series(t, weekly(day(1, 1), nil))
	jan, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)
	jun, err := f.svc.CreatePause(alice, day(6, 10), day(6, 20))
	require.NoError(t, err)
	require.Equal(t, []uint{jan.ID, jun.ID}, f.store.links.PausesOf(s.ID))

	updated, err := f.svc.UpdateSeries(alice, s.ID, weekly(day(3, 1), nil))
	require.NoError(t, err)
	assert.Equal(t, []uint{jun.ID}, updated.PauseIDs())
	assert.Empty(t, f.store.links.SeriesOf(jan.ID))
}

func TestCreateSeriesValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   func() SeriesInput
		user uint
		kind apperr.Kind
	}{
		{name: "missing start", in: func() SeriesInput { return weekly(time.Time{}, nil) }, user: alice, kind: apperr.KindValidation},
		{name: "end before start", in: func() SeriesInput { return weekly(day(2, 1), ptr(day(1, 1))) }, user: alice, kind: apperr.KindValidation},
		{name: "times reversed", in: func() SeriesInput {
			in := weekly(day(1, 1), nil)
			in.StartTime, in.EndTime = in.EndTime, in.StartTime
			return in
		}, user: alice, kind: apperr.KindValidation},
		{name: "missing rule", in: func() SeriesInput {
			in := weekly(day(1, 1), nil)
			in.Recurrence = ""
			return in
		}, user: alice, kind: apperr.KindValidation},
		{name: "daily rule", in: func() SeriesInput {
			in := weekly(day(1, 1), nil)
			in.Recurrence = "FREQ=DAILY"
			return in
		}, user: alice, kind: apperr.KindValidation},
		{name: "unknown category", in: func() SeriesInput {
			in := weekly(day(1, 1), nil)
			in.CategoryID = 77
			return in
		}, user: alice, kind: apperr.KindNotFound},
		{name: "someone else's category", in: func() SeriesInput {
			in := weekly(day(1, 1), nil)
			in.CategoryID = 2
			return in
		}, user: alice, kind: apperr.KindAuthorization},
		{name: "unknown user", in: func() SeriesInput { return weekly(day(1, 1), nil) }, user: 99, kind: apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateSeries(tt.user, tt.in())
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	series, err := f.svc.ListSeries(alice)
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestDeleteSeries(t *testing.T) {
	f := newFixture(t)
	s := f.series(t, weekly(day(1, 1), nil))
	other := f.series(t, weekly(day(1, 1), nil))
	global, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)
	skip, err := f.svc.SkipSeriesDay(alice, s.ID, day(2, 5))
	require.NoError(t, err)

	assert.True(t, apperr.Is(f.svc.DeleteSeries(bob, s.ID), apperr.KindAuthorization))
	require.NoError(t, f.svc.DeleteSeries(alice, s.ID))

	_, err = f.svc.GetSeries(alice, s.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.GetPause(alice, skip.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "series pauses go with their series")

	g, err := f.svc.GetPause(alice, global.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{other.ID}, g.SeriesIDs())
}

func TestToggleSeriesDay(t *testing.T) {
	f := newFixture(t)
	s := f.series(t, weekly(day(1, 1), nil))
	other := f.series(t, weekly(day(1, 1), nil))

	skipped, err := f.svc.ToggleSeriesDay(alice, s.ID, time.Date(2024, 1, 3, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, skipped)

	got, err := f.svc.PausesForSeries(alice, s.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.SeriesScope{SeriesID: s.ID}, got[0].Scope())
	assert.Equal(t, day(1, 3), got[0].PauseStart)

	untouched, err := f.svc.PausesForSeries(alice, other.ID)
	require.NoError(t, err)
	assert.Empty(t, untouched)

	global, err := f.svc.ListPauses(alice)
	require.NoError(t, err)
	assert.Empty(t, global, "series pauses are not listed as global")

	_, err = f.svc.SkipSeriesDay(alice, s.ID, day(1, 3))
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	skipped, err = f.svc.ToggleSeriesDay(alice, s.ID, day(1, 3))
	require.NoError(t, err)
	assert.False(t, skipped)

	got, err = f.svc.PausesForSeries(alice, s.ID)
	require.NoError(t, err)
	assert.Empty(t, got)

	err = f.svc.UnskipSeriesDay(alice, s.ID, day(1, 3))
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.SkipSeriesDay(alice, s.ID, day(1, 3).AddDate(-1, 0, 0))
	assert.True(t, apperr.Is(err, apperr.KindValidation), "series not active yet")
}

func TestMutationsInvalidateOwner(t *testing.T) {
	f := newFixture(t)
	s := f.series(t, weekly(day(1, 1), nil))
	p, err := f.svc.CreatePause(alice, day(1, 10), day(1, 20))
	require.NoError(t, err)
	_, err = f.svc.Unlink(alice, s.ID, p.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePause(alice, p.ID))

	assert.Equal(t, 4, f.inv.calls[alice])
	assert.Zero(t, f.inv.calls[bob])

	_, err = f.svc.CreatePause(alice, day(2, 1), day(1, 1))
	require.Error(t, err)
	assert.Equal(t, 4, f.inv.calls[alice], "failed mutations do not invalidate")
}
