package tracking

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
)

type memStore struct {
	users      map[uint]bool
	categories map[uint]models.Category
	worktimes  map[uint]models.Worktime
	seriesUse  map[uint]int64
	nextID     uint
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[uint]bool{1: true, 2: true},
		categories: map[uint]models.Category{},
		worktimes:  map[uint]models.Worktime{},
		seriesUse:  map[uint]int64{},
	}
}

func (m *memStore) UserExists(userID uint) (bool, error) { return m.users[userID], nil }

func (m *memStore) CategoryByID(id uint) (models.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return models.Category{}, apperr.NotFound("category", id)
	}
	return c, nil
}

func (m *memStore) CategoryByName(userID uint, name string) (models.Category, error) {
	for _, c := range m.categories {
		if c.UserID == userID && strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return models.Category{}, &apperr.Error{Kind: apperr.KindNotFound, Message: "category " + name + " not found"}
}

func (m *memStore) CategoriesByUser(userID uint) ([]models.Category, error) {
	var out []models.Category
	for _, c := range m.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) SaveCategory(c *models.Category) error {
	if c.ID == 0 {
		m.nextID++
		c.ID = m.nextID
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *memStore) SeriesCountByCategory(categoryID uint) (int64, error) {
	return m.seriesUse[categoryID], nil
}

func (m *memStore) DeleteCategory(id uint) error {
	for wid, w := range m.worktimes {
		if w.CategoryID == id {
			delete(m.worktimes, wid)
		}
	}
	delete(m.categories, id)
	return nil
}

func (m *memStore) WorktimeByID(id uint) (models.Worktime, error) {
	w, ok := m.worktimes[id]
	if !ok {
		return models.Worktime{}, apperr.NotFound("worktime", id)
	}
	w.Category = m.categories[w.CategoryID]
	return w, nil
}

func (m *memStore) OpenWorktimes(userID uint) ([]models.Worktime, error) {
	var out []models.Worktime
	for _, w := range m.worktimes {
		if w.UserID == userID && w.FinishedAt == nil {
			w.Category = m.categories[w.CategoryID]
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *memStore) SaveWorktime(w *models.Worktime) error {
	if w.ID == 0 {
		m.nextID++
		w.ID = m.nextID
	}
	stored := *w
	stored.Category = models.Category{}
	m.worktimes[w.ID] = stored
	return nil
}

func (m *memStore) DeleteWorktime(id uint) error {
	delete(m.worktimes, id)
	return nil
}

type countingInvalidator map[uint]int

func (c countingInvalidator) InvalidateUser(userID uint) { c[userID]++ }

func newService(t *testing.T) (*Service, *memStore, countingInvalidator) {
	t.Helper()
	store := newMemStore()
	inv := countingInvalidator{}
	svc := NewService(store, inv, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2024, 1, 3, 11, 30, 15, 0, time.UTC) }
	return svc, store, inv
}

func at(hh, mm int) time.Time {
	return time.Date(2024, 1, 3, hh, mm, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

func TestLogWorktimeCreatesCategoryByName(t *testing.T) {
	svc, store, inv := newService(t)

	w, err := svc.LogWorktime(1, WorktimeInput{
		Category:   CategoryRef{Name: "Work"},
		StartedAt:  at(9, 0),
		FinishedAt: ptr(at(10, 30)),
		Note:       " standup ",
	})
	require.NoError(t, err)
	assert.Equal(t, 90, w.Minutes())
	assert.Equal(t, "Work", w.Category.Name)
	assert.Equal(t, "standup", w.Note)
	assert.Len(t, store.categories, 1)
	assert.Equal(t, 1, inv[1])

	again, err := svc.LogWorktime(1, WorktimeInput{
		Category:   CategoryRef{Name: "work"},
		StartedAt:  at(11, 0),
		FinishedAt: ptr(at(11, 15)),
	})
	require.NoError(t, err)
	assert.Equal(t, w.CategoryID, again.CategoryID, "existing names are reused")
	assert.Len(t, store.categories, 1)
}

func TestLogWorktimeValidation(t *testing.T) {
	svc, store, _ := newService(t)
	require.NoError(t, store.SaveCategory(&models.Category{UserID: 2, Name: "Bob's"}))

	tests := []struct {
		name string
		user uint
		in   WorktimeInput
		kind apperr.Kind
	}{
		{name: "end before start", user: 1, in: WorktimeInput{Category: CategoryRef{Name: "W"}, StartedAt: at(10, 0), FinishedAt: ptr(at(9, 0))}, kind: apperr.KindValidation},
		{name: "no end", user: 1, in: WorktimeInput{Category: CategoryRef{Name: "W"}, StartedAt: at(10, 0)}, kind: apperr.KindValidation},
		{name: "no category", user: 1, in: WorktimeInput{StartedAt: at(9, 0), FinishedAt: ptr(at(10, 0))}, kind: apperr.KindValidation},
		{name: "unknown category id", user: 1, in: WorktimeInput{Category: CategoryRef{ID: 99}, StartedAt: at(9, 0), FinishedAt: ptr(at(10, 0))}, kind: apperr.KindNotFound},
		{name: "foreign category", user: 1, in: WorktimeInput{Category: CategoryRef{ID: 1}, StartedAt: at(9, 0), FinishedAt: ptr(at(10, 0))}, kind: apperr.KindAuthorization},
		{name: "unknown user", user: 9, in: WorktimeInput{Category: CategoryRef{Name: "W"}, StartedAt: at(9, 0), FinishedAt: ptr(at(10, 0))}, kind: apperr.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.LogWorktime(tt.user, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
	assert.Empty(t, store.worktimes)
}

func TestTimerLifecycle(t *testing.T) {
	svc, _, inv := newService(t)

	active, err := svc.ActiveTimer(1)
	require.NoError(t, err)
	assert.Nil(t, active)

	_, err = svc.StopTimer(1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	started, err := svc.StartTimer(1, CategoryRef{Name: "Deep work"}, "")
	require.NoError(t, err)
	assert.True(t, started.Open())
	assert.Equal(t, time.Date(2024, 1, 3, 11, 30, 15, 0, time.UTC), started.StartedAt)
	assert.Zero(t, inv[1], "starting a timer changes no totals")

	_, err = svc.StartTimer(1, CategoryRef{Name: "Other"}, "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	svc.now = func() time.Time { return time.Date(2024, 1, 3, 12, 15, 15, 0, time.UTC) }
	stopped, err := svc.StopTimer(1)
	require.NoError(t, err)
	assert.Equal(t, started.ID, stopped.ID)
	assert.Equal(t, 45, stopped.Minutes())
	assert.Equal(t, 1, inv[1])

	active, err = svc.ActiveTimer(1)
	require.NoError(t, err)
	assert.Nil(t, active)
}

func TestUpdateAndDeleteWorktime(t *testing.T) {
	svc, _, _ := newService(t)
	w, err := svc.LogWorktime(1, WorktimeInput{Category: CategoryRef{Name: "Work"}, StartedAt: at(9, 0), FinishedAt: ptr(at(10, 0))})
	require.NoError(t, err)

	updated, err := svc.UpdateWorktime(1, w.ID, WorktimeInput{FinishedAt: ptr(at(10, 45)), Category: CategoryRef{Name: "Review"}})
	require.NoError(t, err)
	assert.Equal(t, 105, updated.Minutes())
	assert.Equal(t, "Review", updated.Category.Name)

	_, err = svc.UpdateWorktime(1, w.ID, WorktimeInput{StartedAt: at(11, 0)})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = svc.UpdateWorktime(2, w.ID, WorktimeInput{Note: "mine now"})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	assert.True(t, apperr.Is(svc.DeleteWorktime(2, w.ID), apperr.KindAuthorization))
	require.NoError(t, svc.DeleteWorktime(1, w.ID))
	assert.True(t, apperr.Is(svc.DeleteWorktime(1, w.ID), apperr.KindNotFound))
}

func TestCategories(t *testing.T) {
	svc, store, _ := newService(t)

	c, err := svc.CreateCategory(1, "Work", "#ff8800")
	require.NoError(t, err)
	_, err = svc.CreateCategory(1, "Work", "")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	_, err = svc.CreateCategory(2, "Work", "")
	assert.NoError(t, err, "names are unique per user only")

	_, err = svc.LogWorktime(1, WorktimeInput{Category: CategoryRef{ID: c.ID}, StartedAt: at(9, 0), FinishedAt: ptr(at(10, 0))})
	require.NoError(t, err)

	store.seriesUse[c.ID] = 1
	assert.True(t, apperr.Is(svc.DeleteCategory(1, c.ID), apperr.KindConflict))
	store.seriesUse[c.ID] = 0

	assert.True(t, apperr.Is(svc.DeleteCategory(2, c.ID), apperr.KindAuthorization))
	require.NoError(t, svc.DeleteCategory(1, c.ID))
	assert.Empty(t, store.worktimes)

	cats, err := svc.Categories(1)
	require.NoError(t, err)
	assert.Empty(t, cats)
}
