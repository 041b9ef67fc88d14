package linkage

import (
	"errors"
	"sort"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
)

// memStore is an in-memory Store. Atomic restores a snapshot when fn fails.
type memStore struct {
	users      map[uint]bool
	categories map[uint]models.Category
	series     map[uint]models.Series
	pauses     map[uint]models.Pause
	links      *Graph
	nextID     uint

	failAddLinks bool
}

func newMemStore() *memStore {
	return &memStore{
		users:      map[uint]bool{},
		categories: map[uint]models.Category{},
		series:     map[uint]models.Series{},
		pauses:     map[uint]models.Pause{},
		links:      NewGraph(),
		nextID:     100,
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) Atomic(fn func(Store) error) error {
	snap := m.snapshot()
	if err := fn(m); err != nil {
		*m = *snap
		return err
	}
	return nil
}

func (m *memStore) snapshot() *memStore {
	c := *m
	c.users = map[uint]bool{}
	for k, v := range m.users {
		c.users[k] = v
	}
	c.categories = map[uint]models.Category{}
	for k, v := range m.categories {
		c.categories[k] = v
	}
	c.series = map[uint]models.Series{}
	for k, v := range m.series {
		c.series[k] = v
	}
	c.pauses = map[uint]models.Pause{}
	for k, v := range m.pauses {
		c.pauses[k] = v
	}
	c.links = m.links.Clone()
	return &c
}

func (m *memStore) UserExists(userID uint) (bool, error) {
	return m.users[userID], nil
}

func (m *memStore) CategoryByID(id uint) (models.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return models.Category{}, apperr.NotFound("category", id)
	}
	return c, nil
}

func (m *memStore) withPauses(s models.Series) models.Series {
	s.Category = m.categories[s.CategoryID]
	s.Pauses = nil
	for _, id := range m.links.PausesOf(s.ID) {
		p := m.pauses[id]
		p.Series = nil
		s.Pauses = append(s.Pauses, p)
	}
	return s
}

func (m *memStore) withSeries(p models.Pause) models.Pause {
	p.Series = nil
	for _, id := range m.links.SeriesOf(p.ID) {
		s := m.series[id]
		s.Pauses = nil
		p.Series = append(p.Series, s)
	}
	return p
}

func (m *memStore) SeriesByID(id uint) (models.Series, error) {
	s, ok := m.series[id]
	if !ok {
		return models.Series{}, apperr.NotFound("series", id)
	}
	return m.withPauses(s), nil
}

func (m *memStore) SeriesByUser(userID uint) ([]models.Series, error) {
	var out []models.Series
	for _, s := range m.series {
		if s.UserID == userID {
			out = append(out, m.withPauses(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SaveSeries(s *models.Series) error {
	if s.ID == 0 {
		s.ID = m.id()
	}
	stored := *s
	stored.Pauses = nil
	stored.Category = models.Category{}
	m.series[s.ID] = stored
	return nil
}

func (m *memStore) DeleteSeries(id uint) error {
	delete(m.series, id)
	return nil
}

func (m *memStore) PauseByID(id uint) (models.Pause, error) {
	p, ok := m.pauses[id]
	if !ok {
		return models.Pause{}, apperr.NotFound("pause", id)
	}
	return m.withSeries(p), nil
}

func (m *memStore) PausesByUser(userID uint) ([]models.Pause, error) {
	var out []models.Pause
	for _, p := range m.pauses {
		if p.UserID == userID {
			out = append(out, m.withSeries(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) SavePause(p *models.Pause) error {
	if p.ID == 0 {
		p.ID = m.id()
	}
	stored := *p
	stored.Series = nil
	m.pauses[p.ID] = stored
	return nil
}

func (m *memStore) DeletePause(id uint) error {
	delete(m.pauses, id)
	return nil
}

func (m *memStore) Links(userID uint) ([]Edge, error) {
	var out []Edge
	for _, e := range m.links.Edges() {
		if m.series[e.SeriesID].UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) AddLinks(edges []Edge) error {
	if m.failAddLinks && len(edges) > 0 {
		return errors.New("join table is locked")
	}
	for _, e := range edges {
		m.links.Link(e.SeriesID, e.PauseID)
	}
	return nil
}

func (m *memStore) RemoveLinks(edges []Edge) error {
	for _, e := range edges {
		m.links.Unlink(e.SeriesID, e.PauseID)
	}
	return nil
}
