package linkage

import (
	"sort"
)

// Edge is one series<->pause link, i.e. one row of the series_pauses join table.
type Edge struct {
	SeriesID uint
	PauseID  uint
}

// Graph is the series/pause relation held as two index maps that are always
// updated together, so neither side can point at the other one-sidedly.
type Graph struct {
	pausesOf map[uint]map[uint]struct{}
	seriesOf map[uint]map[uint]struct{}
}

// NewGraph builds a graph from a list of edges
func NewGraph(edges ...Edge) *Graph {
	g := &Graph{
		pausesOf: make(map[uint]map[uint]struct{}),
		seriesOf: make(map[uint]map[uint]struct{}),
	}
	for _, e := range edges {
		g.Link(e.SeriesID, e.PauseID)
	}
	return g
}

// Link adds the edge to both sides. Linking twice is a no-op.
func (g *Graph) Link(seriesID, pauseID uint) {
	add(g.pausesOf, seriesID, pauseID)
	add(g.seriesOf, pauseID, seriesID)
}

// Unlink removes the edge from both sides
func (g *Graph) Unlink(seriesID, pauseID uint) {
	remove(g.pausesOf, seriesID, pauseID)
	remove(g.seriesOf, pauseID, seriesID)
}

// Linked reports whether the edge exists
func (g *Graph) Linked(seriesID, pauseID uint) bool {
	_, ok := g.pausesOf[seriesID][pauseID]
	return ok
}

// DropSeries unlinks the series from every pause and returns those pauses.
func (g *Graph) DropSeries(seriesID uint) []uint {
	pauses := g.PausesOf(seriesID)
	for _, p := range pauses {
		g.Unlink(seriesID, p)
	}
	return pauses
}

// PausesOf returns the ids of the pauses linked to a series, ascending.
func (g *Graph) PausesOf(seriesID uint) []uint {
	return sortedKeys(g.pausesOf[seriesID])
}

// SeriesOf returns the ids of the series linked to a pause, ascending.
func (g *Graph) SeriesOf(pauseID uint) []uint {
	return sortedKeys(g.seriesOf[pauseID])
}

// Edges lists every edge ordered by series, then pause.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, s := range sortedKeys(g.pausesOf) {
		for _, p := range sortedKeys(g.pausesOf[s]) {
			out = append(out, Edge{SeriesID: s, PauseID: p})
		}
	}
	return out
}

// Clone returns an independent copy
func (g *Graph) Clone() *Graph {
	return NewGraph(g.Edges()...)
}

// Diff returns the edges present in after but not before (added) and the
// edges present in before but not after (removed).
func Diff(before, after *Graph) (added, removed []Edge) {
	for _, e := range after.Edges() {
		if !before.Linked(e.SeriesID, e.PauseID) {
			added = append(added, e)
		}
	}
	for _, e := range before.Edges() {
		if !after.Linked(e.SeriesID, e.PauseID) {
			removed = append(removed, e)
		}
	}
	return added, removed
}

func add(m map[uint]map[uint]struct{}, from, to uint) {
	set, ok := m[from]
	if !ok {
		set = make(map[uint]struct{})
		m[from] = set
	}
	set[to] = struct{}{}
}

func remove(m map[uint]map[uint]struct{}, from, to uint) {
	set, ok := m[from]
	if !ok {
		return
	}
	delete(set, to)
	if len(set) == 0 {
		delete(m, from)
	}
}

func sortedKeys[V any](m map[uint]V) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
