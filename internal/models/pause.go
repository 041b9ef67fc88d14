package models

import (
	"time"
)

// Persisted pause kinds
const (
	PauseKindGlobal = "global"
	PauseKindSeries = "series"
)

// Pause suspends the occurrences of its linked series between PauseStart and PauseEnd
// (holidays, sick leave, a single skipped day).
type Pause struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID     uint      `gorm:"not null;index" json:"user_id"`
	PauseStart time.Time `gorm:"not null" json:"pause_start"`
	PauseEnd   time.Time `gorm:"not null" json:"pause_end"`

	Kind           string `gorm:"not null;default:global" json:"kind"`
	TargetSeriesID *uint  `gorm:"index" json:"target_series_id,omitempty"`

	// Relationships
	Series []Series `gorm:"many2many:series_pauses;" json:"-"`
}

// SeriesPause is the join table for the many-to-many relationship
type SeriesPause struct {
	SeriesID uint `gorm:"primaryKey"`
	PauseID  uint `gorm:"primaryKey"`
}

// Scope tells which series a pause applies to.
// It is either GlobalScope or SeriesScope.
type Scope interface {
	scope()
}

// GlobalScope pauses every overlapping series of the owner that does not ignore pauses.
type GlobalScope struct{}

// SeriesScope pauses a single series.
type SeriesScope struct {
	SeriesID uint
}

func (GlobalScope) scope() {}
func (SeriesScope) scope() {}

// NewGlobalPause builds an unsaved pause with GlobalScope.
func NewGlobalPause(userID uint, start, end time.Time) Pause {
	return Pause{UserID: userID, PauseStart: start, PauseEnd: end, Kind: PauseKindGlobal}
}

// NewSeriesPause builds an unsaved pause with SeriesScope.
func NewSeriesPause(userID, seriesID uint, start, end time.Time) Pause {
	id := seriesID
	return Pause{UserID: userID, PauseStart: start, PauseEnd: end, Kind: PauseKindSeries, TargetSeriesID: &id}
}

// Scope decodes the persisted kind columns. Unknown kinds and series pauses
// without a target fall back to GlobalScope.
func (p Pause) Scope() Scope {
	if p.Kind == PauseKindSeries && p.TargetSeriesID != nil {
		return SeriesScope{SeriesID: *p.TargetSeriesID}
	}
	return GlobalScope{}
}

// IsGlobal is shorthand for a GlobalScope check
func (p Pause) IsGlobal() bool {
	_, ok := p.Scope().(GlobalScope)
	return ok
}

// Overlaps uses half-open semantics: start < otherEnd and end > otherStart.
func (p Pause) Overlaps(start, end time.Time) bool {
	return p.PauseStart.Before(end) && p.PauseEnd.After(start)
}

// SeriesIDs lists the ids of the linked series
func (p Pause) SeriesIDs() []uint {
	ids := make([]uint, 0, len(p.Series))
	for _, s := range p.Series {
		ids = append(ids, s.ID)
	}
	return ids
}
