package models

import (
	"time"

	"github.com/jinzhu/now"
)

// Series is a recurring weekly time block (e.g. "every MO,WE,FR 09:00-10:00").
type Series struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID     uint       `gorm:"not null;index" json:"user_id"`
	CategoryID uint       `gorm:"not null" json:"category_id"`
	StartDate  time.Time  `gorm:"not null" json:"start_date"`
	EndDate    *time.Time `json:"end_date"` // nil = runs until cancelled
	StartTime  Clock      `gorm:"not null" json:"start_time"`
	EndTime    Clock      `gorm:"not null" json:"end_time"`
	Recurrence string     `gorm:"not null" json:"recurrence"` // e.g. FREQ=WEEKLY;BYDAY=MO,WE,FR

	IgnorePauses bool `gorm:"default:false" json:"ignore_pauses"`

	// Relationships
	Category Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`
	Pauses   []Pause  `gorm:"many2many:series_pauses;" json:"pauses"`
}

// TableName keeps gorm from guessing the plural of "series"
func (Series) TableName() string {
	return "series"
}

// Minutes is the duration of a single occurrence
func (s Series) Minutes() int {
	return int(s.EndTime - s.StartTime)
}

// ActiveOn reports whether day lies inside the series' active window and the series has a rule.
func (s Series) ActiveOn(day time.Time) bool {
	if s.Recurrence == "" {
		return false
	}
	d := now.With(day).BeginningOfDay()
	if d.Before(now.With(s.StartDate.In(d.Location())).BeginningOfDay()) {
		return false
	}
	if s.EndDate != nil && d.After(now.With(s.EndDate.In(d.Location())).BeginningOfDay()) {
		return false
	}
	return true
}

// ActiveBetween reports whether the active window intersects [from, to], compared by calendar date.
func (s Series) ActiveBetween(from, to time.Time) bool {
	if s.Recurrence == "" {
		return false
	}
	loc := from.Location()
	first := now.With(from).BeginningOfDay()
	last := now.With(to.In(loc)).BeginningOfDay()
	if now.With(s.StartDate.In(loc)).BeginningOfDay().After(last) {
		return false
	}
	return s.EndDate == nil || !now.With(s.EndDate.In(loc)).BeginningOfDay().Before(first)
}

// Overlaps reports whether the active window overlaps a pause window:
// start < pauseEnd and (no end or end of the last day > pauseStart).
// The last day is inclusive, like in ActiveOn.
func (s Series) Overlaps(pauseStart, pauseEnd time.Time) bool {
	if !s.StartDate.Before(pauseEnd) {
		return false
	}
	return s.EndDate == nil || now.With(*s.EndDate).EndOfDay().After(pauseStart)
}

// PauseIDs lists the ids of the linked pauses
func (s Series) PauseIDs() []uint {
	ids := make([]uint, 0, len(s.Pauses))
	for _, p := range s.Pauses {
		ids = append(ids, p.ID)
	}
	return ids
}
