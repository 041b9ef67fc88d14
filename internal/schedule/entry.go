package schedule

import (
	"time"

	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/recurrence"
)

// Kind tags where a view entry comes from
type Kind string

const (
	KindSingle     Kind = "SINGLE"
	KindRecurring  Kind = "RECURRING"
	KindInProgress Kind = "IN_PROGRESS"
)

// Entry is one row of a day or month view.
// ID is the worktime id for SINGLE/IN_PROGRESS entries and the series id for RECURRING ones.
type Entry struct {
	ID           uint       `json:"id"`
	Kind         Kind       `json:"kind"`
	Start        time.Time  `json:"start"`
	End          time.Time  `json:"end"`
	CategoryID   uint       `json:"category_id"`
	CategoryName string     `json:"category_name"`
	Minutes      int        `json:"minutes"`
	Note         string     `json:"note,omitempty"`
	Recurrence   string     `json:"recurrence,omitempty"`
	SeriesStart  *time.Time `json:"series_start,omitempty"`
	SeriesEnd    *time.Time `json:"series_end,omitempty"`
	IgnorePauses bool       `json:"ignore_pauses,omitempty"`
}

// HasStart reports whether the entry carries a start instant
func (e Entry) HasStart() bool {
	return !e.Start.IsZero()
}

func fromWorktime(w models.Worktime) Entry {
	e := Entry{
		ID:           w.ID,
		Kind:         KindSingle,
		Start:        w.StartedAt,
		CategoryID:   w.CategoryID,
		CategoryName: w.Category.Name,
		Minutes:      w.Minutes(),
		Note:         w.Note,
	}
	if w.FinishedAt != nil {
		e.End = *w.FinishedAt
	}
	return e
}

func inProgress(w models.Worktime) Entry {
	return Entry{
		ID:           w.ID,
		Kind:         KindInProgress,
		Start:        w.StartedAt,
		CategoryID:   w.CategoryID,
		CategoryName: w.Category.Name,
		Note:         w.Note,
	}
}

func fromOccurrence(s models.Series, occ recurrence.Occurrence) Entry {
	e := fromSeries(s)
	e.Start = occ.Start
	e.End = occ.End
	return e
}

func fromSeries(s models.Series) Entry {
	start := s.StartDate
	return Entry{
		ID:           s.ID,
		Kind:         KindRecurring,
		Start:        s.StartTime.On(s.StartDate),
		End:          s.EndTime.On(s.StartDate),
		CategoryID:   s.CategoryID,
		CategoryName: s.Category.Name,
		Minutes:      s.Minutes(),
		Recurrence:   s.Recurrence,
		SeriesStart:  &start,
		SeriesEnd:    s.EndDate,
		IgnorePauses: s.IgnorePauses,
	}
}
