package linkage

import (
	"sort"
	"time"

	"github.com/jinzhu/now"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
)

// SeriesInput holds the editable fields of a series
type SeriesInput struct {
	CategoryID   uint
	StartDate    time.Time
	EndDate      *time.Time
	StartTime    models.Clock
	EndTime      models.Clock
	Recurrence   string
	IgnorePauses bool
}

func (s *Service) validateSeries(in SeriesInput) error {
	if in.StartDate.IsZero() {
		return apperr.Validation("series start date is required")
	}
	if in.EndDate != nil && in.EndDate.Before(in.StartDate) {
		return apperr.Validation("series end date %s is before start date %s",
			in.EndDate.Format("2006-01-02"), in.StartDate.Format("2006-01-02"))
	}
	if in.StartTime < 0 || in.EndTime > models.MaxClock {
		return apperr.Validation("series times must be within 00:00 and 23:59")
	}
	if in.EndTime < in.StartTime {
		return apperr.Validation("series start time %s is after end time %s", in.StartTime, in.EndTime)
	}
	return s.expander.Validate(in.Recurrence)
}

func (in SeriesInput) apply(sr *models.Series) {
	sr.CategoryID = in.CategoryID
	sr.StartDate = now.With(in.StartDate).BeginningOfDay()
	sr.EndDate = nil
	if in.EndDate != nil {
		end := now.With(*in.EndDate).BeginningOfDay()
		sr.EndDate = &end
	}
	sr.StartTime = in.StartTime
	sr.EndTime = in.EndTime
	sr.Recurrence = in.Recurrence
	sr.IgnorePauses = in.IgnorePauses
}

func requireCategory(tx Store, userID, categoryID uint) error {
	c, err := tx.CategoryByID(categoryID)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return apperr.Forbidden("category")
	}
	return nil
}

// CreateSeries validates and stores a new series, then links it to every
// overlapping global pause of the user unless it ignores pauses.
func (s *Service) CreateSeries(userID uint, in SeriesInput) (models.Series, error) {
	if err := s.validateSeries(in); err != nil {
		return models.Series{}, err
	}

	var created models.Series
	err := s.store.Atomic(func(tx Store) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		if err := requireCategory(tx, userID, in.CategoryID); err != nil {
			return err
		}

		sr := models.Series{UserID: userID}
		in.apply(&sr)
		if err := tx.SaveSeries(&sr); err != nil {
			return err
		}
		if err := relink(tx, sr); err != nil {
			return err
		}

		var err error
		created, err = tx.SeriesByID(sr.ID)
		return err
	})
	if err != nil {
		return models.Series{}, err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().
		Uint("user_id", userID).
		Uint("series_id", created.ID).
		Str("recurrence", created.Recurrence).
		Uints("pauses", created.PauseIDs()).
		Msg("series created")
	return created, nil
}

// UpdateSeries replaces the editable fields and re-evaluates the links:
// a series that ignores pauses ends up with none, otherwise it is linked to
// every overlapping global pause plus the pauses targeting it.
// Pauses themselves are never modified.
func (s *Service) UpdateSeries(userID, seriesID uint, in SeriesInput) (models.Series, error) {
	if err := s.validateSeries(in); err != nil {
		return models.Series{}, err
	}

	var updated models.Series
	err := s.store.Atomic(func(tx Store) error {
		sr, err := tx.SeriesByID(seriesID)
		if err != nil {
			return err
		}
		if sr.UserID != userID {
			return apperr.Forbidden("series")
		}
		if in.CategoryID != sr.CategoryID {
			if err := requireCategory(tx, userID, in.CategoryID); err != nil {
				return err
			}
		}

		in.apply(&sr)
		sr.Category = models.Category{}
		if err := tx.SaveSeries(&sr); err != nil {
			return err
		}
		if err := relink(tx, sr); err != nil {
			return err
		}

		updated, err = tx.SeriesByID(sr.ID)
		return err
	})
	if err != nil {
		return models.Series{}, err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().
		Uint("user_id", userID).
		Uint("series_id", seriesID).
		Bool("ignore_pauses", updated.IgnorePauses).
		Uints("pauses", updated.PauseIDs()).
		Msg("series updated")
	return updated, nil
}

// SetIgnorePauses flips the opt-out flag of a series and re-evaluates its links.
func (s *Service) SetIgnorePauses(userID, seriesID uint, ignore bool) (models.Series, error) {
	sr, err := s.store.SeriesByID(seriesID)
	if err != nil {
		return models.Series{}, err
	}
	if sr.UserID != userID {
		return models.Series{}, apperr.Forbidden("series")
	}
	in := inputOf(sr)
	in.IgnorePauses = ignore
	return s.UpdateSeries(userID, seriesID, in)
}

// DeleteSeries unlinks the series from all pauses, deletes the pauses that target
// only this series, then deletes the series.
func (s *Service) DeleteSeries(userID, seriesID uint) error {
	err := s.store.Atomic(func(tx Store) error {
		sr, err := tx.SeriesByID(seriesID)
		if err != nil {
			return err
		}
		if sr.UserID != userID {
			return apperr.Forbidden("series")
		}

		edges, err := tx.Links(userID)
		if err != nil {
			return err
		}
		g := NewGraph(edges...)
		var removed []Edge
		for _, pauseID := range g.DropSeries(sr.ID) {
			removed = append(removed, Edge{SeriesID: sr.ID, PauseID: pauseID})
		}
		if err := tx.RemoveLinks(removed); err != nil {
			return err
		}

		pauses, err := tx.PausesByUser(userID)
		if err != nil {
			return err
		}
		for _, p := range pauses {
			if sc, ok := p.Scope().(models.SeriesScope); ok && sc.SeriesID == sr.ID {
				if err := deletePause(tx, p); err != nil {
					return err
				}
			}
		}
		return tx.DeleteSeries(sr.ID)
	})
	if err != nil {
		return err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().Uint("user_id", userID).Uint("series_id", seriesID).Msg("series deleted")
	return nil
}

// GetSeries returns one series with its category and pauses
func (s *Service) GetSeries(userID, seriesID uint) (models.Series, error) {
	sr, err := s.store.SeriesByID(seriesID)
	if err != nil {
		return models.Series{}, err
	}
	if sr.UserID != userID {
		return models.Series{}, apperr.Forbidden("series")
	}
	return sr, nil
}

// ListSeries returns the user's series ordered by start date
func (s *Service) ListSeries(userID uint) ([]models.Series, error) {
	series, err := s.store.SeriesByUser(userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].StartDate.Before(series[j].StartDate)
	})
	return series, nil
}

// SkipSeriesDay pauses a single day of one series. The pause only ever applies
// to that series and is deleted together with it.
func (s *Service) SkipSeriesDay(userID, seriesID uint, day time.Time) (models.Pause, error) {
	start := now.With(day).BeginningOfDay()
	end := now.With(day).EndOfDay().Truncate(time.Second)

	var created models.Pause
	err := s.store.Atomic(func(tx Store) error {
		sr, err := tx.SeriesByID(seriesID)
		if err != nil {
			return err
		}
		if sr.UserID != userID {
			return apperr.Forbidden("series")
		}
		if sr.IgnorePauses {
			return apperr.Validation("series #%d ignores pauses", sr.ID)
		}
		if !sr.ActiveOn(start) {
			return apperr.Validation("series #%d is not active on %s", sr.ID, start.Format("2006-01-02"))
		}
		if err := checkSeriesOverlap(tx, userID, sr.ID, 0, start, end); err != nil {
			return err
		}

		p := models.NewSeriesPause(userID, sr.ID, start, end)
		if err := tx.SavePause(&p); err != nil {
			return err
		}
		if err := tx.AddLinks([]Edge{{SeriesID: sr.ID, PauseID: p.ID}}); err != nil {
			return err
		}
		created, err = tx.PauseByID(p.ID)
		return err
	})
	if err != nil {
		return models.Pause{}, err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().
		Uint("user_id", userID).
		Uint("series_id", seriesID).
		Str("day", start.Format("2006-01-02")).
		Msg("series day skipped")
	return created, nil
}

// UnskipSeriesDay removes the series pause covering day
func (s *Service) UnskipSeriesDay(userID, seriesID uint, day time.Time) error {
	start := now.With(day).BeginningOfDay()
	end := start.AddDate(0, 0, 1)

	err := s.store.Atomic(func(tx Store) error {
		p, err := seriesPauseOn(tx, userID, seriesID, start, end)
		if err != nil {
			return err
		}
		return deletePause(tx, p)
	})
	if err != nil {
		return err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().
		Uint("user_id", userID).
		Uint("series_id", seriesID).
		Str("day", start.Format("2006-01-02")).
		Msg("series day restored")
	return nil
}

// ToggleSeriesDay skips day when it is not skipped yet and restores it otherwise.
// It reports whether the day is skipped afterwards.
func (s *Service) ToggleSeriesDay(userID, seriesID uint, day time.Time) (bool, error) {
	start := now.With(day).BeginningOfDay()
	_, err := seriesPauseOn(s.store, userID, seriesID, start, start.AddDate(0, 0, 1))
	switch {
	case err == nil:
		return false, s.UnskipSeriesDay(userID, seriesID, day)
	case apperr.Is(err, apperr.KindNotFound):
		if _, err := s.SkipSeriesDay(userID, seriesID, day); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

// seriesPauseOn finds the series pause of seriesID overlapping [start, end).
func seriesPauseOn(tx Store, userID, seriesID uint, start, end time.Time) (models.Pause, error) {
	sr, err := tx.SeriesByID(seriesID)
	if err != nil {
		return models.Pause{}, err
	}
	if sr.UserID != userID {
		return models.Pause{}, apperr.Forbidden("series")
	}
	pauses, err := tx.PausesByUser(userID)
	if err != nil {
		return models.Pause{}, err
	}
	for _, p := range pauses {
		if sc, ok := p.Scope().(models.SeriesScope); ok && sc.SeriesID == seriesID && p.Overlaps(start, end) {
			return p, nil
		}
	}
	return models.Pause{}, &apperr.Error{
		Kind:    apperr.KindNotFound,
		Message: "no skipped day on " + start.Format("2006-01-02") + " for this series",
	}
}

// relink brings the links of one series to the state its flags and window require.
func relink(tx Store, sr models.Series) error {
	edges, err := tx.Links(sr.UserID)
	if err != nil {
		return err
	}
	before := NewGraph(edges...)
	after := before.Clone()
	after.DropSeries(sr.ID)

	if !sr.IgnorePauses {
		pauses, err := tx.PausesByUser(sr.UserID)
		if err != nil {
			return err
		}
		for _, p := range pauses {
			switch scope := p.Scope().(type) {
			case models.GlobalScope:
				if sr.Overlaps(p.PauseStart, p.PauseEnd) {
					after.Link(sr.ID, p.ID)
				}
			case models.SeriesScope:
				if scope.SeriesID == sr.ID {
					after.Link(sr.ID, p.ID)
				}
			}
		}
	}

	added, removed := Diff(before, after)
	if err := tx.RemoveLinks(removed); err != nil {
		return err
	}
	return tx.AddLinks(added)
}

func inputOf(sr models.Series) SeriesInput {
	return SeriesInput{
		CategoryID:   sr.CategoryID,
		StartDate:    sr.StartDate,
		EndDate:      sr.EndDate,
		StartTime:    sr.StartTime,
		EndTime:      sr.EndTime,
		Recurrence:   sr.Recurrence,
		IgnorePauses: sr.IgnorePauses,
	}
}
