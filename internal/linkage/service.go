package linkage

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
	"github.com/balkashynov/tempo/internal/recurrence"
)

const rangeLayout = "2006-01-02 15:04"

// Service owns the pause lifecycle and keeps the series<->pause relation consistent.
// Every mutation runs inside one Store.Atomic call.
type Service struct {
	store       Store
	expander    recurrence.Expander
	invalidator Invalidator
	log         zerolog.Logger
}

// NewService creates a linkage service. A nil invalidator is allowed.
func NewService(store Store, expander recurrence.Expander, invalidator Invalidator, log zerolog.Logger) *Service {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &Service{store: store, expander: expander, invalidator: invalidator, log: log}
}

// CreatePause creates a global pause for the user and links it to every
// overlapping series of the user that does not ignore pauses.
func (s *Service) CreatePause(userID uint, start, end time.Time) (models.Pause, error) {
	if err := checkRange(start, end); err != nil {
		return models.Pause{}, err
	}

	var created models.Pause
	err := s.store.Atomic(func(tx Store) error {
		if err := requireUser(tx, userID); err != nil {
			return err
		}
		if err := checkGlobalOverlap(tx, userID, 0, start, end); err != nil {
			return err
		}

		p := models.NewGlobalPause(userID, start, end)
		if err := tx.SavePause(&p); err != nil {
			return err
		}

		series, err := tx.SeriesByUser(userID)
		if err != nil {
			return err
		}
		var edges []Edge
		for _, sr := range series {
			if !sr.IgnorePauses && sr.Overlaps(start, end) {
				edges = append(edges, Edge{SeriesID: sr.ID, PauseID: p.ID})
			}
		}
		if err := tx.AddLinks(edges); err != nil {
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
		Uint("pause_id", created.ID).
		Uints("series", created.SeriesIDs()).
		Msg("pause created")
	return created, nil
}

// UpdatePause moves a pause. Links are left as they are.
func (s *Service) UpdatePause(userID, pauseID uint, start, end time.Time) (models.Pause, error) {
	if err := checkRange(start, end); err != nil {
		return models.Pause{}, err
	}

	var updated models.Pause
	err := s.store.Atomic(func(tx Store) error {
		p, err := tx.PauseByID(pauseID)
		if err != nil {
			return err
		}
		if !ownsPause(p, userID) {
			return apperr.Forbidden("pause")
		}

		switch scope := p.Scope().(type) {
		case models.GlobalScope:
			err = checkGlobalOverlap(tx, p.UserID, p.ID, start, end)
		case models.SeriesScope:
			err = checkSeriesOverlap(tx, p.UserID, scope.SeriesID, p.ID, start, end)
		}
		if err != nil {
			return err
		}

		p.PauseStart = start
		p.PauseEnd = end
		if err := tx.SavePause(&p); err != nil {
			return err
		}
		updated, err = tx.PauseByID(p.ID)
		return err
	})
	if err != nil {
		return models.Pause{}, err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().Uint("user_id", userID).Uint("pause_id", pauseID).Msg("pause updated")
	return updated, nil
}

// DeletePause unlinks the pause from all its series, then deletes it.
func (s *Service) DeletePause(userID, pauseID uint) error {
	err := s.store.Atomic(func(tx Store) error {
		p, err := tx.PauseByID(pauseID)
		if err != nil {
			return err
		}
		if !ownsPause(p, userID) {
			return apperr.Forbidden("pause")
		}
		return deletePause(tx, p)
	})
	if err != nil {
		return err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().Uint("user_id", userID).Uint("pause_id", pauseID).Msg("pause deleted")
	return nil
}

// GetPause returns one pause with its linked series
func (s *Service) GetPause(userID, pauseID uint) (models.Pause, error) {
	p, err := s.store.PauseByID(pauseID)
	if err != nil {
		return models.Pause{}, err
	}
	if !ownsPause(p, userID) {
		return models.Pause{}, apperr.Forbidden("pause")
	}
	return p, nil
}

// ListPauses returns the user's global pauses ordered by start.
// Series pauses are listed per series, see PausesForSeries.
func (s *Service) ListPauses(userID uint) ([]models.Pause, error) {
	all, err := s.store.PausesByUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Pause, 0, len(all))
	for _, p := range all {
		if p.IsGlobal() {
			out = append(out, p)
		}
	}
	sortPauses(out)
	return out, nil
}

// PausesForSeries returns every pause linked to a series, ordered by start.
func (s *Service) PausesForSeries(userID, seriesID uint) ([]models.Pause, error) {
	sr, err := s.store.SeriesByID(seriesID)
	if err != nil {
		return nil, err
	}
	if sr.UserID != userID {
		return nil, apperr.Forbidden("series")
	}
	out := append([]models.Pause(nil), sr.Pauses...)
	sortPauses(out)
	return out, nil
}

// CanLink reports whether the user may link the pause to the series: the user owns
// the series, the series does not ignore pauses and its active window overlaps the pause.
func (s *Service) CanLink(seriesID, pauseID, userID uint) (bool, error) {
	sr, err := s.store.SeriesByID(seriesID)
	if err != nil {
		return false, err
	}
	p, err := s.store.PauseByID(pauseID)
	if err != nil {
		return false, err
	}
	return canLink(sr, p, userID), nil
}

// Link links a pause to a series on both sides.
func (s *Service) Link(userID, seriesID, pauseID uint) (models.Pause, error) {
	var linked models.Pause
	err := s.store.Atomic(func(tx Store) error {
		sr, p, err := loadPair(tx, userID, seriesID, pauseID)
		if err != nil {
			return err
		}
		if !canLink(sr, p, userID) {
			if sr.IgnorePauses {
				return apperr.Validation("series #%d ignores pauses", sr.ID)
			}
			return apperr.Validation("pause #%d does not overlap series #%d", p.ID, sr.ID)
		}
		if err := tx.AddLinks([]Edge{{SeriesID: sr.ID, PauseID: p.ID}}); err != nil {
			return err
		}
		linked, err = tx.PauseByID(p.ID)
		return err
	})
	if err != nil {
		return models.Pause{}, err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().Uint("user_id", userID).Uint("series_id", seriesID).Uint("pause_id", pauseID).Msg("pause linked")
	return linked, nil
}

// Unlink removes the link on both sides. Unlinking a pair that is not linked is a no-op.
func (s *Service) Unlink(userID, seriesID, pauseID uint) (models.Pause, error) {
	var unlinked models.Pause
	err := s.store.Atomic(func(tx Store) error {
		sr, p, err := loadPair(tx, userID, seriesID, pauseID)
		if err != nil {
			return err
		}
		if err := tx.RemoveLinks([]Edge{{SeriesID: sr.ID, PauseID: p.ID}}); err != nil {
			return err
		}
		unlinked, err = tx.PauseByID(p.ID)
		return err
	})
	if err != nil {
		return models.Pause{}, err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().Uint("user_id", userID).Uint("series_id", seriesID).Uint("pause_id", pauseID).Msg("pause unlinked")
	return unlinked, nil
}

func canLink(sr models.Series, p models.Pause, userID uint) bool {
	if sr.UserID != userID || p.UserID != userID {
		return false
	}
	if sr.IgnorePauses {
		return false
	}
	return sr.Overlaps(p.PauseStart, p.PauseEnd)
}

func loadPair(tx Store, userID, seriesID, pauseID uint) (models.Series, models.Pause, error) {
	sr, err := tx.SeriesByID(seriesID)
	if err != nil {
		return models.Series{}, models.Pause{}, err
	}
	p, err := tx.PauseByID(pauseID)
	if err != nil {
		return models.Series{}, models.Pause{}, err
	}
	if sr.UserID != userID {
		return models.Series{}, models.Pause{}, apperr.Forbidden("series")
	}
	if p.UserID != userID {
		return models.Series{}, models.Pause{}, apperr.Forbidden("pause")
	}
	return sr, p, nil
}

// ownsPause accepts the pause owner and the owner of any linked series.
func ownsPause(p models.Pause, userID uint) bool {
	if p.UserID == userID {
		return true
	}
	for _, sr := range p.Series {
		if sr.UserID == userID {
			return true
		}
	}
	return false
}

func deletePause(tx Store, p models.Pause) error {
	var edges []Edge
	for _, seriesID := range p.SeriesIDs() {
		edges = append(edges, Edge{SeriesID: seriesID, PauseID: p.ID})
	}
	if err := tx.RemoveLinks(edges); err != nil {
		return err
	}
	return tx.DeletePause(p.ID)
}

func checkRange(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("pause start and end are required")
	}
	if start.After(end) {
		return apperr.Validation("pause start %s is after pause end %s",
			start.Format(rangeLayout), end.Format(rangeLayout))
	}
	return nil
}

// checkGlobalOverlap enforces that at most one global pause of a user covers any instant.
func checkGlobalOverlap(tx Store, userID, selfID uint, start, end time.Time) error {
	pauses, err := tx.PausesByUser(userID)
	if err != nil {
		return err
	}
	for _, p := range pauses {
		if p.ID == selfID || !p.IsGlobal() {
			continue
		}
		if p.Overlaps(start, end) {
			return overlapConflict(p)
		}
	}
	return nil
}

// checkSeriesOverlap enforces the same for the pauses targeting one series.
func checkSeriesOverlap(tx Store, userID, seriesID, selfID uint, start, end time.Time) error {
	pauses, err := tx.PausesByUser(userID)
	if err != nil {
		return err
	}
	for _, p := range pauses {
		if p.ID == selfID {
			continue
		}
		if sc, ok := p.Scope().(models.SeriesScope); ok && sc.SeriesID == seriesID && p.Overlaps(start, end) {
			return overlapConflict(p)
		}
	}
	return nil
}

func overlapConflict(p models.Pause) error {
	return apperr.Conflict("overlaps pause #%d from %s to %s", p.ID,
		p.PauseStart.Format(rangeLayout), p.PauseEnd.Format(rangeLayout))
}

func requireUser(tx Store, userID uint) error {
	ok, err := tx.UserExists(userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user", userID)
	}
	return nil
}

func sortPauses(pauses []models.Pause) {
	sort.SliceStable(pauses, func(i, j int) bool {
		return pauses[i].PauseStart.Before(pauses[j].PauseStart)
	})
}
