package db

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/linkage"
	"github.com/balkashynov/tempo/internal/models"
)

func (s *Store) localSeries(sr *models.Series) {
	sr.StartDate = s.local(sr.StartDate)
	sr.EndDate = s.localPtr(sr.EndDate)
	for i := range sr.Pauses {
		s.localPause(&sr.Pauses[i])
	}
}

func (s *Store) localPause(p *models.Pause) {
	p.PauseStart = s.local(p.PauseStart)
	p.PauseEnd = s.local(p.PauseEnd)
	for i := range p.Series {
		s.localSeries(&p.Series[i])
	}
}

// SeriesByID retrieves a series with its category and linked pauses
func (s *Store) SeriesByID(id uint) (models.Series, error) {
	var sr models.Series
	err := s.db.Preload("Category").
		Preload("Pauses", func(db *gorm.DB) *gorm.DB { return db.Order("pause_start ASC") }).
		First(&sr, id).Error
	if err != nil {
		return models.Series{}, lookupErr(err, "series", id)
	}
	s.localSeries(&sr)
	return sr, nil
}

// SeriesByUser lists a user's series with categories and linked pauses
func (s *Store) SeriesByUser(userID uint) ([]models.Series, error) {
	var out []models.Series
	err := s.db.Where("user_id = ?", userID).
		Preload("Category").
		Preload("Pauses", func(db *gorm.DB) *gorm.DB { return db.Order("pause_start ASC") }).
		Order("start_date ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load series")
	}
	for i := range out {
		s.localSeries(&out[i])
	}
	return out, nil
}

// SaveSeries inserts or updates the series row. Links are written through AddLinks/RemoveLinks only.
func (s *Store) SaveSeries(sr *models.Series) error {
	row := *sr
	row.Category = models.Category{}
	row.Pauses = nil
	row.StartDate = row.StartDate.UTC()
	row.EndDate = utcPtr(row.EndDate)

	if err := s.db.Omit(clause.Associations).Save(&row).Error; err != nil {
		return apperr.Internal(err, "failed to save series")
	}
	sr.ID = row.ID
	sr.CreatedAt = row.CreatedAt
	sr.UpdatedAt = row.UpdatedAt
	return nil
}

// DeleteSeries deletes a series and any join rows still pointing at it
func (s *Store) DeleteSeries(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("series_id = ?", id).Delete(&models.SeriesPause{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Series{}, id).Error
	})
	if err != nil {
		return apperr.Internal(err, "failed to delete series #%d", id)
	}
	return nil
}

// PauseByID retrieves a pause with its linked series
func (s *Store) PauseByID(id uint) (models.Pause, error) {
	var p models.Pause
	err := s.db.Preload("Series", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&p, id).Error
	if err != nil {
		return models.Pause{}, lookupErr(err, "pause", id)
	}
	s.localPause(&p)
	return p, nil
}

// PausesByUser lists every pause of a user, global and series-specific, by start
func (s *Store) PausesByUser(userID uint) ([]models.Pause, error) {
	var out []models.Pause
	err := s.db.Where("user_id = ?", userID).
		Preload("Series", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Order("pause_start ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load pauses")
	}
	for i := range out {
		s.localPause(&out[i])
	}
	return out, nil
}

// SavePause inserts or updates the pause row
func (s *Store) SavePause(p *models.Pause) error {
	row := *p
	row.Series = nil
	row.PauseStart = row.PauseStart.UTC()
	row.PauseEnd = row.PauseEnd.UTC()

	if err := s.db.Omit(clause.Associations).Save(&row).Error; err != nil {
		return apperr.Internal(err, "failed to save pause")
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	p.UpdatedAt = row.UpdatedAt
	return nil
}

// DeletePause deletes a pause and any join rows still pointing at it
func (s *Store) DeletePause(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pause_id = ?", id).Delete(&models.SeriesPause{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Pause{}, id).Error
	})
	if err != nil {
		return apperr.Internal(err, "failed to delete pause #%d", id)
	}
	return nil
}

// Links returns the series/pause edges of a user's series
func (s *Store) Links(userID uint) ([]linkage.Edge, error) {
	var rows []models.SeriesPause
	err := s.db.Model(&models.SeriesPause{}).
		Select("series_pauses.series_id, series_pauses.pause_id").
		Joins("JOIN series ON series.id = series_pauses.series_id").
		Where("series.user_id = ?", userID).
		Order("series_pauses.series_id ASC, series_pauses.pause_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load pause links")
	}

	edges := make([]linkage.Edge, 0, len(rows))
	for _, r := range rows {
		edges = append(edges, linkage.Edge{SeriesID: r.SeriesID, PauseID: r.PauseID})
	}
	return edges, nil
}

// AddLinks writes join rows; rows that already exist are left alone
func (s *Store) AddLinks(edges []linkage.Edge) error {
	if len(edges) == 0 {
		return nil
	}
	rows := make([]models.SeriesPause, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, models.SeriesPause{SeriesID: e.SeriesID, PauseID: e.PauseID})
	}
	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return apperr.Internal(err, "failed to link pauses")
	}
	return nil
}

// RemoveLinks deletes join rows
func (s *Store) RemoveLinks(edges []linkage.Edge) error {
	for _, e := range edges {
		err := s.db.Where("series_id = ? AND pause_id = ?", e.SeriesID, e.PauseID).
			Delete(&models.SeriesPause{}).Error
		if err != nil {
			return apperr.Internal(err, "failed to unlink pause #%d from series #%d", e.PauseID, e.SeriesID)
		}
	}
	return nil
}
