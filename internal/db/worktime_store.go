package db

import (
	"time"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
)

func (s *Store) localWorktimes(ws []models.Worktime) []models.Worktime {
	for i := range ws {
		ws[i].StartedAt = s.local(ws[i].StartedAt)
		ws[i].FinishedAt = s.localPtr(ws[i].FinishedAt)
	}
	return ws
}

// WorktimeByID retrieves a worktime by ID
func (s *Store) WorktimeByID(id uint) (models.Worktime, error) {
	var w models.Worktime
	if err := s.db.Preload("Category").First(&w, id).Error; err != nil {
		return models.Worktime{}, lookupErr(err, "worktime", id)
	}
	return s.localWorktimes([]models.Worktime{w})[0], nil
}

// OpenWorktimes returns the running timers of a user, oldest first
func (s *Store) OpenWorktimes(userID uint) ([]models.Worktime, error) {
	var ws []models.Worktime
	err := s.db.Where("user_id = ? AND finished_at IS NULL", userID).
		Preload("Category").
		Order("started_at ASC").
		Find(&ws).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load running timers")
	}
	return s.localWorktimes(ws), nil
}

// WorktimesOverlapping returns finished worktimes that share time with [from, to)
func (s *Store) WorktimesOverlapping(userID uint, from, to time.Time) ([]models.Worktime, error) {
	var ws []models.Worktime
	err := s.db.Where("user_id = ? AND finished_at IS NOT NULL", userID).
		Where("started_at < ? AND (started_at >= ? OR finished_at > ?)", to.UTC(), from.UTC(), from.UTC()).
		Preload("Category").
		Order("started_at ASC").
		Find(&ws).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load worktimes")
	}
	return s.localWorktimes(ws), nil
}

// FinishedWorktimesWithin returns finished worktimes lying entirely inside [from, to]
func (s *Store) FinishedWorktimesWithin(userID uint, from, to time.Time) ([]models.Worktime, error) {
	var ws []models.Worktime
	err := s.db.Where("user_id = ? AND finished_at IS NOT NULL", userID).
		Where("started_at >= ? AND finished_at <= ?", from.UTC(), to.UTC()).
		Preload("Category").
		Order("started_at ASC").
		Find(&ws).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load worktimes")
	}
	return s.localWorktimes(ws), nil
}

// SaveWorktime inserts or updates a worktime. The Category field is not written.
func (s *Store) SaveWorktime(w *models.Worktime) error {
	row := *w
	row.Category = models.Category{}
	row.StartedAt = row.StartedAt.UTC()
	row.FinishedAt = utcPtr(row.FinishedAt)

	if err := s.db.Omit("Category").Save(&row).Error; err != nil {
		return apperr.Internal(err, "failed to save worktime")
	}
	w.ID = row.ID
	w.CreatedAt = row.CreatedAt
	w.UpdatedAt = row.UpdatedAt
	return nil
}

// DeleteWorktime soft-deletes a worktime
func (s *Store) DeleteWorktime(id uint) error {
	if err := s.db.Delete(&models.Worktime{}, id).Error; err != nil {
		return apperr.Internal(err, "failed to delete worktime #%d", id)
	}
	return nil
}
