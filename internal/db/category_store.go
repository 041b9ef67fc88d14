package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
)

// CategoryByID retrieves a category by ID
func (s *Store) CategoryByID(id uint) (models.Category, error) {
	var c models.Category
	if err := s.db.First(&c, id).Error; err != nil {
		return models.Category{}, lookupErr(err, "category", id)
	}
	return c, nil
}

// CategoryByName finds a user's category, ignoring case
func (s *Store) CategoryByName(userID uint, name string) (models.Category, error) {
	var c models.Category
	err := s.db.Where("user_id = ? AND LOWER(name) = ?", userID, strings.ToLower(strings.TrimSpace(name))).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Category{}, &apperr.Error{Kind: apperr.KindNotFound, Message: "category " + name + " not found"}
	}
	if err != nil {
		return models.Category{}, apperr.Internal(err, "failed to load category %s", name)
	}
	return c, nil
}

// CategoriesByUser lists a user's categories by name
func (s *Store) CategoriesByUser(userID uint) ([]models.Category, error) {
	var cs []models.Category
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&cs).Error; err != nil {
		return nil, apperr.Internal(err, "failed to load categories")
	}
	return cs, nil
}

// SaveCategory inserts or updates a category
func (s *Store) SaveCategory(c *models.Category) error {
	if err := s.db.Save(c).Error; err != nil {
		return apperr.Internal(err, "failed to save category %s", c.Name)
	}
	return nil
}

// SeriesCountByCategory counts the series using a category
func (s *Store) SeriesCountByCategory(categoryID uint) (int64, error) {
	var n int64
	if err := s.db.Model(&models.Series{}).Where("category_id = ?", categoryID).Count(&n).Error; err != nil {
		return 0, apperr.Internal(err, "failed to count series")
	}
	return n, nil
}

// DeleteCategory removes a category together with its worktimes
func (s *Store) DeleteCategory(id uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("category_id = ?", id).Delete(&models.Worktime{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, id).Error
	})
	if err != nil {
		return apperr.Internal(err, "failed to delete category #%d", id)
	}
	return nil
}
