package linkage

import (
	"github.com/balkashynov/tempo/internal/models"
)

// Store is the persistence the linkage service works against.
// Lookups by id return an apperr NotFound error when the row does not exist.
type Store interface {
	// Atomic runs fn inside one transaction. fn receives a Store bound to it.
	Atomic(fn func(Store) error) error

	UserExists(userID uint) (bool, error)
	CategoryByID(id uint) (models.Category, error)

	// SeriesByID and SeriesByUser load Category and Pauses.
	SeriesByID(id uint) (models.Series, error)
	SeriesByUser(userID uint) ([]models.Series, error)
	SaveSeries(s *models.Series) error
	DeleteSeries(id uint) error

	// PauseByID and PausesByUser load the linked Series.
	PauseByID(id uint) (models.Pause, error)
	PausesByUser(userID uint) ([]models.Pause, error)
	SavePause(p *models.Pause) error
	DeletePause(id uint) error

	// Links returns every edge whose series belongs to the user.
	Links(userID uint) ([]Edge, error)
	AddLinks(edges []Edge) error
	RemoveLinks(edges []Edge) error
}

// Invalidator drops cached computations of a user after a mutation.
type Invalidator interface {
	InvalidateUser(userID uint)
}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateUser(uint) {}
