package tracking

import (
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/models"
)

// Store is the persistence the tracking service works against.
// Lookups by id return an apperr NotFound error when the row does not exist.
type Store interface {
	UserExists(userID uint) (bool, error)

	CategoryByID(id uint) (models.Category, error)
	CategoryByName(userID uint, name string) (models.Category, error)
	CategoriesByUser(userID uint) ([]models.Category, error)
	SaveCategory(c *models.Category) error
	SeriesCountByCategory(categoryID uint) (int64, error)
	// DeleteCategory removes the category and its worktimes in one transaction.
	DeleteCategory(id uint) error

	// WorktimeByID and OpenWorktimes load Category.
	WorktimeByID(id uint) (models.Worktime, error)
	OpenWorktimes(userID uint) ([]models.Worktime, error)
	SaveWorktime(w *models.Worktime) error
	DeleteWorktime(id uint) error
}

// Invalidator drops cached computations of a user after a mutation.
type Invalidator interface {
	InvalidateUser(userID uint)
}

type nopInvalidator struct{}

func (nopInvalidator) InvalidateUser(uint) {}

// Service manages one-off worktimes, the running timer and categories.
type Service struct {
	store       Store
	invalidator Invalidator
	log         zerolog.Logger
	now         func() time.Time
}

// NewService creates a tracking service. A nil invalidator is allowed.
func NewService(store Store, invalidator Invalidator, log zerolog.Logger) *Service {
	if invalidator == nil {
		invalidator = nopInvalidator{}
	}
	return &Service{store: store, invalidator: invalidator, log: log, now: time.Now}
}

// CategoryRef picks a category by id or, when ID is zero, by name.
// An unknown name creates the category.
type CategoryRef struct {
	ID   uint
	Name string
}

// WorktimeInput holds the editable fields of a worktime
type WorktimeInput struct {
	Category   CategoryRef
	StartedAt  time.Time
	FinishedAt *time.Time
	Note       string
}

// LogWorktime stores a finished one-off worktime
func (s *Service) LogWorktime(userID uint, in WorktimeInput) (models.Worktime, error) {
	if in.FinishedAt == nil {
		return models.Worktime{}, apperr.Validation("end time is required, use start for a running timer")
	}
	if err := checkInterval(in.StartedAt, in.FinishedAt); err != nil {
		return models.Worktime{}, err
	}
	if err := s.requireUser(userID); err != nil {
		return models.Worktime{}, err
	}
	cat, err := s.ResolveCategory(userID, in.Category)
	if err != nil {
		return models.Worktime{}, err
	}

	w := models.Worktime{
		UserID:     userID,
		CategoryID: cat.ID,
		StartedAt:  in.StartedAt.Truncate(time.Minute),
		FinishedAt: truncated(in.FinishedAt),
		Note:       strings.TrimSpace(in.Note),
	}
	if err := s.store.SaveWorktime(&w); err != nil {
		return models.Worktime{}, err
	}
	w.Category = cat

	s.invalidator.InvalidateUser(userID)
	s.log.Info().
		Uint("user_id", userID).
		Uint("worktime_id", w.ID).
		Str("category", cat.Name).
		Int("minutes", w.Minutes()).
		Msg("worktime logged")
	return w, nil
}

// StartTimer opens a worktime without an end. Only one timer may run at a time.
func (s *Service) StartTimer(userID uint, ref CategoryRef, note string) (models.Worktime, error) {
	if err := s.requireUser(userID); err != nil {
		return models.Worktime{}, err
	}
	running, err := s.store.OpenWorktimes(userID)
	if err != nil {
		return models.Worktime{}, err
	}
	if len(running) > 0 {
		r := running[0]
		return models.Worktime{}, apperr.Conflict("timer #%d for %s is already running since %s",
			r.ID, r.Category.Name, r.StartedAt.Format("15:04"))
	}
	cat, err := s.ResolveCategory(userID, ref)
	if err != nil {
		return models.Worktime{}, err
	}

	w := models.Worktime{
		UserID:     userID,
		CategoryID: cat.ID,
		StartedAt:  s.now().Truncate(time.Second),
		Note:       strings.TrimSpace(note),
	}
	if err := s.store.SaveWorktime(&w); err != nil {
		return models.Worktime{}, err
	}
	w.Category = cat

	s.log.Info().Uint("user_id", userID).Uint("worktime_id", w.ID).Str("category", cat.Name).Msg("timer started")
	return w, nil
}

// StopTimer closes the running timer at the current time
func (s *Service) StopTimer(userID uint) (models.Worktime, error) {
	w, err := s.ActiveTimer(userID)
	if err != nil {
		return models.Worktime{}, err
	}
	if w == nil {
		return models.Worktime{}, &apperr.Error{Kind: apperr.KindNotFound, Message: "no timer is running"}
	}

	end := s.now().Truncate(time.Second)
	if end.Before(w.StartedAt) {
		end = w.StartedAt
	}
	w.FinishedAt = &end
	if err := s.store.SaveWorktime(w); err != nil {
		return models.Worktime{}, err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().Uint("user_id", userID).Uint("worktime_id", w.ID).Int("minutes", w.Minutes()).Msg("timer stopped")
	return *w, nil
}

// ActiveTimer returns the running worktime, or nil when none is running.
func (s *Service) ActiveTimer(userID uint) (*models.Worktime, error) {
	running, err := s.store.OpenWorktimes(userID)
	if err != nil {
		return nil, err
	}
	if len(running) == 0 {
		return nil, nil
	}
	w := running[0]
	return &w, nil
}

// UpdateWorktime replaces the editable fields of a worktime.
// A zero Category keeps the current category.
func (s *Service) UpdateWorktime(userID, id uint, in WorktimeInput) (models.Worktime, error) {
	w, err := s.store.WorktimeByID(id)
	if err != nil {
		return models.Worktime{}, err
	}
	if w.UserID != userID {
		return models.Worktime{}, apperr.Forbidden("worktime")
	}

	if !in.StartedAt.IsZero() {
		w.StartedAt = in.StartedAt.Truncate(time.Minute)
	}
	if in.FinishedAt != nil {
		w.FinishedAt = truncated(in.FinishedAt)
	}
	if err := checkInterval(w.StartedAt, w.FinishedAt); err != nil {
		return models.Worktime{}, err
	}
	if in.Category != (CategoryRef{}) {
		cat, err := s.ResolveCategory(userID, in.Category)
		if err != nil {
			return models.Worktime{}, err
		}
		w.CategoryID = cat.ID
		w.Category = cat
	}
	if in.Note != "" {
		w.Note = strings.TrimSpace(in.Note)
	}

	if err := s.store.SaveWorktime(&w); err != nil {
		return models.Worktime{}, err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().Uint("user_id", userID).Uint("worktime_id", w.ID).Msg("worktime updated")
	return w, nil
}

// DeleteWorktime deletes one of the user's worktimes
func (s *Service) DeleteWorktime(userID, id uint) error {
	w, err := s.store.WorktimeByID(id)
	if err != nil {
		return err
	}
	if w.UserID != userID {
		return apperr.Forbidden("worktime")
	}
	if err := s.store.DeleteWorktime(id); err != nil {
		return err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().Uint("user_id", userID).Uint("worktime_id", id).Msg("worktime deleted")
	return nil
}

// ResolveCategory returns the referenced category, creating it when it is
// referenced by a name the user does not have yet.
func (s *Service) ResolveCategory(userID uint, ref CategoryRef) (models.Category, error) {
	if ref.ID != 0 {
		c, err := s.store.CategoryByID(ref.ID)
		if err != nil {
			return models.Category{}, err
		}
		if c.UserID != userID {
			return models.Category{}, apperr.Forbidden("category")
		}
		return c, nil
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return models.Category{}, apperr.Validation("category is required")
	}
	c, err := s.store.CategoryByName(userID, name)
	if err == nil {
		return c, nil
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return models.Category{}, err
	}
	return s.CreateCategory(userID, name, "")
}

// Categories lists the user's categories
func (s *Service) Categories(userID uint) ([]models.Category, error) {
	return s.store.CategoriesByUser(userID)
}

// CreateCategory adds a category. Names are unique per user.
func (s *Service) CreateCategory(userID uint, name, color string) (models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Category{}, apperr.Validation("category name is required")
	}
	if err := s.requireUser(userID); err != nil {
		return models.Category{}, err
	}
	if _, err := s.store.CategoryByName(userID, name); err == nil {
		return models.Category{}, apperr.Conflict("category %q already exists", name)
	} else if !apperr.Is(err, apperr.KindNotFound) {
		return models.Category{}, err
	}

	c := models.Category{UserID: userID, Name: name, Color: color}
	if err := s.store.SaveCategory(&c); err != nil {
		return models.Category{}, err
	}
	s.log.Info().Uint("user_id", userID).Uint("category_id", c.ID).Str("name", name).Msg("category created")
	return c, nil
}

// DeleteCategory deletes a category and its worktimes.
// Categories still used by a series cannot be deleted.
func (s *Service) DeleteCategory(userID, id uint) error {
	c, err := s.store.CategoryByID(id)
	if err != nil {
		return err
	}
	if c.UserID != userID {
		return apperr.Forbidden("category")
	}
	n, err := s.store.SeriesCountByCategory(id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.Conflict("category %q is used by %d series", c.Name, n)
	}
	if err := s.store.DeleteCategory(id); err != nil {
		return err
	}

	s.invalidator.InvalidateUser(userID)
	s.log.Info().Uint("user_id", userID).Uint("category_id", id).Msg("category deleted")
	return nil
}

func (s *Service) requireUser(userID uint) error {
	ok, err := s.store.UserExists(userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("user", userID)
	}
	return nil
}

func checkInterval(start time.Time, end *time.Time) error {
	if start.IsZero() {
		return apperr.Validation("start time is required")
	}
	if end != nil && end.Before(start) {
		return apperr.Validation("end %s is before start %s",
			end.Format("2006-01-02 15:04"), start.Format("2006-01-02 15:04"))
	}
	return nil
}

func truncated(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.Truncate(time.Minute)
	return &v
}
