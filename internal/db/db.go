package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/balkashynov/tempo/internal/apperr"
	"github.com/balkashynov/tempo/internal/linkage"
	"github.com/balkashynov/tempo/internal/models"
)

// Store is the gorm-backed implementation of every collaborator interface
// (schedule.Source, stats.Source, linkage.Store, tracking.Store).
//
// Instants are written in UTC so that SQLite's text comparison orders them,
// and handed back in loc.
type Store struct {
	db  *gorm.DB
	loc *time.Location
}

// Open opens (or creates) the database file at path and runs migrations
func Open(path string, loc *time.Location) (*Store, error) {
	// Ensure the directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	return open(sqlite.Open(path), loc, 0)
}

// OpenMemory opens a private in-memory database, used by tests.
func OpenMemory(loc *time.Location) (*Store, error) {
	return open(sqlite.Open(":memory:"), loc, 1)
}

func open(dialector gorm.Dialector, loc *time.Location, maxConns int) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Quiet by default
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if maxConns > 0 {
		// every new connection to :memory: would be a new, empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(maxConns)
	}

	s := &Store{db: db, loc: loc}
	if err := s.runMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// DefaultPath returns ~/.tempo/tempo.db
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".tempo", "tempo.db"), nil
}

// runMigrations creates/updates the database schema
func (s *Store) runMigrations() error {
	if err := s.db.SetupJoinTable(&models.Series{}, "Pauses", &models.SeriesPause{}); err != nil {
		return err
	}
	if err := s.db.SetupJoinTable(&models.Pause{}, "Series", &models.SeriesPause{}); err != nil {
		return err
	}
	return s.db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Worktime{},
		&models.Series{},
		&models.Pause{},
		&models.SeriesPause{},
	)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Location is the zone instants are returned in
func (s *Store) Location() *time.Location {
	return s.loc
}

// Atomic runs fn inside one transaction; any error rolls everything back.
func (s *Store) Atomic(fn func(linkage.Store) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, loc: s.loc})
	})
}

// EnsureUser returns the user with the given email, creating it on first use.
func (s *Store) EnsureUser(email, name string) (models.User, error) {
	var u models.User
	err := s.db.Where(models.User{Email: email}).
		Attrs(models.User{Name: name}).
		FirstOrCreate(&u).Error
	if err != nil {
		return models.User{}, apperr.Internal(err, "failed to load user %s", email)
	}
	return u, nil
}

// UserExists reports whether a user id is known
func (s *Store) UserExists(userID uint) (bool, error) {
	var n int64
	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return false, apperr.Internal(err, "failed to look up user #%d", userID)
	}
	return n > 0, nil
}

// lookupErr maps a failed single-row lookup to NotFound or Internal
func lookupErr(err error, what string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what, id)
	}
	return apperr.Internal(err, "failed to load %s #%d", what, id)
}

func (s *Store) local(t time.Time) time.Time {
	return t.In(s.loc)
}

func (s *Store) localPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.In(s.loc)
	return &v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}
