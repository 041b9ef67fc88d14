package models

import (
	"time"

	"gorm.io/gorm"
)

// User owns categories, worktimes, series and pauses
type User struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Email string `gorm:"unique;not null" json:"email"`
	Name  string `json:"name"`
}

// Category groups tracked time for statistics
type Category struct {
	ID     uint   `gorm:"primarykey" json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_category_user_name" json:"user_id"`
	Name   string `gorm:"not null;uniqueIndex:idx_category_user_name" json:"name"`
	Color  string `json:"color"`
}

// Worktime is a one-off logged interval. A nil FinishedAt means the timer is still running.
type Worktime struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	UserID     uint       `gorm:"not null;index" json:"user_id"`
	CategoryID uint       `gorm:"not null" json:"category_id"`
	StartedAt  time.Time  `gorm:"not null;index" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at"`
	Note       string     `json:"note"`

	// Relationships
	Category Category `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"category"`
}

// Open reports whether the worktime has no end yet
func (w Worktime) Open() bool {
	return w.FinishedAt == nil
}

// Minutes returns the whole minutes between start and end, 0 while open.
func (w Worktime) Minutes() int {
	if w.FinishedAt == nil {
		return 0
	}
	return int(w.FinishedAt.Sub(w.StartedAt) / time.Minute)
}
