package Models

import (
	"time"

	"gorm.io/gorm"
)

// RecurringTask is a template entry in the annual cycle. Month is nil when
// the task is not bound to a month.
type RecurringTask struct {
	gorm.Model
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description" gorm:"type:text"`
	Month       *int   `json:"month" gorm:"index"`
	Category    string `json:"category" gorm:"size:100"`
	IsRecurring bool   `json:"is_recurring" gorm:"not null;default:true"`
	Year        int    `json:"year"`
}

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
	StatusCompleted  = "completed"
)

// TaskCompletion records that a task was addressed for a year, either by a
// station or by a single user. Exactly one of StationID and UserID is set.
type TaskCompletion struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	TaskID      uint      `json:"task_id" gorm:"not null;uniqueIndex:idx_completion_station;uniqueIndex:idx_completion_user"`
	StationID   *uint     `json:"station_id" gorm:"uniqueIndex:idx_completion_station"`
	UserID      *uint     `json:"user_id" gorm:"uniqueIndex:idx_completion_user"`
	Year        int       `json:"year" gorm:"not null;uniqueIndex:idx_completion_station;uniqueIndex:idx_completion_user"`
	Status      string    `json:"status" gorm:"type:text;not null"`
	CompletedBy uint      `json:"completed_by" gorm:"not null"`
	CompletedAt time.Time `json:"completed_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type TaskComment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TaskID    uint      `json:"task_id" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
