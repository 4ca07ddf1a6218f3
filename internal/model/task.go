package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID    `gorm:"type:uuid;not null;index"`
	Title       string       `gorm:"size:255;not null"`
	Description *string      `gorm:"type:text"`
	Status      TaskStatus   `gorm:"size:20;not null;default:pending;index"`
	DueDate     *Date        `gorm:"type:date;index"`
	Priority    TaskPriority `gorm:"size:20;not null;default:medium"`
	CreatedAt   time.Time    `gorm:"index"`
	UpdatedAt   time.Time

	Tags []Tag `gorm:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	return nil
}

// IsOverdue reports whether the task is past due as of today.
func (t *Task) IsOverdue(today Date) bool {
	return t.DueDate != nil && t.DueDate.Before(today.Time) && t.Status != StatusCompleted
}
