package sqlite

import (
	"time"

	"taskapi/internal/domain/models"
)

// taskRecord is the GORM mapping of a task row.
type taskRecord struct {
	ID          string     `gorm:"primarykey;size:36"`
	Title       string     `gorm:"size:200;not null"`
	Description *string    `gorm:"size:1000"`
	Completed   bool       `gorm:"not null;default:false;index"`
	Priority    string     `gorm:"size:10;not null;default:medium;index"`
	DueDate     *time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName returns the table name for taskRecord.
func (taskRecord) TableName() string {
	return "tasks"
}

func fromDomain(t *models.Task) *taskRecord {
	return &taskRecord{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (rec *taskRecord) toDomain() *models.Task {
	task := &models.Task{
		ID:        rec.ID,
		Title:     rec.Title,
		Completed: rec.Completed,
		Priority:  models.Priority(rec.Priority),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if rec.Description != nil {
		d := *rec.Description
		task.Description = &d
	}
	if rec.DueDate != nil {
		d := *rec.DueDate
		task.DueDate = &d
	}
	return task
}
