package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority represents the urgency level of a task
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is one of the known priority values.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task represents a single to-do item
type Task struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Completed   bool       `json:"completed" db:"completed"`
	Priority    Priority   `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"dueDate" db:"due_date"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
}

// NewTask builds a task from already-normalized creation data, allocating
// its ID and timestamps.
func NewTask(data CreateTaskData) *Task {
	now := time.Now()

	priority := data.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	return &Task{
		ID:          uuid.New().String(),
		Title:       data.Title,
		Description: data.Description,
		Completed:   data.Completed,
		Priority:    priority,
		DueDate:     data.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Clone returns an independent copy of the task. Repositories hand out
// clones so callers can never mutate stored state through a returned value.
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.DueDate != nil {
		d := *t.DueDate
		c.DueDate = &d
	}
	return &c
}

// IsOverdue reports whether the task is incomplete and past its due date.
// Tasks without a due date are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	return !t.Completed && t.DueDate != nil && t.DueDate.Before(now)
}

// ApplyUpdates merges the supplied fields into the task and refreshes
// UpdatedAt. ID and CreatedAt are never touched.
func (t *Task) ApplyUpdates(updates UpdateTaskData) {
	if updates.Title != nil {
		t.Title = *updates.Title
	}
	if updates.RemoveDescription {
		t.Description = nil
	} else if updates.Description != nil {
		d := *updates.Description
		t.Description = &d
	}
	if updates.Completed != nil {
		t.Completed = *updates.Completed
	}
	if updates.Priority != nil {
		t.Priority = *updates.Priority
	}
	if updates.RemoveDueDate {
		t.DueDate = nil
	} else if updates.DueDate != nil {
		d := *updates.DueDate
		t.DueDate = &d
	}
	t.UpdatedAt = time.Now()
}

// CreateTaskData carries normalized input for creating a task
type CreateTaskData struct {
	Title       string
	Description *string
	Completed   bool
	Priority    Priority
	DueDate     *time.Time
}

// UpdateTaskData carries a partial update. Nil fields are left unchanged.
// The Remove flags distinguish "clear this field" from "keep it"; an empty
// or null description and a null dueDate both clear.
type UpdateTaskData struct {
	Title             *string
	Description       *string
	RemoveDescription bool
	Completed         *bool
	Priority          *Priority
	DueDate           *time.Time
	RemoveDueDate     bool
}

// SortField identifies a sortable task attribute
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByTitle     SortField = "title"
	SortByDueDate   SortField = "dueDate"
	SortByPriority  SortField = "priority"
)

// Valid reports whether f is a known sort field.
func (f SortField) Valid() bool {
	switch f {
	case SortByCreatedAt, SortByUpdatedAt, SortByTitle, SortByDueDate, SortByPriority:
		return true
	}
	return false
}

// SortOrder is the sort direction
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// QueryOptions defines filtering, sorting and pagination for FindAll.
// Defaults (page 1, limit 10 capped at 100, createdAt desc) are applied by
// the service before the options reach a repository.
type QueryOptions struct {
	Completed   *bool
	Priority    *Priority
	Search      string
	DueDateFrom *time.Time
	DueDateTo   *time.Time
	SortBy      SortField
	SortOrder   SortOrder
	Page        int
	Limit       int
}

// PaginationMeta describes the position of a page within the filtered set
type PaginationMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// PaginatedResult is one page of tasks plus its pagination metadata
type PaginatedResult struct {
	Data []*Task        `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// PriorityCounts breaks the task count down by priority
type PriorityCounts struct {
	Low    int64 `json:"low"`
	Medium int64 `json:"medium"`
	High   int64 `json:"high"`
}

// Statistics holds aggregate counts over the whole collection
type Statistics struct {
	Total          int64          `json:"total"`
	Completed      int64          `json:"completed"`
	Pending        int64          `json:"pending"`
	ByPriority     PriorityCounts `json:"byPriority"`
	Overdue        int64          `json:"overdue"`
	CompletionRate float64        `json:"completionRate"`
}

// Productivity summarizes recent completion activity
type Productivity struct {
	CompletedToday    int     `json:"completedToday"`
	CompletedThisWeek int     `json:"completedThisWeek"`
	CompletionRate    float64 `json:"completionRate"`
}

// UrgentActions counts the high-priority subsets that need attention first
type UrgentActions struct {
	OverdueHighPriority  int `json:"overdueHighPriority"`
	DueTodayHighPriority int `json:"dueTodayHighPriority"`
}

// DailySummary is the composite analytics payload for the current day
type DailySummary struct {
	DueToday        int           `json:"dueToday"`
	Overdue         int           `json:"overdue"`
	Completed       int64         `json:"completed"`
	HighPriority    int           `json:"highPriority"`
	Recommendations []string      `json:"recommendations"`
	Productivity    Productivity  `json:"productivity"`
	UrgentActions   UrgentActions `json:"urgentActions"`
}

// AdvancedMetricsProductivity holds the productivity block of AdvancedMetrics
type AdvancedMetricsProductivity struct {
	TasksCompletedToday    int     `json:"tasksCompletedToday"`
	TasksCompletedThisWeek int     `json:"tasksCompletedThisWeek"`
	AverageCompletionTime  float64 `json:"averageCompletionTime"`
}

// AdvancedMetricsWorkload holds the workload block of AdvancedMetrics
type AdvancedMetricsWorkload struct {
	TotalPending        int64 `json:"totalPending"`
	HighPriorityPending int64 `json:"highPriorityPending"`
	OverdueCount        int64 `json:"overdueCount"`
	DueTodayCount       int64 `json:"dueTodayCount"`
}

// AdvancedMetricsTrends holds the trend block of AdvancedMetrics
type AdvancedMetricsTrends struct {
	CompletionRate       float64        `json:"completionRate"`
	PriorityDistribution PriorityCounts `json:"priorityDistribution"`
}

// AdvancedMetrics groups productivity, workload and trend figures
type AdvancedMetrics struct {
	Productivity AdvancedMetricsProductivity `json:"productivity"`
	Workload     AdvancedMetricsWorkload     `json:"workload"`
	Trends       AdvancedMetricsTrends       `json:"trends"`
}
