// Package dto defines the request and response shapes of the REST API and
// their validation, keeping wire concerns out of the domain model.
package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"taskapi/internal/domain/models"
)

const maxSearchLength = 100

// CreateTaskRequest represents the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description *string   `json:"description"`
	Completed   bool      `json:"completed"`
	Priority    string    `json:"priority"`
	DueDate     *FlexTime `json:"dueDate"`
}

// Validate checks the enum fields before the request reaches the service.
func (r *CreateTaskRequest) Validate() error {
	if r.Priority != "" && !models.Priority(r.Priority).Valid() {
		return fmt.Errorf("priority must be one of: low, medium, high")
	}
	return nil
}

// ToCreateData converts the request to the service input.
func (r *CreateTaskRequest) ToCreateData() models.CreateTaskData {
	data := models.CreateTaskData{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Priority:    models.Priority(r.Priority),
	}
	if r.DueDate != nil {
		data.DueDate = r.DueDate.ToTime()
	}
	return data
}

// UpdateTaskRequest represents the body of PUT/PATCH /api/tasks/:id. The
// raw fields distinguish an absent key (leave unchanged) from an explicit
// null (clear the stored value).
type UpdateTaskRequest struct {
	Title       *string         `json:"title"`
	Description json.RawMessage `json:"description"`
	Completed   *bool           `json:"completed"`
	Priority    *string         `json:"priority"`
	DueDate     json.RawMessage `json:"dueDate"`
}

// Validate checks the enum and datetime fields.
func (r *UpdateTaskRequest) Validate() error {
	if r.Priority != nil && !models.Priority(*r.Priority).Valid() {
		return fmt.Errorf("priority must be one of: low, medium, high")
	}
	if present, isNull := rawState(r.DueDate); present && !isNull {
		if _, err := parseRawTime(r.DueDate); err != nil {
			return err
		}
	}
	if present, isNull := rawState(r.Description); present && !isNull {
		var s string
		if err := json.Unmarshal(r.Description, &s); err != nil {
			return fmt.Errorf("description must be a string or null")
		}
	}
	return nil
}

// ToUpdateData converts the request to the service input.
func (r *UpdateTaskRequest) ToUpdateData() (models.UpdateTaskData, error) {
	updates := models.UpdateTaskData{
		Title:     r.Title,
		Completed: r.Completed,
	}

	if r.Priority != nil {
		p := models.Priority(*r.Priority)
		updates.Priority = &p
	}

	if present, isNull := rawState(r.Description); present {
		if isNull {
			updates.RemoveDescription = true
		} else {
			var s string
			if err := json.Unmarshal(r.Description, &s); err != nil {
				return models.UpdateTaskData{}, fmt.Errorf("description must be a string or null")
			}
			updates.Description = &s
		}
	}

	if present, isNull := rawState(r.DueDate); present {
		if isNull {
			updates.RemoveDueDate = true
		} else {
			t, err := parseRawTime(r.DueDate)
			if err != nil {
				return models.UpdateTaskData{}, err
			}
			updates.DueDate = t
		}
	}

	return updates, nil
}

// ListTasksQuery binds the query string of GET /api/tasks.
type ListTasksQuery struct {
	Completed   string `form:"completed"`
	Priority    string `form:"priority"`
	Search      string `form:"search"`
	DueDateFrom string `form:"dueDateFrom"`
	DueDateTo   string `form:"dueDateTo"`
	SortBy      string `form:"sortBy"`
	SortOrder   string `form:"sortOrder"`
	Page        int    `form:"page"`
	Limit       int    `form:"limit"`
}

// Validate checks every supplied parameter; absent parameters fall back to
// the service defaults.
func (q *ListTasksQuery) Validate() error {
	if q.Completed != "" && q.Completed != "true" && q.Completed != "false" {
		return fmt.Errorf("completed must be true or false")
	}

	if q.Priority != "" && !models.Priority(q.Priority).Valid() {
		return fmt.Errorf("priority must be one of: low, medium, high")
	}

	if q.Search != "" {
		if strings.TrimSpace(q.Search) == "" {
			return fmt.Errorf("search term cannot be empty")
		}
		if len([]rune(q.Search)) > maxSearchLength {
			return fmt.Errorf("search term cannot exceed %d characters", maxSearchLength)
		}
	}

	var from, to *time.Time
	if q.DueDateFrom != "" {
		t, err := parseDateParam("dueDateFrom", q.DueDateFrom)
		if err != nil {
			return err
		}
		from = t
	}
	if q.DueDateTo != "" {
		t, err := parseDateParam("dueDateTo", q.DueDateTo)
		if err != nil {
			return err
		}
		to = t
	}
	if from != nil && to != nil && from.After(*to) {
		return fmt.Errorf("dueDateFrom cannot be after dueDateTo")
	}

	if q.SortBy != "" && !models.SortField(q.SortBy).Valid() {
		return fmt.Errorf("sortBy must be one of: createdAt, updatedAt, title, dueDate, priority")
	}

	if q.SortOrder != "" && q.SortOrder != string(models.SortAsc) && q.SortOrder != string(models.SortDesc) {
		return fmt.Errorf("sortOrder must be asc or desc")
	}

	if q.Page < 0 {
		return fmt.Errorf("page must be a positive integer")
	}
	if q.Limit < 0 {
		return fmt.Errorf("limit must be a positive integer")
	}

	return nil
}

// ToQueryOptions converts the validated query to the service input.
func (q *ListTasksQuery) ToQueryOptions() (models.QueryOptions, error) {
	opts := models.QueryOptions{
		Search:    strings.TrimSpace(q.Search),
		SortBy:    models.SortField(q.SortBy),
		SortOrder: models.SortOrder(q.SortOrder),
		Page:      q.Page,
		Limit:     q.Limit,
	}

	if q.Completed != "" {
		completed := q.Completed == "true"
		opts.Completed = &completed
	}

	if q.Priority != "" {
		p := models.Priority(q.Priority)
		opts.Priority = &p
	}

	if q.DueDateFrom != "" {
		t, err := parseDateParam("dueDateFrom", q.DueDateFrom)
		if err != nil {
			return models.QueryOptions{}, err
		}
		opts.DueDateFrom = t
	}

	if q.DueDateTo != "" {
		t, err := parseDateParam("dueDateTo", q.DueDateTo)
		if err != nil {
			return models.QueryOptions{}, err
		}
		opts.DueDateTo = t
	}

	return opts, nil
}

// DateRangeQuery binds the query string of GET /api/tasks/date-range.
type DateRangeQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}

// Parse validates both bounds and returns them in order.
func (q *DateRangeQuery) Parse() (time.Time, time.Time, error) {
	if q.StartDate == "" || q.EndDate == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("startDate and endDate are required")
	}

	start, err := parseDateParam("startDate", q.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseDateParam("endDate", q.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(*end) {
		return time.Time{}, time.Time{}, fmt.Errorf("startDate cannot be after endDate")
	}

	return *start, *end, nil
}

// BulkIDsRequest represents the body of the bulk complete/delete endpoints.
type BulkIDsRequest struct {
	IDs []string `json:"ids"`
}

// UpdatePriorityRequest represents the body of PATCH /api/tasks/:id/priority.
type UpdatePriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

// Validate checks the priority enum.
func (r *UpdatePriorityRequest) Validate() error {
	if !models.Priority(r.Priority).Valid() {
		return fmt.Errorf("priority must be one of: low, medium, high")
	}
	return nil
}

// UpdateDueDateRequest represents the body of PATCH /api/tasks/:id/due-date.
// An explicit null clears the due date.
type UpdateDueDateRequest struct {
	DueDate json.RawMessage `json:"dueDate"`
}

// ToUpdateData converts the request to the service input.
func (r *UpdateDueDateRequest) ToUpdateData() (models.UpdateTaskData, error) {
	present, isNull := rawState(r.DueDate)
	if !present || isNull {
		return models.UpdateTaskData{RemoveDueDate: true}, nil
	}

	t, err := parseRawTime(r.DueDate)
	if err != nil {
		return models.UpdateTaskData{}, err
	}
	return models.UpdateTaskData{DueDate: t}, nil
}

// DuplicateTaskRequest represents the optional body of
// POST /api/tasks/:id/duplicate.
type DuplicateTaskRequest struct {
	Title string `json:"title"`
}

// FlexTime accepts either a full RFC3339 datetime or a bare calendar date.
type FlexTime struct {
	time.Time
}

// UnmarshalJSON parses the supported datetime formats. Dates without a
// timezone are interpreted in server-local time.
func (ft *FlexTime) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}

	s := strings.Trim(string(b), "\"")
	if s == "" {
		return nil
	}

	t, err := parseTimeString(s)
	if err != nil {
		return err
	}
	ft.Time = t
	return nil
}

// MarshalJSON renders the time in RFC3339, or null when unset.
func (ft *FlexTime) MarshalJSON() ([]byte, error) {
	if ft.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ft.Time.Format(time.RFC3339))
}

// ToTime returns the underlying time, or nil when unset.
func (ft *FlexTime) ToTime() *time.Time {
	if ft.Time.IsZero() {
		return nil
	}
	return &ft.Time
}

func parseTimeString(s string) (time.Time, error) {
	for _, format := range []string{time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	for _, format := range []string{"2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.ParseInLocation(format, s, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("cannot parse datetime %q, expected RFC3339 or YYYY-MM-DD", s)
}

func parseDateParam(name, value string) (*time.Time, error) {
	t, err := parseTimeString(value)
	if err != nil {
		return nil, fmt.Errorf("%s must be a valid date: %v", name, err)
	}
	return &t, nil
}

func parseRawTime(raw json.RawMessage) (*time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("dueDate must be a datetime string or null")
	}
	t, err := parseTimeString(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// rawState reports whether a raw JSON field was present in the body and, if
// so, whether it was an explicit null.
func rawState(raw json.RawMessage) (present bool, isNull bool) {
	if len(raw) == 0 {
		return false, false
	}
	return true, string(raw) == "null"
}
