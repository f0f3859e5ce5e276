// Package service implements the business layer over the task repository:
// input normalization, cross-cutting business rules, bulk operations with
// their caps, and the composed analytics views.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskapi/internal/domain"
	"taskapi/internal/domain/models"
	"taskapi/internal/domain/repositories"
	"taskapi/internal/query"
	"taskapi/internal/stats"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100

	bulkCompleteLimit = 100
	bulkDeleteLimit   = 100
	bulkPriorityLimit = 50

	// Cap on the collection scan used by the summary's productivity counts.
	summaryScanLimit = 1000
)

// TaskService applies business rules on top of a TaskRepository.
type TaskService struct {
	repo repositories.TaskRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewTaskService creates a task service backed by repo.
func NewTaskService(repo repositories.TaskRepository, log *zap.Logger) *TaskService {
	return &TaskService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// GetAllTasks lists tasks after applying query defaults: page 1, limit 10
// (capped at 100), createdAt descending.
func (s *TaskService) GetAllTasks(ctx context.Context, opts models.QueryOptions) (*models.PaginatedResult, error) {
	applyQueryDefaults(&opts)
	return s.repo.FindAll(ctx, opts)
}

// GetTaskByID returns a task or domain.ErrNotFound.
func (s *TaskService) GetTaskByID(ctx context.Context, id string) (*models.Task, error) {
	return s.repo.FindByID(ctx, id)
}

// CreateTask normalizes the input, enforces the business rules and stores a
// new task.
func (s *TaskService) CreateTask(ctx context.Context, data models.CreateTaskData) (*models.Task, error) {
	exists, err := s.repo.ExistsByTitle(ctx, data.Title, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateTitle
	}

	processed, err := normalizeCreate(data)
	if err != nil {
		return nil, err
	}

	if err := s.validateBusinessRules(processed.Title, processed.Priority, processed.DueDate, true); err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, processed)
}

// UpdateTask applies a partial update after re-checking title uniqueness
// and the business rules against the merged state.
func (s *TaskService) UpdateTask(ctx context.Context, id string, updates models.UpdateTaskData) (*models.Task, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if updates.Title != nil && *updates.Title != existing.Title {
		exists, err := s.repo.ExistsByTitle(ctx, *updates.Title, id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, domain.ErrDuplicateTitle
		}
	}

	processed, err := normalizeUpdate(updates)
	if err != nil {
		return nil, err
	}

	merged := existing.Clone()
	merged.ApplyUpdates(processed)
	// The due-date-in-past rule only applies to new tasks.
	if err := s.validateBusinessRules(merged.Title, merged.Priority, merged.DueDate, false); err != nil {
		return nil, err
	}

	return s.repo.Update(ctx, id, processed)
}

// DeleteTask removes a task, reporting whether one was actually removed.
func (s *TaskService) DeleteTask(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}

// GetStatistics returns the aggregate statistics.
func (s *TaskService) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	return s.repo.GetStatistics(ctx)
}

// BulkComplete marks up to 100 tasks as completed, skipping unknown IDs.
func (s *TaskService) BulkComplete(ctx context.Context, ids []string) ([]*models.Task, error) {
	if err := checkBulkIDs(ids, bulkCompleteLimit); err != nil {
		return nil, err
	}
	return s.repo.MarkMultipleAsCompleted(ctx, ids)
}

// DeleteCompleted removes every completed task.
func (s *TaskService) DeleteCompleted(ctx context.Context) (int64, error) {
	return s.repo.DeleteCompleted(ctx)
}

// BulkDelete removes up to 100 tasks by ID, skipping unknown IDs.
func (s *TaskService) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	if err := checkBulkIDs(ids, bulkDeleteLimit); err != nil {
		return 0, err
	}
	return s.repo.BulkDelete(ctx, ids)
}

// GetOverdueTasks returns incomplete tasks past their due date, paginated.
func (s *TaskService) GetOverdueTasks(ctx context.Context, opts models.QueryOptions) (*models.PaginatedResult, error) {
	overdue, err := s.repo.FindOverdue(ctx)
	if err != nil {
		return nil, err
	}

	applyQueryDefaults(&opts)
	query.Sort(overdue, opts.SortBy, opts.SortOrder)
	return query.Paginate(overdue, opts.Page, opts.Limit), nil
}

// GetTasksDueToday returns tasks due within the current calendar day,
// paginated.
func (s *TaskService) GetTasksDueToday(ctx context.Context, opts models.QueryOptions) (*models.PaginatedResult, error) {
	due, err := s.repo.FindDueToday(ctx)
	if err != nil {
		return nil, err
	}

	applyQueryDefaults(&opts)
	query.Sort(due, opts.SortBy, opts.SortOrder)
	return query.Paginate(due, opts.Page, opts.Limit), nil
}

// DuplicateTask copies an existing task under a new title, defaulting to
// "<title> (Copy)". The copy starts incomplete.
func (s *TaskService) DuplicateTask(ctx context.Context, id string, newTitle string) (*models.Task, error) {
	original, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	title := newTitle
	if title == "" {
		title = original.Title + " (Copy)"
	}

	exists, err := s.repo.ExistsByTitle(ctx, title, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateTitle
	}

	return s.CreateTask(ctx, models.CreateTaskData{
		Title:       title,
		Description: original.Description,
		Completed:   false,
		Priority:    original.Priority,
		DueDate:     original.DueDate,
	})
}

// GetDailySummary composes statistics, the due-today/overdue/high-priority
// views and the recommendation cascade into the daily summary.
func (s *TaskService) GetDailySummary(ctx context.Context) (*models.DailySummary, error) {
	statistics, err := s.repo.GetStatistics(ctx)
	if err != nil {
		return nil, err
	}

	dueToday, err := s.repo.FindDueToday(ctx)
	if err != nil {
		return nil, err
	}

	overdue, err := s.repo.FindOverdue(ctx)
	if err != nil {
		return nil, err
	}

	highPriority, err := s.repo.FindByPriority(ctx, models.PriorityHigh)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.FindAll(ctx, models.QueryOptions{Page: 1, Limit: summaryScanLimit})
	if err != nil {
		return nil, err
	}

	return stats.BuildDailySummary(stats.SummaryInput{
		Stats:        statistics,
		DueToday:     dueToday,
		Overdue:      overdue,
		HighPriority: highPriority,
		AllTasks:     all.Data,
		Now:          s.now(),
	}), nil
}

// FindByExactTitle returns the task whose title matches case-insensitively,
// or domain.ErrNotFound.
func (s *TaskService) FindByExactTitle(ctx context.Context, title string) (*models.Task, error) {
	result, err := s.GetAllTasks(ctx, models.QueryOptions{Search: title, Limit: maxLimit})
	if err != nil {
		return nil, err
	}

	for _, task := range result.Data {
		if strings.EqualFold(task.Title, title) {
			return task, nil
		}
	}
	return nil, domain.ErrNotFound
}

// GetTasksDueSoon returns incomplete tasks due within the next days days
// (default 3), soonest first.
func (s *TaskService) GetTasksDueSoon(ctx context.Context, days int) ([]*models.Task, error) {
	if days <= 0 {
		days = 3
	}

	now := s.now()
	future := now.AddDate(0, 0, days)
	completed := false

	result, err := s.GetAllTasks(ctx, models.QueryOptions{
		Completed:   &completed,
		DueDateFrom: &now,
		DueDateTo:   &future,
		SortBy:      models.SortByDueDate,
		SortOrder:   models.SortAsc,
		Limit:       maxLimit,
	})
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// GetTasksByDateRange returns tasks whose due date falls in [start, end],
// soonest first.
func (s *TaskService) GetTasksByDateRange(ctx context.Context, start, end time.Time) ([]*models.Task, error) {
	result, err := s.GetAllTasks(ctx, models.QueryOptions{
		DueDateFrom: &start,
		DueDateTo:   &end,
		SortBy:      models.SortByDueDate,
		SortOrder:   models.SortAsc,
		Limit:       maxLimit,
	})
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// ArchiveTask marks a task as completed.
func (s *TaskService) ArchiveTask(ctx context.Context, id string) (*models.Task, error) {
	completed := true
	return s.UpdateTask(ctx, id, models.UpdateTaskData{Completed: &completed})
}

// BulkUpdatePriority sets the priority on up to 50 tasks, skipping unknown
// IDs and returning the updated ones.
func (s *TaskService) BulkUpdatePriority(ctx context.Context, ids []string, priority models.Priority) ([]*models.Task, error) {
	if err := checkBulkIDs(ids, bulkPriorityLimit); err != nil {
		return nil, err
	}
	if !priority.Valid() {
		return nil, fmt.Errorf("%w: priority must be one of: low, medium, high", domain.ErrValidation)
	}

	updated := make([]*models.Task, 0, len(ids))
	for _, id := range ids {
		task, err := s.UpdateTask(ctx, id, models.UpdateTaskData{Priority: &priority})
		if err != nil {
			continue
		}
		updated = append(updated, task)
	}
	return updated, nil
}

// GetAdvancedMetrics aggregates productivity, workload and trend figures.
func (s *TaskService) GetAdvancedMetrics(ctx context.Context) (*models.AdvancedMetrics, error) {
	statistics, err := s.repo.GetStatistics(ctx)
	if err != nil {
		return nil, err
	}

	dueToday, err := s.repo.FindDueToday(ctx)
	if err != nil {
		return nil, err
	}

	overdue, err := s.repo.FindOverdue(ctx)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.FindAll(ctx, models.QueryOptions{Page: 1, Limit: summaryScanLimit})
	if err != nil {
		return nil, err
	}

	startOfToday := stats.StartOfDay(s.now())
	startOfWeek := stats.StartOfWeek(s.now())
	completedToday := 0
	completedThisWeek := 0
	for _, task := range all.Data {
		if !task.Completed {
			continue
		}
		if !task.UpdatedAt.Before(startOfToday) {
			completedToday++
		}
		if !task.UpdatedAt.Before(startOfWeek) {
			completedThisWeek++
		}
	}

	m := &models.AdvancedMetrics{}
	m.Productivity = models.AdvancedMetricsProductivity{
		TasksCompletedToday:    completedToday,
		TasksCompletedThisWeek: completedThisWeek,
	}
	m.Workload = models.AdvancedMetricsWorkload{
		TotalPending:        statistics.Pending,
		HighPriorityPending: statistics.ByPriority.High,
		OverdueCount:        int64(len(overdue)),
		DueTodayCount:       int64(len(dueToday)),
	}
	m.Trends = models.AdvancedMetricsTrends{
		CompletionRate:       statistics.CompletionRate,
		PriorityDistribution: statistics.ByPriority,
	}
	return m, nil
}

// validateBusinessRules enforces the cross-cutting create/update rules.
// A high-priority task without a due date is allowed but logged as a
// warning; a new task due before today is rejected.
func (s *TaskService) validateBusinessRules(title string, priority models.Priority, dueDate *time.Time, isNew bool) error {
	if priority == models.PriorityHigh && dueDate == nil {
		s.log.Warn("high priority task without due date", zap.String("title", title))
	}

	if isNew && dueDate != nil {
		startOfToday := stats.StartOfDay(s.now())
		if dueDate.Before(startOfToday) {
			return fmt.Errorf("%w: due date cannot be in the past", domain.ErrValidation)
		}
	}

	if len([]rune(title)) > maxTitleLength {
		return fmt.Errorf("%w: title cannot exceed %d characters", domain.ErrValidation, maxTitleLength)
	}

	return nil
}

func applyQueryDefaults(opts *models.QueryOptions) {
	if opts.Page <= 0 {
		opts.Page = defaultPage
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultLimit
	}
	if opts.Limit > maxLimit {
		opts.Limit = maxLimit
	}
	if opts.SortBy == "" {
		opts.SortBy = models.SortByCreatedAt
	}
	if opts.SortOrder == "" {
		opts.SortOrder = models.SortDesc
	}
}

func checkBulkIDs(ids []string, limit int) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: ids array is required and cannot be empty", domain.ErrValidation)
	}
	if len(ids) > limit {
		return fmt.Errorf("%w: cannot process more than %d tasks at once", domain.ErrBulkLimitExceeded, limit)
	}
	return nil
}
