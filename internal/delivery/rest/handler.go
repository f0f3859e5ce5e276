// Package rest exposes the task API over HTTP with gin handlers.
package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskapi/internal/delivery/rest/dto"
	"taskapi/internal/delivery/rest/response"
	"taskapi/internal/domain/models"
	"taskapi/internal/service"
	"taskapi/internal/stats"
)

// Handler handles HTTP requests
type Handler struct {
	tasks *service.TaskService
	log   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(tasks *service.TaskService, log *zap.Logger) *Handler {
	return &Handler{tasks: tasks, log: log}
}

// ListTasks handles GET /api/tasks
func (h *Handler) ListTasks(c *gin.Context) {
	var query dto.ListTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}
	if err := query.Validate(); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	opts, err := query.ToQueryOptions()
	if err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	result, err := h.tasks.GetAllTasks(c.Request.Context(), opts)
	if err != nil {
		h.log.Error("failed to list tasks", zap.Error(err))
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Data, result.Meta.Total, result.Meta.Page, result.Meta.Limit)
}

// CreateTask handles POST /api/tasks
func (h *Handler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), req.ToCreateData())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, task, "Task created successfully")
}

// GetTask handles GET /api/tasks/:id
func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.tasks.GetTaskByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, task)
}

// UpdateTask handles PUT and PATCH /api/tasks/:id
func (h *Handler) UpdateTask(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	updates, err := req.ToUpdateData()
	if err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, task, "Task updated successfully")
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *Handler) DeleteTask(c *gin.Context) {
	deleted, err := h.tasks.DeleteTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !deleted {
		response.NotFound(c, "Task not found")
		return
	}
	response.SuccessWithMessage(c, nil, "Task deleted successfully")
}

// GetStatistics handles GET /api/tasks/stats
func (h *Handler) GetStatistics(c *gin.Context) {
	statistics, err := h.tasks.GetStatistics(c.Request.Context())
	if err != nil {
		h.log.Error("failed to compute statistics", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, statistics)
}

// GetDailySummary handles GET /api/tasks/daily-summary
func (h *Handler) GetDailySummary(c *gin.Context) {
	summary, err := h.tasks.GetDailySummary(c.Request.Context())
	if err != nil {
		h.log.Error("failed to build daily summary", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, summary)
}

// GetOverdueTasks handles GET /api/tasks/overdue
func (h *Handler) GetOverdueTasks(c *gin.Context) {
	h.paginatedView(c, h.tasks.GetOverdueTasks)
}

// GetTasksDueToday handles GET /api/tasks/due-today
func (h *Handler) GetTasksDueToday(c *gin.Context) {
	h.paginatedView(c, h.tasks.GetTasksDueToday)
}

// GetTasksDueThisWeek handles GET /api/tasks/due-this-week
func (h *Handler) GetTasksDueThisWeek(c *gin.Context) {
	start := stats.StartOfWeek(time.Now())
	end := stats.EndOfDay(start.AddDate(0, 0, 6))
	h.dateRangeView(c, start, end)
}

// GetTasksDueNextWeek handles GET /api/tasks/due-next-week
func (h *Handler) GetTasksDueNextWeek(c *gin.Context) {
	start := stats.StartOfWeek(time.Now()).AddDate(0, 0, 7)
	end := stats.EndOfDay(start.AddDate(0, 0, 6))
	h.dateRangeView(c, start, end)
}

// GetTasksDueThisMonth handles GET /api/tasks/due-this-month
func (h *Handler) GetTasksDueThisMonth(c *gin.Context) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	end := stats.EndOfDay(start.AddDate(0, 1, -1))
	h.dateRangeView(c, start, end)
}

// GetTasksByDateRange handles GET /api/tasks/date-range
func (h *Handler) GetTasksByDateRange(c *gin.Context) {
	var query dto.DateRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	start, end, err := query.Parse()
	if err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	h.dateRangeView(c, start, end)
}

// SearchTasks handles GET /api/tasks/search/:term
func (h *Handler) SearchTasks(c *gin.Context) {
	h.filteredList(c, func(q *dto.ListTasksQuery) {
		q.Search = c.Param("term")
	})
}

// GetTasksByPriority handles GET /api/tasks/priority/:priority
func (h *Handler) GetTasksByPriority(c *gin.Context) {
	h.filteredList(c, func(q *dto.ListTasksQuery) {
		q.Priority = c.Param("priority")
	})
}

// GetTasksByCompletion handles GET /api/tasks/completed/:status
func (h *Handler) GetTasksByCompletion(c *gin.Context) {
	h.filteredList(c, func(q *dto.ListTasksQuery) {
		q.Completed = c.Param("status")
	})
}

// BulkComplete handles POST /api/tasks/bulk/complete
func (h *Handler) BulkComplete(c *gin.Context) {
	var req dto.BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	updated, err := h.tasks.BulkComplete(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, updated, fmt.Sprintf("%d tasks marked as completed", len(updated)))
}

// BulkDelete handles POST /api/tasks/bulk/delete
func (h *Handler) BulkDelete(c *gin.Context) {
	var req dto.BulkIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	deleted, err := h.tasks.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, gin.H{"deleted": deleted}, fmt.Sprintf("%d tasks deleted", deleted))
}

// DeleteCompleted handles DELETE /api/tasks/bulk/completed
func (h *Handler) DeleteCompleted(c *gin.Context) {
	deleted, err := h.tasks.DeleteCompleted(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, gin.H{"deleted": deleted}, fmt.Sprintf("%d completed tasks deleted", deleted))
}

// MarkComplete handles PATCH /api/tasks/:id/complete
func (h *Handler) MarkComplete(c *gin.Context) {
	h.setCompletion(c, true, "Task marked as completed")
}

// MarkIncomplete handles PATCH /api/tasks/:id/incomplete
func (h *Handler) MarkIncomplete(c *gin.Context) {
	h.setCompletion(c, false, "Task marked as incomplete")
}

// UpdatePriority handles PATCH /api/tasks/:id/priority
func (h *Handler) UpdatePriority(c *gin.Context) {
	var req dto.UpdatePriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	priority := models.Priority(req.Priority)
	task, err := h.tasks.UpdateTask(c.Request.Context(), c.Param("id"), models.UpdateTaskData{Priority: &priority})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, task, "Task priority updated")
}

// UpdateDueDate handles PATCH /api/tasks/:id/due-date
func (h *Handler) UpdateDueDate(c *gin.Context) {
	var req dto.UpdateDueDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	updates, err := req.ToUpdateData()
	if err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, task, "Task due date updated")
}

// DuplicateTask handles POST /api/tasks/:id/duplicate
func (h *Handler) DuplicateTask(c *gin.Context) {
	var req dto.DuplicateTaskRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.ValidationError(c, err.Error(), nil)
			return
		}
	}

	task, err := h.tasks.DuplicateTask(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, task, "Task duplicated successfully")
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

func (h *Handler) setCompletion(c *gin.Context, completed bool, message string) {
	task, err := h.tasks.UpdateTask(c.Request.Context(), c.Param("id"), models.UpdateTaskData{Completed: &completed})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMessage(c, task, message)
}

// filteredList binds the shared list controls (sort, order, page, limit)
// from the query string, lets the caller overlay the path-derived filter,
// then serves the page. The overlay wins over any query-string duplicate.
func (h *Handler) filteredList(c *gin.Context, overlay func(q *dto.ListTasksQuery)) {
	var query dto.ListTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}
	overlay(&query)
	if err := query.Validate(); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	opts, err := query.ToQueryOptions()
	if err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	result, err := h.tasks.GetAllTasks(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Data, result.Meta.Total, result.Meta.Page, result.Meta.Limit)
}

func (h *Handler) paginatedView(c *gin.Context, view func(ctx context.Context, opts models.QueryOptions) (*models.PaginatedResult, error)) {
	var query dto.ListTasksQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}
	if err := query.Validate(); err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	opts, err := query.ToQueryOptions()
	if err != nil {
		response.ValidationError(c, err.Error(), nil)
		return
	}

	result, err := view(c.Request.Context(), opts)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Data, result.Meta.Total, result.Meta.Page, result.Meta.Limit)
}

func (h *Handler) dateRangeView(c *gin.Context, start, end time.Time) {
	tasks, err := h.tasks.GetTasksByDateRange(c.Request.Context(), start, end)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Collection(c, tasks, int64(len(tasks)))
}
