package repositories

import (
	"context"

	"taskapi/internal/domain/models"
)

// TaskRepository defines the storage contract every backend must satisfy
// with identical observable results. Returned tasks are always independent
// copies of stored state; a malformed ID behaves like an unknown one.
type TaskRepository interface {
	// Create stores a new task built from already-normalized data. It fails
	// with domain.ErrDuplicateTitle if another task holds the same
	// normalized title.
	Create(ctx context.Context, data models.CreateTaskData) (*models.Task, error)

	// FindByID returns the task or domain.ErrNotFound.
	FindByID(ctx context.Context, id string) (*models.Task, error)

	// FindAll applies the query pipeline: filter, sort, paginate.
	FindAll(ctx context.Context, opts models.QueryOptions) (*models.PaginatedResult, error)

	// Update merges the supplied fields into an existing task, refreshing
	// UpdatedAt. Unknown ID yields domain.ErrNotFound.
	Update(ctx context.Context, id string, updates models.UpdateTaskData) (*models.Task, error)

	// Delete removes a task, reporting whether a record was actually removed.
	Delete(ctx context.Context, id string) (bool, error)

	// ExistsByTitle performs a case-insensitive, trim-normalized title
	// lookup, skipping excludeID when non-empty.
	ExistsByTitle(ctx context.Context, title string, excludeID string) (bool, error)

	GetStatistics(ctx context.Context) (*models.Statistics, error)

	// MarkMultipleAsCompleted processes IDs sequentially; unknown IDs are
	// skipped and the successfully updated tasks are returned.
	MarkMultipleAsCompleted(ctx context.Context, ids []string) ([]*models.Task, error)

	// DeleteCompleted removes every completed task and returns the count.
	DeleteCompleted(ctx context.Context) (int64, error)

	// BulkDelete removes the listed tasks, skipping unknown IDs, and
	// returns the number actually deleted.
	BulkDelete(ctx context.Context, ids []string) (int64, error)

	FindOverdue(ctx context.Context) ([]*models.Task, error)
	FindDueToday(ctx context.Context) ([]*models.Task, error)
	FindByPriority(ctx context.Context, priority models.Priority) ([]*models.Task, error)

	Count(ctx context.Context) (int64, error)
	Clear(ctx context.Context) error
}
