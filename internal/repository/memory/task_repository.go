// Package memory provides the default, non-persistent task repository: a
// map guarded by a RWMutex, with queries and statistics delegated to the
// pure engines in internal/query and internal/stats.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"taskapi/internal/domain"
	"taskapi/internal/domain/models"
	"taskapi/internal/domain/repositories"
	"taskapi/internal/query"
	"taskapi/internal/stats"
)

type taskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

// NewTaskRepository creates an empty in-memory task repository.
func NewTaskRepository() repositories.TaskRepository {
	return &taskRepository{tasks: make(map[string]*models.Task)}
}

func (r *taskRepository) Create(ctx context.Context, data models.CreateTaskData) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Holding the write lock across check and insert keeps concurrent
	// creates with the same title from both passing the uniqueness check.
	if r.titleTaken(data.Title, "") {
		return nil, domain.ErrDuplicateTitle
	}

	task := models.NewTask(data)
	r.tasks[task.ID] = task
	return task.Clone(), nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return task.Clone(), nil
}

func (r *taskRepository) FindAll(ctx context.Context, opts models.QueryOptions) (*models.PaginatedResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return query.Apply(r.snapshot(), opts), nil
}

func (r *taskRepository) Update(ctx context.Context, id string, updates models.UpdateTaskData) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	if updates.Title != nil && r.titleTaken(*updates.Title, id) {
		return nil, domain.ErrDuplicateTitle
	}

	task.ApplyUpdates(updates)
	return task.Clone(), nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

func (r *taskRepository) ExistsByTitle(ctx context.Context, title string, excludeID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.titleTaken(title, excludeID), nil
}

func (r *taskRepository) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return stats.Compute(r.snapshot(), time.Now()), nil
}

func (r *taskRepository) MarkMultipleAsCompleted(ctx context.Context, ids []string) ([]*models.Task, error) {
	completed := true
	updated := make([]*models.Task, 0, len(ids))

	// Sequential with independent per-ID outcomes: an unknown ID is
	// skipped, not an abort.
	for _, id := range ids {
		task, err := r.Update(ctx, id, models.UpdateTaskData{Completed: &completed})
		if err != nil {
			continue
		}
		updated = append(updated, task)
	}
	return updated, nil
}

func (r *taskRepository) DeleteCompleted(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, task := range r.tasks {
		if task.Completed {
			delete(r.tasks, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *taskRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := r.tasks[id]; ok {
			delete(r.tasks, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *taskRepository) FindOverdue(ctx context.Context) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now()
	overdue := []*models.Task{}
	for _, task := range r.tasks {
		if task.IsOverdue(now) {
			overdue = append(overdue, task.Clone())
		}
	}
	return overdue, nil
}

func (r *taskRepository) FindDueToday(ctx context.Context) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now()
	due := []*models.Task{}
	for _, task := range r.tasks {
		if stats.IsDueToday(task, now) {
			due = append(due, task.Clone())
		}
	}
	return due, nil
}

func (r *taskRepository) FindByPriority(ctx context.Context, priority models.Priority) ([]*models.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*models.Task{}
	for _, task := range r.tasks {
		if task.Priority == priority {
			matched = append(matched, task.Clone())
		}
	}
	return matched, nil
}

func (r *taskRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.tasks)), nil
}

func (r *taskRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks = make(map[string]*models.Task)
	return nil
}

// snapshot returns the stored tasks as a slice. Callers must hold the lock.
func (r *taskRepository) snapshot() []*models.Task {
	tasks := make([]*models.Task, 0, len(r.tasks))
	for _, task := range r.tasks {
		tasks = append(tasks, task)
	}
	return tasks
}

// titleTaken reports whether another task uses the same normalized title.
// Callers must hold the lock.
func (r *taskRepository) titleTaken(title string, excludeID string) bool {
	normalized := strings.ToLower(strings.TrimSpace(title))
	for _, task := range r.tasks {
		if task.ID == excludeID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(task.Title)) == normalized {
			return true
		}
	}
	return false
}
