// Package redisdoc implements the task repository as one JSON document per
// task in Redis, keyed "<prefix>:<id>". Redis has no query language, so
// list operations load the documents with SCAN + MGET and run the same
// in-process engines the memory backend uses.
package redisdoc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"taskapi/internal/domain"
	"taskapi/internal/domain/models"
	"taskapi/internal/domain/repositories"
	"taskapi/internal/query"
	"taskapi/internal/stats"
)

const scanBatch = 200

// NewClient creates a Redis client and verifies the connection.
func NewClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("unable to connect to redis: %w", err)
	}
	return client, nil
}

// taskRepository implements repositories.TaskRepository
type taskRepository struct {
	client *redis.Client
	prefix string
}

// NewTaskRepository creates a Redis-backed task repository using prefix
// as the key namespace.
func NewTaskRepository(client *redis.Client, prefix string) repositories.TaskRepository {
	return &taskRepository{client: client, prefix: prefix}
}

func (r *taskRepository) key(id string) string {
	return r.prefix + ":" + id
}

func (r *taskRepository) Create(ctx context.Context, data models.CreateTaskData) (*models.Task, error) {
	exists, err := r.ExistsByTitle(ctx, data.Title, "")
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateTitle
	}

	task := models.NewTask(data)
	if err := r.store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var task models.Task
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("failed to decode task document: %w", err)
	}
	return &task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, opts models.QueryOptions) (*models.PaginatedResult, error) {
	tasks, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return query.Apply(tasks, opts), nil
}

func (r *taskRepository) Update(ctx context.Context, id string, updates models.UpdateTaskData) (*models.Task, error) {
	task, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if updates.Title != nil {
		taken, err := r.ExistsByTitle(ctx, *updates.Title, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrDuplicateTitle
		}
	}

	task.ApplyUpdates(updates)
	if err := r.store(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (bool, error) {
	deleted, err := r.client.Del(ctx, r.key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("redis del error: %w", err)
	}
	return deleted > 0, nil
}

func (r *taskRepository) ExistsByTitle(ctx context.Context, title string, excludeID string) (bool, error) {
	tasks, err := r.loadAll(ctx)
	if err != nil {
		return false, err
	}

	normalized := strings.ToLower(strings.TrimSpace(title))
	for _, task := range tasks {
		if task.ID == excludeID {
			continue
		}
		if strings.ToLower(strings.TrimSpace(task.Title)) == normalized {
			return true, nil
		}
	}
	return false, nil
}

func (r *taskRepository) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	tasks, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Compute(tasks, time.Now()), nil
}

func (r *taskRepository) MarkMultipleAsCompleted(ctx context.Context, ids []string) ([]*models.Task, error) {
	completed := true
	updated := make([]*models.Task, 0, len(ids))

	for _, id := range ids {
		task, err := r.Update(ctx, id, models.UpdateTaskData{Completed: &completed})
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		updated = append(updated, task)
	}
	return updated, nil
}

func (r *taskRepository) DeleteCompleted(ctx context.Context) (int64, error) {
	tasks, err := r.loadAll(ctx)
	if err != nil {
		return 0, err
	}

	keys := []string{}
	for _, task := range tasks {
		if task.Completed {
			keys = append(keys, r.key(task.ID))
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del error: %w", err)
	}
	return deleted, nil
}

func (r *taskRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.key(id))
	}

	deleted, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return 0, fmt.Errorf("redis del error: %w", err)
	}
	return deleted, nil
}

func (r *taskRepository) FindOverdue(ctx context.Context) ([]*models.Task, error) {
	tasks, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	overdue := []*models.Task{}
	for _, task := range tasks {
		if task.IsOverdue(now) {
			overdue = append(overdue, task)
		}
	}
	return overdue, nil
}

func (r *taskRepository) FindDueToday(ctx context.Context) ([]*models.Task, error) {
	tasks, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	due := []*models.Task{}
	for _, task := range tasks {
		if stats.IsDueToday(task, now) {
			due = append(due, task)
		}
	}
	return due, nil
}

func (r *taskRepository) FindByPriority(ctx context.Context, priority models.Priority) ([]*models.Task, error) {
	tasks, err := r.loadAll(ctx)
	if err != nil {
		return nil, err
	}

	matched := []*models.Task{}
	for _, task := range tasks {
		if task.Priority == priority {
			matched = append(matched, task)
		}
	}
	return matched, nil
}

func (r *taskRepository) Count(ctx context.Context) (int64, error) {
	keys, err := r.scanKeys(ctx)
	if err != nil {
		return 0, err
	}
	return int64(len(keys)), nil
}

func (r *taskRepository) Clear(ctx context.Context) error {
	keys, err := r.scanKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del error: %w", err)
	}
	return nil
}

func (r *taskRepository) store(ctx context.Context, task *models.Task) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task document: %w", err)
	}
	if err := r.client.Set(ctx, r.key(task.ID), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// scanKeys walks the keyspace with SCAN so large collections never block
// the server the way KEYS would.
func (r *taskRepository) scanKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var cursor uint64

	for {
		batch, next, err := r.client.Scan(ctx, cursor, r.prefix+":*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan error: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return keys, nil
}

func (r *taskRepository) loadAll(ctx context.Context) ([]*models.Task, error) {
	keys, err := r.scanKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return []*models.Task{}, nil
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget error: %w", err)
	}

	tasks := make([]*models.Task, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			// Key expired or was deleted between SCAN and MGET.
			continue
		}

		var task models.Task
		if err := json.Unmarshal([]byte(raw), &task); err != nil {
			return nil, fmt.Errorf("failed to decode task document: %w", err)
		}
		tasks = append(tasks, &task)
	}
	return tasks, nil
}
