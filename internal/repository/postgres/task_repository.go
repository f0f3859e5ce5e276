// Package postgres implements the task repository on PostgreSQL with
// native SQL through pgx. The query pipeline is translated to WHERE /
// ORDER BY / LIMIT clauses that reproduce the in-process engine exactly.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskapi/internal/domain"
	"taskapi/internal/domain/models"
	"taskapi/internal/domain/repositories"
	"taskapi/internal/query"
	"taskapi/internal/stats"
)

const taskColumns = "id, title, description, completed, priority, due_date, created_at, updated_at"

// taskRepository implements repositories.TaskRepository
type taskRepository struct {
	db *pgxpool.Pool
}

// NewTaskRepository creates a new PostgreSQL task repository
func NewTaskRepository(db *pgxpool.Pool) repositories.TaskRepository {
	return &taskRepository{db: db}
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

	_, err = r.db.Exec(ctx, `
		INSERT INTO tasks (id, title, description, completed, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, task.ID, task.Title, task.Description, task.Completed, task.Priority, task.DueDate, task.CreatedAt, task.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return task, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	row := r.db.QueryRow(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) FindAll(ctx context.Context, opts models.QueryOptions) (*models.PaginatedResult, error) {
	whereClause, args := buildWhere(opts)
	argNum := len(args) + 1

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM tasks "+whereClause, args...).Scan(&total); err != nil {
		return nil, err
	}

	offset := (opts.Page - 1) * opts.Limit
	sql := fmt.Sprintf("SELECT %s FROM tasks %s ORDER BY %s LIMIT $%d OFFSET $%d",
		taskColumns, whereClause, orderClause(opts.SortBy, opts.SortOrder), argNum, argNum+1)
	args = append(args, opts.Limit, offset)

	tasks, err := r.queryTasks(ctx, sql, args...)
	if err != nil {
		return nil, err
	}

	totalPages := 0
	if opts.Limit > 0 {
		totalPages = int((total + int64(opts.Limit) - 1) / int64(opts.Limit))
	}

	return &models.PaginatedResult{
		Data: tasks,
		Meta: models.PaginationMeta{
			Total:      total,
			Page:       opts.Page,
			Limit:      opts.Limit,
			TotalPages: totalPages,
			HasNext:    opts.Page < totalPages,
			HasPrev:    opts.Page > 1,
		},
	}, nil
}

func (r *taskRepository) Update(ctx context.Context, id string, updates models.UpdateTaskData) (*models.Task, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1 FOR UPDATE", id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	if updates.Title != nil {
		var taken bool
		err = tx.QueryRow(ctx,
			"SELECT EXISTS (SELECT 1 FROM tasks WHERE LOWER(TRIM(title)) = LOWER(TRIM($1)) AND id <> $2)",
			*updates.Title, id,
		).Scan(&taken)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrDuplicateTitle
		}
	}

	task.ApplyUpdates(updates)

	_, err = tx.Exec(ctx, `
		UPDATE tasks
		SET title = $2, description = $3, completed = $4, priority = $5, due_date = $6, updated_at = $7
		WHERE id = $1
	`, task.ID, task.Title, task.Description, task.Completed, task.Priority, task.DueDate, task.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM tasks WHERE id = $1", id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *taskRepository) ExistsByTitle(ctx context.Context, title string, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM tasks WHERE LOWER(TRIM(title)) = LOWER(TRIM($1)) AND id <> $2)",
		title, excludeID,
	).Scan(&exists)
	return exists, err
}

func (r *taskRepository) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	s := &models.Statistics{}
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE completed),
		       COUNT(*) FILTER (WHERE priority = 'low'),
		       COUNT(*) FILTER (WHERE priority = 'medium'),
		       COUNT(*) FILTER (WHERE priority = 'high'),
		       COUNT(*) FILTER (WHERE NOT completed AND due_date IS NOT NULL AND due_date < NOW())
		FROM tasks
	`).Scan(&s.Total, &s.Completed, &s.ByPriority.Low, &s.ByPriority.Medium, &s.ByPriority.High, &s.Overdue)
	if err != nil {
		return nil, err
	}

	s.Pending = s.Total - s.Completed
	s.CompletionRate = stats.CompletionRate(s.Completed, s.Total)
	return s, nil
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
	tag, err := r.db.Exec(ctx, "DELETE FROM tasks WHERE completed")
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *taskRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	tag, err := r.db.Exec(ctx, "DELETE FROM tasks WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *taskRepository) FindOverdue(ctx context.Context) ([]*models.Task, error) {
	return r.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE NOT completed AND due_date IS NOT NULL AND due_date < $1",
		time.Now(),
	)
}

func (r *taskRepository) FindDueToday(ctx context.Context) ([]*models.Task, error) {
	now := time.Now()
	return r.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE due_date BETWEEN $1 AND $2",
		stats.StartOfDay(now), stats.EndOfDay(now),
	)
}

func (r *taskRepository) FindByPriority(ctx context.Context, priority models.Priority) ([]*models.Task, error) {
	return r.queryTasks(ctx, "SELECT "+taskColumns+" FROM tasks WHERE priority = $1", priority)
}

func (r *taskRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM tasks").Scan(&count)
	return count, err
}

func (r *taskRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, "DELETE FROM tasks")
	return err
}

func (r *taskRepository) queryTasks(ctx context.Context, sql string, args ...interface{}) ([]*models.Task, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// buildWhere translates the filter block into a WHERE clause with numbered
// placeholders.
func buildWhere(opts models.QueryOptions) (string, []interface{}) {
	clauses := []string{}
	args := []interface{}{}
	argNum := 1

	if opts.Completed != nil {
		clauses = append(clauses, fmt.Sprintf("completed = $%d", argNum))
		args = append(args, *opts.Completed)
		argNum++
	}

	if opts.Priority != nil {
		clauses = append(clauses, fmt.Sprintf("priority = $%d", argNum))
		args = append(args, *opts.Priority)
		argNum++
	}

	if opts.Search != "" {
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", argNum, argNum))
		args = append(args, likePattern(opts.Search))
		argNum++
	}

	if opts.DueDateFrom != nil {
		clauses = append(clauses, fmt.Sprintf("due_date >= $%d", argNum))
		args = append(args, *opts.DueDateFrom)
		argNum++
	}

	if opts.DueDateTo != nil {
		clauses = append(clauses, fmt.Sprintf("due_date <= $%d", argNum))
		args = append(args, query.EndOfDay(*opts.DueDateTo))
		argNum++
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// orderClause maps a sort field to its SQL ordering. Postgres defaults
// (ASC NULLS LAST, DESC NULLS FIRST) already put absent due dates at the
// late end, but they are spelled out to keep the contract visible.
func orderClause(sortBy models.SortField, order models.SortOrder) string {
	dir := "DESC"
	if order == models.SortAsc {
		dir = "ASC"
	}

	switch sortBy {
	case models.SortByTitle:
		return "LOWER(title) " + dir
	case models.SortByPriority:
		return "priority " + dir
	case models.SortByDueDate:
		if dir == "ASC" {
			return "due_date ASC NULLS LAST"
		}
		return "due_date DESC NULLS FIRST"
	case models.SortByUpdatedAt:
		return "updated_at " + dir
	default:
		return "created_at " + dir
	}
}

// likePattern wraps the term for a substring match, escaping the LIKE
// metacharacters.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	err := row.Scan(
		&task.ID, &task.Title, &task.Description, &task.Completed,
		&task.Priority, &task.DueDate, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
