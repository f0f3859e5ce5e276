// Package sqlite implements the task repository on SQLite through GORM.
// The query pipeline is translated to GORM clauses; null due dates are
// ordered with an explicit (due_date IS NULL) sort key because SQLite has
// no NULLS LAST modifier on older versions.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"taskapi/internal/domain"
	"taskapi/internal/domain/models"
	"taskapi/internal/domain/repositories"
	"taskapi/internal/query"
	"taskapi/internal/stats"
)

// NewDB opens the SQLite database at path and migrates the schema.
func NewDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&taskRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}

// taskRepository implements repositories.TaskRepository
type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new SQLite task repository
func NewTaskRepository(db *gorm.DB) repositories.TaskRepository {
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
	if err := r.db.WithContext(ctx).Create(fromDomain(task)).Error; err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

func (r *taskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	var rec taskRecord
	if err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return rec.toDomain(), nil
}

func (r *taskRepository) FindAll(ctx context.Context, opts models.QueryOptions) (*models.PaginatedResult, error) {
	var total int64
	if err := applyFilters(r.db.WithContext(ctx).Model(&taskRecord{}), opts).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}

	var records []*taskRecord
	err := applyFilters(r.db.WithContext(ctx).Model(&taskRecord{}), opts).
		Order(orderClause(opts.SortBy, opts.SortOrder)).
		Limit(opts.Limit).
		Offset((opts.Page - 1) * opts.Limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	totalPages := 0
	if opts.Limit > 0 {
		totalPages = int((total + int64(opts.Limit) - 1) / int64(opts.Limit))
	}

	return &models.PaginatedResult{
		Data: toDomainSlice(records),
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
	var updated *models.Task

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec taskRecord
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return err
		}

		if updates.Title != nil {
			var count int64
			err := tx.Model(&taskRecord{}).
				Where("LOWER(TRIM(title)) = LOWER(TRIM(?)) AND id <> ?", *updates.Title, id).
				Count(&count).Error
			if err != nil {
				return err
			}
			if count > 0 {
				return domain.ErrDuplicateTitle
			}
		}

		task := rec.toDomain()
		task.ApplyUpdates(updates)
		if err := tx.Save(fromDomain(task)).Error; err != nil {
			return err
		}

		updated = task
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&taskRecord{}, "id = ?", id)
	if result.Error != nil {
		return false, fmt.Errorf("failed to delete task: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

func (r *taskRepository) ExistsByTitle(ctx context.Context, title string, excludeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&taskRecord{}).
		Where("LOWER(TRIM(title)) = LOWER(TRIM(?)) AND id <> ?", title, excludeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check title: %w", err)
	}
	return count > 0, nil
}

func (r *taskRepository) GetStatistics(ctx context.Context) (*models.Statistics, error) {
	s := &models.Statistics{}
	row := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN completed THEN 1 END),
		       COUNT(CASE WHEN priority = 'low' THEN 1 END),
		       COUNT(CASE WHEN priority = 'medium' THEN 1 END),
		       COUNT(CASE WHEN priority = 'high' THEN 1 END),
		       COUNT(CASE WHEN NOT completed AND due_date IS NOT NULL AND due_date < ? THEN 1 END)
		FROM tasks
	`, time.Now()).Row()
	if err := row.Scan(&s.Total, &s.Completed, &s.ByPriority.Low, &s.ByPriority.Medium, &s.ByPriority.High, &s.Overdue); err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
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
	result := r.db.WithContext(ctx).Where("completed = ?", true).Delete(&taskRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete completed tasks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *taskRepository) BulkDelete(ctx context.Context, ids []string) (int64, error) {
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&taskRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete tasks: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *taskRepository) FindOverdue(ctx context.Context) ([]*models.Task, error) {
	var records []*taskRecord
	err := r.db.WithContext(ctx).
		Where("completed = ? AND due_date IS NOT NULL AND due_date < ?", false, time.Now()).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue tasks: %w", err)
	}
	return toDomainSlice(records), nil
}

func (r *taskRepository) FindDueToday(ctx context.Context) ([]*models.Task, error) {
	now := time.Now()
	var records []*taskRecord
	err := r.db.WithContext(ctx).
		Where("due_date BETWEEN ? AND ?", stats.StartOfDay(now), stats.EndOfDay(now)).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks due today: %w", err)
	}
	return toDomainSlice(records), nil
}

func (r *taskRepository) FindByPriority(ctx context.Context, priority models.Priority) ([]*models.Task, error) {
	var records []*taskRecord
	err := r.db.WithContext(ctx).Where("priority = ?", priority).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks by priority: %w", err)
	}
	return toDomainSlice(records), nil
}

func (r *taskRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&taskRecord{}).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks: %w", err)
	}
	return count, nil
}

func (r *taskRepository) Clear(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Exec("DELETE FROM tasks").Error; err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}
	return nil
}

// applyFilters translates the filter block into GORM conditions.
func applyFilters(db *gorm.DB, opts models.QueryOptions) *gorm.DB {
	if opts.Completed != nil {
		db = db.Where("completed = ?", *opts.Completed)
	}
	if opts.Priority != nil {
		db = db.Where("priority = ?", string(*opts.Priority))
	}
	if opts.Search != "" {
		pattern := likePattern(opts.Search)
		db = db.Where("LOWER(title) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\'", pattern, pattern)
	}
	if opts.DueDateFrom != nil {
		db = db.Where("due_date >= ?", *opts.DueDateFrom)
	}
	if opts.DueDateTo != nil {
		db = db.Where("due_date <= ?", query.EndOfDay(*opts.DueDateTo))
	}
	return db
}

// orderClause maps a sort field to its SQL ordering, keeping null due
// dates at the late end for asc and the front for desc. NOCASE folds
// ASCII only, so non-ASCII titles can order differently here than on
// the other backends.
func orderClause(sortBy models.SortField, order models.SortOrder) string {
	dir := "DESC"
	if order == models.SortAsc {
		dir = "ASC"
	}

	switch sortBy {
	case models.SortByTitle:
		return "title COLLATE NOCASE " + dir
	case models.SortByPriority:
		return "priority " + dir
	case models.SortByDueDate:
		if dir == "ASC" {
			return "(due_date IS NULL) ASC, due_date ASC"
		}
		return "(due_date IS NULL) DESC, due_date DESC"
	case models.SortByUpdatedAt:
		return "updated_at " + dir
	default:
		return "created_at " + dir
	}
}

// likePattern lowers and wraps the term for a substring match, escaping
// the LIKE metacharacters. SQLite's LOWER folds ASCII only, so non-ASCII
// terms match case-sensitively on this backend.
func likePattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(strings.ToLower(term))
	return "%" + escaped + "%"
}

func toDomainSlice(records []*taskRecord) []*models.Task {
	tasks := make([]*models.Task, 0, len(records))
	for _, rec := range records {
		tasks = append(tasks, rec.toDomain())
	}
	return tasks
}
