package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"taskapi/internal/domain"
	"taskapi/internal/domain/models"
	"taskapi/internal/repository/memory"
)

func newTestService() *TaskService {
	return NewTaskService(memory.NewTaskRepository(), zap.NewNop())
}

func strPtr(s string) *string { return &s }

func TestCreateTaskNormalizesInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	task, err := svc.CreateTask(ctx, models.CreateTaskData{
		Title:       "  buy   some    milk  ",
		Description: strPtr("   from  the   corner   shop "),
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if task.Title != "Buy some milk" {
		t.Errorf("Title = %q, expected %q", task.Title, "Buy some milk")
	}
	if task.Description == nil || *task.Description != "from the corner shop" {
		t.Errorf("Description = %v, expected collapsed text", task.Description)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("Priority = %q, expected default medium", task.Priority)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	yesterday := time.Now().AddDate(0, 0, -1)

	tests := []struct {
		name string
		data models.CreateTaskData
	}{
		{"empty title", models.CreateTaskData{Title: "   "}},
		{"title too long", models.CreateTaskData{Title: strings.Repeat("a", 201)}},
		{"invalid priority", models.CreateTaskData{Title: "Valid", Priority: "urgent"}},
		{"due date in the past", models.CreateTaskData{Title: "Valid", DueDate: &yesterday}},
		{"description too long", models.CreateTaskData{Title: "Valid", Description: strPtr(strings.Repeat("d", 1001))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTask(ctx, tt.data)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("CreateTask() error = %v, expected ErrValidation", err)
			}
		})
	}
}

func TestCreateTaskAllowsDueDateToday(t *testing.T) {
	svc := newTestService()

	// Any instant from local midnight on is acceptable.
	laterToday := time.Now().Add(time.Minute)
	if _, err := svc.CreateTask(context.Background(), models.CreateTaskData{Title: "Today is fine", DueDate: &laterToday}); err != nil {
		t.Errorf("CreateTask() error = %v", err)
	}
}

func TestCreateTaskDuplicateTitle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Buy milk"}); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	_, err := svc.CreateTask(ctx, models.CreateTaskData{Title: " BUY MILK  "})
	if !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Errorf("CreateTask() error = %v, expected ErrDuplicateTitle", err)
	}
}

func TestUpdateTask(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateTask(ctx, models.CreateTaskData{
		Title:       "Write report",
		Description: strPtr("Initial notes"),
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	// A supplied-but-empty description clears the stored one.
	updated, err := svc.UpdateTask(ctx, created.ID, models.UpdateTaskData{
		Title:       strPtr("  write   final   report "),
		Description: strPtr("   "),
	})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Title != "Write final report" {
		t.Errorf("Title = %q", updated.Title)
	}
	if updated.Description != nil {
		t.Errorf("Description = %v, expected cleared", updated.Description)
	}

	// The past-due-date rule only applies to creation.
	pastDue := time.Now().AddDate(0, 0, -2)
	if _, err := svc.UpdateTask(ctx, created.ID, models.UpdateTaskData{DueDate: &pastDue}); err != nil {
		t.Errorf("UpdateTask() with past due date error = %v, expected nil", err)
	}

	_, err = svc.UpdateTask(ctx, "missing", models.UpdateTaskData{Title: strPtr("X")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("UpdateTask() on unknown ID error = %v, expected ErrNotFound", err)
	}
}

func TestUpdateTaskDuplicateTitle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "First task"}); err != nil {
		t.Fatal(err)
	}
	second, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Second task"})
	if err != nil {
		t.Fatal(err)
	}

	_, err = svc.UpdateTask(ctx, second.ID, models.UpdateTaskData{Title: strPtr("first task")})
	if !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Errorf("UpdateTask() error = %v, expected ErrDuplicateTitle", err)
	}
}

func TestGetAllTasksAppliesDefaults(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: fmt.Sprintf("Task %02d", i)}); err != nil {
			t.Fatal(err)
		}
	}

	result, err := svc.GetAllTasks(ctx, models.QueryOptions{})
	if err != nil {
		t.Fatalf("GetAllTasks() error = %v", err)
	}
	if result.Meta.Page != 1 || result.Meta.Limit != 10 {
		t.Errorf("defaults = page %d limit %d, expected 1/10", result.Meta.Page, result.Meta.Limit)
	}
	if len(result.Data) != 10 || !result.Meta.HasNext {
		t.Errorf("first page = %d rows, HasNext=%v", len(result.Data), result.Meta.HasNext)
	}

	result, err = svc.GetAllTasks(ctx, models.QueryOptions{Limit: 500})
	if err != nil {
		t.Fatalf("GetAllTasks() error = %v", err)
	}
	if result.Meta.Limit != 100 {
		t.Errorf("limit = %d, expected cap at 100", result.Meta.Limit)
	}
}

func TestBulkCaps(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	manyIDs := make([]string, 101)
	for i := range manyIDs {
		manyIDs[i] = fmt.Sprintf("id-%d", i)
	}

	if _, err := svc.BulkComplete(ctx, nil); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("BulkComplete(nil) error = %v, expected ErrValidation", err)
	}
	if _, err := svc.BulkComplete(ctx, manyIDs); !errors.Is(err, domain.ErrBulkLimitExceeded) {
		t.Errorf("BulkComplete(101) error = %v, expected ErrBulkLimitExceeded", err)
	}
	if _, err := svc.BulkDelete(ctx, manyIDs); !errors.Is(err, domain.ErrBulkLimitExceeded) {
		t.Errorf("BulkDelete(101) error = %v, expected ErrBulkLimitExceeded", err)
	}
	if _, err := svc.BulkUpdatePriority(ctx, manyIDs[:51], models.PriorityHigh); !errors.Is(err, domain.ErrBulkLimitExceeded) {
		t.Errorf("BulkUpdatePriority(51) error = %v, expected ErrBulkLimitExceeded", err)
	}
}

func TestBulkCompletePartialOutcome(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a, _ := svc.CreateTask(ctx, models.CreateTaskData{Title: "First"})
	b, _ := svc.CreateTask(ctx, models.CreateTaskData{Title: "Second"})

	updated, err := svc.BulkComplete(ctx, []string{a.ID, "unknown", b.ID})
	if err != nil {
		t.Fatalf("BulkComplete() error = %v", err)
	}
	if len(updated) != 2 {
		t.Errorf("updated %d tasks, expected 2", len(updated))
	}
}

func TestDuplicateTask(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	original, err := svc.CreateTask(ctx, models.CreateTaskData{
		Title:       "Plan trip",
		Description: strPtr("Pack light"),
		Priority:    models.PriorityHigh,
		Completed:   true,
	})
	if err != nil {
		t.Fatal(err)
	}

	copy1, err := svc.DuplicateTask(ctx, original.ID, "")
	if err != nil {
		t.Fatalf("DuplicateTask() error = %v", err)
	}
	if copy1.Title != "Plan trip (Copy)" {
		t.Errorf("Title = %q, expected default copy suffix", copy1.Title)
	}
	if copy1.Completed {
		t.Errorf("a duplicate always starts incomplete")
	}
	if copy1.Priority != models.PriorityHigh || copy1.Description == nil {
		t.Errorf("duplicate should keep priority and description: %+v", copy1)
	}

	// Duplicating again with the same default title collides.
	_, err = svc.DuplicateTask(ctx, original.ID, "")
	if !errors.Is(err, domain.ErrDuplicateTitle) {
		t.Errorf("second DuplicateTask() error = %v, expected ErrDuplicateTitle", err)
	}

	named, err := svc.DuplicateTask(ctx, original.ID, "Plan trip again")
	if err != nil {
		t.Fatalf("DuplicateTask() with explicit title error = %v", err)
	}
	if named.Title != "Plan trip again" {
		t.Errorf("Title = %q", named.Title)
	}
}

func TestArchiveTask(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, _ := svc.CreateTask(ctx, models.CreateTaskData{Title: "Old chore"})

	archived, err := svc.ArchiveTask(ctx, created.ID)
	if err != nil {
		t.Fatalf("ArchiveTask() error = %v", err)
	}
	if !archived.Completed {
		t.Errorf("ArchiveTask() left the task incomplete")
	}
}

func TestBulkUpdatePriority(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a, _ := svc.CreateTask(ctx, models.CreateTaskData{Title: "First"})
	b, _ := svc.CreateTask(ctx, models.CreateTaskData{Title: "Second"})

	if _, err := svc.BulkUpdatePriority(ctx, []string{a.ID}, "urgent"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("BulkUpdatePriority(invalid) error = %v, expected ErrValidation", err)
	}

	updated, err := svc.BulkUpdatePriority(ctx, []string{a.ID, "unknown", b.ID}, models.PriorityHigh)
	if err != nil {
		t.Fatalf("BulkUpdatePriority() error = %v", err)
	}
	if len(updated) != 2 {
		t.Fatalf("updated %d tasks, expected 2", len(updated))
	}
	for _, task := range updated {
		if task.Priority != models.PriorityHigh {
			t.Errorf("task %s priority = %q", task.ID, task.Priority)
		}
	}
}

func TestFindByExactTitle(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Water the plants"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Water the plants weekly"}); err != nil {
		t.Fatal(err)
	}

	found, err := svc.FindByExactTitle(ctx, "water THE plants")
	if err != nil {
		t.Fatalf("FindByExactTitle() error = %v", err)
	}
	if found.Title != "Water the plants" {
		t.Errorf("Title = %q, expected the exact match, not the prefix match", found.Title)
	}

	_, err = svc.FindByExactTitle(ctx, "water")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("FindByExactTitle(substring) error = %v, expected ErrNotFound", err)
	}
}

func TestGetTasksDueSoon(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	soon := time.Now().Add(24 * time.Hour)
	far := time.Now().AddDate(0, 0, 10)
	if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Due soon", DueDate: &soon}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Due far", DueDate: &far}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "No date"}); err != nil {
		t.Fatal(err)
	}

	tasks, err := svc.GetTasksDueSoon(ctx, 0)
	if err != nil {
		t.Fatalf("GetTasksDueSoon() error = %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "Due soon" {
		t.Errorf("GetTasksDueSoon() returned %d tasks", len(tasks))
	}
}

func TestGetDailySummary(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	overdueDue := time.Now().Add(-24 * time.Hour)
	todayDue := time.Now().Add(time.Minute)

	late, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Submit taxes", Priority: models.PriorityHigh})
	if err != nil {
		t.Fatal(err)
	}
	// The past-due rule blocks creation, so backdate through an update.
	if _, err := svc.UpdateTask(ctx, late.ID, models.UpdateTaskData{DueDate: &overdueDue}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Standup notes", DueDate: &todayDue}); err != nil {
		t.Fatal(err)
	}
	done, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Old errand"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ArchiveTask(ctx, done.ID); err != nil {
		t.Fatal(err)
	}

	summary, err := svc.GetDailySummary(ctx)
	if err != nil {
		t.Fatalf("GetDailySummary() error = %v", err)
	}

	if summary.Overdue != 1 {
		t.Errorf("Overdue = %d, expected 1", summary.Overdue)
	}
	if summary.DueToday != 1 {
		t.Errorf("DueToday = %d, expected 1", summary.DueToday)
	}
	if summary.Completed != 1 {
		t.Errorf("Completed = %d, expected 1", summary.Completed)
	}
	if summary.HighPriority != 1 {
		t.Errorf("HighPriority = %d, expected 1", summary.HighPriority)
	}
	if summary.UrgentActions.OverdueHighPriority != 1 {
		t.Errorf("OverdueHighPriority = %d, expected 1", summary.UrgentActions.OverdueHighPriority)
	}
	if summary.Productivity.CompletedToday != 1 {
		t.Errorf("CompletedToday = %d, expected 1 (archived just now)", summary.Productivity.CompletedToday)
	}
	if len(summary.Recommendations) == 0 || summary.Recommendations[0] != "URGENT: 1 high priority tasks are overdue!" {
		t.Errorf("Recommendations = %v", summary.Recommendations)
	}
}

func TestGetAdvancedMetrics(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	a, _ := svc.CreateTask(ctx, models.CreateTaskData{Title: "First", Priority: models.PriorityHigh})
	if _, err := svc.CreateTask(ctx, models.CreateTaskData{Title: "Second"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ArchiveTask(ctx, a.ID); err != nil {
		t.Fatal(err)
	}

	m, err := svc.GetAdvancedMetrics(ctx)
	if err != nil {
		t.Fatalf("GetAdvancedMetrics() error = %v", err)
	}
	if m.Workload.TotalPending != 1 {
		t.Errorf("TotalPending = %d, expected 1", m.Workload.TotalPending)
	}
	if m.Productivity.TasksCompletedToday != 1 {
		t.Errorf("TasksCompletedToday = %d, expected 1", m.Productivity.TasksCompletedToday)
	}
	if m.Trends.CompletionRate != 50 {
		t.Errorf("CompletionRate = %v, expected 50", m.Trends.CompletionRate)
	}
}
