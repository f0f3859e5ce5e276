package stats

import (
	"testing"
	"time"

	"taskapi/internal/domain/models"
)

func timePtr(t time.Time) *time.Time { return &t }

func TestCompletionRate(t *testing.T) {
	tests := []struct {
		name      string
		completed int64
		total     int64
		expected  float64
	}{
		{"empty collection", 0, 0, 0},
		{"one third rounds to two decimals", 1, 3, 33.33},
		{"two thirds rounds up", 2, 3, 66.67},
		{"all completed", 5, 5, 100},
		{"none completed", 0, 7, 0},
		{"one sixth", 1, 6, 16.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompletionRate(tt.completed, tt.total)
			if got != tt.expected {
				t.Errorf("CompletionRate(%d, %d) = %v, expected %v", tt.completed, tt.total, got, tt.expected)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	tasks := []*models.Task{
		{ID: "1", Completed: true, Priority: models.PriorityHigh},
		{ID: "2", Priority: models.PriorityHigh, DueDate: timePtr(now.AddDate(0, 0, -1))},
		{ID: "3", Priority: models.PriorityLow, DueDate: timePtr(now.AddDate(0, 0, 1))},
		{ID: "4", Priority: models.PriorityMedium},
		// Completed and past due is not overdue.
		{ID: "5", Completed: true, Priority: models.PriorityMedium, DueDate: timePtr(now.AddDate(0, 0, -3))},
	}

	s := Compute(tasks, now)

	if s.Total != 5 {
		t.Errorf("Total = %d, expected 5", s.Total)
	}
	if s.Completed != 2 {
		t.Errorf("Completed = %d, expected 2", s.Completed)
	}
	if s.Pending != 3 {
		t.Errorf("Pending = %d, expected 3", s.Pending)
	}
	if s.Overdue != 1 {
		t.Errorf("Overdue = %d, expected 1", s.Overdue)
	}
	if s.ByPriority.High != 2 || s.ByPriority.Medium != 2 || s.ByPriority.Low != 1 {
		t.Errorf("ByPriority = %+v, expected high=2 medium=2 low=1", s.ByPriority)
	}
	if s.CompletionRate != 40 {
		t.Errorf("CompletionRate = %v, expected 40", s.CompletionRate)
	}
}

func TestDayAndWeekBoundaries(t *testing.T) {
	// A Wednesday afternoon.
	at := time.Date(2026, 3, 18, 15, 30, 45, 123, time.UTC)

	if got := StartOfDay(at); got != time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC) {
		t.Errorf("StartOfDay = %v", got)
	}
	if got := EndOfDay(at); got != time.Date(2026, 3, 18, 23, 59, 59, 999_000_000, time.UTC) {
		t.Errorf("EndOfDay = %v", got)
	}
	// Weeks start on Sunday.
	if got := StartOfWeek(at); got != time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) {
		t.Errorf("StartOfWeek = %v", got)
	}

	sunday := time.Date(2026, 3, 15, 8, 0, 0, 0, time.UTC)
	if got := StartOfWeek(sunday); got != time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC) {
		t.Errorf("StartOfWeek on a Sunday = %v, expected same day midnight", got)
	}
}

func TestIsDueToday(t *testing.T) {
	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		due      *time.Time
		expected bool
	}{
		{"no due date", nil, false},
		{"due this morning", timePtr(time.Date(2026, 3, 18, 0, 0, 0, 0, time.UTC)), true},
		{"due at end of day", timePtr(time.Date(2026, 3, 18, 23, 59, 59, 999_000_000, time.UTC)), true},
		{"due yesterday", timePtr(time.Date(2026, 3, 17, 23, 0, 0, 0, time.UTC)), false},
		{"due tomorrow", timePtr(time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &models.Task{DueDate: tt.due}
			if got := IsDueToday(task, now); got != tt.expected {
				t.Errorf("IsDueToday() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name     string
		in       RecommendationInput
		expected []string
	}{
		{
			name: "overdue high priority fires the urgent rule",
			in:   RecommendationInput{OverdueCount: 2, OverdueHighPriority: 2, CompletionRate: 50, Pending: 4},
			expected: []string{
				"URGENT: 2 high priority tasks are overdue!",
				"Address 2 overdue tasks when possible",
			},
		},
		{
			name: "six overdue suggests rescheduling",
			in:   RecommendationInput{OverdueCount: 6, CompletionRate: 50, Pending: 6},
			expected: []string{
				"Consider rescheduling 6 overdue tasks",
			},
		},
		{
			name: "five overdue stays on the softer wording",
			in:   RecommendationInput{OverdueCount: 5, CompletionRate: 50, Pending: 5},
			expected: []string{
				"Address 5 overdue tasks when possible",
			},
		},
		{
			name: "due today without completions nudges a first task",
			in:   RecommendationInput{DueTodayCount: 3, DueTodayHighPriority: 1, CompletionRate: 50, Pending: 3},
			expected: []string{
				"Focus on 1 high priority tasks due today",
				"Today's focus: 3 tasks due",
				"Start your day by completing one small task",
			},
		},
		{
			name: "low completion rate gets the chunking tip",
			in:   RecommendationInput{CompletionRate: 29.99, CompletedToday: 1, Pending: 10},
			expected: []string{
				"Tip: Break large tasks into smaller, manageable chunks",
				"Good progress: 1 tasks completed today",
			},
		},
		{
			name: "rate of exactly 30 fires neither rate rule",
			in:   RecommendationInput{CompletionRate: 30, CompletedToday: 1, Pending: 10},
			expected: []string{
				"Good progress: 1 tasks completed today",
			},
		},
		{
			name: "rate of exactly 80 fires neither rate rule",
			in:   RecommendationInput{CompletionRate: 80, CompletedToday: 1, Pending: 2},
			expected: []string{
				"Good progress: 1 tasks completed today",
			},
		},
		{
			name: "high completion rate gets praise",
			in:   RecommendationInput{CompletionRate: 85, Pending: 1},
			expected: []string{
				"Great job! You're maintaining a high completion rate",
			},
		},
		{
			name: "heavy high-priority backlog",
			in:   RecommendationInput{HighPriorityPending: 4, CompletionRate: 50, Pending: 4},
			expected: []string{
				"High workload: 4 high priority tasks pending",
			},
		},
		{
			name: "nothing fires with pending work left",
			in:   RecommendationInput{CompletionRate: 50, Pending: 2},
			expected: []string{
				"Review your task list and prioritize your next actions",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Recommendations(tt.in)
			if len(got) != len(tt.expected) {
				t.Fatalf("Recommendations() = %v, expected %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("recommendation %d = %q, expected %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestBuildDailySummary(t *testing.T) {
	now := time.Date(2026, 3, 18, 14, 0, 0, 0, time.UTC) // Wednesday
	startOfWeek := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	dueToday := []*models.Task{
		{ID: "d1", Priority: models.PriorityHigh, DueDate: timePtr(now)},
		{ID: "d2", Priority: models.PriorityLow, DueDate: timePtr(now)},
	}
	overdue := []*models.Task{
		{ID: "o1", Priority: models.PriorityHigh, DueDate: timePtr(now.AddDate(0, 0, -2))},
	}
	highPriority := []*models.Task{
		{ID: "h1", Priority: models.PriorityHigh},
		{ID: "h2", Priority: models.PriorityHigh, Completed: true},
	}
	all := []*models.Task{
		{ID: "c1", Completed: true, UpdatedAt: now.Add(-1 * time.Hour)},              // today
		{ID: "c2", Completed: true, UpdatedAt: startOfWeek.Add(6 * time.Hour)},      // this week
		{ID: "c3", Completed: true, UpdatedAt: startOfWeek.AddDate(0, 0, -1)},       // last week
		{ID: "p1", UpdatedAt: now},
	}

	summary := BuildDailySummary(SummaryInput{
		Stats:        &models.Statistics{Completed: 3, Pending: 4, CompletionRate: 42.86},
		DueToday:     dueToday,
		Overdue:      overdue,
		HighPriority: highPriority,
		AllTasks:     all,
		Now:          now,
	})

	if summary.DueToday != 2 {
		t.Errorf("DueToday = %d, expected 2", summary.DueToday)
	}
	if summary.Overdue != 1 {
		t.Errorf("Overdue = %d, expected 1", summary.Overdue)
	}
	if summary.HighPriority != 1 {
		t.Errorf("HighPriority = %d, expected 1 (pending only)", summary.HighPriority)
	}
	if summary.Productivity.CompletedToday != 1 {
		t.Errorf("CompletedToday = %d, expected 1", summary.Productivity.CompletedToday)
	}
	if summary.Productivity.CompletedThisWeek != 2 {
		t.Errorf("CompletedThisWeek = %d, expected 2", summary.Productivity.CompletedThisWeek)
	}
	if summary.UrgentActions.OverdueHighPriority != 1 {
		t.Errorf("OverdueHighPriority = %d, expected 1", summary.UrgentActions.OverdueHighPriority)
	}
	if summary.UrgentActions.DueTodayHighPriority != 1 {
		t.Errorf("DueTodayHighPriority = %d, expected 1", summary.UrgentActions.DueTodayHighPriority)
	}

	if len(summary.Recommendations) == 0 || summary.Recommendations[0] != "URGENT: 1 high priority tasks are overdue!" {
		t.Errorf("Recommendations = %v, expected the urgent rule first", summary.Recommendations)
	}
}
