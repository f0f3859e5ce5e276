// Package stats computes the derived analytics over a task collection: the
// aggregate statistics and the daily-summary views with its recommendation
// cascade. All functions are pure; time boundaries are derived from the
// supplied instant in its own location (server-local in production).
package stats

import (
	"fmt"
	"math"
	"time"

	"taskapi/internal/domain/models"
)

// Compute calculates the aggregate statistics for tasks as of now.
func Compute(tasks []*models.Task, now time.Time) *models.Statistics {
	s := &models.Statistics{}

	for _, t := range tasks {
		s.Total++
		if t.Completed {
			s.Completed++
		}
		switch t.Priority {
		case models.PriorityLow:
			s.ByPriority.Low++
		case models.PriorityMedium:
			s.ByPriority.Medium++
		case models.PriorityHigh:
			s.ByPriority.High++
		}
		if t.IsOverdue(now) {
			s.Overdue++
		}
	}

	s.Pending = s.Total - s.Completed
	s.CompletionRate = CompletionRate(s.Completed, s.Total)
	return s
}

// CompletionRate returns completed/total as a percentage rounded to two
// decimals, or 0 when the collection is empty.
func CompletionRate(completed, total int64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(completed)/float64(total)*100*100) / 100
}

// StartOfDay returns local midnight on the calendar day of t.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns 23:59:59.999 on the calendar day of t.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, t.Location())
}

// StartOfWeek returns midnight of the Sunday that starts t's week.
func StartOfWeek(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, -int(t.Weekday()))
}

// IsDueToday reports whether the task's due date falls within the calendar
// day of now, inclusive at both boundaries.
func IsDueToday(t *models.Task, now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	start := StartOfDay(now)
	end := EndOfDay(now)
	return !t.DueDate.Before(start) && !t.DueDate.After(end)
}

// SummaryInput carries the component views the daily summary is built from.
// The service assembles it from repository queries so every backend feeds
// the same cascade.
type SummaryInput struct {
	Stats    *models.Statistics
	DueToday []*models.Task
	Overdue  []*models.Task
	// HighPriority is every high-priority task regardless of completion.
	HighPriority []*models.Task
	// AllTasks is the collection used to count recent completions by
	// UpdatedAt.
	AllTasks []*models.Task
	Now      time.Time
}

// BuildDailySummary composes the daily summary from its inputs.
func BuildDailySummary(in SummaryInput) *models.DailySummary {
	highPriorityPending := 0
	for _, t := range in.HighPriority {
		if !t.Completed {
			highPriorityPending++
		}
	}

	overdueHigh := 0
	for _, t := range in.Overdue {
		if t.Priority == models.PriorityHigh {
			overdueHigh++
		}
	}

	dueTodayHigh := 0
	for _, t := range in.DueToday {
		if t.Priority == models.PriorityHigh {
			dueTodayHigh++
		}
	}

	startOfToday := StartOfDay(in.Now)
	startOfWeek := StartOfWeek(in.Now)

	completedToday := 0
	completedThisWeek := 0
	for _, t := range in.AllTasks {
		if !t.Completed {
			continue
		}
		// UpdatedAt approximates the completion instant; the model does
		// not track a dedicated completedAt.
		if !t.UpdatedAt.Before(startOfToday) {
			completedToday++
		}
		if !t.UpdatedAt.Before(startOfWeek) {
			completedThisWeek++
		}
	}

	return &models.DailySummary{
		DueToday:     len(in.DueToday),
		Overdue:      len(in.Overdue),
		Completed:    in.Stats.Completed,
		HighPriority: highPriorityPending,
		Recommendations: Recommendations(RecommendationInput{
			OverdueCount:         len(in.Overdue),
			DueTodayCount:        len(in.DueToday),
			OverdueHighPriority:  overdueHigh,
			DueTodayHighPriority: dueTodayHigh,
			HighPriorityPending:  highPriorityPending,
			CompletionRate:       in.Stats.CompletionRate,
			CompletedToday:       completedToday,
			Pending:              in.Stats.Pending,
		}),
		Productivity: models.Productivity{
			CompletedToday:    completedToday,
			CompletedThisWeek: completedThisWeek,
			CompletionRate:    in.Stats.CompletionRate,
		},
		UrgentActions: models.UrgentActions{
			OverdueHighPriority:  overdueHigh,
			DueTodayHighPriority: dueTodayHigh,
		},
	}
}

// RecommendationInput carries the counts the advisory cascade evaluates.
type RecommendationInput struct {
	OverdueCount         int
	DueTodayCount        int
	OverdueHighPriority  int
	DueTodayHighPriority int
	HighPriorityPending  int
	CompletionRate       float64
	CompletedToday       int
	Pending              int64
}

// Recommendations runs the fixed, ordered advisory rule cascade. Rules are
// not mutually exclusive; several may fire. The order and thresholds are a
// stable contract relied on by clients.
func Recommendations(in RecommendationInput) []string {
	recs := []string{}

	if in.OverdueHighPriority > 0 {
		recs = append(recs, fmt.Sprintf("URGENT: %d high priority tasks are overdue!", in.OverdueHighPriority))
	}

	if in.DueTodayHighPriority > 0 {
		recs = append(recs, fmt.Sprintf("Focus on %d high priority tasks due today", in.DueTodayHighPriority))
	}

	if in.OverdueCount > 5 {
		recs = append(recs, fmt.Sprintf("Consider rescheduling %d overdue tasks", in.OverdueCount))
	} else if in.OverdueCount > 0 {
		recs = append(recs, fmt.Sprintf("Address %d overdue tasks when possible", in.OverdueCount))
	}

	if in.DueTodayCount > 0 {
		recs = append(recs, fmt.Sprintf("Today's focus: %d tasks due", in.DueTodayCount))
	}

	if in.HighPriorityPending > 3 {
		recs = append(recs, fmt.Sprintf("High workload: %d high priority tasks pending", in.HighPriorityPending))
	}

	if in.CompletionRate < 30 {
		recs = append(recs, "Tip: Break large tasks into smaller, manageable chunks")
	} else if in.CompletionRate > 80 {
		recs = append(recs, "Great job! You're maintaining a high completion rate")
	}

	if in.CompletedToday == 0 && in.DueTodayCount > 0 {
		recs = append(recs, "Start your day by completing one small task")
	} else if in.CompletedToday > 0 {
		recs = append(recs, fmt.Sprintf("Good progress: %d tasks completed today", in.CompletedToday))
	}

	if len(recs) == 0 {
		if in.Pending == 0 {
			recs = append(recs, "All caught up! Great work!")
		} else {
			recs = append(recs, "Review your task list and prioritize your next actions")
		}
	}

	return recs
}
