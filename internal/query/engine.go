// Package query implements the in-process task query pipeline: filter,
// sort and paginate over a task collection. The functions are pure and
// serve both as the in-memory backend and as the reference oracle for the
// native query translations of the other backends.
package query

import (
	"sort"
	"strings"
	"time"

	"taskapi/internal/domain/models"
)

// Apply runs the full pipeline over tasks. Options are expected to carry
// caller-validated page/limit values; the engine does not clamp them.
func Apply(tasks []*models.Task, opts models.QueryOptions) *models.PaginatedResult {
	filtered := Filter(tasks, opts)
	Sort(filtered, opts.SortBy, opts.SortOrder)
	return Paginate(filtered, opts.Page, opts.Limit)
}

// Filter returns the tasks matching every supplied criterion. Filters are
// conjunctive and applied in a fixed order: completed, priority, search,
// dueDateFrom, dueDateTo.
func Filter(tasks []*models.Task, opts models.QueryOptions) []*models.Task {
	filtered := make([]*models.Task, 0, len(tasks))
	for _, t := range tasks {
		if Matches(t, opts) {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

// Matches reports whether a single task satisfies the filter criteria in opts.
func Matches(t *models.Task, opts models.QueryOptions) bool {
	if opts.Completed != nil && t.Completed != *opts.Completed {
		return false
	}

	if opts.Priority != nil && t.Priority != *opts.Priority {
		return false
	}

	if opts.Search != "" {
		term := strings.ToLower(opts.Search)
		inTitle := strings.Contains(strings.ToLower(t.Title), term)
		inDescription := t.Description != nil &&
			strings.Contains(strings.ToLower(*t.Description), term)
		if !inTitle && !inDescription {
			return false
		}
	}

	// A task with no due date never satisfies a date-range filter.
	if opts.DueDateFrom != nil {
		if t.DueDate == nil || t.DueDate.Before(*opts.DueDateFrom) {
			return false
		}
	}

	if opts.DueDateTo != nil {
		if t.DueDate == nil || t.DueDate.After(EndOfDay(*opts.DueDateTo)) {
			return false
		}
	}

	return true
}

// EndOfDay returns 23:59:59.999 on the calendar day of t, in t's location.
// The dueDateTo bound is inclusive of the whole final day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 999_000_000, t.Location())
}

// Sort orders tasks in place by the requested field. String fields compare
// case-insensitively, dates by instant. Tasks without a due date always land
// at the "late end": after dated tasks when ascending, before them when
// descending.
func Sort(tasks []*models.Task, sortBy models.SortField, order models.SortOrder) {
	if sortBy == "" {
		sortBy = models.SortByCreatedAt
	}
	if order != models.SortAsc && order != models.SortDesc {
		order = models.SortDesc
	}
	asc := order == models.SortAsc

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]

		if sortBy == models.SortByDueDate {
			switch {
			case a.DueDate == nil && b.DueDate == nil:
				return false
			case a.DueDate == nil:
				return !asc
			case b.DueDate == nil:
				return asc
			}
		}

		cmp := compareField(a, b, sortBy)
		if asc {
			return cmp < 0
		}
		return cmp > 0
	})
}

func compareField(a, b *models.Task, field models.SortField) int {
	switch field {
	case models.SortByTitle:
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	case models.SortByPriority:
		// Priorities order by their lexical string value, matching what
		// ORDER BY on a text column yields in the SQL backends.
		return strings.Compare(string(a.Priority), string(b.Priority))
	case models.SortByDueDate:
		return a.DueDate.Compare(*b.DueDate)
	case models.SortByUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

// Paginate slices the filtered-and-sorted sequence into 1-based pages.
// Out-of-range pages yield an empty data slice with accurate metadata; this
// is never an error.
func Paginate(tasks []*models.Task, page, limit int) *models.PaginatedResult {
	total := len(tasks)
	start := (page - 1) * limit
	end := start + limit

	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	data := make([]*models.Task, 0, end-start)
	for _, t := range tasks[start:end] {
		data = append(data, t.Clone())
	}

	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	return &models.PaginatedResult{
		Data: data,
		Meta: models.PaginationMeta{
			Total:      int64(total),
			Page:       page,
			Limit:      limit,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	}
}
