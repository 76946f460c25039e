package tasks

import (
	"slices"
	"strings"

	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/models"
)

type FilterStatus string

const (
	FilterAll       FilterStatus = "All"
	FilterActive    FilterStatus = "Active"
	FilterCompleted FilterStatus = "Completed"
)

type SortBy string

const (
	SortDueDate     SortBy = "DueDate"
	SortPriority    SortBy = "Priority"
	SortCreatedDate SortBy = "CreatedDate"
)

var (
	ErrInvalidFilter = apperr.New(apperr.Validation, "Filter must be All, Active or Completed.")
	ErrInvalidSort   = apperr.New(apperr.Validation, "Sort must be Due Date, Priority or Created Date.")
)

// ParseFilter accepts any casing; empty means All.
func ParseFilter(s string) (FilterStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return FilterAll, nil
	case "active":
		return FilterActive, nil
	case "completed":
		return FilterCompleted, nil
	default:
		return "", ErrInvalidFilter
	}
}

// ParseSort accepts the display names ("Due Date", "Created Date") as well
// as the compact ones, in any casing; empty means DueDate.
func ParseSort(s string) (SortBy, error) {
	key := strings.ToLower(strings.NewReplacer(" ", "", "_", "", "-", "").Replace(s))
	switch key {
	case "", "duedate", "due":
		return SortDueDate, nil
	case "priority":
		return SortPriority, nil
	case "createddate", "created", "createdat":
		return SortCreatedDate, nil
	default:
		return "", ErrInvalidSort
	}
}

// FilterAndSort returns a new slice holding the tasks that pass filter,
// ordered by sortBy. The input is not modified. All orderings are stable.
func FilterAndSort(tasks []models.Task, filter FilterStatus, sortBy SortBy) []models.Task {
	out := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		switch filter {
		case FilterActive:
			if task.Completed {
				continue
			}
		case FilterCompleted:
			if !task.Completed {
				continue
			}
		}
		out = append(out, task)
	}

	switch sortBy {
	case SortPriority:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return a.Priority.Rank() - b.Priority.Rank()
		})
	case SortCreatedDate:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return b.CreatedAt.Compare(a.CreatedAt.Time)
		})
	default:
		slices.SortStableFunc(out, func(a, b models.Task) int {
			return a.DueDate.Compare(b.DueDate.Time)
		})
	}
	return out
}
