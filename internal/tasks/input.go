package tasks

import (
	"strings"
	"time"

	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/models"
)

var ErrInvalidDueDate = apperr.New(apperr.Validation, "Due date must be YYYY-MM-DD.")

// ParseNewTask builds a NewTask from raw form values. An empty due date
// means today and an empty priority means High, the first choice offered.
func ParseNewTask(title, description, dueDate, priority string, now time.Time) (NewTask, error) {
	in := NewTask{
		Title:       title,
		Description: description,
		DueDate:     models.NewDate(now),
		Priority:    models.PriorityHigh,
	}

	if strings.TrimSpace(dueDate) != "" {
		d, err := models.ParseDate(dueDate)
		if err != nil {
			return NewTask{}, ErrInvalidDueDate
		}
		in.DueDate = d
	}
	if strings.TrimSpace(priority) != "" {
		p, ok := models.ParsePriority(priority)
		if !ok {
			return NewTask{}, ErrInvalidPriority
		}
		in.Priority = p
	}
	return in, nil
}
