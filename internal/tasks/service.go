// Package tasks implements the task operations of a logged-in session. Every
// mutation is flushed to the TaskStore before the call returns.
package tasks

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/db"
	"github.com/chepyr/task-scheduler/internal/models"
	"github.com/chepyr/task-scheduler/internal/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrEmptyTitle      = apperr.New(apperr.Validation, "Title is required!")
	ErrInvalidPriority = apperr.New(apperr.Validation, "Priority must be High, Medium or Low.")
	ErrNoSession       = apperr.New(apperr.Auth, "Please login first.")
)

// NewTask is the input of Add.
type NewTask struct {
	Title       string
	Description string
	DueDate     models.Date
	Priority    models.Priority
}

type Service struct {
	store db.TaskStore
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewService(store db.TaskStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: store,
		log:   log,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// WithClock replaces the time source for created_at.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Load reads a user's list. On unreadable data it returns an empty list and
// the recoverable error.
func (s *Service) Load(ctx context.Context, username string) ([]models.Task, error) {
	tasks, err := s.store.Load(ctx, username)
	if err != nil {
		s.log.Warn("task list unreadable, starting empty",
			zap.String("username", username), zap.Error(err))
	}
	return tasks, err
}

// Add appends a new, not completed task to the session's list and flushes.
// The list is unchanged when the title is blank or the priority unknown.
func (s *Service) Add(ctx context.Context, sess *session.Session, in NewTask) (models.Task, error) {
	if sess == nil {
		return models.Task{}, ErrNoSession
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Task{}, ErrEmptyTitle
	}
	if !in.Priority.Valid() {
		return models.Task{}, ErrInvalidPriority
	}

	task := models.Task{
		ID:          s.newID(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		Completed:   false,
		CreatedAt:   models.NewTimestamp(s.now()),
	}

	sess.Lock()
	defer sess.Unlock()

	sess.Tasks = append(sess.Tasks, task)
	return task, s.flush(ctx, sess)
}

// Toggle flips completed on the task with id. An unknown id is not an
// error; the list is flushed either way. found reports whether a task
// matched.
func (s *Service) Toggle(ctx context.Context, sess *session.Session, id string) (found bool, err error) {
	if sess == nil {
		return false, ErrNoSession
	}
	sess.Lock()
	defer sess.Unlock()

	for i := range sess.Tasks {
		if sess.Tasks[i].ID == id {
			sess.Tasks[i].Completed = !sess.Tasks[i].Completed
			found = true
			break
		}
	}
	return found, s.flush(ctx, sess)
}

// Delete removes the task with id. Same no-match and flush rules as Toggle.
func (s *Service) Delete(ctx context.Context, sess *session.Session, id string) (found bool, err error) {
	if sess == nil {
		return false, ErrNoSession
	}
	sess.Lock()
	defer sess.Unlock()

	before := len(sess.Tasks)
	sess.Tasks = slices.DeleteFunc(sess.Tasks, func(task models.Task) bool {
		return task.ID == id
	})
	return len(sess.Tasks) != before, s.flush(ctx, sess)
}

// flush writes the whole list. Caller holds the session lock.
func (s *Service) flush(ctx context.Context, sess *session.Session) error {
	if err := s.store.Save(ctx, sess.Username, sess.Tasks); err != nil {
		s.log.Error("failed to flush tasks",
			zap.String("username", sess.Username), zap.Error(err))
		return err
	}
	return nil
}
