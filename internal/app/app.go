// Package app is the surface the front ends talk to. Every action returns a
// Result carrying a message that can be shown to the user as is.
package app

import (
	"context"
	"errors"

	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/auth"
	"github.com/chepyr/task-scheduler/internal/models"
	"github.com/chepyr/task-scheduler/internal/session"
	"github.com/chepyr/task-scheduler/internal/tasks"
	"go.uber.org/zap"
)

const (
	MsgRegistered = "Registration successful! Please login."
	MsgLoggedIn   = "Login successful!"
	MsgLoggedOut  = "Logged out."
	MsgTaskAdded  = "Task added successfully!"
	MsgToggled    = "Task updated."
	MsgDeleted    = "Task deleted."
	MsgNoTasks    = "No tasks found. Add your first task above!"
)

// Result is the outcome of one user action.
type Result struct {
	OK      bool
	Message string
	Err     error
}

func ok(msg string) Result {
	return Result{OK: true, Message: msg}
}

func fail(err error) Result {
	return Result{OK: false, Message: apperr.Message(err), Err: err}
}

const (
	EventTaskAdded   = "task_added"
	EventTaskToggled = "task_toggled"
	EventTaskDeleted = "task_deleted"
)

// Event tells a user's other views that their list changed.
type Event struct {
	Type   string       `json:"event"`
	TaskID string       `json:"task_id"`
	Task   *models.Task `json:"task,omitempty"`
}

// Notifier delivers events to a user's open connections.
type Notifier interface {
	Publish(username string, ev Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, Event) {}

type App struct {
	auth     *auth.Service
	tasks    *tasks.Service
	sessions *session.Manager
	notifier Notifier
	log      *zap.Logger
}

func New(authSvc *auth.Service, taskSvc *tasks.Service, sessions *session.Manager, log *zap.Logger) *App {
	if sessions == nil {
		sessions = session.NewManager()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		auth:     authSvc,
		tasks:    taskSvc,
		sessions: sessions,
		notifier: nopNotifier{},
		log:      log,
	}
}

// SetNotifier installs n as the receiver of task events.
func (a *App) SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	a.notifier = n
}

func (a *App) Register(ctx context.Context, username, password string) Result {
	if err := a.auth.Register(ctx, username, password); err != nil {
		return fail(err)
	}
	return ok(MsgRegistered)
}

// Login checks the credentials, issues a token and loads the user's tasks
// into a new session. A task file that cannot be read does not block the
// login; the session starts with an empty list.
func (a *App) Login(ctx context.Context, username, password string) (*session.Session, Result) {
	if username == "" || password == "" {
		return nil, fail(auth.ErrInvalidInput)
	}
	if !a.auth.VerifyCredentials(ctx, username, password) {
		a.log.Info("login failed", zap.String("username", username))
		return nil, fail(auth.ErrInvalidCredentials)
	}

	token, expiresAt, err := a.auth.IssueToken(username)
	if err != nil {
		return nil, fail(err)
	}
	list, _ := a.tasks.Load(ctx, username)

	sess := session.New(username, token, expiresAt, list)
	a.sessions.Put(sess)
	a.log.Info("user logged in", zap.String("username", username))
	return sess, ok(MsgLoggedIn)
}

// Logout ends the session for token. The token stays refused until it
// would have expired.
func (a *App) Logout(token string) Result {
	until, err := a.auth.TokenExpiry(token)
	if err != nil {
		a.sessions.Drop(token)
		return ok(MsgLoggedOut)
	}
	a.sessions.Revoke(token, until)
	return ok(MsgLoggedOut)
}

// Authenticate returns the live session for token. A valid token that has
// no session in this process, as after a restart, gets a fresh one. Any
// failure drops whatever session the token had.
func (a *App) Authenticate(ctx context.Context, token string) (*session.Session, error) {
	username, err := a.auth.VerifyToken(token)
	if err != nil {
		a.sessions.Drop(token)
		return nil, err
	}
	if a.sessions.IsRevoked(token) {
		return nil, auth.ErrTokenInvalid
	}

	if sess, found := a.sessions.Get(token); found {
		if sess.Username != username {
			a.sessions.Drop(token)
			return nil, auth.ErrTokenInvalid
		}
		return sess, nil
	}

	expiresAt, err := a.auth.TokenExpiry(token)
	if err != nil {
		return nil, err
	}
	list, _ := a.tasks.Load(ctx, username)
	sess := a.sessions.PutIfAbsent(session.New(username, token, expiresAt, list))
	a.log.Debug("session restored from token", zap.String("username", username))
	return sess, nil
}

func (a *App) AddTask(ctx context.Context, sess *session.Session, in tasks.NewTask) (models.Task, Result) {
	task, err := a.tasks.Add(ctx, sess, in)
	if err != nil {
		return models.Task{}, fail(err)
	}
	a.notifier.Publish(sess.Username, Event{Type: EventTaskAdded, TaskID: task.ID, Task: &task})
	return task, ok(MsgTaskAdded)
}

// ToggleTask flips a task. An unknown id still succeeds.
func (a *App) ToggleTask(ctx context.Context, sess *session.Session, id string) Result {
	found, err := a.tasks.Toggle(ctx, sess, id)
	if err != nil {
		return fail(err)
	}
	if found {
		a.notifier.Publish(sess.Username, Event{Type: EventTaskToggled, TaskID: id})
	}
	return ok(MsgToggled)
}

// DeleteTask removes a task. An unknown id still succeeds.
func (a *App) DeleteTask(ctx context.Context, sess *session.Session, id string) Result {
	found, err := a.tasks.Delete(ctx, sess, id)
	if err != nil {
		return fail(err)
	}
	if found {
		a.notifier.Publish(sess.Username, Event{Type: EventTaskDeleted, TaskID: id})
	}
	return ok(MsgDeleted)
}

// ListTasks returns the session's tasks filtered and sorted. The message is
// MsgNoTasks when nothing matches.
func (a *App) ListTasks(sess *session.Session, filter tasks.FilterStatus, sortBy tasks.SortBy) ([]models.Task, Result) {
	if sess == nil {
		return nil, fail(tasks.ErrNoSession)
	}
	list := tasks.FilterAndSort(sess.Snapshot(), filter, sortBy)
	if len(list) == 0 {
		return list, ok(MsgNoTasks)
	}
	return list, ok("")
}

// IsAuthError reports whether err should send the user back to login.
func IsAuthError(err error) bool {
	return apperr.KindOf(err) == apperr.Auth && !errors.Is(err, auth.ErrUserExists)
}
