// Package session holds the per-login state that the front end used to keep
// in globals: who is logged in, with which token, and their task list.
package session

import (
	"slices"
	"sync"
	"time"

	"github.com/chepyr/task-scheduler/internal/models"
)

// Session is one logged-in user. The embedded mutex serializes actions on
// it; Tasks must only be touched while holding it.
type Session struct {
	sync.Mutex

	Username  string
	Token     string
	ExpiresAt time.Time
	Tasks     []models.Task
}

func New(username, token string, expiresAt time.Time, tasks []models.Task) *Session {
	if tasks == nil {
		tasks = []models.Task{}
	}
	return &Session{Username: username, Token: token, ExpiresAt: expiresAt, Tasks: tasks}
}

// Snapshot returns a copy of the task list taken under the lock.
func (s *Session) Snapshot() []models.Task {
	s.Lock()
	defer s.Unlock()
	return slices.Clone(s.Tasks)
}
