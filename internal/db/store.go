package db

import (
	"context"
	"errors"

	"github.com/chepyr/task-scheduler/internal/models"
)

// CredentialStore persists the username -> password hash mapping.
//
// Load always returns a usable map. A non-nil error alongside it is
// recoverable: the file or table could not be read or parsed and the map is
// empty.
type CredentialStore interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, users map[string]string) error
}

// TaskStore persists one ordered task list per username. Save replaces the
// whole list.
//
// Load follows the same contract as CredentialStore.Load: the returned slice
// is never nil and an error means the stored list was unreadable.
type TaskStore interface {
	Load(ctx context.Context, username string) ([]models.Task, error)
	Save(ctx context.Context, username string, tasks []models.Task) error
}

var errBadUsername = errors.New("username cannot name a storage key")
