package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/models"
)

const usersFile = "users.json"

// FileCredentialStore keeps all credentials in <dataDir>/users.json as a
// single JSON object {"<username>": "<hash>"}.
type FileCredentialStore struct {
	path string
}

func NewFileCredentialStore(dataDir string) *FileCredentialStore {
	return &FileCredentialStore{path: filepath.Join(dataDir, usersFile)}
}

func (s *FileCredentialStore) Load(ctx context.Context) (map[string]string, error) {
	users := make(map[string]string)
	if err := ctx.Err(); err != nil {
		return users, apperr.Wrap(apperr.Storage, "Error loading users data", err)
	}

	var stored map[string]string
	found, err := readJSON(s.path, &stored)
	if err != nil {
		return users, loadError("users", err)
	}
	if !found {
		return users, nil
	}
	for name, hash := range stored {
		users[name] = hash
	}
	return users, nil
}

func (s *FileCredentialStore) Save(ctx context.Context, users map[string]string) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving users data", err)
	}
	if users == nil {
		users = map[string]string{}
	}
	if err := writeJSONAtomic(s.path, users); err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving users data", err)
	}
	return nil
}

// FileTaskStore keeps each user's list in <dataDir>/tasks_<username>.json as
// a JSON array.
type FileTaskStore struct {
	dir string
}

func NewFileTaskStore(dataDir string) *FileTaskStore {
	return &FileTaskStore{dir: dataDir}
}

func (s *FileTaskStore) path(username string) (string, error) {
	if !models.ValidUsername(username) {
		return "", errBadUsername
	}
	return filepath.Join(s.dir, "tasks_"+username+".json"), nil
}

func (s *FileTaskStore) Load(ctx context.Context, username string) ([]models.Task, error) {
	tasks := []models.Task{}
	if err := ctx.Err(); err != nil {
		return tasks, apperr.Wrap(apperr.Storage, "Error loading tasks data", err)
	}
	path, err := s.path(username)
	if err != nil {
		return tasks, apperr.Wrap(apperr.Storage, "Error loading tasks data", err)
	}

	var stored []models.Task
	found, err := readJSON(path, &stored)
	if err != nil {
		return tasks, loadError("tasks", err)
	}
	if !found || stored == nil {
		return tasks, nil
	}
	return stored, nil
}

func (s *FileTaskStore) Save(ctx context.Context, username string, tasks []models.Task) error {
	if err := ctx.Err(); err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving tasks data", err)
	}
	path, err := s.path(username)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving tasks data", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	if err := writeJSONAtomic(path, tasks); err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving tasks data", err)
	}
	return nil
}

// errMalformed marks content that exists but is not the expected JSON.
var errMalformed = errors.New("malformed JSON")

func loadError(what string, err error) error {
	if errors.Is(err, errMalformed) {
		return apperr.Wrap(apperr.Storage,
			fmt.Sprintf("Error loading %s data. File might be corrupted.", what), err)
	}
	return apperr.Wrap(apperr.Storage, fmt.Sprintf("Error loading %s data", what), err)
}

// readJSON decodes path into v. A missing file is reported as found=false
// with no error.
func readJSON(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("%w: %s: %v", errMalformed, path, err)
	}
	return true, nil
}

// writeJSONAtomic replaces path with the JSON encoding of v through a temp
// file in the same directory, so readers never observe a partial write.
func writeJSONAtomic(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
