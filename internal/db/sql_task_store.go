package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/chepyr/task-scheduler/internal/apperr"
	"github.com/chepyr/task-scheduler/internal/models"
)

// SQLTaskStore keeps every user's list in the tasks table. The position
// column preserves list order.
type SQLTaskStore struct {
	db *sql.DB
}

func NewSQLTaskStore(db *sql.DB) *SQLTaskStore {
	return &SQLTaskStore{db: db}
}

func (r *SQLTaskStore) Load(ctx context.Context, username string) ([]models.Task, error) {
	tasks := []models.Task{}

	query := `SELECT id, title, description, due_date, priority, completed, created_at
	 FROM tasks WHERE username = $1 ORDER BY position`
	rows, err := r.db.QueryContext(ctx, query, username)
	if err != nil {
		return tasks, apperr.Wrap(apperr.Storage, "Error loading tasks data", err)
	}
	defer rows.Close()

	var loaded []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return tasks, apperr.Wrap(apperr.Storage, "Error loading tasks data. Data might be corrupted.", err)
		}
		loaded = append(loaded, task)
	}
	if err := rows.Err(); err != nil {
		return tasks, apperr.Wrap(apperr.Storage, "Error loading tasks data", err)
	}
	if loaded == nil {
		return tasks, nil
	}
	return loaded, nil
}

func scanTask(rows *sql.Rows) (models.Task, error) {
	var (
		task               models.Task
		dueDate, createdAt string
		priority           string
	)
	if err := rows.Scan(
		&task.ID, &task.Title, &task.Description, &dueDate, &priority,
		&task.Completed, &createdAt,
	); err != nil {
		return task, err
	}

	var err error
	if task.DueDate, err = models.ParseDate(dueDate); err != nil {
		return task, fmt.Errorf("task %s: %w", task.ID, err)
	}
	if task.CreatedAt, err = models.ParseTimestamp(createdAt); err != nil {
		return task, fmt.Errorf("task %s: %w", task.ID, err)
	}
	task.Priority = models.Priority(priority)
	return task, nil
}

// Save replaces the user's rows with tasks in one transaction.
func (r *SQLTaskStore) Save(ctx context.Context, username string, tasks []models.Task) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving tasks data", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE username = $1`, username); err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving tasks data", err)
	}

	query := `INSERT INTO tasks
	 (username, position, id, title, description, due_date, priority, completed, created_at)
	 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	for i, task := range tasks {
		_, err := tx.ExecContext(ctx, query,
			username, i, task.ID, task.Title, task.Description,
			task.DueDate.String(), string(task.Priority), task.Completed, task.CreatedAt.String())
		if err != nil {
			return apperr.Wrap(apperr.Storage, "Error saving tasks data", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving tasks data", err)
	}
	return nil
}
