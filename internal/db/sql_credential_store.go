package db

import (
	"context"
	"database/sql"

	"github.com/chepyr/task-scheduler/internal/apperr"
)

// SQLCredentialStore keeps credentials in the users table.
type SQLCredentialStore struct {
	db *sql.DB
}

func NewSQLCredentialStore(db *sql.DB) *SQLCredentialStore {
	return &SQLCredentialStore{db: db}
}

func (r *SQLCredentialStore) Load(ctx context.Context) (map[string]string, error) {
	users := make(map[string]string)

	rows, err := r.db.QueryContext(ctx, `SELECT username, password_hash FROM users`)
	if err != nil {
		return users, apperr.Wrap(apperr.Storage, "Error loading users data", err)
	}
	defer rows.Close()

	loaded := make(map[string]string)
	for rows.Next() {
		var username, hash string
		if err := rows.Scan(&username, &hash); err != nil {
			return users, apperr.Wrap(apperr.Storage, "Error loading users data", err)
		}
		loaded[username] = hash
	}
	if err := rows.Err(); err != nil {
		return users, apperr.Wrap(apperr.Storage, "Error loading users data", err)
	}
	return loaded, nil
}

// Save replaces the whole users table with the given mapping in one
// transaction.
func (r *SQLCredentialStore) Save(ctx context.Context, users map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving users data", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving users data", err)
	}
	query := `INSERT INTO users (username, password_hash) VALUES ($1, $2)`
	for username, hash := range users {
		if _, err := tx.ExecContext(ctx, query, username, hash); err != nil {
			return apperr.Wrap(apperr.Storage, "Error saving users data", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return apperr.Wrap(apperr.Storage, "Error saving users data", err)
	}
	return nil
}
