package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Connect opens and pings a database handle. The driver must already be
// registered by the caller (sqlite3 or postgres). sqlite3 handles hold a
// single connection: every connection to ":memory:" is a separate database,
// and a file database allows one writer anyway.
func Connect(driverName, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if driverName == "sqlite3" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return db, nil
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
  username TEXT PRIMARY KEY,
  password_hash TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tasks (
  username TEXT NOT NULL,
  position INTEGER NOT NULL,
  id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL,
  due_date TEXT NOT NULL,
  priority TEXT NOT NULL,
  completed BOOLEAN NOT NULL,
  created_at TEXT NOT NULL,
  PRIMARY KEY (username, id)
);
CREATE INDEX IF NOT EXISTS idx_tasks_username ON tasks(username);
`

// Migrate creates the users and tasks tables if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
